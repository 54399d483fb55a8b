// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bridge

import (
	"context"
	"encoding/json"

	"github.com/snrraptopack/auwsomebridge-sub001/envelope"
	"github.com/snrraptopack/auwsomebridge-sub001/hook"
	"github.com/snrraptopack/auwsomebridge-sub001/observability"
	"github.com/snrraptopack/auwsomebridge-sub001/schema"
	"github.com/snrraptopack/auwsomebridge-sub001/transport"
)

// DispatchOutcome is what the dispatcher core hands back to an adapter: a
// plain envelope to emit, or (for sse) a Producer the adapter streams out
// with its own transport.SSEWriter.
type DispatchOutcome struct {
	Status   int
	Body     any // envelope.Success or envelope.Error
	IsStream bool
	Stream   transport.Producer
}

// Dispatch runs one http/sse request through the full pipeline in
// COMPONENT DESIGN §4.C: route lookup, method enforcement, input
// extraction/validation, hook execution, and output shaping. platform is an
// opaque handle threaded into HookContext.Platform unchanged.
func (b *Bridge) Dispatch(ctx context.Context, routeName string, req *envelope.Request, platform any) DispatchOutcome {
	e, ok := b.registry.lookup(routeName)
	if !ok || e.info.Kind == KindWS {
		return errorOutcome(404, envelope.CodeRouteNotFound, "route not found", nil)
	}

	if req.Method != e.info.Method {
		return errorOutcome(405, envelope.CodeMethodNotAllowed, "method not allowed", nil)
	}

	raw, err := extractInput(req, e.info.Method)
	if err != nil {
		raw = map[string]any{}
	}

	if e.inputSchema != nil {
		if verr := e.inputSchema.Validate(raw); verr != nil {
			return validationOutcome(verr)
		}
	}

	typedInput, err := e.decodeInput(raw)
	if err != nil {
		return errorOutcome(400, envelope.CodeValidationError, "input failed validation", map[string]any{
			"issues": []envelope.Issue{{Message: err.Error()}},
		})
	}

	hctx := &hook.Context{
		Std:      ctx,
		Req:      req,
		Method:   e.info.Method,
		Route:    routeName,
		Input:    typedInput,
		Vars:     map[string]any{},
		Platform: platform,
	}

	info := observability.RequestInfo{Route: routeName, Kind: string(e.info.Kind), Method: e.info.Method}
	obsCtx, state := b.recorder.OnRequestStart(ctx, info)
	hctx.Std = obsCtx
	logger := b.recorder.Logger(obsCtx, state)
	if logger == nil {
		logger = b.logger
	}
	if b.logRequests {
		logger.Info("dispatch", "method", e.info.Method, "route", routeName, "input", typedInput)
	}
	hctx.OnPhase = func(phase, outcome string) { b.recorder.OnHookPhase(obsCtx, info, phase, outcome) }

	combined := hook.Combine(b.globalHooks, e.hooks)

	var handlerFn hook.HandlerFunc
	switch e.info.Kind {
	case KindSSE:
		handlerFn = func(hc *hook.Context) (any, error) {
			rc := &RequestContext{Context: hc}
			return e.invokeSSE(rc, hc.Input)
		}
	default:
		handlerFn = func(hc *hook.Context) (any, error) {
			rc := &RequestContext{Context: hc}
			return e.invokeHTTP(rc, hc.Input)
		}
	}

	outcome := hook.Execute(combined, handlerFn, hctx, logger)

	var outErr error
	status := 200
	var result DispatchOutcome

	if !outcome.IsSuccess() {
		f := outcome.Failure()
		outErr = &dispatchError{f.Message}
		status = f.Status
		result = errorOutcome(f.Status, envelope.CodeForStatus(f.Status), f.Message, nil)
	} else {
		switch e.info.Kind {
		case KindSSE:
			producer, ok := outcome.Data().(transport.Producer)
			if !ok {
				outErr = ErrNotIterable
				status = 500
				result = errorOutcome(500, envelope.CodeInternalError, "sse handler result is not iterable", nil)
			} else {
				result = DispatchOutcome{IsStream: true, Stream: producer}
			}
		default:
			data := outcome.Data()
			if e.outputSchema != nil && b.validateResponses {
				if verr := validateOutput(e.outputSchema, data); verr != nil {
					outErr = ErrOutputValidationFailed
					status = 500
					result = errorOutcome(500, envelope.CodeInternalError, "Output validation failed (server bug)", nil)
					break
				}
			}
			result = DispatchOutcome{Status: 200, Body: envelope.NewSuccess(data)}
		}
	}

	if state != nil {
		b.recorder.OnRequestEnd(obsCtx, state, info, status, outErr)
	}
	return result
}

// extractInput implements step 4 of §4.C: GET parses the query into a
// mapping where repeated keys become string arrays; every other method
// parses the JSON body, treating an empty or malformed body as {}.
func extractInput(req *envelope.Request, method string) (any, error) {
	if method == MethodGet {
		return queryToMap(req.Query), nil
	}
	if len(req.Body) == 0 {
		return map[string]any{}, nil
	}
	var raw any
	if err := json.Unmarshal(req.Body, &raw); err != nil {
		return map[string]any{}, nil
	}
	return raw, nil
}

func queryToMap(query map[string]envelope.Values) map[string]any {
	out := make(map[string]any, len(query))
	for k, v := range query {
		if len(v) == 1 {
			out[k] = v[0]
			continue
		}
		arr := make([]any, len(v))
		for i, s := range v {
			arr[i] = s
		}
		out[k] = arr
	}
	return out
}

func validateOutput(s *schema.Schema, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	return s.Validate(raw)
}

func errorOutcome(status int, code envelope.Code, message string, details any) DispatchOutcome {
	return DispatchOutcome{Status: status, Body: envelope.NewError(code, message, details)}
}

func validationOutcome(err error) DispatchOutcome {
	if se, ok := err.(*schema.Error); ok {
		return DispatchOutcome{Status: 400, Body: envelope.NewValidationError(se.Issues)}
	}
	return DispatchOutcome{Status: 400, Body: envelope.NewValidationError([]envelope.Issue{{Message: err.Error()}})}
}

type dispatchError struct{ message string }

func (e *dispatchError) Error() string { return e.message }
