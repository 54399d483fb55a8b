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
	"fmt"
	"log/slog"

	"github.com/snrraptopack/auwsomebridge-sub001/envelope"
	"github.com/snrraptopack/auwsomebridge-sub001/hook"
	"github.com/snrraptopack/auwsomebridge-sub001/observability"
	"github.com/snrraptopack/auwsomebridge-sub001/schema"
	"github.com/snrraptopack/auwsomebridge-sub001/transport"
)

// WSUpgrade is the result of preparing a WebSocket upgrade (§4.E steps
// 1-2): either a refusal with a status/message, or everything the adapter
// needs to complete the protocol handshake and drive the connection.
type WSUpgrade struct {
	Allowed bool
	Status  int
	Body    envelope.Error // set when !Allowed

	// Populated when Allowed: the adapter upgrades the socket, builds a
	// transport.Connection seeded with HookContext.Vars, then calls
	// OnOpen/HandleMessage/Close as the connection's lifecycle unfolds.
	HookContext *hook.Context
	Hooks       []hook.Hook
	route       *entry
}

// PrepareWSUpgrade implements §4.E steps 1-2: parse and validate the
// handshake query, then run only the before phase of the combined hook
// list. It must be called, and must return Allowed, before the adapter
// performs the actual protocol upgrade.
func (b *Bridge) PrepareWSUpgrade(ctx context.Context, routeName string, req *envelope.Request, platform any) WSUpgrade {
	e, ok := b.registry.lookup(routeName)
	if !ok || e.info.Kind != KindWS {
		return WSUpgrade{Status: 404, Body: envelope.NewError(envelope.CodeRouteNotFound, "route not found", nil)}
	}

	raw := queryToMap(req.Query)
	if e.inputSchema != nil {
		if verr := e.inputSchema.Validate(raw); verr != nil {
			out := validationOutcome(verr)
			return WSUpgrade{Status: out.Status, Body: out.Body.(envelope.Error)}
		}
	}

	typedInput, err := e.decodeInput(raw)
	if err != nil {
		return WSUpgrade{Status: 400, Body: envelope.NewValidationError([]envelope.Issue{{Message: err.Error()}})}
	}

	hctx := &hook.Context{
		Std:      ctx,
		Req:      req,
		Method:   MethodGet,
		Route:    routeName,
		Input:    typedInput,
		Vars:     map[string]any{},
		Platform: platform,
	}
	info := observability.RequestInfo{Route: routeName, Kind: string(e.info.Kind), Method: MethodGet}
	hctx.OnPhase = func(phase, outcome string) { b.recorder.OnHookPhase(ctx, info, phase, outcome) }

	combined := hook.Combine(b.globalHooks, e.hooks)
	outcome := hook.BeforeOnly(combined, hctx)
	if !outcome.IsSuccess() {
		f := outcome.Failure()
		return WSUpgrade{Status: f.Status, Body: envelope.NewError(envelope.CodeForStatus(f.Status), f.Message, nil)}
	}
	if outcome.Data() != nil {
		hctx.Response = outcome.Data()
	}

	route := e
	return WSUpgrade{Allowed: true, HookContext: hctx, Hooks: combined, route: &route}
}

// OnOpen invokes the route's onOpen callback, if any, once the adapter has
// completed the protocol upgrade and built the Connection.
func (u WSUpgrade) OnOpen(conn *transport.Connection, logger *slog.Logger) {
	if u.route.ws.OnOpen == nil {
		return
	}
	safeCall(logger, func() { u.route.ws.OnOpen(conn) })
}

// HandleMessage implements §4.E step 4: parse the inbound frame as JSON
// (falling back to the raw string on parse failure), validate it against
// Input if set, and on success invoke onMessage. A validation failure sends
// a structured error frame and does NOT close the connection. It reports
// whether the connection should still be considered successful and, when
// not, the failure to record at close.
func (u WSUpgrade) HandleMessage(conn *transport.Connection, raw []byte, logger *slog.Logger) (succeeded bool, failure *hook.Failure) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		parsed = string(raw)
	}

	if u.route.inputSchema != nil {
		if verr := u.route.inputSchema.Validate(parsed); verr != nil {
			issues := []envelope.Issue{{Message: verr.Error()}}
			if se, ok := verr.(*schema.Error); ok {
				issues = se.Issues
			}
			_ = conn.Send(envelope.NewWSError(envelope.WSCodeValidationError, "input failed validation", map[string]any{"issues": issues}))
			return true, nil
		}
	}

	if u.route.ws.OnMessage == nil {
		return true, nil
	}

	err := safeCallErr(func() { u.route.ws.OnMessage(conn, parsed) })
	if err != nil {
		_ = conn.Send(envelope.NewWSError(envelope.WSCodeHandlerError, err.Error(), nil))
		if u.route.ws.OnError != nil {
			safeCall(logger, func() { u.route.ws.OnError(conn, err) })
		}
		return false, &hook.Failure{Status: 500, Message: err.Error()}
	}
	return true, nil
}

// Close implements §4.E step 6: invoke onClose, then run cleanup with the
// connection's final success/error payload, exactly once.
func (u WSUpgrade) Close(conn *transport.Connection, code int, reason string, succeeded bool, failure *hook.Failure, logger *slog.Logger) {
	if u.route.ws.OnClose != nil {
		safeCall(logger, func() { u.route.ws.OnClose(conn, code, reason) })
	}
	hook.RunCleanup(u.Hooks, u.HookContext, succeeded, failure, logger)
}

func safeCall(logger *slog.Logger, fn func()) {
	if logger == nil {
		logger = slog.Default()
	}
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("ws handler panicked", "panic", rec)
		}
	}()
	fn()
}

func safeCallErr(fn func()) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	fn()
	return nil
}
