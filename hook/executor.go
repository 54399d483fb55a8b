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

package hook

import (
	"fmt"
	"log/slog"
)

// Outcome is the union Execute returns: either a Success carrying the final
// response, or a Failure carrying {status, error}.
type Outcome struct {
	ok      bool
	data    any
	failure Failure
}

// IsSuccess reports whether the outcome is a Success.
func (o Outcome) IsSuccess() bool { return o.ok }

// Data returns the success payload. Valid only when IsSuccess is true.
func (o Outcome) Data() any { return o.data }

// Failure returns the terminal failure. Valid only when IsSuccess is false.
func (o Outcome) Failure() Failure { return o.failure }

func success(data any) Outcome { return Outcome{ok: true, data: data} }
func failed(f Failure) Outcome { return Outcome{ok: false, failure: f} }

type phases struct {
	before  []BeforeFunc
	after   []AfterFunc
	cleanup []CleanupFunc
}

// partition splits hooks into before/after/cleanup streams, preserving
// intra-hook order. A legacy hook contributes only to before; a lifecycle
// hook contributes a stage to a stream iff that stage is non-nil.
func partition(hooks []Hook) phases {
	var p phases
	for _, h := range hooks {
		if h.legacy != nil {
			p.before = append(p.before, h.legacy)
			continue
		}
		if h.before != nil {
			p.before = append(p.before, h.before)
		}
		if h.after != nil {
			p.after = append(p.after, h.after)
		}
		if h.cleanup != nil {
			p.cleanup = append(p.cleanup, h.cleanup)
		}
	}
	return p
}

// runBefore runs the before stream in order, stopping at the first
// rejection, panic, or short-circuiting Replace. It reports the terminal
// failure (if any) and whether a before hook short-circuited with a
// response.
func runBefore(before []BeforeFunc, ctx *Context) (terminal *Failure, shortCircuit bool) {
	for _, fn := range before {
		res, err := callBefore(fn, ctx)
		switch {
		case err != nil:
			ctx.observe("before", "panic")
			return &Failure{Status: 500, Message: err.Error()}, false
		case !res.next:
			ctx.observe("before", "reject")
			return &res.failure, false
		case res.hasResponse:
			ctx.Response = res.response
			ctx.observe("before", "replace")
			return nil, true
		default:
			ctx.observe("before", "continue")
		}
	}
	return nil, false
}

// observe calls ctx.OnPhase if set, tolerating a nil Context/OnPhase so the
// executor never requires an observer to be wired.
func (c *Context) observe(phase, outcome string) {
	if c != nil && c.OnPhase != nil {
		c.OnPhase(phase, outcome)
	}
}

// BeforeOnly runs just the before phase — used by the WebSocket upgrade
// path (§4.E), which checks before hooks without a handler/after/cleanup
// phase at upgrade time. A rejection maps to Outcome.Failure for the
// adapter to refuse the upgrade with; otherwise Outcome.Data is the
// short-circuit response, if any (nil when every before hook returned
// Continue()).
func BeforeOnly(hooks []Hook, ctx *Context) Outcome {
	ph := partition(hooks)
	terminal, shortCircuit := runBefore(ph.before, ctx)
	if terminal != nil {
		return failed(*terminal)
	}
	if shortCircuit {
		return success(ctx.Response)
	}
	return success(nil)
}

// RunCleanup runs a hook list's cleanup stream in order, given the already-
// known outcome of the request/connection. Used by the WebSocket path at
// connection close, where cleanup runs independently of Execute/BeforeOnly.
func RunCleanup(hooks []Hook, ctx *Context, succeeded bool, failure *Failure, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx.cleanupSuccess = succeeded
	ctx.cleanupError = failure
	ph := partition(hooks)
	for _, cleanup := range ph.cleanup {
		runCleanup(cleanup, ctx, logger)
	}
}

// Execute runs the full lifecycle: partition, before, handler, after,
// cleanup (always), producing the ExecutionOutcome the dispatcher consumes.
// logger receives cleanup-hook panics; nil means slog.Default().
func Execute(hooks []Hook, handler HandlerFunc, ctx *Context, logger *slog.Logger) Outcome {
	if logger == nil {
		logger = slog.Default()
	}

	ph := partition(hooks)

	terminal, shortCircuit := runBefore(ph.before, ctx)

	if terminal == nil && !shortCircuit {
		data, err := callHandler(handler, ctx)
		if err != nil {
			terminal = &Failure{Status: 500, Message: err.Error()}
		} else {
			ctx.Response = data
		}
	}

	if terminal == nil {
	afterLoop:
		for _, after := range ph.after {
			res, err := callAfter(after, ctx)
			switch {
			case err != nil:
				ctx.observe("after", "panic")
				terminal = &Failure{Status: 500, Message: err.Error()}
				break afterLoop
			case !res.next:
				ctx.observe("after", "reject")
				terminal = &res.failure
				break afterLoop
			case res.hasResponse:
				ctx.Response = res.response
				ctx.observe("after", "replace")
			default:
				ctx.observe("after", "continue")
			}
		}
	}

	ctx.cleanupSuccess = terminal == nil
	ctx.cleanupError = terminal

	for _, cleanup := range ph.cleanup {
		runCleanup(cleanup, ctx, logger)
	}

	if terminal != nil {
		return failed(*terminal)
	}
	return success(ctx.Response)
}

func callBefore(fn BeforeFunc, ctx *Context) (r Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	return fn(ctx), nil
}

func callAfter(fn AfterFunc, ctx *Context) (r Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	return fn(ctx), nil
}

func callHandler(fn HandlerFunc, ctx *Context) (data any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	return fn(ctx)
}

// runCleanup invokes one cleanup stage, swallowing and logging any panic.
// Cleanup cannot fail the request: there is no Result to interpret here.
func runCleanup(fn CleanupFunc, ctx *Context, logger *slog.Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("cleanup hook panicked", "route", ctx.Route, "panic", rec)
			ctx.observe("cleanup", "panic")
			return
		}
		ctx.observe("cleanup", "ran")
	}()
	fn(ctx)
}
