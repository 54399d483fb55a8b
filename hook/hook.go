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

// Package hook implements the hook execution engine: the ordered
// before/after/cleanup lifecycle with short-circuiting, response rewriting,
// per-instance private state, and guaranteed cleanup on every terminal path.
package hook

import (
	"context"

	"github.com/snrraptopack/auwsomebridge-sub001/envelope"
)

// Context is the mutable frame threaded through one request's hook and
// handler calls. It is born at request entry and dies with the request; it
// must not be retained past the call that receives it.
type Context struct {
	// Std carries request cancellation/deadline. Every hook and handler call
	// is a suspension point and should observe it where it blocks.
	Std context.Context

	Req    *envelope.Request // must not be mutated by hooks
	Method string
	Route  string
	Input  any // post-validation

	// Vars is the arbitrary per-request key->value map hooks use to
	// communicate with each other and the handler (ctx.context in the
	// data model). The dispatcher creates it empty; none of this module's
	// adapters seeds it with host bindings, and no reserved key is defined.
	Vars map[string]any

	// Platform is an opaque handle to the native request. Hooks should not
	// touch it unless intentionally host-specific.
	Platform any

	// Response holds the in-flight response value once it exists (after a
	// short-circuit, after the handler runs, or after an `after` hook
	// replaces it).
	Response any

	// OnPhase, if set, is called once per hook-phase stage execution
	// (before/after/cleanup) with the stage's outcome ("continue",
	// "replace", "reject", or "panic" for before/after; "ran" or "panic" for
	// cleanup). It lets an observability.Recorder
	// build per-phase metrics without the executor importing that package.
	OnPhase func(phase, outcome string)

	// cleanupSuccess/cleanupError are populated only while running the
	// cleanup phase, mirroring the data model's "success + error" fields
	// that exist only in that phase.
	cleanupSuccess bool
	cleanupError   *Failure
}

// CleanupSuccess reports whether the request succeeded, valid only from
// inside a cleanup hook.
func (c *Context) CleanupSuccess() bool { return c.cleanupSuccess }

// CleanupError reports the terminal failure, if any, valid only from inside
// a cleanup hook.
func (c *Context) CleanupError() *Failure { return c.cleanupError }

// Failure is the {status, error} pair a before/after rejection or a
// handler exception produces.
type Failure struct {
	Status  int
	Message string
}

// Result is the algebra returned by a before/after call:
//   - Continue(): {next:true}
//   - Replace(x): {next:true, response:x}
//   - Reject(status, msg): {next:false, status, error}
type Result struct {
	next        bool
	hasResponse bool
	response    any
	failure     Failure
}

// Continue lets the pipeline proceed to the next hook.
func Continue() Result { return Result{next: true} }

// Replace continues the pipeline but adopts response as the running
// response. In a before hook this short-circuits: the handler and any
// remaining before hooks are skipped, but after and cleanup still run. In an
// after hook it transforms the response seen by subsequent after hooks and
// the final reply.
func Replace(response any) Result {
	return Result{next: true, hasResponse: true, response: response}
}

// Reject terminates the pipeline with a failure. The handler does not run
// (if rejected in before); no further after hooks run (if rejected in
// after). Cleanup still runs.
func Reject(status int, message string) Result {
	return Result{next: false, failure: Failure{Status: status, Message: message}}
}

// BeforeFunc is one before-phase stage.
type BeforeFunc func(ctx *Context) Result

// AfterFunc is one after-phase stage.
type AfterFunc func(ctx *Context) Result

// CleanupFunc is one cleanup-phase stage. It cannot fail the request: its
// return value, if any, is informational only, so it takes no Result.
type CleanupFunc func(ctx *Context)

// HandlerFunc is the route handler itself: input/context in, response/error
// out. A returned error is treated exactly like a hook call panicking: a
// 500 Failure carrying the error's message.
type HandlerFunc func(ctx *Context) (any, error)

// Hook is a tagged union of the two hook shapes the data model names:
//   - Legacy: a single callable equivalent to a before phase.
//   - Lifecycle: up to three phases (before/after/cleanup) sharing one
//     per-instance state, which the caller captures via closures before
//     constructing the Hook (the "setup factory" pattern).
//
// The zero Hook is invalid; always build one via LegacyHook or FromLifecycle.
type Hook struct {
	legacy  BeforeFunc
	before  BeforeFunc
	after   AfterFunc
	cleanup CleanupFunc
}

// LegacyHook builds a Hook equivalent to a bare before-phase callable.
func LegacyHook(fn BeforeFunc) Hook {
	return Hook{legacy: fn}
}

// Lifecycle is the set of phases a lifecycle hook may define. Any subset may
// be nil; a nil phase contributes nothing to that phase's stream.
type Lifecycle struct {
	Before  BeforeFunc
	After   AfterFunc
	Cleanup CleanupFunc
}

// FromLifecycle builds a Hook from a Lifecycle value. Call this once per
// fresh instantiation of a stateful hook's factory — each call should close
// over newly allocated state, never share it across instantiations.
func FromLifecycle(l Lifecycle) Hook {
	return Hook{before: l.Before, after: l.After, cleanup: l.Cleanup}
}

// Combine orders global hooks before route hooks, preserving each list's
// declaration order, per the data model's stable ordering rule.
func Combine(global, route []Hook) []Hook {
	out := make([]Hook, 0, len(global)+len(route))
	out = append(out, global...)
	out = append(out, route...)
	return out
}
