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

// Package observability unifies metrics, tracing, and logging behind one
// Recorder interface, the ambient stack's three-pillars pattern, generalized
// from the teacher's per-HTTP-route recorder to per-bridge-route and
// per-hook-phase events (this engine serves http/sse/ws alike, not just
// plain HTTP request/response).
package observability

import (
	"context"
	"log/slog"
)

// RequestInfo identifies the request a lifecycle callback is about, enough
// for a recorder to build span names and metric labels without depending on
// any adapter's host types.
type RequestInfo struct {
	Route  string
	Kind   string // "http", "sse", or "ws"
	Method string
}

// Recorder provides unified observability lifecycle hooks.
//
// Lifecycle, mirroring the teacher's three-pillar recorder:
//  1. Dispatcher calls OnRequestStart(ctx, info) -> (enrichedCtx, state).
//     state == nil means "exclude this request" (no OnRequestEnd call,
//     same exclusion semantics as the teacher's ObservabilityRecorder).
//  2. Dispatcher always uses the enriched context downstream (hooks,
//     handler) so trace propagation works even for excluded requests.
//  3. Dispatcher calls OnRequestEnd(ctx, state, info, status, err) once
//     the outcome is known, only if state != nil.
//  4. OnHookPhase fires once per hook-phase execution (before/after/
//     cleanup) with the phase's outcome, letting a recorder count phase
//     executions by route, phase, and outcome (no timing is passed) —
//     this has no teacher analogue; it is this engine's generalization of
//     the pillar pattern to the hook pipeline's own ordering model.
type Recorder interface {
	OnRequestStart(ctx context.Context, info RequestInfo) (context.Context, any)
	OnRequestEnd(ctx context.Context, state any, info RequestInfo, status int, err error)
	OnHookPhase(ctx context.Context, info RequestInfo, phase string, outcome string)
	// Logger returns the request-scoped logger, built once per request.
	Logger(ctx context.Context, state any) *slog.Logger
}

// noopRecorder is the zero-value Recorder: no metrics, no tracing, a
// discarding logger. Mirrors router.NoopLogger()'s role as the safe default.
type noopRecorder struct {
	logger *slog.Logger
}

// NewNoop returns a Recorder that does nothing, matching the teacher's
// no-observability default so a bridge works out of the box with zero
// configuration.
func NewNoop() Recorder {
	return &noopRecorder{logger: slog.New(slog.DiscardHandler)}
}

func (n *noopRecorder) OnRequestStart(ctx context.Context, _ RequestInfo) (context.Context, any) {
	return ctx, nil
}

func (n *noopRecorder) OnRequestEnd(context.Context, any, RequestInfo, int, error) {}

func (n *noopRecorder) OnHookPhase(context.Context, RequestInfo, string, string) {}

func (n *noopRecorder) Logger(context.Context, any) *slog.Logger { return n.logger }
