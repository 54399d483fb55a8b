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
	"log/slog"
	"time"

	"github.com/snrraptopack/auwsomebridge-sub001/hook"
	"github.com/snrraptopack/auwsomebridge-sub001/observability"
)

// Option configures a Bridge at construction time, mirroring the teacher's
// functional-options pattern (router.Option).
type Option func(*Bridge)

// WithPrefix sets the URL prefix every route is served under. Default
// "/api".
func WithPrefix(prefix string) Option {
	return func(b *Bridge) { b.prefix = prefix }
}

// WithGlobalHooks sets the hook list applied before every route's own
// hooks, preserving declaration order (see hook.Combine).
func WithGlobalHooks(hooks ...hook.Hook) Option {
	return func(b *Bridge) { b.globalHooks = hooks }
}

// WithValidateResponses enables applying a route's Output schema to the
// handler's result before replying.
func WithValidateResponses(enabled bool) Option {
	return func(b *Bridge) { b.validateResponses = enabled }
}

// WithLogRequests enables emitting one log line per request (method, route,
// input), matching the bridge setup option of the same name.
func WithLogRequests(enabled bool) Option {
	return func(b *Bridge) { b.logRequests = enabled }
}

// WithObservability wires a Recorder for metrics/tracing/logging. Default
// is observability.NewNoop().
func WithObservability(rec observability.Recorder) Option {
	return func(b *Bridge) { b.recorder = rec }
}

// WithDiagnostics registers a sink for non-fatal diagnostic events.
func WithDiagnostics(handler DiagnosticHandler) Option {
	return func(b *Bridge) { b.diagnostics = handler }
}

// WithLogger overrides the base slog.Logger used when no request-scoped
// logger is available from the Recorder.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

// ServerTimeouts bounds the nethttp adapter's http.Server, grounded in
// router.WithServerTimeouts / defaultServerTimeouts.
type ServerTimeouts struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
}

func defaultServerTimeouts() ServerTimeouts {
	return ServerTimeouts{
		ReadHeader: 5 * time.Second,
		Read:       15 * time.Second,
		Write:      30 * time.Second,
		Idle:       60 * time.Second,
	}
}

// WithServerTimeouts overrides the default server timeouts applied by the
// nethttp adapter's Serve.
func WithServerTimeouts(t ServerTimeouts) Option {
	return func(b *Bridge) { b.serverTimeouts = t }
}
