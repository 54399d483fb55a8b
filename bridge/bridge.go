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
	"fmt"
	"log/slog"
	"strings"

	"github.com/snrraptopack/auwsomebridge-sub001/hook"
	"github.com/snrraptopack/auwsomebridge-sub001/observability"
)

// Bridge is the set-up, ready-to-serve engine: a Registry plus the global
// hook list and the handful of cross-cutting options the dispatcher core
// consults on every request. It is immutable once New returns.
type Bridge struct {
	registry          *Registry
	globalHooks       []hook.Hook
	prefix            string
	validateResponses bool
	logRequests       bool
	recorder          observability.Recorder
	diagnostics       DiagnosticHandler
	logger            *slog.Logger
	serverTimeouts    ServerTimeouts
}

// New validates opts against registry and builds a ready-to-serve Bridge.
// Configuration is validated immediately here rather than at request time,
// mirroring the teacher's Router.validate() at construction.
func New(registry *Registry, opts ...Option) (*Bridge, error) {
	if registry == nil {
		return nil, fmt.Errorf("bridge: registry must not be nil")
	}

	b := &Bridge{
		registry:       registry,
		prefix:         "/api",
		recorder:       observability.NewNoop(),
		logger:         slog.Default(),
		serverTimeouts: defaultServerTimeouts(),
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := b.validate(); err != nil {
		return nil, err
	}

	b.checkDiagnostics()

	return b, nil
}

// MustNew is New, panicking on error. Grounded in the teacher's
// New/MustNew pairing (router.MustNew).
func MustNew(registry *Registry, opts ...Option) *Bridge {
	b, err := New(registry, opts...)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Bridge) validate() error {
	if strings.TrimSpace(b.prefix) == "" {
		return ErrEmptyPrefix
	}
	if !strings.HasPrefix(b.prefix, "/") {
		return fmt.Errorf("bridge: prefix %q must start with \"/\"", b.prefix)
	}
	return nil
}

// checkDiagnostics scans the registry for configuration shapes that are
// valid but worth surfacing, e.g. a ws/sse route carrying an Output schema
// (ignored per the data model, §3).
func (b *Bridge) checkDiagnostics() {
	if b.diagnostics == nil {
		return
	}
	for name, e := range b.registry.routes {
		if (e.info.Kind == KindWS || e.info.Kind == KindSSE) && e.outputSchema != nil {
			b.emit("ignored_output_schema", "output schema is ignored for this route kind", map[string]any{
				"route": name,
				"kind":  string(e.info.Kind),
			})
		}
	}
}

// Prefix returns the configured URL prefix.
func (b *Bridge) Prefix() string { return b.prefix }

// Registry returns the bridge's route registry, for introspection (docs,
// OpenAPI-ish summaries) and the client stub.
func (b *Bridge) Registry() *Registry { return b.registry }

// ServerTimeouts returns the configured server timeouts, for an adapter's
// own Serve helper to apply to its *http.Server (see WithServerTimeouts).
func (b *Bridge) ServerTimeouts() ServerTimeouts { return b.serverTimeouts }

// Recorder returns the configured observability.Recorder, for an adapter
// that wants to mount a scrape endpoint (see observability.MetricsHandler).
func (b *Bridge) Recorder() observability.Recorder { return b.recorder }
