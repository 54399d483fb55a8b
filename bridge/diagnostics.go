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

// DiagnosticEvent is a non-fatal configuration or runtime signal, grounded
// verbatim in the teacher's WithDiagnostics/DiagnosticEvent pattern
// (router/diagnostics.go) and supplemented here per SPEC_FULL.md §9 — e.g.
// a ws route declared with a non-empty Output schema, which the dispatcher
// silently ignores per the data model but which is still worth surfacing.
type DiagnosticEvent struct {
	Kind    string
	Message string
	Fields  map[string]any
}

// DiagnosticHandler receives diagnostic events as they occur. Events are
// emitted synchronously from New, so a slow handler stalls New.
type DiagnosticHandler func(DiagnosticEvent)

func (b *Bridge) emit(kind, message string, fields map[string]any) {
	if b.diagnostics == nil {
		return
	}
	b.diagnostics(DiagnosticEvent{Kind: kind, Message: message, Fields: fields})
}
