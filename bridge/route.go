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
	"encoding/json"

	"github.com/snrraptopack/auwsomebridge-sub001/hook"
	"github.com/snrraptopack/auwsomebridge-sub001/schema"
	"github.com/snrraptopack/auwsomebridge-sub001/transport"
)

// HTTPHandler is a request/response route handler.
type HTTPHandler[In, Out any] func(rc *RequestContext, input In) (Out, error)

// SSEHandler returns a transport.Producer that streams events once the
// route's hooks and input validation have passed.
type SSEHandler[In any] func(rc *RequestContext, input In) (transport.Producer, error)

// WSHandlers is the set of callbacks a WebSocket route defines. OnMessage is
// mandatory; the others are optional, matching the data model's
// {onOpen?, onMessage, onClose?, onError?} shape.
type WSHandlers struct {
	OnOpen    func(conn *transport.Connection)
	OnMessage func(conn *transport.Connection, input any)
	OnClose   func(conn *transport.Connection, code int, reason string)
	OnError   func(conn *transport.Connection, err error)
}

// Definition is the immutable spec of one procedure, generic over its
// input/output Go types for http/sse handlers. WS routes ignore Out (WS has
// no single response value) and receive messages as `any` (see WSHandlers);
// Go's generics cannot parameterize a method independent of its receiver,
// so — mirroring the workaround in bjaus-dispatch's
// Register[T any](r *Router, ...) — route construction is this
// package-level generic function rather than a Registry method.
type Definition[In, Out any] struct {
	Name        string
	Kind        Kind
	Method      string // defaults per Kind if empty
	Input       *schema.Schema
	Output      *schema.Schema
	Handler     HTTPHandler[In, Out]
	SSEHandler  SSEHandler[In]
	WS          WSHandlers
	Hooks       []hook.Hook
	Description string
	Tags        []string
	Auth        bool
}

// Info is the route metadata introspection surface (supplemented feature,
// see SPEC_FULL.md §9), safe to expose without leaking handler internals.
type Info struct {
	Name        string
	Kind        Kind
	Method      string
	Description string
	Tags        []string
	Auth        bool
}

// entry is the existential, non-generic wrapper every Definition[In, Out]
// erases to so routes of heterogeneous types can share one registry map.
type entry struct {
	info         Info
	inputSchema  *schema.Schema
	outputSchema *schema.Schema
	hooks        []hook.Hook

	decodeInput func(raw any) (any, error) // raw JSON-shaped value -> typed In, as `any`
	invokeHTTP  func(rc *RequestContext, input any) (any, error)
	invokeSSE   func(rc *RequestContext, input any) (transport.Producer, error)
	ws          WSHandlers
}

func decodeInto[In any](raw any) (any, error) {
	var zero In
	if raw == nil {
		return zero, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var v In
	if err := json.Unmarshal(b, &v); err != nil {
		return zero, err
	}
	return v, nil
}

// Route builds a registry entry for one http/sse route definition. Use
// Compose to assemble entries from one or more Route/WSRoute calls into a
// Registry.
func Route[In, Out any](def Definition[In, Out]) (string, entry) {
	method := def.Method
	kind := def.Kind
	if kind == "" {
		kind = KindHTTP
	}
	if method == "" {
		method = defaultMethod(kind)
	}

	e := entry{
		info: Info{
			Name:        def.Name,
			Kind:        kind,
			Method:      method,
			Description: def.Description,
			Tags:        def.Tags,
			Auth:        def.Auth,
		},
		inputSchema:  def.Input,
		outputSchema: def.Output,
		hooks:        def.Hooks,
		decodeInput:  decodeInto[In],
	}

	if def.Handler != nil {
		e.invokeHTTP = func(rc *RequestContext, input any) (any, error) {
			typed, _ := input.(In)
			return def.Handler(rc, typed)
		}
	}
	if def.SSEHandler != nil {
		e.invokeSSE = func(rc *RequestContext, input any) (transport.Producer, error) {
			typed, _ := input.(In)
			return def.SSEHandler(rc, typed)
		}
	}

	return def.Name, e
}

// WSRoute builds a registry entry for a WebSocket route. It is a distinct
// constructor from Route because WS handlers take `any` messages rather
// than a typed Out response (see WSHandlers).
func WSRoute[In any](def Definition[In, struct{}]) (string, entry) {
	def.Kind = KindWS
	name, e := Route(def)
	e.ws = def.WS
	e.invokeHTTP = nil
	e.invokeSSE = nil
	return name, e
}
