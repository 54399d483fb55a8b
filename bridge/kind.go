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

// Package bridge implements the route registry and dispatcher core: route
// composition/lookup, method and kind resolution, input extraction and
// validation, hand-off to the hook executor, output validation, and
// response shaping, uniform across http/sse/ws transport kinds.
package bridge

// Kind is the transport kind a route is served over.
type Kind string

const (
	KindHTTP Kind = "http"
	KindSSE  Kind = "sse"
	KindWS   Kind = "ws"
)

// Default methods per the data model: GET for sse/ws, POST for http.
const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodPatch  = "PATCH"
	MethodDelete = "DELETE"
)

func defaultMethod(kind Kind) string {
	if kind == KindSSE || kind == KindWS {
		return MethodGet
	}
	return MethodPost
}
