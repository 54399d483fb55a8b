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

	"github.com/snrraptopack/auwsomebridge-sub001/envelope"
	"github.com/snrraptopack/auwsomebridge-sub001/hook"
)

// RequestContext is the handler-facing view of one request. It embeds
// *hook.Context so handlers share the same Vars map hooks populate, without
// exposing the executor's cleanup-only fields.
type RequestContext struct {
	*hook.Context
}

// StdContext returns the request's cancellation context.
func (rc *RequestContext) StdContext() context.Context { return rc.Std }

// Var reads one entry from the per-request Vars map hooks and the handler
// share.
func (rc *RequestContext) Var(key string) (any, bool) {
	v, ok := rc.Vars[key]
	return v, ok
}

// SetVar writes one entry into the per-request Vars map.
func (rc *RequestContext) SetVar(key string, value any) {
	rc.Vars[key] = value
}

// Request returns the host-independent inbound request.
func (rc *RequestContext) Request() *envelope.Request { return rc.Req }
