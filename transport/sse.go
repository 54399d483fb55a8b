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

// Package transport implements the two streaming transport shapers: SSE
// frame writing and the WebSocket connection wrapper. Both are driven by
// the dispatcher core and never see a hook or handler directly.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Flusher is the subset of http.Flusher the SSE writer needs. Grounded in
// router.Context's own Flush() passthrough to the underlying
// http.ResponseWriter.
type Flusher interface {
	Flush()
}

// Producer emits zero or more events via emit, in order. A non-nil return
// from emit means the write failed (the client disconnected, most often):
// the producer should stop emitting and propagate the error. A non-nil
// return from Producer itself that did NOT come from emit is treated as a
// mid-stream producer failure and causes one "event: error" frame before
// close.
type Producer func(ctx context.Context, emit func(event any) error) error

// SSEWriter frames each produced event as "data: <payload>\n\n" onto an
// http.Flusher-backed writer, with Content-Type/Cache-Control/Connection
// headers set by the caller (normally the adapter) before streaming begins.
type SSEWriter struct {
	w        io.Writer
	flusher  Flusher
	writeErr error
}

// NewSSEWriter wraps w for framed event writes, flushing after every frame
// so the client observes events as they are produced rather than buffered.
func NewSSEWriter(w io.Writer, flusher Flusher) *SSEWriter {
	return &SSEWriter{w: w, flusher: flusher}
}

// SetSSEHeaders applies the three headers the wire protocol mandates for an
// SSE response. Must be called before the first byte is written.
func SetSSEHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
}

// Stream drives produce to completion, framing each emitted event. It
// returns the write error if the client disconnected mid-stream (so the
// adapter can log/ignore it), or nil otherwise — a producer-originated
// error or panic is fully handled here (framed as an error event) and not
// returned.
func (s *SSEWriter) Stream(ctx context.Context, produce Producer) error {
	emit := func(event any) error {
		if s.writeErr != nil {
			return s.writeErr
		}
		line, isString := event.(string)
		if !isString {
			b, err := json.Marshal(event)
			if err != nil {
				return err
			}
			line = string(b)
		}
		if _, err := fmt.Fprintf(s.w, "data: %s\n\n", line); err != nil {
			s.writeErr = err
			return err
		}
		s.flusher.Flush()
		return nil
	}

	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("%v", rec)
			}
		}()
		return produce(ctx, emit)
	}()
	if s.writeErr != nil {
		return s.writeErr
	}
	if err != nil {
		msg, merr := json.Marshal(map[string]string{"message": err.Error()})
		if merr != nil {
			msg = []byte(`{"message":"internal error"}`)
		}
		fmt.Fprintf(s.w, "event: error\ndata: %s\n\n", msg)
		s.flusher.Flush()
	}
	return nil
}
