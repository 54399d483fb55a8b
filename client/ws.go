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

package client

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// wsEvent is one of "message", "open", "close", "error", matching the data
// model's WebSocketHandle.on(event, cb) surface.
type wsEvent string

const (
	EventMessage wsEvent = "message"
	EventOpen    wsEvent = "open"
	EventClose   wsEvent = "close"
	EventError   wsEvent = "error"
)

// Handle is the client-side counterpart to transport.Connection: a thin
// wrapper the caller uses to send messages and subscribe to lifecycle
// events, never touching the raw socket.
type Handle struct {
	conn *websocket.Conn

	mu       sync.Mutex
	handlers map[wsEvent][]func(data any)
}

// WS dials routeName as a WebSocket, serializing input into the handshake
// query exactly like a GET http invocation.
func WS[In any](ctx context.Context, c *Client, routeName string, input In) (*Handle, error) {
	q, err := toQuery(input)
	if err != nil {
		return nil, err
	}

	u := c.routeURL(routeName)
	u = strings.Replace(u, "http://", "ws://", 1)
	u = strings.Replace(u, "https://", "wss://", 1)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	parsed, err := url.Parse(u)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{}
	conn, resp, err := dialer.DialContext(ctx, parsed.String(), nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			if body, readErr := io.ReadAll(resp.Body); readErr == nil {
				if _, decodeErr := decodeEnvelope[any](resp.StatusCode, body); decodeErr != nil {
					return nil, decodeErr
				}
			}
		}
		return nil, err
	}

	h := &Handle{conn: conn, handlers: map[wsEvent][]func(data any){}}
	h.fire(EventOpen, nil)
	go h.readLoop()
	return h, nil
}

// On registers a callback for event. The handle is already open once WS
// returns, so an EventOpen callback is invoked immediately on the caller's
// goroutine; every other callback is invoked synchronously on the handle's
// internal read loop goroutine.
func (h *Handle) On(event wsEvent, cb func(data any)) {
	h.mu.Lock()
	h.handlers[event] = append(h.handlers[event], cb)
	h.mu.Unlock()
	if event == EventOpen {
		cb(nil)
	}
}

// Send serializes message as JSON unless it is already a string or []byte.
func (h *Handle) Send(message any) error {
	switch m := message.(type) {
	case string:
		return h.conn.WriteMessage(websocket.TextMessage, []byte(m))
	case []byte:
		return h.conn.WriteMessage(websocket.TextMessage, m)
	default:
		b, err := json.Marshal(message)
		if err != nil {
			return err
		}
		return h.conn.WriteMessage(websocket.TextMessage, b)
	}
}

// Close closes the underlying connection.
func (h *Handle) Close() error {
	return h.conn.Close()
}

func (h *Handle) readLoop() {
	for {
		messageType, data, err := h.conn.ReadMessage()
		if err != nil {
			h.fire(EventClose, err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var parsed any
		if err := json.Unmarshal(data, &parsed); err != nil {
			parsed = string(data)
		}

		if m, ok := parsed.(map[string]any); ok && m["type"] == "error" {
			h.fire(EventError, parsed)
			continue
		}
		h.fire(EventMessage, parsed)
	}
}

func (h *Handle) fire(event wsEvent, data any) {
	h.mu.Lock()
	cbs := append([]func(data any){}, h.handlers[event]...)
	h.mu.Unlock()
	for _, cb := range cbs {
		cb(data)
	}
}
