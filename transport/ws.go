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

package transport

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds how long a close control frame write may block.
const writeWait = 5 * time.Second

var connectionSeq atomic.Uint64

// nextConnectionID returns an identifier unique within this process's
// lifetime, per the data model's "opaque, unique within process lifetime"
// requirement. No ordering or cross-process uniqueness is promised.
func nextConnectionID() string {
	return fmt.Sprintf("ws-%d", connectionSeq.Add(1))
}

// Connection wraps one upgraded WebSocket, exposing the id/ip/headers/
// context surface the data model names plus send/close. It owns exactly one
// *websocket.Conn; all writes to that conn go through Send/Close, since
// gorilla/websocket forbids concurrent writers on one connection.
type Connection struct {
	ID      string
	IP      string
	Headers map[string][]string
	Vars    map[string]any

	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

// NewConnection wraps an upgraded *websocket.Conn, assigning it a fresh
// process-unique id.
func NewConnection(conn *websocket.Conn, ip string, headers map[string][]string, vars map[string]any) *Connection {
	return &Connection{
		ID:      nextConnectionID(),
		IP:      ip,
		Headers: headers,
		Vars:    vars,
		conn:    conn,
	}
}

// Send serializes message as JSON unless it is already a string or []byte,
// and writes it as a single text frame.
func (c *Connection) Send(message any) error {
	var data []byte
	switch m := message.(type) {
	case string:
		data = []byte(m)
	case []byte:
		data = m
	default:
		b, err := json.Marshal(message)
		if err != nil {
			return err
		}
		data = b
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a close control frame carrying code/reason, then tears down
// the underlying socket. Safe to call more than once.
func (c *Connection) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	return c.conn.Close()
}

// ReadText blocks for the next text frame, skipping any binary frame:
// binary WebSocket framing is an explicit non-goal, so non-text frames are
// discarded rather than surfaced.
func (c *Connection) ReadText() ([]byte, error) {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if messageType == websocket.TextMessage {
			return data, nil
		}
	}
}
