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

package gin_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ginadapter "github.com/snrraptopack/auwsomebridge-sub001/adapter/gin"
	"github.com/snrraptopack/auwsomebridge-sub001/bridge"
	"github.com/snrraptopack/auwsomebridge-sub001/envelope"
	"github.com/snrraptopack/auwsomebridge-sub001/hook"
	"github.com/snrraptopack/auwsomebridge-sub001/transport"
)

type pingOut struct {
	OK bool `json:"ok"`
}

func init() { gin.SetMode(gin.TestMode) }

// Proves hook semantics (a stateful before hook rejecting the third call
// with 429, then an unknown route answering 404) carry over unchanged when
// driven through a real *gin.Engine.
func TestGin_PingAndRateLimitAndNotFound(t *testing.T) {
	var calls int
	rateLimit := hook.LegacyHook(func(c *hook.Context) hook.Result {
		calls++
		if calls > 2 {
			return hook.Reject(429, "Too many")
		}
		return hook.Continue()
	})

	name, e := bridge.Route(bridge.Definition[struct{}, pingOut]{
		Name:   "ping",
		Method: bridge.MethodGet,
		Hooks:  []hook.Hook{rateLimit},
		Handler: func(rc *bridge.RequestContext, in struct{}) (pingOut, error) {
			return pingOut{OK: true}, nil
		},
	})
	reg, err := bridge.Compose(bridge.Group{name: e})
	require.NoError(t, err)
	b, err := bridge.New(reg)
	require.NoError(t, err)

	engine := gin.New()
	ginadapter.Mount(engine, b)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		require.Equal(t, 200, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, 429, rec.Code)
	var body envelope.Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, envelope.CodeTooManyRequests, body.Error.Code)

	unknown := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	unknownRec := httptest.NewRecorder()
	engine.ServeHTTP(unknownRec, unknown)
	assert.Equal(t, 404, unknownRec.Code)
}

func TestGin_WebSocketEchoesMessages(t *testing.T) {
	name, e := bridge.WSRoute(bridge.Definition[struct{}, struct{}]{
		Name: "echo",
		WS: bridge.WSHandlers{
			OnMessage: func(conn *transport.Connection, input any) {
				_ = conn.Send(input)
			},
		},
	})
	reg, err := bridge.Compose(bridge.Group{name: e})
	require.NoError(t, err)
	b, err := bridge.New(reg)
	require.NoError(t, err)

	engine := gin.New()
	ginadapter.Mount(engine, b)
	srv := httptest.NewServer(engine)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/echo"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"v":1}`)))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(data))
}
