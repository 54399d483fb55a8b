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

package echo_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	echoframework "github.com/labstack/echo/v4"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoadapter "github.com/snrraptopack/auwsomebridge-sub001/adapter/echo"
	"github.com/snrraptopack/auwsomebridge-sub001/bridge"
	"github.com/snrraptopack/auwsomebridge-sub001/envelope"
	"github.com/snrraptopack/auwsomebridge-sub001/hook"
	"github.com/snrraptopack/auwsomebridge-sub001/transport"
)

func TestEcho_PingAndAfterHookChain(t *testing.T) {
	var afterOrder []string
	tagFirst := hook.FromLifecycle(hook.Lifecycle{After: func(c *hook.Context) hook.Result {
		afterOrder = append(afterOrder, "first")
		m := c.Response.(map[string]any)
		m["first"] = true
		return hook.Replace(m)
	}})
	tagSecond := hook.FromLifecycle(hook.Lifecycle{After: func(c *hook.Context) hook.Result {
		afterOrder = append(afterOrder, "second")
		m := c.Response.(map[string]any)
		assert.True(t, m["first"].(bool))
		m["second"] = true
		return hook.Replace(m)
	}})

	name, e := bridge.Route(bridge.Definition[struct{}, map[string]any]{
		Name:   "ping",
		Method: bridge.MethodGet,
		Hooks:  []hook.Hook{tagFirst, tagSecond},
		Handler: func(rc *bridge.RequestContext, in struct{}) (map[string]any, error) {
			return map[string]any{"ok": true}, nil
		},
	})
	reg, err := bridge.Compose(bridge.Group{name: e})
	require.NoError(t, err)
	b, err := bridge.New(reg)
	require.NoError(t, err)

	e2 := echoframework.New()
	echoadapter.Mount(e2, b)

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	rec := httptest.NewRecorder()
	e2.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var body envelope.Success
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	data := body.Data.(map[string]any)
	assert.True(t, data["first"].(bool))
	assert.True(t, data["second"].(bool))
	assert.Equal(t, []string{"first", "second"}, afterOrder)
}

func TestEcho_WebSocketEchoesMessages(t *testing.T) {
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

	e2 := echoframework.New()
	echoadapter.Mount(e2, b)
	srv := httptest.NewServer(e2)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/echo"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"v":2}`)))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(data))
}
