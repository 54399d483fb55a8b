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

package nethttp_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snrraptopack/auwsomebridge-sub001/adapter/nethttp"
	"github.com/snrraptopack/auwsomebridge-sub001/bridge"
	"github.com/snrraptopack/auwsomebridge-sub001/envelope"
	"github.com/snrraptopack/auwsomebridge-sub001/observability"
	"github.com/snrraptopack/auwsomebridge-sub001/transport"
)

type pingOut struct {
	OK bool `json:"ok"`
}

func newPingBridge(t *testing.T) *bridge.Bridge {
	name, e := bridge.Route(bridge.Definition[struct{}, pingOut]{
		Name:   "ping",
		Method: bridge.MethodGet,
		Handler: func(rc *bridge.RequestContext, in struct{}) (pingOut, error) {
			return pingOut{OK: true}, nil
		},
	})
	reg, err := bridge.Compose(bridge.Group{name: e})
	require.NoError(t, err)
	b, err := bridge.New(reg)
	require.NoError(t, err)
	return b
}

// Scenario 1: Ping, end-to-end over a real http.Handler.
func TestNetHTTP_Ping(t *testing.T) {
	h := nethttp.New(newPingBridge(t))

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	var body envelope.Success
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Ok)
}

func TestNetHTTP_UnknownRouteIs404NotFound(t *testing.T) {
	h := nethttp.New(newPingBridge(t))
	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// Scenario 6: SSE stream — three events in order, then a producer error
// surfaces as one "event: error" frame.
func TestNetHTTP_SSEStreamFramesEventsThenErrorFrame(t *testing.T) {
	name, e := bridge.Route(bridge.Definition[struct{}, struct{}]{
		Name:   "events",
		Kind:   bridge.KindSSE,
		Method: bridge.MethodGet,
		SSEHandler: func(rc *bridge.RequestContext, in struct{}) (transport.Producer, error) {
			return func(ctx context.Context, emit func(event any) error) error {
				for i := 1; i <= 3; i++ {
					if err := emit(map[string]int{"n": i}); err != nil {
						return err
					}
				}
				return errors.New("producer exploded")
			}, nil
		},
	})
	reg, err := bridge.Compose(bridge.Group{name: e})
	require.NoError(t, err)
	b, err := bridge.New(reg)
	require.NoError(t, err)
	h := nethttp.New(b)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()

	sc := bufio.NewScanner(strings.NewReader(body))
	var dataLines []string
	var sawErrorEvent bool
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case strings.HasPrefix(line, "event: error"):
			sawErrorEvent = true
		}
	}

	require.Len(t, dataLines, 4) // 3 events + 1 error payload
	assert.JSONEq(t, `{"n":1}`, dataLines[0])
	assert.JSONEq(t, `{"n":2}`, dataLines[1])
	assert.JSONEq(t, `{"n":3}`, dataLines[2])
	assert.True(t, sawErrorEvent)
	assert.Contains(t, dataLines[3], "producer exploded")
}

// WebSocket path: a route whose onMessage echoes every inbound message back,
// exercising the upgrade, message, and close lifecycle across a real
// gorilla/websocket client.
func TestNetHTTP_WebSocketEchoesMessages(t *testing.T) {
	var opened, closed bool
	name, e := bridge.WSRoute(bridge.Definition[struct{}, struct{}]{
		Name: "echo",
		WS: bridge.WSHandlers{
			OnOpen: func(conn *transport.Connection) { opened = true },
			OnMessage: func(conn *transport.Connection, input any) {
				_ = conn.Send(input)
			},
			OnClose: func(conn *transport.Connection, code int, reason string) { closed = true },
		},
	})
	reg, err := bridge.Compose(bridge.Group{name: e})
	require.NoError(t, err)
	b, err := bridge.New(reg)
	require.NoError(t, err)

	h := nethttp.New(b)
	srv := httptest.NewServer(h)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/echo"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"hello":"world"}`)))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"hello":"world"}`, string(data))

	require.NoError(t, conn.Close())
	time.Sleep(50 * time.Millisecond)

	assert.True(t, opened)
	assert.True(t, closed)
}

// A Prometheus-backed Recorder's scrape endpoint is reachable at /metrics,
// exercising the same promhttp.HandlerFor wiring the teacher exposes from
// router.Router.prometheusHandler.
func TestNetHTTP_MetricsEndpointServesPrometheusExposition(t *testing.T) {
	rec, shutdown, err := observability.NewOTel(observability.OTelConfig{
		ServiceName: "bridge-test",
		Provider:    observability.ProviderPrometheus,
	})
	require.NoError(t, err)
	defer shutdown(context.Background())

	b := bridge.MustNew(mustEmptyRegistry(t), bridge.WithObservability(rec))
	h := nethttp.New(b)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req)

	assert.Equal(t, 200, rec2.Code)
	assert.Contains(t, rec2.Header().Get("Content-Type"), "text/plain")
}

func mustEmptyRegistry(t *testing.T) *bridge.Registry {
	t.Helper()
	reg, err := bridge.Compose(bridge.Group{})
	require.NoError(t, err)
	return reg
}
