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

package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snrraptopack/auwsomebridge-sub001/adapter/nethttp"
	"github.com/snrraptopack/auwsomebridge-sub001/bridge"
	"github.com/snrraptopack/auwsomebridge-sub001/client"
	"github.com/snrraptopack/auwsomebridge-sub001/envelope"
	"github.com/snrraptopack/auwsomebridge-sub001/schema"
	"github.com/snrraptopack/auwsomebridge-sub001/transport"
)

type greetIn struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

type greetOut struct {
	Greeting string `json:"greeting"`
}

// A valid input, round-tripped through a real net/http server, arrives at
// the handler unchanged and the handler's returned value is observed by the
// caller unchanged — the client/server round-trip law from §8.
func TestInvoke_GetQueryRoundTripsFieldsIncludingRepeatedArray(t *testing.T) {
	var seen greetIn
	name, e := bridge.Route(bridge.Definition[greetIn, greetOut]{
		Name:   "greet",
		Method: bridge.MethodGet,
		Handler: func(rc *bridge.RequestContext, in greetIn) (greetOut, error) {
			seen = in
			return greetOut{Greeting: "hi " + in.Name}, nil
		},
	})
	reg, err := bridge.Compose(bridge.Group{name: e})
	require.NoError(t, err)
	b, err := bridge.New(reg)
	require.NoError(t, err)

	srv := httptest.NewServer(nethttp.New(b))
	defer srv.Close()

	c := client.New(srv.URL)
	out, err := client.Invoke[greetIn, greetOut](context.Background(), c, "greet", http.MethodGet,
		greetIn{Name: "ada", Tags: []string{"a", "b", "c"}})
	require.NoError(t, err)
	assert.Equal(t, "hi ada", out.Greeting)
	assert.Equal(t, "ada", seen.Name)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, seen.Tags)
}

func TestInvoke_PostJSONRoundTrip(t *testing.T) {
	name, e := bridge.Route(bridge.Definition[greetIn, greetOut]{
		Name:   "greet",
		Method: bridge.MethodPost,
		Handler: func(rc *bridge.RequestContext, in greetIn) (greetOut, error) {
			return greetOut{Greeting: "hi " + in.Name}, nil
		},
	})
	reg, err := bridge.Compose(bridge.Group{name: e})
	require.NoError(t, err)
	b, err := bridge.New(reg)
	require.NoError(t, err)

	srv := httptest.NewServer(nethttp.New(b))
	defer srv.Close()

	c := client.New(srv.URL)
	out, err := client.Invoke[greetIn, greetOut](context.Background(), c, "greet", http.MethodPost, greetIn{Name: "grace"})
	require.NoError(t, err)
	assert.Equal(t, "hi grace", out.Greeting)
}

// A server-side validation failure surfaces to the caller as a *client.Error
// carrying the same code the wire envelope names, never as a raw decode
// error.
func TestInvoke_ValidationFailureSurfacesAsClientError(t *testing.T) {
	in := schema.New("greet.input", `{
		"type": "object",
		"properties": {"name": {"type": "string"}},
		"required": ["name"]
	}`)
	name, e := bridge.Route(bridge.Definition[map[string]any, greetOut]{
		Name:    "greet",
		Method:  bridge.MethodPost,
		Input:   in,
		Handler: func(rc *bridge.RequestContext, in map[string]any) (greetOut, error) {
			return greetOut{Greeting: "unreachable"}, nil
		},
	})
	reg, err := bridge.Compose(bridge.Group{name: e})
	require.NoError(t, err)
	b, err := bridge.New(reg)
	require.NoError(t, err)

	srv := httptest.NewServer(nethttp.New(b))
	defer srv.Close()

	c := client.New(srv.URL)
	_, err = client.Invoke[map[string]any, greetOut](context.Background(), c, "greet", http.MethodPost, map[string]any{})
	require.Error(t, err)
	var cerr *client.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 400, cerr.Status)
	assert.Equal(t, envelope.CodeValidationError, cerr.Code)
}

func TestInvoke_UnknownRouteSurfacesNotFoundError(t *testing.T) {
	name, e := bridge.Route(bridge.Definition[struct{}, struct{}]{
		Name:   "ping",
		Method: bridge.MethodGet,
		Handler: func(rc *bridge.RequestContext, in struct{}) (struct{}, error) {
			return struct{}{}, nil
		},
	})
	reg, err := bridge.Compose(bridge.Group{name: e})
	require.NoError(t, err)
	b, err := bridge.New(reg)
	require.NoError(t, err)

	srv := httptest.NewServer(nethttp.New(b))
	defer srv.Close()

	c := client.New(srv.URL)
	_, err = client.Invoke[struct{}, struct{}](context.Background(), c, "nope", http.MethodGet, struct{}{})
	require.Error(t, err)
	var cerr *client.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 404, cerr.Status)
}

type tickEvent struct {
	N int `json:"n"`
}

func TestSSE_StreamsEventsThenSurfacesProducerErrorOnNext(t *testing.T) {
	name, e := bridge.Route(bridge.Definition[struct{}, struct{}]{
		Name:   "ticks",
		Kind:   bridge.KindSSE,
		Method: bridge.MethodGet,
		SSEHandler: func(rc *bridge.RequestContext, in struct{}) (transport.Producer, error) {
			return func(ctx context.Context, emit func(event any) error) error {
				if err := emit(tickEvent{N: 1}); err != nil {
					return err
				}
				if err := emit(tickEvent{N: 2}); err != nil {
					return err
				}
				return errors.New("stream broke")
			}, nil
		},
	})
	reg, err := bridge.Compose(bridge.Group{name: e})
	require.NoError(t, err)
	b, err := bridge.New(reg)
	require.NoError(t, err)

	srv := httptest.NewServer(nethttp.New(b))
	defer srv.Close()

	c := client.New(srv.URL)
	stream, err := client.SSE[struct{}, tickEvent](context.Background(), c, "ticks", struct{}{})
	require.NoError(t, err)
	defer stream.Close()

	ev1, ok := stream.Next()
	require.True(t, ok)
	assert.Equal(t, 1, ev1.N)

	ev2, ok := stream.Next()
	require.True(t, ok)
	assert.Equal(t, 2, ev2.N)

	_, ok = stream.Next()
	require.False(t, ok)
	require.Error(t, stream.Err())
	assert.Contains(t, stream.Err().Error(), "stream broke")
}

func TestWS_SendAndReceiveEchoRoundTrip(t *testing.T) {
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

	srv := httptest.NewServer(nethttp.New(b))
	defer srv.Close()

	c := client.New(srv.URL)
	h, err := client.WS[struct{}](context.Background(), c, "echo", struct{}{})
	require.NoError(t, err)
	defer h.Close()

	received := make(chan any, 1)
	h.On(client.EventMessage, func(data any) { received <- data })

	require.NoError(t, h.Send(map[string]any{"hello": "world"}))

	select {
	case msg := <-received:
		m := msg.(map[string]any)
		assert.Equal(t, "world", m["hello"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echoed message")
	}
}

func TestWS_DialFailureSurfacesServerErrorBody(t *testing.T) {
	reg, err := bridge.Compose(bridge.Group{})
	require.NoError(t, err)
	b, err := bridge.New(reg)
	require.NoError(t, err)

	srv := httptest.NewServer(nethttp.New(b))
	defer srv.Close()

	c := client.New(srv.URL)
	_, err = client.WS[struct{}](context.Background(), c, "missing", struct{}{})
	require.Error(t, err)
	var cerr *client.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 404, cerr.Status)
	assert.Equal(t, envelope.CodeRouteNotFound, cerr.Code)
}
