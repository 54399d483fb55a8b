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

// Package nethttp adapts a Bridge onto net/http's native Handler interface,
// the "native" runtime named in the component design (§4.F).
package nethttp

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/snrraptopack/auwsomebridge-sub001/bridge"
	"github.com/snrraptopack/auwsomebridge-sub001/envelope"
	"github.com/snrraptopack/auwsomebridge-sub001/hook"
	"github.com/snrraptopack/auwsomebridge-sub001/observability"
	"github.com/snrraptopack/auwsomebridge-sub001/transport"
)

// Platform is threaded into hook.Context.Platform unchanged, giving a
// handler that type-asserts it access to the native request/response pair
// net/http exposes.
type Platform struct {
	Writer  http.ResponseWriter
	Request *http.Request
}

// Handler mounts every registered http/sse route at {prefix}/{name} and every
// ws route at the same address, dispatched by method/kind exactly as the
// Bridge core decides; it is an http.Handler ready to pass to http.Server or
// mux.Handle.
type Handler struct {
	b        *bridge.Bridge
	upgrader websocket.Upgrader

	serverMu sync.Mutex
	server   *http.Server
}

// New builds a net/http Handler over b. Origin checking is configured by the
// caller via CheckOrigin on the Upgrader the Handler's Upgrader method
// returns, rather than an option; left unset, gorilla/websocket applies its
// own same-origin check.
func New(b *bridge.Bridge) *Handler {
	return &Handler{b: b, upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096}}
}

// Upgrader exposes the underlying websocket.Upgrader for CheckOrigin/Subprotocols
// configuration before serving begins.
func (h *Handler) Upgrader() *websocket.Upgrader { return &h.upgrader }

// Serve starts an *http.Server on addr with the bridge's configured
// ServerTimeouts (see bridge.WithServerTimeouts), mirroring the teacher's
// Router.Serve. It blocks until the server exits; for graceful shutdown
// call Shutdown from another goroutine.
func (h *Handler) Serve(addr string) error {
	t := h.b.ServerTimeouts()
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: t.ReadHeader,
		ReadTimeout:       t.Read,
		WriteTimeout:      t.Write,
		IdleTimeout:       t.Idle,
	}

	h.serverMu.Lock()
	h.server = srv
	h.serverMu.Unlock()

	return srv.ListenAndServe()
}

// Shutdown gracefully stops the server started by Serve, per the teacher's
// Router.Shutdown. A no-op if Serve was never called.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.serverMu.Lock()
	srv := h.server
	h.server = nil
	h.serverMu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/metrics" {
		if mh := observability.MetricsHandler(h.b.Recorder()); mh != nil {
			mh.ServeHTTP(w, r)
			return
		}
	}

	name, ok := bridge.ExtractRouteName(r.URL.Path, h.b.Prefix())
	if !ok {
		http.NotFound(w, r)
		return
	}

	req := normalize(r, name)

	if isWebSocketUpgrade(r) {
		h.serveWS(w, r, name, req)
		return
	}

	outcome := h.b.Dispatch(r.Context(), name, req, Platform{Writer: w, Request: r})
	if outcome.IsStream {
		transport.SetSSEHeaders(w.Header())
		w.WriteHeader(http.StatusOK)
		flusher, ok := w.(http.Flusher)
		if !ok {
			flusher = noopFlusher{}
		}
		sw := transport.NewSSEWriter(w, flusher)
		_ = sw.Stream(r.Context(), outcome.Stream)
		return
	}

	writeEnvelope(w, outcome.Status, outcome.Body)
}

func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request, name string, req *envelope.Request) {
	up := h.b.PrepareWSUpgrade(r.Context(), name, req, Platform{Writer: w, Request: r})
	if !up.Allowed {
		writeEnvelope(w, up.Status, up.Body)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	conn := transport.NewConnection(wsConn, req.IP, headerMap(req.Headers), up.HookContext.Vars)
	up.OnOpen(conn, nil)

	succeeded := true
	var failure *hook.Failure
	for {
		data, err := conn.ReadText()
		if err != nil {
			break
		}
		if ok, f := up.HandleMessage(conn, data, nil); !ok {
			succeeded, failure = ok, f
		}
	}
	up.Close(conn, 1000, "", succeeded, failure, nil)
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func headerMap(h map[string]envelope.Values) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, v := range h {
		out[k] = []string(v)
	}
	return out
}

func normalize(r *http.Request, routeName string) *envelope.Request {
	body, _ := io.ReadAll(r.Body)

	headers := make(map[string]envelope.Values, len(r.Header))
	for k, v := range r.Header {
		headers[k] = envelope.Values(v)
	}

	q := r.URL.Query()
	query := make(map[string]envelope.Values, len(q))
	for k, v := range q {
		query[k] = envelope.Values(v)
	}

	return &envelope.Request{
		Method:  r.Method,
		URL:     r.URL.String(),
		IP:      r.RemoteAddr,
		Headers: headers,
		Query:   query,
		Params:  map[string]string{"route": routeName},
		Body:    body,
	}
}

func writeEnvelope(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	b, err := envelope.Marshal(body)
	if err != nil {
		return
	}
	_, _ = w.Write(b)
}

type noopFlusher struct{}

func (noopFlusher) Flush() {}
