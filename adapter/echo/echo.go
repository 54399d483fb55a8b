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

// Package echo adapts a Bridge onto labstack/echo, the Fetch-style runtime
// named in the component design (§4.F).
package echo

import (
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/snrraptopack/auwsomebridge-sub001/bridge"
	"github.com/snrraptopack/auwsomebridge-sub001/envelope"
	"github.com/snrraptopack/auwsomebridge-sub001/hook"
	"github.com/snrraptopack/auwsomebridge-sub001/transport"
)

// Platform is threaded into hook.Context.Platform unchanged, giving a
// handler that type-asserts it access to the native echo.Context.
type Platform struct {
	Echo echo.Context
}

// Mount registers one catch-all route under b.Prefix() on e, mirroring the
// gin adapter: the exact-name addressing scheme makes one route per bridge
// route unnecessary.
func Mount(e *echo.Echo, b *bridge.Bridge) {
	upgrader := websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096}
	pattern := strings.TrimSuffix(b.Prefix(), "/") + "/*"
	handler := func(c echo.Context) error {
		return serve(c, b, &upgrader)
	}
	e.GET(pattern, handler)
	e.POST(pattern, handler)
	e.PUT(pattern, handler)
	e.PATCH(pattern, handler)
	e.DELETE(pattern, handler)
}

func serve(c echo.Context, b *bridge.Bridge, upgrader *websocket.Upgrader) error {
	name, ok := bridge.ExtractRouteName(c.Request().URL.Path, b.Prefix())
	if !ok {
		return c.JSON(404, envelope.NewError(envelope.CodeRouteNotFound, "route not found", nil))
	}

	req := normalize(c, name)

	if strings.EqualFold(c.Request().Header.Get("Upgrade"), "websocket") {
		return serveWS(c, b, name, req, upgrader)
	}

	outcome := b.Dispatch(c.Request().Context(), name, req, Platform{Echo: c})
	if outcome.IsStream {
		transport.SetSSEHeaders(c.Response().Header())
		c.Response().WriteHeader(http.StatusOK)
		sw := transport.NewSSEWriter(c.Response().Writer, c.Response())
		return sw.Stream(c.Request().Context(), outcome.Stream)
	}

	return c.JSON(outcome.Status, outcome.Body)
}

func serveWS(c echo.Context, b *bridge.Bridge, name string, req *envelope.Request, upgrader *websocket.Upgrader) error {
	up := b.PrepareWSUpgrade(c.Request().Context(), name, req, Platform{Echo: c})
	if !up.Allowed {
		return c.JSON(up.Status, up.Body)
	}

	wsConn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
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
	return nil
}

func headerMap(h map[string]envelope.Values) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, v := range h {
		out[k] = []string(v)
	}
	return out
}

func normalize(c echo.Context, routeName string) *envelope.Request {
	body, _ := io.ReadAll(c.Request().Body)

	headers := make(map[string]envelope.Values, len(c.Request().Header))
	for k, v := range c.Request().Header {
		headers[k] = envelope.Values(v)
	}

	q := c.Request().URL.Query()
	query := make(map[string]envelope.Values, len(q))
	for k, v := range q {
		query[k] = envelope.Values(v)
	}

	return &envelope.Request{
		Method:  c.Request().Method,
		URL:     c.Request().URL.String(),
		IP:      c.RealIP(),
		Headers: headers,
		Query:   query,
		Params:  map[string]string{"route": routeName},
		Body:    body,
	}
}
