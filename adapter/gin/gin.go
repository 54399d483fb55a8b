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

// Package gin adapts a Bridge onto gin-gonic/gin, the Express-style runtime
// named in the component design (§4.F).
package gin

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/snrraptopack/auwsomebridge-sub001/bridge"
	"github.com/snrraptopack/auwsomebridge-sub001/envelope"
	"github.com/snrraptopack/auwsomebridge-sub001/hook"
	"github.com/snrraptopack/auwsomebridge-sub001/transport"
)

// Platform is threaded into hook.Context.Platform unchanged, giving a
// handler that type-asserts it access to the native *gin.Context.
type Platform struct {
	Gin *gin.Context
}

// Mount registers a single catch-all route under b.Prefix() on engine,
// delegating every match to the Bridge dispatcher rather than registering
// one gin route per bridge route — the exact-name addressing scheme (§EXTERNAL
// INTERFACES) makes gin's own path-param matching unnecessary here.
func Mount(engine *gin.Engine, b *bridge.Bridge) {
	upgrader := websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096}
	pattern := strings.TrimSuffix(b.Prefix(), "/") + "/*rest"
	handler := func(c *gin.Context) {
		serve(c, b, &upgrader)
	}
	engine.GET(pattern, handler)
	engine.POST(pattern, handler)
	engine.PUT(pattern, handler)
	engine.PATCH(pattern, handler)
	engine.DELETE(pattern, handler)
}

func serve(c *gin.Context, b *bridge.Bridge, upgrader *websocket.Upgrader) {
	name, ok := bridge.ExtractRouteName(c.Request.URL.Path, b.Prefix())
	if !ok {
		c.JSON(404, envelope.NewError(envelope.CodeRouteNotFound, "route not found", nil))
		return
	}

	req := normalize(c, name)

	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		serveWS(c, b, name, req, upgrader)
		return
	}

	outcome := b.Dispatch(c.Request.Context(), name, req, Platform{Gin: c})
	if outcome.IsStream {
		transport.SetSSEHeaders(c.Writer.Header())
		c.Status(200)
		sw := transport.NewSSEWriter(c.Writer, c.Writer)
		_ = sw.Stream(c.Request.Context(), outcome.Stream)
		return
	}

	c.JSON(outcome.Status, outcome.Body)
}

func serveWS(c *gin.Context, b *bridge.Bridge, name string, req *envelope.Request, upgrader *websocket.Upgrader) {
	up := b.PrepareWSUpgrade(c.Request.Context(), name, req, Platform{Gin: c})
	if !up.Allowed {
		c.JSON(up.Status, up.Body)
		return
	}

	wsConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
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

func headerMap(h map[string]envelope.Values) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, v := range h {
		out[k] = []string(v)
	}
	return out
}

func normalize(c *gin.Context, routeName string) *envelope.Request {
	body, _ := io.ReadAll(c.Request.Body)

	headers := make(map[string]envelope.Values, len(c.Request.Header))
	for k, v := range c.Request.Header {
		headers[k] = envelope.Values(v)
	}

	q := c.Request.URL.Query()
	query := make(map[string]envelope.Values, len(q))
	for k, v := range q {
		query[k] = envelope.Values(v)
	}

	return &envelope.Request{
		Method:  c.Request.Method,
		URL:     c.Request.URL.String(),
		IP:      c.ClientIP(),
		Headers: headers,
		Query:   query,
		Params:  map[string]string{"route": routeName},
		Body:    body,
	}
}
