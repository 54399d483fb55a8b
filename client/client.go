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

// Package client is the typed invoker generated from a route registry
// (§4.G): the only public surface a caller uses, never exposing the
// underlying transport.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/snrraptopack/auwsomebridge-sub001/envelope"
)

// Client is a thin, route-name-driven invoker over one bridge deployment,
// mirroring the server's own route-name addressing (baseURL + prefix +
// "/" + name) rather than caching per-route URLs.
type Client struct {
	baseURL string
	prefix  string
	http    *http.Client
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithHTTPClient overrides the *http.Client used for http/sse requests.
// Default is http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithPrefix overrides the URL prefix routes are mounted under. Default
// "/api", matching bridge.Option's WithPrefix default.
func WithPrefix(prefix string) Option {
	return func(c *Client) { c.prefix = prefix }
}

// New builds a Client targeting baseURL (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		prefix:  "/api",
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) routeURL(name string) string {
	return c.baseURL + strings.TrimSuffix(c.prefix, "/") + "/" + name
}

// Error is the structured failure an invoker returns when the server
// replies with an error envelope, carrying the same {code, status,
// message, details} shape as the wire error (§6).
type Error struct {
	Code    envelope.Code
	Status  int
	Message string
	Details any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// Invoke calls an http route by name. For GET, input is serialized into the
// query string (repeated keys for array-valued fields); for every other
// method it is sent as a JSON body.
func Invoke[In, Out any](ctx context.Context, c *Client, routeName, method string, input In) (Out, error) {
	var zero Out

	req, err := c.buildRequest(ctx, routeName, method, input)
	if err != nil {
		return zero, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, err
	}

	return decodeEnvelope[Out](resp.StatusCode, body)
}

func (c *Client) buildRequest(ctx context.Context, routeName, method string, input any) (*http.Request, error) {
	if strings.EqualFold(method, http.MethodGet) {
		q, err := toQuery(input)
		if err != nil {
			return nil, err
		}
		u := c.routeURL(routeName)
		if len(q) > 0 {
			u += "?" + q.Encode()
		}
		return http.NewRequestWithContext(ctx, method, u, nil)
	}

	b, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.routeURL(routeName), bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// toQuery flattens input (expected to be a struct or map) into url.Values,
// turning any JSON array field into repeated keys.
func toQuery(input any) (url.Values, error) {
	b, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	q := url.Values{}
	for k, v := range raw {
		switch vv := v.(type) {
		case []any:
			for _, item := range vv {
				q.Add(k, fmt.Sprint(item))
			}
		case nil:
			// omit
		default:
			q.Add(k, fmt.Sprint(vv))
		}
	}
	return q, nil
}

func decodeEnvelope[Out any](status int, body []byte) (Out, error) {
	var zero Out

	var probe struct {
		Ok bool `json:"success"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return zero, fmt.Errorf("client: malformed response (status %d): %w", status, err)
	}

	if !probe.Ok {
		var e envelope.Error
		if err := json.Unmarshal(body, &e); err != nil {
			return zero, fmt.Errorf("client: malformed error response (status %d): %w", status, err)
		}
		return zero, &Error{Code: e.Error.Code, Status: status, Message: e.Error.Message, Details: e.Error.Details}
	}

	var s struct {
		Data Out `json:"data"`
	}
	if err := json.Unmarshal(body, &s); err != nil {
		return zero, err
	}
	return s.Data, nil
}
