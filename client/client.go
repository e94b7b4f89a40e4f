// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package client implements a JSON-RPC client for A2A task servers.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"

	a2a "github.com/go-a2a/a2a-taskserver"
	"github.com/go-a2a/a2a-taskserver/internal/sse"
)

// DefaultUserAgent is sent when no other user agent is configured.
const DefaultUserAgent = "a2a-taskserver-client"

// Client calls the agents of one A2A server. It is safe for concurrent use.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	interceptors []Interceptor
	userAgent    string
	userID       string
	logger       *slog.Logger
}

// New returns a Client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: DefaultUserAgent,
	}
	for _, o := range opts {
		o(c)
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// SendMessage runs one agent turn and returns the resulting task.
// JSON-RPC failures are returned as [*a2a.JSONRPCError].
func (c *Client) SendMessage(ctx context.Context, agentID string, params *a2a.MessageSendParams) (*a2a.Task, error) {
	return c.call(ctx, agentID, a2a.MethodMessageSend, params)
}

// GetTask returns the stored task addressed by params.
func (c *Client) GetTask(ctx context.Context, agentID string, params *a2a.TaskQueryParams) (*a2a.Task, error) {
	return c.call(ctx, agentID, a2a.MethodTasksGet, params)
}

// CancelTask cancels the task addressed by params.
func (c *Client) CancelTask(ctx context.Context, agentID string, params *a2a.TaskIDParams) (*a2a.Task, error) {
	return c.call(ctx, agentID, a2a.MethodTasksCancel, params)
}

// StreamMessage runs one agent turn and yields every envelope the server
// streams. An error envelope is yielded together with its [*a2a.JSONRPCError].
// The request is sent when iteration starts; stopping early closes the connection.
func (c *Client) StreamMessage(ctx context.Context, agentID string, params *a2a.MessageSendParams) iter.Seq2[*a2a.JSONRPCResponse, error] {
	return func(yield func(*a2a.JSONRPCResponse, error) bool) {
		resp, err := c.post(ctx, agentID, a2a.MethodMessageStream, params, "text/event-stream")
		if err != nil {
			yield(nil, err)
			return
		}
		defer resp.Body.Close()

		// setup failures are answered with a single JSON envelope
		if mediaType(resp) != "text/event-stream" {
			env, err := decodeEnvelope(resp.Body)
			if err != nil {
				yield(nil, err)
				return
			}
			yield(env, envelopeError(env))
			return
		}

		for evt, err := range sse.Scan(resp.Body) {
			if err != nil {
				yield(nil, fmt.Errorf("read event stream: %w", err))
				return
			}
			payload := bytes.TrimPrefix(evt.Data, []byte(a2a.RecordSeparator))
			var env a2a.JSONRPCResponse
			if err := json.Unmarshal(payload, &env); err != nil {
				yield(nil, fmt.Errorf("decode event: %w", err))
				return
			}
			if !yield(&env, envelopeError(&env)) {
				return
			}
		}
	}
}

// AgentCard fetches the public card of agentID.
func (c *Client) AgentCard(ctx context.Context, agentID string) (*a2a.AgentCard, error) {
	path := strings.Replace(a2a.AgentCardPath, "{agentID}", url.PathEscape(agentID), 1)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var card a2a.AgentCard
	if err := json.UnmarshalRead(resp.Body, &card); err != nil {
		return nil, fmt.Errorf("decode agent card: %w", err)
	}
	return &card, nil
}

func (c *Client) call(ctx context.Context, agentID, method string, params any) (*a2a.Task, error) {
	resp, err := c.post(ctx, agentID, method, params, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	env, err := decodeEnvelope(resp.Body)
	if err != nil {
		return nil, err
	}
	if err := envelopeError(env); err != nil {
		return nil, err
	}
	if env.Result == nil {
		return nil, fmt.Errorf("%s: response has neither result nor error", method)
	}
	return env.Result, nil
}

// post sends one JSON-RPC request to agentID and returns the 200 response.
func (c *Client) post(ctx context.Context, agentID, method string, params any, accept string) (*http.Response, error) {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}
	payload, err := json.Marshal(&a2a.JSONRPCRequest{
		JSONRPC: a2a.JSONRPCVersion,
		ID:      uuid.NewString(),
		Method:  method,
		Params:  rawParams,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	path := strings.Replace(a2a.RPCPath, "{agentID}", url.PathEscape(agentID), 1)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)

	return c.do(ctx, req)
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	if c.userID != "" {
		req.Header.Set(a2a.UserIDHeader, c.userID)
	}

	invoker := chainInterceptors(c.interceptors, func(_ context.Context, req *http.Request) (*http.Response, error) {
		return c.httpClient.Do(req)
	})
	resp, err := invoker(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		c.logger.DebugContext(ctx, "unexpected response status",
			slog.String("url", req.URL.String()), slog.Int("status", resp.StatusCode))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp, nil
}

func decodeEnvelope(r io.Reader) (*a2a.JSONRPCResponse, error) {
	var env a2a.JSONRPCResponse
	if err := json.UnmarshalRead(r, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &env, nil
}

// envelopeError returns the error carried by env as an error value, or nil.
func envelopeError(env *a2a.JSONRPCResponse) error {
	if env.Error != nil {
		return env.Error
	}
	return nil
}

func mediaType(resp *http.Response) string {
	mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}
