// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gocmp "github.com/google/go-cmp/cmp"

	a2a "github.com/go-a2a/a2a-taskserver"
	"github.com/go-a2a/a2a-taskserver/agent/echo"
	"github.com/go-a2a/a2a-taskserver/client"
	"github.com/go-a2a/a2a-taskserver/server"
	"github.com/go-a2a/a2a-taskserver/transport"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	tm := server.NewTaskManager(
		server.WithAgents(echo.New("echo", echo.WithChunkSize(4))),
		server.WithLogger(logger),
	)
	srv := httptest.NewServer(transport.NewServer(tm, transport.WithLogger(logger)))
	t.Cleanup(srv.Close)
	return srv
}

func sendParams(id, text string) *a2a.MessageSendParams {
	msg := a2a.NewUserTextMessage(text)
	return &a2a.MessageSendParams{ID: id, Message: &msg}
}

func TestSendGetCancel(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	c := client.New(srv.URL + "/")
	ctx := t.Context()

	task, err := c.SendMessage(ctx, "echo", sendParams("task-1", "hello"))
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	last, _ := task.LastMessage()
	if task.ID != "task-1" || task.Status.State != a2a.TaskStateCompleted || last.Text() != "hello" {
		t.Errorf("SendMessage() = %s %s %q", task.ID, task.Status.State, last.Text())
	}

	got, err := c.GetTask(ctx, "echo", &a2a.TaskQueryParams{ID: "task-1"})
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if diff := gocmp.Diff(task, got); diff != "" {
		t.Errorf("GetTask() mismatch (-want +got):\n%s", diff)
	}

	_, err = c.CancelTask(ctx, "echo", &a2a.TaskIDParams{ID: "task-1"})
	if !client.IsTaskNotCancelableError(err) {
		t.Errorf("CancelTask() on a completed task error = %v, want not cancelable", err)
	}

	_, err = c.GetTask(ctx, "echo", &a2a.TaskQueryParams{ID: "missing"})
	if !client.IsTaskNotFoundError(err) {
		t.Errorf("GetTask() of a missing task error = %v, want not found", err)
	}
	var rpcErr *a2a.JSONRPCError
	if !errors.As(err, &rpcErr) || rpcErr.TaskID() != "missing" {
		t.Errorf("error data = %+v, want taskId missing", rpcErr)
	}
}

func TestStreamMessage(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	c := client.New(srv.URL)

	var envelopes []*a2a.JSONRPCResponse
	for env, err := range c.StreamMessage(t.Context(), "echo", sendParams("task-s", "streaming works")) {
		if err != nil {
			t.Fatalf("StreamMessage() error = %v", err)
		}
		envelopes = append(envelopes, env)
	}
	if len(envelopes) < 3 {
		t.Fatalf("got %d envelopes, want at least 3", len(envelopes))
	}
	final := envelopes[len(envelopes)-1].Result
	last, _ := final.LastMessage()
	if final.Status.State != a2a.TaskStateCompleted || last.Text() != "streaming works" {
		t.Errorf("final = %s %q", final.Status.State, last.Text())
	}
}

func TestStreamMessageSetupError(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	c := client.New(srv.URL)

	var calls int
	for env, err := range c.StreamMessage(t.Context(), "echo", &a2a.MessageSendParams{ID: "task-x"}) {
		calls++
		if !client.IsRPCError(err, a2a.ErrorCodeInvalidParams) {
			t.Errorf("error = %v, want invalid params", err)
		}
		if env == nil || env.Error == nil {
			t.Errorf("envelope = %+v, want an error envelope", env)
		}
	}
	if calls != 1 {
		t.Errorf("yielded %d times, want 1", calls)
	}
}

func TestStreamMessageEarlyBreak(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	c := client.New(srv.URL)

	for _, err := range c.StreamMessage(t.Context(), "echo", sendParams("task-b", "a much longer message than four runes")) {
		if err != nil {
			t.Fatalf("StreamMessage() error = %v", err)
		}
		break
	}
}

func TestAgentCard(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	c := client.New(srv.URL)

	card, err := c.AgentCard(t.Context(), "echo")
	if err != nil {
		t.Fatalf("AgentCard() error = %v", err)
	}
	if card.Name != "echo" || card.URL != srv.URL+"/a2a/echo" {
		t.Errorf("card = name %q url %q", card.Name, card.URL)
	}

	_, err = c.AgentCard(t.Context(), "ghost")
	var httpErr *client.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("AgentCard(ghost) error = %v, want 404", err)
	}
}

func TestHeaders(t *testing.T) {
	t.Parallel()

	var gotUA, gotUser, gotExtra atomic.Value
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		gotUser.Store(r.Header.Get(a2a.UserIDHeader))
		gotExtra.Store(r.Header.Get("X-Extra"))
		w.WriteHeader(http.StatusTeapot)
	}))
	t.Cleanup(proxy.Close)

	c := client.New(proxy.URL,
		client.WithUserAgent("client-test"),
		client.WithUserID("user-1"),
		client.WithInterceptors(client.HeaderInterceptor(map[string]string{"X-Extra": "yes"})),
	)
	_, err := c.SendMessage(t.Context(), "echo", sendParams("", "hi"))
	var httpErr *client.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusTeapot {
		t.Fatalf("SendMessage() error = %v, want status 418", err)
	}

	want := []any{"client-test", "user-1", "yes"}
	got := []any{gotUA.Load(), gotUser.Load(), gotExtra.Load()}
	if diff := gocmp.Diff(want, got); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
}

func TestRetryInterceptor(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		failures  int32
		attempts  int
		wantErr   bool
		wantCalls int32
	}{
		"recovers": {
			failures:  2,
			attempts:  3,
			wantCalls: 3,
		},
		"gives up": {
			failures:  5,
			attempts:  2,
			wantErr:   true,
			wantCalls: 2,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			backend := newServer(t)
			var calls atomic.Int32
			flaky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) <= tt.failures {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				req, err := http.NewRequestWithContext(r.Context(), r.Method, backend.URL+r.URL.Path, r.Body)
				if err != nil {
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
				req.Header = r.Header.Clone()
				resp, err := http.DefaultClient.Do(req)
				if err != nil {
					http.Error(w, err.Error(), http.StatusBadGateway)
					return
				}
				defer resp.Body.Close()
				w.Header().Set("Content-Type", resp.Header.Get("Content-Type"))
				w.WriteHeader(resp.StatusCode)
				_, _ = io.Copy(w, resp.Body)
			}))
			t.Cleanup(flaky.Close)

			c := client.New(flaky.URL, client.WithInterceptors(client.RetryInterceptor(&client.RetryPolicy{
				MaxAttempts:  tt.attempts,
				InitialDelay: time.Millisecond,
				MaxDelay:     5 * time.Millisecond,
				Multiplier:   2,
			})))
			task, err := c.SendMessage(t.Context(), "echo", sendParams("", "retry me"))
			if (err != nil) != tt.wantErr {
				t.Fatalf("SendMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && task.Status.State != a2a.TaskStateCompleted {
				t.Errorf("state = %s, want completed", task.Status.State)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestRetryInterceptorStopsOnContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	c := client.New(srv.URL, client.WithInterceptors(client.RetryInterceptor(&client.RetryPolicy{
		MaxAttempts:  10,
		InitialDelay: time.Second,
		MaxDelay:     time.Second,
		Multiplier:   1,
	})))
	_, err := c.SendMessage(ctx, "echo", sendParams("", "x"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("SendMessage() error = %v, want deadline exceeded", err)
	}
}
