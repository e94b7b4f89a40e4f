// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handler_test

import (
	"fmt"
	"log/slog"
	"testing"

	gocmp "github.com/google/go-cmp/cmp"

	a2a "github.com/go-a2a/a2a-taskserver"
	"github.com/go-a2a/a2a-taskserver/agent/echo"
	"github.com/go-a2a/a2a-taskserver/server"
	"github.com/go-a2a/a2a-taskserver/server/handler"
)

func TestDecodeRequest(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		body     string
		want     *a2a.JSONRPCRequest
		wantCode int
		wantID   any
	}{
		"string id": {
			body: `{"jsonrpc":"2.0","id":"req-1","method":"tasks/get","params":{"id":"t"}}`,
			want: &a2a.JSONRPCRequest{JSONRPC: "2.0", ID: "req-1", Method: "tasks/get", Params: []byte(`{"id":"t"}`)},
		},
		"number id": {
			body: `{"jsonrpc":"2.0","id":7,"method":"tasks/get"}`,
			want: &a2a.JSONRPCRequest{JSONRPC: "2.0", ID: float64(7), Method: "tasks/get"},
		},
		"null id and params": {
			body: `{"jsonrpc":"2.0","id":null,"method":"tasks/get","params":null}`,
			want: &a2a.JSONRPCRequest{JSONRPC: "2.0", Method: "tasks/get"},
		},
		"missing id": {
			body: ` {"jsonrpc":"2.0","method":"tasks/get"} `,
			want: &a2a.JSONRPCRequest{JSONRPC: "2.0", Method: "tasks/get"},
		},
		"malformed": {
			body:     `{"jsonrpc" "2.0"}`,
			wantCode: a2a.ErrorCodeJSONParse,
		},
		"truncated": {
			body:     `{"jsonrpc":"2.0",`,
			wantCode: a2a.ErrorCodeJSONParse,
		},
		"empty": {
			body:     ``,
			wantCode: a2a.ErrorCodeJSONParse,
		},
		"array": {
			body:     `[{"jsonrpc":"2.0","method":"tasks/get"}]`,
			wantCode: a2a.ErrorCodeInvalidRequest,
		},
		"scalar": {
			body:     `"hello"`,
			wantCode: a2a.ErrorCodeInvalidRequest,
		},
		"wrong version": {
			body:     `{"jsonrpc":"1.0","id":1,"method":"tasks/get"}`,
			wantCode: a2a.ErrorCodeInvalidRequest,
			wantID:   float64(1),
		},
		"missing method": {
			body:     `{"jsonrpc":"2.0","id":"a"}`,
			wantCode: a2a.ErrorCodeInvalidRequest,
			wantID:   "a",
		},
		"numeric method": {
			body:     `{"jsonrpc":"2.0","id":"a","method":3}`,
			wantCode: a2a.ErrorCodeInvalidRequest,
			wantID:   "a",
		},
		"object id": {
			body:     `{"jsonrpc":"2.0","id":{"x":1},"method":"tasks/get"}`,
			wantCode: a2a.ErrorCodeInvalidRequest,
		},
		"boolean id": {
			body:     `{"jsonrpc":"2.0","id":true,"method":"tasks/get"}`,
			wantCode: a2a.ErrorCodeInvalidRequest,
		},
		"array params": {
			body:     `{"jsonrpc":"2.0","id":2,"method":"tasks/get","params":[1]}`,
			wantCode: a2a.ErrorCodeInvalidRequest,
			wantID:   float64(2),
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := handler.DecodeRequest([]byte(tt.body))
			if tt.wantCode != 0 {
				if err == nil {
					t.Fatalf("DecodeRequest() = %+v, want error code %d", got, tt.wantCode)
				}
				if code := a2a.NormalizeError(err).Code; code != tt.wantCode {
					t.Errorf("error code = %d, want %d (%v)", code, tt.wantCode, err)
				}
				var gotID any
				if got != nil {
					gotID = got.ID
				}
				if gotID != tt.wantID {
					t.Errorf("id = %v, want %v", gotID, tt.wantID)
				}
				return
			}

			if err != nil {
				t.Fatalf("DecodeRequest() error = %v", err)
			}
			if diff := gocmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeRequest() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func newHandler(t *testing.T) *handler.Handler {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	tm := server.NewTaskManager(
		server.WithAgents(echo.New("echo")),
		server.WithLogger(logger),
	)
	return handler.New(tm, handler.WithLogger(logger))
}

const sendBody = `{"jsonrpc":"2.0","id":"req-1","method":"%s","params":{"id":"task-1","message":{"role":"user","parts":[{"kind":"text","text":"hello"}]}}}`

func TestHandleErrors(t *testing.T) {
	t.Parallel()

	h := newHandler(t)

	tests := map[string]struct {
		agentID  string
		body     string
		wantID   any
		wantCode int
	}{
		"parse error": {
			agentID:  "echo",
			body:     `{`,
			wantCode: a2a.ErrorCodeJSONParse,
		},
		"unknown method": {
			agentID:  "echo",
			body:     `{"jsonrpc":"2.0","id":1,"method":"tasks/list"}`,
			wantID:   float64(1),
			wantCode: a2a.ErrorCodeMethodNotFound,
		},
		"unknown agent": {
			agentID:  "nobody",
			body:     `{"jsonrpc":"2.0","id":"x","method":"message/send","params":{"message":{"role":"user","parts":[{"kind":"text","text":"hi"}]}}}`,
			wantID:   "x",
			wantCode: a2a.ErrorCodeInvalidRequest,
		},
		"ill-typed params": {
			agentID:  "echo",
			body:     `{"jsonrpc":"2.0","id":"x","method":"message/send","params":{"message":5}}`,
			wantID:   "x",
			wantCode: a2a.ErrorCodeInvalidParams,
		},
		"missing params": {
			agentID:  "echo",
			body:     `{"jsonrpc":"2.0","id":"x","method":"message/send"}`,
			wantID:   "x",
			wantCode: a2a.ErrorCodeInvalidParams,
		},
		"get without id": {
			agentID:  "echo",
			body:     `{"jsonrpc":"2.0","id":"x","method":"tasks/get","params":{}}`,
			wantID:   "x",
			wantCode: a2a.ErrorCodeInvalidParams,
		},
		"get unknown task": {
			agentID:  "echo",
			body:     `{"jsonrpc":"2.0","id":"x","method":"tasks/get","params":{"id":"missing"}}`,
			wantID:   "x",
			wantCode: a2a.ErrorCodeTaskNotFound,
		},
		"cancel unknown task": {
			agentID:  "echo",
			body:     `{"jsonrpc":"2.0","id":"x","method":"tasks/cancel","params":{"id":"missing"}}`,
			wantID:   "x",
			wantCode: a2a.ErrorCodeTaskNotFound,
		},
		"push notification config set": {
			agentID:  "echo",
			body:     `{"jsonrpc":"2.0","id":"x","method":"tasks/pushNotificationConfig/set","params":{}}`,
			wantID:   "x",
			wantCode: a2a.ErrorCodePushNotificationNotSupported,
		},
		"push notification config get": {
			agentID:  "echo",
			body:     `{"jsonrpc":"2.0","id":"x","method":"tasks/pushNotificationConfig/get","params":{}}`,
			wantID:   "x",
			wantCode: a2a.ErrorCodePushNotificationNotSupported,
		},
		"resubscribe": {
			agentID:  "echo",
			body:     `{"jsonrpc":"2.0","id":"x","method":"tasks/resubscribe","params":{"id":"t"}}`,
			wantID:   "x",
			wantCode: a2a.ErrorCodeUnsupportedOperation,
		},
		"stream setup error": {
			agentID:  "echo",
			body:     `{"jsonrpc":"2.0","id":"x","method":"message/stream","params":{}}`,
			wantID:   "x",
			wantCode: a2a.ErrorCodeInvalidParams,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			res := h.Handle(t.Context(), tt.agentID, []byte(tt.body), nil)
			if res.IsStream() {
				t.Fatal("Handle() returned a stream, want a single error envelope")
			}
			resp := res.Response
			if resp.Result != nil || resp.Error == nil {
				t.Fatalf("response = %+v, want an error", resp)
			}
			if resp.JSONRPC != a2a.JSONRPCVersion {
				t.Errorf("jsonrpc = %q", resp.JSONRPC)
			}
			if resp.ID != tt.wantID {
				t.Errorf("id = %v, want %v", resp.ID, tt.wantID)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code = %d, want %d (%s)", resp.Error.Code, tt.wantCode, resp.Error.Message)
			}
		})
	}
}

func TestHandleLifecycle(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	h := newHandler(t)
	cc := server.NewCallContext("user-1")

	res := h.Handle(ctx, "echo", fmt.Appendf(nil, sendBody, a2a.MethodMessageSend), cc)
	if res.IsStream() || res.Response.Error != nil {
		t.Fatalf("message/send = %+v, want a task", res.Response)
	}
	if got := res.Response.Result; got.ID != "task-1" || got.Status.State != a2a.TaskStateCompleted {
		t.Fatalf("message/send result = %s %s, want task-1 completed", got.ID, got.Status.State)
	}
	if res.Response.ID != "req-1" {
		t.Errorf("id = %v, want req-1", res.Response.ID)
	}

	res = h.Handle(ctx, "echo", []byte(`{"jsonrpc":"2.0","id":3,"method":"tasks/get","params":{"id":"task-1","historyLength":1}}`), cc)
	if res.Response.Error != nil {
		t.Fatalf("tasks/get error = %+v", res.Response.Error)
	}
	if n := len(res.Response.Result.History); n != 1 {
		t.Errorf("len(History) = %d, want 1", n)
	}

	res = h.Handle(ctx, "echo", []byte(`{"jsonrpc":"2.0","id":4,"method":"tasks/cancel","params":{"id":"task-1"}}`), cc)
	if res.Response.Error == nil || res.Response.Error.Code != a2a.ErrorCodeTaskNotCancelable {
		t.Fatalf("tasks/cancel on completed task = %+v, want not cancelable", res.Response)
	}
	if got := res.Response.Error.TaskID(); got != "task-1" {
		t.Errorf("error taskId = %q, want task-1", got)
	}
}

func TestHandleStream(t *testing.T) {
	t.Parallel()

	h := newHandler(t)
	res := h.Handle(t.Context(), "echo", fmt.Appendf(nil, sendBody, a2a.MethodMessageStream), nil)
	if !res.IsStream() {
		t.Fatalf("message/stream = %+v, want a stream", res.Response)
	}

	var states []a2a.TaskState
	for env := range res.Stream {
		if env.Error != nil {
			t.Fatalf("error envelope: %+v", env.Error)
		}
		if env.ID != "req-1" {
			t.Errorf("envelope id = %v, want req-1", env.ID)
		}
		states = append(states, env.Result.Status.State)
	}
	if len(states) < 2 {
		t.Fatalf("got %d envelopes, want at least 2", len(states))
	}
	if states[0] != a2a.TaskStateWorking {
		t.Errorf("first state = %q, want working", states[0])
	}
	if last := states[len(states)-1]; last != a2a.TaskStateCompleted {
		t.Errorf("last state = %q, want completed", last)
	}
}

func TestMethods(t *testing.T) {
	t.Parallel()

	want := []string{
		a2a.MethodMessageSend,
		a2a.MethodMessageStream,
		a2a.MethodTasksCancel,
		a2a.MethodTasksGet,
		a2a.MethodTasksPushNotificationConfigGet,
		a2a.MethodTasksPushNotificationConfigSet,
		a2a.MethodTasksResubscribe,
	}
	if diff := gocmp.Diff(want, newHandler(t).Methods()); diff != "" {
		t.Errorf("Methods() mismatch (-want +got):\n%s", diff)
	}
}
