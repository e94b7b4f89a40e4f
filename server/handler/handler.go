// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package handler adapts JSON-RPC requests to a [server.TaskManager].
// It decodes and validates the envelope, routes the method, and returns
// either a single response envelope or a lazy stream of envelopes.
package handler

import (
	"context"
	"iter"
	"log/slog"
	"time"

	a2a "github.com/go-a2a/a2a-taskserver"
	"github.com/go-a2a/a2a-taskserver/internal/telemetry"
	"github.com/go-a2a/a2a-taskserver/server"
)

// Result is the outcome of one request. Exactly one of Response and Stream is set.
type Result struct {
	Response *a2a.JSONRPCResponse
	Stream   iter.Seq[*a2a.JSONRPCResponse]
}

// IsStream reports whether the result is a stream of envelopes.
func (r *Result) IsStream() bool {
	return r.Stream != nil
}

func successResult(id any, task *a2a.Task) *Result {
	return &Result{Response: a2a.NewSuccessResponse(id, task)}
}

func errorResult(id any, err error) *Result {
	return &Result{Response: a2a.NewErrorResponse(id, err)}
}

// Handler provides JSON-RPC protocol adaptation for a [server.TaskManager].
type Handler struct {
	tm      *server.TaskManager
	router  *MethodRouter
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// Option configures a [Handler].
type Option func(*Handler)

// WithLogger sets the [*slog.Logger] for the [Handler].
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithMetrics sets the [*telemetry.Metrics] requests are recorded to.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(h *Handler) {
		h.metrics = metrics
	}
}

// New creates a Handler serving tm.
func New(tm *server.TaskManager, opts ...Option) *Handler {
	if tm == nil {
		panic("task manager cannot be nil")
	}

	h := &Handler{
		tm:     tm,
		router: NewMethodRouter(),
	}
	for _, o := range opts {
		o(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.metrics == nil {
		h.metrics = telemetry.Default()
	}

	h.registerMethods()
	return h
}

func (h *Handler) registerMethods() {
	h.router.RegisterMethod(a2a.MethodMessageSend, h.handleMessageSend)
	h.router.RegisterMethod(a2a.MethodMessageStream, h.handleMessageStream)
	h.router.RegisterMethod(a2a.MethodTasksGet, h.handleTasksGet)
	h.router.RegisterMethod(a2a.MethodTasksCancel, h.handleTasksCancel)
	h.router.RegisterMethod(a2a.MethodTasksPushNotificationConfigSet, h.handlePushNotificationConfig)
	h.router.RegisterMethod(a2a.MethodTasksPushNotificationConfigGet, h.handlePushNotificationConfig)
	h.router.RegisterMethod(a2a.MethodTasksResubscribe, h.handleUnsupported)
}

// Methods returns the JSON-RPC methods the handler answers.
func (h *Handler) Methods() []string {
	return h.router.Methods()
}

// Handle decodes body and processes it as a request addressed to agentID.
func (h *Handler) Handle(ctx context.Context, agentID string, body []byte, cc *server.CallContext) *Result {
	start := time.Now()

	req, err := DecodeRequest(body)
	if err != nil {
		var id any
		if req != nil {
			id = req.ID
		}
		h.logger.DebugContext(ctx, "rejecting malformed request",
			slog.String("agent_id", agentID), slog.Any("error", err))
		res := errorResult(id, err)
		h.record(ctx, "", start, res)
		return res
	}

	return h.HandleRequest(ctx, agentID, req, cc)
}

// HandleRequest processes a decoded request addressed to agentID.
func (h *Handler) HandleRequest(ctx context.Context, agentID string, req *a2a.JSONRPCRequest, cc *server.CallContext) *Result {
	start := time.Now()

	res := h.router.Route(ctx, &Call{
		AgentID: agentID,
		Request: req,
		Caller:  cc,
	})
	if res.Response != nil && res.Response.Error != nil {
		h.logger.DebugContext(ctx, "request failed",
			slog.String("agent_id", agentID),
			slog.String("method", req.Method),
			slog.Int("code", res.Response.Error.Code),
			slog.String("message", res.Response.Error.Message))
	}
	h.record(ctx, req.Method, start, res)
	return res
}

// record counts the request. Streams are recorded once set up; unknown
// methods share one label.
func (h *Handler) record(ctx context.Context, method string, start time.Time, res *Result) {
	if _, ok := h.router.methods[method]; !ok {
		method = "unknown"
	}
	code := 0
	if res.Response != nil && res.Response.Error != nil {
		code = res.Response.Error.Code
	}
	h.metrics.RecordRequest(ctx, method, code, time.Since(start))
}

func (h *Handler) handleMessageSend(ctx context.Context, call *Call) *Result {
	id := call.Request.ID
	params, err := decodeParams[a2a.MessageSendParams](call.Request)
	if err != nil {
		return errorResult(id, err)
	}

	task, err := h.tm.SendMessage(ctx, call.AgentID, params, call.Caller)
	if err != nil {
		return errorResult(id, err)
	}
	return successResult(id, task)
}

func (h *Handler) handleMessageStream(ctx context.Context, call *Call) *Result {
	id := call.Request.ID
	params, err := decodeParams[a2a.MessageSendParams](call.Request)
	if err != nil {
		return errorResult(id, err)
	}

	seq, err := h.tm.StreamMessage(ctx, id, call.AgentID, params, call.Caller)
	if err != nil {
		return errorResult(id, err)
	}
	return &Result{Stream: seq}
}

func (h *Handler) handleTasksGet(ctx context.Context, call *Call) *Result {
	id := call.Request.ID
	params, err := decodeParams[a2a.TaskQueryParams](call.Request)
	if err != nil {
		return errorResult(id, err)
	}

	task, err := h.tm.GetTask(ctx, call.AgentID, params)
	if err != nil {
		return errorResult(id, err)
	}
	return successResult(id, task)
}

func (h *Handler) handleTasksCancel(ctx context.Context, call *Call) *Result {
	id := call.Request.ID
	params, err := decodeParams[a2a.TaskIDParams](call.Request)
	if err != nil {
		return errorResult(id, err)
	}

	task, err := h.tm.CancelTask(ctx, call.AgentID, params)
	if err != nil {
		return errorResult(id, err)
	}
	return successResult(id, task)
}

func (h *Handler) handlePushNotificationConfig(_ context.Context, call *Call) *Result {
	return errorResult(call.Request.ID, &a2a.PushNotificationNotSupportedError{})
}

func (h *Handler) handleUnsupported(_ context.Context, call *Call) *Result {
	return errorResult(call.Request.ID, &a2a.UnsupportedOperationError{Operation: call.Request.Method})
}
