// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"context"
	"slices"

	a2a "github.com/go-a2a/a2a-taskserver"
	"github.com/go-a2a/a2a-taskserver/server"
)

// Call is one decoded request addressed to an agent.
type Call struct {
	AgentID string
	Request *a2a.JSONRPCRequest
	Caller  *server.CallContext
}

// MethodFunc handles one JSON-RPC method.
type MethodFunc func(ctx context.Context, call *Call) *Result

// MethodRouter provides method routing for JSON-RPC requests.
type MethodRouter struct {
	methods map[string]MethodFunc
}

// NewMethodRouter creates a new MethodRouter.
func NewMethodRouter() *MethodRouter {
	return &MethodRouter{
		methods: make(map[string]MethodFunc),
	}
}

// RegisterMethod registers a method handler, replacing any previous one.
func (r *MethodRouter) RegisterMethod(method string, fn MethodFunc) {
	r.methods[method] = fn
}

// Route dispatches call to the handler registered for its method.
// Unknown methods answer [a2a.MethodNotFoundError].
func (r *MethodRouter) Route(ctx context.Context, call *Call) *Result {
	fn, ok := r.methods[call.Request.Method]
	if !ok {
		return errorResult(call.Request.ID, &a2a.MethodNotFoundError{Method: call.Request.Method})
	}
	return fn(ctx, call)
}

// Methods returns the registered method names in sorted order.
func (r *MethodRouter) Methods() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
