// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"sync"
)

// ErrTaskCanceled is the cancellation cause of an operation signaled through
// [OperationRegistry.Signal].
var ErrTaskCanceled = errors.New("task canceled")

// Operation is the cancellation handle of one in-flight send or stream call.
type Operation struct {
	key    string
	ctx    context.Context
	cancel context.CancelCauseFunc
	reg    *OperationRegistry
	once   sync.Once
}

// Context returns the context to pass to the agent. It is done once the
// operation is signaled, released, or its parent context ends.
func (op *Operation) Context() context.Context {
	return op.ctx
}

// Key returns the store key the operation is registered under.
func (op *Operation) Key() string {
	return op.key
}

// Signaled reports whether the task was canceled while this operation ran:
// either the handle was signaled or a cancel is pending for its key.
func (op *Operation) Signaled() bool {
	if errors.Is(context.Cause(op.ctx), ErrTaskCanceled) {
		return true
	}
	return op.reg.pending(op.key)
}

// Release removes the operation from its registry and frees its context.
// It is safe to call more than once.
func (op *Operation) Release() {
	op.once.Do(func() {
		op.reg.remove(op)
		op.cancel(context.Canceled)
	})
}

// OperationRegistry tracks in-flight operations by (agent id, task id) so that
// a cancel call can reach an execution running elsewhere. It is safe for
// concurrent use.
type OperationRegistry struct {
	mu       sync.Mutex
	ops      map[string]*Operation
	canceled map[string]struct{}
	onChange func(delta int)
}

// RegistryOption configures an [OperationRegistry].
type RegistryOption func(*OperationRegistry)

// WithActiveHook calls fn with +1 and -1 as operations are registered and released.
func WithActiveHook(fn func(delta int)) RegistryOption {
	return func(r *OperationRegistry) {
		r.onChange = fn
	}
}

// NewOperationRegistry creates an empty registry.
func NewOperationRegistry(opts ...RegistryOption) *OperationRegistry {
	r := &OperationRegistry{
		ops:      make(map[string]*Operation),
		canceled: make(map[string]struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register creates an operation for (agentID, taskID) derived from ctx. A later
// registration under the same key replaces the earlier one as the target of
// [OperationRegistry.Signal].
func (r *OperationRegistry) Register(ctx context.Context, agentID, taskID string) *Operation {
	opCtx, cancel := context.WithCancelCause(ctx)
	op := &Operation{
		key:    Key(agentID, taskID),
		ctx:    opCtx,
		cancel: cancel,
		reg:    r,
	}

	r.mu.Lock()
	r.ops[op.key] = op
	r.mu.Unlock()

	if r.onChange != nil {
		r.onChange(1)
	}
	return op
}

// Signal cancels the operation registered for (agentID, taskID) with cause
// [ErrTaskCanceled]. It reports whether an operation was found. Signaling an
// already signaled operation has no further effect.
func (r *OperationRegistry) Signal(agentID, taskID string) bool {
	r.mu.Lock()
	op, ok := r.ops[Key(agentID, taskID)]
	r.mu.Unlock()

	if !ok {
		return false
	}
	op.cancel(ErrTaskCanceled)
	return true
}

// MarkCancelPending records that a cancel for (agentID, taskID) is underway.
func (r *OperationRegistry) MarkCancelPending(agentID, taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.canceled[Key(agentID, taskID)] = struct{}{}
}

// ClearCancelPending removes the pending-cancel marker of (agentID, taskID).
func (r *OperationRegistry) ClearCancelPending(agentID, taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.canceled, Key(agentID, taskID))
}

// CancelPending reports whether a cancel for (agentID, taskID) is underway.
func (r *OperationRegistry) CancelPending(agentID, taskID string) bool {
	return r.pending(Key(agentID, taskID))
}

// Active returns the number of registered operations.
func (r *OperationRegistry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ops)
}

func (r *OperationRegistry) pending(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.canceled[key]
	return ok
}

func (r *OperationRegistry) remove(op *Operation) {
	r.mu.Lock()
	if r.ops[op.key] == op {
		delete(r.ops, op.key)
	}
	r.mu.Unlock()

	if r.onChange != nil {
		r.onChange(-1)
	}
}
