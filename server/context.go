// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"maps"
	"sync"
)

// CallContext describes the caller of one RPC: who it is and any transport
// state worth handing to agents. It is safe for concurrent use.
type CallContext struct {
	userID string
	state  map[string]any
	mu     sync.RWMutex
}

// NewCallContext creates a CallContext for userID with empty state.
// userID may be empty for anonymous callers.
func NewCallContext(userID string) *CallContext {
	return &CallContext{
		userID: userID,
		state:  make(map[string]any),
	}
}

// NewCallContextWithState creates a CallContext for userID with a copy of state.
func NewCallContextWithState(userID string, state map[string]any) *CallContext {
	cc := NewCallContext(userID)
	maps.Copy(cc.state, state)
	return cc
}

// UserID returns the caller's user id.
func (cc *CallContext) UserID() string {
	if cc == nil {
		return ""
	}
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return cc.userID
}

// State returns a copy of the current state map. A nil CallContext has no state.
func (cc *CallContext) State() map[string]any {
	if cc == nil {
		return nil
	}
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	out := make(map[string]any, len(cc.state))
	maps.Copy(out, cc.state)
	return out
}

// SetState sets a value in the context state.
func (cc *CallContext) SetState(key string, value any) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.state[key] = value
}

// GetState retrieves a value from the context state.
func (cc *CallContext) GetState(key string) (any, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	value, ok := cc.state[key]
	return value, ok
}

// DeleteState removes a key from the context state.
func (cc *CallContext) DeleteState(key string) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	delete(cc.state, key)
}

// String returns a string representation of the CallContext for debugging.
func (cc *CallContext) String() string {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return fmt.Sprintf("CallContext{user: %q, state_keys: %d}", cc.userID, len(cc.state))
}
