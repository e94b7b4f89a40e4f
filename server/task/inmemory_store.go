// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"sync"

	a2a "github.com/go-a2a/a2a-taskserver"
)

// InMemoryStore is an in-memory implementation of [Store].
// Task data is lost when the process stops.
type InMemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*a2a.Task
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tasks: make(map[string]*a2a.Task),
	}
}

// Load implements [Store].
func (s *InMemoryStore) Load(ctx context.Context, agentID, taskID string) (*a2a.Task, error) {
	key := Key(agentID, taskID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[key]
	if !ok {
		return nil, notFound(key)
	}
	return task.Clone(), nil
}

// Save implements [Store].
func (s *InMemoryStore) Save(ctx context.Context, agentID, taskID string, task *a2a.Task) error {
	key := Key(agentID, taskID)
	if task == nil {
		return NewStoreError("save", key, errors.New("nil task"))
	}

	clone := task.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[key] = clone
	return nil
}

// Len returns the number of stored tasks.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
