// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"hash/maphash"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	a2a "github.com/go-a2a/a2a-taskserver"
)

// CachedStore fronts another [Store] with a bounded LRU cache.
//
// Reads are served from the cache when possible and fall through to the
// backend otherwise. Writes go to the backend first and then refresh the
// cache, so the cache never holds a record the backend rejected.
//
// A cache fill and a write for the same key never interleave: both run
// under the key's stripe lock, so a slow backend read cannot overwrite a
// newer record in the cache.
type CachedStore struct {
	backend Store
	cache   *lru.Cache[string, *a2a.Task]
	seed    maphash.Seed
	stripes [cacheStripes]sync.Mutex
}

const cacheStripes = 64

var _ Store = (*CachedStore)(nil)

// NewCachedStore wraps backend with a cache holding up to size records.
func NewCachedStore(backend Store, size int) (*CachedStore, error) {
	cache, err := lru.New[string, *a2a.Task](size)
	if err != nil {
		return nil, fmt.Errorf("task: new cache: %w", err)
	}
	return &CachedStore{
		backend: backend,
		cache:   cache,
		seed:    maphash.MakeSeed(),
	}, nil
}

func (s *CachedStore) lock(key string) *sync.Mutex {
	mu := &s.stripes[maphash.String(s.seed, key)%cacheStripes]
	mu.Lock()
	return mu
}

// Load implements [Store].
func (s *CachedStore) Load(ctx context.Context, agentID, taskID string) (*a2a.Task, error) {
	key := Key(agentID, taskID)
	if task, ok := s.cache.Get(key); ok {
		return task.Clone(), nil
	}

	mu := s.lock(key)
	defer mu.Unlock()
	// filled by a writer while we waited
	if task, ok := s.cache.Get(key); ok {
		return task.Clone(), nil
	}
	task, err := s.backend.Load(ctx, agentID, taskID)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, task.Clone())
	return task, nil
}

// Save implements [Store].
func (s *CachedStore) Save(ctx context.Context, agentID, taskID string, task *a2a.Task) error {
	key := Key(agentID, taskID)
	mu := s.lock(key)
	defer mu.Unlock()
	if err := s.backend.Save(ctx, agentID, taskID, task); err != nil {
		s.cache.Remove(key)
		return err
	}
	s.cache.Add(key, task.Clone())
	return nil
}

// Purge drops every cached record.
func (s *CachedStore) Purge() {
	s.cache.Purge()
}

// Len returns the number of cached records.
func (s *CachedStore) Len() int {
	return s.cache.Len()
}
