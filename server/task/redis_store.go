// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/redis/go-redis/v9"

	a2a "github.com/go-a2a/a2a-taskserver"
)

// DefaultRedisPrefix namespaces the keys written by [RedisStore].
const DefaultRedisPrefix = "a2a:task:"

// RedisStore is a Redis implementation of [Store]. Each task is one string
// key holding the JSON-encoded record.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// RedisStoreConfig holds configuration for RedisStore.
type RedisStoreConfig struct {
	Client redis.UniversalClient
	// Prefix is prepended to every key. Defaults to DefaultRedisPrefix.
	Prefix string
	// TTL expires records after the last save. Zero keeps them forever.
	TTL time.Duration
}

// NewRedisStore creates a new RedisStore.
func NewRedisStore(config RedisStoreConfig) (*RedisStore, error) {
	if config.Client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	prefix := config.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{
		client: config.Client,
		prefix: prefix,
		ttl:    config.TTL,
	}, nil
}

func (s *RedisStore) redisKey(agentID, taskID string) string {
	return s.prefix + Key(agentID, taskID)
}

// Load implements [Store].
func (s *RedisStore) Load(ctx context.Context, agentID, taskID string) (*a2a.Task, error) {
	key := s.redisKey(agentID, taskID)

	b, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound(key)
		}
		return nil, NewStoreError("load", key, err)
	}

	var task a2a.Task
	if err := json.Unmarshal(b, &task); err != nil {
		return nil, NewStoreError("load", key, err)
	}
	return &task, nil
}

// Save implements [Store].
func (s *RedisStore) Save(ctx context.Context, agentID, taskID string, task *a2a.Task) error {
	key := s.redisKey(agentID, taskID)
	if task == nil {
		return NewStoreError("save", key, errors.New("nil task"))
	}

	b, err := json.Marshal(task)
	if err != nil {
		return NewStoreError("save", key, err)
	}
	if err := s.client.Set(ctx, key, b, s.ttl).Err(); err != nil {
		return NewStoreError("save", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
