// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package pool provides generic type pooling, and provides [*bytes.Buffer] pooling objects.
package pool

import (
	"bytes"
	"sync"
)

// maxBufferSize bounds the buffers returned to [Bytes]; larger ones are dropped.
const maxBufferSize = 1 << 20

// Pool is a generics wrapper around [sync.Pool] to provide strongly-typed object pooling.
type Pool[T any] struct {
	p      sync.Pool
	accept func(T) bool
}

// Reseter is implemented by pooled values that can be cleared for reuse.
type Reseter interface {
	Reset()
}

// New returns a new [Pool] for T, and will use fn to construct new T's when the pool is empty.
func New[T any](fn func() T) *Pool[T] {
	return &Pool[T]{
		p: sync.Pool{
			New: func() any {
				return fn()
			},
		},
	}
}

// Get gets a T from the pool, or creates a new one if the pool is empty.
func (p *Pool[T]) Get() T {
	return p.p.Get().(T)
}

// Put returns x into the pool. Values implementing [Reseter] are reset first.
func (p *Pool[T]) Put(x T) {
	if p.accept != nil && !p.accept(x) {
		return
	}
	if xx, ok := any(x).(Reseter); ok {
		xx.Reset()
	}
	p.p.Put(x)
}

// Bytes provides the [*bytes.Buffer] pooling objects used to encode responses
// and events.
var Bytes = &Pool[*bytes.Buffer]{
	p: sync.Pool{
		New: func() any {
			return new(bytes.Buffer)
		},
	},
	accept: func(b *bytes.Buffer) bool {
		return b.Cap() <= maxBufferSize
	},
}
