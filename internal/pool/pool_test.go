// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"bytes"
	"testing"
)

type counter struct {
	n      int
	resets int
}

func (c *counter) Reset() {
	c.n = 0
	c.resets++
}

func TestPoolResetsOnPut(t *testing.T) {
	p := New(func() *counter { return new(counter) })

	c := p.Get()
	c.n = 42
	p.Put(c)

	if c.n != 0 || c.resets != 1 {
		t.Errorf("after Put: n = %d, resets = %d, want 0 and 1", c.n, c.resets)
	}
}

func TestBytesDropsLargeBuffers(t *testing.T) {
	big := bytes.NewBuffer(make([]byte, 0, maxBufferSize+1))
	big.WriteString("payload")
	Bytes.Put(big)

	if big.Len() != len("payload") {
		t.Error("oversized buffer was reset and pooled")
	}

	small := Bytes.Get()
	small.WriteString("x")
	Bytes.Put(small)
	if small.Len() != 0 {
		t.Errorf("small buffer not reset: len = %d", small.Len())
	}
}
