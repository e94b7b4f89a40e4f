// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package echo provides a reference agent that answers with its input.
package echo

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-a2a/a2a-taskserver/agent"
)

// FinishReason reported when a reply was produced completely.
const FinishReason = "stop"

// Agent echoes the content it receives, optionally with a prefix. Streaming
// replies are split into chunks of ChunkSize runes emitted Delay apart.
type Agent struct {
	info      agent.Info
	prefix    string
	chunkSize int
	delay     time.Duration
}

var _ agent.Agent = (*Agent)(nil)

// Option configures an [Agent].
type Option func(*Agent)

// WithPrefix prepends prefix to every reply.
func WithPrefix(prefix string) Option {
	return func(a *Agent) {
		a.prefix = prefix
	}
}

// WithChunkSize sets the number of runes per streamed chunk.
func WithChunkSize(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.chunkSize = n
		}
	}
}

// WithDelay sets the pause before each streamed chunk.
func WithDelay(d time.Duration) Option {
	return func(a *Agent) {
		a.delay = d
	}
}

// WithDescription sets the description shown on the agent card.
func WithDescription(desc string) Option {
	return func(a *Agent) {
		a.info.Description = desc
	}
}

// New returns an echo agent addressed by id.
func New(id string, opts ...Option) *Agent {
	a := &Agent{
		info: agent.Info{
			ID:          id,
			Name:        id,
			Description: "Echoes every message back to the caller.",
			Version:     "1.0.0",
			Skills: []agent.Skill{{
				ID:          "echo",
				Name:        "Echo",
				Description: "Repeats the input text.",
				Tags:        []string{"echo", "test"},
				Examples:    []string{"hello"},
			}},
		},
		chunkSize: 8,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Info implements [agent.Agent].
func (a *Agent) Info() agent.Info {
	return a.info
}

// Generate implements [agent.Agent].
func (a *Agent) Generate(ctx context.Context, content string, opts agent.CallOptions) (*agent.GenerateResult, error) {
	if err := context.Cause(ctx); err != nil {
		return nil, err
	}
	reply := a.prefix + content
	return &agent.GenerateResult{
		Text:         reply,
		FinishReason: FinishReason,
		Usage:        usage(content, reply),
	}, nil
}

// Stream implements [agent.Agent].
func (a *Agent) Stream(ctx context.Context, content string, opts agent.CallOptions) (*agent.StreamResult, error) {
	if err := context.Cause(ctx); err != nil {
		return nil, err
	}

	reply := a.prefix + content
	var (
		mu      sync.Mutex
		emitted strings.Builder
		done    bool
	)

	chunks := func(yield func(string, error) bool) {
		for _, chunk := range split(reply, a.chunkSize) {
			if a.delay > 0 {
				timer := time.NewTimer(a.delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					yield("", context.Cause(ctx))
					return
				case <-timer.C:
				}
			} else if err := context.Cause(ctx); err != nil {
				yield("", err)
				return
			}

			mu.Lock()
			emitted.WriteString(chunk)
			mu.Unlock()
			if !yield(chunk, nil) {
				return
			}
		}
		mu.Lock()
		done = true
		mu.Unlock()
	}

	text := func(context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		return emitted.String(), nil
	}
	finish := func(context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if !done {
			return "", nil
		}
		return FinishReason, nil
	}
	use := func(context.Context) (*agent.Usage, error) {
		mu.Lock()
		defer mu.Unlock()
		return usage(content, emitted.String()), nil
	}

	return &agent.StreamResult{
		Chunks:       chunks,
		Text:         text,
		FinishReason: finish,
		Usage:        use,
	}, nil
}

// split cuts s into pieces of at most n runes.
func split(s string, n int) []string {
	var out []string
	for len(s) > 0 {
		i, count := 0, 0
		for i < len(s) && count < n {
			_, size := utf8.DecodeRuneInString(s[i:])
			i += size
			count++
		}
		out = append(out, s[:i])
		s = s[i:]
	}
	return out
}

// usage counts whitespace-separated words as tokens.
func usage(prompt, completion string) *agent.Usage {
	p := len(strings.Fields(prompt))
	c := len(strings.Fields(completion))
	return &agent.Usage{
		PromptTokens:     p,
		CompletionTokens: c,
		TotalTokens:      p + c,
	}
}
