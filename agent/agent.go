// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent defines the contract between the task server and the agents
// that produce work for it.
//
// An [Agent] offers a one-shot call and a chunked streaming call. Both receive a
// context that is canceled when the task is canceled; implementations must stop
// producing output promptly once it is done. Late results are tolerated and
// discarded by the server.
package agent

import (
	"context"
	"iter"
)

// Info is the static description of an agent. It feeds the agent card.
type Info struct {
	// ID addresses the agent in URLs and in the task store key.
	ID          string
	Name        string
	Description string
	Version     string
	Skills      []Skill
}

// Skill is one advertised capability of an agent.
type Skill struct {
	ID          string
	Name        string
	Description string
	Tags        []string
	Examples    []string
}

// CallOptions carries per-call information to the agent.
type CallOptions struct {
	// ConversationID groups calls of one conversation. It is the task's context id.
	ConversationID string
	// TaskID is the id of the task being worked on.
	TaskID string
	// UserID identifies the caller, if known.
	UserID string
	// ContextMap is request metadata, message metadata and caller state merged
	// in that order.
	ContextMap map[string]any
}

// Usage reports token accounting for one call.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// GenerateResult is the outcome of a one-shot call.
type GenerateResult struct {
	Text         string
	FinishReason string
	Usage        *Usage
}

// StreamResult is the outcome of a streaming call.
//
// Chunks is consumed exactly once. Text, FinishReason and Usage resolve after
// Chunks has been drained; FinishReason and Usage may be nil.
type StreamResult struct {
	Chunks       iter.Seq2[string, error]
	Text         func(ctx context.Context) (string, error)
	FinishReason func(ctx context.Context) (string, error)
	Usage        func(ctx context.Context) (*Usage, error)
}

// Agent produces work for tasks.
type Agent interface {
	// Info returns the agent's static description.
	Info() Info
	// Generate answers content in one call.
	Generate(ctx context.Context, content string, opts CallOptions) (*GenerateResult, error)
	// Stream answers content incrementally.
	Stream(ctx context.Context, content string, opts CallOptions) (*StreamResult, error)
}
