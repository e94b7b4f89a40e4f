// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package task provides task persistence and the registry of in-flight task
// operations.
package task

import (
	"context"

	a2a "github.com/go-a2a/a2a-taskserver"
)

// KeySeparator joins the agent id and the task id of a store key.
const KeySeparator = a2a.KeySeparator

// Key returns the canonical store key for a task of an agent.
func Key(agentID, taskID string) string {
	return agentID + KeySeparator + taskID
}

// Store persists task records keyed by (agent id, task id).
//
// Implementations must be safe for concurrent use, and must never let a caller
// alias stored state: the task passed to Save and the task returned by Load are
// independent copies.
type Store interface {
	// Load returns the task stored under (agentID, taskID).
	// It returns an error matching ErrTaskNotFound when the key is absent.
	Load(ctx context.Context, agentID, taskID string) (*a2a.Task, error)

	// Save stores task under (agentID, taskID), replacing any previous record.
	Save(ctx context.Context, agentID, taskID string, task *a2a.Task) error
}
