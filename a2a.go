// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package a2a provides the protocol types of the Agent-to-Agent (A2A) task server:
// task records and their state machine, messages, artifacts, agent cards,
// JSON-RPC 2.0 envelopes and the protocol error taxonomy.
//
// Task records are treated as values. Every function that advances a [Task]
// returns a fresh deep copy and leaves its input untouched, so a snapshot handed
// to one caller can never be observed half-updated by another.
package a2a

// ProtocolVersion is the A2A protocol version implemented by this module.
const ProtocolVersion = "0.2.5"

// TaskState represents the state of a Task.
type TaskState string

const (
	// TaskStateSubmitted indicates the task has been created but no work has started.
	TaskStateSubmitted TaskState = "submitted"

	// TaskStateWorking indicates the agent is producing output.
	TaskStateWorking TaskState = "working"

	// TaskStateInputRequired indicates the agent waits for further user input.
	TaskStateInputRequired TaskState = "input-required"

	// TaskStateCompleted indicates the task has been completed.
	TaskStateCompleted TaskState = "completed"

	// TaskStateFailed indicates the task has failed.
	TaskStateFailed TaskState = "failed"

	// TaskStateCanceled indicates the task has been canceled.
	TaskStateCanceled TaskState = "canceled"

	// TaskStateRejected indicates the agent refused the task.
	TaskStateRejected TaskState = "rejected"

	// TaskStateAuthRequired indicates the agent needs the caller to authenticate.
	TaskStateAuthRequired TaskState = "auth-required"

	// TaskStateUnknown is used when the state cannot be determined.
	TaskStateUnknown TaskState = "unknown"
)

// Terminal reports whether s is a final state. A task in a final state is
// immutable history: new work on the same id starts a fresh record.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateCanceled, TaskStateRejected:
		return true
	default:
		return false
	}
}

// String implements [fmt.Stringer].
func (s TaskState) String() string { return string(s) }

// Kind discriminators carried on the wire.
const (
	KindTask    = "task"
	KindMessage = "message"
)
