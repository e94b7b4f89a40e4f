// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the current state of a task together with the message that
// accompanied the last transition.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// Task is one logical unit of agent work and its accumulated conversation.
//
// ID and ContextID never change once the task exists, and History always holds
// at least the message that created it.
type Task struct {
	ID        string         `json:"id"`
	ContextID string         `json:"contextId"`
	Kind      string         `json:"kind"`
	Status    TaskStatus     `json:"status"`
	History   []Message      `json:"history"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Clone returns a deep copy of t. A nil task clones to nil.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	out := *t
	if t.Status.Message != nil {
		m := t.Status.Message.Clone()
		out.Status.Message = &m
	}
	if t.History != nil {
		out.History = make([]Message, len(t.History))
		for i, m := range t.History {
			out.History[i] = m.Clone()
		}
	}
	if t.Artifacts != nil {
		out.Artifacts = make([]Artifact, len(t.Artifacts))
		for i, a := range t.Artifacts {
			out.Artifacts[i] = a.Clone()
		}
	}
	out.Metadata = cloneMap(t.Metadata)
	return &out
}

// LastMessage returns the last history entry, if any.
func (t *Task) LastMessage() (Message, bool) {
	if t == nil || len(t.History) == 0 {
		return Message{}, false
	}
	return t.History[len(t.History)-1], true
}

// NewTask creates a task record seeded with message.
//
// The task id and context id are taken from the message when present and
// generated otherwise; the seeded history entry is stamped with both. The new
// task starts in [TaskStateSubmitted].
func NewTask(message Message, metadata map[string]any) *Task {
	taskID := message.TaskID
	if taskID == "" {
		taskID = uuid.NewString()
	}
	contextID := message.ContextID
	if contextID == "" {
		contextID = uuid.NewString()
	}

	seed := message.Clone()
	seed.TaskID = taskID
	seed.ContextID = contextID
	if seed.Kind == "" {
		seed.Kind = KindMessage
	}

	return &Task{
		ID:        taskID,
		ContextID: contextID,
		Kind:      KindTask,
		Status: TaskStatus{
			State:     TaskStateSubmitted,
			Timestamp: time.Now().UTC(),
		},
		History:  []Message{seed},
		Metadata: cloneMap(metadata),
	}
}

// AppendMessage returns a copy of t with message pushed onto its history.
func AppendMessage(t *Task, message Message) *Task {
	out := t.Clone()
	out.History = append(out.History, message.Clone())
	return out
}

// UpdateLastMessage returns a copy of t whose last history entry is replaced by
// message. It is used while one streaming reply grows, so that partial chunks do
// not multiply history entries. With an empty history it appends.
func UpdateLastMessage(t *Task, message Message) *Task {
	out := t.Clone()
	if len(out.History) == 0 {
		out.History = append(out.History, message.Clone())
		return out
	}
	out.History[len(out.History)-1] = message.Clone()
	return out
}

// StatusUpdate describes a transition requested through [TransitionStatus].
type StatusUpdate struct {
	State   TaskState
	Message *Message
}

// TransitionStatus returns a copy of t moved to update.State with update.Message
// attached. The status message is replaced, not merged: a nil message clears it.
//
// No legality check happens here. Refusing to leave a terminal state is the
// caller's job, except for cancellation, see [EnsureCancelable].
func TransitionStatus(t *Task, update StatusUpdate) *Task {
	out := t.Clone()
	now := time.Now().UTC()
	if now.Before(out.Status.Timestamp) {
		now = out.Status.Timestamp
	}
	var msg *Message
	if update.Message != nil {
		m := update.Message.Clone()
		msg = &m
	}
	out.Status = TaskStatus{
		State:     update.State,
		Message:   msg,
		Timestamp: now,
	}
	return out
}

// EnsureCancelable fails with [TaskNotCancelableError] when t is already in a
// terminal state.
func EnsureCancelable(t *Task) error {
	if t.Status.State.Terminal() {
		return &TaskNotCancelableError{TaskID: t.ID, State: t.Status.State}
	}
	return nil
}

// WithMetadata returns a copy of t whose metadata is shallow-merged with md.
func WithMetadata(t *Task, md map[string]any) *Task {
	out := t.Clone()
	out.Metadata = MergeMetadata(out.Metadata, md)
	return out
}

// TrimHistory returns a copy of t keeping only the last n history entries.
// n <= 0 keeps everything.
func TrimHistory(t *Task, n int) *Task {
	out := t.Clone()
	if n > 0 && len(out.History) > n {
		out.History = out.History[len(out.History)-n:]
	}
	return out
}
