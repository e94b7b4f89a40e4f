// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/go-json-experiment/json"

	a2a "github.com/go-a2a/a2a-taskserver"
)

// JSONColumn stores a value of type T as a JSON document in a database column.
type JSONColumn[T any] struct {
	V T
}

// Value implements the driver.Valuer interface for database storage.
func (c JSONColumn[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(c.V)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database retrieval.
func (c *JSONColumn[T]) Scan(value any) error {
	var zero T
	if value == nil {
		c.V = zero
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into %T", value, c)
	}

	v := zero
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("cannot unmarshal %T: %w", c, err)
	}
	c.V = v
	return nil
}

// TaskModel is the database row of one task record. Rows are keyed by the
// composite primary key (agent_id, id).
type TaskModel struct {
	AgentID   string                     `gorm:"primaryKey;size:128"`
	ID        string                     `gorm:"primaryKey;size:128"`
	ContextID string                     `gorm:"size:128;not null;index"`
	Kind      string                     `gorm:"size:16;default:task;not null"`
	State     string                     `gorm:"size:32;not null;index"`
	Status    JSONColumn[a2a.TaskStatus] `gorm:"type:json"`
	History   JSONColumn[[]a2a.Message]  `gorm:"type:json"`
	Artifacts JSONColumn[[]a2a.Artifact] `gorm:"type:json"`
	Metadata  JSONColumn[map[string]any] `gorm:"type:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// newTaskModel converts a task into its row.
func newTaskModel(agentID, taskID string, t *a2a.Task) *TaskModel {
	return &TaskModel{
		AgentID:   agentID,
		ID:        taskID,
		ContextID: t.ContextID,
		Kind:      t.Kind,
		State:     string(t.Status.State),
		Status:    JSONColumn[a2a.TaskStatus]{V: t.Status},
		History:   JSONColumn[[]a2a.Message]{V: t.History},
		Artifacts: JSONColumn[[]a2a.Artifact]{V: t.Artifacts},
		Metadata:  JSONColumn[map[string]any]{V: t.Metadata},
	}
}

// toTask converts the row back into a task. Empty collections decode as nil
// so that a saved task loads back unchanged.
func (m *TaskModel) toTask() *a2a.Task {
	t := &a2a.Task{
		ID:        m.ID,
		ContextID: m.ContextID,
		Kind:      m.Kind,
		Status:    m.Status.V,
		History:   m.History.V,
		Artifacts: m.Artifacts.V,
		Metadata:  m.Metadata.V,
	}
	if len(t.Artifacts) == 0 {
		t.Artifacts = nil
	}
	if len(t.Metadata) == 0 {
		t.Metadata = nil
	}
	return t
}
