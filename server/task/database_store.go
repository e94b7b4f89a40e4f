// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	a2a "github.com/go-a2a/a2a-taskserver"
)

// DefaultTableName is the table used by [DatabaseStore] when none is configured.
const DefaultTableName = "tasks"

// DatabaseStore is a database implementation of [Store] using GORM.
type DatabaseStore struct {
	db        *gorm.DB
	tableName string
}

var _ Store = (*DatabaseStore)(nil)

// DatabaseStoreConfig holds configuration for DatabaseStore.
type DatabaseStoreConfig struct {
	DB          *gorm.DB
	TableName   string // Optional, defaults to "tasks"
	CreateTable bool   // Whether to migrate the table on construction
}

// NewDatabaseStore creates a new DatabaseStore.
func NewDatabaseStore(ctx context.Context, config DatabaseStoreConfig) (*DatabaseStore, error) {
	if config.DB == nil {
		return nil, errors.New("database connection cannot be nil")
	}

	tableName := config.TableName
	if tableName == "" {
		tableName = DefaultTableName
	}

	s := &DatabaseStore{
		db:        config.DB,
		tableName: tableName,
	}
	if config.CreateTable {
		if err := s.table(ctx).AutoMigrate(&TaskModel{}); err != nil {
			return nil, NewStoreError("initialize", tableName, err)
		}
	}
	return s, nil
}

func (s *DatabaseStore) table(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.tableName)
}

// Load implements [Store].
func (s *DatabaseStore) Load(ctx context.Context, agentID, taskID string) (*a2a.Task, error) {
	key := Key(agentID, taskID)

	var model TaskModel
	err := s.table(ctx).
		Where("agent_id = ? AND id = ?", agentID, taskID).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(key)
		}
		return nil, NewStoreError("load", key, err)
	}
	return model.toTask(), nil
}

// Save implements [Store]. An existing row for the key is overwritten.
func (s *DatabaseStore) Save(ctx context.Context, agentID, taskID string, task *a2a.Task) error {
	key := Key(agentID, taskID)
	if task == nil {
		return NewStoreError("save", key, errors.New("nil task"))
	}

	model := newTaskModel(agentID, taskID, task)
	err := s.table(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
	if err != nil {
		return NewStoreError("save", key, fmt.Errorf("upsert: %w", err))
	}
	return nil
}

// ListByContext returns the tasks of agentID that belong to contextID,
// oldest first.
func (s *DatabaseStore) ListByContext(ctx context.Context, agentID, contextID string) ([]*a2a.Task, error) {
	var models []TaskModel
	err := s.table(ctx).
		Where("agent_id = ? AND context_id = ?", agentID, contextID).
		Order("created_at").
		Find(&models).Error
	if err != nil {
		return nil, NewStoreError("list", Key(agentID, contextID), err)
	}

	tasks := make([]*a2a.Task, len(models))
	for i := range models {
		tasks[i] = models[i].toTask()
	}
	return tasks, nil
}
