// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"errors"
	"fmt"
)

// ErrTaskNotFound is returned by [Store.Load] when no record exists for a key.
var ErrTaskNotFound = errors.New("task not found")

// StoreError represents an error from a task store backend.
type StoreError struct {
	Op  string
	Key string
	Err error
}

// Error returns the error message.
func (e *StoreError) Error() string {
	return fmt.Sprintf("task store %s %s: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, key string, err error) *StoreError {
	return &StoreError{
		Op:  op,
		Key: key,
		Err: err,
	}
}

func notFound(key string) error {
	return NewStoreError("load", key, ErrTaskNotFound)
}
