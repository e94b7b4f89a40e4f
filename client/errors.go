// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"errors"
	"fmt"

	a2a "github.com/go-a2a/a2a-taskserver"
)

// HTTPError reports a response whose status is not 200 OK.
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("http status %d", e.StatusCode)
}

// IsRPCError checks if an error is an [*a2a.JSONRPCError] with the specified code.
func IsRPCError(err error, code int) bool {
	var rpcErr *a2a.JSONRPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == code
}

// IsTaskNotFoundError checks if an error is due to a task not being found.
func IsTaskNotFoundError(err error) bool {
	return IsRPCError(err, a2a.ErrorCodeTaskNotFound)
}

// IsTaskNotCancelableError checks if an error is due to a task not being cancelable.
func IsTaskNotCancelableError(err error) bool {
	return IsRPCError(err, a2a.ErrorCodeTaskNotCancelable)
}
