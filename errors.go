// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"

	"github.com/go-json-experiment/json/jsontext"
)

// Standard JSON-RPC 2.0 error codes.
const (
	ErrorCodeJSONParse      = -32700
	ErrorCodeInvalidRequest = -32600
	ErrorCodeMethodNotFound = -32601
	ErrorCodeInvalidParams  = -32602
	ErrorCodeInternalError  = -32603
)

// A2A specific error codes.
const (
	ErrorCodeTaskNotFound                 = -32001
	ErrorCodeTaskNotCancelable            = -32002
	ErrorCodePushNotificationNotSupported = -32003
	ErrorCodeUnsupportedOperation         = -32004
)

// A2AError represents an error in the A2A protocol.
type A2AError interface {
	error
	// Code returns the JSON-RPC error code.
	Code() int
	// Message returns the short, fixed description sent as error.message.
	Message() string
}

// errorDataCarrier is implemented by errors that contribute error.data fields.
type errorDataCarrier interface {
	errorData() map[string]any
}

func newErrorData(taskID, details string) map[string]any {
	data := make(map[string]any, 2)
	if taskID != "" {
		data["taskId"] = taskID
	}
	if details != "" {
		data["details"] = details
	}
	if len(data) == 0 {
		return nil
	}
	return data
}

// JSONParseError reports a body that is not valid JSON.
type JSONParseError struct {
	Msg string
}

var _ A2AError = (*JSONParseError)(nil)

// Error implements the error interface.
func (e *JSONParseError) Error() string {
	return fmt.Sprintf("JSON parse error: %s", e.Msg)
}

// Code implements [A2AError].
func (e *JSONParseError) Code() int {
	return ErrorCodeJSONParse
}

// Message implements [A2AError].
func (e *JSONParseError) Message() string {
	return "Parse error"
}

func (e *JSONParseError) errorData() map[string]any {
	return newErrorData("", e.Msg)
}

// InvalidRequestError reports a malformed envelope or an unknown or filtered-out agent.
type InvalidRequestError struct {
	Msg string
}

var _ A2AError = (*InvalidRequestError)(nil)

// Error implements the error interface.
func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Msg)
}

// Code implements [A2AError].
func (e *InvalidRequestError) Code() int {
	return ErrorCodeInvalidRequest
}

// Message implements [A2AError].
func (e *InvalidRequestError) Message() string {
	return "Invalid Request"
}

func (e *InvalidRequestError) errorData() map[string]any {
	return newErrorData("", e.Msg)
}

// MethodNotFoundError reports an unknown JSON-RPC method.
type MethodNotFoundError struct {
	Method string
}

var _ A2AError = (*MethodNotFoundError)(nil)

// Error implements the error interface.
func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("method not found: %s", e.Method)
}

// Code implements [A2AError].
func (e *MethodNotFoundError) Code() int {
	return ErrorCodeMethodNotFound
}

// Message implements [A2AError].
func (e *MethodNotFoundError) Message() string {
	return "Method not found"
}

func (e *MethodNotFoundError) errorData() map[string]any {
	return newErrorData("", fmt.Sprintf("unknown method %q", e.Method))
}

// InvalidParamsError reports missing or malformed method parameters.
type InvalidParamsError struct {
	Msg    string
	TaskID string
}

var _ A2AError = (*InvalidParamsError)(nil)

// Error implements the error interface.
func (e *InvalidParamsError) Error() string {
	return fmt.Sprintf("invalid params: %s", e.Msg)
}

// Code implements [A2AError].
func (e *InvalidParamsError) Code() int {
	return ErrorCodeInvalidParams
}

// Message implements [A2AError].
func (e *InvalidParamsError) Message() string {
	return "Invalid params"
}

func (e *InvalidParamsError) errorData() map[string]any {
	return newErrorData(e.TaskID, e.Msg)
}

// InternalError reports an unexpected failure in the engine or in the agent.
type InternalError struct {
	Msg    string
	TaskID string
	Err    error
}

var _ A2AError = (*InternalError)(nil)

// NewInternalError wraps err as an [InternalError] for taskID.
func NewInternalError(taskID string, err error) *InternalError {
	return &InternalError{Msg: err.Error(), TaskID: taskID, Err: err}
}

// Error implements the error interface.
func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %s", e.Msg)
}

// Code implements [A2AError].
func (e *InternalError) Code() int {
	return ErrorCodeInternalError
}

// Message implements [A2AError].
func (e *InternalError) Message() string {
	return "Internal error"
}

// Unwrap returns the underlying error.
func (e *InternalError) Unwrap() error {
	return e.Err
}

func (e *InternalError) errorData() map[string]any {
	return newErrorData(e.TaskID, e.Msg)
}

// TaskNotFoundError represents an error when a task is not found.
type TaskNotFoundError struct {
	TaskID string
}

var _ A2AError = (*TaskNotFoundError)(nil)

// Error implements the error interface.
func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.TaskID)
}

// Code implements [A2AError].
func (e *TaskNotFoundError) Code() int {
	return ErrorCodeTaskNotFound
}

// Message implements [A2AError].
func (e *TaskNotFoundError) Message() string {
	return "Task not found"
}

func (e *TaskNotFoundError) errorData() map[string]any {
	return newErrorData(e.TaskID, "")
}

// TaskNotCancelableError represents an error when a task is already in a final state.
type TaskNotCancelableError struct {
	TaskID string
	State  TaskState
}

var _ A2AError = (*TaskNotCancelableError)(nil)

// Error implements the error interface.
func (e *TaskNotCancelableError) Error() string {
	return fmt.Sprintf("task %s cannot be canceled: already %s", e.TaskID, e.State)
}

// Code implements [A2AError].
func (e *TaskNotCancelableError) Code() int {
	return ErrorCodeTaskNotCancelable
}

// Message implements [A2AError].
func (e *TaskNotCancelableError) Message() string {
	return "Task cannot be canceled"
}

func (e *TaskNotCancelableError) errorData() map[string]any {
	return newErrorData(e.TaskID, fmt.Sprintf("task is in terminal state %q", e.State))
}

// PushNotificationNotSupportedError is returned for push notification configuration methods.
type PushNotificationNotSupportedError struct{}

var _ A2AError = (*PushNotificationNotSupportedError)(nil)

// Error implements the error interface.
func (e *PushNotificationNotSupportedError) Error() string {
	return "push notifications are not supported"
}

// Code implements [A2AError].
func (e *PushNotificationNotSupportedError) Code() int {
	return ErrorCodePushNotificationNotSupported
}

// Message implements [A2AError].
func (e *PushNotificationNotSupportedError) Message() string {
	return "Push Notification is not supported"
}

// UnsupportedOperationError is returned for protocol operations this server does not offer.
type UnsupportedOperationError struct {
	Operation string
}

var _ A2AError = (*UnsupportedOperationError)(nil)

// Error implements the error interface.
func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation: %s", e.Operation)
}

// Code implements [A2AError].
func (e *UnsupportedOperationError) Code() int {
	return ErrorCodeUnsupportedOperation
}

// Message implements [A2AError].
func (e *UnsupportedOperationError) Message() string {
	return "This operation is not supported"
}

func (e *UnsupportedOperationError) errorData() map[string]any {
	return newErrorData("", e.Operation)
}

// NormalizeError maps any error onto the protocol taxonomy. It is the single
// point where failures become JSON-RPC error objects.
//
// A [*JSONRPCError] passes through unchanged, [A2AError] values keep their code,
// JSON syntax errors become parse errors, and everything else is an internal error.
func NormalizeError(err error) *JSONRPCError {
	if err == nil {
		return nil
	}

	var rpcErr *JSONRPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	var a2aErr A2AError
	if errors.As(err, &a2aErr) {
		out := &JSONRPCError{
			Code:    a2aErr.Code(),
			Message: a2aErr.Message(),
		}
		if dc, ok := a2aErr.(errorDataCarrier); ok {
			out.Data = dc.errorData()
		}
		return out
	}

	var synErr *jsontext.SyntacticError
	if errors.As(err, &synErr) {
		return NormalizeError(&JSONParseError{Msg: synErr.Error()})
	}

	return &JSONRPCError{
		Code:    ErrorCodeInternalError,
		Message: "Internal error",
		Data:    newErrorData("", err.Error()),
	}
}
