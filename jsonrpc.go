// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"

	"github.com/go-json-experiment/json/jsontext"
)

// JSONRPCVersion is the only protocol version accepted in envelopes.
const JSONRPCVersion = "2.0"

// A2A RPC method names.
const (
	// MethodMessageSend runs one agent turn and returns the resulting task.
	MethodMessageSend = "message/send"
	// MethodMessageStream runs one agent turn and streams task snapshots.
	MethodMessageStream = "message/stream"
	// MethodTasksGet returns a stored task.
	MethodTasksGet = "tasks/get"
	// MethodTasksCancel cancels an in-flight task.
	MethodTasksCancel = "tasks/cancel"
	// MethodTasksPushNotificationConfigSet is reserved; push notifications are not supported.
	MethodTasksPushNotificationConfigSet = "tasks/pushNotificationConfig/set"
	// MethodTasksPushNotificationConfigGet is reserved; push notifications are not supported.
	MethodTasksPushNotificationConfigGet = "tasks/pushNotificationConfig/get"
	// MethodTasksResubscribe is reserved; resubscription is not supported.
	MethodTasksResubscribe = "tasks/resubscribe"
)

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	// JSONRPC version, always "2.0".
	JSONRPC string `json:"jsonrpc"`
	// ID is a string, a number or null.
	ID any `json:"id"`
	// Method identifies the operation to perform.
	Method string `json:"method"`
	// Params contains parameters for the method.
	Params jsontext.Value `json:"params,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error object. It implements error so
// that clients can return it directly.
type JSONRPCError struct {
	// Code is the error code.
	Code int `json:"code"`
	// Message is a short description of the error.
	Message string `json:"message"`
	// Data carries taskId and details when applicable.
	Data map[string]any `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *JSONRPCError) Error() string {
	if details, ok := e.Data["details"].(string); ok && details != "" {
		return fmt.Sprintf("jsonrpc error %d: %s: %s", e.Code, e.Message, details)
	}
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// TaskID returns the taskId carried in the error data, if any.
func (e *JSONRPCError) TaskID() string {
	id, _ := e.Data["taskId"].(string)
	return id
}

// JSONRPCResponse represents a JSON-RPC 2.0 response. Result and Error are
// mutually exclusive.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      any           `json:"id"`
	Result  *Task         `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// NewSuccessResponse wraps task in a success envelope for request id.
func NewSuccessResponse(id any, task *Task) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  task,
	}
}

// NewErrorResponse wraps err, normalized through [NormalizeError], in an error
// envelope for request id.
func NewErrorResponse(id any, err error) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   NormalizeError(err),
	}
}

// MessageSendParams are the parameters of message/send and message/stream.
type MessageSendParams struct {
	// ID is the task id to continue. It wins over Message.TaskID.
	ID string `json:"id,omitempty"`
	// SessionID is a legacy alias for the context id.
	SessionID string         `json:"sessionId,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Message   *Message       `json:"message"`
}

// Validate checks that a message with text-only parts is present.
func (p *MessageSendParams) Validate() error {
	if p == nil || p.Message == nil {
		return &InvalidParamsError{Msg: "message is required"}
	}
	if err := p.Message.ValidateTextOnly(); err != nil {
		return &InvalidParamsError{Msg: err.Error(), TaskID: p.ID}
	}
	return nil
}

// TaskQueryParams are the parameters of tasks/get.
type TaskQueryParams struct {
	ID string `json:"id"`
	// HistoryLength, when positive, limits the returned history to the last N messages.
	HistoryLength int            `json:"historyLength,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Validate checks that the task id is present.
func (p *TaskQueryParams) Validate() error {
	if p == nil || p.ID == "" {
		return &InvalidParamsError{Msg: "task id is required"}
	}
	if p.HistoryLength < 0 {
		return &InvalidParamsError{Msg: "historyLength must not be negative", TaskID: p.ID}
	}
	return nil
}

// TaskIDParams are the parameters of tasks/cancel.
type TaskIDParams struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Validate checks that the task id is present.
func (p *TaskIDParams) Validate() error {
	if p == nil || p.ID == "" {
		return &InvalidParamsError{Msg: "task id is required"}
	}
	return nil
}
