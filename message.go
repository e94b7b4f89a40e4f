// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role represents the role of a message sender in the A2A protocol.
type Role string

// Role constants for message senders.
const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// PartKind identifies the content carried by a [Part].
type PartKind string

// Part kinds.
const (
	PartKindText PartKind = "text"
	PartKindFile PartKind = "file"
	PartKindData PartKind = "data"
)

// FileContent is the payload of a file part. Exactly one of Bytes or URI is set.
type FileContent struct {
	Name     string `json:"name,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	Bytes    string `json:"bytes,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// Part is one content element of a message or artifact.
type Part struct {
	Kind     PartKind       `json:"kind"`
	Text     string         `json:"text,omitempty"`
	File     *FileContent   `json:"file,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewTextPart returns a text part.
func NewTextPart(text string) Part {
	return Part{Kind: PartKindText, Text: text}
}

// Message is one turn of the conversation held by a task.
type Message struct {
	Kind      string         `json:"kind"`
	Role      Role           `json:"role"`
	MessageID string         `json:"messageId"`
	Parts     []Part         `json:"parts"`
	TaskID    string         `json:"taskId,omitempty"`
	ContextID string         `json:"contextId,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewAgentTextMessage creates an agent message containing a single text part.
func NewAgentTextMessage(text, taskID, contextID string) Message {
	return Message{
		Kind:      KindMessage,
		Role:      RoleAgent,
		MessageID: uuid.NewString(),
		Parts:     []Part{NewTextPart(text)},
		TaskID:    taskID,
		ContextID: contextID,
	}
}

// NewUserTextMessage creates a user message containing a single text part.
func NewUserTextMessage(text string) Message {
	return Message{
		Kind:      KindMessage,
		Role:      RoleUser,
		MessageID: uuid.NewString(),
		Parts:     []Part{NewTextPart(text)},
	}
}

// Text joins the text of all text parts with newlines.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Kind != PartKindText {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// WithText returns a copy of m whose parts are replaced by a single text part.
func (m Message) WithText(text string) Message {
	out := m.Clone()
	out.Parts = []Part{NewTextPart(text)}
	return out
}

// ValidateTextOnly reports whether m carries at least one part and every part is text.
func (m Message) ValidateTextOnly() error {
	if len(m.Parts) == 0 {
		return errors.New("message must contain at least one part")
	}
	for i, p := range m.Parts {
		if p.Kind != PartKindText {
			return fmt.Errorf("message part at index %d has unsupported kind %q", i, p.Kind)
		}
	}
	return nil
}

// Clone returns a deep copy of m.
func (m Message) Clone() Message {
	out := m
	out.Parts = cloneParts(m.Parts)
	out.Metadata = cloneMap(m.Metadata)
	return out
}

func cloneParts(parts []Part) []Part {
	if parts == nil {
		return nil
	}
	out := make([]Part, len(parts))
	for i, p := range parts {
		out[i] = p
		if p.File != nil {
			f := *p.File
			out[i].File = &f
		}
		out[i].Data = cloneMap(p.Data)
		out[i].Metadata = cloneMap(p.Metadata)
	}
	return out
}
