// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import "github.com/google/uuid"

// Artifact is a named output produced while working on a task.
type Artifact struct {
	ArtifactID  string         `json:"artifactId"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Parts       []Part         `json:"parts"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NewTextArtifact returns an artifact holding a single text part.
func NewTextArtifact(name, text string) Artifact {
	return Artifact{
		ArtifactID: uuid.NewString(),
		Name:       name,
		Parts:      []Part{NewTextPart(text)},
	}
}

// Clone returns a deep copy of a.
func (a Artifact) Clone() Artifact {
	out := a
	out.Parts = cloneParts(a.Parts)
	out.Metadata = cloneMap(a.Metadata)
	return out
}

// UpsertOptions controls [UpsertArtifact].
type UpsertOptions struct {
	// Append concatenates parts onto an existing artifact of the same name
	// and shallow-merges its metadata instead of replacing it.
	Append bool
}

// UpsertArtifact returns a copy of t with artifact inserted or updated.
//
// Artifacts are matched by name. An unknown name is inserted as a copy. A known
// name is replaced wholesale, or, with opts.Append, extended with the new parts
// and metadata.
func UpsertArtifact(t *Task, artifact Artifact, opts UpsertOptions) *Task {
	out := t.Clone()
	idx := -1
	for i, a := range out.Artifacts {
		if a.Name == artifact.Name {
			idx = i
			break
		}
	}

	switch {
	case idx < 0:
		out.Artifacts = append(out.Artifacts, artifact.Clone())
	case opts.Append:
		existing := out.Artifacts[idx]
		existing.Parts = append(existing.Parts, cloneParts(artifact.Parts)...)
		existing.Metadata = MergeMetadata(existing.Metadata, artifact.Metadata)
		out.Artifacts[idx] = existing
	default:
		out.Artifacts[idx] = artifact.Clone()
	}
	return out
}
