// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	a2a "github.com/go-a2a/a2a-taskserver"
)

// ValidateID reports whether id can address an agent. Ids must be non-empty
// and must not contain [a2a.KeySeparator], which would make store keys of
// different agents collide.
func ValidateID(id string) error {
	if id == "" {
		return errors.New("empty agent id")
	}
	if strings.Contains(id, a2a.KeySeparator) {
		return fmt.Errorf("agent id %q contains %q", id, a2a.KeySeparator)
	}
	return nil
}

// Registry holds agents registered at runtime, keyed by [Info.ID].
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
}

// NewRegistry creates a registry seeded with agents.
// It panics if an agent id fails [ValidateID].
func NewRegistry(agents ...Agent) *Registry {
	r := &Registry{agents: make(map[string]Agent, len(agents))}
	for _, a := range agents {
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a, replacing any agent with the same id.
func (r *Registry) Register(a Agent) error {
	id := a.Info().ID
	if err := ValidateID(id); err != nil {
		return fmt.Errorf("agent: register: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[id] = a
	return nil
}

// Unregister removes the agent with id. It reports whether it was present.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.agents[id]
	delete(r.agents, id)
	return ok
}

// Get returns the agent registered under id.
func (r *Registry) Get(id string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[id]
	return a, ok
}

// List returns all registered agents ordered by id.
func (r *Registry) List() []Agent {
	r.mu.RLock()
	out := make([]Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Agent) int {
		return cmp.Compare(a.Info().ID, b.Info().ID)
	})
	return out
}

// Merge combines fixed agents with the registry's agents. Agents in fixed win
// over registry agents with the same id, and the order of fixed is kept.
func Merge(fixed []Agent, registry *Registry) []Agent {
	out := make([]Agent, 0, len(fixed))
	seen := make(map[string]struct{}, len(fixed))
	for _, a := range fixed {
		id := a.Info().ID
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, a)
	}
	if registry == nil {
		return out
	}
	for _, a := range registry.List() {
		if _, dup := seen[a.Info().ID]; dup {
			continue
		}
		out = append(out, a)
	}
	return out
}
