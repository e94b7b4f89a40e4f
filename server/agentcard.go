// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"strings"

	a2a "github.com/go-a2a/a2a-taskserver"
	"github.com/go-a2a/a2a-taskserver/agent"
)

// CardOptions carries the deployment details that are not part of an agent's
// own description.
type CardOptions struct {
	// BaseURL is the externally visible URL of the server, without a trailing slash.
	BaseURL  string
	Provider *a2a.AgentProvider
}

var textModes = []string{"text/plain"}

// BuildAgentCard derives the public card of a from its [agent.Info].
func BuildAgentCard(a agent.Agent, opts CardOptions) *a2a.AgentCard {
	info := a.Info()

	skills := make([]a2a.AgentSkill, 0, len(info.Skills))
	for _, s := range info.Skills {
		tags := s.Tags
		if tags == nil {
			tags = []string{}
		}
		skills = append(skills, a2a.AgentSkill{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Tags:        tags,
			Examples:    s.Examples,
		})
	}

	version := info.Version
	if version == "" {
		version = "1.0.0"
	}
	name := info.Name
	if name == "" {
		name = info.ID
	}

	return &a2a.AgentCard{
		Name:            name,
		Description:     info.Description,
		URL:             strings.TrimSuffix(opts.BaseURL, "/") + "/a2a/" + info.ID,
		Version:         version,
		ProtocolVersion: a2a.ProtocolVersion,
		Provider:        opts.Provider,
		Capabilities: a2a.AgentCapabilities{
			Streaming:              true,
			PushNotifications:      false,
			StateTransitionHistory: true,
		},
		DefaultInputModes:  textModes,
		DefaultOutputModes: textModes,
		Skills:             skills,
	}
}
