// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

// HTTP paths served by the transport. {agentID} is a path parameter.
const (
	// AgentCardPath serves the public agent card of one agent.
	//
	// Example usage: https://agent.example.com/.well-known/support/agent-card.json
	AgentCardPath = "/.well-known/{agentID}/agent-card.json"

	// LegacyAgentCardPath is the pre-0.3 location of the agent card.
	LegacyAgentCardPath = "/.well-known/{agentID}/agent.json"

	// RPCPath accepts JSON-RPC requests for one agent.
	//
	// Example usage: https://agent.example.com/a2a/support
	RPCPath = "/a2a/{agentID}"

	// HealthPath answers liveness probes.
	HealthPath = "/healthz"
)

// UserIDHeader carries the caller's user id.
const UserIDHeader = "X-User-ID"

// KeySeparator joins the agent id and the task id of a store key. Agent ids
// must not contain it.
const KeySeparator = "::"

// RecordSeparator prefixes the JSON payload of every server-sent event.
// Consumers strip it when present.
const RecordSeparator = "\u001e"
