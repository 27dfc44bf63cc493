// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "sort"

// ToolDefinition describes one tool the backend can run for the model.
type ToolDefinition struct {
	ID          string
	Name        string
	Description string
}

// DefaultTools lists the tools the backend supports, in menu order.
func DefaultTools() []ToolDefinition {
	return []ToolDefinition{
		{
			ID:          "google_search",
			Name:        "Google Search",
			Description: "Search the web for current information",
		},
		{
			ID:          "code_execution",
			Name:        "Code Execution",
			Description: "Run code in a sandbox and return the output",
		},
		{
			ID:          "url_context",
			Name:        "URL Context",
			Description: "Fetch a URL and use its content as context",
		},
	}
}

// ToolSet is an immutable set of enabled tool ids. The zero value is
// the empty set. With and Without return new sets; an existing value
// is never mutated, so a set can be shared freely across a session.
type ToolSet struct {
	ids map[string]struct{}
}

// NewToolSet builds a set from tool ids.
func NewToolSet(ids ...string) ToolSet {
	s := ToolSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// With returns a copy of the set with id enabled.
func (s ToolSet) With(id string) ToolSet {
	out := NewToolSet(s.IDs()...)
	out.ids[id] = struct{}{}
	return out
}

// Without returns a copy of the set with id disabled.
func (s ToolSet) Without(id string) ToolSet {
	out := NewToolSet()
	for existing := range s.ids {
		if existing != id {
			out.ids[existing] = struct{}{}
		}
	}
	return out
}

// Has reports whether id is enabled.
func (s ToolSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of enabled tools.
func (s ToolSet) Len() int {
	return len(s.ids)
}

// IDs returns the enabled tool ids in sorted order.
func (s ToolSet) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
