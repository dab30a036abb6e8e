// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

// Package authz implements the authorization decision pipeline: role
// expansion, first-match-wins policy evaluation, the active-policy cache,
// and audit recording.
package authz

import (
	"encoding/json"
	"time"
)

// Wildcard matches any role or action when used in a rule.
const Wildcard = "*"

// EffectAllow is the rule effect that grants access. Any other effect denies.
const EffectAllow = "allow"

// DefaultRole is assumed when a request subject carries no "role" attribute.
const DefaultRole = "guest"

// Role is a named member of the role-inheritance graph. Edges are directed
// child to parent; the parent relation is acyclic.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	ParentNames []string  `json:"parent_names"`
	CreatedAt   time.Time `json:"-"`
}

// Policy is one stored version of a named rule list. Versions within a name
// are strictly increasing; at most one policy is active across the store.
type Policy struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Version   int             `json:"version"`
	Content   json.RawMessage `json:"content"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

// Rule is one entry in a policy's ordered rule list. Pointer fields
// distinguish an absent facet from an empty one: a rule with no role field
// matches nothing, not even the wildcard.
type Rule struct {
	Role          *string        `json:"role"`
	Action        *string        `json:"action"`
	Effect        string         `json:"effect"`
	ResourceMatch map[string]any `json:"resource_match"`
}

// Rules extracts the ordered rule list from the policy content. Content that
// is not a JSON object, a "rules" value that is not a sequence, and rule
// entries that are not objects all degrade to non-matching rather than
// failing the decision.
func (p *Policy) Rules() []Rule {
	if p == nil || len(p.Content) == 0 {
		return nil
	}
	var doc struct {
		Rules json.RawMessage `json:"rules"`
	}
	if err := json.Unmarshal(p.Content, &doc); err != nil || len(doc.Rules) == 0 {
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(doc.Rules, &raw); err != nil {
		return nil
	}
	rules := make([]Rule, len(raw))
	for i, r := range raw {
		// A malformed entry stays a zero Rule, which matches no request.
		_ = json.Unmarshal(r, &rules[i])
	}
	return rules
}

// AuthRequest describes one access check: who (subject attributes), what
// (action), and against which resource attributes.
type AuthRequest struct {
	Subject  map[string]any `json:"subject"`
	Action   string         `json:"action"`
	Resource map[string]any `json:"resource"`
	DryRun   bool           `json:"dry_run"`
}

// Role returns the subject's declared role, defaulting to "guest" when the
// attribute is missing, empty, or not a string.
func (r AuthRequest) Role() string {
	if v, ok := r.Subject["role"].(string); ok && v != "" {
		return v
	}
	return DefaultRole
}

// AuthResponse is the outcome of one access check. TraceID is set iff an
// audit record was written.
type AuthResponse struct {
	Decision bool   `json:"decision"`
	Reason   string `json:"reason"`
	TraceID  *int64 `json:"trace_id"`
}

// AuditEntry is one appended decision record. ID doubles as the trace id
// returned to the caller.
type AuditEntry struct {
	ID          int64     `json:"id"`
	Subject     string    `json:"subject"`
	Action      string    `json:"action"`
	Resource    string    `json:"resource"`
	Decision    bool      `json:"decision"`
	Explanation string    `json:"explanation"`
	Timestamp   time.Time `json:"timestamp"`
}
