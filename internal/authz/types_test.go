// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

package authz

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyRules(t *testing.T) {
	t.Run("extracts ordered rules", func(t *testing.T) {
		p := &Policy{Content: json.RawMessage(`{
			"rules": [
				{"role": "admin", "action": "*", "effect": "allow"},
				{"role": "*", "action": "read", "effect": "allow", "resource_match": {"tier": "public"}}
			]
		}`)}

		rules := p.Rules()
		require.Len(t, rules, 2)
		require.NotNil(t, rules[0].Role)
		assert.Equal(t, "admin", *rules[0].Role)
		assert.Equal(t, "allow", rules[0].Effect)
		assert.Equal(t, map[string]any{"tier": "public"}, rules[1].ResourceMatch)
	})

	t.Run("nil policy yields no rules", func(t *testing.T) {
		var p *Policy
		assert.Nil(t, p.Rules())
	})

	t.Run("empty content yields no rules", func(t *testing.T) {
		p := &Policy{}
		assert.Nil(t, p.Rules())
	})

	t.Run("content that is not an object yields no rules", func(t *testing.T) {
		p := &Policy{Content: json.RawMessage(`[1, 2, 3]`)}
		assert.Nil(t, p.Rules())
	})

	t.Run("rules that is not a sequence yields no rules", func(t *testing.T) {
		p := &Policy{Content: json.RawMessage(`{"rules": "nope"}`)}
		assert.Nil(t, p.Rules())
	})

	t.Run("missing rules key yields no rules", func(t *testing.T) {
		p := &Policy{Content: json.RawMessage(`{"version": 3}`)}
		assert.Nil(t, p.Rules())
	})

	t.Run("malformed entry degrades to a non-matching rule", func(t *testing.T) {
		p := &Policy{Content: json.RawMessage(`{
			"rules": [
				"not an object",
				{"role": "admin", "action": "*", "effect": "allow"}
			]
		}`)}

		rules := p.Rules()
		require.Len(t, rules, 2)
		assert.Nil(t, rules[0].Role)
		assert.Nil(t, rules[0].Action)
		require.NotNil(t, rules[1].Role)
		assert.Equal(t, "admin", *rules[1].Role)
	})
}

func TestAuthRequestRole(t *testing.T) {
	tests := []struct {
		name    string
		subject map[string]any
		want    string
	}{
		{"declared role", map[string]any{"role": "editor"}, "editor"},
		{"missing role attribute", map[string]any{"id": "u1"}, DefaultRole},
		{"nil subject", nil, DefaultRole},
		{"empty role string", map[string]any{"role": ""}, DefaultRole},
		{"non-string role", map[string]any{"role": 42}, DefaultRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := AuthRequest{Subject: tt.subject}
			assert.Equal(t, tt.want, req.Role())
		})
	}
}
