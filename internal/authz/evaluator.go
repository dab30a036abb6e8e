// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

package authz

import (
	"fmt"
	"reflect"
)

// Reason strings are part of the wire contract and must stay byte-stable.
const (
	ReasonImplicitDeny   = "Implicit Deny: No matching rule found."
	ReasonNoActivePolicy = "System Error: No active policy found."
)

// matchedReason renders the reason for a rule match at index i.
func matchedReason(i int, role, action string) string {
	return fmt.Sprintf("Matched Rule #%d (Role: %s, Action: %s).", i, role, action)
}

// Evaluate runs the deterministic first-match-wins algorithm over the rule
// list. It is a pure function: no I/O, no store access, and equal inputs
// always produce byte-equal reasons.
//
// A rule matches when its role is the wildcard or in the expanded role set,
// its action is the wildcard or equal to the requested action, and every
// resource_match entry equals the corresponding request attribute. An absent
// role or action field matches nothing. When no rule matches the result is
// an implicit deny.
func Evaluate(expandedRoles []string, action string, resource map[string]any, rules []Rule) (bool, string) {
	for i, rule := range rules {
		if rule.Role == nil || (*rule.Role != Wildcard && !containsString(expandedRoles, *rule.Role)) {
			continue
		}
		if rule.Action == nil || (*rule.Action != Wildcard && *rule.Action != action) {
			continue
		}
		if !attributesMatch(rule.ResourceMatch, resource) {
			continue
		}
		return rule.Effect == EffectAllow, matchedReason(i, *rule.Role, *rule.Action)
	}
	return false, ReasonImplicitDeny
}

// attributesMatch checks the ABAC conditions: every required attribute must
// be present in the resource with an equal value. An empty condition set
// matches unconditionally.
func attributesMatch(conditions map[string]any, resource map[string]any) bool {
	for key, want := range conditions {
		got, ok := resource[key]
		if !ok || !attrEqual(got, want) {
			return false
		}
	}
	return true
}

// attrEqual compares two JSON-decoded attribute values. Attributes are
// nominally scalars, but decoded JSON can surface non-comparable types, so
// DeepEqual keeps the comparison total instead of panicking.
func attrEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

func containsString(slice []string, value string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}
