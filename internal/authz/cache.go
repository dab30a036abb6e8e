// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

package authz

import "sync"

// ActivePolicyCache is a process-wide single-slot holder for the active
// policy. One slot suffices because at most one policy is ever active.
//
// Two writers touch the slot: policy activation (authoritative, always wins)
// and the decision path's lazy load on a cold slot. Install only fills an
// empty slot so a lazy load racing a concurrent activation can never
// downgrade the slot to an older policy.
type ActivePolicyCache struct {
	mu     sync.RWMutex
	policy *Policy
}

// NewActivePolicyCache returns an empty cache slot.
func NewActivePolicyCache() *ActivePolicyCache {
	return &ActivePolicyCache{}
}

// Get returns the cached policy, or nil when the slot is empty.
func (c *ActivePolicyCache) Get() *Policy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.policy
}

// Replace unconditionally installs the policy. Called by activation after
// its transaction commits, so the slot equals the newly active policy before
// the activation call returns.
func (c *ActivePolicyCache) Replace(p *Policy) {
	c.mu.Lock()
	c.policy = p
	c.mu.Unlock()
}

// Install fills the slot only when it is empty and returns the resident
// policy. A concurrent Replace between the caller's miss and this call keeps
// the newer value.
func (c *ActivePolicyCache) Install(p *Policy) *Policy {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.policy == nil {
		c.policy = p
	}
	return c.policy
}

// Clear empties the slot.
func (c *ActivePolicyCache) Clear() {
	c.mu.Lock()
	c.policy = nil
	c.mu.Unlock()
}
