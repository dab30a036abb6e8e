// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

package authz

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/samber/oops"
)

// Default pagination for policy listings.
const (
	DefaultListLimit = 100
)

// PolicyRegistry manages policy versions: creation with auto-versioning,
// activation under the at-most-one-active invariant, and active-policy
// lookup. Activation keeps the ActivePolicyCache coherent.
type PolicyRegistry struct {
	store PolicyStore
	cache *ActivePolicyCache
}

// NewPolicyRegistry creates a PolicyRegistry over the given store and cache.
func NewPolicyRegistry(store PolicyStore, cache *ActivePolicyCache) *PolicyRegistry {
	return &PolicyRegistry{store: store, cache: cache}
}

// Create persists a new inactive policy version. The version number is
// max(version)+1 within the name, or 1 for the first insert. Rule structure
// is intentionally not validated here; malformed rules degrade to
// non-matching at evaluation time.
func (r *PolicyRegistry) Create(ctx context.Context, name string, content json.RawMessage) (*Policy, error) {
	policy, err := r.store.Create(ctx, name, content)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "policy version created",
		"policy", policy.Name, "version", policy.Version, "id", policy.ID)
	return policy, nil
}

// Activate flips the target policy active and every other policy inactive in
// one serializable transaction, then replaces the cache slot. The slot
// equals the newly active policy before this call returns.
func (r *PolicyRegistry) Activate(ctx context.Context, id int64) (*Policy, error) {
	policy, err := r.store.Activate(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Replace(policy)
	slog.InfoContext(ctx, "policy activated",
		"policy", policy.Name, "version", policy.Version, "id", policy.ID)
	return policy, nil
}

// Active returns the single active policy straight from the store, or a
// NO_ACTIVE_POLICY error wrapping ErrNotFound when none is active.
func (r *PolicyRegistry) Active(ctx context.Context) (*Policy, error) {
	policy, err := r.store.Active(ctx)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return nil, oops.Code("NO_ACTIVE_POLICY").Wrap(ErrNotFound)
	}
	return policy, nil
}

// Get returns one policy version by id.
func (r *PolicyRegistry) Get(ctx context.Context, id int64) (*Policy, error) {
	return r.store.GetByID(ctx, id)
}

// List returns policy versions ordered by version descending. A limit of
// zero or less falls back to the default page size.
func (r *PolicyRegistry) List(ctx context.Context, skip, limit int) ([]*Policy, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return r.store.List(ctx, skip, limit)
}
