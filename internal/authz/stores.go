// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

package authz

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is the sentinel wrapped by store implementations when a lookup
// by id or name misses.
var ErrNotFound = errors.New("not found")

// RoleStore persists roles and their inheritance edges.
type RoleStore interface {
	// Create inserts the role and its child-to-parent edges in one
	// transaction. Duplicate names surface as a ROLE_EXISTS error.
	Create(ctx context.Context, name string, description *string, parentIDs []int64) (*Role, error)

	// GetByName returns the role with its immediate parent names, or a
	// ROLE_NOT_FOUND error wrapping ErrNotFound.
	GetByName(ctx context.Context, name string) (*Role, error)

	// Ancestors returns the transitive ancestor closure of the role,
	// excluding the role itself.
	Ancestors(ctx context.Context, id int64) ([]string, error)
}

// PolicyStore persists versioned policies. Activation is a single
// serializable transaction.
type PolicyStore interface {
	// Create inserts a new inactive version, auto-numbered max(version)+1
	// within the name (1 for the first insert).
	Create(ctx context.Context, name string, content json.RawMessage) (*Policy, error)

	// Activate deactivates every active policy and activates the target in
	// one serializable transaction. A missing id aborts the transaction
	// with a POLICY_NOT_FOUND error and no state change.
	Activate(ctx context.Context, id int64) (*Policy, error)

	// Active returns the single active policy, or nil when none is active.
	Active(ctx context.Context) (*Policy, error)

	// GetByID returns one policy version by id.
	GetByID(ctx context.Context, id int64) (*Policy, error)

	// List returns policy versions ordered by version descending.
	List(ctx context.Context, skip, limit int) ([]*Policy, error)
}

// AuditStore appends decision records.
type AuditStore interface {
	// Create appends the entry and fills in its assigned id and timestamp.
	Create(ctx context.Context, entry *AuditEntry) error
}
