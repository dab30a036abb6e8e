// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

package authz

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// RoleGraph is a read-through view over the stored role-inheritance graph.
// It enforces acyclicity on insert and answers single-hop ancestor
// expansion for the decision path.
type RoleGraph struct {
	store RoleStore
}

// NewRoleGraph creates a RoleGraph over the given store.
func NewRoleGraph(store RoleStore) *RoleGraph {
	return &RoleGraph{store: store}
}

// Create validates and persists a new role with its parent edges.
//
// Rejections, in order: a role naming itself as a parent (ROLE_CYCLE), a
// declared parent that does not exist (ROLE_PARENT_NOT_FOUND), and a parent
// whose ancestor closure already contains the new name (ROLE_CYCLE). Parents
// must pre-exist, so the graph cannot become cyclic through a new role; the
// closure check guards the invariant anyway should edges ever become
// mutable.
func (g *RoleGraph) Create(ctx context.Context, name string, description *string, parentNames []string) (*Role, error) {
	for _, parent := range parentNames {
		if parent == name {
			return nil, oops.Code("ROLE_CYCLE").
				With("name", name).
				Errorf("a role cannot inherit from itself")
		}
	}

	parentIDs := make([]int64, 0, len(parentNames))
	for _, parentName := range parentNames {
		parent, err := g.store.GetByName(ctx, parentName)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, oops.Code("ROLE_PARENT_NOT_FOUND").
					With("name", name).
					With("parent", parentName).
					Errorf("parent role %q not found", parentName)
			}
			return nil, oops.With("operation", "look up parent role").With("parent", parentName).Wrap(err)
		}

		ancestors, err := g.store.Ancestors(ctx, parent.ID)
		if err != nil {
			return nil, oops.With("operation", "resolve parent ancestors").With("parent", parentName).Wrap(err)
		}
		if containsString(ancestors, name) {
			return nil, oops.Code("ROLE_CYCLE").
				With("name", name).
				With("parent", parentName).
				Errorf("role %q is already an ancestor of parent %q", name, parentName)
		}

		parentIDs = append(parentIDs, parent.ID)
	}

	return g.store.Create(ctx, name, description, parentIDs)
}

// Expand returns the role name together with its immediate parent names.
//
// Expansion is deliberately one hop, not the transitive closure: widening it
// would change allow/deny outcomes for existing policies. An unknown role
// expands to just itself, so policies can reference role names that have no
// Role row and still match via wildcard or exact string.
func (g *RoleGraph) Expand(ctx context.Context, name string) []string {
	role, err := g.store.GetByName(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.WarnContext(ctx, "role expansion degraded to bare role",
				"role", name, "error", err)
		}
		return []string{name}
	}

	expanded := make([]string, 0, 1+len(role.ParentNames))
	expanded = append(expanded, role.Name)
	for _, parent := range role.ParentNames {
		if !containsString(expanded, parent) {
			expanded = append(expanded, parent)
		}
	}
	return expanded
}
