// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

package store

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/permitd/permitd/internal/authz"
)

// RoleRepository implements authz.RoleStore using PostgreSQL.
type RoleRepository struct {
	pool poolIface
}

// NewRoleRepository creates a RoleRepository backed by the given pool.
func NewRoleRepository(pool poolIface) *RoleRepository {
	return &RoleRepository{pool: pool}
}

// Compile-time interface check.
var _ authz.RoleStore = (*RoleRepository)(nil)

// Create inserts the role and its child-to-parent edges in one transaction.
// A duplicate name surfaces as ROLE_EXISTS.
func (r *RoleRepository) Create(ctx context.Context, name string, description *string, parentIDs []int64) (*authz.Role, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, oops.Code("ROLE_CREATE_FAILED").With("name", name).Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	role := &authz.Role{Name: name, Description: description, ParentNames: []string{}}
	err = tx.QueryRow(ctx, `
		INSERT INTO roles (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, name, description).Scan(&role.ID, &role.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, oops.Code("ROLE_EXISTS").
				With("name", name).
				Errorf("role %q already exists", name)
		}
		return nil, oops.Code("ROLE_CREATE_FAILED").With("name", name).Wrap(err)
	}

	for _, parentID := range parentIDs {
		_, err = tx.Exec(ctx, `
			INSERT INTO role_inheritance (parent_id, child_id)
			VALUES ($1, $2)
		`, parentID, role.ID)
		if err != nil {
			return nil, oops.Code("ROLE_CREATE_FAILED").
				With("name", name).
				With("operation", "insert inheritance edge").
				With("parent_id", parentID).
				Wrap(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, oops.Code("ROLE_CREATE_FAILED").With("name", name).With("operation", "commit").Wrap(err)
	}

	role.ParentNames, err = r.parentNames(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	return role, nil
}

// GetByName retrieves a role with its immediate parent names.
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*authz.Role, error) {
	var role authz.Role
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at
		FROM roles
		WHERE name = $1
	`, name).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ROLE_NOT_FOUND").With("name", name).Wrap(authz.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get role by name").With("name", name).Wrap(err)
	}

	role.ParentNames, err = r.parentNames(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// Ancestors returns the transitive ancestor closure of the role, excluding
// the role itself. Used only for cycle prevention at creation; runtime
// expansion stays single-hop.
func (r *RoleRepository) Ancestors(ctx context.Context, id int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		WITH RECURSIVE ancestors AS (
			SELECT parent_id FROM role_inheritance WHERE child_id = $1
			UNION
			SELECT ri.parent_id
			FROM role_inheritance ri
			JOIN ancestors a ON ri.child_id = a.parent_id
		)
		SELECT r.name
		FROM ancestors a
		JOIN roles r ON r.id = a.parent_id
	`, id)
	if err != nil {
		return nil, oops.With("operation", "query role ancestors").With("id", id).Wrap(err)
	}
	return scanNames(rows, "role ancestor")
}

// parentNames returns the names of the role's immediate parents, ordered for
// deterministic expansion.
func (r *RoleRepository) parentNames(ctx context.Context, id int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.name
		FROM role_inheritance ri
		JOIN roles p ON p.id = ri.parent_id
		WHERE ri.child_id = $1
		ORDER BY p.name
	`, id)
	if err != nil {
		return nil, oops.With("operation", "query role parents").With("id", id).Wrap(err)
	}
	return scanNames(rows, "role parent")
}

// scanNames collects a single text column into a slice.
func scanNames(rows pgx.Rows, what string) ([]string, error) {
	defer rows.Close()
	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, oops.With("operation", "scan "+what+" row").Wrap(err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate "+what+" rows").Wrap(err)
	}
	return names, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
