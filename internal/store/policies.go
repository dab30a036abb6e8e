// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/permitd/permitd/internal/authz"
)

// policyColumns is the shared column list for SELECT queries.
const policyColumns = `id, name, version, content, is_active, created_at`

// PolicyRepository implements authz.PolicyStore using PostgreSQL.
type PolicyRepository struct {
	pool poolIface
}

// NewPolicyRepository creates a PolicyRepository backed by the given pool.
func NewPolicyRepository(pool poolIface) *PolicyRepository {
	return &PolicyRepository{pool: pool}
}

// Compile-time interface check.
var _ authz.PolicyStore = (*PolicyRepository)(nil)

// Create inserts a new inactive policy version numbered max(version)+1
// within the name. The insert and the version computation are one statement,
// and UNIQUE (name, version) backstops concurrent creates of the same name.
func (r *PolicyRepository) Create(ctx context.Context, name string, content json.RawMessage) (*authz.Policy, error) {
	policy := &authz.Policy{Name: name, Content: content}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO policies (name, version, content, is_active)
		SELECT $1, COALESCE(MAX(version), 0) + 1, $2, false
		FROM policies
		WHERE name = $1
		RETURNING id, version, created_at
	`, name, []byte(content)).Scan(&policy.ID, &policy.Version, &policy.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, oops.Code("POLICY_VERSION_CONFLICT").
				With("name", name).
				Errorf("concurrent version assignment for policy %q, retry the create", name)
		}
		return nil, oops.Code("POLICY_CREATE_FAILED").With("name", name).Wrap(err)
	}
	return policy, nil
}

// Activate flips every active policy inactive and the target active in one
// serializable transaction. A missing id aborts with POLICY_NOT_FOUND and no
// state change.
func (r *PolicyRepository) Activate(ctx context.Context, id int64) (*authz.Policy, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, oops.Code("POLICY_ACTIVATE_FAILED").With("id", id).Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM policies WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return nil, oops.Code("POLICY_ACTIVATE_FAILED").With("id", id).Wrap(err)
	}
	if !exists {
		return nil, oops.Code("POLICY_NOT_FOUND").With("id", id).Wrap(authz.ErrNotFound)
	}

	// Deactivate first so the partial unique index never sees two actives.
	_, err = tx.Exec(ctx, `UPDATE policies SET is_active = false WHERE is_active`)
	if err != nil {
		return nil, oops.Code("POLICY_ACTIVATE_FAILED").With("id", id).With("operation", "deactivate").Wrap(err)
	}

	row := tx.QueryRow(ctx, `
		UPDATE policies SET is_active = true WHERE id = $1
		RETURNING `+policyColumns, id)
	policy, err := scanPolicy(row)
	if err != nil {
		return nil, oops.Code("POLICY_ACTIVATE_FAILED").With("id", id).With("operation", "activate").Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, oops.Code("POLICY_ACTIVATE_FAILED").With("id", id).With("operation", "commit").Wrap(err)
	}
	return policy, nil
}

// Active returns the single active policy, or nil when none is active.
func (r *PolicyRepository) Active(ctx context.Context) (*authz.Policy, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE is_active`)
	policy, err := scanPolicy(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.With("operation", "get active policy").Wrap(err)
	}
	return policy, nil
}

// GetByID retrieves one policy version by id.
func (r *PolicyRepository) GetByID(ctx context.Context, id int64) (*authz.Policy, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE id = $1`, id)
	policy, err := scanPolicy(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("POLICY_NOT_FOUND").With("id", id).Wrap(authz.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get policy by id").With("id", id).Wrap(err)
	}
	return policy, nil
}

// List returns policy versions ordered by version descending.
func (r *PolicyRepository) List(ctx context.Context, skip, limit int) ([]*authz.Policy, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+policyColumns+` FROM policies ORDER BY version DESC OFFSET $1 LIMIT $2`,
		skip, limit)
	if err != nil {
		return nil, oops.With("operation", "list policies").Wrap(err)
	}
	return scanPolicies(rows)
}

// scanPolicy scans a row into a Policy.
func scanPolicy(row pgx.Row) (*authz.Policy, error) {
	var p authz.Policy
	var content []byte
	err := row.Scan(&p.ID, &p.Name, &p.Version, &content, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context-specific info
		}
		return nil, oops.With("operation", "scan policy row").Wrap(err)
	}
	p.Content = json.RawMessage(content)
	return &p, nil
}

// scanPolicies scans multiple rows into a slice of Policy.
func scanPolicies(rows pgx.Rows) ([]*authz.Policy, error) {
	defer rows.Close()
	policies := []*authz.Policy{}
	for rows.Next() {
		var p authz.Policy
		var content []byte
		if err := rows.Scan(&p.ID, &p.Name, &p.Version, &content, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, oops.With("operation", "scan policy row").Wrap(err)
		}
		p.Content = json.RawMessage(content)
		policies = append(policies, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate policy rows").Wrap(err)
	}
	return policies, nil
}
