// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

package store

import (
	"context"

	"github.com/samber/oops"

	"github.com/permitd/permitd/internal/authz"
)

// AuditRepository implements authz.AuditStore using PostgreSQL. Rows are
// append-only; nothing in the service updates or deletes them.
type AuditRepository struct {
	pool poolIface
}

// NewAuditRepository creates an AuditRepository backed by the given pool.
func NewAuditRepository(pool poolIface) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Compile-time interface check.
var _ authz.AuditStore = (*AuditRepository)(nil)

// Create appends one decision record and fills in the assigned id and
// server-side timestamp.
func (r *AuditRepository) Create(ctx context.Context, entry *authz.AuditEntry) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO audit_logs (subject, action, resource, decision, explanation)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, timestamp
	`, entry.Subject, entry.Action, entry.Resource, entry.Decision, entry.Explanation).
		Scan(&entry.ID, &entry.Timestamp)
	if err != nil {
		return oops.Code("AUDIT_CREATE_FAILED").
			With("action", entry.Action).
			With("decision", entry.Decision).
			Wrap(err)
	}
	return nil
}

// Count returns the number of audit rows. Used by tests and health
// diagnostics.
func (r *AuditRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`).Scan(&n); err != nil {
		return 0, oops.With("operation", "count audit logs").Wrap(err)
	}
	return n, nil
}
