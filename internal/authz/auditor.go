// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

package authz

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samber/oops"
)

// Auditor appends one durable record per non-dry-run decision and returns
// the new record's id as the caller-visible trace id.
type Auditor struct {
	store AuditStore
}

// NewAuditor creates an Auditor over the given store.
func NewAuditor(store AuditStore) *Auditor {
	return &Auditor{store: store}
}

// Record appends one audit row for the decision and returns its trace id.
// A store failure here must never alter the already-computed decision; the
// caller surfaces the error alongside the decision it holds.
func (a *Auditor) Record(ctx context.Context, req AuthRequest, decision bool, reason string) (int64, error) {
	entry := &AuditEntry{
		Subject:     renderAttrs(req.Subject),
		Action:      req.Action,
		Resource:    renderAttrs(req.Resource),
		Decision:    decision,
		Explanation: reason,
	}
	if err := a.store.Create(ctx, entry); err != nil {
		return 0, oops.Code("AUDIT_WRITE_FAILED").
			With("action", req.Action).
			With("decision", decision).
			Wrap(err)
	}
	return entry.ID, nil
}

// renderAttrs produces the stable textual form of an attribute map persisted
// in audit rows. JSON with lexicographically sorted keys keeps renderings
// diffable across runs.
func renderAttrs(attrs map[string]any) string {
	if attrs == nil {
		attrs = map[string]any{}
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Sprintf("%v", attrs)
	}
	return string(b)
}
