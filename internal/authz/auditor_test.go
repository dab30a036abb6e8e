// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permitd/permitd/pkg/errutil"
)

// fakeAuditStore implements AuditStore with a function field.
type fakeAuditStore struct {
	createFn func(ctx context.Context, entry *AuditEntry) error
}

func (f *fakeAuditStore) Create(ctx context.Context, entry *AuditEntry) error {
	return f.createFn(ctx, entry)
}

var _ AuditStore = (*fakeAuditStore)(nil)

func TestAuditorRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("writes one entry and returns its id", func(t *testing.T) {
		var stored *AuditEntry
		store := &fakeAuditStore{
			createFn: func(_ context.Context, entry *AuditEntry) error {
				entry.ID = 42
				entry.Timestamp = time.Now()
				stored = entry
				return nil
			},
		}
		auditor := NewAuditor(store)

		req := AuthRequest{
			Subject:  map[string]any{"role": "editor", "id": "u1"},
			Action:   "document:edit",
			Resource: map[string]any{"owner": "alice"},
		}
		traceID, err := auditor.Record(ctx, req, true, "Matched Rule #0 (Role: editor, Action: document:edit).")
		require.NoError(t, err)
		assert.Equal(t, int64(42), traceID)

		require.NotNil(t, stored)
		assert.Equal(t, "document:edit", stored.Action)
		assert.True(t, stored.Decision)
		assert.Equal(t, `{"id":"u1","role":"editor"}`, stored.Subject)
		assert.Equal(t, `{"owner":"alice"}`, stored.Resource)
	})

	t.Run("storage failure surfaces as AUDIT_WRITE_FAILED", func(t *testing.T) {
		store := &fakeAuditStore{
			createFn: func(_ context.Context, _ *AuditEntry) error {
				return errors.New("connection refused")
			},
		}
		auditor := NewAuditor(store)

		traceID, err := auditor.Record(ctx, AuthRequest{Action: "x"}, false, ReasonImplicitDeny)
		errutil.AssertErrorCode(t, err, "AUDIT_WRITE_FAILED")
		assert.Zero(t, traceID)
	})
}

func TestRenderAttrs(t *testing.T) {
	tests := []struct {
		name  string
		attrs map[string]any
		want  string
	}{
		{"nil map renders as empty object", nil, `{}`},
		{"empty map renders as empty object", map[string]any{}, `{}`},
		{"keys sort lexicographically", map[string]any{"b": 2, "a": 1, "c": 3}, `{"a":1,"b":2,"c":3}`},
		{"nested values survive", map[string]any{"tags": []string{"x", "y"}}, `{"tags":["x","y"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderAttrs(tt.attrs))
		})
	}
}

func TestRenderAttrsStable(t *testing.T) {
	attrs := map[string]any{"role": "editor", "id": "u1", "dept": "eng"}
	first := renderAttrs(attrs)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, renderAttrs(attrs))
	}
}
