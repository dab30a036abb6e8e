// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

package errutil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permitd/permitd/pkg/errutil"
)

func TestCode_WithCodedError(t *testing.T) {
	err := oops.Code("POLICY_NOT_FOUND").Errorf("no such policy")

	assert.Equal(t, "POLICY_NOT_FOUND", errutil.Code(err))
}

func TestCode_WithUncodedOopsError(t *testing.T) {
	err := oops.With("policy_id", 7).Errorf("no code attached")

	assert.Equal(t, "", errutil.Code(err))
}

func TestCode_WithStandardError(t *testing.T) {
	err := errors.New("standard error")

	assert.Equal(t, "", errutil.Code(err))
}

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("ROLE_NOT_FOUND").
		With("role", "editor").
		Errorf("role lookup failed")

	errutil.LogError(logger, "operation failed", err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Equal(t, "operation failed", logEntry["msg"])
	assert.Equal(t, "ROLE_NOT_FOUND", logEntry["code"])

	ctx, ok := logEntry["context"].(map[string]any)
	require.True(t, ok, "expected context attrs")
	assert.Equal(t, "editor", ctx["role"])
}

func TestLogError_WithUncodedOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Errorf("no code attached")

	errutil.LogError(logger, "operation failed", err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "operation failed", logEntry["msg"])
	assert.NotContains(t, logEntry, "code")
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := errors.New("standard error")

	errutil.LogError(logger, "operation failed", err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Contains(t, logEntry["error"], "standard error")
	assert.NotContains(t, logEntry, "code")
}
