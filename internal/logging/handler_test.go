// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestSetup_JSONFormat(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	var buf bytes.Buffer
	logger := Setup("permitd", "0.1.0", "json", &buf)

	logger.Info("policy activated", "policy_id", 7)

	var entry map[string]any
	err := json.Unmarshal(buf.Bytes(), &entry)
	require.NoError(t, err, "Failed to parse JSON: %s", buf.String())

	assert.Equal(t, "policy activated", entry["msg"])
	assert.Equal(t, "permitd", entry["service"])
	assert.Equal(t, "0.1.0", entry["version"])
	assert.Equal(t, float64(7), entry["policy_id"])
	assert.Contains(t, entry, "time", "time field missing")
	assert.Contains(t, entry, "level", "level field missing")
}

func TestSetup_TextFormat(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	var buf bytes.Buffer
	logger := Setup("permitd", "0.1.0", "text", &buf)

	logger.Info("decision recorded")

	output := buf.String()
	assert.Contains(t, output, "decision recorded", "Output missing message")
	assert.Contains(t, output, "permitd", "Output missing service")
}

func TestSetup_DefaultFormat(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	var buf bytes.Buffer
	logger := Setup("permitd", "0.1.0", "", &buf)

	logger.Info("unspecified format")

	var entry map[string]any
	err := json.Unmarshal(buf.Bytes(), &entry)
	require.NoError(t, err, "Default format should be JSON")
	assert.Equal(t, "unspecified format", entry["msg"])
}

func TestSetup_InstallsDefault(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	var buf bytes.Buffer
	logger := Setup("permitd", "0.1.0", "json", &buf)

	assert.Equal(t, logger, slog.Default())
}

func TestHandler_TraceContext(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	var buf bytes.Buffer
	logger := Setup("permitd", "0.1.0", "json", &buf)

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	logger.InfoContext(ctx, "traced decision")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
}

func TestHandler_NoTraceContext(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	var buf bytes.Buffer
	logger := Setup("permitd", "0.1.0", "json", &buf)

	logger.Info("untraced decision")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "trace_id")
	assert.NotContains(t, entry, "span_id")
}

func TestHandler_WithAttrsKeepsIdentity(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	var buf bytes.Buffer
	logger := Setup("permitd", "0.1.0", "json", &buf)

	logger.With("component", "registry").Info("policy stored")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "registry", entry["component"])
	assert.Equal(t, "permitd", entry["service"])
	assert.Equal(t, "0.1.0", entry["version"])
}

func TestHandler_WithGroup(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	var buf bytes.Buffer
	logger := Setup("permitd", "0.1.0", "json", &buf)

	logger.WithGroup("request").Info("authorized", "subject", "u1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	request, ok := entry["request"].(map[string]any)
	require.True(t, ok, "expected request group")
	assert.Equal(t, "u1", request["subject"])
}
