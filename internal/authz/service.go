// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

package authz

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DecisionService orchestrates one authorization decision: active-policy
// lookup (cache first), role expansion, evaluation, and conditional audit.
type DecisionService struct {
	cache    *ActivePolicyCache
	registry *PolicyRegistry
	roles    *RoleGraph
	auditor  *Auditor
	tracer   trace.Tracer
}

// NewDecisionService wires the decision pipeline.
func NewDecisionService(cache *ActivePolicyCache, registry *PolicyRegistry, roles *RoleGraph, auditor *Auditor) *DecisionService {
	return &DecisionService{
		cache:    cache,
		registry: registry,
		roles:    roles,
		auditor:  auditor,
		tracer:   otel.Tracer("permitd/authz"),
	}
}

// Authorize computes the decision for one request.
//
// With no active policy (or a store failure while the cache is cold) the
// result is a deny with the fixed system-error reason and no audit record.
// When the audit write fails the computed decision is still returned
// alongside the error; the decision value is never masked.
func (s *DecisionService) Authorize(ctx context.Context, req AuthRequest) (AuthResponse, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "authz.Authorize",
		trace.WithAttributes(attribute.String("authz.action", req.Action)))
	defer span.End()

	policy := s.activePolicy(ctx)
	if policy == nil {
		return AuthResponse{Decision: false, Reason: ReasonNoActivePolicy}, nil
	}

	role := req.Role()
	expanded := s.roles.Expand(ctx, role)

	decision, reason := Evaluate(expanded, req.Action, req.Resource, policy.Rules())
	span.SetAttributes(
		attribute.Bool("authz.decision", decision),
		attribute.String("authz.role", role),
	)

	resp := AuthResponse{Decision: decision, Reason: reason}
	if !req.DryRun {
		traceID, err := s.auditor.Record(ctx, req, decision, reason)
		if err != nil {
			auditFailures.Inc()
			recordDecision(time.Since(start), decision)
			return resp, err
		}
		resp.TraceID = &traceID
	}

	slog.InfoContext(ctx, "authorization decision",
		"role", role, "action", req.Action,
		"decision", decision, "reason", reason, "dry_run", req.DryRun)
	recordDecision(time.Since(start), decision)
	return resp, nil
}

// AuthorizeBatch evaluates the requests in declared order. Each request is
// independently audited unless it is a dry run; the first audit or storage
// failure aborts the batch. An empty input yields an empty output.
func (s *DecisionService) AuthorizeBatch(ctx context.Context, reqs []AuthRequest) ([]AuthResponse, error) {
	responses := make([]AuthResponse, 0, len(reqs))
	for _, req := range reqs {
		resp, err := s.Authorize(ctx, req)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// ActivePolicy returns the active policy, consulting the cache before the
// store, or a NO_ACTIVE_POLICY error when none is active. Used by the
// management surface so reads share the decision path's cache.
func (s *DecisionService) ActivePolicy(ctx context.Context) (*Policy, error) {
	if policy := s.activePolicy(ctx); policy != nil {
		return policy, nil
	}
	return s.registry.Active(ctx)
}

// activePolicy resolves the active policy via cache, falling back to the
// store on a miss and installing the result without overwriting a slot that
// a concurrent activation already filled. Returns nil when no policy is
// active or the store lookup fails.
func (s *DecisionService) activePolicy(ctx context.Context) *Policy {
	if policy := s.cache.Get(); policy != nil {
		cacheLookups.WithLabelValues("hit").Inc()
		return policy
	}
	cacheLookups.WithLabelValues("miss").Inc()

	policy, err := s.registry.Active(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.ErrorContext(ctx, "active policy lookup failed", "error", err)
		}
		return nil
	}
	return s.cache.Install(policy)
}
