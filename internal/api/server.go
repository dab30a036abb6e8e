// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

// Package api is the HTTP adapter: it marshals requests into core types and
// maps core errors onto status codes. No authorization logic lives here.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/permitd/permitd/internal/authz"
	"github.com/permitd/permitd/internal/config"
)

// Pinger is the slice of the connection pool the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server hosts the decision and management surfaces.
type Server struct {
	cfg        *config.Config
	engine     *gin.Engine
	httpServer *http.Server
	decisions  *authz.DecisionService
	registry   *authz.PolicyRegistry
	roles      *authz.RoleGraph
	cache      *authz.ActivePolicyCache
	db         Pinger
	version    string
}

// NewServer wires the HTTP routes over the decision pipeline.
func NewServer(cfg *config.Config, decisions *authz.DecisionService, registry *authz.PolicyRegistry,
	roles *authz.RoleGraph, cache *authz.ActivePolicyCache, db Pinger, version string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		cfg:       cfg,
		engine:    engine,
		decisions: decisions,
		registry:  registry,
		roles:     roles,
		cache:     cache,
		db:        db,
		version:   version,
	}

	engine.Use(gin.Recovery(), RequestID(), RequestLogger(), CORS(cfg.CORSOrigins))

	// Decision surface: unauthenticated.
	engine.POST("/access", s.handleAuthorize)
	engine.POST("/access/batch", s.handleAuthorizeBatch)

	// Health surface.
	engine.GET("/", s.handleRoot)
	engine.GET("/health", s.handleHealth)

	// Management surface: admin key required.
	admin := engine.Group("/", AdminAuth(cfg.AdminAPIKey, cfg.AdminAPIKeyHashed))
	admin.POST("/roles/", s.handleCreateRole)
	admin.POST("/policies/", s.handleCreatePolicy)
	admin.POST("/policies/:id/activate", s.handleActivatePolicy)
	admin.GET("/policies/", s.handleListPolicies)
	admin.GET("/policies/active", s.handleActivePolicy)
	admin.GET("/policies/:id", s.handleGetPolicy)

	return s
}

// Handler exposes the routing engine, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins serving the API. The returned channel receives any error from
// the HTTP server and is closed on graceful stop.
func (s *Server) Start() <-chan error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("api server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("api server started", "addr", s.cfg.ListenAddr)
	return errCh
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx) //nolint:wrapcheck // shutdown error is terminal
}
