// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/permitd/permitd/internal/authz"
)

type createRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description *string  `json:"description"`
	ParentNames []string `json:"parent_names"`
}

type createPolicyRequest struct {
	Name    string          `json:"name" binding:"required"`
	Content json.RawMessage `json:"content" binding:"required"`
}

func (s *Server) handleCreateRole(c *gin.Context) {
	var req createRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	role, err := s.roles.Create(c.Request.Context(), req.Name, req.Description, req.ParentNames)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

func (s *Server) handleCreatePolicy(c *gin.Context) {
	var req createPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	policy, err := s.registry.Create(c.Request.Context(), req.Name, req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, policy)
}

func (s *Server) handleActivatePolicy(c *gin.Context) {
	id, ok := policyID(c)
	if !ok {
		return
	}

	policy, err := s.registry.Activate(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, policy)
}

func (s *Server) handleListPolicies(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	policies, err := s.registry.List(c.Request.Context(), skip, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, policies)
}

func (s *Server) handleActivePolicy(c *gin.Context) {
	policy, err := s.decisions.ActivePolicy(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, policy)
}

func (s *Server) handleGetPolicy(c *gin.Context) {
	id, ok := policyID(c)
	if !ok {
		return
	}

	policy, err := s.registry.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, policy)
}

func (s *Server) handleAuthorize(c *gin.Context) {
	var req authz.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	resp, err := s.decisions.Authorize(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleAuthorizeBatch(c *gin.Context) {
	var reqs []authz.AuthRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	resps, err := s.decisions.AuthorizeBatch(c.Request.Context(), reqs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resps)
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "Permissions Service is Operational",
		"version": s.version,
	})
}

// handleHealth reports database, cache, and active-policy status. A database
// failure degrades the service to 503; a missing active policy is only a
// warning, since the decision path answers it deterministically.
func (s *Server) handleHealth(c *gin.Context) {
	ctx := c.Request.Context()
	status := http.StatusOK
	overall := "healthy"
	checks := gin.H{}

	if err := s.db.Ping(ctx); err != nil {
		overall = "degraded"
		status = http.StatusServiceUnavailable
		checks["database"] = gin.H{"status": "unhealthy", "message": err.Error()}
	} else {
		checks["database"] = gin.H{"status": "healthy", "message": "database connection successful"}
	}

	checks["cache"] = gin.H{
		"status":            "healthy",
		"has_active_policy": s.cache.Get() != nil,
	}

	if policy, err := s.decisions.ActivePolicy(ctx); err == nil {
		checks["policy"] = gin.H{"status": "healthy", "policy_id": policy.ID}
	} else {
		checks["policy"] = gin.H{"status": "warning", "message": "no active policy configured"}
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "permitd",
		"version": s.version,
		"checks":  checks,
	})
}

// policyID parses the :id path parameter, rejecting non-integer ids with a
// 400 before any store access.
func policyID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "policy id must be an integer"})
		return 0, false
	}
	return id, true
}
