// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 permitd Contributors

package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/permitd/permitd/pkg/errutil"
)

// statusForCode maps core error codes onto HTTP status codes. Unknown codes
// are treated as storage-level failures.
func statusForCode(code string) int {
	switch code {
	case "ROLE_CYCLE", "ROLE_EXISTS", "CONFIG_INVALID":
		return http.StatusBadRequest
	case "ROLE_PARENT_NOT_FOUND", "ROLE_NOT_FOUND", "POLICY_NOT_FOUND", "NO_ACTIVE_POLICY":
		return http.StatusNotFound
	case "POLICY_VERSION_CONFLICT":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as a FastAPI-style {"detail": ...} body with the
// mapped status. Server-side failures get a generic detail and a full log
// line; client errors echo the core message.
func writeError(c *gin.Context, err error) {
	status := statusForCode(errutil.Code(err))
	if status == http.StatusInternalServerError {
		errutil.LogError(slog.Default(), "request failed", err)
		c.JSON(status, gin.H{"detail": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"detail": err.Error()})
}
