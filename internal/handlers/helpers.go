package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"campus-chat/internal/services"
	"campus-chat/internal/telemetry"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func userIDFromContext(c *gin.Context) *int64 {
	if id := currentUserID(c); id > 0 {
		return &id
	}
	return nil
}

// currentUserID is the authenticated user set by SessionAuth, or 0.
func currentUserID(c *gin.Context) int64 {
	val, ok := c.Get("userID")
	if !ok {
		return 0
	}
	switch userID := val.(type) {
	case int64:
		return userID
	case int:
		return int64(userID)
	}
	return 0
}

func parseIDParam(c *gin.Context, name, message string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return 0, false
	}
	return id, true
}

func statusForKind(kind services.Kind) int {
	switch kind {
	case services.KindAuthRequired:
		return http.StatusUnauthorized
	case services.KindForbidden, services.KindNotMember:
		return http.StatusForbidden
	case services.KindNotGroup, services.KindInvalidInput:
		return http.StatusBadRequest
	case services.KindConflict:
		return http.StatusConflict
	case services.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// auditor is embedded by every handler that reports to the audit exchange.
type auditor struct {
	audit *telemetry.Emitter
}

func (a auditor) emitAudit(c *gin.Context, level, text string) {
	if a.audit == nil {
		return
	}
	a.audit.Audit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

func (a auditor) emitEvent(c *gin.Context, routingKey string, payload any) {
	if a.audit == nil {
		return
	}
	a.audit.Event(c.Request.Context(), routingKey, payload, requestIDFromContext(c), userIDFromContext(c))
}

// writeError maps a service failure to its HTTP status. Untyped errors are
// logged and reported as a generic 500.
func (a auditor) writeError(c *gin.Context, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		log.Error().Err(err).Str("request_id", requestIDFromContext(c)).Str("path", c.FullPath()).Msg("request failed")
		a.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	status := statusForKind(svcErr.Kind)
	if status == http.StatusForbidden {
		a.emitAudit(c, "ERROR", "not allowed")
	}
	c.JSON(status, gin.H{"error": svcErr.Message})
}
