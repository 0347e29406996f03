package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-chat/internal/models"
	"campus-chat/internal/observability"
	"campus-chat/internal/services"
	"campus-chat/internal/telemetry"
)

// InviteHandler serves the connection invite endpoints.
type InviteHandler struct {
	auditor
	invites InviteService
}

// NewInviteHandler builds an InviteHandler.
func NewInviteHandler(invites InviteService, audit *telemetry.Emitter) *InviteHandler {
	return &InviteHandler{auditor: auditor{audit: audit}, invites: invites}
}

// SendInvite handles POST /invites.
func (h *InviteHandler) SendInvite(c *gin.Context) {
	var req struct {
		ToUser models.FlexID `json:"to_user"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user"})
		return
	}

	userID := currentUserID(c)
	result, err := h.invites.SendInvite(c.Request.Context(), userID, int64(req.ToUser))
	if err != nil {
		h.writeError(c, err)
		return
	}

	message := "Invite sent"
	if result.Reinvited {
		message = "Invite re-sent"
	}
	h.emitEvent(c, observability.RoutingInviteCreated, gin.H{
		"invite_id": result.Invite.ID,
		"from_user": result.Invite.FromUser,
		"to_user":   result.Invite.ToUser,
		"reinvited": result.Reinvited,
	})
	h.emitAudit(c, "INFO", message)
	c.JSON(http.StatusCreated, gin.H{"success": true, "invite_id": result.Invite.ID, "message": message})
}

// RespondInvite handles POST /invites/:id/respond.
func (h *InviteHandler) RespondInvite(c *gin.Context) {
	inviteID, ok := parseIDParam(c, "id", "Invalid request")
	if !ok {
		return
	}

	var req struct {
		Response string `json:"response"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.invites.RespondInvite(c.Request.Context(), currentUserID(c), inviteID, req.Response)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if result.Invite.Status != models.InviteAccepted {
		h.emitAudit(c, "INFO", "Invite rejected")
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	h.emitEvent(c, observability.RoutingInviteAccepted, gin.H{
		"invite_id":       result.Invite.ID,
		"from_user":       result.Invite.FromUser,
		"to_user":         result.Invite.ToUser,
		"conversation_id": result.ConversationID,
	})
	h.emitAudit(c, "INFO", "Invite accepted")
	c.JSON(http.StatusOK, gin.H{"success": true, "conversation_id": result.ConversationID})
}

// ListInvites handles GET /invites?type=received|sent. The default is received.
func (h *InviteHandler) ListInvites(c *gin.Context) {
	direction := c.DefaultQuery("type", services.DirectionReceived)
	invites, err := h.invites.ListInvites(c.Request.Context(), currentUserID(c), direction)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if invites == nil {
		invites = []models.InviteView{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "invites": invites})
}
