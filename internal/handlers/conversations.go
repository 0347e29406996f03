package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"campus-chat/internal/models"
	"campus-chat/internal/observability"
	"campus-chat/internal/telemetry"
)

const legacyTimestampLayout = "2006-01-02 15:04:05"

// ConversationHandler serves conversations, their members and their messages.
type ConversationHandler struct {
	auditor
	conversations ConversationService
	messages      MessageService
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(conversations ConversationService, messages MessageService, audit *telemetry.Emitter) *ConversationHandler {
	return &ConversationHandler{
		auditor:       auditor{audit: audit},
		conversations: conversations,
		messages:      messages,
	}
}

// ListConversations handles GET /conversations.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	list, err := h.conversations.ListConversations(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if list == nil {
		list = []models.ConversationSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "conversations": list})
}

// CreateGroup handles POST /conversations/groups.
func (h *ConversationHandler) CreateGroup(c *gin.Context) {
	var req struct {
		Name    string          `json:"name"`
		Members []models.FlexID `json:"members"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	candidates := make([]int64, 0, len(req.Members))
	for _, id := range req.Members {
		candidates = append(candidates, int64(id))
	}

	conv, err := h.conversations.CreateGroup(c.Request.Context(), currentUserID(c), req.Name, candidates)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.emitEvent(c, observability.RoutingGroupCreated, gin.H{
		"conversation_id": conv.ID,
		"name":            conv.Name,
		"created_by":      conv.CreatedBy,
	})
	h.emitAudit(c, "INFO", "Group created")
	c.JSON(http.StatusCreated, gin.H{"success": true, "conversation_id": conv.ID})
}

// ListMembers handles GET /conversations/:id/members.
func (h *ConversationHandler) ListMembers(c *gin.Context) {
	conversationID, ok := parseIDParam(c, "id", "Invalid conversation id")
	if !ok {
		return
	}
	members, err := h.conversations.ListMembers(c.Request.Context(), currentUserID(c), conversationID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if members == nil {
		members = []models.PublicProfile{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "members": members})
}

// AddMember handles POST /conversations/:id/members.
func (h *ConversationHandler) AddMember(c *gin.Context) {
	conversationID, ok := parseIDParam(c, "id", "Invalid conversation id")
	if !ok {
		return
	}
	var req struct {
		UserID models.FlexID `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.conversations.AddMember(c.Request.Context(), currentUserID(c), conversationID, int64(req.UserID)); err != nil {
		h.writeError(c, err)
		return
	}
	h.emitAudit(c, "INFO", "Group member added")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetMessages handles GET /conversations/:id/messages. Without after it
// returns the latest history; with after (and optionally after_id) it returns
// everything newer than that cursor.
func (h *ConversationHandler) GetMessages(c *gin.Context) {
	conversationID, ok := parseIDParam(c, "id", "Invalid conversation id")
	if !ok {
		return
	}
	cursor, ok := parseCursor(c)
	if !ok {
		return
	}

	msgs, err := h.messages.GetMessages(c.Request.Context(), currentUserID(c), conversationID, cursor)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if msgs == nil {
		msgs = []models.MessageView{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": msgs})
}

// SendMessage handles POST /conversations/:id/messages.
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	conversationID, ok := parseIDParam(c, "id", "Invalid conversation id")
	if !ok {
		return
	}
	var req struct {
		MessageType string  `json:"message_type"`
		Content     string  `json:"content"`
		FilePath    *string `json:"file_path"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID := currentUserID(c)
	msg, err := h.messages.SendMessage(c.Request.Context(), userID, conversationID, models.MessageType(req.MessageType), req.Content, req.FilePath)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.emitEvent(c, observability.RoutingMessageCreated, gin.H{
		"message_id":      msg.ID,
		"conversation_id": msg.ConversationID,
		"sender_id":       msg.SenderID,
		"message_type":    msg.Type,
	})
	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"message_id": msg.ID,
		"created_at": msg.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

func parseCursor(c *gin.Context) (*models.MessageCursor, bool) {
	raw := c.Query("after")
	if raw == "" {
		return nil, true
	}

	after, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		after, err = time.ParseInLocation(legacyTimestampLayout, raw, time.UTC)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
		return nil, false
	}

	cursor := &models.MessageCursor{After: after}
	if rawID := c.Query("after_id"); rawID != "" {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil || id < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
			return nil, false
		}
		cursor.AfterID = id
	}
	return cursor, true
}
