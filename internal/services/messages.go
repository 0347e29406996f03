package services

import (
	"context"
	"fmt"
	"strings"

	"campus-chat/internal/models"
	"campus-chat/internal/repositories"
)

// InitialLoadLimit bounds the history returned when no cursor is given.
const InitialLoadLimit = 100

// MessageService appends and reads conversation history.
type MessageService struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
}

// NewMessageService builds a MessageService.
func NewMessageService(conversations repositories.ConversationRepository, messages repositories.MessageRepository) *MessageService {
	return &MessageService{conversations: conversations, messages: messages}
}

// SendMessage stores a message from a current member.
func (s *MessageService) SendMessage(ctx context.Context, userID, conversationID int64, msgType models.MessageType, content string, filePath *string) (models.Message, error) {
	if err := requireUser(userID); err != nil {
		return models.Message{}, err
	}
	if msgType == "" {
		msgType = models.MessageText
	}
	if !msgType.Valid() {
		return models.Message{}, ErrInvalidMessageType
	}
	if err := checkMembership(ctx, s.conversations, userID, conversationID); err != nil {
		return models.Message{}, err
	}

	content = strings.TrimSpace(content)
	if msgType == models.MessageText && content == "" {
		return models.Message{}, ErrEmptyContent
	}
	if filePath != nil && strings.TrimSpace(*filePath) == "" {
		filePath = nil
	}

	msg, err := s.messages.CreateMessage(ctx, models.Message{
		ConversationID: conversationID,
		SenderID:       userID,
		Type:           msgType,
		Content:        content,
		FilePath:       filePath,
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("store message: %w", err)
	}
	return msg, nil
}

// GetMessages returns the latest history when cursor is nil, otherwise every
// message after the cursor. Both are in ascending (created_at, id) order.
func (s *MessageService) GetMessages(ctx context.Context, userID, conversationID int64, cursor *models.MessageCursor) ([]models.MessageView, error) {
	if err := checkMembership(ctx, s.conversations, userID, conversationID); err != nil {
		return nil, err
	}
	if cursor == nil {
		return s.messages.ListRecent(ctx, conversationID, InitialLoadLimit)
	}
	return s.messages.ListAfter(ctx, conversationID, *cursor)
}
