package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"campus-chat/internal/models"
)

// MessageRepository defines interactions for conversation messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg models.Message) (models.Message, error)
	ListRecent(ctx context.Context, conversationID int64, limit int) ([]models.MessageView, error)
	ListAfter(ctx context.Context, conversationID int64, cursor models.MessageCursor) ([]models.MessageView, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageViewColumns = `m.id, m.conversation_id, m.sender_id, m.message_type, m.content, m.file_path, m.created_at,
        u.name AS sender_name, u.username AS sender_username`

// CreateMessage appends a message.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	var created models.Message
	err := r.db.GetContext(ctx, &created, `INSERT INTO messages (conversation_id, sender_id, message_type, content, file_path)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, conversation_id, sender_id, message_type, content, file_path, created_at`,
		msg.ConversationID, msg.SenderID, msg.Type, msg.Content, msg.FilePath)
	if err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return created, nil
}

// ListRecent returns the latest limit messages in ascending order.
func (r *MessageRepo) ListRecent(ctx context.Context, conversationID int64, limit int) ([]models.MessageView, error) {
	msgs := []models.MessageView{}
	err := r.db.SelectContext(ctx, &msgs, `SELECT * FROM (
            SELECT `+messageViewColumns+`
            FROM messages m
            JOIN users u ON u.id = m.sender_id
            WHERE m.conversation_id=$1
            ORDER BY m.created_at DESC, m.id DESC
            LIMIT $2
        ) recent
        ORDER BY created_at ASC, id ASC`, conversationID, limit)
	return msgs, err
}

// ListAfter returns every message strictly after the cursor in ascending order.
func (r *MessageRepo) ListAfter(ctx context.Context, conversationID int64, cursor models.MessageCursor) ([]models.MessageView, error) {
	msgs := []models.MessageView{}
	if cursor.AfterID > 0 {
		err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageViewColumns+`
            FROM messages m
            JOIN users u ON u.id = m.sender_id
            WHERE m.conversation_id=$1 AND (m.created_at, m.id) > ($2, $3)
            ORDER BY m.created_at ASC, m.id ASC`, conversationID, cursor.After, cursor.AfterID)
		return msgs, err
	}
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageViewColumns+`
        FROM messages m
        JOIN users u ON u.id = m.sender_id
        WHERE m.conversation_id=$1 AND m.created_at > $2
        ORDER BY m.created_at ASC, m.id ASC`, conversationID, cursor.After)
	return msgs, err
}
