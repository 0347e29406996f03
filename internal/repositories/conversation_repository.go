package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"campus-chat/internal/models"
)

// ConversationRepository abstracts conversation and membership persistence.
type ConversationRepository interface {
	CreateGroup(ctx context.Context, creatorID int64, name string, memberIDs []int64) (models.Conversation, error)
	GetConversation(ctx context.Context, conversationID int64) (models.Conversation, error)
	IsMember(ctx context.Context, conversationID, userID int64) (bool, error)
	ListForUser(ctx context.Context, userID int64) ([]models.ConversationSummary, error)
	ListMembers(ctx context.Context, conversationID int64) ([]models.PublicProfile, error)
	MemberIDs(ctx context.Context, conversationID int64) ([]int64, error)
	AddMember(ctx context.Context, conversationID, userID int64) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// CreateGroup creates a group conversation and its members atomically.
func (r *ConversationRepo) CreateGroup(ctx context.Context, creatorID int64, name string, memberIDs []int64) (conv models.Conversation, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = tx.GetContext(ctx, &conv, `INSERT INTO conversations (type, name, created_by) VALUES ('group', $1, $2)
        RETURNING id, type, name, created_by, created_at`, name, creatorID); err != nil {
		return models.Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}

	// creator first, the rest deduped and sorted
	memberSet := map[int64]struct{}{}
	for _, id := range memberIDs {
		if id != creatorID {
			memberSet[id] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(memberSet)+1)
	for id := range memberSet {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	ids = append([]int64{creatorID}, ids...)

	for _, id := range ids {
		if _, err = tx.ExecContext(ctx, `INSERT INTO conversation_members (conversation_id, user_id) VALUES ($1, $2)
            ON CONFLICT (conversation_id, user_id) DO NOTHING`, conv.ID, id); err != nil {
			return models.Conversation{}, fmt.Errorf("insert member: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// GetConversation fetches a conversation by id.
func (r *ConversationRepo) GetConversation(ctx context.Context, conversationID int64) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT id, type, name, created_by, created_at FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// IsMember checks membership.
func (r *ConversationRepo) IsMember(ctx context.Context, conversationID, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM conversation_members WHERE conversation_id=$1 AND user_id=$2)`, conversationID, userID)
	return exists, err
}

// ListForUser returns the user's conversations with their latest message,
// most recently active first and empty conversations last.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	summaries := []models.ConversationSummary{}
	err := r.db.SelectContext(ctx, &summaries, `SELECT c.id, c.type, c.name, c.created_at,
            lm.content AS last_message, lm.created_at AS last_message_time
        FROM conversations c
        JOIN conversation_members cm ON cm.conversation_id = c.id
        LEFT JOIN LATERAL (
            SELECT m.content, m.created_at FROM messages m
            WHERE m.conversation_id = c.id
            ORDER BY m.created_at DESC, m.id DESC
            LIMIT 1
        ) lm ON TRUE
        WHERE cm.user_id=$1
        ORDER BY lm.created_at DESC NULLS LAST, c.created_at DESC, c.id DESC`, userID)
	if err != nil {
		return nil, err
	}

	directIDs := make([]int64, 0, len(summaries))
	for _, s := range summaries {
		if s.Type == models.ConversationDirect {
			directIDs = append(directIDs, s.ID)
		}
	}
	if len(directIDs) == 0 {
		return summaries, nil
	}

	var others []struct {
		ConversationID int64 `db:"conversation_id"`
		models.PublicProfile
	}
	err = r.db.SelectContext(ctx, &others, `SELECT cm.conversation_id, u.id, u.name, u.username, u.regno
        FROM conversation_members cm
        JOIN users u ON u.id = cm.user_id
        WHERE cm.conversation_id = ANY($1) AND cm.user_id <> $2`, pq.Array(directIDs), userID)
	if err != nil {
		return nil, err
	}

	byConversation := make(map[int64]models.PublicProfile, len(others))
	for _, o := range others {
		byConversation[o.ConversationID] = o.PublicProfile
	}
	for i := range summaries {
		if other, ok := byConversation[summaries[i].ID]; ok {
			other := other
			summaries[i].OtherUser = &other
		}
	}
	return summaries, nil
}

// ListMembers returns public profiles of all members.
func (r *ConversationRepo) ListMembers(ctx context.Context, conversationID int64) ([]models.PublicProfile, error) {
	members := []models.PublicProfile{}
	err := r.db.SelectContext(ctx, &members, `SELECT u.id, u.name, u.username, u.regno
        FROM conversation_members cm
        JOIN users u ON u.id = cm.user_id
        WHERE cm.conversation_id=$1
        ORDER BY cm.joined_at ASC, u.id ASC`, conversationID)
	return members, err
}

// MemberIDs returns the ids of every member of the conversation.
func (r *ConversationRepo) MemberIDs(ctx context.Context, conversationID int64) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM conversation_members WHERE conversation_id=$1`, conversationID)
	return ids, err
}

// AddMember inserts a membership; adding an existing member is a no-op.
func (r *ConversationRepo) AddMember(ctx context.Context, conversationID, userID int64) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO conversation_members (conversation_id, user_id) VALUES ($1, $2)
        ON CONFLICT (conversation_id, user_id) DO NOTHING`, conversationID, userID)
	return err
}
