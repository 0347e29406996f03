package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"campus-chat/internal/models"
)

// InviteRepository abstracts connection invite persistence.
type InviteRepository interface {
	FindBetween(ctx context.Context, userA, userB int64) (models.Invite, error)
	Create(ctx context.Context, fromUser, toUser int64) (models.Invite, error)
	Reopen(ctx context.Context, inviteID, fromUser, toUser int64) (models.Invite, error)
	GetPendingFor(ctx context.Context, inviteID, toUser int64) (models.Invite, error)
	Accept(ctx context.Context, invite models.Invite) (models.Conversation, error)
	Reject(ctx context.Context, inviteID int64) error
	ListReceived(ctx context.Context, userID int64) ([]models.InviteView, error)
	ListSent(ctx context.Context, userID int64) ([]models.InviteView, error)
	AreConnected(ctx context.Context, userA, userB int64) (bool, error)
}

// InviteRepo is a sqlx implementation of InviteRepository.
type InviteRepo struct {
	db *sqlx.DB
}

// NewInviteRepo constructs an InviteRepo.
func NewInviteRepo(db *sqlx.DB) *InviteRepo {
	return &InviteRepo{db: db}
}

const inviteColumns = `id, from_user, to_user, status, created_at, updated_at`

// FindBetween returns the edge between two users in either direction.
func (r *InviteRepo) FindBetween(ctx context.Context, userA, userB int64) (models.Invite, error) {
	var invite models.Invite
	err := r.db.GetContext(ctx, &invite, `SELECT `+inviteColumns+` FROM chat_invites
        WHERE (from_user=$1 AND to_user=$2) OR (from_user=$2 AND to_user=$1)`, userA, userB)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Invite{}, ErrInviteNotFound
	}
	return invite, err
}

// Create inserts a pending invite. A concurrent insert for the same pair
// fails on the pair index and is reported as ErrDuplicate.
func (r *InviteRepo) Create(ctx context.Context, fromUser, toUser int64) (models.Invite, error) {
	var invite models.Invite
	err := r.db.GetContext(ctx, &invite, `INSERT INTO chat_invites (from_user, to_user) VALUES ($1, $2) RETURNING `+inviteColumns, fromUser, toUser)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Invite{}, ErrDuplicate
		}
		return models.Invite{}, fmt.Errorf("insert invite: %w", err)
	}
	return invite, nil
}

// Reopen turns a rejected edge back into a pending invite with a new direction.
func (r *InviteRepo) Reopen(ctx context.Context, inviteID, fromUser, toUser int64) (models.Invite, error) {
	var invite models.Invite
	err := r.db.GetContext(ctx, &invite, `UPDATE chat_invites
        SET from_user=$2, to_user=$3, status='pending', created_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND status='rejected'
        RETURNING `+inviteColumns, inviteID, fromUser, toUser)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Invite{}, ErrInviteNotFound
	}
	return invite, err
}

// GetPendingFor fetches a pending invite addressed to the user.
func (r *InviteRepo) GetPendingFor(ctx context.Context, inviteID, toUser int64) (models.Invite, error) {
	var invite models.Invite
	err := r.db.GetContext(ctx, &invite, `SELECT `+inviteColumns+` FROM chat_invites WHERE id=$1 AND to_user=$2 AND status='pending'`, inviteID, toUser)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Invite{}, ErrInviteNotFound
	}
	return invite, err
}

// Accept marks the invite accepted and creates the direct conversation with
// both parties as members, atomically.
func (r *InviteRepo) Accept(ctx context.Context, invite models.Invite) (conv models.Conversation, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE chat_invites SET status='accepted', updated_at=NOW() WHERE id=$1 AND status='pending'`, invite.ID)
	if err != nil {
		return models.Conversation{}, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return models.Conversation{}, err
	}
	if count == 0 {
		err = ErrInviteNotFound
		return models.Conversation{}, err
	}

	if err = tx.GetContext(ctx, &conv, `INSERT INTO conversations (type, created_by) VALUES ('direct', $1)
        RETURNING id, type, name, created_by, created_at`, invite.ToUser); err != nil {
		return models.Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO conversation_members (conversation_id, user_id) VALUES ($1, $2), ($1, $3)`,
		conv.ID, invite.FromUser, invite.ToUser); err != nil {
		return models.Conversation{}, fmt.Errorf("insert members: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// Reject marks a pending invite rejected.
func (r *InviteRepo) Reject(ctx context.Context, inviteID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chat_invites SET status='rejected', updated_at=NOW() WHERE id=$1 AND status='pending'`, inviteID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrInviteNotFound
	}
	return nil
}

// ListReceived returns pending invites addressed to the user, newest first.
func (r *InviteRepo) ListReceived(ctx context.Context, userID int64) ([]models.InviteView, error) {
	invites := []models.InviteView{}
	err := r.db.SelectContext(ctx, &invites, `SELECT ci.id, ci.from_user, ci.to_user, ci.status, ci.created_at, u.name, u.username, u.regno
        FROM chat_invites ci
        JOIN users u ON u.id = ci.from_user
        WHERE ci.to_user=$1 AND ci.status='pending'
        ORDER BY ci.created_at DESC, ci.id DESC`, userID)
	return invites, err
}

// ListSent returns pending invites the user sent, newest first.
func (r *InviteRepo) ListSent(ctx context.Context, userID int64) ([]models.InviteView, error) {
	invites := []models.InviteView{}
	err := r.db.SelectContext(ctx, &invites, `SELECT ci.id, ci.from_user, ci.to_user, ci.status, ci.created_at, u.name, u.username, u.regno
        FROM chat_invites ci
        JOIN users u ON u.id = ci.to_user
        WHERE ci.from_user=$1 AND ci.status='pending'
        ORDER BY ci.created_at DESC, ci.id DESC`, userID)
	return invites, err
}

// AreConnected reports whether an accepted edge exists between the users.
func (r *InviteRepo) AreConnected(ctx context.Context, userA, userB int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chat_invites
        WHERE status='accepted' AND ((from_user=$1 AND to_user=$2) OR (from_user=$2 AND to_user=$1)))`, userA, userB)
	return exists, err
}
