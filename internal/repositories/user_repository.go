package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"campus-chat/internal/models"
)

// UserRepository abstracts account persistence.
type UserRepository interface {
	Create(ctx context.Context, user models.User, club *models.ClubProfile) (models.User, error)
	GetByID(ctx context.Context, userID int64) (models.User, error)
	GetByLogin(ctx context.Context, identifier string) (models.User, error)
	Exists(ctx context.Context, userID int64) (bool, error)
	Search(ctx context.Context, excludeID int64, query string, limit int) ([]models.PublicProfile, error)
	ListPendingClubs(ctx context.Context) ([]models.PendingClub, error)
	ApproveClub(ctx context.Context, userID int64) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, name, username, regno, email, password_hash, account_type, is_approved, created_at`

// Create inserts the user and, for clubs, its club profile in one transaction.
func (r *UserRepo) Create(ctx context.Context, user models.User, club *models.ClubProfile) (created models.User, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.User{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	err = tx.GetContext(ctx, &created, `INSERT INTO users (name, username, regno, email, password_hash, account_type, is_approved)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+userColumns,
		user.Name, user.Username, user.Regno, user.Email, user.PasswordHash, user.AccountType, user.IsApproved)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}

	if club != nil {
		if _, err = tx.ExecContext(ctx, `INSERT INTO club_profiles (user_id, description, category) VALUES ($1, $2, $3)`,
			created.ID, club.Description, club.Category); err != nil {
			return models.User{}, fmt.Errorf("insert club profile: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return models.User{}, err
	}
	return created, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, userID int64) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByLogin fetches a user by username or email.
func (r *UserRepo) GetByLogin(ctx context.Context, identifier string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE username=$1 OR email=$1 LIMIT 1`, identifier)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// Exists reports whether a user with the id exists.
func (r *UserRepo) Exists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, userID)
	return exists, err
}

// Search matches name, username or registration number.
func (r *UserRepo) Search(ctx context.Context, excludeID int64, query string, limit int) ([]models.PublicProfile, error) {
	like := containsPattern(query)
	users := []models.PublicProfile{}
	err := r.db.SelectContext(ctx, &users, `SELECT id, name, username, regno FROM users
        WHERE id <> $1 AND (name ILIKE $2 ESCAPE '\' OR username ILIKE $2 ESCAPE '\' OR regno ILIKE $2 ESCAPE '\')
        ORDER BY name ASC LIMIT $3`, excludeID, like, limit)
	return users, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching query literally anywhere.
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

// ListPendingClubs returns unapproved club accounts, newest first.
func (r *UserRepo) ListPendingClubs(ctx context.Context) ([]models.PendingClub, error) {
	clubs := []models.PendingClub{}
	err := r.db.SelectContext(ctx, &clubs, `SELECT u.id, u.name, u.username, u.email, u.created_at, cp.description, cp.category
        FROM users u
        LEFT JOIN club_profiles cp ON cp.user_id = u.id
        WHERE u.account_type = 'club' AND u.is_approved = FALSE
        ORDER BY u.created_at DESC`)
	return clubs, err
}

// ApproveClub flags a club account as approved.
func (r *UserRepo) ApproveClub(ctx context.Context, userID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_approved = TRUE WHERE id=$1 AND account_type = 'club'`, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}
