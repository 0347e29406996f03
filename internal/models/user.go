package models

import "time"

// AccountType classifies a campus account.
type AccountType string

const (
	AccountStudent AccountType = "student"
	AccountClub    AccountType = "club"
	AccountAdmin   AccountType = "admin"
)

// User is a registered campus account.
type User struct {
	ID           int64       `db:"id" json:"id"`
	Name         string      `db:"name" json:"name"`
	Username     string      `db:"username" json:"username"`
	Regno        string      `db:"regno" json:"regno"`
	Email        string      `db:"email" json:"email"`
	PasswordHash string      `db:"password_hash" json:"-"`
	AccountType  AccountType `db:"account_type" json:"account_type"`
	IsApproved   bool        `db:"is_approved" json:"is_approved"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// Profile returns the public fields of the user.
func (u User) Profile() PublicProfile {
	return PublicProfile{ID: u.ID, Name: u.Name, Username: u.Username, Regno: u.Regno}
}

// PublicProfile is what other users may see about an account.
type PublicProfile struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Username string `db:"username" json:"username"`
	Regno    string `db:"regno" json:"regno"`
}

// ClubProfile holds the extra details collected for club accounts.
type ClubProfile struct {
	UserID      int64  `db:"user_id" json:"user_id"`
	Description string `db:"description" json:"description"`
	Category    string `db:"category" json:"category"`
}

// PendingClub is a club account waiting for admin approval.
type PendingClub struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Username    string    `db:"username" json:"username"`
	Email       string    `db:"email" json:"email"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	Description *string   `db:"description" json:"description"`
	Category    *string   `db:"category" json:"category"`
}
