package models

import "time"

// InviteStatus is the state of a connection invite.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteRejected InviteStatus = "rejected"
)

// Invite is the directed connection edge between two users. There is at most
// one row per unordered pair.
type Invite struct {
	ID        int64        `db:"id" json:"id"`
	FromUser  int64        `db:"from_user" json:"from_user"`
	ToUser    int64        `db:"to_user" json:"to_user"`
	Status    InviteStatus `db:"status" json:"status"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// InviteView is a pending invite joined with the counterpart's public profile.
type InviteView struct {
	ID        int64        `db:"id" json:"id"`
	FromUser  int64        `db:"from_user" json:"from_user"`
	ToUser    int64        `db:"to_user" json:"to_user"`
	Status    InviteStatus `db:"status" json:"status"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	Name      string       `db:"name" json:"name"`
	Username  string       `db:"username" json:"username"`
	Regno     string       `db:"regno" json:"regno"`
}
