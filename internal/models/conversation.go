package models

import "time"

// ConversationType distinguishes two-party threads from groups.
type ConversationType string

const (
	ConversationDirect ConversationType = "direct"
	ConversationGroup  ConversationType = "group"
)

// Conversation represents a message thread.
type Conversation struct {
	ID        int64            `db:"id" json:"id"`
	Type      ConversationType `db:"type" json:"type"`
	Name      *string          `db:"name" json:"name"`
	CreatedBy int64            `db:"created_by" json:"created_by"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// ConversationSummary is one entry of a user's conversation list.
type ConversationSummary struct {
	ID              int64            `db:"id" json:"id"`
	Type            ConversationType `db:"type" json:"type"`
	Name            *string          `db:"name" json:"name"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	LastMessage     *string          `db:"last_message" json:"last_message"`
	LastMessageTime *time.Time       `db:"last_message_time" json:"last_message_time"`
	OtherUser       *PublicProfile   `db:"-" json:"other_user,omitempty"`
}
