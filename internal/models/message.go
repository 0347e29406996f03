package models

import "time"

// MessageType is the kind of payload a message carries.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageVideo MessageType = "video"
	MessageAudio MessageType = "audio"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageVideo, MessageAudio:
		return true
	}
	return false
}

// Message is an immutable entry in a conversation.
type Message struct {
	ID             int64       `db:"id" json:"id"`
	ConversationID int64       `db:"conversation_id" json:"conversation_id"`
	SenderID       int64       `db:"sender_id" json:"sender_id"`
	Type           MessageType `db:"message_type" json:"message_type"`
	Content        string      `db:"content" json:"content"`
	FilePath       *string     `db:"file_path" json:"file_path"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}

// MessageView is a message joined with its sender's display fields.
type MessageView struct {
	Message
	SenderName     string `db:"sender_name" json:"sender_name"`
	SenderUsername string `db:"sender_username" json:"sender_username"`
}

// MessageCursor marks the last message a reader has seen. AfterID is optional;
// when set it breaks ties between messages sharing a timestamp.
type MessageCursor struct {
	After   time.Time
	AfterID int64
}

// Before reports whether the message sorts at or before the cursor.
func (c MessageCursor) Before(m Message) bool {
	if m.CreatedAt.Before(c.After) {
		return true
	}
	if m.CreatedAt.Equal(c.After) {
		return c.AfterID == 0 || m.ID <= c.AfterID
	}
	return false
}
