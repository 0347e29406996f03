package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Realtime frame types.
const (
	FrameAuth       = "auth"
	FrameAuthOK     = "auth_ok"
	FrameNewMessage = "new_message"
	FrameTyping     = "typing"
	FrameNewInvite  = "new_invite"
)

// FlexID decodes an identifier sent either as a JSON number or a JSON string.
type FlexID int64

// UnmarshalJSON implements json.Unmarshaler.
func (id *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		data = []byte(s)
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	*id = FlexID(v)
	return nil
}

// InboundFrame is any frame a client sends over the realtime channel.
type InboundFrame struct {
	Type           string          `json:"type"`
	UserID         FlexID          `json:"userId,omitempty"`
	ConversationID FlexID          `json:"conversationId,omitempty"`
	Message        json.RawMessage `json:"message,omitempty"`
	UserName       string          `json:"userName,omitempty"`
	ToUserID       FlexID          `json:"toUserId,omitempty"`
	FromUserName   string          `json:"fromUserName,omitempty"`
}

// AuthOKFrame confirms that fan-out is ready for the channel.
type AuthOKFrame struct {
	Type string `json:"type"`
}

// NewMessageFrame relays a caller-supplied message payload.
type NewMessageFrame struct {
	Type           string          `json:"type"`
	ConversationID int64           `json:"conversationId"`
	Message        json.RawMessage `json:"message"`
}

// TypingFrame relays a typing indicator.
type TypingFrame struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversationId"`
	UserID         int64  `json:"userId"`
	UserName       string `json:"userName"`
}

// InviteFrame notifies a user about a new connection invite.
type InviteFrame struct {
	Type         string `json:"type"`
	FromUserID   int64  `json:"fromUserId"`
	FromUserName string `json:"fromUserName"`
}
