package services

import "errors"

// Kind classifies a service failure.
type Kind string

const (
	KindAuthRequired Kind = "auth_required"
	KindForbidden    Kind = "forbidden"
	KindNotMember    Kind = "not_member"
	KindNotGroup     Kind = "not_group"
	KindInvalidInput Kind = "invalid_input"
	KindConflict     Kind = "conflict"
	KindNotFound     Kind = "not_found"
)

// Error is a typed failure carrying a user-facing message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrAuthRequired         = newError(KindAuthRequired, "not authenticated")
	ErrAdminRequired        = newError(KindForbidden, "Admin access required")
	ErrInvalidCredentials   = newError(KindAuthRequired, "Invalid credentials")
	ErrPendingApproval      = newError(KindForbidden, "Your club account is pending admin approval")
	ErrNotMember            = newError(KindNotMember, "Not a member of this conversation")
	ErrNotGroup             = newError(KindNotGroup, "Not a group conversation")
	ErrSelfInvite           = newError(KindInvalidInput, "Invalid user")
	ErrInvalidDecision      = newError(KindInvalidInput, "Invalid request")
	ErrInvalidDirection     = newError(KindInvalidInput, "Invalid invite type")
	ErrEmptyContent         = newError(KindInvalidInput, "Message cannot be empty")
	ErrGroupNameRequired    = newError(KindInvalidInput, "Group name required")
	ErrInvalidMessageType   = newError(KindInvalidInput, "Invalid message type")
	ErrAlreadyConnected     = newError(KindConflict, "Already connected")
	ErrInviteAlreadyPending = newError(KindConflict, "Invite already pending")
	ErrAccountExists        = newError(KindConflict, "Username, email, or registration number already exists")
	ErrInviteNotFound       = newError(KindNotFound, "Invite not found")
	ErrUserNotFound         = newError(KindNotFound, "User not found")
	ErrConversationNotFound = newError(KindNotFound, "Conversation not found")
)

// InvalidInput builds an InvalidInput failure with a custom message.
func InvalidInput(message string) error {
	return newError(KindInvalidInput, message)
}

// KindOf returns the kind of a service error, or "" for anything else.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return ""
}

func requireUser(userID int64) error {
	if userID <= 0 {
		return ErrAuthRequired
	}
	return nil
}
