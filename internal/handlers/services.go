package handlers

import (
	"context"
	"io"

	"campus-chat/internal/media"
	"campus-chat/internal/models"
	"campus-chat/internal/services"
)

// AccountService is the slice of services.AccountService the handlers use.
type AccountService interface {
	Signup(ctx context.Context, in services.SignupInput) (models.User, error)
	Login(ctx context.Context, identifier, password string) (models.User, error)
	CurrentUser(ctx context.Context, userID int64) (models.User, error)
	GetProfile(ctx context.Context, viewerID, userID int64) (models.PublicProfile, error)
	SearchUsers(ctx context.Context, userID int64, query string) ([]models.PublicProfile, error)
	PendingClubs(ctx context.Context, adminID int64) ([]models.PendingClub, error)
	ApproveClub(ctx context.Context, adminID, clubID int64) error
}

type InviteService interface {
	SendInvite(ctx context.Context, fromUser, toUser int64) (services.SendInviteResult, error)
	RespondInvite(ctx context.Context, userID, inviteID int64, decision string) (services.RespondResult, error)
	ListInvites(ctx context.Context, userID int64, direction string) ([]models.InviteView, error)
}

type ConversationService interface {
	CreateGroup(ctx context.Context, creatorID int64, name string, candidates []int64) (models.Conversation, error)
	ListConversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error)
	ListMembers(ctx context.Context, userID, conversationID int64) ([]models.PublicProfile, error)
	AddMember(ctx context.Context, userID, conversationID, newUserID int64) error
}

type MessageService interface {
	SendMessage(ctx context.Context, userID, conversationID int64, msgType models.MessageType, content string, filePath *string) (models.Message, error)
	GetMessages(ctx context.Context, userID, conversationID int64, cursor *models.MessageCursor) ([]models.MessageView, error)
}

// MediaStore saves uploaded files.
type MediaStore interface {
	MaxBytes() int64
	Save(category, originalName string, r io.Reader) (media.Stored, error)
}

var (
	_ AccountService      = (*services.AccountService)(nil)
	_ InviteService       = (*services.InviteService)(nil)
	_ ConversationService = (*services.ConversationService)(nil)
	_ MessageService      = (*services.MessageService)(nil)
	_ MediaStore          = (*media.LocalStore)(nil)
)
