package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"campus-chat/internal/media"
	"campus-chat/internal/models"
	"campus-chat/internal/services"
)

type AccountServiceMock struct {
	mock.Mock
}

func (m *AccountServiceMock) Signup(ctx context.Context, in services.SignupInput) (models.User, error) {
	args := m.Called(ctx, in)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *AccountServiceMock) Login(ctx context.Context, identifier, password string) (models.User, error) {
	args := m.Called(ctx, identifier, password)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *AccountServiceMock) CurrentUser(ctx context.Context, userID int64) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *AccountServiceMock) GetProfile(ctx context.Context, viewerID, userID int64) (models.PublicProfile, error) {
	args := m.Called(ctx, viewerID, userID)
	var profile models.PublicProfile
	if val := args.Get(0); val != nil {
		profile = val.(models.PublicProfile)
	}
	return profile, args.Error(1)
}

func (m *AccountServiceMock) SearchUsers(ctx context.Context, userID int64, query string) ([]models.PublicProfile, error) {
	args := m.Called(ctx, userID, query)
	var list []models.PublicProfile
	if val := args.Get(0); val != nil {
		list = val.([]models.PublicProfile)
	}
	return list, args.Error(1)
}

func (m *AccountServiceMock) PendingClubs(ctx context.Context, adminID int64) ([]models.PendingClub, error) {
	args := m.Called(ctx, adminID)
	var list []models.PendingClub
	if val := args.Get(0); val != nil {
		list = val.([]models.PendingClub)
	}
	return list, args.Error(1)
}

func (m *AccountServiceMock) ApproveClub(ctx context.Context, adminID, clubID int64) error {
	args := m.Called(ctx, adminID, clubID)
	return args.Error(0)
}

type InviteServiceMock struct {
	mock.Mock
}

func (m *InviteServiceMock) SendInvite(ctx context.Context, fromUser, toUser int64) (services.SendInviteResult, error) {
	args := m.Called(ctx, fromUser, toUser)
	var result services.SendInviteResult
	if val := args.Get(0); val != nil {
		result = val.(services.SendInviteResult)
	}
	return result, args.Error(1)
}

func (m *InviteServiceMock) RespondInvite(ctx context.Context, userID, inviteID int64, decision string) (services.RespondResult, error) {
	args := m.Called(ctx, userID, inviteID, decision)
	var result services.RespondResult
	if val := args.Get(0); val != nil {
		result = val.(services.RespondResult)
	}
	return result, args.Error(1)
}

func (m *InviteServiceMock) ListInvites(ctx context.Context, userID int64, direction string) ([]models.InviteView, error) {
	args := m.Called(ctx, userID, direction)
	var list []models.InviteView
	if val := args.Get(0); val != nil {
		list = val.([]models.InviteView)
	}
	return list, args.Error(1)
}

type ConversationServiceMock struct {
	mock.Mock
}

func (m *ConversationServiceMock) CreateGroup(ctx context.Context, creatorID int64, name string, candidates []int64) (models.Conversation, error) {
	args := m.Called(ctx, creatorID, name, candidates)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationServiceMock) ListConversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ConversationSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ConversationSummary)
	}
	return list, args.Error(1)
}

func (m *ConversationServiceMock) ListMembers(ctx context.Context, userID, conversationID int64) ([]models.PublicProfile, error) {
	args := m.Called(ctx, userID, conversationID)
	var list []models.PublicProfile
	if val := args.Get(0); val != nil {
		list = val.([]models.PublicProfile)
	}
	return list, args.Error(1)
}

func (m *ConversationServiceMock) AddMember(ctx context.Context, userID, conversationID, newUserID int64) error {
	args := m.Called(ctx, userID, conversationID, newUserID)
	return args.Error(0)
}

type MessageServiceMock struct {
	mock.Mock
}

func (m *MessageServiceMock) SendMessage(ctx context.Context, userID, conversationID int64, msgType models.MessageType, content string, filePath *string) (models.Message, error) {
	args := m.Called(ctx, userID, conversationID, msgType, content, filePath)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageServiceMock) GetMessages(ctx context.Context, userID, conversationID int64, cursor *models.MessageCursor) ([]models.MessageView, error) {
	args := m.Called(ctx, userID, conversationID, cursor)
	var list []models.MessageView
	if val := args.Get(0); val != nil {
		list = val.([]models.MessageView)
	}
	return list, args.Error(1)
}

type MediaStoreMock struct {
	mock.Mock
}

func (m *MediaStoreMock) MaxBytes() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

func (m *MediaStoreMock) Save(category, originalName string, r io.Reader) (media.Stored, error) {
	args := m.Called(category, originalName, r)
	var stored media.Stored
	if val := args.Get(0); val != nil {
		stored = val.(media.Stored)
	}
	return stored, args.Error(1)
}
