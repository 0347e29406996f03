package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"campus-chat/internal/models"
	"campus-chat/internal/repositories"
)

// ConversationService creates groups and guards membership.
type ConversationService struct {
	conversations repositories.ConversationRepository
	invites       repositories.InviteRepository
	users         repositories.UserRepository
}

// NewConversationService builds a ConversationService.
func NewConversationService(conversations repositories.ConversationRepository, invites repositories.InviteRepository, users repositories.UserRepository) *ConversationService {
	return &ConversationService{conversations: conversations, invites: invites, users: users}
}

// CreateGroup creates a named group. Candidates without an accepted
// connection to the creator are skipped.
func (s *ConversationService) CreateGroup(ctx context.Context, creatorID int64, name string, candidates []int64) (models.Conversation, error) {
	if err := requireUser(creatorID); err != nil {
		return models.Conversation{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Conversation{}, ErrGroupNameRequired
	}

	members := make([]int64, 0, len(candidates))
	seen := map[int64]struct{}{}
	for _, candidate := range candidates {
		if candidate <= 0 || candidate == creatorID {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}

		connected, err := s.invites.AreConnected(ctx, creatorID, candidate)
		if err != nil {
			return models.Conversation{}, fmt.Errorf("check connection: %w", err)
		}
		if connected {
			members = append(members, candidate)
		}
	}

	conv, err := s.conversations.CreateGroup(ctx, creatorID, name, members)
	if err != nil {
		return models.Conversation{}, fmt.Errorf("create group: %w", err)
	}
	return conv, nil
}

// ListConversations returns the caller's conversations, most recently active first.
func (s *ConversationService) ListConversations(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.conversations.ListForUser(ctx, userID)
}

// ListMembers returns the members of a conversation the caller belongs to.
func (s *ConversationService) ListMembers(ctx context.Context, userID, conversationID int64) ([]models.PublicProfile, error) {
	if err := s.requireMember(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.conversations.ListMembers(ctx, conversationID)
}

// AddMember adds newUserID to a group the caller belongs to. Adding an
// existing member succeeds without a second row.
func (s *ConversationService) AddMember(ctx context.Context, userID, conversationID, newUserID int64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if conversationID <= 0 || newUserID <= 0 {
		return InvalidInput("Invalid request")
	}
	if err := s.requireMember(ctx, userID, conversationID); err != nil {
		return err
	}

	conv, err := s.conversations.GetConversation(ctx, conversationID)
	if errors.Is(err, repositories.ErrConversationNotFound) {
		return ErrConversationNotFound
	}
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}
	if conv.Type != models.ConversationGroup {
		return ErrNotGroup
	}

	exists, err := s.users.Exists(ctx, newUserID)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}

	return s.conversations.AddMember(ctx, conversationID, newUserID)
}

func (s *ConversationService) requireMember(ctx context.Context, userID, conversationID int64) error {
	return checkMembership(ctx, s.conversations, userID, conversationID)
}

func checkMembership(ctx context.Context, conversations repositories.ConversationRepository, userID, conversationID int64) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if conversationID <= 0 {
		return InvalidInput("Conversation ID required")
	}
	member, err := conversations.IsMember(ctx, conversationID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !member {
		return ErrNotMember
	}
	return nil
}
