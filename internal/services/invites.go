package services

import (
	"context"
	"errors"
	"fmt"

	"campus-chat/internal/models"
	"campus-chat/internal/repositories"
)

// Invite list directions.
const (
	DirectionReceived = "received"
	DirectionSent     = "sent"
)

// SendInviteResult reports the stored invite and whether a rejected edge was reopened.
type SendInviteResult struct {
	Invite    models.Invite
	Reinvited bool
}

// RespondResult is the outcome of answering an invite. ConversationID is set
// only when the invite was accepted.
type RespondResult struct {
	Invite         models.Invite
	ConversationID int64
}

// InviteService manages the connection edge between two users.
type InviteService struct {
	invites repositories.InviteRepository
	users   repositories.UserRepository
}

// NewInviteService builds an InviteService.
func NewInviteService(invites repositories.InviteRepository, users repositories.UserRepository) *InviteService {
	return &InviteService{invites: invites, users: users}
}

// SendInvite opens a pending edge from -> to. A rejected edge in either
// direction is reopened with the new direction.
func (s *InviteService) SendInvite(ctx context.Context, fromUser, toUser int64) (SendInviteResult, error) {
	if err := requireUser(fromUser); err != nil {
		return SendInviteResult{}, err
	}
	if toUser <= 0 || toUser == fromUser {
		return SendInviteResult{}, ErrSelfInvite
	}

	exists, err := s.users.Exists(ctx, toUser)
	if err != nil {
		return SendInviteResult{}, fmt.Errorf("lookup user: %w", err)
	}
	if !exists {
		return SendInviteResult{}, ErrUserNotFound
	}

	existing, err := s.invites.FindBetween(ctx, fromUser, toUser)
	if errors.Is(err, repositories.ErrInviteNotFound) {
		invite, err := s.invites.Create(ctx, fromUser, toUser)
		if errors.Is(err, repositories.ErrDuplicate) {
			// lost the race against a concurrent invite for the same pair
			return SendInviteResult{}, ErrInviteAlreadyPending
		}
		if err != nil {
			return SendInviteResult{}, fmt.Errorf("create invite: %w", err)
		}
		return SendInviteResult{Invite: invite}, nil
	}
	if err != nil {
		return SendInviteResult{}, fmt.Errorf("find invite: %w", err)
	}

	switch existing.Status {
	case models.InviteAccepted:
		return SendInviteResult{}, ErrAlreadyConnected
	case models.InvitePending:
		return SendInviteResult{}, ErrInviteAlreadyPending
	}

	invite, err := s.invites.Reopen(ctx, existing.ID, fromUser, toUser)
	if errors.Is(err, repositories.ErrInviteNotFound) {
		return SendInviteResult{}, ErrInviteAlreadyPending
	}
	if err != nil {
		return SendInviteResult{}, fmt.Errorf("reopen invite: %w", err)
	}
	return SendInviteResult{Invite: invite, Reinvited: true}, nil
}

// RespondInvite accepts or rejects a pending invite addressed to userID.
func (s *InviteService) RespondInvite(ctx context.Context, userID, inviteID int64, decision string) (RespondResult, error) {
	if err := requireUser(userID); err != nil {
		return RespondResult{}, err
	}
	status := models.InviteStatus(decision)
	if inviteID <= 0 || (status != models.InviteAccepted && status != models.InviteRejected) {
		return RespondResult{}, ErrInvalidDecision
	}

	invite, err := s.invites.GetPendingFor(ctx, inviteID, userID)
	if errors.Is(err, repositories.ErrInviteNotFound) {
		return RespondResult{}, ErrInviteNotFound
	}
	if err != nil {
		return RespondResult{}, fmt.Errorf("load invite: %w", err)
	}

	if status == models.InviteRejected {
		err := s.invites.Reject(ctx, invite.ID)
		if errors.Is(err, repositories.ErrInviteNotFound) {
			return RespondResult{}, ErrInviteNotFound
		}
		if err != nil {
			return RespondResult{}, fmt.Errorf("reject invite: %w", err)
		}
		invite.Status = models.InviteRejected
		return RespondResult{Invite: invite}, nil
	}

	conv, err := s.invites.Accept(ctx, invite)
	if errors.Is(err, repositories.ErrInviteNotFound) {
		return RespondResult{}, ErrInviteNotFound
	}
	if err != nil {
		return RespondResult{}, fmt.Errorf("accept invite: %w", err)
	}
	invite.Status = models.InviteAccepted
	return RespondResult{Invite: invite, ConversationID: conv.ID}, nil
}

// ListInvites returns pending invites, newest first.
func (s *InviteService) ListInvites(ctx context.Context, userID int64, direction string) ([]models.InviteView, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	switch direction {
	case DirectionReceived:
		return s.invites.ListReceived(ctx, userID)
	case DirectionSent:
		return s.invites.ListSent(ctx, userID)
	default:
		return nil, ErrInvalidDirection
	}
}
