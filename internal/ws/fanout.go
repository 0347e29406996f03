package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"campus-chat/internal/models"
	"campus-chat/internal/observability"
)

const lookupTimeout = 3 * time.Second

var tracer = otel.Tracer("campus-chat/ws")

// MembershipLookup resolves the members of a conversation.
type MembershipLookup interface {
	MemberIDs(ctx context.Context, conversationID int64) ([]int64, error)
}

// Fanout relays caller-supplied events to live channels. Relays are best
// effort: they return nothing and never persist.
type Fanout struct {
	registry *Registry
	members  MembershipLookup
}

// NewFanout builds a Fanout.
func NewFanout(registry *Registry, members MembershipLookup) *Fanout {
	return &Fanout{registry: registry, members: members}
}

// Authenticate binds the channel to userID and acknowledges with auth_ok.
func (f *Fanout) Authenticate(c *Client, userID int64) bool {
	if userID <= 0 || !f.registry.Bind(c, userID) {
		return false
	}
	payload, _ := json.Marshal(models.AuthOKFrame{Type: models.FrameAuthOK})
	c.enqueue(payload)
	return true
}

// RelayNewMessage pushes the payload to every other member of the conversation.
func (f *Fanout) RelayNewMessage(ctx context.Context, sender *Client, conversationID int64, message json.RawMessage) {
	if len(message) == 0 {
		message = json.RawMessage("null")
	}
	f.relayToMembers(ctx, models.FrameNewMessage, sender.UserID(), conversationID, models.NewMessageFrame{
		Type:           models.FrameNewMessage,
		ConversationID: conversationID,
		Message:        message,
	})
}

// RelayTyping pushes a typing indicator to every other member of the conversation.
func (f *Fanout) RelayTyping(ctx context.Context, sender *Client, conversationID, userID int64, userName string) {
	f.relayToMembers(ctx, models.FrameTyping, sender.UserID(), conversationID, models.TypingFrame{
		Type:           models.FrameTyping,
		ConversationID: conversationID,
		UserID:         userID,
		UserName:       userName,
	})
}

// RelayInviteCreated pushes new_invite to the invitee's channels.
func (f *Fanout) RelayInviteCreated(ctx context.Context, toUserID, fromUserID int64, fromUserName string) {
	_, span := tracer.Start(ctx, "ws.relay_invite")
	defer span.End()
	span.SetAttributes(attribute.Int64("to_user_id", toUserID))

	if toUserID <= 0 {
		observability.IncRelay(models.FrameNewInvite, observability.RelayNoRecipients)
		return
	}
	payload, err := json.Marshal(models.InviteFrame{
		Type:         models.FrameNewInvite,
		FromUserID:   fromUserID,
		FromUserName: fromUserName,
	})
	if err != nil {
		return
	}
	f.record(models.FrameNewInvite, f.registry.SendToUser(toUserID, payload))
}

func (f *Fanout) relayToMembers(ctx context.Context, kind string, senderID, conversationID int64, frame any) {
	ctx, span := tracer.Start(ctx, "ws.relay_"+kind)
	defer span.End()
	span.SetAttributes(attribute.Int64("conversation_id", conversationID), attribute.Int64("sender_id", senderID))

	if conversationID <= 0 {
		observability.IncRelay(kind, observability.RelayNoRecipients)
		return
	}

	lookupCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()
	memberIDs, err := f.members.MemberIDs(lookupCtx, conversationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "membership lookup failed")
		observability.IncRelay(kind, observability.RelayLookupFailed)
		log.Error().Err(err).Str("kind", kind).Int64("conversation_id", conversationID).Msg("relay membership lookup failed")
		return
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		log.Error().Err(err).Str("kind", kind).Msg("relay encode failed")
		return
	}

	delivered := 0
	for _, memberID := range memberIDs {
		if memberID == senderID {
			continue
		}
		delivered += f.registry.SendToUser(memberID, payload)
	}
	f.record(kind, delivered)
}

func (f *Fanout) record(kind string, delivered int) {
	if delivered == 0 {
		observability.IncRelay(kind, observability.RelayNoRecipients)
		return
	}
	observability.IncRelay(kind, observability.RelayDelivered)
}
