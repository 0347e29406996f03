package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"campus-chat/internal/models"
	"campus-chat/internal/observability"
	"campus-chat/internal/session"
)

// Handler upgrades /ws requests and runs the frame loop for each channel.
type Handler struct {
	registry *Registry
	fanout   *Fanout
	sessions session.Store
}

// NewHandler constructs a Handler. sessions may be nil, in which case auth
// frames are trusted as sent.
func NewHandler(registry *Registry, fanout *Fanout, sessions session.Store) *Handler {
	return &Handler{registry: registry, fanout: fanout, sessions: sessions}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and blocks until the channel closes.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "ws.handshake")
	sessionUserID := h.sessionUser(ctx, c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.End()
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := newClient(conn, ConnInfo{
		ConnID:      newConnID(),
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	})
	span.End()

	if !h.registry.Register(client) {
		client.Close()
		return
	}

	observability.IncWSActive()
	publishLifecycle(ctx, "ws_connect", client, "")
	client.startPump()

	reason := h.readLoop(ctx, client, sessionUserID)

	h.registry.Unregister(client)
	client.Close()
	observability.DecWSActive()
	publishLifecycle(context.WithoutCancel(ctx), "ws_disconnect", client, reason)
}

func (h *Handler) sessionUser(ctx context.Context, c *gin.Context) int64 {
	if h.sessions == nil {
		return 0
	}
	token, err := c.Cookie(session.CookieName)
	if err != nil || token == "" {
		return 0
	}
	sess, err := h.sessions.Get(ctx, token)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			log.Error().Err(err).Msg("session lookup failed during websocket handshake")
		}
		return 0
	}
	return sess.UserID
}

func (h *Handler) readLoop(ctx context.Context, client *Client, sessionUserID int64) string {
	conn := client.conn
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				publishLifecycle(context.WithoutCancel(ctx), "ws_error", client, err.Error())
			}
			return err.Error()
		}

		var frame models.InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Debug().Err(err).Str("conn_id", client.info.ConnID).Msg("ignoring malformed frame")
			continue
		}
		h.dispatch(ctx, client, sessionUserID, frame)
	}
}

func (h *Handler) dispatch(ctx context.Context, client *Client, sessionUserID int64, frame models.InboundFrame) {
	if frame.Type == models.FrameAuth {
		userID := int64(frame.UserID)
		if sessionUserID > 0 && userID != sessionUserID {
			log.Warn().Int64("claimed_user_id", userID).Int64("session_user_id", sessionUserID).
				Str("conn_id", client.info.ConnID).Msg("auth frame does not match session")
			observability.IncWSEvent("ws_auth_rejected")
			return
		}
		if h.fanout.Authenticate(client, userID) {
			publishLifecycle(ctx, "ws_auth", client, "")
		}
		return
	}

	userID := client.UserID()
	if userID == 0 {
		return
	}

	switch frame.Type {
	case models.FrameNewMessage:
		h.fanout.RelayNewMessage(ctx, client, int64(frame.ConversationID), frame.Message)
	case models.FrameTyping:
		h.fanout.RelayTyping(ctx, client, int64(frame.ConversationID), userID, frame.UserName)
	case models.FrameNewInvite:
		h.fanout.RelayInviteCreated(ctx, int64(frame.ToUserID), userID, frame.FromUserName)
	}
}
