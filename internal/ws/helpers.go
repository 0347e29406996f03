package ws

import (
	"context"
	"time"

	"github.com/google/uuid"

	"campus-chat/internal/observability"
)

func newConnID() string {
	return uuid.NewString()
}

// publishLifecycle emits a ws_events envelope for a channel.
func publishLifecycle(ctx context.Context, event string, c *Client, reason string) {
	observability.IncWSEvent(event)

	var userID *int64
	if id := c.UserID(); id > 0 {
		userID = &id
	}
	info := c.Info()
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   userID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	_ = observability.PublishEvent(ctx, observability.RoutingWSEvents, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
