package telemetry

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"campus-chat/internal/observability"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any, headers map[string]string) error
}

// Emitter publishes audit logs and domain events for one service.
type Emitter struct {
	publisher   Publisher
	auditKey    string
	service     string
	environment string
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        *int64       `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// DomainEnvelope wraps a chat domain event such as chat.message.created.
type DomainEnvelope struct {
	SchemaVersion int    `json:"schema_version"`
	EventType     string `json:"event_type"`
	EventName     string `json:"event_name"`
	OccurredAt    string `json:"occurred_at"`
	Service       string `json:"service"`
	Environment   string `json:"environment"`
	RequestID     string `json:"request_id"`
	UserID        *int64 `json:"user_id,omitempty"`
	Payload       any    `json:"payload"`
}

func NewEmitter(publisher Publisher, auditKey, service, environment string) *Emitter {
	return &Emitter{
		publisher:   publisher,
		auditKey:    auditKey,
		service:     service,
		environment: environment,
	}
}

func (e *Emitter) Audit(ctx context.Context, level, text, requestID string, userID *int64) {
	if e == nil || e.publisher == nil {
		return
	}

	log.Debug().Str("level", level).Str("request_id", requestID).Interface("user_id", userID).Str("text", text).Msg("audit emit")
	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        userID,
		Payload: AuditPayload{
			Level: level,
			Text:  text,
		},
	}

	e.publish(ctx, e.auditKey, envelope, requestID)
}

// Event publishes a domain event under routingKey. The event name is the routing key.
func (e *Emitter) Event(ctx context.Context, routingKey string, payload any, requestID string, userID *int64) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := DomainEnvelope{
		SchemaVersion: 1,
		EventType:     "domain_event",
		EventName:     routingKey,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        userID,
		Payload:       payload,
	}

	e.publish(ctx, routingKey, envelope, requestID)
}

func (e *Emitter) publish(ctx context.Context, routingKey string, envelope any, requestID string) {
	headers := observability.BuildHeaders(requestID, observability.TraceIDFromContext(ctx))
	if err := e.publisher.Publish(ctx, routingKey, envelope, headers); err != nil {
		observability.IncAMQPPublishError()
		log.Error().Err(err).Str("routing_key", routingKey).Msg("event publish failed")
	}
}
