package events

import (
	"context"
	"time"

	"soulscript-chat-be/internal/entity"
	"soulscript-chat-be/internal/pkg/logger"
	pkgEvents "soulscript-chat-be/pkg/events"

	"github.com/google/uuid"
)

// Sink is the transport side of publishing; *nats.Publisher satisfies it.
type Sink interface {
	Publish(ctx context.Context, event pkgEvents.Event) error
}

// Publisher emits moderation domain events. Publishing is best effort:
// failures are logged and never fail the chat turn.
type Publisher interface {
	PublishSessionBlocked(ctx context.Context, session *entity.ChatSession, direction string)
	PublishContentViolation(ctx context.Context, log *entity.ModerationLog)
}

type NatsPublisher struct {
	sink   Sink
	logger logger.ILogger
}

// NewNatsPublisher accepts a nil sink, in which case every publish is a no-op.
func NewNatsPublisher(sink Sink, logger logger.ILogger) *NatsPublisher {
	return &NatsPublisher{
		sink:   sink,
		logger: logger,
	}
}

// PublishSessionBlocked emits CHAT_SESSION_BLOCKED
func (p *NatsPublisher) PublishSessionBlocked(ctx context.Context, session *entity.ChatSession, direction string) {
	if p.sink == nil || session == nil {
		return
	}

	now := time.Now()
	data := map[string]interface{}{
		"session_id":     session.Id.String(),
		"group_scope":    session.GroupScope,
		"blocked_reason": session.BlockedReason,
		"direction":      direction,
		"anonymous":      session.IsAnonymous(),
		"entity_type":    "chat_session",
		"entity_id":      session.Id.String(),
	}
	if session.UserId != nil {
		data["user_id"] = session.UserId.String()
	}

	p.publish(ctx, pkgEvents.BaseEvent{
		Type:       pkgEvents.ChatSessionBlocked,
		Data:       data,
		OccurredAt: now,
	})
}

// PublishContentViolation emits CONTENT_VIOLATION
func (p *NatsPublisher) PublishContentViolation(ctx context.Context, log *entity.ModerationLog) {
	if p.sink == nil || log == nil {
		return
	}

	sessionId := ""
	if log.ChatSessionId != nil && *log.ChatSessionId != uuid.Nil {
		sessionId = log.ChatSessionId.String()
	}

	p.publish(ctx, pkgEvents.BaseEvent{
		Type: pkgEvents.ContentViolation,
		Data: map[string]interface{}{
			"moderation_log_id": log.Id.String(),
			"user_ref":          log.UserRef,
			"session_id":        sessionId,
			"content_type":      log.ContentType,
			"reason":            log.BlockedReason,
			"categories":        log.Categories,
			"entity_type":       "moderation_log",
			"entity_id":         log.Id.String(),
		},
		OccurredAt: log.CreatedAt,
	})
}

func (p *NatsPublisher) publish(ctx context.Context, evt pkgEvents.BaseEvent) {
	if err := p.sink.Publish(ctx, evt); err != nil {
		p.logger.Error("MODERATION", "Failed to publish "+evt.Type+" event", map[string]interface{}{"error": err.Error()})
	}
}

// SinkFunc adapts an in-process handler into a Sink for deployments
// without a NATS server.
type SinkFunc func(ctx context.Context, event pkgEvents.Event) error

func (f SinkFunc) Publish(ctx context.Context, event pkgEvents.Event) error {
	return f(ctx, event)
}
