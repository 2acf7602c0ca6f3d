package service

import (
	"context"
	"time"

	"soulscript-chat-be/internal/dto"
	"soulscript-chat-be/internal/pkg/logger"
	"soulscript-chat-be/pkg/events"
	pktNats "soulscript-chat-be/pkg/nats"

	"github.com/google/uuid"
)

// AlertDelivery pushes alerts to connected admins. Implemented by the websocket hub.
type AlertDelivery interface {
	Broadcast(alert interface{})
}

// ModerationAlertService turns moderation domain events into admin alerts:
// a line in the alert log and a push to every connected admin.
type ModerationAlertService struct {
	subscriber *pktNats.Subscriber
	delivery   AlertDelivery
	alertLog   logger.ILogger
	logger     logger.ILogger
}

func NewModerationAlertService(sub *pktNats.Subscriber, delivery AlertDelivery, alertLog logger.ILogger, log logger.ILogger) *ModerationAlertService {
	return &ModerationAlertService{
		subscriber: sub,
		delivery:   delivery,
		alertLog:   alertLog,
		logger:     log,
	}
}

// Start begins listening to the event bus. Without a subscriber, events
// reach HandleEvent through an in-process sink instead.
func (s *ModerationAlertService) Start() {
	if s.subscriber == nil {
		s.logger.Warn("ModerationAlertService", "No NATS subscriber, alerts are delivered in-process only", nil)
		return
	}

	subscriptions := map[string]string{
		pktNats.SubjectPrefix + events.ContentViolation:   "moderation-alerts-violations",
		pktNats.SubjectPrefix + events.ChatSessionBlocked: "moderation-alerts-blocked",
	}
	for subject, durable := range subscriptions {
		if err := s.subscriber.Subscribe(subject, durable, s.HandleEvent); err != nil {
			s.logger.Error("ModerationAlertService", "Failed to start alert subscriber", map[string]interface{}{
				"subject": subject,
				"error":   err.Error(),
			})
			continue
		}
	}
	s.logger.Info("ModerationAlertService", "Moderation alert service started", nil)
}

func (s *ModerationAlertService) HandleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	switch event.EventType() {
	case events.ContentViolation:
		alert := dto.ModerationAlert{
			ModerationLogId: parseUUID(payload["moderation_log_id"]),
			UserRef:         stringOf(payload["user_ref"]),
			ContentType:     stringOf(payload["content_type"]),
			BlockedReason:   stringOf(payload["reason"]),
			CreatedAt:       event.Timestamp().UTC(),
		}
		if id := parseUUID(payload["session_id"]); id != uuid.Nil {
			alert.ChatSessionId = &id
		}

		s.alertLog.Warn("MODERATION", "Content violation", map[string]interface{}{
			"moderation_log_id": alert.ModerationLogId,
			"user_ref":          alert.UserRef,
			"session_id":        stringOf(payload["session_id"]),
			"content_type":      alert.ContentType,
			"reason":            alert.BlockedReason,
		})
		if s.delivery != nil {
			s.delivery.Broadcast(alert)
		}

	case events.ChatSessionBlocked:
		s.alertLog.Warn("MODERATION", "Chat session blocked", map[string]interface{}{
			"session_id":     stringOf(payload["session_id"]),
			"direction":      stringOf(payload["direction"]),
			"blocked_reason": stringOf(payload["blocked_reason"]),
			"occurred_at":    event.Timestamp().UTC().Format(time.RFC3339),
		})

	default:
		s.logger.Debug("ModerationAlertService", "Ignoring event", map[string]interface{}{"type": event.EventType()})
	}

	return nil
}

func stringOf(v interface{}) string {
	s, _ := v.(string)
	return s
}

func parseUUID(v interface{}) uuid.UUID {
	id, err := uuid.Parse(stringOf(v))
	if err != nil {
		return uuid.Nil
	}
	return id
}
