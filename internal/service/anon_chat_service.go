package service

import (
	"context"
	"time"

	"soulscript-chat-be/internal/config"
	"soulscript-chat-be/internal/constant"
	"soulscript-chat-be/internal/dto"
	"soulscript-chat-be/internal/entity"
	"soulscript-chat-be/internal/pkg/apperror"
	"soulscript-chat-be/internal/pkg/logger"
	"soulscript-chat-be/internal/pkg/metrics"
	"soulscript-chat-be/internal/repository/contract"

	"github.com/google/uuid"
)

// IAnonChatService is the device-keyed variant of the chat service. Every
// device owns exactly one session and a daily message quota.
type IAnonChatService interface {
	GetOrCreateSession(ctx context.Context, principal entity.Principal) (*dto.SessionResponse, bool, error)
	GetSession(ctx context.Context, principal entity.Principal) (*dto.SessionResponse, error)
	ListMessages(ctx context.Context, principal entity.Principal, page dto.PageQuery) ([]*dto.MessageResponse, int64, error)
	GetQuota(ctx context.Context, principal entity.Principal) (*dto.QuotaResponse, error)

	// StartTurn consumes one unit of the device quota before the turn starts.
	// A rejected precondition or a failed turn gives the unit back.
	StartTurn(ctx context.Context, principal entity.Principal, text string) (*Turn, error)
	SendChat(ctx context.Context, principal entity.Principal, text string) (*dto.TurnResponse, error)
}

type anonChatService struct {
	store    contract.ChatStore
	quota    contract.QuotaStore
	chatbot  IChatbotService
	metrics  *metrics.ChatMetrics
	logger   logger.ILogger
	cfg      config.ChatConfig
	location *time.Location
	now      func() time.Time
}

func NewAnonChatService(
	store contract.ChatStore,
	quota contract.QuotaStore,
	chatbot IChatbotService,
	chatMetrics *metrics.ChatMetrics,
	logger logger.ILogger,
	cfg config.ChatConfig,
) IAnonChatService {
	return &anonChatService{
		store:    store,
		quota:    quota,
		chatbot:  chatbot,
		metrics:  chatMetrics,
		logger:   logger,
		cfg:      cfg,
		location: LoadLocation(cfg.QuotaTimezone),
		now:      time.Now,
	}
}

func (s *anonChatService) GetOrCreateSession(ctx context.Context, principal entity.Principal) (*dto.SessionResponse, bool, error) {
	if principal.DeviceId == "" {
		return nil, false, apperror.Validation("Device id is required")
	}

	deviceId := principal.DeviceId
	chatSession, created, err := s.store.GetOrCreateDeviceSession(ctx, &entity.ChatSession{
		Id:           uuid.New(),
		AnonDeviceId: &deviceId,
		GroupScope:   s.cfg.AnonGroupScope,
		Title:        s.cfg.DefaultTitle,
		IsActive:     true,
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.logger.Info("ANON_CHAT", "Anonymous session created", map[string]interface{}{"session_id": chatSession.Id})
	}
	return toSessionResponse(chatSession), created, nil
}

func (s *anonChatService) GetSession(ctx context.Context, principal entity.Principal) (*dto.SessionResponse, error) {
	chatSession, err := s.deviceSession(ctx, principal)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(chatSession), nil
}

func (s *anonChatService) ListMessages(ctx context.Context, principal entity.Principal, page dto.PageQuery) ([]*dto.MessageResponse, int64, error) {
	chatSession, err := s.deviceSession(ctx, principal)
	if err != nil {
		return nil, 0, err
	}
	return s.chatbot.ListMessages(ctx, principal, chatSession.Id, page)
}

func (s *anonChatService) GetQuota(ctx context.Context, principal entity.Principal) (*dto.QuotaResponse, error) {
	if principal.DeviceId == "" {
		return nil, apperror.Validation("Device id is required")
	}

	now := s.now()
	used, err := s.quota.Used(ctx, principal.DeviceId, dayKey(now, s.location))
	if err != nil {
		return nil, err
	}

	remaining := s.cfg.AnonDailyQuota - used
	if remaining < 0 {
		remaining = 0
	}
	return &dto.QuotaResponse{
		Limit:     s.cfg.AnonDailyQuota,
		Used:      used,
		Remaining: remaining,
		ResetsAt:  startOfDay(now, s.location).AddDate(0, 0, 1),
	}, nil
}

func (s *anonChatService) SendChat(ctx context.Context, principal entity.Principal, text string) (*dto.TurnResponse, error) {
	turn, err := s.StartTurn(ctx, principal, text)
	if err != nil {
		return nil, err
	}
	return turn.Wait()
}

func (s *anonChatService) StartTurn(ctx context.Context, principal entity.Principal, text string) (*Turn, error) {
	chatSession, err := s.deviceSession(ctx, principal)
	if err != nil {
		return nil, err
	}

	day := dayKey(s.now(), s.location)
	used, granted, err := s.quota.Consume(ctx, principal.DeviceId, day, s.cfg.AnonDailyQuota)
	if err != nil {
		return nil, err
	}
	if !granted {
		s.metrics.RecordQuotaRejection()
		s.logger.Info("ANON_CHAT", "Daily quota exhausted", map[string]interface{}{
			"session_id": chatSession.Id,
			"used":       used,
			"limit":      s.cfg.AnonDailyQuota,
		})
		return nil, apperror.QuotaExceeded(constant.QuotaExceededMessage)
	}

	turn, err := s.chatbot.StartTurn(ctx, principal, chatSession.Id, text)
	if err != nil {
		s.refund(context.WithoutCancel(ctx), principal.DeviceId, day)
		return nil, err
	}

	out := NewTurn(turn.SessionId, turnBuffer)
	go s.relay(principal.DeviceId, day, turn, out)
	return out, nil
}

// relay forwards the events of turn to out. A turn that ends in an error
// produced no reply, so its unit is refunded before the error is delivered.
// turn is drained to the end even after out was abandoned.
func (s *anonChatService) relay(deviceId, day string, turn, out *Turn) {
	defer out.Finish()

	for ev := range turn.Events {
		if ev.Type == TurnEventError {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			s.refund(ctx, deviceId, day)
			cancel()
		}
		out.Emit(ev)
	}
}

func (s *anonChatService) refund(ctx context.Context, deviceId, day string) {
	if err := s.quota.Refund(ctx, deviceId, day); err != nil {
		s.logger.Warn("ANON_CHAT", "Failed to refund quota", map[string]interface{}{
			"day":   day,
			"error": err.Error(),
		})
	}
}

func (s *anonChatService) deviceSession(ctx context.Context, principal entity.Principal) (*entity.ChatSession, error) {
	if principal.DeviceId == "" {
		return nil, apperror.Validation("Device id is required")
	}

	chatSession, err := s.store.FindDeviceSession(ctx, principal.DeviceId)
	if err != nil {
		return nil, err
	}
	if chatSession == nil {
		return nil, apperror.NotFound("No chat session for this device. Start one first.")
	}
	return chatSession, nil
}
