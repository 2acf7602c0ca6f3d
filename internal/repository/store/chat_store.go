package store

import (
	"context"
	"fmt"
	"time"

	"soulscript-chat-be/internal/entity"
	"soulscript-chat-be/internal/repository/contract"
	"soulscript-chat-be/internal/repository/specification"
	"soulscript-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type GormChatStore struct {
	uowFactory unitofwork.RepositoryFactory
	now        func() time.Time
}

var _ contract.ChatStore = (*GormChatStore)(nil)

func NewGormChatStore(uowFactory unitofwork.RepositoryFactory) *GormChatStore {
	return &GormChatStore{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

func (s *GormChatStore) CreateSession(ctx context.Context, session *entity.ChatSession) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatSessionRepository().Create(ctx, session)
}

func (s *GormChatStore) GetOrCreateDeviceSession(ctx context.Context, session *entity.ChatSession) (*entity.ChatSession, bool, error) {
	if session.AnonDeviceId == nil {
		return nil, false, fmt.Errorf("device session requires a device id")
	}
	repo := s.uowFactory.NewUnitOfWork(ctx).ChatSessionRepository()

	existing, err := repo.FindOne(ctx, specification.ByAnonDevice{DeviceID: *session.AnonDeviceId})
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	if err := repo.Create(ctx, session); err != nil {
		// Lost a race against a concurrent create on the unique device index.
		existing, findErr := repo.FindOne(ctx, specification.ByAnonDevice{DeviceID: *session.AnonDeviceId})
		if findErr == nil && existing != nil {
			return existing, false, nil
		}
		return nil, false, err
	}
	return session, true, nil
}

func (s *GormChatStore) FindSession(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: id})
}

func (s *GormChatStore) FindDeviceSession(ctx context.Context, deviceId string) (*entity.ChatSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatSessionRepository().FindOne(ctx, specification.ByAnonDevice{DeviceID: deviceId})
}

func (s *GormChatStore) ListUserSessions(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.ChatSession, int64, error) {
	repo := s.uowFactory.NewUnitOfWork(ctx).ChatSessionRepository()

	sessions, err := repo.FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, 0, err
	}

	total, err := repo.Count(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (s *GormChatStore) RenameSession(ctx context.Context, id uuid.UUID, title string) (*entity.ChatSession, error) {
	repo := s.uowFactory.NewUnitOfWork(ctx).ChatSessionRepository()
	if _, err := repo.UpdateTitle(ctx, id, title); err != nil {
		return nil, err
	}
	return repo.FindOne(ctx, specification.ByID{ID: id})
}

func (s *GormChatStore) SetTitleIfDefault(ctx context.Context, id uuid.UUID, title, defaultTitle string) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatSessionRepository().UpdateTitleIfDefault(ctx, id, title, defaultTitle)
}

func (s *GormChatStore) BlockSession(ctx context.Context, id uuid.UUID, reason string, violation *entity.ModerationLog) (*entity.ChatSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	session, err := uow.ChatSessionRepository().FindOneForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	if _, err := uow.ChatSessionRepository().MarkBlocked(ctx, id, reason, s.now()); err != nil {
		return nil, err
	}
	if violation != nil {
		if err := uow.ModerationLogRepository().Create(ctx, violation); err != nil {
			return nil, err
		}
	}

	blocked, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return blocked, nil
}

func (s *GormChatStore) DeleteSession(ctx context.Context, id uuid.UUID) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}
	defer uow.Rollback()

	session, err := uow.ChatSessionRepository().FindOneForUpdate(ctx, id)
	if err != nil {
		return false, err
	}
	if session == nil || session.IsBlocked {
		return false, nil
	}

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, id); err != nil {
		return false, err
	}
	deleted, err := uow.ChatSessionRepository().DeleteIfNotBlocked(ctx, id)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}

	if err := uow.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *GormChatStore) SaveSummary(ctx context.Context, id uuid.UUID, summary string, messageCount int) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	_, err := uow.ChatSessionRepository().UpdateSummary(ctx, id, summary, messageCount, s.now())
	return err
}

func (s *GormChatStore) AppendMessage(ctx context.Context, message *entity.ChatMessage) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	// The row lock orders concurrent appends to the same session.
	session, err := uow.ChatSessionRepository().FindOneForUpdate(ctx, message.ChatSessionId)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session %s not found", message.ChatSessionId)
	}

	latest, err := uow.ChatMessageRepository().LatestCreatedAt(ctx, message.ChatSessionId)
	if err != nil {
		return err
	}

	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	message.CreatedAt = NextMessageTime(s.now(), latest)

	if err := uow.ChatMessageRepository().Create(ctx, message); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Touch(ctx, message.ChatSessionId, message.CreatedAt); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *GormChatStore) ListMessages(ctx context.Context, sessionId uuid.UUID, limit, offset int) ([]*entity.ChatMessage, int64, error) {
	repo := s.uowFactory.NewUnitOfWork(ctx).ChatMessageRepository()

	messages, err := repo.FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.Chronological{},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, 0, err
	}

	total, err := repo.Count(ctx, specification.ByChatSessionID{ChatSessionID: sessionId})
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (s *GormChatStore) AllMessages(ctx context.Context, sessionId uuid.UUID) ([]*entity.ChatMessage, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.Chronological{},
	)
}

func (s *GormChatStore) CountMessages(ctx context.Context, sessionId uuid.UUID, role string) (int64, error) {
	specs := []specification.Specification{specification.ByChatSessionID{ChatSessionID: sessionId}}
	if role != "" {
		specs = append(specs, specification.Filter("role", role))
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatMessageRepository().Count(ctx, specs...)
}

func (s *GormChatStore) LastMessage(ctx context.Context, sessionId uuid.UUID) (*entity.ChatMessage, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatMessageRepository().FindOne(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.Chronological{Desc: true},
	)
}

// NextMessageTime returns a timestamp at microsecond precision that is
// strictly after latest, so reads ordered by created_at match append order.
func NextMessageTime(now time.Time, latest *time.Time) time.Time {
	next := now.UTC().Truncate(time.Microsecond)
	if latest != nil {
		floor := latest.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
		if next.Before(floor) {
			next = floor
		}
	}
	return next
}
