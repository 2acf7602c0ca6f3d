package contract

import (
	"context"
	"time"

	"soulscript-chat-be/internal/entity"
	"soulscript-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	Update(ctx context.Context, session *entity.ChatSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// FindOneForUpdate locks the session row until the surrounding transaction ends.
	FindOneForUpdate(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error)

	// The conditional writes below report whether a row changed.
	MarkBlocked(ctx context.Context, id uuid.UUID, reason string, at time.Time) (bool, error)
	UpdateTitleIfDefault(ctx context.Context, id uuid.UUID, title, defaultTitle string) (bool, error)
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) (bool, error)
	DeleteIfNotBlocked(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateSummary(ctx context.Context, id uuid.UUID, summary string, messageCount int, at time.Time) (bool, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
}
