package contract

import (
	"context"

	"soulscript-chat-be/internal/entity"
	"soulscript-chat-be/internal/repository/specification"
)

// ModerationLogRepository is append-only.
type ModerationLogRepository interface {
	Create(ctx context.Context, log *entity.ModerationLog) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ModerationLog, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
