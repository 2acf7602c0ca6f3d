package contract

import (
	"context"

	"soulscript-chat-be/internal/entity"
	"soulscript-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type FeatureFlagRepository interface {
	Create(ctx context.Context, flag *entity.FeatureFlag) error
	Update(ctx context.Context, flag *entity.FeatureFlag) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FeatureFlag, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FeatureFlag, error)
	FindByName(ctx context.Context, name string) (*entity.FeatureFlag, error)
}
