package mapper

import (
	"soulscript-chat-be/internal/entity"
	"soulscript-chat-be/internal/model"
)

type FeatureFlagMapper struct{}

func NewFeatureFlagMapper() *FeatureFlagMapper {
	return &FeatureFlagMapper{}
}

func (m *FeatureFlagMapper) ToEntity(model *model.FeatureFlag) *entity.FeatureFlag {
	if model == nil {
		return nil
	}
	return &entity.FeatureFlag{
		Id:           model.Id,
		Name:         model.Name,
		Description:  model.Description,
		IsEnabled:    model.IsEnabled,
		IsPredefined: model.IsPredefined,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

func (m *FeatureFlagMapper) ToModel(entity *entity.FeatureFlag) *model.FeatureFlag {
	if entity == nil {
		return nil
	}
	return &model.FeatureFlag{
		Id:           entity.Id,
		Name:         entity.Name,
		Description:  entity.Description,
		IsEnabled:    entity.IsEnabled,
		IsPredefined: entity.IsPredefined,
		CreatedAt:    entity.CreatedAt,
		UpdatedAt:    entity.UpdatedAt,
	}
}

func (m *FeatureFlagMapper) ToEntities(models []*model.FeatureFlag) []*entity.FeatureFlag {
	entities := make([]*entity.FeatureFlag, 0, len(models))
	for _, mdl := range models {
		entities = append(entities, m.ToEntity(mdl))
	}
	return entities
}
