package mapper

import (
	"soulscript-chat-be/internal/entity"
	"soulscript-chat-be/internal/model"

	"gorm.io/datatypes"
)

type ModerationMapper struct{}

func NewModerationMapper() *ModerationMapper {
	return &ModerationMapper{}
}

func (m *ModerationMapper) ToEntity(log *model.ModerationLog) *entity.ModerationLog {
	if log == nil {
		return nil
	}

	var categories map[string]float64
	if len(log.Categories) > 0 {
		categories = make(map[string]float64, len(log.Categories))
		for k, v := range log.Categories {
			// jsonb numbers come back as float64
			if score, ok := v.(float64); ok {
				categories[k] = score
			}
		}
	}

	return &entity.ModerationLog{
		Id:              log.Id,
		UserRef:         log.UserRef,
		ChatSessionId:   log.ChatSessionId,
		ContentType:     log.ContentType,
		OriginalContent: log.OriginalContent,
		BlockedReason:   log.BlockedReason,
		Categories:      categories,
		CreatedAt:       log.CreatedAt,
	}
}

func (m *ModerationMapper) ToModel(log *entity.ModerationLog) *model.ModerationLog {
	if log == nil {
		return nil
	}

	var categories datatypes.JSONMap
	if len(log.Categories) > 0 {
		categories = make(datatypes.JSONMap, len(log.Categories))
		for k, v := range log.Categories {
			categories[k] = v
		}
	}

	return &model.ModerationLog{
		Id:              log.Id,
		UserRef:         log.UserRef,
		ChatSessionId:   log.ChatSessionId,
		ContentType:     log.ContentType,
		OriginalContent: log.OriginalContent,
		BlockedReason:   log.BlockedReason,
		Categories:      categories,
		CreatedAt:       log.CreatedAt,
	}
}

func (m *ModerationMapper) ToEntities(models []*model.ModerationLog) []*entity.ModerationLog {
	entities := make([]*entity.ModerationLog, 0, len(models))
	for _, mdl := range models {
		entities = append(entities, m.ToEntity(mdl))
	}
	return entities
}
