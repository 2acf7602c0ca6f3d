package mapper

import (
	"time"

	"soulscript-chat-be/internal/entity"
	"soulscript-chat-be/internal/model"

	"gorm.io/gorm"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatSession{
		Id:                  s.Id,
		UserId:              s.UserId,
		AnonDeviceId:        s.AnonDeviceId,
		GroupScope:          s.GroupScope,
		Title:               s.Title,
		IsBlocked:           s.IsBlocked,
		BlockedReason:       s.BlockedReason,
		BlockedAt:           s.BlockedAt,
		IsActive:            s.IsActive,
		Summary:             s.Summary,
		SummaryMessageCount: s.SummaryMessageCount,
		SummaryUpdatedAt:    s.SummaryUpdatedAt,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           updatedAt,
		DeletedAt:           deletedAt,
		IsDeleted:           s.DeletedAt.Valid,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ChatSession{
		Id:                  s.Id,
		UserId:              s.UserId,
		AnonDeviceId:        s.AnonDeviceId,
		GroupScope:          s.GroupScope,
		Title:               s.Title,
		IsBlocked:           s.IsBlocked,
		BlockedReason:       s.BlockedReason,
		BlockedAt:           s.BlockedAt,
		IsActive:            s.IsActive,
		Summary:             s.Summary,
		SummaryMessageCount: s.SummaryMessageCount,
		SummaryUpdatedAt:    s.SummaryUpdatedAt,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           updatedAt,
		DeletedAt:           deletedAt,
	}
}

func (m *ChatMapper) ChatSessionsToEntities(models []*model.ChatSession) []*entity.ChatSession {
	entities := make([]*entity.ChatSession, 0, len(models))
	for _, s := range models {
		entities = append(entities, m.ChatSessionToEntity(s))
	}
	return entities
}

// Message Mappers

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}
	return &entity.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Role:          msg.Role,
		Content:       msg.Content,
		CreatedAt:     msg.CreatedAt,
	}
}

func (m *ChatMapper) ChatMessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}
	return &model.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Role:          msg.Role,
		Content:       msg.Content,
		CreatedAt:     msg.CreatedAt,
	}
}

func (m *ChatMapper) ChatMessagesToEntities(models []*model.ChatMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, 0, len(models))
	for _, msg := range models {
		entities = append(entities, m.ChatMessageToEntity(msg))
	}
	return entities
}
