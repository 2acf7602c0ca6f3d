package dto

import (
	"time"

	"github.com/google/uuid"
)

type ModerationLogQuery struct {
	PageQuery
	UserId      string `query:"user_id" validate:"omitempty,max=128"`
	ContentType string `query:"content_type" validate:"omitempty,oneof=user_input ai_response"`
}

type ModerationLogResponse struct {
	Id              uuid.UUID          `json:"id"`
	UserRef         string             `json:"user_id"`
	ChatSessionId   *uuid.UUID         `json:"chat_session_id"`
	ContentType     string             `json:"content_type"`
	OriginalContent string             `json:"original_content"`
	BlockedReason   string             `json:"blocked_reason"`
	Categories      map[string]float64 `json:"categories,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

type ModerationStatisticsResponse struct {
	TotalViolations      int64 `json:"total_violations"`
	TodayViolations      int64 `json:"today_violations"`
	UserInputViolations  int64 `json:"user_input_violations"`
	AiResponseViolations int64 `json:"ai_response_violations"`
}

// ModerationAlert is pushed to connected admins for every blocked text.
type ModerationAlert struct {
	ModerationLogId uuid.UUID  `json:"moderation_log_id"`
	UserRef         string     `json:"user_id"`
	ChatSessionId   *uuid.UUID `json:"chat_session_id"`
	ContentType     string     `json:"content_type"`
	BlockedReason   string     `json:"blocked_reason"`
	CreatedAt       time.Time  `json:"created_at"`
}

type AlertLogQuery struct {
	PageQuery
	Level string `query:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR"`
}

type AlertLogResponse struct {
	Id        string                 `json:"id"`
	Level     string                 `json:"level"`
	Module    string                 `json:"module"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp"`
}
