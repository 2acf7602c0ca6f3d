package dto

import (
	"time"

	"github.com/google/uuid"
)

type PageQuery struct {
	Limit  int `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int `query:"offset" validate:"omitempty,min=0"`
}

// Normalize applies the default page size.
func (q *PageQuery) Normalize() {
	if q.Limit == 0 {
		q.Limit = 20
	}
}

type CreateSessionRequest struct {
	Title string `json:"title" validate:"omitempty,max=255"`
}

type RenameSessionRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

type SessionResponse struct {
	Id            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	IsBlocked     bool       `json:"is_blocked"`
	BlockedReason string     `json:"blocked_reason,omitempty"`
	BlockedAt     *time.Time `json:"blocked_at,omitempty"`
	IsActive      bool       `json:"is_active"`
	Anonymous     bool       `json:"anonymous"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

type SessionSummaryResponse struct {
	Session      *SessionResponse `json:"session"`
	MessageCount int64            `json:"message_count"`
	LastMessage  *MessageResponse `json:"last_message"`
}

type MessageResponse struct {
	Id            uuid.UUID `json:"id"`
	ChatSessionId uuid.UUID `json:"chat_session_id"`
	Role          string    `json:"role"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
	// Stream selects an SSE response; otherwise the call returns once the turn ends.
	Stream bool `json:"stream"`
}

// TurnResponse is the persisted-state confirmation that ends a turn.
type TurnResponse struct {
	ChatSessionId    uuid.UUID        `json:"chat_session_id"`
	Title            string           `json:"title"`
	Outcome          string           `json:"outcome"`
	IsBlocked        bool             `json:"is_blocked"`
	BlockedReason    string           `json:"blocked_reason,omitempty"`
	Reply            string           `json:"reply"`
	UserMessage      *MessageResponse `json:"user_message,omitempty"`
	AssistantMessage *MessageResponse `json:"assistant_message,omitempty"`
}

// TurnErrorResponse is the payload of the SSE "error" event.
type TurnErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type TokenResponse struct {
	Content string `json:"content"`
}

type QuotaResponse struct {
	Limit     int       `json:"limit"`
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	ResetsAt  time.Time `json:"resets_at"`
}
