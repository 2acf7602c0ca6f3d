package contract

import (
	"context"

	"soulscript-chat-be/internal/entity"

	"github.com/google/uuid"
)

// ChatStore is the persistence boundary of the chat engine. Every write is
// atomic with respect to concurrent readers of the same session.
type ChatStore interface {
	CreateSession(ctx context.Context, session *entity.ChatSession) error
	// GetOrCreateDeviceSession returns the single session of an anonymous device.
	GetOrCreateDeviceSession(ctx context.Context, session *entity.ChatSession) (*entity.ChatSession, bool, error)
	FindSession(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error)
	FindDeviceSession(ctx context.Context, deviceId string) (*entity.ChatSession, error)
	ListUserSessions(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.ChatSession, int64, error)

	RenameSession(ctx context.Context, id uuid.UUID, title string) (*entity.ChatSession, error)
	SetTitleIfDefault(ctx context.Context, id uuid.UUID, title, defaultTitle string) (bool, error)
	// BlockSession marks the session blocked and appends violation, when
	// given, in one transaction: either both are written or neither is.
	// Blocking is set-once, so an already blocked session keeps its first reason.
	BlockSession(ctx context.Context, id uuid.UUID, reason string, violation *entity.ModerationLog) (*entity.ChatSession, error)
	// DeleteSession returns false without deleting when the session is blocked.
	DeleteSession(ctx context.Context, id uuid.UUID) (bool, error)
	SaveSummary(ctx context.Context, id uuid.UUID, summary string, messageCount int) error

	// AppendMessage assigns a creation time strictly after the session's last message.
	AppendMessage(ctx context.Context, message *entity.ChatMessage) error
	ListMessages(ctx context.Context, sessionId uuid.UUID, limit, offset int) ([]*entity.ChatMessage, int64, error)
	AllMessages(ctx context.Context, sessionId uuid.UUID) ([]*entity.ChatMessage, error)
	CountMessages(ctx context.Context, sessionId uuid.UUID, role string) (int64, error)
	LastMessage(ctx context.Context, sessionId uuid.UUID) (*entity.ChatMessage, error)
}
