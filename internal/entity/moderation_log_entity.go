package entity

import (
	"time"

	"github.com/google/uuid"
)

type ModerationLog struct {
	Id              uuid.UUID
	UserRef         string
	ChatSessionId   *uuid.UUID
	ContentType     string
	OriginalContent string
	BlockedReason   string
	Categories      map[string]float64
	CreatedAt       time.Time
}
