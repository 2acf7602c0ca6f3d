package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ModerationLog rows are append-only.
type ModerationLog struct {
	Id              uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserRef         string            `gorm:"type:varchar(200);not null;index"`
	ChatSessionId   *uuid.UUID        `gorm:"type:uuid;index"`
	ContentType     string            `gorm:"type:varchar(20);not null;index"`
	OriginalContent string            `gorm:"type:text;not null"`
	BlockedReason   string            `gorm:"type:text;not null"`
	Categories      datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt       time.Time         `gorm:"autoCreateTime;index"`
}

func (ModerationLog) TableName() string {
	return "moderation_logs"
}
