package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatSession struct {
	Id           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       *uuid.UUID `gorm:"type:uuid;index"`
	AnonDeviceId *string    `gorm:"type:varchar(128);uniqueIndex"`
	GroupScope   string     `gorm:"type:varchar(100);not null;default:'default'"`
	Title        string     `gorm:"type:text;not null"`

	IsBlocked     bool       `gorm:"not null;default:false;index"`
	BlockedReason string     `gorm:"type:text"`
	BlockedAt     *time.Time
	IsActive      bool       `gorm:"not null;default:true"`

	Summary             string `gorm:"type:text"`
	SummaryMessageCount int    `gorm:"not null;default:0"`
	SummaryUpdatedAt    *time.Time

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime;index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
