package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id           uuid.UUID
	UserId       *uuid.UUID
	AnonDeviceId *string
	GroupScope   string
	Title        string

	IsBlocked     bool
	BlockedReason string
	BlockedAt     *time.Time
	IsActive      bool

	// Running synopsis of the oldest SummaryMessageCount messages.
	Summary             string
	SummaryMessageCount int
	SummaryUpdatedAt    *time.Time

	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

// OwnedBy reports whether the principal owns the session. Admins read any session.
func (s *ChatSession) OwnedBy(p Principal) bool {
	if p.IsAdmin() {
		return true
	}
	if p.UserId != nil {
		return s.UserId != nil && *s.UserId == *p.UserId
	}
	return s.AnonDeviceId != nil && p.DeviceId != "" && *s.AnonDeviceId == p.DeviceId
}

func (s *ChatSession) IsAnonymous() bool {
	return s.UserId == nil
}
