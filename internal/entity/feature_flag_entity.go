package entity

import (
	"time"

	"github.com/google/uuid"
)

type FeatureFlag struct {
	Id           uuid.UUID
	Name         string
	Description  string
	IsEnabled    bool
	IsPredefined bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
