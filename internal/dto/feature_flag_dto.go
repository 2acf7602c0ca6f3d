package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateFeatureFlagRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1000"`
}

type UpdateFeatureFlagRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	IsEnabled   *bool   `json:"is_enabled,omitempty"`
}

type FeatureFlagResponse struct {
	Id           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	IsEnabled    bool      `json:"is_enabled"`
	IsPredefined bool      `json:"is_predefined"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type FeatureFlagListResponse struct {
	Data  []*FeatureFlagResponse `json:"data"`
	Count int                    `json:"count"`
}

type InitializeFlagsResponse struct {
	Created int `json:"created"`
}
