package models

import (
	"time"

	"github.com/google/uuid"
)

// Station is a shared listening room with its own queue and playback state
type Station struct {
	ID          uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name        string    `json:"name" gorm:"type:text;not null;column:name"`
	Slug        string    `json:"slug" gorm:"type:text;not null;uniqueIndex;column:slug"`
	Description *string   `json:"description" gorm:"type:text;column:description"`
	ImageURL    *string   `json:"image_url" gorm:"type:text;column:image_url"`
	OwnerID     string    `json:"owner_id" gorm:"type:text;not null;column:owner_id"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// NewStation creates a new Station with generated UUID and timestamps
func NewStation(name, slug, ownerID string) *Station {
	now := time.Now().UTC()
	return &Station{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
