package models

import (
	"time"

	"github.com/google/uuid"
)

// Vote is one user's upvote on one queued item of a station
type Vote struct {
	StationID uuid.UUID `json:"station_id" gorm:"type:text;primaryKey;column:station_id"`
	UserID    string    `json:"user_id" gorm:"type:text;primaryKey;column:user_id"`
	QueueID   uuid.UUID `json:"queue_id" gorm:"type:text;primaryKey;column:queue_id"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}

// TableName overrides the default pluralised table name
func (Vote) TableName() string {
	return "station_votes"
}

// NewVote creates a Vote stamped with the current time
func NewVote(stationID uuid.UUID, userID string, queueID uuid.UUID) *Vote {
	return &Vote{
		StationID: stationID,
		UserID:    userID,
		QueueID:   queueID,
		CreatedAt: time.Now().UTC(),
	}
}
