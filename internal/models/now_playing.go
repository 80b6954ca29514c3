package models

import (
	"time"

	"github.com/google/uuid"
)

// NowPlaying is the authoritative playback record of a station. There is at
// most one row per station; its absence means the station is idle.
type NowPlaying struct {
	StationID uuid.UUID `json:"station_id" gorm:"type:text;primaryKey;column:station_id"`
	QueueID   uuid.UUID `json:"queue_id" gorm:"type:text;not null;column:queue_id"`
	StartedAt time.Time `json:"started_at" gorm:"not null;column:started_at"`
}

// TableName overrides the default pluralised table name
func (NowPlaying) TableName() string {
	return "station_now_playing"
}
