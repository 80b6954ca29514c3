package models

import (
	"time"

	"github.com/google/uuid"
)

// QueuedItem is one entry in a station's queue. Votes never go below zero and
// PlayedAt is set exactly once, when the item is retired by the advancer.
type QueuedItem struct {
	ID        uuid.UUID  `json:"id" gorm:"type:text;primaryKey;column:id"`
	StationID uuid.UUID  `json:"station_id" gorm:"type:text;not null;column:station_id"`
	SongID    uuid.UUID  `json:"song_id" gorm:"type:text;not null;column:song_id"`
	AddedBy   string     `json:"added_by" gorm:"type:text;not null;column:added_by"`
	Votes     int        `json:"votes" gorm:"type:integer;not null;default:0;column:votes"`
	Position  int        `json:"position" gorm:"type:integer;not null;column:position"`
	PlayedAt  *time.Time `json:"played_at" gorm:"column:played_at"`
	AddedAt   time.Time  `json:"added_at" gorm:"column:added_at"`

	Song *Song `json:"song,omitempty" gorm:"foreignKey:SongID;references:ID"`
}

// TableName overrides the default pluralised table name
func (QueuedItem) TableName() string {
	return "station_queue"
}

// NewQueuedItem creates an unplayed QueuedItem with zero votes
func NewQueuedItem(stationID, songID uuid.UUID, addedBy string, position int) *QueuedItem {
	return &QueuedItem{
		ID:        uuid.New(),
		StationID: stationID,
		SongID:    songID,
		AddedBy:   addedBy,
		Position:  position,
		AddedAt:   time.Now().UTC(),
	}
}

// IsPlayed reports whether the item has been retired
func (q *QueuedItem) IsPlayed() bool {
	return q.PlayedAt != nil
}
