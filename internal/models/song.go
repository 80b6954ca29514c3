package models

import (
	"time"

	"github.com/google/uuid"
)

// Song sources
const (
	SongSourceUpload  = "upload"
	SongSourceYouTube = "youtube"
	SongSourceLink    = "link"
)

// Song is an entry in the track store. Audio bytes live elsewhere; clients
// resolve FilePath or the source URL themselves.
type Song struct {
	ID              uuid.UUID  `json:"id" gorm:"type:text;primaryKey;column:id"`
	Title           string     `json:"title" gorm:"type:text;not null;column:title"`
	Artist          *string    `json:"artist" gorm:"type:text;column:artist"`
	Source          string     `json:"source" gorm:"type:text;not null;column:source"`
	FilePath        *string    `json:"file_path" gorm:"type:text;column:file_path"`
	DurationSeconds *int64     `json:"duration_seconds" gorm:"type:integer;column:duration_seconds"`
	ThumbnailURL    *string    `json:"thumbnail_url" gorm:"type:text;column:thumbnail_url"`
	AddedBy         string     `json:"added_by" gorm:"type:text;not null;column:added_by"`
	LastPlayedAt    *time.Time `json:"last_played_at" gorm:"column:last_played_at"`
	CreatedAt       time.Time  `json:"created_at" gorm:"column:created_at"`
}

// NewSong creates a new Song with generated UUID and timestamp
func NewSong(title, source, addedBy string) *Song {
	return &Song{
		ID:        uuid.New(),
		Title:     title,
		Source:    source,
		AddedBy:   addedBy,
		CreatedAt: time.Now().UTC(),
	}
}
