package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/grooveray/internal/models"
	"gorm.io/gorm"
)

// SongRepository handles database operations for the track store
type SongRepository struct {
	conn *gorm.DB
}

// NewSongRepository creates a new song repository
func NewSongRepository(db *DB) *SongRepository {
	return &SongRepository{conn: db.DB}
}

// WithTx returns a copy of the repository bound to tx
func (r *SongRepository) WithTx(tx *gorm.DB) *SongRepository {
	return &SongRepository{conn: tx}
}

// Create inserts a new song
func (r *SongRepository) Create(ctx context.Context, song *models.Song) error {
	result := r.conn.WithContext(ctx).Create(song)
	if result.Error != nil {
		return fmt.Errorf("failed to create song: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a song by its UUID
func (r *SongRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Song, error) {
	var song models.Song
	result := r.conn.WithContext(ctx).Where("id = ?", id.String()).First(&song)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &song, nil
}

// List retrieves songs with pagination, newest first
func (r *SongRepository) List(ctx context.Context, limit, offset int) ([]*models.Song, error) {
	var songs []*models.Song
	query := r.conn.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	result := query.Find(&songs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list songs: %w", MapGormError(result.Error))
	}
	return songs, nil
}

// Count returns the total number of songs
func (r *SongRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	result := r.conn.WithContext(ctx).Model(&models.Song{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count songs: %w", MapGormError(result.Error))
	}
	return count, nil
}

// MarkPlayed records when a song last finished playing on any station
func (r *SongRepository) MarkPlayed(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.conn.WithContext(ctx).
		Model(&models.Song{}).
		Where("id = ?", id.String()).
		Update("last_played_at", at.UTC())
	if result.Error != nil {
		return fmt.Errorf("failed to mark song played: %w", MapGormError(result.Error))
	}
	return nil
}
