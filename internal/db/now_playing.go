package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/grooveray/internal/models"
	"gorm.io/gorm"
)

// NowPlayingRepository handles the per-station playback record
type NowPlayingRepository struct {
	conn *gorm.DB
}

// NewNowPlayingRepository creates a new now-playing repository
func NewNowPlayingRepository(db *DB) *NowPlayingRepository {
	return &NowPlayingRepository{conn: db.DB}
}

// WithTx returns a copy of the repository bound to tx
func (r *NowPlayingRepository) WithTx(tx *gorm.DB) *NowPlayingRepository {
	return &NowPlayingRepository{conn: tx}
}

// Get returns the station's record, or ErrNotFound when the station is idle
func (r *NowPlayingRepository) Get(ctx context.Context, stationID uuid.UUID) (*models.NowPlaying, error) {
	var np models.NowPlaying
	result := r.conn.WithContext(ctx).Where("station_id = ?", stationID.String()).First(&np)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &np, nil
}

// Insert creates the station's record. The station_id primary key makes a
// second concurrent insert fail with ErrDuplicate.
func (r *NowPlayingRepository) Insert(ctx context.Context, np *models.NowPlaying) error {
	result := r.conn.WithContext(ctx).Create(np)
	if result.Error != nil {
		return fmt.Errorf("failed to insert now playing: %w", MapGormError(result.Error))
	}
	return nil
}

// DeleteIfMatches removes the station's record only while it still points at
// queueID. It returns false if another writer already replaced or removed it.
func (r *NowPlayingRepository) DeleteIfMatches(ctx context.Context, stationID, queueID uuid.UUID) (bool, error) {
	result := r.conn.WithContext(ctx).
		Where("station_id = ? AND queue_id = ?", stationID.String(), queueID.String()).
		Delete(&models.NowPlaying{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete now playing: %w", MapGormError(result.Error))
	}
	return result.RowsAffected == 1, nil
}

// ListStationIDs returns every station that currently has a record
func (r *NowPlayingRepository) ListStationIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	result := r.conn.WithContext(ctx).
		Model(&models.NowPlaying{}).
		Order("started_at ASC").
		Pluck("station_id", &ids)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list active stations: %w", MapGormError(result.Error))
	}
	return ids, nil
}
