package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/grooveray/internal/models"
	"gorm.io/gorm"
)

// StationRepository handles database operations for stations
type StationRepository struct {
	conn *gorm.DB
}

// NewStationRepository creates a new station repository
func NewStationRepository(db *DB) *StationRepository {
	return &StationRepository{conn: db.DB}
}

// WithTx returns a copy of the repository bound to tx
func (r *StationRepository) WithTx(tx *gorm.DB) *StationRepository {
	return &StationRepository{conn: tx}
}

// Create inserts a new station. A taken slug yields ErrDuplicate.
func (r *StationRepository) Create(ctx context.Context, station *models.Station) error {
	result := r.conn.WithContext(ctx).Create(station)
	if result.Error != nil {
		return fmt.Errorf("failed to create station: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a station by its UUID
func (r *StationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Station, error) {
	var station models.Station
	result := r.conn.WithContext(ctx).Where("id = ?", id.String()).First(&station)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &station, nil
}

// GetBySlug retrieves a station by its slug
func (r *StationRepository) GetBySlug(ctx context.Context, slug string) (*models.Station, error) {
	var station models.Station
	result := r.conn.WithContext(ctx).Where("slug = ?", slug).First(&station)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &station, nil
}

// SlugExists reports whether a station already uses slug
func (r *StationRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	result := r.conn.WithContext(ctx).Model(&models.Station{}).Where("slug = ?", slug).Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check slug: %w", MapGormError(result.Error))
	}
	return count > 0, nil
}

// Exists reports whether a station with id exists
func (r *StationRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	result := r.conn.WithContext(ctx).Model(&models.Station{}).Where("id = ?", id.String()).Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check station: %w", MapGormError(result.Error))
	}
	return count > 0, nil
}

// List retrieves all stations ordered by creation date (newest first)
func (r *StationRepository) List(ctx context.Context) ([]*models.Station, error) {
	var stations []*models.Station
	result := r.conn.WithContext(ctx).Order("created_at DESC").Find(&stations)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list stations: %w", MapGormError(result.Error))
	}
	return stations, nil
}

// Update writes the editable metadata of a station
func (r *StationRepository) Update(ctx context.Context, station *models.Station) error {
	station.UpdatedAt = time.Now().UTC()

	// Select forces nil description / image_url to be written as NULL
	result := r.conn.WithContext(ctx).
		Where("id = ?", station.ID.String()).
		Select("name", "description", "image_url", "updated_at").
		Updates(station)
	if result.Error != nil {
		return fmt.Errorf("failed to update station: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
