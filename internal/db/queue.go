package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/grooveray/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// rankedOrder is the canonical queue order. position breaks ties between
// items added within the same timestamp so the order is total.
const rankedOrder = "votes DESC, added_at ASC, position ASC"

// QueueRepository handles database operations for station queues
type QueueRepository struct {
	conn *gorm.DB
}

// NewQueueRepository creates a new queue repository
func NewQueueRepository(db *DB) *QueueRepository {
	return &QueueRepository{conn: db.DB}
}

// WithTx returns a copy of the repository bound to tx
func (r *QueueRepository) WithTx(tx *gorm.DB) *QueueRepository {
	return &QueueRepository{conn: tx}
}

// Create inserts a queued item. A song already waiting in the station's
// queue yields ErrDuplicate.
func (r *QueueRepository) Create(ctx context.Context, item *models.QueuedItem) error {
	result := r.conn.WithContext(ctx).Omit("Song").Create(item)
	if result.Error != nil {
		return fmt.Errorf("failed to create queued item: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a queued item with its song
func (r *QueueRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.QueuedItem, error) {
	var item models.QueuedItem
	result := r.conn.WithContext(ctx).
		Preload("Song").
		Where("id = ?", id.String()).
		First(&item)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &item, nil
}

// GetForUpdate retrieves a queued item inside a transaction, taking a row
// lock where the driver supports one. SQLite transactions already hold the
// database write lock.
func (r *QueueRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.QueuedItem, error) {
	query := r.conn.WithContext(ctx)
	if r.conn.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}

	var item models.QueuedItem
	result := query.Where("id = ?", id.String()).First(&item)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &item, nil
}

// Ranked returns the unplayed items of a station in playback order
func (r *QueueRepository) Ranked(ctx context.Context, stationID uuid.UUID) ([]*models.QueuedItem, error) {
	items := make([]*models.QueuedItem, 0)
	result := r.conn.WithContext(ctx).
		Preload("Song").
		Where("station_id = ? AND played_at IS NULL", stationID.String()).
		Order(rankedOrder).
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get ranked queue: %w", MapGormError(result.Error))
	}
	return items, nil
}

// NextPosition returns one past the highest position ever used in the
// station. Positions start at 1.
func (r *QueueRepository) NextPosition(ctx context.Context, stationID uuid.UUID) (int, error) {
	var maxPos sql.NullInt64
	row := r.conn.WithContext(ctx).
		Model(&models.QueuedItem{}).
		Where("station_id = ?", stationID.String()).
		Select("MAX(position)").
		Row()
	if err := row.Scan(&maxPos); err != nil {
		return 0, fmt.Errorf("failed to get next position: %w", MapGormError(err))
	}
	if !maxPos.Valid {
		return 1, nil
	}
	return int(maxPos.Int64) + 1, nil
}

// MarkPlayed sets played_at on an item that has not been played yet. It
// returns false when the item was already retired by someone else.
func (r *QueueRepository) MarkPlayed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.conn.WithContext(ctx).
		Model(&models.QueuedItem{}).
		Where("id = ? AND played_at IS NULL", id.String()).
		Update("played_at", at.UTC())
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark queued item played: %w", MapGormError(result.Error))
	}
	return result.RowsAffected == 1, nil
}

// AdjustVotes adds delta to the item's vote count, never going below zero
func (r *QueueRepository) AdjustVotes(ctx context.Context, id uuid.UUID, delta int) error {
	result := r.conn.WithContext(ctx).
		Model(&models.QueuedItem{}).
		Where("id = ?", id.String()).
		Update("votes", gorm.Expr("CASE WHEN votes + ? < 0 THEN 0 ELSE votes + ? END", delta, delta))
	if result.Error != nil {
		return fmt.Errorf("failed to adjust votes: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
