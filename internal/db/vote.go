package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/grooveray/internal/models"
	"gorm.io/gorm"
)

// VoteRepository handles the vote ledger
type VoteRepository struct {
	conn *gorm.DB
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(db *DB) *VoteRepository {
	return &VoteRepository{conn: db.DB}
}

// WithTx returns a copy of the repository bound to tx
func (r *VoteRepository) WithTx(tx *gorm.DB) *VoteRepository {
	return &VoteRepository{conn: tx}
}

// Create records a vote. A repeated (station, user, item) triple yields ErrDuplicate.
func (r *VoteRepository) Create(ctx context.Context, vote *models.Vote) error {
	result := r.conn.WithContext(ctx).Create(vote)
	if result.Error != nil {
		return fmt.Errorf("failed to create vote: %w", MapGormError(result.Error))
	}
	return nil
}

// Delete removes a vote and returns how many rows were deleted (0 or 1)
func (r *VoteRepository) Delete(ctx context.Context, stationID uuid.UUID, userID string, queueID uuid.UUID) (int64, error) {
	result := r.conn.WithContext(ctx).
		Where("station_id = ? AND user_id = ? AND queue_id = ?", stationID.String(), userID, queueID.String()).
		Delete(&models.Vote{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete vote: %w", MapGormError(result.Error))
	}
	return result.RowsAffected, nil
}

// VotedQueueIDs returns the items of a station the user has voted for
func (r *VoteRepository) VotedQueueIDs(ctx context.Context, stationID uuid.UUID, userID string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	result := r.conn.WithContext(ctx).
		Model(&models.Vote{}).
		Where("station_id = ? AND user_id = ?", stationID.String(), userID).
		Pluck("queue_id", &ids)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list votes: %w", MapGormError(result.Error))
	}
	return ids, nil
}

// Count returns the number of votes recorded for an item
func (r *VoteRepository) Count(ctx context.Context, queueID uuid.UUID) (int64, error) {
	var count int64
	result := r.conn.WithContext(ctx).Model(&models.Vote{}).Where("queue_id = ?", queueID.String()).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count votes: %w", MapGormError(result.Error))
	}
	return count, nil
}
