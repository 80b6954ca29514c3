package station

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/grooveray/internal/db"
	"github.com/stwalsh4118/grooveray/internal/logger"
	"github.com/stwalsh4118/grooveray/internal/metrics"
	"github.com/stwalsh4118/grooveray/internal/models"
	"github.com/stwalsh4118/grooveray/internal/realtime"
	"gorm.io/gorm"
)

// Vote ledger results for metrics
const (
	voteCast      = "cast"
	voteDuplicate = "duplicate"
	voteRetracted = "retracted"
	voteNoop      = "noop"
)

// QueueService handles the ranked queue and the vote ledger of stations.
// Every successful mutation publishes the fresh ranked queue.
type QueueService struct {
	db          *db.DB
	repos       *db.Repositories
	broadcaster realtime.Broadcaster
}

// NewQueueService creates a new queue service instance
func NewQueueService(database *db.DB, repos *db.Repositories, broadcaster realtime.Broadcaster) *QueueService {
	return &QueueService{
		db:          database,
		repos:       repos,
		broadcaster: broadcaster,
	}
}

// RankedQueue returns the station's unplayed items ordered by votes, then by
// when they were added. It is recomputed from storage on every call.
func (s *QueueService) RankedQueue(ctx context.Context, stationID uuid.UUID) ([]*models.QueuedItem, error) {
	if err := ensureStation(ctx, s.repos, stationID); err != nil {
		return nil, err
	}

	queue, err := s.repos.Queue.Ranked(ctx, stationID)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("station_id", stationID.String()).
			Msg("Failed to get ranked queue")
		return nil, fmt.Errorf("failed to get queue: %w", err)
	}
	return queue, nil
}

// Enqueue appends a song at the tail of the station's queue
func (s *QueueService) Enqueue(ctx context.Context, stationID, songID uuid.UUID, userID string) (*models.QueuedItem, error) {
	if _, err := s.repos.Songs.GetByID(ctx, songID); err != nil {
		if db.IsNotFound(err) {
			logger.Log.Debug().
				Str("song_id", songID.String()).
				Msg("Enqueue rejected: song not found")
			return nil, ErrSongNotFound
		}
		return nil, fmt.Errorf("failed to enqueue song: %w", err)
	}
	if err := ensureStation(ctx, s.repos, stationID); err != nil {
		return nil, err
	}

	var item *models.QueuedItem
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		txRepos := s.repos.WithTx(tx)

		position, err := txRepos.Queue.NextPosition(ctx, stationID)
		if err != nil {
			return err
		}

		item = models.NewQueuedItem(stationID, songID, userID, position)
		return txRepos.Queue.Create(ctx, item)
	})
	if err != nil {
		if db.IsDuplicate(err) {
			logger.Log.Warn().
				Str("station_id", stationID.String()).
				Str("song_id", songID.String()).
				Msg("Enqueue rejected: song already in queue")
			return nil, ErrAlreadyQueued
		}
		logger.Log.Error().
			Err(err).
			Str("station_id", stationID.String()).
			Str("song_id", songID.String()).
			Msg("Failed to enqueue song")
		return nil, fmt.Errorf("failed to enqueue song: %w", err)
	}

	metrics.EnqueuedTotal.Inc()
	logger.Log.Info().
		Str("station_id", stationID.String()).
		Str("queue_id", item.ID.String()).
		Str("song_id", songID.String()).
		Str("user_id", userID).
		Int("position", item.Position).
		Msg("Song queued")

	created, err := s.repos.Queue.GetByID(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload queued item: %w", err)
	}
	s.publishQueue(ctx, stationID)
	return created, nil
}

// CastVote records userID's upvote on a queued item and increments its count
// in the same transaction. Voting twice yields ErrDuplicateVote; voting on an
// item that was already played, or that belongs to another station, yields
// ErrQueueItemNotFound.
func (s *QueueService) CastVote(ctx context.Context, stationID, queueID uuid.UUID, userID string) (*models.QueuedItem, error) {
	if err := ensureStation(ctx, s.repos, stationID); err != nil {
		return nil, err
	}

	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		txRepos := s.repos.WithTx(tx)

		item, err := txRepos.Queue.GetForUpdate(ctx, queueID)
		if err != nil {
			if db.IsNotFound(err) {
				return ErrQueueItemNotFound
			}
			return err
		}
		if item.StationID != stationID || item.IsPlayed() {
			return ErrQueueItemNotFound
		}

		if err := txRepos.Votes.Create(ctx, models.NewVote(stationID, userID, queueID)); err != nil {
			if db.IsDuplicate(err) {
				return ErrDuplicateVote
			}
			return err
		}
		return txRepos.Queue.AdjustVotes(ctx, queueID, 1)
	})
	if err != nil {
		switch {
		case IsDuplicateVote(err):
			metrics.VotesTotal.WithLabelValues(voteDuplicate).Inc()
			logger.Log.Warn().
				Str("station_id", stationID.String()).
				Str("queue_id", queueID.String()).
				Str("user_id", userID).
				Msg("Vote rejected: already voted")
			return nil, ErrDuplicateVote
		case IsNotFound(err):
			logger.Log.Debug().
				Str("station_id", stationID.String()).
				Str("queue_id", queueID.String()).
				Msg("Vote rejected: queue item not found")
			return nil, ErrQueueItemNotFound
		}
		logger.Log.Error().
			Err(err).
			Str("station_id", stationID.String()).
			Str("queue_id", queueID.String()).
			Msg("Failed to cast vote")
		return nil, fmt.Errorf("failed to cast vote: %w", err)
	}

	metrics.VotesTotal.WithLabelValues(voteCast).Inc()
	logger.Log.Info().
		Str("station_id", stationID.String()).
		Str("queue_id", queueID.String()).
		Str("user_id", userID).
		Msg("Vote cast")

	updated, err := s.repos.Queue.GetByID(ctx, queueID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload queued item: %w", err)
	}
	s.publishQueue(ctx, stationID)
	return updated, nil
}

// RetractVote removes userID's vote if there is one and decrements the count
// only when a vote row was actually deleted, so repeated calls are harmless.
// It returns the item as it is now, or nil if the item does not exist.
func (s *QueueService) RetractVote(ctx context.Context, stationID, queueID uuid.UUID, userID string) (*models.QueuedItem, error) {
	if err := ensureStation(ctx, s.repos, stationID); err != nil {
		return nil, err
	}

	var deleted int64
	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		txRepos := s.repos.WithTx(tx)

		n, err := txRepos.Votes.Delete(ctx, stationID, userID, queueID)
		if err != nil {
			return err
		}
		deleted = n
		if n == 0 {
			return nil
		}
		return txRepos.Queue.AdjustVotes(ctx, queueID, -1)
	})
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("station_id", stationID.String()).
			Str("queue_id", queueID.String()).
			Msg("Failed to retract vote")
		return nil, fmt.Errorf("failed to retract vote: %w", err)
	}

	result := voteNoop
	if deleted > 0 {
		result = voteRetracted
		logger.Log.Info().
			Str("station_id", stationID.String()).
			Str("queue_id", queueID.String()).
			Str("user_id", userID).
			Msg("Vote retracted")
	}
	metrics.VotesTotal.WithLabelValues(result).Inc()

	item, err := s.repos.Queue.GetByID(ctx, queueID)
	if err != nil && !db.IsNotFound(err) {
		return nil, fmt.Errorf("failed to reload queued item: %w", err)
	}
	s.publishQueue(ctx, stationID)
	if err != nil {
		return nil, nil
	}
	return item, nil
}

// VotedItems returns the ids of the station's items userID has voted for
func (s *QueueService) VotedItems(ctx context.Context, stationID uuid.UUID, userID string) ([]uuid.UUID, error) {
	if err := ensureStation(ctx, s.repos, stationID); err != nil {
		return nil, err
	}
	ids, err := s.repos.Votes.VotedQueueIDs(ctx, stationID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	return ids, nil
}

// publishQueue broadcasts the current ranked queue. The mutation has already
// committed, so a failed read is logged and the event skipped; listeners
// resync on their next fetch.
func (s *QueueService) publishQueue(ctx context.Context, stationID uuid.UUID) {
	queue, err := s.repos.Queue.Ranked(ctx, stationID)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("station_id", stationID.String()).
			Msg("Failed to load queue for broadcast")
		return
	}
	s.broadcaster.Publish(stationID, realtime.EventQueue, queue)
}
