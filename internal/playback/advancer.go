// Package playback owns the authoritative now-playing state of stations and
// moves it forward as tracks end.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stwalsh4118/grooveray/internal/db"
	"github.com/stwalsh4118/grooveray/internal/logger"
	"github.com/stwalsh4118/grooveray/internal/metrics"
	"github.com/stwalsh4118/grooveray/internal/models"
	"github.com/stwalsh4118/grooveray/internal/realtime"
	"github.com/stwalsh4118/grooveray/internal/timeline"
	"gorm.io/gorm"
)

// Advancer moves stations from one track to the next.
//
// Callers in this process are serialised per station by a mutex. Writers in
// other processes are kept apart by the storage layer: retiring deletes the
// now-playing row only if it still references the track being retired, and
// promoting inserts under the station's primary key, so a loser of either
// step sees ErrRaceLost and re-reads the winner's state.
type Advancer struct {
	db              *db.DB
	repos           *db.Repositories
	broadcaster     realtime.Broadcaster
	defaultDuration time.Duration
	locks           sync.Map // uuid.UUID -> *sync.Mutex
	now             func() time.Time
	log             zerolog.Logger
}

// NewAdvancer creates an advancer. Tracks without a known duration play for
// defaultDuration; a non-positive value selects timeline.DefaultTrackDuration.
func NewAdvancer(database *db.DB, repos *db.Repositories, broadcaster realtime.Broadcaster, defaultDuration time.Duration) *Advancer {
	if defaultDuration <= 0 {
		defaultDuration = timeline.DefaultTrackDuration
	}
	return &Advancer{
		db:              database,
		repos:           repos,
		broadcaster:     broadcaster,
		defaultDuration: defaultDuration,
		now:             func() time.Time { return time.Now().UTC() },
		log:             logger.Component("playback"),
	}
}

// AdvanceNow advances the station at the current wall-clock time
func (a *Advancer) AdvanceNow(ctx context.Context, stationID uuid.UUID) (*State, error) {
	return a.Advance(ctx, stationID, a.now())
}

// Advance brings the station up to date as of now:
//
//   - a track that is still playing is left alone (no writes, no events);
//   - a finished track is retired and the queue head promoted, publishing
//     the queue and the new now-playing view, or a null view when the queue
//     is exhausted;
//   - an idle station promotes its queue head, publishing the new view.
//
// Calling it again with the same now and no other mutation returns the same
// state without writing.
func (a *Advancer) Advance(ctx context.Context, stationID uuid.UUID, now time.Time) (*State, error) {
	start := time.Now()
	defer func() {
		metrics.AdvanceDuration.Observe(time.Since(start).Seconds())
	}()

	now = now.UTC()

	mu := a.lockFor(stationID)
	mu.Lock()
	defer mu.Unlock()

	state, outcome, err := a.advance(ctx, stationID, now)
	if errors.Is(err, ErrRaceLost) {
		a.log.Debug().
			Str("station_id", stationID.String()).
			Msg("Advance lost race, returning current state")
		outcome = metrics.OutcomeRaceLost
		state, err = a.snapshot(ctx, stationID, now)
	}
	if err != nil {
		metrics.AdvancesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("failed to advance station: %w", err)
	}

	metrics.AdvancesTotal.WithLabelValues(outcome).Inc()
	return state, nil
}

func (a *Advancer) lockFor(stationID uuid.UUID) *sync.Mutex {
	mu, _ := a.locks.LoadOrStore(stationID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (a *Advancer) advance(ctx context.Context, stationID uuid.UUID, now time.Time) (*State, string, error) {
	current, err := a.repos.NowPlaying.Get(ctx, stationID)
	if err != nil && !db.IsNotFound(err) {
		return nil, "", err
	}

	retired := false
	if current != nil {
		item, pos, err := a.position(ctx, current, now)
		if err != nil {
			return nil, "", err
		}

		if item != nil && !pos.Finished {
			queue, err := a.repos.Queue.Ranked(ctx, stationID)
			if err != nil {
				return nil, "", err
			}
			return &State{
				NowPlaying: newView(current, item, pos, now),
				Queue:      upNext(queue, current.QueueID),
			}, metrics.OutcomeNoop, nil
		}

		if err := a.retire(ctx, current, item, now); err != nil {
			return nil, "", err
		}
		retired = true
	}

	// The station is idle from here on. If anything below fails the next
	// advance finds it idle and promotes the head again.
	queue, err := a.repos.Queue.Ranked(ctx, stationID)
	if err != nil {
		return nil, "", err
	}

	if len(queue) == 0 {
		if !retired {
			return &State{Queue: queue}, metrics.OutcomeNoop, nil
		}
		a.broadcaster.Publish(stationID, realtime.EventQueue, queue)
		a.broadcaster.Publish(stationID, realtime.EventNowPlaying, nil)

		a.log.Info().
			Str("station_id", stationID.String()).
			Msg("Queue exhausted, station idle")
		return &State{Queue: queue}, metrics.OutcomeExhausted, nil
	}

	head := queue[0]
	next := &models.NowPlaying{
		StationID: stationID,
		QueueID:   head.ID,
		StartedAt: now,
	}
	if err := a.repos.NowPlaying.Insert(ctx, next); err != nil {
		if db.IsDuplicate(err) {
			return nil, "", ErrRaceLost
		}
		return nil, "", err
	}

	pos, err := timeline.CalculatePosition(now, now, a.durationOf(head))
	if err != nil {
		return nil, "", err
	}
	view := newView(next, head, pos, now)

	outcome := metrics.OutcomePromoted
	if retired {
		outcome = metrics.OutcomeRetired
		a.broadcaster.Publish(stationID, realtime.EventQueue, queue)
	}
	a.broadcaster.Publish(stationID, realtime.EventNowPlaying, view)

	a.log.Info().
		Str("station_id", stationID.String()).
		Str("queue_id", head.ID.String()).
		Str("song_id", head.SongID.String()).
		Dur("duration", pos.Duration).
		Msg("Now playing")

	return &State{NowPlaying: view, Queue: queue[1:]}, outcome, nil
}

// retire marks the finished item played and removes the now-playing row in
// one transaction. The row is removed only if it still points at the item.
func (a *Advancer) retire(ctx context.Context, current *models.NowPlaying, item *models.QueuedItem, now time.Time) error {
	err := a.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		txRepos := a.repos.WithTx(tx)

		removed, err := txRepos.NowPlaying.DeleteIfMatches(ctx, current.StationID, current.QueueID)
		if err != nil {
			return err
		}
		if !removed {
			return ErrRaceLost
		}

		if _, err := txRepos.Queue.MarkPlayed(ctx, current.QueueID, now); err != nil {
			return err
		}
		if item != nil {
			if err := txRepos.Songs.MarkPlayed(ctx, item.SongID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.TracksPlayed.Inc()
	a.log.Info().
		Str("station_id", current.StationID.String()).
		Str("queue_id", current.QueueID.String()).
		Time("started_at", current.StartedAt).
		Msg("Track finished")
	return nil
}

// position loads the now-playing item and where playback stands. A missing
// item yields a nil item, which the caller treats as finished.
func (a *Advancer) position(ctx context.Context, current *models.NowPlaying, now time.Time) (*models.QueuedItem, *timeline.Position, error) {
	item, err := a.repos.Queue.GetByID(ctx, current.QueueID)
	if err != nil {
		if db.IsNotFound(err) {
			a.log.Warn().
				Str("station_id", current.StationID.String()).
				Str("queue_id", current.QueueID.String()).
				Msg("Now playing item is gone, retiring")
			return nil, nil, nil
		}
		return nil, nil, err
	}

	pos, err := timeline.CalculatePosition(current.StartedAt, now, a.durationOf(item))
	if err != nil {
		return nil, nil, err
	}
	return item, pos, nil
}

func (a *Advancer) durationOf(item *models.QueuedItem) time.Duration {
	if item.Song == nil {
		return a.defaultDuration
	}
	return timeline.EffectiveDuration(item.Song.DurationSeconds, a.defaultDuration)
}

// snapshot reads the station's state without mutating or publishing
func (a *Advancer) snapshot(ctx context.Context, stationID uuid.UUID, now time.Time) (*State, error) {
	queue, err := a.repos.Queue.Ranked(ctx, stationID)
	if err != nil {
		return nil, err
	}

	current, err := a.repos.NowPlaying.Get(ctx, stationID)
	if err != nil {
		if db.IsNotFound(err) {
			return &State{Queue: queue}, nil
		}
		return nil, err
	}

	item, pos, err := a.position(ctx, current, now)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return &State{Queue: upNext(queue, current.QueueID)}, nil
	}
	return &State{
		NowPlaying: newView(current, item, pos, now),
		Queue:      upNext(queue, current.QueueID),
	}, nil
}
