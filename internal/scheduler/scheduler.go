// Package scheduler runs the background loop that keeps every playing
// station moving even when nobody is making requests.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stwalsh4118/grooveray/internal/config"
	"github.com/stwalsh4118/grooveray/internal/logger"
	"github.com/stwalsh4118/grooveray/internal/metrics"
	"github.com/stwalsh4118/grooveray/internal/playback"
	"golang.org/x/sync/errgroup"
)

// ErrSchedulerStopped is returned when starting a scheduler that was stopped
var ErrSchedulerStopped = errors.New("scheduler is stopped")

// Advancer advances one station
type Advancer interface {
	AdvanceNow(ctx context.Context, stationID uuid.UUID) (*playback.State, error)
}

// StationLister lists the stations that currently have something playing
type StationLister interface {
	ListStationIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Scheduler ticks on a fixed interval and advances every playing station.
// Stations are advanced in parallel up to a limit, each under its own
// timeout, so one slow station cannot hold up the others.
type Scheduler struct {
	advancer       Advancer
	stations       StationLister
	interval       time.Duration
	advanceTimeout time.Duration
	maxConcurrent  int
	breakers       *breakerSet
	log            zerolog.Logger

	ticker   *time.Ticker
	ctx      context.Context
	cancel   context.CancelFunc
	stopChan chan struct{}
	done     chan struct{}
	mu       sync.Mutex
	started  bool
	stopped  bool
}

// New creates a scheduler from the playback configuration
func New(advancer Advancer, stations StationLister, cfg config.PlaybackConfig) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	maxConcurrent := cfg.MaxConcurrentAdvances
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	return &Scheduler{
		advancer:       advancer,
		stations:       stations,
		interval:       cfg.TickInterval,
		advanceTimeout: cfg.AdvanceTimeout,
		maxConcurrent:  maxConcurrent,
		breakers:       newBreakerSet(cfg.BreakerThreshold, cfg.BreakerResetTimeout),
		log:            logger.Component("scheduler"),
		ctx:            ctx,
		cancel:         cancel,
		stopChan:       make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Start launches the tick loop. It is a no-op if already running.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSchedulerStopped
	}
	if s.started {
		return nil
	}
	s.started = true

	s.ticker = time.NewTicker(s.interval)
	go s.run()

	s.log.Info().
		Dur("tick_interval", s.interval).
		Dur("advance_timeout", s.advanceTimeout).
		Int("max_concurrent", s.maxConcurrent).
		Msg("Scheduler started")

	return nil
}

// Stop stops the loop and waits for the current tick's advances to finish.
// Each advance is already bounded by the advance timeout. Safe to call more
// than once.
func (s *Scheduler) Stop() {
	_ = s.StopContext(context.Background())
}

// StopContext is Stop with a deadline. In-flight advances are left to finish
// unless ctx is done first, in which case they are cancelled and ctx's error
// is returned once the loop has exited.
func (s *Scheduler) StopContext(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	started := s.started
	s.mu.Unlock()

	s.log.Info().Msg("Stopping scheduler...")

	close(s.stopChan)

	var err error
	if started {
		select {
		case <-s.done:
		case <-ctx.Done():
			err = ctx.Err()
			s.log.Warn().Err(err).Msg("Scheduler stop deadline reached, cancelling in-flight advances")
			s.cancel()
			<-s.done
		}
		s.ticker.Stop()
	}
	s.cancel()

	s.log.Info().Msg("Scheduler stopped")
	return err
}

func (s *Scheduler) run() {
	defer close(s.done)

	for {
		select {
		case <-s.stopChan:
			return
		case <-s.ticker.C:
			select {
			case <-s.stopChan:
				return
			default:
			}
			s.Tick(s.ctx)
		}
	}
}

// Tick advances every playing station once and returns when all of them are
// done. Failures are logged and never returned.
func (s *Scheduler) Tick(ctx context.Context) {
	metrics.SchedulerTicks.Inc()

	stationIDs, err := s.stations.ListStationIDs(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Scheduler failed to list playing stations")
		return
	}
	metrics.SchedulerActiveStations.Set(float64(len(stationIDs)))
	s.breakers.prune(stationIDs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for _, stationID := range stationIDs {
		if gctx.Err() != nil {
			metrics.SchedulerSkipped.WithLabelValues("cancelled").Inc()
			continue
		}

		breaker := s.breakers.get(stationID)
		if !breaker.Allow() {
			metrics.SchedulerSkipped.WithLabelValues("breaker_open").Inc()
			s.log.Debug().
				Str("station_id", stationID.String()).
				Msg("Skipping station with open breaker")
			continue
		}

		g.Go(func() error {
			s.advance(gctx, stationID, breaker)
			return nil
		})
	}

	_ = g.Wait()
}

func (s *Scheduler) advance(ctx context.Context, stationID uuid.UUID, breaker *Breaker) {
	ctx, cancel := context.WithTimeout(ctx, s.advanceTimeout)
	defer cancel()

	err := breaker.Call(func() error {
		_, err := s.advancer.AdvanceNow(ctx, stationID)
		return err
	})
	if err != nil {
		s.log.Error().
			Err(err).
			Str("station_id", stationID.String()).
			Int("consecutive_failures", breaker.Failures()).
			Str("breaker", breaker.State().String()).
			Msg("Scheduled advance failed")
	}
}
