package station

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/grooveray/internal/db"
	"github.com/stwalsh4118/grooveray/internal/models"
)

type publishedEvent struct {
	StationID uuid.UUID
	Event     string
	Payload   any
}

// recordingBroadcaster captures published events
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (r *recordingBroadcaster) Publish(stationID uuid.UUID, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{StationID: stationID, Event: event, Payload: payload})
}

func (r *recordingBroadcaster) Events() []publishedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]publishedEvent(nil), r.events...)
}

type testEnv struct {
	db       *db.DB
	repos    *db.Repositories
	stations *StationService
	queue    *QueueService
	events   *recordingBroadcaster
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(sqlDB, database.Driver, "file://../../migrations/sqlite"))

	repos := db.NewRepositories(database)
	events := &recordingBroadcaster{}

	return &testEnv{
		db:       database,
		repos:    repos,
		stations: NewStationService(repos),
		queue:    NewQueueService(database, repos, events),
		events:   events,
	}
}

func (e *testEnv) createStation(t *testing.T, name string) *models.Station {
	t.Helper()
	st, err := e.stations.Create(context.Background(), "owner-1", name, nil, nil)
	require.NoError(t, err)
	return st
}

func (e *testEnv) createSong(t *testing.T, title string, duration *int64) *models.Song {
	t.Helper()
	song := models.NewSong(title, models.SongSourceUpload, "owner-1")
	song.DurationSeconds = duration
	require.NoError(t, e.repos.Songs.Create(context.Background(), song))
	return song
}
