package playback

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/grooveray/internal/db"
	"github.com/stwalsh4118/grooveray/internal/models"
)

var t0 = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type publishedEvent struct {
	StationID uuid.UUID
	Event     string
	Payload   any
}

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

func (r *recordingBroadcaster) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *recordingBroadcaster) Names() []string {
	var names []string
	for _, e := range r.Events() {
		names = append(names, e.Event)
	}
	return names
}

type testEnv struct {
	db       *db.DB
	repos    *db.Repositories
	events   *recordingBroadcaster
	advancer *Advancer
	station  *models.Station
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

	station := models.NewStation("Late Night", "late-night", "owner-1")
	require.NoError(t, repos.Stations.Create(context.Background(), station))

	return &testEnv{
		db:       database,
		repos:    repos,
		events:   events,
		advancer: NewAdvancer(database, repos, events, 0),
		station:  station,
	}
}

func seconds(n int64) *int64 { return &n }

// enqueue adds a song of the given duration; position orders items with
// equal votes
func (e *testEnv) enqueue(t *testing.T, title string, duration *int64, position int) *models.QueuedItem {
	t.Helper()
	ctx := context.Background()

	song := models.NewSong(title, models.SongSourceUpload, "owner-1")
	song.DurationSeconds = duration
	require.NoError(t, e.repos.Songs.Create(ctx, song))

	item := models.NewQueuedItem(e.station.ID, song.ID, "owner-1", position)
	item.AddedAt = t0.Add(-time.Hour)
	require.NoError(t, e.repos.Queue.Create(ctx, item))
	return item
}

func (e *testEnv) nowPlaying(t *testing.T) *models.NowPlaying {
	t.Helper()
	np, err := e.repos.NowPlaying.Get(context.Background(), e.station.ID)
	if db.IsNotFound(err) {
		return nil
	}
	require.NoError(t, err)
	return np
}

func (e *testEnv) item(t *testing.T, id uuid.UUID) *models.QueuedItem {
	t.Helper()
	item, err := e.repos.Queue.GetByID(context.Background(), id)
	require.NoError(t, err)
	return item
}

func queueIDs(items []*models.QueuedItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}
