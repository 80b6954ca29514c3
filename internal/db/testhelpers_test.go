package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/grooveray/internal/models"
)

func setupTestDB(t *testing.T) (*DB, *Repositories) {
	t.Helper()

	database, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)
	require.NoError(t, RunMigrations(sqlDB, database.Driver, "file://../../migrations/sqlite"))

	return database, NewRepositories(database)
}

func createStation(t *testing.T, repos *Repositories, slug string) *models.Station {
	t.Helper()
	station := models.NewStation(slug, slug, "owner")
	require.NoError(t, repos.Stations.Create(context.Background(), station))
	return station
}

func createSong(t *testing.T, repos *Repositories, title string) *models.Song {
	t.Helper()
	song := models.NewSong(title, models.SongSourceUpload, "owner")
	require.NoError(t, repos.Songs.Create(context.Background(), song))
	return song
}

func enqueue(t *testing.T, repos *Repositories, stationID, songID uuid.UUID, votes, position int, addedAt time.Time) *models.QueuedItem {
	t.Helper()
	item := models.NewQueuedItem(stationID, songID, "owner", position)
	item.Votes = votes
	item.AddedAt = addedAt.UTC()
	require.NoError(t, repos.Queue.Create(context.Background(), item))
	return item
}
