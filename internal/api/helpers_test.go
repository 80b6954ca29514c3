package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/grooveray/internal/config"
	"github.com/stwalsh4118/grooveray/internal/db"
	"github.com/stwalsh4118/grooveray/internal/middleware"
	"github.com/stwalsh4118/grooveray/internal/models"
	"github.com/stwalsh4118/grooveray/internal/playback"
	"github.com/stwalsh4118/grooveray/internal/realtime"
	"github.com/stwalsh4118/grooveray/internal/station"
)

const testSecret = "api-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	db       *db.DB
	repos    *db.Repositories
	hub      *realtime.Hub
	stations *station.StationService
	queue    *station.QueueService
	advancer *playback.Advancer
	router   *gin.Engine
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
	hub := realtime.NewHub(16)
	env := &testEnv{
		db:       database,
		repos:    repos,
		hub:      hub,
		stations: station.NewStationService(repos),
		queue:    station.NewQueueService(database, repos, hub),
		advancer: playback.NewAdvancer(database, repos, hub, time.Minute),
	}

	auth := middleware.NewAuthenticator(config.AuthConfig{JWTSecret: testSecret, UserClaim: "userId"})
	router := gin.New()
	apiGroup := router.Group("/api")
	rest := apiGroup.Group("", middleware.Timeout(5*time.Second))
	SetupHealthRoutes(rest, database, hub)
	SetupSongRoutes(rest, repos, auth)
	SetupStationRoutes(rest, env.stations, env.queue, env.advancer, auth, middleware.RateLimit(1000, time.Minute))
	SetupRealtimeRoutes(apiGroup, hub, env.stations, auth, config.RealtimeConfig{
		SubscriberBuffer: 16,
		PingInterval:     time.Second,
		WriteTimeout:     time.Second,
		AllowedOrigins:   []string{"*"},
	})
	env.router = router

	return env
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

// do sends a request as userID; an empty userID sends no token
func (e *testEnv) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *testEnv) createStation(t *testing.T, ownerID, name string) *models.Station {
	t.Helper()
	st, err := e.stations.Create(context.Background(), ownerID, name, nil, nil)
	require.NoError(t, err)
	return st
}

func (e *testEnv) createSong(t *testing.T, title string, duration int64) *models.Song {
	t.Helper()
	song := models.NewSong(title, models.SongSourceUpload, "uploader")
	song.DurationSeconds = &duration
	require.NoError(t, e.repos.Songs.Create(context.Background(), song))
	return song
}
