package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/grooveray/internal/models"
	"github.com/stwalsh4118/grooveray/internal/playback"
)

func (e *testEnv) enqueue(t *testing.T, stationID, songID uuid.UUID, userID string) *models.QueuedItem {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/stations/"+stationID.String()+"/queue", userID, map[string]any{
		"songId": songID.String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decode[models.QueuedItem](t, rec)
	return &item
}

func TestEnqueue_StartsIdleStation(t *testing.T) {
	env := setupTestEnv(t)
	st := env.createStation(t, "alice", "Station")
	song := env.createSong(t, "First", 180)

	item := env.enqueue(t, st.ID, song.ID, "bob")
	assert.Equal(t, st.ID, item.StationID)
	assert.Equal(t, "bob", item.AddedBy)
	assert.Equal(t, 0, item.Votes)
	require.NotNil(t, item.Song)
	assert.Equal(t, "First", item.Song.Title)

	rec := env.do(t, http.MethodGet, "/api/stations/"+st.ID.String()+"/now-playing", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[playback.NowPlayingView](t, rec)
	assert.Equal(t, item.ID, view.QueueID)
	assert.Equal(t, 180.0, view.DurationSeconds)
	assert.GreaterOrEqual(t, view.PositionSeconds, 0.0)
}

func TestEnqueue_Rejections(t *testing.T) {
	env := setupTestEnv(t)
	st := env.createStation(t, "alice", "Station")
	song := env.createSong(t, "Song", 120)
	path := "/api/stations/" + st.ID.String() + "/queue"

	env.enqueue(t, st.ID, song.ID, "bob")

	rec := env.do(t, http.MethodPost, path, "carol", map[string]any{"songId": song.ID.String()})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_queued", decode[ErrorResponse](t, rec).Error)

	rec = env.do(t, http.MethodPost, path, "carol", map[string]any{"songId": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, path, "carol", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, path, "carol", map[string]any{"songId": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, path, "", map[string]any{"songId": song.ID.String()})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other := env.createSong(t, "Other", 120)
	rec = env.do(t, http.MethodPost, "/api/stations/"+uuid.NewString()+"/queue", "carol", map[string]any{"songId": other.ID.String()})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVotesReorderQueue(t *testing.T) {
	env := setupTestEnv(t)
	st := env.createStation(t, "alice", "Station")
	base := "/api/stations/" + st.ID.String()

	playing := env.enqueue(t, st.ID, env.createSong(t, "Playing", 300).ID, "alice")
	a := env.enqueue(t, st.ID, env.createSong(t, "A", 300).ID, "alice")
	b := env.enqueue(t, st.ID, env.createSong(t, "B", 300).ID, "alice")

	rec := env.do(t, http.MethodPost, base+"/vote/"+b.ID.String(), "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[models.QueuedItem](t, rec).Votes)

	rec = env.do(t, http.MethodPost, base+"/vote/"+b.ID.String(), "bob", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_voted", decode[ErrorResponse](t, rec).Error)

	rec = env.do(t, http.MethodGet, base+"/queue", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	queue := decode[[]models.QueuedItem](t, rec)
	require.Len(t, queue, 3)
	assert.Equal(t, []uuid.UUID{b.ID, playing.ID, a.ID}, []uuid.UUID{queue[0].ID, queue[1].ID, queue[2].ID})

	rec = env.do(t, http.MethodGet, base+"/votes", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uuid.UUID{b.ID}, decode[VotesResponse](t, rec).QueueIDs)

	rec = env.do(t, http.MethodDelete, base+"/vote/"+b.ID.String(), "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[models.QueuedItem](t, rec).Votes)

	// retracting again is harmless
	rec = env.do(t, http.MethodDelete, base+"/vote/"+b.ID.String(), "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[models.QueuedItem](t, rec).Votes)

	rec = env.do(t, http.MethodDelete, base+"/vote/"+uuid.NewString(), "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestVote_Rejections(t *testing.T) {
	env := setupTestEnv(t)
	st := env.createStation(t, "alice", "Station")
	otherStation := env.createStation(t, "alice", "Elsewhere")
	item := env.enqueue(t, st.ID, env.createSong(t, "Song", 300).ID, "alice")

	rec := env.do(t, http.MethodPost, "/api/stations/"+st.ID.String()+"/vote/"+uuid.NewString(), "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/stations/"+otherStation.ID.String()+"/vote/"+item.ID.String(), "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/stations/"+st.ID.String()+"/vote/"+item.ID.String(), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, err := env.repos.Queue.MarkPlayed(context.Background(), item.ID, item.AddedAt)
	require.NoError(t, err)
	rec = env.do(t, http.MethodPost, "/api/stations/"+st.ID.String()+"/vote/"+item.ID.String(), "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetNowPlaying(t *testing.T) {
	env := setupTestEnv(t)
	st := env.createStation(t, "alice", "Quiet")

	rec := env.do(t, http.MethodGet, "/api/stations/"+st.ID.String()+"/now-playing", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/stations/"+uuid.NewString()+"/now-playing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/stations/bad/now-playing", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/stations/"+uuid.NewString()+"/queue", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetNowPlaying_StorageFailureIsRetryable(t *testing.T) {
	env := setupTestEnv(t)
	st := env.createStation(t, "alice", "Station")
	require.NoError(t, env.db.Exec("DROP TABLE station_now_playing").Error)

	rec := env.do(t, http.MethodGet, "/api/stations/"+st.ID.String()+"/now-playing", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.True(t, decode[ErrorResponse](t, rec).Retryable)
}
