package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stwalsh4118/grooveray/internal/logger"
	"github.com/stwalsh4118/grooveray/internal/middleware"
	"github.com/stwalsh4118/grooveray/internal/playback"
	"github.com/stwalsh4118/grooveray/internal/station"
)

// EnqueueRequest represents a request to add a song to a station's queue
type EnqueueRequest struct {
	SongID string `json:"songId" binding:"required"`
}

// VotesResponse lists the queue items the caller has voted for
type VotesResponse struct {
	QueueIDs []uuid.UUID `json:"queue_ids"`
}

// QueueHandler handles the queue, votes and now-playing of a station
type QueueHandler struct {
	stations *station.StationService
	queue    *station.QueueService
	advancer *playback.Advancer
}

// NewQueueHandler creates a new queue handler instance
func NewQueueHandler(stations *station.StationService, queue *station.QueueService, advancer *playback.Advancer) *QueueHandler {
	return &QueueHandler{
		stations: stations,
		queue:    queue,
		advancer: advancer,
	}
}

// GetQueue handles GET /api/stations/:id/queue
func (h *QueueHandler) GetQueue(c *gin.Context) {
	stationID, ok := parseIDParam(c, "id", "station")
	if !ok {
		return
	}

	queue, err := h.queue.RankedQueue(c.Request.Context(), stationID)
	if err != nil {
		respondError(c, err, "get_queue")
		return
	}
	c.JSON(http.StatusOK, queue)
}

// Enqueue handles POST /api/stations/:id/queue
func (h *QueueHandler) Enqueue(c *gin.Context) {
	stationID, ok := parseIDParam(c, "id", "station")
	if !ok {
		return
	}

	var req EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", "songId required")
		return
	}
	songID, err := uuid.Parse(req.SongID)
	if err != nil {
		badRequest(c, "invalid_id", "Invalid song ID format")
		return
	}

	userID, _ := middleware.UserID(c)
	ctx := c.Request.Context()

	item, err := h.queue.Enqueue(ctx, stationID, songID, userID)
	if err != nil {
		respondError(c, err, "enqueue")
		return
	}

	// an idle station starts playing as soon as something is queued
	h.kick(ctx, stationID)

	c.JSON(http.StatusCreated, item)
}

// CastVote handles POST /api/stations/:id/vote/:queueId
func (h *QueueHandler) CastVote(c *gin.Context) {
	stationID, ok := parseIDParam(c, "id", "station")
	if !ok {
		return
	}
	queueID, ok := parseIDParam(c, "queueId", "queue item")
	if !ok {
		return
	}

	userID, _ := middleware.UserID(c)
	item, err := h.queue.CastVote(c.Request.Context(), stationID, queueID, userID)
	if err != nil {
		respondError(c, err, "vote")
		return
	}
	c.JSON(http.StatusOK, item)
}

// RetractVote handles DELETE /api/stations/:id/vote/:queueId. It succeeds
// whether or not a vote existed and returns {} if the item is gone.
func (h *QueueHandler) RetractVote(c *gin.Context) {
	stationID, ok := parseIDParam(c, "id", "station")
	if !ok {
		return
	}
	queueID, ok := parseIDParam(c, "queueId", "queue item")
	if !ok {
		return
	}

	userID, _ := middleware.UserID(c)
	item, err := h.queue.RetractVote(c.Request.Context(), stationID, queueID, userID)
	if err != nil {
		respondError(c, err, "unvote")
		return
	}
	if item == nil {
		c.JSON(http.StatusOK, EmptyResponse{})
		return
	}
	c.JSON(http.StatusOK, item)
}

// ListVotes handles GET /api/stations/:id/votes
func (h *QueueHandler) ListVotes(c *gin.Context) {
	stationID, ok := parseIDParam(c, "id", "station")
	if !ok {
		return
	}

	userID, _ := middleware.UserID(c)
	ids, err := h.queue.VotedItems(c.Request.Context(), stationID, userID)
	if err != nil {
		respondError(c, err, "list_votes")
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	c.JSON(http.StatusOK, VotesResponse{QueueIDs: ids})
}

// GetNowPlaying handles GET /api/stations/:id/now-playing. Reading advances
// the station first, so a listener never sees a track that already ended.
// The body is the now-playing view or null when the station is idle.
func (h *QueueHandler) GetNowPlaying(c *gin.Context) {
	stationID, ok := parseIDParam(c, "id", "station")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.stations.Exists(ctx, stationID); err != nil {
		respondError(c, err, "now_playing")
		return
	}

	state, err := h.advancer.AdvanceNow(ctx, stationID)
	if err != nil {
		respondUnavailable(c, err, "now_playing")
		return
	}
	c.JSON(http.StatusOK, state.NowPlaying)
}

// kick advances the station after a queue change. The change already
// committed, so a failure only delays playback until the next tick.
func (h *QueueHandler) kick(ctx context.Context, stationID uuid.UUID) {
	if _, err := h.advancer.AdvanceNow(ctx, stationID); err != nil {
		logger.Log.Warn().
			Err(err).
			Str("station_id", stationID.String()).
			Msg("Advance after enqueue failed, scheduler will retry")
	}
}

// SetupStationRoutes registers station metadata, queue, vote and
// now-playing routes. Mutations of the queue and votes are rate limited.
func SetupStationRoutes(
	apiGroup *gin.RouterGroup,
	stations *station.StationService,
	queue *station.QueueService,
	advancer *playback.Advancer,
	auth *middleware.Authenticator,
	limit gin.HandlerFunc,
) {
	stationHandler := NewStationHandler(stations)
	queueHandler := NewQueueHandler(stations, queue, advancer)

	group := apiGroup.Group("/stations")
	group.POST("", auth.RequireAuth(), stationHandler.CreateStation)
	group.GET("", stationHandler.ListStations)
	group.GET("/:id", stationHandler.GetStation)
	group.PATCH("/:id", auth.RequireAuth(), stationHandler.UpdateStation)

	group.GET("/:id/queue", queueHandler.GetQueue)
	group.POST("/:id/queue", auth.RequireAuth(), limit, queueHandler.Enqueue)
	group.GET("/:id/votes", auth.RequireAuth(), queueHandler.ListVotes)
	group.POST("/:id/vote/:queueId", auth.RequireAuth(), limit, queueHandler.CastVote)
	group.DELETE("/:id/vote/:queueId", auth.RequireAuth(), limit, queueHandler.RetractVote)
	group.GET("/:id/now-playing", queueHandler.GetNowPlaying)
}
