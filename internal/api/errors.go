package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stwalsh4118/grooveray/internal/db"
	"github.com/stwalsh4118/grooveray/internal/logger"
	"github.com/stwalsh4118/grooveray/internal/station"
)

// retryAfterSeconds is sent with 503 responses
const retryAfterSeconds = "1"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable"`
}

// EmptyResponse is written where the resource is gone but the call succeeded
type EmptyResponse struct{}

func badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: code, Message: message})
}

// parseIDParam reads a UUID path parameter, writing 400 when it is malformed
func parseIDParam(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid_id", "Invalid "+what+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service errors to HTTP responses. Expected rejections
// are not logged as failures; anything unrecognised is a 500.
func respondError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, station.ErrStationNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Station not found"})
	case errors.Is(err, station.ErrSongNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Song not found"})
	case errors.Is(err, station.ErrQueueItemNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Queue item not found"})
	case errors.Is(err, station.ErrAlreadyQueued):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "already_queued", Message: "Song already in queue"})
	case errors.Is(err, station.ErrDuplicateVote):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "already_voted", Message: "Already voted"})
	case errors.Is(err, station.ErrNotStationOwner):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden", Message: "Only the station creator can edit"})
	case errors.Is(err, station.ErrInvalidStationName):
		badRequest(c, "invalid_name", "Station name required")
	case errors.Is(err, station.ErrNoUpdates):
		badRequest(c, "no_updates", "No valid fields to update")
	case isTransient(err):
		respondUnavailable(c, err, op)
	default:
		logger.Log.Error().
			Err(err).
			Str("op", op).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   op + "_failed",
			Message: "Internal server error",
		})
	}
}

// respondUnavailable tells the client to retry shortly
func respondUnavailable(c *gin.Context, err error, op string) {
	logger.Log.Warn().
		Err(err).
		Str("op", op).
		Str("path", c.Request.URL.Path).
		Msg("Storage unavailable")
	c.Header("Retry-After", retryAfterSeconds)
	c.JSON(http.StatusServiceUnavailable, ErrorResponse{
		Error:     "unavailable",
		Message:   "Temporarily unavailable, try again",
		Retryable: true,
	})
}

func isTransient(err error) bool {
	return db.IsUnavailable(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
