package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/grooveray/internal/logger"
	"github.com/stwalsh4118/grooveray/internal/middleware"
	"github.com/stwalsh4118/grooveray/internal/models"
	"github.com/stwalsh4118/grooveray/internal/station"
)

// CreateStationRequest represents a request to create a station
type CreateStationRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// UpdateStationRequest represents a partial station update. An empty
// description or image_url clears it.
type UpdateStationRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// StationHandler handles station metadata requests
type StationHandler struct {
	stations *station.StationService
}

// NewStationHandler creates a new station handler instance
func NewStationHandler(stations *station.StationService) *StationHandler {
	return &StationHandler{stations: stations}
}

// CreateStation handles POST /api/stations
func (h *StationHandler) CreateStation(c *gin.Context) {
	var req CreateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", "Invalid request body: "+err.Error())
		return
	}

	userID, _ := middleware.UserID(c)
	st, err := h.stations.Create(c.Request.Context(), userID, req.Name, req.Description, req.ImageURL)
	if err != nil {
		respondError(c, err, "create_station")
		return
	}

	logger.Log.Info().
		Str("station_id", st.ID.String()).
		Str("slug", st.Slug).
		Str("user_id", userID).
		Msg("Station created successfully")

	c.JSON(http.StatusCreated, st)
}

// ListStations handles GET /api/stations
func (h *StationHandler) ListStations(c *gin.Context) {
	stations, err := h.stations.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "list_stations")
		return
	}
	if stations == nil {
		stations = []*models.Station{}
	}
	c.JSON(http.StatusOK, stations)
}

// GetStation handles GET /api/stations/:id where id may also be a slug
func (h *StationHandler) GetStation(c *gin.Context) {
	st, err := h.stations.GetBySlugOrID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "get_station")
		return
	}
	c.JSON(http.StatusOK, st)
}

// UpdateStation handles PATCH /api/stations/:id
func (h *StationHandler) UpdateStation(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "station")
	if !ok {
		return
	}

	var req UpdateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", "Invalid request body: "+err.Error())
		return
	}

	userID, _ := middleware.UserID(c)
	st, err := h.stations.Update(c.Request.Context(), id, userID, station.UpdateStationInput{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondError(c, err, "update_station")
		return
	}

	c.JSON(http.StatusOK, st)
}
