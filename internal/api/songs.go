package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/grooveray/internal/db"
	"github.com/stwalsh4118/grooveray/internal/logger"
	"github.com/stwalsh4118/grooveray/internal/middleware"
	"github.com/stwalsh4118/grooveray/internal/models"
)

const (
	defaultSongLimit = 50
	maxSongLimit     = 500
)

// CreateSongRequest registers a track in the store
type CreateSongRequest struct {
	Title           string  `json:"title" binding:"required"`
	Artist          *string `json:"artist,omitempty"`
	Source          string  `json:"source" binding:"required,oneof=upload youtube link"`
	FilePath        *string `json:"file_path,omitempty"`
	DurationSeconds *int64  `json:"duration_seconds,omitempty" binding:"omitempty,gte=0"`
	ThumbnailURL    *string `json:"thumbnail_url,omitempty"`
}

// SongListResponse represents a paginated list of songs
type SongListResponse struct {
	Items  []*models.Song `json:"items"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// SongHandler exposes the track store
type SongHandler struct {
	repos *db.Repositories
}

// NewSongHandler creates a new song handler instance
func NewSongHandler(repos *db.Repositories) *SongHandler {
	return &SongHandler{repos: repos}
}

// CreateSong handles POST /api/songs
func (h *SongHandler) CreateSong(c *gin.Context) {
	var req CreateSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_request", "Invalid request body: "+err.Error())
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		badRequest(c, "invalid_title", "Song title required")
		return
	}

	userID, _ := middleware.UserID(c)
	song := models.NewSong(title, req.Source, userID)
	song.Artist = req.Artist
	song.FilePath = req.FilePath
	song.DurationSeconds = req.DurationSeconds
	song.ThumbnailURL = req.ThumbnailURL

	if err := h.repos.Songs.Create(c.Request.Context(), song); err != nil {
		respondError(c, err, "create_song")
		return
	}

	logger.Log.Info().
		Str("song_id", song.ID.String()).
		Str("user_id", userID).
		Str("source", song.Source).
		Msg("Song created")

	c.JSON(http.StatusCreated, song)
}

// GetSong handles GET /api/songs/:id
func (h *SongHandler) GetSong(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "song")
	if !ok {
		return
	}

	song, err := h.repos.Songs.GetByID(c.Request.Context(), id)
	if err != nil {
		if db.IsNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Song not found"})
			return
		}
		respondError(c, err, "get_song")
		return
	}

	c.JSON(http.StatusOK, song)
}

// ListSongs handles GET /api/songs?limit=&offset=
func (h *SongHandler) ListSongs(c *gin.Context) {
	limit := defaultSongLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = min(l, maxSongLimit)
		}
	}

	offset := 0
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	ctx := c.Request.Context()
	songs, err := h.repos.Songs.List(ctx, limit, offset)
	if err != nil {
		respondError(c, err, "list_songs")
		return
	}
	if songs == nil {
		songs = []*models.Song{}
	}
	total, err := h.repos.Songs.Count(ctx)
	if err != nil {
		respondError(c, err, "list_songs")
		return
	}

	c.JSON(http.StatusOK, SongListResponse{
		Items:  songs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// SetupSongRoutes registers track store routes
func SetupSongRoutes(apiGroup *gin.RouterGroup, repos *db.Repositories, auth *middleware.Authenticator) {
	handler := NewSongHandler(repos)

	songs := apiGroup.Group("/songs")
	songs.POST("", auth.RequireAuth(), handler.CreateSong)
	songs.GET("", handler.ListSongs)
	songs.GET("/:id", handler.GetSong)
}
