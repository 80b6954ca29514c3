// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/grooveray/internal/api"
	"github.com/stwalsh4118/grooveray/internal/config"
	"github.com/stwalsh4118/grooveray/internal/db"
	"github.com/stwalsh4118/grooveray/internal/logger"
	"github.com/stwalsh4118/grooveray/internal/metrics"
	"github.com/stwalsh4118/grooveray/internal/middleware"
	"github.com/stwalsh4118/grooveray/internal/playback"
	"github.com/stwalsh4118/grooveray/internal/realtime"
	"github.com/stwalsh4118/grooveray/internal/scheduler"
	"github.com/stwalsh4118/grooveray/internal/station"
)

// Server represents the HTTP server and the background scheduler
type Server struct {
	config         *config.Config
	db             *db.DB
	repos          *db.Repositories
	hub            *realtime.Hub
	stationService *station.StationService
	queueService   *station.QueueService
	advancer       *playback.Advancer
	scheduler      *scheduler.Scheduler
	auth           *middleware.Authenticator
	router         *gin.Engine
	server         *http.Server
	mu             sync.Mutex
}

// New creates a new server instance
func New(cfg *config.Config, database *db.DB) *Server {
	repos := db.NewRepositories(database)
	hub := realtime.NewHub(cfg.Realtime.SubscriberBuffer)
	advancer := playback.NewAdvancer(database, repos, hub, cfg.Playback.DefaultTrackDuration)

	s := &Server{
		config:         cfg,
		db:             database,
		repos:          repos,
		hub:            hub,
		stationService: station.NewStationService(repos),
		queueService:   station.NewQueueService(database, repos, hub),
		advancer:       advancer,
		scheduler:      scheduler.New(advancer, repos.NowPlaying, cfg.Playback),
		auth:           middleware.NewAuthenticator(cfg.Auth),
	}
	s.setupRouter()
	return s
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	s.router.Use(middleware.RequestLogger())
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.Metrics())
	s.router.Use(cors.New(corsConfig(s.config.Server.CORSOrigins)))

	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	apiGroup := s.router.Group("/api")

	// websocket and SSE stay open, everything else gets the request deadline
	rest := apiGroup.Group("", middleware.Timeout(s.config.Server.RequestTimeout))
	limit := middleware.RateLimit(s.config.RateLimit.Requests, s.config.RateLimit.Window)

	api.SetupHealthRoutes(rest, s.db, s.hub)
	api.SetupSongRoutes(rest, s.repos, s.auth)
	api.SetupStationRoutes(rest, s.stationService, s.queueService, s.advancer, s.auth, limit)
	api.SetupRealtimeRoutes(apiGroup, s.hub, s.stationService, s.auth, s.config.Realtime)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AddAllowHeaders("Authorization")
	cfg.AddExposeHeaders("Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset")
	return cfg
}

// Start starts the scheduler and serves HTTP until Shutdown. It returns
// nil after a graceful shutdown.
func (s *Server) Start() error {
	if err := s.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.mu.Lock()
	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}
	srv := s.server
	s.mu.Unlock()

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Str("database", s.db.Driver).
		Msg("Starting HTTP server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown stops the scheduler, letting in-flight advances finish, then
// drains HTTP connections. Advances still running when ctx expires are
// cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	if err := s.scheduler.StopContext(ctx); err != nil {
		logger.Log.Warn().Err(err).Msg("Scheduler did not stop cleanly")
	}

	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}
