// Package station implements station metadata, the ranked queue, and the
// vote ledger.
package station

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stwalsh4118/grooveray/internal/db"
	"github.com/stwalsh4118/grooveray/internal/logger"
	"github.com/stwalsh4118/grooveray/internal/models"
)

// slugSuffixLen is how many characters of the station id disambiguate a taken slug
const slugSuffixLen = 8

// StationService handles business logic for station metadata
//
//nolint:revive // Service name matches established patterns in codebase
type StationService struct {
	repos *db.Repositories
}

// NewStationService creates a new station service instance
func NewStationService(repos *db.Repositories) *StationService {
	return &StationService{
		repos: repos,
	}
}

// UpdateStationInput carries a partial station update. A nil field is left
// untouched; an empty Description or ImageURL clears the value.
type UpdateStationInput struct {
	Name        *string
	Description *string
	ImageURL    *string
}

// Create creates a station owned by ownerID. Its slug is derived from the
// name; if the slug is taken the first characters of the id are appended.
func (s *StationService) Create(ctx context.Context, ownerID, name string, description, imageURL *string) (*models.Station, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidStationName
	}

	station := models.NewStation(name, Slugify(name), ownerID)
	station.Description = normalizeOptional(description)
	station.ImageURL = normalizeOptional(imageURL)

	taken, err := s.repos.Stations.SlugExists(ctx, station.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to create station: %w", err)
	}
	if taken || station.Slug == "" {
		station.Slug = disambiguate(station.Slug, station.ID)
	}

	if err := s.repos.Stations.Create(ctx, station); err != nil {
		if db.IsDuplicate(err) {
			// Lost a race for the same slug; the id suffix is unique.
			station.Slug = disambiguate(Slugify(name), station.ID)
			err = s.repos.Stations.Create(ctx, station)
		}
		if err != nil {
			logger.Log.Error().
				Err(err).
				Str("name", name).
				Msg("Failed to create station in database")
			return nil, fmt.Errorf("failed to create station: %w", err)
		}
	}

	logger.Log.Info().
		Str("station_id", station.ID.String()).
		Str("slug", station.Slug).
		Str("owner_id", ownerID).
		Msg("Station created successfully")

	return station, nil
}

func disambiguate(slug string, id uuid.UUID) string {
	suffix := id.String()[:slugSuffixLen]
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}

// GetByID retrieves a station by its ID
func (s *StationService) GetByID(ctx context.Context, id uuid.UUID) (*models.Station, error) {
	station, err := s.repos.Stations.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrStationNotFound
		}
		logger.Log.Error().
			Err(err).
			Str("station_id", id.String()).
			Msg("Failed to get station by ID")
		return nil, fmt.Errorf("failed to get station: %w", err)
	}
	return station, nil
}

// GetBySlugOrID looks a station up by id when key parses as a UUID and by
// slug otherwise
func (s *StationService) GetBySlugOrID(ctx context.Context, key string) (*models.Station, error) {
	if id, err := uuid.Parse(key); err == nil {
		station, err := s.GetByID(ctx, id)
		if err == nil || !IsStationNotFound(err) {
			return station, err
		}
	}

	station, err := s.repos.Stations.GetBySlug(ctx, key)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrStationNotFound
		}
		return nil, fmt.Errorf("failed to get station: %w", err)
	}
	return station, nil
}

// Exists returns ErrStationNotFound when the station does not exist
func (s *StationService) Exists(ctx context.Context, id uuid.UUID) error {
	return ensureStation(ctx, s.repos, id)
}

// List retrieves all stations, newest first
func (s *StationService) List(ctx context.Context) ([]*models.Station, error) {
	stations, err := s.repos.Stations.List(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list stations")
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	return stations, nil
}

// Update applies a partial metadata update on behalf of userID, who must own
// the station. Queue and playback state are never touched.
func (s *StationService) Update(ctx context.Context, id uuid.UUID, userID string, in UpdateStationInput) (*models.Station, error) {
	station, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if station.OwnerID != userID {
		logger.Log.Warn().
			Str("station_id", id.String()).
			Str("user_id", userID).
			Msg("Station update rejected: not the owner")
		return nil, ErrNotStationOwner
	}

	changed := false
	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != "" {
			station.Name = name
			changed = true
		}
	}
	if in.Description != nil {
		station.Description = normalizeOptional(in.Description)
		changed = true
	}
	if in.ImageURL != nil {
		station.ImageURL = normalizeOptional(in.ImageURL)
		changed = true
	}
	if !changed {
		return nil, ErrNoUpdates
	}

	if err := s.repos.Stations.Update(ctx, station); err != nil {
		if db.IsNotFound(err) {
			return nil, ErrStationNotFound
		}
		logger.Log.Error().
			Err(err).
			Str("station_id", id.String()).
			Msg("Failed to update station in database")
		return nil, fmt.Errorf("failed to update station: %w", err)
	}

	logger.Log.Info().
		Str("station_id", id.String()).
		Msg("Station updated successfully")

	return station, nil
}

// normalizeOptional trims v and maps empty strings to nil
func normalizeOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func ensureStation(ctx context.Context, repos *db.Repositories, id uuid.UUID) error {
	exists, err := repos.Stations.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check station: %w", err)
	}
	if !exists {
		return ErrStationNotFound
	}
	return nil
}
