package station

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Late Night Radio", "late-night-radio"},
		{"  Lo-Fi   Beats ", "-lo-fi-beats-"},
		{"Café & Crêpes!", "caf--crpes"},
		{"ABC123", "abc123"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestCreateStation_Success(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	st, err := env.stations.Create(ctx, "owner-1", "  Late Night  ", strPtr(" chill "), strPtr(""))

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, st.ID)
	assert.Equal(t, "Late Night", st.Name)
	assert.Equal(t, "late-night", st.Slug)
	assert.Equal(t, "owner-1", st.OwnerID)
	require.NotNil(t, st.Description)
	assert.Equal(t, "chill", *st.Description)
	assert.Nil(t, st.ImageURL)
}

func TestCreateStation_EmptyName(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.stations.Create(context.Background(), "owner-1", "   ", nil, nil)

	assert.ErrorIs(t, err, ErrInvalidStationName)
}

func TestCreateStation_SlugCollision(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	first, err := env.stations.Create(ctx, "owner-1", "Jazz", nil, nil)
	require.NoError(t, err)
	second, err := env.stations.Create(ctx, "owner-2", "jazz", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "jazz", first.Slug)
	assert.Equal(t, "jazz-"+second.ID.String()[:8], second.Slug)
}

func TestGetBySlugOrID(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	st := env.createStation(t, "Morning Show")

	byID, err := env.stations.GetBySlugOrID(ctx, st.ID.String())
	require.NoError(t, err)
	assert.Equal(t, st.ID, byID.ID)

	bySlug, err := env.stations.GetBySlugOrID(ctx, "morning-show")
	require.NoError(t, err)
	assert.Equal(t, st.ID, bySlug.ID)

	_, err = env.stations.GetBySlugOrID(ctx, "nope")
	assert.ErrorIs(t, err, ErrStationNotFound)

	_, err = env.stations.GetBySlugOrID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrStationNotFound)
}

func TestListStations_NewestFirst(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	first := env.createStation(t, "First")
	second := env.createStation(t, "Second")

	list, err := env.stations.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestUpdateStation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	st := env.createStation(t, "Original")

	t.Run("owner updates fields", func(t *testing.T) {
		updated, err := env.stations.Update(ctx, st.ID, "owner-1", UpdateStationInput{
			Name:        strPtr(" Renamed "),
			Description: strPtr("desc"),
			ImageURL:    strPtr("https://img.example/x.png"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
		assert.Equal(t, "original", updated.Slug, "slug is stable across renames")
		require.NotNil(t, updated.ImageURL)
		assert.Equal(t, "https://img.example/x.png", *updated.ImageURL)
	})

	t.Run("empty values clear optional fields", func(t *testing.T) {
		updated, err := env.stations.Update(ctx, st.ID, "owner-1", UpdateStationInput{
			Description: strPtr(""),
			ImageURL:    strPtr(""),
		})
		require.NoError(t, err)
		assert.Nil(t, updated.Description)
		assert.Nil(t, updated.ImageURL)

		reloaded, err := env.stations.GetByID(ctx, st.ID)
		require.NoError(t, err)
		assert.Nil(t, reloaded.Description)
	})

	t.Run("non owner is rejected", func(t *testing.T) {
		_, err := env.stations.Update(ctx, st.ID, "intruder", UpdateStationInput{Name: strPtr("Mine")})
		assert.ErrorIs(t, err, ErrNotStationOwner)
	})

	t.Run("no valid fields", func(t *testing.T) {
		_, err := env.stations.Update(ctx, st.ID, "owner-1", UpdateStationInput{Name: strPtr("   ")})
		assert.ErrorIs(t, err, ErrNoUpdates)
	})

	t.Run("unknown station", func(t *testing.T) {
		_, err := env.stations.Update(ctx, uuid.New(), "owner-1", UpdateStationInput{Name: strPtr("x")})
		assert.ErrorIs(t, err, ErrStationNotFound)
	})
}
