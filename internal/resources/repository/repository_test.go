package repository

import (
	"context"
	"testing"

	bookingserrors "bookfast/internal/bookings/errors"
	"bookfast/pkg/logger"
	"bookfast/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	resources, err := LoadCatalog("testdata/resources.yaml")
	require.NoError(t, err)
	require.Len(t, resources, 3)

	assert.Equal(t, "room-101", resources[0].ID)
	assert.Equal(t, model.ResourceRoom, resources[0].Type)
	assert.Equal(t, 8, resources[0].Capacity)
	assert.Equal(t, 1, resources[1].Capacity)
	assert.False(t, resources[2].IsActive)
	assert.False(t, resources[0].CreatedAt.IsZero())
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog("testdata/nope.yaml")
	assert.Error(t, err)
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{name: "not yaml", raw: "resources: [", wantErr: "parse resource catalog"},
		{name: "missing id", raw: "resources:\n  - name: x\n    type: room\n", wantErr: "id is required"},
		{name: "missing name", raw: "resources:\n  - id: a\n    type: room\n", wantErr: "name is required"},
		{name: "unknown type", raw: "resources:\n  - id: a\n    name: A\n    type: spaceship\n", wantErr: "unknown type"},
		{name: "duplicate", raw: "resources:\n  - id: a\n    name: A\n    type: room\n  - id: a\n    name: B\n    type: desk\n", wantErr: "duplicate id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.raw))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMemoryResourceRepository(t *testing.T) {
	repo := NewMemoryResourceRepository([]*model.Resource{
		{ID: "b", Name: "B", Type: model.ResourceDesk, Capacity: 1, IsActive: true},
		{ID: "a", Name: "A", Type: model.ResourceRoom, Capacity: 4, IsActive: true},
	})
	ctx := context.Background()

	res, err := repo.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", res.Name)

	_, err = repo.FindByID(ctx, "zzz")
	assert.ErrorIs(t, err, bookingserrors.ErrResourceNotFound)

	require.NoError(t, repo.Upsert(ctx, &model.Resource{ID: "a", Name: "A2", Type: model.ResourceRoom}))
	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A2", all[0].Name)
	assert.Equal(t, "b", all[1].ID)
}

func TestSeed(t *testing.T) {
	catalog, err := LoadCatalog("testdata/resources.yaml")
	require.NoError(t, err)

	repo := NewMemoryResourceRepository(nil)
	require.NoError(t, Seed(context.Background(), repo, catalog, logger.Discard()))
	require.NoError(t, Seed(context.Background(), repo, catalog, logger.Discard()), "seeding twice is harmless")

	all, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, len(catalog))
}
