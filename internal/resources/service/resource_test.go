package service

import (
	"context"
	"fmt"
	"testing"

	"bookfast/internal/resources/repository"
	apperrors "bookfast/pkg/errors"
	"bookfast/pkg/logger"
	"bookfast/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = model.Actor{UserID: "alice"}
	admin = model.Actor{UserID: "root", IsAdmin: true}
)

type failingRepository struct {
	repository.ResourceRepository
	err error
}

func (r *failingRepository) FindAll(context.Context) ([]*model.Resource, error) {
	return nil, r.err
}

func (r *failingRepository) FindByID(context.Context, string) (*model.Resource, error) {
	return nil, r.err
}

func newTestService() ResourceService {
	return NewResourceService(repository.NewMemoryResourceRepository([]*model.Resource{
		{ID: "room-1", Name: "Room 1", Type: model.ResourceRoom, Capacity: 6, IsActive: true},
		{ID: "room-2", Name: "Atrium", Type: model.ResourceRoom, Capacity: 40, IsActive: true},
		{ID: "desk-7", Name: "Window desk", Type: model.ResourceDesk, Capacity: 1, IsActive: true},
		{ID: "van-9", Name: "Old van", Type: model.ResourceVehicle, Capacity: 3, IsActive: false},
	}), logger.Discard())
}

func ids(resources []*model.Resource) []string {
	out := make([]string, 0, len(resources))
	for _, r := range resources {
		out = append(out, r.ID)
	}
	return out
}

func TestList(t *testing.T) {
	tests := []struct {
		name   string
		actor  model.Actor
		filter ResourceFilter
		want   []string
	}{
		{"active only, sorted by name", alice, ResourceFilter{}, []string{"room-2", "room-1", "desk-7"}},
		{"by type", alice, ResourceFilter{Type: model.ResourceRoom}, []string{"room-2", "room-1"}},
		{"capacity range", alice, ResourceFilter{MinCapacity: 2, MaxCapacity: 10}, []string{"room-1"}},
		{"search is case insensitive", alice, ResourceFilter{Search: "  WINDOW "}, []string{"desk-7"}},
		{"admin sees inactive", admin, ResourceFilter{IncludeInactive: true, Type: model.ResourceVehicle}, []string{"van-9"}},
	}

	svc := newTestService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.List(context.Background(), tt.actor, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestList_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		actor  model.Actor
		filter ResourceFilter
		code   string
	}{
		{"inactive requires admin", alice, ResourceFilter{IncludeInactive: true}, apperrors.CodeForbidden},
		{"unknown type", alice, ResourceFilter{Type: "spaceship"}, apperrors.CodeInvalidInput},
		{"negative capacity", alice, ResourceFilter{MinCapacity: -1}, apperrors.CodeInvalidInput},
		{"inverted range", alice, ResourceFilter{MinCapacity: 10, MaxCapacity: 2}, apperrors.CodeInvalidInput},
	}

	svc := newTestService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.List(context.Background(), tt.actor, tt.filter)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestGetByID(t *testing.T) {
	svc := newTestService()

	got, err := svc.GetByID(context.Background(), " room-1 ")
	require.NoError(t, err)
	assert.Equal(t, "Room 1", got.Name)

	_, err = svc.GetByID(context.Background(), "room-404")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = svc.GetByID(context.Background(), "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestStoreFailures(t *testing.T) {
	transient := NewResourceService(&failingRepository{err: context.DeadlineExceeded}, logger.Discard())
	_, err := transient.List(context.Background(), alice, ResourceFilter{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnavailable))

	broken := NewResourceService(&failingRepository{err: fmt.Errorf("disk on fire")}, logger.Discard())
	_, err = broken.GetByID(context.Background(), "room-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
}
