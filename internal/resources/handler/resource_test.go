package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookfast/internal/resources/service"
	apperrors "bookfast/pkg/errors"
	"bookfast/pkg/logger"
	"bookfast/pkg/middleware"
	"bookfast/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResourceService struct {
	listFunc    func(ctx context.Context, actor model.Actor, filter service.ResourceFilter) ([]*model.Resource, error)
	getByIDFunc func(ctx context.Context, id string) (*model.Resource, error)
}

func (m *mockResourceService) List(ctx context.Context, actor model.Actor, filter service.ResourceFilter) ([]*model.Resource, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, actor, filter)
	}
	return []*model.Resource{}, nil
}

func (m *mockResourceService) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &model.Resource{ID: id}, nil
}

func newRouter(svc service.ResourceService) *httprouter.Router {
	router := httprouter.New()
	NewResourceHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func get(router http.Handler, path string, actor model.Actor) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = req.WithContext(middleware.WithActor(req.Context(), actor))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestList_QueryParams(t *testing.T) {
	var gotActor model.Actor
	var gotFilter service.ResourceFilter
	router := newRouter(&mockResourceService{
		listFunc: func(_ context.Context, actor model.Actor, filter service.ResourceFilter) ([]*model.Resource, error) {
			gotActor, gotFilter = actor, filter
			return []*model.Resource{{ID: "room-1", Name: "Room 1"}}, nil
		},
	})

	rec := get(router, "/api/v1/resources?type=room&min_capacity=2&max_capacity=10&search=room&include_inactive=true", model.Actor{UserID: "root", IsAdmin: true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "root", gotActor.UserID)
	assert.Equal(t, service.ResourceFilter{
		Type:            model.ResourceRoom,
		MinCapacity:     2,
		MaxCapacity:     10,
		Search:          "room",
		IncludeInactive: true,
	}, gotFilter)

	var body struct {
		Data []model.Resource `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "room-1", body.Data[0].ID)
}

func TestList_InvalidQueryParams(t *testing.T) {
	router := newRouter(&mockResourceService{})

	for _, query := range []string{"min_capacity=lots", "max_capacity=1.5", "include_inactive=maybe"} {
		t.Run(query, func(t *testing.T) {
			rec := get(router, "/api/v1/resources?"+query, model.Actor{UserID: "alice"})
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetByID(t *testing.T) {
	router := newRouter(&mockResourceService{
		getByIDFunc: func(_ context.Context, id string) (*model.Resource, error) {
			if id == "room-1" {
				return &model.Resource{ID: id, Name: "Room 1"}, nil
			}
			return nil, apperrors.NotFoundWithID("Resource", id)
		},
	})

	rec := get(router, "/api/v1/resources/room-1", model.Actor{UserID: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data model.Resource `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Room 1", body.Data.Name)

	rec = get(router, "/api/v1/resources/room-404", model.Actor{UserID: "alice"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
