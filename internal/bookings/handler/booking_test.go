package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "bookfast/pkg/errors"
	"bookfast/pkg/logger"
	"bookfast/pkg/middleware"
	"bookfast/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock service for testing
type mockBookingService struct {
	createFunc         func(ctx context.Context, actor model.Actor, req *model.BookingRequest) (*model.Booking, error)
	updateFunc         func(ctx context.Context, actor model.Actor, id string, update *model.BookingUpdate) (*model.Booking, error)
	cancelFunc         func(ctx context.Context, actor model.Actor, id string) (*model.Booking, error)
	hasConflictFunc    func(ctx context.Context, check *model.ConflictCheck) (bool, error)
	getByIDFunc        func(ctx context.Context, actor model.Actor, id string) (*model.Booking, error)
	listMineFunc       func(ctx context.Context, actor model.Actor, filter model.BookingFilter) ([]*model.Booking, int64, error)
	listByResourceFunc func(ctx context.Context, resourceID string, filter model.BookingFilter) ([]*model.Booking, int64, error)
	listAllFunc        func(ctx context.Context, actor model.Actor, filter model.BookingFilter) ([]*model.Booking, int64, error)
}

func (m *mockBookingService) Create(ctx context.Context, actor model.Actor, req *model.BookingRequest) (*model.Booking, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, actor, req)
	}
	return &model.Booking{}, nil
}

func (m *mockBookingService) Update(ctx context.Context, actor model.Actor, id string, update *model.BookingUpdate) (*model.Booking, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, actor, id, update)
	}
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingService) Cancel(ctx context.Context, actor model.Actor, id string) (*model.Booking, error) {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, actor, id)
	}
	return &model.Booking{ID: id, Status: model.StatusCancelled}, nil
}

func (m *mockBookingService) HasConflict(ctx context.Context, check *model.ConflictCheck) (bool, error) {
	if m.hasConflictFunc != nil {
		return m.hasConflictFunc(ctx, check)
	}
	return false, nil
}

func (m *mockBookingService) GetByID(ctx context.Context, actor model.Actor, id string) (*model.Booking, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, actor, id)
	}
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingService) ListMine(ctx context.Context, actor model.Actor, filter model.BookingFilter) ([]*model.Booking, int64, error) {
	if m.listMineFunc != nil {
		return m.listMineFunc(ctx, actor, filter)
	}
	return []*model.Booking{}, 0, nil
}

func (m *mockBookingService) ListByResource(ctx context.Context, resourceID string, filter model.BookingFilter) ([]*model.Booking, int64, error) {
	if m.listByResourceFunc != nil {
		return m.listByResourceFunc(ctx, resourceID, filter)
	}
	return []*model.Booking{}, 0, nil
}

func (m *mockBookingService) ListAll(ctx context.Context, actor model.Actor, filter model.BookingFilter) ([]*model.Booking, int64, error) {
	if m.listAllFunc != nil {
		return m.listAllFunc(ctx, actor, filter)
	}
	return []*model.Booking{}, 0, nil
}

var testActor = model.Actor{UserID: "alice"}

func newRouter(svc *mockBookingService) *httprouter.Router {
	router := httprouter.New()
	NewBookingHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithActor(req.Context(), testActor))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var out apperrors.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestCreate(t *testing.T) {
	var gotActor model.Actor
	var gotReq *model.BookingRequest
	svc := &mockBookingService{
		createFunc: func(_ context.Context, actor model.Actor, req *model.BookingRequest) (*model.Booking, error) {
			gotActor, gotReq = actor, req
			return &model.Booking{ID: "b1", ResourceID: req.ResourceID, Status: model.StatusConfirmed}, nil
		},
	}

	rec := serve(newRouter(svc), http.MethodPost, "/api/v1/bookings",
		`{"resource_id":"room-1","start_time":"2030-03-04T09:00:00Z","end_time":"2030-03-04T10:00:00Z","notes":"hi"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, testActor, gotActor)
	assert.Equal(t, "room-1", gotReq.ResourceID)
	assert.True(t, gotReq.StartTime.Equal(time.Date(2030, 3, 4, 9, 0, 0, 0, time.UTC)))

	var body struct {
		Data model.Booking `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "b1", body.Data.ID)
}

func TestCreate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"malformed body", `{"resource_id":`, nil, http.StatusBadRequest, apperrors.CodeInvalidInput},
		{"conflict", `{}`, apperrors.Conflict("overlap"), http.StatusConflict, apperrors.CodeConflict},
		{"validation", `{}`, apperrors.Validation("bad", nil), http.StatusUnprocessableEntity, apperrors.CodeValidation},
		{"store down", `{}`, apperrors.Unavailable("Booking store"), http.StatusServiceUnavailable, apperrors.CodeUnavailable},
		{"unexpected", `{}`, assert.AnError, http.StatusInternalServerError, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBookingService{
				createFunc: func(context.Context, model.Actor, *model.BookingRequest) (*model.Booking, error) {
					return nil, tt.err
				},
			}
			rec := serve(newRouter(svc), http.MethodPost, "/api/v1/bookings", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestServiceUnavailableSetsRetryAfter(t *testing.T) {
	svc := &mockBookingService{
		cancelFunc: func(context.Context, model.Actor, string) (*model.Booking, error) {
			return nil, apperrors.Unavailable("Booking store")
		},
	}
	rec := serve(newRouter(svc), http.MethodDelete, "/api/v1/bookings/id/b1", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestUpdateAndCancel_PassPathID(t *testing.T) {
	var updatedID, cancelledID string
	svc := &mockBookingService{
		updateFunc: func(_ context.Context, _ model.Actor, id string, update *model.BookingUpdate) (*model.Booking, error) {
			updatedID = id
			require.NotNil(t, update.Notes)
			return &model.Booking{ID: id, Notes: *update.Notes}, nil
		},
		cancelFunc: func(_ context.Context, _ model.Actor, id string) (*model.Booking, error) {
			cancelledID = id
			return nil, apperrors.AlreadyCancelled("Booking", id)
		},
	}
	router := newRouter(svc)

	rec := serve(router, http.MethodPatch, "/api/v1/bookings/id/b7", `{"notes":"moved"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "b7", updatedID)

	rec = serve(router, http.MethodDelete, "/api/v1/bookings/id/b8", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperrors.CodeAlreadyCancelled, decodeError(t, rec).Code)
	assert.Equal(t, "b8", cancelledID)
}

func TestCheckConflict(t *testing.T) {
	svc := &mockBookingService{
		hasConflictFunc: func(_ context.Context, check *model.ConflictCheck) (bool, error) {
			return check.ExcludeBookingID == "", nil
		},
	}
	router := newRouter(svc)

	rec := serve(router, http.MethodPost, "/api/v1/bookings/check-conflict",
		`{"resource_id":"room-1","start_time":"2030-03-04T09:00:00Z","end_time":"2030-03-04T10:00:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"conflict":true}}`, rec.Body.String())

	rec = serve(router, http.MethodPost, "/api/v1/bookings/check-conflict",
		`{"resource_id":"room-1","start_time":"2030-03-04T09:00:00Z","end_time":"2030-03-04T10:00:00Z","exclude_booking_id":"b1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"conflict":false}}`, rec.Body.String())
}

func TestListings_QueryParameters(t *testing.T) {
	var mine, all, byResource model.BookingFilter
	var resourceID string
	svc := &mockBookingService{
		listMineFunc: func(_ context.Context, _ model.Actor, f model.BookingFilter) ([]*model.Booking, int64, error) {
			mine = f
			return []*model.Booking{{ID: "b1"}}, 1, nil
		},
		listAllFunc: func(_ context.Context, _ model.Actor, f model.BookingFilter) ([]*model.Booking, int64, error) {
			all = f
			return nil, 0, nil
		},
		listByResourceFunc: func(_ context.Context, id string, f model.BookingFilter) ([]*model.Booking, int64, error) {
			resourceID, byResource = id, f
			return nil, 0, nil
		},
	}
	router := newRouter(svc)

	rec := serve(router, http.MethodGet, "/api/v1/bookings?limit=5&offset=10&status=cancelled&from=2030-03-04T00:00:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, mine.Limit)
	assert.Equal(t, int64(10), mine.Offset)
	assert.Equal(t, model.StatusCancelled, mine.Status)
	require.NotNil(t, mine.From)
	assert.Nil(t, mine.To)

	var page struct {
		TotalCount int64 `json:"total_count"`
		Limit      int   `json:"limit"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Equal(t, int64(1), page.TotalCount)
	assert.Equal(t, 5, page.Limit)

	rec = serve(router, http.MethodGet, "/api/v1/bookings/all?user_id=bob&resource_id=room-2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", all.UserID)
	assert.Equal(t, "room-2", all.ResourceID)

	rec = serve(router, http.MethodGet, "/api/v1/resources/room-3/bookings?limit=500", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "room-3", resourceID)
	assert.Equal(t, 100, byResource.Limit)
}

func TestListings_InvalidQueryParameters(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"non numeric limit", "limit=abc"},
		{"non numeric offset", "offset=x"},
		{"bad status", "status=pending"},
		{"bad from", "from=yesterday"},
		{"bad to", "to=2030-13-01"},
	}

	router := newRouter(&mockBookingService{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, "/api/v1/bookings?"+tt.query, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, apperrors.CodeInvalidInput, decodeError(t, rec).Code)
		})
	}
}
