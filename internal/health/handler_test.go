package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookfast/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthAndReady(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		pingErr    error
		wantStatus int
		wantBody   string
	}{
		{"liveness ignores store", "/health", errors.New("down"), http.StatusOK, `{"status":"ok"}`},
		{"ready", "/ready", nil, http.StatusOK, `{"status":"ready","database":"ok"}`},
		{"store down", "/ready", errors.New("down"), http.StatusServiceUnavailable, `{"status":"unavailable","database":"error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := httprouter.New()
			NewHealthHandler(pingFunc(func(context.Context) error { return tt.pingErr }), logger.Discard()).RegisterRoutes(router)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
