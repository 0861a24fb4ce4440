package middleware

import (
	"net/http"

	apperrors "bookfast/pkg/errors"
)

// MaxRequestSize caps request bodies. Decoding past the limit fails, which
// handlers report as an invalid body.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				appErr := apperrors.New(apperrors.CodeInvalidInput, "Request body too large", http.StatusRequestEntityTooLarge)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(appErr.StatusCode())
				_, _ = w.Write(appErr.ToJSON())
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
