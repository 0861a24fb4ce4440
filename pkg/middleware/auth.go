package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "bookfast/pkg/errors"
	"bookfast/pkg/logger"
	"bookfast/pkg/model"

	"github.com/golang-jwt/jwt"
)

const (
	ActorKey contextKey = "actor"

	TokenCookieName = "token"
	TokenQueryParam = "access_token"

	subjectClaim = "sub"
	roleClaim    = "role"
	expClaim     = "exp"
	adminRole    = "admin"
)

// Authenticate resolves the caller from a HS256 JWT and stores the actor in
// the request context. The token is read from the Authorization header, then
// the token cookie, then the access_token query parameter (browsers cannot
// set headers on websocket upgrades).
func Authenticate(signingKey []byte, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := actorFromRequest(r, signingKey)
			if err != nil {
				log.Warn("Authentication failed",
					"request_id", RequestIDFromContext(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				rejectUnauthorized(w)
				return
			}

			ctx := WithActor(r.Context(), actor)
			w.Header().Add("Cache-Control", "no-store")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithActor(ctx context.Context, actor model.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

func ActorFromContext(ctx context.Context) (model.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(model.Actor)
	return actor, ok
}

// IssueToken signs a token for actor. Used by tooling and tests; issuing
// tokens for real users belongs to the identity service.
func IssueToken(signingKey []byte, actor model.Actor, ttl time.Duration) (string, error) {
	role := "user"
	if actor.IsAdmin {
		role = adminRole
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		subjectClaim: actor.UserID,
		roleClaim:    role,
		expClaim:     time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(signingKey)
}

func actorFromRequest(r *http.Request, signingKey []byte) (model.Actor, error) {
	raw := extractToken(r)
	if raw == "" {
		return model.Actor{}, fmt.Errorf("missing token")
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return signingKey, nil
	})
	if err != nil {
		return model.Actor{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return model.Actor{}, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.Actor{}, fmt.Errorf("invalid token claims")
	}

	userID, ok := claims[subjectClaim].(string)
	if !ok || userID == "" {
		return model.Actor{}, fmt.Errorf("invalid subject claim")
	}
	role, _ := claims[roleClaim].(string)

	return model.Actor{UserID: userID, IsAdmin: role == adminRole}, nil
}

func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.URL.Query().Get(TokenQueryParam)
}

func rejectUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write(apperrors.Unauthorized("authentication required").ToJSON())
}
