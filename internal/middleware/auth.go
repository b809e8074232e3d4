package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ClaimUserID is the token claim carrying the caller's user id.
const ClaimUserID = "user_id"

type ctxKey int

const userIDKey ctxKey = iota

// UserID returns the authenticated user id stored by NewAuthHandler.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// WithUserID returns ctx carrying id, as NewAuthHandler would store it.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// NewAuthHandler returns a middleware that requires an HS256 bearer token
// signed with secret and carrying a user_id claim. With an empty secret every
// request passes through unauthenticated.
func NewAuthHandler(secret []byte, log *slog.Logger) func(http.Handler) http.Handler {
	if len(secret) == 0 {
		log.Warn("JWT_SECRET not set, authentication disabled")
		return func(next http.Handler) http.Handler { return next }
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				unauthorized(w)
				return
			}

			claims := jwt.MapClaims{}
			if _, err := parser.ParseWithClaims(raw, claims, keyFunc); err != nil {
				log.DebugContext(r.Context(), "rejected token", "error", err)
				unauthorized(w)
				return
			}
			id, err := userIDClaim(claims)
			if err != nil {
				log.DebugContext(r.Context(), "rejected token", "error", err)
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
		})
	}
}

func userIDClaim(claims jwt.MapClaims) (string, error) {
	id, _ := claims[ClaimUserID].(string)
	if id == "" {
		return "", errors.New("token has no user_id claim")
	}
	return id, nil
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
}
