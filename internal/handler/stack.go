package handler

import (
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pkordes/tripsync/internal/middleware"
)

// chimiddlewareStack is the request-scoped middleware every route shares.
// RequestID generates a unique trace ID per request. RealIP sets r.RemoteAddr
// from X-Forwarded-For / X-Real-IP. SlogLogger writes one structured log line
// per request. Recoverer turns panics into HTTP 500.
func chimiddlewareStack(log *slog.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		middleware.NewSlogLogger(log),
		chimiddleware.Recoverer,
	}
}
