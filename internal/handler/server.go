// Package handler implements the HTTP surface of the tripsync API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, etc.) but share the same Server struct so they
// can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/tripsync/internal/debounce"
	"github.com/pkordes/tripsync/internal/domain"
	"github.com/pkordes/tripsync/internal/middleware"
	"github.com/pkordes/tripsync/internal/observable"
	"github.com/pkordes/tripsync/internal/service"
	"github.com/pkordes/tripsync/internal/task"
)

// TripStater is the trip container the trip handlers drive. Defining the
// interface here, in the consumer package, lets handler tests inject a double.
type TripStater interface {
	Items() *observable.Value[[]domain.Trip]
	Focused() *observable.Value[domain.Trip]
	Select(trip domain.Trip) *task.Task[domain.Trip]
	Find(id string) (domain.Trip, bool)
	Create(ctx context.Context, trip domain.Trip) *task.Task[domain.Trip]
	Update(ctx context.Context, id string, patch map[string]any) *task.Task[struct{}]
	Delete(ctx context.Context, id string) *task.Task[struct{}]
}

// PlaceSearcher is the debounced place search.
type PlaceSearcher interface {
	SetQuery(q string)
	Query() *observable.Value[string]
	Results() *observable.Value[[]domain.Place]
	SearchState() debounce.State
}

// ConnectivityChecker reports internet reachability.
type ConnectivityChecker interface {
	Current() domain.ConnectionState
	Check() error
}

// PushReceiver ingests push relay traffic.
type PushReceiver interface {
	HandleMessage(ctx context.Context, raw []byte) (int, error)
	RefreshToken(ctx context.Context, token string) error
}

// SessionManager records who is signed in on this device.
type SessionManager interface {
	SignIn(ctx context.Context, userID string) error
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context) (string, error)
}

// ItineraryExporter flattens trips into itinerary rows. An empty id exports
// every trip.
type ItineraryExporter interface {
	Itinerary(tripID string) ([]domain.ItineraryRow, error)
}

// SocialStater runs the friend request and trip invite workflows.
type SocialStater interface {
	Users() *service.Container[domain.User]
	FriendRequests() *service.Container[domain.FriendRequest]
	TripInvites() *service.Container[domain.TripInvite]
	SendFriendRequest(ctx context.Context, sender domain.User, receiverID string) *task.Task[domain.FriendRequest]
	AcceptFriendRequest(ctx context.Context, userID, id string) *task.Task[domain.FriendRequest]
	DeclineFriendRequest(ctx context.Context, userID, id string) *task.Task[struct{}]
	SendTripInvite(ctx context.Context, inviterID string, trip domain.Trip, inviteeID string) *task.Task[domain.TripInvite]
	AcceptTripInvite(ctx context.Context, userID, id string) *task.Task[domain.TripInvite]
	DeclineTripInvite(ctx context.Context, userID, id string) *task.Task[struct{}]
}

// Deps are the Server's collaborators. Nil optional fields leave their routes
// unmounted.
type Deps struct {
	Trips        TripStater
	Places       PlaceSearcher
	Connectivity ConnectivityChecker
	Push         PushReceiver
	Session      SessionManager
	Social       SocialStater
	Itinerary    ItineraryExporter
	// Notifications serves the notification websocket.
	Notifications http.Handler
}

// Options configure the middleware stack built by Routes.
type Options struct {
	CORSOrigins  []string
	JWTSecret    []byte
	MaxBodyBytes int64
}

// Server holds the dependencies shared by every handler.
type Server struct {
	deps Deps
	log  *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(deps Deps, log *slog.Logger) *Server {
	return &Server{deps: deps, log: log}
}

// Routes builds the router. Middleware is applied in order: RequestID →
// RealIP → SlogLogger → Recoverer → CORS → body limit. Everything except
// /healthz, /openapi.yaml and the push relay endpoint sits behind bearer auth.
func (s *Server) Routes(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddlewareStack(s.log)...)
	r.Use(middleware.NewCORSHandler(opts.CORSOrigins))
	if opts.MaxBodyBytes > 0 {
		r.Use(middleware.NewMaxBodySizeHandler(opts.MaxBodyBytes))
	}

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	if s.deps.Push != nil {
		r.Post("/push/messages", s.PostPushMessage)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthHandler(opts.JWTSecret, s.log))

		if s.deps.Trips != nil {
			r.Route("/trips", func(r chi.Router) {
				r.Get("/", s.ListTrips)
				r.Post("/", s.CreateTrip)
				r.Get("/selected", s.GetSelectedTrip)
				r.Put("/selected", s.SelectTrip)
				r.Patch("/{id}", s.UpdateTrip)
				r.Delete("/{id}", s.DeleteTrip)
				if s.deps.Itinerary != nil {
					r.Get("/itinerary", s.ExportItinerary)
					r.Get("/{id}/itinerary", s.ExportItinerary)
				}
				if s.deps.Social != nil {
					r.Post("/{id}/invites", s.SendTripInvite)
				}
			})
		}
		if s.deps.Places != nil {
			r.Get("/places", s.GetPlaces)
			r.Post("/places/query", s.SetPlaceQuery)
		}
		if s.deps.Connectivity != nil {
			r.Get("/connectivity", s.GetConnectivity)
		}
		if s.deps.Notifications != nil {
			r.Handle("/notifications/ws", s.deps.Notifications)
		}
		if s.deps.Push != nil {
			r.Post("/push/token", s.PostPushToken)
		}
		if s.deps.Session != nil {
			r.Get("/session", s.GetSession)
			r.Post("/session", s.SignIn)
			r.Delete("/session", s.SignOut)
		}
		if s.deps.Social != nil {
			r.Get("/users", s.ListUsers)
			r.Route("/friend-requests", func(r chi.Router) {
				r.Get("/", s.ListFriendRequests)
				r.Post("/", s.SendFriendRequest)
				r.Post("/{id}/accept", s.AcceptFriendRequest)
				r.Post("/{id}/decline", s.DeclineFriendRequest)
			})
			r.Route("/invites", func(r chi.Router) {
				r.Get("/", s.ListTripInvites)
				r.Post("/{id}/accept", s.AcceptTripInvite)
				r.Post("/{id}/decline", s.DeclineTripInvite)
			})
		}
	})
	return r
}

// currentUser is the authenticated caller, falling back to the user signed
// in on this device when authentication is disabled.
func (s *Server) currentUser(ctx context.Context) (string, error) {
	if id, ok := middleware.UserID(ctx); ok {
		return id, nil
	}
	if s.deps.Session == nil {
		return "", nil
	}
	return s.deps.Session.CurrentUser(ctx)
}
