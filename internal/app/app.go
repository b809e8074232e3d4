// Package app wires the gateways, state containers, connectivity monitor and
// notification dispatcher into one runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pkordes/tripsync/internal/config"
	"github.com/pkordes/tripsync/internal/connectivity"
	"github.com/pkordes/tripsync/internal/handler"
	"github.com/pkordes/tripsync/internal/kv"
	"github.com/pkordes/tripsync/internal/notify"
	"github.com/pkordes/tripsync/internal/push"
	"github.com/pkordes/tripsync/internal/service"
)

// shutdownTimeout bounds how long in-flight requests get after the run
// context is cancelled.
const shutdownTimeout = 15 * time.Second

// App is the assembled server.
type App struct {
	cfg config.Config
	log *slog.Logger

	closeBackend func()
	store        *kv.Store

	Trips   *service.TripState
	Users   *service.UserState
	Places  *service.PlaceState
	Session *service.Session

	Platform   *connectivity.InterfacePlatform
	Monitor    *connectivity.Monitor
	Hub        *notify.Hub
	Dispatcher *notify.Dispatcher
	Push       *push.Service

	handler   http.Handler
	closeOnce sync.Once
}

// New opens the backend selected by cfg and assembles the App.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	gw, closeBackend, err := OpenGateways(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a, err := Assemble(ctx, cfg, gw, connectivity.NewInterfacePlatform(cfg.ConnectivityPollInterval, log), log)
	if err != nil {
		closeBackend()
		return nil, err
	}
	a.closeBackend = closeBackend
	return a, nil
}

// Assemble builds the App on already opened gateways and a network platform.
func Assemble(ctx context.Context, cfg config.Config, gw Gateways, platform *connectivity.InterfacePlatform, log *slog.Logger) (*App, error) {
	store, err := kv.Open(cfg.KVPath)
	if err != nil {
		return nil, fmt.Errorf("app.Assemble: %w", err)
	}
	kvSession := kv.NewSession(store)

	current, err := kvSession.CurrentUser(ctx)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("app.Assemble: %w", err)
	}

	templates, err := notify.LoadTemplates(cfg.Locale)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("app.Assemble: %w", err)
	}

	a := &App{
		cfg:          cfg,
		log:          log,
		closeBackend: func() {},
		store:        store,
		Platform:     platform,
		Monitor:      connectivity.NewMonitor(platform, log.With("component", "connectivity")),
		Hub:          notify.NewHub(log.With("component", "hub"), allowOrigins(cfg.CORSOrigins)),
	}
	a.Dispatcher = notify.NewDispatcher(a.Hub, templates, log.With("component", "notify"))

	a.Trips = service.NewTripState(gw.Trips, current, log)
	a.Users = service.NewUserState(service.UserGateways{
		Users:          gw.Users,
		FriendRequests: gw.FriendRequests,
		TripInvites:    gw.TripInvites,
		Trips:          gw.Trips,
	}, current, log)
	a.Users.OnTripsChanged(func(ctx context.Context) {
		_, _ = a.Trips.Refresh(ctx).Await(ctx)
	})
	a.Places = service.NewPlaceState(gw.Places, cfg.SearchQuietPeriod, log)
	a.Session = service.NewSession(kvSession, a.Trips, a.Users)
	a.Push = push.NewService(a.Dispatcher, kvSession, a.Users, log.With("component", "push"))

	srv := handler.NewServer(handler.Deps{
		Trips:         a.Trips,
		Places:        a.Places,
		Connectivity:  a.Monitor,
		Push:          a.Push,
		Session:       a.Session,
		Social:        a.Users,
		Itinerary:     service.NewExportService(a.Trips),
		Notifications: a.Hub,
	}, log)
	a.handler = srv.Routes(handler.Options{
		CORSOrigins:  cfg.CORSOrigins,
		JWTSecret:    []byte(cfg.JWTSecret),
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	log.Info("app assembled", "backend", cfg.Backend, "signed_in", current != "",
		"locale", templates.Language().String())
	return a, nil
}

// Handler is the HTTP surface.
func (a *App) Handler() http.Handler { return a.handler }

// Run serves HTTP, polls the network and bridges connectivity loss into
// notifications until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	// WriteTimeout is left unset so websocket clients are not cut off.
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.Platform.Run(ctx) })

	g.Go(func() error {
		sub := BridgeNoInternet(ctx, a.Monitor, a.Dispatcher, a.log)
		<-ctx.Done()
		sub.Dispose()
		return nil
	})

	g.Go(func() error {
		a.log.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app.App.Run: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.log.Info("shutting down server")
		// Give in-flight requests time to complete before forcefully closing.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		a.Hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("app.App.Run: shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Close stops every container and releases the stores. Later calls do nothing.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.Places.Close()
		a.Users.Close()
		a.Trips.Close()
		if err := a.store.Close(); err != nil {
			a.log.Warn("close key-value store", "error", err)
		}
		a.closeBackend()
	})
}

// allowOrigins accepts websocket upgrades from the configured CORS origins
// and from requests without an Origin header.
func allowOrigins(origins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		o := r.Header.Get("Origin")
		return o == "" || slices.Contains(origins, o)
	}
}
