package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pkordes/tripsync/internal/config"
	"github.com/pkordes/tripsync/internal/domain"
	"github.com/pkordes/tripsync/internal/repo"
)

// Gateways are the remote collections the containers read and write.
type Gateways struct {
	Trips          repo.Gateway[domain.Trip]
	Users          repo.Gateway[domain.User]
	FriendRequests repo.Gateway[domain.FriendRequest]
	TripInvites    repo.Gateway[domain.TripInvite]
	Places         repo.PlaceGateway
}

// OpenGateways connects to the backend selected by cfg.Backend. The returned
// function releases the connection.
func OpenGateways(ctx context.Context, cfg config.Config, log *slog.Logger) (Gateways, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		// pgxpool manages a pool of Postgres connections; New does not dial.
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return Gateways{}, nil, fmt.Errorf("app.OpenGateways: create pool: %w", err)
		}
		// Verify the DB is reachable before accepting traffic.
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return Gateways{}, nil, fmt.Errorf("app.OpenGateways: ping postgres: %w", err)
		}
		log.Info("database connection established", "backend", cfg.Backend)
		return Gateways{
			Trips:          repo.NewPostgresGateway(pool, repo.Trips),
			Users:          repo.NewPostgresGateway(pool, repo.Users),
			FriendRequests: repo.NewPostgresGateway(pool, repo.FriendRequests),
			TripInvites:    repo.NewPostgresGateway(pool, repo.TripInvites),
			Places:         repo.NewPostgresGateway(pool, repo.Places),
		}, pool.Close, nil

	case config.BackendSurrealDB:
		db, err := repo.NewSurrealDB(ctx, cfg.SurrealURL, cfg.SurrealNamespace, cfg.SurrealDatabase,
			cfg.SurrealUser, cfg.SurrealPass)
		if err != nil {
			return Gateways{}, nil, fmt.Errorf("app.OpenGateways: %w", err)
		}
		log.Info("database connection established", "backend", cfg.Backend,
			"namespace", cfg.SurrealNamespace, "database", cfg.SurrealDatabase)
		closeDB := func() {
			if err := db.Close(context.Background()); err != nil {
				log.Warn("close surrealdb", "error", err)
			}
		}
		return Gateways{
			Trips:          repo.NewSurrealGateway(db, repo.Trips),
			Users:          repo.NewSurrealGateway(db, repo.Users),
			FriendRequests: repo.NewSurrealGateway(db, repo.FriendRequests),
			TripInvites:    repo.NewSurrealGateway(db, repo.TripInvites),
			Places:         repo.NewSurrealGateway(db, repo.Places),
		}, closeDB, nil

	case config.BackendMemory:
		log.Warn("using in-memory backend, data is lost on exit")
		return MemoryGateways(), func() {}, nil

	default:
		return Gateways{}, nil, fmt.Errorf("app.OpenGateways: unknown backend %q", cfg.Backend)
	}
}

// MemoryGateways returns empty in-memory collections.
func MemoryGateways() Gateways {
	return Gateways{
		Trips:          repo.NewMemoryGateway(repo.Trips),
		Users:          repo.NewMemoryGateway(repo.Users),
		FriendRequests: repo.NewMemoryGateway(repo.FriendRequests),
		TripInvites:    repo.NewMemoryGateway(repo.TripInvites),
		Places:         repo.NewMemoryGateway(repo.Places),
	}
}
