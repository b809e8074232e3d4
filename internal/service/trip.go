package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkordes/tripsync/internal/domain"
	"github.com/pkordes/tripsync/internal/repo"
	"github.com/pkordes/tripsync/internal/task"
)

// TripState is the container for the signed-in user's trips.
type TripState struct {
	*Container[domain.Trip]
}

// NewTripState returns a TripState listing the trips owner participates in.
// An empty owner lists every trip.
func NewTripState(gw repo.Gateway[domain.Trip], owner string, log *slog.Logger) *TripState {
	return &TripState{Container: NewContainer("trips", gw, owner, log)}
}

// Create assigns trip a backend-generated id, makes sure its creator is a
// participant and writes it. The task resolves with the stored trip.
func (s *TripState) Create(ctx context.Context, trip domain.Trip) *task.Task[domain.Trip] {
	if err := validateTrip(trip); err != nil {
		return task.Resolved(task.Fail[domain.Trip](err))
	}
	return mutate(ctx, s.Container, "create trip", func(ctx context.Context) (domain.Trip, error) {
		id, err := s.gw.NewID(ctx)
		if err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripState.Create: %w", err)
		}
		trip.ID = id
		if trip.Creator != "" && !trip.HasParticipant(trip.Creator) {
			trip.Participants = append([]string{trip.Creator}, trip.Participants...)
		}
		if trip.Participants == nil {
			trip.Participants = []string{}
		}
		if err := s.gw.Create(ctx, trip); err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripState.Create: %w", err)
		}
		return trip, nil
	})
}

// Update merges patch into the trip with the given id.
func (s *TripState) Update(ctx context.Context, id string, patch map[string]any) *task.Task[struct{}] {
	return mutate(ctx, s.Container, "update trip", func(ctx context.Context) (struct{}, error) {
		if err := s.gw.Update(ctx, id, patch); err != nil {
			return struct{}{}, fmt.Errorf("service.TripState.Update: %w", err)
		}
		return struct{}{}, nil
	})
}

// Delete removes the trip with the given id.
func (s *TripState) Delete(ctx context.Context, id string) *task.Task[struct{}] {
	return mutate(ctx, s.Container, "delete trip", func(ctx context.Context) (struct{}, error) {
		if err := s.gw.Delete(ctx, id); err != nil {
			return struct{}{}, fmt.Errorf("service.TripState.Delete: %w", err)
		}
		return struct{}{}, nil
	})
}

// Find returns the trip with the given id from the current snapshot.
func (s *TripState) Find(id string) (domain.Trip, bool) {
	for _, t := range s.items.Get() {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Trip{}, false
}

func validateTrip(t domain.Trip) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if t.ID != "" {
		return fmt.Errorf("%w: id is assigned by the backend", domain.ErrValidation)
	}
	if !t.StartDate.IsZero() && !t.EndDate.IsZero() && t.EndDate.Before(t.StartDate) {
		return fmt.Errorf("%w: end date is before start date", domain.ErrValidation)
	}
	return nil
}
