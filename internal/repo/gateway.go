// Package repo contains the remote data gateways: typed CRUD access to the
// collection-of-documents store. Each backend (Postgres, SurrealDB, in-memory)
// implements the same Gateway interface; no business logic lives here.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/pkordes/tripsync/internal/domain"
)

// Gateway is the CRUD surface over one collection of documents.
// State containers depend on this interface, never on a concrete backend.
//
// Every failed call returns exactly one error wrapping domain.ErrBackend
// (or domain.ErrNotFound / domain.ErrValidation). Gateways never retry.
type Gateway[T any] interface {
	// NewID asks the backend for a fresh document id, so ids never collide
	// across clients.
	NewID(ctx context.Context) (string, error)

	// Init performs one warm-up read. Call it once before the first query.
	Init(ctx context.Context) error

	// GetAll returns every document in the collection, or only those owned by
	// owner when owner is non-empty. The result is all-or-nothing: a failure
	// part way through returns an error and no documents.
	GetAll(ctx context.Context, owner string) ([]T, error)

	// Get returns one document. Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (T, error)

	// Create writes the full document under the id it carries.
	Create(ctx context.Context, doc T) error

	// Update merges patch into the stored document's top-level fields.
	// Returns domain.ErrNotFound if the document does not exist and
	// domain.ErrValidation if patch tries to change the id.
	Update(ctx context.Context, id string, patch map[string]any) error

	// Delete removes the document. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}

// Searcher is implemented by gateways whose collection declares a search field.
type Searcher[T any] interface {
	// Search returns documents whose search field contains query,
	// case-insensitively, ordered by that field.
	Search(ctx context.Context, query string) ([]T, error)
}

// PlaceGateway is the read side used by the places container.
type PlaceGateway interface {
	Gateway[domain.Place]
	Searcher[domain.Place]
}

// validatePatch rejects patches that would rewrite the document id.
func validatePatch(id string, patch map[string]any) error {
	v, ok := patch["id"]
	if !ok {
		return nil
	}
	if s, isString := v.(string); isString && s == id {
		return nil
	}
	return fmt.Errorf("%w: id is immutable", domain.ErrValidation)
}

// wrapErr attaches op to err. Anything that is not one of the domain
// sentinels is collapsed into domain.ErrBackend.
func wrapErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrBackend, err)
}
