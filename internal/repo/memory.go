package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/pkordes/tripsync/internal/domain"
)

// MemoryGateway keeps a collection in process memory. It backs tests and the
// `memory` backend used for local development.
//
// Documents are stored as encoded JSON so callers never share slices with the
// store, the same isolation a remote store gives.
type MemoryGateway[T any] struct {
	col Collection[T]

	mu    sync.RWMutex
	order []string
	docs  map[string][]byte
}

// NewMemoryGateway returns an empty in-memory gateway for col.
func NewMemoryGateway[T any](col Collection[T]) *MemoryGateway[T] {
	return &MemoryGateway[T]{col: col, docs: map[string][]byte{}}
}

func (g *MemoryGateway[T]) op(method string) string {
	return "repo.MemoryGateway[" + g.col.Name + "]." + method
}

func (g *MemoryGateway[T]) NewID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", wrapErr(g.op("NewID"), err)
	}
	return uuid.NewString(), nil
}

func (g *MemoryGateway[T]) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return wrapErr(g.op("Init"), err)
	}
	return nil
}

func (g *MemoryGateway[T]) GetAll(ctx context.Context, owner string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapErr(g.op("GetAll"), err)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	docs := []T{}
	for _, id := range g.order {
		doc, err := g.decode(g.docs[id])
		if err != nil {
			return nil, wrapErr(g.op("GetAll"), err)
		}
		if owner != "" && g.col.OwnerField != "" && !slices.Contains(g.col.Owners(doc), owner) {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (g *MemoryGateway[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, wrapErr(g.op("Get"), err)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	raw, ok := g.docs[id]
	if !ok {
		return zero, wrapErr(g.op("Get"), domain.ErrNotFound)
	}
	doc, err := g.decode(raw)
	if err != nil {
		return zero, wrapErr(g.op("Get"), err)
	}
	return doc, nil
}

func (g *MemoryGateway[T]) Create(ctx context.Context, doc T) error {
	if err := ctx.Err(); err != nil {
		return wrapErr(g.op("Create"), err)
	}
	id := g.col.ID(doc)
	if id == "" {
		return wrapErr(g.op("Create"), fmt.Errorf("%w: document has no id", domain.ErrValidation))
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return wrapErr(g.op("Create"), err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.docs[id]; !exists {
		g.order = append(g.order, id)
	}
	g.docs[id] = raw
	return nil
}

func (g *MemoryGateway[T]) Update(ctx context.Context, id string, patch map[string]any) error {
	if err := ctx.Err(); err != nil {
		return wrapErr(g.op("Update"), err)
	}
	if err := validatePatch(id, patch); err != nil {
		return wrapErr(g.op("Update"), err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	raw, ok := g.docs[id]
	if !ok {
		return wrapErr(g.op("Update"), domain.ErrNotFound)
	}
	merged, err := mergeJSON(raw, patch)
	if err != nil {
		return wrapErr(g.op("Update"), err)
	}
	// the merged body must still decode into T
	if _, err := g.decode(merged); err != nil {
		return wrapErr(g.op("Update"), err)
	}
	g.docs[id] = merged
	return nil
}

func (g *MemoryGateway[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return wrapErr(g.op("Delete"), err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.docs[id]; !ok {
		return wrapErr(g.op("Delete"), domain.ErrNotFound)
	}
	delete(g.docs, id)
	g.order = slices.DeleteFunc(g.order, func(s string) bool { return s == id })
	return nil
}

func (g *MemoryGateway[T]) Search(ctx context.Context, query string) ([]T, error) {
	if g.col.SearchText == nil {
		return nil, wrapErr(g.op("Search"), fmt.Errorf("%w: collection is not searchable", domain.ErrValidation))
	}
	all, err := g.GetAll(ctx, "")
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	matches := []T{}
	for _, doc := range all {
		if strings.Contains(strings.ToLower(g.col.SearchText(doc)), q) {
			matches = append(matches, doc)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return g.col.SearchText(matches[i]) < g.col.SearchText(matches[j])
	})
	return matches, nil
}

func (g *MemoryGateway[T]) decode(raw []byte) (T, error) {
	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decode %s document: %w", g.col.Name, err)
	}
	return doc, nil
}

// mergeJSON applies patch to the top level of the JSON object in raw.
func mergeJSON(raw []byte, patch map[string]any) ([]byte, error) {
	body := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	for k, v := range patch {
		enc, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", k, err)
		}
		body[k] = enc
	}
	return json.Marshal(body)
}
