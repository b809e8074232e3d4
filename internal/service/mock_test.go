package service_test

import (
	"context"
	"sync/atomic"

	"github.com/pkordes/tripsync/internal/domain"
	"github.com/pkordes/tripsync/internal/repo"
)

// mockGateway is a hand-written test double for repo.Gateway. Each method is
// a function field; unset fields fall through to base.
type mockGateway[T any] struct {
	base repo.Gateway[T]

	newID  func(ctx context.Context) (string, error)
	init   func(ctx context.Context) error
	getAll func(ctx context.Context, owner string) ([]T, error)
	get    func(ctx context.Context, id string) (T, error)
	create func(ctx context.Context, doc T) error
	update func(ctx context.Context, id string, patch map[string]any) error
	delete func(ctx context.Context, id string) error
	search func(ctx context.Context, q string) ([]T, error)

	initCalls   atomic.Int32
	getAllCalls atomic.Int32
	searchCalls atomic.Int32
}

func newMock[T any](col repo.Collection[T]) *mockGateway[T] {
	return &mockGateway[T]{base: repo.NewMemoryGateway(col)}
}

func (m *mockGateway[T]) NewID(ctx context.Context) (string, error) {
	if m.newID != nil {
		return m.newID(ctx)
	}
	return m.base.NewID(ctx)
}

func (m *mockGateway[T]) Init(ctx context.Context) error {
	m.initCalls.Add(1)
	if m.init != nil {
		return m.init(ctx)
	}
	return m.base.Init(ctx)
}

func (m *mockGateway[T]) GetAll(ctx context.Context, owner string) ([]T, error) {
	m.getAllCalls.Add(1)
	if m.getAll != nil {
		return m.getAll(ctx, owner)
	}
	return m.base.GetAll(ctx, owner)
}

func (m *mockGateway[T]) Get(ctx context.Context, id string) (T, error) {
	if m.get != nil {
		return m.get(ctx, id)
	}
	return m.base.Get(ctx, id)
}

func (m *mockGateway[T]) Create(ctx context.Context, doc T) error {
	if m.create != nil {
		return m.create(ctx, doc)
	}
	return m.base.Create(ctx, doc)
}

func (m *mockGateway[T]) Update(ctx context.Context, id string, patch map[string]any) error {
	if m.update != nil {
		return m.update(ctx, id, patch)
	}
	return m.base.Update(ctx, id, patch)
}

func (m *mockGateway[T]) Delete(ctx context.Context, id string) error {
	if m.delete != nil {
		return m.delete(ctx, id)
	}
	return m.base.Delete(ctx, id)
}

func (m *mockGateway[T]) Search(ctx context.Context, q string) ([]T, error) {
	m.searchCalls.Add(1)
	if m.search != nil {
		return m.search(ctx, q)
	}
	return m.base.(repo.Searcher[T]).Search(ctx, q)
}

// compile-time checks
var (
	_ repo.Gateway[domain.Trip] = (*mockGateway[domain.Trip])(nil)
	_ repo.PlaceGateway         = (*mockGateway[domain.Place])(nil)
)
