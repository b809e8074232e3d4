package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripsync/internal/domain"
	"github.com/pkordes/tripsync/internal/repo"
)

// backend builds fresh, empty gateways for one test.
type backend struct {
	trips  func(t *testing.T) repo.Gateway[domain.Trip]
	places func(t *testing.T) repo.PlaceGateway
}

func tripFixture(id string, participants ...string) domain.Trip {
	return domain.Trip{
		ID:           id,
		Name:         "Summer Tour " + id,
		Creator:      participants[0],
		Participants: participants,
		StartDate:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		Type:         domain.TripTypeRoadTrip,
	}
}

func ids(trips []domain.Trip) []string {
	out := make([]string, 0, len(trips))
	for _, tr := range trips {
		out = append(out, tr.ID)
	}
	return out
}

// runContract checks the behaviour every Gateway backend must share.
func runContract(t *testing.T, b backend) {
	ctx := context.Background()

	t.Run("NewID is unique", func(t *testing.T) {
		g := b.trips(t)
		a, err := g.NewID(ctx)
		require.NoError(t, err)
		c, err := g.NewID(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, a)
		assert.NotEqual(t, a, c)
	})

	t.Run("Init on empty collection", func(t *testing.T) {
		require.NoError(t, b.trips(t).Init(ctx))
	})

	t.Run("Create then GetAll includes document", func(t *testing.T) {
		g := b.trips(t)
		tr := tripFixture("t1", "alice")
		require.NoError(t, g.Create(ctx, tr))

		all, err := g.GetAll(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, tr.ID, all[0].ID)
		assert.Equal(t, tr.Name, all[0].Name)
		assert.Equal(t, tr.Participants, all[0].Participants)
	})

	t.Run("GetAll is idempotent and ordered by creation", func(t *testing.T) {
		g := b.trips(t)
		for _, id := range []string{"t1", "t2", "t3"} {
			require.NoError(t, g.Create(ctx, tripFixture(id, "alice")))
		}

		first, err := g.GetAll(ctx, "")
		require.NoError(t, err)
		second, err := g.GetAll(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"t1", "t2", "t3"}, ids(first))
		assert.Equal(t, ids(first), ids(second))
	})

	t.Run("GetAll filters by owner", func(t *testing.T) {
		g := b.trips(t)
		require.NoError(t, g.Create(ctx, tripFixture("t1", "alice", "bob")))
		require.NoError(t, g.Create(ctx, tripFixture("t2", "carol")))

		got, err := g.GetAll(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, []string{"t1"}, ids(got))

		got, err = g.GetAll(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Get missing returns ErrNotFound", func(t *testing.T) {
		_, err := b.trips(t).Get(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Update merges top-level fields", func(t *testing.T) {
		g := b.trips(t)
		require.NoError(t, g.Create(ctx, tripFixture("t1", "alice")))

		require.NoError(t, g.Update(ctx, "t1", map[string]any{"name": "Renamed"}))

		got, err := g.Get(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
		assert.Equal(t, []string{"alice"}, got.Participants, "untouched fields survive")
		assert.Equal(t, domain.TripTypeRoadTrip, got.Type)
	})

	t.Run("Update rejects id change", func(t *testing.T) {
		g := b.trips(t)
		require.NoError(t, g.Create(ctx, tripFixture("t1", "alice")))

		err := g.Update(ctx, "t1", map[string]any{"id": "t2"})
		assert.ErrorIs(t, err, domain.ErrValidation)

		got, err := g.Get(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, "t1", got.ID)
	})

	t.Run("Update missing returns ErrNotFound", func(t *testing.T) {
		err := b.trips(t).Update(ctx, "missing", map[string]any{"name": "x"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Delete then GetAll excludes document", func(t *testing.T) {
		g := b.trips(t)
		require.NoError(t, g.Create(ctx, tripFixture("t1", "alice")))
		require.NoError(t, g.Create(ctx, tripFixture("t2", "alice")))

		require.NoError(t, g.Delete(ctx, "t1"))

		all, err := g.GetAll(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"t2"}, ids(all))

		assert.ErrorIs(t, g.Delete(ctx, "t1"), domain.ErrNotFound)
	})

	t.Run("Search matches substring case-insensitively", func(t *testing.T) {
		g := b.places(t)
		for _, p := range []domain.Place{
			{ID: "p1", Name: "Louvre Museum"},
			{ID: "p2", Name: "Eiffel Tower"},
			{ID: "p3", Name: "Musée d'Orsay"},
			{ID: "p4", Name: "100% Pure"},
		} {
			require.NoError(t, g.Create(ctx, p))
		}

		got, err := g.Search(ctx, "mus")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Louvre Museum", got[0].Name)
		assert.Equal(t, "Musée d'Orsay", got[1].Name)

		got, err = g.Search(ctx, "%")
		require.NoError(t, err)
		require.Len(t, got, 1, "wildcards are matched literally")
		assert.Equal(t, "p4", got[0].ID)
	})
}
