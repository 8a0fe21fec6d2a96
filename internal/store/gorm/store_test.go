package gormstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jcorriveau23/backend-pool-nhl/internal/pool"
	"github.com/jcorriveau23/backend-pool-nhl/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	s, err := New(db)
	require.NoError(t, err)
	return s
}

func TestInsertAndGetShortPoolProjectsOutScoreByDay(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := pool.NewPool("p1", "owner", pool.DefaultPoolSettings(), pool.SeasonConstants{PoolCreationSeason: 20252026})
	p.Context = pool.NewPoolContext([]string{"owner"})
	p.Context.ScoreByDay["owner"] = map[string]pool.DailyRosterPoints{"2026-01-01": {}}
	p.Season = 20252026

	require.NoError(t, s.InsertPool(ctx, p))

	err := s.InsertPool(ctx, p)
	assert.Equal(t, store.ErrAlreadyExists, err)

	short, err := s.GetShortPool(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, short.Context.ScoreByDay["owner"])
}

func TestGetPoolWithDateWindowFiltersOldEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := pool.NewPool("p1", "owner", pool.DefaultPoolSettings(), pool.SeasonConstants{PoolCreationSeason: 20252026})
	p.Context = pool.NewPoolContext([]string{"owner"})
	p.Context.ScoreByDay["owner"] = map[string]pool.DailyRosterPoints{
		"2026-01-01": {},
		"2026-02-01": {},
	}
	require.NoError(t, s.InsertPool(ctx, p))

	windowed, err := s.GetPoolWithDateWindow(ctx, "p1", "2026-01-15")
	require.NoError(t, err)
	_, hasOld := windowed.Context.ScoreByDay["owner"]["2026-01-01"]
	_, hasNew := windowed.Context.ScoreByDay["owner"]["2026-02-01"]
	assert.False(t, hasOld)
	assert.True(t, hasNew)
}

func TestUpdatePoolAppliesPartialDiff(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := pool.NewPool("p1", "owner", pool.DefaultPoolSettings(), pool.SeasonConstants{PoolCreationSeason: 20252026})
	require.NoError(t, s.InsertPool(ctx, p))

	newStatus := pool.StateDraft
	updated, err := s.UpdatePool(ctx, "p1", store.PoolDiff{Status: &newStatus})
	require.NoError(t, err)
	assert.Equal(t, pool.StateDraft, updated.Status)
	assert.Equal(t, "owner", updated.Owner)
}

func TestUpdateMissingPoolReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.UpdatePool(context.Background(), "missing", store.PoolDiff{})
	assert.Equal(t, store.ErrNotFound, err)
}

func TestListPoolsFiltersBySeason(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p1 := pool.NewPool("a", "o", pool.DefaultPoolSettings(), pool.SeasonConstants{PoolCreationSeason: 1})
	p1.Season = 1
	p2 := pool.NewPool("b", "o", pool.DefaultPoolSettings(), pool.SeasonConstants{PoolCreationSeason: 2})
	p2.Season = 2
	require.NoError(t, s.InsertPool(ctx, p1))
	require.NoError(t, s.InsertPool(ctx, p2))

	list, err := s.ListPools(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].Name)
}

func TestDeletePoolRemovesRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := pool.NewPool("p1", "owner", pool.DefaultPoolSettings(), pool.SeasonConstants{PoolCreationSeason: 20252026})
	require.NoError(t, s.InsertPool(ctx, p))

	require.NoError(t, s.DeletePool(ctx, "p1"))
	_, err := s.GetShortPool(ctx, "p1")
	assert.Equal(t, store.ErrNotFound, err)

	assert.Equal(t, store.ErrNotFound, s.DeletePool(ctx, "p1"))
}
