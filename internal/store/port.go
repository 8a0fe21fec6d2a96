// Package store defines the Store Port: the abstraction the Pool State
// Engine's callers use to load, persist, and list pools without knowing
// whether the backing document lives in Postgres/JSONB or an in-memory map.
package store

import (
	"context"

	"github.com/jcorriveau23/backend-pool-nhl/internal/pool"
)

// ProjectedPoolShort is the list_pools projection: enough to render a pool
// picker without loading rosters or score_by_day.
type ProjectedPoolShort struct {
	Name   string
	Owner  string
	Status pool.PoolState
	Season uint32
}

// ContextDiff is the partial-update shape for everything under Pool.Context
// EXCEPT score_by_day, which gets its own top-level diff field so a routine
// engine mutation (a draft pick, a trade) never touches — let alone
// rewrites — the large daily scoring blob.
type ContextDiff struct {
	PoolerRoster       map[string]*pool.PoolerRoster
	Players            map[string]pool.Player
	PlayersNameDrafted []uint32
	TradablePicks      []map[string]string
	PastTradablePicks  []map[string]string
	ProtectedPlayers   map[string][]uint32
}

// PoolDiff is a structured partial update. Only non-nil fields are written,
// so large fields such as score_by_day are never rewritten unless the
// caller explicitly sets them — update_pool is a return-after-modification
// operation over a diff, not a full-document replace.
type PoolDiff struct {
	Participants *[]pool.PoolUser
	Settings     *pool.PoolSettings
	Status       *pool.PoolState
	FinalRank    *[]string
	DraftOrder   *[]string
	Trades       *[]pool.Trade
	Context      *ContextDiff
	ScoreByDay   *map[string]map[string]pool.DailyRosterPoints
}

// PoolStore is the engine's storage port. Implementations must serialize
// concurrent mutations of the same pool name (§5's ordering guarantee);
// callers should still prefer partial PoolDiff writes over replacing the
// whole document to minimize clobbering under last-writer-wins semantics.
type PoolStore interface {
	// GetShortPool loads a pool without score_by_day.
	GetShortPool(ctx context.Context, name string) (*pool.Pool, error)
	// GetPoolWithDateWindow loads a pool with score_by_day entries before
	// fromDate projected out.
	GetPoolWithDateWindow(ctx context.Context, name, fromDate string) (*pool.Pool, error)
	// ListPools returns every short-projected pool for the given season.
	ListPools(ctx context.Context, season uint32) ([]ProjectedPoolShort, error)
	// InsertPool persists a brand-new pool; fails with AlreadyExists if the
	// name is taken.
	InsertPool(ctx context.Context, p *pool.Pool) error
	// UpdatePool applies diff to the named pool and returns the resulting
	// document.
	UpdatePool(ctx context.Context, name string, diff PoolDiff) (*pool.Pool, error)
	// DeletePool removes a pool entirely (pool_deletion_request).
	DeletePool(ctx context.Context, name string) error
}

// FullDiff builds a PoolDiff covering every field except ScoreByDay, the
// shape every engine-mutation caller (the WebSocket dispatcher, the HTTP
// handlers) writes back after a successful engine call. ScoreByDay is
// deliberately omitted: routine mutations never touch it.
func FullDiff(p *pool.Pool) PoolDiff {
	diff := PoolDiff{
		Participants: &p.Participants,
		Settings:     &p.Settings,
		Status:       &p.Status,
		FinalRank:    &p.FinalRank,
		DraftOrder:   &p.DraftOrder,
		Trades:       &p.Trades,
	}
	if p.Context != nil {
		diff.Context = &ContextDiff{
			PoolerRoster:       p.Context.PoolerRoster,
			Players:            p.Context.Players,
			PlayersNameDrafted: p.Context.PlayersNameDrafted,
			TradablePicks:      p.Context.TradablePicks,
			PastTradablePicks:  p.Context.PastTradablePicks,
			ProtectedPlayers:   p.Context.ProtectedPlayers,
		}
	}
	return diff
}

// ErrNotFound is returned by implementations when name has no pool.
var ErrNotFound = &notFoundError{}

type notFoundError struct{}

func (*notFoundError) Error() string { return "pool not found" }

// ErrAlreadyExists is returned by InsertPool when name is already taken.
var ErrAlreadyExists = &alreadyExistsError{}

type alreadyExistsError struct{}

func (*alreadyExistsError) Error() string { return "pool already exists" }
