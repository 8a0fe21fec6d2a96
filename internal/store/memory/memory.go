// Package memory implements store.PoolStore entirely in process memory. It
// exists to exercise the engine in tests without a database and to keep the
// Store Port interface honest (swap-in-able against the GORM implementation).
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/jcorriveau23/backend-pool-nhl/internal/pool"
	"github.com/jcorriveau23/backend-pool-nhl/internal/store"
)

// Store is an in-memory, mutex-guarded PoolStore. Per-pool mutations are
// serialized through a dedicated per-name lock (rather than one global
// lock) so unrelated pools never contend, matching §9's recommendation to
// serialize per-pool rather than per-store.
type Store struct {
	mu        sync.RWMutex
	pools     map[string]*pool.Pool
	poolLocks map[string]*sync.Mutex
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		pools:     map[string]*pool.Pool{},
		poolLocks: map[string]*sync.Mutex{},
	}
}

func (s *Store) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.poolLocks[name]
	if !ok {
		l = &sync.Mutex{}
		s.poolLocks[name] = l
	}
	return l
}

func deepCopy(p *pool.Pool) *pool.Pool {
	raw, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}
	out := &pool.Pool{}
	if err := json.Unmarshal(raw, out); err != nil {
		panic(err)
	}
	return out
}

func withoutScoreByDay(p *pool.Pool) *pool.Pool {
	cp := deepCopy(p)
	if cp.Context != nil {
		cp.Context.ScoreByDay = map[string]map[string]pool.DailyRosterPoints{}
	}
	return cp
}

func withDateWindow(p *pool.Pool, fromDate string) *pool.Pool {
	cp := deepCopy(p)
	if cp.Context == nil {
		return cp
	}
	filtered := map[string]map[string]pool.DailyRosterPoints{}
	for userID, byDay := range cp.Context.ScoreByDay {
		kept := map[string]pool.DailyRosterPoints{}
		for date, drp := range byDay {
			if date >= fromDate {
				kept[date] = drp
			}
		}
		filtered[userID] = kept
	}
	cp.Context.ScoreByDay = filtered
	return cp
}

// GetShortPool loads a pool with score_by_day emptied out.
func (s *Store) GetShortPool(ctx context.Context, name string) (*pool.Pool, error) {
	s.mu.RLock()
	p, ok := s.pools[name]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	return withoutScoreByDay(p), nil
}

// GetPoolWithDateWindow loads a pool with score_by_day entries before
// fromDate projected out.
func (s *Store) GetPoolWithDateWindow(ctx context.Context, name, fromDate string) (*pool.Pool, error) {
	s.mu.RLock()
	p, ok := s.pools[name]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	return withDateWindow(p, fromDate), nil
}

// ListPools returns a short projection of every pool in the given season.
func (s *Store) ListPools(ctx context.Context, season uint32) ([]store.ProjectedPoolShort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.ProjectedPoolShort, 0, len(s.pools))
	for _, p := range s.pools {
		if p.Season != season {
			continue
		}
		out = append(out, store.ProjectedPoolShort{Name: p.Name, Owner: p.Owner, Status: p.Status, Season: p.Season})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// InsertPool persists a brand-new pool.
func (s *Store) InsertPool(ctx context.Context, p *pool.Pool) error {
	lock := s.lockFor(p.Name)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pools[p.Name]; exists {
		return store.ErrAlreadyExists
	}
	s.pools[p.Name] = deepCopy(p)
	return nil
}

// UpdatePool applies diff under the pool's dedicated lock and returns the
// resulting document.
func (s *Store) UpdatePool(ctx context.Context, name string, diff store.PoolDiff) (*pool.Pool, error) {
	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	current, ok := s.pools[name]
	s.mu.Unlock()
	if !ok {
		return nil, store.ErrNotFound
	}

	updated := deepCopy(current)
	if diff.Participants != nil {
		updated.Participants = *diff.Participants
	}
	if diff.Settings != nil {
		updated.Settings = *diff.Settings
	}
	if diff.Status != nil {
		updated.Status = *diff.Status
	}
	if diff.FinalRank != nil {
		updated.FinalRank = *diff.FinalRank
	}
	if diff.DraftOrder != nil {
		updated.DraftOrder = *diff.DraftOrder
	}
	if diff.Trades != nil {
		updated.Trades = *diff.Trades
	}
	if updated.Context == nil && (diff.Context != nil || diff.ScoreByDay != nil) {
		updated.Context = pool.NewPoolContext(nil)
	}
	if diff.Context != nil {
		if diff.Context.PoolerRoster != nil {
			updated.Context.PoolerRoster = diff.Context.PoolerRoster
		}
		if diff.Context.Players != nil {
			updated.Context.Players = diff.Context.Players
		}
		if diff.Context.PlayersNameDrafted != nil {
			updated.Context.PlayersNameDrafted = diff.Context.PlayersNameDrafted
		}
		if diff.Context.TradablePicks != nil {
			updated.Context.TradablePicks = diff.Context.TradablePicks
		}
		if diff.Context.PastTradablePicks != nil {
			updated.Context.PastTradablePicks = diff.Context.PastTradablePicks
		}
		if diff.Context.ProtectedPlayers != nil {
			updated.Context.ProtectedPlayers = diff.Context.ProtectedPlayers
		}
	}
	if diff.ScoreByDay != nil {
		updated.Context.ScoreByDay = *diff.ScoreByDay
	}

	s.mu.Lock()
	s.pools[name] = updated
	s.mu.Unlock()
	return deepCopy(updated), nil
}

// DeletePool removes name entirely.
func (s *Store) DeletePool(ctx context.Context, name string) error {
	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pools[name]; !ok {
		return store.ErrNotFound
	}
	delete(s.pools, name)
	return nil
}
