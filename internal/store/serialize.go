package store

import (
	"context"
	"sync"

	"github.com/jcorriveau23/backend-pool-nhl/internal/pool"
)

// serialized wraps a PoolStore with a per-pool-name mutex: InsertPool,
// UpdatePool and DeletePool calls for the same pool name run one at a time,
// whatever the backing store does internally. Reads are passed straight
// through, and the lock is not held between a caller's read and its
// write-back, so two read-mutate-write sequences on the same pool can still
// interleave and the later UpdatePool wins.
type serialized struct {
	inner PoolStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Serialize wraps inner so InsertPool/UpdatePool/DeletePool calls for the
// same pool name never interleave, regardless of what concurrency control
// (if any) inner provides internally.
func Serialize(inner PoolStore) PoolStore {
	return &serialized{inner: inner, locks: map[string]*sync.Mutex{}}
}

func (s *serialized) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

func (s *serialized) GetShortPool(ctx context.Context, name string) (*pool.Pool, error) {
	return s.inner.GetShortPool(ctx, name)
}

func (s *serialized) GetPoolWithDateWindow(ctx context.Context, name, fromDate string) (*pool.Pool, error) {
	return s.inner.GetPoolWithDateWindow(ctx, name, fromDate)
}

func (s *serialized) ListPools(ctx context.Context, season uint32) ([]ProjectedPoolShort, error) {
	return s.inner.ListPools(ctx, season)
}

func (s *serialized) InsertPool(ctx context.Context, p *pool.Pool) error {
	lock := s.lockFor(p.Name)
	lock.Lock()
	defer lock.Unlock()
	return s.inner.InsertPool(ctx, p)
}

func (s *serialized) UpdatePool(ctx context.Context, name string, diff PoolDiff) (*pool.Pool, error) {
	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()
	return s.inner.UpdatePool(ctx, name, diff)
}

func (s *serialized) DeletePool(ctx context.Context, name string) error {
	lock := s.lockFor(name)
	lock.Lock()
	defer lock.Unlock()
	return s.inner.DeletePool(ctx, name)
}
