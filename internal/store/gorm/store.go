package gormstore

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jcorriveau23/backend-pool-nhl/internal/pool"
	"github.com/jcorriveau23/backend-pool-nhl/internal/store"
)

// Store is the production store.PoolStore, backed by a GORM connection
// (Postgres in production, opened by pkg/database; this package's tests
// run it over SQLite).
type Store struct {
	db *gorm.DB
}

// New wires a Store over an already-connected *gorm.DB and migrates its
// schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&poolRecord{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func unmarshalPool(raw []byte) (*pool.Pool, error) {
	p := &pool.Pool{}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, err
	}
	return p, nil
}

func withoutScoreByDay(p *pool.Pool) *pool.Pool {
	if p.Context == nil {
		return p
	}
	raw, _ := json.Marshal(p)
	cp, _ := unmarshalPool(raw)
	cp.Context.ScoreByDay = map[string]map[string]pool.DailyRosterPoints{}
	return cp
}

func withDateWindow(p *pool.Pool, fromDate string) *pool.Pool {
	if p.Context == nil {
		return p
	}
	raw, _ := json.Marshal(p)
	cp, _ := unmarshalPool(raw)
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

func (s *Store) load(ctx context.Context, name string, forUpdate bool) (*poolRecord, error) {
	q := s.db.WithContext(ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rec poolRecord
	if err := q.First(&rec, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// GetShortPool loads a pool with score_by_day emptied out.
func (s *Store) GetShortPool(ctx context.Context, name string) (*pool.Pool, error) {
	rec, err := s.load(ctx, name, false)
	if err != nil {
		return nil, err
	}
	p, err := unmarshalPool(rec.Document)
	if err != nil {
		return nil, err
	}
	return withoutScoreByDay(p), nil
}

// GetPoolWithDateWindow loads a pool with score_by_day entries before
// fromDate projected out.
func (s *Store) GetPoolWithDateWindow(ctx context.Context, name, fromDate string) (*pool.Pool, error) {
	rec, err := s.load(ctx, name, false)
	if err != nil {
		return nil, err
	}
	p, err := unmarshalPool(rec.Document)
	if err != nil {
		return nil, err
	}
	return withDateWindow(p, fromDate), nil
}

// ListPools returns every short-projected pool for the given season,
// reading only the indexed columns — the JSON document is never
// deserialized for a list query.
func (s *Store) ListPools(ctx context.Context, season uint32) ([]store.ProjectedPoolShort, error) {
	var recs []poolRecord
	if err := s.db.WithContext(ctx).
		Select("name", "owner", "status", "season").
		Where("season = ?", season).
		Order("name").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]store.ProjectedPoolShort, len(recs))
	for i, r := range recs {
		out[i] = store.ProjectedPoolShort{Name: r.Name, Owner: r.Owner, Status: pool.PoolState(r.Status), Season: r.Season}
	}
	return out, nil
}

// InsertPool persists a brand-new pool.
func (s *Store) InsertPool(ctx context.Context, p *pool.Pool) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	rec := poolRecord{Name: p.Name, Owner: p.Owner, Status: string(p.Status), Season: p.Season, Document: raw}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// UpdatePool applies diff to name's document inside a row-locked
// transaction and returns the resulting pool.
func (s *Store) UpdatePool(ctx context.Context, name string, diff store.PoolDiff) (*pool.Pool, error) {
	var result *pool.Pool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec poolRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rec, "name = ?", name).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrNotFound
			}
			return err
		}
		current, err := unmarshalPool(rec.Document)
		if err != nil {
			return err
		}
		applyDiff(current, diff)

		raw, err := json.Marshal(current)
		if err != nil {
			return err
		}
		if err := tx.Model(&poolRecord{}).Where("name = ?", name).Updates(map[string]interface{}{
			"owner":    current.Owner,
			"status":   string(current.Status),
			"season":   current.Season,
			"document": raw,
		}).Error; err != nil {
			return err
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyDiff mutates current in place with diff's non-nil fields, mirroring
// internal/store/memory's UpdatePool semantics.
func applyDiff(current *pool.Pool, diff store.PoolDiff) {
	if diff.Participants != nil {
		current.Participants = *diff.Participants
	}
	if diff.Settings != nil {
		current.Settings = *diff.Settings
	}
	if diff.Status != nil {
		current.Status = *diff.Status
	}
	if diff.FinalRank != nil {
		current.FinalRank = *diff.FinalRank
	}
	if diff.DraftOrder != nil {
		current.DraftOrder = *diff.DraftOrder
	}
	if diff.Trades != nil {
		current.Trades = *diff.Trades
	}
	if current.Context == nil && (diff.Context != nil || diff.ScoreByDay != nil) {
		current.Context = pool.NewPoolContext(nil)
	}
	if diff.Context != nil {
		if diff.Context.PoolerRoster != nil {
			current.Context.PoolerRoster = diff.Context.PoolerRoster
		}
		if diff.Context.Players != nil {
			current.Context.Players = diff.Context.Players
		}
		if diff.Context.PlayersNameDrafted != nil {
			current.Context.PlayersNameDrafted = diff.Context.PlayersNameDrafted
		}
		if diff.Context.TradablePicks != nil {
			current.Context.TradablePicks = diff.Context.TradablePicks
		}
		if diff.Context.PastTradablePicks != nil {
			current.Context.PastTradablePicks = diff.Context.PastTradablePicks
		}
		if diff.Context.ProtectedPlayers != nil {
			current.Context.ProtectedPlayers = diff.Context.ProtectedPlayers
		}
	}
	if diff.ScoreByDay != nil {
		current.Context.ScoreByDay = *diff.ScoreByDay
	}
}

// DeletePool removes name entirely.
func (s *Store) DeletePool(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Delete(&poolRecord{}, "name = ?", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// isUniqueViolation is a best-effort check across Postgres and SQLite
// driver error text, since GORM does not normalize unique-constraint errors
// into a shared sentinel.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return containsAny(msg, "duplicate key value", "UNIQUE constraint failed", "23505")
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if indexOf(s, sub) >= 0 {
			return true
		}
	}
	return false
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
