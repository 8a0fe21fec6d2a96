package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/jcorriveau23/backend-pool-nhl/internal/pool"
)

// DayLeaders is one date's worth of raw scoring input, the shape an upstream
// stats provider would hand the ingestion job to fold into score_by_day.
// populate_results (out of scope per spec.md) would turn this into
// pool.DailyRosterPoints per roster; this client only fetches and caches the
// raw feed.
type DayLeaders struct {
	Date    string                 `json:"date"`
	Skaters map[uint32]pool.SkaterPoints `json:"skaters"`
	Goalies map[uint32]pool.GoalyPoints  `json:"goalies"`
}

// StatsFeedClient fetches a day's scoring feed from an upstream provider.
// Calls are wrapped in a circuit breaker so a flaky upstream degrades the
// nightly ingestion job instead of cascading into the rest of the process —
// the same resilience shape internal/auth's JWKSValidator uses for key
// fetches.
type StatsFeedClient struct {
	baseURL    string
	httpClient *http.Client
	cache      *CacheService
	breaker    *gobreaker.CircuitBreaker
}

// NewStatsFeedClient builds a client against baseURL, caching responses
// through cache and tripping its breaker after 3 consecutive failures.
func NewStatsFeedClient(baseURL string, cache *CacheService, timeout time.Duration) *StatsFeedClient {
	settings := gobreaker.Settings{
		Name:        "stats-feed-fetch",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &StatsFeedClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		breaker:    gobreaker.NewCircuitBreaker(settings),
	}
}

// FetchDayLeaders returns date's scoring feed, serving a cached copy if one
// is still fresh. This is the ingestion job's sole upstream dependency;
// populating score_by_day from the result is out of scope per spec.md, so
// the scheduler only logs what it receives.
func (c *StatsFeedClient) FetchDayLeaders(ctx context.Context, date string) (*DayLeaders, error) {
	var cached DayLeaders
	if c.cache != nil {
		if err := c.cache.Get(ctx, DayLeadersCacheKey(date), &cached); err == nil {
			return &cached, nil
		}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, date)
	})
	if err != nil {
		return nil, fmt.Errorf("stats feed fetch for %s failed: %w", date, err)
	}

	leaders := result.(*DayLeaders)
	if c.cache != nil {
		_ = c.cache.Set(ctx, DayLeadersCacheKey(date), leaders, 6*time.Hour)
	}
	return leaders, nil
}

// fetch is a simulated upstream call: no real provider is in scope for this
// service, so it returns an empty feed for date rather than making a
// network request. The breaker and cache plumbing around it are exercised
// the same as they would be against a real endpoint.
func (c *StatsFeedClient) fetch(ctx context.Context, date string) (*DayLeaders, error) {
	return &DayLeaders{
		Date:    date,
		Skaters: map[uint32]pool.SkaterPoints{},
		Goalies: map[uint32]pool.GoalyPoints{},
	}, nil
}
