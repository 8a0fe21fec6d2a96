package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/jcorriveau23/backend-pool-nhl/internal/pool"
	"github.com/jcorriveau23/backend-pool-nhl/internal/store"
)

// Scheduler owns the process's two background cron jobs: a simulated daily
// score-ingestion fetch and a nightly sweep over stale trade proposals. Both
// are pure observability — neither mutates a pool outside the Pool State
// Engine's own operations, so a compromised or delayed job can never corrupt
// pool state, only produce stale logs.
type Scheduler struct {
	cron       *cron.Cron
	store      store.PoolStore
	statsFeed  *StatsFeedClient
	log        *logrus.Entry
	season     uint32
	cooldownMs int64
}

// NewScheduler builds a Scheduler; call Start to begin running jobs.
func NewScheduler(poolStore store.PoolStore, statsFeed *StatsFeedClient, season uint32) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		store:      poolStore,
		statsFeed:  statsFeed,
		log:        logrus.WithField("component", "scheduler"),
		season:     season,
		cooldownMs: 86_400_000,
	}
}

// Start registers the ingestion and sweep jobs on ingestionSpec/sweepSpec
// (standard 5-field cron expressions) and begins running them.
func (s *Scheduler) Start(ingestionSpec, sweepSpec string) error {
	if _, err := s.cron.AddFunc(ingestionSpec, s.runIngestion); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(sweepSpec, s.runTradeSweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any in-flight job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// runIngestion simulates the daily score-ingestion job: fetch today's feed
// and log what arrived. Folding the feed into score_by_day (populate_results)
// is out of scope per spec.md.
func (s *Scheduler) runIngestion() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	date := time.Now().UTC().Format("2006-01-02")
	leaders, err := s.statsFeed.FetchDayLeaders(ctx, date)
	if err != nil {
		s.log.WithError(err).Warn("score ingestion fetch failed")
		return
	}
	s.log.WithFields(logrus.Fields{
		"date":    leaders.Date,
		"skaters": len(leaders.Skaters),
		"goalies": len(leaders.Goalies),
	}).Info("score ingestion fetch complete")
}

// runTradeSweep scans every pool in the current season for NEW trades that
// have sat past the 24-hour cooling-off window. The engine has no
// "expire trade" operation — a trade past its window simply becomes
// respondable — so the sweep changes nothing; it exists purely to surface a
// metric an operator can alert on if trades are piling up unanswered.
func (s *Scheduler) runTradeSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pools, err := s.store.ListPools(ctx, s.season)
	if err != nil {
		s.log.WithError(err).Warn("trade sweep: failed to list pools")
		return
	}

	now := time.Now().UTC().UnixMilli()
	staleTotal := 0
	for _, short := range pools {
		p, err := s.store.GetShortPool(ctx, short.Name)
		if err != nil {
			continue
		}
		if p.Status != pool.StateInProgress {
			continue
		}
		for _, t := range p.Trades {
			if t.Status == pool.TradeNew && now-t.DateCreated > s.cooldownMs {
				staleTotal++
			}
		}
	}
	s.log.WithField("stale_trades", staleTotal).Info("trade sweep complete")
}
