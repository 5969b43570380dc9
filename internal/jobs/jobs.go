// Package jobs runs periodic housekeeping against the store.
package jobs

import (
	"context"
	"time"

	"spbunet/api/internal/metrics"
	"spbunet/api/internal/store"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	PurgeSpec     = "@hourly"
	RecomputeSpec = "@every 30m"

	jobTimeout = time.Minute
)

// Store is what the jobs need from *store.Store.
type Store interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
	RecomputeAll(ctx context.Context) (store.RegionStat, error)
}

type Scheduler struct {
	store Store
	log   logrus.FieldLogger
	cron  *cron.Cron
}

func New(s Store, log logrus.FieldLogger) *Scheduler {
	cl := cron.PrintfLogger(log)
	return &Scheduler{
		store: s,
		log:   log,
		cron:  cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
	}
}

// Start registers the jobs and starts the scheduler in its own goroutine.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(PurgeSpec, s.purgeSessions); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(RecomputeSpec, s.recomputeAll); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) purgeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.store.PurgeExpiredSessions(ctx)
	if err != nil {
		s.log.WithError(err).Error("purge expired sessions")
		return
	}
	if n > 0 {
		s.log.WithField("deleted", n).Info("purged expired sessions")
	}
}

func (s *Scheduler) recomputeAll() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	all, err := s.store.RecomputeAll(ctx)
	metrics.RecordRecompute(err)
	if err != nil {
		s.log.WithError(err).Error("recompute ALL row")
		return
	}
	s.log.WithFields(logrus.Fields{
		"spbu_total":     all.SPBUTotal,
		"fuel_volume_kl": all.FuelVolumeKL,
	}).Debug("recomputed ALL row")
}
