// Package scheduler runs the periodic session expiry sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"panchakarma/config"
	"panchakarma/internal/domain"
)

const expiryLockKey = "panchakarma:lock:expire-sessions"

type Expirer interface {
	ExpireIdleSessions(ctx context.Context, now time.Time) ([]domain.ChatSession, error)
}

// Lease is a cross-replica mutual exclusion primitive, e.g. cache.RedisCache.
type Lease interface {
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
}

type Scheduler struct {
	cron     *cron.Cron
	expirer  Expirer
	lease    Lease
	cfg      config.SchedulerConfig
	logger   *zap.Logger
	now      func() time.Time
	instance string
}

// New builds the scheduler. lease may be nil when a single replica runs.
func New(expirer Expirer, lease Lease, cfg config.SchedulerConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		expirer:  expirer,
		lease:    lease,
		cfg:      cfg,
		logger:   logger.Named("scheduler"),
		now:      time.Now,
		instance: uuid.New().String(),
	}
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.cfg.ExpirySchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.LockTTL)
		defer cancel()

		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("expiry sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("register expiry job %q: %w", s.cfg.ExpirySchedule, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("expiry_schedule", s.cfg.ExpirySchedule))
	return nil
}

// Stop waits for a running sweep to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunOnce performs one sweep if this replica wins the lease. It returns the
// number of sessions expired, or zero when another replica holds the lease.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	if s.lease != nil {
		ok, err := s.lease.Acquire(ctx, expiryLockKey, s.instance, s.cfg.LockTTL)
		if err != nil {
			return 0, fmt.Errorf("acquire expiry lease: %w", err)
		}
		if !ok {
			s.logger.Debug("expiry sweep skipped, lease held elsewhere")
			return 0, nil
		}
		defer func() {
			// release on a fresh context so an expired sweep context still frees the lease
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.lease.Release(releaseCtx, expiryLockKey, s.instance); err != nil {
				s.logger.Warn("failed to release expiry lease", zap.Error(err))
			}
		}()
	}

	started := s.now()
	expired, err := s.expirer.ExpireIdleSessions(ctx, started)
	if err != nil {
		return len(expired), err
	}

	if len(expired) > 0 {
		ids := make([]string, 0, len(expired))
		for _, session := range expired {
			ids = append(ids, session.ID)
		}
		s.logger.Info("expiry sweep finished",
			zap.Int("expired", len(expired)),
			zap.Strings("session_ids", ids),
			zap.Duration("took", time.Since(started)),
		)
	}
	return len(expired), nil
}
