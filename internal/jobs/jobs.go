// Package jobs runs periodic housekeeping on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ashinemobile/booking-backend/internal/repo"
)

// IdempotencyPurge deletes expired idempotency records.
type IdempotencyPurge struct {
	DB  *gorm.DB
	Now func() time.Time
	// Timeout bounds one run; zero means one minute.
	Timeout time.Duration
}

// Run removes every record that expired at or before now.
func (p *IdempotencyPurge) Run(ctx context.Context) (int64, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	n, err := repo.PurgeExpiredIdempotency(ctx, p.DB, now().UTC())
	if err != nil {
		return 0, fmt.Errorf("jobs: purge idempotency: %w", err)
	}
	return n, nil
}

func (p *IdempotencyPurge) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return time.Minute
}

// Scheduler owns a cron runner whose panics are recovered and logged.
type Scheduler struct {
	c   *cron.Cron
	log zerolog.Logger
}

// NewScheduler returns a stopped scheduler that logs through logger.
func NewScheduler(logger zerolog.Logger) *Scheduler {
	l := cronLogger{l: logger}
	return &Scheduler{log: logger, c: cron.New(cron.WithLogger(l), cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)))}
}

// SchedulePurge registers p under spec (standard five-field cron or
// descriptors like "@hourly").
func (s *Scheduler) SchedulePurge(spec string, p *IdempotencyPurge) error {
	_, err := s.c.AddFunc(spec, func() { s.purge(p) })
	if err != nil {
		return fmt.Errorf("jobs: schedule %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) purge(p *IdempotencyPurge) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout())
	defer cancel()
	n, err := p.Run(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("idempotency purge failed")
		return
	}
	s.log.Debug().Int64("deleted", n).Msg("idempotency purge")
}

// Len reports the number of scheduled entries.
func (s *Scheduler) Len() int { return len(s.c.Entries()) }

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() { s.c.Start() }

// Stop halts scheduling and waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{ l zerolog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
