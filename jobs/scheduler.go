package jobs

import (
	"context"
	"time"

	"natours/metrics"
	"natours/models"
	"natours/processing"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	JobPurgeResetTokens = "purge_reset_tokens"
	JobEnrichTours      = "enrich_tours"
	JobPruneRateLimiter = "prune_rate_limiter"

	rateLimiterIdle = 2 * time.Hour
)

// Pruner forgets idle rate limiter clients
type Pruner interface {
	Prune(idle time.Duration) int
}

// Scheduler runs the periodic maintenance jobs
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler registers the jobs; pruner may be nil when the rate limiter
// keeps no local state.
func NewScheduler(pruner Pruner) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		ctx:    ctx,
		cancel: cancel,
	}
	specs := []struct {
		spec string
		name string
		fn   func(context.Context) (int, error)
	}{
		{"@hourly", JobPurgeResetTokens, func(context.Context) (int, error) {
			n, err := models.PurgeExpiredResetTokens()
			return int(n), err
		}},
		{"@every 5m", JobEnrichTours, processing.ProcessPending},
	}
	if pruner != nil {
		specs = append(specs, struct {
			spec string
			name string
			fn   func(context.Context) (int, error)
		}{"@every 10m", JobPruneRateLimiter, func(context.Context) (int, error) {
			return pruner.Prune(rateLimiterIdle), nil
		}})
	}
	for _, j := range specs {
		if _, err := s.cron.AddFunc(j.spec, func() { s.Run(j.name, j.fn) }); err != nil {
			cancel()
			return nil, err
		}
	}
	return s, nil
}

// Run executes one job now, recording its outcome
func (s *Scheduler) Run(name string, fn func(context.Context) (int, error)) {
	start := time.Now()
	n, err := fn(s.ctx)
	metrics.JobsProcessed.WithLabelValues(name, metrics.Result(err)).Inc()
	if err != nil {
		zap.L().Error("job failed", zap.String("job", name), zap.Error(err))
		return
	}
	zap.L().Debug("job done", zap.String("job", name), zap.Int("affected", n), zap.Duration("time", time.Since(start)))
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}
