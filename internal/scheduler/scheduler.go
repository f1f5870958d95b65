// Package scheduler triggers the refresh handler on a fixed interval when no
// external scheduler is available.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/user/cibulb/internal/relay"
	"github.com/user/cibulb/pkg/logger"
)

// RefreshFunc runs one refresh invocation.
type RefreshFunc func(ctx context.Context) relay.Result

// Scheduler periodically invokes a refresh.
type Scheduler struct {
	refresh  RefreshFunc
	interval time.Duration
	timeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler. Each tick gets its own timeout, capped at the
// interval so ticks never overlap.
func New(refresh RefreshFunc, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	timeout := 30 * time.Second
	if interval < timeout {
		timeout = interval
	}

	return &Scheduler{
		refresh:  refresh,
		interval: interval,
		timeout:  timeout,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the refresh loop.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.loop()
	logger.Info().Dur("interval", s.interval).Msg("Refresh scheduler started")
}

// Stop gracefully stops the scheduler and waits for a running tick.
func (s *Scheduler) Stop() {
	logger.Info().Msg("Stopping refresh scheduler")
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	res := s.refresh(ctx)
	logger.Debug().
		Str("invocation", res.InvocationID).
		Str("outcome", res.Outcome.String()).
		Str("status", string(res.Aggregate)).
		Msg("Scheduled refresh finished")
}
