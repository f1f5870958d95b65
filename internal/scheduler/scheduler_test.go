package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/user/cibulb/internal/relay"
	"github.com/user/cibulb/internal/status"
)

func TestSchedulerTicks(t *testing.T) {
	var calls atomic.Int32
	s := New(func(ctx context.Context) relay.Result {
		calls.Add(1)
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return relay.Result{Outcome: relay.OutcomeNotified, Aggregate: status.AggregateSuccess}
	}, 10*time.Millisecond)

	s.Start()
	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	after := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, calls.Load(), "no ticks after Stop")
}

func TestSchedulerTimeoutCappedAtInterval(t *testing.T) {
	s := New(nil, time.Second)
	assert.Equal(t, time.Second, s.timeout)

	s = New(nil, time.Hour)
	assert.Equal(t, 30*time.Second, s.timeout)
}
