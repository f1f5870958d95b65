// Package reporter forwards handler failures to crash reporting.
package reporter

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/user/cibulb/internal/config"
	"github.com/user/cibulb/pkg/logger"
)

// Reporter records an error that ended an invocation early.
type Reporter interface {
	Capture(ctx context.Context, err error, tags map[string]string)
	Flush(timeout time.Duration) bool
}

// New returns a Sentry reporter when a DSN is configured and a log-only
// reporter otherwise.
func New(cfg config.SentryConfig) (Reporter, error) {
	if cfg.DSN == "" {
		return Log{}, nil
	}
	return NewSentry(cfg.DSN, cfg.Environment)
}

// Sentry sends errors to a Sentry project.
type Sentry struct {
	client *sentry.Client
}

// NewSentry creates a reporter with its own client.
func NewSentry(dsn, environment string) (*Sentry, error) {
	return newSentry(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	})
}

func newSentry(opts sentry.ClientOptions) (*Sentry, error) {
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to init sentry: %w", err)
	}
	return &Sentry{client: client}, nil
}

// Capture logs err and sends it to Sentry. Each event gets its own scope so
// concurrent captures never share tags.
func (s *Sentry) Capture(ctx context.Context, err error, tags map[string]string) {
	Log{}.Capture(ctx, err, tags)

	scope := sentry.NewScope()
	scope.SetTags(tags)
	s.client.CaptureException(err, &sentry.EventHint{OriginalException: err, Context: ctx}, scope)
}

// Flush waits for buffered events to be delivered.
func (s *Sentry) Flush(timeout time.Duration) bool {
	return s.client.Flush(timeout)
}

// Log only writes errors to the application log.
type Log struct{}

// Capture logs err at error level.
func (Log) Capture(_ context.Context, err error, tags map[string]string) {
	evt := logger.Error().Err(err)
	for k, v := range tags {
		evt = evt.Str(k, v)
	}
	evt.Msg("Invocation failed")
}

// Flush is a no-op.
func (Log) Flush(time.Duration) bool {
	return true
}
