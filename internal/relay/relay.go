// Package relay implements the ingest and refresh handlers: record a build
// status, recompute the aggregate over every repository, and notify.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/user/cibulb/internal/gitlab"
	"github.com/user/cibulb/internal/notifier"
	"github.com/user/cibulb/internal/reporter"
	"github.com/user/cibulb/internal/status"
	"github.com/user/cibulb/internal/storage"
	"github.com/user/cibulb/pkg/logger"
)

// ErrAuthentication is returned in the Result of a webhook with a bad secret.
var ErrAuthentication = errors.New("invalid webhook token")

// Options configures a Relay.
type Options struct {
	Secret    string // shared webhook secret
	Ref       string // tracked branch
	Connector storage.Connector
	Notifier  notifier.Notifier
	Reporter  reporter.Reporter
}

// Relay holds the collaborators of the handlers. It keeps no state between
// invocations; every call opens its own store connection.
type Relay struct {
	secret    string
	ref       string
	connector storage.Connector
	notifier  notifier.Notifier
	reporter  reporter.Reporter
}

// New creates a relay.
func New(opts Options) *Relay {
	rep := opts.Reporter
	if rep == nil {
		rep = reporter.Log{}
	}
	return &Relay{
		secret:    opts.Secret,
		ref:       opts.Ref,
		connector: opts.Connector,
		notifier:  opts.Notifier,
		reporter:  rep,
	}
}

// Ingest handles one pipeline webhook delivery.
func (r *Relay) Ingest(ctx context.Context, token string, body []byte) Result {
	return r.ingest(ctx, token, func() ([]byte, error) { return body, nil })
}

// IngestFrom reads the delivery body from body once the token is verified.
// A body that cannot be read is reported like a malformed one.
func (r *Relay) IngestFrom(ctx context.Context, token string, body io.Reader) Result {
	return r.ingest(ctx, token, func() ([]byte, error) {
		b, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return b, nil
	})
}

func (r *Relay) ingest(ctx context.Context, token string, read func() ([]byte, error)) Result {
	res := Result{InvocationID: uuid.NewString()}
	log := logger.WithField("invocation", res.InvocationID)

	if !gitlab.VerifyToken(r.secret, token) {
		log.Warn().Msg("Invalid webhook token")
		res.Outcome = OutcomeForbidden
		res.Err = ErrAuthentication
		return res
	}

	body, err := read()
	if err != nil {
		return r.fail(ctx, res, "ingest", err)
	}

	event, err := gitlab.ParsePipelineEvent(body)
	if err != nil {
		return r.fail(ctx, res, "ingest", err)
	}

	if !event.OnBranch(r.ref) {
		log.Debug().Str("ref", event.Ref).Str("repo", event.Repository).Msg("Ignoring pipeline on untracked ref")
		res.Outcome = OutcomeIgnored
		return res
	}

	if err := event.Validate(); err != nil {
		return r.fail(ctx, res, "ingest", err)
	}

	if !event.Status.Known() {
		log.Warn().Str("status", string(event.Status)).Msg("Unknown pipeline status, storing as is")
	}

	log.Info().
		Str("repo", event.Repository).
		Str("status", string(event.Status)).
		Int64("pipeline", event.PipelineID).
		Msg("Pipeline event received")

	return r.run(ctx, res, "ingest", func(store storage.Store) error {
		return store.Upsert(ctx, event.Repository, event.Status)
	})
}

// Refresh recomputes the aggregate from the stored records and notifies,
// independent of any webhook.
func (r *Relay) Refresh(ctx context.Context) Result {
	res := Result{InvocationID: uuid.NewString()}
	return r.run(ctx, res, "refresh", nil)
}

// Current returns the stored records and their aggregate without notifying.
func (r *Relay) Current(ctx context.Context) ([]storage.RepositoryRecord, status.Aggregate, error) {
	store, err := r.connector.Connect(ctx)
	if err != nil {
		return nil, "", err
	}
	defer store.Close()

	records, err := store.FetchAll(ctx)
	if err != nil {
		return nil, "", err
	}
	return records, storage.Aggregate(records), nil
}

// run opens the store, applies write (if any), recomputes the aggregate and
// notifies. The store is closed on every path.
func (r *Relay) run(ctx context.Context, res Result, handler string, write func(storage.Store) error) Result {
	log := logger.WithField("invocation", res.InvocationID)

	store, err := r.connector.Connect(ctx)
	if err != nil {
		return r.fail(ctx, res, handler, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close store")
		}
	}()

	if write != nil {
		if err := write(store); err != nil {
			return r.fail(ctx, res, handler, err)
		}
	}

	records, err := store.FetchAll(ctx)
	if err != nil {
		return r.fail(ctx, res, handler, err)
	}
	res.Aggregate = storage.Aggregate(records)

	log.Info().
		Str("handler", handler).
		Int("repositories", len(records)).
		Str("status", string(res.Aggregate)).
		Str("notifier", r.notifier.Name()).
		Msg("Overall repositories status")

	body, err := r.notifier.Notify(ctx, res.Aggregate)
	if err != nil {
		return r.fail(ctx, res, handler, err)
	}

	res.Outcome = OutcomeNotified
	res.Body = body
	return res
}

func (r *Relay) fail(ctx context.Context, res Result, handler string, err error) Result {
	res.Outcome = OutcomeFailed
	res.Err = fmt.Errorf("%s: %w", handler, err)
	r.reporter.Capture(ctx, res.Err, map[string]string{
		"handler":    handler,
		"invocation": res.InvocationID,
	})
	return res
}
