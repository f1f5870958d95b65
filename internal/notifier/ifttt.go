package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/user/cibulb/internal/config"
	"github.com/user/cibulb/internal/status"
)

const maxResponseBody = 64 << 10

// IFTTT fires a webhook trigger whose event name encodes the aggregate,
// e.g. ci_build_success.
type IFTTT struct {
	baseURL     string
	key         string
	eventPrefix string
	client      *http.Client
}

// NewIFTTT creates an IFTTT trigger client.
func NewIFTTT(cfg config.IFTTTConfig, client *http.Client) *IFTTT {
	return &IFTTT{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		key:         cfg.Key,
		eventPrefix: cfg.EventPrefix,
		client:      client,
	}
}

// Name identifies the notifier in logs.
func (n *IFTTT) Name() string { return config.NotifierIFTTT }

// EventName returns the trigger event for agg.
func (n *IFTTT) EventName(agg status.Aggregate) string {
	return n.eventPrefix + string(agg)
}

// TriggerURL returns {base}/trigger/{event}/with/key/{key}.
func (n *IFTTT) TriggerURL(agg status.Aggregate) string {
	return fmt.Sprintf("%s/trigger/%s/with/key/%s",
		n.baseURL, url.PathEscape(n.EventName(agg)), url.PathEscape(n.key))
}

// Notify posts the trigger and returns the response body.
func (n *IFTTT) Notify(ctx context.Context, agg status.Aggregate) (string, error) {
	payload, err := json.Marshal(map[string]string{"value1": string(agg)})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.TriggerURL(agg), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDelivery, n.redact(agg, err))
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDelivery, n.redact(agg, err))
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ErrDelivery, err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("%w: ifttt status %d: %s", ErrDelivery, res.StatusCode, strings.TrimSpace(string(body)))
	}
	return string(body), nil
}

// redact drops the trigger URL, which carries the key, from a transport error.
func (n *IFTTT) redact(agg status.Aggregate, err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s trigger %s: %w", uerr.Op, n.EventName(agg), n.redact(agg, uerr.Err))
	}
	if n.key != "" && strings.Contains(err.Error(), n.key) {
		return errors.New(strings.ReplaceAll(err.Error(), n.key, "REDACTED"))
	}
	return err
}
