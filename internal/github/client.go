// Package github reads commit statuses from the GitHub API. The light driver
// uses it as a status source when no relay is deployed.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// ErrNoStatus is returned when a ref has no commit statuses yet.
var ErrNoStatus = errors.New("no commit status")

// Client wraps the GitHub API client.
type Client struct {
	client *github.Client
}

// CommitStatus is the latest status reported for a ref.
type CommitStatus struct {
	ID      int64
	State   string // pending, success, failure or error
	Context string
}

// NewClient creates a new GitHub API client.
// If token is empty, an unauthenticated client is created (with lower rate limits).
// A non-empty apiURL replaces the public API base, e.g. for GitHub Enterprise.
func NewClient(token, apiURL string) (*Client, error) {
	var client *github.Client

	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc := oauth2.NewClient(context.Background(), ts)
		client = github.NewClient(tc)
	} else {
		client = github.NewClient(nil)
	}

	if apiURL != "" {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		base, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid api url: %w", err)
		}
		client.BaseURL = base
	}

	return &Client{client: client}, nil
}

// LatestStatus returns the most recent commit status of ref.
func (c *Client) LatestStatus(ctx context.Context, owner, repo, ref string) (*CommitStatus, error) {
	statuses, _, err := c.client.Repositories.ListStatuses(ctx, owner, repo, ref, &github.ListOptions{PerPage: 1})
	if err != nil {
		var rateErr *github.RateLimitError
		if errors.As(err, &rateErr) {
			return nil, fmt.Errorf("rate limit exceeded: %w", err)
		}
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	if len(statuses) == 0 {
		return nil, fmt.Errorf("%w for %s/%s@%s", ErrNoStatus, owner, repo, ref)
	}

	s := statuses[0]
	return &CommitStatus{
		ID:      s.GetID(),
		State:   s.GetState(),
		Context: s.GetContext(),
	}, nil
}
