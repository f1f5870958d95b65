package indicator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/user/cibulb/internal/github"
)

// Source reports the build state the light should show.
type Source interface {
	State(ctx context.Context) (string, error)
}

// RelaySource reads the aggregate from a relay's GET /status endpoint.
type RelaySource struct {
	URL    string
	Client *http.Client
}

// State returns the relay's aggregate status.
func (s RelaySource) State(ctx context.Context) (string, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(s.URL, "/")+"/status", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch relay status: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch relay status: unexpected status %d", res.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode relay status: %w", err)
	}
	return body.Status, nil
}

// GitHubSource reads the latest commit status of a ref.
type GitHubSource struct {
	Client *github.Client
	Owner  string
	Repo   string
	Ref    string
}

// State returns the state of the newest commit status.
func (s GitHubSource) State(ctx context.Context) (string, error) {
	st, err := s.Client.LatestStatus(ctx, s.Owner, s.Repo, s.Ref)
	if err != nil {
		return "", err
	}
	return st.State, nil
}

// StaticSource always reports the same state.
type StaticSource string

// State returns s.
func (s StaticSource) State(context.Context) (string, error) {
	return string(s), nil
}
