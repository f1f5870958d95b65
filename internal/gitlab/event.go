// Package gitlab parses and authenticates GitLab pipeline webhooks.
package gitlab

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/user/cibulb/internal/status"
)

// TokenHeader carries the shared secret configured on the GitLab hook.
const TokenHeader = "X-Gitlab-Token"

// PipelineEvent is the subset of a pipeline hook the relay needs.
type PipelineEvent struct {
	PipelineID int64
	Ref        string
	Status     status.Status
	Repository string // path_with_namespace, e.g. group/app
}

// VerifyToken compares the header value against the configured secret in
// constant time. An empty secret never matches.
func VerifyToken(secret, token string) bool {
	if secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(token)) == 1
}

// ParsePipelineEvent decodes a pipeline hook body. Status values outside the
// known set are kept verbatim.
func ParsePipelineEvent(body []byte) (*PipelineEvent, error) {
	var payload struct {
		ObjectAttributes struct {
			ID     int64  `json:"id"`
			Ref    string `json:"ref"`
			Status string `json:"status"`
		} `json:"object_attributes"`
		Project struct {
			PathWithNamespace string `json:"path_with_namespace"`
		} `json:"project"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline event: %w", err)
	}

	return &PipelineEvent{
		PipelineID: payload.ObjectAttributes.ID,
		Ref:        payload.ObjectAttributes.Ref,
		Status:     status.Status(strings.TrimSpace(payload.ObjectAttributes.Status)),
		Repository: strings.TrimSpace(payload.Project.PathWithNamespace),
	}, nil
}

// OnBranch reports whether the event was built from branch.
func (e *PipelineEvent) OnBranch(branch string) bool {
	return extractBranchName(e.Ref) == extractBranchName(branch)
}

// Validate checks the fields needed to record the event.
func (e *PipelineEvent) Validate() error {
	if e.Repository == "" {
		return fmt.Errorf("pipeline event has no project path")
	}
	if e.Status == "" {
		return fmt.Errorf("pipeline event for %s has no status", e.Repository)
	}
	return nil
}

func extractBranchName(ref string) string {
	// refs/heads/main -> main
	return strings.TrimPrefix(ref, "refs/heads/")
}
