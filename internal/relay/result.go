package relay

import (
	"net/http"

	"github.com/user/cibulb/internal/status"
)

// Outcome is how an invocation ended.
type Outcome int

const (
	// OutcomeNotified means the aggregate was computed and delivered.
	OutcomeNotified Outcome = iota
	// OutcomeIgnored means the event was valid but not for the tracked ref.
	OutcomeIgnored
	// OutcomeForbidden means the shared secret did not match.
	OutcomeForbidden
	// OutcomeFailed means a step failed; the error was reported.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotified:
		return "notified"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeForbidden:
		return "forbidden"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the terminal state of one invocation.
type Result struct {
	InvocationID string
	Outcome      Outcome
	Aggregate    status.Aggregate // set once computed
	Body         string           // notifier response body
	Err          error
}

// StatusCode is the HTTP status returned to the caller. Only a bad secret is
// visible to the webhook sender; failures are acknowledged with 200.
func (r Result) StatusCode() int {
	if r.Outcome == OutcomeForbidden {
		return http.StatusForbidden
	}
	return http.StatusOK
}
