// Package status defines build statuses and the rule that folds the statuses
// of every tracked repository into one fleet-wide aggregate.
package status

// Status is the build state reported for a single repository.
type Status string

const (
	Success Status = "success"
	Pending Status = "pending"
	Running Status = "running"
	Skipped Status = "skipped"
	Failed  Status = "failed"
)

// All returns every known build status.
func All() []Status {
	return []Status{Success, Pending, Running, Skipped, Failed}
}

// Known reports whether s is one of the recognized statuses.
// Unknown values are still accepted everywhere; they simply count as neutral.
func (s Status) Known() bool {
	for _, k := range All() {
		if s == k {
			return true
		}
	}
	return false
}

// Aggregate is the derived status across all repositories.
type Aggregate string

const (
	AggregateSuccess Aggregate = "success"
	AggregatePending Aggregate = "pending"
	AggregateFailed  Aggregate = "failed"
)

// Of computes the aggregate for any collection, using statusOf to read the
// status of each item.
//
// Pending (or running) wins over failed: a build still in progress masks a
// failure elsewhere until everything settles. Empty input is success.
func Of[T any](items []T, statusOf func(T) Status) Aggregate {
	if len(items) == 0 {
		return AggregateSuccess
	}

	failed := false
	for _, item := range items {
		switch statusOf(item) {
		case Pending, Running:
			return AggregatePending
		case Failed:
			failed = true
		}
	}

	if failed {
		return AggregateFailed
	}
	return AggregateSuccess
}

// Summarize is Of for a plain list of statuses.
func Summarize(statuses []Status) Aggregate {
	return Of(statuses, func(s Status) Status { return s })
}
