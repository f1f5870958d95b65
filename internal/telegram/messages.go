package telegram

import (
	"fmt"
	"sort"
	"strings"

	"github.com/user/cibulb/internal/status"
	"github.com/user/cibulb/internal/storage"
)

var aggregateEmoji = map[status.Aggregate]string{
	status.AggregateSuccess: "🟢",
	status.AggregatePending: "🟡",
	status.AggregateFailed:  "🔴",
}

// BuildStatusMessage creates the notification for a new aggregate.
func BuildStatusMessage(agg status.Aggregate) string {
	emoji := aggregateEmoji[agg]
	if emoji == "" {
		emoji = "⚪"
	}
	return fmt.Sprintf("%s *CI status:* %s", emoji, code(string(agg)))
}

// BuildRepositoriesMessage lists every tracked repository, sorted by name.
func BuildRepositoriesMessage(records []storage.RepositoryRecord) string {
	if len(records) == 0 {
		return "📭 No repositories tracked yet"
	}

	sorted := append([]storage.RepositoryRecord(nil), records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	fmt.Fprintf(&b, "📋 *Repositories (%d)*\n\n", len(sorted))
	for _, r := range sorted {
		fmt.Fprintf(&b, "• %s %s\n", code(r.Name), code(string(r.Status)))
	}
	b.WriteString("\n")
	b.WriteString(BuildStatusMessage(storage.Aggregate(records)))
	return b.String()
}

// code wraps s in a Markdown code span. Backticks inside s would end the
// span early, so they are replaced.
func code(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "'") + "`"
}
