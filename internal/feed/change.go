package feed

import (
	"bytes"

	"github.com/goccy/go-json"

	"github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
)

type projection struct {
	ID     string `json:"id"`
	Score  string `json:"score"`
	Status string `json:"status"`
}

// HasChanged reports whether next differs from current on the fields that
// matter to viewers: id, score summary and status, in order. A nil side is
// absent and always counts as a change. Projection failures count as a change.
func HasChanged(current, next []matches.Snapshot) bool {
	if current == nil || next == nil {
		return true
	}
	a, err := project(current)
	if err != nil {
		return true
	}
	b, err := project(next)
	if err != nil {
		return true
	}
	return !bytes.Equal(a, b)
}

func project(list []matches.Snapshot) ([]byte, error) {
	out := make([]projection, len(list))
	for i, s := range list {
		out[i] = projection{ID: s.MatchID, Score: s.ScoreSummary, Status: s.StatusCode}
	}
	return json.Marshal(out)
}
