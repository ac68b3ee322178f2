package testutil

import (
	"encoding/json"

	gojson "github.com/goccy/go-json"

	"github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
)

// SampleSnapshot returns a canonical snapshot fixture.
func SampleSnapshot(id, score, status string) matches.Snapshot {
	return matches.Snapshot{
		MatchID:      id,
		ScoreSummary: score,
		StatusCode:   status,
		SourcePayloads: map[string]json.RawMessage{
			matches.SourceBetsAPI: json.RawMessage(`{"inplay_event":{"league":{"name":"ATP Test"}}}`),
		},
	}
}

// SampleSnapshots builds one in-play snapshot per id with a fixed score.
func SampleSnapshots(ids ...string) []matches.Snapshot {
	out := make([]matches.Snapshot, 0, len(ids))
	for _, id := range ids {
		out = append(out, SampleSnapshot(id, "6-4", "1"))
	}
	return out
}

// EnvelopeJSON wraps list in the {"matches":[...]} wire envelope.
func EnvelopeJSON(list []matches.Snapshot) []byte {
	data, err := gojson.Marshal(map[string]any{"matches": list})
	if err != nil {
		panic(err)
	}
	return data
}
