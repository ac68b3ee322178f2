package fixture

import (
	"context"
	"encoding/json"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
)

// Provider returns a static set of matches useful for local testing and bootstrapping.
type Provider struct {
	now func() time.Time
}

// New creates a fixture provider with a time source.
func New() *Provider {
	return &Provider{
		now: time.Now,
	}
}

// FetchMatches returns a deterministic set of example matches from both upstream sources.
func (p *Provider) FetchMatches(ctx context.Context) ([]matches.Snapshot, error) {
	_ = ctx
	return []matches.Snapshot{
		{
			MatchID:      "fixture-1",
			ScoreSummary: "6-4 3-2",
			StatusCode:   "1",
			SourcePayloads: map[string]json.RawMessage{
				matches.SourceBetsAPI: json.RawMessage(`{"inplay_event":{"id":"fixture-1","league":{"name":"ATP Rotterdam"},"home":{"name":"A. Player"},"away":{"name":"B. Player"}}}`),
			},
		},
		{
			MatchID:      "fixture-2",
			ScoreSummary: "4-6 6-3 1-0",
			StatusCode:   "1",
			SourcePayloads: map[string]json.RawMessage{
				matches.SourceRapid: json.RawMessage(`{"raw_event_data":{"liga":"WTA Doha","home":"C. Player","away":"D. Player"}}`),
			},
		},
		{
			MatchID:      "fixture-3",
			ScoreSummary: "",
			StatusCode:   "0",
			SourcePayloads: map[string]json.RawMessage{
				matches.SourceBetsAPI: json.RawMessage(`{"inplay_event":{"id":"fixture-3","league":{"name":"ATP Rotterdam"}}}`),
			},
		},
	}, nil
}

// FetchAnalysis returns a small analysis report stamped with the provider clock.
func (p *Provider) FetchAnalysis(ctx context.Context) (json.RawMessage, error) {
	_ = ctx
	return p.report(map[string]any{
		"status":          "success",
		"generated_at":    p.now().UTC().Format(time.RFC3339),
		"total_matches":   3,
		"in_play_matches": 2,
		"sources":         []string{matches.SourceBetsAPI, matches.SourceRapid},
	})
}

// FetchRaw returns a raw provider dump with one event per source.
func (p *Provider) FetchRaw(ctx context.Context) (json.RawMessage, error) {
	_ = ctx
	return p.report(map[string]any{
		"status":       "success",
		"generated_at": p.now().UTC().Format(time.RFC3339),
		"betsapi":      []map[string]any{{"id": "fixture-1", "ss": "6-4 3-2", "time_status": "1"}},
		"rapid":        []map[string]any{{"id": "fixture-2", "score": "4-6 6-3 1-0"}},
	})
}

func (p *Provider) report(body map[string]any) (json.RawMessage, error) {
	data, err := gojson.Marshal(body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
