package fixture

import (
	"context"
	"strings"
	"testing"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
)

func TestFetchMatchesReturnsDeterministicMatches(t *testing.T) {
	p := New()

	list, err := p.FetchMatches(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(list))
	}
	if list[0].MatchID != "fixture-1" || !list[0].HasPayload(matches.SourceBetsAPI) {
		t.Fatalf("unexpected first match: %+v", list[0])
	}
	if !list[1].HasPayload(matches.SourceRapid) {
		t.Fatalf("expected rapid payload on second match")
	}
	if len(matches.Dedupe(list)) != len(list) {
		t.Fatal("expected unique ids")
	}
}

func TestFetchAnalysisUsesClock(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p := New()
	p.now = func() time.Time { return fixed }

	body, err := p.FetchAnalysis(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	var decoded map[string]any
	if err := gojson.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded["generated_at"] != fixed.Format(time.RFC3339) {
		t.Fatalf("unexpected timestamp %v", decoded["generated_at"])
	}
	if decoded["status"] != "success" {
		t.Fatalf("unexpected status %v", decoded["status"])
	}
}

func TestFetchRawIncludesBothSources(t *testing.T) {
	body, err := New().FetchRaw(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	s := string(body)
	if !strings.Contains(s, `"betsapi"`) || !strings.Contains(s, `"rapid"`) {
		t.Fatalf("expected both sources in %s", s)
	}
}
