package providers

import (
	"context"
	"encoding/json"

	"github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
)

// MatchProvider fetches the current match collection from the query endpoint.
// An upstream answer with no matches is an empty slice and a nil error.
type MatchProvider interface {
	FetchMatches(ctx context.Context) ([]matches.Snapshot, error)
}

// ReportProvider fetches reporting bodies that are passed through verbatim.
type ReportProvider interface {
	FetchAnalysis(ctx context.Context) (json.RawMessage, error)
	FetchRaw(ctx context.Context) (json.RawMessage, error)
}

// DataProvider combines all provider capabilities.
type DataProvider interface {
	MatchProvider
	ReportProvider
}
