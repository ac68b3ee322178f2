package matches

import (
	"encoding/json"
	"time"
)

// Provider keys used in SourcePayloads.
const (
	SourceBetsAPI = "betsapi"
	SourceRapid   = "rapid"
)

// Snapshot is one upstream record for a single match at a point in time.
// SourcePayloads holds provider blobs verbatim; the feed core never reads them.
type Snapshot struct {
	MatchID        string                     `json:"matchId"`
	ScoreSummary   string                     `json:"scoreSummary"`
	StatusCode     string                     `json:"statusCode"`
	SourcePayloads map[string]json.RawMessage `json:"sourcePayloads,omitempty"`
}

// HasPayload reports whether the snapshot carries a blob for the given provider key.
func (s Snapshot) HasPayload(source string) bool {
	raw, ok := s.SourcePayloads[source]
	return ok && len(raw) > 0 && string(raw) != "null"
}

// ConnectionStatus mirrors the push channel health as seen by consumers.
type ConnectionStatus string

const (
	StatusConnecting ConnectionStatus = "connecting"
	StatusOpen       ConnectionStatus = "open"
	StatusDegraded   ConnectionStatus = "degraded"
	StatusClosed     ConnectionStatus = "closed"
)

// FeedState is the committed, consumer-visible state.
type FeedState struct {
	Matches          []Snapshot       `json:"matches"`
	LastUpdatedAt    time.Time        `json:"lastUpdatedAt"`
	ConnectionStatus ConnectionStatus `json:"connectionStatus"`
	Loading          bool             `json:"loading"`
	Error            string           `json:"error,omitempty"`
	// Authoritative is false while Matches only came from the local cache.
	Authoritative bool `json:"authoritative"`
}

// HasData reports whether any snapshot is available from any source.
func (s FeedState) HasData() bool {
	return len(s.Matches) > 0
}

// Clone returns a copy whose Matches slice can be handed to readers.
func (s FeedState) Clone() FeedState {
	out := s
	out.Matches = CloneSnapshots(s.Matches)
	return out
}

// CloneSnapshots copies the slice header and elements. Payload bytes are shared
// because they are never mutated after decode.
func CloneSnapshots(in []Snapshot) []Snapshot {
	if in == nil {
		return nil
	}
	out := make([]Snapshot, len(in))
	copy(out, in)
	return out
}

// Find returns the snapshot with the given id.
func Find(list []Snapshot, id string) (Snapshot, bool) {
	for _, s := range list {
		if s.MatchID == id {
			return s, true
		}
	}
	return Snapshot{}, false
}

// Dedupe enforces the unique-id invariant: records without an id are dropped and
// a repeated id replaces the earlier record in place.
func Dedupe(in []Snapshot) []Snapshot {
	if len(in) == 0 {
		return in
	}
	index := make(map[string]int, len(in))
	out := make([]Snapshot, 0, len(in))
	for _, s := range in {
		if s.MatchID == "" {
			continue
		}
		if i, ok := index[s.MatchID]; ok {
			out[i] = s
			continue
		}
		index[s.MatchID] = len(out)
		out = append(out, s)
	}
	return out
}
