// Package envelope decodes the match envelopes delivered by the push channel and
// the query endpoint. Both transports share the same record shape.
package envelope

import (
	stdjson "encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
)

// ErrNoMatches marks an envelope without a matches field or with no entries.
// Callers treat it as a no-op rather than a failure.
var ErrNoMatches = errors.New("envelope has no matches")

// ParseError wraps a malformed payload.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed envelope: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// AsParseError attempts to unwrap an error into a ParseError.
func AsParseError(err error) (*ParseError, bool) {
	var pErr *ParseError
	if errors.As(err, &pErr) {
		return pErr, true
	}
	return nil, false
}

type wireEnvelope struct {
	Matches []wireRecord `json:"matches"`
}

// wireRecord accepts both the canonical shape and the provider-native shape.
type wireRecord struct {
	MatchID        flexString                    `json:"matchId"`
	NativeMatchID  flexString                    `json:"match_id"`
	ScoreSummary   flexString                    `json:"scoreSummary"`
	StatusCode     flexString                    `json:"statusCode"`
	SourcePayloads map[string]stdjson.RawMessage `json:"sourcePayloads"`
	BetsAPIData    stdjson.RawMessage            `json:"betsapi_data"`
	RapidData      stdjson.RawMessage            `json:"rapid_data"`
}

type betsAPIData struct {
	InplayEvent struct {
		SS         flexString `json:"ss"`
		TimeStatus flexString `json:"time_status"`
	} `json:"inplay_event"`
}

// Parse decodes an envelope body into a deduplicated snapshot collection.
// Malformed JSON yields a *ParseError; a missing or empty collection yields ErrNoMatches.
func Parse(data []byte) ([]matches.Snapshot, error) {
	var env wireEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ParseError{Err: err}
	}
	if len(env.Matches) == 0 {
		return nil, ErrNoMatches
	}

	out := make([]matches.Snapshot, 0, len(env.Matches))
	for _, rec := range env.Matches {
		out = append(out, mapRecord(rec))
	}
	out = matches.Dedupe(out)
	if len(out) == 0 {
		return nil, ErrNoMatches
	}
	return out, nil
}

// EncodeSnapshots serializes a collection in canonical form.
func EncodeSnapshots(list []matches.Snapshot) ([]byte, error) {
	return json.Marshal(list)
}

// DecodeSnapshots parses a canonical collection, as written by EncodeSnapshots.
func DecodeSnapshots(data []byte) ([]matches.Snapshot, error) {
	var recs []wireRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, &ParseError{Err: err}
	}
	out := make([]matches.Snapshot, 0, len(recs))
	for _, rec := range recs {
		out = append(out, mapRecord(rec))
	}
	return matches.Dedupe(out), nil
}

func mapRecord(rec wireRecord) matches.Snapshot {
	snap := matches.Snapshot{
		MatchID:      strings.TrimSpace(string(rec.MatchID)),
		ScoreSummary: string(rec.ScoreSummary),
		StatusCode:   string(rec.StatusCode),
	}
	if snap.MatchID == "" {
		snap.MatchID = strings.TrimSpace(string(rec.NativeMatchID))
	}

	payloads := make(map[string]stdjson.RawMessage, len(rec.SourcePayloads)+2)
	for k, v := range rec.SourcePayloads {
		payloads[k] = v
	}
	if present(rec.BetsAPIData) {
		payloads[matches.SourceBetsAPI] = rec.BetsAPIData
		var bets betsAPIData
		if err := json.Unmarshal(rec.BetsAPIData, &bets); err == nil {
			if snap.ScoreSummary == "" {
				snap.ScoreSummary = string(bets.InplayEvent.SS)
			}
			if snap.StatusCode == "" {
				snap.StatusCode = string(bets.InplayEvent.TimeStatus)
			}
		}
	}
	if present(rec.RapidData) {
		payloads[matches.SourceRapid] = rec.RapidData
	}
	if len(payloads) > 0 {
		snap.SourcePayloads = payloads
	}
	return snap
}

func present(raw stdjson.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// flexString decodes JSON strings and numbers into their textual form; null stays empty.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
