package matches

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"

	domain "github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
)

// UnknownLeague groups matches whose payloads carry no league name.
const UnknownLeague = "Unknown"

const inPlayStatus = "1"

// Feed is the read side of the synchronizer.
type Feed interface {
	State() domain.FeedState
}

// League is one group of matches sharing a league name.
type League struct {
	Name    string            `json:"name"`
	Matches []domain.Snapshot `json:"matches"`
}

// Service derives consumer views from the committed feed state.
type Service struct {
	feed Feed
}

// NewService constructs a Service reading from feed.
func NewService(feed Feed) *Service {
	return &Service{feed: feed}
}

// State returns the full committed state.
func (s *Service) State() domain.FeedState {
	if s == nil || s.feed == nil {
		return domain.FeedState{Loading: true, ConnectionStatus: domain.StatusConnecting}
	}
	return s.feed.State()
}

// Matches returns all committed matches.
func (s *Service) Matches() []domain.Snapshot {
	return s.State().Matches
}

// LastUpdated returns the time of the last commit.
func (s *Service) LastUpdated() time.Time {
	return s.State().LastUpdatedAt
}

// MatchByID returns a single match if present.
func (s *Service) MatchByID(id string) (domain.Snapshot, bool) {
	return domain.Find(s.Matches(), id)
}

// Valid returns matches that have an id and at least one provider payload.
func (s *Service) Valid() []domain.Snapshot {
	return filter(s.Matches(), IsValid)
}

// InPlay returns valid matches that are currently being played.
func (s *Service) InPlay() []domain.Snapshot {
	return filter(s.Matches(), func(m domain.Snapshot) bool {
		return IsValid(m) && IsInPlay(m)
	})
}

// ByLeague groups valid matches by league name, sorted by name.
func (s *Service) ByLeague() []League {
	groups := make(map[string][]domain.Snapshot)
	for _, m := range s.Valid() {
		name := LeagueName(m)
		groups[name] = append(groups[name], m)
	}
	out := make([]League, 0, len(groups))
	for name, list := range groups {
		out = append(out, League{Name: name, Matches: list})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IsValid reports whether m has an id and a betsapi or rapid payload.
func IsValid(m domain.Snapshot) bool {
	if m.MatchID == "" {
		return false
	}
	return m.HasPayload(domain.SourceBetsAPI) || m.HasPayload(domain.SourceRapid)
}

// IsInPlay reports whether the status code or score summary marks m as live.
func IsInPlay(m domain.Snapshot) bool {
	if m.StatusCode == inPlayStatus {
		return true
	}
	return strings.Contains(strings.ToLower(m.ScoreSummary), "in play")
}

type betsapiLeague struct {
	InplayEvent struct {
		League struct {
			Name string `json:"name"`
		} `json:"league"`
	} `json:"inplay_event"`
}

type rapidLeague struct {
	RawEventData struct {
		Liga string `json:"liga"`
	} `json:"raw_event_data"`
}

// LeagueName reads the league from the betsapi payload, then the rapid one.
func LeagueName(m domain.Snapshot) string {
	if raw, ok := payload(m, domain.SourceBetsAPI); ok {
		var b betsapiLeague
		if gojson.Unmarshal(raw, &b) == nil && strings.TrimSpace(b.InplayEvent.League.Name) != "" {
			return b.InplayEvent.League.Name
		}
	}
	if raw, ok := payload(m, domain.SourceRapid); ok {
		var r rapidLeague
		if gojson.Unmarshal(raw, &r) == nil && strings.TrimSpace(r.RawEventData.Liga) != "" {
			return r.RawEventData.Liga
		}
	}
	return UnknownLeague
}

func payload(m domain.Snapshot, source string) (json.RawMessage, bool) {
	if !m.HasPayload(source) {
		return nil, false
	}
	return m.SourcePayloads[source], true
}

func filter(in []domain.Snapshot, keep func(domain.Snapshot) bool) []domain.Snapshot {
	out := make([]domain.Snapshot, 0, len(in))
	for _, m := range in {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
