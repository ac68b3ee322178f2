package metrics

import (
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

type providerStats struct {
	calls           int
	errors          int
	rateLimitHits   int
	lastRetryAfter  time.Duration
	lastCallLatency time.Duration
}

// Recorder captures in-memory counters about provider calls and the feed
// pipeline, mirrored to OpenTelemetry instruments when configured.
type Recorder struct {
	mu    sync.Mutex
	stats map[string]*providerStats
	feed  feedStats
	otel  *otelInstruments
}

type feedStats struct {
	arrivals    map[string]int
	commits     map[string]int
	drops       map[string]int
	transitions map[string]int
	cacheSaves  map[string]int
	reconnects  int
}

// FeedSnapshot is a copy of the feed pipeline counters.
type FeedSnapshot struct {
	Arrivals    map[string]int
	Commits     map[string]int
	Drops       map[string]int
	Transitions map[string]int
	CacheSaves  map[string]int
	Reconnects  int
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		stats: make(map[string]*providerStats),
		feed: feedStats{
			arrivals:    make(map[string]int),
			commits:     make(map[string]int),
			drops:       make(map[string]int),
			transitions: make(map[string]int),
			cacheSaves:  make(map[string]int),
		},
		otel: otel,
	}
}

// RecordProviderAttempt increments counters for a provider call and stores the last observed latency.
func (r *Recorder) RecordProviderAttempt(provider string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	stats := r.ensureStats(provider)
	stats.calls++
	stats.lastCallLatency = duration
	if err != nil {
		stats.errors++
	}
	if r.otel != nil {
		r.otel.recordProviderAttempt(provider, duration, err)
	}
}

// RecordRateLimit tracks that a provider response hit a rate limit and stores the last Retry-After.
func (r *Recorder) RecordRateLimit(provider string, retryAfter time.Duration) {
	if r == nil {
		return
	}

	stats := r.ensureStats(provider)
	stats.rateLimitHits++
	if retryAfter > 0 {
		stats.lastRetryAfter = retryAfter
	}
	if r.otel != nil {
		r.otel.recordRateLimit(provider, retryAfter)
	}
}

// ProviderCalls returns the total attempts recorded for a provider.
func (r *Recorder) ProviderCalls(provider string) int {
	return r.Snapshot(provider).Calls
}

// ProviderErrors returns the total failed attempts recorded for a provider.
func (r *Recorder) ProviderErrors(provider string) int {
	return r.Snapshot(provider).Errors
}

// RateLimitHits returns the number of rate limit events seen for a provider.
func (r *Recorder) RateLimitHits(provider string) int {
	return r.Snapshot(provider).RateLimitHits
}

// LastRetryAfter returns the most recent Retry-After recorded for a provider.
func (r *Recorder) LastRetryAfter(provider string) time.Duration {
	return r.Snapshot(provider).LastRetryAfter
}

// LastCallLatency returns the last recorded latency for a provider call.
func (r *Recorder) LastCallLatency(provider string) time.Duration {
	return r.Snapshot(provider).LastCallLatency
}

// Snapshot returns a copy of the current stats for the provider.
type Snapshot struct {
	Calls           int
	Errors          int
	RateLimitHits   int
	LastRetryAfter  time.Duration
	LastCallLatency time.Duration
}

func (r *Recorder) Snapshot(provider string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	stats := r.snapshot(provider)
	return Snapshot{
		Calls:           stats.calls,
		Errors:          stats.errors,
		RateLimitHits:   stats.rateLimitHits,
		LastRetryAfter:  stats.lastRetryAfter,
		LastCallLatency: stats.lastCallLatency,
	}
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// RecordPollerCycle tracks poller cycles and errors.
func (r *Recorder) RecordPollerCycle(duration time.Duration, err error) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordPoller(duration, err)
}

// RecordArrival counts a collection arriving from source.
func (r *Recorder) RecordArrival(source string) {
	if r == nil {
		return
	}
	r.bump(r.feed.arrivals, source)
	if r.otel != nil {
		r.otel.recordCounter(r.otel.feedArrivals, 1, attribute.String(AttrSource, source))
	}
}

// RecordCommit counts a collection committed from source.
func (r *Recorder) RecordCommit(source string) {
	if r == nil {
		return
	}
	r.bump(r.feed.commits, source)
	if r.otel != nil {
		r.otel.recordCounter(r.otel.feedCommits, 1, attribute.String(AttrSource, source))
	}
}

// RecordDrop counts an arrival that was not committed.
func (r *Recorder) RecordDrop(reason string) {
	if r == nil {
		return
	}
	r.bump(r.feed.drops, reason)
	if r.otel != nil {
		r.otel.recordCounter(r.otel.feedDrops, 1, attribute.String(AttrReason, reason))
	}
}

// RecordChannelTransition counts the push channel entering state.
func (r *Recorder) RecordChannelTransition(state string) {
	if r == nil {
		return
	}
	r.bump(r.feed.transitions, state)
	if r.otel != nil {
		r.otel.recordCounter(r.otel.chanTransitions, 1, attribute.String(AttrState, state))
	}
}

// RecordChannelReconnect counts a scheduled reconnect attempt.
func (r *Recorder) RecordChannelReconnect() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.feed.reconnects++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordCounter(r.otel.reconnects, 1)
	}
}

// RecordCacheSave counts a cache write outcome.
func (r *Recorder) RecordCacheSave(result string) {
	if r == nil {
		return
	}
	r.bump(r.feed.cacheSaves, result)
	if r.otel != nil {
		r.otel.recordCounter(r.otel.cacheSaves, 1, attribute.String(AttrResult, result))
	}
}

// Feed returns a copy of the feed pipeline counters.
func (r *Recorder) Feed() FeedSnapshot {
	if r == nil {
		return FeedSnapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return FeedSnapshot{
		Arrivals:    copyCounts(r.feed.arrivals),
		Commits:     copyCounts(r.feed.commits),
		Drops:       copyCounts(r.feed.drops),
		Transitions: copyCounts(r.feed.transitions),
		CacheSaves:  copyCounts(r.feed.cacheSaves),
		Reconnects:  r.feed.reconnects,
	}
}

func (r *Recorder) bump(counts map[string]int, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts[key]++
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (r *Recorder) ensureStats(provider string) *providerStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.stats[provider]
	if !ok {
		stats = &providerStats{}
		r.stats[provider] = stats
	}
	return stats
}

func (r *Recorder) snapshot(provider string) providerStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stats, ok := r.stats[provider]; ok && stats != nil {
		return *stats
	}
	return providerStats{}
}
