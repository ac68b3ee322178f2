package feed

import (
	"time"

	"github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
	"github.com/preston-bernstein/tennis-live-feed/internal/timeutil"
)

// Default pacing for commits.
const (
	DefaultThrottleInterval = 3000 * time.Millisecond
	DefaultCoalesceDelay    = 100 * time.Millisecond
)

// Reasons an arrival was not committed.
const (
	DropUnchanged      = "unchanged"
	DropThrottled      = "throttled"
	DropSuperseded     = "superseded"
	DropEmpty          = "empty"
	DropStaleBootstrap = "stale_bootstrap"
)

// ShouldCommit decides whether next replaces current at now. A zero lastCommit
// means nothing was committed yet, so the interval does not apply.
func ShouldCommit(now, lastCommit time.Time, interval time.Duration, current, next []matches.Snapshot) bool {
	if !HasChanged(current, next) {
		return false
	}
	if lastCommit.IsZero() {
		return true
	}
	return now.Sub(lastCommit) >= interval
}

// Gate coalesces bursts of arrivals into one evaluation and spaces commits at
// least interval apart. It is not safe for concurrent use.
type Gate struct {
	interval   time.Duration
	coalesce   time.Duration
	afterFunc  timeutil.AfterFunc
	lastCommit time.Time
	pending    timeutil.Timer
	token      uint64
}

// NewGate builds a Gate. Non-positive durations use the defaults.
func NewGate(interval, coalesce time.Duration, afterFunc timeutil.AfterFunc) *Gate {
	if interval <= 0 {
		interval = DefaultThrottleInterval
	}
	if coalesce <= 0 {
		coalesce = DefaultCoalesceDelay
	}
	if afterFunc == nil {
		afterFunc = timeutil.RealAfterFunc
	}
	return &Gate{interval: interval, coalesce: coalesce, afterFunc: afterFunc}
}

// Admit cancels any pending evaluation and schedules a new one. fire receives
// a token that Due accepts only if no later Admit or Cancel happened.
func (g *Gate) Admit(fire func(token uint64)) {
	if g.pending != nil {
		g.pending.Stop()
	}
	g.token++
	token := g.token
	g.pending = g.afterFunc(g.coalesce, func() { fire(token) })
}

// Due reports whether token belongs to the latest pending evaluation and consumes it.
func (g *Gate) Due(token uint64) bool {
	if g.pending == nil || token != g.token {
		return false
	}
	g.pending = nil
	return true
}

// Decide applies ShouldCommit and records now as the last commit when it passes.
// A rejected arrival comes back with the drop reason.
func (g *Gate) Decide(now time.Time, current, next []matches.Snapshot) (bool, string) {
	if !HasChanged(current, next) {
		return false, DropUnchanged
	}
	if !g.lastCommit.IsZero() && now.Sub(g.lastCommit) < g.interval {
		return false, DropThrottled
	}
	g.lastCommit = now
	return true, ""
}

// Cancel drops any pending evaluation.
func (g *Gate) Cancel() {
	if g.pending != nil {
		g.pending.Stop()
		g.pending = nil
	}
	g.token++
}

// LastCommit returns the time of the last passing Decide.
func (g *Gate) LastCommit() time.Time {
	return g.lastCommit
}
