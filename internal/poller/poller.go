package poller

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/preston-bernstein/tennis-live-feed/internal/logging"
	"github.com/preston-bernstein/tennis-live-feed/internal/metrics"
)

const (
	defaultInterval = 30 * time.Second
	defaultCapacity = 20
)

// RawSource fetches the upstream raw provider dump.
type RawSource interface {
	FetchRaw(ctx context.Context) (json.RawMessage, error)
}

// Capture is one raw dump with the time it was taken.
type Capture struct {
	CapturedAt time.Time       `json:"capturedAt"`
	Body       json.RawMessage `json:"body"`
}

// Poller fetches the raw dump on an interval and keeps the most recent captures.
type Poller struct {
	source   RawSource
	logger   *slog.Logger
	metrics  *metrics.Recorder
	interval time.Duration
	capacity int
	now      func() time.Time

	ticker   *time.Ticker
	done     chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool

	statusMu sync.RWMutex
	status   Status
	captures []Capture
}

// Status describes the recent health of the poller loop.
type Status struct {
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	LastError           string    `json:"lastError,omitempty"`
	LastAttempt         time.Time `json:"lastAttempt"`
	LastSuccess         time.Time `json:"lastSuccess"`
}

// IsReady reports whether the poller has had a recent success and is not failing repeatedly.
func (s Status) IsReady() bool {
	if s.LastSuccess.IsZero() {
		return false
	}
	return s.ConsecutiveFailures < 3
}

// New constructs a Poller with sane defaults. capacity bounds the number of captures kept.
func New(source RawSource, logger *slog.Logger, recorder *metrics.Recorder, interval time.Duration, capacity int) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Poller{
		source:   source,
		logger:   logger,
		metrics:  recorder,
		interval: interval,
		capacity: capacity,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start begins polling until the context is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) {
	p.startMu.Lock()
	if p.started {
		p.startMu.Unlock()
		return
	}
	p.started = true
	ctx, p.cancel = context.WithCancel(ctx)
	p.startMu.Unlock()

	p.ticker = time.NewTicker(p.interval)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.logInfo("raw poller started", slog.Int64(logging.FieldDurationMS, p.interval.Milliseconds()))
		p.fetchOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				p.stopTicker()
				p.logInfo("raw poller stopped")
				return
			case <-p.done:
				p.stopTicker()
				p.logInfo("raw poller stopped")
				return
			case <-p.ticker.C:
				p.fetchOnce(ctx)
			}
		}
	}()
}

// Stop halts the polling loop, cancels an in-flight fetch and waits for the
// loop to exit or ctx to expire.
func (p *Poller) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		close(p.done)
		p.startMu.Lock()
		if p.cancel != nil {
			p.cancel()
		}
		p.startMu.Unlock()
	})

	exited := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(exited)
	}()
	select {
	case <-exited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) fetchOnce(ctx context.Context) {
	start := time.Now()
	at := p.now()
	p.recordAttempt(at)
	body, err := p.source.FetchRaw(ctx)
	if ctx.Err() != nil {
		// Shutting down; a late result is not kept.
		return
	}
	if p.metrics != nil {
		p.metrics.RecordPollerCycle(time.Since(start), err)
	}
	if err != nil {
		p.logError("raw poller fetch failed", err, slog.Int64(logging.FieldDurationMS, time.Since(start).Milliseconds()))
		p.recordFailure(err, at)
		return
	}

	p.recordSuccess(Capture{CapturedAt: at, Body: body})
	p.logInfo("raw poller captured dump",
		logging.FieldCount, len(body),
		logging.FieldDurationMS, time.Since(start).Milliseconds(),
	)
}

func (p *Poller) stopTicker() {
	if p.ticker != nil {
		p.ticker.Stop()
	}
}

func (p *Poller) logInfo(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Poller) logError(msg string, err error, attrs ...any) {
	if p.logger != nil {
		p.logger.Error(msg, append(attrs, "error", err)...)
	}
}

func (p *Poller) recordAttempt(at time.Time) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.LastAttempt = at
}

func (p *Poller) recordSuccess(c Capture) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.ConsecutiveFailures = 0
	p.status.LastError = ""
	p.status.LastSuccess = c.CapturedAt
	p.captures = append(p.captures, c)
	if over := len(p.captures) - p.capacity; over > 0 {
		p.captures = append(p.captures[:0:0], p.captures[over:]...)
	}
}

func (p *Poller) recordFailure(err error, at time.Time) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.ConsecutiveFailures++
	if err != nil {
		p.status.LastError = err.Error()
	}
	p.status.LastAttempt = at
}

// Status returns a snapshot of the poller's recent health.
func (p *Poller) Status() Status {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	return p.status
}

// Captures returns the retained captures, oldest first.
func (p *Poller) Captures() []Capture {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	out := make([]Capture, len(p.captures))
	copy(out, p.captures)
	return out
}

// Latest returns the most recent capture.
func (p *Poller) Latest() (Capture, bool) {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	if len(p.captures) == 0 {
		return Capture{}, false
	}
	return p.captures[len(p.captures)-1], true
}
