package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/preston-bernstein/tennis-live-feed/internal/channel"
	"github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
	"github.com/preston-bernstein/tennis-live-feed/internal/logging"
	"github.com/preston-bernstein/tennis-live-feed/internal/providers"
	"github.com/preston-bernstein/tennis-live-feed/internal/snapshots"
	"github.com/preston-bernstein/tennis-live-feed/internal/timeutil"
)

// Arrival sources.
const (
	SourceBootstrap = "bootstrap"
	SourcePush      = "push"
)

const (
	connectionErrorMessage = "connection error - retrying..."
	fetchErrorPrefix       = "failed to fetch data: "
	cachedDataSuffix       = " (showing cached data)"
)

// Cache is the persistent mirror of committed matches.
type Cache interface {
	LoadEntry() (snapshots.Entry, bool)
	Save(list []matches.Snapshot)
}

// Channel is the push channel lifecycle the synchronizer drives.
type Channel interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
}

// ChannelFactory builds the push channel around the synchronizer's sink.
type ChannelFactory func(sink channel.Sink) Channel

// Recorder observes arrivals, commits and drops (typically metrics).
type Recorder interface {
	RecordArrival(source string)
	RecordCommit(source string)
	RecordDrop(reason string)
}

// Options wires a Synchronizer. Provider and Channel are required.
type Options struct {
	Provider         providers.MatchProvider
	Channel          ChannelFactory
	Cache            Cache
	ThrottleInterval time.Duration
	CoalesceDelay    time.Duration
	FetchTimeout     time.Duration
	// RecencyGuard drops a bootstrap result when a push arrival was committed
	// after the bootstrap request started.
	RecencyGuard bool
	AfterFunc    timeutil.AfterFunc
	Now          func() time.Time
	Logger       *slog.Logger
	Recorder     Recorder
}

type arrival struct {
	list      []matches.Snapshot
	source    string
	requested time.Time
}

// Synchronizer owns the committed FeedState. All mutation happens on one loop
// goroutine; producers post tasks into it.
type Synchronizer struct {
	provider     providers.MatchProvider
	channel      Channel
	cache        Cache
	fetchTimeout time.Duration
	recencyGuard bool
	now          func() time.Time
	logger       *slog.Logger
	recorder     Recorder

	tasks    chan func()
	done     chan struct{}
	loopDone chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
	lifeMu    sync.Mutex
	started   bool

	// loop-owned
	state          matches.FeedState
	gate           *Gate
	pending        *arrival
	lastPushCommit time.Time

	mu        sync.RWMutex
	published matches.FeedState
	subs      map[int]chan matches.FeedState
	nextSub   int
	closed    bool
}

// New seeds the state from the cache before any network activity.
func New(opts Options) *Synchronizer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = timeutil.RealAfterFunc
	}
	s := &Synchronizer{
		provider:     opts.Provider,
		cache:        opts.Cache,
		fetchTimeout: opts.FetchTimeout,
		recencyGuard: opts.RecencyGuard,
		now:          opts.Now,
		logger:       opts.Logger,
		recorder:     opts.Recorder,
		tasks:        make(chan func(), 64),
		done:         make(chan struct{}),
		loopDone:     make(chan struct{}),
		gate:         NewGate(opts.ThrottleInterval, opts.CoalesceDelay, opts.AfterFunc),
		subs:         make(map[int]chan matches.FeedState),
	}

	s.state = matches.FeedState{ConnectionStatus: matches.StatusConnecting, Loading: true}
	if s.cache != nil {
		if entry, ok := s.cache.LoadEntry(); ok && len(entry.Matches) > 0 {
			s.state.Matches = entry.Matches
			s.state.LastUpdatedAt = entry.SavedAt
			s.state.Loading = false
			logging.Info(s.logger, "seeded feed from cache", logging.FieldCount, len(entry.Matches))
		}
	}
	if opts.Channel != nil {
		s.channel = opts.Channel(s.handleChannel)
	}
	s.published = s.state.Clone()
	return s
}

// Start runs the loop, opens the push channel and fires the bootstrap fetch.
func (s *Synchronizer) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.lifeMu.Lock()
		select {
		case <-s.done:
			s.lifeMu.Unlock()
			return
		default:
		}
		s.started = true
		s.lifeMu.Unlock()

		runCtx, cancel := context.WithCancel(ctx)
		s.cancel = cancel

		go s.loop()
		if s.channel != nil {
			s.channel.Start(runCtx)
		}
		if s.provider != nil {
			s.wg.Add(1)
			go s.bootstrap(runCtx)
		}
	})
}

// Stop cancels timers, closes the channel and waits for the loop to exit.
// It is safe to call more than once.
func (s *Synchronizer) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.lifeMu.Lock()
		started := s.started
		s.lifeMu.Unlock()

		if s.channel != nil {
			if cerr := s.channel.Stop(ctx); cerr != nil {
				err = fmt.Errorf("stop channel: %w", cerr)
			}
		}

		if started {
			ack := make(chan struct{})
			if s.post(func() {
				s.gate.Cancel()
				s.pending = nil
				s.state.ConnectionStatus = matches.StatusClosed
				s.publish()
				close(ack)
			}) {
				select {
				case <-ack:
				case <-ctx.Done():
				}
			}
			s.cancel()
		}

		s.lifeMu.Lock()
		close(s.done)
		s.lifeMu.Unlock()

		if started {
			select {
			case <-s.loopDone:
			case <-ctx.Done():
				if err == nil {
					err = ctx.Err()
				}
			}
		}
		s.wg.Wait()
		s.closeSubscribers()
	})
	return err
}

// State returns a copy of the committed state.
func (s *Synchronizer) State() matches.FeedState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.published.Clone()
}

// Subscribe returns a channel that always holds the latest state after each
// change, plus a cancel func. The channel is closed on cancel or Stop.
func (s *Synchronizer) Subscribe() (<-chan matches.FeedState, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan matches.FeedState, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.published.Clone()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

func (s *Synchronizer) loop() {
	defer close(s.loopDone)
	for {
		select {
		case <-s.done:
			return
		case task := <-s.tasks:
			task()
		}
	}
}

// post hands task to the loop. After Stop it is dropped and post reports false.
func (s *Synchronizer) post(task func()) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case <-s.done:
		return false
	case s.tasks <- task:
		return true
	}
}

func (s *Synchronizer) bootstrap(ctx context.Context) {
	defer s.wg.Done()

	requested := s.now()
	fetchCtx := ctx
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}
	list, err := s.provider.FetchMatches(fetchCtx)
	s.post(func() { s.onBootstrap(requested, list, err) })
}

func (s *Synchronizer) onBootstrap(requested time.Time, list []matches.Snapshot, err error) {
	if err != nil {
		msg := fetchErrorPrefix + err.Error()
		if s.state.HasData() {
			logging.Warn(s.logger, "bootstrap fetch failed, keeping cached data", "error", err)
			s.state.Error = msg + cachedDataSuffix
		} else {
			logging.Error(s.logger, "bootstrap fetch failed", err)
			s.state.Error = msg
			s.state.Loading = false
		}
		s.publish()
		return
	}
	if len(list) == 0 && !s.state.HasData() {
		s.state.Loading = false
		s.publish()
	}
	s.arrive(arrival{list: list, source: SourceBootstrap, requested: requested})
}

func (s *Synchronizer) handleChannel(n channel.Notification) {
	s.post(func() { s.onChannel(n) })
}

func (s *Synchronizer) onChannel(n channel.Notification) {
	switch n.Kind {
	case channel.NotifyOpen:
		s.state.ConnectionStatus = matches.StatusOpen
		s.state.Error = ""
		s.publish()
	case channel.NotifyMessage:
		s.arrive(arrival{list: n.Matches, source: SourcePush})
	case channel.NotifyError:
		s.state.ConnectionStatus = matches.StatusDegraded
		s.state.Error = connectionErrorMessage
		s.publish()
	case channel.NotifyConnecting:
		s.state.ConnectionStatus = matches.StatusConnecting
		s.publish()
	case channel.NotifyClosed:
		s.state.ConnectionStatus = matches.StatusClosed
		if n.Err != nil {
			s.state.Error = connectionErrorMessage
		}
		s.publish()
	}
}

func (s *Synchronizer) arrive(a arrival) {
	s.record(func(r Recorder) { r.RecordArrival(a.source) })
	if len(a.list) == 0 {
		s.drop(DropEmpty, a.source)
		return
	}
	if s.pending != nil {
		s.drop(DropSuperseded, s.pending.source)
	}
	s.pending = &a
	s.gate.Admit(func(token uint64) {
		s.post(func() { s.evaluate(token) })
	})
}

func (s *Synchronizer) evaluate(token uint64) {
	if !s.gate.Due(token) {
		return
	}
	a := s.pending
	s.pending = nil
	if a == nil {
		return
	}

	if a.source == SourceBootstrap && s.recencyGuard && !s.lastPushCommit.IsZero() && !s.lastPushCommit.Before(a.requested) {
		s.drop(DropStaleBootstrap, a.source)
		return
	}

	now := s.now()
	ok, reason := s.gate.Decide(now, s.state.Matches, a.list)
	if !ok {
		s.drop(reason, a.source)
		if reason == DropUnchanged && !s.state.Authoritative {
			s.state.Authoritative = true
			s.publish()
		}
		return
	}
	s.commit(now, a)
}

func (s *Synchronizer) commit(now time.Time, a *arrival) {
	s.state.Matches = a.list
	s.state.LastUpdatedAt = now
	s.state.Loading = false
	s.state.Authoritative = true
	// Committed data supersedes a bootstrap failure; connection errors stay until the channel reopens.
	if strings.HasPrefix(s.state.Error, fetchErrorPrefix) {
		s.state.Error = ""
	}
	if a.source == SourcePush {
		s.lastPushCommit = now
	}
	logging.Info(s.logger, "committed matches", logging.FieldCount, len(a.list), logging.FieldSource, a.source)
	s.record(func(r Recorder) { r.RecordCommit(a.source) })

	if s.cache != nil {
		s.cache.Save(a.list)
	}
	s.publish()
}

func (s *Synchronizer) drop(reason, source string) {
	logging.Debug(s.logger, "arrival dropped", "reason", reason, logging.FieldSource, source)
	s.record(func(r Recorder) { r.RecordDrop(reason) })
}

func (s *Synchronizer) record(fn func(Recorder)) {
	if s.recorder != nil {
		fn(s.recorder)
	}
}

// publish copies the loop-owned state for readers and notifies subscribers.
func (s *Synchronizer) publish() {
	snap := s.state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = snap
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap.Clone():
		default:
		}
	}
}

func (s *Synchronizer) closeSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
