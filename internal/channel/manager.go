package channel

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/preston-bernstein/tennis-live-feed/internal/domain/matches"
	"github.com/preston-bernstein/tennis-live-feed/internal/envelope"
	"github.com/preston-bernstein/tennis-live-feed/internal/logging"
	"github.com/preston-bernstein/tennis-live-feed/internal/timeutil"
)

// NotificationKind names what the Manager tells its consumer.
type NotificationKind int

const (
	NotifyOpen NotificationKind = iota
	NotifyMessage
	NotifyError
	NotifyClosed
	// NotifyConnecting marks a reconnect dial; the first dial is not announced.
	NotifyConnecting
)

// Notification is delivered to the Sink in transition order.
type Notification struct {
	Kind      NotificationKind
	SessionID string
	Matches   []matches.Snapshot
	Err       error
}

// Sink receives notifications. It must not block for long.
type Sink func(Notification)

// TransitionRecorder observes lifecycle changes (typically metrics).
type TransitionRecorder interface {
	RecordChannelTransition(state string)
	RecordChannelReconnect()
}

// Status is a point-in-time view of the manager.
type Status struct {
	State     string `json:"state"`
	SessionID string `json:"sessionId,omitempty"`
	LastError string `json:"lastError,omitempty"`
}

// Config wires a Manager. Zero values fall back to the websocket dialer,
// the fixed policy and runtime timers.
type Config struct {
	URL       string
	Dialer    Dialer
	Policy    ReconnectPolicy
	AfterFunc timeutil.AfterFunc
	Logger    *slog.Logger
	Recorder  TransitionRecorder
}

// Manager keeps at most one push channel alive and reconnects after it closes.
type Manager struct {
	url       string
	dialer    Dialer
	policy    ReconnectPolicy
	afterFunc timeutil.AfterFunc
	logger    *slog.Logger
	recorder  TransitionRecorder
	sink      Sink

	mu        sync.Mutex
	machine   Machine
	gen       uint64
	conn      Conn
	reconnect timeutil.Timer
	session   string
	lastErr   error
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	// emitMu keeps sink deliveries in transition order without holding mu.
	emitMu sync.Mutex
}

type event struct {
	kind    EventKind
	gen     uint64
	conn    Conn
	matches []matches.Snapshot
	err     error
}

// NewManager constructs an idle Manager.
func NewManager(cfg Config, sink Sink) *Manager {
	if cfg.Dialer == nil {
		cfg.Dialer = NewWebsocketDialer(0)
	}
	if cfg.Policy == nil {
		cfg.Policy = NewReconnectPolicy(PolicyFixed, DefaultReconnectDelay, 0)
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = timeutil.RealAfterFunc
	}
	return &Manager{
		url:       cfg.URL,
		dialer:    cfg.Dialer,
		policy:    cfg.Policy,
		afterFunc: cfg.AfterFunc,
		logger:    cfg.Logger,
		recorder:  cfg.Recorder,
		sink:      sink,
	}
}

// Start dials the first channel. Calls after the first are ignored.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.machine.State() != StateIdle {
		m.mu.Unlock()
		return
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	m.dispatch(event{kind: EventStart})
}

// Stop cancels any pending reconnect, closes the live channel and waits for
// background goroutines. It is safe to call more than once.
func (m *Manager) Stop(ctx context.Context) error {
	m.dispatch(event{kind: EventStop})

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.machine.State()
}

// Status reports the state, the live session id and the last transport error.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{State: m.machine.State().String(), SessionID: m.session}
	if m.lastErr != nil {
		st.LastError = m.lastErr.Error()
	}
	return st
}

func connScoped(kind EventKind) bool {
	switch kind {
	case EventDialed, EventDialFailed, EventMessage, EventTransportError, EventClosed:
		return true
	}
	return false
}

func (m *Manager) dispatch(ev event) {
	m.mu.Lock()
	if connScoped(ev.kind) && ev.gen != m.gen {
		m.mu.Unlock()
		if ev.kind == EventDialed && ev.conn != nil {
			_ = ev.conn.Close()
		}
		return
	}

	prev := m.machine.State()
	effects := m.machine.Apply(ev.kind)
	next := m.machine.State()
	if next != prev {
		logging.Debug(m.logger, "channel transition",
			"from", prev.String(),
			logging.FieldState, next.String(),
			"event", ev.kind.String(),
		)
		if m.recorder != nil {
			m.recorder.RecordChannelTransition(next.String())
		}
	}

	var (
		notes   []Notification
		toClose []Conn
	)
	for _, eff := range effects {
		switch eff {
		case EffectDial:
			m.gen++
			if prev == StateClosed {
				if m.recorder != nil {
					m.recorder.RecordChannelReconnect()
				}
				notes = append(notes, Notification{Kind: NotifyConnecting})
			}
			m.wg.Add(1)
			go m.dial(m.ctx, m.gen)
		case EffectResetBackoff:
			m.policy.Reset()
		case EffectEmitOpen:
			m.conn = ev.conn
			m.session = newSessionID()
			m.lastErr = nil
			logging.Info(m.logger, "channel open", logging.FieldSessionID, m.session)
			notes = append(notes, Notification{Kind: NotifyOpen, SessionID: m.session})
		case EffectStartReader:
			m.wg.Add(1)
			go m.read(m.gen, ev.conn)
		case EffectForwardMessage:
			notes = append(notes, Notification{Kind: NotifyMessage, SessionID: m.session, Matches: ev.matches})
		case EffectEmitError:
			m.lastErr = ev.err
			logging.Warn(m.logger, "channel error", logging.FieldSessionID, m.session, "error", ev.err)
			notes = append(notes, Notification{Kind: NotifyError, SessionID: m.session, Err: ev.err})
		case EffectEmitClosed:
			if m.conn != nil {
				toClose = append(toClose, m.conn)
				m.conn = nil
			}
			if ev.kind == EventDialFailed {
				m.lastErr = ev.err
				logging.Warn(m.logger, "channel dial failed", "url", m.url, "error", ev.err)
			} else {
				logging.Info(m.logger, "channel closed", logging.FieldSessionID, m.session)
			}
			notes = append(notes, Notification{Kind: NotifyClosed, SessionID: m.session, Err: ev.err})
			m.session = ""
		case EffectScheduleReconnect:
			if m.reconnect != nil {
				m.reconnect.Stop()
			}
			delay := m.policy.NextDelay()
			logging.Info(m.logger, "channel reconnect scheduled", logging.FieldDelayMS, delay.Milliseconds())
			m.reconnect = m.afterFunc(delay, func() {
				m.dispatch(event{kind: EventReconnectFired})
			})
		case EffectCancelReconnect:
			if m.reconnect != nil {
				m.reconnect.Stop()
				m.reconnect = nil
			}
		case EffectCloseConn:
			if m.conn != nil {
				toClose = append(toClose, m.conn)
				m.conn = nil
			}
			if m.cancel != nil {
				m.cancel()
			}
			m.session = ""
		case EffectDiscardConn:
			if ev.conn != nil {
				toClose = append(toClose, ev.conn)
			}
		}
	}

	m.emitMu.Lock()
	m.mu.Unlock()
	defer m.emitMu.Unlock()

	for _, c := range toClose {
		_ = c.Close()
	}
	if m.sink == nil {
		return
	}
	for _, n := range notes {
		m.sink(n)
	}
}

func (m *Manager) dial(ctx context.Context, gen uint64) {
	defer m.wg.Done()

	conn, err := m.dialer.Dial(ctx, m.url)
	if err != nil {
		if _, ok := AsTransportError(err); !ok {
			err = &TransportError{Op: "dial", URL: m.url, Err: err}
		}
		m.dispatch(event{kind: EventDialFailed, gen: gen, err: err})
		return
	}
	m.dispatch(event{kind: EventDialed, gen: gen, conn: conn})
}

func (m *Manager) read(gen uint64, conn Conn) {
	defer m.wg.Done()

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			if errors.Is(err, ErrClosedNormally) {
				m.dispatch(event{kind: EventClosed, gen: gen})
				return
			}
			m.dispatch(event{kind: EventTransportError, gen: gen, err: err})
			m.dispatch(event{kind: EventClosed, gen: gen, err: err})
			return
		}

		list, err := envelope.Parse(data)
		if err != nil {
			if errors.Is(err, envelope.ErrNoMatches) {
				logging.Debug(m.logger, "channel message without matches")
			} else {
				logging.Warn(m.logger, "channel message malformed", "error", err)
			}
			continue
		}
		m.dispatch(event{kind: EventMessage, gen: gen, matches: list})
	}
}
