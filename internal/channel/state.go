package channel

// State is the push channel lifecycle state.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateErrored
	StateClosed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateErrored:
		return "errored"
	case StateClosed:
		return "closed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// EventKind names an input to the state machine.
type EventKind int

const (
	EventStart EventKind = iota
	EventDialed
	EventDialFailed
	EventMessage
	EventTransportError
	EventClosed
	EventReconnectFired
	EventStop
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventDialed:
		return "dialed"
	case EventDialFailed:
		return "dial_failed"
	case EventMessage:
		return "message"
	case EventTransportError:
		return "transport_error"
	case EventClosed:
		return "closed"
	case EventReconnectFired:
		return "reconnect_fired"
	case EventStop:
		return "stop"
	default:
		return "unknown"
	}
}

// Effect is an action the Manager performs after a transition.
type Effect int

const (
	EffectDial Effect = iota
	EffectStartReader
	EffectResetBackoff
	EffectEmitOpen
	EffectForwardMessage
	EffectEmitError
	EffectEmitClosed
	EffectScheduleReconnect
	EffectCancelReconnect
	EffectCloseConn
	// EffectDiscardConn closes a connection that was dialed after it stopped being wanted.
	EffectDiscardConn
)

// Apply is the channel lifecycle as a pure transition function. Events that do
// not apply to the current state leave it unchanged with no effects.
func Apply(state State, ev EventKind) (State, []Effect) {
	if ev == EventStop {
		if state == StateStopped {
			return state, nil
		}
		return StateStopped, []Effect{EffectCancelReconnect, EffectCloseConn}
	}

	switch state {
	case StateIdle:
		if ev == EventStart {
			return StateConnecting, []Effect{EffectDial}
		}
	case StateConnecting:
		switch ev {
		case EventDialed:
			return StateOpen, []Effect{EffectResetBackoff, EffectEmitOpen, EffectStartReader}
		case EventDialFailed:
			return StateClosed, []Effect{EffectEmitClosed, EffectScheduleReconnect}
		}
	case StateOpen:
		switch ev {
		case EventMessage:
			return state, []Effect{EffectForwardMessage}
		case EventTransportError:
			return StateErrored, []Effect{EffectEmitError}
		case EventClosed:
			return StateClosed, []Effect{EffectEmitClosed, EffectScheduleReconnect}
		}
	case StateErrored:
		if ev == EventClosed {
			return StateClosed, []Effect{EffectEmitClosed, EffectScheduleReconnect}
		}
	case StateClosed:
		if ev == EventReconnectFired {
			return StateConnecting, []Effect{EffectDial}
		}
	case StateStopped:
		if ev == EventDialed {
			return state, []Effect{EffectDiscardConn}
		}
	}
	return state, nil
}

// Machine tracks the current State and applies events to it. It is not safe
// for concurrent use; the Manager serializes access.
type Machine struct {
	state State
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Apply transitions the machine and returns the effects to run.
func (m *Machine) Apply(ev EventKind) []Effect {
	next, effects := Apply(m.state, ev)
	m.state = next
	return effects
}
