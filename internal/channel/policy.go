package channel

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Reconnect policy names.
const (
	PolicyFixed       = "fixed"
	PolicyExponential = "exponential"
)

// DefaultReconnectDelay is the fixed wait between a close and the next dial.
const DefaultReconnectDelay = 5 * time.Second

// ReconnectPolicy yields the delay before each reconnect attempt.
type ReconnectPolicy interface {
	NextDelay() time.Duration
	Reset()
}

type backoffPolicy struct {
	b     backoff.BackOff
	floor time.Duration
}

// NewReconnectPolicy builds a fixed or exponential policy. Unknown names mean fixed.
// maxDelay only applies to the exponential policy.
func NewReconnectPolicy(name string, delay, maxDelay time.Duration) ReconnectPolicy {
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	if name != PolicyExponential {
		return &backoffPolicy{b: backoff.NewConstantBackOff(delay), floor: delay}
	}
	if maxDelay < delay {
		maxDelay = delay
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = delay
	exp.MaxInterval = maxDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	exp.Reset()
	return &backoffPolicy{b: exp, floor: delay}
}

func (p *backoffPolicy) NextDelay() time.Duration {
	d := p.b.NextBackOff()
	if d == backoff.Stop || d <= 0 {
		return p.floor
	}
	return d
}

func (p *backoffPolicy) Reset() {
	p.b.Reset()
}
