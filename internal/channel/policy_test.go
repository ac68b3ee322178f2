package channel

import (
	"testing"
	"time"
)

func TestFixedPolicy(t *testing.T) {
	p := NewReconnectPolicy(PolicyFixed, 0, 0)
	for i := 0; i < 3; i++ {
		if d := p.NextDelay(); d != DefaultReconnectDelay {
			t.Fatalf("expected fixed default delay, got %v", d)
		}
	}
	if d := NewReconnectPolicy("bogus", time.Second, 0).NextDelay(); d != time.Second {
		t.Fatalf("expected unknown policy to be fixed, got %v", d)
	}
}

func TestExponentialPolicyCapsAndResets(t *testing.T) {
	p := NewReconnectPolicy(PolicyExponential, time.Second, 5*time.Second)
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if d := p.NextDelay(); d != w {
			t.Fatalf("attempt %d: want %v, got %v", i, w, d)
		}
	}
	p.Reset()
	if d := p.NextDelay(); d != time.Second {
		t.Fatalf("expected reset to initial delay, got %v", d)
	}
}
