package retry

import (
	"testing"
	"time"
)

func TestBaseDelayMonotonicAndCapped(t *testing.T) {
	prev := time.Duration(0)
	for attempts := 0; attempts <= 10; attempts++ {
		d := BaseDelay(attempts, DefaultCapSeconds)
		if d < prev {
			t.Fatalf("delay decreased at attempt %d: %s < %s", attempts, d, prev)
		}
		if d > time.Duration(DefaultCapSeconds)*time.Second {
			t.Fatalf("delay exceeds cap at attempt %d: %s", attempts, d)
		}
		prev = d
	}
}

func TestBaseDelayValues(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{attempts: 0, want: 1 * time.Second},
		{attempts: 1, want: 2 * time.Second},
		{attempts: 3, want: 8 * time.Second},
		{attempts: 5, want: 32 * time.Second},
		{attempts: 6, want: 60 * time.Second},
		{attempts: 40, want: 60 * time.Second},
		{attempts: -1, want: 1 * time.Second},
	}

	for _, tt := range tests {
		if got := BaseDelay(tt.attempts, DefaultCapSeconds); got != tt.want {
			t.Fatalf("BaseDelay(%d) = %s, want %s", tt.attempts, got, tt.want)
		}
	}
}

func TestBackoffJitterBounded(t *testing.T) {
	for i := 0; i < 50; i++ {
		d := Backoff(2, DefaultCapSeconds)
		base := BaseDelay(2, DefaultCapSeconds)
		if d < base || d >= base+time.Second {
			t.Fatalf("jittered delay %s outside [%s, %s)", d, base, base+time.Second)
		}
	}
}
