// Package retry provides the shared exponential backoff used by the outbox
// dispatcher and the webhook retry schedule.
package retry

import (
	"math/rand"
	"time"
)

// DefaultCapSeconds is the ceiling on the exponential delay.
const DefaultCapSeconds = 60

const maxJitterMs = 1000

// BaseDelay returns min(2^attempts, cap) seconds without jitter.
func BaseDelay(attempts, capSeconds int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if capSeconds <= 0 {
		capSeconds = DefaultCapSeconds
	}
	// 2^attempts overflows fast; anything past 2^30 is above any sane cap.
	if attempts > 30 {
		return time.Duration(capSeconds) * time.Second
	}
	secs := 1 << uint(attempts)
	if secs > capSeconds {
		secs = capSeconds
	}
	return time.Duration(secs) * time.Second
}

// Backoff returns the delay before the next attempt: min(2^attempts, cap)
// plus a small random jitter so concurrent retries do not line up.
func Backoff(attempts, capSeconds int) time.Duration {
	jitter := time.Duration(rand.Intn(maxJitterMs)) * time.Millisecond
	return BaseDelay(attempts, capSeconds) + jitter
}

// NextRunAt computes the wall-clock time of the next attempt.
func NextRunAt(now time.Time, attempts, capSeconds int) time.Time {
	return now.Add(Backoff(attempts, capSeconds))
}
