package realtime

import "time"

// Backoff is the socket reconnect policy: delay = min(Base * 2^(attempt-1), Max), at most MaxAttempts retries.
type Backoff struct {
	Base        time.Duration
	Max         time.Duration
	MaxAttempts int
}

// DefaultBackoff returns 1s doubling to a 30s ceiling with 5 attempts.
func DefaultBackoff() Backoff {
	return Backoff{Base: time.Second, Max: 30 * time.Second, MaxAttempts: 5}
}

// Delay returns the wait before the given attempt, counting from 1.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := b.Base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= b.Max {
			return b.Max
		}
	}
	return min(d, b.Max)
}

// Exhausted reports whether no retry remains after attempts retries.
func (b Backoff) Exhausted(attempts int) bool {
	return attempts >= b.MaxAttempts
}
