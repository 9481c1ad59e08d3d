package transport

import (
	"math/rand"
	"sync"
	"time"
)

// rateLimiter implements the cooperative adaptive delay loop: one shared
// clock all fetches wait on, widening on challenge signals and narrowing
// back down on clean fetches.
type rateLimiter struct {
	mu sync.Mutex

	minDelay       time.Duration
	maxBackoff     time.Duration
	backoffFactor  float64
	recoveryFactor float64
	idleReset      time.Duration

	currentDelay time.Duration
	lastRequest  time.Time
}

// newRateLimiter starts the delay at maxDelay, the conservative end of the
// configured range — the limiter narrows toward minDelay only after
// observing clean fetches. idleReset is how long the limiter can sit
// unused before wait() snaps the delay back to its floor instead of
// resuming wherever a prior challenge left it.
func newRateLimiter(minDelay, maxDelay, maxBackoff time.Duration, backoffFactor, recoveryFactor float64, idleReset time.Duration) *rateLimiter {
	return &rateLimiter{
		minDelay:       minDelay,
		maxBackoff:     maxBackoff,
		backoffFactor:  backoffFactor,
		recoveryFactor: recoveryFactor,
		idleReset:      idleReset,
		currentDelay:   maxDelay,
	}
}

// wait blocks the calling goroutine until it is this fetch's turn. Elapsed
// time since the previous fetch is credited against the sleep. A gap since
// the last fetch longer than idleReset resets the delay to its floor first —
// a backoff earned fighting a challenge an hour ago says nothing about the
// site's mood now.
func (r *rateLimiter) wait() {
	r.mu.Lock()
	last := r.lastRequest
	idleReset := r.idleReset
	r.mu.Unlock()

	if !last.IsZero() && idleReset > 0 && time.Since(last) >= idleReset {
		r.reset()
	}

	r.mu.Lock()
	delay := r.currentDelay
	r.mu.Unlock()

	jittered := delay + time.Duration(rand.Float64()*0.5*float64(delay))
	if !last.IsZero() {
		elapsed := time.Since(last)
		if elapsed >= jittered {
			r.markRequest()
			return
		}
		jittered -= elapsed
	}
	time.Sleep(jittered)
	r.markRequest()
}

func (r *rateLimiter) markRequest() {
	r.mu.Lock()
	r.lastRequest = time.Now()
	r.mu.Unlock()
}

// onSuccess narrows the delay back toward minDelay.
func (r *rateLimiter) onSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := time.Duration(float64(r.currentDelay) * r.recoveryFactor)
	if d < r.minDelay {
		d = r.minDelay
	}
	r.currentDelay = d
}

// onChallenge widens the delay toward maxBackoff.
func (r *rateLimiter) onChallenge() {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := time.Duration(float64(r.currentDelay) * r.backoffFactor)
	if d > r.maxBackoff {
		d = r.maxBackoff
	}
	r.currentDelay = d
}

// current returns the current delay, for stats().
func (r *rateLimiter) current() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentDelay
}

// reset restores the delay to its floor, used after a long idle period.
func (r *rateLimiter) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentDelay = r.minDelay
}
