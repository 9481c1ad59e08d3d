package transport

import (
	"testing"
	"time"
)

func TestOnSuccessNarrowsTowardMinDelay(t *testing.T) {
	r := newRateLimiter(3*time.Second, 8*time.Second, 120*time.Second, 2.0, 0.95, 0)
	if r.current() != 8*time.Second {
		t.Fatalf("expected initial delay to be maxDelay, got %v", r.current())
	}

	for i := 0; i < 200; i++ {
		r.onSuccess()
	}
	if r.current() != 3*time.Second {
		t.Errorf("expected repeated success to floor at minDelay, got %v", r.current())
	}
}

func TestOnChallengeWidensTowardMaxBackoff(t *testing.T) {
	r := newRateLimiter(3*time.Second, 8*time.Second, 20*time.Second, 2.0, 0.95, 0)

	r.onChallenge()
	if r.current() != 16*time.Second {
		t.Fatalf("expected delay to double, got %v", r.current())
	}

	r.onChallenge()
	if r.current() != 20*time.Second {
		t.Errorf("expected delay to cap at maxBackoff, got %v", r.current())
	}
}

func TestResetRestoresFloor(t *testing.T) {
	r := newRateLimiter(3*time.Second, 8*time.Second, 120*time.Second, 2.0, 0.95, 0)
	r.onChallenge()
	r.reset()
	if r.current() != 3*time.Second {
		t.Errorf("expected reset to restore minDelay, got %v", r.current())
	}
}

func TestWaitCreditsElapsedTime(t *testing.T) {
	r := newRateLimiter(10*time.Millisecond, 20*time.Millisecond, 200*time.Millisecond, 2.0, 0.95, 0)
	r.reset()

	start := time.Now()
	r.wait()
	r.wait()
	elapsed := time.Since(start)

	if elapsed > 100*time.Millisecond {
		t.Errorf("expected short cooperative wait at small test delays, took %v", elapsed)
	}
}

func TestWaitResetsAfterIdleGap(t *testing.T) {
	r := newRateLimiter(10*time.Millisecond, 20*time.Millisecond, 200*time.Millisecond, 2.0, 0.95, 30*time.Millisecond)
	r.onChallenge()
	r.onChallenge()
	if r.current() == 10*time.Millisecond {
		t.Fatalf("expected onChallenge to widen delay above the floor")
	}

	r.wait() // consumes the widened delay and records lastRequest
	time.Sleep(40 * time.Millisecond)
	r.wait()

	if r.current() != 10*time.Millisecond {
		t.Errorf("expected wait() to reset delay to floor after an idle gap, got %v", r.current())
	}
}
