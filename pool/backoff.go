package pool

import (
	"math/rand"
	"sync"
	"time"
)

// maxShift caps the exponent to prevent overflow in backoff calculation.
const maxShift = 62

// Backoff calculates the delay inserted before the next retry attempt.
// attempt is 1-indexed and names the attempt that just failed, so the
// first sleep a strategy produces is NextDelay(1).
type Backoff interface {
	NextDelay(attempt int) time.Duration
}

// linearBackoff grows the delay linearly with the attempt number.
// With base=2s the sleeps are 2s, 4s, 6s.
type linearBackoff struct {
	base time.Duration
}

// Linear returns a backoff whose delay is attempt * base.
func Linear(base time.Duration) Backoff {
	return &linearBackoff{base: base}
}

func (b *linearBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}

	return time.Duration(attempt) * b.base
}

// exponentialBackoff doubles the delay with each attempt:
// base, 2*base, 4*base, ... capped at max.
type exponentialBackoff struct {
	base time.Duration
	max  time.Duration
}

// Exponential returns a backoff whose delay is base * 2^(attempt-1),
// capped at max.
func Exponential(base, max time.Duration) Backoff {
	return &exponentialBackoff{base: base, max: max}
}

func (b *exponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}

	if attempt-1 >= maxShift {
		return b.max
	}

	delay := b.base << uint(attempt-1)
	if delay > b.max || delay < 0 {
		return b.max
	}

	return delay
}

// jitteredBackoff adds randomization to exponential backoff to prevent
// synchronized retry spikes when many items fail at once.
// Delay formula: exponentialDelay * (1 ± factor).
type jitteredBackoff struct {
	exp    exponentialBackoff
	factor float64
	rng    *rand.Rand
	mu     sync.Mutex
}

// Jittered returns an exponential backoff with ±factor random jitter.
// factor is clamped to [0, 1]; typical values are 0.1 to 0.3.
func Jittered(base, max time.Duration, factor float64) Backoff {
	if factor < 0 {
		factor = 0
	}

	if factor > 1 {
		factor = 1
	}

	return &jitteredBackoff{
		exp:    exponentialBackoff{base: base, max: max},
		factor: factor,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- crypto rand not needed for backoff jitter
	}
}

func (b *jitteredBackoff) NextDelay(attempt int) time.Duration {
	base := b.exp.NextDelay(attempt)
	if base == 0 {
		return 0
	}

	b.mu.Lock()
	mult := 1.0 + (b.rng.Float64()*2-1)*b.factor
	b.mu.Unlock()

	delay := time.Duration(float64(base) * mult)
	if delay > b.exp.max {
		return b.exp.max
	}

	if delay < 0 {
		return 0
	}

	return delay
}
