// Package throttle provides injectable request pacing for API clients.
//
// Every source client takes a Limiter and calls Wait before each request.
// Pacing is a policy decision made at wiring time, not inside clients:
// iNaturalist and NatureServe tolerate two requests per second, GBIF a bit
// more, and the IUCN API asks for a full two seconds between calls.
package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// Limiter delays the caller according to some pacing policy.
type Limiter interface {
	// Wait blocks until the next request may proceed or the context is
	// cancelled, in which case it returns the context error.
	Wait(ctx context.Context) error
}

// Interval enforces a fixed minimum gap between consecutive calls, matching
// the flat inter-request sleeps the upstream APIs document. Safe for
// concurrent use; concurrent callers are serialized gap by gap.
type Interval struct {
	gap   time.Duration
	clock clockwork.Clock

	mu   sync.Mutex
	next time.Time
}

// NewInterval creates a fixed-gap limiter on the real clock.
func NewInterval(gap time.Duration) *Interval {
	return NewIntervalWithClock(gap, clockwork.NewRealClock())
}

// NewIntervalWithClock creates a fixed-gap limiter on the given clock.
// Tests pass a fake clock to make pacing deterministic.
func NewIntervalWithClock(gap time.Duration, c clockwork.Clock) *Interval {
	return &Interval{gap: gap, clock: c}
}

// Wait blocks until at least the configured gap has passed since the
// previous permitted call. The first call never blocks.
func (i *Interval) Wait(ctx context.Context) error {
	if i.gap <= 0 {
		return ctx.Err()
	}

	i.mu.Lock()
	now := i.clock.Now()
	var wait time.Duration
	if i.next.After(now) {
		wait = i.next.Sub(now)
		i.next = i.next.Add(i.gap)
	} else {
		i.next = now.Add(i.gap)
	}
	i.mu.Unlock()

	if wait == 0 {
		return ctx.Err()
	}

	select {
	case <-i.clock.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TokenBucket adapts golang.org/x/time/rate for burst-tolerant pacing.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket permits sustained perSecond calls with the given burst.
func NewTokenBucket(perSecond float64, burst int) *TokenBucket {
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until a token is available.
func (t *TokenBucket) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// None is the no-op policy, used in tests and offline tools.
type None struct{}

// Wait returns immediately.
func (None) Wait(ctx context.Context) error {
	return ctx.Err()
}
