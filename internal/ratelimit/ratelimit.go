// Package ratelimit implements the per-client token-bucket throttles and
// CIDR-based IP gate of spec §4.10.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Gate is a per-client-address token bucket. Each distinct address gets its
// own independent bucket, created lazily on first use.
type Gate struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewGate returns a Gate allowing burst requests immediately and limit
// requests per second thereafter, per client address.
func NewGate(limit rate.Limit, burst int) *Gate {
	return &Gate{limiters: make(map[string]*rate.Limiter), limit: limit, burst: burst}
}

// NewWindowGate returns a Gate allowing count requests per window, per
// client address — the shape spec §4.10 describes ("N requests per
// window").
func NewWindowGate(count int, window time.Duration) *Gate {
	return NewGate(rate.Limit(float64(count)/window.Seconds()), count)
}

// Allow reports whether addr may proceed now. When denied, retryAfter is
// how long the client should wait before its next attempt.
func (g *Gate) Allow(addr string) (allowed bool, retryAfter time.Duration) {
	limiter := g.limiterFor(addr)
	reservation := limiter.ReserveN(time.Now(), 1)
	if !reservation.OK() {
		return false, 0
	}
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		return false, delay
	}
	return true, 0
}

func (g *Gate) limiterFor(addr string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	limiter, ok := g.limiters[addr]
	if !ok {
		limiter = rate.NewLimiter(g.limit, g.burst)
		g.limiters[addr] = limiter
	}
	return limiter
}

// Gates bundles the route-class limiters spec §4.10 names.
type Gates struct {
	Global     *Gate // ~100 req / 15 min / address
	ServiceOp  *Gate // 20 req / min / address (start/stop/restart)
	AuxInvoker *Gate // 50 req / min / address
	Speed      *SpeedLimiter
}

// NewGates builds the default set of limiters from spec §4.10's figures.
func NewGates() *Gates {
	return &Gates{
		Global:     NewWindowGate(100, 15*time.Minute),
		ServiceOp:  NewWindowGate(20, time.Minute),
		AuxInvoker: NewWindowGate(50, time.Minute),
		Speed:      NewSpeedLimiter(),
	}
}

// SpeedLimiter is the optional additive-delay throttle: after 10 requests
// in the current one-minute window from one address, every further
// request in that window is delayed by an extra 100ms per request over the
// threshold, capped at 5s. Unlike Gate, it never rejects — it only adds
// latency.
type SpeedLimiter struct {
	mu      sync.Mutex
	windows map[string]*speedWindow
}

type speedWindow struct {
	start time.Time
	count int
}

const (
	speedThreshold  = 10
	speedStep       = 100 * time.Millisecond
	speedCap        = 5 * time.Second
	speedWindowSpan = time.Minute
)

// NewSpeedLimiter returns a ready SpeedLimiter.
func NewSpeedLimiter() *SpeedLimiter {
	return &SpeedLimiter{windows: make(map[string]*speedWindow)}
}

// Delay returns how long the caller should wait before proceeding.
func (s *SpeedLimiter) Delay(addr string) time.Duration {
	now := time.Now()

	s.mu.Lock()
	w, ok := s.windows[addr]
	if !ok || now.Sub(w.start) >= speedWindowSpan {
		w = &speedWindow{start: now, count: 0}
		s.windows[addr] = w
	}
	w.count++
	count := w.count
	s.mu.Unlock()

	if count <= speedThreshold {
		return 0
	}
	delay := time.Duration(count-speedThreshold) * speedStep
	if delay > speedCap {
		delay = speedCap
	}
	return delay
}
