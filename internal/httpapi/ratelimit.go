package httpapi

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const otpLimiterSweepSize = 1024

type otpEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// otpLimiter allows one OTP mail per address per interval.
type otpLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	entries  map[string]*otpEntry
	now      func() time.Time
}

func newOTPLimiter(interval time.Duration) *otpLimiter {
	if interval <= 0 {
		interval = time.Minute
	}
	return &otpLimiter{
		interval: interval,
		entries:  make(map[string]*otpEntry),
		now:      time.Now,
	}
}

func (l *otpLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.entries) >= otpLimiterSweepSize {
		for k, e := range l.entries {
			if now.Sub(e.lastSeen) > l.interval {
				delete(l.entries, k)
			}
		}
	}

	e, ok := l.entries[key]
	if !ok {
		e = &otpEntry{limiter: rate.NewLimiter(rate.Every(l.interval), 1)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}
