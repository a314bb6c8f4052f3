package ratelimit

import (
    "sync"

    "golang.org/x/time/rate"
)

// Limiter hands out one token bucket per key.
type Limiter struct {
    mu    sync.Mutex
    m     map[string]*rate.Limiter
    limit rate.Limit
    burst int
}

func New(perSecond float64, burst int) *Limiter {
    if burst < 1 {
        burst = 1
    }
    return &Limiter{m: make(map[string]*rate.Limiter), limit: rate.Limit(perSecond), burst: burst}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
    l.mu.Lock()
    b, ok := l.m[key]
    if !ok {
        b = rate.NewLimiter(l.limit, l.burst)
        l.m[key] = b
    }
    l.mu.Unlock()
    return b.Allow()
}
