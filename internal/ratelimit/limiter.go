package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter hands out one token bucket per client address. Blast requests
// drive a real browser for minutes at a time, so the budget is hourly
// with a small burst.
type Limiter struct {
	buckets map[string]*rate.Limiter
	mu      sync.Mutex
	rate    rate.Limit
	burst   int
}

// NewLimiter creates a limiter allowing requestsPerHour sustained
// requests per client with the given burst.
func NewLimiter(requestsPerHour, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		rate:    rate.Limit(float64(requestsPerHour) / 3600.0),
		burst:   burst,
	}
}

func (l *Limiter) bucket(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[client]
	if !ok {
		b = rate.NewLimiter(l.rate, l.burst)
		l.buckets[client] = b
	}
	return b
}

// Allow reports whether a request from client may proceed now.
func (l *Limiter) Allow(client string) bool {
	return l.bucket(client).Allow()
}

// Tokens returns the tokens currently available to client.
func (l *Limiter) Tokens(client string) float64 {
	return l.bucket(client).Tokens()
}
