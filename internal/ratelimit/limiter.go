// Package ratelimit bounds purchase attempts per caller in fixed windows.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cimillas/concert-ticketing/internal/clock"
)

// Limiter reports whether key may make another attempt in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

var errInvalidLimit = errors.New("rate limit and window must be positive")

type window struct {
	start time.Time
	count int64
}

// MemoryLimiter keeps one fixed window per key in process memory.
type MemoryLimiter struct {
	mu      sync.Mutex
	clock   clock.Clock
	limit   int64
	window  time.Duration
	windows map[string]window
}

func NewMemoryLimiter(limit int64, per time.Duration, clk clock.Clock) (*MemoryLimiter, error) {
	if limit <= 0 || per <= 0 {
		return nil, errInvalidLimit
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &MemoryLimiter{
		clock:   clk,
		limit:   limit,
		window:  per,
		windows: make(map[string]window),
	}, nil
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	now := l.clock.Now()
	start := now.Truncate(l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windows[key]
	if !w.start.Equal(start) {
		// Drop stale windows so idle callers do not accumulate.
		l.sweep(start)
		w = window{start: start}
	}
	if w.count >= l.limit {
		return false, nil
	}
	w.count++
	l.windows[key] = w
	return true, nil
}

func (l *MemoryLimiter) sweep(current time.Time) {
	for k, w := range l.windows {
		if w.start.Before(current) {
			delete(l.windows, k)
		}
	}
}
