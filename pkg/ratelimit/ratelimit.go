// Package ratelimit throttles generation requests per user.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/ripixel/fitplan-server/pkg/errors"
)

// Defaults for generation throttling.
const (
	DefaultInterval = 30 * time.Second
	DefaultBurst    = 2

	pruneThreshold = 1024
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter is a token bucket per user. The clock is injected so tests can
// step time explicitly.
type Limiter struct {
	mu      sync.Mutex
	users   map[string]*entry
	every   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

// New creates a limiter allowing burst requests, refilled one per interval.
// A nil clock uses time.Now.
func New(interval time.Duration, burst int, now func() time.Time) *Limiter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		users:   make(map[string]*entry),
		every:   rate.Every(interval),
		burst:   burst,
		idleTTL: interval * time.Duration(burst) * 2,
		now:     now,
	}
}

// Allow consumes a token for userID if one is available.
func (l *Limiter) Allow(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.users) > pruneThreshold {
		l.prune(now)
	}
	e, ok := l.users[userID]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.every, l.burst)}
		l.users[userID] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Check returns ErrRateLimited when userID has no token available.
func (l *Limiter) Check(userID string) error {
	if l.Allow(userID) {
		return nil
	}
	return apperrors.ErrRateLimited.WithMetadata("user_id", userID)
}

// prune drops users idle long enough that their bucket is full again.
func (l *Limiter) prune(now time.Time) {
	for id, e := range l.users {
		if now.Sub(e.lastSeen) > l.idleTTL {
			delete(l.users, id)
		}
	}
}
