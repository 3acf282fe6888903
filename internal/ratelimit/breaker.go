// Package ratelimit holds the process-local circuit breaker that keeps sync
// cycles from burning upstream quota on accounts the graph API has already
// throttled. State is in-memory only and lost on restart; the worst case
// after a restart is one wasted call per blocked account, which the upstream
// answers with a fresh throttle.
package ratelimit

import (
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

// DefaultBlockWindow is applied when MarkBlocked receives no retry-after.
const DefaultBlockWindow = time.Hour

// Breaker records, per account, a "blocked until" timestamp. The sync cycles
// run on separate cron goroutines, so access is mutex-guarded.
type Breaker struct {
	mu      sync.Mutex
	blocked map[string]time.Time
	now     func() time.Time
	logger  arbor.ILogger
}

// NewBreaker creates an empty circuit breaker.
func NewBreaker(logger arbor.ILogger) *Breaker {
	return &Breaker{
		blocked: make(map[string]time.Time),
		now:     time.Now,
		logger:  logger,
	}
}

// NewBreakerWithClock creates a breaker with an injectable clock for tests.
func NewBreakerWithClock(logger arbor.ILogger, now func() time.Time) *Breaker {
	b := NewBreaker(logger)
	b.now = now
	return b
}

// IsBlocked returns true if the account is inside its block window. Expired
// entries are removed on read.
func (b *Breaker) IsBlocked(accountID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	unblockedAt, ok := b.blocked[accountID]
	if !ok {
		return false
	}

	if !b.now().Before(unblockedAt) {
		delete(b.blocked, accountID)
		return false
	}

	return true
}

// MarkBlocked records now+retryAfter as the account's unblock time,
// overwriting any prior entry. A zero or negative retryAfter falls back to
// DefaultBlockWindow.
func (b *Breaker) MarkBlocked(accountID string, retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = DefaultBlockWindow
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	unblockedAt := b.now().Add(retryAfter)
	b.blocked[accountID] = unblockedAt

	b.logger.Warn().
		Str("account_id", accountID).
		Str("unblocked_at", unblockedAt.Format(time.RFC3339)).
		Dur("retry_after", retryAfter).
		Msg("Account circuit-broken after upstream rate limit")
}

// BlockedCount returns the number of accounts currently tracked, expired or
// not. Used for status reporting.
func (b *Breaker) BlockedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.blocked)
}
