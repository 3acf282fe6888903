package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
)

func TestBreakerBlocksForWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	b := NewBreakerWithClock(arbor.NewLogger(), clock)

	b.MarkBlocked("acct-a", 60*time.Second)

	assert.True(t, b.IsBlocked("acct-a"))

	// Just before expiry
	now = now.Add(59 * time.Second)
	assert.True(t, b.IsBlocked("acct-a"))

	// At expiry the entry clears
	now = now.Add(1 * time.Second)
	assert.False(t, b.IsBlocked("acct-a"))
	assert.Equal(t, 0, b.BlockedCount())
}

func TestBreakerNoFalsePositives(t *testing.T) {
	b := NewBreaker(arbor.NewLogger())

	b.MarkBlocked("acct-a", time.Minute)

	assert.True(t, b.IsBlocked("acct-a"))
	assert.False(t, b.IsBlocked("acct-b"))
}

func TestBreakerOverwritesPriorWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	b := NewBreakerWithClock(arbor.NewLogger(), clock)

	b.MarkBlocked("acct-a", time.Hour)
	b.MarkBlocked("acct-a", 30*time.Second)

	now = now.Add(31 * time.Second)
	assert.False(t, b.IsBlocked("acct-a"))
}

func TestBreakerDefaultWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	b := NewBreakerWithClock(arbor.NewLogger(), clock)

	b.MarkBlocked("acct-a", 0)

	now = now.Add(DefaultBlockWindow - time.Second)
	assert.True(t, b.IsBlocked("acct-a"))

	now = now.Add(2 * time.Second)
	assert.False(t, b.IsBlocked("acct-a"))
}

func TestBreakerUnknownAccount(t *testing.T) {
	b := NewBreaker(arbor.NewLogger())
	assert.False(t, b.IsBlocked("never-seen"))
}
