package sync

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pulse/internal/common"
	"github.com/ternarybob/pulse/internal/graph"
	"github.com/ternarybob/pulse/internal/interfaces"
	"github.com/ternarybob/pulse/internal/models"
	"github.com/ternarybob/pulse/internal/ratelimit"
	badgerstore "github.com/ternarybob/pulse/internal/storage/badger"
)

// fakeClient scripts upstream failures per step+account and records every
// call it receives.
type fakeClient struct {
	mu     sync.Mutex
	calls  map[string]int     // "comments:acct-1" -> call count
	errors map[string][]error // consumed one per call, nil entries succeed
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		calls:  make(map[string]int),
		errors: make(map[string][]error),
	}
}

func (c *fakeClient) failOn(step, accountID string, callErrors ...error) {
	c.errors[step+":"+accountID] = callErrors
}

func (c *fakeClient) call(step, accountID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := step + ":" + accountID
	n := c.calls[key]
	c.calls[key] = n + 1

	script := c.errors[key]
	if n < len(script) && script[n] != nil {
		return 0, script[n]
	}
	return 1, nil
}

func (c *fakeClient) callCount(step, accountID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[step+":"+accountID]
}

func (c *fakeClient) FetchComments(ctx context.Context, accountID, mediaID string) (int, error) {
	return c.call("comments", accountID)
}
func (c *fakeClient) FetchConversations(ctx context.Context, accountID string) (int, error) {
	return c.call("conversations", accountID)
}
func (c *fakeClient) FetchMessages(ctx context.Context, accountID, threadID string) (int, error) {
	return c.call("messages", accountID)
}
func (c *fakeClient) FetchTaggedMedia(ctx context.Context, accountID string) (int, error) {
	return c.call("tagged_media", accountID)
}
func (c *fakeClient) SearchHashtag(ctx context.Context, accountID, hashtag string) (int, error) {
	return c.call("hashtag_search", accountID)
}
func (c *fakeClient) FetchMediaInsights(ctx context.Context, accountID, mediaID string) (int, error) {
	return c.call("media_insights", accountID)
}

type fakeCredentials struct {
	mu          sync.Mutex
	invalidated []string
}

func (f *fakeCredentials) ResolveAccountCredentials(ctx context.Context, accountID string) (*interfaces.AccountCredentials, error) {
	return &interfaces.AccountCredentials{PageToken: "tok", IGUserID: "ig-" + accountID}, nil
}

func (f *fakeCredentials) InvalidateAccountCredentials(accountID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, accountID)
}

type fakeAudit struct {
	mu     sync.Mutex
	events []interfaces.AuditEvent
}

func (f *fakeAudit) LogAudit(event interfaces.AuditEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

type syncFixture struct {
	service     *Service
	storage     interfaces.StorageManager
	client      *fakeClient
	credentials *fakeCredentials
	audit       *fakeAudit
	breaker     *ratelimit.Breaker
	clock       *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	logger := arbor.NewLogger()
	storage, err := badgerstore.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	clock := &fakeClock{now: time.Now()}
	client := newFakeClient()
	credentials := &fakeCredentials{}
	audit := &fakeAudit{}
	breaker := ratelimit.NewBreakerWithClock(logger, clock.Now)

	config := &common.SyncConfig{
		ItemDelay:            0,
		AccountDelay:         0,
		MaxRecentMedia:       10,
		MaxOpenConversations: 20,
		MaxHashtags:          5,
		MaxInsightsMedia:     25,
	}

	return &syncFixture{
		service:     NewService(storage, client, credentials, audit, breaker, config, logger),
		storage:     storage,
		client:      client,
		credentials: credentials,
		audit:       audit,
		breaker:     breaker,
		clock:       clock,
	}
}

func (f *syncFixture) seedAccount(t *testing.T, id string, mediaCount int) {
	t.Helper()
	ctx := context.Background()

	account := &models.BusinessAccount{
		ID:               id,
		IGUserID:         "ig-" + id,
		UserID:           "user-" + id,
		Username:         id,
		IsConnected:      true,
		ConnectionStatus: models.ConnectionStatusActive,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	require.NoError(t, f.storage.AccountStorage().StoreAccount(ctx, account))

	for i := 0; i < mediaCount; i++ {
		media := &models.MediaRef{
			ID:        fmt.Sprintf("%s-media-%d", id, i),
			AccountID: id,
			IGMediaID: fmt.Sprintf("ig-%s-media-%d", id, i),
			Timestamp: time.Now().Add(-time.Duration(i) * time.Hour),
		}
		require.NoError(t, f.storage.DirectoryStorage().StoreMedia(ctx, media))
	}
}

func TestEngagementRateLimitHaltsAccountOnly(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.seedAccount(t, "acct-a", 3)
	f.seedAccount(t, "acct-b", 3)

	// Third comments call for account A hits an application-level throttle
	// asking for 120s of backoff
	f.client.failOn("comments", "acct-a", nil, nil, &graph.Error{Code: 4, Message: "too many calls", RetryAfter: 120})

	require.NoError(t, f.service.RunEngagement(ctx))

	// Account A: first two media processed, then the account halted
	assert.Equal(t, 3, f.client.callCount("comments", "acct-a"))
	assert.Equal(t, 0, f.client.callCount("conversations", "acct-a"))
	assert.True(t, f.breaker.IsBlocked("acct-a"))

	// Account B is unaffected
	assert.Equal(t, 3, f.client.callCount("comments", "acct-b"))
	assert.Equal(t, 1, f.client.callCount("conversations", "acct-b"))
	assert.False(t, f.breaker.IsBlocked("acct-b"))

	// Account A is still connected; rate limits never disable accounts
	account, err := f.storage.AccountStorage().GetAccount(ctx, "acct-a")
	require.NoError(t, err)
	assert.True(t, account.IsConnected)

	// The block honors the upstream retry-after
	f.clock.Advance(119 * time.Second)
	assert.True(t, f.breaker.IsBlocked("acct-a"))
	f.clock.Advance(2 * time.Second)
	assert.False(t, f.breaker.IsBlocked("acct-a"))
}

func TestEngagementAuthFailureDisablesAccountOnly(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.seedAccount(t, "acct-a", 2)
	f.seedAccount(t, "acct-b", 2)

	f.client.failOn("comments", "acct-a", &graph.Error{Code: 190, Type: "OAuthException", Message: "token expired"})

	require.NoError(t, f.service.RunEngagement(ctx))

	// Account A stopped after the first failure and got disabled
	assert.Equal(t, 1, f.client.callCount("comments", "acct-a"))
	assert.Equal(t, 0, f.client.callCount("conversations", "acct-a"))

	account, err := f.storage.AccountStorage().GetAccount(ctx, "acct-a")
	require.NoError(t, err)
	assert.False(t, account.IsConnected)
	assert.Equal(t, models.ConnectionStatusDisconnected, account.ConnectionStatus)

	assert.Contains(t, f.credentials.invalidated, "acct-a")

	require.Len(t, f.audit.events, 1)
	assert.Equal(t, "account_disabled", f.audit.events[0].Type)
	assert.Equal(t, "acct-a", f.audit.events[0].AccountID)

	// Account B completed normally
	assert.Equal(t, 2, f.client.callCount("comments", "acct-b"))
	assert.Equal(t, 1, f.client.callCount("conversations", "acct-b"))

	// The disabled account drops out of the next cycle entirely
	require.NoError(t, f.service.RunEngagement(ctx))
	assert.Equal(t, 1, f.client.callCount("comments", "acct-a"))
}

func TestBlockedAccountSkippedWithAuditNote(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.seedAccount(t, "acct-a", 2)
	f.breaker.MarkBlocked("acct-a", time.Hour)

	require.NoError(t, f.service.RunEngagement(ctx))

	assert.Equal(t, 0, f.client.callCount("comments", "acct-a"))
	assert.Equal(t, 0, f.client.callCount("conversations", "acct-a"))

	records, err := f.storage.AuditStorage().GetRecords(ctx, "acct-a", 10)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, "account_skipped", records[0].Step)
}

func TestUGCSearchesCappedHashtags(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.seedAccount(t, "acct-a", 0)
	for i := 0; i < 8; i++ {
		hashtag := &models.MonitoredHashtag{
			ID:        fmt.Sprintf("ht-%d", i),
			AccountID: "acct-a",
			Name:      fmt.Sprintf("tag%d", i),
			CreatedAt: time.Now(),
		}
		require.NoError(t, f.storage.DirectoryStorage().StoreHashtag(ctx, hashtag))
	}

	require.NoError(t, f.service.RunUGC(ctx))

	assert.Equal(t, 1, f.client.callCount("tagged_media", "acct-a"))
	// Cap is 5 even though 8 hashtags are monitored
	assert.Equal(t, 5, f.client.callCount("hashtag_search", "acct-a"))
}

func TestInsightsWritesAuditTrail(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.seedAccount(t, "acct-a", 2)

	require.NoError(t, f.service.RunInsights(ctx))

	assert.Equal(t, 2, f.client.callCount("media_insights", "acct-a"))

	records, err := f.storage.AuditStorage().GetRecords(ctx, "acct-a", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, record := range records {
		assert.Equal(t, models.SyncTypeInsights, record.SyncType)
		assert.Equal(t, "media_insights", record.Step)
		assert.True(t, record.Success)
		assert.Equal(t, 1, record.ItemCount)
	}
}
