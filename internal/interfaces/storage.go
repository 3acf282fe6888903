package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/pulse/internal/models"
)

// AccountStorage - interface for business account persistence
type AccountStorage interface {
	StoreAccount(ctx context.Context, account *models.BusinessAccount) error
	GetAccount(ctx context.Context, id string) (*models.BusinessAccount, error)
	GetConnectedAccounts(ctx context.Context) ([]*models.BusinessAccount, error)

	// DisableAccount soft-disables an account after an auth failure:
	// is_connected=false, connection_status="disconnected". Never deletes.
	DisableAccount(ctx context.Context, id string) error
}

// DirectoryStorage - read-only view of the data that bounds each sync
// cycle's work: monitored hashtags, recent media, open message threads.
type DirectoryStorage interface {
	StoreHashtag(ctx context.Context, hashtag *models.MonitoredHashtag) error
	GetHashtags(ctx context.Context, accountID string, limit int) ([]*models.MonitoredHashtag, error)

	StoreMedia(ctx context.Context, media *models.MediaRef) error
	GetRecentMedia(ctx context.Context, accountID string, limit int) ([]*models.MediaRef, error)

	StoreThread(ctx context.Context, thread *models.MessageThread) error
	GetOpenThreads(ctx context.Context, accountID string, limit int) ([]*models.MessageThread, error)
}

// AuditStorage - append-only sync attempt trail
type AuditStorage interface {
	StoreRecord(ctx context.Context, record *models.SyncAuditRecord) error
	GetRecords(ctx context.Context, accountID string, limit int) ([]*models.SyncAuditRecord, error)
	CountRecords(ctx context.Context) (int, error)
}

// QueueStorage - interface for the outbound action queue rows.
// InsertRow is keyed by idempotency key: a second insert with a colliding key
// must not create a second row.
type QueueStorage interface {
	InsertRow(ctx context.Context, row *models.QueueRow) (inserted bool, err error)
	GetRow(ctx context.Context, id string) (*models.QueueRow, error)
	GetRowByKey(ctx context.Context, idempotencyKey string) (*models.QueueRow, error)
	UpdateRow(ctx context.Context, row *models.QueueRow) error

	// GetDueRows returns pending rows plus failed rows whose next_retry_at
	// has elapsed, oldest first.
	GetDueRows(ctx context.Context, now time.Time, limit int) ([]*models.QueueRow, error)
	CountRowsByStatus(ctx context.Context, status models.QueueStatus) (int, error)
}

// HeartbeatStorage - agent liveness rows shared with external agents
type HeartbeatStorage interface {
	UpsertHeartbeat(ctx context.Context, beat *models.AgentHeartbeat) error
	GetHeartbeat(ctx context.Context, agentID string) (*models.AgentHeartbeat, error)

	// MarkStaleDown transitions rows with status "alive" and last_beat_at
	// older than threshold to "down", returning the affected rows.
	MarkStaleDown(ctx context.Context, threshold time.Time) ([]*models.AgentHeartbeat, error)
}

// PostStorage - scheduled posts and their assets
type PostStorage interface {
	StorePost(ctx context.Context, post *models.ScheduledPost) error
	GetPost(ctx context.Context, id string) (*models.ScheduledPost, error)
	GetStaleApprovedPosts(ctx context.Context, threshold time.Time) ([]*models.ScheduledPost, error)
	UpdatePostStatus(ctx context.Context, id string, status models.PostStatus) error

	StoreAsset(ctx context.Context, asset *models.PostAsset) error
	GetAsset(ctx context.Context, id string) (*models.PostAsset, error)
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	AccountStorage() AccountStorage
	DirectoryStorage() DirectoryStorage
	AuditStorage() AuditStorage
	QueueStorage() QueueStorage
	HeartbeatStorage() HeartbeatStorage
	PostStorage() PostStorage
	Close() error
}
