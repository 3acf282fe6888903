// -----------------------------------------------------------------------
// Outbound action queue row - durable, idempotent external side-effects
// -----------------------------------------------------------------------

package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// QueueStatus is the delivery state of an outbound action.
type QueueStatus string

const (
	QueueStatusPending QueueStatus = "pending"
	QueueStatusSent    QueueStatus = "sent"
	QueueStatusFailed  QueueStatus = "failed"
	QueueStatusDLQ     QueueStatus = "dlq"
)

// ActionType identifies the kind of external side-effect a queue row carries.
type ActionType string

const (
	ActionPublishPost ActionType = "publish_post"
	ActionRepostUGC   ActionType = "repost_ugc"
	ActionReply       ActionType = "reply"
)

// QueueRow represents one pending external side-effect. Terminal states are
// "sent" and "dlq". Payload accumulates intermediate results (for example a
// created-but-unpublished container id) so a retry after a crash resumes
// mid-action instead of starting over.
type QueueRow struct {
	ID             string                 `json:"id" badgerhold:"index"`
	AccountID      string                 `json:"business_account_id" badgerhold:"index"`
	ActionType     ActionType             `json:"action_type"`
	Payload        map[string]interface{} `json:"payload"`
	IdempotencyKey string                 `json:"idempotency_key"` // Unique across all rows
	Status         QueueStatus            `json:"status" badgerhold:"index"`
	RetryCount     int                    `json:"retry_count"`
	Error          string                 `json:"error,omitempty"`
	ErrorCategory  string                 `json:"error_category,omitempty"`
	NextRetryAt    *time.Time             `json:"next_retry_at,omitempty"`
	InstagramID    string                 `json:"instagram_id,omitempty"` // Result id once delivered
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// IsTerminal returns true once the row can no longer change state.
func (r *QueueRow) IsTerminal() bool {
	return r.Status == QueueStatusSent || r.Status == QueueStatusDLQ
}

// IdempotencyKeyFor derives the deterministic key for a logical action from a
// stable description of its immutable inputs, e.g. "repost_ugc:" + permission
// id. Two calls with the same description always collide, which is what makes
// the enqueue idempotent.
func IdempotencyKeyFor(actionType ActionType, descriptor string) string {
	sum := sha256.Sum256([]byte(string(actionType) + ":" + descriptor))
	return hex.EncodeToString(sum[:])
}
