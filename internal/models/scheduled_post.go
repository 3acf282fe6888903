package models

import "time"

// PostStatus is the lifecycle state of a scheduled post.
type PostStatus string

const (
	PostStatusDraft      PostStatus = "draft"
	PostStatusApproved   PostStatus = "approved"
	PostStatusPublishing PostStatus = "publishing"
	PostStatusPublished  PostStatus = "published"
	PostStatusFailed     PostStatus = "failed"
)

// ScheduledPost is a post awaiting publication. The failover monitor moves
// stale "approved" posts to "publishing" when it enqueues them; the status
// flip is the de-duplication guard against a second enqueue.
type ScheduledPost struct {
	ID        string     `json:"id"`
	AccountID string     `json:"business_account_id"`
	AssetID   string     `json:"asset_id"`
	Status    PostStatus `json:"status" badgerhold:"index"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PostAsset is the media payload behind a scheduled post.
type PostAsset struct {
	ID        string    `json:"id"`
	MediaURL  string    `json:"media_url"`
	MediaType string    `json:"media_type"` // "image" or "video"
	Caption   string    `json:"caption"`
	CreatedAt time.Time `json:"created_at"`
}
