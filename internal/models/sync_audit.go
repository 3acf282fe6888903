package models

import "time"

// SyncType identifies one of the proactive sync cycles.
type SyncType string

const (
	SyncTypeEngagement SyncType = "engagement"
	SyncTypeUGC        SyncType = "ugc"
	SyncTypeInsights   SyncType = "insights"
)

// SyncAuditRecord is an append-only record of one sync attempt. Written after
// every scheduler step, success or failure; never mutated or deleted.
type SyncAuditRecord struct {
	ID        string    `json:"id"`
	SyncType  SyncType  `json:"sync_type"`
	AccountID string    `json:"account_id" badgerhold:"index"`
	Step      string    `json:"step"` // e.g. "comments", "hashtag_search"
	Success   bool      `json:"success"`
	ItemCount int       `json:"item_count"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
