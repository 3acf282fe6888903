package models

import "time"

// ConnectionStatus describes whether a business account's upstream credential
// is usable.
type ConnectionStatus string

const (
	ConnectionStatusActive       ConnectionStatus = "active"
	ConnectionStatusDisconnected ConnectionStatus = "disconnected"
)

// BusinessAccount is an external business identity this system proactively
// syncs data for and may publish actions on behalf of. Created at onboarding,
// soft-disabled on auth failure, never hard-deleted.
type BusinessAccount struct {
	ID               string           `json:"id"`
	IGUserID         string           `json:"ig_user_id"` // Upstream graph API account id
	UserID           string           `json:"user_id"`    // Owning platform user
	Username         string           `json:"username"`
	IsConnected      bool             `json:"is_connected" badgerhold:"index"`
	ConnectionStatus ConnectionStatus `json:"connection_status"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// MonitoredHashtag is a hashtag an account watches for UGC discovery.
type MonitoredHashtag struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id" badgerhold:"index"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// MediaRef is a lightweight reference to a piece of media owned by an
// account, used to bound engagement and insights work to recent posts.
type MediaRef struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id" badgerhold:"index"`
	IGMediaID string    `json:"ig_media_id"`
	Timestamp time.Time `json:"timestamp"` // Upstream publish time
}

// MessageThread is a direct-message conversation discovered during
// engagement sync. Open threads bound the per-cycle message fetch work.
type MessageThread struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id" badgerhold:"index"`
	IGThreadID string    `json:"ig_thread_id"`
	Open       bool      `json:"open"`
	UpdatedAt  time.Time `json:"updated_at"`
}
