package interfaces

import "context"

// GraphClient is the collaborator that talks to the upstream social graph
// API. Each call fetches one data domain for one account and stores the
// results itself; the orchestration core only consumes the stored-item count
// and the error. HTTP and field mapping live behind this contract.
type GraphClient interface {
	// Engagement
	FetchComments(ctx context.Context, accountID, mediaID string) (int, error)
	FetchConversations(ctx context.Context, accountID string) (int, error)
	FetchMessages(ctx context.Context, accountID, threadID string) (int, error)

	// UGC discovery
	FetchTaggedMedia(ctx context.Context, accountID string) (int, error)
	SearchHashtag(ctx context.Context, accountID, hashtag string) (int, error)

	// Insights
	FetchMediaInsights(ctx context.Context, accountID, mediaID string) (int, error)
}

// AccountCredentials is the resolved credential bundle for one account.
type AccountCredentials struct {
	PageToken string
	IGUserID  string
	UserID    string
}

// CredentialStore resolves account credentials and invalidates cached
// entries. Encryption and OAuth flows live behind this contract.
type CredentialStore interface {
	ResolveAccountCredentials(ctx context.Context, accountID string) (*AccountCredentials, error)
	InvalidateAccountCredentials(accountID string)
}

// AuditEvent is a fire-and-forget operational event for the external
// audit/log sink (alerts, failover notices).
type AuditEvent struct {
	Type      string
	AccountID string
	AgentID   string
	Message   string
	Details   map[string]interface{}
}

// AuditSink receives operational events. Implementations must never block
// the caller.
type AuditSink interface {
	LogAudit(event AuditEvent)
}
