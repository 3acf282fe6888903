package common

import (
	"github.com/google/uuid"
)

// NewQueueID generates a unique outbound queue row ID with the "act_" prefix
// Format: act_<uuid>
func NewQueueID() string {
	return "act_" + uuid.New().String()
}

// NewAuditID generates a unique sync audit record ID with the "aud_" prefix
func NewAuditID() string {
	return "aud_" + uuid.New().String()
}
