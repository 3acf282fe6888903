// -----------------------------------------------------------------------
// Upstream graph API error surface and classification
// -----------------------------------------------------------------------

package graph

import "fmt"

// Error is the structured error shape the upstream graph API returns. The
// client collaborator decodes HTTP failures into this type so the rest of the
// system never inspects raw responses.
type Error struct {
	Code       int    `json:"code"`
	Subcode    int    `json:"error_subcode,omitempty"`
	Type       string `json:"type,omitempty"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after_seconds,omitempty"` // Seconds, 0 when the upstream gave no hint
}

func (e *Error) Error() string {
	if e.Subcode != 0 {
		return fmt.Sprintf("graph api error %d/%d: %s", e.Code, e.Subcode, e.Message)
	}
	return fmt.Sprintf("graph api error %d: %s", e.Code, e.Message)
}
