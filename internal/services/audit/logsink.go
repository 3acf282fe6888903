// Package audit provides the default audit sink: operational events are
// written to the structured log. Deployments with an external alerting
// pipeline swap in their own sink at wiring time.
package audit

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pulse/internal/interfaces"
)

type logSink struct {
	logger arbor.ILogger
}

// NewLogSink creates an audit sink backed by the structured logger
func NewLogSink(logger arbor.ILogger) interfaces.AuditSink {
	return &logSink{logger: logger}
}

// LogAudit writes the event synchronously to the logger. Arbor writers do not
// block, which satisfies the sink contract.
func (s *logSink) LogAudit(event interfaces.AuditEvent) {
	entry := s.logger.Warn().
		Str("audit_type", event.Type).
		Str("message", event.Message)

	if event.AccountID != "" {
		entry = entry.Str("account_id", event.AccountID)
	}
	if event.AgentID != "" {
		entry = entry.Str("agent_id", event.AgentID)
	}
	for key, value := range event.Details {
		entry = entry.Str(key, fmt.Sprintf("%v", value))
	}

	entry.Msg("Audit event")
}
