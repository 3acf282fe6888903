package models

import "time"

// AgentStatus is the liveness state of an external agent process.
type AgentStatus string

const (
	AgentStatusAlive AgentStatus = "alive"
	AgentStatusDown  AgentStatus = "down"
)

// AgentHeartbeat is one row per agent instance. The agent updates LastBeatAt
// on its own interval; the failover monitor transitions stale rows to "down".
type AgentHeartbeat struct {
	AgentID    string      `json:"agent_id"`
	LastBeatAt time.Time   `json:"last_beat_at"`
	Status     AgentStatus `json:"status" badgerhold:"index"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// MissedIntervals reports how many beat intervals elapsed between the last
// beat and now.
func (h *AgentHeartbeat) MissedIntervals(now time.Time, interval time.Duration) int {
	if interval <= 0 {
		return 0
	}
	elapsed := now.Sub(h.LastBeatAt)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / interval)
}
