package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pulse/internal/interfaces"
	"github.com/ternarybob/pulse/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// HeartbeatStorage implements the HeartbeatStorage interface for Badger
type HeartbeatStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewHeartbeatStorage creates a new HeartbeatStorage instance
func NewHeartbeatStorage(db *BadgerDB, logger arbor.ILogger) interfaces.HeartbeatStorage {
	return &HeartbeatStorage{
		db:     db,
		logger: logger,
	}
}

func (s *HeartbeatStorage) UpsertHeartbeat(ctx context.Context, beat *models.AgentHeartbeat) error {
	if beat.AgentID == "" {
		return fmt.Errorf("agent ID is required")
	}
	beat.UpdatedAt = time.Now()
	if err := s.db.Store().Upsert(beat.AgentID, beat); err != nil {
		return fmt.Errorf("failed to save heartbeat: %w", err)
	}
	return nil
}

func (s *HeartbeatStorage) GetHeartbeat(ctx context.Context, agentID string) (*models.AgentHeartbeat, error) {
	var beat models.AgentHeartbeat
	if err := s.db.Store().Get(agentID, &beat); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("heartbeat not found: %s", agentID)
		}
		return nil, fmt.Errorf("failed to get heartbeat: %w", err)
	}
	return &beat, nil
}

// MarkStaleDown transitions alive rows with last_beat_at older than threshold
// to down and returns the affected rows. The match and the status write share
// one badger transaction, so a beat upserted mid-scan is never overwritten.
func (s *HeartbeatStorage) MarkStaleDown(ctx context.Context, threshold time.Time) ([]*models.AgentHeartbeat, error) {
	var affected []*models.AgentHeartbeat
	query := badgerhold.Where("Status").Eq(models.AgentStatusAlive).And("LastBeatAt").Lt(threshold)

	err := s.db.Store().UpdateMatching(&models.AgentHeartbeat{}, query, func(record interface{}) error {
		beat, ok := record.(*models.AgentHeartbeat)
		if !ok {
			return fmt.Errorf("unexpected record type %T", record)
		}
		beat.Status = models.AgentStatusDown
		beat.UpdatedAt = time.Now()

		copied := *beat
		affected = append(affected, &copied)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark stale heartbeats down: %w", err)
	}

	return affected, nil
}
