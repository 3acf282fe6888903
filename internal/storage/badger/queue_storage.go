// -----------------------------------------------------------------------
// Outbound action queue persistence. Rows are keyed by idempotency key so a
// duplicate logical action can never create a second row.
// -----------------------------------------------------------------------

package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pulse/internal/interfaces"
	"github.com/ternarybob/pulse/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// QueueStorage implements the QueueStorage interface for Badger
type QueueStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewQueueStorage creates a new QueueStorage instance
func NewQueueStorage(db *BadgerDB, logger arbor.ILogger) interfaces.QueueStorage {
	return &QueueStorage{
		db:     db,
		logger: logger,
	}
}

// InsertRow inserts the row keyed by its idempotency key. A key collision is
// not an error: the existing row wins and inserted=false is returned.
func (s *QueueStorage) InsertRow(ctx context.Context, row *models.QueueRow) (bool, error) {
	if row.IdempotencyKey == "" {
		return false, fmt.Errorf("idempotency key is required")
	}
	if row.ID == "" {
		return false, fmt.Errorf("queue row ID is required")
	}

	now := time.Now()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now

	if err := s.db.Store().Insert(row.IdempotencyKey, row); err != nil {
		if err == badgerhold.ErrKeyExists {
			s.logger.Debug().
				Str("idempotency_key", row.IdempotencyKey).
				Str("action_type", string(row.ActionType)).
				Msg("Duplicate enqueue suppressed")
			return false, nil
		}
		return false, fmt.Errorf("failed to insert queue row: %w", err)
	}

	return true, nil
}

func (s *QueueStorage) GetRow(ctx context.Context, id string) (*models.QueueRow, error) {
	var rows []models.QueueRow
	if err := s.db.Store().Find(&rows, badgerhold.Where("ID").Eq(id)); err != nil {
		return nil, fmt.Errorf("failed to get queue row: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("queue row not found: %s", id)
	}
	return &rows[0], nil
}

func (s *QueueStorage) GetRowByKey(ctx context.Context, idempotencyKey string) (*models.QueueRow, error) {
	var row models.QueueRow
	if err := s.db.Store().Get(idempotencyKey, &row); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("queue row not found for key: %s", idempotencyKey)
		}
		return nil, fmt.Errorf("failed to get queue row: %w", err)
	}
	return &row, nil
}

func (s *QueueStorage) UpdateRow(ctx context.Context, row *models.QueueRow) error {
	if row.IdempotencyKey == "" {
		return fmt.Errorf("idempotency key is required")
	}
	row.UpdatedAt = time.Now()
	if err := s.db.Store().Upsert(row.IdempotencyKey, row); err != nil {
		return fmt.Errorf("failed to update queue row: %w", err)
	}
	return nil
}

// GetDueRows returns pending rows plus failed rows whose next_retry_at has
// elapsed, oldest first.
func (s *QueueStorage) GetDueRows(ctx context.Context, now time.Time, limit int) ([]*models.QueueRow, error) {
	var pending []models.QueueRow
	if err := s.db.Store().Find(&pending, badgerhold.Where("Status").Eq(models.QueueStatusPending)); err != nil {
		return nil, fmt.Errorf("failed to list pending rows: %w", err)
	}

	var failed []models.QueueRow
	if err := s.db.Store().Find(&failed, badgerhold.Where("Status").Eq(models.QueueStatusFailed)); err != nil {
		return nil, fmt.Errorf("failed to list failed rows: %w", err)
	}

	due := make([]*models.QueueRow, 0, len(pending)+len(failed))
	for i := range pending {
		due = append(due, &pending[i])
	}
	for i := range failed {
		if failed[i].NextRetryAt != nil && !failed[i].NextRetryAt.After(now) {
			due = append(due, &failed[i])
		}
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].CreatedAt.Before(due[j].CreatedAt)
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *QueueStorage) CountRowsByStatus(ctx context.Context, status models.QueueStatus) (int, error) {
	count, err := s.db.Store().Count(&models.QueueRow{}, badgerhold.Where("Status").Eq(status))
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
