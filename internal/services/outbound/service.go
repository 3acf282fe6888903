package outbound

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pulse/internal/common"
	"github.com/ternarybob/pulse/internal/interfaces"
	"github.com/ternarybob/pulse/internal/models"
)

// Service owns the durable outbound action queue. Enqueue is idempotent:
// the same logical action enqueued twice produces exactly one row.
type Service struct {
	storage interfaces.QueueStorage
	config  *common.OutboundConfig
	logger  arbor.ILogger
}

// NewService creates the outbound queue service
func NewService(storage interfaces.QueueStorage, config *common.OutboundConfig, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		config:  config,
		logger:  logger,
	}
}

// Enqueue inserts a pending action row. The descriptor identifies the logical
// action (a UGC permission id, a scheduled post id); together with the action
// type it derives the idempotency key. When a row with that key already
// exists the call returns the existing row's id and does not insert.
func (s *Service) Enqueue(ctx context.Context, accountID string, actionType models.ActionType, descriptor string, payload map[string]interface{}) (string, error) {
	key := models.IdempotencyKeyFor(actionType, descriptor)
	now := time.Now()

	row := &models.QueueRow{
		ID:             common.NewQueueID(),
		AccountID:      accountID,
		ActionType:     actionType,
		Payload:        payload,
		IdempotencyKey: key,
		Status:         models.QueueStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	inserted, err := s.storage.InsertRow(ctx, row)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue action: %w", err)
	}

	if !inserted {
		existing, err := s.storage.GetRowByKey(ctx, key)
		if err != nil {
			return "", fmt.Errorf("failed to load existing action row: %w", err)
		}
		s.logger.Debug().
			Str("queue_id", existing.ID).
			Str("action_type", string(actionType)).
			Str("descriptor", descriptor).
			Msg("Action already enqueued, skipping duplicate")
		return existing.ID, nil
	}

	s.logger.Info().
		Str("queue_id", row.ID).
		Str("account_id", accountID).
		Str("action_type", string(actionType)).
		Msg("Action enqueued")

	return row.ID, nil
}

// RowPatch is a partial update applied to a queue row. Nil fields are left
// untouched; PayloadMerge entries overwrite existing payload keys.
type RowPatch struct {
	Status       *models.QueueStatus
	InstagramID  *string
	PayloadMerge map[string]interface{}
}

// Update applies a patch to a queue row. Handlers use it to stash
// intermediate state (a media container id) so a retry resumes where the
// previous attempt stopped instead of repeating completed steps.
func (s *Service) Update(ctx context.Context, id string, patch RowPatch) error {
	row, err := s.storage.GetRow(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load action row %s: %w", id, err)
	}

	if patch.Status != nil {
		row.Status = *patch.Status
	}
	if patch.InstagramID != nil {
		row.InstagramID = *patch.InstagramID
	}
	if len(patch.PayloadMerge) > 0 {
		if row.Payload == nil {
			row.Payload = make(map[string]interface{})
		}
		for k, v := range patch.PayloadMerge {
			row.Payload[k] = v
		}
	}
	row.UpdatedAt = time.Now()

	return s.storage.UpdateRow(ctx, row)
}

// backoffDelay returns the retry delay for a row that has already failed
// retryCount times: base doubled per failure, capped.
func (s *Service) backoffDelay(retryCount int) time.Duration {
	delay := s.config.BackoffBase.Std()
	limit := s.config.BackoffCap.Std()
	for i := 0; i < retryCount; i++ {
		delay *= 2
		if delay >= limit {
			return limit
		}
	}
	if delay > limit {
		return limit
	}
	return delay
}
