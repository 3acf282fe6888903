package outbound

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pulse/internal/graph"
	"github.com/ternarybob/pulse/internal/models"
)

// ActionHandler delivers one action against the upstream API and returns the
// external id of the created object. Handlers may mutate row.Payload to stash
// intermediate results; the worker persists the row on every disposition, so
// a later retry sees what the failed attempt had already completed.
type ActionHandler func(ctx context.Context, row *models.QueueRow) (string, error)

// Worker is the delivery loop for the outbound queue. It polls for due rows
// (pending, or failed with an elapsed next_retry_at) and dispatches each to
// the handler registered for its action type.
type Worker struct {
	service   *Service
	handlerMu sync.RWMutex // Handlers may be registered after Start
	handlers  map[models.ActionType]ActionHandler
	logger    arbor.ILogger
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewWorker creates a delivery worker bound to the queue service
func NewWorker(service *Service, logger arbor.ILogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		service:  service,
		handlers: make(map[models.ActionType]ActionHandler),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// RegisterHandler registers the handler for an action type. Safe to call
// while the delivery loop is running; rows are dispatched against whatever
// handlers are registered when their batch is claimed.
func (w *Worker) RegisterHandler(actionType models.ActionType, handler ActionHandler) {
	w.handlerMu.Lock()
	w.handlers[actionType] = handler
	w.handlerMu.Unlock()

	w.logger.Debug().
		Str("action_type", string(actionType)).
		Msg("Action handler registered")
}

// HandlerCount returns how many action handlers are registered
func (w *Worker) HandlerCount() int {
	w.handlerMu.RLock()
	defer w.handlerMu.RUnlock()
	return len(w.handlers)
}

// Start starts the delivery loop
func (w *Worker) Start() error {
	w.logger.Info().
		Dur("poll_interval", w.service.config.PollInterval.Std()).
		Int("batch_size", w.service.config.BatchSize).
		Msg("Starting outbound delivery worker")

	go w.run()
	return nil
}

// Stop stops the delivery loop and waits for the in-flight batch to finish
func (w *Worker) Stop() error {
	w.logger.Info().Msg("Stopping outbound delivery worker")
	w.cancel()
	<-w.done
	return nil
}

func (w *Worker) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.service.config.PollInterval.Std())
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Debug().Msg("Outbound delivery worker stopped")
			return

		case <-ticker.C:
			if err := w.ProcessDue(w.ctx); err != nil {
				w.logger.Warn().
					Err(err).
					Msg("Error processing due queue rows")
			}
		}
	}
}

// ProcessDue claims one batch of due rows and delivers each in turn. Exposed
// so a caller can drain the queue without waiting for the poll ticker.
func (w *Worker) ProcessDue(ctx context.Context) error {
	rows, err := w.service.storage.GetDueRows(ctx, time.Now(), w.service.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to claim due rows: %w", err)
	}

	for _, row := range rows {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		w.deliver(ctx, row)
	}

	return nil
}

// deliver executes one row's handler and persists the resulting disposition.
func (w *Worker) deliver(ctx context.Context, row *models.QueueRow) {
	w.handlerMu.RLock()
	handler, exists := w.handlers[row.ActionType]
	w.handlerMu.RUnlock()
	if !exists {
		w.logger.Error().
			Str("queue_id", row.ID).
			Str("action_type", string(row.ActionType)).
			Msg("No handler registered for action type")
		w.moveToDLQ(ctx, row, fmt.Sprintf("no handler for action type %s", row.ActionType), graph.CategoryOther)
		return
	}

	startTime := time.Now()
	externalID, handlerErr := handler(ctx, row)
	duration := time.Since(startTime)

	if handlerErr == nil {
		row.Status = models.QueueStatusSent
		row.InstagramID = externalID
		row.Error = ""
		row.ErrorCategory = ""
		row.NextRetryAt = nil
		row.UpdatedAt = time.Now()

		if err := w.service.storage.UpdateRow(ctx, row); err != nil {
			w.logger.Warn().
				Err(err).
				Str("queue_id", row.ID).
				Msg("Failed to persist sent row")
			return
		}

		w.logger.Info().
			Str("queue_id", row.ID).
			Str("action_type", string(row.ActionType)).
			Str("instagram_id", externalID).
			Dur("duration", duration).
			Msg("Action delivered")
		return
	}

	classification := graph.Classify(handlerErr)

	w.logger.Error().
		Err(handlerErr).
		Str("queue_id", row.ID).
		Str("action_type", string(row.ActionType)).
		Str("category", classification.Category.String()).
		Int("retry_count", row.RetryCount).
		Dur("duration", duration).
		Msg("Action delivery failed")

	// A dead credential never recovers by retrying
	if classification.Category == graph.CategoryAuthFailure {
		w.moveToDLQ(ctx, row, handlerErr.Error(), classification.Category)
		return
	}

	if row.RetryCount+1 >= w.service.config.MaxRetries {
		w.moveToDLQ(ctx, row, handlerErr.Error(), classification.Category)
		return
	}

	delay := w.service.backoffDelay(row.RetryCount)
	nextRetry := time.Now().Add(delay)

	row.Status = models.QueueStatusFailed
	row.RetryCount++
	row.Error = handlerErr.Error()
	row.ErrorCategory = classification.Category.String()
	row.NextRetryAt = &nextRetry
	row.UpdatedAt = time.Now()

	if err := w.service.storage.UpdateRow(ctx, row); err != nil {
		w.logger.Warn().
			Err(err).
			Str("queue_id", row.ID).
			Msg("Failed to persist failed row")
		return
	}

	w.logger.Info().
		Str("queue_id", row.ID).
		Int("retry_count", row.RetryCount).
		Dur("retry_in", delay).
		Msg("Action scheduled for retry")
}

func (w *Worker) moveToDLQ(ctx context.Context, row *models.QueueRow, errMsg string, category graph.Category) {
	row.Status = models.QueueStatusDLQ
	row.Error = errMsg
	row.ErrorCategory = category.String()
	row.NextRetryAt = nil
	row.UpdatedAt = time.Now()

	if err := w.service.storage.UpdateRow(ctx, row); err != nil {
		w.logger.Warn().
			Err(err).
			Str("queue_id", row.ID).
			Msg("Failed to persist dead-lettered row")
		return
	}

	w.logger.Warn().
		Str("queue_id", row.ID).
		Str("action_type", string(row.ActionType)).
		Str("category", category.String()).
		Msg("Action moved to dead-letter queue")
}
