// Package sync implements the proactive sync cycles that keep connected
// accounts' engagement data, UGC discoveries and media insights fresh. Each
// cycle walks the connected accounts sequentially, paces its upstream calls,
// and routes every failure through the shared classifier exactly once.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pulse/internal/common"
	"github.com/ternarybob/pulse/internal/graph"
	"github.com/ternarybob/pulse/internal/interfaces"
	"github.com/ternarybob/pulse/internal/models"
	"github.com/ternarybob/pulse/internal/ratelimit"
	"golang.org/x/time/rate"
)

// accountOutcome is the terminal state of one account within one cycle run.
type accountOutcome int

const (
	outcomeCompleted accountOutcome = iota
	outcomeBrokeOnRateLimit
	outcomeDisabledOnAuthFailure
)

func (o accountOutcome) String() string {
	switch o {
	case outcomeBrokeOnRateLimit:
		return "broke_on_rate_limit"
	case outcomeDisabledOnAuthFailure:
		return "disabled_on_auth_failure"
	default:
		return "completed"
	}
}

// stepVerdict tells the cycle loop what to do after one upstream sub-step.
type stepVerdict int

const (
	stepContinue stepVerdict = iota
	stepBreakAccount
	stepDisableAccount
)

// Service runs the three sync cycles. One instance is shared by all cron
// jobs; per-cycle overlap guards live in the scheduler, not here.
type Service struct {
	storage     interfaces.StorageManager
	client      interfaces.GraphClient
	credentials interfaces.CredentialStore
	audit       interfaces.AuditSink
	breaker     *ratelimit.Breaker
	config      *common.SyncConfig
	limiter     *rate.Limiter
	logger      arbor.ILogger
}

// NewService creates the sync service
func NewService(
	storage interfaces.StorageManager,
	client interfaces.GraphClient,
	credentials interfaces.CredentialStore,
	audit interfaces.AuditSink,
	breaker *ratelimit.Breaker,
	config *common.SyncConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		storage:     storage,
		client:      client,
		credentials: credentials,
		audit:       audit,
		breaker:     breaker,
		config:      config,
		// rate.Every(0) is an infinite rate, so a zero item delay disables pacing
		limiter: rate.NewLimiter(rate.Every(config.ItemDelay.Std()), 1),
		logger:  logger,
	}
}

// runCycle walks the connected accounts for one cycle. A failure on one
// account never stops the cycle; later accounts are always attempted.
func (s *Service) runCycle(ctx context.Context, syncType models.SyncType, syncAccount func(ctx context.Context, account *models.BusinessAccount) accountOutcome) error {
	accounts, err := s.storage.AccountStorage().GetConnectedAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list connected accounts: %w", err)
	}

	s.logger.Info().
		Str("sync_type", string(syncType)).
		Int("accounts", len(accounts)).
		Msg("Sync cycle started")

	startTime := time.Now()

	for i, account := range accounts {
		if i > 0 {
			s.sleepCtx(ctx, s.config.AccountDelay.Std())
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if s.breaker.IsBlocked(account.ID) {
			s.recordStep(ctx, syncType, account.ID, "account_skipped", 0, nil)
			s.logger.Info().
				Str("sync_type", string(syncType)).
				Str("account_id", account.ID).
				Msg("Account skipped, rate-limit block still active")
			continue
		}

		outcome := syncAccount(ctx, account)

		s.logger.Info().
			Str("sync_type", string(syncType)).
			Str("account_id", account.ID).
			Str("outcome", outcome.String()).
			Msg("Account sync finished")
	}

	s.logger.Info().
		Str("sync_type", string(syncType)).
		Dur("duration", time.Since(startTime)).
		Msg("Sync cycle finished")

	return nil
}

// step records one sub-step's audit trail and classifies its failure. Every
// upstream call in every cycle passes through here exactly once.
func (s *Service) step(ctx context.Context, syncType models.SyncType, accountID, stepName string, itemCount int, err error) stepVerdict {
	s.recordStep(ctx, syncType, accountID, stepName, itemCount, err)

	if err == nil {
		return stepContinue
	}

	classification := graph.Classify(err)

	switch classification.Category {
	case graph.CategoryRateLimit:
		s.breaker.MarkBlocked(accountID, classification.RetryAfter)
		return stepBreakAccount

	case graph.CategoryAuthFailure:
		s.disableAccount(ctx, accountID, stepName, err)
		return stepDisableAccount

	default:
		s.logger.Warn().
			Err(err).
			Str("sync_type", string(syncType)).
			Str("account_id", accountID).
			Str("step", stepName).
			Msg("Sync step failed, continuing")
		return stepContinue
	}
}

func (s *Service) recordStep(ctx context.Context, syncType models.SyncType, accountID, stepName string, itemCount int, stepErr error) {
	record := &models.SyncAuditRecord{
		SyncType:  syncType,
		AccountID: accountID,
		Step:      stepName,
		Success:   stepErr == nil,
		ItemCount: itemCount,
		CreatedAt: time.Now(),
	}
	if stepErr != nil {
		record.Error = stepErr.Error()
	}

	if err := s.storage.AuditStorage().StoreRecord(ctx, record); err != nil {
		s.logger.Warn().
			Err(err).
			Str("account_id", accountID).
			Str("step", stepName).
			Msg("Failed to store sync audit record")
	}
}

// disableAccount handles a dead credential: flip the account to disconnected,
// drop the cached credential, and raise an operator alert. Later accounts in
// the same cycle are unaffected.
func (s *Service) disableAccount(ctx context.Context, accountID, stepName string, cause error) {
	if err := s.storage.AccountStorage().DisableAccount(ctx, accountID); err != nil {
		s.logger.Error().
			Err(err).
			Str("account_id", accountID).
			Msg("Failed to disable account after auth failure")
	}

	s.credentials.InvalidateAccountCredentials(accountID)

	s.audit.LogAudit(interfaces.AuditEvent{
		Type:      "account_disabled",
		AccountID: accountID,
		Message:   "account disabled after upstream auth failure",
		Details: map[string]interface{}{
			"step":  stepName,
			"error": cause.Error(),
		},
	})

	s.logger.Warn().
		Str("account_id", accountID).
		Str("step", stepName).
		Msg("Account disabled after auth failure")
}

// wait paces one upstream call. Returns false when the context was cancelled.
func (s *Service) wait(ctx context.Context) bool {
	if err := s.limiter.Wait(ctx); err != nil {
		return false
	}
	return true
}

func (s *Service) sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
