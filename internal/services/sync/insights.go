package sync

import (
	"context"

	"github.com/ternarybob/pulse/internal/models"
)

// RunInsights refreshes per-media metrics for each account's recent posts.
func (s *Service) RunInsights(ctx context.Context) error {
	return s.runCycle(ctx, models.SyncTypeInsights, s.syncAccountInsights)
}

func (s *Service) syncAccountInsights(ctx context.Context, account *models.BusinessAccount) accountOutcome {
	media, err := s.storage.DirectoryStorage().GetRecentMedia(ctx, account.ID, s.config.MaxInsightsMedia)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("account_id", account.ID).
			Msg("Failed to load recent media, skipping insights sync")
		return outcomeCompleted
	}

	for _, m := range media {
		if !s.wait(ctx) {
			return outcomeCompleted
		}
		count, err := s.client.FetchMediaInsights(ctx, account.ID, m.IGMediaID)
		switch s.step(ctx, models.SyncTypeInsights, account.ID, "media_insights", count, err) {
		case stepBreakAccount:
			return outcomeBrokeOnRateLimit
		case stepDisableAccount:
			return outcomeDisabledOnAuthFailure
		}
	}

	return outcomeCompleted
}
