package sync

import (
	"context"

	"github.com/ternarybob/pulse/internal/models"
)

// RunUGC discovers user-generated content: media the account was tagged in,
// plus a search over each monitored hashtag.
func (s *Service) RunUGC(ctx context.Context) error {
	return s.runCycle(ctx, models.SyncTypeUGC, s.syncAccountUGC)
}

func (s *Service) syncAccountUGC(ctx context.Context, account *models.BusinessAccount) accountOutcome {
	if !s.wait(ctx) {
		return outcomeCompleted
	}
	count, err := s.client.FetchTaggedMedia(ctx, account.ID)
	switch s.step(ctx, models.SyncTypeUGC, account.ID, "tagged_media", count, err) {
	case stepBreakAccount:
		return outcomeBrokeOnRateLimit
	case stepDisableAccount:
		return outcomeDisabledOnAuthFailure
	}

	hashtags, err := s.storage.DirectoryStorage().GetHashtags(ctx, account.ID, s.config.MaxHashtags)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("account_id", account.ID).
			Msg("Failed to load monitored hashtags, skipping hashtag search")
		return outcomeCompleted
	}

	for _, hashtag := range hashtags {
		if !s.wait(ctx) {
			return outcomeCompleted
		}
		count, err := s.client.SearchHashtag(ctx, account.ID, hashtag.Name)
		switch s.step(ctx, models.SyncTypeUGC, account.ID, "hashtag_search", count, err) {
		case stepBreakAccount:
			return outcomeBrokeOnRateLimit
		case stepDisableAccount:
			return outcomeDisabledOnAuthFailure
		}
	}

	return outcomeCompleted
}
