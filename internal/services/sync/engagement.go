package sync

import (
	"context"

	"github.com/ternarybob/pulse/internal/models"
)

// RunEngagement syncs comments on recent media, the conversation list and the
// messages of open threads for every connected account.
func (s *Service) RunEngagement(ctx context.Context) error {
	return s.runCycle(ctx, models.SyncTypeEngagement, s.syncAccountEngagement)
}

func (s *Service) syncAccountEngagement(ctx context.Context, account *models.BusinessAccount) accountOutcome {
	media, err := s.storage.DirectoryStorage().GetRecentMedia(ctx, account.ID, s.config.MaxRecentMedia)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("account_id", account.ID).
			Msg("Failed to load recent media, skipping comment sync")
		media = nil
	}

	for _, m := range media {
		if !s.wait(ctx) {
			return outcomeCompleted
		}
		count, err := s.client.FetchComments(ctx, account.ID, m.IGMediaID)
		switch s.step(ctx, models.SyncTypeEngagement, account.ID, "comments", count, err) {
		case stepBreakAccount:
			return outcomeBrokeOnRateLimit
		case stepDisableAccount:
			return outcomeDisabledOnAuthFailure
		}
	}

	if !s.wait(ctx) {
		return outcomeCompleted
	}
	count, err := s.client.FetchConversations(ctx, account.ID)
	switch s.step(ctx, models.SyncTypeEngagement, account.ID, "conversations", count, err) {
	case stepBreakAccount:
		return outcomeBrokeOnRateLimit
	case stepDisableAccount:
		return outcomeDisabledOnAuthFailure
	}

	threads, err := s.storage.DirectoryStorage().GetOpenThreads(ctx, account.ID, s.config.MaxOpenConversations)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("account_id", account.ID).
			Msg("Failed to load open threads, skipping message sync")
		return outcomeCompleted
	}

	for _, thread := range threads {
		if !s.wait(ctx) {
			return outcomeCompleted
		}
		count, err := s.client.FetchMessages(ctx, account.ID, thread.IGThreadID)
		switch s.step(ctx, models.SyncTypeEngagement, account.ID, "messages", count, err) {
		case stepBreakAccount:
			return outcomeBrokeOnRateLimit
		case stepDisableAccount:
			return outcomeDisabledOnAuthFailure
		}
	}

	return outcomeCompleted
}
