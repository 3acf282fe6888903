// Package failover watches agent heartbeats and reclaims work an unresponsive
// agent left behind. A dead agent's approved-but-unpublished posts get moved
// into the outbound queue so the delivery worker publishes them instead.
package failover

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pulse/internal/common"
	"github.com/ternarybob/pulse/internal/interfaces"
	"github.com/ternarybob/pulse/internal/models"
	"github.com/ternarybob/pulse/internal/services/outbound"
)

// Monitor runs on a fixed cron interval. Each run marks stale heartbeats
// down, raises alerts for agents missing several beats, and fails over
// orphaned scheduled posts into the outbound queue.
type Monitor struct {
	storage      interfaces.StorageManager
	queue        *outbound.Service
	audit        interfaces.AuditSink
	config       *common.FailoverConfig
	beatInterval time.Duration
	logger       arbor.ILogger
}

// NewMonitor creates the failover monitor. beatInterval is how often a
// healthy agent is expected to beat.
func NewMonitor(
	storage interfaces.StorageManager,
	queue *outbound.Service,
	audit interfaces.AuditSink,
	config *common.FailoverConfig,
	beatInterval time.Duration,
	logger arbor.ILogger,
) *Monitor {
	return &Monitor{
		storage:      storage,
		queue:        queue,
		audit:        audit,
		config:       config,
		beatInterval: beatInterval,
		logger:       logger,
	}
}

// Run executes one monitor pass
func (m *Monitor) Run(ctx context.Context) error {
	now := time.Now()
	threshold := now.Add(-time.Duration(m.config.StaleMinutes) * time.Minute)

	if err := m.checkHeartbeats(ctx, now, threshold); err != nil {
		return err
	}

	return m.failoverStalePosts(ctx, threshold)
}

func (m *Monitor) checkHeartbeats(ctx context.Context, now, threshold time.Time) error {
	affected, err := m.storage.HeartbeatStorage().MarkStaleDown(ctx, threshold)
	if err != nil {
		return fmt.Errorf("failed to mark stale heartbeats: %w", err)
	}

	for _, beat := range affected {
		missed := beat.MissedIntervals(now, m.beatInterval)

		m.logger.Warn().
			Str("agent_id", beat.AgentID).
			Str("last_beat_at", beat.LastBeatAt.Format(time.RFC3339)).
			Int("missed_intervals", missed).
			Msg("Agent heartbeat stale, marked down")

		if missed > m.config.MissedBeatsAlert {
			m.audit.LogAudit(interfaces.AuditEvent{
				Type:    "agent_down",
				AgentID: beat.AgentID,
				Message: "agent missed multiple heartbeat intervals",
				Details: map[string]interface{}{
					"missed_intervals": missed,
					"last_beat_at":     beat.LastBeatAt.Format(time.RFC3339),
				},
			})
		}
	}

	return nil
}

// failoverStalePosts moves approved posts a dead agent never published into
// the outbound queue. Flipping the post to "publishing" straight after the
// enqueue is the dedupe guard: the next monitor pass no longer sees the post
// as approved, so nothing is enqueued twice. The queue's idempotency key,
// derived from the post id, backstops even a crash between the two writes.
func (m *Monitor) failoverStalePosts(ctx context.Context, threshold time.Time) error {
	posts, err := m.storage.PostStorage().GetStaleApprovedPosts(ctx, threshold)
	if err != nil {
		return fmt.Errorf("failed to list stale approved posts: %w", err)
	}

	for _, post := range posts {
		if err := m.failoverPost(ctx, post); err != nil {
			m.logger.Error().
				Err(err).
				Str("post_id", post.ID).
				Msg("Failed to fail over scheduled post")
		}
	}

	if len(posts) > 0 {
		m.logger.Info().
			Int("count", len(posts)).
			Msg("Stale approved posts failed over to outbound queue")
	}

	return nil
}

func (m *Monitor) failoverPost(ctx context.Context, post *models.ScheduledPost) error {
	asset, err := m.storage.PostStorage().GetAsset(ctx, post.AssetID)
	if err != nil {
		return fmt.Errorf("failed to load asset %s: %w", post.AssetID, err)
	}

	payload := map[string]interface{}{
		"scheduled_post_id": post.ID,
		"asset_id":          asset.ID,
		"media_url":         asset.MediaURL,
		"media_type":        asset.MediaType,
		"caption":           asset.Caption,
	}

	queueID, err := m.queue.Enqueue(ctx, post.AccountID, models.ActionPublishPost, post.ID, payload)
	if err != nil {
		return fmt.Errorf("failed to enqueue publish action: %w", err)
	}

	if err := m.storage.PostStorage().UpdatePostStatus(ctx, post.ID, models.PostStatusPublishing); err != nil {
		return fmt.Errorf("failed to transition post to publishing: %w", err)
	}

	m.logger.Info().
		Str("post_id", post.ID).
		Str("account_id", post.AccountID).
		Str("queue_id", queueID).
		Msg("Scheduled post failed over")

	return nil
}
