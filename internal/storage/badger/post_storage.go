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

// PostStorage implements the PostStorage interface for Badger
type PostStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewPostStorage creates a new PostStorage instance
func NewPostStorage(db *BadgerDB, logger arbor.ILogger) interfaces.PostStorage {
	return &PostStorage{
		db:     db,
		logger: logger,
	}
}

func (s *PostStorage) StorePost(ctx context.Context, post *models.ScheduledPost) error {
	if post.ID == "" {
		return fmt.Errorf("post ID is required")
	}
	post.UpdatedAt = time.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = post.UpdatedAt
	}
	if err := s.db.Store().Upsert(post.ID, post); err != nil {
		return fmt.Errorf("failed to save post: %w", err)
	}
	return nil
}

func (s *PostStorage) GetPost(ctx context.Context, id string) (*models.ScheduledPost, error) {
	var post models.ScheduledPost
	if err := s.db.Store().Get(id, &post); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("post not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// GetStaleApprovedPosts returns posts still "approved" past the staleness
// threshold, meaning no agent picked them up for publishing.
func (s *PostStorage) GetStaleApprovedPosts(ctx context.Context, threshold time.Time) ([]*models.ScheduledPost, error) {
	var posts []models.ScheduledPost
	query := badgerhold.Where("Status").Eq(models.PostStatusApproved).And("CreatedAt").Lt(threshold).SortBy("CreatedAt")
	if err := s.db.Store().Find(&posts, query); err != nil {
		return nil, fmt.Errorf("failed to find stale approved posts: %w", err)
	}

	result := make([]*models.ScheduledPost, len(posts))
	for i := range posts {
		result[i] = &posts[i]
	}
	return result, nil
}

func (s *PostStorage) UpdatePostStatus(ctx context.Context, id string, status models.PostStatus) error {
	var post models.ScheduledPost
	if err := s.db.Store().Get(id, &post); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("post not found: %s", id)
		}
		return fmt.Errorf("failed to get post: %w", err)
	}

	post.Status = status
	post.UpdatedAt = time.Now()
	if err := s.db.Store().Upsert(post.ID, &post); err != nil {
		return fmt.Errorf("failed to update post status: %w", err)
	}
	return nil
}

func (s *PostStorage) StoreAsset(ctx context.Context, asset *models.PostAsset) error {
	if asset.ID == "" {
		return fmt.Errorf("asset ID is required")
	}
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now()
	}
	if err := s.db.Store().Upsert(asset.ID, asset); err != nil {
		return fmt.Errorf("failed to save asset: %w", err)
	}
	return nil
}

func (s *PostStorage) GetAsset(ctx context.Context, id string) (*models.PostAsset, error) {
	var asset models.PostAsset
	if err := s.db.Store().Get(id, &asset); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("asset not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return &asset, nil
}
