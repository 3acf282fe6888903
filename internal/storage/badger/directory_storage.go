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

// DirectoryStorage implements the DirectoryStorage interface for Badger. It
// holds the read-side views that bound each sync cycle's work.
type DirectoryStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewDirectoryStorage creates a new DirectoryStorage instance
func NewDirectoryStorage(db *BadgerDB, logger arbor.ILogger) interfaces.DirectoryStorage {
	return &DirectoryStorage{
		db:     db,
		logger: logger,
	}
}

func (s *DirectoryStorage) StoreHashtag(ctx context.Context, hashtag *models.MonitoredHashtag) error {
	if hashtag.ID == "" {
		return fmt.Errorf("hashtag ID is required")
	}
	if hashtag.CreatedAt.IsZero() {
		hashtag.CreatedAt = time.Now()
	}
	if err := s.db.Store().Upsert(hashtag.ID, hashtag); err != nil {
		return fmt.Errorf("failed to save hashtag: %w", err)
	}
	return nil
}

func (s *DirectoryStorage) GetHashtags(ctx context.Context, accountID string, limit int) ([]*models.MonitoredHashtag, error) {
	var hashtags []models.MonitoredHashtag
	query := badgerhold.Where("AccountID").Eq(accountID).SortBy("CreatedAt")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := s.db.Store().Find(&hashtags, query); err != nil {
		return nil, fmt.Errorf("failed to list hashtags: %w", err)
	}

	result := make([]*models.MonitoredHashtag, len(hashtags))
	for i := range hashtags {
		result[i] = &hashtags[i]
	}
	return result, nil
}

func (s *DirectoryStorage) StoreMedia(ctx context.Context, media *models.MediaRef) error {
	if media.ID == "" {
		return fmt.Errorf("media ID is required")
	}
	if err := s.db.Store().Upsert(media.ID, media); err != nil {
		return fmt.Errorf("failed to save media: %w", err)
	}
	return nil
}

// GetRecentMedia returns the account's media newest first, capped at limit.
func (s *DirectoryStorage) GetRecentMedia(ctx context.Context, accountID string, limit int) ([]*models.MediaRef, error) {
	var media []models.MediaRef
	query := badgerhold.Where("AccountID").Eq(accountID).SortBy("Timestamp").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := s.db.Store().Find(&media, query); err != nil {
		return nil, fmt.Errorf("failed to list recent media: %w", err)
	}

	result := make([]*models.MediaRef, len(media))
	for i := range media {
		result[i] = &media[i]
	}
	return result, nil
}

func (s *DirectoryStorage) StoreThread(ctx context.Context, thread *models.MessageThread) error {
	if thread.ID == "" {
		return fmt.Errorf("thread ID is required")
	}
	thread.UpdatedAt = time.Now()
	if err := s.db.Store().Upsert(thread.ID, thread); err != nil {
		return fmt.Errorf("failed to save thread: %w", err)
	}
	return nil
}

// GetOpenThreads returns the account's open conversations, most recently
// active first, capped at limit.
func (s *DirectoryStorage) GetOpenThreads(ctx context.Context, accountID string, limit int) ([]*models.MessageThread, error) {
	var threads []models.MessageThread
	query := badgerhold.Where("AccountID").Eq(accountID).And("Open").Eq(true).SortBy("UpdatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := s.db.Store().Find(&threads, query); err != nil {
		return nil, fmt.Errorf("failed to list open threads: %w", err)
	}

	result := make([]*models.MessageThread, len(threads))
	for i := range threads {
		result[i] = &threads[i]
	}
	return result, nil
}
