package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pulse/internal/common"
	"github.com/ternarybob/pulse/internal/interfaces"
	"github.com/ternarybob/pulse/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// AuditStorage implements the AuditStorage interface for Badger. Records are
// append-only; there is no update or delete path.
type AuditStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAuditStorage creates a new AuditStorage instance
func NewAuditStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AuditStorage {
	return &AuditStorage{
		db:     db,
		logger: logger,
	}
}

func (s *AuditStorage) StoreRecord(ctx context.Context, record *models.SyncAuditRecord) error {
	if record.ID == "" {
		record.ID = common.NewAuditID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if err := s.db.Store().Insert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save audit record: %w", err)
	}
	return nil
}

func (s *AuditStorage) GetRecords(ctx context.Context, accountID string, limit int) ([]*models.SyncAuditRecord, error) {
	query := badgerhold.Where("AccountID").Eq(accountID).SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []models.SyncAuditRecord
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}

	result := make([]*models.SyncAuditRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

func (s *AuditStorage) CountRecords(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.SyncAuditRecord{}, nil)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
