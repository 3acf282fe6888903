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

// AccountStorage implements the AccountStorage interface for Badger
type AccountStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAccountStorage creates a new AccountStorage instance
func NewAccountStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AccountStorage {
	return &AccountStorage{
		db:     db,
		logger: logger,
	}
}

func (s *AccountStorage) StoreAccount(ctx context.Context, account *models.BusinessAccount) error {
	if account.ID == "" {
		return fmt.Errorf("account ID is required")
	}
	account.UpdatedAt = time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = account.UpdatedAt
	}

	if err := s.db.Store().Upsert(account.ID, account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

func (s *AccountStorage) GetAccount(ctx context.Context, id string) (*models.BusinessAccount, error) {
	var account models.BusinessAccount
	if err := s.db.Store().Get(id, &account); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("account not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (s *AccountStorage) GetConnectedAccounts(ctx context.Context) ([]*models.BusinessAccount, error) {
	var accounts []models.BusinessAccount
	query := badgerhold.Where("IsConnected").Eq(true).SortBy("CreatedAt")
	if err := s.db.Store().Find(&accounts, query); err != nil {
		return nil, fmt.Errorf("failed to list connected accounts: %w", err)
	}

	result := make([]*models.BusinessAccount, len(accounts))
	for i := range accounts {
		result[i] = &accounts[i]
	}
	return result, nil
}

// DisableAccount soft-disables the account. Idempotent: disabling an already
// disconnected account is a no-op.
func (s *AccountStorage) DisableAccount(ctx context.Context, id string) error {
	var account models.BusinessAccount
	if err := s.db.Store().Get(id, &account); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("account not found: %s", id)
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	if !account.IsConnected && account.ConnectionStatus == models.ConnectionStatusDisconnected {
		return nil
	}

	account.IsConnected = false
	account.ConnectionStatus = models.ConnectionStatusDisconnected
	account.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(account.ID, &account); err != nil {
		return fmt.Errorf("failed to disable account: %w", err)
	}

	s.logger.Warn().
		Str("account_id", id).
		Msg("Account disabled after auth failure")

	return nil
}
