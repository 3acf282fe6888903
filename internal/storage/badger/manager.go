package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pulse/internal/common"
	"github.com/ternarybob/pulse/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db        *BadgerDB
	account   interfaces.AccountStorage
	directory interfaces.DirectoryStorage
	audit     interfaces.AuditStorage
	queue     interfaces.QueueStorage
	heartbeat interfaces.HeartbeatStorage
	post      interfaces.PostStorage
	logger    arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:        db,
		account:   NewAccountStorage(db, logger),
		directory: NewDirectoryStorage(db, logger),
		audit:     NewAuditStorage(db, logger),
		queue:     NewQueueStorage(db, logger),
		heartbeat: NewHeartbeatStorage(db, logger),
		post:      NewPostStorage(db, logger),
		logger:    logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// AccountStorage returns the Account storage interface
func (m *Manager) AccountStorage() interfaces.AccountStorage {
	return m.account
}

// DirectoryStorage returns the Directory storage interface
func (m *Manager) DirectoryStorage() interfaces.DirectoryStorage {
	return m.directory
}

// AuditStorage returns the Audit storage interface
func (m *Manager) AuditStorage() interfaces.AuditStorage {
	return m.audit
}

// QueueStorage returns the Queue storage interface
func (m *Manager) QueueStorage() interfaces.QueueStorage {
	return m.queue
}

// HeartbeatStorage returns the Heartbeat storage interface
func (m *Manager) HeartbeatStorage() interfaces.HeartbeatStorage {
	return m.heartbeat
}

// PostStorage returns the ScheduledPost storage interface
func (m *Manager) PostStorage() interfaces.PostStorage {
	return m.post
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
