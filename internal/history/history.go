// Package history persists the interactive command history in a sqlite
// database so it survives across sessions.
package history

import (
	"database/sql"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Manager struct {
	db *gorm.DB
}

type Entry struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time `gorm:"index"`

	Command  string
	Server   string
	ExitCode sql.NullInt32
}

func NewManager(dbFilePath string) (*Manager, error) {
	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}

	return &Manager{db: db}, nil
}

// Close closes the database connection. This should be called when the
// Manager is no longer needed, especially in tests to allow cleanup of
// temporary database files on Windows.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StartCommand records a command the moment it is submitted, before its
// outcome is known.
func (m *Manager) StartCommand(command string, server string) (*Entry, error) {
	entry := Entry{
		Command: command,
		Server:  server,
	}

	result := m.db.Create(&entry)
	if result.Error != nil {
		return nil, result.Error
	}

	return &entry, nil
}

// FinishCommand records the outcome of a previously started command. Zero
// means success; anything else marks an in-band or transport failure.
func (m *Manager) FinishCommand(entry *Entry, exitCode int) (*Entry, error) {
	entry.ExitCode = sql.NullInt32{Int32: int32(exitCode), Valid: true}

	result := m.db.Save(entry)
	if result.Error != nil {
		return nil, result.Error
	}

	return entry, nil
}

// GetRecentEntries returns up to limit entries, oldest first, so the
// prompt's up-arrow walks backwards from the end of the slice.
func (m *Manager) GetRecentEntries(limit int) ([]Entry, error) {
	var entries []Entry
	result := m.db.Order("created_at desc").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return lo.Reverse(entries), nil
}

// DeleteAllEntries wipes the stored history.
func (m *Manager) DeleteAllEntries() error {
	result := m.db.Where("1 = 1").Delete(&Entry{})
	return result.Error
}
