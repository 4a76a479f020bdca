package database

import (
	"fmt"

	"gorm.io/gorm"

	"vinyldex/internal/logging"
	"vinyldex/internal/models"
)

// MigrationManager manages database migrations
type MigrationManager struct {
	db     *gorm.DB
	logger *logging.Logger
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *gorm.DB, logger *logging.Logger) *MigrationManager {
	return &MigrationManager{
		db:     db,
		logger: logger,
	}
}

// Migrate runs database migrations
func (m *MigrationManager) Migrate() error {
	if err := m.createExtensions(); err != nil {
		return fmt.Errorf("failed to create extensions: %w", err)
	}

	if err := m.migrateTables(); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}

	if m.logger != nil {
		m.logger.Info().Msg("Database migrations completed successfully")
	}
	return nil
}

// migrateTables handles migration of all tables via GORM
func (m *MigrationManager) migrateTables() error {
	if err := m.db.AutoMigrate(
		&models.User{},
		&models.Record{},
		&models.CustomColumn{},
		&models.CustomColumnValue{},
		&models.TableView{},
		&models.LookupEvent{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}

	return nil
}

// createExtensions creates PostgreSQL extensions needed by the application
func (m *MigrationManager) createExtensions() error {
	// pg_trgm backs the substring search on the normalized artist/album columns
	extensions := []string{"uuid-ossp", "pg_trgm"}

	for _, ext := range extensions {
		// Quote extension name to handle names with hyphens like "uuid-ossp"
		if err := m.db.Exec(fmt.Sprintf("CREATE EXTENSION IF NOT EXISTS \"%s\"", ext)).Error; err != nil {
			return fmt.Errorf("failed to create extension %s: %w", ext, err)
		}
	}

	return nil
}
