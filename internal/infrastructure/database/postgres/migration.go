// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/nanostore-kiosk/internal/domain/door"
	"github.com/your-org/nanostore-kiosk/internal/domain/settings"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger *logrus.Logger) *Migration {
	return &Migration{
		db:     db,
		logger: logger,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("🔄 Running database auto-migrations...")

	models := []interface{}{
		&settings.Setting{},
		&door.Event{},
	}

	for _, model := range models {
		m.logger.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_door_events_customer ON door_events(customer_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_door_events_created_at ON door_events(created_at DESC)",
	}

	for _, index := range indexes {
		if err := m.db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// SeedDefaults inserts settings that do not exist yet. Existing values are kept.
func (m *Migration) SeedDefaults(defaults map[string]string) error {
	store := settings.NewStore(m.db)
	for key, value := range defaults {
		if value == "" {
			continue
		}
		if err := store.SetDefault(context.Background(), key, value); err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", key, err)
		}
	}

	m.logger.WithField("count", len(defaults)).Info("🌱 Default settings seeded")
	return nil
}
