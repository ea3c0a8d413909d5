package db

import (
	"fmt"

	"gorm.io/gorm"

	"cardshop/internal/config"
	"cardshop/internal/model"
)

// Open connects to the configured driver.
func Open(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return NewSQLite(cfg.SQLitePath)
	case "mysql":
		return NewMySQL(cfg.MySQLDSN)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Admin{},
		&model.Product{},
		&model.Order{},
		&model.Card{},
		&model.RestockSubscription{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
