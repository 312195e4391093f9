package database

import (
	"fmt"
	"time"

	"github.com/Eursukkul/studio-booking/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to postgres or sqlite and migrates the schema. Driver errors are
// translated so a unique index violation surfaces as gorm.ErrDuplicatedKey.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gorm open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if driver == "sqlite" {
		// sqlite: one connection, writers queue on it.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		sqlDB.SetConnMaxIdleTime(1 * time.Minute)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the tables and the slot uniqueness index.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Resource{}, &models.Reservation{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// At most one reservation per resource, date and hour label.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_reservation_slot
		ON reservations (resource_id, date, time_label)
	`).Error; err != nil {
		return fmt.Errorf("create slot index: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reservation_date_hour
		ON reservations (date, hour)
	`).Error; err != nil {
		return fmt.Errorf("create date index: %w", err)
	}
	return nil
}
