package db

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hmehta/billbook/internal/models"
)

// ConnectAndMigrate opens the configured database and brings the schema up
// to date. Postgres gets a retry loop because the server usually races the
// database container on startup; sqlite opens immediately.
func ConnectAndMigrate(driver, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is empty, check the environment configuration")
	}
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var db *gorm.DB
	var err error
	switch driver {
	case "postgres":
		dsn = NormalizeDSN(dsn)
		for i := 0; i < 10; i++ {
			db, err = gorm.Open(postgres.Open(dsn), cfg)
			if err == nil {
				break
			}
			log.Warn().Err(err).Msg("retrying DB connection")
			time.Sleep(2 * time.Second)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to connect database after retries: %w", err)
		}
	default:
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
	}

	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	log.Info().Str("driver", driver).Str("dsn", MaskDSN(dsn)).Msg("database connected")

	// MIGRATIONS=1 runs versioned SQL migrations via golang-migrate (postgres
	// only); otherwise AutoMigrate keeps dev setups frictionless.
	if v := strings.ToLower(os.Getenv("MIGRATIONS")); driver == "postgres" && (v == "1" || v == "true" || v == "yes") {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
	}

	for _, table := range []string{"invoices", "line_items", "payments", "returns", "recycle_bin_items"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	return db, nil
}

// AutoMigrate creates or updates the core tables. Exposed so tests can bring
// up an in-memory schema without the connection plumbing.
func AutoMigrate(db *gorm.DB) error {
	modelsToMigrate := []interface{}{
		&models.Invoice{}, &models.LineItem{}, &models.Payment{}, &models.Return{}, &models.RecycleBinItem{},
	}
	for _, m := range modelsToMigrate {
		if migErr := db.AutoMigrate(m); migErr != nil {
			return fmt.Errorf("automigrate %T: %w", m, migErr)
		}
	}
	return nil
}

// runSQLMigrations executes migrations in ./migrations using the
// golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
