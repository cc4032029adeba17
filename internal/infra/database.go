package infra

import (
	"fmt"

	"stockyard/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for the core tables, then applies idempotent SQL patches that GORM cannot
// express (partial indexes, expression indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations creates/updates the core tables and applies schema patches.
// Also used by integration tests against throwaway databases.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Store{},
		&model.Product{},
		&model.StockMovement{},
		&model.Transfer{},
		&model.AuditEntry{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot fully
// handle. Each statement uses IF NOT EXISTS semantics so re-running on an
// already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Case-insensitive SKU lookups (resolver base-SKU queries).
		`CREATE INDEX IF NOT EXISTS idx_products_sku_upper ON products (UPPER(sku))`,
		// Partial index for the live-variant candidate scan.
		`CREATE INDEX IF NOT EXISTS idx_products_live_variants
		     ON products (sku)
		     WHERE store_id IS NOT NULL AND active = true AND deleted_at IS NULL`,
		// Partial index for listing pending transfers.
		`CREATE INDEX IF NOT EXISTS idx_transfers_pending
		     ON inventory_transfers (created_at)
		     WHERE status = 'pending'`,
	}
	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
