package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditEntry records who changed what on a product-affecting mutation.
// Writes to this table are best-effort: a failure here never rolls back the
// mutation it describes.
type AuditEntry struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Action      string         `gorm:"not null;index"`
	ProductID   uint           `gorm:"index"`
	SKU         string
	ProductName string
	StoreID     *uint
	Before      datatypes.JSON
	After       datatypes.JSON
	UserID      uint `gorm:"not null;index"`
	CreatedAt   time.Time
}

// TableName overrides GORM's default pluralization.
func (AuditEntry) TableName() string { return "audit_entries" }
