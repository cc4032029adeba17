package model

import "time"

// Movement types. Quantity is always a non-negative magnitude; direction is
// carried by the type (transfer rows disambiguate via Reference).
const (
	MovementIn         = "in"
	MovementOut        = "out"
	MovementAdjustment = "adjustment"
	MovementTransfer   = "transfer"
)

// Well-known movement references written by the ledger.
const (
	RefCascadingUpdate = "Cascading Update"
	RefStoreAssignment = "Store Assignment"
)

// StockMovement is the append-only ledger: exactly one row per quantity
// change to a product, plus a second row on the main product when a variant
// change cascades. Immutable once created.
type StockMovement struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	ProductID    uint   `gorm:"not null;index"`
	StoreID      *uint  `gorm:"index"`
	MovementType string `gorm:"not null"`
	Quantity     int    `gorm:"not null"` // magnitude, always >= 0
	Reference    string
	Notes        string
	UserID       uint `gorm:"not null;index"`
	CreatedAt    time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// TableName overrides GORM's default pluralization (stock_movement → stock_movements).
func (StockMovement) TableName() string { return "stock_movements" }
