package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents both main products and store variants.
// StoreID == nil means this row is a main product holding the warehouse
// remainder plus the aggregate of its variants; a non-nil StoreID marks a
// per-store variant. The two are linked only by SKU/name heuristics
// (see internal/resolver), never by a foreign key.
type Product struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	MirrorID    string `gorm:"index"` // key in the secondary document store, when synced
	Name        string `gorm:"index;not null"`
	SKU         string `gorm:"index;not null"`
	Barcode     string `gorm:"index"`
	Description string
	Category    string          `gorm:"index"`
	Unit        string          `gorm:"not null;default:'unit'"`
	CostPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Quantity    int             `gorm:"not null;default:0"`
	// ReorderLevel <= 0 disables low-stock alerting for this product.
	ReorderLevel int        `gorm:"not null;default:0"`
	StoreID      *uint      `gorm:"index"`
	Active       bool       `gorm:"not null;default:true"`
	ExpiryDate   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time `gorm:"index"` // soft delete marker — never hard-deleted

	Store *Store `gorm:"foreignKey:StoreID"`
}

// IsMain reports whether this row is a main (warehouse-level) product.
func (p *Product) IsMain() bool { return p.StoreID == nil }

// Live reports whether the row participates in hierarchy resolution:
// active and not soft-deleted.
func (p *Product) Live() bool { return p.Active && p.DeletedAt == nil }
