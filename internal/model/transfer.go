package model

import "time"

// Transfer states. pending → completed | cancelled; terminal states never
// transition again.
const (
	TransferPending   = "pending"
	TransferCompleted = "completed"
	TransferCancelled = "cancelled"
)

// Transfer moves stock from the warehouse (main product) to a store variant
// with deferred confirmation. Warehouse stock is decremented at creation
// (reservation) and either confirmed into the store or restored on cancel.
type Transfer struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	SourceProductID uint   `gorm:"not null;index"`
	DestProductID   uint   `gorm:"not null;index"`
	StoreID         uint   `gorm:"not null;index"`
	Quantity        int    `gorm:"not null"`
	Status          string `gorm:"not null;default:'pending';index"`
	CreatedBy       uint   `gorm:"not null"`
	CreatedAt       time.Time
	ReceivedBy      *uint
	ReceivedAt      *time.Time

	Source *Product `gorm:"foreignKey:SourceProductID"`
	Dest   *Product `gorm:"foreignKey:DestProductID"`
}

// TableName keeps the historical table name used by the surrounding system.
func (Transfer) TableName() string { return "inventory_transfers" }
