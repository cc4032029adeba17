package model

import "time"

// Store is a physical retail location. Read-only from this core's
// perspective; HasPOS affects variant SKU naming (see internal/resolver).
type Store struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"not null"`
	Active    bool   `gorm:"not null;default:true"`
	HasPOS    bool   `gorm:"column:has_pos;not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
