package model

import (
	"fmt"
	"time"
)

// Alert types and statuses.
const (
	AlertLowStock = "LOW_STOCK"
	AlertExpiry   = "EXPIRY"

	ExpiryKindExpired      = "EXPIRED"
	ExpiryKindExpiringSoon = "EXPIRING_SOON"

	AlertPending  = "PENDING"
	AlertResolved = "RESOLVED"
)

// Alert is a document in the mirror store's "alerts" collection, keyed by a
// deterministic id so concurrent evaluations upsert the same row instead of
// duplicating it. It is not a relational model.
type Alert struct {
	ID               string     `json:"id"`
	ProductID        uint       `json:"product_id"`
	ProductName      string     `json:"product_name"`
	AlertType        string     `json:"alert_type"`
	ExpiryKind       string     `json:"expiry_kind,omitempty"` // only for EXPIRY alerts
	Status           string     `json:"status"`
	QuantityAffected int        `json:"quantity_affected"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy       *uint      `json:"resolved_by,omitempty"`
	ResolutionNote   string     `json:"resolution_note,omitempty"`
}

// LowStockAlertID returns the deterministic document id for a product's
// low-stock alert.
func LowStockAlertID(productID uint) string { return fmt.Sprintf("LOW_%d", productID) }

// ExpiryAlertID returns the deterministic document id for a product's
// expiry alert.
func ExpiryAlertID(productID uint) string { return fmt.Sprintf("EXP_%d", productID) }
