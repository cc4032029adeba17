package mirror

import (
	"strconv"
	"time"

	"stockyard/internal/model"

	"github.com/shopspring/decimal"
)

// ProductDoc is the mirrored shape of a product. Both stores are keyed by
// the authoritative integer id (stringified for the document key).
type ProductDoc struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	Barcode      string          `json:"barcode,omitempty"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category"`
	Unit         string          `json:"unit"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	ReorderLevel int             `json:"reorder_level"`
	StoreID      *uint           `json:"store_id"`
	Active       bool            `json:"active"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
	DeletedAt    *time.Time      `json:"deleted_at,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// FromProduct snapshots a product row for mirroring.
func FromProduct(p *model.Product) ProductDoc {
	return ProductDoc{
		ID:           p.ID,
		Name:         p.Name,
		SKU:          p.SKU,
		Barcode:      p.Barcode,
		Description:  p.Description,
		Category:     p.Category,
		Unit:         p.Unit,
		CostPrice:    p.CostPrice,
		Price:        p.Price,
		Quantity:     p.Quantity,
		ReorderLevel: p.ReorderLevel,
		StoreID:      p.StoreID,
		Active:       p.Active,
		ExpiryDate:   p.ExpiryDate,
		DeletedAt:    p.DeletedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// TransferDoc is the mirrored shape of a transfer.
type TransferDoc struct {
	ID              uint       `json:"id"`
	SourceProductID uint       `json:"source_product_id"`
	DestProductID   uint       `json:"dest_product_id"`
	StoreID         uint       `json:"store_id"`
	Quantity        int        `json:"quantity"`
	Status          string     `json:"status"`
	CreatedBy       uint       `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	ReceivedBy      *uint      `json:"received_by,omitempty"`
	ReceivedAt      *time.Time `json:"received_at,omitempty"`
}

// FromTransfer snapshots a transfer row for mirroring.
func FromTransfer(t *model.Transfer) TransferDoc {
	return TransferDoc{
		ID:              t.ID,
		SourceProductID: t.SourceProductID,
		DestProductID:   t.DestProductID,
		StoreID:         t.StoreID,
		Quantity:        t.Quantity,
		Status:          t.Status,
		CreatedBy:       t.CreatedBy,
		CreatedAt:       t.CreatedAt,
		ReceivedBy:      t.ReceivedBy,
		ReceivedAt:      t.ReceivedAt,
	}
}

// DocID stringifies an authoritative integer id for use as a document key.
func DocID(id uint) string { return strconv.FormatUint(uint64(id), 10) }
