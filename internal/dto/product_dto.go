package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Name         string          `json:"name"          validate:"required,min=2,max=120"`
	SKU          string          `json:"sku"           validate:"required,min=2,max=64"`
	Barcode      string          `json:"barcode"       validate:"omitempty,min=8,max=18"`
	Description  string          `json:"description"`
	Category     string          `json:"category"      validate:"required"`
	Unit         string          `json:"unit"`
	CostPrice    decimal.Decimal `json:"cost_price"    validate:"required"`
	Price        decimal.Decimal `json:"price"         validate:"required"`
	Quantity     int             `json:"quantity"      validate:"min=0"`
	ReorderLevel int             `json:"reorder_level" validate:"min=0"`
	ExpiryDate   *time.Time      `json:"expiry_date"`
}

type BatchDeleteRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1,dive,gt=0"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductFilter struct {
	SKU      string `form:"sku"`
	Name     string `form:"name"`
	Category string `form:"category"`
	Active   string `form:"active"`
	Scope    string `form:"scope"` // "main" | "store" | "" (all)
	StoreID  uint   `form:"store_id"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID           uint            `json:"id"`
	MirrorID     string          `json:"mirror_id,omitempty"`
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
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
	// Degraded reads (mirror fallback) set this so callers know the data
	// may lag the authoritative store.
	FromMirror bool `json:"from_mirror,omitempty"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// BatchDeleteResponse summarizes a batch soft-delete. Per-item failures do
// not abort the batch.
type BatchDeleteResponse struct {
	Deleted         int               `json:"deleted"`
	VariantsDeleted int               `json:"variants_deleted"`
	Failed          []BatchDeleteFail `json:"failed"`
}

type BatchDeleteFail struct {
	ID    uint   `json:"id"`
	Error string `json:"error"`
}

type DeleteResponse struct {
	VariantsDeleted int `json:"variants_deleted"`
}
