package dto

// AdjustStockRequest changes one product's quantity by a signed delta.
// No validation tag on Delta: zero is a well-formed value that the service
// rejects with its own sentinel (NoOpAdjustment), not a field error.
type AdjustStockRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason" validate:"required,min=2,max=200"`
	Notes  string `json:"notes"  validate:"max=500"`
}

type AdjustStockResponse struct {
	ProductID   uint `json:"product_id"`
	NewQuantity int  `json:"new_quantity"`
	// MainQuantity is set when the adjustment cascaded to a main product.
	MainProductID *uint `json:"main_product_id,omitempty"`
	MainQuantity  *int  `json:"main_quantity,omitempty"`
}

// AssignToStoreRequest creates a store variant of a main product, moving
// quantity units out of the warehouse. Quantity 0 creates an empty variant.
type AssignToStoreRequest struct {
	StoreID  uint `json:"store_id" validate:"required,gt=0"`
	Quantity int  `json:"quantity" validate:"min=0"`
}

type AssignToStoreResponse struct {
	VariantID       uint   `json:"variant_id"`
	VariantSKU      string `json:"variant_sku"`
	VariantQuantity int    `json:"variant_quantity"`
	MainQuantity    int    `json:"main_quantity"`
}

type MovementResponse struct {
	ID           uint   `json:"id"`
	ProductID    uint   `json:"product_id"`
	ProductName  string `json:"product_name,omitempty"`
	StoreID      *uint  `json:"store_id"`
	MovementType string `json:"movement_type"`
	Quantity     int    `json:"quantity"`
	Reference    string `json:"reference,omitempty"`
	Notes        string `json:"notes,omitempty"`
	UserID       uint   `json:"user_id"`
	CreatedAt    string `json:"created_at"`
}

type MovementListResponse struct {
	Data  []MovementResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
