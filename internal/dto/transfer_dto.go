package dto

// InitiateTransferRequest reserves warehouse stock for a store variant.
type InitiateTransferRequest struct {
	DestProductID uint `json:"dest_product_id" validate:"required,gt=0"`
	Quantity      int  `json:"quantity"        validate:"required,gt=0"`
}

type TransferResponse struct {
	ID              uint   `json:"id"`
	SourceProductID uint   `json:"source_product_id"`
	DestProductID   uint   `json:"dest_product_id"`
	StoreID         uint   `json:"store_id"`
	Quantity        int    `json:"quantity"`
	Status          string `json:"status"`
	CreatedBy       uint   `json:"created_by"`
	CreatedAt       string `json:"created_at"`
	ReceivedBy      *uint  `json:"received_by,omitempty"`
	ReceivedAt      string `json:"received_at,omitempty"`
}

type TransferListResponse struct {
	Data  []TransferResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

type TransferFilterQuery struct {
	StoreID uint   `form:"store_id"`
	Status  string `form:"status" validate:"omitempty,oneof=pending completed cancelled"`
	Page    int    `form:"page,default=1"   validate:"min=1"`
	Limit   int    `form:"limit,default=20" validate:"min=1,max=100"`
}
