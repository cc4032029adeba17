package handler

import (
	"net/http"

	"stockyard/internal/dto"
	"stockyard/internal/middleware"
	"stockyard/internal/repository"
	"stockyard/internal/service"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct{ svc service.InventoryService }

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Adjust(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventoryHandler) AssignToStore(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req dto.AssignToStoreRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AssignToStore(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

type movementQuery struct {
	ProductID    uint   `form:"product_id"`
	StoreID      uint   `form:"store_id"`
	MovementType string `form:"movement_type" validate:"omitempty,oneof=in out adjustment transfer"`
	Page         int    `form:"page,default=1"   validate:"min=1"`
	Limit        int    `form:"limit,default=50" validate:"min=1,max=500"`
}

func (h *InventoryHandler) ListMovements(c *gin.Context) {
	var q movementQuery
	if !bindQueryAndValidate(c, &q) {
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), repository.MovementFilter{
		ProductID:    q.ProductID,
		StoreID:      q.StoreID,
		MovementType: q.MovementType,
		Page:         q.Page,
		Limit:        q.Limit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListProductMovements is the per-product view of the ledger; the path id
// overrides any product_id query parameter.
func (h *InventoryHandler) ListProductMovements(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var q movementQuery
	if !bindQueryAndValidate(c, &q) {
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), repository.MovementFilter{
		ProductID:    id,
		StoreID:      q.StoreID,
		MovementType: q.MovementType,
		Page:         q.Page,
		Limit:        q.Limit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
