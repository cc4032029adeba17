package handler

import (
	"net/http"

	"stockyard/internal/dto"
	"stockyard/internal/middleware"
	"stockyard/internal/service"

	"github.com/gin-gonic/gin"
)

type AlertsHandler struct{ svc service.AlertService }

func NewAlertsHandler(svc service.AlertService) *AlertsHandler {
	return &AlertsHandler{svc: svc}
}

type alertQuery struct {
	Status string `form:"status" validate:"omitempty,oneof=PENDING RESOLVED"`
}

func (h *AlertsHandler) List(c *gin.Context) {
	var q alertQuery
	if !bindQueryAndValidate(c, &q) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), q.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AlertsHandler) Resolve(c *gin.Context) {
	alertID := c.Param("id")
	var req dto.ResolveAlertRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Resolve(c.Request.Context(), middleware.GetActor(c), alertID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
