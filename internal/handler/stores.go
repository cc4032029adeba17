package handler

import (
	"net/http"

	"stockyard/internal/apierror"
	"stockyard/internal/dto"
	"stockyard/internal/repository"

	"github.com/gin-gonic/gin"
)

// StoresHandler reads retail locations straight from the repository —
// stores are managed by the surrounding system, this API only lists them.
type StoresHandler struct{ repo repository.StoreRepository }

func NewStoresHandler(repo repository.StoreRepository) *StoresHandler {
	return &StoresHandler{repo: repo}
}

func (h *StoresHandler) List(c *gin.Context) {
	stores, err := h.repo.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list stores"))
		return
	}
	out := make([]dto.StoreResponse, 0, len(stores))
	for _, s := range stores {
		out = append(out, dto.StoreResponse{ID: s.ID, Name: s.Name, Active: s.Active, HasPOS: s.HasPOS})
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "total": len(out)})
}
