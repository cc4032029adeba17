package dto

import "stockyard/internal/model"

// ResolveAlertRequest closes an alert from the external review flow.
type ResolveAlertRequest struct {
	Note string `json:"note" validate:"max=500"`
}

type AlertListResponse struct {
	Data  []model.Alert `json:"data"`
	Total int           `json:"total"`
}

type StoreResponse struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
	HasPOS bool   `json:"has_pos"`
}
