package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"stockyard/internal/dto"
	"stockyard/internal/mirror"
	"stockyard/internal/model"

	"github.com/rs/zerolog/log"
)

// AlertEvaluator is the write-path hook: services hand it a committed
// product snapshot and it re-derives that product's alert documents.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, p *model.Product)
}

// AlertService runs the alert state machine. Alert documents live only in
// the mirror store's "alerts" collection, keyed LOW_<id> / EXP_<id>, so
// concurrent evaluations of the same product converge on the same document
// instead of duplicating rows.
type AlertService interface {
	AlertEvaluator
	List(ctx context.Context, status string) (*dto.AlertListResponse, error)
	Resolve(ctx context.Context, actor model.Actor, alertID string, req dto.ResolveAlertRequest) (*model.Alert, error)
}

// ProductSource supplies current product snapshots for the listing-pass
// sweep. Nil disables sweeping (alerts then reflect post-write evaluations
// only).
type ProductSource interface {
	FindLive(ctx context.Context) ([]model.Product, error)
}

type alertService struct {
	docs             mirror.DocStore
	products         ProductSource
	expiryWindowDays int
	now              func() time.Time
}

func NewAlertService(docs mirror.DocStore, products ProductSource, expiryWindowDays int) AlertService {
	if expiryWindowDays <= 0 {
		expiryWindowDays = 30
	}
	return &alertService{docs: docs, products: products, expiryWindowDays: expiryWindowDays, now: time.Now}
}

// Evaluate re-derives both alert families for a product snapshot. Failures
// are logged and swallowed: alerts are advisory, never part of the
// authoritative write path.
func (s *alertService) Evaluate(ctx context.Context, p *model.Product) {
	if p == nil {
		return
	}
	if err := s.evaluateLowStock(ctx, p); err != nil {
		log.Error().Err(err).Uint("product_id", p.ID).Msg("alerts: low-stock evaluation failed")
	}
	if err := s.evaluateExpiry(ctx, p); err != nil {
		log.Error().Err(err).Uint("product_id", p.ID).Msg("alerts: expiry evaluation failed")
	}
}

// sweep re-evaluates every live product so listings reflect current state,
// not just the last write.
func (s *alertService) sweep(ctx context.Context) {
	if s.products == nil {
		return
	}
	live, err := s.products.FindLive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("alerts: sweep could not load products")
		return
	}
	for i := range live {
		s.Evaluate(ctx, &live[i])
	}
}

// evaluateLowStock opens or refreshes the product's LOW_STOCK alert.
// A quantity above the threshold takes no action: low-stock alerts are
// resolved only through the explicit Resolve flow, never by evaluation.
func (s *alertService) evaluateLowStock(ctx context.Context, p *model.Product) error {
	if p.ReorderLevel <= 0 || !p.Live() {
		return nil
	}
	if p.Quantity > p.ReorderLevel {
		return nil
	}

	id := model.LowStockAlertID(p.ID)
	existing, err := s.readAlert(ctx, id)
	if err != nil {
		return err
	}
	now := s.now()

	if existing != nil && existing.Status == model.AlertPending {
		// Persisting condition: metadata refresh only, same incident.
		existing.ProductName = p.Name
		existing.QuantityAffected = p.Quantity
		existing.UpdatedAt = now
		return s.docs.UpsertDoc(ctx, mirror.CollectionAlerts, id, existing)
	}

	// Absent or previously resolved: this is a new incident.
	return s.docs.UpsertDoc(ctx, mirror.CollectionAlerts, id, &model.Alert{
		ID:               id,
		ProductID:        p.ID,
		ProductName:      p.Name,
		AlertType:        model.AlertLowStock,
		Status:           model.AlertPending,
		QuantityAffected: p.Quantity,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
}

// evaluateExpiry opens or refreshes the product's EXPIRY alert. A kind
// transition (EXPIRING_SOON -> EXPIRED) counts as a new incident and
// resets created_at.
func (s *alertService) evaluateExpiry(ctx context.Context, p *model.Product) error {
	if p.ExpiryDate == nil || !p.Live() {
		return nil
	}
	now := s.now()

	var kind string
	switch {
	case p.ExpiryDate.Before(now):
		kind = model.ExpiryKindExpired
	case !p.ExpiryDate.After(now.AddDate(0, 0, s.expiryWindowDays)):
		kind = model.ExpiryKindExpiringSoon
	default:
		return nil
	}

	id := model.ExpiryAlertID(p.ID)
	existing, err := s.readAlert(ctx, id)
	if err != nil {
		return err
	}

	if existing != nil && existing.Status == model.AlertPending && existing.ExpiryKind == kind {
		existing.ProductName = p.Name
		existing.QuantityAffected = p.Quantity
		existing.UpdatedAt = now
		return s.docs.UpsertDoc(ctx, mirror.CollectionAlerts, id, existing)
	}

	return s.docs.UpsertDoc(ctx, mirror.CollectionAlerts, id, &model.Alert{
		ID:               id,
		ProductID:        p.ID,
		ProductName:      p.Name,
		AlertType:        model.AlertExpiry,
		ExpiryKind:       kind,
		Status:           model.AlertPending,
		QuantityAffected: p.Quantity,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
}

// Resolve closes an alert explicitly. Resolving an already-resolved alert
// is rejected so resolution attribution stays with the first resolver.
func (s *alertService) Resolve(ctx context.Context, actor model.Actor, alertID string, req dto.ResolveAlertRequest) (*model.Alert, error) {
	alert, err := s.readAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, fmt.Errorf("alert %s: %w", alertID, ErrNotFound)
	}
	if alert.Status == model.AlertResolved {
		return nil, fmt.Errorf("alert %s is already resolved: %w", alertID, ErrInvalidState)
	}

	now := s.now()
	alert.Status = model.AlertResolved
	alert.ResolvedAt = &now
	alert.ResolvedBy = &actor.UserID
	alert.ResolutionNote = req.Note
	alert.UpdatedAt = now

	if err := s.docs.UpsertDoc(ctx, mirror.CollectionAlerts, alertID, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// List returns the alert collection, newest incident first, optionally
// filtered by status.
func (s *alertService) List(ctx context.Context, status string) (*dto.AlertListResponse, error) {
	s.sweep(ctx)

	raw, err := s.docs.ListDocs(ctx, mirror.CollectionAlerts)
	if err != nil {
		return nil, err
	}

	alerts := make([]model.Alert, 0, len(raw))
	for id, data := range raw {
		var a model.Alert
		if err := json.Unmarshal(data, &a); err != nil {
			log.Warn().Str("alert_id", id).Err(err).Msg("alerts: skipping malformed document")
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		alerts = append(alerts, a)
	}
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].CreatedAt.Equal(alerts[j].CreatedAt) {
			return alerts[i].ID < alerts[j].ID
		}
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})

	return &dto.AlertListResponse{Data: alerts, Total: len(alerts)}, nil
}

func (s *alertService) readAlert(ctx context.Context, id string) (*model.Alert, error) {
	var a model.Alert
	err := s.docs.ReadDoc(ctx, mirror.CollectionAlerts, id, &a)
	if errors.Is(err, mirror.ErrDocNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
