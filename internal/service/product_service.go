package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockyard/internal/audit"
	"stockyard/internal/cache"
	"stockyard/internal/dto"
	"stockyard/internal/infra"
	"stockyard/internal/mirror"
	"stockyard/internal/model"
	"stockyard/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ProductService interface {
	Create(ctx context.Context, actor model.Actor, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uint) (*dto.ProductResponse, error)
	GetByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Delete(ctx context.Context, actor model.Actor, id uint) (*dto.DeleteResponse, error)
	BatchDelete(ctx context.Context, actor model.Actor, req dto.BatchDeleteRequest) (*dto.BatchDeleteResponse, error)
}

type productService struct {
	products repository.ProductRepository
	docs     mirror.DocStore
	cb       *infra.CircuitBreaker
	cache    *cache.ProductCache
	effects  *SideEffects
}

func NewProductService(
	products repository.ProductRepository,
	docs mirror.DocStore,
	cb *infra.CircuitBreaker,
	listCache *cache.ProductCache,
	effects *SideEffects,
) ProductService {
	return &productService{products: products, docs: docs, cb: cb, cache: listCache, effects: effects}
}

func (s *productService) Create(ctx context.Context, actor model.Actor, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	sku := strings.ToUpper(strings.TrimSpace(req.SKU))
	if sku == "" {
		return nil, fmt.Errorf("sku is required: %w", ErrInvalidInput)
	}
	if existing, err := s.products.FindMainBySKU(ctx, sku); err == nil && existing != nil {
		return nil, fmt.Errorf("sku %s already exists as product %d: %w", sku, existing.ID, ErrInvalidInput)
	}

	unit := req.Unit
	if unit == "" {
		unit = "unit"
	}
	p := &model.Product{
		Name:         strings.TrimSpace(req.Name),
		SKU:          sku,
		Barcode:      req.Barcode,
		Description:  req.Description,
		Category:     req.Category,
		Unit:         unit,
		CostPrice:    req.CostPrice,
		Price:        req.Price,
		Quantity:     req.Quantity,
		ReorderLevel: req.ReorderLevel,
		Active:       true,
		ExpiryDate:   req.ExpiryDate,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}

	s.effects.MirrorProduct(ctx, p)
	s.effects.Record(ctx, audit.Entry{
		Action:      "product_create",
		ProductID:   p.ID,
		SKU:         p.SKU,
		ProductName: p.Name,
		After:       map[string]any{"quantity": p.Quantity},
		UserID:      actor.UserID,
	})
	s.effects.Evaluate(ctx, p)
	s.effects.InvalidateCache(ctx)

	resp := toProductResponse(p)
	return &resp, nil
}

// Get prefers the authoritative store. When the relational read fails with
// anything but not-found, we fall back to the mirror document through the
// circuit breaker — degraded-read mode, flagged in the response.
func (s *productService) Get(ctx context.Context, id uint) (*dto.ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err == nil {
		if p.DeletedAt != nil {
			return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		resp := toProductResponse(p)
		return &resp, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}

	log.Warn().Err(err).Uint("product_id", id).Msg("products: authoritative read failed, trying mirror")
	resp, mErr := s.mirrorGet(ctx, id)
	if mErr != nil {
		return nil, err // surface the authoritative failure, not the fallback's
	}
	return resp, nil
}

func (s *productService) mirrorGet(ctx context.Context, id uint) (*dto.ProductResponse, error) {
	if s.docs == nil {
		return nil, ErrMirrorSyncFailed
	}
	var doc mirror.ProductDoc
	readFn := func() error {
		return s.docs.ReadDoc(ctx, mirror.CollectionProducts, mirror.DocID(id), &doc)
	}
	var err error
	if s.cb != nil {
		err = s.cb.Execute(readFn)
	} else {
		err = readFn()
	}
	if err != nil {
		return nil, err
	}
	if doc.DeletedAt != nil {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	resp := &dto.ProductResponse{
		ID:           doc.ID,
		Name:         doc.Name,
		SKU:          doc.SKU,
		Barcode:      doc.Barcode,
		Description:  doc.Description,
		Category:     doc.Category,
		Unit:         doc.Unit,
		CostPrice:    doc.CostPrice,
		Price:        doc.Price,
		Quantity:     doc.Quantity,
		ReorderLevel: doc.ReorderLevel,
		StoreID:      doc.StoreID,
		Active:       doc.Active,
		ExpiryDate:   doc.ExpiryDate,
		UpdatedAt:    doc.UpdatedAt.Format(time.RFC3339),
		FromMirror:   true,
	}
	return resp, nil
}

// GetByBarcode serves scanner lookups on the shop floor. Authoritative
// store only — barcode scans are interactive and a stale answer is worse
// than a failed one.
func (s *productService) GetByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error) {
	if strings.TrimSpace(barcode) == "" {
		return nil, fmt.Errorf("barcode is required: %w", ErrInvalidInput)
	}
	p, err := s.products.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, fmt.Errorf("barcode %s: %w", barcode, ErrNotFound)
	}
	resp := toProductResponse(p)
	return &resp, nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	key := listCacheKey(filter)
	if s.cache != nil {
		var cached dto.ProductListResponse
		if s.cache.Get(ctx, key, &cached) {
			return &cached, nil
		}
	}

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.ProductListResponse{
		Data:  make([]dto.ProductResponse, 0, len(products)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range products {
		resp.Data = append(resp.Data, toProductResponse(&products[i]))
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, resp)
	}
	return resp, nil
}

func listCacheKey(f dto.ProductFilter) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%d|%d|%d",
		f.SKU, f.Name, f.Category, f.Active, f.Scope, f.StoreID, f.Page, f.Limit)
}

// Delete soft-deletes a product. For a main product the delete cascades over
// the canonical "<sku>-S%" family only — deliberately narrower than the full
// resolver, since this path is destructive. Variant deletes never cascade.
func (s *productService) Delete(ctx context.Context, actor model.Actor, id uint) (*dto.DeleteResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil || p.DeletedAt != nil {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}

	var family []model.Product
	if p.IsMain() && p.SKU != "" {
		family, err = s.products.FindCascadeFamily(ctx, p.SKU)
		if err != nil {
			return nil, err
		}
	}

	txErr := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		if err := s.products.SoftDeleteTx(tx, p.ID); err != nil {
			return err
		}
		for i := range family {
			if err := s.products.SoftDeleteTx(tx, family[i].ID); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	now := time.Now()
	deleted := append([]model.Product{*p}, family...)
	for i := range deleted {
		deleted[i].Active = false
		deleted[i].DeletedAt = &now
		s.effects.MirrorProduct(ctx, &deleted[i])
	}
	s.effects.Record(ctx, audit.Entry{
		Action:      "product_delete",
		ProductID:   p.ID,
		SKU:         p.SKU,
		ProductName: p.Name,
		StoreID:     p.StoreID,
		Before:      map[string]any{"active": true},
		After:       map[string]any{"active": false, "variants_deleted": len(family)},
		UserID:      actor.UserID,
	})
	s.effects.InvalidateCache(ctx)

	return &dto.DeleteResponse{VariantsDeleted: len(family)}, nil
}

// BatchDelete applies Delete per id. One id's failure never aborts the
// rest; the response carries a per-item failure summary.
func (s *productService) BatchDelete(ctx context.Context, actor model.Actor, req dto.BatchDeleteRequest) (*dto.BatchDeleteResponse, error) {
	resp := &dto.BatchDeleteResponse{Failed: []dto.BatchDeleteFail{}}
	for _, id := range req.IDs {
		res, err := s.Delete(ctx, actor, id)
		if err != nil {
			log.Warn().Err(err).Uint("product_id", id).Msg("products: batch delete item failed")
			resp.Failed = append(resp.Failed, dto.BatchDeleteFail{ID: id, Error: err.Error()})
			continue
		}
		resp.Deleted++
		resp.VariantsDeleted += res.VariantsDeleted
	}
	return resp, nil
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:           p.ID,
		MirrorID:     p.MirrorID,
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
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
	}
}
