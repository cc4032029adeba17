package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockyard/internal/audit"
	"stockyard/internal/dto"
	"stockyard/internal/model"
	"stockyard/internal/repository"
	"stockyard/internal/resolver"

	"gorm.io/gorm"
)

// InventoryService is the stock ledger: every quantity change goes through
// here, gets exactly one movement row, and — for store variants — cascades
// into the main product's aggregate inside the same transaction.
type InventoryService interface {
	Adjust(ctx context.Context, actor model.Actor, productID uint, req dto.AdjustStockRequest) (*dto.AdjustStockResponse, error)
	AssignToStore(ctx context.Context, actor model.Actor, mainProductID uint, req dto.AssignToStoreRequest) (*dto.AssignToStoreResponse, error)
	ListMovements(ctx context.Context, filter repository.MovementFilter) (*dto.MovementListResponse, error)
}

type inventoryService struct {
	products  repository.ProductRepository
	movements repository.MovementRepository
	stores    repository.StoreRepository
	effects   *SideEffects
}

func NewInventoryService(
	products repository.ProductRepository,
	movements repository.MovementRepository,
	stores repository.StoreRepository,
	effects *SideEffects,
) InventoryService {
	return &inventoryService{products: products, movements: movements, stores: stores, effects: effects}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func movementType(delta int) string {
	if delta > 0 {
		return model.MovementIn
	}
	return model.MovementOut
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ── Adjust ───────────────────────────────────────────────────────────────────
// One transaction:
//   1. Lock the product row, validate the resulting quantity.
//   2. Update quantity, append the movement.
//   3. If the product is a store variant: lock the main product (this is the
//      per-base-SKU serialization point for concurrent cascades), apply the
//      same delta to its aggregate — the main row keeps whatever stock was
//      never assigned to a store — and append the cascade movement.
// Mirror sync, audit, alerts, and cache invalidation run after commit.

func (s *inventoryService) Adjust(ctx context.Context, actor model.Actor, productID uint, req dto.AdjustStockRequest) (*dto.AdjustStockResponse, error) {
	delta := req.Delta
	if delta == 0 {
		return nil, fmt.Errorf("adjust product %d: %w", productID, ErrNoOpAdjustment)
	}

	// Pre-flight outside the tx — cheap rejection before locking anything.
	p, err := s.products.FindByID(ctx, productID)
	if err != nil || p.DeletedAt != nil {
		return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	if p.Quantity+delta < 0 {
		return nil, fmt.Errorf("product %d has %d units, cannot remove %d: %w",
			productID, p.Quantity, -delta, ErrInsufficientStock)
	}

	allStores, err := s.stores.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.AdjustStockResponse{ProductID: productID}
	var touched, touchedMain *model.Product

	txErr := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		locked, err := s.products.FindByIDLockTx(tx, productID)
		if err != nil {
			return fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		newQty := locked.Quantity + delta
		if newQty < 0 {
			return fmt.Errorf("product %d has %d units, cannot remove %d: %w",
				productID, locked.Quantity, -delta, ErrInsufficientStock)
		}

		if err := s.products.UpdateQuantityTx(tx, locked.ID, newQty); err != nil {
			return err
		}
		if err := s.movements.CreateTx(tx, &model.StockMovement{
			ProductID:    locked.ID,
			StoreID:      locked.StoreID,
			MovementType: movementType(delta),
			Quantity:     abs(delta),
			Reference:    req.Reason,
			Notes:        req.Notes,
			UserID:       actor.UserID,
		}); err != nil {
			return err
		}

		locked.Quantity = newQty
		touched = locked
		resp.NewQuantity = newQty

		if locked.IsMain() {
			return nil
		}

		main, err := s.cascadeToMain(tx, actor, locked, delta, allStores)
		if err != nil {
			return err
		}
		if main != nil {
			touchedMain = main
			resp.MainProductID = &main.ID
			q := main.Quantity
			resp.MainQuantity = &q
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.afterCommit(ctx, actor, "stock_adjust", p, touched, touchedMain)
	return resp, nil
}

// cascadeToMain recomputes the main product's aggregate after a variant
// change. Returns nil without error when no main product exists for the
// variant's base SKU (orphaned legacy record — the adjustment itself stands).
func (s *inventoryService) cascadeToMain(tx *gorm.DB, actor model.Actor, variant *model.Product, delta int, allStores []model.Store) (*model.Product, error) {
	baseSKU, _ := resolver.BaseSKU(variant.SKU, allStores)
	if baseSKU == "" {
		return nil, nil
	}

	main, err := s.products.FindMainBySKULockTx(tx, baseSKU)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock main product %s: %w", baseSKU, err)
	}

	// The main row carries the remainder never assigned to any store, so a
	// variant change shifts the aggregate by exactly the variant's delta.
	newMainQty := main.Quantity + delta
	if newMainQty < 0 {
		return nil, fmt.Errorf("cascade would drive main product %d negative: %w",
			main.ID, ErrInsufficientStock)
	}

	if err := s.products.UpdateQuantityTx(tx, main.ID, newMainQty); err != nil {
		return nil, err
	}
	if err := s.movements.CreateTx(tx, &model.StockMovement{
		ProductID:    main.ID,
		MovementType: movementType(delta),
		Quantity:     abs(delta),
		Reference:    model.RefCascadingUpdate,
		Notes:        fmt.Sprintf("Triggered by variant %s", variant.SKU),
		UserID:       actor.UserID,
	}); err != nil {
		return nil, err
	}

	main.Quantity = newMainQty
	return main, nil
}

// ── AssignToStore ────────────────────────────────────────────────────────────

func (s *inventoryService) AssignToStore(ctx context.Context, actor model.Actor, mainProductID uint, req dto.AssignToStoreRequest) (*dto.AssignToStoreResponse, error) {
	if req.Quantity < 0 {
		return nil, fmt.Errorf("assignment quantity %d: %w", req.Quantity, ErrInvalidInput)
	}

	main, err := s.products.FindByID(ctx, mainProductID)
	if err != nil || !main.Live() {
		return nil, fmt.Errorf("product %d: %w", mainProductID, ErrNotFound)
	}
	if !main.IsMain() {
		return nil, fmt.Errorf("product %d is a store variant, not a main product: %w",
			mainProductID, ErrInvalidInput)
	}
	if req.Quantity > main.Quantity {
		return nil, fmt.Errorf("cannot assign %d of %d available: %w",
			req.Quantity, main.Quantity, ErrInsufficientStock)
	}

	store, err := s.stores.FindByID(ctx, req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("store %d: %w", req.StoreID, ErrNotFound)
	}

	allStores, err := s.stores.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	candidates, err := s.products.FindVariantCandidates(ctx, main.SKU, main.Name)
	if err != nil {
		return nil, err
	}
	if resolver.VariantStoreIDs(main, candidates, allStores)[store.ID] {
		return nil, fmt.Errorf("store %d already carries %s: %w",
			store.ID, main.SKU, ErrDuplicateAssignment)
	}

	variant := &model.Product{
		Name:         main.Name,
		SKU:          resolver.VariantSKU(main, store),
		Barcode:      main.Barcode,
		Description:  main.Description,
		Category:     main.Category,
		Unit:         main.Unit,
		CostPrice:    main.CostPrice,
		Price:        main.Price,
		Quantity:     req.Quantity,
		ReorderLevel: main.ReorderLevel,
		StoreID:      &store.ID,
		Active:       true,
		ExpiryDate:   main.ExpiryDate,
	}

	resp := &dto.AssignToStoreResponse{}
	txErr := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		lockedMain, err := s.products.FindByIDLockTx(tx, main.ID)
		if err != nil {
			return fmt.Errorf("product %d: %w", main.ID, ErrNotFound)
		}
		if req.Quantity > lockedMain.Quantity {
			return fmt.Errorf("cannot assign %d of %d available: %w",
				req.Quantity, lockedMain.Quantity, ErrInsufficientStock)
		}

		if err := s.products.CreateTx(tx, variant); err != nil {
			return err
		}

		// A zero-quantity assignment creates the variant record but moves
		// no stock, so the ledger stays untouched.
		if req.Quantity > 0 {
			newMainQty := lockedMain.Quantity - req.Quantity
			if err := s.products.UpdateQuantityTx(tx, lockedMain.ID, newMainQty); err != nil {
				return err
			}
			if err := s.movements.CreateTx(tx, &model.StockMovement{
				ProductID:    lockedMain.ID,
				MovementType: model.MovementOut,
				Quantity:     req.Quantity,
				Reference:    model.RefStoreAssignment,
				Notes:        fmt.Sprintf("Assigned to store %s", store.Name),
				UserID:       actor.UserID,
			}); err != nil {
				return err
			}
			if err := s.movements.CreateTx(tx, &model.StockMovement{
				ProductID:    variant.ID,
				StoreID:      &store.ID,
				MovementType: model.MovementIn,
				Quantity:     req.Quantity,
				Reference:    model.RefStoreAssignment,
				Notes:        fmt.Sprintf("Received from %s", main.SKU),
				UserID:       actor.UserID,
			}); err != nil {
				return err
			}
			lockedMain.Quantity = newMainQty
		}

		main = lockedMain
		resp.VariantID = variant.ID
		resp.VariantSKU = variant.SKU
		resp.VariantQuantity = variant.Quantity
		resp.MainQuantity = lockedMain.Quantity
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.effects.MirrorProduct(ctx, variant)
	s.effects.MirrorProduct(ctx, main)
	s.effects.Record(ctx, audit.Entry{
		Action:      "assign_to_store",
		ProductID:   main.ID,
		SKU:         main.SKU,
		ProductName: main.Name,
		StoreID:     &store.ID,
		After:       map[string]any{"variant_id": variant.ID, "variant_sku": variant.SKU, "quantity": req.Quantity},
		UserID:      actor.UserID,
	})
	s.effects.Evaluate(ctx, variant)
	s.effects.Evaluate(ctx, main)
	s.effects.InvalidateCache(ctx)

	return resp, nil
}

// ListMovements pages through the ledger, newest first.
func (s *inventoryService) ListMovements(ctx context.Context, filter repository.MovementFilter) (*dto.MovementListResponse, error) {
	movements, total, err := s.movements.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.MovementListResponse{
		Data:  make([]dto.MovementResponse, 0, len(movements)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range movements {
		m := &movements[i]
		mr := dto.MovementResponse{
			ID:           m.ID,
			ProductID:    m.ProductID,
			StoreID:      m.StoreID,
			MovementType: m.MovementType,
			Quantity:     m.Quantity,
			Reference:    m.Reference,
			Notes:        m.Notes,
			UserID:       m.UserID,
			CreatedAt:    m.CreatedAt.Format(time.RFC3339),
		}
		if m.Product != nil {
			mr.ProductName = m.Product.Name
		}
		resp.Data = append(resp.Data, mr)
	}
	return resp, nil
}

// afterCommit runs the shared post-commit side effects for an adjustment.
func (s *inventoryService) afterCommit(ctx context.Context, actor model.Actor, action string, before, touched, touchedMain *model.Product) {
	if touched == nil {
		return
	}
	s.effects.MirrorProduct(ctx, touched)
	s.effects.MirrorProduct(ctx, touchedMain)
	entry := audit.Entry{
		Action:      action,
		ProductID:   touched.ID,
		SKU:         touched.SKU,
		ProductName: touched.Name,
		StoreID:     touched.StoreID,
		After:       map[string]any{"quantity": touched.Quantity},
		UserID:      actor.UserID,
	}
	if before != nil {
		entry.Before = map[string]any{"quantity": before.Quantity}
	}
	s.effects.Record(ctx, entry)
	s.effects.Evaluate(ctx, touched)
	s.effects.Evaluate(ctx, touchedMain)
	s.effects.InvalidateCache(ctx)
}
