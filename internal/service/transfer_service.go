package service

import (
	"context"
	"fmt"
	"time"

	"stockyard/internal/audit"
	"stockyard/internal/dto"
	"stockyard/internal/model"
	"stockyard/internal/repository"
	"stockyard/internal/resolver"

	"gorm.io/gorm"
)

// TransferService is the two-state workflow moving stock from the warehouse
// (main product) into a store variant with deferred confirmation:
// pending → completed | cancelled, nothing else. Transfers move quantity
// between the two rows explicitly, so they never go through the cascade
// updater — the hierarchy invariant is preserved by construction.
type TransferService interface {
	Initiate(ctx context.Context, actor model.Actor, req dto.InitiateTransferRequest) (*dto.TransferResponse, error)
	Confirm(ctx context.Context, actor model.Actor, transferID uint) (*dto.TransferResponse, error)
	Cancel(ctx context.Context, actor model.Actor, transferID uint) (*dto.TransferResponse, error)
	Get(ctx context.Context, transferID uint) (*dto.TransferResponse, error)
	List(ctx context.Context, q dto.TransferFilterQuery) (*dto.TransferListResponse, error)
}

type transferService struct {
	transfers repository.TransferRepository
	products  repository.ProductRepository
	movements repository.MovementRepository
	stores    repository.StoreRepository
	effects   *SideEffects
}

func NewTransferService(
	transfers repository.TransferRepository,
	products repository.ProductRepository,
	movements repository.MovementRepository,
	stores repository.StoreRepository,
	effects *SideEffects,
) TransferService {
	return &transferService{
		transfers: transfers,
		products:  products,
		movements: movements,
		stores:    stores,
		effects:   effects,
	}
}

// Initiate reserves warehouse stock: the source quantity is decremented
// immediately and the transfer sits in pending until confirmed or cancelled.
func (s *transferService) Initiate(ctx context.Context, actor model.Actor, req dto.InitiateTransferRequest) (*dto.TransferResponse, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("transfer quantity %d: %w", req.Quantity, ErrInvalidInput)
	}

	dest, err := s.products.FindByID(ctx, req.DestProductID)
	if err != nil || !dest.Live() {
		return nil, fmt.Errorf("destination product %d: %w", req.DestProductID, ErrNotFound)
	}
	if dest.IsMain() {
		return nil, fmt.Errorf("destination product %d is not a store variant: %w",
			dest.ID, ErrInvalidInput)
	}

	allStores, err := s.stores.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	// Legacy variants may carry the main SKU verbatim (no suffix), so a
	// failed strip still leaves a usable warehouse SKU.
	baseSKU, _ := resolver.BaseSKU(dest.SKU, allStores)
	if baseSKU == "" {
		return nil, fmt.Errorf("cannot derive warehouse SKU from %s: %w", dest.SKU, ErrInvalidInput)
	}
	source, err := s.products.FindMainBySKU(ctx, baseSKU)
	if err != nil {
		return nil, fmt.Errorf("warehouse product for %s: %w", baseSKU, ErrNotFound)
	}
	if source.Quantity < req.Quantity {
		return nil, fmt.Errorf("warehouse has %d of %s, requested %d: %w",
			source.Quantity, source.SKU, req.Quantity, ErrInsufficientStock)
	}

	transfer := &model.Transfer{
		SourceProductID: source.ID,
		DestProductID:   dest.ID,
		StoreID:         *dest.StoreID,
		Quantity:        req.Quantity,
		Status:          model.TransferPending,
		CreatedBy:       actor.UserID,
	}

	txErr := runTx(ctx, s.transfers.DB(), func(tx *gorm.DB) error {
		lockedSource, err := s.products.FindByIDLockTx(tx, source.ID)
		if err != nil {
			return fmt.Errorf("product %d: %w", source.ID, ErrNotFound)
		}
		if lockedSource.Quantity < req.Quantity {
			return fmt.Errorf("warehouse has %d of %s, requested %d: %w",
				lockedSource.Quantity, lockedSource.SKU, req.Quantity, ErrInsufficientStock)
		}

		newQty := lockedSource.Quantity - req.Quantity
		if err := s.products.UpdateQuantityTx(tx, lockedSource.ID, newQty); err != nil {
			return err
		}
		if err := s.transfers.CreateTx(tx, transfer); err != nil {
			return err
		}
		if err := s.movements.CreateTx(tx, &model.StockMovement{
			ProductID:    lockedSource.ID,
			MovementType: model.MovementTransfer,
			Quantity:     req.Quantity,
			Reference:    fmt.Sprintf("Transfer #%d initiated", transfer.ID),
			Notes:        fmt.Sprintf("Reserved for %s", dest.SKU),
			UserID:       actor.UserID,
		}); err != nil {
			return err
		}

		lockedSource.Quantity = newQty
		source = lockedSource
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.effects.MirrorTransfer(ctx, transfer)
	s.effects.MirrorProduct(ctx, source)
	s.effects.Record(ctx, audit.Entry{
		Action:      "transfer_initiate",
		ProductID:   source.ID,
		SKU:         source.SKU,
		ProductName: source.Name,
		StoreID:     dest.StoreID,
		After:       map[string]any{"transfer_id": transfer.ID, "quantity": req.Quantity},
		UserID:      actor.UserID,
	})
	s.effects.Evaluate(ctx, source)
	s.effects.InvalidateCache(ctx)

	resp := toTransferResponse(transfer)
	return &resp, nil
}

// Confirm completes a pending transfer: the store variant receives the
// reserved quantity. Terminal transfers reject with InvalidState.
func (s *transferService) Confirm(ctx context.Context, actor model.Actor, transferID uint) (*dto.TransferResponse, error) {
	var transfer *model.Transfer
	var dest *model.Product

	txErr := runTx(ctx, s.transfers.DB(), func(tx *gorm.DB) error {
		t, err := s.transfers.FindByIDLockTx(tx, transferID)
		if err != nil {
			return fmt.Errorf("transfer %d: %w", transferID, ErrNotFound)
		}
		if t.Status != model.TransferPending {
			return fmt.Errorf("transfer %d is %s: %w", t.ID, t.Status, ErrInvalidState)
		}

		d, err := s.products.FindByIDLockTx(tx, t.DestProductID)
		if err != nil {
			return fmt.Errorf("destination product %d: %w", t.DestProductID, ErrNotFound)
		}
		// Destination deleted or deactivated while the transfer was in
		// flight: refuse to credit it. Cancel is the escape hatch.
		if !d.Live() {
			return fmt.Errorf("destination product %d is no longer live: %w", d.ID, ErrInvalidState)
		}

		newQty := d.Quantity + t.Quantity
		if err := s.products.UpdateQuantityTx(tx, d.ID, newQty); err != nil {
			return err
		}
		if err := s.movements.CreateTx(tx, &model.StockMovement{
			ProductID:    d.ID,
			StoreID:      d.StoreID,
			MovementType: model.MovementTransfer,
			Quantity:     t.Quantity,
			Reference:    fmt.Sprintf("Transfer #%d received", t.ID),
			UserID:       actor.UserID,
		}); err != nil {
			return err
		}

		now := time.Now()
		t.Status = model.TransferCompleted
		t.ReceivedAt = &now
		t.ReceivedBy = &actor.UserID
		if err := s.transfers.UpdateTx(tx, t); err != nil {
			return err
		}

		d.Quantity = newQty
		transfer, dest = t, d
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.effects.MirrorTransfer(ctx, transfer)
	s.effects.MirrorProduct(ctx, dest)
	s.effects.Record(ctx, audit.Entry{
		Action:      "transfer_confirm",
		ProductID:   dest.ID,
		SKU:         dest.SKU,
		ProductName: dest.Name,
		StoreID:     dest.StoreID,
		After:       map[string]any{"transfer_id": transfer.ID, "quantity": transfer.Quantity},
		UserID:      actor.UserID,
	})
	s.effects.Evaluate(ctx, dest)
	s.effects.InvalidateCache(ctx)

	resp := toTransferResponse(transfer)
	return &resp, nil
}

// Cancel undoes the reservation: the warehouse gets its quantity back.
func (s *transferService) Cancel(ctx context.Context, actor model.Actor, transferID uint) (*dto.TransferResponse, error) {
	var transfer *model.Transfer
	var source *model.Product

	txErr := runTx(ctx, s.transfers.DB(), func(tx *gorm.DB) error {
		t, err := s.transfers.FindByIDLockTx(tx, transferID)
		if err != nil {
			return fmt.Errorf("transfer %d: %w", transferID, ErrNotFound)
		}
		if t.Status != model.TransferPending {
			return fmt.Errorf("transfer %d is %s: %w", t.ID, t.Status, ErrInvalidState)
		}

		src, err := s.products.FindByIDLockTx(tx, t.SourceProductID)
		if err != nil {
			return fmt.Errorf("source product %d: %w", t.SourceProductID, ErrNotFound)
		}

		newQty := src.Quantity + t.Quantity
		if err := s.products.UpdateQuantityTx(tx, src.ID, newQty); err != nil {
			return err
		}
		if err := s.movements.CreateTx(tx, &model.StockMovement{
			ProductID:    src.ID,
			MovementType: model.MovementTransfer,
			Quantity:     t.Quantity,
			Reference:    fmt.Sprintf("Transfer #%d cancelled", t.ID),
			Notes:        "Reservation restored",
			UserID:       actor.UserID,
		}); err != nil {
			return err
		}

		t.Status = model.TransferCancelled
		if err := s.transfers.UpdateTx(tx, t); err != nil {
			return err
		}

		src.Quantity = newQty
		transfer, source = t, src
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.effects.MirrorTransfer(ctx, transfer)
	s.effects.MirrorProduct(ctx, source)
	s.effects.Record(ctx, audit.Entry{
		Action:      "transfer_cancel",
		ProductID:   source.ID,
		SKU:         source.SKU,
		ProductName: source.Name,
		After:       map[string]any{"transfer_id": transfer.ID, "quantity": transfer.Quantity},
		UserID:      actor.UserID,
	})
	s.effects.Evaluate(ctx, source)
	s.effects.InvalidateCache(ctx)

	resp := toTransferResponse(transfer)
	return &resp, nil
}

func (s *transferService) Get(ctx context.Context, transferID uint) (*dto.TransferResponse, error) {
	t, err := s.transfers.FindByID(ctx, transferID)
	if err != nil {
		return nil, fmt.Errorf("transfer %d: %w", transferID, ErrNotFound)
	}
	resp := toTransferResponse(t)
	return &resp, nil
}

func (s *transferService) List(ctx context.Context, q dto.TransferFilterQuery) (*dto.TransferListResponse, error) {
	transfers, total, err := s.transfers.List(ctx, repository.TransferFilter{
		StoreID: q.StoreID,
		Status:  q.Status,
		Page:    q.Page,
		Limit:   q.Limit,
	})
	if err != nil {
		return nil, err
	}
	resp := &dto.TransferListResponse{
		Data:  make([]dto.TransferResponse, 0, len(transfers)),
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
	}
	for i := range transfers {
		resp.Data = append(resp.Data, toTransferResponse(&transfers[i]))
	}
	return resp, nil
}

func toTransferResponse(t *model.Transfer) dto.TransferResponse {
	resp := dto.TransferResponse{
		ID:              t.ID,
		SourceProductID: t.SourceProductID,
		DestProductID:   t.DestProductID,
		StoreID:         t.StoreID,
		Quantity:        t.Quantity,
		Status:          t.Status,
		CreatedBy:       t.CreatedBy,
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
		ReceivedBy:      t.ReceivedBy,
	}
	if t.ReceivedAt != nil {
		resp.ReceivedAt = t.ReceivedAt.Format(time.RFC3339)
	}
	return resp
}
