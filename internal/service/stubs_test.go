package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"stockyard/internal/dto"
	"stockyard/internal/mirror"
	"stockyard/internal/model"
	"stockyard/internal/repository"

	"gorm.io/gorm"
)

// In-memory stubs backing the service unit tests. DB() returns nil so runTx
// executes callbacks directly, without a relational store.

type stubProductRepo struct {
	products map[uint]*model.Product
	nextID   uint
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: map[uint]*model.Product{}, nextID: 1}
}

func (r *stubProductRepo) add(p *model.Product) *model.Product {
	if p.ID == 0 {
		p.ID = r.nextID
	}
	if p.ID >= r.nextID {
		r.nextID = p.ID + 1
	}
	cp := *p
	r.products[cp.ID] = &cp
	return &cp
}

func (r *stubProductRepo) get(id uint) *model.Product { return r.products[id] }

func (r *stubProductRepo) Create(ctx context.Context, p *model.Product) error {
	return r.CreateTx(nil, p)
}

func (r *stubProductRepo) CreateTx(tx *gorm.DB, p *model.Product) error {
	p.ID = r.nextID
	r.nextID++
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	r.products[cp.ID] = &cp
	return nil
}

func (r *stubProductRepo) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	for _, p := range r.products {
		if p.Barcode == barcode && p.Live() {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.DeletedAt != nil || !p.Active {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(ctx context.Context, p *model.Product) error {
	cp := *p
	r.products[cp.ID] = &cp
	return nil
}

func (r *stubProductRepo) FindMainBySKU(ctx context.Context, sku string) (*model.Product, error) {
	for _, p := range r.products {
		if p.IsMain() && p.Live() && strings.EqualFold(p.SKU, sku) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) FindMainBySKULockTx(tx *gorm.DB, sku string) (*model.Product, error) {
	return r.FindMainBySKU(context.Background(), sku)
}

func (r *stubProductRepo) FindVariantCandidates(ctx context.Context, baseSKU, name string) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.StoreID == nil || !p.Live() {
			continue
		}
		if strings.HasPrefix(strings.ToUpper(p.SKU), strings.ToUpper(baseSKU)) ||
			strings.EqualFold(p.Name, name) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubProductRepo) FindCascadeFamily(ctx context.Context, sku string) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.Live() && strings.HasPrefix(p.SKU, sku+"-S") {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubProductRepo) FindLive(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.Live() {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubProductRepo) FindByIDLockTx(tx *gorm.DB, id uint) (*model.Product, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductRepo) UpdateQuantityTx(tx *gorm.DB, id uint, quantity int) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Quantity = quantity
	p.UpdatedAt = time.Now()
	return nil
}

func (r *stubProductRepo) SoftDeleteTx(tx *gorm.DB, id uint) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	p.DeletedAt = &now
	p.Active = false
	return nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

type stubMovementRepo struct {
	movements []model.StockMovement
}

func (r *stubMovementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	m.ID = uint(len(r.movements) + 1)
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if filter.ProductID != 0 && m.ProductID != filter.ProductID {
			continue
		}
		if filter.MovementType != "" && m.MovementType != filter.MovementType {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

// forProduct returns the ledger rows of one product, oldest first.
func (r *stubMovementRepo) forProduct(id uint) []model.StockMovement {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ProductID == id {
			out = append(out, m)
		}
	}
	return out
}

type stubTransferRepo struct {
	transfers map[uint]*model.Transfer
	nextID    uint
}

func newStubTransferRepo() *stubTransferRepo {
	return &stubTransferRepo{transfers: map[uint]*model.Transfer{}, nextID: 1}
}

func (r *stubTransferRepo) get(id uint) *model.Transfer { return r.transfers[id] }

func (r *stubTransferRepo) CreateTx(tx *gorm.DB, t *model.Transfer) error {
	t.ID = r.nextID
	r.nextID++
	t.CreatedAt = time.Now()
	cp := *t
	r.transfers[cp.ID] = &cp
	return nil
}

func (r *stubTransferRepo) FindByID(ctx context.Context, id uint) (*model.Transfer, error) {
	t, ok := r.transfers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *stubTransferRepo) FindByIDLockTx(tx *gorm.DB, id uint) (*model.Transfer, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubTransferRepo) UpdateTx(tx *gorm.DB, t *model.Transfer) error {
	cp := *t
	r.transfers[cp.ID] = &cp
	return nil
}

func (r *stubTransferRepo) List(ctx context.Context, filter repository.TransferFilter) ([]model.Transfer, int64, error) {
	var out []model.Transfer
	for _, t := range r.transfers {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.StoreID != 0 && t.StoreID != filter.StoreID {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *stubTransferRepo) DB() *gorm.DB { return nil }

type stubStoreRepo struct {
	stores []model.Store
}

func (r *stubStoreRepo) FindByID(ctx context.Context, id uint) (*model.Store, error) {
	for _, s := range r.stores {
		if s.ID == id {
			cp := s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubStoreRepo) ListActive(ctx context.Context) ([]model.Store, error) {
	var out []model.Store
	for _, s := range r.stores {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

// fakeDocStore is an in-memory mirror.DocStore. Setting failErr makes every
// call fail, for degraded-path tests.
type fakeDocStore struct {
	collections map[string]map[string][]byte
	failErr     error
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{collections: map[string]map[string][]byte{}}
}

func (f *fakeDocStore) UpsertDoc(ctx context.Context, collection, id string, payload any) error {
	if f.failErr != nil {
		return f.failErr
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if f.collections[collection] == nil {
		f.collections[collection] = map[string][]byte{}
	}
	f.collections[collection][id] = data
	return nil
}

func (f *fakeDocStore) ReadDoc(ctx context.Context, collection, id string, dest any) error {
	if f.failErr != nil {
		return f.failErr
	}
	data, ok := f.collections[collection][id]
	if !ok {
		return mirror.ErrDocNotFound
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeDocStore) ListDocs(ctx context.Context, collection string) (map[string][]byte, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	out := map[string][]byte{}
	for id, data := range f.collections[collection] {
		out[id] = data
	}
	return out, nil
}

func (f *fakeDocStore) alert(id string) (*model.Alert, error) {
	var a model.Alert
	if err := f.ReadDoc(context.Background(), mirror.CollectionAlerts, id, &a); err != nil {
		return nil, fmt.Errorf("alert %s: %w", id, err)
	}
	return &a, nil
}

func uintPtr(v uint) *uint { return &v }

var testActor = model.Actor{UserID: 7, Username: "tester"}
