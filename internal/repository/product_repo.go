package repository

import (
	"context"

	"stockyard/internal/dto"
	"stockyard/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error)
	Update(ctx context.Context, p *model.Product) error

	// FindMainBySKU returns the live main product (store_id IS NULL) whose
	// SKU matches case-insensitively.
	FindMainBySKU(ctx context.Context, sku string) (*model.Product, error)

	// FindVariantCandidates returns live store-level rows that could be
	// variants of the given base SKU / name. The resolver applies the exact
	// rule list on top; this only narrows the scan.
	FindVariantCandidates(ctx context.Context, baseSKU, name string) ([]model.Product, error)

	// FindCascadeFamily returns live rows whose SKU matches the canonical
	// destructive-cascade pattern "<sku>-S%".
	FindCascadeFamily(ctx context.Context, sku string) ([]model.Product, error)

	// FindLive returns every active, non-deleted row. Used by the alert
	// sweep, which re-derives alert state from current product snapshots.
	FindLive(ctx context.Context) ([]model.Product, error)

	// Transactional variants — callers must pass the tx instance. Lock
	// methods take a FOR UPDATE row lock, serializing cascade recomputation
	// per base SKU.
	CreateTx(tx *gorm.DB, p *model.Product) error
	FindByIDLockTx(tx *gorm.DB, id uint) (*model.Product, error)
	FindMainBySKULockTx(tx *gorm.DB, sku string) (*model.Product, error)
	UpdateQuantityTx(tx *gorm.DB, id uint, quantity int) error
	SoftDeleteTx(tx *gorm.DB, id uint) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Where("barcode = ? AND active = true AND deleted_at IS NULL", barcode).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("deleted_at IS NULL")

	// Active filter: "false" = inactive, "all" = everything, default = active
	switch filter.Active {
	case "false":
		q = q.Where("active = false")
	case "all":
		// no filter
	default:
		q = q.Where("active = true")
	}

	if filter.SKU != "" {
		q = q.Where("UPPER(sku) = UPPER(?)", filter.SKU)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	switch filter.Scope {
	case "main":
		q = q.Where("store_id IS NULL")
	case "store":
		q = q.Where("store_id IS NOT NULL")
	}
	if filter.StoreID != 0 {
		q = q.Where("store_id = ?", filter.StoreID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&products).Error
	return products, total, err
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) FindMainBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Where("UPPER(sku) = UPPER(?) AND store_id IS NULL AND active = true AND deleted_at IS NULL", sku).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindVariantCandidates(ctx context.Context, baseSKU, name string) ([]model.Product, error) {
	return r.findVariantCandidates(r.db.WithContext(ctx), baseSKU, name)
}

func (r *productRepo) FindCascadeFamily(ctx context.Context, sku string) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("sku LIKE ? AND active = true AND deleted_at IS NULL", sku+"-S%").
		Find(&products).Error
	return products, err
}

func (r *productRepo) FindLive(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("active = true AND deleted_at IS NULL").
		Find(&products).Error
	return products, err
}

func (r *productRepo) CreateTx(tx *gorm.DB, p *model.Product) error {
	return tx.Create(p).Error
}

func (r *productRepo) FindByIDLockTx(tx *gorm.DB, id uint) (*model.Product, error) {
	var p model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindMainBySKULockTx(tx *gorm.DB, sku string) (*model.Product, error) {
	var p model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("UPPER(sku) = UPPER(?) AND store_id IS NULL AND active = true AND deleted_at IS NULL", sku).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) findVariantCandidates(q *gorm.DB, baseSKU, name string) ([]model.Product, error) {
	var products []model.Product
	err := q.
		Where("store_id IS NOT NULL AND active = true AND deleted_at IS NULL").
		Where("sku ILIKE ? OR LOWER(name) = LOWER(?)", baseSKU+"%", name).
		Find(&products).Error
	return products, err
}

func (r *productRepo) UpdateQuantityTx(tx *gorm.DB, id uint, quantity int) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).
		Update("quantity", quantity).Error
}

func (r *productRepo) SoftDeleteTx(tx *gorm.DB, id uint) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted_at": gorm.Expr("NOW()"),
			"active":     false,
		}).Error
}

func (r *productRepo) DB() *gorm.DB { return r.db }
