package repository

import (
	"context"

	"stockyard/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransferFilter defines filters for listing transfers.
type TransferFilter struct {
	StoreID uint
	Status  string
	Page    int
	Limit   int
}

type TransferRepository interface {
	CreateTx(tx *gorm.DB, t *model.Transfer) error
	FindByID(ctx context.Context, id uint) (*model.Transfer, error)
	// FindByIDLockTx locks the transfer row so concurrent confirm/cancel
	// calls serialize on the state check.
	FindByIDLockTx(tx *gorm.DB, id uint) (*model.Transfer, error)
	UpdateTx(tx *gorm.DB, t *model.Transfer) error
	List(ctx context.Context, filter TransferFilter) ([]model.Transfer, int64, error)
	DB() *gorm.DB
}

type transferRepo struct{ db *gorm.DB }

func NewTransferRepository(db *gorm.DB) TransferRepository { return &transferRepo{db: db} }

func (r *transferRepo) CreateTx(tx *gorm.DB, t *model.Transfer) error {
	return tx.Create(t).Error
}

func (r *transferRepo) FindByID(ctx context.Context, id uint) (*model.Transfer, error) {
	var t model.Transfer
	err := r.db.WithContext(ctx).First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transferRepo) FindByIDLockTx(tx *gorm.DB, id uint) (*model.Transfer, error) {
	var t model.Transfer
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *transferRepo) UpdateTx(tx *gorm.DB, t *model.Transfer) error {
	return tx.Save(t).Error
}

func (r *transferRepo) List(ctx context.Context, filter TransferFilter) ([]model.Transfer, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Transfer{}).
		Preload("Source").Preload("Dest")
	if filter.StoreID != 0 {
		q = q.Where("store_id = ?", filter.StoreID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := (page - 1) * limit

	var transfers []model.Transfer
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&transfers).Error
	return transfers, total, err
}

func (r *transferRepo) DB() *gorm.DB { return r.db }
