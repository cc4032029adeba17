package repository

import (
	"context"

	"stockyard/internal/model"

	"gorm.io/gorm"
)

// StoreRepository reads retail locations. Stores are managed by the
// surrounding system; this core only consumes them.
type StoreRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Store, error)
	ListActive(ctx context.Context) ([]model.Store, error)
}

type storeRepo struct{ db *gorm.DB }

func NewStoreRepository(db *gorm.DB) StoreRepository { return &storeRepo{db: db} }

func (r *storeRepo) FindByID(ctx context.Context, id uint) (*model.Store, error) {
	var s model.Store
	err := r.db.WithContext(ctx).First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *storeRepo) ListActive(ctx context.Context) ([]model.Store, error) {
	var stores []model.Store
	err := r.db.WithContext(ctx).Where("active = true").Order("id ASC").Find(&stores).Error
	return stores, err
}
