package repository

import (
	"context"

	"garage/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InventoryTxRepository interface {
	Create(ctx context.Context, tx *model.InventoryTransaction) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.InventoryTransaction, error)
}

type inventoryTxRepository struct {
	db *gorm.DB
}

func NewInventoryTxRepository(db *gorm.DB) InventoryTxRepository {
	return &inventoryTxRepository{db: db}
}

func (r *inventoryTxRepository) Create(ctx context.Context, tx *model.InventoryTransaction) error {
	return GetDB(ctx, r.db).Create(tx).Error
}

func (r *inventoryTxRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.InventoryTransaction, error) {
	var txs []model.InventoryTransaction
	if err := GetDB(ctx, r.db).Where("product_id = ?", productID).Order("created_at asc").Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}
