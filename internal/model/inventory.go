package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a part held in the stores
type Product struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SKU          string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name         string          `gorm:"type:varchar(255);not null" json:"name"`
	CurrentStock int             `gorm:"type:int;default:0;not null" json:"current_stock"`
	Price        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// TransactionType Enum Simulation
const (
	TxTypeIn  = "IN"
	TxTypeOut = "OUT"
)

// InventoryTransaction records every stock movement. Receipts are IN,
// requisition disbursements are OUT.
type InventoryTransaction struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	RequisitionID   *uuid.UUID `gorm:"type:uuid;index" json:"requisition_id"`             // Nullable for receipts
	TransactionType string     `gorm:"type:varchar(10);not null" json:"transaction_type"` // IN, OUT
	QuantityChanged int        `gorm:"type:int;not null" json:"quantity_changed"`
	StockAfter      int        `gorm:"type:int;not null" json:"stock_after"`
	Note            string     `gorm:"type:text" json:"note"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (t *InventoryTransaction) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
