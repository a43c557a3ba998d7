package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus enum
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "DRAFT"
	InvoiceSent      InvoiceStatus = "SENT"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceOverdue   InvoiceStatus = "OVERDUE"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

// ItemType classifies invoice lines
type ItemType string

const (
	ItemLabor  ItemType = "LABOR"
	ItemPart   ItemType = "PART"
	ItemSublet ItemType = "SUBLET"
	ItemOther  ItemType = "OTHER"
)

func (t ItemType) Valid() bool {
	switch t {
	case ItemLabor, ItemPart, ItemSublet, ItemOther:
		return true
	}
	return false
}

// Invoice bills a client, optionally for a job card.
// Amounts are never stored: they are derived from items, rates and payments on every read.
type Invoice struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceNo          string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_no"`
	JobCardID          *uuid.UUID      `gorm:"type:uuid;index" json:"job_card_id"`
	ClientID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"client_id"`
	VehicleID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	TaxRate            decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"tax_rate"`            // percent, 15 = 15%
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"discount_percentage"` // percent
	Status             InvoiceStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	DueDate            *time.Time      `gorm:"index" json:"due_date"`
	Notes              string          `gorm:"type:text" json:"notes"`
	Items              []InvoiceItem   `gorm:"foreignKey:InvoiceID" json:"items"`
	Payments           []Payment       `gorm:"foreignKey:InvoiceID" json:"payments"`
	SentAt             *time.Time      `json:"sent_at"`
	PaidAt             *time.Time      `json:"paid_at"`
	CancelledAt        *time.Time      `json:"cancelled_at"`
	Version            int64           `gorm:"not null;default:1" json:"version"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	if i.Version == 0 {
		i.Version = 1
	}
	return nil
}

// InvoiceItem is one billed line. Position keeps the caller's ordering.
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Position    int             `gorm:"type:int;not null" json:"position"`
	Description string          `gorm:"type:varchar(255);not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	ItemType    ItemType        `gorm:"type:varchar(20);not null" json:"item_type"`
}

func (i *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// Payment is one amount received against an invoice
type Payment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Method    string          `gorm:"type:varchar(30);not null" json:"method"`
	PaidAt    time.Time       `gorm:"not null" json:"paid_at"`
	Notes     string          `gorm:"type:text" json:"notes"`
	CreatedBy uuid.UUID       `gorm:"type:uuid" json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
