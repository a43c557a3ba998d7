package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RequisitionStatus is the lifecycle state of a part requisition line
type RequisitionStatus string

const (
	RequisitionRequested     RequisitionStatus = "REQUESTED"
	RequisitionApproved      RequisitionStatus = "APPROVED"
	RequisitionDisbursed     RequisitionStatus = "DISBURSED"
	RequisitionUsed          RequisitionStatus = "USED"
	RequisitionPartiallyUsed RequisitionStatus = "PARTIALLY_USED"
	RequisitionNotAvailable  RequisitionStatus = "NOT_AVAILABLE"
	RequisitionRejected      RequisitionStatus = "REJECTED"
)

// Terminal reports whether no further transition is possible
func (s RequisitionStatus) Terminal() bool {
	switch s {
	case RequisitionUsed, RequisitionPartiallyUsed, RequisitionNotAvailable, RequisitionRejected:
		return true
	}
	return false
}

// Consumed reports whether the line has resolved to parts actually fitted
func (s RequisitionStatus) Consumed() bool {
	return s == RequisitionUsed || s == RequisitionPartiallyUsed
}

// PartRequisition asks the stores for a quantity of one product against a job card.
// Requested >= Approved >= Disbursed >= Used >= 0 holds for every committed row.
type PartRequisition struct {
	ID                uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	JobCardID         uuid.UUID           `gorm:"type:uuid;not null;index" json:"job_card_id"`
	ProductID         uuid.UUID           `gorm:"type:uuid;not null;index" json:"product_id"`
	Product           *Product            `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	RequestedQuantity int                 `gorm:"type:int;not null" json:"requested_quantity"`
	ApprovedQuantity  int                 `gorm:"type:int;not null;default:0" json:"approved_quantity"`
	DisbursedQuantity int                 `gorm:"type:int;not null;default:0" json:"disbursed_quantity"`
	UsedQuantity      int                 `gorm:"type:int;not null;default:0" json:"used_quantity"`
	Status            RequisitionStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	RequestedBy       uuid.UUID           `gorm:"type:uuid;not null;index" json:"requested_by"`
	RequestedRole     Role                `gorm:"type:varchar(30);not null" json:"requested_role"`
	Notes             string              `gorm:"type:text" json:"notes"`
	RejectionReason   *string             `gorm:"type:text" json:"rejection_reason"`
	UnitCost          decimal.Decimal     `gorm:"type:decimal(18,4);not null" json:"unit_cost"`
	TotalCost         decimal.NullDecimal `gorm:"type:decimal(18,4)" json:"total_cost"` // Set once Used/PartiallyUsed
	ApprovedBy        *uuid.UUID          `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt        *time.Time          `json:"approved_at"`
	DisbursedBy       *uuid.UUID          `gorm:"type:uuid" json:"disbursed_by"`
	DisbursedAt       *time.Time          `json:"disbursed_at"`
	UsedAt            *time.Time          `json:"used_at"`
	Version           int64               `gorm:"not null;default:1" json:"version"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func (r *PartRequisition) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	if r.Version == 0 {
		r.Version = 1
	}
	return nil
}
