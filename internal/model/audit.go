package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateJobCard       = "CREATE_JOB_CARD"
	ActionChangeJobCardStatus = "CHANGE_JOB_CARD_STATUS"
	ActionFreezeJobCard       = "FREEZE_JOB_CARD"
	ActionUnfreezeJobCard     = "UNFREEZE_JOB_CARD"
	ActionCloseJobCard        = "CLOSE_JOB_CARD"
	ActionSetPriority         = "SET_JOB_CARD_PRIORITY"
	ActionAssignTechnician    = "ASSIGN_TECHNICIAN"
	ActionRemoveTechnician    = "REMOVE_TECHNICIAN"

	// Requisition workflow actions
	ActionCreateRequisition   = "CREATE_REQUISITION"
	ActionApproveRequisition  = "APPROVE_REQUISITION"
	ActionDisburseRequisition = "DISBURSE_REQUISITION"
	ActionUseRequisition      = "USE_REQUISITION"
	ActionRejectRequisition   = "REJECT_REQUISITION"
	ActionMarkNotAvailable    = "REQUISITION_NOT_AVAILABLE"

	ActionClockIn  = "CLOCK_IN"
	ActionClockOut = "CLOCK_OUT"

	ActionCreateInvoice       = "CREATE_INVOICE"
	ActionReplaceInvoiceItems = "REPLACE_INVOICE_ITEMS"
	ActionUpdateInvoiceStatus = "UPDATE_INVOICE_STATUS"
	ActionAddPayment          = "ADD_PAYMENT"
	ActionMarkOverdue         = "MARK_INVOICE_OVERDUE"

	ActionCreateProduct  = "CREATE_PRODUCT"
	ActionReceiveStock   = "RECEIVE_STOCK"
	ActionCreateEmployee = "CREATE_EMPLOYEE"
)

// AuditLog tracks Who, What, and When for every committed transition
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeID *uuid.UUID `gorm:"type:uuid;index" json:"employee_id"` // Nil for the scheduler
	Employee   *Employee  `gorm:"foreignKey:EmployeeID" json:"employee"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:text" json:"details"` // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
