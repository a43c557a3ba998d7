package workflow

import (
	"garage/internal/model"

	"github.com/google/uuid"
)

// Action names a guarded workflow command
type Action string

const (
	ActionCreateJobCard       Action = "job_card.create"
	ActionChangeJobCardStatus Action = "job_card.change_status"
	ActionFreezeJobCard       Action = "job_card.freeze"
	ActionUnfreezeJobCard     Action = "job_card.unfreeze"
	ActionCloseJobCard        Action = "job_card.close"
	ActionSetPriority         Action = "job_card.set_priority"
	ActionAssignTechnician    Action = "job_card.assign_technician"
	ActionRemoveTechnician    Action = "job_card.remove_technician"

	ActionCreateRequisition  Action = "requisition.create"
	ActionApproveRequisition Action = "requisition.approve"
	ActionDisburse           Action = "requisition.disburse"
	ActionRejectRequisition  Action = "requisition.reject"
	ActionMarkNotAvailable   Action = "requisition.not_available"
	ActionMarkUsed           Action = "requisition.mark_used"

	ActionClockIn  Action = "timesheet.clock_in"
	ActionClockOut Action = "timesheet.clock_out"

	ActionManageInvoice       Action = "invoice.manage"
	ActionAddPayment          Action = "invoice.add_payment"
	ActionUpdateInvoiceStatus Action = "invoice.update_status"

	ActionManageInventory Action = "inventory.manage"
	ActionManageEmployees Action = "employees.manage"
)

var (
	advisors   = []model.Role{model.RoleAdmin, model.RoleServiceAdvisor, model.RoleSupervisor}
	stores     = []model.Role{model.RoleAdmin, model.RoleStores}
	billing    = []model.Role{model.RoleAdmin, model.RoleServiceAdvisor}
	technician = []model.Role{model.RoleAdmin, model.RoleTechnician}
)

// permissions is the single source of truth for who may do what.
var permissions = map[Action][]model.Role{
	ActionCreateJobCard:       {model.RoleAdmin, model.RoleServiceAdvisor},
	ActionChangeJobCardStatus: {model.RoleAdmin, model.RoleServiceAdvisor, model.RoleSupervisor, model.RoleTechnician},
	ActionFreezeJobCard:       advisors,
	ActionUnfreezeJobCard:     advisors,
	ActionCloseJobCard:        advisors,
	ActionSetPriority:         advisors,
	ActionAssignTechnician:    advisors,
	ActionRemoveTechnician:    advisors,

	ActionCreateRequisition:  technician,
	ActionApproveRequisition: stores,
	ActionDisburse:           stores,
	ActionRejectRequisition:  stores,
	ActionMarkNotAvailable:   stores,
	ActionMarkUsed:           {model.RoleAdmin, model.RoleTechnician, model.RoleServiceAdvisor},

	ActionClockIn:  technician,
	ActionClockOut: technician,

	ActionManageInvoice:       billing,
	ActionAddPayment:          billing,
	ActionUpdateInvoiceStatus: billing,

	ActionManageInventory: stores,
	ActionManageEmployees: {model.RoleAdmin},
}

// Actor is the identity a command runs under
type Actor struct {
	EmployeeID uuid.UUID
	Role       model.Role
}

// Authorize returns ErrForbidden unless role may perform action.
// Unknown actions are denied.
func Authorize(role model.Role, action Action) error {
	for _, r := range permissions[action] {
		if r == role {
			return nil
		}
	}
	return ErrForbidden
}

// Allowed lists the roles permitted for action
func Allowed(action Action) []model.Role {
	roles := permissions[action]
	out := make([]model.Role, len(roles))
	copy(out, roles)
	return out
}
