package workflow

import (
	"fmt"
	"time"

	"garage/internal/model"

	"github.com/google/uuid"
)

// IsAssigned reports whether employeeID is on the card's roster
func IsAssigned(card *model.JobCard, employeeID uuid.UUID) bool {
	for _, t := range card.Technicians {
		if t.EmployeeID == employeeID {
			return true
		}
	}
	return false
}

// Assign adds a technician to the roster. The roster is a set: a second
// assignment of the same id fails with ErrAlreadyAssigned and changes nothing.
func Assign(actor Actor, card *model.JobCard, employee *model.Employee, now time.Time) (model.JobCardTechnician, error) {
	if err := Authorize(actor.Role, ActionAssignTechnician); err != nil {
		return model.JobCardTechnician{}, err
	}
	if card.State == model.JobCardClosed {
		return model.JobCardTechnician{}, ErrJobCardClosed
	}
	if IsAssigned(card, employee.ID) {
		return model.JobCardTechnician{}, ErrAlreadyAssigned
	}
	if employee.Role != model.RoleTechnician {
		return model.JobCardTechnician{}, fmt.Errorf("%w: %s is %s", ErrInvalidRole, employee.ID, employee.Role)
	}

	entry := model.JobCardTechnician{JobCardID: card.ID, EmployeeID: employee.ID, AssignedAt: now}
	card.Technicians = append(card.Technicians, entry)
	return entry, nil
}

// Remove takes a technician off the roster
func Remove(actor Actor, card *model.JobCard, employeeID uuid.UUID) error {
	if err := Authorize(actor.Role, ActionRemoveTechnician); err != nil {
		return err
	}
	if card.State == model.JobCardClosed {
		return ErrJobCardClosed
	}
	for i, t := range card.Technicians {
		if t.EmployeeID == employeeID {
			card.Technicians = append(card.Technicians[:i:i], card.Technicians[i+1:]...)
			return nil
		}
	}
	return ErrNotAssigned
}
