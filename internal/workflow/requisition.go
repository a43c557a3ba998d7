package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"garage/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Requisition edges:
//
//	Requested -> Approved | Rejected | NotAvailable
//	Approved  -> Disbursed | Rejected | NotAvailable
//	Disbursed -> Used | PartiallyUsed
//
// Every function here checks, in order: role, owning job card, source state,
// quantity bounds. Nothing is written to r unless all checks pass.

// NewRequisition builds a Requested line against card
func NewRequisition(actor Actor, card *model.JobCard, productID uuid.UUID, quantity int, unitCost decimal.Decimal, notes string) (*model.PartRequisition, error) {
	if err := Authorize(actor.Role, ActionCreateRequisition); err != nil {
		return nil, err
	}
	switch card.State {
	case model.JobCardClosed:
		return nil, ErrJobCardClosed
	case model.JobCardFrozen:
		return nil, ErrJobCardFrozen
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	if unitCost.IsNegative() {
		return nil, fmt.Errorf("%w: negative unit cost", ErrInvalidQuantity)
	}
	return &model.PartRequisition{
		JobCardID:         card.ID,
		ProductID:         productID,
		RequestedQuantity: quantity,
		Status:            model.RequisitionRequested,
		RequestedBy:       actor.EmployeeID,
		RequestedRole:     actor.Role,
		Notes:             strings.TrimSpace(notes),
		UnitCost:          unitCost,
	}, nil
}

func guardProgress(actor Actor, action Action, card *model.JobCard, r *model.PartRequisition, from ...model.RequisitionStatus) error {
	if err := Authorize(actor.Role, action); err != nil {
		return err
	}
	if card.ID != r.JobCardID {
		return fmt.Errorf("%w: requisition %s does not belong to job card %s", ErrInvalidState, r.ID, card.ID)
	}
	if card.State == model.JobCardClosed {
		return ErrJobCardClosed
	}
	for _, s := range from {
		if r.Status == s {
			return nil
		}
	}
	return fmt.Errorf("%w: requisition is %s", ErrInvalidState, r.Status)
}

// Approve moves Requested -> Approved with approved <= requested
func Approve(actor Actor, card *model.JobCard, r *model.PartRequisition, quantity int, notes string, now time.Time) error {
	if err := guardProgress(actor, ActionApproveRequisition, card, r, model.RequisitionRequested); err != nil {
		return err
	}
	if err := checkQuantity(quantity, r.RequestedQuantity, ErrQuantityExceedsRequest); err != nil {
		return err
	}

	r.ApprovedQuantity = quantity
	r.Status = model.RequisitionApproved
	r.ApprovedBy = &actor.EmployeeID
	r.ApprovedAt = &now
	r.Notes = appendNote(r.Notes, notes)
	return nil
}

// Disburse moves Approved -> Disbursed with disbursed <= approved.
// The caller must decrement product stock in the same transaction.
func Disburse(actor Actor, card *model.JobCard, r *model.PartRequisition, quantity int, notes string, now time.Time) error {
	if err := guardProgress(actor, ActionDisburse, card, r, model.RequisitionApproved); err != nil {
		// a second disbursement on the same line counts against the approval
		if errors.Is(err, ErrInvalidState) && r.DisbursedQuantity > 0 {
			return fmt.Errorf("%w: %d of %d already disbursed", ErrQuantityExceedsApproval, r.DisbursedQuantity, r.ApprovedQuantity)
		}
		return err
	}
	if err := checkQuantity(quantity, r.ApprovedQuantity, ErrQuantityExceedsApproval); err != nil {
		return err
	}

	r.DisbursedQuantity = quantity
	r.Status = model.RequisitionDisbursed
	r.DisbursedBy = &actor.EmployeeID
	r.DisbursedAt = &now
	r.Notes = appendNote(r.Notes, notes)
	return nil
}

// MarkUsed resolves a Disbursed line to Used (all fitted) or PartiallyUsed.
// Both are terminal; remaining need goes on a new requisition.
func MarkUsed(actor Actor, card *model.JobCard, r *model.PartRequisition, quantity int, notes string, now time.Time) error {
	if err := guardProgress(actor, ActionMarkUsed, card, r, model.RequisitionDisbursed); err != nil {
		return err
	}
	if err := checkQuantity(quantity, r.DisbursedQuantity, ErrQuantityExceedsDisbursed); err != nil {
		return err
	}

	status := model.RequisitionPartiallyUsed
	if quantity == r.DisbursedQuantity {
		status = model.RequisitionUsed
	}
	r.UsedQuantity = quantity
	r.Status = status
	r.UsedAt = &now
	r.Notes = appendNote(r.Notes, notes)
	total, _ := TotalCost(r)
	r.TotalCost = decimal.NewNullDecimal(total)
	return nil
}

// Reject terminates a Requested or Approved line
func Reject(actor Actor, card *model.JobCard, r *model.PartRequisition, reason string) error {
	return terminate(actor, ActionRejectRequisition, card, r, reason, model.RequisitionRejected)
}

// MarkNotAvailable terminates a Requested or Approved line when stock cannot cover it
func MarkNotAvailable(actor Actor, card *model.JobCard, r *model.PartRequisition, reason string) error {
	return terminate(actor, ActionMarkNotAvailable, card, r, reason, model.RequisitionNotAvailable)
}

func terminate(actor Actor, action Action, card *model.JobCard, r *model.PartRequisition, reason string, to model.RequisitionStatus) error {
	if err := guardProgress(actor, action, card, r, model.RequisitionRequested, model.RequisitionApproved); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	r.Status = to
	r.RejectionReason = &reason
	return nil
}

func appendNote(existing, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return existing
	}
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}
