package workflow

import "errors"

// Every error here is recoverable by the caller. A failed transition leaves
// the entity exactly as it was.
var (
	ErrForbidden = errors.New("forbidden: role not permitted for this action")
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict: entity was modified concurrently, retry with fresh state")

	ErrInvalidState      = errors.New("invalid state for this transition")
	ErrInvalidTransition = errors.New("invalid transition")

	// Quantity ledger
	ErrInvalidQuantity          = errors.New("invalid quantity")
	ErrQuantityExceedsRequest   = errors.New("approved quantity exceeds requested quantity")
	ErrQuantityExceedsApproval  = errors.New("disbursed quantity exceeds approved quantity")
	ErrQuantityExceedsDisbursed = errors.New("used quantity exceeds disbursed quantity")
	ErrInsufficientStock        = errors.New("insufficient stock")
	ErrReasonRequired           = errors.New("reason is required")

	// Job card
	ErrJobCardClosed       = errors.New("job card is closed")
	ErrJobCardFrozen       = errors.New("job card is frozen")
	ErrAlreadyClosed       = errors.New("job card is already closed")
	ErrAlreadyFrozen       = errors.New("job card is already frozen")
	ErrNotFrozen           = errors.New("job card is not frozen")
	ErrJobCardNotFinalized = errors.New("job card is not completed or closed")

	// Roster and timesheets
	ErrAlreadyAssigned  = errors.New("technician is already assigned")
	ErrNotAssigned      = errors.New("technician is not assigned")
	ErrInvalidRole      = errors.New("employee is not a technician")
	ErrAlreadyClockedIn = errors.New("technician is already clocked in on this job card")
	ErrNotClockedIn     = errors.New("timesheet is already clocked out")

	// Invoice and payments
	ErrInvalidInvoice       = errors.New("invalid invoice")
	ErrEmptyInvoice         = errors.New("invoice has no items")
	ErrInvalidAmount        = errors.New("payment amount must be positive")
	ErrAmountExceedsBalance = errors.New("payment amount exceeds balance due")
	ErrCannotCancelPaid     = errors.New("cannot cancel a paid invoice")
)
