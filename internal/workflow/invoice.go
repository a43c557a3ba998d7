package workflow

import (
	"fmt"
	"strings"
	"time"

	"garage/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentPolicy carries the deployment's payment rules
type PaymentPolicy struct {
	AllowOverpayment bool
	Epsilon          decimal.Decimal
}

func (p PaymentPolicy) epsilon() decimal.Decimal {
	if p.Epsilon.IsPositive() {
		return p.Epsilon
	}
	return DefaultEpsilon
}

// ValidateInvoiceInput checks lines and rates before they are stored
func ValidateInvoiceInput(items []model.InvoiceItem, taxRate, discountPercentage decimal.Decimal) error {
	if !inPercentRange(taxRate) {
		return fmt.Errorf("%w: tax rate %s outside [0,100]", ErrInvalidInvoice, taxRate)
	}
	if !inPercentRange(discountPercentage) {
		return fmt.Errorf("%w: discount %s outside [0,100]", ErrInvalidInvoice, discountPercentage)
	}
	for i, it := range items {
		if strings.TrimSpace(it.Description) == "" {
			return fmt.Errorf("%w: item %d has no description", ErrInvalidInvoice, i)
		}
		if !it.Quantity.IsPositive() {
			return fmt.Errorf("%w: item %d quantity must be positive", ErrInvalidInvoice, i)
		}
		if it.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: item %d unit price is negative", ErrInvalidInvoice, i)
		}
		if !it.ItemType.Valid() {
			return fmt.Errorf("%w: item %d has unknown type %q", ErrInvalidInvoice, i, it.ItemType)
		}
	}
	return nil
}

func inPercentRange(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(hundred)
}

// ReplaceItems swaps the lines of a Draft invoice
func ReplaceItems(actor Actor, inv *model.Invoice, items []model.InvoiceItem) error {
	if err := Authorize(actor.Role, ActionManageInvoice); err != nil {
		return err
	}
	if inv.Status != model.InvoiceDraft {
		return fmt.Errorf("%w: items can only change on a draft invoice", ErrInvalidState)
	}
	if err := ValidateInvoiceInput(items, inv.TaxRate, inv.DiscountPercentage); err != nil {
		return err
	}
	for i := range items {
		items[i].InvoiceID = inv.ID
		items[i].Position = i
	}
	inv.Items = items
	return nil
}

// ChangeInvoiceStatus applies a manual status change. Only Sent and Cancelled
// can be requested; Paid and Overdue are reached by payments and the sweep.
func ChangeInvoiceStatus(actor Actor, inv *model.Invoice, target model.InvoiceStatus, now time.Time) error {
	if err := Authorize(actor.Role, ActionUpdateInvoiceStatus); err != nil {
		return err
	}
	switch target {
	case model.InvoiceSent:
		if inv.Status != model.InvoiceDraft {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inv.Status, target)
		}
		if len(inv.Items) == 0 {
			return ErrEmptyInvoice
		}
		inv.Status = model.InvoiceSent
		inv.SentAt = &now
		return nil
	case model.InvoiceCancelled:
		switch inv.Status {
		case model.InvoicePaid:
			return ErrCannotCancelPaid
		case model.InvoiceDraft, model.InvoiceSent:
			inv.Status = model.InvoiceCancelled
			inv.CancelledAt = &now
			return nil
		}
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inv.Status, target)
	}
	return fmt.Errorf("%w: %s cannot be set manually", ErrInvalidTransition, target)
}

// ApplyPayment records a payment and settles the invoice when the balance
// drops to within epsilon.
func ApplyPayment(actor Actor, inv *model.Invoice, amount decimal.Decimal, method string, paidAt time.Time, notes string, policy PaymentPolicy, now time.Time) (*model.Payment, error) {
	if err := Authorize(actor.Role, ActionAddPayment); err != nil {
		return nil, err
	}
	if inv.Status == model.InvoiceCancelled {
		return nil, fmt.Errorf("%w: invoice is cancelled", ErrInvalidState)
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	eps := policy.epsilon()
	before := SummarizeInvoice(inv)
	if !policy.AllowOverpayment && amount.GreaterThan(before.BalanceDue.Add(eps)) {
		return nil, fmt.Errorf("%w: %s > %s", ErrAmountExceedsBalance, amount.StringFixed(2), before.BalanceDue.StringFixed(2))
	}

	if paidAt.IsZero() {
		paidAt = now
	}
	payment := model.Payment{
		InvoiceID: inv.ID,
		Amount:    amount,
		Method:    strings.TrimSpace(method),
		PaidAt:    paidAt,
		Notes:     strings.TrimSpace(notes),
		CreatedBy: actor.EmployeeID,
	}
	inv.Payments = append(inv.Payments, payment)

	after := SummarizeInvoice(inv)
	if after.BalanceDue.LessThanOrEqual(eps) {
		switch inv.Status {
		case model.InvoiceDraft, model.InvoiceSent, model.InvoiceOverdue:
			inv.Status = model.InvoicePaid
			inv.PaidAt = &now
		}
	}
	return &inv.Payments[len(inv.Payments)-1], nil
}

// MarkOverdue flips a Sent invoice past its due date with money still owed.
// It reports whether the invoice changed.
func MarkOverdue(inv *model.Invoice, now time.Time, policy PaymentPolicy) bool {
	if inv.Status != model.InvoiceSent || inv.DueDate == nil || !inv.DueDate.Before(now) {
		return false
	}
	if SummarizeInvoice(inv).BalanceDue.LessThanOrEqual(policy.epsilon()) {
		return false
	}
	inv.Status = model.InvoiceOverdue
	return true
}

// SeedFromJobCard builds invoice lines from a finalized job card: one Part line
// per consumed requisition and one Labor line per closed timesheet.
func SeedFromJobCard(card *model.JobCard, requisitions []model.PartRequisition, timesheets []model.Timesheet, laborRate decimal.Decimal, productNames map[uuid.UUID]string) ([]model.InvoiceItem, error) {
	if card.State != model.JobCardCompleted && card.State != model.JobCardClosed {
		return nil, ErrJobCardNotFinalized
	}

	var items []model.InvoiceItem
	for i := range requisitions {
		r := &requisitions[i]
		if !r.Status.Consumed() || r.UsedQuantity <= 0 {
			continue
		}
		name := productNames[r.ProductID]
		if name == "" {
			name = r.ProductID.String()
		}
		items = append(items, model.InvoiceItem{
			Description: "Part: " + name,
			Quantity:    decimal.NewFromInt(int64(r.UsedQuantity)),
			UnitPrice:   Money(r.UnitCost),
			ItemType:    model.ItemPart,
		})
	}
	for i := range timesheets {
		hours := Hours(&timesheets[i])
		if !hours.IsPositive() {
			continue
		}
		items = append(items, model.InvoiceItem{
			Description: fmt.Sprintf("Labor %s (%s)", card.Number, timesheets[i].ClockIn.Format("2006-01-02")),
			Quantity:    hours,
			UnitPrice:   Money(laborRate),
			ItemType:    model.ItemLabor,
		})
	}
	for i := range items {
		items[i].Position = i
	}
	return items, nil
}
