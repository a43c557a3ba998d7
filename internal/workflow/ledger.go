package workflow

import (
	"fmt"

	"garage/internal/model"

	"github.com/shopspring/decimal"
)

// checkQuantity validates a quantity about to be written against the field above it.
// Quantities are whole units and must be positive.
func checkQuantity(q, upperBound int, exceeds error) error {
	if q <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, q)
	}
	if q > upperBound {
		return fmt.Errorf("%w: %d > %d", exceeds, q, upperBound)
	}
	return nil
}

// CheckLedger verifies requested >= approved >= disbursed >= used >= 0 and requested > 0.
func CheckLedger(r *model.PartRequisition) error {
	if r.RequestedQuantity <= 0 || r.UsedQuantity < 0 ||
		r.ApprovedQuantity > r.RequestedQuantity ||
		r.DisbursedQuantity > r.ApprovedQuantity ||
		r.UsedQuantity > r.DisbursedQuantity {
		return fmt.Errorf("%w: requested=%d approved=%d disbursed=%d used=%d", ErrInvalidQuantity,
			r.RequestedQuantity, r.ApprovedQuantity, r.DisbursedQuantity, r.UsedQuantity)
	}
	return nil
}

// TotalCost is used × unit cost, rounded to cents. It only exists once the
// line has resolved to Used or PartiallyUsed.
func TotalCost(r *model.PartRequisition) (decimal.Decimal, bool) {
	if !r.Status.Consumed() {
		return decimal.Zero, false
	}
	return Money(r.UnitCost.Mul(decimal.NewFromInt(int64(r.UsedQuantity)))), true
}
