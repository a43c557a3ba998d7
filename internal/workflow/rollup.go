package workflow

import (
	"garage/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DefaultEpsilon is the balance below which an invoice counts as settled
var DefaultEpsilon = decimal.NewFromFloat(0.01)

// Money rounds to 2 decimal places, half away from zero (half-up for the
// non-negative amounts invoices deal in).
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Summary is the derived financial view of an invoice
type Summary struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxableAmount  decimal.Decimal `json:"taxable_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	BalanceDue     decimal.Decimal `json:"balance_due"`
}

// Summarize derives every amount from the inputs. Each step is rounded to
// cents before it feeds the next one.
func Summarize(items []model.InvoiceItem, taxRate, discountPercentage decimal.Decimal, payments []model.Payment) Summary {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Quantity.Mul(it.UnitPrice))
	}
	subtotal = Money(subtotal)

	discount := Money(subtotal.Mul(discountPercentage).Div(hundred))
	taxable := Money(subtotal.Sub(discount))
	tax := Money(taxable.Mul(taxRate).Div(hundred))
	total := Money(taxable.Add(tax))

	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	paid = Money(paid)

	return Summary{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxableAmount:  taxable,
		TaxAmount:      tax,
		TotalAmount:    total,
		AmountPaid:     paid,
		BalanceDue:     Money(total.Sub(paid)),
	}
}

// SummarizeInvoice is Summarize over an invoice's own fields
func SummarizeInvoice(inv *model.Invoice) Summary {
	return Summarize(inv.Items, inv.TaxRate, inv.DiscountPercentage, inv.Payments)
}
