package billing

import (
	"math"

	"github.com/clinicore/clinicore/internal/platform/apperr"
)

// Discount is the bill-level discount policy. An empty Type means no
// discount.
type Discount struct {
	Type  string
	Value float64
}

// Totals is the fully reconciled monetary breakdown of one bill.
// GrandTotal = PaidAmount + DueAmount always holds.
type Totals struct {
	Subtotal       float64
	DiscountAmount float64
	TaxableAmount  float64
	CGST           float64
	SGST           float64
	RoundOff       float64
	GrandTotal     float64
	PaidAmount     float64
	DueAmount      float64
	PaymentStatus  string
}

// roundHalfUp rounds to the nearest whole currency unit, halves up.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// ComputeTotals derives the complete breakdown from the line amounts,
// discount, tax rate and payment split. Pure computation, no I/O.
//
// taxRate is a percentage applied on the taxable amount and split
// evenly into CGST and SGST; pharmacy bills pass 0 because their unit
// prices are tax-inclusive. In mixed mode the paid amount is the sum
// of the channel amounts; any single mode is taken as payment in
// full.
func ComputeTotals(amounts []float64, discount Discount, taxRate float64, paymentMode string, details PaymentDetails) (Totals, error) {
	var t Totals
	for _, a := range amounts {
		t.Subtotal += a
	}

	switch discount.Type {
	case "":
		if discount.Value != 0 {
			return t, apperr.Validation("discount value given without a discount type")
		}
	case DiscountFixed:
		t.DiscountAmount = discount.Value
	case DiscountPercentage:
		if discount.Value < 0 || discount.Value > 100 {
			return t, apperr.Validation("percentage discount must be between 0 and 100")
		}
		t.DiscountAmount = t.Subtotal * discount.Value / 100
	default:
		return t, apperr.Validation("unknown discount type %q", discount.Type)
	}
	if t.DiscountAmount < 0 {
		return t, apperr.Validation("discount cannot be negative")
	}
	if t.DiscountAmount > t.Subtotal {
		return t, apperr.Validation("discount %.2f exceeds bill subtotal %.2f", t.DiscountAmount, t.Subtotal)
	}

	t.TaxableAmount = t.Subtotal - t.DiscountAmount
	if taxRate < 0 {
		return t, apperr.Validation("tax rate cannot be negative")
	}
	tax := t.TaxableAmount * taxRate / 100
	t.CGST = tax / 2
	t.SGST = tax / 2

	t.GrandTotal = roundHalfUp(t.TaxableAmount + tax)
	t.RoundOff = t.GrandTotal - (t.TaxableAmount + tax)

	switch paymentMode {
	case PaymentMixed:
		if details.Cash < 0 || details.Card < 0 || details.UPI < 0 {
			return t, apperr.Validation("payment channel amounts cannot be negative")
		}
		t.PaidAmount = details.Cash + details.Card + details.UPI
	case PaymentCash, PaymentCard, PaymentUPI:
		t.PaidAmount = t.GrandTotal
	default:
		return t, apperr.Validation("unknown payment mode %q", paymentMode)
	}
	t.DueAmount = t.GrandTotal - t.PaidAmount

	switch {
	case t.DueAmount <= 0:
		t.PaymentStatus = PaymentStatusPaid
	case t.DueAmount < t.GrandTotal:
		t.PaymentStatus = PaymentStatusPartial
	default:
		t.PaymentStatus = PaymentStatusPending
	}
	return t, nil
}
