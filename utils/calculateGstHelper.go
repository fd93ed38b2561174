package utils

import (
	"github.com/shopspring/decimal"
)

// TaxMode is the jurisdictional taxation mode of an invoice. Exactly one mode
// is in effect at any time: intra-state invoices carry the CGST+SGST split,
// inter-state invoices carry combined IGST.
type TaxMode string

const (
	TaxModeIntraState TaxMode = "IntraState"
	TaxModeInterState TaxMode = "InterState"
)

var decimalOneHundred = decimal.NewFromInt(100)

// GstRates holds the three percentage rates. The rates of the inactive mode
// are exactly zero, never stale values from a previous mode.
type GstRates struct {
	CgstRate decimal.Decimal `json:"cgst_rate"`
	SgstRate decimal.Decimal `json:"sgst_rate"`
	IgstRate decimal.Decimal `json:"igst_rate"`
}

// GstAmounts holds the three tax amounts derived from a subtotal. Amounts of
// the inactive mode are forced to zero.
type GstAmounts struct {
	CgstAmount decimal.Decimal `json:"cgst_amount"`
	SgstAmount decimal.Decimal `json:"sgst_amount"`
	IgstAmount decimal.Decimal `json:"igst_amount"`
}

// ResolveTaxMode decides the taxation mode from the client's billing state.
// A billing state equal to the issuer's home state is intra-state and gets the
// split rate on both CGST and SGST; any other state is inter-state and gets
// the combined rate on IGST alone.
func ResolveTaxMode(billingState string, homeState string, intraSplitRate decimal.Decimal, interRate decimal.Decimal) (TaxMode, GstRates) {
	if billingState == homeState {
		return TaxModeIntraState, GstRates{
			CgstRate: intraSplitRate,
			SgstRate: intraSplitRate,
			IgstRate: decimal.Zero,
		}
	}
	return TaxModeInterState, GstRates{
		CgstRate: decimal.Zero,
		SgstRate: decimal.Zero,
		IgstRate: interRate,
	}
}

// CalculateGstAmounts derives each tax amount as round2(subtotal * rate / 100).
// Zero rates yield exactly zero amounts, so the inactive mode never leaks a
// residual amount.
func CalculateGstAmounts(subtotal decimal.Decimal, rates GstRates) GstAmounts {
	return GstAmounts{
		CgstAmount: Round2(subtotal.Mul(rates.CgstRate).Div(decimalOneHundred)),
		SgstAmount: Round2(subtotal.Mul(rates.SgstRate).Div(decimalOneHundred)),
		IgstAmount: Round2(subtotal.Mul(rates.IgstRate).Div(decimalOneHundred)),
	}
}

// CalculateItemTotal derives a line item total as round2(quantity * unitPrice).
func CalculateItemTotal(quantity decimal.Decimal, unitPrice decimal.Decimal) decimal.Decimal {
	return Round2(quantity.Mul(unitPrice))
}

// CalculateSubtotal sums already-rounded line item totals and rounds once
// after summation. Summing rounded item totals (rather than rounding the raw
// sum) is the invoicing convention carried over from the original form: each
// printed line total participates in the subtotal exactly as displayed.
func CalculateSubtotal(itemTotals []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range itemTotals {
		sum = sum.Add(t)
	}
	return Round2(sum)
}

// CalculateGrandTotal derives the invoice total from the subtotal, the GST
// amounts and the user-entered other-tax amount.
func CalculateGrandTotal(subtotal decimal.Decimal, amounts GstAmounts, otherTaxAmount decimal.Decimal) decimal.Decimal {
	return Round2(subtotal.
		Add(amounts.CgstAmount).
		Add(amounts.SgstAmount).
		Add(amounts.IgstAmount).
		Add(otherTaxAmount))
}
