package core

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// GSTBreakup is the tax split for one invoice line. Exactly one of
// CGST+SGST or IGST is non-zero: intra-state supplies split the rate in half
// between central and state GST, inter-state supplies charge the full rate
// as integrated GST.
type GSTBreakup struct {
	Taxable decimal.Decimal
	CGST    decimal.Decimal
	SGST    decimal.Decimal
	IGST    decimal.Decimal
	Total   decimal.Decimal
}

// ComputeLineTax prices one line and splits GST by place of supply.
// ratePercent is the full GST rate (e.g. 18). Amounts are rounded to two
// places at the end of the line computation, not at intermediate steps.
func ComputeLineTax(qty, unitPrice, ratePercent decimal.Decimal, interState bool) GSTBreakup {
	taxable := qty.Mul(unitPrice).Round(2)

	var b GSTBreakup
	b.Taxable = taxable
	if interState {
		b.IGST = taxable.Mul(ratePercent).Div(hundred).Round(2)
	} else {
		half := ratePercent.Div(decimal.NewFromInt(2))
		b.CGST = taxable.Mul(half).Div(hundred).Round(2)
		b.SGST = b.CGST
	}
	b.Total = taxable.Add(b.CGST).Add(b.SGST).Add(b.IGST)
	return b
}

// IsInterState reports whether the supply crosses state lines, based on the
// two-digit GST state codes of seller and buyer.
func IsInterState(sellerStateCode, buyerStateCode string) bool {
	return sellerStateCode != buyerStateCode
}

// RoundToRupee rounds a grand total to the nearest whole rupee for the
// invoice's rounded_total field.
func RoundToRupee(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(0)
}

// FinancialYearOf returns the Indian financial year (labelled by its starting
// calendar year) containing the given date. The FY runs April through March.
func FinancialYearOf(date time.Time) int {
	if date.Month() < time.April {
		return date.Year() - 1
	}
	return date.Year()
}
