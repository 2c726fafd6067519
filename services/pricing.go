package services

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	eleven  = decimal.NewFromInt(11)
)

// DefaultPostage is the flat delivery fee in dollars.
var DefaultPostage = decimal.RequireFromString("10.00")

type lineAmounts struct {
	Total    decimal.Decimal // after discount
	GST      decimal.Decimal
	Discount decimal.Decimal
}

// priceLine computes price × (1 − discount/100) × qty. The GST share of a
// GST-inclusive price is one eleventh.
func priceLine(price, discount float64, qty int, gstIncluded bool) lineAmounts {
	p := decimal.NewFromFloat(price)
	q := decimal.NewFromInt(int64(qty))
	gross := p.Mul(q)
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(discount).Div(hundred))
	total := p.Mul(factor).Mul(q)

	gst := decimal.Zero
	if gstIncluded {
		gst = total.Div(eleven)
	}
	return lineAmounts{Total: total, GST: gst, Discount: gross.Sub(total)}
}

// toCents converts dollars to minor units, rounding half away from zero.
func toCents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
