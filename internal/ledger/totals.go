package ledger

import (
	"intercompany/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineSubtotal is quantity * price less the discount, rounded to the currency.
func LineSubtotal(line *model.InvoiceLine, rounding decimal.Decimal) decimal.Decimal {
	gross := line.Quantity.Mul(line.PriceUnit)
	if !line.Discount.IsZero() {
		gross = gross.Mul(hundred.Sub(line.Discount)).Div(hundred)
	}
	return RoundTo(gross, rounding)
}

// ComputeTotals fills every line subtotal and the header amounts.
// Section and note lines carry no amount.
func ComputeTotals(inv *model.Invoice, rounding decimal.Decimal) {
	untaxed := decimal.Zero
	tax := decimal.Zero
	for i := range inv.Lines {
		line := &inv.Lines[i]
		if line.DisplayType != model.DisplayTypeProduct {
			line.PriceSubtotal = decimal.Zero
			continue
		}
		line.PriceSubtotal = LineSubtotal(line, rounding)
		untaxed = untaxed.Add(line.PriceSubtotal)
		tax = tax.Add(RoundTo(line.PriceSubtotal.Mul(line.TaxRate), rounding))
	}
	inv.AmountUntaxed = untaxed
	inv.AmountTax = tax
	inv.AmountTotal = untaxed.Add(tax)
}
