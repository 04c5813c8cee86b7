package ledger

import (
	"testing"

	"intercompany/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestLineSubtotal(t *testing.T) {
	cent := dec("0.01")

	line := &model.InvoiceLine{Quantity: dec("3"), PriceUnit: dec("100"), Discount: dec("10")}
	assert.True(t, dec("270").Equal(LineSubtotal(line, cent)))

	line = &model.InvoiceLine{Quantity: dec("3"), PriceUnit: dec("0.333")}
	assert.True(t, dec("1.00").Equal(LineSubtotal(line, cent)))
}

func TestComputeTotals(t *testing.T) {
	inv := &model.Invoice{
		Lines: []model.InvoiceLine{
			{DisplayType: model.DisplayTypeSection, Name: "Services", Quantity: dec("1"), PriceUnit: dec("999")},
			{Quantity: dec("2"), PriceUnit: dec("100"), TaxRate: dec("0.10")},
			{Quantity: dec("1"), PriceUnit: dec("33.33"), Discount: dec("50"), TaxRate: dec("0.20")},
			{DisplayType: model.DisplayTypeNote, Name: "Thanks", Quantity: dec("5"), PriceUnit: dec("5")},
		},
	}

	ComputeTotals(inv, dec("0.01"))

	assert.True(t, inv.Lines[0].PriceSubtotal.IsZero())
	assert.True(t, dec("200").Equal(inv.Lines[1].PriceSubtotal))
	// 16.665 rounds half away from zero
	assert.True(t, dec("16.67").Equal(inv.Lines[2].PriceSubtotal))
	assert.True(t, inv.Lines[3].PriceSubtotal.IsZero())

	assert.True(t, dec("216.67").Equal(inv.AmountUntaxed), "untaxed %s", inv.AmountUntaxed)
	// 20.00 + 3.334 -> 3.33
	assert.True(t, dec("23.33").Equal(inv.AmountTax), "tax %s", inv.AmountTax)
	assert.True(t, dec("240.00").Equal(inv.AmountTotal), "total %s", inv.AmountTotal)
}
