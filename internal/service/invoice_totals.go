package service

import (
	"backoffice/internal/model"
	"backoffice/pkg/apperror"

	"github.com/shopspring/decimal"
)

// maxAmount is the first value a decimal(18,2) column cannot hold
var maxAmount = decimal.New(1, 16)

// Totals are the derived amounts of an invoice
type Totals struct {
	Subtotal            decimal.Decimal `json:"subtotal"`
	CommercialCostTotal decimal.Decimal `json:"commercial_cost_total"`
	Discount            decimal.Decimal `json:"discount"`
	GrandTotal          decimal.Decimal `json:"grand_total"`
}

// ComputeTotals sets SubTotal on every item and returns the invoice totals:
//
//	line       = quantity * unit_price
//	subtotal   = sum(line)
//	commercial = sum(commercial_cost)   (sales only)
//	grand      = subtotal + commercial - discount
//
// Inputs are expected to carry at most two decimals; the rounding to cents
// only guards the stored scale. Totals beyond the column range are rejected.
func ComputeTotals(kind string, items []model.InvoiceItem, discount decimal.Decimal) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, apperror.ValidationField("items", "At least one item is required")
	}
	if discount.IsNegative() {
		return Totals{}, apperror.ValidationField("discount", "Must be greater than or equal to 0")
	}

	t := Totals{Discount: discount.Round(2)}
	for i := range items {
		line := decimal.NewFromInt(int64(items[i].Quantity)).Mul(items[i].UnitPrice).Round(2)
		items[i].SubTotal = line
		t.Subtotal = t.Subtotal.Add(line)
		if kind == model.InvoiceKindSales {
			t.CommercialCostTotal = t.CommercialCostTotal.Add(items[i].CommercialCost.Round(2))
		}
	}
	t.GrandTotal = t.Subtotal.Add(t.CommercialCostTotal).Sub(t.Discount)

	if t.Subtotal.Add(t.CommercialCostTotal).GreaterThanOrEqual(maxAmount) {
		return Totals{}, apperror.ValidationField("items", "Invoice total exceeds the supported amount")
	}
	if t.GrandTotal.IsNegative() {
		return Totals{}, apperror.ValidationField("discount", "Discount exceeds the invoice total")
	}
	return t, nil
}

// apply copies the totals onto the invoice header
func (t Totals) apply(inv *model.Invoice) {
	inv.Subtotal = t.Subtotal
	inv.CommercialCostTotal = t.CommercialCostTotal
	inv.Discount = t.Discount
	inv.GrandTotal = t.GrandTotal
}
