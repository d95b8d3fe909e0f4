// Package totals computes the monetary snapshot stored on an order.
package totals

import "github.com/shopspring/decimal"

// Line is the priced quantity of one order line.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Extras are order-level adjustments. Zero values mean "absent".
type Extras struct {
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
}

// Totals is the computed snapshot.
type Totals struct {
	SubTotal   decimal.Decimal
	Shipping   decimal.Decimal
	Tax        decimal.Decimal
	Discount   decimal.Decimal
	GrandTotal decimal.Decimal
}

// LineTotal returns price × quantity.
func LineTotal(line Line) decimal.Decimal {
	return line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
}

// Calculate sums the lines and applies shipping, tax and discount:
// grand = Σ(price × qty) + shipping + tax − discount.
func Calculate(lines []Line, extras Extras) Totals {
	sub := decimal.Zero
	for _, line := range lines {
		sub = sub.Add(LineTotal(line))
	}
	return Totals{
		SubTotal:   sub,
		Shipping:   extras.Shipping,
		Tax:        extras.Tax,
		Discount:   extras.Discount,
		GrandTotal: sub.Add(extras.Shipping).Add(extras.Tax).Sub(extras.Discount),
	}
}
