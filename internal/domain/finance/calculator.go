// Package finance holds the pure financial arithmetic shared by every
// aggregate and by order-entry callers. All computation runs on exact
// decimals; rounding happens only at display boundaries, never mid-sum.
package finance

import (
	"github.com/shopspring/decimal"

	"github.com/northwind/backend/internal/domain/shared"
)

// Line is a price/quantity/discount triple. Discount is a fraction in [0, 1).
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int64
	Discount  decimal.Decimal
}

// NewLine builds a Line from the float values carried on the wire.
func NewLine(unitPrice float64, quantity int64, discount float64) Line {
	return Line{
		UnitPrice: decimal.NewFromFloat(unitPrice),
		Quantity:  quantity,
		Discount:  decimal.NewFromFloat(discount),
	}
}

// ValidateDiscount rejects discounts outside [0, 1). Callers holding a
// UI-facing percentage must convert through DiscountFromPercent first; this
// function is the enforcement point of that contract.
func ValidateDiscount(discount decimal.Decimal) error {
	if discount.IsNegative() || discount.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount must be a fraction in [0, 1)")
	}
	return nil
}

// DiscountFromPercent converts a UI-facing percentage (e.g. 25 for 25%) to
// the fractional discount the calculator expects.
func DiscountFromPercent(percent decimal.Decimal) decimal.Decimal {
	return percent.Div(decimal.NewFromInt(100))
}

// LineTotal computes unit_price * quantity * (1 - discount).
func LineTotal(line Line) decimal.Decimal {
	qty := decimal.NewFromInt(line.Quantity)
	factor := decimal.NewFromInt(1).Sub(line.Discount)
	return line.UnitPrice.Mul(qty).Mul(factor)
}

// OrderSubtotal sums the line totals of an order.
func OrderSubtotal(lines []Line) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(LineTotal(line))
	}
	return subtotal
}

// OrderTotal is the subtotal plus freight.
func OrderTotal(subtotal, freight decimal.Decimal) decimal.Decimal {
	return subtotal.Add(freight)
}

// AverageOrderValue is totalRevenue / orderCount, or zero for zero orders.
func AverageOrderValue(totalRevenue decimal.Decimal, orderCount int64) decimal.Decimal {
	if orderCount <= 0 {
		return decimal.Zero
	}
	return totalRevenue.Div(decimal.NewFromInt(orderCount))
}
