// Package reconcile holds the pure arithmetic behind physical inventory
// counts: box/unit conversions and the revenue implied by a count shortfall.
package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PhysicalQuantity converts a counted boxes+units pair into base units.
// A unitsPerBox of zero or less is treated as 1, so boxes degrade to units.
func PhysicalQuantity(boxes, units, unitsPerBox int) int {
	if unitsPerBox < 1 {
		unitsPerBox = 1
	}
	return boxes*unitsPerBox + units
}

// Difference returns systemQty minus the physical count. Positive means
// units left the shelf without a matching record and are treated as sold.
func Difference(systemQty, boxes, units, unitsPerBox int) int {
	return systemQty - PhysicalQuantity(boxes, units, unitsPerBox)
}

// Split breaks a base-unit quantity into whole boxes and remaining units.
func Split(quantity, unitsPerBox int) (boxes, units int) {
	if unitsPerBox < 1 {
		unitsPerBox = 1
	}
	return quantity / unitsPerBox, quantity % unitsPerBox
}

// Format renders a quantity for display. Products without box packaging
// (unitsPerBox <= 1) show a plain unit count.
func Format(quantity, unitsPerBox int) string {
	if unitsPerBox <= 1 {
		return fmt.Sprintf("%d und", quantity)
	}
	boxes, units := Split(quantity, unitsPerBox)
	return fmt.Sprintf("%d cajas + %d und", boxes, units)
}

// Revenue values a count difference at the product's unit price. Only a
// positive difference produces revenue; a surplus count contributes zero
// rather than negative revenue.
func Revenue(difference int, unitPrice, rate decimal.Decimal) (saleUsd, saleBs decimal.Decimal) {
	if difference <= 0 {
		return decimal.Zero, decimal.Zero
	}
	saleUsd = unitPrice.Mul(decimal.NewFromInt(int64(difference)))
	saleBs = saleUsd.Mul(rate)
	return saleUsd, saleBs
}
