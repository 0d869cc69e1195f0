package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPhysicalQuantity(t *testing.T) {
	if got := PhysicalQuantity(4, 2, 12); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
	if got := PhysicalQuantity(0, 7, 12); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	// unitsPerBox below 1 degrades boxes to units.
	if got := PhysicalQuantity(3, 2, 0); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}

func TestDifference(t *testing.T) {
	if got := Difference(45, 3, 0, 12); got != 9 {
		t.Fatalf("expected 9, got %d", got)
	}
	if got := Difference(40, 3, 6, 12); got != -2 {
		t.Fatalf("expected -2 for surplus, got %d", got)
	}
}

func TestSplit(t *testing.T) {
	boxes, units := Split(50, 12)
	if boxes != 4 || units != 2 {
		t.Fatalf("expected 4 boxes + 2 units, got %d + %d", boxes, units)
	}
	boxes, units = Split(11, 12)
	if boxes != 0 || units != 11 {
		t.Fatalf("expected 0 boxes + 11 units, got %d + %d", boxes, units)
	}
}

func TestFormat(t *testing.T) {
	if got := Format(50, 12); got != "4 cajas + 2 und" {
		t.Fatalf("unexpected format %q", got)
	}
	if got := Format(7, 1); got != "7 und" {
		t.Fatalf("unexpected format %q", got)
	}
}

func TestRevenue(t *testing.T) {
	usd, bs := Revenue(5, decimal.RequireFromString("2.00"), decimal.RequireFromString("50.00"))
	if !usd.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected 10.00 USD, got %s", usd)
	}
	if !bs.Equal(decimal.RequireFromString("500.00")) {
		t.Fatalf("expected 500.00 Bs, got %s", bs)
	}

	usd, bs = Revenue(-3, decimal.RequireFromString("2.00"), decimal.RequireFromString("50.00"))
	if !usd.IsZero() || !bs.IsZero() {
		t.Fatalf("expected zero revenue for surplus, got %s / %s", usd, bs)
	}
}
