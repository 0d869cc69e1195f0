package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ventamax/backend/internal/domain"
	"ventamax/backend/internal/store"
)

func TestCancelSaleRestocksInventory(t *testing.T) {
	databaseURL := os.Getenv("VENTAMAX_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set VENTAMAX_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	sku := fmt.Sprintf("SKU-IT-%d", stamp)

	product, err := s.CreateProduct(ctx, domain.Product{
		Name:        fmt.Sprintf("Producto IT %d", stamp),
		SKU:         sku,
		Quantity:    10,
		UnitsPerBox: 5,
		UnitPrice:   decimal.RequireFromString("2.50"),
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sale_items WHERE product_id = $1`, product.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, product.ID)
	})

	sale, err := s.CreateSale(ctx, domain.Sale{
		Date:             time.Now().UTC().Format("2006-01-02"),
		PaymentMethod:    domain.PaymentUsdCash,
		TotalUsd:         decimal.RequireFromString("5.00"),
		TotalBs:          decimal.RequireFromString("250.00"),
		ExchangeRateUsed: decimal.RequireFromString("50.00"),
		CreatedBy:        "it-test",
		Items: []domain.SaleItem{
			{
				ProductID:    product.ID,
				Quantity:     2,
				UnitPriceUsd: decimal.RequireFromString("2.50"),
				UnitPriceBs:  decimal.RequireFromString("125.00"),
				SubtotalUsd:  decimal.RequireFromString("5.00"),
				SubtotalBs:   decimal.RequireFromString("250.00"),
			},
		},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, sale.ID)
	})

	afterSale, err := s.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product after sale: %v", err)
	}
	if afterSale.Quantity != 8 {
		t.Fatalf("expected stock 8 after sale, got %d", afterSale.Quantity)
	}

	// Overselling must fail and leave stock untouched.
	_, err = s.CreateSale(ctx, domain.Sale{
		Date:             time.Now().UTC().Format("2006-01-02"),
		PaymentMethod:    domain.PaymentUsdCash,
		TotalUsd:         decimal.Zero,
		TotalBs:          decimal.Zero,
		ExchangeRateUsed: decimal.RequireFromString("50.00"),
		CreatedBy:        "it-test",
		Items: []domain.SaleItem{
			{ProductID: product.ID, Quantity: 100},
		},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	if _, err := s.CancelSale(ctx, sale.ID); err != nil {
		t.Fatalf("cancel sale: %v", err)
	}

	restocked, err := s.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product after cancel: %v", err)
	}
	if restocked.Quantity != 10 {
		t.Fatalf("expected stock 10 after cancel, got %d", restocked.Quantity)
	}

	if _, err := s.GetSale(ctx, sale.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected cancelled sale to be gone, got %v", err)
	}
}
