package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"ventamax/backend/internal/domain"
	"ventamax/backend/internal/store"
	"ventamax/backend/internal/store/memory"
)

func newTestService(t *testing.T) (*Service, context.Context) {
	t.Helper()
	svc := New(memory.NewSeeded(), nil, 0)
	ctx := WithActor(context.Background(), domain.Actor{Username: "admin", Role: domain.RoleOwner, Superuser: true})
	return svc, ctx
}

func employeeContext() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "vendedor", Role: domain.RoleEmployee})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPostTransactionUpdatesAccountBalances(t *testing.T) {
	svc, ctx := newTestService(t)

	// Debit Caja (asset), credit Ventas (revenue). Both balances should rise.
	tx, err := svc.PostTransaction(ctx, domain.LedgerTransactionCreateRequest{
		Description: "venta del dia",
		Entries: []domain.LedgerEntryInput{
			{AccountID: 1, Debit: dec("100.00")},
			{AccountID: 6, Credit: dec("100.00")},
		},
	})
	if err != nil {
		t.Fatalf("post transaction failed: %v", err)
	}
	if len(tx.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(tx.Entries))
	}
	if tx.Entries[0].AccountCode != "1000" || tx.Entries[0].AccountName != "Caja" {
		t.Fatalf("expected account code/name on entry, got %+v", tx.Entries[0])
	}

	accounts, err := svc.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("list accounts failed: %v", err)
	}
	byCode := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		byCode[a.Code] = a
	}
	if !byCode["1000"].Balance.Equal(dec("100.00")) {
		t.Fatalf("expected Caja balance 100.00, got %s", byCode["1000"].Balance)
	}
	if !byCode["4000"].Balance.Equal(dec("100.00")) {
		t.Fatalf("expected Ventas balance 100.00, got %s", byCode["4000"].Balance)
	}
}

func TestPostTransactionRejectsImbalanceBeyondTolerance(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.PostTransaction(ctx, domain.LedgerTransactionCreateRequest{
		Description: "descuadre",
		Entries: []domain.LedgerEntryInput{
			{AccountID: 1, Debit: dec("100.00")},
			{AccountID: 6, Credit: dec("99.98")},
		},
	})
	if !errors.Is(err, ErrUnbalancedEntry) {
		t.Fatalf("expected ErrUnbalancedEntry, got %v", err)
	}
}

func TestPostTransactionAllowsOneCentDrift(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.PostTransaction(ctx, domain.LedgerTransactionCreateRequest{
		Description: "redondeo",
		Entries: []domain.LedgerEntryInput{
			{AccountID: 1, Debit: dec("33.33")},
			{AccountID: 6, Credit: dec("33.34")},
		},
	})
	if err != nil {
		t.Fatalf("expected one cent drift to be accepted, got %v", err)
	}
}

func TestDeleteTransactionReversesBalances(t *testing.T) {
	svc, ctx := newTestService(t)

	tx, err := svc.PostTransaction(ctx, domain.LedgerTransactionCreateRequest{
		Description: "compra inventario",
		Entries: []domain.LedgerEntryInput{
			{AccountID: 3, Debit: dec("250.00")},
			{AccountID: 4, Credit: dec("250.00")},
		},
	})
	if err != nil {
		t.Fatalf("post transaction failed: %v", err)
	}

	if err := svc.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("delete transaction failed: %v", err)
	}

	accounts, _ := svc.ListAccounts(ctx)
	for _, a := range accounts {
		if !a.Balance.IsZero() {
			t.Fatalf("expected account %s balance back to zero, got %s", a.Code, a.Balance)
		}
	}
}

func TestPostTransactionRejectsEmptyEntry(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.PostTransaction(ctx, domain.LedgerTransactionCreateRequest{
		Description: "entrada invalida",
		Entries: []domain.LedgerEntryInput{
			{AccountID: 1, Debit: dec("10.00")},
			{AccountID: 6},
		},
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateAccountRejectsUnknownType(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.CreateAccount(ctx, domain.AccountCreateRequest{Code: "7000", Name: "Otros", Type: "misc"})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown type, got %v", err)
	}
}

func TestRecordSaleDecrementsStockAndNumbersSequentially(t *testing.T) {
	svc, ctx := newTestService(t)

	before, err := svc.GetProduct(ctx, 1)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}

	first, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		PaymentMethod: domain.PaymentUsdCash,
		Items:         []domain.SaleItemInput{{ProductID: 1, Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("record sale failed: %v", err)
	}
	if first.SaleNumber != "V-0001" {
		t.Fatalf("expected V-0001, got %q", first.SaleNumber)
	}

	second, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		PaymentMethod: domain.PaymentPagoMovil,
		Items:         []domain.SaleItemInput{{ProductID: 2, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("second sale failed: %v", err)
	}
	if second.SaleNumber != "V-0002" {
		t.Fatalf("expected V-0002, got %q", second.SaleNumber)
	}

	after, _ := svc.GetProduct(ctx, 1)
	if after.Quantity != before.Quantity-5 {
		t.Fatalf("expected stock %d, got %d", before.Quantity-5, after.Quantity)
	}
}

func TestRecordSaleComputesDualCurrencyTotals(t *testing.T) {
	svc, ctx := newTestService(t)

	// Product 1 sells at 1.50 USD, the seeded rate is 50.00 Bs per USD.
	sale, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		PaymentMethod: domain.PaymentBsCash,
		Items:         []domain.SaleItemInput{{ProductID: 1, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("record sale failed: %v", err)
	}
	if !sale.TotalUsd.Equal(dec("3.00")) {
		t.Fatalf("expected total 3.00 USD, got %s", sale.TotalUsd)
	}
	if !sale.TotalBs.Equal(dec("150.00")) {
		t.Fatalf("expected total 150.00 Bs, got %s", sale.TotalBs)
	}
	if !sale.ExchangeRateUsed.Equal(dec("50.00")) {
		t.Fatalf("expected rate 50.00, got %s", sale.ExchangeRateUsed)
	}
}

func TestRecordSaleMergesDuplicateLines(t *testing.T) {
	svc, ctx := newTestService(t)

	sale, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		PaymentMethod: domain.PaymentZelle,
		Items: []domain.SaleItemInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 1, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("record sale failed: %v", err)
	}
	if len(sale.Items) != 1 {
		t.Fatalf("expected merged single line, got %d", len(sale.Items))
	}
	if sale.Items[0].Quantity != 5 {
		t.Fatalf("expected merged quantity 5, got %d", sale.Items[0].Quantity)
	}
}

func TestRecordSaleRejectsNegativeQuantityLine(t *testing.T) {
	svc, ctx := newTestService(t)

	// A negative line must be rejected outright, not folded into another
	// line for the same product.
	_, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		PaymentMethod: domain.PaymentUsdCash,
		Items: []domain.SaleItemInput{
			{ProductID: 1, Quantity: 5},
			{ProductID: 1, Quantity: -3},
		},
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	product, _ := svc.GetProduct(ctx, 1)
	if product.Quantity != 120 {
		t.Fatalf("expected stock unchanged at 120, got %d", product.Quantity)
	}
}

func TestRecordSaleInsufficientStock(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		PaymentMethod: domain.PaymentPOS,
		Items:         []domain.SaleItemInput{{ProductID: 1, Quantity: 10000}},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// Stock must be untouched after the failed sale.
	product, _ := svc.GetProduct(ctx, 1)
	if product.Quantity != 120 {
		t.Fatalf("expected stock unchanged at 120, got %d", product.Quantity)
	}
}

func TestRecordSaleRejectsUnknownPaymentMethod(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		PaymentMethod: "cheque",
		Items:         []domain.SaleItemInput{{ProductID: 1, Quantity: 1}},
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCancelSaleRestoresStock(t *testing.T) {
	svc, ctx := newTestService(t)

	sale, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		PaymentMethod: domain.PaymentUsdCash,
		Items:         []domain.SaleItemInput{{ProductID: 3, Quantity: 10}},
	})
	if err != nil {
		t.Fatalf("record sale failed: %v", err)
	}

	if _, err := svc.CancelSale(ctx, sale.ID); err != nil {
		t.Fatalf("cancel sale failed: %v", err)
	}

	product, _ := svc.GetProduct(ctx, 3)
	if product.Quantity != 48 {
		t.Fatalf("expected stock restored to 48, got %d", product.Quantity)
	}
	if _, err := svc.GetSale(ctx, sale.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected cancelled sale to be gone, got %v", err)
	}
}

func TestDailyReportAggregatesSales(t *testing.T) {
	svc, ctx := newTestService(t)

	if _, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		PaymentMethod: domain.PaymentUsdCash,
		Items:         []domain.SaleItemInput{{ProductID: 1, Quantity: 4}},
	}); err != nil {
		t.Fatalf("first sale failed: %v", err)
	}
	if _, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		PaymentMethod: domain.PaymentUsdCash,
		Items:         []domain.SaleItemInput{{ProductID: 1, Quantity: 1}},
	}); err != nil {
		t.Fatalf("second sale failed: %v", err)
	}

	report, err := svc.DailyReport(ctx, "")
	if err != nil {
		t.Fatalf("daily report failed: %v", err)
	}
	if report.Sales != 2 {
		t.Fatalf("expected 2 sales, got %d", report.Sales)
	}
	if !report.TotalUsd.Equal(dec("7.50")) {
		t.Fatalf("expected total 7.50 USD, got %s", report.TotalUsd)
	}

	var line *domain.DailyReportProduct
	for i := range report.Products {
		if report.Products[i].ProductID == 1 {
			line = &report.Products[i]
			break
		}
	}
	if line == nil {
		t.Fatalf("expected product 1 in report")
	}
	if line.Sold != 5 {
		t.Fatalf("expected 5 sold, got %d", line.Sold)
	}
	if line.InitialStock != 120 || line.FinalStock != 115 {
		t.Fatalf("expected stock 120 -> 115, got %d -> %d", line.InitialStock, line.FinalStock)
	}

	if len(report.ByPayment) != 1 || report.ByPayment[0].PaymentMethod != domain.PaymentUsdCash {
		t.Fatalf("expected single usd_cash payment bucket, got %+v", report.ByPayment)
	}
}

func TestDailyReportRequiresReportCapability(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.DailyReport(employeeContext(), ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCommitCashCloseReconcilesStock(t *testing.T) {
	svc, ctx := newTestService(t)

	// Product 1: 120 in stock, 20 units per box. Count 5 boxes + 15 units = 115,
	// so 5 units are missing and treated as sold.
	details, err := svc.CommitCashClose(ctx, domain.CashCloseRequest{
		Items: []domain.CashCloseItemInput{
			{ProductID: 1, PhysicalBoxes: 5, PhysicalUnits: 15},
		},
	})
	if err != nil {
		t.Fatalf("commit cash close failed: %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("expected 1 record, got %d", len(details))
	}

	record := details[0]
	if record.SystemQuantity != 120 || record.PhysicalQuantity != 115 {
		t.Fatalf("unexpected quantities %d/%d", record.SystemQuantity, record.PhysicalQuantity)
	}
	if record.Difference != 5 {
		t.Fatalf("expected difference 5, got %d", record.Difference)
	}
	if !record.SaleUsd.Equal(dec("7.50")) {
		t.Fatalf("expected sale 7.50 USD, got %s", record.SaleUsd)
	}
	if !record.SaleBs.Equal(dec("375.00")) {
		t.Fatalf("expected sale 375.00 Bs, got %s", record.SaleBs)
	}

	product, _ := svc.GetProduct(ctx, 1)
	if product.Quantity != 115 {
		t.Fatalf("expected stock adjusted to physical count 115, got %d", product.Quantity)
	}
}

func TestCommitCashCloseSurplusYieldsNoRevenue(t *testing.T) {
	svc, ctx := newTestService(t)

	// Physical count above system: 6 boxes + 5 units = 125 against 120.
	details, err := svc.CommitCashClose(ctx, domain.CashCloseRequest{
		Items: []domain.CashCloseItemInput{
			{ProductID: 1, PhysicalBoxes: 6, PhysicalUnits: 5},
		},
	})
	if err != nil {
		t.Fatalf("commit cash close failed: %v", err)
	}
	record := details[0]
	if record.Difference != -5 {
		t.Fatalf("expected difference -5, got %d", record.Difference)
	}
	if !record.SaleUsd.IsZero() || !record.SaleBs.IsZero() {
		t.Fatalf("expected zero revenue for surplus, got %s / %s", record.SaleUsd, record.SaleBs)
	}
}

func TestCloseHistorySummarizesByDate(t *testing.T) {
	svc, ctx := newTestService(t)

	// Product 1 comes up 5 short (5 boxes + 15 units = 115 against 120);
	// product 2 shows a surplus of 4 (4 boxes + 4 units = 100 against 96).
	_, err := svc.CommitCashClose(ctx, domain.CashCloseRequest{
		Items: []domain.CashCloseItemInput{
			{ProductID: 1, PhysicalBoxes: 5, PhysicalUnits: 15},
			{ProductID: 2, PhysicalBoxes: 4, PhysicalUnits: 4},
		},
	})
	if err != nil {
		t.Fatalf("commit cash close failed: %v", err)
	}

	history, err := svc.CloseHistory(ctx, 10)
	if err != nil {
		t.Fatalf("close history failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 close date, got %d", len(history))
	}
	summary := history[0]
	if summary.ProductCount != 2 {
		t.Fatalf("expected 2 products, got %d", summary.ProductCount)
	}
	// Shortages and surpluses both count toward the absolute total.
	if summary.TotalDifference != 9 {
		t.Fatalf("expected total difference 9, got %d", summary.TotalDifference)
	}
	// Only the shortage contributes revenue: 5 units at 1.50 USD.
	if !summary.TotalSaleUsd.Equal(dec("7.50")) {
		t.Fatalf("expected total sale 7.50 USD, got %s", summary.TotalSaleUsd)
	}
}

func TestOpenShiftSnapshotsInventoryAndIsExclusive(t *testing.T) {
	svc, ctx := newTestService(t)

	shift, err := svc.OpenShift(ctx)
	if err != nil {
		t.Fatalf("open shift failed: %v", err)
	}
	if shift.Status != domain.ShiftStatusOpen {
		t.Fatalf("expected open status, got %s", shift.Status)
	}
	if len(shift.Inventory) != 8 {
		t.Fatalf("expected snapshot of 8 products, got %d", len(shift.Inventory))
	}

	if _, err := svc.OpenShift(ctx); !errors.Is(err, store.ErrShiftAlreadyOpen) {
		t.Fatalf("expected ErrShiftAlreadyOpen, got %v", err)
	}
}

func TestCloseShiftRecordsFinalQuantitiesAndSold(t *testing.T) {
	svc, ctx := newTestService(t)

	opened, err := svc.OpenShift(ctx)
	if err != nil {
		t.Fatalf("open shift failed: %v", err)
	}

	if _, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		PaymentMethod: domain.PaymentUsdCash,
		Items:         []domain.SaleItemInput{{ProductID: 1, Quantity: 7}},
	}); err != nil {
		t.Fatalf("record sale failed: %v", err)
	}

	closed, err := svc.CloseShift(ctx, domain.ShiftCloseRequest{Notes: "turno tarde"})
	if err != nil {
		t.Fatalf("close shift failed: %v", err)
	}
	if closed.Status != domain.ShiftStatusClosed {
		t.Fatalf("expected closed status, got %s", closed.Status)
	}
	if closed.Notes != "turno tarde" {
		t.Fatalf("expected notes to be saved, got %q", closed.Notes)
	}

	detail, err := svc.ShiftDetails(ctx, opened.ID)
	if err != nil {
		t.Fatalf("shift details failed: %v", err)
	}
	var item *domain.ShiftDetailItem
	for i := range detail.Items {
		if detail.Items[i].ProductID == 1 {
			item = &detail.Items[i]
			break
		}
	}
	if item == nil {
		t.Fatalf("expected product 1 in shift detail")
	}
	if item.InitialQuantity != 120 {
		t.Fatalf("expected initial 120, got %d", item.InitialQuantity)
	}
	if item.FinalQuantity == nil || *item.FinalQuantity != 113 {
		t.Fatalf("expected final 113, got %v", item.FinalQuantity)
	}
	if item.Sold != 7 {
		t.Fatalf("expected 7 sold, got %d", item.Sold)
	}

	// With no open shift left, CurrentShift reports not found.
	if _, err := svc.CurrentShift(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after close, got %v", err)
	}
}

func TestEmployeeCannotManageProducts(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateProduct(employeeContext(), domain.ProductCreateRequest{
		Name: "Pasta 500g", Quantity: 10, UnitsPerBox: 20, UnitPrice: dec("1.00"),
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestEmployeeCanRecordSaleAndManageShifts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := employeeContext()

	if _, err := svc.OpenShift(ctx); err != nil {
		t.Fatalf("employee open shift failed: %v", err)
	}
	if _, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		PaymentMethod: domain.PaymentBsCash,
		Items:         []domain.SaleItemInput{{ProductID: 2, Quantity: 1}},
	}); err != nil {
		t.Fatalf("employee record sale failed: %v", err)
	}
	if _, err := svc.CloseShift(ctx, domain.ShiftCloseRequest{}); err != nil {
		t.Fatalf("employee close shift failed: %v", err)
	}
}

func TestUpdateExchangeRateRequiresCapability(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.UpdateExchangeRate(employeeContext(), domain.ExchangeRateUpdateRequest{Rate: dec("55.00")})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for employee, got %v", err)
	}

	updated, err := svc.UpdateExchangeRate(ctx, domain.ExchangeRateUpdateRequest{Rate: dec("55.00")})
	if err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if !updated.Rate.Equal(dec("55.00")) {
		t.Fatalf("expected rate 55.00, got %s", updated.Rate)
	}

	// New sales pick up the updated rate.
	sale, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		PaymentMethod: domain.PaymentUsdCash,
		Items:         []domain.SaleItemInput{{ProductID: 1, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("record sale failed: %v", err)
	}
	if !sale.ExchangeRateUsed.Equal(dec("55.00")) {
		t.Fatalf("expected sale at new rate, got %s", sale.ExchangeRateUsed)
	}
}

func TestUpdateExchangeRateRejectsNonPositive(t *testing.T) {
	svc, ctx := newTestService(t)

	_, err := svc.UpdateExchangeRate(ctx, domain.ExchangeRateUpdateRequest{Rate: dec("0")})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateProductMergesPartialFields(t *testing.T) {
	svc, ctx := newTestService(t)

	price := dec("1.75")
	updated, err := svc.UpdateProduct(ctx, 1, domain.ProductUpdateRequest{UnitPrice: &price})
	if err != nil {
		t.Fatalf("update product failed: %v", err)
	}
	if !updated.UnitPrice.Equal(price) {
		t.Fatalf("expected price 1.75, got %s", updated.UnitPrice)
	}
	if updated.Name != "Harina de Maiz 1kg" || updated.Quantity != 120 {
		t.Fatalf("expected untouched fields preserved, got %+v", updated)
	}
}

func TestAuditLogsRecordMutations(t *testing.T) {
	svc, ctx := newTestService(t)

	if _, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		PaymentMethod: domain.PaymentUsdCash,
		Items:         []domain.SaleItemInput{{ProductID: 1, Quantity: 1}},
	}); err != nil {
		t.Fatalf("record sale failed: %v", err)
	}

	logs, err := svc.ListAuditLogs(ctx, "", 50)
	if err != nil {
		t.Fatalf("list audit logs failed: %v", err)
	}
	if len(logs) == 0 {
		t.Fatalf("expected at least one audit entry")
	}
	found := false
	for _, entry := range logs {
		if entry.Action == "sale_record" {
			found = true
			if entry.ActorUsername != "admin" {
				t.Fatalf("expected actor admin, got %s", entry.ActorUsername)
			}
		}
	}
	if !found {
		t.Fatalf("expected sale_record audit entry, got %+v", logs)
	}
}

func TestListAuditLogsRequiresCapability(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ListAuditLogs(employeeContext(), "", 50)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
