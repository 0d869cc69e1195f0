package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"ventamax/backend/internal/domain"
	"ventamax/backend/internal/store"
)

func (s *Service) ListSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListSales(ctx, limit)
}

func (s *Service) GetSale(ctx context.Context, id int64) (domain.Sale, error) {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) RecordSale(ctx context.Context, req domain.SaleCreateRequest) (domain.Sale, error) {
	actor, err := require(ctx, CapRecordSale)
	if err != nil {
		return domain.Sale{}, err
	}

	date, err := normalizeDate(req.Date)
	if err != nil {
		return domain.Sale{}, err
	}
	if !domain.ValidPaymentMethod(req.PaymentMethod) {
		return domain.Sale{}, store.ErrInvalidInput
	}
	if len(req.Items) == 0 {
		return domain.Sale{}, store.ErrInvalidInput
	}
	// Validate before merging so a bad line cannot hide inside a combined one.
	for _, item := range req.Items {
		if item.ProductID < 1 || item.Quantity < 1 {
			return domain.Sale{}, store.ErrInvalidInput
		}
	}

	rate, err := s.effectiveRate(ctx, req.ExchangeRate)
	if err != nil {
		return domain.Sale{}, err
	}

	lines := mergeSaleLines(req.Items)
	totalUsd := decimal.Zero
	totalBs := decimal.Zero
	items := make([]domain.SaleItem, 0, len(lines))
	for _, line := range lines {
		if line.ProductID < 1 || line.Quantity < 1 {
			return domain.Sale{}, store.ErrInvalidInput
		}

		priceUsd := line.UnitPriceUsd
		if priceUsd.IsZero() {
			product, err := s.repo.GetProduct(ctx, line.ProductID)
			if err != nil {
				return domain.Sale{}, err
			}
			priceUsd = product.UnitPrice
		}
		if priceUsd.IsNegative() {
			return domain.Sale{}, store.ErrInvalidInput
		}
		priceBs := line.UnitPriceBs
		if priceBs.IsZero() {
			priceBs = priceUsd.Mul(rate)
		}

		qty := decimal.NewFromInt(int64(line.Quantity))
		subtotalUsd := priceUsd.Mul(qty)
		subtotalBs := priceBs.Mul(qty)
		totalUsd = totalUsd.Add(subtotalUsd)
		totalBs = totalBs.Add(subtotalBs)

		items = append(items, domain.SaleItem{
			ProductID:    line.ProductID,
			Quantity:     line.Quantity,
			UnitPriceUsd: priceUsd,
			UnitPriceBs:  priceBs,
			SubtotalUsd:  subtotalUsd,
			SubtotalBs:   subtotalBs,
		})
	}

	created, err := s.repo.CreateSale(ctx, domain.Sale{
		Date:             date,
		CustomerName:     strings.TrimSpace(req.CustomerName),
		PaymentMethod:    req.PaymentMethod,
		TotalUsd:         totalUsd,
		TotalBs:          totalBs,
		ExchangeRateUsed: rate,
		CreatedBy:        actor.Username,
		Items:            items,
	})
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "sale_record", "sale", created.SaleNumber, fmt.Sprintf("total_usd=%s,method=%s", created.TotalUsd.StringFixed(2), created.PaymentMethod))
	return *created, nil
}

func (s *Service) CancelSale(ctx context.Context, id int64) (domain.Sale, error) {
	if _, err := require(ctx, CapCancelSale); err != nil {
		return domain.Sale{}, err
	}

	cancelled, err := s.repo.CancelSale(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "sale_cancel", "sale", cancelled.SaleNumber, fmt.Sprintf("total_usd=%s", cancelled.TotalUsd.StringFixed(2)))
	return *cancelled, nil
}

func (s *Service) DailyReport(ctx context.Context, date string) (domain.DailyReport, error) {
	if _, err := require(ctx, CapViewReports); err != nil {
		return domain.DailyReport{}, err
	}

	date, err := normalizeDate(date)
	if err != nil {
		return domain.DailyReport{}, err
	}

	sales, err := s.repo.SalesByDate(ctx, date)
	if err != nil {
		return domain.DailyReport{}, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return domain.DailyReport{}, err
	}

	report := domain.DailyReport{
		Date:      date,
		TotalUsd:  decimal.Zero,
		TotalBs:   decimal.Zero,
		Products:  make([]domain.DailyReportProduct, 0, len(products)),
		ByPayment: make([]domain.DailyReportPayment, 0, 6),
	}

	soldByProduct := map[int64]int{}
	revenueUsdByProduct := map[int64]decimal.Decimal{}
	revenueBsByProduct := map[int64]decimal.Decimal{}
	byPayment := map[string]*domain.DailyReportPayment{}

	for _, sale := range sales {
		report.Sales++
		report.TotalUsd = report.TotalUsd.Add(sale.TotalUsd)
		report.TotalBs = report.TotalBs.Add(sale.TotalBs)

		payment := byPayment[sale.PaymentMethod]
		if payment == nil {
			payment = &domain.DailyReportPayment{
				PaymentMethod: sale.PaymentMethod,
				TotalUsd:      decimal.Zero,
				TotalBs:       decimal.Zero,
			}
			byPayment[sale.PaymentMethod] = payment
		}
		payment.Sales++
		payment.TotalUsd = payment.TotalUsd.Add(sale.TotalUsd)
		payment.TotalBs = payment.TotalBs.Add(sale.TotalBs)

		for _, item := range sale.Items {
			soldByProduct[item.ProductID] += item.Quantity
			revenueUsdByProduct[item.ProductID] = revenueUsdByProduct[item.ProductID].Add(item.SubtotalUsd)
			revenueBsByProduct[item.ProductID] = revenueBsByProduct[item.ProductID].Add(item.SubtotalBs)
		}
	}

	// Initial stock is reconstructed from the current level plus what the
	// day sold. Restocks during the day shift this number; the report is a
	// close-of-day summary, not a movement ledger.
	for _, product := range products {
		sold := soldByProduct[product.ID]
		report.Products = append(report.Products, domain.DailyReportProduct{
			ProductID:    product.ID,
			ProductName:  product.Name,
			InitialStock: product.Quantity + sold,
			Sold:         sold,
			FinalStock:   product.Quantity,
			RevenueUsd:   revenueUsdByProduct[product.ID],
			RevenueBs:    revenueBsByProduct[product.ID],
		})
	}

	for _, entry := range byPayment {
		report.ByPayment = append(report.ByPayment, *entry)
	}
	slices.SortFunc(report.ByPayment, func(a, b domain.DailyReportPayment) int {
		return strings.Compare(a.PaymentMethod, b.PaymentMethod)
	})

	return report, nil
}

// mergeSaleLines collapses repeated product lines into one, so the stock
// decrement sees the combined quantity. The first line's prices win.
func mergeSaleLines(items []domain.SaleItemInput) []domain.SaleItemInput {
	merged := make([]domain.SaleItemInput, 0, len(items))
	index := map[int64]int{}
	for _, item := range items {
		if at, ok := index[item.ProductID]; ok {
			merged[at].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged
}
