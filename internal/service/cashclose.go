package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"ventamax/backend/internal/domain"
	"ventamax/backend/internal/reconcile"
	"ventamax/backend/internal/store"
)

// CloseProducts lists the catalog with display-ready quantities for a
// physical count sheet.
func (s *Service) CloseProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) CommitCashClose(ctx context.Context, req domain.CashCloseRequest) ([]domain.CashCloseDetail, error) {
	actor, err := require(ctx, CapCommitCashClose)
	if err != nil {
		return nil, err
	}

	closeDate, err := normalizeDate(req.CloseDate)
	if err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, store.ErrInvalidInput
	}

	rate, err := s.GetExchangeRate(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]domain.CashCloseRecord, 0, len(req.Items))
	for _, item := range req.Items {
		if item.PhysicalBoxes < 0 || item.PhysicalUnits < 0 {
			return nil, store.ErrInvalidInput
		}
		product, err := s.repo.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}

		physical := reconcile.PhysicalQuantity(item.PhysicalBoxes, item.PhysicalUnits, product.UnitsPerBox)
		records = append(records, domain.CashCloseRecord{
			CloseDate:        closeDate,
			ProductID:        product.ID,
			ProductName:      product.Name,
			SystemQuantity:   product.Quantity,
			PhysicalQuantity: physical,
			Difference:       product.Quantity - physical,
			UnitsPerBox:      product.UnitsPerBox,
			UnitPrice:        product.UnitPrice,
			CreatedBy:        actor.Username,
		})
	}

	saved, err := s.repo.SaveCashClose(ctx, records)
	if err != nil {
		return nil, err
	}

	details := make([]domain.CashCloseDetail, 0, len(saved))
	for _, record := range saved {
		details = append(details, closeDetail(record, rate.Rate))
	}

	s.logAudit(ctx, "cash_close_commit", "cash_close", closeDate, fmt.Sprintf("products=%d", len(saved)))
	return details, nil
}

func (s *Service) CloseHistory(ctx context.Context, limit int) ([]domain.CashCloseSummary, error) {
	if limit < 1 {
		limit = 30
	}

	dates, err := s.repo.CashCloseDates(ctx, limit)
	if err != nil {
		return nil, err
	}
	rate, err := s.GetExchangeRate(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.CashCloseSummary, 0, len(dates))
	for _, date := range dates {
		records, err := s.repo.CashCloseByDate(ctx, date)
		if err != nil {
			return nil, err
		}
		summary := domain.CashCloseSummary{
			CloseDate:    date,
			ProductCount: len(records),
			TotalSaleUsd: decimal.Zero,
			TotalSaleBs:  decimal.Zero,
		}
		for _, record := range records {
			diff := record.Difference
			if diff < 0 {
				diff = -diff
			}
			summary.TotalDifference += diff
			saleUsd, saleBs := reconcile.Revenue(record.Difference, record.UnitPrice, rate.Rate)
			summary.TotalSaleUsd = summary.TotalSaleUsd.Add(saleUsd)
			summary.TotalSaleBs = summary.TotalSaleBs.Add(saleBs)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *Service) CloseDetails(ctx context.Context, date string) ([]domain.CashCloseDetail, error) {
	date, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.CashCloseByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	rate, err := s.GetExchangeRate(ctx)
	if err != nil {
		return nil, err
	}

	details := make([]domain.CashCloseDetail, 0, len(records))
	for _, record := range records {
		details = append(details, closeDetail(record, rate.Rate))
	}
	return details, nil
}

func closeDetail(record domain.CashCloseRecord, rate decimal.Decimal) domain.CashCloseDetail {
	saleUsd, saleBs := reconcile.Revenue(record.Difference, record.UnitPrice, rate)
	return domain.CashCloseDetail{
		CashCloseRecord: record,
		SystemDisplay:   reconcile.Format(record.SystemQuantity, record.UnitsPerBox),
		PhysicalDisplay: reconcile.Format(record.PhysicalQuantity, record.UnitsPerBox),
		SaleUsd:         saleUsd,
		SaleBs:          saleBs,
	}
}
