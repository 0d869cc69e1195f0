package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ventamax/backend/internal/domain"
	"ventamax/backend/internal/reconcile"
)

func (s *Service) OpenShift(ctx context.Context) (domain.Shift, error) {
	actor, err := require(ctx, CapManageShifts)
	if err != nil {
		return domain.Shift{}, err
	}

	opened, err := s.repo.OpenShift(ctx, actor.Username, time.Now().UTC())
	if err != nil {
		return domain.Shift{}, err
	}

	s.logAudit(ctx, "shift_open", "shift", fmt.Sprintf("%d", opened.ID), fmt.Sprintf("products=%d", len(opened.Inventory)))
	return *opened, nil
}

func (s *Service) CloseShift(ctx context.Context, req domain.ShiftCloseRequest) (domain.Shift, error) {
	actor, err := require(ctx, CapManageShifts)
	if err != nil {
		return domain.Shift{}, err
	}

	closed, err := s.repo.CloseShift(ctx, actor.Username, strings.TrimSpace(req.Notes), nil, time.Now().UTC())
	if err != nil {
		return domain.Shift{}, err
	}

	s.logAudit(ctx, "shift_close", "shift", fmt.Sprintf("%d", closed.ID), "")
	return *closed, nil
}

func (s *Service) CurrentShift(ctx context.Context) (domain.Shift, error) {
	current, err := s.repo.CurrentShift(ctx)
	if err != nil {
		return domain.Shift{}, err
	}
	return *current, nil
}

func (s *Service) ShiftHistory(ctx context.Context, limit int) ([]domain.Shift, error) {
	if limit < 1 {
		limit = 30
	}
	return s.repo.ListShifts(ctx, limit)
}

func (s *Service) ShiftDetails(ctx context.Context, id int64) (domain.ShiftDetail, error) {
	shift, err := s.repo.GetShift(ctx, id)
	if err != nil {
		return domain.ShiftDetail{}, err
	}

	items := make([]domain.ShiftDetailItem, 0, len(shift.Inventory))
	for _, row := range shift.Inventory {
		item := domain.ShiftDetailItem{
			ProductID:       row.ProductID,
			ProductName:     row.ProductName,
			InitialQuantity: row.InitialQuantity,
			FinalQuantity:   row.FinalQuantity,
			UnitsPerBox:     row.UnitsPerBox,
			InitialDisplay:  reconcile.Format(row.InitialQuantity, row.UnitsPerBox),
		}
		if row.FinalQuantity != nil {
			item.Sold = row.InitialQuantity - *row.FinalQuantity
			item.FinalDisplay = reconcile.Format(*row.FinalQuantity, row.UnitsPerBox)
		}
		items = append(items, item)
	}

	detail := domain.ShiftDetail{Shift: *shift, Items: items}
	detail.Shift.Inventory = nil
	return detail, nil
}
