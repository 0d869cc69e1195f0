package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ventamax/backend/internal/domain"
	"ventamax/backend/internal/store"
)

var ErrUnbalancedEntry = errors.New("entries do not balance")

// balanceTolerance absorbs rounding drift between debit and credit
// totals. Anything beyond one cent is a real imbalance.
var balanceTolerance = decimal.RequireFromString("0.01")

func (s *Service) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.repo.ListAccounts(ctx)
}

func (s *Service) CreateAccount(ctx context.Context, req domain.AccountCreateRequest) (domain.Account, error) {
	if _, err := require(ctx, CapManageAccounts); err != nil {
		return domain.Account{}, err
	}

	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	if req.Code == "" || req.Name == "" {
		return domain.Account{}, store.ErrInvalidInput
	}
	if !domain.ValidAccountType(req.Type) {
		return domain.Account{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateAccount(ctx, domain.Account{
		Code: req.Code,
		Name: req.Name,
		Type: req.Type,
	})
	if err != nil {
		return domain.Account{}, err
	}

	s.logAudit(ctx, "account_create", "account", created.Code, fmt.Sprintf("name=%s,type=%s", created.Name, created.Type))
	return *created, nil
}

func (s *Service) ListLedgerTransactions(ctx context.Context, limit int) ([]domain.LedgerTransaction, error) {
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListLedgerTransactions(ctx, limit)
}

func (s *Service) PostTransaction(ctx context.Context, req domain.LedgerTransactionCreateRequest) (domain.LedgerTransaction, error) {
	actor, err := require(ctx, CapPostTransaction)
	if err != nil {
		return domain.LedgerTransaction{}, err
	}

	date, err := normalizeDate(req.Date)
	if err != nil {
		return domain.LedgerTransaction{}, err
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		return domain.LedgerTransaction{}, store.ErrInvalidInput
	}
	if len(req.Entries) == 0 {
		return domain.LedgerTransaction{}, store.ErrInvalidInput
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	entries := make([]domain.LedgerEntry, 0, len(req.Entries))
	for _, input := range req.Entries {
		if input.AccountID < 1 {
			return domain.LedgerTransaction{}, store.ErrInvalidInput
		}
		if input.Debit.IsNegative() || input.Credit.IsNegative() {
			return domain.LedgerTransaction{}, store.ErrInvalidInput
		}
		if input.Debit.IsZero() && input.Credit.IsZero() {
			return domain.LedgerTransaction{}, store.ErrInvalidInput
		}
		totalDebit = totalDebit.Add(input.Debit)
		totalCredit = totalCredit.Add(input.Credit)
		entries = append(entries, domain.LedgerEntry{
			AccountID: input.AccountID,
			Debit:     input.Debit,
			Credit:    input.Credit,
		})
	}

	if totalDebit.Sub(totalCredit).Abs().GreaterThan(balanceTolerance) {
		return domain.LedgerTransaction{}, ErrUnbalancedEntry
	}

	created, err := s.repo.CreateLedgerTransaction(ctx, domain.LedgerTransaction{
		Date:        date,
		Description: req.Description,
		Reference:   strings.TrimSpace(req.Reference),
		CreatedBy:   actor.Username,
		Entries:     entries,
	})
	if err != nil {
		return domain.LedgerTransaction{}, err
	}

	s.logAudit(ctx, "transaction_post", "ledger_transaction", fmt.Sprintf("%d", created.ID), fmt.Sprintf("debit=%s,credit=%s", totalDebit.StringFixed(2), totalCredit.StringFixed(2)))
	return *created, nil
}

func (s *Service) DeleteTransaction(ctx context.Context, id int64) error {
	if _, err := require(ctx, CapDeleteTransaction); err != nil {
		return err
	}
	if err := s.repo.DeleteLedgerTransaction(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "transaction_delete", "ledger_transaction", fmt.Sprintf("%d", id), "")
	return nil
}
