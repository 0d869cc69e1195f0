package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"ventamax/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrShiftAlreadyOpen  = errors.New("shift already open")
	ErrDuplicateSKU      = errors.New("duplicate sku")
	ErrDuplicateAccount  = errors.New("duplicate account code")
	ErrInvalidInput      = errors.New("invalid input")
)

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	ListAccounts(ctx context.Context) ([]domain.Account, error)
	GetAccount(ctx context.Context, id int64) (*domain.Account, error)
	CreateAccount(ctx context.Context, account domain.Account) (*domain.Account, error)

	ListLedgerTransactions(ctx context.Context, limit int) ([]domain.LedgerTransaction, error)
	CreateLedgerTransaction(ctx context.Context, tx domain.LedgerTransaction) (*domain.LedgerTransaction, error)
	DeleteLedgerTransaction(ctx context.Context, id int64) error

	ListSales(ctx context.Context, limit int) ([]domain.Sale, error)
	GetSale(ctx context.Context, id int64) (*domain.Sale, error)
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	CancelSale(ctx context.Context, id int64) (*domain.Sale, error)
	SalesByDate(ctx context.Context, date string) ([]domain.Sale, error)

	SaveCashClose(ctx context.Context, records []domain.CashCloseRecord) ([]domain.CashCloseRecord, error)
	CashCloseDates(ctx context.Context, limit int) ([]string, error)
	CashCloseByDate(ctx context.Context, date string) ([]domain.CashCloseRecord, error)

	OpenShift(ctx context.Context, openedBy string, at time.Time) (*domain.Shift, error)
	CloseShift(ctx context.Context, closedBy string, notes string, finalQuantities map[int64]int, at time.Time) (*domain.Shift, error)
	CurrentShift(ctx context.Context) (*domain.Shift, error)
	ListShifts(ctx context.Context, limit int) ([]domain.Shift, error)
	GetShift(ctx context.Context, id int64) (*domain.Shift, error)

	GetExchangeRate(ctx context.Context) (*domain.ExchangeRate, error)
	UpdateExchangeRate(ctx context.Context, rate decimal.Decimal, updatedBy string) (*domain.ExchangeRate, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)
}
