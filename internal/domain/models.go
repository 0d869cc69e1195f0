package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID      int64           `json:"id"`
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Balance decimal.Decimal `json:"balance"`
}

type AccountCreateRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type LedgerEntry struct {
	ID            int64           `json:"id"`
	TransactionID int64           `json:"transaction_id"`
	AccountID     int64           `json:"account_id"`
	AccountCode   string          `json:"account_code,omitempty"`
	AccountName   string          `json:"account_name,omitempty"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
}

type LedgerTransaction struct {
	ID          int64         `json:"id"`
	Date        string        `json:"date"`
	Description string        `json:"description"`
	Reference   string        `json:"reference,omitempty"`
	CreatedBy   string        `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
	Entries     []LedgerEntry `json:"entries"`
}

type LedgerEntryInput struct {
	AccountID int64           `json:"account_id"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

type LedgerTransactionCreateRequest struct {
	Date        string             `json:"date"`
	Description string             `json:"description"`
	Reference   string             `json:"reference,omitempty"`
	Entries     []LedgerEntryInput `json:"entries"`
}

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitsPerBox int             `json:"units_per_box"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Category    string          `json:"category,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ProductCreateRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	SKU         string          `json:"sku"`
	Quantity    int             `json:"quantity"`
	UnitsPerBox int             `json:"units_per_box"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Category    string          `json:"category"`
}

type ProductUpdateRequest struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	SKU         *string          `json:"sku,omitempty"`
	Quantity    *int             `json:"quantity,omitempty"`
	UnitsPerBox *int             `json:"units_per_box,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	Category    *string          `json:"category,omitempty"`
}

type SaleItem struct {
	ID           int64           `json:"id"`
	SaleID       int64           `json:"sale_id"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	UnitPriceUsd decimal.Decimal `json:"unit_price_usd"`
	UnitPriceBs  decimal.Decimal `json:"unit_price_bs"`
	SubtotalUsd  decimal.Decimal `json:"subtotal_usd"`
	SubtotalBs   decimal.Decimal `json:"subtotal_bs"`
}

type Sale struct {
	ID               int64           `json:"id"`
	SaleNumber       string          `json:"sale_number"`
	Date             string          `json:"date"`
	CustomerName     string          `json:"customer_name,omitempty"`
	PaymentMethod    string          `json:"payment_method"`
	TotalUsd         decimal.Decimal `json:"total_usd"`
	TotalBs          decimal.Decimal `json:"total_bs"`
	ExchangeRateUsed decimal.Decimal `json:"exchange_rate_used"`
	CreatedBy        string          `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
	Items            []SaleItem      `json:"items"`
}

type SaleItemInput struct {
	ProductID    int64           `json:"product_id"`
	Quantity     int             `json:"quantity"`
	UnitPriceUsd decimal.Decimal `json:"unit_price_usd"`
	UnitPriceBs  decimal.Decimal `json:"unit_price_bs"`
}

type SaleCreateRequest struct {
	Date          string          `json:"date"`
	CustomerName  string          `json:"customer_name"`
	PaymentMethod string          `json:"payment_method"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate"`
	Items         []SaleItemInput `json:"items"`
}

type CashCloseItemInput struct {
	ProductID     int64 `json:"product_id"`
	PhysicalBoxes int   `json:"physical_boxes"`
	PhysicalUnits int   `json:"physical_units"`
}

type CashCloseRequest struct {
	CloseDate string               `json:"close_date"`
	Items     []CashCloseItemInput `json:"items"`
}

type CashCloseRecord struct {
	ID               int64           `json:"id"`
	CloseDate        string          `json:"close_date"`
	ProductID        int64           `json:"product_id"`
	ProductName      string          `json:"product_name"`
	SystemQuantity   int             `json:"system_quantity"`
	PhysicalQuantity int             `json:"physical_quantity"`
	Difference       int             `json:"difference"`
	UnitsPerBox      int             `json:"units_per_box"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	CreatedBy        string          `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
}

type CashCloseDetail struct {
	CashCloseRecord
	SystemDisplay   string          `json:"system_display"`
	PhysicalDisplay string          `json:"physical_display"`
	SaleUsd         decimal.Decimal `json:"sale_usd"`
	SaleBs          decimal.Decimal `json:"sale_bs"`
}

type CashCloseSummary struct {
	CloseDate       string          `json:"close_date"`
	ProductCount    int             `json:"product_count"`
	TotalDifference int             `json:"total_difference"`
	TotalSaleUsd    decimal.Decimal `json:"total_sale_usd"`
	TotalSaleBs     decimal.Decimal `json:"total_sale_bs"`
}

type ShiftInventory struct {
	ShiftID         int64  `json:"shift_id"`
	ProductID       int64  `json:"product_id"`
	ProductName     string `json:"product_name"`
	InitialQuantity int    `json:"initial_quantity"`
	FinalQuantity   *int   `json:"final_quantity,omitempty"`
	UnitsPerBox     int    `json:"units_per_box"`
}

type Shift struct {
	ID        int64            `json:"id"`
	OpenedAt  time.Time        `json:"opened_at"`
	ClosedAt  *time.Time       `json:"closed_at,omitempty"`
	OpenedBy  string           `json:"opened_by"`
	ClosedBy  string           `json:"closed_by,omitempty"`
	Status    string           `json:"status"`
	Notes     string           `json:"notes,omitempty"`
	Inventory []ShiftInventory `json:"inventory,omitempty"`
}

type ShiftCloseRequest struct {
	Notes string `json:"notes"`
}

type ShiftDetailItem struct {
	ProductID       int64  `json:"product_id"`
	ProductName     string `json:"product_name"`
	InitialQuantity int    `json:"initial_quantity"`
	FinalQuantity   *int   `json:"final_quantity,omitempty"`
	Sold            int    `json:"sold"`
	UnitsPerBox     int    `json:"units_per_box"`
	InitialDisplay  string `json:"initial_display"`
	FinalDisplay    string `json:"final_display,omitempty"`
}

type ShiftDetail struct {
	Shift Shift             `json:"shift"`
	Items []ShiftDetailItem `json:"items"`
}

type ExchangeRate struct {
	Rate      decimal.Decimal `json:"rate"`
	UpdatedAt time.Time       `json:"updated_at"`
	UpdatedBy string          `json:"updated_by,omitempty"`
}

type ExchangeRateUpdateRequest struct {
	Rate decimal.Decimal `json:"rate"`
}

type DailyReportProduct struct {
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	InitialStock int             `json:"initial_stock"`
	Sold         int             `json:"sold"`
	FinalStock   int             `json:"final_stock"`
	RevenueUsd   decimal.Decimal `json:"revenue_usd"`
	RevenueBs    decimal.Decimal `json:"revenue_bs"`
}

type DailyReportPayment struct {
	PaymentMethod string          `json:"payment_method"`
	Sales         int64           `json:"sales"`
	TotalUsd      decimal.Decimal `json:"total_usd"`
	TotalBs       decimal.Decimal `json:"total_bs"`
}

type DailyReport struct {
	Date      string               `json:"date"`
	Sales     int64                `json:"sales"`
	TotalUsd  decimal.Decimal      `json:"total_usd"`
	TotalBs   decimal.Decimal      `json:"total_bs"`
	Products  []DailyReportProduct `json:"products"`
	ByPayment []DailyReportPayment `json:"by_payment"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	Superuser   bool   `json:"superuser"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username  string
	Role      string
	Superuser bool
}

type UserCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type UserInfo struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Superuser bool      `json:"superuser"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Superuser bool
	Active    bool
	CreatedAt time.Time
}

type AuditLog struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

const (
	AccountTypeAsset     = "asset"
	AccountTypeLiability = "liability"
	AccountTypeEquity    = "equity"
	AccountTypeRevenue   = "revenue"
	AccountTypeExpense   = "expense"
)

const (
	PaymentPagoMovil = "pago_movil"
	PaymentPOS       = "pos"
	PaymentBsCash    = "bs_cash"
	PaymentUsdCash   = "usd_cash"
	PaymentZelle     = "zelle"
	PaymentBinance   = "binance"
)

const (
	ShiftStatusOpen   = "open"
	ShiftStatusClosed = "closed"
)

const (
	RoleOwner    = "owner"
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// ValidAccountType reports whether t is one of the closed account type set.
func ValidAccountType(t string) bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentPagoMovil, PaymentPOS, PaymentBsCash, PaymentUsdCash, PaymentZelle, PaymentBinance:
		return true
	}
	return false
}

// ValidRole reports whether r is one of the closed role set.
func ValidRole(r string) bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleEmployee:
		return true
	}
	return false
}

// ContraNatural reports whether an account type carries a credit-natural
// balance, so debits decrease it and credits increase it.
func ContraNatural(accountType string) bool {
	switch accountType {
	case AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue:
		return true
	}
	return false
}
