package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"ventamax/backend/internal/domain"
	"ventamax/backend/internal/store"
	"ventamax/backend/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	products        map[int64]domain.Product
	accounts        map[int64]domain.Account
	ledgerTxByID    map[int64]domain.LedgerTransaction
	salesByID       map[int64]domain.Sale
	cashCloses      []domain.CashCloseRecord
	shiftsByID      map[int64]domain.Shift
	openShiftID     int64
	exchangeRate    domain.ExchangeRate
	usersByUsername map[string]domain.UserAccount
	auditLogs       []domain.AuditLog

	nextProductID int64
	nextAccountID int64
	nextTxID      int64
	nextEntryID   int64
	nextSaleID    int64
	nextItemID    int64
	nextCloseID   int64
	nextShiftID   int64
	saleCounter   int64
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_SELLER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	sellerPwd := envOr("SEED_SELLER_PASSWORD", "seller123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_SELLER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_SELLER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username  string
		password  string
		role      string
		superuser bool
	}{
		{"admin", adminPwd, domain.RoleOwner, true},
		{"vendedor", sellerPwd, domain.RoleEmployee, false},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Superuser: u.superuser,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func seedAccounts() map[int64]domain.Account {
	seed := []domain.Account{
		{ID: 1, Code: "1000", Name: "Caja", Type: domain.AccountTypeAsset},
		{ID: 2, Code: "1100", Name: "Bancos", Type: domain.AccountTypeAsset},
		{ID: 3, Code: "1200", Name: "Inventario", Type: domain.AccountTypeAsset},
		{ID: 4, Code: "2000", Name: "Cuentas por Pagar", Type: domain.AccountTypeLiability},
		{ID: 5, Code: "3000", Name: "Capital", Type: domain.AccountTypeEquity},
		{ID: 6, Code: "4000", Name: "Ventas", Type: domain.AccountTypeRevenue},
		{ID: 7, Code: "5000", Name: "Costo de Ventas", Type: domain.AccountTypeExpense},
		{ID: 8, Code: "6000", Name: "Gastos Administrativos", Type: domain.AccountTypeExpense},
	}
	accounts := make(map[int64]domain.Account, len(seed))
	for _, a := range seed {
		a.Balance = decimal.Zero
		accounts[a.ID] = a
	}
	return accounts
}

func NewSeeded() *Store {
	now := time.Now().UTC()
	products := []domain.Product{
		{ID: 1, Name: "Harina de Maiz 1kg", SKU: "HAR-001", Quantity: 120, UnitsPerBox: 20, UnitPrice: decimal.RequireFromString("1.50"), Category: "alimentos"},
		{ID: 2, Name: "Arroz Blanco 1kg", SKU: "ARR-001", Quantity: 96, UnitsPerBox: 24, UnitPrice: decimal.RequireFromString("1.20"), Category: "alimentos"},
		{ID: 3, Name: "Aceite Vegetal 1L", SKU: "ACE-001", Quantity: 48, UnitsPerBox: 12, UnitPrice: decimal.RequireFromString("3.80"), Category: "alimentos"},
		{ID: 4, Name: "Cafe Molido 250g", SKU: "CAF-001", Quantity: 60, UnitsPerBox: 12, UnitPrice: decimal.RequireFromString("4.50"), Category: "alimentos"},
		{ID: 5, Name: "Azucar Refinada 1kg", SKU: "AZU-001", Quantity: 80, UnitsPerBox: 20, UnitPrice: decimal.RequireFromString("1.10"), Category: "alimentos"},
		{ID: 6, Name: "Refresco Cola 2L", SKU: "REF-001", Quantity: 72, UnitsPerBox: 6, UnitPrice: decimal.RequireFromString("2.20"), Category: "bebidas"},
		{ID: 7, Name: "Agua Mineral 1.5L", SKU: "AGU-001", Quantity: 90, UnitsPerBox: 6, UnitPrice: decimal.RequireFromString("0.80"), Category: "bebidas"},
		{ID: 8, Name: "Jabon de Tocador", SKU: "JAB-001", Quantity: 144, UnitsPerBox: 48, UnitPrice: decimal.RequireFromString("0.90"), Category: "limpieza"},
	}

	productMap := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		p.CreatedAt = now
		productMap[p.ID] = p
	}

	return &Store{
		products:        productMap,
		accounts:        seedAccounts(),
		ledgerTxByID:    make(map[int64]domain.LedgerTransaction),
		salesByID:       make(map[int64]domain.Sale),
		cashCloses:      make([]domain.CashCloseRecord, 0, 64),
		shiftsByID:      make(map[int64]domain.Shift),
		exchangeRate:    domain.ExchangeRate{Rate: decimal.RequireFromString("50.00"), UpdatedAt: now},
		usersByUsername: seedUsers(),
		auditLogs:       make([]domain.AuditLog, 0, 128),
		nextProductID:   int64(len(products)),
		nextAccountID:   8,
	}
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return cmpString(a.Name, b.Name)
	})
	return products, nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(product.Name) == "" || product.Quantity < 0 {
		return nil, store.ErrInvalidInput
	}
	if product.UnitsPerBox < 1 {
		product.UnitsPerBox = 1
	}
	if product.SKU != "" && s.skuTaken(product.SKU, 0) {
		return nil, store.ErrDuplicateSKU
	}

	s.nextProductID++
	product.ID = s.nextProductID
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.products[product.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if strings.TrimSpace(product.Name) == "" || product.Quantity < 0 {
		return nil, store.ErrInvalidInput
	}
	if product.UnitsPerBox < 1 {
		product.UnitsPerBox = 1
	}
	if product.SKU != "" && s.skuTaken(product.SKU, product.ID) {
		return nil, store.ErrDuplicateSKU
	}

	product.CreatedAt = current.CreatedAt
	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) skuTaken(sku string, excludeID int64) bool {
	for _, p := range s.products {
		if p.ID != excludeID && p.SKU != "" && strings.EqualFold(p.SKU, sku) {
			return true
		}
	}
	return false
}

func (s *Store) ListAccounts(_ context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		accounts = append(accounts, a)
	}
	slices.SortFunc(accounts, func(a, b domain.Account) int {
		return cmpString(a.Code, b.Code)
	})
	return accounts, nil
}

func (s *Store) GetAccount(_ context.Context, id int64) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, exists := s.accounts[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyAccount := account
	return &copyAccount, nil
}

func (s *Store) CreateAccount(_ context.Context, account domain.Account) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(account.Code) == "" || strings.TrimSpace(account.Name) == "" {
		return nil, store.ErrInvalidInput
	}
	if !domain.ValidAccountType(account.Type) {
		return nil, store.ErrInvalidInput
	}
	for _, existing := range s.accounts {
		if existing.Code == account.Code {
			return nil, store.ErrDuplicateAccount
		}
	}

	s.nextAccountID++
	account.ID = s.nextAccountID
	account.Balance = decimal.Zero
	s.accounts[account.ID] = account
	created := account
	return &created, nil
}

func (s *Store) ListLedgerTransactions(_ context.Context, limit int) ([]domain.LedgerTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.LedgerTransaction, 0, len(s.ledgerTxByID))
	for _, tx := range s.ledgerTxByID {
		result = append(result, cloneLedgerTx(tx))
	}
	slices.SortFunc(result, func(a, b domain.LedgerTransaction) int {
		if a.Date == b.Date {
			return int(b.ID - a.ID)
		}
		return cmpString(b.Date, a.Date)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) CreateLedgerTransaction(_ context.Context, tx domain.LedgerTransaction) (*domain.LedgerTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(tx.Entries) == 0 {
		return nil, store.ErrInvalidInput
	}
	for _, entry := range tx.Entries {
		if _, exists := s.accounts[entry.AccountID]; !exists {
			return nil, store.ErrNotFound
		}
	}

	s.nextTxID++
	tx.ID = s.nextTxID
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	for i := range tx.Entries {
		s.nextEntryID++
		tx.Entries[i].ID = s.nextEntryID
		tx.Entries[i].TransactionID = tx.ID

		account := s.accounts[tx.Entries[i].AccountID]
		account.Balance = account.Balance.Add(balanceDelta(account.Type, tx.Entries[i].Debit, tx.Entries[i].Credit))
		s.accounts[account.ID] = account
		tx.Entries[i].AccountCode = account.Code
		tx.Entries[i].AccountName = account.Name
	}

	s.ledgerTxByID[tx.ID] = cloneLedgerTx(tx)
	created := cloneLedgerTx(tx)
	return &created, nil
}

func (s *Store) DeleteLedgerTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, exists := s.ledgerTxByID[id]
	if !exists {
		return store.ErrNotFound
	}
	for _, entry := range tx.Entries {
		account, ok := s.accounts[entry.AccountID]
		if !ok {
			continue
		}
		account.Balance = account.Balance.Sub(balanceDelta(account.Type, entry.Debit, entry.Credit))
		s.accounts[account.ID] = account
	}
	delete(s.ledgerTxByID, id)
	return nil
}

// balanceDelta is the signed effect of one entry on an account balance.
// Debit-natural accounts grow with debits; credit-natural accounts grow
// with credits.
func balanceDelta(accountType string, debit, credit decimal.Decimal) decimal.Decimal {
	delta := debit.Sub(credit)
	if domain.ContraNatural(accountType) {
		return delta.Neg()
	}
	return delta
}

func (s *Store) ListSales(_ context.Context, limit int) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Sale, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		result = append(result, cloneSale(sale))
	}
	slices.SortFunc(result, func(a, b domain.Sale) int {
		return int(b.ID - a.ID)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) GetSale(_ context.Context, id int64) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.salesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySale := cloneSale(sale)
	return &copySale, nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(sale.Items) == 0 {
		return nil, store.ErrInvalidInput
	}

	// All stock checks pass before anything is written, so a failed line
	// leaves stock untouched.
	for _, item := range sale.Items {
		product, exists := s.products[item.ProductID]
		if !exists {
			return nil, store.ErrNotFound
		}
		if product.Quantity < item.Quantity {
			return nil, store.ErrInsufficientStock
		}
	}

	s.saleCounter++
	s.nextSaleID++
	sale.ID = s.nextSaleID
	sale.SaleNumber = saleNumber(s.saleCounter)
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	for i := range sale.Items {
		s.nextItemID++
		sale.Items[i].ID = s.nextItemID
		sale.Items[i].SaleID = sale.ID

		product := s.products[sale.Items[i].ProductID]
		product.Quantity -= sale.Items[i].Quantity
		s.products[product.ID] = product
		sale.Items[i].ProductName = product.Name
	}

	s.salesByID[sale.ID] = cloneSale(sale)
	created := cloneSale(sale)
	return &created, nil
}

func (s *Store) CancelSale(_ context.Context, id int64) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, exists := s.salesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	for _, item := range sale.Items {
		product, ok := s.products[item.ProductID]
		if !ok {
			continue
		}
		product.Quantity += item.Quantity
		s.products[product.ID] = product
	}
	delete(s.salesByID, id)
	cancelled := cloneSale(sale)
	return &cancelled, nil
}

func (s *Store) SalesByDate(_ context.Context, date string) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Sale, 0, 32)
	for _, sale := range s.salesByID {
		if sale.Date != date {
			continue
		}
		result = append(result, cloneSale(sale))
	}
	slices.SortFunc(result, func(a, b domain.Sale) int {
		return int(a.ID - b.ID)
	})
	return result, nil
}

func saleNumber(n int64) string {
	return fmt.Sprintf("V-%04d", n)
}

func (s *Store) SaveCashClose(_ context.Context, records []domain.CashCloseRecord) ([]domain.CashCloseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(records) == 0 {
		return nil, store.ErrInvalidInput
	}
	for _, record := range records {
		if _, exists := s.products[record.ProductID]; !exists {
			return nil, store.ErrNotFound
		}
	}

	now := time.Now().UTC()
	saved := make([]domain.CashCloseRecord, 0, len(records))
	for _, record := range records {
		s.nextCloseID++
		record.ID = s.nextCloseID
		if record.CreatedAt.IsZero() {
			record.CreatedAt = now
		}
		// The physical count becomes the new system quantity.
		product := s.products[record.ProductID]
		product.Quantity = record.PhysicalQuantity
		s.products[product.ID] = product

		s.cashCloses = append(s.cashCloses, record)
		saved = append(saved, record)
	}
	return saved, nil
}

func (s *Store) CashCloseDates(_ context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{}
	dates := make([]string, 0, 16)
	for _, record := range s.cashCloses {
		if _, ok := seen[record.CloseDate]; ok {
			continue
		}
		seen[record.CloseDate] = struct{}{}
		dates = append(dates, record.CloseDate)
	}
	slices.SortFunc(dates, func(a, b string) int {
		return cmpString(b, a)
	})
	if limit > 0 && len(dates) > limit {
		dates = dates[:limit]
	}
	return dates, nil
}

func (s *Store) CashCloseByDate(_ context.Context, date string) ([]domain.CashCloseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.CashCloseRecord, 0, 16)
	for _, record := range s.cashCloses {
		if record.CloseDate != date {
			continue
		}
		result = append(result, record)
	}
	slices.SortFunc(result, func(a, b domain.CashCloseRecord) int {
		return cmpString(a.ProductName, b.ProductName)
	})
	return result, nil
}

func (s *Store) OpenShift(_ context.Context, openedBy string, at time.Time) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.openShiftID != 0 {
		return nil, store.ErrShiftAlreadyOpen
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	s.nextShiftID++
	shift := domain.Shift{
		ID:       s.nextShiftID,
		OpenedAt: at,
		OpenedBy: openedBy,
		Status:   domain.ShiftStatusOpen,
	}

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return cmpString(a.Name, b.Name)
	})
	for _, p := range products {
		shift.Inventory = append(shift.Inventory, domain.ShiftInventory{
			ShiftID:         shift.ID,
			ProductID:       p.ID,
			ProductName:     p.Name,
			InitialQuantity: p.Quantity,
			UnitsPerBox:     p.UnitsPerBox,
		})
	}

	s.shiftsByID[shift.ID] = cloneShift(shift)
	s.openShiftID = shift.ID
	opened := cloneShift(shift)
	return &opened, nil
}

func (s *Store) CloseShift(_ context.Context, closedBy string, notes string, finalQuantities map[int64]int, at time.Time) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.openShiftID == 0 {
		return nil, store.ErrNotFound
	}
	shift, exists := s.shiftsByID[s.openShiftID]
	if !exists || shift.Status != domain.ShiftStatusOpen {
		return nil, store.ErrNotFound
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	for i := range shift.Inventory {
		final, ok := finalQuantities[shift.Inventory[i].ProductID]
		if !ok {
			if product, found := s.products[shift.Inventory[i].ProductID]; found {
				final = product.Quantity
			}
		}
		finalCopy := final
		shift.Inventory[i].FinalQuantity = &finalCopy
	}

	shift.Status = domain.ShiftStatusClosed
	shift.ClosedAt = &at
	shift.ClosedBy = closedBy
	shift.Notes = notes

	s.shiftsByID[shift.ID] = cloneShift(shift)
	s.openShiftID = 0
	closed := cloneShift(shift)
	return &closed, nil
}

func (s *Store) CurrentShift(_ context.Context) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.openShiftID == 0 {
		return nil, store.ErrNotFound
	}
	shift, exists := s.shiftsByID[s.openShiftID]
	if !exists {
		return nil, store.ErrNotFound
	}
	current := cloneShift(shift)
	return &current, nil
}

func (s *Store) ListShifts(_ context.Context, limit int) ([]domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Shift, 0, len(s.shiftsByID))
	for _, shift := range s.shiftsByID {
		copyShift := cloneShift(shift)
		copyShift.Inventory = nil
		result = append(result, copyShift)
	}
	slices.SortFunc(result, func(a, b domain.Shift) int {
		return int(b.ID - a.ID)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) GetShift(_ context.Context, id int64) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shift, exists := s.shiftsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyShift := cloneShift(shift)
	return &copyShift, nil
}

func (s *Store) GetExchangeRate(_ context.Context) (*domain.ExchangeRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rate := s.exchangeRate
	return &rate, nil
}

func (s *Store) UpdateExchangeRate(_ context.Context, rate decimal.Decimal, updatedBy string) (*domain.ExchangeRate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !rate.IsPositive() {
		return nil, store.ErrInvalidInput
	}
	s.exchangeRate = domain.ExchangeRate{
		Rate:      rate,
		UpdatedAt: time.Now().UTC(),
		UpdatedBy: updatedBy,
	}
	updated := s.exchangeRate
	return &updated, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidInput
	}
	user.Username = username
	if user.Role == "" {
		user.Role = domain.RoleEmployee
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return cmpString(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}
	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, 64)
	for _, entry := range s.auditLogs {
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
	}
	slices.SortFunc(result, func(a, b domain.AuditLog) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneLedgerTx(src domain.LedgerTransaction) domain.LedgerTransaction {
	dup := src
	entries := make([]domain.LedgerEntry, len(src.Entries))
	copy(entries, src.Entries)
	dup.Entries = entries
	return dup
}

func cloneSale(src domain.Sale) domain.Sale {
	dup := src
	items := make([]domain.SaleItem, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return dup
}

func cloneShift(src domain.Shift) domain.Shift {
	dup := src
	if src.ClosedAt != nil {
		closedAt := *src.ClosedAt
		dup.ClosedAt = &closedAt
	}
	inventory := make([]domain.ShiftInventory, len(src.Inventory))
	for i, row := range src.Inventory {
		if row.FinalQuantity != nil {
			final := *row.FinalQuantity
			row.FinalQuantity = &final
		}
		inventory[i] = row
	}
	dup.Inventory = inventory
	return dup
}
