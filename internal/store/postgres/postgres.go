package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"ventamax/backend/internal/domain"
	"ventamax/backend/internal/store"
	"ventamax/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(description,''), COALESCE(sku,''), quantity, units_per_box, unit_price, COALESCE(category,''), created_at
		FROM products
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.SKU, &p.Quantity, &p.UnitsPerBox, &p.UnitPrice, &p.Category, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(description,''), COALESCE(sku,''), quantity, units_per_box, unit_price, COALESCE(category,''), created_at
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.SKU, &p.Quantity, &p.UnitsPerBox, &p.UnitPrice, &p.Category, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.Quantity < 0 || product.UnitsPerBox < 1 {
		return nil, store.ErrInvalidInput
	}
	if product.UnitPrice.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO products (name, description, sku, quantity, units_per_box, unit_price, category, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, product.Name, nullIfEmpty(product.Description), nullIfEmpty(product.SKU), product.Quantity, product.UnitsPerBox, product.UnitPrice, nullIfEmpty(product.Category), product.CreatedAt).Scan(&product.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateSKU
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID < 1 || product.Name == "" || product.Quantity < 0 || product.UnitsPerBox < 1 {
		return nil, store.ErrInvalidInput
	}
	if product.UnitPrice.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, sku = $4, quantity = $5, units_per_box = $6, unit_price = $7, category = $8
		WHERE id = $1
	`, product.ID, product.Name, nullIfEmpty(product.Description), nullIfEmpty(product.SKU), product.Quantity, product.UnitsPerBox, product.UnitPrice, nullIfEmpty(product.Category))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateSKU
		}
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	return s.GetProduct(ctx, product.ID)
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, type, balance
		FROM accounts
		ORDER BY code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0, 16)
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Balance); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return accounts, nil
}

func (s *Store) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	var a domain.Account
	err := s.db.QueryRowContext(ctx, `
		SELECT id, code, name, type, balance
		FROM accounts
		WHERE id = $1
	`, id).Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) CreateAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	if account.Code == "" || account.Name == "" || !domain.ValidAccountType(account.Type) {
		return nil, store.ErrInvalidInput
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO accounts (code, name, type, balance)
		VALUES ($1,$2,$3,0)
		RETURNING id
	`, account.Code, account.Name, account.Type).Scan(&account.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateAccount
		}
		return nil, err
	}

	account.Balance = decimal.Zero
	created := account
	return &created, nil
}

func (s *Store) ListLedgerTransactions(ctx context.Context, limit int) ([]domain.LedgerTransaction, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tx_date, description, COALESCE(reference,''), created_by, created_at
		FROM ledger_transactions
		ORDER BY tx_date DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]domain.LedgerTransaction, 0, limit)
	ids := make([]int64, 0, limit)
	for rows.Next() {
		var tx domain.LedgerTransaction
		var txDate time.Time
		if err := rows.Scan(&tx.ID, &txDate, &tx.Description, &tx.Reference, &tx.CreatedBy, &tx.CreatedAt); err != nil {
			return nil, err
		}
		tx.Date = txDate.UTC().Format("2006-01-02")
		tx.CreatedAt = tx.CreatedAt.UTC()
		tx.Entries = make([]domain.LedgerEntry, 0, 2)
		transactions = append(transactions, tx)
		ids = append(ids, tx.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(transactions) == 0 {
		return transactions, nil
	}

	entryRows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.transaction_id, e.account_id, a.code, a.name, e.debit, e.credit
		FROM ledger_entries e
		JOIN accounts a ON a.id = e.account_id
		WHERE e.transaction_id = ANY($1)
		ORDER BY e.id
	`, ids)
	if err != nil {
		return nil, err
	}
	defer entryRows.Close()

	byID := make(map[int64]int, len(transactions))
	for i, tx := range transactions {
		byID[tx.ID] = i
	}
	for entryRows.Next() {
		var e domain.LedgerEntry
		if err := entryRows.Scan(&e.ID, &e.TransactionID, &e.AccountID, &e.AccountCode, &e.AccountName, &e.Debit, &e.Credit); err != nil {
			return nil, err
		}
		if i, ok := byID[e.TransactionID]; ok {
			transactions[i].Entries = append(transactions[i].Entries, e)
		}
	}
	if err := entryRows.Err(); err != nil {
		return nil, err
	}

	return transactions, nil
}

func (s *Store) CreateLedgerTransaction(ctx context.Context, txn domain.LedgerTransaction) (*domain.LedgerTransaction, error) {
	if txn.Description == "" || len(txn.Entries) == 0 {
		return nil, store.ErrInvalidInput
	}
	txDate, err := parseDate(txn.Date)
	if err != nil {
		return nil, store.ErrInvalidInput
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO ledger_transactions (tx_date, description, reference, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`, txDate, txn.Description, nullIfEmpty(txn.Reference), txn.CreatedBy, txn.CreatedAt).Scan(&txn.ID)
	if err != nil {
		return nil, err
	}

	for i := range txn.Entries {
		entry := &txn.Entries[i]
		entry.TransactionID = txn.ID

		var accountType string
		err := tx.QueryRowContext(ctx, `
			SELECT code, name, type FROM accounts WHERE id = $1
		`, entry.AccountID).Scan(&entry.AccountCode, &entry.AccountName, &accountType)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, store.ErrNotFound
			}
			return nil, err
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO ledger_entries (transaction_id, account_id, debit, credit)
			VALUES ($1,$2,$3,$4)
			RETURNING id
		`, txn.ID, entry.AccountID, entry.Debit, entry.Credit).Scan(&entry.ID)
		if err != nil {
			return nil, err
		}

		delta := balanceDelta(accountType, entry.Debit, entry.Credit)
		_, err = tx.ExecContext(ctx, `
			UPDATE accounts SET balance = balance + $2 WHERE id = $1
		`, entry.AccountID, delta)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := txn
	return &created, nil
}

func (s *Store) DeleteLedgerTransaction(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT e.account_id, a.type, e.debit, e.credit
		FROM ledger_entries e
		JOIN accounts a ON a.id = e.account_id
		WHERE e.transaction_id = $1
	`, id)
	if err != nil {
		return err
	}
	type reversal struct {
		accountID int64
		delta     decimal.Decimal
	}
	reversals := make([]reversal, 0, 2)
	for rows.Next() {
		var accountID int64
		var accountType string
		var debit, credit decimal.Decimal
		if err := rows.Scan(&accountID, &accountType, &debit, &credit); err != nil {
			rows.Close()
			return err
		}
		reversals = append(reversals, reversal{accountID, balanceDelta(accountType, debit, credit).Neg()})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, rev := range reversals {
		_, err := tx.ExecContext(ctx, `
			UPDATE accounts SET balance = balance + $2 WHERE id = $1
		`, rev.accountID, rev.delta)
		if err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM ledger_transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	return tx.Commit()
}

func (s *Store) ListSales(ctx context.Context, limit int) ([]domain.Sale, error) {
	if limit < 1 {
		limit = 100
	}
	return s.querySales(ctx, `
		SELECT id, sale_number, sale_date, COALESCE(customer_name,''), payment_method,
			total_usd, total_bs, exchange_rate_used, created_by, created_at
		FROM sales
		ORDER BY id DESC
		LIMIT $1
	`, limit)
}

func (s *Store) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	sales, err := s.querySales(ctx, `
		SELECT id, sale_number, sale_date, COALESCE(customer_name,''), payment_method,
			total_usd, total_bs, exchange_rate_used, created_by, created_at
		FROM sales
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return nil, store.ErrNotFound
	}
	return &sales[0], nil
}

func (s *Store) SalesByDate(ctx context.Context, date string) ([]domain.Sale, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, store.ErrInvalidInput
	}
	return s.querySales(ctx, `
		SELECT id, sale_number, sale_date, COALESCE(customer_name,''), payment_method,
			total_usd, total_bs, exchange_rate_used, created_by, created_at
		FROM sales
		WHERE sale_date = $1
		ORDER BY id
	`, day)
}

func (s *Store) querySales(ctx context.Context, query string, args ...any) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 32)
	ids := make([]int64, 0, 32)
	for rows.Next() {
		var sale domain.Sale
		var saleDate time.Time
		if err := rows.Scan(&sale.ID, &sale.SaleNumber, &saleDate, &sale.CustomerName, &sale.PaymentMethod,
			&sale.TotalUsd, &sale.TotalBs, &sale.ExchangeRateUsed, &sale.CreatedBy, &sale.CreatedAt); err != nil {
			return nil, err
		}
		sale.Date = saleDate.UTC().Format("2006-01-02")
		sale.CreatedAt = sale.CreatedAt.UTC()
		sale.Items = make([]domain.SaleItem, 0, 4)
		sales = append(sales, sale)
		ids = append(ids, sale.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return sales, nil
	}

	itemRows, err := s.db.QueryContext(ctx, `
		SELECT id, sale_id, product_id, product_name, quantity, unit_price_usd, unit_price_bs, subtotal_usd, subtotal_bs
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	byID := make(map[int64]int, len(sales))
	for i, sale := range sales {
		byID[sale.ID] = i
	}
	for itemRows.Next() {
		var item domain.SaleItem
		if err := itemRows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.ProductName, &item.Quantity,
			&item.UnitPriceUsd, &item.UnitPriceBs, &item.SubtotalUsd, &item.SubtotalBs); err != nil {
			return nil, err
		}
		if i, ok := byID[item.SaleID]; ok {
			sales[i].Items = append(sales[i].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	return sales, nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if len(sale.Items) == 0 || sale.PaymentMethod == "" {
		return nil, store.ErrInvalidInput
	}
	saleDate, err := parseDate(sale.Date)
	if err != nil {
		return nil, store.ErrInvalidInput
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// Relative decrement with a quantity guard keeps the stock check and the
	// write in one statement, so concurrent sales cannot oversell.
	for i := range sale.Items {
		item := &sale.Items[i]
		if item.Quantity < 1 {
			return nil, store.ErrInvalidInput
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET quantity = quantity - $2
			WHERE id = $1 AND quantity >= $2
		`, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, item.ProductID).Scan(&exists); err != nil {
				return nil, err
			}
			if !exists {
				return nil, store.ErrNotFound
			}
			return nil, store.ErrInsufficientStock
		}
		if item.ProductName == "" {
			if err := tx.QueryRowContext(ctx, `SELECT name FROM products WHERE id = $1`, item.ProductID).Scan(&item.ProductName); err != nil {
				return nil, err
			}
		}
	}

	var counter int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO sale_counters (id, value)
		VALUES (1, 1)
		ON CONFLICT (id) DO UPDATE SET value = sale_counters.value + 1
		RETURNING value
	`).Scan(&counter)
	if err != nil {
		return nil, err
	}
	sale.SaleNumber = fmt.Sprintf("V-%04d", counter)

	err = tx.QueryRowContext(ctx, `
		INSERT INTO sales (sale_number, sale_date, customer_name, payment_method, total_usd, total_bs, exchange_rate_used, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id
	`, sale.SaleNumber, saleDate, nullIfEmpty(sale.CustomerName), sale.PaymentMethod,
		sale.TotalUsd, sale.TotalBs, sale.ExchangeRateUsed, sale.CreatedBy, sale.CreatedAt).Scan(&sale.ID)
	if err != nil {
		return nil, err
	}

	for i := range sale.Items {
		item := &sale.Items[i]
		item.SaleID = sale.ID
		err := tx.QueryRowContext(ctx, `
			INSERT INTO sale_items (sale_id, product_id, product_name, quantity, unit_price_usd, unit_price_bs, subtotal_usd, subtotal_bs)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			RETURNING id
		`, sale.ID, item.ProductID, item.ProductName, item.Quantity,
			item.UnitPriceUsd, item.UnitPriceBs, item.SubtotalUsd, item.SubtotalBs).Scan(&item.ID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := sale
	return &created, nil
}

func (s *Store) CancelSale(ctx context.Context, id int64) (*domain.Sale, error) {
	sale, err := s.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, item := range sale.Items {
		_, err := tx.ExecContext(ctx, `
			UPDATE products SET quantity = quantity + $2 WHERE id = $1
		`, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *Store) SaveCashClose(ctx context.Context, records []domain.CashCloseRecord) ([]domain.CashCloseRecord, error) {
	if len(records) == 0 {
		return nil, store.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	saved := make([]domain.CashCloseRecord, 0, len(records))
	for _, record := range records {
		closeDate, err := parseDate(record.CloseDate)
		if err != nil {
			return nil, store.ErrInvalidInput
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = time.Now().UTC()
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO cash_close_records (close_date, product_id, product_name, system_quantity, physical_quantity, difference, units_per_box, unit_price, created_by, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			RETURNING id
		`, closeDate, record.ProductID, record.ProductName, record.SystemQuantity, record.PhysicalQuantity,
			record.Difference, record.UnitsPerBox, record.UnitPrice, record.CreatedBy, record.CreatedAt).Scan(&record.ID)
		if err != nil {
			return nil, err
		}

		// The physical count becomes the new stock level.
		res, err := tx.ExecContext(ctx, `
			UPDATE products SET quantity = $2 WHERE id = $1
		`, record.ProductID, record.PhysicalQuantity)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, store.ErrNotFound
		}
		saved = append(saved, record)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *Store) CashCloseDates(ctx context.Context, limit int) ([]string, error) {
	if limit < 1 {
		limit = 30
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT close_date
		FROM cash_close_records
		ORDER BY close_date DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := make([]string, 0, limit)
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		dates = append(dates, day.UTC().Format("2006-01-02"))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return dates, nil
}

func (s *Store) CashCloseByDate(ctx context.Context, date string) ([]domain.CashCloseRecord, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, store.ErrInvalidInput
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, close_date, product_id, product_name, system_quantity, physical_quantity, difference, units_per_box, unit_price, created_by, created_at
		FROM cash_close_records
		WHERE close_date = $1
		ORDER BY product_name
	`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.CashCloseRecord, 0, 32)
	for rows.Next() {
		var record domain.CashCloseRecord
		var closeDate time.Time
		if err := rows.Scan(&record.ID, &closeDate, &record.ProductID, &record.ProductName, &record.SystemQuantity,
			&record.PhysicalQuantity, &record.Difference, &record.UnitsPerBox, &record.UnitPrice, &record.CreatedBy, &record.CreatedAt); err != nil {
			return nil, err
		}
		record.CloseDate = closeDate.UTC().Format("2006-01-02")
		record.CreatedAt = record.CreatedAt.UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) OpenShift(ctx context.Context, openedBy string, at time.Time) (*domain.Shift, error) {
	if openedBy == "" {
		return nil, store.ErrInvalidInput
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	shift := domain.Shift{
		OpenedAt: at.UTC(),
		OpenedBy: openedBy,
		Status:   domain.ShiftStatusOpen,
	}
	// A partial unique index on shifts(status) WHERE status = 'open' makes a
	// second concurrent open fail with a unique violation.
	err = tx.QueryRowContext(ctx, `
		INSERT INTO shifts (opened_at, opened_by, status)
		VALUES ($1,$2,$3)
		RETURNING id
	`, shift.OpenedAt, shift.OpenedBy, shift.Status).Scan(&shift.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrShiftAlreadyOpen
		}
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, quantity, units_per_box
		FROM products
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var item domain.ShiftInventory
		item.ShiftID = shift.ID
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.InitialQuantity, &item.UnitsPerBox); err != nil {
			rows.Close()
			return nil, err
		}
		shift.Inventory = append(shift.Inventory, item)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, item := range shift.Inventory {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO shift_inventory (shift_id, product_id, product_name, initial_quantity, units_per_box)
			VALUES ($1,$2,$3,$4,$5)
		`, item.ShiftID, item.ProductID, item.ProductName, item.InitialQuantity, item.UnitsPerBox)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &shift, nil
}

func (s *Store) CloseShift(ctx context.Context, closedBy string, notes string, finalQuantities map[int64]int, at time.Time) (*domain.Shift, error) {
	if closedBy == "" {
		return nil, store.ErrInvalidInput
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var shiftID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM shifts WHERE status = $1
	`, domain.ShiftStatusOpen).Scan(&shiftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	if finalQuantities == nil {
		// Snapshot the current stock as the closing count.
		_, err = tx.ExecContext(ctx, `
			UPDATE shift_inventory si
			SET final_quantity = p.quantity
			FROM products p
			WHERE si.shift_id = $1 AND si.product_id = p.id
		`, shiftID)
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE shift_inventory
			SET final_quantity = initial_quantity
			WHERE shift_id = $1 AND final_quantity IS NULL
		`, shiftID)
		if err != nil {
			return nil, err
		}
	} else {
		for productID, qty := range finalQuantities {
			_, err := tx.ExecContext(ctx, `
				UPDATE shift_inventory SET final_quantity = $3
				WHERE shift_id = $1 AND product_id = $2
			`, shiftID, productID, qty)
			if err != nil {
				return nil, err
			}
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE shift_inventory si
			SET final_quantity = p.quantity
			FROM products p
			WHERE si.shift_id = $1 AND si.product_id = p.id AND si.final_quantity IS NULL
		`, shiftID)
		if err != nil {
			return nil, err
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE shifts
		SET status = $2, closed_at = $3, closed_by = $4, notes = $5
		WHERE id = $1
	`, shiftID, domain.ShiftStatusClosed, at.UTC(), closedBy, nullIfEmpty(notes))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetShift(ctx, shiftID)
}

func (s *Store) CurrentShift(ctx context.Context) (*domain.Shift, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM shifts WHERE status = $1
	`, domain.ShiftStatusOpen).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return s.GetShift(ctx, id)
}

func (s *Store) ListShifts(ctx context.Context, limit int) ([]domain.Shift, error) {
	if limit < 1 {
		limit = 30
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, opened_at, closed_at, opened_by, COALESCE(closed_by,''), status, COALESCE(notes,'')
		FROM shifts
		ORDER BY opened_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]domain.Shift, 0, limit)
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return shifts, nil
}

func (s *Store) GetShift(ctx context.Context, id int64) (*domain.Shift, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, opened_at, closed_at, opened_by, COALESCE(closed_by,''), status, COALESCE(notes,'')
		FROM shifts
		WHERE id = $1
	`, id)
	shift, err := scanShift(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT shift_id, product_id, product_name, initial_quantity, final_quantity, units_per_box
		FROM shift_inventory
		WHERE shift_id = $1
		ORDER BY product_name
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.ShiftInventory
		var final sql.NullInt64
		if err := rows.Scan(&item.ShiftID, &item.ProductID, &item.ProductName, &item.InitialQuantity, &final, &item.UnitsPerBox); err != nil {
			return nil, err
		}
		if final.Valid {
			qty := int(final.Int64)
			item.FinalQuantity = &qty
		}
		shift.Inventory = append(shift.Inventory, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &shift, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(row rowScanner) (domain.Shift, error) {
	var shift domain.Shift
	var closedAt sql.NullTime
	if err := row.Scan(&shift.ID, &shift.OpenedAt, &closedAt, &shift.OpenedBy, &shift.ClosedBy, &shift.Status, &shift.Notes); err != nil {
		return domain.Shift{}, err
	}
	shift.OpenedAt = shift.OpenedAt.UTC()
	if closedAt.Valid {
		t := closedAt.Time.UTC()
		shift.ClosedAt = &t
	}
	return shift, nil
}

func (s *Store) GetExchangeRate(ctx context.Context) (*domain.ExchangeRate, error) {
	var rate domain.ExchangeRate
	err := s.db.QueryRowContext(ctx, `
		SELECT rate, updated_at, COALESCE(updated_by,'')
		FROM exchange_rate
		WHERE id = 1
	`).Scan(&rate.Rate, &rate.UpdatedAt, &rate.UpdatedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.ExchangeRate{Rate: decimal.RequireFromString("50.00")}, nil
		}
		return nil, err
	}
	rate.UpdatedAt = rate.UpdatedAt.UTC()
	return &rate, nil
}

func (s *Store) UpdateExchangeRate(ctx context.Context, rate decimal.Decimal, updatedBy string) (*domain.ExchangeRate, error) {
	if !rate.IsPositive() {
		return nil, store.ErrInvalidInput
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exchange_rate (id, rate, updated_at, updated_by)
		VALUES (1,$1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET rate = EXCLUDED.rate, updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by
	`, rate, now, nullIfEmpty(updatedBy))
	if err != nil {
		return nil, err
	}

	return &domain.ExchangeRate{Rate: rate, UpdatedAt: now, UpdatedBy: updatedBy}, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || user.Password == "" {
		return store.ErrInvalidInput
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, superuser, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, username, user.Password, user.Role, user.Superuser, user.Active, user.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return store.ErrInvalidInput
	}
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, superuser, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Superuser, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	if username == "" || password == "" {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, strings.ToLower(strings.TrimSpace(username)), password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, nullIfEmpty(entry.EntityID), nullIfEmpty(entry.Detail), entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 200
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, COALESCE(entity_id,''), COALESCE(detail,''), created_at
		FROM audit_logs
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC
		LIMIT $3
	`, from.UTC(), to.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func balanceDelta(accountType string, debit decimal.Decimal, credit decimal.Decimal) decimal.Decimal {
	delta := debit.Sub(credit)
	if domain.ContraNatural(accountType) {
		return delta.Neg()
	}
	return delta
}

func parseDate(date string) (time.Time, error) {
	return time.Parse("2006-01-02", date)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}
