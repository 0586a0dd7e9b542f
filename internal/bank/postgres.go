package bank

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Postgres implements Store on a PostgreSQL database.
type Postgres struct {
	db *sql.DB
}

// Open connects to the banking database at connStr and applies any pending
// migrations.
func Open(connStr string) (*Postgres, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("bank open: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("bank ping: %w", err)
	}
	if err = migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("bank migrate: %w", err)
	}
	return &Postgres{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS bank_schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return err
	}

	var current int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), -1) FROM bank_schema_version`)
	if err = row.Scan(&current); err != nil {
		return err
	}

	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	for i := current + 1; i < len(entries); i++ {
		data, readErr := migrationFS.ReadFile("migrations/" + entries[i].Name())
		if readErr != nil {
			return fmt.Errorf("read migration %d: %w", i, readErr)
		}
		if _, execErr := db.Exec(string(data)); execErr != nil {
			return fmt.Errorf("migration %d: %w", i, execErr)
		}
		if _, execErr := db.Exec(`INSERT INTO bank_schema_version (version) VALUES ($1)`, i); execErr != nil {
			return fmt.Errorf("migration %d record: %w", i, execErr)
		}
	}
	return nil
}

// Close closes the database.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// DB exposes the underlying handle for seeding.
func (p *Postgres) DB() *sql.DB {
	return p.db
}

func (p *Postgres) AccountsForUser(ctx context.Context, userID string) ([]Account, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT account_id, user_id, account_type, COALESCE(account_nickname, ''), balance, currency
		FROM accounts
		WHERE user_id = $1
		ORDER BY account_id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err = rows.Scan(&a.ID, &a.UserID, &a.Type, &a.Nickname, &a.Balance, &a.Currency); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (p *Postgres) AccountByID(ctx context.Context, userID, accountID string) (Account, error) {
	var a Account
	err := p.db.QueryRowContext(ctx, `
		SELECT account_id, user_id, account_type, COALESCE(account_nickname, ''), balance, currency
		FROM accounts
		WHERE user_id = $1 AND account_id = $2
	`, userID, accountID).Scan(&a.ID, &a.UserID, &a.Type, &a.Nickname, &a.Balance, &a.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return a, err
}

func (p *Postgres) TransactionsForAccount(ctx context.Context, userID, accountID string, limit int) ([]Transaction, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT transaction_id, account_id, user_id, date, description, amount, currency, type, COALESCE(memo, '')
		FROM transactions
		WHERE user_id = $1 AND account_id = $2
		ORDER BY date DESC
		LIMIT $3
	`, userID, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		var t Transaction
		if err = rows.Scan(&t.ID, &t.AccountID, &t.UserID, &t.Date, &t.Description, &t.Amount, &t.Currency, &t.Type, &t.Memo); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// Transfer runs both balance updates and both ledger inserts in one database
// transaction. The debit update is guarded by a balance check so a concurrent
// withdrawal cannot drive the account negative.
func (p *Postgres) Transfer(ctx context.Context, in TransferInstruction) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance - $1
		WHERE user_id = $2 AND account_id = $3 AND balance >= $1
	`, in.Amount, in.UserID, in.FromAccountID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInsufficientBalance
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance + $1
		WHERE user_id = $2 AND account_id = $3
	`, in.Amount, in.UserID, in.ToAccountID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (transaction_id, account_id, user_id, date, description, amount, currency, type, memo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'transfer_debit', $8)
	`, in.DebitTxnID, in.FromAccountID, in.UserID, in.Timestamp,
		fmt.Sprintf("Transfer to account %s", in.ToAccountID), -in.Amount, in.Currency, in.Memo)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (transaction_id, account_id, user_id, date, description, amount, currency, type, memo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'transfer_credit', $8)
	`, in.CreditTxnID, in.ToAccountID, in.UserID, in.Timestamp,
		fmt.Sprintf("Transfer from account %s", in.FromAccountID), in.Amount, in.Currency, in.Memo)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (p *Postgres) BillersForUser(ctx context.Context, userID string) ([]Biller, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT biller_id, user_id, biller_nickname, account_number_at_biller, bill_type,
		       COALESCE(last_due_amount, 0), last_due_date, COALESCE(default_payment_account_id, '')
		FROM registered_billers
		WHERE user_id = $1
		ORDER BY biller_id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var billers []Biller
	for rows.Next() {
		b, err := scanBiller(rows)
		if err != nil {
			return nil, err
		}
		billers = append(billers, b)
	}
	return billers, rows.Err()
}

func (p *Postgres) BillerByID(ctx context.Context, userID, billerID string) (Biller, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT biller_id, user_id, biller_nickname, account_number_at_biller, bill_type,
		       COALESCE(last_due_amount, 0), last_due_date, COALESCE(default_payment_account_id, '')
		FROM registered_billers
		WHERE user_id = $1 AND biller_id = $2
	`, userID, billerID)
	b, err := scanBiller(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Biller{}, ErrBillerNotFound
	}
	return b, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBiller(row rowScanner) (Biller, error) {
	var b Biller
	var dueDate sql.NullTime
	err := row.Scan(&b.ID, &b.UserID, &b.Nickname, &b.AccountNumber, &b.BillType,
		&b.LastDueAmount, &dueDate, &b.DefaultPaymentAcctID)
	if err != nil {
		return Biller{}, err
	}
	if dueDate.Valid {
		b.LastDueDate = &dueDate.Time
	}
	return b, nil
}

func (p *Postgres) InsertBiller(ctx context.Context, b Biller) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO registered_billers
			(biller_id, user_id, biller_nickname, account_number_at_biller, bill_type,
			 last_due_amount, last_due_date, default_payment_account_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
	`, b.ID, b.UserID, b.Nickname, b.AccountNumber, b.BillType,
		b.LastDueAmount, b.LastDueDate, b.DefaultPaymentAcctID)
	return err
}

func (p *Postgres) UpdateBiller(ctx context.Context, userID, billerID string, upd BillerUpdate) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE registered_billers
		SET biller_nickname = COALESCE($1, biller_nickname),
		    account_number_at_biller = COALESCE($2, account_number_at_biller)
		WHERE user_id = $3 AND biller_id = $4
	`, upd.Nickname, upd.AccountNumber, userID, billerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBillerNotFound
	}
	return nil
}

func (p *Postgres) DeleteBiller(ctx context.Context, userID, billerID string) error {
	res, err := p.db.ExecContext(ctx, `
		DELETE FROM registered_billers WHERE user_id = $1 AND biller_id = $2
	`, userID, billerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBillerNotFound
	}
	return nil
}

// SettleBill deducts the payment, records the debit, and zeroes the biller's
// due amount in one database transaction.
func (p *Postgres) SettleBill(ctx context.Context, in BillSettlement) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance - $1
		WHERE user_id = $2 AND account_id = $3 AND balance >= $1
	`, in.Amount, in.UserID, in.FromAccountID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (transaction_id, account_id, user_id, date, description, amount, currency, type, memo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'bill_payment', $5)
	`, in.TxnID, in.FromAccountID, in.UserID, in.Timestamp, in.Description, -in.Amount, in.Currency)
	if err != nil {
		return err
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE registered_billers
		SET last_due_amount = 0, last_due_date = $1
		WHERE user_id = $2 AND biller_id = $3
	`, in.NextDueDate, in.UserID, in.BillerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBillerNotFound
	}

	return tx.Commit()
}
