package bank

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors surfaced by Store implementations. Domain operations map
// them onto status codes; they are never fatal to a session.
var (
	ErrAccountNotFound     = errors.New("bank: account not found")
	ErrBillerNotFound      = errors.New("bank: biller not found")
	ErrInsufficientBalance = errors.New("bank: insufficient balance")
)

// TransferInstruction describes an atomic two-leg transfer: both balance
// updates and both ledger entries commit together or not at all.
type TransferInstruction struct {
	UserID        string
	FromAccountID string
	ToAccountID   string
	Amount        float64
	Currency      string
	Memo          string
	DebitTxnID    string
	CreditTxnID   string
	Timestamp     time.Time
}

// BillSettlement describes an atomic bill payment: deduct the amount from
// the paying account (guarded by a balance check), record the debit, and
// clear the biller's outstanding due.
type BillSettlement struct {
	UserID        string
	BillerID      string
	FromAccountID string
	Amount        float64
	Currency      string
	TxnID         string
	Description   string
	Timestamp     time.Time
	NextDueDate   *time.Time
}

// BillerUpdate carries the two mutable biller fields. Nil means unchanged.
type BillerUpdate struct {
	Nickname      *string
	AccountNumber *string
}

// Store is the persistence boundary for the banking domain.
type Store interface {
	AccountsForUser(ctx context.Context, userID string) ([]Account, error)
	AccountByID(ctx context.Context, userID, accountID string) (Account, error)
	TransactionsForAccount(ctx context.Context, userID, accountID string, limit int) ([]Transaction, error)
	Transfer(ctx context.Context, in TransferInstruction) error

	BillersForUser(ctx context.Context, userID string) ([]Biller, error)
	BillerByID(ctx context.Context, userID, billerID string) (Biller, error)
	InsertBiller(ctx context.Context, b Biller) error
	UpdateBiller(ctx context.Context, userID, billerID string, upd BillerUpdate) error
	DeleteBiller(ctx context.Context, userID, billerID string) error
	SettleBill(ctx context.Context, in BillSettlement) error
}
