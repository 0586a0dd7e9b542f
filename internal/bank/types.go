// Package bank holds the banking domain model and operations behind the
// conversation tools: balances, transaction history, fund transfers, and the
// registered-biller lifecycle. Storage is abstracted behind Store so the
// operations can be tested without a database.
package bank

import "time"

// Account is one of a user's bank accounts.
type Account struct {
	ID       string  `json:"account_id"`
	UserID   string  `json:"-"`
	Type     string  `json:"account_type"`
	Nickname string  `json:"account_nickname,omitempty"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

// Transaction is one ledger entry on an account. Amount is negative for
// debits, positive for credits.
type Transaction struct {
	ID          string    `json:"transaction_id"`
	AccountID   string    `json:"account_id"`
	UserID      string    `json:"-"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Type        string    `json:"type"`
	Memo        string    `json:"memo,omitempty"`
}

// Biller is a payee the user has registered for bill payments.
type Biller struct {
	ID                   string     `json:"biller_id"`
	UserID               string     `json:"-"`
	Nickname             string     `json:"biller_nickname"`
	AccountNumber        string     `json:"account_number_at_biller"`
	BillType             string     `json:"bill_type"`
	LastDueAmount        float64    `json:"last_due_amount"`
	LastDueDate          *time.Time `json:"last_due_date,omitempty"`
	DefaultPaymentAcctID string     `json:"default_payment_account_id,omitempty"`
}

// Status codes carried on operation results. These travel back to the AI
// engine verbatim, so they are stable identifiers rather than error text.
const (
	StatusSuccess           = "SUCCESS"
	StatusSufficientFunds   = "SUFFICIENT_FUNDS"
	StatusInsufficientFunds = "INSUFFICIENT_FUNDS"
	StatusInvalidAmount     = "ERROR_INVALID_AMOUNT"
	StatusSameAccount       = "ERROR_SAME_ACCOUNT"
	StatusCurrencyMismatch  = "ERROR_CURRENCY_MISMATCH"
	StatusAccountNotFound   = "ERROR_ACCOUNT_NOT_FOUND"
	StatusBillerNotFound    = "ERROR_BILLER_NOT_FOUND"
	StatusAmbiguousBiller   = "ERROR_AMBIGUOUS_BILLER"
	StatusTransactionFailed = "ERROR_TRANSACTION_FAILED"
)
