package bank

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voicebank/gateway/internal/metrics"
	"github.com/voicebank/gateway/internal/resolve"
)

// ResolutionSink receives entity resolution outcomes for observability.
// *trace.Tracer satisfies it.
type ResolutionSink interface {
	Resolution(entity, reference, outcome string)
}

// Service implements the banking operations invoked by conversation tools.
// Every method returns a tagged result rather than an error for domain
// failures; only infrastructure problems (store unreachable) surface as
// errors, and even those are folded into a status by the tool layer.
type Service struct {
	store Store
	now   func() time.Time
	sink  ResolutionSink
}

// NewService wraps a Store with the domain operations.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithSink derives a service that reports resolution outcomes to sink.
// The store is shared; sessions get their own derived service so each
// tracer sees only its own session's resolutions.
func (s *Service) WithSink(sink ResolutionSink) *Service {
	return &Service{store: s.store, now: s.now, sink: sink}
}

func (s *Service) resolution(entity, reference, outcome string) {
	metrics.ResolverOutcomes.WithLabelValues(entity, outcome).Inc()
	if s.sink != nil {
		s.sink.Resolution(entity, reference, outcome)
	}
}

func accountCandidates(accounts []Account) []resolve.AccountCandidate {
	out := make([]resolve.AccountCandidate, len(accounts))
	for i, a := range accounts {
		out[i] = resolve.AccountCandidate{ID: a.ID, Type: a.Type, Nickname: a.Nickname}
	}
	return out
}

func billerCandidates(billers []Biller) []resolve.BillerCandidate {
	out := make([]resolve.BillerCandidate, len(billers))
	for i, b := range billers {
		out[i] = resolve.BillerCandidate{ID: b.ID, Nickname: b.Nickname, Category: b.BillType}
	}
	return out
}

// FindAccount resolves a free-text account reference ("my checking") to one
// of the user's accounts.
func (s *Service) FindAccount(ctx context.Context, userID, reference string) (Account, string) {
	accounts, err := s.store.AccountsForUser(ctx, userID)
	if err != nil {
		return Account{}, StatusTransactionFailed
	}
	match, err := resolve.ResolveAccount(reference, accountCandidates(accounts))
	if err != nil {
		s.resolution("account", reference, "not_found")
		return Account{}, StatusAccountNotFound
	}
	s.resolution("account", reference, "matched")
	for _, a := range accounts {
		if a.ID == match.ID {
			return a, StatusSuccess
		}
	}
	return Account{}, StatusAccountNotFound
}

// BillerLookup is the result of resolving a free-text biller reference.
type BillerLookup struct {
	Status  string
	Biller  Biller
	Options []resolve.BillerOption
}

// FindBiller resolves a free-text biller reference to one of the user's
// registered billers. An exact biller id always resolves directly.
func (s *Service) FindBiller(ctx context.Context, userID, reference string) BillerLookup {
	if b, err := s.store.BillerByID(ctx, userID, strings.TrimSpace(reference)); err == nil {
		s.resolution("biller", reference, "matched")
		return BillerLookup{Status: StatusSuccess, Biller: b}
	}
	billers, err := s.store.BillersForUser(ctx, userID)
	if err != nil {
		return BillerLookup{Status: StatusTransactionFailed}
	}
	res, err := resolve.ResolveBiller(reference, billerCandidates(billers))
	if err != nil {
		s.resolution("biller", reference, "not_found")
		return BillerLookup{Status: StatusBillerNotFound}
	}
	switch res.Outcome {
	case resolve.BillerMatched:
		s.resolution("biller", reference, "matched")
		for _, b := range billers {
			if b.ID == res.Match.ID {
				return BillerLookup{Status: StatusSuccess, Biller: b}
			}
		}
		return BillerLookup{Status: StatusBillerNotFound}
	case resolve.BillerAmbiguous:
		s.resolution("biller", reference, "ambiguous")
		return BillerLookup{Status: StatusAmbiguousBiller, Options: res.Options}
	default:
		s.resolution("biller", reference, "not_found")
		return BillerLookup{Status: StatusBillerNotFound}
	}
}

// BalanceResult reports an account balance lookup.
type BalanceResult struct {
	Status  string
	Account Account
}

// Balance looks up the balance of the account a reference describes.
func (s *Service) Balance(ctx context.Context, userID, accountRef string) BalanceResult {
	acct, status := s.FindAccount(ctx, userID, accountRef)
	return BalanceResult{Status: status, Account: acct}
}

// HistoryResult reports a transaction-history lookup.
type HistoryResult struct {
	Status       string
	Account      Account
	Transactions []Transaction
}

// History returns the most recent transactions for the referenced account.
func (s *Service) History(ctx context.Context, userID, accountRef string, limit int) HistoryResult {
	if limit <= 0 {
		limit = 10
	}
	acct, status := s.FindAccount(ctx, userID, accountRef)
	if status != StatusSuccess {
		return HistoryResult{Status: status}
	}
	txns, err := s.store.TransactionsForAccount(ctx, userID, acct.ID, limit)
	if err != nil {
		return HistoryResult{Status: StatusTransactionFailed, Account: acct}
	}
	return HistoryResult{Status: StatusSuccess, Account: acct, Transactions: txns}
}

// TransferCheck reports whether a proposed transfer could go ahead. A
// SUFFICIENT_FUNDS status means the caller may execute with the returned
// account ids.
type TransferCheck struct {
	Status      string
	FromAccount Account
	ToAccount   Account
	Amount      float64
	Currency    string
	Message     string
}

// CheckTransfer validates a proposed transfer between two referenced
// accounts without moving money.
func (s *Service) CheckTransfer(ctx context.Context, userID, fromRef, toRef string, amount float64) TransferCheck {
	if amount <= 0 {
		return TransferCheck{Status: StatusInvalidAmount, Message: "Transfer amount must be a positive number."}
	}
	from, status := s.FindAccount(ctx, userID, fromRef)
	if status != StatusSuccess {
		return TransferCheck{Status: status, Message: fmt.Sprintf("Account %q not found.", fromRef)}
	}
	to, status := s.FindAccount(ctx, userID, toRef)
	if status != StatusSuccess {
		return TransferCheck{Status: status, Message: fmt.Sprintf("Account %q not found.", toRef)}
	}
	if from.ID == to.ID {
		return TransferCheck{Status: StatusSameAccount, Message: "Cannot transfer to the same account."}
	}
	if from.Balance < amount {
		return TransferCheck{
			Status:      StatusInsufficientFunds,
			FromAccount: from,
			ToAccount:   to,
			Amount:      amount,
			Currency:    from.Currency,
			Message:     fmt.Sprintf("Insufficient funds. Available: %.2f %s", from.Balance, from.Currency),
		}
	}
	return TransferCheck{
		Status:      StatusSufficientFunds,
		FromAccount: from,
		ToAccount:   to,
		Amount:      amount,
		Currency:    from.Currency,
		Message:     "Transfer check successful. Ready to execute.",
	}
}

// TransferResult reports an executed transfer.
type TransferResult struct {
	Status        string
	TransactionID string
	FromAccountID string
	ToAccountID   string
	Amount        float64
	Currency      string
	Timestamp     time.Time
	Message       string
}

// ExecuteTransfer moves money between two accounts identified by id. The
// store applies both legs atomically.
func (s *Service) ExecuteTransfer(ctx context.Context, userID, fromID, toID string, amount float64, currency, memo string) TransferResult {
	if amount <= 0 {
		return TransferResult{Status: StatusInvalidAmount, Message: "Transfer amount must be a positive number."}
	}
	if fromID == toID {
		return TransferResult{Status: StatusSameAccount, Message: "Cannot transfer to the same account."}
	}
	from, err := s.store.AccountByID(ctx, userID, fromID)
	if err != nil {
		return TransferResult{Status: StatusAccountNotFound, Message: fmt.Sprintf("Account %q not found.", fromID)}
	}
	to, err := s.store.AccountByID(ctx, userID, toID)
	if err != nil {
		return TransferResult{Status: StatusAccountNotFound, Message: fmt.Sprintf("Account %q not found.", toID)}
	}
	if from.Currency != currency || to.Currency != currency {
		return TransferResult{
			Status:  StatusCurrencyMismatch,
			Message: fmt.Sprintf("Currency mismatch. From: %s, To: %s, Requested: %s", from.Currency, to.Currency, currency),
		}
	}
	if from.Balance < amount {
		return TransferResult{
			Status:  StatusInsufficientFunds,
			Message: fmt.Sprintf("Insufficient funds. Available: %.2f %s", from.Balance, currency),
		}
	}

	baseID := "txn_" + hexID()
	now := s.now().UTC()
	err = s.store.Transfer(ctx, TransferInstruction{
		UserID:        userID,
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        amount,
		Currency:      currency,
		Memo:          memo,
		DebitTxnID:    baseID + "_D",
		CreditTxnID:   baseID + "_C",
		Timestamp:     now,
	})
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		return TransferResult{Status: StatusInsufficientFunds, Message: "Insufficient funds."}
	case err != nil:
		return TransferResult{Status: StatusTransactionFailed, Message: "Fund transfer failed during execution."}
	}
	return TransferResult{
		Status:        StatusSuccess,
		TransactionID: baseID,
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        amount,
		Currency:      currency,
		Timestamp:     now,
		Message:       fmt.Sprintf("Fund transfer of %.2f %s from %s to %s completed successfully.", amount, currency, fromID, toID),
	}
}

// PayBillResult reports a bill payment.
type PayBillResult struct {
	Status        string
	BillerName    string
	AmountPaid    float64
	AccountID     string
	TransactionID string
	Options       []resolve.BillerOption
	Message       string
}

// PayBill settles a bill for the referenced biller, deducting the amount
// from an explicit account reference, the biller's default payment account,
// or the first account that can cover it.
func (s *Service) PayBill(ctx context.Context, userID, billerRef string, amount float64, fromAccountRef string) PayBillResult {
	if amount <= 0 {
		return PayBillResult{Status: StatusInvalidAmount, Message: "Payment amount must be greater than zero."}
	}
	lookup := s.FindBiller(ctx, userID, billerRef)
	if lookup.Status != StatusSuccess {
		return PayBillResult{Status: lookup.Status, Options: lookup.Options, Message: fmt.Sprintf("Could not resolve biller %q.", billerRef)}
	}
	biller := lookup.Biller

	account, status := s.pickPaymentAccount(ctx, userID, fromAccountRef, biller, amount)
	if status != StatusSuccess {
		return PayBillResult{Status: status, Message: "No suitable payment account found."}
	}

	now := s.now().UTC()
	paidOn := now.Truncate(24 * time.Hour)
	txnID := "txn_" + hexID()
	err := s.store.SettleBill(ctx, BillSettlement{
		UserID:        userID,
		BillerID:      biller.ID,
		FromAccountID: account.ID,
		Amount:        amount,
		Currency:      account.Currency,
		TxnID:         txnID,
		Description:   fmt.Sprintf("Bill payment to %s", biller.Nickname),
		Timestamp:     now,
		NextDueDate:   &paidOn,
	})
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		return PayBillResult{Status: StatusInsufficientFunds, Message: "Insufficient balance for bill payment."}
	case err != nil:
		return PayBillResult{Status: StatusTransactionFailed, Message: "Bill payment failed during execution."}
	}
	return PayBillResult{
		Status:        StatusSuccess,
		BillerName:    biller.Nickname,
		AmountPaid:    amount,
		AccountID:     account.ID,
		TransactionID: txnID,
		Message:       fmt.Sprintf("Paid %.2f to %s.", amount, biller.Nickname),
	}
}

func (s *Service) pickPaymentAccount(ctx context.Context, userID, fromAccountRef string, biller Biller, amount float64) (Account, string) {
	if strings.TrimSpace(fromAccountRef) != "" {
		return s.FindAccount(ctx, userID, fromAccountRef)
	}
	if biller.DefaultPaymentAcctID != "" {
		if a, err := s.store.AccountByID(ctx, userID, biller.DefaultPaymentAcctID); err == nil {
			return a, StatusSuccess
		}
	}
	accounts, err := s.store.AccountsForUser(ctx, userID)
	if err != nil || len(accounts) == 0 {
		return Account{}, StatusAccountNotFound
	}
	// Prefer a current account that covers the amount, then any that does.
	for _, a := range accounts {
		if strings.EqualFold(a.Type, "current") && a.Balance >= amount {
			return a, StatusSuccess
		}
	}
	for _, a := range accounts {
		if a.Balance >= amount {
			return a, StatusSuccess
		}
	}
	return Account{}, StatusInsufficientFunds
}

// RegisterBiller adds a payee to the user's biller list and returns the
// generated biller id.
func (s *Service) RegisterBiller(ctx context.Context, userID string, b Biller) (Biller, string) {
	b.UserID = userID
	if b.ID == "" {
		b.ID = fmt.Sprintf("biller_%s_%s", userID, hexID()[:8])
	}
	b.ID = sanitizeBillerID(b.ID)
	if err := s.store.InsertBiller(ctx, b); err != nil {
		return Biller{}, StatusTransactionFailed
	}
	return b, StatusSuccess
}

// UpdateBillerDetails changes a biller's nickname and/or account number.
// Other fields are immutable after registration.
func (s *Service) UpdateBillerDetails(ctx context.Context, userID, billerID string, upd BillerUpdate) string {
	err := s.store.UpdateBiller(ctx, userID, billerID, upd)
	switch {
	case errors.Is(err, ErrBillerNotFound):
		return StatusBillerNotFound
	case err != nil:
		return StatusTransactionFailed
	}
	return StatusSuccess
}

// RemoveBiller deletes a registered biller.
func (s *Service) RemoveBiller(ctx context.Context, userID, billerID string) string {
	err := s.store.DeleteBiller(ctx, userID, billerID)
	switch {
	case errors.Is(err, ErrBillerNotFound):
		return StatusBillerNotFound
	case err != nil:
		return StatusTransactionFailed
	}
	return StatusSuccess
}

// ListBillers returns every biller the user has registered.
func (s *Service) ListBillers(ctx context.Context, userID string) ([]Biller, string) {
	billers, err := s.store.BillersForUser(ctx, userID)
	if err != nil {
		return nil, StatusTransactionFailed
	}
	return billers, StatusSuccess
}

func hexID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// sanitizeBillerID strips path separators so generated ids are safe in URLs
// and log lines.
func sanitizeBillerID(id string) string {
	id = strings.ReplaceAll(id, "/", "_")
	return strings.ReplaceAll(id, `\`, "_")
}
