package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voicebank/gateway/internal/bank"
	"github.com/voicebank/gateway/internal/faq"
)

// memStore is a minimal in-memory bank.Store for driving the handlers.
type memStore struct {
	accounts []bank.Account
	billers  []bank.Biller
	txns     []bank.Transaction
}

func (m *memStore) AccountsForUser(_ context.Context, userID string) ([]bank.Account, error) {
	var out []bank.Account
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) AccountByID(_ context.Context, userID, id string) (bank.Account, error) {
	for _, a := range m.accounts {
		if a.UserID == userID && a.ID == id {
			return a, nil
		}
	}
	return bank.Account{}, bank.ErrAccountNotFound
}

func (m *memStore) TransactionsForAccount(_ context.Context, userID, accountID string, limit int) ([]bank.Transaction, error) {
	var out []bank.Transaction
	for _, t := range m.txns {
		if t.UserID == userID && t.AccountID == accountID {
			out = append(out, t)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) Transfer(_ context.Context, in bank.TransferInstruction) error {
	for i := range m.accounts {
		switch m.accounts[i].ID {
		case in.FromAccountID:
			m.accounts[i].Balance -= in.Amount
		case in.ToAccountID:
			m.accounts[i].Balance += in.Amount
		}
	}
	return nil
}

func (m *memStore) BillersForUser(_ context.Context, userID string) ([]bank.Biller, error) {
	var out []bank.Biller
	for _, b := range m.billers {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) BillerByID(_ context.Context, userID, id string) (bank.Biller, error) {
	for _, b := range m.billers {
		if b.UserID == userID && b.ID == id {
			return b, nil
		}
	}
	return bank.Biller{}, bank.ErrBillerNotFound
}

func (m *memStore) InsertBiller(_ context.Context, b bank.Biller) error {
	m.billers = append(m.billers, b)
	return nil
}

func (m *memStore) UpdateBiller(_ context.Context, userID, id string, upd bank.BillerUpdate) error {
	for i, b := range m.billers {
		if b.UserID == userID && b.ID == id {
			if upd.Nickname != nil {
				m.billers[i].Nickname = *upd.Nickname
			}
			if upd.AccountNumber != nil {
				m.billers[i].AccountNumber = *upd.AccountNumber
			}
			return nil
		}
	}
	return bank.ErrBillerNotFound
}

func (m *memStore) DeleteBiller(_ context.Context, userID, id string) error {
	for i, b := range m.billers {
		if b.UserID == userID && b.ID == id {
			m.billers = append(m.billers[:i], m.billers[i+1:]...)
			return nil
		}
	}
	return bank.ErrBillerNotFound
}

func (m *memStore) SettleBill(_ context.Context, in bank.BillSettlement) error {
	for i := range m.accounts {
		if m.accounts[i].ID == in.FromAccountID {
			if m.accounts[i].Balance < in.Amount {
				return bank.ErrInsufficientBalance
			}
			m.accounts[i].Balance -= in.Amount
		}
	}
	for i := range m.billers {
		if m.billers[i].ID == in.BillerID {
			m.billers[i].LastDueAmount = 0
		}
	}
	return nil
}

func newTestRegistry(t *testing.T) (*Registry, *memStore) {
	t.Helper()
	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	store := &memStore{
		accounts: []bank.Account{
			{ID: "acc_current_001", UserID: "alex", Type: "Current", Balance: 500, Currency: "GBP"},
			{ID: "acc_savings_001", UserID: "alex", Type: "Savings", Nickname: "My Main Savings", Balance: 2500, Currency: "GBP"},
		},
		billers: []bank.Biller{
			{ID: "biller_1", UserID: "alex", Nickname: "City Power", AccountNumber: "CP-9981", BillType: "electricity", LastDueAmount: 120, LastDueDate: &due},
		},
	}
	svc := bank.NewService(store)
	return NewBankingRegistry(svc, faq.NewClient(faq.Config{}), "alex", nil), store
}

func TestGetBalanceTool(t *testing.T) {
	r, _ := newTestRegistry(t)
	res := r.Dispatch(context.Background(), "getBalance", map[string]any{"account_type": "checking"})
	require.Equal(t, "success", res["status"])
	require.Equal(t, "acc_current_001", res["account_id"])
	require.Equal(t, 500.0, res["balance"])
}

func TestGetBalanceToolMissingArg(t *testing.T) {
	r, _ := newTestRegistry(t)
	res := r.Dispatch(context.Background(), "getBalance", map[string]any{})
	require.Equal(t, "error", res["status"])
}

func TestInitiateThenExecuteTransfer(t *testing.T) {
	r, store := newTestRegistry(t)

	res := r.Dispatch(context.Background(), "initiateFundTransfer", map[string]any{
		"amount": 100.0, "currency": "GBP",
		"from_account_type": "checking", "to_account_type": "savings",
	})
	require.Equal(t, "requires_confirmation", res["status"])
	details := res["transfer_details"].(map[string]any)
	require.Equal(t, "acc_current_001", details["from_account_id"])
	require.Equal(t, "acc_savings_001", details["to_account_id"])

	res = r.Dispatch(context.Background(), "executeFundTransfer", map[string]any{
		"amount": 100.0, "currency": "GBP",
		"from_account_id": details["from_account_id"], "to_account_id": details["to_account_id"],
	})
	require.Equal(t, "success", res["status"])
	require.Equal(t, 400.0, store.accounts[0].Balance)
}

func TestInitiateTransferInsufficient(t *testing.T) {
	r, _ := newTestRegistry(t)
	res := r.Dispatch(context.Background(), "initiateFundTransfer", map[string]any{
		"amount": 99999.0, "currency": "GBP",
		"from_account_type": "checking", "to_account_type": "savings",
	})
	require.Equal(t, "error", res["status"])
	require.Contains(t, res["message"], "Insufficient funds")
}

func TestGetBillDetailsByNickname(t *testing.T) {
	r, _ := newTestRegistry(t)
	res := r.Dispatch(context.Background(), "getBillDetails", map[string]any{"payee_nickname": "city power"})
	require.Equal(t, "success", res["status"])
	require.Equal(t, "biller_1", res["payee_id"])
	require.Equal(t, 120.0, res["due_amount"])
	require.Equal(t, "2026-09-15", res["due_date"])
}

func TestGetBillDetailsNeedsOneArg(t *testing.T) {
	r, _ := newTestRegistry(t)
	res := r.Dispatch(context.Background(), "getBillDetails", map[string]any{})
	require.Equal(t, "error", res["status"])
}

func TestPayBillTool(t *testing.T) {
	r, store := newTestRegistry(t)
	res := r.Dispatch(context.Background(), "payBill", map[string]any{"payee_id": "City Power", "amount": 120.0})
	require.Equal(t, "success", res["status"])
	require.Equal(t, 0.0, store.billers[0].LastDueAmount)
	require.Equal(t, 380.0, store.accounts[0].Balance)
}

func TestBillerLifecycleTools(t *testing.T) {
	r, store := newTestRegistry(t)
	ctx := context.Background()

	res := r.Dispatch(ctx, "registerBiller", map[string]any{
		"biller_type":    "internet",
		"account_number": "ISP-22",
		"payee_nickname": "Gigabit ISP",
		"due_amount":     30.0,
		"due_date":       "2026-09-01",
	})
	require.Equal(t, "success", res["status"])
	billerID := res["biller_id"].(string)
	require.Len(t, store.billers, 2)

	res = r.Dispatch(ctx, "updateBillerDetails", map[string]any{
		"payee_id": billerID,
		"updates":  map[string]any{"payee_nickname": "Home Internet"},
	})
	require.Equal(t, "success", res["status"])
	require.Equal(t, "Home Internet", store.billers[1].Nickname)

	res = r.Dispatch(ctx, "listRegisteredBillers", map[string]any{})
	require.Equal(t, "success", res["status"])
	require.Len(t, res["billers"], 2)

	res = r.Dispatch(ctx, "removeBiller", map[string]any{"payee_id": billerID})
	require.Equal(t, "success", res["status"])
	require.Len(t, store.billers, 1)
}

func TestSearchFAQTool(t *testing.T) {
	r, _ := newTestRegistry(t)
	res := r.Dispatch(context.Background(), "searchFAQ", map[string]any{"search_query": "what are your banking hours"})
	require.Equal(t, "success", res["status"])
	require.Contains(t, res["answer"], "9:30 AM")
}
