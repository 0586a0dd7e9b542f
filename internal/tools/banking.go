package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/voicebank/gateway/internal/bank"
	"github.com/voicebank/gateway/internal/faq"
	"github.com/voicebank/gateway/internal/trace"
	"github.com/voicebank/gateway/internal/upstream"
)

const dueDateLayout = "2006-01-02"

// NewBankingRegistry builds the full tool set for one user's session.
func NewBankingRegistry(svc *bank.Service, faqClient *faq.Client, userID string, tracer *trace.Tracer) *Registry {
	r := NewRegistry(tracer)
	b := &bankingTools{svc: svc.WithSink(tracer), faq: faqClient, userID: userID}

	r.Register(upstream.FunctionDeclaration{
		Name:        "getBalance",
		Description: "Fetches the balance of a bank account. The account can be described in natural language by type or nickname.",
		Parameters: upstream.Object(map[string]*upstream.Schema{
			"account_type": upstream.Str("The type or nickname of the account (e.g., 'current', 'savings', 'My Main Savings')."),
		}, "account_type"),
	}, b.getBalance)

	r.Register(upstream.FunctionDeclaration{
		Name:        "getTransactionHistory",
		Description: "Fetches the last N transactions for a specified bank account. Uses natural language to find the account first.",
		Parameters: upstream.Object(map[string]*upstream.Schema{
			"account_type": upstream.Str("The type or nickname of the account."),
			"limit":        upstream.Num("The number of transactions to retrieve (defaults to 10)."),
		}, "account_type"),
	}, b.getTransactionHistory)

	r.Register(upstream.FunctionDeclaration{
		Name:        "initiateFundTransfer",
		Description: "Checks feasibility and prepares for a fund transfer between two accounts. Resolves accounts using natural language and checks balance. Does not move money.",
		Parameters: upstream.Object(map[string]*upstream.Schema{
			"amount":            upstream.Num("The amount to transfer."),
			"currency":          upstream.Str("The currency of the amount, validated against the source account."),
			"from_account_type": upstream.Str("The type or nickname of the account to transfer from."),
			"to_account_type":   upstream.Str("The type or nickname of the account to transfer to."),
		}, "amount", "currency", "from_account_type", "to_account_type"),
	}, b.initiateFundTransfer)

	r.Register(upstream.FunctionDeclaration{
		Name:        "executeFundTransfer",
		Description: "Executes a previously confirmed fund transfer between two accounts identified by id.",
		Parameters: upstream.Object(map[string]*upstream.Schema{
			"amount":          upstream.Num("The amount to transfer."),
			"currency":        upstream.Str("The currency of the amount."),
			"from_account_id": upstream.Str("The ID of the source account."),
			"to_account_id":   upstream.Str("The ID of the destination account."),
			"memo":            upstream.Str("Optional memo for the transaction."),
		}, "amount", "currency", "from_account_id", "to_account_id"),
	}, b.executeFundTransfer)

	r.Register(upstream.FunctionDeclaration{
		Name:        "getBillDetails",
		Description: "Fetches details for a specific biller by nickname or by bill type (e.g., 'electricity'). Asks for clarification when several billers match.",
		Parameters: upstream.Object(map[string]*upstream.Schema{
			"payee_nickname": upstream.Str("Optional. The nickname of the biller."),
			"bill_type":      upstream.Str("Optional. The type of bill (e.g., 'electricity', 'water')."),
		}),
	}, b.getBillDetails)

	r.Register(upstream.FunctionDeclaration{
		Name:        "payBill",
		Description: "Pays a bill. The payee can be a biller id or nickname; the payment account can be described in natural language.",
		Parameters: upstream.Object(map[string]*upstream.Schema{
			"payee_id":        upstream.Str("The id or nickname of the biller to pay."),
			"amount":          upstream.Num("The amount to pay."),
			"from_account_id": upstream.Str("Optional. The id or natural language description of the paying account."),
		}, "payee_id", "amount"),
	}, b.payBill)

	r.Register(upstream.FunctionDeclaration{
		Name:        "registerBiller",
		Description: "Registers a new biller for the user. A unique biller id is generated.",
		Parameters: upstream.Object(map[string]*upstream.Schema{
			"biller_type":                upstream.Str("The category of the bill (e.g., 'electricity', 'internet')."),
			"account_number":             upstream.Str("The user's account number with the biller."),
			"payee_nickname":             upstream.Str("Optional. A nickname for this biller."),
			"default_payment_account_id": upstream.Str("Optional. The id of the account used for default payments."),
			"due_amount":                 upstream.Num("Optional. The current due amount."),
			"due_date":                   upstream.Str("Optional. The current due date in YYYY-MM-DD format."),
		}, "biller_type", "account_number"),
	}, b.registerBiller)

	r.Register(upstream.FunctionDeclaration{
		Name:        "updateBillerDetails",
		Description: "Updates an existing biller. Only 'payee_nickname' and 'account_number' can change.",
		Parameters: upstream.Object(map[string]*upstream.Schema{
			"payee_id": upstream.Str("The unique id of the biller to update."),
			"updates": upstream.Object(map[string]*upstream.Schema{
				"payee_nickname": upstream.Str("New nickname for this biller."),
				"account_number": upstream.Str("New account number with the biller."),
			}),
		}, "payee_id", "updates"),
	}, b.updateBillerDetails)

	r.Register(upstream.FunctionDeclaration{
		Name:        "removeBiller",
		Description: "Deletes a registered biller.",
		Parameters: upstream.Object(map[string]*upstream.Schema{
			"payee_id": upstream.Str("The unique id of the biller to remove."),
		}, "payee_id"),
	}, b.removeBiller)

	r.Register(upstream.FunctionDeclaration{
		Name:        "listRegisteredBillers",
		Description: "Lists all billers registered by the user.",
		Parameters:  upstream.Object(map[string]*upstream.Schema{}),
	}, b.listRegisteredBillers)

	r.Register(upstream.FunctionDeclaration{
		Name:        "searchFAQ",
		Description: "Searches bank FAQs for questions about branches, hours, services, and policies.",
		Parameters: upstream.Object(map[string]*upstream.Schema{
			"search_query": upstream.Str("The question to look up."),
		}, "search_query"),
	}, b.searchFAQ)

	return r
}

type bankingTools struct {
	svc    *bank.Service
	faq    *faq.Client
	userID string
}

func (b *bankingTools) getBalance(ctx context.Context, args map[string]any) map[string]any {
	ref, ok := strArg(args, "account_type")
	if !ok {
		return errResult("Missing required argument 'account_type'.")
	}
	res := b.svc.Balance(ctx, b.userID, ref)
	if res.Status != bank.StatusSuccess {
		return errResult("Account '" + ref + "' not found or error fetching details.")
	}
	return map[string]any{
		"status":           "success",
		"account_id":       res.Account.ID,
		"account_type":     res.Account.Type,
		"account_nickname": res.Account.Nickname,
		"balance":          res.Account.Balance,
		"currency":         res.Account.Currency,
	}
}

func (b *bankingTools) getTransactionHistory(ctx context.Context, args map[string]any) map[string]any {
	ref, ok := strArg(args, "account_type")
	if !ok {
		return errResult("Missing required argument 'account_type'.")
	}
	limit := intArg(args, "limit", 10)
	res := b.svc.History(ctx, b.userID, ref, limit)
	if res.Status != bank.StatusSuccess {
		return errResult("Account '" + ref + "' not found.")
	}

	txns := make([]map[string]any, 0, len(res.Transactions))
	for _, t := range res.Transactions {
		txns = append(txns, map[string]any{
			"id":               t.ID,
			"date":             t.Date.Format(time.RFC3339),
			"description":      t.Description,
			"amount":           t.Amount,
			"transaction_type": t.Type,
			"memo":             t.Memo,
		})
	}
	return map[string]any{
		"status":       "success",
		"account_id":   res.Account.ID,
		"account_type": res.Account.Type,
		"transactions": txns,
	}
}

func (b *bankingTools) initiateFundTransfer(ctx context.Context, args map[string]any) map[string]any {
	amount, ok := floatArg(args, "amount")
	if !ok {
		return errResult("Missing required argument 'amount'.")
	}
	currency, _ := strArg(args, "currency")
	fromRef, ok := strArg(args, "from_account_type")
	if !ok {
		return errResult("Missing required argument 'from_account_type'.")
	}
	toRef, ok := strArg(args, "to_account_type")
	if !ok {
		return errResult("Missing required argument 'to_account_type'.")
	}

	check := b.svc.CheckTransfer(ctx, b.userID, fromRef, toRef, amount)
	if check.Status != bank.StatusSufficientFunds {
		return errResult(check.Message)
	}
	return map[string]any{
		"status":  "requires_confirmation",
		"message": "Please confirm transfer of " + formatAmount(amount, check.Currency) + " from " + fromRef + " to " + toRef + ".",
		"transfer_details": map[string]any{
			"amount":            amount,
			"currency":          currency,
			"from_account_type": fromRef,
			"from_account_id":   check.FromAccount.ID,
			"to_account_type":   toRef,
			"to_account_id":     check.ToAccount.ID,
			"confirmation_id":   "confirm_" + check.FromAccount.ID + "_" + check.ToAccount.ID,
		},
	}
}

func (b *bankingTools) executeFundTransfer(ctx context.Context, args map[string]any) map[string]any {
	amount, ok := floatArg(args, "amount")
	if !ok {
		return errResult("Missing required argument 'amount'.")
	}
	currency, ok := strArg(args, "currency")
	if !ok {
		return errResult("Missing required argument 'currency'.")
	}
	fromID, ok := strArg(args, "from_account_id")
	if !ok {
		return errResult("Missing required argument 'from_account_id'.")
	}
	toID, ok := strArg(args, "to_account_id")
	if !ok {
		return errResult("Missing required argument 'to_account_id'.")
	}
	memo, _ := strArg(args, "memo")

	res := b.svc.ExecuteTransfer(ctx, b.userID, fromID, toID, amount, currency, memo)
	if res.Status != bank.StatusSuccess {
		return errResult(res.Message)
	}
	return map[string]any{
		"status":  "success",
		"message": "Transfer completed successfully.",
		"details": map[string]any{
			"transaction_id":  res.TransactionID,
			"from_account_id": fromID,
			"to_account_id":   toID,
			"amount":          amount,
			"currency":        currency,
			"timestamp":       res.Timestamp.Format(time.RFC3339),
		},
	}
}

func (b *bankingTools) getBillDetails(ctx context.Context, args map[string]any) map[string]any {
	nickname, hasNickname := strArg(args, "payee_nickname")
	billType, hasType := strArg(args, "bill_type")
	if !hasNickname && !hasType {
		return errResult("Please provide either a payee nickname or a bill type.")
	}

	var biller bank.Biller
	if hasNickname {
		lookup := b.svc.FindBiller(ctx, b.userID, nickname)
		switch lookup.Status {
		case bank.StatusSuccess:
			biller = lookup.Biller
		case bank.StatusAmbiguousBiller:
			return map[string]any{
				"status":  bank.StatusAmbiguousBiller,
				"message": "Multiple billers found matching '" + nickname + "'. Please be more specific.",
				"options": optionMaps(lookup.Options),
			}
		default:
			return errResult("Biller '" + nickname + "' not found.")
		}
	} else {
		billers, status := b.svc.ListBillers(ctx, b.userID)
		if status != bank.StatusSuccess {
			return errResult("Could not list billers.")
		}
		var matches []bank.Biller
		for _, bl := range billers {
			if equalFold(bl.BillType, billType) {
				matches = append(matches, bl)
			}
		}
		switch len(matches) {
		case 0:
			return errResult("No billers found for type '" + billType + "'.")
		case 1:
			biller = matches[0]
		default:
			opts := make([]map[string]any, len(matches))
			for i, m := range matches {
				opts[i] = map[string]any{"biller_id": m.ID, "biller_nickname": m.Nickname}
			}
			return map[string]any{
				"status":  "clarification_needed",
				"message": "Multiple billers found for type '" + billType + "'. Please specify.",
				"options": opts,
			}
		}
	}

	out := map[string]any{
		"status":                   "success",
		"payee_id":                 biller.ID,
		"payee_nickname":           biller.Nickname,
		"account_number_at_biller": biller.AccountNumber,
		"due_amount":               biller.LastDueAmount,
		"bill_type":                biller.BillType,
	}
	if biller.LastDueDate != nil {
		out["due_date"] = biller.LastDueDate.Format(dueDateLayout)
	}
	return out
}

func (b *bankingTools) payBill(ctx context.Context, args map[string]any) map[string]any {
	payee, ok := strArg(args, "payee_id")
	if !ok {
		return errResult("Missing required argument 'payee_id'.")
	}
	amount, ok := floatArg(args, "amount")
	if !ok {
		return errResult("Missing required argument 'amount'.")
	}
	fromRef, _ := strArg(args, "from_account_id")

	res := b.svc.PayBill(ctx, b.userID, payee, amount, fromRef)
	switch res.Status {
	case bank.StatusSuccess:
		return map[string]any{
			"status":          "success",
			"message":         "Bill for '" + res.BillerName + "' has been paid.",
			"biller_nickname": res.BillerName,
			"amount_paid":     res.AmountPaid,
			"account_id":      res.AccountID,
			"transaction_id":  res.TransactionID,
		}
	case bank.StatusAmbiguousBiller:
		return map[string]any{
			"status":  bank.StatusAmbiguousBiller,
			"message": "Multiple billers found matching '" + payee + "'. Please be more specific.",
			"options": optionMaps(res.Options),
		}
	default:
		return errResult(res.Message)
	}
}

func (b *bankingTools) registerBiller(ctx context.Context, args map[string]any) map[string]any {
	billType, ok := strArg(args, "biller_type")
	if !ok {
		return errResult("Missing required argument 'biller_type'.")
	}
	accountNumber, ok := strArg(args, "account_number")
	if !ok {
		return errResult("Missing required argument 'account_number'.")
	}
	nickname, _ := strArg(args, "payee_nickname")
	defaultAcct, _ := strArg(args, "default_payment_account_id")
	dueAmount, _ := floatArg(args, "due_amount")

	biller := bank.Biller{
		Nickname:             nickname,
		AccountNumber:        accountNumber,
		BillType:             billType,
		LastDueAmount:        dueAmount,
		DefaultPaymentAcctID: defaultAcct,
	}
	if raw, ok := strArg(args, "due_date"); ok {
		due, err := time.Parse(dueDateLayout, raw)
		if err != nil {
			slog.Warn("invalid due_date, storing without one", "value", raw)
		} else {
			biller.LastDueDate = &due
		}
	}

	registered, status := b.svc.RegisterBiller(ctx, b.userID, biller)
	if status != bank.StatusSuccess {
		return errResult("Failed to register biller.")
	}
	return map[string]any{
		"status":    "success",
		"message":   "Biller registered successfully with id '" + registered.ID + "'.",
		"biller_id": registered.ID,
	}
}

func (b *bankingTools) updateBillerDetails(ctx context.Context, args map[string]any) map[string]any {
	payeeID, ok := strArg(args, "payee_id")
	if !ok {
		return errResult("Missing required argument 'payee_id'.")
	}
	updates, ok := args["updates"].(map[string]any)
	if !ok {
		return errResult("Missing required argument 'updates'.")
	}

	var upd bank.BillerUpdate
	if v, ok := strArg(updates, "payee_nickname"); ok {
		upd.Nickname = &v
	}
	if v, ok := strArg(updates, "account_number"); ok {
		upd.AccountNumber = &v
	}
	if upd.Nickname == nil && upd.AccountNumber == nil {
		return errResult("No valid update fields provided. Only 'payee_nickname' and 'account_number' can be updated.")
	}

	switch b.svc.UpdateBillerDetails(ctx, b.userID, payeeID, upd) {
	case bank.StatusSuccess:
		return map[string]any{"status": "success", "message": "Biller '" + payeeID + "' updated successfully."}
	case bank.StatusBillerNotFound:
		return errResult("Biller '" + payeeID + "' not found.")
	default:
		return errResult("Failed to update biller '" + payeeID + "'.")
	}
}

func (b *bankingTools) removeBiller(ctx context.Context, args map[string]any) map[string]any {
	payeeID, ok := strArg(args, "payee_id")
	if !ok {
		return errResult("Missing required argument 'payee_id'.")
	}
	switch b.svc.RemoveBiller(ctx, b.userID, payeeID) {
	case bank.StatusSuccess:
		return map[string]any{"status": "success", "message": "Biller '" + payeeID + "' removed successfully."}
	case bank.StatusBillerNotFound:
		return errResult("Biller '" + payeeID + "' not found.")
	default:
		return errResult("Failed to remove biller '" + payeeID + "'.")
	}
}

func (b *bankingTools) listRegisteredBillers(ctx context.Context, _ map[string]any) map[string]any {
	billers, status := b.svc.ListBillers(ctx, b.userID)
	if status != bank.StatusSuccess {
		return errResult("Could not list registered billers.")
	}
	out := make([]map[string]any, 0, len(billers))
	for _, bl := range billers {
		entry := map[string]any{
			"biller_id":                bl.ID,
			"biller_nickname":          bl.Nickname,
			"account_number_at_biller": bl.AccountNumber,
			"last_due_amount":          bl.LastDueAmount,
			"bill_type":                bl.BillType,
		}
		if bl.LastDueDate != nil {
			entry["last_due_date"] = bl.LastDueDate.Format(dueDateLayout)
		}
		out = append(out, entry)
	}
	return map[string]any{"status": "success", "billers": out}
}

func (b *bankingTools) searchFAQ(ctx context.Context, args map[string]any) map[string]any {
	query, ok := strArg(args, "search_query")
	if !ok {
		return errResult("Missing required argument 'search_query'.")
	}
	answer, err := b.faq.Search(ctx, query)
	if err != nil {
		slog.Warn("faq knowledge base unavailable", "error", err)
	}
	return map[string]any{"status": "success", "answer": answer}
}
