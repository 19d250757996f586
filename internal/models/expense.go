package models

import (
	"github.com/shopspring/decimal"
)

// Expense is money spent by one member on behalf of some others
type Expense struct {
	ID           string           `json:"id"`
	Amount       Money            `json:"amount"`
	Category     string           `json:"category"`
	Item         string           `json:"item"`
	Note         string           `json:"note,omitempty"`
	Date         string           `json:"date"`
	PayerID      string           `json:"payerId"`
	SplitWithIDs []string         `json:"splitWithIds"`
	CustomSplits map[string]Money `json:"customSplits,omitempty"`
	ReceiptURL   string           `json:"receiptUrl,omitempty"`
}

// Shares returns how much each member owes for this expense. Custom splits
// win when present; otherwise the amount is split evenly in cents and the
// remainder goes to the first member.
func (e Expense) Shares() map[string]decimal.Decimal {
	shares := make(map[string]decimal.Decimal)
	if len(e.CustomSplits) > 0 {
		for id, amount := range e.CustomSplits {
			shares[id] = amount.Decimal
		}
		return shares
	}
	if len(e.SplitWithIDs) == 0 {
		return shares
	}

	n := decimal.NewFromInt(int64(len(e.SplitWithIDs)))
	each := e.Amount.Div(n).RoundDown(2)
	remainder := e.Amount.Sub(each.Mul(n))
	for i, id := range e.SplitWithIDs {
		share := each
		if i == 0 {
			share = share.Add(remainder)
		}
		shares[id] = shares[id].Add(share)
	}
	return shares
}

// UnassignedID collects balance contributions of ids that match no member.
const UnassignedID = ""

// Balances nets what each member paid against what they owe across all
// expenses. Positive means the member is owed money.
func Balances(t *Trip) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal, len(t.Members))
	for _, m := range t.Members {
		balances[m.ID] = decimal.Zero
	}
	key := func(id string) string {
		if _, ok := t.FindMember(id); ok {
			return id
		}
		return UnassignedID
	}

	for _, e := range t.Expenses {
		payer := key(e.PayerID)
		balances[payer] = balances[payer].Add(e.Amount.Decimal)
		for id, share := range e.Shares() {
			k := key(id)
			balances[k] = balances[k].Sub(share)
		}
	}
	return balances
}
