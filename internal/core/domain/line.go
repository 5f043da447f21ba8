package domain

import "github.com/shopspring/decimal"

// JournalLine is a single debit or credit row within a JournalEntry.
// Exactly one of Debit/Credit is nonzero; both are non-negative cent amounts.
type JournalLine struct {
	LineID      string          `json:"lineID"`  // Surrogate key (UUID)
	EntryID     string          `json:"entryID"` // FK -> JournalEntry.EntryID
	Position    int             `json:"position"`
	AccountID   string          `json:"accountID"` // FK -> Account.AccountID
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
	AuditFields
}

// Amount returns the nonzero side of the line.
func (l *JournalLine) Amount() decimal.Decimal {
	if l.Debit.IsPositive() {
		return l.Debit
	}
	return l.Credit
}
