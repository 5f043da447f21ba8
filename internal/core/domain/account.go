package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// NormalBalance is the side on which an account's balance ordinarily increases.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "DEBIT"
	NormalCredit NormalBalance = "CREDIT"
)

// NormalBalanceFor returns the conventional normal side for an account type.
func NormalBalanceFor(t AccountType) NormalBalance {
	switch t {
	case Asset, Expense:
		return NormalDebit
	default:
		return NormalCredit
	}
}

// Account represents a chart-of-accounts entry with a running balance.
// Balance and YTDActivity are mutated exclusively by the posting engine.
type Account struct {
	AccountID       string          `json:"accountID"` // Surrogate key (UUID)
	EntityID        string          `json:"entityID"`
	AccountNumber   string          `json:"accountNumber"` // Structured, type-prefixed (1xxx=asset .. 5xxx=expense)
	Name            string          `json:"name"`
	AccountType     AccountType     `json:"accountType"`
	NormalBalance   NormalBalance   `json:"normalBalance"`
	ParentAccountID string          `json:"parentAccountID"` // Nullable, self-referencing tree
	AllowPosting    bool            `json:"allowPosting"`    // Only posting-allowed accounts may appear on lines
	Description     string          `json:"description"`
	IsActive        bool            `json:"isActive"`
	Balance         decimal.Decimal `json:"balance"`
	YTDActivity     decimal.Decimal `json:"ytdActivity"`
	AuditFields
}
