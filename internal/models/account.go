package models

import (
	"github.com/shopspring/decimal"
)

// AccountType mirrors domain.AccountType for DB storage.
type AccountType string

// NormalBalance mirrors domain.NormalBalance for DB storage.
type NormalBalance string

// Account is the accounts row.
// Balance and YTDActivity are written only inside the posting transaction.
type Account struct {
	AccountID       string          `db:"account_id"`
	EntityID        string          `db:"entity_id"`
	AccountNumber   string          `db:"account_number"`
	Name            string          `db:"name"`
	AccountType     AccountType     `db:"account_type"`
	NormalBalance   NormalBalance   `db:"normal_balance"`
	ParentAccountID string          `db:"parent_account_id"` // Nullable
	AllowPosting    bool            `db:"allow_posting"`
	Description     string          `db:"description"`
	IsActive        bool            `db:"is_active"`
	Balance         decimal.Decimal `db:"balance"`
	YTDActivity     decimal.Decimal `db:"ytd_activity"`
	AuditFields
}
