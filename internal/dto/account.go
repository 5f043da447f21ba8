package dto

import (
	"time"

	"github.com/finbooks/ledger_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	EntityID        string               `json:"entityID" binding:"required"`
	AccountNumber   string               `json:"accountNumber" binding:"required"`
	Name            string               `json:"name" binding:"required"`
	AccountType     domain.AccountType   `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	NormalBalance   domain.NormalBalance `json:"normalBalance" binding:"omitempty,oneof=DEBIT CREDIT"` // Defaults from account type
	ParentAccountID *string              `json:"parentAccountID"`                                      // Optional, use pointer for nullability
	AllowPosting    *bool                `json:"allowPosting"`                                         // Defaults to true
	Description     string               `json:"description"`                                          // Optional
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID       string               `json:"accountID"`
	EntityID        string               `json:"entityID"`
	AccountNumber   string               `json:"accountNumber"`
	Name            string               `json:"name"`
	AccountType     domain.AccountType   `json:"accountType"`
	NormalBalance   domain.NormalBalance `json:"normalBalance"`
	ParentAccountID string               `json:"parentAccountID"` // Empty string if null in DB
	AllowPosting    bool                 `json:"allowPosting"`
	Description     string               `json:"description"`
	IsActive        bool                 `json:"isActive"`
	Balance         decimal.Decimal      `json:"balance"`
	YTDActivity     decimal.Decimal      `json:"ytdActivity"`
	CreatedAt       time.Time            `json:"createdAt"`
	CreatedBy       string               `json:"createdBy"`
	LastUpdatedAt   time.Time            `json:"lastUpdatedAt"`
	LastUpdatedBy   string               `json:"lastUpdatedBy"`
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	EntityID string `form:"entityID" binding:"required"`
	Limit    int    `form:"limit,default=50"`
	Offset   int    `form:"offset,default=0"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:       acc.AccountID,
		EntityID:        acc.EntityID,
		AccountNumber:   acc.AccountNumber,
		Name:            acc.Name,
		AccountType:     acc.AccountType,
		NormalBalance:   acc.NormalBalance,
		ParentAccountID: acc.ParentAccountID,
		AllowPosting:    acc.AllowPosting,
		Description:     acc.Description,
		IsActive:        acc.IsActive,
		Balance:         acc.Balance,
		YTDActivity:     acc.YTDActivity,
		CreatedAt:       acc.CreatedAt,
		CreatedBy:       acc.CreatedBy,
		LastUpdatedAt:   acc.LastUpdatedAt,
		LastUpdatedBy:   acc.LastUpdatedBy,
	}
}

// ToListAccountResponse converts a slice of domain.Account to DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i := range accounts {
		res[i] = ToAccountResponse(&accounts[i])
	}
	return res
}
