package services

import (
	"context"

	"github.com/finbooks/ledger_engine/internal/core/domain"
	"github.com/finbooks/ledger_engine/internal/dto"
)

// AccountSvcFacade defines chart-of-accounts operations.
type AccountSvcFacade interface {
	// CreateAccount creates a new chart-of-accounts entry.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, principal domain.Principal) (*domain.Account, error)

	// GetAccountByID retrieves a single account.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// GetAccountsByIDs retrieves multiple accounts keyed by ID.
	GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts retrieves accounts for an entity ordered by account number.
	ListAccounts(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, error)
}
