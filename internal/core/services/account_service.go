package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finbooks/ledger_engine/internal/apperrors"
	"github.com/finbooks/ledger_engine/internal/core/domain"
	portsrepo "github.com/finbooks/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/finbooks/ledger_engine/internal/core/ports/services"
	"github.com/finbooks/ledger_engine/internal/dto"
	"github.com/finbooks/ledger_engine/internal/middleware"
)

// accountNumberPrefixes maps the leading digit of a structured account number
// to the account type it must carry.
var accountNumberPrefixes = map[byte]domain.AccountType{
	'1': domain.Asset,
	'2': domain.Liability,
	'3': domain.Equity,
	'4': domain.Revenue,
	'5': domain.Expense,
}

// accountService manages the chart of accounts. Balances are read-only here;
// only the posting engine moves them.
type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewAccountService creates the chart-of-accounts service.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade) portssvc.AccountSvcFacade {
	return &accountService{accountRepo: accountRepo}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount creates a new chart-of-accounts entry. The account number's
// leading digit must agree with the account type, and the normal balance
// defaults from the type when not provided.
func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, principal domain.Principal) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if len(req.AccountNumber) == 0 {
		return nil, fmt.Errorf("%w: account number is required", apperrors.ErrValidation)
	}
	wantType, ok := accountNumberPrefixes[req.AccountNumber[0]]
	if !ok {
		return nil, fmt.Errorf("%w: account number %s must start with a digit 1-5", apperrors.ErrValidation, req.AccountNumber)
	}
	if wantType != req.AccountType {
		return nil, fmt.Errorf("%w: account number %s implies type %s, got %s", apperrors.ErrValidation, req.AccountNumber, wantType, req.AccountType)
	}

	if req.ParentAccountID != nil {
		parent, err := s.accountRepo.FindAccountByID(ctx, *req.ParentAccountID)
		if err != nil {
			return nil, fmt.Errorf("parent account lookup failed: %w", err)
		}
		if parent.EntityID != req.EntityID {
			return nil, fmt.Errorf("%w: parent account belongs to a different entity", apperrors.ErrValidation)
		}
	}

	normalBalance := req.NormalBalance
	if normalBalance == "" {
		normalBalance = domain.NormalBalanceFor(req.AccountType)
	}
	allowPosting := true
	if req.AllowPosting != nil {
		allowPosting = *req.AllowPosting
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:     uuid.NewString(),
		EntityID:      req.EntityID,
		AccountNumber: req.AccountNumber,
		Name:          req.Name,
		AccountType:   req.AccountType,
		NormalBalance: normalBalance,
		AllowPosting:  allowPosting,
		Description:   req.Description,
		IsActive:      true,
		Balance:       decimal.Zero,
		YTDActivity:   decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     principal.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: principal.UserID,
		},
	}
	if req.ParentAccountID != nil {
		account.ParentAccountID = *req.ParentAccountID
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("account_number", req.AccountNumber))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("account_number", account.AccountNumber))
	return &account, nil
}

// GetAccountByID retrieves a single account.
func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.accountRepo.FindAccountByID(ctx, accountID)
}

// GetAccountsByIDs retrieves multiple accounts keyed by ID. Missing IDs are
// simply absent from the result; callers decide whether that is an error.
func (s *accountService) GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	return s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
}

// ListAccounts retrieves accounts for an entity ordered by account number.
func (s *accountService) ListAccounts(ctx context.Context, params dto.ListAccountsParams) ([]domain.Account, error) {
	return s.accountRepo.ListAccounts(ctx, params.EntityID, params.Limit, params.Offset)
}
