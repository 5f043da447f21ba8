package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/finbooks/ledger_engine/internal/apperrors"
	"github.com/finbooks/ledger_engine/internal/core/domain"
	portsrepo "github.com/finbooks/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/finbooks/ledger_engine/internal/core/ports/services"
	"github.com/finbooks/ledger_engine/internal/core/services"
	"github.com/finbooks/ledger_engine/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Setup ---
type PostingServiceTestSuite struct {
	suite.Suite
	mockEntryRepo   *MockJournalRepository
	mockAccountRepo *MockAccountRepository
	service         portssvc.PostingSvcFacade
	entityID        string
	poster          domain.Principal
	cashAccount     domain.Account
	revenueAccount  domain.Account
	expenseAccount  domain.Account
}

func (suite *PostingServiceTestSuite) SetupTest() {
	suite.mockEntryRepo = new(MockJournalRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.service = services.NewPostingService(suite.mockEntryRepo, suite.mockAccountRepo)

	suite.entityID = uuid.NewString()
	suite.poster = domain.Principal{UserID: uuid.NewString(), Email: "poster@example.com"}

	suite.cashAccount = domain.Account{
		AccountID:     uuid.NewString(),
		EntityID:      suite.entityID,
		AccountNumber: "1000",
		AccountType:   domain.Asset,
		NormalBalance: domain.NormalDebit,
		AllowPosting:  true,
		IsActive:      true,
	}
	suite.revenueAccount = domain.Account{
		AccountID:     uuid.NewString(),
		EntityID:      suite.entityID,
		AccountNumber: "4000",
		AccountType:   domain.Revenue,
		NormalBalance: domain.NormalCredit,
		AllowPosting:  true,
		IsActive:      true,
	}
	suite.expenseAccount = domain.Account{
		AccountID:     uuid.NewString(),
		EntityID:      suite.entityID,
		AccountNumber: "5000",
		AccountType:   domain.Expense,
		NormalBalance: domain.NormalDebit,
		AllowPosting:  true,
		IsActive:      true,
	}
}

func (suite *PostingServiceTestSuite) approvedEntry(entryID string) *domain.JournalEntry {
	approver := uuid.NewString()
	finalApprover := uuid.NewString()
	now := time.Now().UTC()
	return &domain.JournalEntry{
		EntryID:      entryID,
		EntryNumber:  "JE-2026-08-0042",
		EntityID:     suite.entityID,
		EntryDate:    time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		FiscalYear:   2026,
		FiscalPeriod: 8,
		EntryType:    domain.EntryStandard,
		Status:       domain.StatusApproved,
		Version:      4,
		Approval: domain.ApprovalRecord{
			FirstApprovedBy: &approver,
			FirstApprovedAt: &now,
			FinalApprovedBy: &finalApprover,
			FinalApprovedAt: &now,
		},
		AuditFields: domain.AuditFields{CreatedBy: uuid.NewString()},
	}
}

func (suite *PostingServiceTestSuite) cashRevenueLines(entryID string, amount decimal.Decimal) []domain.JournalLine {
	return []domain.JournalLine{
		{LineID: uuid.NewString(), EntryID: entryID, Position: 1, AccountID: suite.cashAccount.AccountID, Debit: amount, Credit: decimal.Zero},
		{LineID: uuid.NewString(), EntryID: entryID, Position: 2, AccountID: suite.revenueAccount.AccountID, Debit: decimal.Zero, Credit: amount},
	}
}

func (suite *PostingServiceTestSuite) TestPostEntry_AppliesSignedDeltas() {
	ctx := context.Background()
	entryID := uuid.NewString()
	entry := suite.approvedEntry(entryID)
	lines := suite.cashRevenueLines(entryID, decimal.NewFromInt(500))
	accounts := map[string]domain.Account{
		suite.cashAccount.AccountID:    suite.cashAccount,
		suite.revenueAccount.AccountID: suite.revenueAccount,
	}

	suite.mockEntryRepo.On("FindEntryByID", ctx, entryID).Return(entry, nil).Once()
	suite.mockEntryRepo.On("FindLinesByEntryID", ctx, entryID).Return(lines, nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, []string{suite.cashAccount.AccountID, suite.revenueAccount.AccountID}).
		Return(accounts, nil).Once()
	// A debit-normal account grows with its debit, a credit-normal account
	// grows with its credit; both sides of this entry move up by 500.
	suite.mockEntryRepo.On("PostEntry", ctx, mock.MatchedBy(func(e domain.JournalEntry) bool {
		return e.Status == domain.StatusPosted && e.PostedAt != nil && e.Version == int64(4)
	}), mock.MatchedBy(func(deltas map[string]decimal.Decimal) bool {
		return len(deltas) == 2 &&
			deltas[suite.cashAccount.AccountID].Equal(decimal.NewFromInt(500)) &&
			deltas[suite.revenueAccount.AccountID].Equal(decimal.NewFromInt(500))
	}), mock.AnythingOfType("time.Time")).Return(nil).Once()

	posted, err := suite.service.PostEntry(ctx, entryID, suite.poster)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusPosted, posted.Status)
	suite.Require().NotNil(posted.PostedAt)
	suite.Equal(int64(5), posted.Version)
	suite.Len(posted.Lines, 2)
	suite.mockEntryRepo.AssertExpectations(suite.T())
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *PostingServiceTestSuite) TestPostEntry_ReversingEntryShrinksBalances() {
	ctx := context.Background()
	entryID := uuid.NewString()
	originalID := uuid.NewString()
	entry := suite.approvedEntry(entryID)
	entry.EntryType = domain.EntryReversing
	entry.OriginalEntryID = &originalID

	// Mirror image of a cash/revenue entry: cash credited, revenue debited.
	lines := []domain.JournalLine{
		{LineID: uuid.NewString(), EntryID: entryID, Position: 1, AccountID: suite.cashAccount.AccountID, Debit: decimal.Zero, Credit: decimal.NewFromInt(300)},
		{LineID: uuid.NewString(), EntryID: entryID, Position: 2, AccountID: suite.revenueAccount.AccountID, Debit: decimal.NewFromInt(300), Credit: decimal.Zero},
	}
	accounts := map[string]domain.Account{
		suite.cashAccount.AccountID:    suite.cashAccount,
		suite.revenueAccount.AccountID: suite.revenueAccount,
	}

	suite.mockEntryRepo.On("FindEntryByID", ctx, entryID).Return(entry, nil).Once()
	suite.mockEntryRepo.On("FindLinesByEntryID", ctx, entryID).Return(lines, nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, mock.Anything).Return(accounts, nil).Once()
	suite.mockEntryRepo.On("PostEntry", ctx, mock.MatchedBy(func(e domain.JournalEntry) bool {
		return e.OriginalEntryID != nil && *e.OriginalEntryID == originalID
	}), mock.MatchedBy(func(deltas map[string]decimal.Decimal) bool {
		return deltas[suite.cashAccount.AccountID].Equal(decimal.NewFromInt(-300)) &&
			deltas[suite.revenueAccount.AccountID].Equal(decimal.NewFromInt(-300))
	}), mock.AnythingOfType("time.Time")).Return(nil).Once()

	posted, err := suite.service.PostEntry(ctx, entryID, suite.poster)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusPosted, posted.Status)
	suite.mockEntryRepo.AssertExpectations(suite.T())
}

func (suite *PostingServiceTestSuite) TestPostEntry_FoldsRepeatedAccount() {
	ctx := context.Background()
	entryID := uuid.NewString()
	entry := suite.approvedEntry(entryID)

	// Cash is split across two debit lines; the delta folds to one movement.
	lines := []domain.JournalLine{
		{LineID: uuid.NewString(), EntryID: entryID, Position: 1, AccountID: suite.cashAccount.AccountID, Debit: decimal.NewFromInt(120), Credit: decimal.Zero},
		{LineID: uuid.NewString(), EntryID: entryID, Position: 2, AccountID: suite.cashAccount.AccountID, Debit: decimal.NewFromInt(80), Credit: decimal.Zero},
		{LineID: uuid.NewString(), EntryID: entryID, Position: 3, AccountID: suite.revenueAccount.AccountID, Debit: decimal.Zero, Credit: decimal.NewFromInt(200)},
	}
	accounts := map[string]domain.Account{
		suite.cashAccount.AccountID:    suite.cashAccount,
		suite.revenueAccount.AccountID: suite.revenueAccount,
	}

	suite.mockEntryRepo.On("FindEntryByID", ctx, entryID).Return(entry, nil).Once()
	suite.mockEntryRepo.On("FindLinesByEntryID", ctx, entryID).Return(lines, nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, []string{suite.cashAccount.AccountID, suite.revenueAccount.AccountID}).
		Return(accounts, nil).Once()
	suite.mockEntryRepo.On("PostEntry", ctx, mock.Anything, mock.MatchedBy(func(deltas map[string]decimal.Decimal) bool {
		return len(deltas) == 2 && deltas[suite.cashAccount.AccountID].Equal(decimal.NewFromInt(200))
	}), mock.AnythingOfType("time.Time")).Return(nil).Once()

	_, err := suite.service.PostEntry(ctx, entryID, suite.poster)

	suite.Require().NoError(err)
	suite.mockEntryRepo.AssertExpectations(suite.T())
}

func (suite *PostingServiceTestSuite) TestPostEntry_IdempotentWhenAlreadyPosted() {
	ctx := context.Background()
	entryID := uuid.NewString()
	entry := suite.approvedEntry(entryID)
	entry.Status = domain.StatusPosted
	originalPostedAt := time.Date(2026, 8, 16, 9, 30, 0, 0, time.UTC)
	entry.PostedAt = &originalPostedAt
	entry.Version = 5
	lines := suite.cashRevenueLines(entryID, decimal.NewFromInt(500))

	suite.mockEntryRepo.On("FindEntryByID", ctx, entryID).Return(entry, nil).Once()
	suite.mockEntryRepo.On("FindLinesByEntryID", ctx, entryID).Return(lines, nil).Once()

	posted, err := suite.service.PostEntry(ctx, entryID, suite.poster)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusPosted, posted.Status)
	suite.Require().NotNil(posted.PostedAt)
	suite.True(posted.PostedAt.Equal(originalPostedAt))
	suite.Equal(int64(5), posted.Version)
	suite.mockEntryRepo.AssertNotCalled(suite.T(), "PostEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "FindAccountsByIDs", mock.Anything, mock.Anything)
}

func (suite *PostingServiceTestSuite) TestPostEntry_NotApproved() {
	ctx := context.Background()
	entryID := uuid.NewString()
	entry := suite.approvedEntry(entryID)
	entry.Status = domain.StatusPendingFinalApproval

	suite.mockEntryRepo.On("FindEntryByID", ctx, entryID).Return(entry, nil).Once()

	_, err := suite.service.PostEntry(ctx, entryID, suite.poster)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrEntryNotApproved)
	suite.mockEntryRepo.AssertNotCalled(suite.T(), "PostEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PostingServiceTestSuite) TestPostEntry_UnbalancedAtBoundary() {
	ctx := context.Background()
	entryID := uuid.NewString()
	entry := suite.approvedEntry(entryID)

	lines := []domain.JournalLine{
		{LineID: uuid.NewString(), EntryID: entryID, Position: 1, AccountID: suite.cashAccount.AccountID, Debit: decimal.NewFromInt(500), Credit: decimal.Zero},
		{LineID: uuid.NewString(), EntryID: entryID, Position: 2, AccountID: suite.revenueAccount.AccountID, Debit: decimal.Zero, Credit: decimal.NewFromInt(499)},
	}

	suite.mockEntryRepo.On("FindEntryByID", ctx, entryID).Return(entry, nil).Once()
	suite.mockEntryRepo.On("FindLinesByEntryID", ctx, entryID).Return(lines, nil).Once()

	_, err := suite.service.PostEntry(ctx, entryID, suite.poster)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrEntryUnbalanced)
	suite.mockEntryRepo.AssertNotCalled(suite.T(), "PostEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PostingServiceTestSuite) TestPostEntry_ConflictRetriesThenIdempotentReturn() {
	ctx := context.Background()
	entryID := uuid.NewString()
	lines := suite.cashRevenueLines(entryID, decimal.NewFromInt(500))
	accounts := map[string]domain.Account{
		suite.cashAccount.AccountID:    suite.cashAccount,
		suite.revenueAccount.AccountID: suite.revenueAccount,
	}

	// First attempt loses the race; the re-read finds the entry already
	// posted by the competing caller and returns it untouched.
	first := suite.approvedEntry(entryID)
	second := suite.approvedEntry(entryID)
	second.Status = domain.StatusPosted
	competingPostedAt := time.Date(2026, 8, 16, 9, 45, 0, 0, time.UTC)
	second.PostedAt = &competingPostedAt
	second.Version = 5

	suite.mockEntryRepo.On("FindEntryByID", ctx, entryID).Return(first, nil).Once()
	suite.mockEntryRepo.On("FindLinesByEntryID", ctx, entryID).Return(lines, nil).Twice()
	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, mock.Anything).Return(accounts, nil).Once()
	suite.mockEntryRepo.On("PostEntry", ctx, mock.Anything, mock.Anything, mock.AnythingOfType("time.Time")).
		Return(apperrors.ErrConflict).Once()
	suite.mockEntryRepo.On("FindEntryByID", ctx, entryID).Return(second, nil).Once()

	posted, err := suite.service.PostEntry(ctx, entryID, suite.poster)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusPosted, posted.Status)
	suite.Require().NotNil(posted.PostedAt)
	suite.True(posted.PostedAt.Equal(competingPostedAt))
	suite.mockEntryRepo.AssertExpectations(suite.T())
}

func (suite *PostingServiceTestSuite) TestPostBatch_IsolatesFailures() {
	ctx := context.Background()
	goodID := uuid.NewString()
	badID := uuid.NewString()

	goodEntry := suite.approvedEntry(goodID)
	goodLines := suite.cashRevenueLines(goodID, decimal.NewFromInt(100))
	accounts := map[string]domain.Account{
		suite.cashAccount.AccountID:    suite.cashAccount,
		suite.revenueAccount.AccountID: suite.revenueAccount,
	}

	badEntry := suite.approvedEntry(badID)
	badEntry.Status = domain.StatusDraft

	suite.mockEntryRepo.On("FindEntryByID", ctx, goodID).Return(goodEntry, nil).Once()
	suite.mockEntryRepo.On("FindLinesByEntryID", ctx, goodID).Return(goodLines, nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, mock.Anything).Return(accounts, nil).Once()
	suite.mockEntryRepo.On("PostEntry", ctx, mock.Anything, mock.Anything, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockEntryRepo.On("FindEntryByID", ctx, badID).Return(badEntry, nil).Once()

	resp, err := suite.service.PostBatch(ctx, dto.BatchPostRequest{EntryIDs: []string{goodID, badID}}, suite.poster)

	suite.Require().NoError(err)
	suite.Require().Len(resp.Results, 2)
	suite.True(resp.Results[0].Posted)
	suite.Empty(resp.Results[0].Error)
	suite.False(resp.Results[1].Posted)
	suite.NotEmpty(resp.Results[1].Error)
	suite.mockEntryRepo.AssertExpectations(suite.T())
}

func (suite *PostingServiceTestSuite) TestListUnposted_FiltersOnApproved() {
	ctx := context.Background()
	entries := []domain.JournalEntry{*suite.approvedEntry(uuid.NewString())}

	suite.mockEntryRepo.On("ListEntries", ctx, mock.MatchedBy(func(q portsrepo.ListEntriesQuery) bool {
		return q.EntityID == suite.entityID && q.Status != nil && *q.Status == domain.StatusApproved
	})).Return(entries, nil, nil).Once()

	resp, err := suite.service.ListUnposted(ctx, dto.ListEntriesParams{EntityID: suite.entityID, Limit: 20})

	suite.Require().NoError(err)
	suite.Len(resp.Entries, 1)
	suite.mockEntryRepo.AssertExpectations(suite.T())
}

func TestPostingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PostingServiceTestSuite))
}
