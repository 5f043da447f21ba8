package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/finbooks/ledger_engine/internal/apperrors"
	"github.com/finbooks/ledger_engine/internal/core/domain"
	portssvc "github.com/finbooks/ledger_engine/internal/core/ports/services"
	"github.com/finbooks/ledger_engine/internal/core/services"
	"github.com/finbooks/ledger_engine/internal/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Setup ---
type AttachmentServiceTestSuite struct {
	suite.Suite
	mockEntryRepo  *MockJournalRepository
	mockAttachRepo *MockAttachmentRepository
	service        portssvc.AttachmentSvcFacade
	principal      domain.Principal
	entryID        string
}

func (suite *AttachmentServiceTestSuite) SetupTest() {
	suite.mockEntryRepo = new(MockJournalRepository)
	suite.mockAttachRepo = new(MockAttachmentRepository)
	suite.service = services.NewAttachmentService(suite.mockEntryRepo, suite.mockAttachRepo)
	suite.principal = domain.Principal{UserID: uuid.NewString(), Email: "clerk@example.com"}
	suite.entryID = uuid.NewString()
}

func (suite *AttachmentServiceTestSuite) expectEntryExists() {
	entry := &domain.JournalEntry{
		EntryID:  suite.entryID,
		EntityID: uuid.NewString(),
		Status:   domain.StatusPosted,
		Version:  5,
	}
	suite.mockEntryRepo.On("FindEntryByID", mock.Anything, suite.entryID).Return(entry, nil).Once()
}

func (suite *AttachmentServiceTestSuite) link(docID string, order int, primary bool) domain.AttachmentLink {
	return domain.AttachmentLink{
		EntryID:      suite.entryID,
		DocumentID:   docID,
		DisplayOrder: order,
		IsPrimary:    primary,
		AuditFields:  domain.AuditFields{CreatedAt: time.Now().UTC(), CreatedBy: suite.principal.UserID},
	}
}

func (suite *AttachmentServiceTestSuite) TestLinkAttachments_FirstDocumentBecomesPrimary() {
	ctx := context.Background()
	suite.expectEntryExists()
	suite.mockAttachRepo.On("FindLinksByEntryID", ctx, suite.entryID).Return([]domain.AttachmentLink{}, nil).Once()
	suite.mockAttachRepo.On("ReplaceLinks", ctx, suite.entryID, mock.MatchedBy(func(links []domain.AttachmentLink) bool {
		return len(links) == 1 && links[0].DocumentID == "doc-1" && links[0].IsPrimary && links[0].DisplayOrder == 1
	})).Return(nil).Once()

	links, err := suite.service.LinkAttachments(ctx, suite.entryID, dto.LinkAttachmentsRequest{DocumentIDs: []string{"doc-1"}}, suite.principal)

	suite.Require().NoError(err)
	suite.Require().Len(links, 1)
	suite.True(links[0].IsPrimary)
	suite.mockAttachRepo.AssertExpectations(suite.T())
}

func (suite *AttachmentServiceTestSuite) TestLinkAttachments_DuplicateDocument() {
	ctx := context.Background()
	suite.expectEntryExists()
	existing := []domain.AttachmentLink{suite.link("doc-1", 1, true)}
	suite.mockAttachRepo.On("FindLinksByEntryID", ctx, suite.entryID).Return(existing, nil).Once()

	_, err := suite.service.LinkAttachments(ctx, suite.entryID, dto.LinkAttachmentsRequest{DocumentIDs: []string{"doc-1"}}, suite.principal)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrDocumentAlreadyLinked)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.mockAttachRepo.AssertNotCalled(suite.T(), "ReplaceLinks", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AttachmentServiceTestSuite) TestLinkAttachments_ExplicitPrimaryMovesFlag() {
	ctx := context.Background()
	suite.expectEntryExists()
	existing := []domain.AttachmentLink{suite.link("doc-1", 1, true)}
	primary := "doc-2"
	suite.mockAttachRepo.On("FindLinksByEntryID", ctx, suite.entryID).Return(existing, nil).Once()
	suite.mockAttachRepo.On("ReplaceLinks", ctx, suite.entryID, mock.MatchedBy(func(links []domain.AttachmentLink) bool {
		return len(links) == 2 &&
			links[0].DocumentID == "doc-1" && !links[0].IsPrimary && links[0].DisplayOrder == 1 &&
			links[1].DocumentID == "doc-2" && links[1].IsPrimary && links[1].DisplayOrder == 2
	})).Return(nil).Once()

	links, err := suite.service.LinkAttachments(ctx, suite.entryID, dto.LinkAttachmentsRequest{DocumentIDs: []string{"doc-2"}, PrimaryID: &primary}, suite.principal)

	suite.Require().NoError(err)
	suite.Len(links, 2)
	suite.mockAttachRepo.AssertExpectations(suite.T())
}

func (suite *AttachmentServiceTestSuite) TestLinkAttachments_PrimaryNotAmongLinks() {
	ctx := context.Background()
	suite.expectEntryExists()
	primary := "doc-elsewhere"
	suite.mockAttachRepo.On("FindLinksByEntryID", ctx, suite.entryID).Return([]domain.AttachmentLink{}, nil).Once()

	_, err := suite.service.LinkAttachments(ctx, suite.entryID, dto.LinkAttachmentsRequest{DocumentIDs: []string{"doc-1"}, PrimaryID: &primary}, suite.principal)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAttachRepo.AssertNotCalled(suite.T(), "ReplaceLinks", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AttachmentServiceTestSuite) TestReorderAttachments_Success() {
	ctx := context.Background()
	suite.expectEntryExists()
	existing := []domain.AttachmentLink{
		suite.link("doc-1", 1, true),
		suite.link("doc-2", 2, false),
		suite.link("doc-3", 3, false),
	}
	suite.mockAttachRepo.On("FindLinksByEntryID", ctx, suite.entryID).Return(existing, nil).Once()
	suite.mockAttachRepo.On("ReplaceLinks", ctx, suite.entryID, mock.MatchedBy(func(links []domain.AttachmentLink) bool {
		return len(links) == 3 &&
			links[0].DocumentID == "doc-3" && links[0].DisplayOrder == 1 && !links[0].IsPrimary &&
			links[1].DocumentID == "doc-1" && links[1].DisplayOrder == 2 && links[1].IsPrimary &&
			links[2].DocumentID == "doc-2" && links[2].DisplayOrder == 3 && !links[2].IsPrimary
	})).Return(nil).Once()

	links, err := suite.service.ReorderAttachments(ctx, suite.entryID, dto.ReorderAttachmentsRequest{
		OrderedIDs: []string{"doc-3", "doc-1", "doc-2"},
		PrimaryID:  "doc-1",
	}, suite.principal)

	suite.Require().NoError(err)
	suite.Len(links, 3)
	suite.mockAttachRepo.AssertExpectations(suite.T())
}

func (suite *AttachmentServiceTestSuite) TestReorderAttachments_IncompletePermutation() {
	ctx := context.Background()
	suite.expectEntryExists()
	existing := []domain.AttachmentLink{
		suite.link("doc-1", 1, true),
		suite.link("doc-2", 2, false),
	}
	suite.mockAttachRepo.On("FindLinksByEntryID", ctx, suite.entryID).Return(existing, nil).Once()

	_, err := suite.service.ReorderAttachments(ctx, suite.entryID, dto.ReorderAttachmentsRequest{
		OrderedIDs: []string{"doc-1"},
		PrimaryID:  "doc-1",
	}, suite.principal)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAttachRepo.AssertNotCalled(suite.T(), "ReplaceLinks", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AttachmentServiceTestSuite) TestReorderAttachments_UnknownDocument() {
	ctx := context.Background()
	suite.expectEntryExists()
	existing := []domain.AttachmentLink{
		suite.link("doc-1", 1, true),
		suite.link("doc-2", 2, false),
	}
	suite.mockAttachRepo.On("FindLinksByEntryID", ctx, suite.entryID).Return(existing, nil).Once()

	_, err := suite.service.ReorderAttachments(ctx, suite.entryID, dto.ReorderAttachmentsRequest{
		OrderedIDs: []string{"doc-1", "doc-9"},
		PrimaryID:  "doc-1",
	}, suite.principal)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrLinkNotFound)
}

func (suite *AttachmentServiceTestSuite) TestDetachAttachment_PromotesNextPrimary() {
	ctx := context.Background()
	suite.expectEntryExists()
	existing := []domain.AttachmentLink{
		suite.link("doc-1", 1, true),
		suite.link("doc-2", 2, false),
		suite.link("doc-3", 3, false),
	}
	suite.mockAttachRepo.On("FindLinksByEntryID", ctx, suite.entryID).Return(existing, nil).Once()
	suite.mockAttachRepo.On("ReplaceLinks", ctx, suite.entryID, mock.MatchedBy(func(links []domain.AttachmentLink) bool {
		return len(links) == 2 &&
			links[0].DocumentID == "doc-2" && links[0].DisplayOrder == 1 && links[0].IsPrimary &&
			links[1].DocumentID == "doc-3" && links[1].DisplayOrder == 2 && !links[1].IsPrimary
	})).Return(nil).Once()

	remaining, err := suite.service.DetachAttachment(ctx, suite.entryID, "doc-1", suite.principal)

	suite.Require().NoError(err)
	suite.Len(remaining, 2)
	suite.True(remaining[0].IsPrimary)
	suite.mockAttachRepo.AssertExpectations(suite.T())
}

func (suite *AttachmentServiceTestSuite) TestDetachAttachment_PromotesDocumentAfterRemovedPrimary() {
	ctx := context.Background()
	suite.expectEntryExists()
	existing := []domain.AttachmentLink{
		suite.link("doc-1", 1, false),
		suite.link("doc-2", 2, true),
		suite.link("doc-3", 3, false),
	}
	suite.mockAttachRepo.On("FindLinksByEntryID", ctx, suite.entryID).Return(existing, nil).Once()
	suite.mockAttachRepo.On("ReplaceLinks", ctx, suite.entryID, mock.MatchedBy(func(links []domain.AttachmentLink) bool {
		// doc-3 followed the removed primary, so it takes over, not doc-1.
		return len(links) == 2 &&
			links[0].DocumentID == "doc-1" && links[0].DisplayOrder == 1 && !links[0].IsPrimary &&
			links[1].DocumentID == "doc-3" && links[1].DisplayOrder == 2 && links[1].IsPrimary
	})).Return(nil).Once()

	remaining, err := suite.service.DetachAttachment(ctx, suite.entryID, "doc-2", suite.principal)

	suite.Require().NoError(err)
	suite.Require().Len(remaining, 2)
	suite.False(remaining[0].IsPrimary)
	suite.True(remaining[1].IsPrimary)
	suite.mockAttachRepo.AssertExpectations(suite.T())
}

func (suite *AttachmentServiceTestSuite) TestDetachAttachment_LastPrimaryFallsBackToFirst() {
	ctx := context.Background()
	suite.expectEntryExists()
	existing := []domain.AttachmentLink{
		suite.link("doc-1", 1, false),
		suite.link("doc-2", 2, false),
		suite.link("doc-3", 3, true),
	}
	suite.mockAttachRepo.On("FindLinksByEntryID", ctx, suite.entryID).Return(existing, nil).Once()
	suite.mockAttachRepo.On("ReplaceLinks", ctx, suite.entryID, mock.MatchedBy(func(links []domain.AttachmentLink) bool {
		return len(links) == 2 &&
			links[0].DocumentID == "doc-1" && links[0].IsPrimary &&
			links[1].DocumentID == "doc-2" && !links[1].IsPrimary
	})).Return(nil).Once()

	remaining, err := suite.service.DetachAttachment(ctx, suite.entryID, "doc-3", suite.principal)

	suite.Require().NoError(err)
	suite.Require().Len(remaining, 2)
	suite.True(remaining[0].IsPrimary)
	suite.mockAttachRepo.AssertExpectations(suite.T())
}

func (suite *AttachmentServiceTestSuite) TestDetachAttachment_NotLinked() {
	ctx := context.Background()
	suite.expectEntryExists()
	existing := []domain.AttachmentLink{suite.link("doc-1", 1, true)}
	suite.mockAttachRepo.On("FindLinksByEntryID", ctx, suite.entryID).Return(existing, nil).Once()

	_, err := suite.service.DetachAttachment(ctx, suite.entryID, "doc-9", suite.principal)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrLinkNotFound)
	suite.mockAttachRepo.AssertNotCalled(suite.T(), "ReplaceLinks", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AttachmentServiceTestSuite) TestLinkAttachments_EntryMissing() {
	ctx := context.Background()
	suite.mockEntryRepo.On("FindEntryByID", mock.Anything, suite.entryID).
		Return(nil, apperrors.NewNotFoundError("entry not found")).Once()

	_, err := suite.service.LinkAttachments(ctx, suite.entryID, dto.LinkAttachmentsRequest{DocumentIDs: []string{"doc-1"}}, suite.principal)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockAttachRepo.AssertNotCalled(suite.T(), "FindLinksByEntryID", mock.Anything, mock.Anything)
}

func TestAttachmentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AttachmentServiceTestSuite))
}
