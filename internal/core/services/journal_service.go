package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finbooks/ledger_engine/internal/apperrors"
	"github.com/finbooks/ledger_engine/internal/core/domain"
	portsrepo "github.com/finbooks/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/finbooks/ledger_engine/internal/core/ports/services"
	"github.com/finbooks/ledger_engine/internal/dto"
	"github.com/finbooks/ledger_engine/internal/middleware"
	"github.com/finbooks/ledger_engine/internal/utils/accounting"
)

var (
	ErrEntryUnbalanced    = fmt.Errorf("%w: entry is out of balance", apperrors.ErrValidation)
	ErrInsufficientLines  = fmt.Errorf("%w: entry must have at least two lines", apperrors.ErrValidation)
	ErrEntryNotDraft      = fmt.Errorf("%w: entry is not in draft", apperrors.ErrValidation)
	ErrEntryNotPending    = fmt.Errorf("%w: entry is not awaiting approval", apperrors.ErrValidation)
	ErrEntryNotPosted     = fmt.Errorf("%w: entry is not posted", apperrors.ErrConflict)
	ErrAlreadyReversed    = fmt.Errorf("%w: entry has already been reversed", apperrors.ErrConflict)
	ErrAccountNotFound    = fmt.Errorf("%w: account not found", apperrors.ErrValidation)
	ErrAccountNotPostable = fmt.Errorf("%w: account does not allow posting", apperrors.ErrValidation)
)

// maxTransitionRetries bounds the optimistic-concurrency retry loop for
// workflow commands before a conflict is surfaced to the caller.
const maxTransitionRetries = 3

// journalService is the workflow state machine for journal entries, plus the
// reversal engine. Every command reads current state, evaluates guards via the
// balance validator and authorization engine, and writes back conditioned on
// the entry version being unchanged.
type journalService struct {
	entryRepo  portsrepo.JournalRepositoryFacade
	attachRepo portsrepo.AttachmentRepositoryFacade
	accountSvc portssvc.AccountSvcFacade
}

// NewJournalService creates the journal workflow service.
func NewJournalService(entryRepo portsrepo.JournalRepositoryFacade, attachRepo portsrepo.AttachmentRepositoryFacade, accountSvc portssvc.AccountSvcFacade) portssvc.JournalSvcFacade {
	return &journalService{
		entryRepo:  entryRepo,
		attachRepo: attachRepo,
		accountSvc: accountSvc,
	}
}

var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// buildLines converts request lines to domain lines, assigning positions and ids.
func buildLines(entryID string, reqLines []dto.EntryLineRequest, now time.Time, userID string) []domain.JournalLine {
	lines := make([]domain.JournalLine, len(reqLines))
	for i, lr := range reqLines {
		lines[i] = domain.JournalLine{
			LineID:      uuid.NewString(),
			EntryID:     entryID,
			Position:    i + 1,
			AccountID:   lr.AccountID,
			Debit:       lr.Debit,
			Credit:      lr.Credit,
			Description: lr.Description,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}
	return lines
}

// checkLineAccounts verifies every referenced account exists, is active,
// allows posting, and belongs to the entry's entity.
func (s *journalService) checkLineAccounts(ctx context.Context, entityID string, lines []domain.JournalLine) error {
	ids := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.AccountID]; !ok {
			seen[l.AccountID] = struct{}{}
			ids = append(ids, l.AccountID)
		}
	}

	accounts, err := s.accountSvc.GetAccountsByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to fetch accounts for entry validation: %w", err)
	}

	for _, id := range ids {
		acc, found := accounts[id]
		if !found {
			return fmt.Errorf("%w: ID %s", ErrAccountNotFound, id)
		}
		if acc.EntityID != entityID {
			return fmt.Errorf("%w: account %s belongs to a different entity", ErrAccountNotFound, id)
		}
		if !acc.IsActive {
			return fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, id)
		}
		if !acc.AllowPosting {
			return fmt.Errorf("%w: account %s", ErrAccountNotPostable, id)
		}
	}
	return nil
}

// CreateEntry creates a new draft journal entry with its lines after validation.
func (s *journalService) CreateEntry(ctx context.Context, req dto.CreateEntryRequest, principal domain.Principal) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now().UTC()
	entryID := uuid.NewString()

	lines := buildLines(entryID, req.Lines, now, principal.UserID)
	if err := accounting.ValidateLines(lines); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := s.checkLineAccounts(ctx, req.EntityID, lines); err != nil {
		return nil, err
	}

	entryType := req.EntryType
	if entryType == "" {
		entryType = domain.EntryStandard
	}
	fiscalYear, fiscalPeriod := accounting.FiscalPeriod(req.EntryDate)

	entry := domain.JournalEntry{
		EntryID:         entryID,
		EntityID:        req.EntityID,
		EntryDate:       req.EntryDate,
		FiscalYear:      fiscalYear,
		FiscalPeriod:    fiscalPeriod,
		EntryType:       entryType,
		Memo:            req.Memo,
		VendorName:      req.VendorName,
		InvoiceNumber:   req.InvoiceNumber,
		DueDate:         req.DueDate,
		AutoReverseDate: req.AutoReverseDate,
		Status:          domain.StatusDraft,
		Version:         1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     principal.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: principal.UserID,
		},
	}

	entryNumber, err := s.entryRepo.SaveEntry(ctx, entry, lines)
	if err != nil {
		logger.Error("Failed to save entry", slog.String("error", err.Error()), slog.String("entity_id", req.EntityID))
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}
	entry.EntryNumber = entryNumber
	entry.Lines = lines

	logger.Info("Entry created", slog.String("entry_id", entry.EntryID), slog.String("entry_number", entryNumber))
	return &entry, nil
}

// UpdateDraftEntry mutates a draft's header and/or lines. Any non-draft entry
// rejects the mutation; posted entries do so as an immutability violation.
func (s *journalService) UpdateDraftEntry(ctx context.Context, entryID string, req dto.UpdateEntryRequest, principal domain.Principal) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.IsImmutable() {
		return nil, fmt.Errorf("%w: entry %s", apperrors.ErrImmutable, entryID)
	}
	if entry.Status != domain.StatusDraft {
		return nil, fmt.Errorf("%w: status is %s", ErrEntryNotDraft, entry.Status)
	}

	now := time.Now().UTC()
	if req.EntryDate != nil {
		entry.EntryDate = *req.EntryDate
		entry.FiscalYear, entry.FiscalPeriod = accounting.FiscalPeriod(*req.EntryDate)
	}
	if req.Memo != nil {
		entry.Memo = *req.Memo
	}
	if req.VendorName != nil {
		entry.VendorName = req.VendorName
	}
	if req.InvoiceNumber != nil {
		entry.InvoiceNumber = req.InvoiceNumber
	}
	if req.DueDate != nil {
		entry.DueDate = req.DueDate
	}
	if req.AutoReverseDate != nil {
		entry.AutoReverseDate = req.AutoReverseDate
	}

	var lines []domain.JournalLine
	if req.Lines != nil {
		lines = buildLines(entryID, req.Lines, now, principal.UserID)
		if err := accounting.ValidateLines(lines); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		if err := s.checkLineAccounts(ctx, entry.EntityID, lines); err != nil {
			return nil, err
		}
	} else {
		lines, err = s.entryRepo.FindLinesByEntryID(ctx, entryID)
		if err != nil {
			return nil, err
		}
	}

	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = principal.UserID

	if err := s.entryRepo.UpdateDraftEntry(ctx, *entry, lines); err != nil {
		logger.Error("Failed to update draft entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, err
	}

	entry.Version++
	entry.Lines = lines
	logger.Info("Draft entry updated", slog.String("entry_id", entryID))
	return entry, nil
}

// GetEntryByID retrieves an entry with its lines and attachment links.
func (s *journalService) GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	lines, err := s.entryRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve lines for entry %s: %w", entryID, err)
	}
	entry.Lines = lines

	attachments, err := s.attachRepo.FindLinksByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve attachments for entry %s: %w", entryID, err)
	}
	entry.Attachments = attachments

	return entry, nil
}

// ListEntries retrieves a keyset-paginated list of entries.
func (s *journalService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	q := portsrepo.ListEntriesQuery{
		EntityID:  params.EntityID,
		Limit:     params.Limit,
		NextToken: params.NextToken,
	}
	if params.Status != "" {
		status := domain.EntryStatus(params.Status)
		q.Status = &status
	}

	entries, nextToken, err := s.entryRepo.ListEntries(ctx, q)
	if err != nil {
		logger.Error("Failed to list entries", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to retrieve entries: %w", err)
	}

	return &dto.ListEntriesResponse{
		Entries:   dto.ToEntryResponses(entries),
		NextToken: nextToken,
	}, nil
}

// ListLinesByAccount retrieves posted activity for one account.
func (s *journalService) ListLinesByAccount(ctx context.Context, accountID string, params dto.ListLinesParams) (*dto.ListLinesResponse, error) {
	if _, err := s.accountSvc.GetAccountByID(ctx, accountID); err != nil {
		return nil, err
	}

	lines, nextToken, err := s.entryRepo.ListLinesByAccountID(ctx, accountID, params.Limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve lines for account %s: %w", accountID, err)
	}

	return &dto.ListLinesResponse{
		Lines:     dto.ToEntryLineResponses(lines),
		NextToken: nextToken,
	}, nil
}

// transition runs one workflow command under the bounded optimistic-concurrency
// retry loop. apply evaluates guards against the freshly loaded entry and
// mutates it in place; the write is conditioned on the loaded version. Guard
// failures abort immediately with the entry untouched; only version conflicts
// are retried.
func (s *journalService) transition(ctx context.Context, entryID string, principal domain.Principal, apply func(entry *domain.JournalEntry) error) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	for attempt := 1; attempt <= maxTransitionRetries; attempt++ {
		entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
		if err != nil {
			return nil, err
		}

		if err := apply(entry); err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		entry.LastUpdatedAt = now
		entry.LastUpdatedBy = principal.UserID

		err = s.entryRepo.TransitionEntry(ctx, *entry)
		if err == nil {
			entry.Version++
			return entry, nil
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		logger.Warn("Concurrent modification during transition, retrying", slog.String("entry_id", entryID), slog.Int("attempt", attempt))
	}

	return nil, fmt.Errorf("entry %s: %w after %d attempts", entryID, apperrors.ErrConflict, maxTransitionRetries)
}

// SubmitEntry moves a balanced draft into the approval pipeline.
func (s *journalService) SubmitEntry(ctx context.Context, entryID string, principal domain.Principal) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.transition(ctx, entryID, principal, func(entry *domain.JournalEntry) error {
		if err := AuthorizeEntryAction(entry, principal, ActionSubmit); err != nil {
			return err
		}
		if entry.Status != domain.StatusDraft {
			return fmt.Errorf("%w: status is %s", ErrEntryNotDraft, entry.Status)
		}

		lines, err := s.entryRepo.FindLinesByEntryID(ctx, entryID)
		if err != nil {
			return err
		}
		if len(lines) < accounting.MinEntryLines {
			return ErrInsufficientLines
		}
		result := accounting.ValidateBalance(lines)
		if !result.Balanced {
			return fmt.Errorf("%w: debits %s, credits %s, difference %s",
				ErrEntryUnbalanced, result.DebitTotal, result.CreditTotal, result.Difference)
		}

		entry.Status = domain.StatusPendingFirstApproval
		entry.Approval.RejectionReason = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Entry submitted for approval", slog.String("entry_id", entryID))
	return entry, nil
}

// ApproveEntry records the first or final signature depending on the stage.
func (s *journalService) ApproveEntry(ctx context.Context, entryID string, notes *string, principal domain.Principal) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.transition(ctx, entryID, principal, func(entry *domain.JournalEntry) error {
		if err := AuthorizeEntryAction(entry, principal, ActionApprove); err != nil {
			return err
		}

		now := time.Now().UTC()
		switch entry.Status {
		case domain.StatusPendingFirstApproval:
			entry.Approval.FirstApprovedBy = &principal.UserID
			entry.Approval.FirstApprovedAt = &now
			entry.Status = domain.StatusPendingFinalApproval
		case domain.StatusPendingFinalApproval:
			entry.Approval.FinalApprovedBy = &principal.UserID
			entry.Approval.FinalApprovedAt = &now
			entry.Status = domain.StatusApproved
		default:
			return fmt.Errorf("%w: status is %s", ErrEntryNotPending, entry.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if notes != nil {
		logger.Info("Approval notes recorded", slog.String("entry_id", entryID), slog.String("notes", *notes))
	}
	logger.Info("Entry approved", slog.String("entry_id", entryID), slog.String("status", string(entry.Status)))
	return entry, nil
}

// RejectEntry returns an entry to DRAFT from either approval stage, recording
// the reason and clearing both signatures. Partial re-approval state is never
// retained; a fresh submit is required.
func (s *journalService) RejectEntry(ctx context.Context, entryID string, reason string, principal domain.Principal) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.transition(ctx, entryID, principal, func(entry *domain.JournalEntry) error {
		if err := AuthorizeEntryAction(entry, principal, ActionReject); err != nil {
			return err
		}
		if entry.Status != domain.StatusPendingFirstApproval && entry.Status != domain.StatusPendingFinalApproval {
			return fmt.Errorf("%w: status is %s", ErrEntryNotPending, entry.Status)
		}

		entry.Status = domain.StatusDraft
		entry.Approval.FirstApprovedBy = nil
		entry.Approval.FirstApprovedAt = nil
		entry.Approval.FinalApprovedBy = nil
		entry.Approval.FinalApprovedAt = nil
		entry.Approval.RejectionReason = &reason
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Entry rejected back to draft", slog.String("entry_id", entryID))
	return entry, nil
}

// ReverseEntry constructs the mirror-image draft for a posted entry.
// The original's posted state and balances are untouched; it only gains a
// forward reference to the reversal. The new entry enters the workflow at
// DRAFT and must independently pass submit, approval, and posting.
func (s *journalService) ReverseEntry(ctx context.Context, entryID string, req dto.ReverseEntryRequest, principal domain.Principal) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Original entry not found for reversal", slog.String("entry_id", entryID))
		}
		return nil, err
	}

	if err := AuthorizeEntryAction(original, principal, ActionReverse); err != nil {
		return nil, err
	}
	if original.Status != domain.StatusPosted {
		return nil, fmt.Errorf("%w: status is %s", ErrEntryNotPosted, original.Status)
	}
	if original.IsReversed() {
		return nil, ErrAlreadyReversed
	}

	originalLines, err := s.entryRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve original lines for reversal: %w", err)
	}

	now := time.Now().UTC()
	reversalID := uuid.NewString()
	fiscalYear, fiscalPeriod := accounting.FiscalPeriod(req.ReversalDate)

	// Mirror the lines: swap debit and credit, same accounts, same order.
	reversalLines := make([]domain.JournalLine, len(originalLines))
	for i, orig := range originalLines {
		reversalLines[i] = domain.JournalLine{
			LineID:      uuid.NewString(),
			EntryID:     reversalID,
			Position:    orig.Position,
			AccountID:   orig.AccountID,
			Debit:       orig.Credit,
			Credit:      orig.Debit,
			Description: orig.Description,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     principal.UserID,
				LastUpdatedAt: now,
				LastUpdatedBy: principal.UserID,
			},
		}
	}

	reversal := domain.JournalEntry{
		EntryID:         reversalID,
		EntityID:        original.EntityID,
		EntryDate:       req.ReversalDate,
		FiscalYear:      fiscalYear,
		FiscalPeriod:    fiscalPeriod,
		EntryType:       domain.EntryReversing,
		Memo:            fmt.Sprintf("Reversal of %s: %s", original.EntryNumber, req.Reason),
		Status:          domain.StatusDraft,
		OriginalEntryID: &original.EntryID,
		Version:         1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     principal.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: principal.UserID,
		},
	}

	// The draft and the forward reference on the original commit together;
	// a concurrent reverse loses the link claim and persists nothing.
	entryNumber, err := s.entryRepo.SaveReversal(ctx, reversal, reversalLines)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			logger.Warn("Concurrent reversal already linked", slog.String("original_entry_id", entryID))
			return nil, ErrAlreadyReversed
		}
		logger.Error("Failed to save reversal entry", slog.String("error", err.Error()), slog.String("original_entry_id", entryID))
		return nil, fmt.Errorf("failed to save reversal entry: %w", err)
	}
	reversal.EntryNumber = entryNumber
	reversal.Lines = reversalLines

	logger.Info("Reversal entry created", slog.String("entry_id", reversalID), slog.String("original_entry_id", entryID))
	return &reversal, nil
}
