package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbooks/ledger_engine/internal/apperrors"
	"github.com/finbooks/ledger_engine/internal/core/domain"
	portsrepo "github.com/finbooks/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/finbooks/ledger_engine/internal/core/ports/services"
	"github.com/finbooks/ledger_engine/internal/dto"
	"github.com/finbooks/ledger_engine/internal/middleware"
	"github.com/finbooks/ledger_engine/internal/utils/accounting"
)

var (
	ErrEntryNotApproved = fmt.Errorf("%w: entry is not approved for posting", apperrors.ErrValidation)
)

// postingService is the ledger posting engine. It turns an approved entry's
// lines into signed balance deltas and applies them together with the status
// flip in one repository transaction.
type postingService struct {
	entryRepo   portsrepo.JournalRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewPostingService creates the posting engine service.
func NewPostingService(entryRepo portsrepo.JournalRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade) portssvc.PostingSvcFacade {
	return &postingService{
		entryRepo:   entryRepo,
		accountRepo: accountRepo,
	}
}

var _ portssvc.PostingSvcFacade = (*postingService)(nil)

// computeDeltas folds the entry's lines into one signed movement per account,
// oriented by each account's normal balance side.
func computeDeltas(lines []domain.JournalLine, accounts map[string]domain.Account) (map[string]decimal.Decimal, error) {
	deltas := make(map[string]decimal.Decimal, len(accounts))
	for _, l := range lines {
		acc, ok := accounts[l.AccountID]
		if !ok {
			return nil, fmt.Errorf("%w: account %s referenced by line %d", apperrors.ErrNotFound, l.AccountID, l.Position)
		}
		delta := accounting.SignedDelta(l.Debit, l.Credit, acc.NormalBalance)
		deltas[l.AccountID] = deltas[l.AccountID].Add(delta)
	}
	return deltas, nil
}

// PostEntry applies an approved entry to its account balances.
// Posting an already-posted entry is an idempotent success that returns the
// stored entry, original postedAt included, without touching any balance.
func (s *postingService) PostEntry(ctx context.Context, entryID string, principal domain.Principal) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	for attempt := 1; attempt <= maxTransitionRetries; attempt++ {
		entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
		if err != nil {
			return nil, err
		}

		if entry.Status == domain.StatusPosted || entry.Status == domain.StatusReversed {
			logger.Info("Entry already posted, idempotent no-op", slog.String("entry_id", entryID))
			lines, err := s.entryRepo.FindLinesByEntryID(ctx, entryID)
			if err != nil {
				return nil, err
			}
			entry.Lines = lines
			return entry, nil
		}

		if err := AuthorizeEntryAction(entry, principal, ActionPost); err != nil {
			return nil, err
		}
		if entry.Status != domain.StatusApproved {
			return nil, fmt.Errorf("%w: status is %s", ErrEntryNotApproved, entry.Status)
		}

		lines, err := s.entryRepo.FindLinesByEntryID(ctx, entryID)
		if err != nil {
			return nil, err
		}

		// The balance invariant is re-checked at the posting boundary even
		// though submit already enforced it; an unbalanced entry must never
		// reach the ledger.
		result := accounting.ValidateBalance(lines)
		if !result.Balanced {
			return nil, fmt.Errorf("%w: debits %s, credits %s, difference %s",
				ErrEntryUnbalanced, result.DebitTotal, result.CreditTotal, result.Difference)
		}

		accountIDs := make([]string, 0, len(lines))
		seen := make(map[string]struct{}, len(lines))
		for _, l := range lines {
			if _, ok := seen[l.AccountID]; !ok {
				seen[l.AccountID] = struct{}{}
				accountIDs = append(accountIDs, l.AccountID)
			}
		}
		accounts, err := s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch accounts for posting: %w", err)
		}
		deltas, err := computeDeltas(lines, accounts)
		if err != nil {
			return nil, err
		}

		postedAt := time.Now().UTC()
		entry.Status = domain.StatusPosted
		entry.PostedAt = &postedAt
		entry.LastUpdatedAt = postedAt
		entry.LastUpdatedBy = principal.UserID

		err = s.entryRepo.PostEntry(ctx, *entry, deltas, postedAt)
		if err == nil {
			entry.Version++
			entry.Lines = lines
			logger.Info("Entry posted",
				slog.String("entry_id", entryID),
				slog.String("entry_number", entry.EntryNumber),
				slog.Int("accounts_touched", len(deltas)),
			)
			return entry, nil
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			logger.Error("Failed to post entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
			return nil, err
		}
		logger.Warn("Concurrent modification during posting, retrying", slog.String("entry_id", entryID), slog.Int("attempt", attempt))
	}

	return nil, fmt.Errorf("entry %s: %w after %d attempts", entryID, apperrors.ErrConflict, maxTransitionRetries)
}

// PostBatch posts each entry independently. A failure on one entry is recorded
// in its result and does not abort or roll back the others.
func (s *postingService) PostBatch(ctx context.Context, req dto.BatchPostRequest, principal domain.Principal) (*dto.BatchPostResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	results := make([]dto.BatchPostResult, 0, len(req.EntryIDs))
	for _, entryID := range req.EntryIDs {
		_, err := s.PostEntry(ctx, entryID, principal)
		if err != nil {
			results = append(results, dto.BatchPostResult{EntryID: entryID, Posted: false, Error: err.Error()})
			continue
		}
		results = append(results, dto.BatchPostResult{EntryID: entryID, Posted: true})
	}

	logger.Info("Batch post completed", slog.Int("requested", len(req.EntryIDs)))
	return &dto.BatchPostResponse{Results: results}, nil
}

// ListUnposted retrieves approved entries awaiting posting.
func (s *postingService) ListUnposted(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	status := domain.StatusApproved
	entries, nextToken, err := s.entryRepo.ListEntries(ctx, portsrepo.ListEntriesQuery{
		EntityID:  params.EntityID,
		Status:    &status,
		Limit:     params.Limit,
		NextToken: params.NextToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve unposted entries: %w", err)
	}
	return &dto.ListEntriesResponse{
		Entries:   dto.ToEntryResponses(entries),
		NextToken: nextToken,
	}, nil
}
