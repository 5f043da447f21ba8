package repositories

import (
	"context"
	"time"

	"github.com/finbooks/ledger_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ListEntriesQuery holds filter and pagination parameters for listing entries.
type ListEntriesQuery struct {
	EntityID  string
	Status    *domain.EntryStatus
	Limit     int
	NextToken *string
}

// EntryReader defines read operations for journal entry data
type EntryReader interface {
	// FindEntryByID retrieves a specific entry header by its unique identifier.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// FindLinesByEntryID retrieves the ordered lines of an entry.
	FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error)

	// ListEntries retrieves a keyset-paginated list of entries.
	// It returns the entries, a token for the next page, and an error.
	ListEntries(ctx context.Context, q ListEntriesQuery) ([]domain.JournalEntry, *string, error)

	// ListLinesByAccountID retrieves a keyset-paginated list of posted lines
	// touching a specific account.
	ListLinesByAccountID(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.JournalLine, *string, error)
}

// EntryWriter defines write operations for journal entry data
type EntryWriter interface {
	// SaveEntry persists a new entry and its lines, allocating the entry number
	// from the entity+fiscal-period sequence within one transaction.
	// The allocated number is returned.
	SaveEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) (string, error)

	// UpdateDraftEntry replaces a draft's header fields and lines, conditioned on
	// the entry still being DRAFT at the expected version.
	// Returns apperrors.ErrConflict on a version mismatch.
	UpdateDraftEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error

	// TransitionEntry writes the entry's status and approval fields, conditioned
	// on entry.Version being current; the stored version is incremented.
	// Returns apperrors.ErrConflict on a version mismatch.
	TransitionEntry(ctx context.Context, entry domain.JournalEntry) error

	// SaveReversal persists the mirror draft, its lines, and the forward
	// reference on the original in one transaction. The link is conditioned on
	// no reversal existing yet; a concurrent reverse surfaces as
	// apperrors.ErrConflict with nothing persisted.
	// The allocated entry number is returned.
	SaveReversal(ctx context.Context, reversal domain.JournalEntry, lines []domain.JournalLine) (string, error)
}

// EntryPoster defines the atomic posting operation.
type EntryPoster interface {
	// PostEntry applies the per-account balance deltas and flips the entry to
	// POSTED in a single database transaction, locking the affected account
	// rows. If the entry references an original (it is a posted reversal), the
	// original is marked REVERSED in the same transaction.
	// Returns apperrors.ErrConflict on a version mismatch.
	PostEntry(ctx context.Context, entry domain.JournalEntry, deltas map[string]decimal.Decimal, postedAt time.Time) error
}

// JournalRepositoryFacade combines all entry-related repository interfaces
type JournalRepositoryFacade interface {
	EntryReader
	EntryWriter
	EntryPoster
}
