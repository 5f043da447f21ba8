package services

import (
	"context"

	"github.com/finbooks/ledger_engine/internal/core/domain"
	"github.com/finbooks/ledger_engine/internal/dto"
)

// EntryReaderSvc defines read operations for journal entry data
type EntryReaderSvc interface {
	// GetEntryByID retrieves an entry with its lines and attachment links.
	GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a keyset-paginated list of entries.
	ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)

	// ListLinesByAccount retrieves posted activity for one account.
	ListLinesByAccount(ctx context.Context, accountID string, params dto.ListLinesParams) (*dto.ListLinesResponse, error)
}

// EntryWriterSvc defines draft mutation operations
type EntryWriterSvc interface {
	// CreateEntry persists a new draft entry with its lines.
	CreateEntry(ctx context.Context, req dto.CreateEntryRequest, principal domain.Principal) (*domain.JournalEntry, error)

	// UpdateDraftEntry mutates a draft's header and/or lines.
	// Rejected with ErrImmutable when the entry is not DRAFT.
	UpdateDraftEntry(ctx context.Context, entryID string, req dto.UpdateEntryRequest, principal domain.Principal) (*domain.JournalEntry, error)
}

// EntryWorkflowSvc defines the lifecycle commands of the state machine.
type EntryWorkflowSvc interface {
	// SubmitEntry moves a balanced draft to PENDING_FIRST_APPROVAL.
	SubmitEntry(ctx context.Context, entryID string, principal domain.Principal) (*domain.JournalEntry, error)

	// ApproveEntry records the first or final signature depending on stage.
	ApproveEntry(ctx context.Context, entryID string, notes *string, principal domain.Principal) (*domain.JournalEntry, error)

	// RejectEntry returns an entry to DRAFT, recording the reason and clearing
	// both approval signatures.
	RejectEntry(ctx context.Context, entryID string, reason string, principal domain.Principal) (*domain.JournalEntry, error)

	// ReverseEntry constructs the mirror-image draft for a posted entry.
	ReverseEntry(ctx context.Context, entryID string, req dto.ReverseEntryRequest, principal domain.Principal) (*domain.JournalEntry, error)
}

// JournalSvcFacade combines all entry-related service interfaces
type JournalSvcFacade interface {
	EntryReaderSvc
	EntryWriterSvc
	EntryWorkflowSvc
}

// PostingSvcFacade is the ledger posting engine surface.
type PostingSvcFacade interface {
	// PostEntry applies an approved entry to account balances.
	// Posting an already-posted entry is an idempotent no-op success.
	PostEntry(ctx context.Context, entryID string, principal domain.Principal) (*domain.JournalEntry, error)

	// PostBatch posts each entry independently; one failure does not abort the rest.
	PostBatch(ctx context.Context, req dto.BatchPostRequest, principal domain.Principal) (*dto.BatchPostResponse, error)

	// ListUnposted retrieves approved entries awaiting posting.
	ListUnposted(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// AttachmentSvcFacade is the attachment linker surface.
type AttachmentSvcFacade interface {
	// LinkAttachments appends document links to an entry.
	LinkAttachments(ctx context.Context, entryID string, req dto.LinkAttachmentsRequest, principal domain.Principal) ([]domain.AttachmentLink, error)

	// ReorderAttachments replaces the display order and primary selection.
	ReorderAttachments(ctx context.Context, entryID string, req dto.ReorderAttachmentsRequest, principal domain.Principal) ([]domain.AttachmentLink, error)

	// DetachAttachment removes one link, promoting a new primary if needed.
	DetachAttachment(ctx context.Context, entryID string, documentID string, principal domain.Principal) ([]domain.AttachmentLink, error)
}
