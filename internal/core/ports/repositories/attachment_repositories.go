package repositories

import (
	"context"

	"github.com/finbooks/ledger_engine/internal/core/domain"
)

// AttachmentRepositoryFacade defines persistence for entry attachment links.
type AttachmentRepositoryFacade interface {
	// FindLinksByEntryID retrieves an entry's links ordered by display order.
	FindLinksByEntryID(ctx context.Context, entryID string) ([]domain.AttachmentLink, error)

	// ReplaceLinks swaps the full link set for an entry in one transaction.
	// The linker always writes the complete ordered set so the single-primary
	// invariant holds atomically.
	ReplaceLinks(ctx context.Context, entryID string, links []domain.AttachmentLink) error
}
