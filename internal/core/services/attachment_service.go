package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finbooks/ledger_engine/internal/apperrors"
	"github.com/finbooks/ledger_engine/internal/core/domain"
	portsrepo "github.com/finbooks/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/finbooks/ledger_engine/internal/core/ports/services"
	"github.com/finbooks/ledger_engine/internal/dto"
	"github.com/finbooks/ledger_engine/internal/middleware"
)

var (
	ErrDocumentAlreadyLinked = fmt.Errorf("%w: document already linked to entry", apperrors.ErrDuplicate)
	ErrLinkNotFound          = fmt.Errorf("%w: document is not linked to entry", apperrors.ErrNotFound)
)

// attachmentService manages the links between journal entries and externally
// stored documents. Links carry metadata only; document content lives in the
// document store. Attachment operations are permitted in every entry state,
// posted entries included, because links are not part of the accounting record.
type attachmentService struct {
	entryRepo  portsrepo.JournalRepositoryFacade
	attachRepo portsrepo.AttachmentRepositoryFacade
}

// NewAttachmentService creates the attachment linker service.
func NewAttachmentService(entryRepo portsrepo.JournalRepositoryFacade, attachRepo portsrepo.AttachmentRepositoryFacade) portssvc.AttachmentSvcFacade {
	return &attachmentService{
		entryRepo:  entryRepo,
		attachRepo: attachRepo,
	}
}

var _ portssvc.AttachmentSvcFacade = (*attachmentService)(nil)

func (s *attachmentService) loadLinks(ctx context.Context, entryID string) ([]domain.AttachmentLink, error) {
	if _, err := s.entryRepo.FindEntryByID(ctx, entryID); err != nil {
		return nil, err
	}
	return s.attachRepo.FindLinksByEntryID(ctx, entryID)
}

// normalize renumbers display order 1..n and enforces the single-primary
// invariant: the first link becomes primary when none is marked.
func normalize(links []domain.AttachmentLink) []domain.AttachmentLink {
	primarySeen := false
	for i := range links {
		links[i].DisplayOrder = i + 1
		if links[i].IsPrimary {
			if primarySeen {
				links[i].IsPrimary = false
			}
			primarySeen = true
		}
	}
	if !primarySeen && len(links) > 0 {
		links[0].IsPrimary = true
	}
	return links
}

// LinkAttachments appends document links to an entry. The first document ever
// linked becomes primary unless the request names one explicitly.
func (s *attachmentService) LinkAttachments(ctx context.Context, entryID string, req dto.LinkAttachmentsRequest, principal domain.Principal) ([]domain.AttachmentLink, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	links, err := s.loadLinks(ctx, entryID)
	if err != nil {
		return nil, err
	}

	existing := make(map[string]struct{}, len(links))
	for _, l := range links {
		existing[l.DocumentID] = struct{}{}
	}

	now := time.Now().UTC()
	for _, docID := range req.DocumentIDs {
		if _, dup := existing[docID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDocumentAlreadyLinked, docID)
		}
		existing[docID] = struct{}{}
		links = append(links, domain.AttachmentLink{
			EntryID:    entryID,
			DocumentID: docID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     principal.UserID,
				LastUpdatedAt: now,
				LastUpdatedBy: principal.UserID,
			},
		})
	}

	if req.PrimaryID != nil {
		if _, ok := existing[*req.PrimaryID]; !ok {
			return nil, fmt.Errorf("%w: primary document %s is not among the entry's links", apperrors.ErrValidation, *req.PrimaryID)
		}
		for i := range links {
			links[i].IsPrimary = links[i].DocumentID == *req.PrimaryID
		}
	}
	links = normalize(links)

	if err := s.attachRepo.ReplaceLinks(ctx, entryID, links); err != nil {
		logger.Error("Failed to save attachment links", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, err
	}

	logger.Info("Attachments linked", slog.String("entry_id", entryID), slog.Int("added", len(req.DocumentIDs)))
	return links, nil
}

// ReorderAttachments replaces the display order and primary selection.
// OrderedIDs must be a permutation of the entry's current links.
func (s *attachmentService) ReorderAttachments(ctx context.Context, entryID string, req dto.ReorderAttachmentsRequest, principal domain.Principal) ([]domain.AttachmentLink, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	links, err := s.loadLinks(ctx, entryID)
	if err != nil {
		return nil, err
	}

	byDoc := make(map[string]domain.AttachmentLink, len(links))
	for _, l := range links {
		byDoc[l.DocumentID] = l
	}
	if len(req.OrderedIDs) != len(links) {
		return nil, fmt.Errorf("%w: order must list all %d linked documents", apperrors.ErrValidation, len(links))
	}

	now := time.Now().UTC()
	reordered := make([]domain.AttachmentLink, 0, len(links))
	primaryFound := false
	for _, docID := range req.OrderedIDs {
		link, ok := byDoc[docID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrLinkNotFound, docID)
		}
		delete(byDoc, docID)
		link.IsPrimary = docID == req.PrimaryID
		link.LastUpdatedAt = now
		link.LastUpdatedBy = principal.UserID
		if link.IsPrimary {
			primaryFound = true
		}
		reordered = append(reordered, link)
	}
	if !primaryFound {
		return nil, fmt.Errorf("%w: primary document %s is not among the entry's links", apperrors.ErrValidation, req.PrimaryID)
	}
	reordered = normalize(reordered)

	if err := s.attachRepo.ReplaceLinks(ctx, entryID, reordered); err != nil {
		logger.Error("Failed to reorder attachment links", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, err
	}

	logger.Info("Attachments reordered", slog.String("entry_id", entryID))
	return reordered, nil
}

// DetachAttachment removes one link. When the removed link was primary, the
// first remaining link by display order is promoted.
func (s *attachmentService) DetachAttachment(ctx context.Context, entryID string, documentID string, principal domain.Principal) ([]domain.AttachmentLink, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	links, err := s.loadLinks(ctx, entryID)
	if err != nil {
		return nil, err
	}

	remaining := make([]domain.AttachmentLink, 0, len(links))
	var removed *domain.AttachmentLink
	for _, l := range links {
		if l.DocumentID == documentID {
			l := l
			removed = &l
			continue
		}
		remaining = append(remaining, l)
	}
	if removed == nil {
		return nil, fmt.Errorf("%w: %s", ErrLinkNotFound, documentID)
	}
	// When the primary is removed, the next document in display order takes
	// over; normalize falls back to the first link when none followed.
	if removed.IsPrimary {
		for i := range remaining {
			if remaining[i].DisplayOrder > removed.DisplayOrder {
				remaining[i].IsPrimary = true
				break
			}
		}
	}
	remaining = normalize(remaining)

	if err := s.attachRepo.ReplaceLinks(ctx, entryID, remaining); err != nil {
		logger.Error("Failed to detach attachment", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, err
	}

	logger.Info("Attachment detached", slog.String("entry_id", entryID), slog.String("document_id", documentID))
	return remaining, nil
}
