package dto

import (
	"github.com/finbooks/ledger_engine/internal/core/domain"
)

// LinkAttachmentsRequest attaches documents to an entry.
// PrimaryID, when set, must be one of DocumentIDs.
type LinkAttachmentsRequest struct {
	DocumentIDs []string `json:"documentIDs" binding:"required,min=1"`
	PrimaryID   *string  `json:"primaryID"`
}

// ReorderAttachmentsRequest replaces the display order of an entry's links.
// OrderedIDs must cover every linked document exactly once.
type ReorderAttachmentsRequest struct {
	OrderedIDs []string `json:"orderedIDs" binding:"required,min=1"`
	PrimaryID  string   `json:"primaryID" binding:"required"`
}

// AttachmentLinkDetail defines the data returned for one attachment link.
type AttachmentLinkDetail struct {
	DocumentID   string `json:"documentID"`
	DisplayOrder int    `json:"displayOrder"`
	IsPrimary    bool   `json:"isPrimary"`
}

// AttachmentLinksResponse carries the full updated link set of an entry.
type AttachmentLinksResponse struct {
	EntryID     string                 `json:"entryID"`
	Attachments []AttachmentLinkDetail `json:"attachments"`
}

// ToAttachmentLinkDetails converts domain links to their DTO.
func ToAttachmentLinkDetails(links []domain.AttachmentLink) []AttachmentLinkDetail {
	details := make([]AttachmentLinkDetail, len(links))
	for i, l := range links {
		details[i] = AttachmentLinkDetail{
			DocumentID:   l.DocumentID,
			DisplayOrder: l.DisplayOrder,
			IsPrimary:    l.IsPrimary,
		}
	}
	return details
}
