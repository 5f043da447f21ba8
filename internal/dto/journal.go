package dto

import (
	"time"

	"github.com/finbooks/ledger_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EntryLineRequest is one debit/credit row in a create or update request.
type EntryLineRequest struct {
	AccountID   string          `json:"accountID" binding:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

// CreateEntryRequest defines the data needed to create a draft journal entry.
type CreateEntryRequest struct {
	EntityID        string             `json:"entityID" binding:"required"`
	EntryDate       time.Time          `json:"entryDate" binding:"required"`
	EntryType       domain.EntryType   `json:"entryType" binding:"omitempty,oneof=STANDARD ADJUSTING CLOSING REVERSING"`
	Memo            string             `json:"memo" binding:"required"`
	VendorName      *string            `json:"vendorName"`
	InvoiceNumber   *string            `json:"invoiceNumber"`
	DueDate         *time.Time         `json:"dueDate"`
	AutoReverseDate *time.Time         `json:"autoReverseDate"`
	Lines           []EntryLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// UpdateEntryRequest defines the data allowed when mutating a draft.
// Use pointers to distinguish zero-value updates from fields not provided.
// Lines, when present, replace the draft's lines wholesale.
type UpdateEntryRequest struct {
	EntryDate       *time.Time         `json:"entryDate"`
	Memo            *string            `json:"memo"`
	VendorName      *string            `json:"vendorName"`
	InvoiceNumber   *string            `json:"invoiceNumber"`
	DueDate         *time.Time         `json:"dueDate"`
	AutoReverseDate *time.Time         `json:"autoReverseDate"`
	Lines           []EntryLineRequest `json:"lines" binding:"omitempty,min=2,dive"`
}

// ApproveEntryRequest carries the optional approver notes.
type ApproveEntryRequest struct {
	Notes *string `json:"notes"`
}

// RejectEntryRequest carries the mandatory rejection reason.
type RejectEntryRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ReverseEntryRequest defines the inputs to the reversal command.
type ReverseEntryRequest struct {
	ReversalDate time.Time `json:"reversalDate" binding:"required"`
	Reason       string    `json:"reason" binding:"required"`
}

// BatchPostRequest lists the entries to post in one call.
type BatchPostRequest struct {
	EntryIDs []string `json:"entryIDs" binding:"required,min=1"`
}

// BatchPostResult reports the outcome for one entry of a batch post.
type BatchPostResult struct {
	EntryID string `json:"entryID"`
	Posted  bool   `json:"posted"`
	Error   string `json:"error,omitempty"`
}

// BatchPostResponse wraps the per-entry outcomes of a batch post.
type BatchPostResponse struct {
	Results []BatchPostResult `json:"results"`
}

// ListEntriesParams defines query parameters for listing entries.
type ListEntriesParams struct {
	EntityID  string  `form:"entityID"`
	Status    string  `form:"status" binding:"omitempty,oneof=DRAFT PENDING_FIRST_APPROVAL PENDING_FINAL_APPROVAL APPROVED POSTED REVERSED"`
	Limit     int     `form:"limit,default=20"`
	NextToken *string `form:"nextToken"`
}

// ListLinesParams defines query parameters for listing account activity.
type ListLinesParams struct {
	Limit     int     `form:"limit,default=20"`
	NextToken *string `form:"nextToken"`
}

// EntryLineResponse defines the data returned for a line.
type EntryLineResponse struct {
	LineID      string          `json:"lineID"`
	Position    int             `json:"position"`
	AccountID   string          `json:"accountID"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

// EntryResponse defines the data returned for a journal entry.
type EntryResponse struct {
	EntryID         string                 `json:"entryID"`
	EntryNumber     string                 `json:"entryNumber"`
	EntityID        string                 `json:"entityID"`
	EntryDate       time.Time              `json:"entryDate"`
	FiscalYear      int                    `json:"fiscalYear"`
	FiscalPeriod    int                    `json:"fiscalPeriod"`
	EntryType       domain.EntryType       `json:"entryType"`
	Memo            string                 `json:"memo"`
	VendorName      *string                `json:"vendorName,omitempty"`
	InvoiceNumber   *string                `json:"invoiceNumber,omitempty"`
	DueDate         *time.Time             `json:"dueDate,omitempty"`
	AutoReverseDate *time.Time             `json:"autoReverseDate,omitempty"`
	Status          domain.EntryStatus     `json:"status"`
	TotalDebits     decimal.Decimal        `json:"totalDebits"`
	TotalCredits    decimal.Decimal        `json:"totalCredits"`
	Balanced        bool                   `json:"balanced"`
	FirstApprovedBy *string                `json:"firstApprovedBy,omitempty"`
	FirstApprovedAt *time.Time             `json:"firstApprovedAt,omitempty"`
	FinalApprovedBy *string                `json:"finalApprovedBy,omitempty"`
	FinalApprovedAt *time.Time             `json:"finalApprovedAt,omitempty"`
	RejectionReason *string                `json:"rejectionReason,omitempty"`
	OriginalEntryID *string                `json:"originalEntryID,omitempty"`
	ReversalEntryID *string                `json:"reversalEntryID,omitempty"`
	PostedAt        *time.Time             `json:"postedAt,omitempty"`
	Version         int64                  `json:"version"`
	Lines           []EntryLineResponse    `json:"lines,omitempty"`
	Attachments     []AttachmentLinkDetail `json:"attachments,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	CreatedBy       string                 `json:"createdBy"`
	LastUpdatedAt   time.Time              `json:"lastUpdatedAt"`
	LastUpdatedBy   string                 `json:"lastUpdatedBy"`
}

// ListEntriesResponse carries one page of entries plus the next keyset token.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ListLinesResponse carries one page of account activity.
type ListLinesResponse struct {
	Lines     []EntryLineResponse `json:"lines"`
	NextToken *string             `json:"nextToken,omitempty"`
}

// ToEntryLineResponse converts a domain.JournalLine to its DTO.
func ToEntryLineResponse(l *domain.JournalLine) EntryLineResponse {
	return EntryLineResponse{
		LineID:      l.LineID,
		Position:    l.Position,
		AccountID:   l.AccountID,
		Debit:       l.Debit,
		Credit:      l.Credit,
		Description: l.Description,
	}
}

// ToEntryLineResponses converts a slice of domain.JournalLine to DTOs.
func ToEntryLineResponses(lines []domain.JournalLine) []EntryLineResponse {
	responses := make([]EntryLineResponse, len(lines))
	for i := range lines {
		responses[i] = ToEntryLineResponse(&lines[i])
	}
	return responses
}

// ToEntryResponse converts a domain.JournalEntry to its DTO.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	debits := e.TotalDebits()
	credits := e.TotalCredits()
	resp := EntryResponse{
		EntryID:         e.EntryID,
		EntryNumber:     e.EntryNumber,
		EntityID:        e.EntityID,
		EntryDate:       e.EntryDate,
		FiscalYear:      e.FiscalYear,
		FiscalPeriod:    e.FiscalPeriod,
		EntryType:       e.EntryType,
		Memo:            e.Memo,
		VendorName:      e.VendorName,
		InvoiceNumber:   e.InvoiceNumber,
		DueDate:         e.DueDate,
		AutoReverseDate: e.AutoReverseDate,
		Status:          e.Status,
		TotalDebits:     debits,
		TotalCredits:    credits,
		Balanced:        debits.Equal(credits) && debits.IsPositive(),
		FirstApprovedBy: e.Approval.FirstApprovedBy,
		FirstApprovedAt: e.Approval.FirstApprovedAt,
		FinalApprovedBy: e.Approval.FinalApprovedBy,
		FinalApprovedAt: e.Approval.FinalApprovedAt,
		RejectionReason: e.Approval.RejectionReason,
		OriginalEntryID: e.OriginalEntryID,
		ReversalEntryID: e.ReversalEntryID,
		PostedAt:        e.PostedAt,
		Version:         e.Version,
		Lines:           ToEntryLineResponses(e.Lines),
		CreatedAt:       e.CreatedAt,
		CreatedBy:       e.CreatedBy,
		LastUpdatedAt:   e.LastUpdatedAt,
		LastUpdatedBy:   e.LastUpdatedBy,
	}
	if len(e.Attachments) > 0 {
		resp.Attachments = ToAttachmentLinkDetails(e.Attachments)
	}
	return resp
}

// ToEntryResponses converts a slice of domain.JournalEntry to DTOs.
func ToEntryResponses(entries []domain.JournalEntry) []EntryResponse {
	responses := make([]EntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToEntryResponse(&entries[i])
	}
	return responses
}
