package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates where a journal entry sits in the approval workflow.
type EntryStatus string

const (
	StatusDraft                EntryStatus = "DRAFT"
	StatusPendingFirstApproval EntryStatus = "PENDING_FIRST_APPROVAL"
	StatusPendingFinalApproval EntryStatus = "PENDING_FINAL_APPROVAL"
	StatusApproved             EntryStatus = "APPROVED"
	StatusPosted               EntryStatus = "POSTED"
	StatusReversed             EntryStatus = "REVERSED"
)

// EntryType classifies a journal entry.
type EntryType string

const (
	EntryStandard  EntryType = "STANDARD"
	EntryAdjusting EntryType = "ADJUSTING"
	EntryClosing   EntryType = "CLOSING"
	EntryReversing EntryType = "REVERSING"
)

// ApprovalRecord carries the dual-signature state of an entry.
// Fields are append-only once set; a reject clears them back to nil.
type ApprovalRecord struct {
	FirstApprovedBy *string    `json:"firstApprovedBy,omitempty"`
	FirstApprovedAt *time.Time `json:"firstApprovedAt,omitempty"`
	FinalApprovedBy *string    `json:"finalApprovedBy,omitempty"`
	FinalApprovedAt *time.Time `json:"finalApprovedAt,omitempty"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
}

// JournalEntry represents a single, balanced accounting transaction moving
// through the draft -> approval -> posted lifecycle.
type JournalEntry struct {
	EntryID         string      `json:"entryID"`     // Surrogate key (UUID)
	EntryNumber     string      `json:"entryNumber"` // Human readable, monotonic per entity+fiscal period
	EntityID        string      `json:"entityID"`
	EntryDate       time.Time   `json:"entryDate"`
	FiscalYear      int         `json:"fiscalYear"`   // Derived from EntryDate
	FiscalPeriod    int         `json:"fiscalPeriod"` // Derived from EntryDate (1..12)
	EntryType       EntryType   `json:"entryType"`
	Memo            string      `json:"memo"`
	VendorName      *string     `json:"vendorName,omitempty"`
	InvoiceNumber   *string     `json:"invoiceNumber,omitempty"`
	DueDate         *time.Time  `json:"dueDate,omitempty"`
	AutoReverseDate *time.Time  `json:"autoReverseDate,omitempty"` // Scheduling hint consumed by an external scheduler
	Status          EntryStatus `json:"status"`
	Approval        ApprovalRecord
	OriginalEntryID *string    `json:"originalEntryID,omitempty"` // Set on reversing entries
	ReversalEntryID *string    `json:"reversalEntryID,omitempty"` // Set on the original once reversed
	PostedAt        *time.Time `json:"postedAt,omitempty"`
	Version         int64      `json:"version"` // Optimistic concurrency counter
	AuditFields

	Lines       []JournalLine    `json:"lines,omitempty"`
	Attachments []AttachmentLink `json:"attachments,omitempty"`
}

// TotalDebits sums the debit column of the entry's lines.
func (e *JournalEntry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredits sums the credit column of the entry's lines.
func (e *JournalEntry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// IsReversed reports whether a reversal entry has been created for this entry.
func (e *JournalEntry) IsReversed() bool {
	return e.ReversalEntryID != nil || e.Status == StatusReversed
}

// IsImmutable reports whether the entry header and lines are frozen.
func (e *JournalEntry) IsImmutable() bool {
	return e.Status == StatusPosted || e.Status == StatusReversed
}
