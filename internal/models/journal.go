package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus mirrors domain.EntryStatus for DB storage.
type EntryStatus string

// EntryType mirrors domain.EntryType for DB storage.
type EntryType string

// JournalEntry is the journal_entries row.
type JournalEntry struct {
	EntryID         string      `db:"entry_id"`
	EntryNumber     string      `db:"entry_number"`
	EntityID        string      `db:"entity_id"`
	EntryDate       time.Time   `db:"entry_date"`
	FiscalYear      int         `db:"fiscal_year"`
	FiscalPeriod    int         `db:"fiscal_period"`
	EntryType       EntryType   `db:"entry_type"`
	Memo            string      `db:"memo"`
	VendorName      *string     `db:"vendor_name"`
	InvoiceNumber   *string     `db:"invoice_number"`
	DueDate         *time.Time  `db:"due_date"`
	AutoReverseDate *time.Time  `db:"auto_reverse_date"`
	Status          EntryStatus `db:"status"`
	FirstApprovedBy *string     `db:"first_approved_by"`
	FirstApprovedAt *time.Time  `db:"first_approved_at"`
	FinalApprovedBy *string     `db:"final_approved_by"`
	FinalApprovedAt *time.Time  `db:"final_approved_at"`
	RejectionReason *string     `db:"rejection_reason"`
	OriginalEntryID *string     `db:"original_entry_id"`
	ReversalEntryID *string     `db:"reversal_entry_id"`
	PostedAt        *time.Time  `db:"posted_at"`
	Version         int64       `db:"version"`
	AuditFields
}

// JournalLine is the journal_lines row.
type JournalLine struct {
	LineID      string          `db:"line_id"`
	EntryID     string          `db:"entry_id"`
	Position    int             `db:"position"`
	AccountID   string          `db:"account_id"`
	Debit       decimal.Decimal `db:"debit"`
	Credit      decimal.Decimal `db:"credit"`
	Description string          `db:"description"`
	AuditFields
}
