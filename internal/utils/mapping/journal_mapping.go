package mapping

import (
	"github.com/finbooks/ledger_engine/internal/core/domain"
	"github.com/finbooks/ledger_engine/internal/models"
)

// ToModelEntry converts a domain JournalEntry to a model JournalEntry
func ToModelEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:         d.EntryID,
		EntryNumber:     d.EntryNumber,
		EntityID:        d.EntityID,
		EntryDate:       d.EntryDate,
		FiscalYear:      d.FiscalYear,
		FiscalPeriod:    d.FiscalPeriod,
		EntryType:       models.EntryType(d.EntryType),
		Memo:            d.Memo,
		VendorName:      d.VendorName,
		InvoiceNumber:   d.InvoiceNumber,
		DueDate:         d.DueDate,
		AutoReverseDate: d.AutoReverseDate,
		Status:          models.EntryStatus(d.Status),
		FirstApprovedBy: d.Approval.FirstApprovedBy,
		FirstApprovedAt: d.Approval.FirstApprovedAt,
		FinalApprovedBy: d.Approval.FinalApprovedBy,
		FinalApprovedAt: d.Approval.FinalApprovedAt,
		RejectionReason: d.Approval.RejectionReason,
		OriginalEntryID: d.OriginalEntryID,
		ReversalEntryID: d.ReversalEntryID,
		PostedAt:        d.PostedAt,
		Version:         d.Version,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainEntry converts a model JournalEntry to a domain JournalEntry
func ToDomainEntry(m models.JournalEntry) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:         m.EntryID,
		EntryNumber:     m.EntryNumber,
		EntityID:        m.EntityID,
		EntryDate:       m.EntryDate,
		FiscalYear:      m.FiscalYear,
		FiscalPeriod:    m.FiscalPeriod,
		EntryType:       domain.EntryType(m.EntryType),
		Memo:            m.Memo,
		VendorName:      m.VendorName,
		InvoiceNumber:   m.InvoiceNumber,
		DueDate:         m.DueDate,
		AutoReverseDate: m.AutoReverseDate,
		Status:          domain.EntryStatus(m.Status),
		Approval: domain.ApprovalRecord{
			FirstApprovedBy: m.FirstApprovedBy,
			FirstApprovedAt: m.FirstApprovedAt,
			FinalApprovedBy: m.FinalApprovedBy,
			FinalApprovedAt: m.FinalApprovedAt,
			RejectionReason: m.RejectionReason,
		},
		OriginalEntryID: m.OriginalEntryID,
		ReversalEntryID: m.ReversalEntryID,
		PostedAt:        m.PostedAt,
		Version:         m.Version,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelLine converts a domain JournalLine to a model JournalLine
func ToModelLine(d domain.JournalLine) models.JournalLine {
	return models.JournalLine{
		LineID:      d.LineID,
		EntryID:     d.EntryID,
		Position:    d.Position,
		AccountID:   d.AccountID,
		Debit:       d.Debit,
		Credit:      d.Credit,
		Description: d.Description,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainLine converts a model JournalLine to a domain JournalLine
func ToDomainLine(m models.JournalLine) domain.JournalLine {
	return domain.JournalLine{
		LineID:      m.LineID,
		EntryID:     m.EntryID,
		Position:    m.Position,
		AccountID:   m.AccountID,
		Debit:       m.Debit,
		Credit:      m.Credit,
		Description: m.Description,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainLineSlice converts a slice of model JournalLines to domain JournalLines
func ToDomainLineSlice(ms []models.JournalLine) []domain.JournalLine {
	ds := make([]domain.JournalLine, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLine(m)
	}
	return ds
}
