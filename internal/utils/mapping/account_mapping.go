package mapping

import (
	"github.com/finbooks/ledger_engine/internal/core/domain"
	"github.com/finbooks/ledger_engine/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:       d.AccountID,
		EntityID:        d.EntityID,
		AccountNumber:   d.AccountNumber,
		Name:            d.Name,
		AccountType:     models.AccountType(d.AccountType),
		NormalBalance:   models.NormalBalance(d.NormalBalance),
		ParentAccountID: d.ParentAccountID,
		AllowPosting:    d.AllowPosting,
		Description:     d.Description,
		IsActive:        d.IsActive,
		Balance:         d.Balance,
		YTDActivity:     d.YTDActivity,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:       m.AccountID,
		EntityID:        m.EntityID,
		AccountNumber:   m.AccountNumber,
		Name:            m.Name,
		AccountType:     domain.AccountType(m.AccountType),
		NormalBalance:   domain.NormalBalance(m.NormalBalance),
		ParentAccountID: m.ParentAccountID,
		AllowPosting:    m.AllowPosting,
		Description:     m.Description,
		IsActive:        m.IsActive,
		Balance:         m.Balance,
		YTDActivity:     m.YTDActivity,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelAttachment converts a domain AttachmentLink to a model AttachmentLink
func ToModelAttachment(d domain.AttachmentLink) models.AttachmentLink {
	return models.AttachmentLink{
		EntryID:      d.EntryID,
		DocumentID:   d.DocumentID,
		DisplayOrder: d.DisplayOrder,
		IsPrimary:    d.IsPrimary,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAttachment converts a model AttachmentLink to a domain AttachmentLink
func ToDomainAttachment(m models.AttachmentLink) domain.AttachmentLink {
	return domain.AttachmentLink{
		EntryID:      m.EntryID,
		DocumentID:   m.DocumentID,
		DisplayOrder: m.DisplayOrder,
		IsPrimary:    m.IsPrimary,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}
