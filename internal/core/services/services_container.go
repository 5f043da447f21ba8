package services

import (
	portsrepo "github.com/finbooks/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/finbooks/ledger_engine/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Account service first since the journal workflow validates line accounts
	// through it.
	container.Account = NewAccountService(repos.AccountRepo)

	container.Journal = NewJournalService(repos.JournalRepo, repos.AttachmentRepo, container.Account)
	container.Posting = NewPostingService(repos.JournalRepo, repos.AccountRepo)
	container.Attachment = NewAttachmentService(repos.JournalRepo, repos.AttachmentRepo)

	return container
}
