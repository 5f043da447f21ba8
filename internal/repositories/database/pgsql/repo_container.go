package pgsql

import (
	portsrepo "github.com/finbooks/ledger_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	journalRepo := newPgxJournalRepository(dbPool, accountRepo)
	attachmentRepo := newPgxAttachmentRepository(dbPool)

	return portsrepo.RepositoryProvider{
		JournalRepo:    journalRepo,
		AccountRepo:    accountRepo,
		AttachmentRepo: attachmentRepo,
	}
}
