package pgsql

import (
	"context"

	"github.com/finbooks/ledger_engine/internal/apperrors"
	"github.com/finbooks/ledger_engine/internal/core/domain"
	portsrepo "github.com/finbooks/ledger_engine/internal/core/ports/repositories"
	"github.com/finbooks/ledger_engine/internal/models"
	"github.com/finbooks/ledger_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAttachmentRepository struct {
	BaseRepository
}

// newPgxAttachmentRepository creates a new repository for entry attachment links.
func newPgxAttachmentRepository(pool *pgxpool.Pool) portsrepo.AttachmentRepositoryFacade {
	return &PgxAttachmentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AttachmentRepositoryFacade = (*PgxAttachmentRepository)(nil)

const attachmentColumns = `entry_id, document_id, display_order, is_primary, created_at, created_by, last_updated_at, last_updated_by`

// FindLinksByEntryID retrieves an entry's links ordered by display order.
func (r *PgxAttachmentRepository) FindLinksByEntryID(ctx context.Context, entryID string) ([]domain.AttachmentLink, error) {
	query := `SELECT ` + attachmentColumns + ` FROM entry_attachments WHERE entry_id = $1 ORDER BY display_order;`

	rows, err := r.Pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query attachments for entry "+entryID, err)
	}
	defer rows.Close()

	links := []domain.AttachmentLink{}
	for rows.Next() {
		var m models.AttachmentLink
		err := rows.Scan(
			&m.EntryID,
			&m.DocumentID,
			&m.DisplayOrder,
			&m.IsPrimary,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan attachment row for entry "+entryID, err)
		}
		links = append(links, mapping.ToDomainAttachment(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating attachment rows for entry "+entryID, err)
	}

	return links, nil
}

// ReplaceLinks swaps the full link set for an entry in one transaction so the
// display order and single-primary invariant land atomically.
func (r *PgxAttachmentRepository) ReplaceLinks(ctx context.Context, entryID string, links []domain.AttachmentLink) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM entry_attachments WHERE entry_id = $1;`, entryID); err != nil {
		return apperrors.NewAppError(500, "failed to clear attachments for entry "+entryID, err)
	}

	if len(links) > 0 {
		query := `
			INSERT INTO entry_attachments (` + attachmentColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
		`
		batch := &pgx.Batch{}
		for _, l := range links {
			m := mapping.ToModelAttachment(l)
			batch.Queue(query,
				m.EntryID,
				m.DocumentID,
				m.DisplayOrder,
				m.IsPrimary,
				m.CreatedAt,
				m.CreatedBy,
				m.LastUpdatedAt,
				m.LastUpdatedBy,
			)
		}
		br := tx.SendBatch(ctx, batch)
		if err := br.Close(); err != nil {
			return apperrors.NewAppError(500, "failed to insert attachments for entry "+entryID, err)
		}
	}

	return r.Commit(ctx, tx)
}
