package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/finbooks/ledger_engine/internal/apperrors"
	"github.com/finbooks/ledger_engine/internal/core/domain"
	portsrepo "github.com/finbooks/ledger_engine/internal/core/ports/repositories"
	"github.com/finbooks/ledger_engine/internal/models"
	"github.com/finbooks/ledger_engine/internal/utils/mapping"
	"github.com/finbooks/ledger_engine/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxJournalRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxJournalRepository creates a new repository for journal entry data.
func newPgxJournalRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountRepositoryFacade) portsrepo.JournalRepositoryFacade {
	return &PgxJournalRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

const entryColumns = `entry_id, entry_number, entity_id, entry_date, fiscal_year, fiscal_period, entry_type, memo,
	vendor_name, invoice_number, due_date, auto_reverse_date, status,
	first_approved_by, first_approved_at, final_approved_by, final_approved_at, rejection_reason,
	original_entry_id, reversal_entry_id, posted_at, version,
	created_at, created_by, last_updated_at, last_updated_by`

const lineColumns = `line_id, entry_id, position, account_id, debit, credit, description, created_at, created_by, last_updated_at, last_updated_by`

// scanEntry scans one journal_entries row from the shared column list.
func scanEntry(row pgx.Row) (models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID,
		&m.EntryNumber,
		&m.EntityID,
		&m.EntryDate,
		&m.FiscalYear,
		&m.FiscalPeriod,
		&m.EntryType,
		&m.Memo,
		&m.VendorName,
		&m.InvoiceNumber,
		&m.DueDate,
		&m.AutoReverseDate,
		&m.Status,
		&m.FirstApprovedBy,
		&m.FirstApprovedAt,
		&m.FinalApprovedBy,
		&m.FinalApprovedAt,
		&m.RejectionReason,
		&m.OriginalEntryID,
		&m.ReversalEntryID,
		&m.PostedAt,
		&m.Version,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

func scanLine(row pgx.Row) (models.JournalLine, error) {
	var m models.JournalLine
	err := row.Scan(
		&m.LineID,
		&m.EntryID,
		&m.Position,
		&m.AccountID,
		&m.Debit,
		&m.Credit,
		&m.Description,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// allocateEntryNumber claims the next sequence value for the entity and fiscal
// period via upsert, then formats the human-readable entry number.
// Runs on the caller's transaction so the claim commits with the entry.
func allocateEntryNumber(ctx context.Context, tx pgx.Tx, entityID string, fiscalYear, fiscalPeriod int) (string, error) {
	var seq int64
	query := `
		INSERT INTO entry_sequences (entity_id, fiscal_year, fiscal_period, next_seq)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (entity_id, fiscal_year, fiscal_period)
		DO UPDATE SET next_seq = entry_sequences.next_seq + 1
		RETURNING next_seq;
	`
	if err := tx.QueryRow(ctx, query, entityID, fiscalYear, fiscalPeriod).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to allocate entry number for entity %s: %w", entityID, err)
	}
	return fmt.Sprintf("JE-%d-%02d-%04d", fiscalYear, fiscalPeriod, seq), nil
}

// insertLines batch-inserts the lines of an entry on the given transaction.
func insertLines(ctx context.Context, tx pgx.Tx, lines []domain.JournalLine) error {
	query := `
		INSERT INTO journal_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	batch := &pgx.Batch{}
	for _, l := range lines {
		m := mapping.ToModelLine(l)
		batch.Queue(query,
			m.LineID,
			m.EntryID,
			m.Position,
			m.AccountID,
			m.Debit,
			m.Credit,
			m.Description,
			m.CreatedAt,
			m.CreatedBy,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert lines: %w", err)
	}
	return nil
}

// saveEntryInTx allocates the entry number and inserts the header and lines on
// the caller's transaction.
func saveEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, lines []domain.JournalLine) (string, error) {
	entryNumber, err := allocateEntryNumber(ctx, tx, entry.EntityID, entry.FiscalYear, entry.FiscalPeriod)
	if err != nil {
		return "", err
	}
	entry.EntryNumber = entryNumber

	m := mapping.ToModelEntry(entry)
	query := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26);
	`
	_, err = tx.Exec(ctx, query,
		m.EntryID,
		m.EntryNumber,
		m.EntityID,
		m.EntryDate,
		m.FiscalYear,
		m.FiscalPeriod,
		m.EntryType,
		m.Memo,
		m.VendorName,
		m.InvoiceNumber,
		m.DueDate,
		m.AutoReverseDate,
		m.Status,
		m.FirstApprovedBy,
		m.FirstApprovedAt,
		m.FinalApprovedBy,
		m.FinalApprovedAt,
		m.RejectionReason,
		m.OriginalEntryID,
		m.ReversalEntryID,
		m.PostedAt,
		m.Version,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return "", apperrors.NewAppError(500, "failed to insert entry "+m.EntryID, err)
	}

	if err := insertLines(ctx, tx, lines); err != nil {
		return "", apperrors.NewAppError(500, "failed to insert lines for entry "+m.EntryID, err)
	}
	return entryNumber, nil
}

// SaveEntry persists a new entry and its lines, allocating the entry number
// from the entity+fiscal-period sequence within one transaction.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) (string, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer r.Rollback(ctx, tx)

	entryNumber, err := saveEntryInTx(ctx, tx, entry, lines)
	if err != nil {
		return "", err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return "", err
	}
	return entryNumber, nil
}

// SaveReversal persists the mirror draft and writes the forward reference on
// the original in one transaction. Claiming the link first, conditioned on
// reversal_entry_id IS NULL, means a concurrent reverse loses before anything
// is persisted and no orphan draft survives.
func (r *PgxJournalRepository) SaveReversal(ctx context.Context, reversal domain.JournalEntry, lines []domain.JournalLine) (string, error) {
	if reversal.OriginalEntryID == nil {
		return "", fmt.Errorf("%w: reversal %s carries no original entry", apperrors.ErrValidation, reversal.EntryID)
	}
	originalEntryID := *reversal.OriginalEntryID

	tx, err := r.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer r.Rollback(ctx, tx)

	linkQuery := `
		UPDATE journal_entries
		SET reversal_entry_id = $2,
		    last_updated_at = $3,
		    last_updated_by = $4
		WHERE entry_id = $1 AND reversal_entry_id IS NULL;
	`
	cmdTag, err := tx.Exec(ctx, linkQuery, originalEntryID, reversal.EntryID, reversal.LastUpdatedAt, reversal.LastUpdatedBy)
	if err != nil {
		return "", apperrors.NewAppError(500, "failed to link reversal for entry "+originalEntryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return "", r.conflictOrNotFound(ctx, originalEntryID)
	}

	entryNumber, err := saveEntryInTx(ctx, tx, reversal, lines)
	if err != nil {
		return "", err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return "", err
	}
	return entryNumber, nil
}

// FindEntryByID retrieves an entry header by its ID.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE entry_id = $1;`

	m, err := scanEntry(r.Pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("entry " + entryID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find entry by ID "+entryID, err)
	}

	domainEntry := mapping.ToDomainEntry(m)
	return &domainEntry, nil
}

// FindLinesByEntryID retrieves the ordered lines of an entry.
func (r *PgxJournalRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	query := `SELECT ` + lineColumns + ` FROM journal_lines WHERE entry_id = $1 ORDER BY position;`

	rows, err := r.Pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query lines for entry "+entryID, err)
	}
	defer rows.Close()

	lines := []models.JournalLine{}
	for rows.Next() {
		m, err := scanLine(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan line row for entry "+entryID, err)
		}
		lines = append(lines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating line rows for entry "+entryID, err)
	}

	return mapping.ToDomainLineSlice(lines), nil
}

// ListEntries retrieves a keyset-paginated list of entries for an entity,
// optionally filtered by status, newest first.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, q portsrepo.ListEntriesQuery) ([]domain.JournalEntry, *string, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to decide whether a next page exists.
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + entryColumns + ` FROM journal_entries`
	filterClause := `WHERE entity_id = $1`
	args := []interface{}{q.EntityID}

	if q.Status != nil {
		args = append(args, string(*q.Status))
		filterClause += ` AND status = $` + strconv.Itoa(len(args))
	}

	// Stable ordering: entry_date DESC with created_at DESC as tie-breaker.
	orderByClause := `ORDER BY entry_date DESC, created_at DESC`

	if q.NextToken != nil && *q.NextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*q.NextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		args = append(args, lastDate, lastCreatedAt)
		filterClause += ` AND (entry_date, created_at) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}

	args = append(args, fetchLimit)
	query := baseQuery + " " + filterClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query entries for entity "+q.EntityID, err)
	}
	defer rows.Close()

	modelEntries := make([]models.JournalEntry, 0, fetchLimit)
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan entry row for entity "+q.EntityID, err)
		}
		modelEntries = append(modelEntries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating entry rows for entity "+q.EntityID, err)
	}

	var nextTokenVal *string
	results := modelEntries
	if len(modelEntries) > limit {
		lastEntry := modelEntries[limit-1]
		token := pagination.EncodeToken(lastEntry.EntryDate, lastEntry.CreatedAt)
		nextTokenVal = &token
		results = modelEntries[:limit]
	}

	domainEntries := make([]domain.JournalEntry, len(results))
	for i, m := range results {
		domainEntries[i] = mapping.ToDomainEntry(m)
	}
	return domainEntries, nextTokenVal, nil
}

// ListLinesByAccountID retrieves a keyset-paginated list of posted lines
// touching one account, newest first.
func (r *PgxJournalRepository) ListLinesByAccountID(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.JournalLine, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT l.line_id, l.entry_id, l.position, l.account_id, l.debit, l.credit, l.description,
		       l.created_at, l.created_by, l.last_updated_at, l.last_updated_by, e.entry_date
		FROM journal_lines l
		JOIN journal_entries e ON l.entry_id = e.entry_id
		WHERE l.account_id = $1 AND e.status IN ('POSTED', 'REVERSED')
	`
	orderByClause := `ORDER BY e.entry_date DESC, l.created_at DESC`
	args := []interface{}{accountID}

	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		args = append(args, lastDate, lastCreatedAt)
		baseQuery += ` AND (e.entry_date, l.created_at) < ($2, $3)`
	}

	args = append(args, fetchLimit)
	query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query lines for account "+accountID, err)
	}
	defer rows.Close()

	type lineWithDate struct {
		line      models.JournalLine
		entryDate time.Time
	}
	scanned := make([]lineWithDate, 0, fetchLimit)
	for rows.Next() {
		var m models.JournalLine
		var entryDate time.Time
		err := rows.Scan(
			&m.LineID,
			&m.EntryID,
			&m.Position,
			&m.AccountID,
			&m.Debit,
			&m.Credit,
			&m.Description,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
			&entryDate,
		)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan line row for account "+accountID, err)
		}
		scanned = append(scanned, lineWithDate{line: m, entryDate: entryDate})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating line rows for account "+accountID, err)
	}

	var nextTokenVal *string
	results := scanned
	if len(scanned) > limit {
		last := scanned[limit-1]
		token := pagination.EncodeToken(last.entryDate, last.line.CreatedAt)
		nextTokenVal = &token
		results = scanned[:limit]
	}

	lines := make([]domain.JournalLine, len(results))
	for i, s := range results {
		lines[i] = mapping.ToDomainLine(s.line)
	}
	return lines, nextTokenVal, nil
}

// conflictOrNotFound disambiguates a zero-row conditional update: the entry
// either vanished or its version moved.
func (r *PgxJournalRepository) conflictOrNotFound(ctx context.Context, entryID string) error {
	var exists bool
	err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM journal_entries WHERE entry_id = $1);`, entryID).Scan(&exists)
	if err != nil {
		return apperrors.NewAppError(500, "failed to check entry "+entryID, err)
	}
	if !exists {
		return apperrors.NewNotFoundError("entry " + entryID + " not found")
	}
	return fmt.Errorf("entry %s: %w", entryID, apperrors.ErrConflict)
}

// UpdateDraftEntry replaces a draft's header fields and lines, conditioned on
// the entry still being DRAFT at the expected version.
func (r *PgxJournalRepository) UpdateDraftEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelEntry(entry)
	query := `
		UPDATE journal_entries
		SET entry_date = $2,
		    fiscal_year = $3,
		    fiscal_period = $4,
		    memo = $5,
		    vendor_name = $6,
		    invoice_number = $7,
		    due_date = $8,
		    auto_reverse_date = $9,
		    version = version + 1,
		    last_updated_at = $10,
		    last_updated_by = $11
		WHERE entry_id = $1 AND status = 'DRAFT' AND version = $12;
	`
	cmdTag, err := tx.Exec(ctx, query,
		m.EntryID,
		m.EntryDate,
		m.FiscalYear,
		m.FiscalPeriod,
		m.Memo,
		m.VendorName,
		m.InvoiceNumber,
		m.DueDate,
		m.AutoReverseDate,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		m.Version,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update draft entry "+m.EntryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return r.conflictOrNotFound(ctx, m.EntryID)
	}

	// Replace the lines wholesale; drafts have no posted history to preserve.
	if _, err := tx.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id = $1;`, m.EntryID); err != nil {
		return apperrors.NewAppError(500, "failed to delete lines for entry "+m.EntryID, err)
	}
	if err := insertLines(ctx, tx, lines); err != nil {
		return apperrors.NewAppError(500, "failed to insert lines for entry "+m.EntryID, err)
	}

	return r.Commit(ctx, tx)
}

// TransitionEntry writes the entry's status and approval fields, conditioned
// on entry.Version being current.
func (r *PgxJournalRepository) TransitionEntry(ctx context.Context, entry domain.JournalEntry) error {
	m := mapping.ToModelEntry(entry)
	query := `
		UPDATE journal_entries
		SET status = $2,
		    first_approved_by = $3,
		    first_approved_at = $4,
		    final_approved_by = $5,
		    final_approved_at = $6,
		    rejection_reason = $7,
		    version = version + 1,
		    last_updated_at = $8,
		    last_updated_by = $9
		WHERE entry_id = $1 AND version = $10;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		m.EntryID,
		m.Status,
		m.FirstApprovedBy,
		m.FirstApprovedAt,
		m.FinalApprovedBy,
		m.FinalApprovedAt,
		m.RejectionReason,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		m.Version,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to transition entry "+m.EntryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return r.conflictOrNotFound(ctx, m.EntryID)
	}
	return nil
}

// PostEntry applies the balance deltas and flips the entry to POSTED in one
// database transaction, locking the affected account rows first. When the
// entry is a reversal, its original is marked REVERSED in the same transaction.
func (r *PgxJournalRepository) PostEntry(ctx context.Context, entry domain.JournalEntry, deltas map[string]decimal.Decimal, postedAt time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	accountIDs := make([]string, 0, len(deltas))
	for accID := range deltas {
		accountIDs = append(accountIDs, accID)
	}
	if _, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs); err != nil {
		return err
	}

	// The status flip is conditioned on the pre-posting version so a
	// concurrent transition (or a racing posting) loses cleanly.
	query := `
		UPDATE journal_entries
		SET status = 'POSTED',
		    posted_at = $2,
		    version = version + 1,
		    last_updated_at = $3,
		    last_updated_by = $4
		WHERE entry_id = $1 AND status = 'APPROVED' AND version = $5;
	`
	cmdTag, err := tx.Exec(ctx, query,
		entry.EntryID,
		postedAt,
		entry.LastUpdatedAt,
		entry.LastUpdatedBy,
		entry.Version,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark entry posted "+entry.EntryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("entry %s: %w", entry.EntryID, apperrors.ErrConflict)
	}

	if err := r.accountRepo.ApplyBalanceDeltasInTx(ctx, tx, deltas, entry.LastUpdatedBy, postedAt); err != nil {
		return err
	}

	if entry.OriginalEntryID != nil {
		origQuery := `
			UPDATE journal_entries
			SET status = 'REVERSED',
			    last_updated_at = $2,
			    last_updated_by = $3
			WHERE entry_id = $1 AND status = 'POSTED';
		`
		origTag, err := tx.Exec(ctx, origQuery, *entry.OriginalEntryID, postedAt, entry.LastUpdatedBy)
		if err != nil {
			return apperrors.NewAppError(500, "failed to mark original entry reversed "+*entry.OriginalEntryID, err)
		}
		// The original must still be POSTED; anything else means another
		// reversal beat this one and the deltas must not apply twice.
		if origTag.RowsAffected() == 0 {
			return fmt.Errorf("original entry %s: %w", *entry.OriginalEntryID, apperrors.ErrConflict)
		}
	}

	return r.Commit(ctx, tx)
}
