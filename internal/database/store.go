package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ashmitsharp/cashlens-recon/internal/models"
	"github.com/ashmitsharp/cashlens-recon/internal/services"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DBTX is the subset of *pgxpool.Pool the store needs. pgx.Tx satisfies it too.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store persists statement transactions, ledger entries and reconciliations in
// Postgres.
type Store struct {
	db DBTX
}

var _ services.ReconciliationStore = (*Store)(nil)

func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// ImportSource identifies who an imported batch belongs to and where it came from.
type ImportSource struct {
	UserID    string
	AccountID string
	FileKey   string
}

// InsertStatementTransactions bulk loads parsed statement rows with COPY.
func (s *Store) InsertStatementTransactions(ctx context.Context, src ImportSource, txns []models.ParsedTransaction) (int64, error) {
	rows := make([][]any, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, []any{
			uuid.New(),
			src.UserID,
			src.AccountID,
			toPgDate(t.TxnDate),
			t.Description,
			t.Reference,
			toNumeric(models.Float(t.Amount)),
			src.FileKey,
			t.RawData,
		})
	}

	n, err := s.db.CopyFrom(ctx,
		pgx.Identifier{"bank_transactions"},
		[]string{"id", "user_id", "account_id", "txn_date", "description", "reference", "amount", "source_file_key", "raw_data"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert statement transactions: %w", err)
	}
	return n, nil
}

// InsertLedgerEntries bulk loads parsed ledger rows with COPY. The parsed
// description becomes the entry name.
func (s *Store) InsertLedgerEntries(ctx context.Context, src ImportSource, txns []models.ParsedTransaction) (int64, error) {
	rows := make([][]any, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, []any{
			uuid.New(),
			src.UserID,
			src.AccountID,
			toPgDate(t.TxnDate),
			t.Description,
			t.Reference,
			toNumeric(models.Float(t.Amount)),
			src.FileKey,
		})
	}

	n, err := s.db.CopyFrom(ctx,
		pgx.Identifier{"ledger_entries"},
		[]string{"id", "user_id", "account_id", "entry_date", "name", "reference", "amount", "source_file_key"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert ledger entries: %w", err)
	}
	return n, nil
}

const (
	statementFilter = `FROM bank_transactions
		WHERE user_id = $1 AND account_id = $2 AND txn_date BETWEEN $3 AND $4`
	statementSelect = `SELECT id, txn_date, description, amount, category ` + statementFilter + `
		ORDER BY txn_date, seq`

	ledgerFilter = `FROM ledger_entries
		WHERE user_id = $1 AND account_id = $2 AND entry_date BETWEEN $3 AND $4`
	ledgerSelect = `SELECT id, entry_date, name, reference, memo, counterparty, amount ` + ledgerFilter + `
		ORDER BY entry_date, seq`

	pageClause = `
		LIMIT $5 OFFSET $6`
)

// ListStatementTransactions returns the account's statement rows dated within
// [start, end], in import order per day.
func (s *Store) ListStatementTransactions(ctx context.Context, userID, accountID string, start, end time.Time) ([]models.BankTransaction, error) {
	rows, err := s.db.Query(ctx, statementSelect, userID, accountID, toPgDate(start), toPgDate(end))
	if err != nil {
		return nil, err
	}
	return scanStatementRows(rows)
}

// PageStatementTransactions returns one page of ListStatementTransactions and the
// number of rows in the whole period.
func (s *Store) PageStatementTransactions(ctx context.Context, userID, accountID string, start, end time.Time, limit, offset int) ([]models.BankTransaction, int, error) {
	var total int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) `+statementFilter, userID, accountID, toPgDate(start), toPgDate(end)).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count statement transactions: %w", err)
	}

	rows, err := s.db.Query(ctx, statementSelect+pageClause, userID, accountID, toPgDate(start), toPgDate(end), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	txns, err := scanStatementRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func scanStatementRows(rows pgx.Rows) ([]models.BankTransaction, error) {
	defer rows.Close()

	txns := []models.BankTransaction{}
	for rows.Next() {
		var (
			id     uuid.UUID
			date   pgtype.Date
			amount pgtype.Numeric
			t      models.BankTransaction
		)
		if err := rows.Scan(&id, &date, &t.Description, &amount, &t.Category); err != nil {
			return nil, err
		}
		t.ID = id.String()
		t.Date = fromPgDate(date)
		t.Amount = fromNumeric(amount)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// ListLedgerEntries returns the account's ledger entries dated within [start, end].
func (s *Store) ListLedgerEntries(ctx context.Context, userID, accountID string, start, end time.Time) ([]models.LedgerEntry, error) {
	rows, err := s.db.Query(ctx, ledgerSelect, userID, accountID, toPgDate(start), toPgDate(end))
	if err != nil {
		return nil, err
	}
	return scanLedgerRows(rows)
}

// PageLedgerEntries returns one page of ListLedgerEntries and the period total.
func (s *Store) PageLedgerEntries(ctx context.Context, userID, accountID string, start, end time.Time, limit, offset int) ([]models.LedgerEntry, int, error) {
	var total int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) `+ledgerFilter, userID, accountID, toPgDate(start), toPgDate(end)).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	rows, err := s.db.Query(ctx, ledgerSelect+pageClause, userID, accountID, toPgDate(start), toPgDate(end), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	entries, err := scanLedgerRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func scanLedgerRows(rows pgx.Rows) ([]models.LedgerEntry, error) {
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var (
			id     uuid.UUID
			date   pgtype.Date
			amount pgtype.Numeric
			e      models.LedgerEntry
		)
		if err := rows.Scan(&id, &date, &e.Name, &e.Reference, &e.Memo, &e.Counterparty, &amount); err != nil {
			return nil, err
		}
		e.ID = id.String()
		e.EntryDate = fromPgDate(date)
		e.Amount = fromNumeric(amount)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) CreateReconciliation(ctx context.Context, rec *models.Reconciliation) error {
	settings, err := json.Marshal(rec.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	snapshot, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	query := `
		INSERT INTO reconciliations (id, user_id, account_id, period_start, period_end, status, settings, snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.Exec(ctx, query,
		rec.ID,
		rec.UserID,
		rec.AccountID,
		toPgDate(rec.PeriodStart),
		toPgDate(rec.PeriodEnd),
		string(rec.Status),
		settings,
		snapshot,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

func (s *Store) GetReconciliation(ctx context.Context, id uuid.UUID) (*models.Reconciliation, error) {
	query := `
		SELECT id, user_id, account_id, period_start, period_end, status, settings, snapshot,
		       last_run_at, finalized_at, created_at, updated_at
		FROM reconciliations
		WHERE id = $1
	`
	var (
		rec                  models.Reconciliation
		status               string
		periodStart          pgtype.Date
		periodEnd            pgtype.Date
		settings, snapshot   []byte
		lastRunAt, finalized pgtype.Timestamptz
	)
	err := s.db.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.UserID,
		&rec.AccountID,
		&periodStart,
		&periodEnd,
		&status,
		&settings,
		&snapshot,
		&lastRunAt,
		&finalized,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, services.ErrReconciliationNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(settings, &rec.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := json.Unmarshal(snapshot, &rec.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	rec.Status = models.ReconciliationStatus(status)
	rec.PeriodStart = fromPgDate(periodStart)
	rec.PeriodEnd = fromPgDate(periodEnd)
	rec.LastRunAt = fromTimestamptz(lastRunAt)
	rec.FinalizedAt = fromTimestamptz(finalized)

	return &rec, nil
}

// SaveSnapshot records a run on a draft reconciliation. A finalized record is
// never touched.
func (s *Store) SaveSnapshot(ctx context.Context, id uuid.UUID, settings models.ReconciliationSettings, snapshot models.ReconciliationSnapshot, ranAt time.Time) error {
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	query := `
		UPDATE reconciliations
		SET settings = $2, snapshot = $3, last_run_at = $4, updated_at = $4
		WHERE id = $1 AND status = 'draft'
	`
	tag, err := s.db.Exec(ctx, query, id, settingsJSON, snapshotJSON, ranAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.missingOrLocked(ctx, id)
	}
	return nil
}

// FinalizeReconciliation locks a draft reconciliation.
func (s *Store) FinalizeReconciliation(ctx context.Context, id uuid.UUID, finalizedAt time.Time) error {
	query := `
		UPDATE reconciliations
		SET status = 'finalized', finalized_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'draft'
	`
	tag, err := s.db.Exec(ctx, query, id, finalizedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.missingOrLocked(ctx, id)
	}
	return nil
}

// missingOrLocked explains why a guarded update touched no rows.
func (s *Store) missingOrLocked(ctx context.Context, id uuid.UUID) error {
	var status string
	err := s.db.QueryRow(ctx, `SELECT status FROM reconciliations WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return services.ErrReconciliationNotFound
	}
	if err != nil {
		return err
	}
	return services.ErrReconciliationFinalized
}

func toPgDate(t time.Time) pgtype.Date {
	if t.IsZero() {
		return pgtype.Date{}
	}
	y, m, d := t.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

func fromPgDate(d pgtype.Date) time.Time {
	if !d.Valid {
		return time.Time{}
	}
	return d.Time
}

func fromTimestamptz(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time.UTC()
	return &t
}

// toNumeric converts an amount to NUMERIC via its exact decimal text. nil, NaN
// and infinities are stored as NULL.
func toNumeric(v *float64) pgtype.Numeric {
	var n pgtype.Numeric
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return n
	}
	if err := n.Scan(decimal.NewFromFloat(*v).String()); err != nil {
		return pgtype.Numeric{}
	}
	return n
}

func fromNumeric(n pgtype.Numeric) *float64 {
	if !n.Valid {
		return nil
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return nil
	}
	return models.Float(f.Float64)
}
