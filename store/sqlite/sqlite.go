/*
Package sqlite provides the SQLite-backed ledger.Store.

PURPOSE:
  Implements ledger.Store using SQLite. In production, the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

IMMUTABILITY ENFORCEMENT:
  Posted entries are never updated in place. The only UPDATE statements a
  posted entry ever sees are the guarded status transitions (MarkUnposted,
  MarkVoided), each a compare-and-set with a status predicate in the WHERE
  clause so exactly one concurrent caller wins. Corrections happen through
  reversing entries, never edits.

KEY TABLES:
  accounts:          Chart of accounts (adjacency-list hierarchy)
  journal_entries:   Entry headers with lifecycle status
  journal_lines:     Debit/credit legs, owned by their entry
  fiscal_periods:    Closed date ranges with the closed flag
  retained_earnings: Roll-forward records written at close time
  entry_sequences:   Per-year counters behind entry numbers

INDEXES:
  - idx_accounts_number (unique): account numbers are the chart's namespace
  - idx_entries_number (unique): entry numbers are the audit trail's namespace
  - idx_entries_date_status: draft counting at close time
  - idx_lines_account: the balance hot path joins lines to entries by account

AMOUNTS:
  Stored as TEXT via decimal.Decimal.String() and re-parsed on read. REAL
  would silently corrupt cents.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

RETRYABLE FAILURES:
  Context deadline expiry and SQLITE_BUSY/SQLITE_LOCKED contention surface
  as ledger.TransientError, so callers can classify with IsRetryable and
  safely retry.

USAGE:
  store, err := sqlite.New("./data/ledger.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := ledger.NewEngine(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: Interface definition and contracts
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/ledger-engine/ledger"
)

const (
	dateLayout = "2006-01-02"
	tsLayout   = time.RFC3339
)

// Store implements ledger.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection sidesteps SQLITE_BUSY between the pool's writers.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Chart of accounts (adjacency-list hierarchy)
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		subtype TEXT NOT NULL DEFAULT '',
		normal_balance TEXT NOT NULL,
		parent_id TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_number
		ON accounts(number);
	CREATE INDEX IF NOT EXISTS idx_accounts_parent
		ON accounts(parent_id) WHERE parent_id != '';

	-- Journal entry headers
	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		type TEXT NOT NULL,
		source TEXT NOT NULL,
		source_id TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'draft',
		posted_at TEXT,
		void_reason TEXT NOT NULL DEFAULT '',
		reverses_id TEXT NOT NULL DEFAULT '',
		reversed_by_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_number
		ON journal_entries(number);
	CREATE INDEX IF NOT EXISTS idx_entries_date_status
		ON journal_entries(entry_date, status);
	CREATE INDEX IF NOT EXISTS idx_entries_source
		ON journal_entries(source, source_id) WHERE source_id != '';

	-- Debit/credit legs, exclusively owned by their entry
	CREATE TABLE IF NOT EXISTS journal_lines (
		entry_id TEXT NOT NULL REFERENCES journal_entries(id) ON DELETE CASCADE,
		line_number INTEGER NOT NULL,
		account_id TEXT NOT NULL,
		debit TEXT NOT NULL,
		credit TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (entry_id, line_number)
	);

	-- Balance hot path: lines by account joined to entry date/status
	CREATE INDEX IF NOT EXISTS idx_lines_account
		ON journal_lines(account_id);

	-- Fiscal periods
	CREATE TABLE IF NOT EXISTS fiscal_periods (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		closed BOOLEAN NOT NULL DEFAULT FALSE,
		closed_at TEXT,
		closed_by TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_periods_range
		ON fiscal_periods(start_date, end_date);

	-- Retained earnings roll-forward, one row per closed period
	CREATE TABLE IF NOT EXISTS retained_earnings (
		id TEXT PRIMARY KEY,
		period_id TEXT NOT NULL UNIQUE REFERENCES fiscal_periods(id),
		beginning_balance TEXT NOT NULL,
		net_income TEXT NOT NULL,
		dividends TEXT NOT NULL,
		ending_balance TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Per-year entry number counters
	CREATE TABLE IF NOT EXISTS entry_sequences (
		year INTEGER PRIMARY KEY,
		seq INTEGER NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx, so every operation can
// run standalone or inside WithTx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// transientQuerier wraps a querier so timeouts and lock contention surface
// as retryable ledger.TransientError. QueryRowContext defers its error to
// Scan and cannot be intercepted here; with MaxOpenConns(1) single-row
// reads see no contention of their own.
type transientQuerier struct {
	q querier
}

func (t transientQuerier) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := t.q.ExecContext(ctx, query, args...)
	return res, transientWrap("exec", err)
}

func (t transientQuerier) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := t.q.QueryContext(ctx, query, args...)
	return rows, transientWrap("query", err)
}

func (t transientQuerier) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.q.QueryRowContext(ctx, query, args...)
}

func (s *Store) q() querier { return transientQuerier{q: s.db} }

// =============================================================================
// CHART OF ACCOUNTS
// =============================================================================

func (s *Store) InsertAccount(ctx context.Context, a ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertAccount(ctx, s.q(), a)
}

func insertAccount(ctx context.Context, q querier, a ledger.Account) error {
	query := `
		INSERT INTO accounts
		(id, number, name, type, subtype, normal_balance, parent_id, description, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		a.ID, a.Number, a.Name, string(a.Type), string(a.Subtype),
		string(a.NormalBalance), a.ParentID, a.Description, a.Active,
		a.CreatedAt.UTC().Format(tsLayout),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &ledger.ValidationError{Code: "duplicate_number",
				Message: "account number " + a.Number + " already exists"}
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (s *Store) UpdateAccount(ctx context.Context, a ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateAccount(ctx, s.q(), a)
}

func updateAccount(ctx context.Context, q querier, a ledger.Account) error {
	query := `
		UPDATE accounts
		SET name = ?, subtype = ?, parent_id = ?, description = ?, active = ?
		WHERE id = ?
	`
	res, err := q.ExecContext(ctx, query,
		a.Name, string(a.Subtype), a.ParentID, a.Description, a.Active, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

const accountColumns = `id, number, name, type, subtype, normal_balance, parent_id, description, active, created_at`

func (s *Store) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getAccountWhere(ctx, s.q(), "id = ?", id)
}

func (s *Store) GetAccountByNumber(ctx context.Context, number string) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getAccountWhere(ctx, s.q(), "number = ?", number)
}

func getAccountWhere(ctx context.Context, q querier, where string, arg any) (*ledger.Account, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE "+where, arg)

	a, err := scanAccount(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAccount(scan func(dest ...any) error) (ledger.Account, error) {
	var (
		a         ledger.Account
		typ       string
		subtype   string
		nb        string
		createdAt string
	)
	err := scan(&a.ID, &a.Number, &a.Name, &typ, &subtype, &nb,
		&a.ParentID, &a.Description, &a.Active, &createdAt)
	if err != nil {
		return a, err
	}
	a.Type = ledger.AccountType(typ)
	a.Subtype = ledger.AccountSubtype(subtype)
	a.NormalBalance = ledger.NormalBalance(nb)
	a.CreatedAt, _ = time.Parse(tsLayout, createdAt)
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAccounts(ctx, s.q())
}

func listAccounts(ctx context.Context, q querier) ([]ledger.Account, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM accounts ORDER BY number")
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		a, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteAccount(ctx, s.q(), id)
}

func deleteAccount(ctx context.Context, q querier, id string) error {
	res, err := q.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

func (s *Store) AccountHasLines(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return accountHasLines(ctx, s.q(), id)
}

func accountHasLines(ctx context.Context, q querier, id string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM journal_lines WHERE account_id = ? LIMIT 1", id,
	).Scan(&count)
	return count > 0, err
}

// =============================================================================
// JOURNAL ENTRIES
// =============================================================================

func (s *Store) InsertEntry(ctx context.Context, e ledger.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertEntry(ctx, s.q(), e)
}

func insertEntry(ctx context.Context, q querier, e ledger.JournalEntry) error {
	query := `
		INSERT INTO journal_entries
		(id, number, entry_date, type, source, source_id, description, created_by,
		 status, posted_at, void_reason, reverses_id, reversed_by_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		e.ID, e.Number, e.Date.String(), string(e.Type), string(e.Source),
		e.SourceID, e.Description, e.CreatedBy, string(e.Status),
		nullTime(e.PostedAt), e.VoidReason, e.ReversesID, e.ReversedByID,
		e.CreatedAt.UTC().Format(tsLayout),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &ledger.ConflictError{Code: "duplicate_entry_number",
				Message: "entry number " + e.Number + " already exists"}
		}
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	lineQuery := `
		INSERT INTO journal_lines (entry_id, line_number, account_id, debit, credit, description)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for _, l := range e.Lines {
		if _, err := q.ExecContext(ctx, lineQuery,
			e.ID, l.LineNumber, l.AccountID,
			l.Debit.String(), l.Credit.String(), l.Description,
		); err != nil {
			return fmt.Errorf("failed to insert line: %w", err)
		}
	}
	return nil
}

const entryColumns = `id, number, entry_date, type, source, source_id, description,
	created_by, status, posted_at, void_reason, reverses_id, reversed_by_id, created_at`

func (s *Store) GetEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEntry(ctx, s.q(), id)
}

func getEntry(ctx context.Context, q querier, id string) (*ledger.JournalEntry, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM journal_entries WHERE id = ?", id)

	e, err := scanEntry(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := loadLines(ctx, q, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEntry(scan func(dest ...any) error) (ledger.JournalEntry, error) {
	var (
		e         ledger.JournalEntry
		entryDate string
		typ       string
		source    string
		status    string
		postedAt  sql.NullString
		createdAt string
	)
	err := scan(&e.ID, &e.Number, &entryDate, &typ, &source, &e.SourceID,
		&e.Description, &e.CreatedBy, &status, &postedAt,
		&e.VoidReason, &e.ReversesID, &e.ReversedByID, &createdAt)
	if err != nil {
		return e, err
	}
	d, err := ledger.ParseDate(entryDate)
	if err != nil {
		return e, fmt.Errorf("corrupt entry date %q: %w", entryDate, err)
	}
	e.Date = d
	e.Type = ledger.EntryType(typ)
	e.Source = ledger.TransactionSource(source)
	e.Status = ledger.EntryStatus(status)
	if postedAt.Valid {
		e.PostedAt, _ = time.Parse(tsLayout, postedAt.String)
	}
	e.CreatedAt, _ = time.Parse(tsLayout, createdAt)
	return e, nil
}

func loadLines(ctx context.Context, q querier, e *ledger.JournalEntry) error {
	rows, err := q.QueryContext(ctx, `
		SELECT entry_id, line_number, account_id, debit, credit, description
		FROM journal_lines WHERE entry_id = ? ORDER BY line_number
	`, e.ID)
	if err != nil {
		return fmt.Errorf("failed to query lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l             ledger.JournalLine
			debit, credit string
		)
		if err := rows.Scan(&l.EntryID, &l.LineNumber, &l.AccountID,
			&debit, &credit, &l.Description); err != nil {
			return err
		}
		if l.Debit, err = decimal.NewFromString(debit); err != nil {
			return fmt.Errorf("corrupt debit amount %q: %w", debit, err)
		}
		if l.Credit, err = decimal.NewFromString(credit); err != nil {
			return fmt.Errorf("corrupt credit amount %q: %w", credit, err)
		}
		e.Lines = append(e.Lines, l)
	}
	return rows.Err()
}

func (s *Store) ListEntries(ctx context.Context, f ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listEntries(ctx, s.q(), f)
}

func listEntries(ctx context.Context, q querier, f ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	where := []string{"1=1"}
	var args []any
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Source != "" {
		where = append(where, "source = ?")
		args = append(args, string(f.Source))
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if !f.From.IsZero() {
		where = append(where, "entry_date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		where = append(where, "entry_date <= ?")
		args = append(args, f.To.String())
	}

	query := "SELECT " + entryColumns + " FROM journal_entries WHERE " +
		strings.Join(where, " AND ") + " ORDER BY entry_date, number"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		if err := loadLines(ctx, q, &entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteEntry(ctx, s.q(), id)
}

func deleteEntry(ctx context.Context, q querier, id string) error {
	// Lines cascade via the foreign key.
	res, err := q.ExecContext(ctx, "DELETE FROM journal_entries WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrEntryNotFound
	}
	return nil
}

func (s *Store) MarkPosted(ctx context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return markPosted(ctx, s.q(), id, at)
}

func markPosted(ctx context.Context, q querier, id string, at time.Time) (bool, error) {
	// Status predicate in the WHERE clause makes this a compare-and-set.
	res, err := q.ExecContext(ctx, `
		UPDATE journal_entries SET status = 'posted', posted_at = ?
		WHERE id = ? AND status = 'draft'
	`, at.UTC().Format(tsLayout), id)
	if err != nil {
		return false, err
	}
	return casResult(ctx, q, res, id)
}

func (s *Store) MarkUnposted(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return markUnposted(ctx, s.q(), id)
}

func markUnposted(ctx context.Context, q querier, id string) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE journal_entries SET status = 'draft', posted_at = NULL
		WHERE id = ? AND status = 'posted'
	`, id)
	if err != nil {
		return false, err
	}
	return casResult(ctx, q, res, id)
}

func (s *Store) MarkVoided(ctx context.Context, id, reason, reversedByID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return markVoided(ctx, s.q(), id, reason, reversedByID)
}

func markVoided(ctx context.Context, q querier, id, reason, reversedByID string) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE journal_entries SET status = 'voided', void_reason = ?, reversed_by_id = ?
		WHERE id = ? AND status = 'posted'
	`, reason, reversedByID, id)
	if err != nil {
		return false, err
	}
	return casResult(ctx, q, res, id)
}

// casResult interprets a guarded UPDATE: zero rows means either the entry is
// missing or a concurrent caller won the transition.
func casResult(ctx context.Context, q querier, res sql.Result, id string) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	var count int
	if err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM journal_entries WHERE id = ?", id).Scan(&count); err != nil {
		return false, err
	}
	if count == 0 {
		return false, ledger.ErrEntryNotFound
	}
	return false, nil
}

func (s *Store) NextEntrySequence(ctx context.Context, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return nextEntrySequence(ctx, s.q(), year)
}

func nextEntrySequence(ctx context.Context, q querier, year int) (int, error) {
	_, err := q.ExecContext(ctx, `
		INSERT INTO entry_sequences (year, seq) VALUES (?, 1)
		ON CONFLICT(year) DO UPDATE SET seq = seq + 1
	`, year)
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence: %w", err)
	}
	var seq int
	err = q.QueryRowContext(ctx,
		"SELECT seq FROM entry_sequences WHERE year = ?", year).Scan(&seq)
	return seq, err
}

func (s *Store) CountDrafts(ctx context.Context, from, to ledger.Date) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countDrafts(ctx, s.q(), from, to)
}

func countDrafts(ctx context.Context, q querier, from, to ledger.Date) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM journal_entries
		WHERE status = 'draft' AND entry_date >= ? AND entry_date <= ?
	`, from.String(), to.String()).Scan(&count)
	return count, err
}

func (s *Store) PostedLines(ctx context.Context, f ledger.LineFilter) ([]ledger.PostedLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return postedLines(ctx, s.q(), f)
}

func postedLines(ctx context.Context, q querier, f ledger.LineFilter) ([]ledger.PostedLine, error) {
	// Voided originals stay in the result; the reversing entry cancels them.
	where := []string{"e.status IN ('posted', 'voided')"}
	var args []any
	if f.AccountID != "" {
		where = append(where, "l.account_id = ?")
		args = append(args, f.AccountID)
	}
	if !f.From.IsZero() {
		where = append(where, "e.entry_date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		where = append(where, "e.entry_date <= ?")
		args = append(args, f.To.String())
	}
	if f.Source != "" {
		where = append(where, "e.source = ?")
		args = append(args, string(f.Source))
	}
	if f.ExcludeType != "" {
		where = append(where, "e.type <> ?")
		args = append(args, string(f.ExcludeType))
	}

	query := `
		SELECT e.id, e.number, e.entry_date, e.type, e.status, e.source,
		       l.line_number, l.account_id, l.debit, l.credit, l.description
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY e.entry_date, e.number, l.line_number
	`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posted lines: %w", err)
	}
	defer rows.Close()

	var lines []ledger.PostedLine
	for rows.Next() {
		var (
			pl            ledger.PostedLine
			entryDate     string
			typ           string
			status        string
			source        string
			debit, credit string
		)
		if err := rows.Scan(&pl.EntryID, &pl.EntryNumber, &entryDate, &typ,
			&status, &source, &pl.LineNumber, &pl.AccountID,
			&debit, &credit, &pl.Description); err != nil {
			return nil, err
		}
		d, err := ledger.ParseDate(entryDate)
		if err != nil {
			return nil, fmt.Errorf("corrupt entry date %q: %w", entryDate, err)
		}
		pl.EntryDate = d
		pl.EntryType = ledger.EntryType(typ)
		pl.Status = ledger.EntryStatus(status)
		pl.Source = ledger.TransactionSource(source)
		if pl.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, fmt.Errorf("corrupt debit amount %q: %w", debit, err)
		}
		if pl.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, fmt.Errorf("corrupt credit amount %q: %w", credit, err)
		}
		lines = append(lines, pl)
	}
	return lines, rows.Err()
}

// =============================================================================
// FISCAL PERIODS
// =============================================================================

func (s *Store) InsertPeriod(ctx context.Context, p ledger.FiscalPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertPeriod(ctx, s.q(), p)
}

func insertPeriod(ctx context.Context, q querier, p ledger.FiscalPeriod) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO fiscal_periods (id, name, start_date, end_date, closed, closed_at, closed_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Start.String(), p.End.String(),
		p.Closed, nullTime(p.ClosedAt), p.ClosedBy)
	if err != nil {
		return fmt.Errorf("failed to insert period: %w", err)
	}
	return nil
}

const periodColumns = `id, name, start_date, end_date, closed, closed_at, closed_by`

func (s *Store) GetPeriod(ctx context.Context, id string) (*ledger.FiscalPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getPeriod(ctx, s.q(), id)
}

func getPeriod(ctx context.Context, q querier, id string) (*ledger.FiscalPeriod, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+periodColumns+" FROM fiscal_periods WHERE id = ?", id)

	p, err := scanPeriod(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrPeriodNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPeriod(scan func(dest ...any) error) (ledger.FiscalPeriod, error) {
	var (
		p        ledger.FiscalPeriod
		start    string
		end      string
		closedAt sql.NullString
	)
	err := scan(&p.ID, &p.Name, &start, &end, &p.Closed, &closedAt, &p.ClosedBy)
	if err != nil {
		return p, err
	}
	if p.Start, err = ledger.ParseDate(start); err != nil {
		return p, fmt.Errorf("corrupt period start %q: %w", start, err)
	}
	if p.End, err = ledger.ParseDate(end); err != nil {
		return p, fmt.Errorf("corrupt period end %q: %w", end, err)
	}
	if closedAt.Valid {
		p.ClosedAt, _ = time.Parse(tsLayout, closedAt.String)
	}
	return p, nil
}

func (s *Store) ListPeriods(ctx context.Context) ([]ledger.FiscalPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPeriods(ctx, s.q())
}

func listPeriods(ctx context.Context, q querier) ([]ledger.FiscalPeriod, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+periodColumns+" FROM fiscal_periods ORDER BY start_date")
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	var periods []ledger.FiscalPeriod
	for rows.Next() {
		p, err := scanPeriod(rows.Scan)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (s *Store) MarkPeriodClosed(ctx context.Context, id string, at time.Time, by string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return markPeriodClosed(ctx, s.q(), id, at, by)
}

func markPeriodClosed(ctx context.Context, q querier, id string, at time.Time, by string) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE fiscal_periods SET closed = TRUE, closed_at = ?, closed_by = ?
		WHERE id = ? AND closed = FALSE
	`, at.UTC().Format(tsLayout), by, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	var count int
	if err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM fiscal_periods WHERE id = ?", id).Scan(&count); err != nil {
		return false, err
	}
	if count == 0 {
		return false, ledger.ErrPeriodNotFound
	}
	return false, nil
}

func (s *Store) InsertRetainedEarnings(ctx context.Context, re ledger.RetainedEarnings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertRetainedEarnings(ctx, s.q(), re)
}

func insertRetainedEarnings(ctx context.Context, q querier, re ledger.RetainedEarnings) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO retained_earnings
		(id, period_id, beginning_balance, net_income, dividends, ending_balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, re.ID, re.PeriodID,
		re.BeginningBalance.String(), re.NetIncome.String(),
		re.Dividends.String(), re.EndingBalance.String(),
		re.CreatedAt.UTC().Format(tsLayout))
	if err != nil {
		if isUniqueConstraintError(err) {
			return &ledger.ConflictError{Code: "already_closed",
				Message: "period " + re.PeriodID + " already has a retained earnings record"}
		}
		return fmt.Errorf("failed to insert retained earnings: %w", err)
	}
	return nil
}

const retainedColumns = `id, period_id, beginning_balance, net_income, dividends, ending_balance, created_at`

func (s *Store) GetRetainedEarnings(ctx context.Context, periodID string) (*ledger.RetainedEarnings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRetainedEarnings(ctx, s.q(), periodID)
}

func getRetainedEarnings(ctx context.Context, q querier, periodID string) (*ledger.RetainedEarnings, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+retainedColumns+" FROM retained_earnings WHERE period_id = ?", periodID)

	re, err := scanRetained(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &re, nil
}

func scanRetained(scan func(dest ...any) error) (ledger.RetainedEarnings, error) {
	var (
		re        ledger.RetainedEarnings
		beginning string
		netIncome string
		dividends string
		ending    string
		createdAt string
	)
	err := scan(&re.ID, &re.PeriodID, &beginning, &netIncome, &dividends, &ending, &createdAt)
	if err != nil {
		return re, err
	}
	if re.BeginningBalance, err = decimal.NewFromString(beginning); err != nil {
		return re, fmt.Errorf("corrupt beginning balance %q: %w", beginning, err)
	}
	if re.NetIncome, err = decimal.NewFromString(netIncome); err != nil {
		return re, fmt.Errorf("corrupt net income %q: %w", netIncome, err)
	}
	if re.Dividends, err = decimal.NewFromString(dividends); err != nil {
		return re, fmt.Errorf("corrupt dividends %q: %w", dividends, err)
	}
	if re.EndingBalance, err = decimal.NewFromString(ending); err != nil {
		return re, fmt.Errorf("corrupt ending balance %q: %w", ending, err)
	}
	re.CreatedAt, _ = time.Parse(tsLayout, createdAt)
	return re, nil
}

func (s *Store) ListRetainedEarnings(ctx context.Context) ([]ledger.RetainedEarnings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRetainedEarnings(ctx, s.q())
}

func listRetainedEarnings(ctx context.Context, q querier) ([]ledger.RetainedEarnings, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT re.id, re.period_id, re.beginning_balance, re.net_income,
		       re.dividends, re.ending_balance, re.created_at
		FROM retained_earnings re
		JOIN fiscal_periods p ON p.id = re.period_id
		ORDER BY p.start_date
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query retained earnings: %w", err)
	}
	defer rows.Close()

	var records []ledger.RetainedEarnings
	for rows.Next() {
		re, err := scanRetained(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, re)
	}
	return records, rows.Err()
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a database transaction. The mutex is held for
// the duration, matching the single-writer discipline of WAL mode.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if wrapped := transientWrap("begin transaction", err); wrapped != err {
			return wrapped
		}
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return transientWrap("commit transaction", sqlTx.Commit())
}

// txStore runs every Store operation against one *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) q() querier { return transientQuerier{q: ts.tx} }

func (ts *txStore) InsertAccount(ctx context.Context, a ledger.Account) error {
	return insertAccount(ctx, ts.q(), a)
}
func (ts *txStore) UpdateAccount(ctx context.Context, a ledger.Account) error {
	return updateAccount(ctx, ts.q(), a)
}
func (ts *txStore) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	return getAccountWhere(ctx, ts.q(), "id = ?", id)
}
func (ts *txStore) GetAccountByNumber(ctx context.Context, number string) (*ledger.Account, error) {
	return getAccountWhere(ctx, ts.q(), "number = ?", number)
}
func (ts *txStore) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	return listAccounts(ctx, ts.q())
}
func (ts *txStore) DeleteAccount(ctx context.Context, id string) error {
	return deleteAccount(ctx, ts.q(), id)
}
func (ts *txStore) AccountHasLines(ctx context.Context, id string) (bool, error) {
	return accountHasLines(ctx, ts.q(), id)
}
func (ts *txStore) InsertEntry(ctx context.Context, e ledger.JournalEntry) error {
	return insertEntry(ctx, ts.q(), e)
}
func (ts *txStore) GetEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	return getEntry(ctx, ts.q(), id)
}
func (ts *txStore) ListEntries(ctx context.Context, f ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	return listEntries(ctx, ts.q(), f)
}
func (ts *txStore) DeleteEntry(ctx context.Context, id string) error {
	return deleteEntry(ctx, ts.q(), id)
}
func (ts *txStore) MarkPosted(ctx context.Context, id string, at time.Time) (bool, error) {
	return markPosted(ctx, ts.q(), id, at)
}
func (ts *txStore) MarkUnposted(ctx context.Context, id string) (bool, error) {
	return markUnposted(ctx, ts.q(), id)
}
func (ts *txStore) MarkVoided(ctx context.Context, id, reason, reversedByID string) (bool, error) {
	return markVoided(ctx, ts.q(), id, reason, reversedByID)
}
func (ts *txStore) NextEntrySequence(ctx context.Context, year int) (int, error) {
	return nextEntrySequence(ctx, ts.q(), year)
}
func (ts *txStore) CountDrafts(ctx context.Context, from, to ledger.Date) (int, error) {
	return countDrafts(ctx, ts.q(), from, to)
}
func (ts *txStore) PostedLines(ctx context.Context, f ledger.LineFilter) ([]ledger.PostedLine, error) {
	return postedLines(ctx, ts.q(), f)
}
func (ts *txStore) InsertPeriod(ctx context.Context, p ledger.FiscalPeriod) error {
	return insertPeriod(ctx, ts.q(), p)
}
func (ts *txStore) GetPeriod(ctx context.Context, id string) (*ledger.FiscalPeriod, error) {
	return getPeriod(ctx, ts.q(), id)
}
func (ts *txStore) ListPeriods(ctx context.Context) ([]ledger.FiscalPeriod, error) {
	return listPeriods(ctx, ts.q())
}
func (ts *txStore) MarkPeriodClosed(ctx context.Context, id string, at time.Time, by string) (bool, error) {
	return markPeriodClosed(ctx, ts.q(), id, at, by)
}
func (ts *txStore) InsertRetainedEarnings(ctx context.Context, re ledger.RetainedEarnings) error {
	return insertRetainedEarnings(ctx, ts.q(), re)
}
func (ts *txStore) GetRetainedEarnings(ctx context.Context, periodID string) (*ledger.RetainedEarnings, error) {
	return getRetainedEarnings(ctx, ts.q(), periodID)
}
func (ts *txStore) ListRetainedEarnings(ctx context.Context) ([]ledger.RetainedEarnings, error) {
	return listRetainedEarnings(ctx, ts.q())
}
func (ts *txStore) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	// Already inside a transaction; nested calls run in the same one.
	return fn(ts)
}

// Helper functions

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(tsLayout), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isBusyError reports SQLITE_BUSY / SQLITE_LOCKED lock contention.
func isBusyError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

// transientWrap converts timeouts and lock contention into
// ledger.TransientError so callers can classify with ledger.IsRetryable.
// Everything else passes through unchanged.
func transientWrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || isBusyError(err) {
		return &ledger.TransientError{Op: op, Err: err}
	}
	return err
}
