/*
store.go - Persistence interface for the ledger engine

PURPOSE:
  Defines the interface between the accounting logic and the database. The
  engine holds no long-lived mutable state: every balance and statement is
  recomputed from stored rows, so there is no cache to invalidate.

KEY CONTRACTS:
  - Posted entries are immutable. The only writes a posted entry ever sees
    are the compare-and-set transitions MarkUnposted and MarkVoided.
  - MarkPosted/MarkUnposted/MarkVoided are CAS primitives: they succeed for
    exactly one caller under concurrency and report false to the losers.
  - WithTx provides all-or-nothing semantics for multi-write operations
    (voiding, period closing).
  - PostedLines is the single read path for balances and statements. It
    returns lines of posted AND voided entries: a voided original stays in
    the ledger and is cancelled arithmetically by its reversing entry.

IMPLEMENTATIONS:
  - ledger/store/memory.go: In-memory for tests and development
  - store/sqlite/sqlite.go: SQLite with WAL, the production path
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// EntryFilter narrows ListEntries. Zero values mean "any".
type EntryFilter struct {
	Status EntryStatus
	Source TransactionSource
	Type   EntryType
	From   Date
	To     Date
}

// LineFilter narrows PostedLines. Zero values mean "any".
type LineFilter struct {
	AccountID string
	From      Date
	To        Date
	Source    TransactionSource

	// ExcludeType drops lines of entries of one type. Period-scoped income
	// reporting uses it to skip closing entries, which are dated on the
	// period's last day and would otherwise zero the period they close.
	ExcludeType EntryType
}

// PostedLine is a flattened entry-line join row, the unit of all balance and
// statement computation. Rows are totally ordered by (entry date, entry
// number, line number) so running balances are deterministic.
type PostedLine struct {
	EntryID     string
	EntryNumber string
	EntryDate   Date
	EntryType   EntryType
	Status      EntryStatus
	Source      TransactionSource
	LineNumber  int
	AccountID   string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// Amount returns the line's contribution signed per the given normal balance.
func (l PostedLine) Amount(nb NormalBalance) decimal.Decimal {
	if nb == NormalDebit {
		return l.Debit.Sub(l.Credit)
	}
	return l.Credit.Sub(l.Debit)
}

// Store handles persistence for all ledger entities.
type Store interface {
	// --- Chart of accounts ---

	// InsertAccount persists a new account. Fails if the account number
	// already exists.
	InsertAccount(ctx context.Context, a Account) error

	// UpdateAccount rewrites a mutable account row (name, parent, active flag).
	UpdateAccount(ctx context.Context, a Account) error

	// GetAccount returns the account or ErrAccountNotFound.
	GetAccount(ctx context.Context, id string) (*Account, error)

	// GetAccountByNumber returns the account with the given display number,
	// or ErrAccountNotFound.
	GetAccountByNumber(ctx context.Context, number string) (*Account, error)

	// ListAccounts returns every account ordered by account number.
	ListAccounts(ctx context.Context) ([]Account, error)

	// DeleteAccount hard-deletes an account row. Callers must have verified
	// no lines or children reference it.
	DeleteAccount(ctx context.Context, id string) error

	// AccountHasLines reports whether any journal line (draft or posted)
	// references the account.
	AccountHasLines(ctx context.Context, id string) (bool, error)

	// --- Journal entries ---

	// InsertEntry persists an entry header and all of its lines atomically.
	InsertEntry(ctx context.Context, e JournalEntry) error

	// GetEntry returns the entry with its lines, or ErrEntryNotFound.
	GetEntry(ctx context.Context, id string) (*JournalEntry, error)

	// ListEntries returns entries (with lines) matching the filter, ordered
	// by entry date then entry number.
	ListEntries(ctx context.Context, f EntryFilter) ([]JournalEntry, error)

	// DeleteEntry removes a draft entry and its lines. Callers must have
	// verified the entry is still draft.
	DeleteEntry(ctx context.Context, id string) error

	// MarkPosted transitions draft -> posted. Returns false if the entry was
	// not in draft state (compare-and-set; exactly one concurrent caller wins).
	MarkPosted(ctx context.Context, id string, at time.Time) (bool, error)

	// MarkUnposted transitions posted -> draft. Returns false if the entry
	// was not in posted state.
	MarkUnposted(ctx context.Context, id string) (bool, error)

	// MarkVoided transitions posted -> voided, recording the reason and the
	// reversing entry. Returns false if the entry was not in posted state.
	MarkVoided(ctx context.Context, id, reason, reversedByID string) (bool, error)

	// NextEntrySequence returns the next per-year entry sequence number.
	// Must be called inside WithTx when assigning entry numbers.
	NextEntrySequence(ctx context.Context, year int) (int, error)

	// CountDrafts returns how many draft entries are dated in [from, to].
	CountDrafts(ctx context.Context, from, to Date) (int, error)

	// PostedLines returns lines of posted and voided entries matching the
	// filter, ordered by (entry date, entry number, line number).
	PostedLines(ctx context.Context, f LineFilter) ([]PostedLine, error)

	// --- Fiscal periods ---

	// InsertPeriod persists a new fiscal period.
	InsertPeriod(ctx context.Context, p FiscalPeriod) error

	// GetPeriod returns the period or ErrPeriodNotFound.
	GetPeriod(ctx context.Context, id string) (*FiscalPeriod, error)

	// ListPeriods returns all periods ordered by start date.
	ListPeriods(ctx context.Context) ([]FiscalPeriod, error)

	// MarkPeriodClosed transitions open -> closed. Returns false if the
	// period was already closed (compare-and-set).
	MarkPeriodClosed(ctx context.Context, id string, at time.Time, by string) (bool, error)

	// InsertRetainedEarnings persists the close-time roll-forward record.
	InsertRetainedEarnings(ctx context.Context, re RetainedEarnings) error

	// GetRetainedEarnings returns the record for a period, or nil if the
	// period has never been closed.
	GetRetainedEarnings(ctx context.Context, periodID string) (*RetainedEarnings, error)

	// ListRetainedEarnings returns all records ordered by period start.
	ListRetainedEarnings(ctx context.Context) ([]RetainedEarnings, error)

	// --- Transactions ---

	// WithTx executes fn within a storage transaction. If fn returns an
	// error the transaction is rolled back, otherwise committed. The Store
	// passed to fn must not be retained after fn returns.
	WithTx(ctx context.Context, fn func(Store) error) error
}
