/*
Package ledger implements a double-entry accounting engine: the chart of
accounts, the journal-entry state machine, balance calculation, financial
statements, and fiscal-period closing.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: A node in the chart-of-accounts forest with a normal balance
  - JournalEntry / JournalLine: One financial event and its debit/credit legs
  - EntryStatus: The draft -> posted -> voided lifecycle as a sum type
  - FiscalPeriod / RetainedEarnings: Closing-period bookkeeping
  - Date: A day-granularity time point (entries are dated to the day)

DESIGN PRINCIPLES:
  1. Immutability: Posted entries are never edited, only reversed
  2. Precision: Uses decimal.Decimal — never binary floating point
  3. Explicit state: EntryStatus makes "void but never posted" unrepresentable
  4. Auditability: Voiding keeps both the original and the reversing entry

SEE ALSO:
  - journal.go: Entry lifecycle (create, post, unpost, void, delete)
  - balance.go: Balance and ledger-view calculation from posted lines
  - statement.go: Trial balance, income statement, balance sheet, cash flow
  - period.go: Fiscal periods and the closing roll-forward
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE - Day-granularity time point
// =============================================================================

// Date is a calendar day in UTC. Journal entries are dated to the day;
// intra-day ordering is by entry number, then line number.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a "2006-01-02" date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }
func (d Date) IsZero() bool                  { return d.Time.IsZero() }

func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) Year() int          { return d.Time.Year() }

func (d Date) String() string { return d.normalize().Format("2006-01-02") }

// =============================================================================
// CHART OF ACCOUNTS
// =============================================================================

// AccountType classifies accounts. Contra types carry the opposite polarity
// of their base type (e.g. accumulated depreciation is a credit-balance asset).
type AccountType string

const (
	AccountAsset         AccountType = "asset"
	AccountLiability     AccountType = "liability"
	AccountEquity        AccountType = "equity"
	AccountRevenue       AccountType = "revenue"
	AccountExpense       AccountType = "expense"
	AccountContraAsset   AccountType = "contra_asset"
	AccountContraRevenue AccountType = "contra_revenue"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountAsset, AccountLiability, AccountEquity, AccountRevenue,
		AccountExpense, AccountContraAsset, AccountContraRevenue:
		return true
	}
	return false
}

// NormalBalance is the side on which an account conventionally increases.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "debit"
	NormalCredit NormalBalance = "credit"
)

// ConventionalBalance returns the polarity an account of this type must carry.
// Assets and expenses increase on the debit side; liabilities, equity, and
// revenue on the credit side; contra types invert their base type.
func (t AccountType) ConventionalBalance() NormalBalance {
	switch t {
	case AccountAsset, AccountExpense, AccountContraRevenue:
		return NormalDebit
	default:
		return NormalCredit
	}
}

// AccountSubtype refines an account type for statement bucketing.
type AccountSubtype string

const (
	SubtypeCash              AccountSubtype = "cash"
	SubtypeCurrentAsset      AccountSubtype = "current_asset"
	SubtypeFixedAsset        AccountSubtype = "fixed_asset"
	SubtypeOtherAsset        AccountSubtype = "other_asset"
	SubtypeCurrentLiability  AccountSubtype = "current_liability"
	SubtypeLongTermLiability AccountSubtype = "long_term_liability"
	SubtypeOwnerEquity       AccountSubtype = "owner_equity"
	SubtypePaidInCapital     AccountSubtype = "paid_in_capital"
	SubtypeRetainedEarnings  AccountSubtype = "retained_earnings"
	SubtypeOperatingRevenue  AccountSubtype = "operating_revenue"
	SubtypeOtherRevenue      AccountSubtype = "non_operating_revenue"
	SubtypeCOGS              AccountSubtype = "cogs"
	SubtypeOperatingExpense  AccountSubtype = "operating_expense"
)

// Valid reports whether st is a known subtype. The empty subtype is valid:
// statements fall back to type-level bucketing for accounts without one.
func (st AccountSubtype) Valid() bool {
	switch st {
	case "", SubtypeCash, SubtypeCurrentAsset, SubtypeFixedAsset, SubtypeOtherAsset,
		SubtypeCurrentLiability, SubtypeLongTermLiability,
		SubtypeOwnerEquity, SubtypePaidInCapital, SubtypeRetainedEarnings,
		SubtypeOperatingRevenue, SubtypeOtherRevenue,
		SubtypeCOGS, SubtypeOperatingExpense:
		return true
	}
	return false
}

// Account is one node in the chart-of-accounts forest. The parent link is a
// weak reference by ID; the tree is materialized by traversal, never stored
// as a recursive object graph.
type Account struct {
	ID            string
	Number        string // display code, unique per chart
	Name          string
	Type          AccountType
	Subtype       AccountSubtype
	NormalBalance NormalBalance
	ParentID      string // empty = top-level
	Description   string
	Active        bool
	CreatedAt     time.Time
}

// =============================================================================
// JOURNAL ENTRIES
// =============================================================================

// EntryStatus is the journal-entry lifecycle. A voided entry is, by
// construction, one that was posted first; the status enum makes the
// illegal "voided draft" combination unrepresentable.
type EntryStatus string

const (
	StatusDraft  EntryStatus = "draft"
	StatusPosted EntryStatus = "posted"
	StatusVoided EntryStatus = "voided"
)

// EntryType distinguishes ordinary activity from bookkeeping mechanics.
type EntryType string

const (
	EntryStandard  EntryType = "standard"
	EntryAdjusting EntryType = "adjusting"
	EntryClosing   EntryType = "closing"
	EntryReversing EntryType = "reversing"
)

// TransactionSource identifies the external producer that originated an entry.
type TransactionSource string

const (
	SourceSale       TransactionSource = "sale"
	SourcePurchase   TransactionSource = "purchase"
	SourceShipment   TransactionSource = "shipment"
	SourceReturn     TransactionSource = "return"
	SourceAdjustment TransactionSource = "adjustment"
	SourcePayroll    TransactionSource = "payroll"
	SourceOther      TransactionSource = "other"
)

// JournalLine is one debit or credit leg of an entry. Exactly one of
// Debit/Credit is nonzero; both are >= 0.
type JournalLine struct {
	EntryID     string
	LineNumber  int // deterministic ordering within the entry
	AccountID   string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// Amount returns the line's contribution signed per the given normal balance:
// positive always means "more of the normal balance".
func (l JournalLine) Amount(nb NormalBalance) decimal.Decimal {
	if nb == NormalDebit {
		return l.Debit.Sub(l.Credit)
	}
	return l.Credit.Sub(l.Debit)
}

// JournalEntry is one financial event with its legs. Lines are exclusively
// owned: deleting a draft entry deletes its lines; posted lines are immutable.
type JournalEntry struct {
	ID          string
	Number      string // e.g. "JE-2025-00042", unique per chart
	Date        Date
	Type        EntryType
	Source      TransactionSource
	SourceID    string // opaque back-reference to the producer record
	Description string
	CreatedBy   string
	Status      EntryStatus
	PostedAt    time.Time // zero unless posted or voided

	// Void linkage. Both sides stay visible for audit.
	VoidReason   string
	ReversesID   string // set on the generated reversing entry
	ReversedByID string // set on the voided original

	Lines     []JournalLine
	CreatedAt time.Time
}

// TotalDebits sums the debit side across all lines.
func (e JournalEntry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredits sums the credit side across all lines.
func (e JournalEntry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// Balanced reports whether debits equal credits exactly.
func (e JournalEntry) Balanced() bool {
	return e.TotalDebits().Equal(e.TotalCredits())
}

// =============================================================================
// FISCAL PERIODS AND RETAINED EARNINGS
// =============================================================================

// FiscalPeriod is a closed, non-overlapping date range. An entry's date must
// fall inside exactly one period, and entries cannot post into a closed one.
type FiscalPeriod struct {
	ID       string
	Name     string
	Start    Date
	End      Date
	Closed   bool
	ClosedAt time.Time
	ClosedBy string
}

// Contains reports whether d falls inside the period. Bounds are inclusive:
// an entry dated exactly on a boundary belongs to this period.
func (p FiscalPeriod) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Overlaps reports whether two periods share any day.
func (p FiscalPeriod) Overlaps(other FiscalPeriod) bool {
	return p.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(p.End)
}

// RetainedEarnings records the equity roll-forward produced when a period is
// closed. Written once at close time, never mutated.
type RetainedEarnings struct {
	ID               string
	PeriodID         string
	BeginningBalance decimal.Decimal
	NetIncome        decimal.Decimal
	Dividends        decimal.Decimal
	EndingBalance    decimal.Decimal
	CreatedAt        time.Time
}
