/*
journal.go - Journal entry lifecycle

PURPOSE:
  Creates, posts, unposts, voids, and deletes journal entries. This is the
  only component that writes financial events; everything downstream
  (balances, statements) is a pure function of what posting commits here.

STATE MACHINE:
  draft --Post--> posted --Void--> voided   (terminal)
    |               |
    +--Delete       +--Unpost--> draft      (only while the period is open)

  A voided entry is never mutated back to balance-neutrality: Void creates a
  linked reversing entry with every leg swapped, and both entries remain
  permanently visible. The pair nets to zero on every touched account.

CONCURRENCY:
  Post runs as a single storage transaction that re-checks the entry is
  still draft and its period still open, then flips the status with a
  compare-and-set. Two concurrent Post calls for the same entry yield
  exactly one success and one conflict. Retrying a timed-out Post is safe:
  either it already won (conflict on retry) or it lost nothing.

VALIDATION (all-or-nothing, before any write):
  - every line references an active account
  - exactly one of debit/credit nonzero per line, both >= 0, max 2 decimals
  - sum(debits) == sum(credits) exactly (decimal comparison, never floats)
  - entry date falls inside an open fiscal period
  - at least two lines
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LineRequest is one leg of an entry submission.
type LineRequest struct {
	AccountID   string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// EntryRequest is what external producers submit. Producers never construct
// posted state directly: entries land as drafts and are posted explicitly
// (or via the caller's auto-post policy).
type EntryRequest struct {
	Date        Date
	Type        EntryType
	Source      TransactionSource
	SourceID    string
	Description string
	CreatedBy   string
	Lines       []LineRequest
}

// JournalService drives the entry state machine.
type JournalService struct {
	store Store
}

func NewJournalService(store Store) *JournalService {
	return &JournalService{store: store}
}

// CreateEntry validates the request and persists it as a draft. Nothing is
// persisted when validation fails.
func (s *JournalService) CreateEntry(ctx context.Context, req EntryRequest) (*JournalEntry, error) {
	if len(req.Lines) < 2 {
		return nil, validationf("too_few_lines", "an entry needs at least two lines, got %d", len(req.Lines))
	}
	if req.Date.IsZero() {
		return nil, validationf("missing_date", "entry date is required")
	}

	entryType := req.Type
	if entryType == "" {
		entryType = EntryStandard
	}
	source := req.Source
	if source == "" {
		source = SourceOther
	}

	totalDebits := decimal.Zero
	totalCredits := decimal.Zero
	for i, l := range req.Lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return nil, validationf("negative_amount", "line %d: amounts must be >= 0", i+1)
		}
		hasDebit := !l.Debit.IsZero()
		hasCredit := !l.Credit.IsZero()
		if hasDebit == hasCredit {
			return nil, validationf("one_side_required",
				"line %d: exactly one of debit or credit must be nonzero", i+1)
		}
		if !l.Debit.Equal(l.Debit.Round(2)) || !l.Credit.Equal(l.Credit.Round(2)) {
			return nil, validationf("sub_cent_amount",
				"line %d: amounts cannot have more than 2 decimal places", i+1)
		}

		account, err := s.store.GetAccount(ctx, l.AccountID)
		if err != nil {
			if IsNotFound(err) {
				return nil, validationf("unknown_account", "line %d: account %s does not exist", i+1, l.AccountID)
			}
			return nil, err
		}
		if !account.Active {
			return nil, validationf("inactive_account",
				"line %d: account %s (%s) is inactive", i+1, account.Number, account.Name)
		}

		totalDebits = totalDebits.Add(l.Debit)
		totalCredits = totalCredits.Add(l.Credit)
	}

	if !totalDebits.Equal(totalCredits) {
		return nil, validationf("unbalanced", "debits (%s) must equal credits (%s)",
			totalDebits.StringFixed(2), totalCredits.StringFixed(2))
	}

	period, err := openPeriodFor(ctx, s.store, req.Date)
	if err != nil {
		return nil, err
	}
	if period.Closed {
		return nil, validationf("closed_period",
			"entry date %s falls in closed period %s", req.Date, period.Name)
	}

	entry := JournalEntry{
		ID:          NewID("je"),
		Date:        req.Date,
		Type:        entryType,
		Source:      source,
		SourceID:    req.SourceID,
		Description: req.Description,
		CreatedBy:   req.CreatedBy,
		Status:      StatusDraft,
		CreatedAt:   time.Now().UTC(),
	}
	for i, l := range req.Lines {
		entry.Lines = append(entry.Lines, JournalLine{
			EntryID:     entry.ID,
			LineNumber:  i + 1,
			AccountID:   l.AccountID,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
		})
	}

	// Sequence assignment and insert share a transaction so entry numbers
	// stay unique under concurrent creators.
	err = s.store.WithTx(ctx, func(tx Store) error {
		seq, err := tx.NextEntrySequence(ctx, req.Date.Year())
		if err != nil {
			return err
		}
		entry.Number = EntryNumber(req.Date.Year(), seq)
		return tx.InsertEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// CreateAndPost is the auto-post policy: the entry is validated, persisted,
// and posted in one call. On a post failure the entry remains as a draft.
func (s *JournalService) CreateAndPost(ctx context.Context, req EntryRequest) (*JournalEntry, error) {
	entry, err := s.CreateEntry(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.PostEntry(ctx, entry.ID); err != nil {
		return nil, err
	}
	return s.store.GetEntry(ctx, entry.ID)
}

// PostEntry commits a draft entry against the ledger. This is the only
// operation that makes an entry visible to balance and statement queries.
func (s *JournalService) PostEntry(ctx context.Context, id string) error {
	return s.store.WithTx(ctx, func(tx Store) error {
		entry, err := tx.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		switch entry.Status {
		case StatusPosted:
			return conflictf("already_posted", "entry %s is already posted", entry.Number)
		case StatusVoided:
			return conflictf("entry_voided", "entry %s has been voided", entry.Number)
		}

		period, err := openPeriodFor(ctx, tx, entry.Date)
		if err != nil {
			return err
		}
		if period.Closed {
			return conflictf("period_closed",
				"period %s closed after entry %s was drafted", period.Name, entry.Number)
		}

		ok, err := tx.MarkPosted(ctx, id, time.Now().UTC())
		if err != nil {
			return err
		}
		if !ok {
			// Lost a race with a concurrent poster.
			return conflictf("already_posted", "entry %s is already posted", entry.Number)
		}
		return nil
	})
}

// UnpostEntry reverts a posted entry to draft so it can be corrected before
// its period closes. Never allowed once the period is closed.
func (s *JournalService) UnpostEntry(ctx context.Context, id string) error {
	return s.store.WithTx(ctx, func(tx Store) error {
		entry, err := tx.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		switch entry.Status {
		case StatusDraft:
			return conflictf("not_posted", "entry %s is not posted", entry.Number)
		case StatusVoided:
			return conflictf("entry_voided", "entry %s has been voided", entry.Number)
		}

		period, err := openPeriodFor(ctx, tx, entry.Date)
		if err != nil {
			return err
		}
		if period.Closed {
			return conflictf("period_closed",
				"cannot unpost %s: period %s is closed", entry.Number, period.Name)
		}

		ok, err := tx.MarkUnposted(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return conflictf("not_posted", "entry %s is not posted", entry.Number)
		}
		return nil
	})
}

// VoidEntry voids a posted entry by generating a posted reversing entry with
// every leg's debit and credit swapped. Voiding never deletes data: both
// entries stay visible for audit, and their balance contributions cancel.
func (s *JournalService) VoidEntry(ctx context.Context, id, reason, actor string) (*JournalEntry, error) {
	if reason == "" {
		return nil, validationf("missing_reason", "a void reason is required")
	}

	var reversing JournalEntry
	err := s.store.WithTx(ctx, func(tx Store) error {
		entry, err := tx.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		switch entry.Status {
		case StatusDraft:
			return conflictf("not_posted", "entry %s is a draft; delete it instead", entry.Number)
		case StatusVoided:
			return conflictf("already_voided", "entry %s is already voided", entry.Number)
		}

		// The reversing entry posts on the original date, so its period must
		// still be open. Closed-period corrections are adjusting entries in
		// the next period, not voids.
		period, err := openPeriodFor(ctx, tx, entry.Date)
		if err != nil {
			return err
		}
		if period.Closed {
			return conflictf("period_closed",
				"cannot void %s: period %s is closed", entry.Number, period.Name)
		}

		now := time.Now().UTC()
		reversing = JournalEntry{
			ID:          NewID("je"),
			Date:        entry.Date,
			Type:        EntryReversing,
			Source:      entry.Source,
			SourceID:    entry.SourceID,
			Description: "Reversal of " + entry.Number + ": " + reason,
			CreatedBy:   actor,
			Status:      StatusPosted,
			PostedAt:    now,
			ReversesID:  entry.ID,
			CreatedAt:   now,
		}
		for _, l := range entry.Lines {
			reversing.Lines = append(reversing.Lines, JournalLine{
				EntryID:     reversing.ID,
				LineNumber:  l.LineNumber,
				AccountID:   l.AccountID,
				Debit:       l.Credit, // swapped
				Credit:      l.Debit,
				Description: l.Description,
			})
		}

		seq, err := tx.NextEntrySequence(ctx, reversing.Date.Year())
		if err != nil {
			return err
		}
		reversing.Number = EntryNumber(reversing.Date.Year(), seq)

		if err := tx.InsertEntry(ctx, reversing); err != nil {
			return err
		}
		ok, err := tx.MarkVoided(ctx, entry.ID, reason, reversing.ID)
		if err != nil {
			return err
		}
		if !ok {
			return conflictf("already_voided", "entry %s is already voided", entry.Number)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reversing, nil
}

// DeleteEntry removes a draft entry and its lines. Posted and voided entries
// are immutable and can never be deleted.
func (s *JournalService) DeleteEntry(ctx context.Context, id string) error {
	return s.store.WithTx(ctx, func(tx Store) error {
		entry, err := tx.GetEntry(ctx, id)
		if err != nil {
			return err
		}
		if entry.Status != StatusDraft {
			return conflictf("entry_posted",
				"entry %s is %s; only drafts can be deleted", entry.Number, entry.Status)
		}
		return tx.DeleteEntry(ctx, id)
	})
}

// GetEntry returns an entry with its lines.
func (s *JournalService) GetEntry(ctx context.Context, id string) (*JournalEntry, error) {
	return s.store.GetEntry(ctx, id)
}

// ListEntries returns entries matching the filter.
func (s *JournalService) ListEntries(ctx context.Context, f EntryFilter) ([]JournalEntry, error) {
	return s.store.ListEntries(ctx, f)
}

// openPeriodFor finds the fiscal period containing d. Periods are
// non-overlapping, so at most one matches.
func openPeriodFor(ctx context.Context, store Store, d Date) (*FiscalPeriod, error) {
	periods, err := store.ListPeriods(ctx)
	if err != nil {
		return nil, err
	}
	for i := range periods {
		if periods[i].Contains(d) {
			return &periods[i], nil
		}
	}
	return nil, validationf("no_period", "no fiscal period contains %s", d)
}
