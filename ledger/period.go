/*
period.go - Fiscal periods and period closing

PURPOSE:
  Maintains the non-overlapping fiscal calendar and performs the one
  irreversible bookkeeping ceremony: closing a period. Closing computes the
  period's net income, posts a closing entry that zeroes every revenue and
  expense account into retained earnings, records the retained-earnings
  roll-forward, and locks the period — atomically.

CLOSING IS ALL-OR-NOTHING:
  The closing entry, the RetainedEarnings record, and the closed flag are
  written inside one storage transaction. The closed flag flips last with a
  compare-and-set, so two concurrent closes of the same period yield one
  success and one conflict, and no entry can slip into the period mid-close.

CLOSING ORDER:
  Periods close oldest-first. Closing a period while an earlier one is
  still open is a conflict: the roll-forward chain would have no beginning
  balance to start from.

THERE IS NO REOPEN:
  A closed period stays closed. Corrections to a closed period are adjusting
  entries dated in a later open period.
*/
package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodService manages fiscal periods and closing.
type PeriodService struct {
	store Store
}

func NewPeriodService(store Store) *PeriodService {
	return &PeriodService{store: store}
}

// CreatePeriod registers a new fiscal period, rejecting any overlap with an
// existing one.
func (s *PeriodService) CreatePeriod(ctx context.Context, name string, start, end Date) (*FiscalPeriod, error) {
	if name == "" {
		return nil, validationf("missing_name", "period name is required")
	}
	if end.Before(start) {
		return nil, validationf("bad_range", "period end %s precedes start %s", end, start)
	}

	candidate := FiscalPeriod{
		ID:    NewID("fp"),
		Name:  name,
		Start: start,
		End:   end,
	}

	existing, err := s.store.ListPeriods(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range existing {
		if candidate.Overlaps(p) {
			return nil, validationf("period_overlap",
				"period %s..%s overlaps existing period %s", start, end, p.Name)
		}
	}

	if err := s.store.InsertPeriod(ctx, candidate); err != nil {
		return nil, err
	}
	return &candidate, nil
}

// GetPeriod returns a period by ID.
func (s *PeriodService) GetPeriod(ctx context.Context, id string) (*FiscalPeriod, error) {
	return s.store.GetPeriod(ctx, id)
}

// ListPeriods returns all periods ordered by start date.
func (s *PeriodService) ListPeriods(ctx context.Context) ([]FiscalPeriod, error) {
	return s.store.ListPeriods(ctx)
}

// PeriodFor returns the period containing d, or ErrPeriodNotFound.
func (s *PeriodService) PeriodFor(ctx context.Context, d Date) (*FiscalPeriod, error) {
	periods, err := s.store.ListPeriods(ctx)
	if err != nil {
		return nil, err
	}
	for i := range periods {
		if periods[i].Contains(d) {
			return &periods[i], nil
		}
	}
	return nil, ErrPeriodNotFound
}

// RetainedEarningsFor returns the roll-forward record written when the period
// closed, or nil if the period is still open.
func (s *PeriodService) RetainedEarningsFor(ctx context.Context, periodID string) (*RetainedEarnings, error) {
	return s.store.GetRetainedEarnings(ctx, periodID)
}

// ClosePeriod closes a fiscal period. Fails with a conflict while draft
// entries remain dated inside the period, or if the period is already closed.
func (s *PeriodService) ClosePeriod(ctx context.Context, periodID string, dividends decimal.Decimal, actor string) (*RetainedEarnings, error) {
	if dividends.IsNegative() {
		return nil, validationf("negative_dividends", "dividends must be >= 0")
	}

	var result RetainedEarnings
	err := s.store.WithTx(ctx, func(tx Store) error {
		period, err := tx.GetPeriod(ctx, periodID)
		if err != nil {
			return err
		}
		if period.Closed {
			return conflictf("already_closed", "period %s is already closed", period.Name)
		}

		// Periods close in calendar order. An earlier open period still holds
		// un-rolled earnings, so closing past it would start this period's
		// roll-forward from a number that does not exist yet.
		all, err := tx.ListPeriods(ctx)
		if err != nil {
			return err
		}
		for _, p := range all {
			if p.End.Before(period.Start) && !p.Closed {
				return conflictf("prior_period_open",
					"period %s must be closed before %s", p.Name, period.Name)
			}
		}

		drafts, err := tx.CountDrafts(ctx, period.Start, period.End)
		if err != nil {
			return err
		}
		if drafts > 0 {
			return conflictf("drafts_remain",
				"%d draft entries dated in %s must be posted or deleted first", drafts, period.Name)
		}

		// Statement math runs against the same transaction so the close sees
		// a frozen view of the ledger.
		balances := NewBalanceCalculator(tx)
		statements := NewStatementGenerator(tx, balances)
		income, err := statements.IncomeStatement(ctx, period.Start, period.End)
		if err != nil {
			return err
		}

		if err := s.postClosingEntry(ctx, tx, balances, *period, income.NetIncome, actor); err != nil {
			return err
		}

		beginning, err := s.priorEndingBalance(ctx, tx, *period)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		result = RetainedEarnings{
			ID:               NewID("re"),
			PeriodID:         period.ID,
			BeginningBalance: beginning,
			NetIncome:        income.NetIncome,
			Dividends:        dividends,
			EndingBalance:    beginning.Add(income.NetIncome).Sub(dividends),
			CreatedAt:        now,
		}
		if err := tx.InsertRetainedEarnings(ctx, result); err != nil {
			return err
		}

		ok, err := tx.MarkPeriodClosed(ctx, periodID, now, actor)
		if err != nil {
			return err
		}
		if !ok {
			return conflictf("already_closed", "period %s is already closed", period.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// postClosingEntry builds and posts the entry that zeroes every revenue,
// contra-revenue, and expense balance into retained earnings. When no
// income-statement account carries a balance there is nothing to close and
// no entry is written.
func (s *PeriodService) postClosingEntry(ctx context.Context, tx Store, balances *BalanceCalculator, period FiscalPeriod, netIncome decimal.Decimal, actor string) error {
	accounts, err := tx.ListAccounts(ctx)
	if err != nil {
		return err
	}

	var retained *Account
	for i := range accounts {
		if accounts[i].Subtype == SubtypeRetainedEarnings && accounts[i].Active {
			retained = &accounts[i]
			break
		}
	}
	if retained == nil {
		return validationf("no_retained_earnings_account",
			"the chart has no active retained-earnings account to close into")
	}

	var lines []JournalLine
	for _, a := range accounts {
		switch a.Type {
		case AccountRevenue, AccountContraRevenue, AccountExpense:
		default:
			continue
		}
		balance, err := balances.AccountBalance(ctx, a.ID, period.End)
		if err != nil {
			return err
		}
		if balance.IsZero() {
			continue
		}
		// Zeroing puts the amount on the side opposite the account's current
		// position. A positive balance sits on the normal side.
		line := JournalLine{AccountID: a.ID, Description: "Close " + a.Name}
		onNormal := balance.IsNegative()
		amount := balance.Abs()
		side := a.NormalBalance
		if !onNormal {
			if side == NormalDebit {
				side = NormalCredit
			} else {
				side = NormalDebit
			}
		}
		if side == NormalDebit {
			line.Debit = amount
		} else {
			line.Credit = amount
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil
	}

	// Balance the entry into retained earnings: income credits, loss debits.
	reLine := JournalLine{AccountID: retained.ID, Description: "Net income for " + period.Name}
	switch {
	case netIncome.IsPositive():
		reLine.Credit = netIncome
	case netIncome.IsNegative():
		reLine.Debit = netIncome.Neg()
	}
	if !netIncome.IsZero() {
		lines = append(lines, reLine)
	}

	now := time.Now().UTC()
	entry := JournalEntry{
		ID:          NewID("je"),
		Date:        period.End,
		Type:        EntryClosing,
		Source:      SourceOther,
		Description: "Closing entry for " + period.Name,
		CreatedBy:   actor,
		Status:      StatusPosted,
		PostedAt:    now,
		CreatedAt:   now,
	}
	for i := range lines {
		lines[i].EntryID = entry.ID
		lines[i].LineNumber = i + 1
	}
	entry.Lines = lines

	if !entry.Balanced() {
		// Income-statement balances disagree with the computed net income:
		// the ledger itself is inconsistent. Refuse to write a broken close.
		return conflictf("close_imbalanced",
			"closing entry for %s does not balance (debits %s, credits %s)",
			period.Name, entry.TotalDebits().StringFixed(2), entry.TotalCredits().StringFixed(2))
	}

	seq, err := tx.NextEntrySequence(ctx, entry.Date.Year())
	if err != nil {
		return err
	}
	entry.Number = EntryNumber(entry.Date.Year(), seq)
	return tx.InsertEntry(ctx, entry)
}

// priorEndingBalance finds the retained-earnings ending balance of the latest
// period preceding this one. The close-in-order rule guarantees every
// preceding period is already closed, so the only zero fallback left is the
// very first period.
func (s *PeriodService) priorEndingBalance(ctx context.Context, tx Store, period FiscalPeriod) (decimal.Decimal, error) {
	periods, err := tx.ListPeriods(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Start.Before(periods[j].Start) })

	var prior *FiscalPeriod
	for i := range periods {
		if periods[i].End.Before(period.Start) {
			prior = &periods[i]
		}
	}
	if prior == nil {
		return decimal.Zero, nil
	}
	re, err := tx.GetRetainedEarnings(ctx, prior.ID)
	if err != nil {
		return decimal.Zero, err
	}
	if re == nil {
		return decimal.Zero, nil
	}
	return re.EndingBalance, nil
}
