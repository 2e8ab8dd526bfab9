/*
balance.go - Balance computation and ledger views

PURPOSE:
  Answers "what is this account worth" and "what happened to this account"
  by folding posted journal lines. There is no stored balance anywhere:
  every figure is recomputed from rows on demand, so balances can never
  drift out of sync with the journal.

WHAT COUNTS:
  - Draft entries are invisible.
  - Posted entries count.
  - Voided originals still count: their reversing entry is also posted, and
    the pair cancels to zero. History stays intact either way.

SIGN CONVENTION:
  Balances are signed per the account's normal balance. A Cash (debit
  normal) balance of 100 means 100 more debits than credits; a Sales
  Revenue (credit normal) balance of 100 means 100 more credits. Positive
  always means "more of the normal balance".

ORDERING:
  Ledger views require a total order for running balances to be
  deterministic: rows sort by entry date, then entry number, then line
  number. The running balance is a pure fold over that sequence.
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// LedgerRow is one line in an account ledger view, annotated with the
// balance after applying it.
type LedgerRow struct {
	EntryID        string
	EntryNumber    string
	Date           Date
	EntryType      EntryType
	Source         TransactionSource
	LineNumber     int
	Description    string
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	RunningBalance decimal.Decimal
}

// AccountLedgerView is the ordered activity of one account over a range.
type AccountLedgerView struct {
	Account        Account
	From           Date
	To             Date
	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	Rows           []LedgerRow
}

// GeneralLedgerRow is one line of the cross-account ledger export.
type GeneralLedgerRow struct {
	EntryID       string
	EntryNumber   string
	Date          Date
	EntryType     EntryType
	Source        TransactionSource
	LineNumber    int
	AccountID     string
	AccountNumber string
	AccountName   string
	Description   string
	Debit         decimal.Decimal
	Credit        decimal.Decimal
}

// TrialBalanceRow buckets one account's balance into a debit or credit column.
type TrialBalanceRow struct {
	AccountID     string
	AccountNumber string
	AccountName   string
	AccountType   AccountType
	Debit         decimal.Decimal
	Credit        decimal.Decimal
}

// TrialBalance lists every account with activity. TotalDebits always equals
// TotalCredits on a consistent ledger; that equality is the point of the report.
type TrialBalance struct {
	AsOf         Date
	Rows         []TrialBalanceRow
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
}

// BalanceCalculator computes balances and ledger views from posted lines.
type BalanceCalculator struct {
	store Store
}

func NewBalanceCalculator(store Store) *BalanceCalculator {
	return &BalanceCalculator{store: store}
}

// AccountBalance returns the account's balance as of the end of asOf,
// signed per the account's normal balance.
func (c *BalanceCalculator) AccountBalance(ctx context.Context, accountID string, asOf Date) (decimal.Decimal, error) {
	account, err := c.store.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	lines, err := c.store.PostedLines(ctx, LineFilter{AccountID: accountID, To: asOf})
	if err != nil {
		return decimal.Zero, err
	}
	balance := decimal.Zero
	for _, l := range lines {
		balance = balance.Add(l.Amount(account.NormalBalance))
	}
	return balance, nil
}

// AccountLedger returns the account's activity in [from, to] with a running
// balance seeded from the balance the day before the range starts. The view
// is a pure function of stored data and can be recomputed at any time.
func (c *BalanceCalculator) AccountLedger(ctx context.Context, accountID string, from, to Date) (*AccountLedgerView, error) {
	if to.Before(from) {
		return nil, validationf("bad_range", "end date %s precedes start date %s", to, from)
	}
	account, err := c.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	opening, err := c.AccountBalance(ctx, accountID, from.AddDays(-1))
	if err != nil {
		return nil, err
	}
	lines, err := c.store.PostedLines(ctx, LineFilter{AccountID: accountID, From: from, To: to})
	if err != nil {
		return nil, err
	}

	view := &AccountLedgerView{
		Account:        *account,
		From:           from,
		To:             to,
		OpeningBalance: opening,
	}
	running := opening
	for _, l := range lines {
		running = running.Add(l.Amount(account.NormalBalance))
		view.Rows = append(view.Rows, LedgerRow{
			EntryID:        l.EntryID,
			EntryNumber:    l.EntryNumber,
			Date:           l.EntryDate,
			EntryType:      l.EntryType,
			Source:         l.Source,
			LineNumber:     l.LineNumber,
			Description:    l.Description,
			Debit:          l.Debit,
			Credit:         l.Credit,
			RunningBalance: running,
		})
	}
	view.ClosingBalance = running
	return view, nil
}

// GeneralLedger returns posted lines across all accounts for audit/export,
// annotated with account identity, in (date, entry number, line) order.
func (c *BalanceCalculator) GeneralLedger(ctx context.Context, f LineFilter) ([]GeneralLedgerRow, error) {
	lines, err := c.store.PostedLines(ctx, f)
	if err != nil {
		return nil, err
	}
	accounts, err := c.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	rows := make([]GeneralLedgerRow, 0, len(lines))
	for _, l := range lines {
		a := byID[l.AccountID]
		rows = append(rows, GeneralLedgerRow{
			EntryID:       l.EntryID,
			EntryNumber:   l.EntryNumber,
			Date:          l.EntryDate,
			EntryType:     l.EntryType,
			Source:        l.Source,
			LineNumber:    l.LineNumber,
			AccountID:     l.AccountID,
			AccountNumber: a.Number,
			AccountName:   a.Name,
			Description:   l.Description,
			Debit:         l.Debit,
			Credit:        l.Credit,
		})
	}
	return rows, nil
}

// ComputeTrialBalance lists every active account with posted activity as of
// the given date. Each balance lands in the column of its normal side; a
// balance that has gone negative lands in the opposite column, so the two
// column totals always agree on a consistent ledger.
func (c *BalanceCalculator) ComputeTrialBalance(ctx context.Context, asOf Date) (*TrialBalance, error) {
	accounts, err := c.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := c.store.PostedLines(ctx, LineFilter{To: asOf})
	if err != nil {
		return nil, err
	}

	type activity struct {
		balance decimal.Decimal
		touched bool
	}
	perAccount := make(map[string]*activity)
	byID := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
		perAccount[a.ID] = &activity{balance: decimal.Zero}
	}
	for _, l := range lines {
		act, ok := perAccount[l.AccountID]
		if !ok {
			continue
		}
		act.touched = true
		act.balance = act.balance.Add(l.Amount(byID[l.AccountID].NormalBalance))
	}

	tb := &TrialBalance{
		AsOf:         asOf,
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
	}
	for _, a := range accounts {
		act := perAccount[a.ID]
		// Deactivated accounts with history still appear: dropping them
		// would break the debit/credit column equality.
		if !act.touched {
			continue
		}
		row := TrialBalanceRow{
			AccountID:     a.ID,
			AccountNumber: a.Number,
			AccountName:   a.Name,
			AccountType:   a.Type,
			Debit:         decimal.Zero,
			Credit:        decimal.Zero,
		}
		column := a.NormalBalance
		amount := act.balance
		if amount.IsNegative() {
			amount = amount.Neg()
			if column == NormalDebit {
				column = NormalCredit
			} else {
				column = NormalDebit
			}
		}
		if column == NormalDebit {
			row.Debit = amount
		} else {
			row.Credit = amount
		}
		tb.Rows = append(tb.Rows, row)
		tb.TotalDebits = tb.TotalDebits.Add(row.Debit)
		tb.TotalCredits = tb.TotalCredits.Add(row.Credit)
	}
	return tb, nil
}

// periodBalance sums an account's signed activity within [from, to] only,
// ignoring anything outside the range. Closing entries are excluded: they
// are dated on the period's last day and zero the income accounts into
// retained earnings, so counting them would erase the very activity a
// period-scoped statement reports. Cumulative balances (AccountBalance,
// trial balance, current-year earnings) keep them, since their zeroing is
// the point there.
func (c *BalanceCalculator) periodBalance(ctx context.Context, account Account, from, to Date) (decimal.Decimal, error) {
	lines, err := c.store.PostedLines(ctx, LineFilter{
		AccountID:   account.ID,
		From:        from,
		To:          to,
		ExcludeType: EntryClosing,
	})
	if err != nil {
		return decimal.Zero, err
	}
	balance := decimal.Zero
	for _, l := range lines {
		balance = balance.Add(l.Amount(account.NormalBalance))
	}
	return balance, nil
}
