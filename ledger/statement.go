/*
statement.go - Financial statement generation

PURPOSE:
  Assembles the Trial Balance (see balance.go), Income Statement, Balance
  Sheet, and Cash Flow Statement from posted lines. Statements are pure
  derivations: no statement run persists anything.

SECTIONS AND SIGNS:
  Every statement line carries the account balance signed per the account's
  normal side, except contra accounts, which appear negated inside their
  base section (sales returns show as negative revenue, accumulated
  depreciation as negative fixed assets). Section totals are then plain sums
  of their lines.

RECONCILIATION IS A SIGNAL, NOT A CRASH:
  A balance sheet that does not balance, or a cash flow whose derived ending
  cash disagrees with the actual cash-account balance, indicates corrupted
  ledger data. The statement is still returned, with Balances/Reconciled set
  false and the exact discrepancy amount, so a human can be alerted. Hiding
  the statement would hide the corruption.

CURRENT-YEAR EARNINGS:
  The balance sheet's equity section includes earnings that have not yet
  been closed into retained earnings. Because closing entries zero the
  revenue and expense accounts, the cumulative revenue-minus-expense balance
  as of the statement date is exactly the un-closed earnings, which keeps
  assets == liabilities + equity as a structural identity.
*/
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// balanceEpsilon is the tolerance for the balance-sheet and cash-flow
// reconciliation checks, in currency units.
var balanceEpsilon = decimal.NewFromFloat(0.005)

// StatementLine is one account row on a statement.
type StatementLine struct {
	AccountID        string
	AccountNumber    string
	AccountName      string
	Subtype          AccountSubtype
	Balance          decimal.Decimal
	PercentOfRevenue decimal.Decimal // income statement only; 0 when revenue is 0
}

// StatementSection groups lines under a total.
type StatementSection struct {
	Lines []StatementLine
	Total decimal.Decimal
}

func (s *StatementSection) add(l StatementLine) {
	s.Lines = append(s.Lines, l)
	s.Total = s.Total.Add(l.Balance)
}

// =============================================================================
// INCOME STATEMENT
// =============================================================================

// IncomeStatement reports profitability over [From, To]. Contra-revenue lines
// appear negated in the Revenue section, so TotalRevenue is net revenue.
type IncomeStatement struct {
	From Date
	To   Date

	Revenue  StatementSection
	COGS     StatementSection
	Expenses StatementSection

	TotalRevenue  decimal.Decimal
	TotalCOGS     decimal.Decimal
	GrossProfit   decimal.Decimal
	TotalExpenses decimal.Decimal
	NetIncome     decimal.Decimal
}

// =============================================================================
// BALANCE SHEET
// =============================================================================

// BalanceSheet reports financial position as of a date. Balances is the hard
// correctness check: total assets equal total liabilities plus equity within
// balanceEpsilon. When false, Imbalance carries the exact difference.
type BalanceSheet struct {
	AsOf Date

	CurrentAssets StatementSection
	FixedAssets   StatementSection
	OtherAssets   StatementSection
	TotalAssets   decimal.Decimal

	CurrentLiabilities  StatementSection
	LongTermLiabilities StatementSection
	TotalLiabilities    decimal.Decimal

	Equity              StatementSection
	CurrentYearEarnings decimal.Decimal
	TotalEquity         decimal.Decimal

	Balances  bool
	Imbalance decimal.Decimal
}

// =============================================================================
// CASH FLOW STATEMENT (indirect method)
// =============================================================================

// CashFlowStatement derives cash movement over [From, To] from net income and
// balance deltas. Reconciled is false when the derived ending cash disagrees
// with the actual cash-account balance; Discrepancy carries the difference.
type CashFlowStatement struct {
	From Date
	To   Date

	NetIncome decimal.Decimal

	// Operating adjustments (working-capital deltas and non-cash add-backs).
	// Total includes NetIncome.
	Operating StatementSection
	Investing StatementSection
	Financing StatementSection

	NetChangeInCash decimal.Decimal
	BeginningCash   decimal.Decimal
	EndingCash      decimal.Decimal
	ActualCash      decimal.Decimal
	Discrepancy     decimal.Decimal
	Reconciled      bool
}

// =============================================================================
// COMPARATIVE REPORTING
// =============================================================================

// ComparativeTotal compares one statement total across two runs.
// VariancePercent is nil when the prior total is zero: variance against
// nothing is undefined, never a division.
type ComparativeTotal struct {
	Label           string
	Current         decimal.Decimal
	Prior           decimal.Decimal
	Variance        decimal.Decimal
	VariancePercent *decimal.Decimal
}

func compare(label string, current, prior decimal.Decimal) ComparativeTotal {
	ct := ComparativeTotal{
		Label:    label,
		Current:  current,
		Prior:    prior,
		Variance: current.Sub(prior),
	}
	if !prior.IsZero() {
		pct := ct.Variance.Div(prior.Abs()).Mul(decimal.NewFromInt(100)).Round(2)
		ct.VariancePercent = &pct
	}
	return ct
}

// ComparativeIncomeStatement pairs two income statement runs with variances.
type ComparativeIncomeStatement struct {
	Current *IncomeStatement
	Prior   *IncomeStatement
	Totals  []ComparativeTotal
}

// ComparativeBalanceSheet pairs two balance sheet runs with variances.
type ComparativeBalanceSheet struct {
	Current *BalanceSheet
	Prior   *BalanceSheet
	Totals  []ComparativeTotal
}

// ComparativeCashFlow pairs two cash flow runs with variances.
type ComparativeCashFlow struct {
	Current *CashFlowStatement
	Prior   *CashFlowStatement
	Totals  []ComparativeTotal
}

// =============================================================================
// GENERATOR
// =============================================================================

// StatementGenerator assembles statements from the balance calculator.
type StatementGenerator struct {
	store    Store
	balances *BalanceCalculator
}

func NewStatementGenerator(store Store, balances *BalanceCalculator) *StatementGenerator {
	return &StatementGenerator{store: store, balances: balances}
}

// IncomeStatement computes net income over [from, to].
func (g *StatementGenerator) IncomeStatement(ctx context.Context, from, to Date) (*IncomeStatement, error) {
	if to.Before(from) {
		return nil, validationf("bad_range", "end date %s precedes start date %s", to, from)
	}
	accounts, err := g.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	stmt := &IncomeStatement{From: from, To: to}
	for _, a := range accounts {
		switch a.Type {
		case AccountRevenue, AccountContraRevenue, AccountExpense:
		default:
			continue
		}
		balance, err := g.balances.periodBalance(ctx, a, from, to)
		if err != nil {
			return nil, err
		}
		if balance.IsZero() {
			continue
		}
		line := StatementLine{
			AccountID:     a.ID,
			AccountNumber: a.Number,
			AccountName:   a.Name,
			Subtype:       a.Subtype,
			Balance:       balance,
		}
		switch {
		case a.Type == AccountContraRevenue:
			line.Balance = balance.Neg() // shown as a reduction of revenue
			stmt.Revenue.add(line)
		case a.Type == AccountRevenue:
			stmt.Revenue.add(line)
		case a.Subtype == SubtypeCOGS:
			stmt.COGS.add(line)
		default:
			stmt.Expenses.add(line)
		}
	}

	stmt.TotalRevenue = stmt.Revenue.Total
	stmt.TotalCOGS = stmt.COGS.Total
	stmt.GrossProfit = stmt.TotalRevenue.Sub(stmt.TotalCOGS)
	stmt.TotalExpenses = stmt.Expenses.Total
	stmt.NetIncome = stmt.GrossProfit.Sub(stmt.TotalExpenses)

	// Percent-of-revenue annotations. Zero revenue means zero percentages,
	// never a division.
	if !stmt.TotalRevenue.IsZero() {
		hundred := decimal.NewFromInt(100)
		annotate := func(section *StatementSection) {
			for i := range section.Lines {
				section.Lines[i].PercentOfRevenue =
					section.Lines[i].Balance.Div(stmt.TotalRevenue).Mul(hundred).Round(2)
			}
		}
		annotate(&stmt.Revenue)
		annotate(&stmt.COGS)
		annotate(&stmt.Expenses)
	}
	return stmt, nil
}

// BalanceSheet computes financial position as of a date.
func (g *StatementGenerator) BalanceSheet(ctx context.Context, asOf Date) (*BalanceSheet, error) {
	accounts, err := g.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	bs := &BalanceSheet{AsOf: asOf}
	for _, a := range accounts {
		switch a.Type {
		case AccountAsset, AccountContraAsset, AccountLiability, AccountEquity:
		default:
			continue
		}
		balance, err := g.balances.AccountBalance(ctx, a.ID, asOf)
		if err != nil {
			return nil, err
		}
		if balance.IsZero() {
			continue
		}
		line := StatementLine{
			AccountID:     a.ID,
			AccountNumber: a.Number,
			AccountName:   a.Name,
			Subtype:       a.Subtype,
			Balance:       balance,
		}

		switch a.Type {
		case AccountAsset, AccountContraAsset:
			if a.Type == AccountContraAsset {
				line.Balance = balance.Neg() // reduces its asset bucket
			}
			switch a.Subtype {
			case SubtypeCash, SubtypeCurrentAsset:
				bs.CurrentAssets.add(line)
			case SubtypeFixedAsset:
				bs.FixedAssets.add(line)
			default:
				bs.OtherAssets.add(line)
			}
		case AccountLiability:
			if a.Subtype == SubtypeLongTermLiability {
				bs.LongTermLiabilities.add(line)
			} else {
				bs.CurrentLiabilities.add(line)
			}
		case AccountEquity:
			bs.Equity.add(line)
		}
	}

	cye, err := g.currentYearEarnings(ctx, asOf)
	if err != nil {
		return nil, err
	}
	bs.CurrentYearEarnings = cye

	bs.TotalAssets = bs.CurrentAssets.Total.Add(bs.FixedAssets.Total).Add(bs.OtherAssets.Total)
	bs.TotalLiabilities = bs.CurrentLiabilities.Total.Add(bs.LongTermLiabilities.Total)
	bs.TotalEquity = bs.Equity.Total.Add(bs.CurrentYearEarnings)

	bs.Imbalance = bs.TotalAssets.Sub(bs.TotalLiabilities.Add(bs.TotalEquity))
	bs.Balances = bs.Imbalance.Abs().LessThanOrEqual(balanceEpsilon)
	return bs, nil
}

// currentYearEarnings is the cumulative net of all revenue, contra-revenue,
// and expense balances through asOf. Posted closing entries zero those
// accounts, so this is exactly the earnings not yet rolled into retained
// earnings.
func (g *StatementGenerator) currentYearEarnings(ctx context.Context, asOf Date) (decimal.Decimal, error) {
	accounts, err := g.store.ListAccounts(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	earnings := decimal.Zero
	for _, a := range accounts {
		switch a.Type {
		case AccountRevenue, AccountExpense, AccountContraRevenue:
		default:
			continue
		}
		balance, err := g.balances.AccountBalance(ctx, a.ID, asOf)
		if err != nil {
			return decimal.Zero, err
		}
		switch a.Type {
		case AccountRevenue:
			earnings = earnings.Add(balance)
		case AccountContraRevenue, AccountExpense:
			earnings = earnings.Sub(balance)
		}
	}
	return earnings, nil
}

// CashFlow derives cash movement over [from, to] with the indirect method.
func (g *StatementGenerator) CashFlow(ctx context.Context, from, to Date) (*CashFlowStatement, error) {
	if to.Before(from) {
		return nil, validationf("bad_range", "end date %s precedes start date %s", to, from)
	}
	income, err := g.IncomeStatement(ctx, from, to)
	if err != nil {
		return nil, err
	}
	accounts, err := g.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	cf := &CashFlowStatement{From: from, To: to, NetIncome: income.NetIncome}
	before := from.AddDays(-1)

	beginningCash := decimal.Zero
	actualCash := decimal.Zero

	for _, a := range accounts {
		start, err := g.balances.AccountBalance(ctx, a.ID, before)
		if err != nil {
			return nil, err
		}
		end, err := g.balances.AccountBalance(ctx, a.ID, to)
		if err != nil {
			return nil, err
		}
		delta := end.Sub(start)

		if a.Subtype == SubtypeCash {
			beginningCash = beginningCash.Add(start)
			actualCash = actualCash.Add(end)
			continue
		}
		if delta.IsZero() {
			continue
		}

		line := StatementLine{
			AccountID:     a.ID,
			AccountNumber: a.Number,
			AccountName:   a.Name,
			Subtype:       a.Subtype,
		}
		switch {
		case a.Type == AccountContraAsset:
			// Depreciation and similar non-cash charges add back.
			line.Balance = delta
			cf.Operating.add(line)
		case a.Type == AccountAsset && (a.Subtype == SubtypeCurrentAsset || a.Subtype == SubtypeOtherAsset):
			// Growth in receivables/inventory consumes cash.
			line.Balance = delta.Neg()
			cf.Operating.add(line)
		case a.Type == AccountAsset && a.Subtype == SubtypeFixedAsset:
			// Asset purchases consume cash; disposals free it.
			line.Balance = delta.Neg()
			cf.Investing.add(line)
		case a.Type == AccountLiability && a.Subtype == SubtypeLongTermLiability:
			line.Balance = delta
			cf.Financing.add(line)
		case a.Type == AccountLiability:
			// Growth in payables defers cash outflow.
			line.Balance = delta
			cf.Operating.add(line)
		case a.Type == AccountEquity && a.Subtype != SubtypeRetainedEarnings:
			// Retained-earnings movement is the closing roll-forward of net
			// income, already counted in operating.
			line.Balance = delta
			cf.Financing.add(line)
		}
	}

	cf.Operating.Total = cf.Operating.Total.Add(cf.NetIncome)
	cf.NetChangeInCash = cf.Operating.Total.Add(cf.Investing.Total).Add(cf.Financing.Total)
	cf.BeginningCash = beginningCash
	cf.EndingCash = beginningCash.Add(cf.NetChangeInCash)
	cf.ActualCash = actualCash
	cf.Discrepancy = actualCash.Sub(cf.EndingCash)
	cf.Reconciled = cf.Discrepancy.Abs().LessThanOrEqual(balanceEpsilon)
	return cf, nil
}

// ComparativeIncomeStatement runs the income statement for two periods and
// reports per-total variances.
func (g *StatementGenerator) ComparativeIncomeStatement(ctx context.Context, currentFrom, currentTo, priorFrom, priorTo Date) (*ComparativeIncomeStatement, error) {
	current, err := g.IncomeStatement(ctx, currentFrom, currentTo)
	if err != nil {
		return nil, err
	}
	prior, err := g.IncomeStatement(ctx, priorFrom, priorTo)
	if err != nil {
		return nil, err
	}
	return &ComparativeIncomeStatement{
		Current: current,
		Prior:   prior,
		Totals: []ComparativeTotal{
			compare("total_revenue", current.TotalRevenue, prior.TotalRevenue),
			compare("total_cogs", current.TotalCOGS, prior.TotalCOGS),
			compare("gross_profit", current.GrossProfit, prior.GrossProfit),
			compare("total_expenses", current.TotalExpenses, prior.TotalExpenses),
			compare("net_income", current.NetIncome, prior.NetIncome),
		},
	}, nil
}

// ComparativeBalanceSheet runs the balance sheet at two dates.
func (g *StatementGenerator) ComparativeBalanceSheet(ctx context.Context, current, prior Date) (*ComparativeBalanceSheet, error) {
	cur, err := g.BalanceSheet(ctx, current)
	if err != nil {
		return nil, err
	}
	prev, err := g.BalanceSheet(ctx, prior)
	if err != nil {
		return nil, err
	}
	return &ComparativeBalanceSheet{
		Current: cur,
		Prior:   prev,
		Totals: []ComparativeTotal{
			compare("total_assets", cur.TotalAssets, prev.TotalAssets),
			compare("total_liabilities", cur.TotalLiabilities, prev.TotalLiabilities),
			compare("total_equity", cur.TotalEquity, prev.TotalEquity),
		},
	}, nil
}

// ComparativeCashFlow runs the cash flow statement for two ranges.
func (g *StatementGenerator) ComparativeCashFlow(ctx context.Context, currentFrom, currentTo, priorFrom, priorTo Date) (*ComparativeCashFlow, error) {
	current, err := g.CashFlow(ctx, currentFrom, currentTo)
	if err != nil {
		return nil, err
	}
	prior, err := g.CashFlow(ctx, priorFrom, priorTo)
	if err != nil {
		return nil, err
	}
	return &ComparativeCashFlow{
		Current: current,
		Prior:   prior,
		Totals: []ComparativeTotal{
			compare("operating", current.Operating.Total, prior.Operating.Total),
			compare("investing", current.Investing.Total, prior.Investing.Total),
			compare("financing", current.Financing.Total, prior.Financing.Total),
			compare("net_change_in_cash", current.NetChangeInCash, prior.NetChangeInCash),
		},
	}, nil
}

// TrialBalance exposes the trial balance through the statement surface.
func (g *StatementGenerator) TrialBalance(ctx context.Context, asOf Date) (*TrialBalance, error) {
	return g.balances.ComputeTrialBalance(ctx, asOf)
}
