package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-engine/ledger"
)

// seedMarchActivity posts a small but complete month of retail activity:
//
//	Owner funds the business:   Cash 1000.00   / Owner's Capital 1000.00
//	Stock purchase on account:  Inventory 400.00 / AP 400.00
//	Cash sale:                  Cash 300.00    / Sales Revenue 300.00
//	COGS for the sale:          COGS 120.00    / Inventory 120.00
//	A return:                   Sales Returns 50.00 / Cash 50.00
//	Rent paid:                  Rent 80.00     / Cash 80.00
func seedMarchActivity(t *testing.T, engine *ledger.Engine) {
	t.Helper()
	ctx := context.Background()

	post := func(d ledger.Date, lines []ledger.LineRequest) {
		t.Helper()
		_, err := engine.Journal.CreateAndPost(ctx, ledger.EntryRequest{Date: d, Lines: lines})
		require.NoError(t, err)
	}
	id := func(number string) string { return mustAccount(t, engine, number).ID }

	post(date(2025, 3, 1), []ledger.LineRequest{
		{AccountID: id("1000"), Debit: dec("1000.00")},
		{AccountID: id("3000"), Credit: dec("1000.00")},
	})
	post(date(2025, 3, 2), []ledger.LineRequest{
		{AccountID: id("1200"), Debit: dec("400.00")},
		{AccountID: id("2000"), Credit: dec("400.00")},
	})
	post(date(2025, 3, 10), []ledger.LineRequest{
		{AccountID: id("1000"), Debit: dec("300.00")},
		{AccountID: id("4000"), Credit: dec("300.00")},
	})
	post(date(2025, 3, 10), []ledger.LineRequest{
		{AccountID: id("5000"), Debit: dec("120.00")},
		{AccountID: id("1200"), Credit: dec("120.00")},
	})
	post(date(2025, 3, 15), []ledger.LineRequest{
		{AccountID: id("4100"), Debit: dec("50.00")},
		{AccountID: id("1000"), Credit: dec("50.00")},
	})
	post(date(2025, 3, 20), []ledger.LineRequest{
		{AccountID: id("6100"), Debit: dec("80.00")},
		{AccountID: id("1000"), Credit: dec("80.00")},
	})
}

// =============================================================================
// INCOME STATEMENT
// =============================================================================

func TestStatementGenerator_IncomeStatement_ContraRevenueNetsAgainstRevenue(t *testing.T) {
	engine := newSeededEngine(t)
	seedMarchActivity(t, engine)

	stmt, err := engine.Statements.IncomeStatement(context.Background(),
		date(2025, 3, 1), date(2025, 3, 31))
	require.NoError(t, err)

	// Revenue 300 less returns 50.
	assert.True(t, stmt.TotalRevenue.Equal(dec("250.00")))
	assert.True(t, stmt.TotalCOGS.Equal(dec("120.00")))
	assert.True(t, stmt.GrossProfit.Equal(dec("130.00")))
	assert.True(t, stmt.TotalExpenses.Equal(dec("80.00")))
	assert.True(t, stmt.NetIncome.Equal(dec("50.00")))

	// The returns line shows negative inside the revenue section.
	var returns *ledger.StatementLine
	for i := range stmt.Revenue.Lines {
		if stmt.Revenue.Lines[i].AccountNumber == "4100" {
			returns = &stmt.Revenue.Lines[i]
		}
	}
	require.NotNil(t, returns)
	assert.True(t, returns.Balance.Equal(dec("-50.00")))
}

func TestStatementGenerator_IncomeStatement_PercentOfRevenue(t *testing.T) {
	engine := newSeededEngine(t)
	seedMarchActivity(t, engine)

	stmt, err := engine.Statements.IncomeStatement(context.Background(),
		date(2025, 3, 1), date(2025, 3, 31))
	require.NoError(t, err)

	for _, l := range stmt.COGS.Lines {
		// 120 / 250 = 48%.
		assert.True(t, l.PercentOfRevenue.Equal(dec("48")),
			"got %s", l.PercentOfRevenue)
	}
}

func TestStatementGenerator_IncomeStatement_RangeScoped(t *testing.T) {
	// Activity outside [from, to] is invisible to the income statement.
	engine := newSeededEngine(t)
	seedMarchActivity(t, engine)

	stmt, err := engine.Statements.IncomeStatement(context.Background(),
		date(2025, 4, 1), date(2025, 4, 30))
	require.NoError(t, err)
	assert.True(t, stmt.NetIncome.IsZero())
	assert.Empty(t, stmt.Revenue.Lines)
}

func TestStatementGenerator_IncomeStatement_ClosedPeriodKeepsItsActivity(t *testing.T) {
	// GIVEN: A March of activity, then January through March closed
	// WHEN: Running the income statement over March again
	// THEN: The closing entry, dated March 31, does not erase the month

	engine := newSeededEngine(t)
	seedMarchActivity(t, engine)
	closePeriodsThrough(t, engine, date(2025, 3, 31))

	stmt, err := engine.Statements.IncomeStatement(context.Background(),
		date(2025, 3, 1), date(2025, 3, 31))
	require.NoError(t, err)

	assert.True(t, stmt.TotalRevenue.Equal(dec("250.00")))
	assert.True(t, stmt.NetIncome.Equal(dec("50.00")))
}

func TestStatementGenerator_ComparativeIncomeStatement_ClosedPriorPeriod(t *testing.T) {
	// The variance base survives the prior period's close.

	engine := newSeededEngine(t)
	ctx := context.Background()

	postSimple(t, engine, date(2025, 2, 10), "200.00")
	postSimple(t, engine, date(2025, 3, 10), "300.00")
	closePeriodsThrough(t, engine, date(2025, 2, 28))

	cmp, err := engine.Statements.ComparativeIncomeStatement(ctx,
		date(2025, 3, 1), date(2025, 3, 31),
		date(2025, 2, 1), date(2025, 2, 28))
	require.NoError(t, err)

	var revenue *ledger.ComparativeTotal
	for i := range cmp.Totals {
		if cmp.Totals[i].Label == "total_revenue" {
			revenue = &cmp.Totals[i]
		}
	}
	require.NotNil(t, revenue)
	assert.True(t, revenue.Prior.Equal(dec("200.00")))
	assert.True(t, revenue.Variance.Equal(dec("100.00")))
}

// =============================================================================
// BALANCE SHEET
// =============================================================================

func TestStatementGenerator_BalanceSheet_IdentityHolds(t *testing.T) {
	// GIVEN: A month of activity, not yet closed
	// THEN: Assets == Liabilities + Equity, with the un-closed earnings
	//       carried as current-year earnings

	engine := newSeededEngine(t)
	seedMarchActivity(t, engine)

	bs, err := engine.Statements.BalanceSheet(context.Background(), date(2025, 3, 31))
	require.NoError(t, err)

	assert.True(t, bs.Balances, "imbalance of %s", bs.Imbalance)
	// Cash 1000+300-50-80 = 1170, Inventory 400-120 = 280.
	assert.True(t, bs.CurrentAssets.Total.Equal(dec("1450.00")))
	assert.True(t, bs.TotalAssets.Equal(dec("1450.00")))
	assert.True(t, bs.TotalLiabilities.Equal(dec("400.00")))
	assert.True(t, bs.CurrentYearEarnings.Equal(dec("50.00")))
	assert.True(t, bs.TotalEquity.Equal(dec("1050.00")))
}

func TestStatementGenerator_BalanceSheet_IdentityHoldsAfterClose(t *testing.T) {
	// Closing moves current-year earnings into retained earnings; the
	// identity must hold on both sides of the ceremony.

	engine := newSeededEngine(t)
	seedMarchActivity(t, engine)
	ctx := context.Background()

	closePeriodsThrough(t, engine, date(2025, 3, 31))

	bs, err := engine.Statements.BalanceSheet(ctx, date(2025, 3, 31))
	require.NoError(t, err)

	assert.True(t, bs.Balances, "imbalance of %s", bs.Imbalance)
	assert.True(t, bs.CurrentYearEarnings.IsZero(), "closing zeroes the income accounts")
	assert.True(t, bs.TotalEquity.Equal(dec("1050.00")), "equity total is unchanged by the close")
}

// =============================================================================
// CASH FLOW
// =============================================================================

func TestStatementGenerator_CashFlow_Reconciles(t *testing.T) {
	engine := newSeededEngine(t)
	seedMarchActivity(t, engine)

	cf, err := engine.Statements.CashFlow(context.Background(),
		date(2025, 3, 1), date(2025, 3, 31))
	require.NoError(t, err)

	assert.True(t, cf.Reconciled, "discrepancy of %s", cf.Discrepancy)
	assert.True(t, cf.NetIncome.Equal(dec("50.00")))
	// Inventory grew 280 (consumes cash), AP grew 400 (defers cash).
	assert.True(t, cf.Operating.Total.Equal(dec("170.00")))
	// Owner contribution.
	assert.True(t, cf.Financing.Total.Equal(dec("1000.00")))
	assert.True(t, cf.BeginningCash.IsZero())
	assert.True(t, cf.EndingCash.Equal(dec("1170.00")))
	assert.True(t, cf.ActualCash.Equal(dec("1170.00")))
}

func TestStatementGenerator_CashFlow_DepreciationAddsBack(t *testing.T) {
	engine := newSeededEngine(t)
	ctx := context.Background()
	id := func(number string) string { return mustAccount(t, engine, number).ID }

	// Buy equipment with cash, then depreciate it.
	_, err := engine.Journal.CreateAndPost(ctx, ledger.EntryRequest{
		Date: date(2025, 3, 1),
		Lines: []ledger.LineRequest{
			{AccountID: id("1500"), Debit: dec("600.00")},
			{AccountID: id("1000"), Credit: dec("600.00")},
		},
	})
	require.NoError(t, err)
	_, err = engine.Journal.CreateAndPost(ctx, ledger.EntryRequest{
		Date: date(2025, 3, 31),
		Lines: []ledger.LineRequest{
			{AccountID: id("6500"), Debit: dec("10.00")},
			{AccountID: id("1510"), Credit: dec("10.00")},
		},
	})
	require.NoError(t, err)

	cf, err := engine.Statements.CashFlow(ctx, date(2025, 3, 1), date(2025, 3, 31))
	require.NoError(t, err)

	assert.True(t, cf.Reconciled, "discrepancy of %s", cf.Discrepancy)
	assert.True(t, cf.NetIncome.Equal(dec("-10.00")))
	// Depreciation is a non-cash charge: net income -10 plus the 10 add-back.
	assert.True(t, cf.Operating.Total.IsZero())
	assert.True(t, cf.Investing.Total.Equal(dec("-600.00")))
	assert.True(t, cf.NetChangeInCash.Equal(dec("-600.00")))
}

func TestStatementGenerator_CashFlow_ReconcilesAcrossAClose(t *testing.T) {
	// GIVEN: A 100 cash sale in January, January closed
	// WHEN: Running cash flow over January and February together
	// THEN: Net income still carries the 100 and the statement reconciles

	engine := newSeededEngine(t)
	ctx := context.Background()

	postSimple(t, engine, date(2025, 1, 15), "100.00")
	closePeriodsThrough(t, engine, date(2025, 1, 31))

	cf, err := engine.Statements.CashFlow(ctx, date(2025, 1, 1), date(2025, 2, 28))
	require.NoError(t, err)

	assert.True(t, cf.NetIncome.Equal(dec("100.00")))
	assert.True(t, cf.Reconciled, "discrepancy of %s", cf.Discrepancy)
	assert.True(t, cf.EndingCash.Equal(dec("100.00")))
	assert.True(t, cf.ActualCash.Equal(dec("100.00")))
}

// =============================================================================
// COMPARATIVE REPORTING
// =============================================================================

func TestStatementGenerator_ComparativeIncomeStatement_Variances(t *testing.T) {
	engine := newSeededEngine(t)
	ctx := context.Background()

	postSimple(t, engine, date(2025, 2, 10), "200.00")
	postSimple(t, engine, date(2025, 3, 10), "300.00")

	cmp, err := engine.Statements.ComparativeIncomeStatement(ctx,
		date(2025, 3, 1), date(2025, 3, 31),
		date(2025, 2, 1), date(2025, 2, 28))
	require.NoError(t, err)

	var revenue *ledger.ComparativeTotal
	for i := range cmp.Totals {
		if cmp.Totals[i].Label == "total_revenue" {
			revenue = &cmp.Totals[i]
		}
	}
	require.NotNil(t, revenue)
	assert.True(t, revenue.Current.Equal(dec("300.00")))
	assert.True(t, revenue.Prior.Equal(dec("200.00")))
	assert.True(t, revenue.Variance.Equal(dec("100.00")))
	require.NotNil(t, revenue.VariancePercent)
	assert.True(t, revenue.VariancePercent.Equal(dec("50")))
}

func TestStatementGenerator_Comparative_ZeroPriorLeavesPercentNil(t *testing.T) {
	// Variance against a zero prior is undefined, never a division.
	engine := newSeededEngine(t)

	postSimple(t, engine, date(2025, 3, 10), "300.00")

	cmp, err := engine.Statements.ComparativeIncomeStatement(context.Background(),
		date(2025, 3, 1), date(2025, 3, 31),
		date(2025, 2, 1), date(2025, 2, 28))
	require.NoError(t, err)

	for _, total := range cmp.Totals {
		if total.Label == "total_revenue" || total.Label == "net_income" {
			assert.Nil(t, total.VariancePercent, "%s: prior is zero", total.Label)
			assert.True(t, total.Variance.Equal(dec("300.00")))
		}
	}
}

func TestStatementGenerator_ComparativeBalanceSheet_TwoDates(t *testing.T) {
	engine := newSeededEngine(t)
	ctx := context.Background()

	postSimple(t, engine, date(2025, 2, 10), "200.00")
	postSimple(t, engine, date(2025, 3, 10), "300.00")

	cmp, err := engine.Statements.ComparativeBalanceSheet(ctx,
		date(2025, 3, 31), date(2025, 2, 28))
	require.NoError(t, err)

	assert.True(t, cmp.Current.TotalAssets.Equal(dec("500.00")))
	assert.True(t, cmp.Prior.TotalAssets.Equal(dec("200.00")))
}
