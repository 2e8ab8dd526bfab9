package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// PERIOD CALENDAR
// =============================================================================

func TestPeriodService_CreatePeriod_OverlapRejected(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Periods.CreatePeriod(ctx, "2025-Q1", date(2025, 1, 1), date(2025, 3, 31))
	require.NoError(t, err)

	cases := []struct {
		name       string
		start, end ledger.Date
	}{
		{"identical", date(2025, 1, 1), date(2025, 3, 31)},
		{"straddles the end", date(2025, 3, 31), date(2025, 6, 30)},
		{"fully inside", date(2025, 2, 1), date(2025, 2, 28)},
		{"fully containing", date(2024, 12, 1), date(2025, 4, 30)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Periods.CreatePeriod(ctx, "overlap", tc.start, tc.end)
			assert.True(t, ledger.IsValidation(err))
		})
	}

	// Adjacent is fine: Q1 ends March 31, Q2 starts April 1.
	_, err = engine.Periods.CreatePeriod(ctx, "2025-Q2", date(2025, 4, 1), date(2025, 6, 30))
	assert.NoError(t, err)
}

func TestPeriodService_CreatePeriod_EndBeforeStart_Rejected(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Periods.CreatePeriod(context.Background(),
		"backwards", date(2025, 3, 31), date(2025, 1, 1))
	assert.True(t, ledger.IsValidation(err))
}

func TestPeriodService_PeriodFor_BoundariesInclusive(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	q1, err := engine.Periods.CreatePeriod(ctx, "2025-Q1", date(2025, 1, 1), date(2025, 3, 31))
	require.NoError(t, err)

	for _, d := range []ledger.Date{date(2025, 1, 1), date(2025, 2, 15), date(2025, 3, 31)} {
		found, err := engine.Periods.PeriodFor(ctx, d)
		require.NoError(t, err)
		assert.Equal(t, q1.ID, found.ID)
	}

	_, err = engine.Periods.PeriodFor(ctx, date(2025, 4, 1))
	assert.True(t, ledger.IsNotFound(err))
}

// =============================================================================
// CLOSING
// =============================================================================

func TestPeriodService_ClosePeriod_RollForward(t *testing.T) {
	// GIVEN: March posted 100 of revenue, the quiet months before it closed
	// WHEN: Closing March with 20 of dividends
	// THEN: ending = 0 + 100 - 20, revenue is zeroed, the period locks

	engine := newSeededEngine(t)
	ctx := context.Background()

	postSimple(t, engine, date(2025, 3, 10), "100.00")
	closePeriodsThrough(t, engine, date(2025, 2, 28))

	march, err := engine.Periods.PeriodFor(ctx, date(2025, 3, 1))
	require.NoError(t, err)

	re, err := engine.Periods.ClosePeriod(ctx, march.ID, dec("20.00"), "controller")
	require.NoError(t, err)

	assert.True(t, re.BeginningBalance.IsZero())
	assert.True(t, re.NetIncome.Equal(dec("100.00")))
	assert.True(t, re.Dividends.Equal(dec("20.00")))
	assert.True(t, re.EndingBalance.Equal(dec("80.00")))

	closed, err := engine.Periods.GetPeriod(ctx, march.ID)
	require.NoError(t, err)
	assert.True(t, closed.Closed)
	assert.Equal(t, "controller", closed.ClosedBy)
	assert.False(t, closed.ClosedAt.IsZero())

	// Revenue is zeroed by the closing entry; retained earnings carries it.
	revenue, err := engine.Balances.AccountBalance(ctx,
		mustAccount(t, engine, "4000").ID, march.End)
	require.NoError(t, err)
	assert.True(t, revenue.IsZero())

	retained, err := engine.Balances.AccountBalance(ctx,
		mustAccount(t, engine, "3200").ID, march.End)
	require.NoError(t, err)
	assert.True(t, retained.Equal(dec("100.00")))
}

func TestPeriodService_ClosePeriod_ChainsPriorEndingBalance(t *testing.T) {
	// GIVEN: February closed with ending retained earnings of 100
	// WHEN: March closes with 40 of income
	// THEN: March begins where February ended

	engine := newSeededEngine(t)
	ctx := context.Background()

	postSimple(t, engine, date(2025, 2, 10), "100.00")
	closePeriodsThrough(t, engine, date(2025, 1, 31))
	feb, err := engine.Periods.PeriodFor(ctx, date(2025, 2, 1))
	require.NoError(t, err)
	_, err = engine.Periods.ClosePeriod(ctx, feb.ID, dec("0"), "controller")
	require.NoError(t, err)

	postSimple(t, engine, date(2025, 3, 10), "40.00")
	march, err := engine.Periods.PeriodFor(ctx, date(2025, 3, 1))
	require.NoError(t, err)
	re, err := engine.Periods.ClosePeriod(ctx, march.ID, dec("0"), "controller")
	require.NoError(t, err)

	assert.True(t, re.BeginningBalance.Equal(dec("100.00")))
	assert.True(t, re.NetIncome.Equal(dec("40.00")))
	assert.True(t, re.EndingBalance.Equal(dec("140.00")))
}

func TestPeriodService_ClosePeriod_DraftsBlockTheClose(t *testing.T) {
	engine := newSeededEngine(t)
	ctx := context.Background()

	draft, err := engine.Journal.CreateEntry(ctx, simpleEntry(t, engine, date(2025, 3, 10), "100.00"))
	require.NoError(t, err)

	closePeriodsThrough(t, engine, date(2025, 2, 28))
	march, err := engine.Periods.PeriodFor(ctx, date(2025, 3, 1))
	require.NoError(t, err)

	_, err = engine.Periods.ClosePeriod(ctx, march.ID, dec("0"), "controller")
	assert.True(t, ledger.IsConflict(err), "drafts dated in the period block the close")

	// Posting the draft clears the way.
	require.NoError(t, engine.Journal.PostEntry(ctx, draft.ID))
	_, err = engine.Periods.ClosePeriod(ctx, march.ID, dec("0"), "controller")
	assert.NoError(t, err)
}

func TestPeriodService_ClosePeriod_Twice_Conflicts(t *testing.T) {
	engine := newSeededEngine(t)
	ctx := context.Background()

	postSimple(t, engine, date(2025, 3, 10), "100.00")
	closePeriodsThrough(t, engine, date(2025, 2, 28))
	march, err := engine.Periods.PeriodFor(ctx, date(2025, 3, 1))
	require.NoError(t, err)

	_, err = engine.Periods.ClosePeriod(ctx, march.ID, dec("0"), "controller")
	require.NoError(t, err)

	_, err = engine.Periods.ClosePeriod(ctx, march.ID, dec("0"), "controller")
	assert.True(t, ledger.IsConflict(err), "there is no reopen and no re-close")
}

func TestPeriodService_ClosePeriod_PriorOpenPeriodBlocks(t *testing.T) {
	// GIVEN: February revenue, January never closed
	// WHEN: Closing February out of order
	// THEN: Conflict; closing January first unblocks February

	engine := newSeededEngine(t)
	ctx := context.Background()

	postSimple(t, engine, date(2025, 2, 10), "100.00")
	feb, err := engine.Periods.PeriodFor(ctx, date(2025, 2, 1))
	require.NoError(t, err)

	_, err = engine.Periods.ClosePeriod(ctx, feb.ID, dec("0"), "controller")
	assert.True(t, ledger.IsConflict(err), "an earlier open period blocks the close")

	jan, err := engine.Periods.PeriodFor(ctx, date(2025, 1, 1))
	require.NoError(t, err)
	_, err = engine.Periods.ClosePeriod(ctx, jan.ID, dec("0"), "controller")
	require.NoError(t, err)

	re, err := engine.Periods.ClosePeriod(ctx, feb.ID, dec("0"), "controller")
	require.NoError(t, err)
	assert.True(t, re.NetIncome.Equal(dec("100.00")))
}

func TestPeriodService_ClosePeriod_NegativeDividends_Rejected(t *testing.T) {
	engine := newSeededEngine(t)
	ctx := context.Background()

	march, err := engine.Periods.PeriodFor(ctx, date(2025, 3, 1))
	require.NoError(t, err)

	_, err = engine.Periods.ClosePeriod(ctx, march.ID, dec("-5.00"), "controller")
	assert.True(t, ledger.IsValidation(err))
}

func TestPeriodService_ClosePeriod_QuietPeriodWritesNoClosingEntry(t *testing.T) {
	// A period with no income-statement activity closes cleanly with a zero
	// roll-forward and no closing entry.

	engine := newSeededEngine(t)
	ctx := context.Background()

	jan, err := engine.Periods.PeriodFor(ctx, date(2025, 1, 1))
	require.NoError(t, err)

	re, err := engine.Periods.ClosePeriod(ctx, jan.ID, dec("0"), "controller")
	require.NoError(t, err)
	assert.True(t, re.NetIncome.IsZero())
	assert.True(t, re.EndingBalance.IsZero())

	entries, err := engine.Journal.ListEntries(ctx, ledger.EntryFilter{Type: ledger.EntryClosing})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPeriodService_RetainedEarningsFor_NilUntilClosed(t *testing.T) {
	engine := newSeededEngine(t)
	ctx := context.Background()

	march, err := engine.Periods.PeriodFor(ctx, date(2025, 3, 1))
	require.NoError(t, err)

	re, err := engine.Periods.RetainedEarningsFor(ctx, march.ID)
	require.NoError(t, err)
	assert.Nil(t, re, "open periods have no roll-forward record")

	closePeriodsThrough(t, engine, date(2025, 2, 28))
	_, err = engine.Periods.ClosePeriod(ctx, march.ID, dec("0"), "controller")
	require.NoError(t, err)

	re, err = engine.Periods.RetainedEarningsFor(ctx, march.ID)
	require.NoError(t, err)
	require.NotNil(t, re)
	assert.Equal(t, march.ID, re.PeriodID)
}

func TestPeriodService_ClosePeriod_NetLossDebitsRetainedEarnings(t *testing.T) {
	engine := newSeededEngine(t)
	ctx := context.Background()
	id := func(number string) string { return mustAccount(t, engine, number).ID }

	_, err := engine.Journal.CreateAndPost(ctx, ledger.EntryRequest{
		Date: date(2025, 3, 5),
		Lines: []ledger.LineRequest{
			{AccountID: id("6100"), Debit: dec("75.00")},
			{AccountID: id("1000"), Credit: dec("75.00")},
		},
	})
	require.NoError(t, err)

	closePeriodsThrough(t, engine, date(2025, 2, 28))
	march, err := engine.Periods.PeriodFor(ctx, date(2025, 3, 1))
	require.NoError(t, err)
	re, err := engine.Periods.ClosePeriod(ctx, march.ID, dec("0"), "controller")
	require.NoError(t, err)

	assert.True(t, re.NetIncome.Equal(dec("-75.00")))
	assert.True(t, re.EndingBalance.Equal(dec("-75.00")))

	retained, err := engine.Balances.AccountBalance(ctx, id("3200"), march.End)
	require.NoError(t, err)
	assert.True(t, retained.Equal(dec("-75.00")), "a loss leaves retained earnings debit-heavy")
}
