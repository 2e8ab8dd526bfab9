package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestEngine(t *testing.T) *ledger.Engine {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return ledger.NewEngine(store)
}

// newSeededEngine returns an engine with the default chart and a fiscal year
// of monthly periods for 2025.
func newSeededEngine(t *testing.T) *ledger.Engine {
	t.Helper()
	engine := newTestEngine(t)
	ctx := context.Background()

	added, _, err := engine.Chart.SeedDefaultChart(ctx)
	require.NoError(t, err)
	require.Greater(t, added, 0)

	for m := time.January; m <= time.December; m++ {
		start := ledger.NewDate(2025, m, 1)
		end := ledger.NewDate(2025, m+1, 1).AddDays(-1)
		_, err := engine.Periods.CreatePeriod(ctx, start.Time.Format("2006-01"), start, end)
		require.NoError(t, err)
	}
	return engine
}

func mustAccount(t *testing.T, engine *ledger.Engine, number string) *ledger.Account {
	t.Helper()
	a, err := engine.Chart.GetAccountByNumber(context.Background(), number)
	require.NoError(t, err)
	return a
}

func date(y int, m time.Month, d int) ledger.Date {
	return ledger.NewDate(y, m, d)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// simpleEntry is a two-line cash sale: debit Cash, credit Sales Revenue.
func simpleEntry(t *testing.T, engine *ledger.Engine, d ledger.Date, amount string) ledger.EntryRequest {
	t.Helper()
	cash := mustAccount(t, engine, "1000")
	revenue := mustAccount(t, engine, "4000")
	return ledger.EntryRequest{
		Date:        d,
		Source:      ledger.SourceSale,
		Description: "Cash sale",
		CreatedBy:   "test",
		Lines: []ledger.LineRequest{
			{AccountID: cash.ID, Debit: dec(amount)},
			{AccountID: revenue.ID, Credit: dec(amount)},
		},
	}
}

// closePeriodsThrough closes every open period ending on or before d, oldest
// first, with zero dividends. Periods close in calendar order, so tests that
// close a mid-year month first walk the quiet months before it.
func closePeriodsThrough(t *testing.T, engine *ledger.Engine, d ledger.Date) {
	t.Helper()
	ctx := context.Background()
	periods, err := engine.Periods.ListPeriods(ctx)
	require.NoError(t, err)
	for _, p := range periods {
		if p.Closed || p.End.After(d) {
			continue
		}
		_, err := engine.Periods.ClosePeriod(ctx, p.ID, decimal.Zero, "test")
		require.NoError(t, err)
	}
}

// postSimple creates and posts a cash sale, returning the posted entry.
func postSimple(t *testing.T, engine *ledger.Engine, d ledger.Date, amount string) *ledger.JournalEntry {
	t.Helper()
	entry, err := engine.Journal.CreateAndPost(context.Background(), simpleEntry(t, engine, d, amount))
	require.NoError(t, err)
	return entry
}
