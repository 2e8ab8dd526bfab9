package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/ledger/store"
)

func testAccount(id, number string) ledger.Account {
	return ledger.Account{
		ID:            id,
		Number:        number,
		Name:          "Account " + number,
		Type:          ledger.AccountAsset,
		Subtype:       ledger.SubtypeCash,
		NormalBalance: ledger.NormalDebit,
		Active:        true,
		CreatedAt:     time.Now().UTC(),
	}
}

func testEntry(id, number string, d ledger.Date, status ledger.EntryStatus) ledger.JournalEntry {
	amount := decimal.NewFromInt(100)
	return ledger.JournalEntry{
		ID:     id,
		Number: number,
		Date:   d,
		Type:   ledger.EntryStandard,
		Source: ledger.SourceSale,
		Status: status,
		Lines: []ledger.JournalLine{
			{EntryID: id, LineNumber: 1, AccountID: "acct-cash", Debit: amount},
			{EntryID: id, LineNumber: 2, AccountID: "acct-rev", Credit: amount},
		},
		CreatedAt: time.Now().UTC(),
	}
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func TestMemory_Accounts_DuplicateNumberRejected(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.InsertAccount(ctx, testAccount("a1", "1000")))
	err := m.InsertAccount(ctx, testAccount("a2", "1000"))
	assert.True(t, ledger.IsValidation(err))
}

func TestMemory_Accounts_ListOrderedByNumber(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.InsertAccount(ctx, testAccount("a2", "2000")))
	require.NoError(t, m.InsertAccount(ctx, testAccount("a1", "1000")))

	accounts, err := m.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "1000", accounts[0].Number)
	assert.Equal(t, "2000", accounts[1].Number)
}

func TestMemory_Accounts_NotFound(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	_, err := m.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	_, err = m.GetAccountByNumber(ctx, "9999")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

// =============================================================================
// CAS TRANSITIONS
// =============================================================================

func TestMemory_MarkPosted_ExactlyOnce(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.InsertEntry(ctx, testEntry("e1", "JE-2025-00001", ledger.NewDate(2025, 3, 10), ledger.StatusDraft)))

	ok, err := m.MarkPosted(ctx, "e1", time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.MarkPosted(ctx, "e1", time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok, "second post loses the compare-and-set")

	_, err = m.MarkPosted(ctx, "missing", time.Now().UTC())
	assert.ErrorIs(t, err, ledger.ErrEntryNotFound)
}

func TestMemory_MarkVoided_RecordsLinkage(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.InsertEntry(ctx, testEntry("e1", "JE-2025-00001", ledger.NewDate(2025, 3, 10), ledger.StatusPosted)))

	ok, err := m.MarkVoided(ctx, "e1", "bad scan", "e2")
	require.NoError(t, err)
	require.True(t, ok)

	e, err := m.GetEntry(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusVoided, e.Status)
	assert.Equal(t, "bad scan", e.VoidReason)
	assert.Equal(t, "e2", e.ReversedByID)

	ok, err = m.MarkVoided(ctx, "e1", "again", "e3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_NextEntrySequence_PerYear(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := m.NextEntrySequence(ctx, 2025)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	got, err := m.NextEntrySequence(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, got, "each year has its own sequence")
}

// =============================================================================
// POSTED LINES
// =============================================================================

func TestMemory_PostedLines_IncludesVoidedExcludesDrafts(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.InsertEntry(ctx, testEntry("e1", "JE-2025-00001", ledger.NewDate(2025, 3, 10), ledger.StatusPosted)))
	require.NoError(t, m.InsertEntry(ctx, testEntry("e2", "JE-2025-00002", ledger.NewDate(2025, 3, 11), ledger.StatusVoided)))
	require.NoError(t, m.InsertEntry(ctx, testEntry("e3", "JE-2025-00003", ledger.NewDate(2025, 3, 12), ledger.StatusDraft)))

	lines, err := m.PostedLines(ctx, ledger.LineFilter{})
	require.NoError(t, err)
	assert.Len(t, lines, 4, "posted and voided count, drafts do not")
}

func TestMemory_PostedLines_TotalOrder(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	// Inserted out of order on purpose.
	require.NoError(t, m.InsertEntry(ctx, testEntry("e2", "JE-2025-00002", ledger.NewDate(2025, 3, 10), ledger.StatusPosted)))
	require.NoError(t, m.InsertEntry(ctx, testEntry("e1", "JE-2025-00001", ledger.NewDate(2025, 3, 10), ledger.StatusPosted)))
	require.NoError(t, m.InsertEntry(ctx, testEntry("e3", "JE-2025-00003", ledger.NewDate(2025, 3, 9), ledger.StatusPosted)))

	lines, err := m.PostedLines(ctx, ledger.LineFilter{})
	require.NoError(t, err)
	require.Len(t, lines, 6)
	assert.Equal(t, "JE-2025-00003", lines[0].EntryNumber)
	assert.Equal(t, "JE-2025-00001", lines[2].EntryNumber)
	assert.Equal(t, "JE-2025-00002", lines[4].EntryNumber)
	assert.Equal(t, 1, lines[0].LineNumber)
	assert.Equal(t, 2, lines[1].LineNumber)
}

func TestMemory_PostedLines_AccountAndDateFilter(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.InsertEntry(ctx, testEntry("e1", "JE-2025-00001", ledger.NewDate(2025, 3, 10), ledger.StatusPosted)))
	require.NoError(t, m.InsertEntry(ctx, testEntry("e2", "JE-2025-00002", ledger.NewDate(2025, 4, 10), ledger.StatusPosted)))

	lines, err := m.PostedLines(ctx, ledger.LineFilter{
		AccountID: "acct-cash",
		To:        ledger.NewDate(2025, 3, 31),
	})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "e1", lines[0].EntryID)
	assert.Equal(t, "acct-cash", lines[0].AccountID)
}

func TestMemory_PostedLines_ExcludeTypeFilter(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.InsertEntry(ctx, testEntry("e1", "JE-2025-00001", ledger.NewDate(2025, 3, 10), ledger.StatusPosted)))
	closing := testEntry("e2", "JE-2025-00002", ledger.NewDate(2025, 3, 31), ledger.StatusPosted)
	closing.Type = ledger.EntryClosing
	require.NoError(t, m.InsertEntry(ctx, closing))

	lines, err := m.PostedLines(ctx, ledger.LineFilter{ExcludeType: ledger.EntryClosing})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "e1", lines[0].EntryID)

	// The zero value excludes nothing.
	lines, err = m.PostedLines(ctx, ledger.LineFilter{})
	require.NoError(t, err)
	assert.Len(t, lines, 4)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestMemory_WithTx_RollsBackEveryWrite(t *testing.T) {
	// GIVEN: A transaction that inserts an entry, bumps the sequence, and
	//        closes a period
	// WHEN: The callback returns an error
	// THEN: None of it survives

	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.InsertPeriod(ctx, ledger.FiscalPeriod{
		ID:    "p1",
		Name:  "2025-03",
		Start: ledger.NewDate(2025, 3, 1),
		End:   ledger.NewDate(2025, 3, 31),
	}))

	boom := errors.New("boom")
	err := m.WithTx(ctx, func(tx ledger.Store) error {
		if err := tx.InsertEntry(ctx, testEntry("e1", "JE-2025-00001", ledger.NewDate(2025, 3, 10), ledger.StatusDraft)); err != nil {
			return err
		}
		if _, err := tx.NextEntrySequence(ctx, 2025); err != nil {
			return err
		}
		if _, err := tx.MarkPeriodClosed(ctx, "p1", time.Now().UTC(), "test"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = m.GetEntry(ctx, "e1")
	assert.ErrorIs(t, err, ledger.ErrEntryNotFound)

	seq, err := m.NextEntrySequence(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, seq, "the rolled-back bump does not count")

	p, err := m.GetPeriod(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, p.Closed)
}

func TestMemory_WithTx_CommitsOnNil(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	err := m.WithTx(ctx, func(tx ledger.Store) error {
		return tx.InsertEntry(ctx, testEntry("e1", "JE-2025-00001", ledger.NewDate(2025, 3, 10), ledger.StatusDraft))
	})
	require.NoError(t, err)

	e, err := m.GetEntry(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "JE-2025-00001", e.Number)
}

func TestMemory_WithTx_NestedSharesTheTransaction(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	boom := errors.New("boom")
	err := m.WithTx(ctx, func(tx ledger.Store) error {
		if err := tx.InsertEntry(ctx, testEntry("e1", "JE-2025-00001", ledger.NewDate(2025, 3, 10), ledger.StatusDraft)); err != nil {
			return err
		}
		return tx.WithTx(ctx, func(inner ledger.Store) error {
			// The inner scope sees the outer write.
			if _, err := inner.GetEntry(ctx, "e1"); err != nil {
				return err
			}
			return boom
		})
	})
	require.ErrorIs(t, err, boom)

	_, err = m.GetEntry(ctx, "e1")
	assert.ErrorIs(t, err, ledger.ErrEntryNotFound, "the outer transaction rolled back too")
}

// =============================================================================
// RETAINED EARNINGS
// =============================================================================

func TestMemory_RetainedEarnings_NilForOpenPeriod(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	re, err := m.GetRetainedEarnings(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, re)

	require.NoError(t, m.InsertRetainedEarnings(ctx, ledger.RetainedEarnings{
		ID:            "re1",
		PeriodID:      "p1",
		NetIncome:     decimal.NewFromInt(50),
		EndingBalance: decimal.NewFromInt(50),
		CreatedAt:     time.Now().UTC(),
	}))

	re, err = m.GetRetainedEarnings(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, re)
	assert.True(t, re.NetIncome.Equal(decimal.NewFromInt(50)))
}
