package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// ACCOUNT CREATION
// =============================================================================

func TestChartService_CreateAccount_Succeeds(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	account, err := engine.Chart.CreateAccount(ctx, ledger.AccountSpec{
		Number:        "1000",
		Name:          "Cash",
		Type:          ledger.AccountAsset,
		Subtype:       ledger.SubtypeCash,
		NormalBalance: ledger.NormalDebit,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, account.ID)
	assert.True(t, account.Active, "new accounts start active")

	found, err := engine.Chart.GetAccountByNumber(ctx, "1000")
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)
}

func TestChartService_CreateAccount_DuplicateNumber_Rejected(t *testing.T) {
	// GIVEN: An account numbered 1000 exists
	// WHEN: Creating another account with the same number
	// THEN: Validation error, nothing written

	engine := newTestEngine(t)
	ctx := context.Background()

	spec := ledger.AccountSpec{
		Number:        "1000",
		Name:          "Cash",
		Type:          ledger.AccountAsset,
		Subtype:       ledger.SubtypeCash,
		NormalBalance: ledger.NormalDebit,
	}
	_, err := engine.Chart.CreateAccount(ctx, spec)
	require.NoError(t, err)

	spec.Name = "Other Cash"
	_, err = engine.Chart.CreateAccount(ctx, spec)
	assert.True(t, ledger.IsValidation(err), "duplicate number should be a validation error")

	accounts, err := engine.Chart.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestChartService_CreateAccount_WrongNormalBalance_Rejected(t *testing.T) {
	// Asset accounts carry a debit normal balance; a credit-normal asset is
	// a polarity bug waiting to happen and is rejected up front.

	engine := newTestEngine(t)

	_, err := engine.Chart.CreateAccount(context.Background(), ledger.AccountSpec{
		Number:        "1000",
		Name:          "Cash",
		Type:          ledger.AccountAsset,
		Subtype:       ledger.SubtypeCash,
		NormalBalance: ledger.NormalCredit,
	})
	assert.True(t, ledger.IsValidation(err))
}

func TestChartService_CreateAccount_UnknownSubtype_Rejected(t *testing.T) {
	// Statements bucket by subtype; a typo like "curent_asset" would silently
	// drop the account from every statement section.

	engine := newTestEngine(t)

	_, err := engine.Chart.CreateAccount(context.Background(), ledger.AccountSpec{
		Number:        "1300",
		Name:          "Prepaid Rent",
		Type:          ledger.AccountAsset,
		Subtype:       ledger.AccountSubtype("curent_asset"),
		NormalBalance: ledger.NormalDebit,
	})
	assert.True(t, ledger.IsValidation(err))

	// The empty subtype stays legal: type-level bucketing covers it.
	a, err := engine.Chart.CreateAccount(context.Background(), ledger.AccountSpec{
		Number:        "1300",
		Name:          "Prepaid Rent",
		Type:          ledger.AccountAsset,
		NormalBalance: ledger.NormalDebit,
	})
	require.NoError(t, err)
	assert.Empty(t, a.Subtype)
}

func TestChartService_CreateAccount_ContraTypes_InvertPolarity(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	// Contra-asset: credit normal.
	_, err := engine.Chart.CreateAccount(ctx, ledger.AccountSpec{
		Number:        "1510",
		Name:          "Accumulated Depreciation",
		Type:          ledger.AccountContraAsset,
		Subtype:       ledger.SubtypeFixedAsset,
		NormalBalance: ledger.NormalCredit,
	})
	assert.NoError(t, err)

	// Contra-revenue: debit normal.
	_, err = engine.Chart.CreateAccount(ctx, ledger.AccountSpec{
		Number:        "4100",
		Name:          "Sales Returns",
		Type:          ledger.AccountContraRevenue,
		Subtype:       ledger.SubtypeOperatingRevenue,
		NormalBalance: ledger.NormalDebit,
	})
	assert.NoError(t, err)
}

func TestChartService_CreateAccount_UnknownParent_Rejected(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Chart.CreateAccount(context.Background(), ledger.AccountSpec{
		Number:        "1010",
		Name:          "Petty Cash",
		Type:          ledger.AccountAsset,
		Subtype:       ledger.SubtypeCash,
		NormalBalance: ledger.NormalDebit,
		ParentID:      "acct-does-not-exist",
	})
	assert.True(t, ledger.IsValidation(err))
}

// =============================================================================
// HIERARCHY
// =============================================================================

func TestChartService_Reparent_CycleRejected(t *testing.T) {
	// GIVEN: 1000 <- 1010 <- 1011 (parent chain)
	// WHEN: Moving 1000 under 1011
	// THEN: Rejected, the chain would become a cycle

	engine := newTestEngine(t)
	ctx := context.Background()

	a := createAsset(t, engine, "1000", "Cash", "")
	b := createAsset(t, engine, "1010", "Registers", a.ID)
	c := createAsset(t, engine, "1011", "Register 1", b.ID)

	err := engine.Chart.Reparent(ctx, a.ID, c.ID)
	assert.True(t, ledger.IsValidation(err), "cycle should be rejected")

	err = engine.Chart.Reparent(ctx, a.ID, a.ID)
	assert.True(t, ledger.IsValidation(err), "self-parent should be rejected")
}

func TestChartService_Reparent_ToTopLevel(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	a := createAsset(t, engine, "1000", "Cash", "")
	b := createAsset(t, engine, "1010", "Petty Cash", a.ID)

	require.NoError(t, engine.Chart.Reparent(ctx, b.ID, ""))

	moved, err := engine.Chart.GetAccount(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, moved.ParentID)
}

func TestChartService_AccountTree_OrderedByNumber(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	root := createAsset(t, engine, "1000", "Cash", "")
	createAsset(t, engine, "1020", "Register 2", root.ID)
	createAsset(t, engine, "1010", "Register 1", root.ID)

	tree, err := engine.Chart.AccountTree(ctx, "")
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "1010", tree[0].Children[0].Account.Number)
	assert.Equal(t, "1020", tree[0].Children[1].Account.Number)
}

// =============================================================================
// DEACTIVATION AND DELETION
// =============================================================================

func TestChartService_Deactivate_ThenReactivate(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	a := createAsset(t, engine, "1000", "Cash", "")

	require.NoError(t, engine.Chart.DeactivateAccount(ctx, a.ID))
	got, err := engine.Chart.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	require.NoError(t, engine.Chart.ReactivateAccount(ctx, a.ID))
	got, err = engine.Chart.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
}

func TestChartService_Delete_ReferencedAccount_Rejected(t *testing.T) {
	// GIVEN: An account referenced by a posted journal line
	// WHEN: Hard-deleting it
	// THEN: Conflict; the audit trail must keep resolving account IDs

	engine := newSeededEngine(t)
	ctx := context.Background()

	postSimple(t, engine, date(2025, 3, 10), "100.00")

	cash := mustAccount(t, engine, "1000")
	err := engine.Chart.DeleteAccount(ctx, cash.ID)
	assert.True(t, ledger.IsConflict(err), "referenced account must not be deletable")
}

func TestChartService_Delete_AccountWithChildren_Rejected(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	parent := createAsset(t, engine, "1000", "Cash", "")
	createAsset(t, engine, "1010", "Petty Cash", parent.ID)

	err := engine.Chart.DeleteAccount(ctx, parent.ID)
	assert.True(t, ledger.IsConflict(err))
}

func TestChartService_Delete_UnusedAccount_Succeeds(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	a := createAsset(t, engine, "1000", "Cash", "")
	require.NoError(t, engine.Chart.DeleteAccount(ctx, a.ID))

	_, err := engine.Chart.GetAccount(ctx, a.ID)
	assert.True(t, ledger.IsNotFound(err))
}

// =============================================================================
// DEFAULT CHART
// =============================================================================

func TestChartService_SeedDefaultChart_Idempotent(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	added, skipped, err := engine.Chart.SeedDefaultChart(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(ledger.DefaultChart()), added)
	assert.Zero(t, skipped)

	added, skipped, err = engine.Chart.SeedDefaultChart(ctx)
	require.NoError(t, err)
	assert.Zero(t, added, "second seed adds nothing")
	assert.Equal(t, len(ledger.DefaultChart()), skipped)
}

// =============================================================================
// HELPERS
// =============================================================================

func createAsset(t *testing.T, engine *ledger.Engine, number, name, parentID string) *ledger.Account {
	t.Helper()
	a, err := engine.Chart.CreateAccount(context.Background(), ledger.AccountSpec{
		Number:        number,
		Name:          name,
		Type:          ledger.AccountAsset,
		Subtype:       ledger.SubtypeCash,
		NormalBalance: ledger.NormalDebit,
		ParentID:      parentID,
	})
	require.NoError(t, err)
	return a
}
