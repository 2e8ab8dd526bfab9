package ledger

import "context"

// DefaultChart returns the standard retail chart of accounts used by setup.
// Numbers follow the usual convention: 1xxx assets, 2xxx liabilities,
// 3xxx equity, 4xxx revenue, 5xxx COGS, 6xxx operating expenses.
func DefaultChart() []AccountSpec {
	return []AccountSpec{
		// Assets
		{Number: "1000", Name: "Cash", Type: AccountAsset, Subtype: SubtypeCash, NormalBalance: NormalDebit},
		{Number: "1010", Name: "Petty Cash", Type: AccountAsset, Subtype: SubtypeCash, NormalBalance: NormalDebit},
		{Number: "1100", Name: "Accounts Receivable", Type: AccountAsset, Subtype: SubtypeCurrentAsset, NormalBalance: NormalDebit},
		{Number: "1200", Name: "Inventory", Type: AccountAsset, Subtype: SubtypeCurrentAsset, NormalBalance: NormalDebit},
		{Number: "1300", Name: "Prepaid Expenses", Type: AccountAsset, Subtype: SubtypeCurrentAsset, NormalBalance: NormalDebit},
		{Number: "1500", Name: "Equipment", Type: AccountAsset, Subtype: SubtypeFixedAsset, NormalBalance: NormalDebit},
		{Number: "1510", Name: "Accumulated Depreciation - Equipment", Type: AccountContraAsset, Subtype: SubtypeFixedAsset, NormalBalance: NormalCredit},
		{Number: "1600", Name: "Furniture & Fixtures", Type: AccountAsset, Subtype: SubtypeFixedAsset, NormalBalance: NormalDebit},
		{Number: "1610", Name: "Accumulated Depreciation - Furniture", Type: AccountContraAsset, Subtype: SubtypeFixedAsset, NormalBalance: NormalCredit},
		// Liabilities
		{Number: "2000", Name: "Accounts Payable", Type: AccountLiability, Subtype: SubtypeCurrentLiability, NormalBalance: NormalCredit},
		{Number: "2100", Name: "Sales Tax Payable", Type: AccountLiability, Subtype: SubtypeCurrentLiability, NormalBalance: NormalCredit},
		{Number: "2200", Name: "Wages Payable", Type: AccountLiability, Subtype: SubtypeCurrentLiability, NormalBalance: NormalCredit},
		{Number: "2300", Name: "Unearned Revenue", Type: AccountLiability, Subtype: SubtypeCurrentLiability, NormalBalance: NormalCredit},
		{Number: "2500", Name: "Notes Payable - Long Term", Type: AccountLiability, Subtype: SubtypeLongTermLiability, NormalBalance: NormalCredit},
		// Equity
		{Number: "3000", Name: "Owner's Capital", Type: AccountEquity, Subtype: SubtypeOwnerEquity, NormalBalance: NormalCredit},
		{Number: "3200", Name: "Retained Earnings", Type: AccountEquity, Subtype: SubtypeRetainedEarnings, NormalBalance: NormalCredit},
		{Number: "3300", Name: "Common Stock", Type: AccountEquity, Subtype: SubtypePaidInCapital, NormalBalance: NormalCredit},
		{Number: "3400", Name: "Additional Paid-In Capital", Type: AccountEquity, Subtype: SubtypePaidInCapital, NormalBalance: NormalCredit},
		// Revenue
		{Number: "4000", Name: "Sales Revenue", Type: AccountRevenue, Subtype: SubtypeOperatingRevenue, NormalBalance: NormalCredit},
		{Number: "4100", Name: "Sales Returns and Allowances", Type: AccountContraRevenue, Subtype: SubtypeOperatingRevenue, NormalBalance: NormalDebit},
		{Number: "4200", Name: "Sales Discounts", Type: AccountContraRevenue, Subtype: SubtypeOperatingRevenue, NormalBalance: NormalDebit},
		{Number: "4500", Name: "Other Income", Type: AccountRevenue, Subtype: SubtypeOtherRevenue, NormalBalance: NormalCredit},
		// Cost of goods sold
		{Number: "5000", Name: "Cost of Goods Sold", Type: AccountExpense, Subtype: SubtypeCOGS, NormalBalance: NormalDebit},
		{Number: "5100", Name: "Inventory Shrinkage", Type: AccountExpense, Subtype: SubtypeCOGS, NormalBalance: NormalDebit},
		{Number: "5200", Name: "Freight In", Type: AccountExpense, Subtype: SubtypeCOGS, NormalBalance: NormalDebit},
		// Operating expenses
		{Number: "6000", Name: "Salaries and Wages Expense", Type: AccountExpense, Subtype: SubtypeOperatingExpense, NormalBalance: NormalDebit},
		{Number: "6100", Name: "Rent Expense", Type: AccountExpense, Subtype: SubtypeOperatingExpense, NormalBalance: NormalDebit},
		{Number: "6200", Name: "Utilities Expense", Type: AccountExpense, Subtype: SubtypeOperatingExpense, NormalBalance: NormalDebit},
		{Number: "6300", Name: "Insurance Expense", Type: AccountExpense, Subtype: SubtypeOperatingExpense, NormalBalance: NormalDebit},
		{Number: "6400", Name: "Office Supplies Expense", Type: AccountExpense, Subtype: SubtypeOperatingExpense, NormalBalance: NormalDebit},
		{Number: "6500", Name: "Depreciation Expense", Type: AccountExpense, Subtype: SubtypeOperatingExpense, NormalBalance: NormalDebit},
		{Number: "6600", Name: "Marketing and Advertising", Type: AccountExpense, Subtype: SubtypeOperatingExpense, NormalBalance: NormalDebit},
		{Number: "6700", Name: "Bank Fees", Type: AccountExpense, Subtype: SubtypeOperatingExpense, NormalBalance: NormalDebit},
		{Number: "6800", Name: "Damaged Goods Expense", Type: AccountExpense, Subtype: SubtypeOperatingExpense, NormalBalance: NormalDebit},
		{Number: "6900", Name: "Shipping Discrepancy Loss", Type: AccountExpense, Subtype: SubtypeOperatingExpense, NormalBalance: NormalDebit},
	}
}

// SeedDefaultChart creates every DefaultChart account that does not already
// exist. Idempotent: accounts whose number is taken are skipped.
func (s *ChartService) SeedDefaultChart(ctx context.Context) (added, skipped int, err error) {
	for _, spec := range DefaultChart() {
		if _, lookupErr := s.store.GetAccountByNumber(ctx, spec.Number); lookupErr == nil {
			skipped++
			continue
		} else if !IsNotFound(lookupErr) {
			return added, skipped, lookupErr
		}
		if _, createErr := s.CreateAccount(ctx, spec); createErr != nil {
			return added, skipped, createErr
		}
		added++
	}
	return added, skipped, nil
}
