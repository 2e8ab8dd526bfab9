/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AMOUNTS:
  decimal.Decimal marshals as a quoted string ("124.50"), which is what the
  frontend wants anyway: money never goes through float parsing.

DATES:
  Entry and period dates travel as "2006-01-02" strings; timestamps as
  RFC 3339.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: The domain types these mirror
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

// AccountDTO represents an account in API responses.
type AccountDTO struct {
	ID            string `json:"id"`
	Number        string `json:"number"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Subtype       string `json:"subtype,omitempty"`
	NormalBalance string `json:"normal_balance"`
	ParentID      string `json:"parent_id,omitempty"`
	Description   string `json:"description,omitempty"`
	Active        bool   `json:"active"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// CreateAccountRequest is the request to create an account.
type CreateAccountRequest struct {
	Number        string `json:"number"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Subtype       string `json:"subtype"`
	NormalBalance string `json:"normal_balance"`
	ParentID      string `json:"parent_id"`
	Description   string `json:"description"`
}

// AccountNodeDTO is one node of the account tree response.
type AccountNodeDTO struct {
	AccountDTO
	Children []AccountNodeDTO `json:"children,omitempty"`
}

func toAccountDTO(a ledger.Account) AccountDTO {
	return AccountDTO{
		ID:            a.ID,
		Number:        a.Number,
		Name:          a.Name,
		Type:          string(a.Type),
		Subtype:       string(a.Subtype),
		NormalBalance: string(a.NormalBalance),
		ParentID:      a.ParentID,
		Description:   a.Description,
		Active:        a.Active,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
}

func toAccountNodeDTOs(nodes []*ledger.AccountNode) []AccountNodeDTO {
	dtos := make([]AccountNodeDTO, len(nodes))
	for i, n := range nodes {
		dtos[i] = AccountNodeDTO{
			AccountDTO: toAccountDTO(n.Account),
			Children:   toAccountNodeDTOs(n.Children),
		}
	}
	return dtos
}

// =============================================================================
// JOURNAL ENTRIES
// =============================================================================

// LineDTO is one leg of an entry in API responses.
type LineDTO struct {
	LineNumber  int             `json:"line_number"`
	AccountID   string          `json:"account_id"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
}

// EntryDTO represents a journal entry in API responses.
type EntryDTO struct {
	ID           string          `json:"id"`
	Number       string          `json:"number"`
	Date         string          `json:"date"`
	Type         string          `json:"type"`
	Source       string          `json:"source"`
	SourceID     string          `json:"source_id,omitempty"`
	Description  string          `json:"description,omitempty"`
	CreatedBy    string          `json:"created_by,omitempty"`
	Status       string          `json:"status"`
	PostedAt     string          `json:"posted_at,omitempty"`
	VoidReason   string          `json:"void_reason,omitempty"`
	ReversesID   string          `json:"reverses_id,omitempty"`
	ReversedByID string          `json:"reversed_by_id,omitempty"`
	TotalDebits  decimal.Decimal `json:"total_debits"`
	TotalCredits decimal.Decimal `json:"total_credits"`
	Lines        []LineDTO       `json:"lines"`
	CreatedAt    string          `json:"created_at,omitempty"`
}

// CreateLineRequest is one leg of an entry creation request.
type CreateLineRequest struct {
	AccountID   string          `json:"account_id"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

// CreateEntryRequest is the request to create a journal entry.
type CreateEntryRequest struct {
	Date        string              `json:"date"`
	Type        string              `json:"type"`
	Source      string              `json:"source"`
	SourceID    string              `json:"source_id"`
	Description string              `json:"description"`
	CreatedBy   string              `json:"created_by"`
	Post        bool                `json:"post"` // post immediately instead of leaving a draft
	Lines       []CreateLineRequest `json:"lines"`
}

// VoidEntryRequest is the request to void a posted entry.
type VoidEntryRequest struct {
	Reason string `json:"reason"`
	Actor  string `json:"actor"`
}

func toEntryDTO(e ledger.JournalEntry) EntryDTO {
	dto := EntryDTO{
		ID:           e.ID,
		Number:       e.Number,
		Date:         e.Date.String(),
		Type:         string(e.Type),
		Source:       string(e.Source),
		SourceID:     e.SourceID,
		Description:  e.Description,
		CreatedBy:    e.CreatedBy,
		Status:       string(e.Status),
		VoidReason:   e.VoidReason,
		ReversesID:   e.ReversesID,
		ReversedByID: e.ReversedByID,
		TotalDebits:  e.TotalDebits(),
		TotalCredits: e.TotalCredits(),
		Lines:        make([]LineDTO, len(e.Lines)),
		CreatedAt:    e.CreatedAt.Format(time.RFC3339),
	}
	if !e.PostedAt.IsZero() {
		dto.PostedAt = e.PostedAt.Format(time.RFC3339)
	}
	for i, l := range e.Lines {
		dto.Lines[i] = LineDTO{
			LineNumber:  l.LineNumber,
			AccountID:   l.AccountID,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
		}
	}
	return dto
}

// =============================================================================
// FISCAL PERIODS
// =============================================================================

// PeriodDTO represents a fiscal period in API responses.
type PeriodDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Closed   bool   `json:"closed"`
	ClosedAt string `json:"closed_at,omitempty"`
	ClosedBy string `json:"closed_by,omitempty"`
}

// CreatePeriodRequest is the request to create a fiscal period.
type CreatePeriodRequest struct {
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// ClosePeriodRequest is the request to close a fiscal period.
type ClosePeriodRequest struct {
	Dividends decimal.Decimal `json:"dividends"`
	Actor     string          `json:"actor"`
}

// RetainedEarningsDTO is the roll-forward record for a closed period.
type RetainedEarningsDTO struct {
	ID               string          `json:"id"`
	PeriodID         string          `json:"period_id"`
	BeginningBalance decimal.Decimal `json:"beginning_balance"`
	NetIncome        decimal.Decimal `json:"net_income"`
	Dividends        decimal.Decimal `json:"dividends"`
	EndingBalance    decimal.Decimal `json:"ending_balance"`
	CreatedAt        string          `json:"created_at,omitempty"`
}

func toPeriodDTO(p ledger.FiscalPeriod) PeriodDTO {
	dto := PeriodDTO{
		ID:       p.ID,
		Name:     p.Name,
		Start:    p.Start.String(),
		End:      p.End.String(),
		Closed:   p.Closed,
		ClosedBy: p.ClosedBy,
	}
	if !p.ClosedAt.IsZero() {
		dto.ClosedAt = p.ClosedAt.Format(time.RFC3339)
	}
	return dto
}

func toRetainedEarningsDTO(re ledger.RetainedEarnings) RetainedEarningsDTO {
	return RetainedEarningsDTO{
		ID:               re.ID,
		PeriodID:         re.PeriodID,
		BeginningBalance: re.BeginningBalance,
		NetIncome:        re.NetIncome,
		Dividends:        re.Dividends,
		EndingBalance:    re.EndingBalance,
		CreatedAt:        re.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// BALANCES AND LEDGER VIEWS
// =============================================================================

// BalanceDTO is a single account balance as of a date.
type BalanceDTO struct {
	AccountID string          `json:"account_id"`
	AsOf      string          `json:"as_of"`
	Balance   decimal.Decimal `json:"balance"`
}

// LedgerRowDTO is one line of an account ledger view.
type LedgerRowDTO struct {
	EntryID        string          `json:"entry_id"`
	EntryNumber    string          `json:"entry_number"`
	Date           string          `json:"date"`
	Type           string          `json:"type"`
	Source         string          `json:"source"`
	Description    string          `json:"description,omitempty"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// AccountLedgerDTO is the activity of one account over a range.
type AccountLedgerDTO struct {
	Account        AccountDTO      `json:"account"`
	From           string          `json:"from"`
	To             string          `json:"to"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Rows           []LedgerRowDTO  `json:"rows"`
}

func toAccountLedgerDTO(v ledger.AccountLedgerView) AccountLedgerDTO {
	dto := AccountLedgerDTO{
		Account:        toAccountDTO(v.Account),
		From:           v.From.String(),
		To:             v.To.String(),
		OpeningBalance: v.OpeningBalance,
		ClosingBalance: v.ClosingBalance,
		Rows:           make([]LedgerRowDTO, len(v.Rows)),
	}
	for i, r := range v.Rows {
		dto.Rows[i] = LedgerRowDTO{
			EntryID:        r.EntryID,
			EntryNumber:    r.EntryNumber,
			Date:           r.Date.String(),
			Type:           string(r.EntryType),
			Source:         string(r.Source),
			Description:    r.Description,
			Debit:          r.Debit,
			Credit:         r.Credit,
			RunningBalance: r.RunningBalance,
		}
	}
	return dto
}

// GeneralLedgerRowDTO is one line of the cross-account ledger export.
type GeneralLedgerRowDTO struct {
	EntryID       string          `json:"entry_id"`
	EntryNumber   string          `json:"entry_number"`
	Date          string          `json:"date"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	AccountID     string          `json:"account_id"`
	AccountNumber string          `json:"account_number"`
	AccountName   string          `json:"account_name"`
	Description   string          `json:"description,omitempty"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
}

func toGeneralLedgerDTOs(rows []ledger.GeneralLedgerRow) []GeneralLedgerRowDTO {
	dtos := make([]GeneralLedgerRowDTO, len(rows))
	for i, r := range rows {
		dtos[i] = GeneralLedgerRowDTO{
			EntryID:       r.EntryID,
			EntryNumber:   r.EntryNumber,
			Date:          r.Date.String(),
			Type:          string(r.EntryType),
			Source:        string(r.Source),
			AccountID:     r.AccountID,
			AccountNumber: r.AccountNumber,
			AccountName:   r.AccountName,
			Description:   r.Description,
			Debit:         r.Debit,
			Credit:        r.Credit,
		}
	}
	return dtos
}

// =============================================================================
// STATEMENTS
// =============================================================================

// TrialBalanceRowDTO is one account row of the trial balance.
type TrialBalanceRowDTO struct {
	AccountID     string          `json:"account_id"`
	AccountNumber string          `json:"account_number"`
	AccountName   string          `json:"account_name"`
	AccountType   string          `json:"account_type"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
}

// TrialBalanceDTO is the trial balance report.
type TrialBalanceDTO struct {
	AsOf         string               `json:"as_of"`
	Rows         []TrialBalanceRowDTO `json:"rows"`
	TotalDebits  decimal.Decimal      `json:"total_debits"`
	TotalCredits decimal.Decimal      `json:"total_credits"`
	Balanced     bool                 `json:"balanced"`
}

func toTrialBalanceDTO(tb *ledger.TrialBalance) TrialBalanceDTO {
	dto := TrialBalanceDTO{
		AsOf:         tb.AsOf.String(),
		Rows:         make([]TrialBalanceRowDTO, len(tb.Rows)),
		TotalDebits:  tb.TotalDebits,
		TotalCredits: tb.TotalCredits,
		Balanced:     tb.TotalDebits.Equal(tb.TotalCredits),
	}
	for i, r := range tb.Rows {
		dto.Rows[i] = TrialBalanceRowDTO{
			AccountID:     r.AccountID,
			AccountNumber: r.AccountNumber,
			AccountName:   r.AccountName,
			AccountType:   string(r.AccountType),
			Debit:         r.Debit,
			Credit:        r.Credit,
		}
	}
	return dto
}

// StatementLineDTO is one account row on a statement.
type StatementLineDTO struct {
	AccountID        string          `json:"account_id"`
	AccountNumber    string          `json:"account_number"`
	AccountName      string          `json:"account_name"`
	Balance          decimal.Decimal `json:"balance"`
	PercentOfRevenue decimal.Decimal `json:"percent_of_revenue,omitempty"`
}

// StatementSectionDTO groups statement lines under a total.
type StatementSectionDTO struct {
	Lines []StatementLineDTO `json:"lines"`
	Total decimal.Decimal    `json:"total"`
}

func toSectionDTO(s ledger.StatementSection) StatementSectionDTO {
	dto := StatementSectionDTO{
		Lines: make([]StatementLineDTO, len(s.Lines)),
		Total: s.Total,
	}
	for i, l := range s.Lines {
		dto.Lines[i] = StatementLineDTO{
			AccountID:        l.AccountID,
			AccountNumber:    l.AccountNumber,
			AccountName:      l.AccountName,
			Balance:          l.Balance,
			PercentOfRevenue: l.PercentOfRevenue,
		}
	}
	return dto
}

// IncomeStatementDTO is the income statement report.
type IncomeStatementDTO struct {
	From          string              `json:"from"`
	To            string              `json:"to"`
	Revenue       StatementSectionDTO `json:"revenue"`
	COGS          StatementSectionDTO `json:"cogs"`
	Expenses      StatementSectionDTO `json:"expenses"`
	TotalRevenue  decimal.Decimal     `json:"total_revenue"`
	TotalCOGS     decimal.Decimal     `json:"total_cogs"`
	GrossProfit   decimal.Decimal     `json:"gross_profit"`
	TotalExpenses decimal.Decimal     `json:"total_expenses"`
	NetIncome     decimal.Decimal     `json:"net_income"`
}

func toIncomeStatementDTO(s *ledger.IncomeStatement) IncomeStatementDTO {
	return IncomeStatementDTO{
		From:          s.From.String(),
		To:            s.To.String(),
		Revenue:       toSectionDTO(s.Revenue),
		COGS:          toSectionDTO(s.COGS),
		Expenses:      toSectionDTO(s.Expenses),
		TotalRevenue:  s.TotalRevenue,
		TotalCOGS:     s.TotalCOGS,
		GrossProfit:   s.GrossProfit,
		TotalExpenses: s.TotalExpenses,
		NetIncome:     s.NetIncome,
	}
}

// BalanceSheetDTO is the balance sheet report.
type BalanceSheetDTO struct {
	AsOf                string              `json:"as_of"`
	CurrentAssets       StatementSectionDTO `json:"current_assets"`
	FixedAssets         StatementSectionDTO `json:"fixed_assets"`
	OtherAssets         StatementSectionDTO `json:"other_assets"`
	TotalAssets         decimal.Decimal     `json:"total_assets"`
	CurrentLiabilities  StatementSectionDTO `json:"current_liabilities"`
	LongTermLiabilities StatementSectionDTO `json:"long_term_liabilities"`
	TotalLiabilities    decimal.Decimal     `json:"total_liabilities"`
	Equity              StatementSectionDTO `json:"equity"`
	CurrentYearEarnings decimal.Decimal     `json:"current_year_earnings"`
	TotalEquity         decimal.Decimal     `json:"total_equity"`
	Balances            bool                `json:"balances"`
	Imbalance           decimal.Decimal     `json:"imbalance"`
}

func toBalanceSheetDTO(s *ledger.BalanceSheet) BalanceSheetDTO {
	return BalanceSheetDTO{
		AsOf:                s.AsOf.String(),
		CurrentAssets:       toSectionDTO(s.CurrentAssets),
		FixedAssets:         toSectionDTO(s.FixedAssets),
		OtherAssets:         toSectionDTO(s.OtherAssets),
		TotalAssets:         s.TotalAssets,
		CurrentLiabilities:  toSectionDTO(s.CurrentLiabilities),
		LongTermLiabilities: toSectionDTO(s.LongTermLiabilities),
		TotalLiabilities:    s.TotalLiabilities,
		Equity:              toSectionDTO(s.Equity),
		CurrentYearEarnings: s.CurrentYearEarnings,
		TotalEquity:         s.TotalEquity,
		Balances:            s.Balances,
		Imbalance:           s.Imbalance,
	}
}

// CashFlowDTO is the cash flow statement report.
type CashFlowDTO struct {
	From            string              `json:"from"`
	To              string              `json:"to"`
	NetIncome       decimal.Decimal     `json:"net_income"`
	Operating       StatementSectionDTO `json:"operating"`
	Investing       StatementSectionDTO `json:"investing"`
	Financing       StatementSectionDTO `json:"financing"`
	NetChangeInCash decimal.Decimal     `json:"net_change_in_cash"`
	BeginningCash   decimal.Decimal     `json:"beginning_cash"`
	EndingCash      decimal.Decimal     `json:"ending_cash"`
	ActualCash      decimal.Decimal     `json:"actual_cash"`
	Discrepancy     decimal.Decimal     `json:"discrepancy"`
	Reconciled      bool                `json:"reconciled"`
}

func toCashFlowDTO(s *ledger.CashFlowStatement) CashFlowDTO {
	return CashFlowDTO{
		From:            s.From.String(),
		To:              s.To.String(),
		NetIncome:       s.NetIncome,
		Operating:       toSectionDTO(s.Operating),
		Investing:       toSectionDTO(s.Investing),
		Financing:       toSectionDTO(s.Financing),
		NetChangeInCash: s.NetChangeInCash,
		BeginningCash:   s.BeginningCash,
		EndingCash:      s.EndingCash,
		ActualCash:      s.ActualCash,
		Discrepancy:     s.Discrepancy,
		Reconciled:      s.Reconciled,
	}
}

// ComparativeTotalDTO compares one statement total across two runs.
type ComparativeTotalDTO struct {
	Label           string           `json:"label"`
	Current         decimal.Decimal  `json:"current"`
	Prior           decimal.Decimal  `json:"prior"`
	Variance        decimal.Decimal  `json:"variance"`
	VariancePercent *decimal.Decimal `json:"variance_percent,omitempty"`
}

func toComparativeTotalDTOs(totals []ledger.ComparativeTotal) []ComparativeTotalDTO {
	dtos := make([]ComparativeTotalDTO, len(totals))
	for i, t := range totals {
		dtos[i] = ComparativeTotalDTO{
			Label:           t.Label,
			Current:         t.Current,
			Prior:           t.Prior,
			Variance:        t.Variance,
			VariancePercent: t.VariancePercent,
		}
	}
	return dtos
}

// ComparativeIncomeStatementDTO pairs two income statement runs.
type ComparativeIncomeStatementDTO struct {
	Current IncomeStatementDTO    `json:"current"`
	Prior   IncomeStatementDTO    `json:"prior"`
	Totals  []ComparativeTotalDTO `json:"totals"`
}

// ComparativeBalanceSheetDTO pairs two balance sheet runs.
type ComparativeBalanceSheetDTO struct {
	Current BalanceSheetDTO       `json:"current"`
	Prior   BalanceSheetDTO       `json:"prior"`
	Totals  []ComparativeTotalDTO `json:"totals"`
}

// ComparativeCashFlowDTO pairs two cash flow runs.
type ComparativeCashFlowDTO struct {
	Current CashFlowDTO           `json:"current"`
	Prior   CashFlowDTO           `json:"prior"`
	Totals  []ComparativeTotalDTO `json:"totals"`
}

// =============================================================================
// BRIDGE
// =============================================================================

// RecordSaleRequest journalizes a completed sale.
type RecordSaleRequest struct {
	OrderID       string          `json:"order_id"`
	Date          string          `json:"date"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	COGS          decimal.Decimal `json:"cogs"`
	ProcessingFee decimal.Decimal `json:"processing_fee"`
	OnAccount     bool            `json:"on_account"`
	EmployeeID    string          `json:"employee_id"`
}

// RecordPurchaseRequest journalizes a received shipment.
type RecordPurchaseRequest struct {
	ShipmentID   string          `json:"shipment_id"`
	Date         string          `json:"date"`
	OrderedCost  decimal.Decimal `json:"ordered_cost"`
	ReceivedCost decimal.Decimal `json:"received_cost"`
	EmployeeID   string          `json:"employee_id"`
}

// RecordReturnRequest journalizes a customer refund.
type RecordReturnRequest struct {
	ReturnID    string          `json:"return_id"`
	OrderID     string          `json:"order_id"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	RestockCost decimal.Decimal `json:"restock_cost"`
	OnAccount   bool            `json:"on_account"`
	EmployeeID  string          `json:"employee_id"`
}

// RecordPayrollRequest journalizes a pay run.
type RecordPayrollRequest struct {
	RunID      string          `json:"run_id"`
	Date       string          `json:"date"`
	Gross      decimal.Decimal `json:"gross"`
	NetPaid    decimal.Decimal `json:"net_paid"`
	EmployeeID string          `json:"employee_id"`
}

// RecordShrinkageRequest journalizes an inventory write-down.
type RecordShrinkageRequest struct {
	ReferenceID string          `json:"reference_id"`
	Date        string          `json:"date"`
	Cost        decimal.Decimal `json:"cost"`
	Reason      string          `json:"reason"`
	EmployeeID  string          `json:"employee_id"`
}

// =============================================================================
// MISC
// =============================================================================

// SeedChartResponse reports the outcome of seeding the default chart.
type SeedChartResponse struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
