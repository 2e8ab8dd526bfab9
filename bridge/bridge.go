/*
Package bridge turns operational facts into balanced journal entries.

PURPOSE:
  Producers (point of sale, receiving dock, payroll run) know about orders
  and shipments, not about debits and credits. The bridge owns the mapping
  from each business event to the accounts it touches, so producers submit
  one typed struct and the journal engine does the rest.

MAPPINGS:
  Sale:      cash/AR + fee expense vs revenue + tax payable, plus COGS
             against inventory relief
  Purchase:  inventory vs accounts payable, with a discrepancy leg when
             received cost differs from ordered cost
  Return:    sales returns (contra revenue) vs the refund account, with an
             optional restock leg reversing COGS
  Payroll:   wages expense vs cash paid and wages payable accrued
  Shrinkage: shrinkage expense vs inventory

POSTING POLICY:
  AutoPost decides whether entries land posted or stay drafts for review.
  Either way, construction and validation are identical.

SEE ALSO:
  - ledger/journal.go: the entry state machine the bridge feeds
  - ledger/defaults.go: the account numbers the mappings refer to
*/
package bridge

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/warp/ledger-engine/ledger"
)

// Standard chart positions the journalizers wire to. Callers with a custom
// chart can override them on the Bridge.
const (
	AccountCash             = "1000"
	AccountReceivable       = "1100"
	AccountInventory        = "1200"
	AccountPayable          = "2000"
	AccountSalesTaxPayable  = "2100"
	AccountWagesPayable     = "2200"
	AccountSalesRevenue     = "4000"
	AccountSalesReturns     = "4100"
	AccountCOGS             = "5000"
	AccountShrinkage        = "5100"
	AccountWagesExpense     = "6000"
	AccountBankFees         = "6700"
	AccountShipmentVariance = "6900"
)

// Bridge builds and submits entries for source transactions.
type Bridge struct {
	journal  *ledger.JournalService
	chart    *ledger.ChartService
	autoPost bool
}

func New(engine *ledger.Engine, autoPost bool) *Bridge {
	return &Bridge{
		journal:  engine.Journal,
		chart:    engine.Chart,
		autoPost: autoPost,
	}
}

// Sale is a completed point-of-sale order.
type Sale struct {
	OrderID       string
	Date          ledger.Date
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	COGS          decimal.Decimal
	ProcessingFee decimal.Decimal
	OnAccount     bool // true when sold on credit rather than paid in cash
	EmployeeID    string
}

// RecordSale journalizes a sale. The payment leg receives subtotal plus tax
// net of the processor's fee; the fee lands in bank fees so revenue stays
// gross.
func (b *Bridge) RecordSale(ctx context.Context, s Sale) (*ledger.JournalEntry, error) {
	if s.Subtotal.Sign() <= 0 {
		return nil, &ledger.ValidationError{Code: "empty_sale", Message: "sale subtotal must be positive"}
	}

	paymentAccount := AccountCash
	if s.OnAccount {
		paymentAccount = AccountReceivable
	}

	received := s.Subtotal.Add(s.Tax).Sub(s.ProcessingFee)
	lines := []numberedLine{
		{paymentAccount, received, decimal.Zero, "Payment received"},
		{AccountSalesRevenue, decimal.Zero, s.Subtotal, "Sales revenue"},
	}
	if s.Tax.Sign() > 0 {
		lines = append(lines, numberedLine{AccountSalesTaxPayable, decimal.Zero, s.Tax, "Sales tax collected"})
	}
	if s.ProcessingFee.Sign() > 0 {
		lines = append(lines, numberedLine{AccountBankFees, s.ProcessingFee, decimal.Zero, "Payment processing fee"})
	}
	if s.COGS.Sign() > 0 {
		lines = append(lines,
			numberedLine{AccountCOGS, s.COGS, decimal.Zero, "Cost of goods sold"},
			numberedLine{AccountInventory, decimal.Zero, s.COGS, "Inventory relieved"},
		)
	}

	return b.submit(ctx, ledger.EntryRequest{
		Date:        s.Date,
		Source:      ledger.SourceSale,
		SourceID:    s.OrderID,
		Description: "Sale " + s.OrderID,
		CreatedBy:   s.EmployeeID,
	}, lines)
}

// Purchase is a vendor shipment received into inventory.
type Purchase struct {
	ShipmentID   string
	Date         ledger.Date
	OrderedCost  decimal.Decimal // what the purchase order promised
	ReceivedCost decimal.Decimal // what actually arrived
	EmployeeID   string
}

// RecordPurchase journalizes a received shipment. The vendor is owed the
// ordered cost; any shortfall against what arrived is recognized as
// shipment variance rather than silently inflating inventory.
func (b *Bridge) RecordPurchase(ctx context.Context, p Purchase) (*ledger.JournalEntry, error) {
	if p.OrderedCost.Sign() <= 0 {
		return nil, &ledger.ValidationError{Code: "empty_purchase", Message: "ordered cost must be positive"}
	}
	received := p.ReceivedCost
	if received.IsZero() {
		received = p.OrderedCost
	}

	lines := []numberedLine{
		{AccountInventory, received, decimal.Zero, "Inventory received"},
		{AccountPayable, decimal.Zero, p.OrderedCost, "Amount owed to vendor"},
	}
	switch diff := p.OrderedCost.Sub(received); diff.Sign() {
	case 1: // short shipment: paid for more than arrived
		lines = append(lines, numberedLine{AccountShipmentVariance, diff, decimal.Zero, "Shipment shortfall"})
	case -1: // over shipment: arrived more than billed
		lines = append(lines, numberedLine{AccountShipmentVariance, decimal.Zero, diff.Neg(), "Shipment overage"})
	}

	return b.submit(ctx, ledger.EntryRequest{
		Date:        p.Date,
		Source:      ledger.SourceShipment,
		SourceID:    p.ShipmentID,
		Description: "Shipment " + p.ShipmentID + " received",
		CreatedBy:   p.EmployeeID,
	}, lines)
}

// Return is a customer refund.
type Return struct {
	ReturnID    string
	OrderID     string
	Date        ledger.Date
	Amount      decimal.Decimal
	RestockCost decimal.Decimal // zero when goods are not resellable
	OnAccount   bool            // refund against the customer's balance
	EmployeeID  string
}

// RecordReturn journalizes a refund. Revenue is reduced through the contra
// account so gross sales stay intact for reporting.
func (b *Bridge) RecordReturn(ctx context.Context, r Return) (*ledger.JournalEntry, error) {
	if r.Amount.Sign() <= 0 {
		return nil, &ledger.ValidationError{Code: "empty_return", Message: "return amount must be positive"}
	}

	refundAccount := AccountCash
	if r.OnAccount {
		refundAccount = AccountReceivable
	}

	lines := []numberedLine{
		{AccountSalesReturns, r.Amount, decimal.Zero, "Customer return"},
		{refundAccount, decimal.Zero, r.Amount, "Refund issued"},
	}
	if r.RestockCost.Sign() > 0 {
		lines = append(lines,
			numberedLine{AccountInventory, r.RestockCost, decimal.Zero, "Goods restocked"},
			numberedLine{AccountCOGS, decimal.Zero, r.RestockCost, "Cost of goods reversed"},
		)
	}

	return b.submit(ctx, ledger.EntryRequest{
		Date:        r.Date,
		Source:      ledger.SourceReturn,
		SourceID:    r.ReturnID,
		Description: "Return " + r.ReturnID + " for order " + r.OrderID,
		CreatedBy:   r.EmployeeID,
	}, lines)
}

// Payroll is one pay run.
type Payroll struct {
	RunID      string
	Date       ledger.Date
	Gross      decimal.Decimal
	NetPaid    decimal.Decimal // cash out the door; the rest accrues as payable
	EmployeeID string
}

// RecordPayroll journalizes a pay run: gross wages expensed, net paid in
// cash, and the withheld remainder accrued.
func (b *Bridge) RecordPayroll(ctx context.Context, p Payroll) (*ledger.JournalEntry, error) {
	if p.Gross.Sign() <= 0 {
		return nil, &ledger.ValidationError{Code: "empty_payroll", Message: "gross wages must be positive"}
	}
	if p.NetPaid.GreaterThan(p.Gross) {
		return nil, &ledger.ValidationError{Code: "net_exceeds_gross", Message: "net paid cannot exceed gross wages"}
	}

	lines := []numberedLine{
		{AccountWagesExpense, p.Gross, decimal.Zero, "Gross wages"},
	}
	if p.NetPaid.Sign() > 0 {
		lines = append(lines, numberedLine{AccountCash, decimal.Zero, p.NetPaid, "Net wages paid"})
	}
	if withheld := p.Gross.Sub(p.NetPaid); withheld.Sign() > 0 {
		lines = append(lines, numberedLine{AccountWagesPayable, decimal.Zero, withheld, "Wages withheld"})
	}

	return b.submit(ctx, ledger.EntryRequest{
		Date:        p.Date,
		Source:      ledger.SourcePayroll,
		SourceID:    p.RunID,
		Description: "Payroll run " + p.RunID,
		CreatedBy:   p.EmployeeID,
	}, lines)
}

// Shrinkage is an inventory write-down from a count or damage report.
type Shrinkage struct {
	ReferenceID string
	Date        ledger.Date
	Cost        decimal.Decimal
	Reason      string
	EmployeeID  string
}

// RecordShrinkage journalizes inventory loss.
func (b *Bridge) RecordShrinkage(ctx context.Context, s Shrinkage) (*ledger.JournalEntry, error) {
	if s.Cost.Sign() <= 0 {
		return nil, &ledger.ValidationError{Code: "empty_shrinkage", Message: "shrinkage cost must be positive"}
	}

	desc := "Inventory shrinkage"
	if s.Reason != "" {
		desc = desc + ": " + s.Reason
	}
	lines := []numberedLine{
		{AccountShrinkage, s.Cost, decimal.Zero, desc},
		{AccountInventory, decimal.Zero, s.Cost, "Inventory written down"},
	}

	return b.submit(ctx, ledger.EntryRequest{
		Date:        s.Date,
		Source:      ledger.SourceAdjustment,
		SourceID:    s.ReferenceID,
		Description: desc,
		CreatedBy:   s.EmployeeID,
	}, lines)
}

// numberedLine is a leg addressed by account number instead of account ID.
type numberedLine struct {
	number      string
	debit       decimal.Decimal
	credit      decimal.Decimal
	description string
}

// submit resolves account numbers to IDs and hands the entry to the journal
// engine, honoring the auto-post policy.
func (b *Bridge) submit(ctx context.Context, req ledger.EntryRequest, lines []numberedLine) (*ledger.JournalEntry, error) {
	for _, l := range lines {
		account, err := b.chart.GetAccountByNumber(ctx, l.number)
		if err != nil {
			return nil, &ledger.ValidationError{Code: "unmapped_account",
				Message: "account " + l.number + " is not in the chart"}
		}
		req.Lines = append(req.Lines, ledger.LineRequest{
			AccountID:   account.ID,
			Debit:       l.debit,
			Credit:      l.credit,
			Description: l.description,
		})
	}

	if b.autoPost {
		return b.journal.CreateAndPost(ctx, req)
	}
	return b.journal.CreateEntry(ctx, req)
}
