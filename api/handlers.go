/*
handlers.go - HTTP API handlers for the ledger engine

PURPOSE:
  Exposes the ledger engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Accounts:
    GET    /api/accounts               List accounts (?tree=true for hierarchy)
    POST   /api/accounts               Create account
    GET    /api/accounts/{id}          Get account
    GET    /api/accounts/{id}/balance  Balance as of a date
    GET    /api/accounts/{id}/ledger   Account ledger over a range
    POST   /api/accounts/{id}/deactivate
    POST   /api/accounts/{id}/reactivate
    DELETE /api/accounts/{id}          Delete (only when unreferenced)

  Entries:
    GET    /api/entries                List entries (status/source/type/date filters)
    POST   /api/entries                Create entry (optionally post immediately)
    GET    /api/entries/{id}           Get entry with lines
    POST   /api/entries/{id}/post      Post a draft
    POST   /api/entries/{id}/unpost    Revert to draft
    POST   /api/entries/{id}/void      Void with a reversing entry
    DELETE /api/entries/{id}           Delete a draft

  Periods:
    GET    /api/periods                List fiscal periods
    POST   /api/periods                Create period
    GET    /api/periods/{id}           Get period
    POST   /api/periods/{id}/close     Close with retained earnings roll-forward
    GET    /api/periods/{id}/retained-earnings

  Reports:
    GET    /api/reports/trial-balance     ?as_of=
    GET    /api/reports/income-statement  ?from=&to= (+prior_from/prior_to)
    GET    /api/reports/balance-sheet     ?as_of= (+prior)
    GET    /api/reports/cash-flow         ?from=&to= (+prior_from/prior_to)
    GET    /api/reports/general-ledger    ?account_id=&from=&to=

  Bridge:
    POST   /api/bridge/sales, /purchases, /returns, /payroll, /shrinkage

  Admin:
    POST   /api/admin/seed-chart       Seed the default retail chart

ERROR HANDLING:
  Errors map to HTTP status via the domain classifiers:
  - 400: validation failures
  - 404: missing account/entry/period
  - 409: rejected state transitions (double-post, closed period)
  - 503: transient storage failures (safe to retry)
  - 500: everything else

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/ledger-engine/bridge"
	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *ledger.Engine
	Bridge *bridge.Bridge
}

// NewHandler creates a handler around the engine and its bridge.
func NewHandler(engine *ledger.Engine, b *bridge.Bridge) *Handler {
	return &Handler{Engine: engine, Bridge: b}
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns the chart, flat or as a tree.
// GET /api/accounts?tree=true
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("tree") == "true" {
		nodes, err := h.Engine.Chart.AccountTree(r.Context(), "")
		if err != nil {
			writeDomainError(w, "Failed to build account tree", err)
			return
		}
		writeJSON(w, http.StatusOK, toAccountNodeDTOs(nodes))
		return
	}

	accounts, err := h.Engine.Chart.ListAccounts(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list accounts", err)
		return
	}
	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAccount creates a new account.
// POST /api/accounts
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	account, err := h.Engine.Chart.CreateAccount(r.Context(), ledger.AccountSpec{
		Number:        req.Number,
		Name:          req.Name,
		Type:          ledger.AccountType(req.Type),
		Subtype:       ledger.AccountSubtype(req.Subtype),
		NormalBalance: ledger.NormalBalance(req.NormalBalance),
		ParentID:      req.ParentID,
		Description:   req.Description,
	})
	if err != nil {
		writeDomainError(w, "Failed to create account", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(*account))
}

// GetAccount returns one account.
// GET /api/accounts/{id}
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.Engine.Chart.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get account", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(*account))
}

// GetAccountBalance returns the account's balance as of a date.
// GET /api/accounts/{id}/balance?as_of=2025-03-31
func (h *Handler) GetAccountBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	asOf, ok := dateParam(w, r, "as_of", ledger.Today())
	if !ok {
		return
	}

	balance, err := h.Engine.Balances.AccountBalance(r.Context(), id, asOf)
	if err != nil {
		writeDomainError(w, "Failed to compute balance", err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{AccountID: id, AsOf: asOf.String(), Balance: balance})
}

// GetAccountLedger returns the account's activity over a range.
// GET /api/accounts/{id}/ledger?from=2025-01-01&to=2025-03-31
func (h *Handler) GetAccountLedger(w http.ResponseWriter, r *http.Request) {
	from, ok := requiredDateParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := requiredDateParam(w, r, "to")
	if !ok {
		return
	}

	view, err := h.Engine.Balances.AccountLedger(r.Context(), chi.URLParam(r, "id"), from, to)
	if err != nil {
		writeDomainError(w, "Failed to build account ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountLedgerDTO(*view))
}

// DeactivateAccount hides an account from new entries. History is untouched.
// POST /api/accounts/{id}/deactivate
func (h *Handler) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Chart.DeactivateAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to deactivate account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReactivateAccount makes an account usable again.
// POST /api/accounts/{id}/reactivate
func (h *Handler) ReactivateAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Chart.ReactivateAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to reactivate account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount removes an account that no line references.
// DELETE /api/accounts/{id}
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Chart.DeleteAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ENTRY HANDLERS
// =============================================================================

// ListEntries returns entries matching the query filters.
// GET /api/entries?status=posted&source=sale&from=2025-01-01&to=2025-03-31
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ledger.EntryFilter{
		Status: ledger.EntryStatus(q.Get("status")),
		Source: ledger.TransactionSource(q.Get("source")),
		Type:   ledger.EntryType(q.Get("type")),
	}
	var ok bool
	if filter.From, ok = dateParam(w, r, "from", ledger.Date{}); !ok {
		return
	}
	if filter.To, ok = dateParam(w, r, "to", ledger.Date{}); !ok {
		return
	}

	entries, err := h.Engine.Journal.ListEntries(r.Context(), filter)
	if err != nil {
		writeDomainError(w, "Failed to list entries", err)
		return
	}
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEntry creates a journal entry, optionally posting it immediately.
// POST /api/entries
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry date", err)
		return
	}

	entryReq := ledger.EntryRequest{
		Date:        date,
		Type:        ledger.EntryType(req.Type),
		Source:      ledger.TransactionSource(req.Source),
		SourceID:    req.SourceID,
		Description: req.Description,
		CreatedBy:   req.CreatedBy,
	}
	for _, l := range req.Lines {
		entryReq.Lines = append(entryReq.Lines, ledger.LineRequest{
			AccountID:   l.AccountID,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
		})
	}

	var entry *ledger.JournalEntry
	if req.Post {
		entry, err = h.Engine.Journal.CreateAndPost(r.Context(), entryReq)
	} else {
		entry, err = h.Engine.Journal.CreateEntry(r.Context(), entryReq)
	}
	if err != nil {
		writeDomainError(w, "Failed to create entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(*entry))
}

// GetEntry returns one entry with its lines.
// GET /api/entries/{id}
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Engine.Journal.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(*entry))
}

// PostEntry commits a draft entry to the ledger.
// POST /api/entries/{id}/post
func (h *Handler) PostEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Engine.Journal.PostEntry(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to post entry", err)
		return
	}
	entry, err := h.Engine.Journal.GetEntry(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to reload entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(*entry))
}

// UnpostEntry reverts a posted entry to draft while its period is open.
// POST /api/entries/{id}/unpost
func (h *Handler) UnpostEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Engine.Journal.UnpostEntry(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to unpost entry", err)
		return
	}
	entry, err := h.Engine.Journal.GetEntry(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to reload entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(*entry))
}

// VoidEntry voids a posted entry by generating its reversing entry. The
// response is the reversing entry.
// POST /api/entries/{id}/void
func (h *Handler) VoidEntry(w http.ResponseWriter, r *http.Request) {
	var req VoidEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	reversing, err := h.Engine.Journal.VoidEntry(r.Context(), chi.URLParam(r, "id"), req.Reason, req.Actor)
	if err != nil {
		writeDomainError(w, "Failed to void entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(*reversing))
}

// DeleteEntry removes a draft entry.
// DELETE /api/entries/{id}
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Journal.DeleteEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

// ListPeriods returns all fiscal periods.
// GET /api/periods
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Engine.Periods.ListPeriods(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list periods", err)
		return
	}
	dtos := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = toPeriodDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePeriod creates a new fiscal period.
// POST /api/periods
func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req CreatePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	start, err := ledger.ParseDate(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date", err)
		return
	}
	end, err := ledger.ParseDate(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date", err)
		return
	}

	period, err := h.Engine.Periods.CreatePeriod(r.Context(), req.Name, start, end)
	if err != nil {
		writeDomainError(w, "Failed to create period", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPeriodDTO(*period))
}

// GetPeriod returns one fiscal period.
// GET /api/periods/{id}
func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	period, err := h.Engine.Periods.GetPeriod(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get period", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(*period))
}

// ClosePeriod closes a period: posts the closing entry and records the
// retained earnings roll-forward.
// POST /api/periods/{id}/close
func (h *Handler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	var req ClosePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	re, err := h.Engine.Periods.ClosePeriod(r.Context(), chi.URLParam(r, "id"), req.Dividends, req.Actor)
	if err != nil {
		writeDomainError(w, "Failed to close period", err)
		return
	}
	writeJSON(w, http.StatusOK, toRetainedEarningsDTO(*re))
}

// GetRetainedEarnings returns the roll-forward record for a closed period.
// GET /api/periods/{id}/retained-earnings
func (h *Handler) GetRetainedEarnings(w http.ResponseWriter, r *http.Request) {
	re, err := h.Engine.Periods.RetainedEarningsFor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get retained earnings", err)
		return
	}
	if re == nil {
		writeError(w, http.StatusNotFound, "Period has not been closed", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRetainedEarningsDTO(*re))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetTrialBalance returns the trial balance as of a date.
// GET /api/reports/trial-balance?as_of=2025-03-31
func (h *Handler) GetTrialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, ok := dateParam(w, r, "as_of", ledger.Today())
	if !ok {
		return
	}
	tb, err := h.Engine.Statements.TrialBalance(r.Context(), asOf)
	if err != nil {
		writeDomainError(w, "Failed to compute trial balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toTrialBalanceDTO(tb))
}

// GetIncomeStatement returns the income statement over a range, comparative
// when prior_from/prior_to are supplied.
// GET /api/reports/income-statement?from=&to=&prior_from=&prior_to=
func (h *Handler) GetIncomeStatement(w http.ResponseWriter, r *http.Request) {
	from, ok := requiredDateParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := requiredDateParam(w, r, "to")
	if !ok {
		return
	}

	if r.URL.Query().Get("prior_from") != "" {
		priorFrom, ok := requiredDateParam(w, r, "prior_from")
		if !ok {
			return
		}
		priorTo, ok := requiredDateParam(w, r, "prior_to")
		if !ok {
			return
		}
		cmp, err := h.Engine.Statements.ComparativeIncomeStatement(r.Context(), from, to, priorFrom, priorTo)
		if err != nil {
			writeDomainError(w, "Failed to compute comparative income statement", err)
			return
		}
		writeJSON(w, http.StatusOK, ComparativeIncomeStatementDTO{
			Current: toIncomeStatementDTO(cmp.Current),
			Prior:   toIncomeStatementDTO(cmp.Prior),
			Totals:  toComparativeTotalDTOs(cmp.Totals),
		})
		return
	}

	stmt, err := h.Engine.Statements.IncomeStatement(r.Context(), from, to)
	if err != nil {
		writeDomainError(w, "Failed to compute income statement", err)
		return
	}
	writeJSON(w, http.StatusOK, toIncomeStatementDTO(stmt))
}

// GetBalanceSheet returns the balance sheet as of a date, comparative when
// prior is supplied.
// GET /api/reports/balance-sheet?as_of=&prior=
func (h *Handler) GetBalanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, ok := dateParam(w, r, "as_of", ledger.Today())
	if !ok {
		return
	}

	if r.URL.Query().Get("prior") != "" {
		prior, ok := requiredDateParam(w, r, "prior")
		if !ok {
			return
		}
		cmp, err := h.Engine.Statements.ComparativeBalanceSheet(r.Context(), asOf, prior)
		if err != nil {
			writeDomainError(w, "Failed to compute comparative balance sheet", err)
			return
		}
		writeJSON(w, http.StatusOK, ComparativeBalanceSheetDTO{
			Current: toBalanceSheetDTO(cmp.Current),
			Prior:   toBalanceSheetDTO(cmp.Prior),
			Totals:  toComparativeTotalDTOs(cmp.Totals),
		})
		return
	}

	bs, err := h.Engine.Statements.BalanceSheet(r.Context(), asOf)
	if err != nil {
		writeDomainError(w, "Failed to compute balance sheet", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceSheetDTO(bs))
}

// GetCashFlow returns the cash flow statement over a range, comparative when
// prior_from/prior_to are supplied.
// GET /api/reports/cash-flow?from=&to=&prior_from=&prior_to=
func (h *Handler) GetCashFlow(w http.ResponseWriter, r *http.Request) {
	from, ok := requiredDateParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := requiredDateParam(w, r, "to")
	if !ok {
		return
	}

	if r.URL.Query().Get("prior_from") != "" {
		priorFrom, ok := requiredDateParam(w, r, "prior_from")
		if !ok {
			return
		}
		priorTo, ok := requiredDateParam(w, r, "prior_to")
		if !ok {
			return
		}
		cmp, err := h.Engine.Statements.ComparativeCashFlow(r.Context(), from, to, priorFrom, priorTo)
		if err != nil {
			writeDomainError(w, "Failed to compute comparative cash flow", err)
			return
		}
		writeJSON(w, http.StatusOK, ComparativeCashFlowDTO{
			Current: toCashFlowDTO(cmp.Current),
			Prior:   toCashFlowDTO(cmp.Prior),
			Totals:  toComparativeTotalDTOs(cmp.Totals),
		})
		return
	}

	cf, err := h.Engine.Statements.CashFlow(r.Context(), from, to)
	if err != nil {
		writeDomainError(w, "Failed to compute cash flow", err)
		return
	}
	writeJSON(w, http.StatusOK, toCashFlowDTO(cf))
}

// GetGeneralLedger returns the cross-account ledger export.
// GET /api/reports/general-ledger?account_id=&from=&to=&source=
func (h *Handler) GetGeneralLedger(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ledger.LineFilter{
		AccountID: q.Get("account_id"),
		Source:    ledger.TransactionSource(q.Get("source")),
	}
	var ok bool
	if filter.From, ok = dateParam(w, r, "from", ledger.Date{}); !ok {
		return
	}
	if filter.To, ok = dateParam(w, r, "to", ledger.Date{}); !ok {
		return
	}

	rows, err := h.Engine.Balances.GeneralLedger(r.Context(), filter)
	if err != nil {
		writeDomainError(w, "Failed to build general ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, toGeneralLedgerDTOs(rows))
}

// =============================================================================
// BRIDGE HANDLERS
// =============================================================================

// RecordSale journalizes a completed sale.
// POST /api/bridge/sales
func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var req RecordSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	entry, err := h.Bridge.RecordSale(r.Context(), bridge.Sale{
		OrderID:       req.OrderID,
		Date:          date,
		Subtotal:      req.Subtotal,
		Tax:           req.Tax,
		COGS:          req.COGS,
		ProcessingFee: req.ProcessingFee,
		OnAccount:     req.OnAccount,
		EmployeeID:    req.EmployeeID,
	})
	if err != nil {
		writeDomainError(w, "Failed to record sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(*entry))
}

// RecordPurchase journalizes a received shipment.
// POST /api/bridge/purchases
func (h *Handler) RecordPurchase(w http.ResponseWriter, r *http.Request) {
	var req RecordPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	entry, err := h.Bridge.RecordPurchase(r.Context(), bridge.Purchase{
		ShipmentID:   req.ShipmentID,
		Date:         date,
		OrderedCost:  req.OrderedCost,
		ReceivedCost: req.ReceivedCost,
		EmployeeID:   req.EmployeeID,
	})
	if err != nil {
		writeDomainError(w, "Failed to record purchase", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(*entry))
}

// RecordReturn journalizes a customer refund.
// POST /api/bridge/returns
func (h *Handler) RecordReturn(w http.ResponseWriter, r *http.Request) {
	var req RecordReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	entry, err := h.Bridge.RecordReturn(r.Context(), bridge.Return{
		ReturnID:    req.ReturnID,
		OrderID:     req.OrderID,
		Date:        date,
		Amount:      req.Amount,
		RestockCost: req.RestockCost,
		OnAccount:   req.OnAccount,
		EmployeeID:  req.EmployeeID,
	})
	if err != nil {
		writeDomainError(w, "Failed to record return", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(*entry))
}

// RecordPayroll journalizes a pay run.
// POST /api/bridge/payroll
func (h *Handler) RecordPayroll(w http.ResponseWriter, r *http.Request) {
	var req RecordPayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	entry, err := h.Bridge.RecordPayroll(r.Context(), bridge.Payroll{
		RunID:      req.RunID,
		Date:       date,
		Gross:      req.Gross,
		NetPaid:    req.NetPaid,
		EmployeeID: req.EmployeeID,
	})
	if err != nil {
		writeDomainError(w, "Failed to record payroll", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(*entry))
}

// RecordShrinkage journalizes an inventory write-down.
// POST /api/bridge/shrinkage
func (h *Handler) RecordShrinkage(w http.ResponseWriter, r *http.Request) {
	var req RecordShrinkageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	entry, err := h.Bridge.RecordShrinkage(r.Context(), bridge.Shrinkage{
		ReferenceID: req.ReferenceID,
		Date:        date,
		Cost:        req.Cost,
		Reason:      req.Reason,
		EmployeeID:  req.EmployeeID,
	})
	if err != nil {
		writeDomainError(w, "Failed to record shrinkage", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(*entry))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// SeedChart seeds the default retail chart of accounts. Idempotent.
// POST /api/admin/seed-chart
func (h *Handler) SeedChart(w http.ResponseWriter, r *http.Request) {
	added, skipped, err := h.Engine.Chart.SeedDefaultChart(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to seed chart", err)
		return
	}
	writeJSON(w, http.StatusOK, SeedChartResponse{Added: added, Skipped: skipped})
}

// =============================================================================
// HELPERS
// =============================================================================

// dateParam parses an optional query date, falling back to def when absent.
func dateParam(w http.ResponseWriter, r *http.Request, name string, def ledger.Date) (ledger.Date, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	d, err := ledger.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+name+" date", err)
		return ledger.Date{}, false
	}
	return d, true
}

// requiredDateParam parses a mandatory query date.
func requiredDateParam(w http.ResponseWriter, r *http.Request, name string) (ledger.Date, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameter "+name, nil)
		return ledger.Date{}, false
	}
	d, err := ledger.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+name+" date", err)
		return ledger.Date{}, false
	}
	return d, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain error categories to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case ledger.IsValidation(err):
		writeError(w, http.StatusBadRequest, message, err)
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case ledger.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case ledger.IsRetryable(err):
		writeError(w, http.StatusServiceUnavailable, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
