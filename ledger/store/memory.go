// Package store provides an in-memory ledger.Store for tests and development.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements ledger.Store with mutex-guarded maps. WithTx serializes
// against all other writes and rolls back by snapshot, giving the same
// all-or-nothing semantics the SQLite store gets from real transactions.
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]ledger.Account
	entries  map[string]ledger.JournalEntry
	periods  map[string]ledger.FiscalPeriod
	retained map[string]ledger.RetainedEarnings // keyed by period ID
	seqs     map[int]int                        // year -> last entry sequence
}

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]ledger.Account),
		entries:  make(map[string]ledger.JournalEntry),
		periods:  make(map[string]ledger.FiscalPeriod),
		retained: make(map[string]ledger.RetainedEarnings),
		seqs:     make(map[int]int),
	}
}

// --- Chart of accounts ---

func (m *Memory) InsertAccount(_ context.Context, a ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertAccountLocked(a)
}

func (m *Memory) insertAccountLocked(a ledger.Account) error {
	for _, existing := range m.accounts {
		if existing.Number == a.Number {
			return &ledger.ValidationError{Code: "duplicate_number",
				Message: "account number " + a.Number + " already exists"}
		}
	}
	m.accounts[a.ID] = a
	return nil
}

func (m *Memory) UpdateAccount(_ context.Context, a ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateAccountLocked(a)
}

func (m *Memory) updateAccountLocked(a ledger.Account) error {
	if _, ok := m.accounts[a.ID]; !ok {
		return ledger.ErrAccountNotFound
	}
	m.accounts[a.ID] = a
	return nil
}

func (m *Memory) GetAccount(_ context.Context, id string) (*ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getAccountLocked(id)
}

func (m *Memory) getAccountLocked(id string) (*ledger.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	return &a, nil
}

func (m *Memory) GetAccountByNumber(_ context.Context, number string) (*ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getAccountByNumberLocked(number)
}

func (m *Memory) getAccountByNumberLocked(number string) (*ledger.Account, error) {
	for _, a := range m.accounts {
		if a.Number == number {
			result := a
			return &result, nil
		}
	}
	return nil, ledger.ErrAccountNotFound
}

func (m *Memory) ListAccounts(_ context.Context) ([]ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listAccountsLocked()
}

func (m *Memory) listAccountsLocked() ([]ledger.Account, error) {
	result := make([]ledger.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (m *Memory) DeleteAccount(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteAccountLocked(id)
}

func (m *Memory) deleteAccountLocked(id string) error {
	if _, ok := m.accounts[id]; !ok {
		return ledger.ErrAccountNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *Memory) AccountHasLines(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accountHasLinesLocked(id)
}

func (m *Memory) accountHasLinesLocked(id string) (bool, error) {
	for _, e := range m.entries {
		for _, l := range e.Lines {
			if l.AccountID == id {
				return true, nil
			}
		}
	}
	return false, nil
}

// --- Journal entries ---

func (m *Memory) InsertEntry(_ context.Context, e ledger.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertEntryLocked(e)
}

func (m *Memory) insertEntryLocked(e ledger.JournalEntry) error {
	e.Lines = append([]ledger.JournalLine(nil), e.Lines...)
	m.entries[e.ID] = e
	return nil
}

func (m *Memory) GetEntry(_ context.Context, id string) (*ledger.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getEntryLocked(id)
}

func (m *Memory) getEntryLocked(id string) (*ledger.JournalEntry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, ledger.ErrEntryNotFound
	}
	e.Lines = append([]ledger.JournalLine(nil), e.Lines...)
	return &e, nil
}

func (m *Memory) ListEntries(_ context.Context, f ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listEntriesLocked(f)
}

func (m *Memory) listEntriesLocked(f ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	var result []ledger.JournalEntry
	for _, e := range m.entries {
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.Source != "" && e.Source != f.Source {
			continue
		}
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if !f.From.IsZero() && e.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.Date.After(f.To) {
			continue
		}
		e.Lines = append([]ledger.JournalLine(nil), e.Lines...)
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].Number < result[j].Number
	})
	return result, nil
}

func (m *Memory) DeleteEntry(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteEntryLocked(id)
}

func (m *Memory) deleteEntryLocked(id string) error {
	if _, ok := m.entries[id]; !ok {
		return ledger.ErrEntryNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *Memory) MarkPosted(_ context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markPostedLocked(id, at)
}

func (m *Memory) markPostedLocked(id string, at time.Time) (bool, error) {
	e, ok := m.entries[id]
	if !ok {
		return false, ledger.ErrEntryNotFound
	}
	if e.Status != ledger.StatusDraft {
		return false, nil
	}
	e.Status = ledger.StatusPosted
	e.PostedAt = at
	m.entries[id] = e
	return true, nil
}

func (m *Memory) MarkUnposted(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markUnpostedLocked(id)
}

func (m *Memory) markUnpostedLocked(id string) (bool, error) {
	e, ok := m.entries[id]
	if !ok {
		return false, ledger.ErrEntryNotFound
	}
	if e.Status != ledger.StatusPosted {
		return false, nil
	}
	e.Status = ledger.StatusDraft
	e.PostedAt = time.Time{}
	m.entries[id] = e
	return true, nil
}

func (m *Memory) MarkVoided(_ context.Context, id, reason, reversedByID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markVoidedLocked(id, reason, reversedByID)
}

func (m *Memory) markVoidedLocked(id, reason, reversedByID string) (bool, error) {
	e, ok := m.entries[id]
	if !ok {
		return false, ledger.ErrEntryNotFound
	}
	if e.Status != ledger.StatusPosted {
		return false, nil
	}
	e.Status = ledger.StatusVoided
	e.VoidReason = reason
	e.ReversedByID = reversedByID
	m.entries[id] = e
	return true, nil
}

func (m *Memory) NextEntrySequence(_ context.Context, year int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextEntrySequenceLocked(year)
}

func (m *Memory) nextEntrySequenceLocked(year int) (int, error) {
	m.seqs[year]++
	return m.seqs[year], nil
}

func (m *Memory) CountDrafts(_ context.Context, from, to ledger.Date) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countDraftsLocked(from, to)
}

func (m *Memory) countDraftsLocked(from, to ledger.Date) (int, error) {
	count := 0
	for _, e := range m.entries {
		if e.Status == ledger.StatusDraft &&
			e.Date.AfterOrEqual(from) && e.Date.BeforeOrEqual(to) {
			count++
		}
	}
	return count, nil
}

func (m *Memory) PostedLines(_ context.Context, f ledger.LineFilter) ([]ledger.PostedLine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.postedLinesLocked(f)
}

func (m *Memory) postedLinesLocked(f ledger.LineFilter) ([]ledger.PostedLine, error) {
	var result []ledger.PostedLine
	for _, e := range m.entries {
		// Voided originals stay visible; their reversing entries cancel them.
		if e.Status != ledger.StatusPosted && e.Status != ledger.StatusVoided {
			continue
		}
		if f.Source != "" && e.Source != f.Source {
			continue
		}
		if f.ExcludeType != "" && e.Type == f.ExcludeType {
			continue
		}
		if !f.From.IsZero() && e.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.Date.After(f.To) {
			continue
		}
		for _, l := range e.Lines {
			if f.AccountID != "" && l.AccountID != f.AccountID {
				continue
			}
			result = append(result, ledger.PostedLine{
				EntryID:     e.ID,
				EntryNumber: e.Number,
				EntryDate:   e.Date,
				EntryType:   e.Type,
				Status:      e.Status,
				Source:      e.Source,
				LineNumber:  l.LineNumber,
				AccountID:   l.AccountID,
				Debit:       l.Debit,
				Credit:      l.Credit,
				Description: l.Description,
			})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].EntryDate.Equal(result[j].EntryDate) {
			return result[i].EntryDate.Before(result[j].EntryDate)
		}
		if result[i].EntryNumber != result[j].EntryNumber {
			return result[i].EntryNumber < result[j].EntryNumber
		}
		return result[i].LineNumber < result[j].LineNumber
	})
	return result, nil
}

// --- Fiscal periods ---

func (m *Memory) InsertPeriod(_ context.Context, p ledger.FiscalPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periods[p.ID] = p
	return nil
}

func (m *Memory) GetPeriod(_ context.Context, id string) (*ledger.FiscalPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getPeriodLocked(id)
}

func (m *Memory) getPeriodLocked(id string) (*ledger.FiscalPeriod, error) {
	p, ok := m.periods[id]
	if !ok {
		return nil, ledger.ErrPeriodNotFound
	}
	return &p, nil
}

func (m *Memory) ListPeriods(_ context.Context) ([]ledger.FiscalPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listPeriodsLocked()
}

func (m *Memory) listPeriodsLocked() ([]ledger.FiscalPeriod, error) {
	result := make([]ledger.FiscalPeriod, 0, len(m.periods))
	for _, p := range m.periods {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start.Before(result[j].Start) })
	return result, nil
}

func (m *Memory) MarkPeriodClosed(_ context.Context, id string, at time.Time, by string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markPeriodClosedLocked(id, at, by)
}

func (m *Memory) markPeriodClosedLocked(id string, at time.Time, by string) (bool, error) {
	p, ok := m.periods[id]
	if !ok {
		return false, ledger.ErrPeriodNotFound
	}
	if p.Closed {
		return false, nil
	}
	p.Closed = true
	p.ClosedAt = at
	p.ClosedBy = by
	m.periods[id] = p
	return true, nil
}

func (m *Memory) InsertRetainedEarnings(_ context.Context, re ledger.RetainedEarnings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retained[re.PeriodID] = re
	return nil
}

func (m *Memory) GetRetainedEarnings(_ context.Context, periodID string) (*ledger.RetainedEarnings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getRetainedEarningsLocked(periodID)
}

func (m *Memory) getRetainedEarningsLocked(periodID string) (*ledger.RetainedEarnings, error) {
	re, ok := m.retained[periodID]
	if !ok {
		return nil, nil
	}
	return &re, nil
}

func (m *Memory) ListRetainedEarnings(_ context.Context) ([]ledger.RetainedEarnings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listRetainedEarningsLocked()
}

func (m *Memory) listRetainedEarningsLocked() ([]ledger.RetainedEarnings, error) {
	result := make([]ledger.RetainedEarnings, 0, len(m.retained))
	for _, re := range m.retained {
		result = append(result, re)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// =============================================================================
// TRANSACTIONS - snapshot rollback
// =============================================================================

// WithTx holds the write lock for the whole callback, so a transaction
// observes and produces a consistent snapshot. On error every map is
// restored, so partial writes never survive.
func (m *Memory) WithTx(_ context.Context, fn func(ledger.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshotLocked()
	if err := fn(&memoryTx{parent: m}); err != nil {
		m.restoreLocked(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	accounts map[string]ledger.Account
	entries  map[string]ledger.JournalEntry
	periods  map[string]ledger.FiscalPeriod
	retained map[string]ledger.RetainedEarnings
	seqs     map[int]int
}

func (m *Memory) snapshotLocked() memorySnapshot {
	s := memorySnapshot{
		accounts: make(map[string]ledger.Account, len(m.accounts)),
		entries:  make(map[string]ledger.JournalEntry, len(m.entries)),
		periods:  make(map[string]ledger.FiscalPeriod, len(m.periods)),
		retained: make(map[string]ledger.RetainedEarnings, len(m.retained)),
		seqs:     make(map[int]int, len(m.seqs)),
	}
	for k, v := range m.accounts {
		s.accounts[k] = v
	}
	for k, v := range m.entries {
		v.Lines = append([]ledger.JournalLine(nil), v.Lines...)
		s.entries[k] = v
	}
	for k, v := range m.periods {
		s.periods[k] = v
	}
	for k, v := range m.retained {
		s.retained[k] = v
	}
	for k, v := range m.seqs {
		s.seqs[k] = v
	}
	return s
}

func (m *Memory) restoreLocked(s memorySnapshot) {
	m.accounts = s.accounts
	m.entries = s.entries
	m.periods = s.periods
	m.retained = s.retained
	m.seqs = s.seqs
}

// memoryTx proxies Store calls to the parent's unlocked internals. The parent
// holds its write lock for the lifetime of the transaction.
type memoryTx struct {
	parent *Memory
}

func (t *memoryTx) InsertAccount(_ context.Context, a ledger.Account) error {
	return t.parent.insertAccountLocked(a)
}
func (t *memoryTx) UpdateAccount(_ context.Context, a ledger.Account) error {
	return t.parent.updateAccountLocked(a)
}
func (t *memoryTx) GetAccount(_ context.Context, id string) (*ledger.Account, error) {
	return t.parent.getAccountLocked(id)
}
func (t *memoryTx) GetAccountByNumber(_ context.Context, number string) (*ledger.Account, error) {
	return t.parent.getAccountByNumberLocked(number)
}
func (t *memoryTx) ListAccounts(_ context.Context) ([]ledger.Account, error) {
	return t.parent.listAccountsLocked()
}
func (t *memoryTx) DeleteAccount(_ context.Context, id string) error {
	return t.parent.deleteAccountLocked(id)
}
func (t *memoryTx) AccountHasLines(_ context.Context, id string) (bool, error) {
	return t.parent.accountHasLinesLocked(id)
}
func (t *memoryTx) InsertEntry(_ context.Context, e ledger.JournalEntry) error {
	return t.parent.insertEntryLocked(e)
}
func (t *memoryTx) GetEntry(_ context.Context, id string) (*ledger.JournalEntry, error) {
	return t.parent.getEntryLocked(id)
}
func (t *memoryTx) ListEntries(_ context.Context, f ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	return t.parent.listEntriesLocked(f)
}
func (t *memoryTx) DeleteEntry(_ context.Context, id string) error {
	return t.parent.deleteEntryLocked(id)
}
func (t *memoryTx) MarkPosted(_ context.Context, id string, at time.Time) (bool, error) {
	return t.parent.markPostedLocked(id, at)
}
func (t *memoryTx) MarkUnposted(_ context.Context, id string) (bool, error) {
	return t.parent.markUnpostedLocked(id)
}
func (t *memoryTx) MarkVoided(_ context.Context, id, reason, reversedByID string) (bool, error) {
	return t.parent.markVoidedLocked(id, reason, reversedByID)
}
func (t *memoryTx) NextEntrySequence(_ context.Context, year int) (int, error) {
	return t.parent.nextEntrySequenceLocked(year)
}
func (t *memoryTx) CountDrafts(_ context.Context, from, to ledger.Date) (int, error) {
	return t.parent.countDraftsLocked(from, to)
}
func (t *memoryTx) PostedLines(_ context.Context, f ledger.LineFilter) ([]ledger.PostedLine, error) {
	return t.parent.postedLinesLocked(f)
}
func (t *memoryTx) InsertPeriod(_ context.Context, p ledger.FiscalPeriod) error {
	t.parent.periods[p.ID] = p
	return nil
}
func (t *memoryTx) GetPeriod(_ context.Context, id string) (*ledger.FiscalPeriod, error) {
	return t.parent.getPeriodLocked(id)
}
func (t *memoryTx) ListPeriods(_ context.Context) ([]ledger.FiscalPeriod, error) {
	return t.parent.listPeriodsLocked()
}
func (t *memoryTx) MarkPeriodClosed(_ context.Context, id string, at time.Time, by string) (bool, error) {
	return t.parent.markPeriodClosedLocked(id, at, by)
}
func (t *memoryTx) InsertRetainedEarnings(_ context.Context, re ledger.RetainedEarnings) error {
	t.parent.retained[re.PeriodID] = re
	return nil
}
func (t *memoryTx) GetRetainedEarnings(_ context.Context, periodID string) (*ledger.RetainedEarnings, error) {
	return t.parent.getRetainedEarningsLocked(periodID)
}
func (t *memoryTx) ListRetainedEarnings(_ context.Context) ([]ledger.RetainedEarnings, error) {
	return t.parent.listRetainedEarningsLocked()
}
func (t *memoryTx) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	// Already inside a transaction; nested calls run in the same one.
	return fn(t)
}
