package ledger

// Engine bundles the ledger services around one Store. It is a convenience
// for wiring: each service is independently usable.
type Engine struct {
	Chart      *ChartService
	Journal    *JournalService
	Balances   *BalanceCalculator
	Statements *StatementGenerator
	Periods    *PeriodService
}

func NewEngine(store Store) *Engine {
	balances := NewBalanceCalculator(store)
	return &Engine{
		Chart:      NewChartService(store),
		Journal:    NewJournalService(store),
		Balances:   balances,
		Statements: NewStatementGenerator(store, balances),
		Periods:    NewPeriodService(store),
	}
}
