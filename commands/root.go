// Package commands wires the ledgerd CLI: the HTTP server plus the
// bookkeeping operations an operator runs from a shell.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/warp/ledger-engine/config"
	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/store/sqlite"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ledgerd",
		Short: "Double-entry ledger engine",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newInitChartCommand())
	rootCmd.AddCommand(newClosePeriodCommand())
	rootCmd.AddCommand(newTrialBalanceCommand())

	return rootCmd
}

// openEngine loads configuration and opens the engine over the configured
// SQLite store. The caller owns the store and must Close it.
func openEngine(envPath string) (*config.Config, *sqlite.Store, *ledger.Engine, error) {
	cfg, err := config.Load(envPath)
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, store, ledger.NewEngine(store), nil
}
