package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newInitChartCommand() *cobra.Command {
	var envPath string

	cmd := &cobra.Command{
		Use:   "init-chart",
		Short: "Seed the default retail chart of accounts",
		Long: `Seeds the standard retail chart (cash, receivables, inventory, payables,
revenue, COGS, operating expenses). Accounts that already exist are left
untouched, so the command is safe to run repeatedly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitChart(envPath)
		},
	}

	cmd.Flags().StringVar(&envPath, "env", "", "path to a .env file (default: ./.env if present)")

	return cmd
}

func runInitChart(envPath string) error {
	_, store, engine, err := openEngine(envPath)
	if err != nil {
		return err
	}
	defer store.Close()

	added, skipped, err := engine.Chart.SeedDefaultChart(context.Background())
	if err != nil {
		return fmt.Errorf("seeding chart: %w", err)
	}

	fmt.Printf("Chart seeded: %d accounts added, %d already present\n", added, skipped)
	return nil
}
