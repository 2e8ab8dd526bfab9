package commands

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newClosePeriodCommand() *cobra.Command {
	var envPath string
	var dividends string
	var actor string

	cmd := &cobra.Command{
		Use:   "close-period <period-id>",
		Short: "Close a fiscal period and roll earnings into retained earnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			div := decimal.Zero
			if dividends != "" {
				parsed, err := decimal.NewFromString(dividends)
				if err != nil {
					return fmt.Errorf("invalid dividends amount %q: %w", dividends, err)
				}
				div = parsed
			}
			return runClosePeriod(envPath, args[0], div, actor)
		},
	}

	cmd.Flags().StringVar(&envPath, "env", "", "path to a .env file (default: ./.env if present)")
	cmd.Flags().StringVar(&dividends, "dividends", "", "dividends declared for the period (default 0)")
	cmd.Flags().StringVar(&actor, "actor", "cli", "who is closing the period (recorded on the period)")

	return cmd
}

func runClosePeriod(envPath, periodID string, dividends decimal.Decimal, actor string) error {
	_, store, engine, err := openEngine(envPath)
	if err != nil {
		return err
	}
	defer store.Close()

	re, err := engine.Periods.ClosePeriod(context.Background(), periodID, dividends, actor)
	if err != nil {
		return err
	}

	fmt.Printf("Period %s closed.\n", periodID)
	fmt.Printf("  Beginning retained earnings: %s\n", re.BeginningBalance.StringFixed(2))
	fmt.Printf("  Net income:                  %s\n", re.NetIncome.StringFixed(2))
	fmt.Printf("  Dividends:                   %s\n", re.Dividends.StringFixed(2))
	fmt.Printf("  Ending retained earnings:    %s\n", re.EndingBalance.StringFixed(2))
	return nil
}
