package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/ledger-engine/ledger"
)

func newTrialBalanceCommand() *cobra.Command {
	var envPath string
	var asOf string

	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Print the trial balance as of a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date := ledger.Today()
			if asOf != "" {
				parsed, err := ledger.ParseDate(asOf)
				if err != nil {
					return fmt.Errorf("invalid --as-of date %q: %w", asOf, err)
				}
				date = parsed
			}
			return runTrialBalance(envPath, date)
		},
	}

	cmd.Flags().StringVar(&envPath, "env", "", "path to a .env file (default: ./.env if present)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "report date in YYYY-MM-DD form (default today)")

	return cmd
}

func runTrialBalance(envPath string, asOf ledger.Date) error {
	_, store, engine, err := openEngine(envPath)
	if err != nil {
		return err
	}
	defer store.Close()

	tb, err := engine.Statements.TrialBalance(context.Background(), asOf)
	if err != nil {
		return err
	}

	fmt.Printf("Trial balance as of %s\n\n", asOf)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tACCOUNT\tDEBIT\tCREDIT")
	for _, row := range tb.Rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			row.AccountNumber, row.AccountName,
			row.Debit.StringFixed(2), row.Credit.StringFixed(2))
	}
	fmt.Fprintf(w, "\tTOTAL\t%s\t%s\n", tb.TotalDebits.StringFixed(2), tb.TotalCredits.StringFixed(2))
	if err := w.Flush(); err != nil {
		return err
	}

	if !tb.TotalDebits.Equal(tb.TotalCredits) {
		fmt.Println("\nWARNING: debits do not equal credits")
	}
	return nil
}
