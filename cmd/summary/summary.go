// Package summary contains the command that prints per-currency ledger
// totals.
package summary

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"vbaranov/ledgerbot/cmd/root"
	"vbaranov/ledgerbot/internal/ledger"
	"vbaranov/ledgerbot/internal/logging"
	"vbaranov/ledgerbot/internal/processor"
	"vbaranov/ledgerbot/internal/sheetstore"
)

var spreadsheetID string

// Cmd is the summary command.
var Cmd = &cobra.Command{
	Use:   "summary",
	Short: "Print income and expense totals per currency.",
	RunE:  runSummary,
}

func init() {
	Cmd.Flags().StringVarP(&spreadsheetID, "spreadsheet", "s", "", "Spreadsheet ID of the group ledger")
	_ = Cmd.MarkFlagRequired("spreadsheet")
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg := root.Cfg
	logger := logging.NewLogrusAdapterFromLogger(root.Log)

	store, err := sheetstore.NewGoogleStore(cmd.Context(), cfg.Sheets.ServiceAccountFile, spreadsheetID, logger)
	if err != nil {
		return fmt.Errorf("opening spreadsheet: %w", err)
	}
	repo := ledger.NewRepository(store, logger)
	proc := processor.New(repo, cfg.Sheets.IncomeSheetName, cfg.Sheets.ExpenseSheetName, logger)

	s, err := proc.Summarize(cmd.Context())
	if err != nil {
		return err
	}

	printTotals(cmd, fmt.Sprintf("income (%d rows)", s.IncomeCount), s.IncomeTotals)
	printTotals(cmd, fmt.Sprintf("expense (%d rows)", s.ExpenseCount), s.ExpenseTotals)
	printTotals(cmd, "net", s.Net)
	return nil
}

func printTotals(cmd *cobra.Command, label string, totals map[string]decimal.Decimal) {
	if len(totals) == 0 {
		cmd.Printf("%s: no transactions\n", label)
		return
	}
	currencies := make([]string, 0, len(totals))
	for c := range totals {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)
	for _, c := range currencies {
		cmd.Printf("%s %s: %s\n", label, c, totals[c].String())
	}
}
