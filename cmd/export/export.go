// Package export contains the command that dumps a ledger sheet to CSV.
package export

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"vbaranov/ledgerbot/cmd/root"
	"vbaranov/ledgerbot/internal/ledger"
	"vbaranov/ledgerbot/internal/logging"
	"vbaranov/ledgerbot/internal/models"
	"vbaranov/ledgerbot/internal/sheetstore"
)

var (
	spreadsheetID   string
	transactionType string
	outputFile      string
)

// Cmd is the export command.
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export a ledger sheet to a CSV file.",
	RunE:  runExport,
}

func init() {
	Cmd.Flags().StringVarP(&spreadsheetID, "spreadsheet", "s", "", "Spreadsheet ID of the group ledger")
	Cmd.Flags().StringVarP(&transactionType, "type", "t", models.TypeExpense, "Transaction type to export (income or expense)")
	Cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output CSV file")
	_ = Cmd.MarkFlagRequired("spreadsheet")
	_ = Cmd.MarkFlagRequired("output")
}

// record is one exported CSV row, mirroring the ledger's column layout.
type record struct {
	Date     string `csv:"Date"`
	Month    string `csv:"Month"`
	Category string `csv:"Category"`
	Comment  string `csv:"Comment"`
	Amount   string `csv:"Amount"`
	Currency string `csv:"Currency"`
	Author   string `csv:"Author"`
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := root.Cfg
	logger := logging.NewLogrusAdapterFromLogger(root.Log)

	sheetName, err := cfg.SheetName(transactionType)
	if err != nil {
		return err
	}

	store, err := sheetstore.NewGoogleStore(cmd.Context(), cfg.Sheets.ServiceAccountFile, spreadsheetID, logger)
	if err != nil {
		return fmt.Errorf("opening spreadsheet: %w", err)
	}
	repo := ledger.NewRepository(store, logger)

	rows, err := repo.Transactions(cmd.Context(), sheetName)
	if err != nil {
		return err
	}
	// Author tags live outside the A:F span read above.
	authors, err := store.ReadRange(cmd.Context(), sheetName,
		fmt.Sprintf("%s:%s", models.AuthorColumn, models.AuthorColumn))
	if err != nil {
		return err
	}

	records := make([]record, 0, len(rows))
	for i, row := range rows {
		cell := func(cells []string, j int) string {
			if j < len(cells) {
				return cells[j]
			}
			return ""
		}
		author := ""
		// Row i of the data corresponds to grid row i+2 (header is row 1).
		if i+1 < len(authors) {
			author = cell(authors[i+1], 0)
		}
		records = append(records, record{
			Date:     cell(row, 0),
			Month:    cell(row, 1),
			Category: cell(row, 2),
			Comment:  cell(row, 3),
			Amount:   cell(row, 4),
			Currency: cell(row, 5),
			Author:   author,
		})
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&records, f); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}

	root.Log.WithFields(map[string]interface{}{
		"sheet":  sheetName,
		"count":  len(records),
		"output": outputFile,
	}).Info("Ledger exported")
	return nil
}
