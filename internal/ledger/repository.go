// Package ledger implements the append/cancel transaction protocol against a
// row-oriented spreadsheet store. The repository owns no persistent state; it
// is a stateless protocol layer over the externally owned spreadsheet.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"vbaranov/ledgerbot/internal/logging"
	"vbaranov/ledgerbot/internal/models"
	"vbaranov/ledgerbot/internal/sheetstore"
)

// Row is the six-column payload of one ledger entry. DisplayDate is written
// in the European display format so the store can auto-interpret it as a
// date; the remaining fields go in verbatim.
type Row struct {
	DisplayDate string
	Month       string
	Category    string
	Comment     string
	Amount      interface{}
	Currency    string
}

// Repository finds writable rows, appends transaction rows with their ID and
// author tags, and deletes rows by transaction ID.
type Repository struct {
	store sheetstore.RowStore
	log   logging.Logger
}

// NewRepository creates a repository over the given row store.
func NewRepository(store sheetstore.RowStore, logger logging.Logger) *Repository {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Repository{store: store, log: logger}
}

// EnsureSheets idempotently creates the named sheets with the fixed ledger
// header row.
func (r *Repository) EnsureSheets(ctx context.Context, sheetNames ...string) error {
	for _, name := range sheetNames {
		if err := r.store.CreateSheet(ctx, name, models.ColumnHeaders); err != nil {
			return fmt.Errorf("ensuring sheet %q: %w", name, err)
		}
	}
	return nil
}

// NextWritableRow returns the 1-based index of the first row whose amount
// cell is empty or missing, or one past the last populated row. Scanning for
// an empty amount rather than trusting the store's end-of-data marker lets
// rows freed by a cancellation be reused.
func (r *Repository) NextWritableRow(ctx context.Context, sheetName string) (int, error) {
	rows, err := r.store.ReadRange(ctx, sheetName, "")
	if err != nil {
		return 0, fmt.Errorf("scanning %q for writable row: %w", sheetName, err)
	}
	for i, row := range rows {
		if len(row) <= models.AmountColumnIndex || strings.TrimSpace(row[models.AmountColumnIndex]) == "" {
			return i + 1, nil
		}
	}
	return len(rows) + 1, nil
}

// AppendTransaction writes the row at the next writable position together
// with its transaction ID and author tag, then writes the date cell in
// user-entered mode so the store parses the display format. The two store
// calls are not atomic; a failure between them leaves the data columns
// committed without a date, which is reported but not rolled back.
func (r *Repository) AppendTransaction(ctx context.Context, sheetName string, row Row, transactionID, author string) error {
	rowIdx, err := r.NextWritableRow(ctx, sheetName)
	if err != nil {
		return err
	}

	writes := []sheetstore.RangeWrite{
		{
			Range:  fmt.Sprintf("B%d:F%d", rowIdx, rowIdx),
			Values: [][]interface{}{{row.Month, row.Category, row.Comment, row.Amount, row.Currency}},
		},
		{
			Range:  fmt.Sprintf("%s%d", models.IDColumn, rowIdx),
			Values: [][]interface{}{{transactionID}},
		},
		{
			Range:  fmt.Sprintf("%s%d", models.AuthorColumn, rowIdx),
			Values: [][]interface{}{{author}},
		},
	}
	if err := r.store.BatchWriteRanges(ctx, sheetName, writes); err != nil {
		return fmt.Errorf("writing transaction row %d in %q: %w", rowIdx, sheetName, err)
	}

	dateCell := fmt.Sprintf("%s%d", models.DateColumn, rowIdx)
	dateValues := [][]interface{}{{row.DisplayDate}}
	if err := r.store.WriteRange(ctx, sheetName, dateCell, dateValues, true); err != nil {
		return fmt.Errorf("writing date cell %s in %q: %w", dateCell, sheetName, err)
	}

	r.log.WithFields(
		logging.Field{Key: logging.FieldSheet, Value: sheetName},
		logging.Field{Key: logging.FieldRow, Value: rowIdx},
		logging.Field{Key: logging.FieldTransactionID, Value: transactionID},
	).Info("Appended transaction row")
	return nil
}

// DeleteByTransactionID finds the first row whose ID cell matches the target
// and deletes it. It reports false when no row matches. Rows below the
// deleted row shift up in the backing store, which is what heals gaps for
// NextWritableRow.
func (r *Repository) DeleteByTransactionID(ctx context.Context, sheetName, transactionID string) (bool, error) {
	column := fmt.Sprintf("%s:%s", models.IDColumn, models.IDColumn)
	rows, err := r.store.ReadRange(ctx, sheetName, column)
	if err != nil {
		return false, fmt.Errorf("scanning %q for transaction id: %w", sheetName, err)
	}

	target := strings.TrimSpace(transactionID)
	for i, row := range rows {
		cell := ""
		if len(row) > 0 {
			cell = row[0]
		}
		if strings.TrimSpace(cell) != target || target == "" {
			continue
		}
		if err := r.store.DeleteRow(ctx, sheetName, i+1); err != nil {
			return false, fmt.Errorf("deleting row %d from %q: %w", i+1, sheetName, err)
		}
		r.log.WithFields(
			logging.Field{Key: logging.FieldSheet, Value: sheetName},
			logging.Field{Key: logging.FieldTransactionID, Value: transactionID},
			logging.Field{Key: logging.FieldRow, Value: i + 1},
		).Info("Deleted transaction row")
		return true, nil
	}
	return false, nil
}

// Transactions returns the sheet's data rows, excluding the header.
func (r *Repository) Transactions(ctx context.Context, sheetName string) ([][]string, error) {
	rows, err := r.store.ReadRange(ctx, sheetName, "")
	if err != nil {
		return nil, fmt.Errorf("reading transactions from %q: %w", sheetName, err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}
