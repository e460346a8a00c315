// Package sheetstore provides a thin row-store abstraction over the external
// spreadsheet service backing each group's ledger.
package sheetstore

import "context"

// DefaultReadRange is the six-column span holding ledger data.
const DefaultReadRange = "A:F"

// RangeWrite is one positional write within a batch update.
type RangeWrite struct {
	// Range is an unqualified A1 range within the target sheet, e.g. "B5:F5".
	Range  string
	Values [][]interface{}
}

// RowStore is the operation set consumed from the spreadsheet service. All
// row indexes are 1-based; the header row is row 1.
type RowStore interface {
	// CreateSheet creates a sheet with the given header row. It is a no-op
	// if the sheet already exists.
	CreateSheet(ctx context.Context, sheetName string, header []string) error

	// SheetExists reports whether a sheet with the given title exists.
	SheetExists(ctx context.Context, sheetName string) (bool, error)

	// ReadRange reads cell values from the sheet. An empty range reads the
	// default six-column span. Trailing empty cells may be omitted per row.
	ReadRange(ctx context.Context, sheetName, rng string) ([][]string, error)

	// WriteRange overwrites cells starting at startCell. With userEntered
	// set, the store parses values as if typed by a user (dates, numbers).
	WriteRange(ctx context.Context, sheetName, startCell string, values [][]interface{}, userEntered bool) error

	// BatchWriteRanges applies several raw positional writes in one request.
	BatchWriteRanges(ctx context.Context, sheetName string, writes []RangeWrite) error

	// DeleteRow removes the row at rowIndex; rows below shift up.
	DeleteRow(ctx context.Context, sheetName string, rowIndex int) error

	// ValidationFormula returns the data-validation formula attached to the
	// cell (e.g. "='Бюджет'!$A$4:$A$60"), or an empty string if none.
	ValidationFormula(ctx context.Context, sheetName, cell string) (string, error)
}
