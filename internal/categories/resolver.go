package categories

import (
	"context"
	"fmt"
	"strings"

	"vbaranov/ledgerbot/internal/logging"
	"vbaranov/ledgerbot/internal/models"
	"vbaranov/ledgerbot/internal/sheetstore"
)

// categoryCell is the column whose data-validation dropdown defines the
// category list. The formula is read from the next writable row so a group
// that narrows validation to the data region is still covered.
const categoryCell = "C"

// RowFinder locates the next writable row of a sheet.
type RowFinder interface {
	NextWritableRow(ctx context.Context, sheetName string) (int, error)
}

// Resolver reads per-group category lists out of the spreadsheet's validation
// rules. Discovery is best-effort: any failure degrades to the fallback list
// so a broken dropdown never blocks a transaction.
type Resolver struct {
	store sheetstore.RowStore
	rows  RowFinder
	log   logging.Logger
}

// NewResolver creates a resolver over the given store.
func NewResolver(store sheetstore.RowStore, rows RowFinder, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Resolver{store: store, rows: rows, log: logger}
}

// CategoriesFor returns the category list for one sheet, or the fallback when
// discovery fails or yields nothing.
func (r *Resolver) CategoriesFor(ctx context.Context, sheetName string, fallback []string) []string {
	discovered, err := r.discover(ctx, sheetName)
	if err != nil {
		r.log.WithError(err).WithField(logging.FieldSheet, sheetName).
			Warn("Category discovery failed, using fallback list")
		return append([]string(nil), fallback...)
	}
	if len(discovered) == 0 {
		return append([]string(nil), fallback...)
	}
	return discovered
}

// Resolve builds the full category set for both transaction types.
func (r *Resolver) Resolve(ctx context.Context, incomeSheet, expenseSheet string) models.CategorySet {
	return models.CategorySet{
		Income:  r.CategoriesFor(ctx, incomeSheet, models.DefaultIncomeCategories),
		Expense: r.CategoriesFor(ctx, expenseSheet, models.DefaultExpenseCategories),
	}
}

func (r *Resolver) discover(ctx context.Context, sheetName string) ([]string, error) {
	row, err := r.rows.NextWritableRow(ctx, sheetName)
	if err != nil {
		return nil, err
	}

	cell := fmt.Sprintf("%s%d", categoryCell, row)
	formula, err := r.store.ValidationFormula(ctx, sheetName, cell)
	if err != nil {
		return nil, err
	}
	ref, ok := ParseRangeRef(formula)
	if !ok {
		return nil, nil
	}

	rows, err := r.store.ReadRange(ctx, ref.Sheet, ref.Range)
	if err != nil {
		return nil, err
	}

	var categories []string
	for _, row := range rows {
		for _, cell := range row {
			if v := strings.TrimSpace(cell); v != "" {
				categories = append(categories, v)
			}
		}
	}
	return categories, nil
}
