package sheetstore

import (
	"context"
	"fmt"
	"sync"
)

// FakeStore is an in-memory RowStore used by tests. It mimics the remote
// store's trimming behavior: trailing empty cells and rows are omitted from
// reads, and deleting a row shifts the rows below it up.
type FakeStore struct {
	mu     sync.Mutex
	sheets map[string][][]string

	// ValidationFormulas maps "Sheet!C5" to a validation formula.
	ValidationFormulas map[string]string

	// WriteOps records every write for assertions on write modes.
	WriteOps []WriteOp

	// Error injection, applied to the matching operation when set.
	ReadErr   error
	WriteErr  error
	BatchErr  error
	DeleteErr error
}

// WriteOp records a single write issued against the fake.
type WriteOp struct {
	Sheet       string
	Range       string
	UserEntered bool
}

// NewFakeStore returns an empty fake store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		sheets:             make(map[string][][]string),
		ValidationFormulas: make(map[string]string),
	}
}

// Seed replaces a sheet's contents with the given rows.
func (f *FakeStore) Seed(sheetName string, rows [][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	grid := make([][]string, len(rows))
	for i, row := range rows {
		grid[i] = append([]string(nil), row...)
	}
	f.sheets[sheetName] = grid
}

// Rows returns a copy of a sheet's raw grid.
func (f *FakeStore) Rows(sheetName string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	grid := f.sheets[sheetName]
	out := make([][]string, len(grid))
	for i, row := range grid {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// RowCount returns the number of rows currently held for the sheet.
func (f *FakeStore) RowCount(sheetName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sheets[sheetName])
}

// CreateSheet creates the sheet with a header row if absent.
func (f *FakeStore) CreateSheet(_ context.Context, sheetName string, header []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sheets[sheetName]; ok {
		return nil
	}
	f.sheets[sheetName] = [][]string{append([]string(nil), header...)}
	return nil
}

// SheetExists reports whether the sheet has been created or seeded.
func (f *FakeStore) SheetExists(_ context.Context, sheetName string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sheets[sheetName]
	return ok, nil
}

// ReadRange reads cells from the sheet, trimming trailing empties.
func (f *FakeStore) ReadRange(_ context.Context, sheetName, rng string) ([][]string, error) {
	if f.ReadErr != nil {
		return nil, f.ReadErr
	}
	if rng == "" {
		rng = DefaultReadRange
	}

	startCol, startRow, endCol, endRow, err := ParseRange(rng)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	grid, ok := f.sheets[sheetName]
	if !ok {
		return nil, fmt.Errorf("sheet %q not found", sheetName)
	}

	if startRow == 0 {
		startRow = 1
	}
	if endRow == 0 || endRow > len(grid) {
		endRow = len(grid)
	}

	var rows [][]string
	for r := startRow; r <= endRow; r++ {
		row := grid[r-1]
		var cells []string
		for c := startCol; c <= endCol; c++ {
			if c < len(row) {
				cells = append(cells, row[c])
			} else {
				cells = append(cells, "")
			}
		}
		// Trim trailing empty cells the way the remote store does.
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		rows = append(rows, cells)
	}
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return rows, nil
}

// WriteRange overwrites cells starting at startCell.
func (f *FakeStore) WriteRange(_ context.Context, sheetName, startCell string, values [][]interface{}, userEntered bool) error {
	if f.WriteErr != nil {
		return f.WriteErr
	}
	f.recordOp(sheetName, startCell, userEntered)
	return f.write(sheetName, startCell, values)
}

// BatchWriteRanges applies all writes, or none when error injection is set.
func (f *FakeStore) BatchWriteRanges(_ context.Context, sheetName string, writes []RangeWrite) error {
	if f.BatchErr != nil {
		return f.BatchErr
	}
	for _, w := range writes {
		f.recordOp(sheetName, w.Range, false)
		if err := f.write(sheetName, w.Range, w.Values); err != nil {
			return err
		}
	}
	return nil
}

// DeleteRow removes the row; rows below shift up.
func (f *FakeStore) DeleteRow(_ context.Context, sheetName string, rowIndex int) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	grid, ok := f.sheets[sheetName]
	if !ok {
		return fmt.Errorf("sheet %q not found", sheetName)
	}
	if rowIndex < 1 || rowIndex > len(grid) {
		return fmt.Errorf("row index %d out of range", rowIndex)
	}
	f.sheets[sheetName] = append(grid[:rowIndex-1], grid[rowIndex:]...)
	return nil
}

// ValidationFormula returns the configured formula for "Sheet!Cell".
func (f *FakeStore) ValidationFormula(_ context.Context, sheetName, cell string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ValidationFormulas[sheetName+"!"+cell], nil
}

func (f *FakeStore) recordOp(sheetName, rng string, userEntered bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.WriteOps = append(f.WriteOps, WriteOp{Sheet: sheetName, Range: rng, UserEntered: userEntered})
}

func (f *FakeStore) write(sheetName, startCell string, values [][]interface{}) error {
	startCol, startRow, _, _, err := ParseRange(startCell)
	if err != nil {
		return err
	}
	if startRow == 0 {
		startRow = 1
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	grid, ok := f.sheets[sheetName]
	if !ok {
		grid = [][]string{}
	}

	for i, rowValues := range values {
		r := startRow - 1 + i
		for len(grid) <= r {
			grid = append(grid, []string{})
		}
		row := grid[r]
		for j, v := range rowValues {
			c := startCol + j
			for len(row) <= c {
				row = append(row, "")
			}
			row[c] = fmt.Sprint(v)
		}
		grid[r] = row
	}
	f.sheets[sheetName] = grid
	return nil
}
