package sheetstore

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var cellPattern = regexp.MustCompile(`^([A-Z]+)(\d*)$`)

// ColumnIndex converts column letters ("A", "B", ..., "AA") to a zero-based
// index.
func ColumnIndex(letters string) (int, error) {
	letters = strings.ToUpper(strings.TrimSpace(letters))
	if letters == "" {
		return 0, fmt.Errorf("empty column reference")
	}
	col := 0
	for _, c := range letters {
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("invalid column reference: %s", letters)
		}
		col = col*26 + int(c-'A'+1)
	}
	return col - 1, nil
}

// ColumnLetter converts a zero-based column index to its letters.
func ColumnLetter(index int) string {
	letters := ""
	n := index + 1
	for n > 0 {
		n--
		letters = string(rune('A'+n%26)) + letters
		n /= 26
	}
	return letters
}

// ParseCell splits an A1 cell reference ("B5") into a zero-based column index
// and a 1-based row. A missing row number yields row 0 (whole column).
func ParseCell(cell string) (col, row int, err error) {
	matches := cellPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(cell)))
	if matches == nil {
		return 0, 0, fmt.Errorf("invalid cell reference: %s", cell)
	}
	col, err = ColumnIndex(matches[1])
	if err != nil {
		return 0, 0, err
	}
	if matches[2] != "" {
		row, err = strconv.Atoi(matches[2])
		if err != nil || row < 1 {
			return 0, 0, fmt.Errorf("invalid row in cell reference: %s", cell)
		}
	}
	return col, row, nil
}

// ParseRange splits an A1 range ("A4:A60", "L:L", or a single cell) into its
// corner cells. Unbounded rows come back as 0.
func ParseRange(rng string) (startCol, startRow, endCol, endRow int, err error) {
	parts := strings.SplitN(rng, ":", 2)
	startCol, startRow, err = ParseCell(parts[0])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	if len(parts) == 1 {
		return startCol, startRow, startCol, startRow, nil
	}
	endCol, endRow, err = ParseCell(parts[1])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return startCol, startRow, endCol, endRow, nil
}

// QualifyRange prefixes a range with a quoted sheet title. Quoting is always
// valid in A1 notation and required for titles containing spaces.
func QualifyRange(sheetName, rng string) string {
	escaped := strings.ReplaceAll(sheetName, "'", "''")
	return fmt.Sprintf("'%s'!%s", escaped, rng)
}
