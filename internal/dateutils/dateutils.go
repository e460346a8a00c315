// Package dateutils provides the date layouts and helpers used throughout the
// ledger bot.
package dateutils

import (
	"fmt"
	"strings"
	"time"
)

// Date format constants.
const (
	// LayoutISO is the wire format the classifier is instructed to emit.
	LayoutISO = "2006-01-02"
	// LayoutDisplay is the European format stored in the ledger's date column
	// and shown to users.
	LayoutDisplay = "02.01.2006"
	// LayoutTransactionID is the UTC timestamp layout used to mint ledger row
	// identifiers. Microsecond precision keeps IDs unique in practice.
	LayoutTransactionID = "2006-01-02 15:04:05.000000"
)

// ParseISO parses an ISO (YYYY-MM-DD) date string.
func ParseISO(dateStr string) (time.Time, error) {
	t, err := time.Parse(LayoutISO, strings.TrimSpace(dateStr))
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse ISO date %q: %w", dateStr, err)
	}
	return t, nil
}

// ToDisplay converts an ISO date string to the display format. Strings that
// do not parse are returned unchanged so a malformed classifier date still
// lands in the sheet verbatim.
func ToDisplay(dateStr string) string {
	t, err := ParseISO(dateStr)
	if err != nil {
		return dateStr
	}
	return t.Format(LayoutDisplay)
}

// MonthName returns the label for t's month from the given January-first
// name list, or an empty string if the list is short.
func MonthName(t time.Time, names []string) string {
	idx := int(t.Month()) - 1
	if idx < 0 || idx >= len(names) {
		return ""
	}
	return names[idx]
}

// NewTransactionID mints a timestamp-derived row identifier from t in UTC.
func NewTransactionID(t time.Time) string {
	return t.UTC().Format(LayoutTransactionID)
}
