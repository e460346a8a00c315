// Package textutils provides text extraction utilities for loosely structured
// external input: spreadsheet links and model responses.
package textutils

import (
	"regexp"
	"strings"
)

var spreadsheetIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`),
	regexp.MustCompile(`spreadsheets/d/([a-zA-Z0-9-_]+)`),
	// Bare spreadsheet IDs are typically 44 characters long.
	regexp.MustCompile(`([a-zA-Z0-9-_]{44})`),
}

// ExtractSpreadsheetID pulls a spreadsheet identifier out of a share URL or a
// bare ID. It reports false when nothing matches.
func ExtractSpreadsheetID(link string) (string, bool) {
	link = strings.TrimSpace(link)
	for _, pattern := range spreadsheetIDPatterns {
		if matches := pattern.FindStringSubmatch(link); len(matches) > 1 {
			return matches[1], true
		}
	}
	return "", false
}

// ExtractJSONObject returns the first balanced {...} span in s. Model
// responses are sometimes wrapped in prose or code fences; this recovers the
// payload. Braces inside string literals are ignored.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
