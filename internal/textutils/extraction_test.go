package textutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSpreadsheetID(t *testing.T) {
	bareID := "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms"

	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{
			name:  "full share URL",
			input: "https://docs.google.com/spreadsheets/d/" + bareID + "/edit#gid=0",
			want:  bareID,
			ok:    true,
		},
		{
			name:  "URL inside a sentence",
			input: "вот таблица https://docs.google.com/spreadsheets/d/" + bareID + " для группы",
			want:  bareID,
			ok:    true,
		},
		{
			name:  "bare id",
			input: bareID,
			want:  bareID,
			ok:    true,
		},
		{name: "plain chatter", input: "купил молоко за 12.50"},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractSpreadsheetID(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{
			name:  "bare object",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
			ok:    true,
		},
		{
			name:  "object in prose",
			input: "Sure, here you go:\n```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
			ok:    true,
		},
		{
			name:  "nested objects",
			input: `prefix {"a": {"b": 2}} suffix`,
			want:  `{"a": {"b": 2}}`,
			ok:    true,
		},
		{
			name:  "braces inside strings are ignored",
			input: `{"comment": "a } b \" {"}`,
			want:  `{"comment": "a } b \" {"}`,
			ok:    true,
		},
		{name: "no object", input: "nothing here"},
		{name: "unbalanced", input: `{"a": 1`},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
