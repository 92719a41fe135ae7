package database

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "diacritics", input: "Jiří Novák", expected: "jiri novak"},
		{name: "uppercase", input: "ALICE SMITH", expected: "alice smith"},
		{name: "dashes", input: "Anne-Marie", expected: "anne marie"},
		{name: "plain", input: "bob", expected: "bob"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.expected {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
