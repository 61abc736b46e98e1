package postgres

import "testing"

func TestEscapeILIKEPattern(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "normal text",
			input:    "Vaporizador Mighty+",
			expected: "Vaporizador Mighty+",
		},
		{
			name:     "percent sign",
			input:    "100% orgánico",
			expected: `100\% orgánico`,
		},
		{
			name:     "underscore",
			input:    "papel_raw",
			expected: `papel\_raw`,
		},
		{
			name:     "backslash",
			input:    `test\path`,
			expected: `test\\path`,
		},
		{
			name:     "SQL injection attempt",
			input:    `%'; DROP TABLE orders; --`,
			expected: `\%'; DROP TABLE orders; --`,
		},
		{
			name:     "multiple wildcards",
			input:    `%_test_%_`,
			expected: `\%\_test\_\%\_`,
		},
		{
			name:     "mixed escape characters",
			input:    `\%_test`,
			expected: `\\\%\_test`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := escapeILIKEPattern(tt.input)
			if got != tt.expected {
				t.Errorf("escapeILIKEPattern(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
