package conform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "already conformed",
			input:    "customer_id",
			expected: "customer_id",
		},
		{
			name:     "camel case",
			input:    "customerId",
			expected: "customer_id",
		},
		{
			name:     "pascal case",
			input:    "CustomerID",
			expected: "customer_id",
		},
		{
			name:     "acronym run",
			input:    "XMLHttpRequest",
			expected: "xml_http_request",
		},
		{
			name:     "digits split from letters",
			input:    "HTML5Parser",
			expected: "html5_parser",
		},
		{
			name:     "illegal characters squashed to one underscore",
			input:    "order total ($)",
			expected: "order_total_",
		},
		{
			name:     "leading underscores rotate to the end",
			input:    "__CustomerID",
			expected: "customer_id__",
		},
		{
			name:     "leading digit gets a letter prefix",
			input:    "123abc",
			expected: "n123abc",
		},
		{
			name:     "uppercase only",
			input:    "TOTAL",
			expected: "total",
		},
		{
			name:     "separator kept next to the case break",
			input:    "First-Name",
			expected: "first__name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Name(tt.input))
		})
	}
}

// Conforming an already conformed name must not change it again, otherwise
// record fields and table columns drift apart.
func TestName_Idempotent(t *testing.T) {
	inputs := []string{
		"customerId", "CustomerID", "XMLHttpRequest", "HTML5Parser",
		"order total ($)", "__CustomerID", "123abc", "plain", "a_b_c",
	}
	for _, input := range inputs {
		once := Name(input)
		assert.Equal(t, once, Name(once), "input %q", input)
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t,
		[]string{"customer_id", "order_date"},
		Names([]string{"CustomerID", "OrderDate"}))
	assert.Empty(t, Names(nil))
}
