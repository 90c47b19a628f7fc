package sqltype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loadbridge/loadbridge/pkg/apperrors"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		types    []ColumnType
		expected ColumnType
	}{
		{
			name:     "single type is returned unchanged",
			types:    []ColumnType{BoundedText(50)},
			expected: BoundedText(50),
		},
		{
			name:     "equal types collapse",
			types:    []ColumnType{Integer(), Integer()},
			expected: Integer(),
		},
		{
			name:     "bounded text widens to the longer length",
			types:    []ColumnType{BoundedText(30), BoundedText(120)},
			expected: BoundedText(120),
		},
		{
			name:     "unbounded text dominates bounded",
			types:    []ColumnType{BoundedText(4000), UnboundedText()},
			expected: UnboundedText(),
		},
		{
			name:     "fixed char and bounded text prefer bounded",
			types:    []ColumnType{FixedChar(1), BoundedText(10)},
			expected: BoundedText(10),
		},
		{
			name:     "fixed chars widen within the family",
			types:    []ColumnType{FixedChar(1), FixedChar(4)},
			expected: FixedChar(4),
		},
		{
			name:     "decimals keep both integer digits and scale",
			types:    []ColumnType{Decimal(18, 2), Decimal(10, 6)},
			expected: Decimal(22, 6),
		},
		{
			name:     "decimal widening is capped at max precision",
			types:    []ColumnType{Decimal(38, 2), Decimal(38, 10)},
			expected: Decimal(38, 10),
		},
		{
			name:     "identical decimals are unchanged",
			types:    []ColumnType{Decimal(38, 10), Decimal(38, 10)},
			expected: Decimal(38, 10),
		},
		{
			name:     "chain of text lengths",
			types:    []ColumnType{BoundedText(10), BoundedText(300), BoundedText(40)},
			expected: BoundedText(300),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, err := Merge(tt.types)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, merged)
		})
	}
}

// The merged result must not depend on the order types arrive in.
func TestMerge_Commutative(t *testing.T) {
	pairs := [][2]ColumnType{
		{BoundedText(30), BoundedText(120)},
		{UnboundedText(), BoundedText(50)},
		{FixedChar(1), BoundedText(10)},
		{Decimal(18, 2), Decimal(10, 6)},
		{Integer(), Integer()},
	}

	for _, pair := range pairs {
		forward, err := Merge([]ColumnType{pair[0], pair[1]})
		require.NoError(t, err)
		reverse, err := Merge([]ColumnType{pair[1], pair[0]})
		require.NoError(t, err)
		assert.Equal(t, forward, reverse, "merging %s and %s", pair[0], pair[1])
	}
}

func TestMerge_Incompatible(t *testing.T) {
	tests := []struct {
		name  string
		types []ColumnType
	}{
		{"integer and text", []ColumnType{Integer(), BoundedText(50)}},
		{"timestamp and date", []ColumnType{Timestamp(), Date()}},
		{"decimal and float", []ColumnType{Decimal(38, 10), Float()}},
		{"integer and float", []ColumnType{Integer(), Float()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Merge(tt.types)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrIncompatibleTypes)
		})
	}
}

func TestMerge_Empty(t *testing.T) {
	_, err := Merge(nil)
	assert.Error(t, err)
}
