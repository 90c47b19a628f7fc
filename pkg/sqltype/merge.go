package sqltype

import (
	"fmt"
	"sort"

	"github.com/loadbridge/loadbridge/pkg/apperrors"
)

// Merge computes the least-upper-bound descriptor able to represent every
// input, or fails with apperrors.ErrIncompatibleTypes when no common
// representation exists. The result depends only on the input multiset:
// inputs are ordered by descending capability before folding, so Merge is
// commutative and, for same-family chains, associative. It never silently
// truncates.
func Merge(types []ColumnType) (ColumnType, error) {
	if len(types) == 0 {
		return ColumnType{}, fmt.Errorf("merge requires at least one type")
	}

	sorted := make([]ColumnType, len(types))
	copy(sorted, types)
	sort.SliceStable(sorted, func(i, j int) bool {
		return capabilityRank(sorted[i]) > capabilityRank(sorted[j])
	})

	result := sorted[0]
	for _, t := range sorted[1:] {
		merged, err := mergePair(result, t)
		if err != nil {
			return ColumnType{}, err
		}
		result = merged
	}
	return result, nil
}

// capabilityRank orders descriptors so that more capable representations
// sort first. Within the text-like families unbounded text dominates, then
// longer bounded text, then fixed chars. Non-text families only need a
// stable relative order: mixed-family pairs fail in mergePair regardless.
func capabilityRank(t ColumnType) int {
	switch t.Family {
	case FamilyUnboundedText:
		return 8 << 20
	case FamilyBoundedText:
		return 7<<20 + t.Length
	case FamilyFixedChar:
		return 6<<20 + t.Length
	case FamilyTimestamp:
		return 5 << 20
	case FamilyDate:
		return 4 << 20
	case FamilyDecimal:
		return 3<<20 + t.Precision<<8 + t.Scale
	case FamilyFloat:
		return 2 << 20
	case FamilyInteger:
		return 1 << 20
	default:
		return 0
	}
}

func mergePair(a, b ColumnType) (ColumnType, error) {
	if a == b {
		return a, nil
	}

	if a.TextLike() && b.TextLike() {
		if a.Family == FamilyUnboundedText || b.Family == FamilyUnboundedText {
			return UnboundedText(), nil
		}
		merged := ColumnType{Family: FamilyFixedChar, Length: a.Length}
		if b.Length > merged.Length {
			merged.Length = b.Length
		}
		if a.Family == FamilyBoundedText || b.Family == FamilyBoundedText {
			merged.Family = FamilyBoundedText
		}
		return merged, nil
	}

	if a.Family == FamilyDecimal && b.Family == FamilyDecimal {
		// Integer digits and fractional digits widen independently: taking
		// max precision and max scale alone would shrink the integer range
		// when the wider-precision input has the smaller scale.
		intDigits := a.Precision - a.Scale
		if d := b.Precision - b.Scale; d > intDigits {
			intDigits = d
		}
		scale := a.Scale
		if b.Scale > scale {
			scale = b.Scale
		}
		precision := intDigits + scale
		if precision > MaxDecimalPrecision {
			precision = MaxDecimalPrecision
		}
		return Decimal(precision, scale), nil
	}

	return ColumnType{}, fmt.Errorf("%w: %s and %s", apperrors.ErrIncompatibleTypes, a, b)
}
