package sqltype

import (
	"fmt"

	"github.com/loadbridge/loadbridge/pkg/stream"
)

// Family is the closed set of abstract relational type families the sink can
// produce. Descriptors are compared and merged structurally; no dialect or
// driver type identity is involved.
type Family int

const (
	FamilyUnboundedText Family = iota
	FamilyBoundedText
	FamilyFixedChar
	FamilyTimestamp
	FamilyDate
	FamilyInteger
	FamilyDecimal
	FamilyFloat
)

func (f Family) String() string {
	switch f {
	case FamilyUnboundedText:
		return "unbounded-text"
	case FamilyBoundedText:
		return "bounded-text"
	case FamilyFixedChar:
		return "fixed-char"
	case FamilyTimestamp:
		return "timestamp"
	case FamilyDate:
		return "date"
	case FamilyInteger:
		return "integer"
	case FamilyDecimal:
		return "decimal"
	case FamilyFloat:
		return "float"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// ColumnType is an abstract relational type descriptor: a family tag plus
// the length/precision metadata needed to compare and merge descriptors.
// Immutable; zero values mean "not applicable" for the family.
type ColumnType struct {
	Family    Family
	Length    int // bounded-text and fixed-char
	Precision int // decimal
	Scale     int // decimal
}

func (t ColumnType) String() string {
	switch t.Family {
	case FamilyBoundedText, FamilyFixedChar:
		return fmt.Sprintf("%s(%d)", t.Family, t.Length)
	case FamilyDecimal:
		return fmt.Sprintf("%s(%d,%d)", t.Family, t.Precision, t.Scale)
	default:
		return t.Family.String()
	}
}

// TextLike reports whether the descriptor belongs to a character family.
// Text-like descriptors of differing lengths merge to the wider one.
func (t ColumnType) TextLike() bool {
	switch t.Family {
	case FamilyUnboundedText, FamilyBoundedText, FamilyFixedChar:
		return true
	}
	return false
}

func UnboundedText() ColumnType       { return ColumnType{Family: FamilyUnboundedText} }
func BoundedText(n int) ColumnType    { return ColumnType{Family: FamilyBoundedText, Length: n} }
func FixedChar(n int) ColumnType      { return ColumnType{Family: FamilyFixedChar, Length: n} }
func Timestamp() ColumnType           { return ColumnType{Family: FamilyTimestamp} }
func Date() ColumnType                { return ColumnType{Family: FamilyDate} }
func Integer() ColumnType             { return ColumnType{Family: FamilyInteger} }
func Decimal(prec, scale int) ColumnType {
	return ColumnType{Family: FamilyDecimal, Precision: prec, Scale: scale}
}
func Float() ColumnType { return ColumnType{Family: FamilyFloat} }

// Column pairs a conformed column name with its type descriptor.
type Column struct {
	Name string
	Type ColumnType
}

// TableSchema is an ordered column set plus optional primary-key column
// names. It represents either the shape a batch requires or the shape
// introspected from a live table.
type TableSchema struct {
	Columns     []Column
	PrimaryKeys []string
}

// Column returns the descriptor for the named column.
func (s *TableSchema) Column(name string) (ColumnType, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c.Type, true
		}
	}
	return ColumnType{}, false
}

// ColumnNames returns the column names in schema order.
func (s *TableSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// MaxBoundedLength is the widest bounded-text column the sink will declare.
// Strings longer than this (or with no declared maximum) become
// unbounded-text.
const MaxBoundedLength = 4000

// DefaultDecimalPrecision and DefaultDecimalScale shape "number" properties
// when floats are not preferred. MaxDecimalPrecision caps merged decimals at
// the widest precision the supported targets accept.
const (
	DefaultDecimalPrecision = 38
	DefaultDecimalScale     = 10
	MaxDecimalPrecision     = 38
)

// Map converts one schema fragment to a column type descriptor. Total and
// pure: every fragment produces exactly one descriptor, with bounded text of
// maximum length as the universal fallback. Rules are checked in priority
// order; the first match wins.
func Map(p stream.Property, preferFloat bool) ColumnType {
	if p.HasType("string") {
		switch p.DateLikeFormat() {
		case "date-time", "time":
			// No dedicated time-of-day type is assumed available.
			return Timestamp()
		case "date":
			return Date()
		}
		if p.MaxLength == nil || *p.MaxLength > MaxBoundedLength {
			return UnboundedText()
		}
		return BoundedText(*p.MaxLength)
	}

	if p.HasType("integer") {
		return Integer()
	}

	if p.HasType("number") {
		if preferFloat {
			return Float()
		}
		return Decimal(DefaultDecimalPrecision, DefaultDecimalScale)
	}

	if p.HasType("boolean") {
		// Stored as a single-character flag; no native boolean is assumed.
		return FixedChar(1)
	}

	if p.HasType("object", "array") {
		return UnboundedText()
	}

	return BoundedText(MaxBoundedLength)
}
