package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ColumnKind identifies the semantic type held by a Column
type ColumnKind string

const (
	KindInt    ColumnKind = "int"
	KindFloat  ColumnKind = "float"
	KindString ColumnKind = "string"
	KindDate   ColumnKind = "date"
	KindBool   ColumnKind = "bool"
)

// IsNumeric reports whether values of this kind can be read as float64
func (k ColumnKind) IsNumeric() bool {
	return k == KindInt || k == KindFloat
}

// DateLayout is the layout used when a date column is rendered as text
const DateLayout = "2006-01-02"

// Column is an immutable, named sequence of values of a single kind.
// Exactly one of the backing slices is populated, selected by Kind.
// A nil valid mask means every row holds a value.
type Column struct {
	name   string
	kind   ColumnKind
	ints   []int64
	floats []float64
	strs   []string
	dates  []time.Time
	bools  []bool
	valid  []bool
}

// NewIntColumn creates an integer column with no missing values
func NewIntColumn(name string, values []int64) *Column {
	return &Column{name: name, kind: KindInt, ints: values}
}

// NewFloatColumn creates a floating-point column with no missing values.
// NaN is a value here, not a missing marker.
func NewFloatColumn(name string, values []float64) *Column {
	return &Column{name: name, kind: KindFloat, floats: values}
}

// NewStringColumn creates a string column with no missing values
func NewStringColumn(name string, values []string) *Column {
	return &Column{name: name, kind: KindString, strs: values}
}

// NewDateColumn creates a date column with no missing values
func NewDateColumn(name string, values []time.Time) *Column {
	return &Column{name: name, kind: KindDate, dates: values}
}

// NewBoolColumn creates a boolean column with no missing values
func NewBoolColumn(name string, values []bool) *Column {
	return &Column{name: name, kind: KindBool, bools: values}
}

// NewOptionalIntColumn creates an integer column from optional values
func NewOptionalIntColumn(name string, values []Optional[int64]) *Column {
	ints, valid := unzip(values)
	return &Column{name: name, kind: KindInt, ints: ints, valid: valid}
}

// NewOptionalFloatColumn creates a float column from optional values
func NewOptionalFloatColumn(name string, values []Optional[float64]) *Column {
	floats, valid := unzip(values)
	return &Column{name: name, kind: KindFloat, floats: floats, valid: valid}
}

// NewOptionalStringColumn creates a string column from optional values
func NewOptionalStringColumn(name string, values []Optional[string]) *Column {
	strs, valid := unzip(values)
	return &Column{name: name, kind: KindString, strs: strs, valid: valid}
}

// NewOptionalDateColumn creates a date column from optional values
func NewOptionalDateColumn(name string, values []Optional[time.Time]) *Column {
	dates, valid := unzip(values)
	return &Column{name: name, kind: KindDate, dates: dates, valid: valid}
}

// NewOptionalBoolColumn creates a boolean column from optional values
func NewOptionalBoolColumn(name string, values []Optional[bool]) *Column {
	bools, valid := unzip(values)
	return &Column{name: name, kind: KindBool, bools: bools, valid: valid}
}

func unzip[T any](values []Optional[T]) ([]T, []bool) {
	out := make([]T, len(values))
	valid := make([]bool, len(values))
	allValid := true
	for i, v := range values {
		out[i] = v.Value
		valid[i] = v.Valid
		if !v.Valid {
			allValid = false
		}
	}
	if allValid {
		return out, nil
	}
	return out, valid
}

// Name returns the column name
func (c *Column) Name() string { return c.name }

// Kind returns the semantic kind of the column
func (c *Column) Kind() ColumnKind { return c.kind }

// Len returns the number of rows in the column
func (c *Column) Len() int {
	switch c.kind {
	case KindInt:
		return len(c.ints)
	case KindFloat:
		return len(c.floats)
	case KindString:
		return len(c.strs)
	case KindDate:
		return len(c.dates)
	case KindBool:
		return len(c.bools)
	default:
		return 0
	}
}

// IsNull reports whether row i holds no value
func (c *Column) IsNull(i int) bool {
	return c.valid != nil && !c.valid[i]
}

// NullCount returns the number of missing rows
func (c *Column) NullCount() int {
	if c.valid == nil {
		return 0
	}
	n := 0
	for _, ok := range c.valid {
		if !ok {
			n++
		}
	}
	return n
}

// Renamed returns a copy of the column under a new name, sharing its values
func (c *Column) Renamed(name string) *Column {
	cp := *c
	cp.name = name
	return &cp
}

// Int returns the integer at row i
func (c *Column) Int(i int) Optional[int64] {
	if c.kind != KindInt || c.IsNull(i) {
		return None[int64]()
	}
	return Some(c.ints[i])
}

// Float returns row i as float64 for int and float columns
func (c *Column) Float(i int) Optional[float64] {
	if c.IsNull(i) {
		return None[float64]()
	}
	switch c.kind {
	case KindInt:
		return Some(float64(c.ints[i]))
	case KindFloat:
		return Some(c.floats[i])
	default:
		return None[float64]()
	}
}

// String returns the string at row i
func (c *Column) String(i int) Optional[string] {
	if c.kind != KindString || c.IsNull(i) {
		return None[string]()
	}
	return Some(c.strs[i])
}

// Date returns the date at row i
func (c *Column) Date(i int) Optional[time.Time] {
	if c.kind != KindDate || c.IsNull(i) {
		return None[time.Time]()
	}
	return Some(c.dates[i])
}

// Bool returns the boolean at row i
func (c *Column) Bool(i int) Optional[bool] {
	if c.kind != KindBool || c.IsNull(i) {
		return None[bool]()
	}
	return Some(c.bools[i])
}

// Numbers returns every non-missing value of a numeric column as float64.
// The second result is false when the column is not numeric.
func (c *Column) Numbers() ([]float64, bool) {
	if !c.kind.IsNumeric() {
		return nil, false
	}
	n := c.Len()
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if v := c.Float(i); v.Valid {
			out = append(out, v.Value)
		}
	}
	return out, true
}

// Text renders row i the way a delimited-table writer expects it.
// Missing values and NaN render as the empty string.
func (c *Column) Text(i int) string {
	if c.IsNull(i) {
		return ""
	}
	switch c.kind {
	case KindInt:
		return strconv.FormatInt(c.ints[i], 10)
	case KindFloat:
		return FormatFloat(c.floats[i])
	case KindString:
		return c.strs[i]
	case KindDate:
		return c.dates[i].Format(DateLayout)
	case KindBool:
		if c.bools[i] {
			return "True"
		}
		return "False"
	default:
		return ""
	}
}

// FormatFloat renders a float so that integral values keep a trailing ".0",
// infinities render as "inf"/"-inf" and NaN renders empty.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// GoString implements fmt.GoStringer for debugging output
func (c *Column) GoString() string {
	return fmt.Sprintf("domain.Column{name:%q, kind:%s, len:%d, nulls:%d}", c.name, c.kind, c.Len(), c.NullCount())
}
