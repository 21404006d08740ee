package dataprocessing

import (
	"math"
	"strconv"
	"strings"

	apperrors "featurepipe/internal/errors"
	"featurepipe/pkg/contracts/domain"
)

// LoadStage tags errors raised while coercing source cells
const LoadStage = "load"

// Field declares the kind a named source column is coerced to
type Field struct {
	Name string
	Kind domain.ColumnKind
}

// Schema lists the typed columns of a source table. Columns it does not
// mention load as strings.
type Schema []Field

// EmployeeSchema is the source layout the feature stages expect.
// join_date stays text so the time stage owns date parsing.
func EmployeeSchema() Schema {
	return Schema{
		{Name: "age", Kind: domain.KindInt},
		{Name: "salary", Kind: domain.KindFloat},
		{Name: "score", Kind: domain.KindFloat},
		{Name: "department", Kind: domain.KindString},
		{Name: "category", Kind: domain.KindString},
		{Name: "join_date", Kind: domain.KindString},
	}
}

// KindOf returns the declared kind for a column, defaulting to string
func (s Schema) KindOf(name string) domain.ColumnKind {
	for _, f := range s {
		if f.Name == name {
			return f.Kind
		}
	}
	return domain.KindString
}

// missingMarkers are the cell texts read as missing, on top of blanks.
// The set matches the default NA strings of common dataframe readers.
var missingMarkers = map[string]bool{
	"#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true, "-1.#QNAN": true,
	"-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true, "<NA>": true,
	"N/A": true, "NA": true, "NULL": true, "NaN": true, "None": true,
	"n/a": true, "nan": true, "null": true,
}

// isMissing reports whether a cell holds no value
func isMissing(raw string) bool {
	s := strings.TrimSpace(raw)
	return s == "" || missingMarkers[s]
}

// buildColumn coerces raw cells into a column of the given kind.
// Blank cells and missing markers such as "NaN" or "N/A" are null.
// Numbers may carry thousands separators.
func buildColumn(name string, kind domain.ColumnKind, cells []string) (*domain.Column, error) {
	switch kind {
	case domain.KindInt:
		values := make([]domain.Optional[int64], len(cells))
		for i, raw := range cells {
			s := cleanNumber(raw)
			if s == "" || missingMarkers[s] {
				continue
			}
			v, err := parseInt(s)
			if err != nil {
				return nil, apperrors.NewValueTypeMismatchError(LoadStage, name, i, raw, "int", err)
			}
			values[i] = domain.Some(v)
		}
		return domain.NewOptionalIntColumn(name, values), nil

	case domain.KindFloat:
		values := make([]domain.Optional[float64], len(cells))
		for i, raw := range cells {
			s := cleanNumber(raw)
			if s == "" || missingMarkers[s] {
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, apperrors.NewValueTypeMismatchError(LoadStage, name, i, raw, "float", err)
			}
			values[i] = domain.Some(v)
		}
		return domain.NewOptionalFloatColumn(name, values), nil

	case domain.KindBool:
		values := make([]domain.Optional[bool], len(cells))
		for i, raw := range cells {
			if isMissing(raw) {
				continue
			}
			v, err := strconv.ParseBool(strings.TrimSpace(raw))
			if err != nil {
				return nil, apperrors.NewValueTypeMismatchError(LoadStage, name, i, raw, "bool", err)
			}
			values[i] = domain.Some(v)
		}
		return domain.NewOptionalBoolColumn(name, values), nil

	case domain.KindString:
		values := make([]domain.Optional[string], len(cells))
		for i, raw := range cells {
			if raw != "" && !missingMarkers[strings.TrimSpace(raw)] {
				values[i] = domain.Some(raw)
			}
		}
		return domain.NewOptionalStringColumn(name, values), nil

	default:
		return nil, apperrors.NewAppValidationError("unsupported column kind "+string(kind)).
			WithContext(apperrors.ContextColumn, name)
	}
}

func cleanNumber(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
}

// parseInt accepts plain integers and integral floats such as "45.0"
func parseInt(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return v, nil
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64 {
		return 0, err
	}
	return int64(f), nil
}

// buildTable turns a header and data rows into a table. Short rows are
// padded with blanks; extra cells beyond the header are an error.
func buildTable(header []string, rows [][]string, schema Schema) (*domain.Table, error) {
	if len(header) == 0 {
		return nil, apperrors.NewParsingError("source has no header row", nil)
	}
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			return nil, apperrors.NewParsingError("blank column name in header", nil).
				WithContext(apperrors.ContextColumn, i)
		}
		if seen[h] {
			return nil, apperrors.NewParsingError("duplicate column "+strconv.Quote(h)+" in header", nil).
				WithContext(apperrors.ContextColumn, h)
		}
		seen[h] = true
		header[i] = h
	}

	cells := make([][]string, len(header))
	for c := range cells {
		cells[c] = make([]string, len(rows))
	}
	for r, row := range rows {
		if len(row) > len(header) {
			return nil, apperrors.NewParsingError("row has more cells than the header", nil).
				WithContext(apperrors.ContextRow, r).
				WithContext(apperrors.ContextValue, len(row))
		}
		for c, v := range row {
			cells[c][r] = v
		}
	}

	cols := make([]*domain.Column, len(header))
	for c, name := range header {
		col, err := buildColumn(name, schema.KindOf(name), cells[c])
		if err != nil {
			return nil, err
		}
		cols[c] = col
	}
	return domain.NewTable(cols...)
}
