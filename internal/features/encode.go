package features

import (
	"sort"

	"featurepipe/pkg/contracts/domain"
)

// DepartmentPrefix prefixes every one-hot indicator column
const DepartmentPrefix = "dept_"

// CategoryCodes is the fixed label map for the category column
var CategoryCodes = map[string]int64{"A": 1, "B": 2, "C": 3}

// Encode replaces department with one dept_<value> indicator column per
// distinct observed value (sorted lexically) and appends category_encoded.
//
// A category outside CategoryCodes, or a missing one, encodes as missing.
// A missing department sets every indicator in that row to 0.
func Encode(table *domain.Table) (*domain.Table, error) {
	department, err := requireKind(table, StageEncode, "department", domain.KindString)
	if err != nil {
		return nil, err
	}
	category, err := requireKind(table, StageEncode, "category", domain.KindString)
	if err != nil {
		return nil, err
	}

	indicators := OneHot(department, DepartmentPrefix)
	encoded := LabelEncode(category, CategoryCodes)

	out := table.Without("department")
	cols := append(indicators, encoded.Renamed("category_encoded"))
	return out.WithColumns(cols...)
}

// OneHot expands a string column into 0/1 indicator columns named
// prefix+value, one per distinct non-missing value in lexical order.
func OneHot(col *domain.Column, prefix string) []*domain.Column {
	n := col.Len()
	seen := make(map[string][]int64)
	for i := 0; i < n; i++ {
		v, ok := col.String(i).Get()
		if !ok {
			continue
		}
		if _, exists := seen[v]; !exists {
			seen[v] = make([]int64, n)
		}
		seen[v][i] = 1
	}

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)

	cols := make([]*domain.Column, len(values))
	for i, v := range values {
		cols[i] = domain.NewIntColumn(prefix+v, seen[v])
	}
	return cols
}

// LabelEncode maps each value through codes. Unmapped values become missing.
func LabelEncode(col *domain.Column, codes map[string]int64) *domain.Column {
	out := make([]domain.Optional[int64], col.Len())
	for i := range out {
		v, ok := col.String(i).Get()
		if !ok {
			continue
		}
		if code, mapped := codes[v]; mapped {
			out[i] = domain.Some(code)
		}
	}
	return domain.NewOptionalIntColumn(col.Name(), out)
}
