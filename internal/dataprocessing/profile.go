package dataprocessing

import (
	"featurepipe/internal/features"
	"featurepipe/pkg/contracts/domain"
)

// ColumnProfile summarises one column of a loaded table.
// Numeric statistics are only set for numeric columns with values.
type ColumnProfile struct {
	Name     string            `json:"name"`
	Kind     domain.ColumnKind `json:"kind"`
	Count    int               `json:"count"`
	Missing  int               `json:"missing"`
	Distinct int               `json:"distinct,omitempty"`
	Min      *float64          `json:"min,omitempty"`
	Max      *float64          `json:"max,omitempty"`
	Mean     *float64          `json:"mean,omitempty"`
	Q1       *float64          `json:"q1,omitempty"`
	Median   *float64          `json:"median,omitempty"`
	Q3       *float64          `json:"q3,omitempty"`
}

// TableProfile summarises a whole table
type TableProfile struct {
	Rows    int             `json:"rows"`
	Columns []ColumnProfile `json:"columns"`
}

// Profile computes per-column counts and, for numeric columns, range,
// mean and quartiles
func Profile(table *domain.Table) TableProfile {
	profile := TableProfile{Rows: table.NumRows()}
	for _, col := range table.Columns() {
		profile.Columns = append(profile.Columns, profileColumn(col))
	}
	return profile
}

func profileColumn(col *domain.Column) ColumnProfile {
	p := ColumnProfile{
		Name:    col.Name(),
		Kind:    col.Kind(),
		Missing: col.NullCount(),
	}
	p.Count = col.Len() - p.Missing

	if !col.Kind().IsNumeric() {
		distinct := make(map[string]struct{})
		for i := 0; i < col.Len(); i++ {
			if !col.IsNull(i) {
				distinct[col.Text(i)] = struct{}{}
			}
		}
		p.Distinct = len(distinct)
		return p
	}
	if p.Count == 0 {
		return p
	}

	values, _ := col.Numbers()
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	p.Min, p.Max = &lo, &hi

	// Count > 0 and the column is numeric, so these cannot fail
	if m, err := features.Mean(col); err == nil {
		p.Mean = &m
	}
	quantile := func(q float64) *float64 {
		v, err := features.Quantile(col, q)
		if err != nil {
			return nil
		}
		return &v
	}
	p.Q1, p.Median, p.Q3 = quantile(0.25), quantile(0.5), quantile(0.75)
	return p
}
