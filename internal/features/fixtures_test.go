package features

import (
	"testing"

	"github.com/stretchr/testify/require"

	"featurepipe/pkg/contracts/domain"
)

type employee struct {
	age        int64
	salary     float64
	score      float64
	department string
	category   string
	joinDate   string
}

var sampleEmployees = []employee{
	{45, 95000, 40, "IT", "A", "2019-03-15"},
	{25, 50000, 49, "HR", "B", "2021-07-01"},
	{26, 50001, 50, "Finance", "C", "2022-12-31"},
	{39, 60000, 85, "IT", "B", "2020-01-01"},
	{40, 90000, 86, "HR", "A", "2018-06-30"},
}

// employeeTable builds a table with the loader's column order and kinds
func employeeTable(t *testing.T, rows ...employee) *domain.Table {
	t.Helper()
	n := len(rows)
	ages := make([]int64, n)
	salaries := make([]float64, n)
	scores := make([]float64, n)
	departments := make([]string, n)
	categories := make([]string, n)
	dates := make([]string, n)
	for i, r := range rows {
		ages[i] = r.age
		salaries[i] = r.salary
		scores[i] = r.score
		departments[i] = r.department
		categories[i] = r.category
		dates[i] = r.joinDate
	}
	table, err := domain.NewTable(
		domain.NewIntColumn("age", ages),
		domain.NewFloatColumn("salary", salaries),
		domain.NewFloatColumn("score", scores),
		domain.NewStringColumn("department", departments),
		domain.NewStringColumn("category", categories),
		domain.NewStringColumn("join_date", dates),
	)
	require.NoError(t, err)
	return table
}

func column(t *testing.T, table *domain.Table, name string) *domain.Column {
	t.Helper()
	col, ok := table.Column(name)
	require.True(t, ok, "column %s missing, have %v", name, table.ColumnNames())
	return col
}

func ints(col *domain.Column) []int64 {
	out := make([]int64, col.Len())
	for i := range out {
		out[i] = col.Int(i).OrElse(-1)
	}
	return out
}

func strs(col *domain.Column) []string {
	out := make([]string, col.Len())
	for i := range out {
		out[i] = col.String(i).OrElse("<null>")
	}
	return out
}
