package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "featurepipe/internal/errors"
	"featurepipe/pkg/contracts/domain"
)

func TestEncode(t *testing.T) {
	out, err := Encode(employeeTable(t, sampleEmployees...))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"age", "salary", "score", "category", "join_date",
		"dept_Finance", "dept_HR", "dept_IT", "category_encoded",
	}, out.ColumnNames())
	assert.False(t, out.Has("department"))

	assert.Equal(t, []int64{0, 0, 1, 0, 0}, ints(column(t, out, "dept_Finance")))
	assert.Equal(t, []int64{0, 1, 0, 0, 1}, ints(column(t, out, "dept_HR")))
	assert.Equal(t, []int64{1, 0, 0, 1, 0}, ints(column(t, out, "dept_IT")))
	assert.Equal(t, []int64{1, 2, 3, 2, 1}, ints(column(t, out, "category_encoded")))
}

func TestEncode_OneIndicatorPerRow(t *testing.T) {
	out, err := Encode(employeeTable(t, sampleEmployees...))
	require.NoError(t, err)

	for i := 0; i < out.NumRows(); i++ {
		sum := int64(0)
		for _, col := range out.Columns() {
			if len(col.Name()) > len(DepartmentPrefix) && col.Name()[:len(DepartmentPrefix)] == DepartmentPrefix {
				sum += col.Int(i).Value
			}
		}
		assert.Equal(t, int64(1), sum, "row %d", i)
	}
}

func TestEncode_UnknownCategoryIsMissing(t *testing.T) {
	out, err := Encode(employeeTable(t,
		employee{30, 1, 1, "IT", "D", "2020-01-01"},
		employee{30, 1, 1, "IT", "a", "2020-01-01"},
		employee{30, 1, 1, "IT", "C", "2020-01-01"},
	))
	require.NoError(t, err)

	encoded := column(t, out, "category_encoded")
	assert.True(t, encoded.IsNull(0))
	assert.True(t, encoded.IsNull(1))
	assert.Equal(t, int64(3), encoded.Int(2).Value)
	assert.Equal(t, "", encoded.Text(0))
}

func TestEncode_MissingDepartmentHasNoIndicator(t *testing.T) {
	table := domain.MustTable(
		domain.NewOptionalStringColumn("department", []domain.Optional[string]{domain.Some("IT"), domain.None[string]()}),
		domain.NewStringColumn("category", []string{"A", "B"}),
	)

	out, err := Encode(table)
	require.NoError(t, err)
	assert.Equal(t, []string{"category", "dept_IT", "category_encoded"}, out.ColumnNames())
	assert.Equal(t, []int64{1, 0}, ints(column(t, out, "dept_IT")))
}

func TestEncode_Errors(t *testing.T) {
	t.Run("missing category", func(t *testing.T) {
		_, err := Encode(domain.MustTable(domain.NewStringColumn("department", []string{"IT"})))
		assert.ErrorIs(t, err, apperrors.ErrMissingColumn)
	})

	t.Run("numeric department", func(t *testing.T) {
		_, err := Encode(domain.MustTable(
			domain.NewIntColumn("department", []int64{1}),
			domain.NewStringColumn("category", []string{"A"}),
		))
		require.ErrorIs(t, err, apperrors.ErrTypeMismatch)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, StageEncode, appErr.Stage())
		assert.Equal(t, "department", appErr.Column())
	})
}

func TestEncode_ZeroRows(t *testing.T) {
	out, err := Encode(employeeTable(t))
	require.NoError(t, err)
	assert.Equal(t, 0, out.NumRows())
	assert.True(t, out.Has("category_encoded"))
}

func TestLabelEncode_KeepsName(t *testing.T) {
	col := LabelEncode(domain.NewStringColumn("grade", []string{"x", "y"}), map[string]int64{"y": 7})
	assert.Equal(t, "grade", col.Name())
	assert.Equal(t, []int64{-1, 7}, ints(col))
}
