package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "featurepipe/internal/errors"
	"featurepipe/pkg/contracts/domain"
)

func anomalyTable(t *testing.T) *domain.Table {
	t.Helper()
	salaries := []float64{50000, 51000, 52000, 53000, 54000, 55000, 56000, 57000, 58000, 200000}
	ages := []int64{30, 31, 18, 33, 34, 35, 36, 37, 38, 39}
	scores := []float64{50, 50, 50, 50, 50, 100, 50, 50, 50, 50}
	return domain.MustTable(
		domain.NewIntColumn("age", ages),
		domain.NewFloatColumn("salary", salaries),
		domain.NewFloatColumn("score", scores),
	)
}

func TestFlagAnomalies(t *testing.T) {
	source := anomalyTable(t)

	out, err := FlagAnomalies(source)
	require.NoError(t, err)

	assert.Equal(t, append(source.ColumnNames(),
		"salary_anomaly", "score_anomaly", "age_anomaly", "is_anomaly"), out.ColumnNames())
	assert.Equal(t, []int64{0, 0, 0, 0, 0, 0, 0, 0, 0, 1}, ints(column(t, out, "salary_anomaly")))
	assert.Equal(t, []int64{0, 0, 0, 0, 0, 1, 0, 0, 0, 0}, ints(column(t, out, "score_anomaly")))
	assert.Equal(t, []int64{0, 0, 1, 0, 0, 0, 0, 0, 0, 0}, ints(column(t, out, "age_anomaly")))
	assert.Equal(t, []int64{0, 0, 1, 0, 0, 1, 0, 0, 0, 1}, ints(column(t, out, "is_anomaly")))
}

func TestIQRFence(t *testing.T) {
	fence, err := IQRFence(column(t, anomalyTable(t), "salary"))
	require.NoError(t, err)
	assert.InDelta(t, 45500.0, fence.Lower, 1e-9)
	assert.InDelta(t, 63500.0, fence.Upper, 1e-9)

	assert.False(t, fence.Outside(63500), "bound itself is not an outlier")
	assert.True(t, fence.Outside(63500.01))
}

func TestZScoreFence_SingleValueFlagsNothing(t *testing.T) {
	fence, err := ZScoreFence(domain.NewFloatColumn("score", []float64{70}))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(fence.Lower))
	assert.False(t, fence.Outside(70))
	assert.False(t, fence.Outside(-1e9))
}

func TestFlagAnomalies_ConstantColumns(t *testing.T) {
	out, err := FlagAnomalies(employeeTable(t,
		employee{30, 1000, 70, "IT", "A", "2020-01-01"},
		employee{30, 1000, 70, "IT", "A", "2020-01-01"},
	))
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 0}, ints(column(t, out, "is_anomaly")))
}

func TestFlagAnomalies_SingleRow(t *testing.T) {
	out, err := FlagAnomalies(employeeTable(t, sampleEmployees[0]))
	require.NoError(t, err)
	for _, name := range []string{"salary_anomaly", "score_anomaly", "age_anomaly", "is_anomaly"} {
		assert.Equal(t, []int64{0}, ints(column(t, out, name)), name)
	}
}

func TestFlagAnomalies_MissingValuesAreNotFlagged(t *testing.T) {
	table := domain.MustTable(
		domain.NewIntColumn("age", []int64{30, 31, 32}),
		domain.NewOptionalFloatColumn("salary", []domain.Optional[float64]{
			domain.Some(1000.0), domain.None[float64](), domain.Some(1100.0),
		}),
		domain.NewFloatColumn("score", []float64{1, 2, 3}),
	)

	out, err := FlagAnomalies(table)
	require.NoError(t, err)
	flag := column(t, out, "salary_anomaly")
	assert.Equal(t, 0, flag.NullCount())
	assert.Equal(t, []int64{0, 0, 0}, ints(flag))
}

func TestFlagAnomalies_NaNTreatedAsMissing(t *testing.T) {
	salaries := []float64{50000, 51000, 52000, 53000, 54000, 55000, 56000, 57000, 58000}
	scores := []float64{50, 50, 50, 50, 50, 100, 50, 50, 50}
	ages := domain.NewIntColumn("age", []int64{30, 31, 18, 33, 34, 35, 36, 37, 38, 39})

	withNaN := domain.MustTable(ages,
		domain.NewFloatColumn("salary", append(append([]float64{}, salaries...), math.NaN())),
		domain.NewFloatColumn("score", append(append([]float64{}, scores...), math.NaN())),
	)
	blank := func(values []float64) []domain.Optional[float64] {
		out := make([]domain.Optional[float64], 0, len(values)+1)
		for _, v := range values {
			out = append(out, domain.Some(v))
		}
		return append(out, domain.None[float64]())
	}
	withNull := domain.MustTable(ages,
		domain.NewOptionalFloatColumn("salary", blank(salaries)),
		domain.NewOptionalFloatColumn("score", blank(scores)),
	)

	got, err := FlagAnomalies(withNaN)
	require.NoError(t, err)
	want, err := FlagAnomalies(withNull)
	require.NoError(t, err)

	assert.Equal(t, []int64{0, 0, 0, 0, 0, 1, 0, 0, 0, 0}, ints(column(t, got, "score_anomaly")))
	for _, name := range []string{"salary_anomaly", "score_anomaly", "age_anomaly", "is_anomaly"} {
		assert.Equal(t, ints(column(t, want, name)), ints(column(t, got, name)), name)
	}
}

func TestFlagAnomalies_ZeroRowsFails(t *testing.T) {
	_, err := FlagAnomalies(employeeTable(t))
	require.ErrorIs(t, err, apperrors.ErrEmptyColumn)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, StageAnomaly, appErr.Stage())
	assert.Equal(t, "salary", appErr.Column())
}

func TestFlagAnomalies_AllMissingScore(t *testing.T) {
	table := domain.MustTable(
		domain.NewIntColumn("age", []int64{30}),
		domain.NewFloatColumn("salary", []float64{1000}),
		domain.NewOptionalFloatColumn("score", []domain.Optional[float64]{domain.None[float64]()}),
	)

	_, err := FlagAnomalies(table)
	require.ErrorIs(t, err, apperrors.ErrEmptyColumn)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "score", appErr.Column())
}

func TestAnyFlag(t *testing.T) {
	a := domain.NewIntColumn("a", []int64{0, 1, 0, 0})
	b := domain.NewIntColumn("b", []int64{0, 0, 1, 0})
	c := domain.NewIntColumn("c", []int64{0, 1, 0, 0})

	assert.Equal(t, []int64{0, 1, 1, 0}, ints(AnyFlag("any", a, b, c)))
	assert.Equal(t, 0, AnyFlag("none").Len())
}
