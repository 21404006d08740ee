package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "featurepipe/internal/errors"
	"featurepipe/pkg/contracts/domain"
)

var testToday = FixedClock(time.Date(2024, 3, 15, 17, 45, 0, 0, time.UTC))

func TestDecompose(t *testing.T) {
	source := employeeTable(t, sampleEmployees...)

	out, err := Decompose(source, testToday)
	require.NoError(t, err)

	assert.Equal(t, source.NumRows(), out.NumRows())
	assert.Equal(t, domain.KindDate, column(t, out, "join_date").Kind())
	assert.Equal(t, []int64{2019, 2021, 2022, 2020, 2018}, ints(column(t, out, "join_year")))
	assert.Equal(t, []int64{3, 7, 12, 1, 6}, ints(column(t, out, "join_month")))
	assert.Equal(t, []int64{1, 3, 4, 1, 2}, ints(column(t, out, "join_quarter")))
	assert.Equal(t, []int64{4, 3, 5, 2, 5}, ints(column(t, out, "join_day_of_week")))
	assert.Equal(t, []int64{0, 1, 1, 0, 0}, ints(column(t, out, "is_recent_hire")))

	tenure := column(t, out, "years_in_company")
	for i, want := range []float64{5.0, 2.7, 1.2, 4.2, 5.7} {
		assert.Equal(t, want, tenure.Float(i).Value, "row %d", i)
	}
}

func TestDecompose_QuarterMatchesMonth(t *testing.T) {
	rows := make([]employee, 12)
	for m := 1; m <= 12; m++ {
		rows[m-1] = employee{30, 1, 1, "IT", "A", time.Date(2020, time.Month(m), 10, 0, 0, 0, 0, time.UTC).Format("2006-01-02")}
	}

	out, err := Decompose(employeeTable(t, rows...), testToday)
	require.NoError(t, err)

	months := ints(column(t, out, "join_month"))
	quarters := ints(column(t, out, "join_quarter"))
	for i := range months {
		assert.Equal(t, (months[i]-1)/3+1, quarters[i])
	}
	assert.Equal(t, []int64{1, 1, 1, 2, 2, 2, 3, 3, 3, 4, 4, 4}, quarters)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2019, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
	}{
		{"iso", "2019-03-15"},
		{"padded", "  2019-03-15 "},
		{"slashes", "2019/03/15"},
		{"us", "03/15/2019"},
		{"short month", "15-Mar-2019"},
		{"long month", "March 15, 2019"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}

	t.Run("offset keeps the written day", func(t *testing.T) {
		got, err := ParseDate("2019-03-15T23:30:00-05:00")
		require.NoError(t, err)
		assert.Equal(t, 15, got.Day())
		assert.Equal(t, 23, got.Hour())
	})
}

func TestDecompose_UnparseableDateFailsStage(t *testing.T) {
	_, err := Decompose(employeeTable(t,
		employee{30, 1, 1, "IT", "A", "2020-01-01"},
		employee{30, 1, 1, "IT", "A", "not-a-date"},
	), testToday)

	require.ErrorIs(t, err, apperrors.ErrDateParse)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, StageTime, appErr.Stage())
	assert.Equal(t, "join_date", appErr.Column())
	assert.Equal(t, 1, appErr.Context[apperrors.ContextRow])
	assert.Equal(t, "not-a-date", appErr.Context[apperrors.ContextValue])
}

func TestDecompose_MissingDateStaysMissing(t *testing.T) {
	table := domain.MustTable(domain.NewOptionalStringColumn("join_date", []domain.Optional[string]{
		domain.None[string](), domain.Some(""), domain.Some("2021-01-04"),
	}))

	out, err := Decompose(table, testToday)
	require.NoError(t, err)

	for _, name := range []string{"join_date", "join_year", "years_in_company", "is_recent_hire"} {
		col := column(t, out, name)
		assert.True(t, col.IsNull(0), name)
		assert.True(t, col.IsNull(1), name)
		assert.False(t, col.IsNull(2), name)
	}
	assert.Equal(t, int64(0), column(t, out, "join_day_of_week").Int(2).Value)
}

func TestDecompose_AcceptsDateColumn(t *testing.T) {
	table := domain.MustTable(domain.NewDateColumn("join_date", []time.Time{
		time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC),
	}))

	out, err := Decompose(table, testToday)
	require.NoError(t, err)
	assert.Equal(t, 1.0, column(t, out, "years_in_company").Float(0).Value)
}

func TestDecompose_Errors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := Decompose(domain.MustTable(domain.NewIntColumn("age", []int64{1})), testToday)
		assert.ErrorIs(t, err, apperrors.ErrMissingColumn)
	})

	t.Run("numeric", func(t *testing.T) {
		_, err := Decompose(domain.MustTable(domain.NewIntColumn("join_date", []int64{20200101})), testToday)
		assert.ErrorIs(t, err, apperrors.ErrTypeMismatch)
	})
}

func TestElapsedDays(t *testing.T) {
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(0), ElapsedDays(today, today))
	assert.Equal(t, int64(366), ElapsedDays(time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC), today))
	assert.Equal(t, int64(-1), ElapsedDays(time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC), today))
	assert.Equal(t, int64(-10), ElapsedDays(time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC), today))
}

func TestIsoWeekday(t *testing.T) {
	monday := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		assert.Equal(t, i, IsoWeekday(monday.AddDate(0, 0, i)))
	}
}
