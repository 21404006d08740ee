package features

import (
	"math"
	"strings"
	"time"

	apperrors "featurepipe/internal/errors"
	"featurepipe/pkg/contracts/domain"
)

// Clock supplies the current time to stages that depend on it
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant
type FixedClock time.Time

// Now returns the fixed instant
func (c FixedClock) Now() time.Time { return time.Time(c) }

const (
	recentHireYear = 2021
	daysPerYear    = 365
	secondsPerDay  = 24 * 60 * 60
)

// DateLayouts are tried in order when a join_date cell is text
var DateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate parses s with the first matching layout in DateLayouts.
// The returned time carries the written calendar fields in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range DateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return asUTCDate(t, false), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// asUTCDate keeps the wall-clock fields of t and moves them to UTC.
// When truncate is set the time of day is dropped.
func asUTCDate(t time.Time, truncate bool) time.Time {
	if truncate {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Decompose replaces join_date with its parsed date and appends
// join_year, join_month, join_quarter, join_day_of_week (0 = Monday),
// years_in_company and is_recent_hire.
//
// years_in_company is whole elapsed days divided by a fixed 365-day year,
// rounded to one decimal, measured to the clock's current date. Output
// therefore depends on when the stage runs.
//
// Any non-empty join_date that does not parse fails the whole stage.
func Decompose(table *domain.Table, clock Clock) (*domain.Table, error) {
	col, err := requireKind(table, StageTime, "join_date", domain.KindString, domain.KindDate)
	if err != nil {
		return nil, err
	}
	dates, err := joinDates(col)
	if err != nil {
		return nil, err
	}

	today := asUTCDate(clock.Now(), true)
	n := len(dates)
	year := make([]domain.Optional[int64], n)
	month := make([]domain.Optional[int64], n)
	quarter := make([]domain.Optional[int64], n)
	weekday := make([]domain.Optional[int64], n)
	tenure := make([]domain.Optional[float64], n)
	recent := make([]domain.Optional[int64], n)

	for i, d := range dates {
		t, ok := d.Get()
		if !ok {
			continue
		}
		m := int64(t.Month())
		year[i] = domain.Some(int64(t.Year()))
		month[i] = domain.Some(m)
		quarter[i] = domain.Some((m-1)/3 + 1)
		weekday[i] = domain.Some(int64(IsoWeekday(t)))
		tenure[i] = domain.Some(RoundTo(float64(ElapsedDays(t, today))/daysPerYear, 1))
		recent[i] = domain.Some(boolToInt(t.Year() >= recentHireYear))
	}

	out := table.Without("join_date")
	return out.WithColumns(
		domain.NewOptionalDateColumn("join_date", dates),
		domain.NewOptionalIntColumn("join_year", year),
		domain.NewOptionalIntColumn("join_month", month),
		domain.NewOptionalIntColumn("join_quarter", quarter),
		domain.NewOptionalIntColumn("join_day_of_week", weekday),
		domain.NewOptionalFloatColumn("years_in_company", tenure),
		domain.NewOptionalIntColumn("is_recent_hire", recent),
	)
}

func joinDates(col *domain.Column) ([]domain.Optional[time.Time], error) {
	out := make([]domain.Optional[time.Time], col.Len())
	for i := range out {
		if col.Kind() == domain.KindDate {
			if d, ok := col.Date(i).Get(); ok {
				out[i] = domain.Some(asUTCDate(d, false))
			}
			continue
		}
		raw, ok := col.String(i).Get()
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		t, err := ParseDate(raw)
		if err != nil {
			return nil, apperrors.NewDateParseError(StageTime, col.Name(), i, raw, err)
		}
		out[i] = domain.Some(t)
	}
	return out, nil
}

// IsoWeekday numbers Monday as 0 through Sunday as 6
func IsoWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ElapsedDays returns the whole days from since to until, rounding toward
// negative infinity so a partial day before since counts as -1.
func ElapsedDays(since, until time.Time) int64 {
	secs := until.Unix() - since.Unix()
	return int64(math.Floor(float64(secs) / secondsPerDay))
}
