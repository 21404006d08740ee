package features

import (
	"featurepipe/pkg/contracts/domain"
)

const (
	seniorAge        = 40
	highSalaryFloor  = 90000.0
	midSalaryFloor   = 55000.0
	bonusRate        = 0.10
	scoreRankDivisor = 10.0
)

// Derive appends row-wise computed columns to the table:
//
//	salary_per_age  round(salary/age, 2), IEEE division so age 0 yields ±Inf or NaN
//	annual_bonus    round(salary*0.10, 2)
//	is_senior       1 when age >= 40
//	salary_level    High above 90000, Mid above 55000, otherwise Low
//	score_rank      round(score/10, 1)
//
// A missing input yields a missing output in the same row.
func Derive(table *domain.Table) (*domain.Table, error) {
	age, err := requireNumeric(table, StageDerive, "age")
	if err != nil {
		return nil, err
	}
	salary, err := requireNumeric(table, StageDerive, "salary")
	if err != nil {
		return nil, err
	}
	score, err := requireNumeric(table, StageDerive, "score")
	if err != nil {
		return nil, err
	}

	n := table.NumRows()
	perAge := make([]domain.Optional[float64], n)
	senior := make([]domain.Optional[int64], n)
	level := make([]domain.Optional[string], n)

	for i := 0; i < n; i++ {
		a, s := age.Float(i), salary.Float(i)
		if a.Valid && s.Valid {
			perAge[i] = domain.Some(s.Value / a.Value)
		}
		if a.Valid {
			senior[i] = domain.Some(boolToInt(a.Value >= seniorAge))
		}
		if s.Valid {
			level[i] = domain.Some(SalaryLevel(s.Value))
		}
	}

	bonus := mapFloat(salary, func(v float64) float64 { return v * bonusRate })
	rank := mapFloat(score, func(v float64) float64 { return v / scoreRankDivisor })

	return table.WithColumns(
		domain.NewOptionalFloatColumn("salary_per_age", RoundAll(perAge, 2)),
		domain.NewOptionalFloatColumn("annual_bonus", RoundAll(bonus, 2)),
		domain.NewOptionalIntColumn("is_senior", senior),
		domain.NewOptionalStringColumn("salary_level", level),
		domain.NewOptionalFloatColumn("score_rank", RoundAll(rank, 1)),
	)
}

// SalaryLevel buckets a salary using exclusive lower thresholds,
// so exactly 90000 is Mid and exactly 55000 is Low.
func SalaryLevel(salary float64) string {
	switch {
	case salary > highSalaryFloor:
		return "High"
	case salary > midSalaryFloor:
		return "Mid"
	default:
		return "Low"
	}
}
