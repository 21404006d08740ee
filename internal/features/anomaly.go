package features

import (
	apperrors "featurepipe/internal/errors"
	"featurepipe/pkg/contracts/domain"
)

const (
	iqrMultiplier = 1.5
	zThreshold    = 2.0
)

// Fence is an inclusive range of acceptable values. Values strictly
// outside it are flagged. A NaN bound flags nothing.
type Fence struct {
	Lower float64
	Upper float64
}

// Outside reports whether v lies strictly beyond either bound
func (f Fence) Outside(v float64) bool {
	return v < f.Lower || v > f.Upper
}

// IQRFence returns [Q1 - 1.5*IQR, Q3 + 1.5*IQR] for the column
func IQRFence(col *domain.Column) (Fence, error) {
	q1, err := Quantile(col, 0.25)
	if err != nil {
		return Fence{}, err
	}
	q3, err := Quantile(col, 0.75)
	if err != nil {
		return Fence{}, err
	}
	iqr := q3 - q1
	return Fence{Lower: q1 - iqrMultiplier*iqr, Upper: q3 + iqrMultiplier*iqr}, nil
}

// ZScoreFence returns [mean - 2*std, mean + 2*std] for the column.
// With a single value std is NaN and the fence flags nothing.
func ZScoreFence(col *domain.Column) (Fence, error) {
	m, err := Mean(col)
	if err != nil {
		return Fence{}, err
	}
	s, err := Std(col)
	if err != nil {
		return Fence{}, err
	}
	return Fence{Lower: m - zThreshold*s, Upper: m + zThreshold*s}, nil
}

// Flag marks each row 1 when its value is outside the fence, else 0.
// Missing values are never flagged.
func (f Fence) Flag(col *domain.Column, name string) *domain.Column {
	out := make([]int64, col.Len())
	for i := range out {
		if v := col.Float(i); v.Valid {
			out[i] = boolToInt(f.Outside(v.Value))
		}
	}
	return domain.NewIntColumn(name, out)
}

// FlagAnomalies appends salary_anomaly (IQR), score_anomaly (z-score),
// age_anomaly (IQR) and is_anomaly, the OR of the three. All four are 0/1.
// Statistics are global over each column, so a table without any salary,
// score or age values fails with an empty-column error.
func FlagAnomalies(table *domain.Table) (*domain.Table, error) {
	salary, err := requireNumeric(table, StageAnomaly, "salary")
	if err != nil {
		return nil, err
	}
	score, err := requireNumeric(table, StageAnomaly, "score")
	if err != nil {
		return nil, err
	}
	age, err := requireNumeric(table, StageAnomaly, "age")
	if err != nil {
		return nil, err
	}

	salaryFence, err := IQRFence(salary)
	if err != nil {
		return nil, apperrors.InStage(err, StageAnomaly)
	}
	scoreFence, err := ZScoreFence(score)
	if err != nil {
		return nil, apperrors.InStage(err, StageAnomaly)
	}
	ageFence, err := IQRFence(age)
	if err != nil {
		return nil, apperrors.InStage(err, StageAnomaly)
	}

	flags := []*domain.Column{
		salaryFence.Flag(salary, "salary_anomaly"),
		scoreFence.Flag(score, "score_anomaly"),
		ageFence.Flag(age, "age_anomaly"),
	}
	return table.WithColumns(append(flags, AnyFlag("is_anomaly", flags...))...)
}

// AnyFlag ORs already materialised 0/1 columns row by row
func AnyFlag(name string, flags ...*domain.Column) *domain.Column {
	n := 0
	if len(flags) > 0 {
		n = flags[0].Len()
	}
	out := make([]int64, n)
	for i := range out {
		for _, f := range flags {
			if f.Int(i).OrElse(0) == 1 {
				out[i] = 1
				break
			}
		}
	}
	return domain.NewIntColumn(name, out)
}
