package features

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	apperrors "featurepipe/internal/errors"
	"featurepipe/pkg/contracts/domain"
)

// Quantile returns the q-th quantile (0 <= q <= 1) of the non-missing values
// of a numeric column using linear interpolation between the order statistics
// at floor and ceil of rank q*(n-1).
func Quantile(col *domain.Column, q float64) (float64, error) {
	if q < 0 || q > 1 || math.IsNaN(q) {
		return 0, apperrors.NewAppValidationError("quantile must be within [0, 1]").
			WithContext(apperrors.ContextColumn, col.Name()).
			WithContext(apperrors.ContextValue, q)
	}
	values, err := numbers(col)
	if err != nil {
		return 0, err
	}
	sort.Float64s(values)
	return quantileSorted(values, q), nil
}

// quantileSorted expects a non-empty ascending slice
func quantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	rank := q * float64(n-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}

// Mean returns the arithmetic mean of the non-missing values
func Mean(col *domain.Column) (float64, error) {
	values, err := numbers(col)
	if err != nil {
		return 0, err
	}
	return mean(values), nil
}

// Std returns the sample standard deviation (denominator n-1) of the
// non-missing values. It is NaN when only one value is present.
func Std(col *domain.Column) (float64, error) {
	values, err := numbers(col)
	if err != nil {
		return 0, err
	}
	return sampleStd(values), nil
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sampleStd(values []float64) float64 {
	n := len(values)
	if n <= 1 {
		return math.NaN()
	}
	m := mean(values)
	sumSquaredDiff := 0.0
	for _, v := range values {
		diff := v - m
		sumSquaredDiff += diff * diff
	}
	return math.Sqrt(sumSquaredDiff / float64(n-1))
}

// numbers returns a fresh slice of the column's non-missing values.
// NaN counts as missing.
func numbers(col *domain.Column) ([]float64, error) {
	all, ok := col.Numbers()
	if !ok {
		return nil, apperrors.NewTypeMismatchError("", col.Name(), "numeric", string(col.Kind()))
	}
	values := all[:0]
	for _, v := range all {
		if !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, apperrors.NewEmptyColumnError("", col.Name())
	}
	return values, nil
}

// RoundTo rounds half to even at the given number of decimal places.
// The value is rounded as its shortest decimal representation, so 0.125
// becomes 0.12 and 0.375 becomes 0.38. Rounding the binary value instead
// can differ on such ties: 107/40 gives 2.68 here where numpy gives 2.67.
// NaN and infinities pass through.
func RoundTo(v float64, decimals int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	rounded, _ := decimal.NewFromFloat(v).RoundBank(decimals).Float64()
	return rounded
}

// RoundAll applies RoundTo element-wise, preserving missing values
func RoundAll(values []domain.Optional[float64], decimals int32) []domain.Optional[float64] {
	out := make([]domain.Optional[float64], len(values))
	for i, v := range values {
		if v.Valid {
			out[i] = domain.Some(RoundTo(v.Value, decimals))
		}
	}
	return out
}
