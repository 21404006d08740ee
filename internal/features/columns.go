package features

import (
	apperrors "featurepipe/internal/errors"
	"featurepipe/pkg/contracts/domain"
)

// requireNumeric looks up a required int or float column
func requireNumeric(table *domain.Table, stage, name string) (*domain.Column, error) {
	col, ok := table.Column(name)
	if !ok {
		return nil, apperrors.NewMissingColumnError(stage, name)
	}
	if !col.Kind().IsNumeric() {
		return nil, apperrors.NewTypeMismatchError(stage, name, "numeric", string(col.Kind()))
	}
	return col, nil
}

// requireKind looks up a required column of one of the given kinds
func requireKind(table *domain.Table, stage, name string, kinds ...domain.ColumnKind) (*domain.Column, error) {
	col, ok := table.Column(name)
	if !ok {
		return nil, apperrors.NewMissingColumnError(stage, name)
	}
	for _, k := range kinds {
		if col.Kind() == k {
			return col, nil
		}
	}
	return nil, apperrors.NewTypeMismatchError(stage, name, string(kinds[0]), string(col.Kind()))
}

// mapFloat applies fn to every present value, keeping missing rows missing
func mapFloat(col *domain.Column, fn func(float64) float64) []domain.Optional[float64] {
	out := make([]domain.Optional[float64], col.Len())
	for i := range out {
		if v := col.Float(i); v.Valid {
			out[i] = domain.Some(fn(v.Value))
		}
	}
	return out
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
