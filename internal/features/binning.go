package features

import (
	"fmt"
	"math"

	"featurepipe/pkg/contracts/domain"
)

// BinSpec partitions a numeric range into labelled right-closed intervals:
// a value v falls in bin i when Edges[i] < v <= Edges[i+1].
type BinSpec struct {
	Source string
	Target string
	Edges  []float64
	Labels []string
}

// NewBinSpec validates that edges strictly increase and that there is
// exactly one label per interval.
func NewBinSpec(source, target string, edges []float64, labels []string) (BinSpec, error) {
	if len(edges) < 2 {
		return BinSpec{}, fmt.Errorf("bin spec %s: need at least two edges, got %d", target, len(edges))
	}
	if len(labels) != len(edges)-1 {
		return BinSpec{}, fmt.Errorf("bin spec %s: %d labels for %d intervals", target, len(labels), len(edges)-1)
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return BinSpec{}, fmt.Errorf("bin spec %s: edges must strictly increase at index %d", target, i)
		}
	}
	return BinSpec{Source: source, Target: target, Edges: edges, Labels: labels}, nil
}

func mustBinSpec(source, target string, edges []float64, labels []string) BinSpec {
	spec, err := NewBinSpec(source, target, edges, labels)
	if err != nil {
		panic(err)
	}
	return spec
}

// Fixed bins. score_grade keeps (0,49] as Fail, so 49 is Fail and 50 is Pass.
var (
	AgeGroups = mustBinSpec("age", "age_group",
		[]float64{0, 25, 35, 45, 100},
		[]string{"Young", "Adult", "Mid-Age", "Senior"})
	SalaryRanges = mustBinSpec("salary", "salary_range",
		[]float64{0, 50000, 80000, 120000, math.Inf(1)},
		[]string{"Entry", "Mid", "Senior", "Executive"})
	ScoreGrades = mustBinSpec("score", "score_grade",
		[]float64{0, 49, 70, 85, 100},
		[]string{"Fail", "Pass", "Good", "Excellent"})
)

// DefaultBins lists the specs applied by Bin, in output order
func DefaultBins() []BinSpec {
	return []BinSpec{AgeGroups, SalaryRanges, ScoreGrades}
}

// Assign returns the label of the interval holding v, or none when v is
// outside every interval or NaN.
func (b BinSpec) Assign(v float64) domain.Optional[string] {
	if math.IsNaN(v) || v <= b.Edges[0] || v > b.Edges[len(b.Edges)-1] {
		return domain.None[string]()
	}
	for i := 1; i < len(b.Edges); i++ {
		if v <= b.Edges[i] {
			return domain.Some(b.Labels[i-1])
		}
	}
	return domain.None[string]()
}

// Apply labels every row of the source column
func (b BinSpec) Apply(col *domain.Column) *domain.Column {
	out := make([]domain.Optional[string], col.Len())
	for i := range out {
		if v := col.Float(i); v.Valid {
			out[i] = b.Assign(v.Value)
		}
	}
	return domain.NewOptionalStringColumn(b.Target, out)
}

// Bin appends age_group, salary_range and score_grade. Source columns are kept.
func Bin(table *domain.Table) (*domain.Table, error) {
	return BinWith(table, DefaultBins()...)
}

// BinWith appends one label column per spec
func BinWith(table *domain.Table, specs ...BinSpec) (*domain.Table, error) {
	cols := make([]*domain.Column, 0, len(specs))
	for _, spec := range specs {
		src, err := requireNumeric(table, StageBin, spec.Source)
		if err != nil {
			return nil, err
		}
		cols = append(cols, spec.Apply(src))
	}
	return table.WithColumns(cols...)
}
