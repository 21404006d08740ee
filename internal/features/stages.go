package features

import (
	"featurepipe/pkg/contracts/domain"
)

// Stage identifiers
const (
	StageDerive  = "derive"
	StageEncode  = "encode"
	StageBin     = "bin"
	StageTime    = "time"
	StageAnomaly = "anomaly"
)

// Transform turns a source table into its augmented form
type Transform func(*domain.Table) (*domain.Table, error)

// Stage describes one independent transformation and where its result goes
type Stage struct {
	ID          string
	Name        string
	Output      string
	Description string
	Apply       Transform
}

// DefaultStages returns the five stages in pipeline order. The time stage
// reads today's date from clock.
func DefaultStages(clock Clock) []Stage {
	if clock == nil {
		clock = SystemClock{}
	}
	return []Stage{
		{
			ID:          StageDerive,
			Name:        "Derive Computed Columns",
			Output:      "derived_computed_columns.csv",
			Description: "Row-wise ratios, bonus, seniority and salary level",
			Apply:       Derive,
		},
		{
			ID:          StageEncode,
			Name:        "Encode Categorical Features",
			Output:      "encoded_categorical_features.csv",
			Description: "One-hot department and label-encoded category",
			Apply:       Encode,
		},
		{
			ID:          StageBin,
			Name:        "Bin Numeric Ranges",
			Output:      "binned_numeric_ranges.csv",
			Description: "Age groups, salary ranges and score grades",
			Apply:       Bin,
		},
		{
			ID:          StageTime,
			Name:        "Time Based Features",
			Output:      "time_based_features.csv",
			Description: "Calendar parts of join_date and tenure in years",
			Apply: func(t *domain.Table) (*domain.Table, error) {
				return Decompose(t, clock)
			},
		},
		{
			ID:          StageAnomaly,
			Name:        "Flag Anomalies",
			Output:      "flagged_anomalies.csv",
			Description: "IQR and z-score outlier flags",
			Apply:       FlagAnomalies,
		},
	}
}

// StageIDs lists the stage identifiers in pipeline order
func StageIDs() []string {
	return []string{StageDerive, StageEncode, StageBin, StageTime, StageAnomaly}
}

// Lookup finds a stage by id
func Lookup(stages []Stage, id string) (Stage, bool) {
	for _, s := range stages {
		if s.ID == id {
			return s, true
		}
	}
	return Stage{}, false
}
