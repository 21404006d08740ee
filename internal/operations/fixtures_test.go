package operations

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"featurepipe/internal/features"
	"featurepipe/pkg/contracts/domain"
)

var fixedToday = features.FixedClock(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))

func staffTable(t *testing.T) *domain.Table {
	t.Helper()
	table, err := domain.NewTable(
		domain.NewIntColumn("age", []int64{45, 28, 35, 52, 23}),
		domain.NewFloatColumn("salary", []float64{95000, 48000, 67000, 125000, 38000}),
		domain.NewFloatColumn("score", []float64{40, 75, 88, 92, 55}),
		domain.NewStringColumn("department", []string{"IT", "HR", "IT", "Finance", "HR"}),
		domain.NewStringColumn("category", []string{"A", "B", "C", "A", "B"}),
		domain.NewStringColumn("join_date", []string{"2019-03-15", "2021-06-20", "2022-12-01", "2019-11-11", "2018-06-30"}),
	)
	require.NoError(t, err)
	return table
}

// fakeStep is a configurable Step for orchestration tests
type fakeStep struct {
	BaseStage
	run   func(ctx context.Context) error
	calls atomic.Int32
}

func newFakeStep(id string, deps []string, run func(ctx context.Context) error) *fakeStep {
	return &fakeStep{BaseStage: NewBaseStage(id, "fake "+id, deps), run: run}
}

func (f *fakeStep) Execute(ctx context.Context, _ *OperationState) error {
	f.calls.Add(1)
	if f.run == nil {
		return nil
	}
	return f.run(ctx)
}

func ok(context.Context) error { return nil }

func failing(err error) func(context.Context) error {
	return func(context.Context) error { return err }
}

func blockUntilDone(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func registryOf(t *testing.T, steps ...Step) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, s := range steps {
		require.NoError(t, r.Register(s))
	}
	return r
}

func stepStatuses(resp *OperationResponse) map[string]StepStatus {
	out := make(map[string]StepStatus, len(resp.Steps))
	for _, s := range resp.Steps {
		out[s.ID] = s.Status
	}
	return out
}
