package flowbench

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchScenarios(n int) []Scenario {
	scenarios := make([]Scenario, n)
	for i := range scenarios {
		scenarios[i] = Scenario{
			Name:           fmt.Sprintf("team-%d", 5+i),
			TeamSize:       5 + i,
			CostPerSeat:    30,
			FeatureValue:   10000,
			AverageSalary:  120000,
			TestAutomation: 0.5,
		}
	}
	return scenarios
}

func TestRunBatch(t *testing.T) {
	scenarios := batchScenarios(6)

	results, err := RunBatch(context.Background(), scenarios, BatchOptions{Workers: 3})
	require.NoError(t, err)
	require.Len(t, results, len(scenarios))

	for i, r := range results {
		assert.Equal(t, scenarios[i].Name, r.Scenario.Name, "results keep scenario order")
		require.NoError(t, r.Err, "scenario %s", r.Scenario.Name)
		assert.Greater(t, r.Result.FinalThroughput, 0.0)
		assert.Greater(t, r.Elapsed.Nanoseconds(), int64(0))
	}
}

func TestRunBatch_FailureIsolated(t *testing.T) {
	scenarios := batchScenarios(3)
	scenarios[1].TestAutomation = 1.5 // invalid, pipeline construction fails

	results, err := RunBatch(context.Background(), scenarios, BatchOptions{})
	require.NoError(t, err, "one bad scenario must not fail the batch")

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err, "bad scenario reported in its own slot")
	assert.NoError(t, results[2].Err)
}

func TestRunBatch_Deterministic(t *testing.T) {
	scenarios := batchScenarios(4)

	first, err := RunBatch(context.Background(), scenarios, BatchOptions{Workers: 4})
	require.NoError(t, err)
	second, err := RunBatch(context.Background(), scenarios, BatchOptions{Workers: 1})
	require.NoError(t, err)

	for i := range first {
		assert.Equal(t, first[i].Result.OptimalAdoptionPercent, second[i].Result.OptimalAdoptionPercent,
			"scenario %s: concurrency must not change the answer", scenarios[i].Name)
		assert.Equal(t, first[i].Result.NetValuePerDay, second[i].Result.NetValuePerDay)
	}
}

func TestRunBatch_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunBatch(ctx, batchScenarios(8), BatchOptions{Workers: 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunBatch_CustomPolicy(t *testing.T) {
	policy := DefaultOptimizerPolicy()
	policy.ExploitationCap = 0.05

	results, err := RunBatch(context.Background(), batchScenarios(1), BatchOptions{Policy: &policy})
	require.NoError(t, err)
	require.NoError(t, results[0].Err)

	assert.LessOrEqual(t, results[0].Result.Exploitation.ImprovementPercent, 5.0+1e-9,
		"policy cap applies to every scenario in the batch")
}
