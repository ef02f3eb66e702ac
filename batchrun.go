package flowbench

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// BatchOptions configures a batch evaluation run.
type BatchOptions struct {
	// Workers bounds concurrent evaluations; ≤ 0 means 4.
	Workers int
	// Policy applies to every scenario's optimizer. The zero value means
	// the default policy.
	Policy *OptimizerPolicy
}

// BatchResult is one scenario's optimization outcome. Err is set when the
// scenario failed to build or optimize; Result is only meaningful when Err
// is nil.
type BatchResult struct {
	Scenario Scenario
	Result   OptimizationResult
	Err      error
	Elapsed  time.Duration
}

// RunBatch optimizes every scenario concurrently and returns results in
// scenario order. Each scenario gets its own pipeline and optimizer, so
// runs never share state. A scenario failure is reported in its slot, not
// returned; the batch error is only the context's, on cancellation.
func RunBatch(ctx context.Context, scenarios []Scenario, opts BatchOptions) ([]BatchResult, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	policy := DefaultOptimizerPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}

	results := make([]BatchResult, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, scenario := range scenarios {
		i, scenario := i, scenario
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			start := time.Now()
			results[i] = evaluateScenario(scenario, policy)
			results[i].Elapsed = time.Since(start)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func evaluateScenario(s Scenario, policy OptimizerPolicy) BatchResult {
	res := BatchResult{Scenario: s}

	pipeline, err := s.Pipeline()
	if err != nil {
		res.Err = err
		return res
	}

	team := s.Team
	if team.Total() == 0 {
		team = TeamComposition{Mid: s.TeamSize}
	}

	optimizer := NewConstraintOptimizerWithPolicy(pipeline, policy)
	res.Result, res.Err = optimizer.OptimizeForConstraint(team, s.CostPerSeat, s.FeatureValue, s.AverageSalary)
	return res
}
