// Package flowbench models the economics of a multi-stage software delivery
// pipeline and searches for the automation-adoption level that maximizes net
// value, using the Theory of Constraints.
//
// # Overview
//
// flowbench answers three questions about a delivery process:
//
//   - Which stage limits total throughput? (the constraint)
//   - What does every queued work item cost per day? (cost of delay)
//   - At which automation-adoption level is net value per day highest?
//
// The model is deterministic and pure: no wall clock, no randomness, no I/O.
// Time is advanced by the caller, which makes every result reproducible.
//
// # The Pipeline
//
// A DeliveryPipeline composes seven stages (requirements → design → coding →
// testing → code_review → deployment → monitoring), each described by a
// StageMetrics with baseline rates and automation multipliers:
//
//	effective = base × (1 + (multiplier − 1) × adoption)
//
// Overall throughput follows the Theory of Constraints: the pipeline moves
// exactly as fast as its slowest stage.
//
//	pipeline, err := flowbench.StandardPipeline(10, 0.5, flowbench.DeployWeekly)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res := pipeline.Throughput(0.5)
//	fmt.Printf("Bottleneck: %s at %.2f items/day\n",
//	    res.BottleneckStage, res.ThroughputPerDay)
//
// # Queueing Theory
//
// Queues between stages are modeled with the M/M/1 approximation. Given
// arrival rate λ and service rate μ:
//
//	ρ = λ/μ               (utilization)
//	L = ρ²/(1−ρ)          (average queue length)
//	W = L/λ               (average wait)
//
// When μ ≤ λ the queue is unstable: utilization pins to 1.0 and length,
// wait and cost become +Inf — an explicit sentinel, never a NaN or a panic.
// Check QueueMetrics.Stable before formatting results.
//
// Little's Law connects work in progress to lead time:
//
//	lead time = WIP / throughput
//
// # Economic Batch Sizing
//
// OptimalBatchSize balances transaction cost against holding cost:
//
//	batch ≈ sqrt(2 × transactionCost × demandRate / holdingCost) / (1 + CV)
//
// Higher variability (coefficient of variation) pushes toward smaller
// batches. BatchDelayCost prices the wait batching imposes on early items.
//
// # The Five Focusing Steps
//
// ConstraintOptimizer implements Goldratt's loop:
//
//  1. Identify the constraint (bottleneck stage).
//  2. Exploit it: zero-cost process improvements, capped at 30%.
//  3. Subordinate every other stage to the constraint's pace.
//  4. Elevate: buy capacity, picking the option with the best monthly ROI.
//  5. Repeat — the constraint moves.
//
//	opt := flowbench.NewConstraintOptimizer(pipeline)
//	best, err := opt.OptimizeForConstraint(
//	    flowbench.TeamComposition{Senior: 2, Mid: 5, Junior: 3},
//	    100,    // cost per automation seat per month
//	    4000,   // value per feature
//	    120000, // average salary
//	)
//
// OptimizeForConstraint scans adoption levels 10%–90% in 10-point steps and
// returns the grid point with the highest net value per day. It is a grid
// scan, not a continuous optimizer; two calls with identical inputs return
// identical results.
//
// All heuristic constants of the search (exploitation cap, effectiveness,
// constraint cost rate, ROI horizon) live in OptimizerPolicy and can be
// tuned; the defaults preserve the reference behavior.
//
// # Scenarios and Batch Evaluation
//
// Scenario files (YAML) carry the business parameters: team size and
// composition, seat cost, feature value, salary, automation coverage.
// RunBatch evaluates many scenarios concurrently, one independent
// pipeline+optimizer instance per scenario. A single instance is not safe
// for concurrent mutation; separate instances are.
//
// # Testing
//
// Use the assertion helpers to validate flow properties:
//
//	func TestMyPipeline(t *testing.T) {
//	    flowbench.AssertBottleneck(t, pipeline, 0.3, flowbench.StageTesting)
//	    flowbench.AssertStableQueue(t, 9, 10)
//	}
//
// # See Also
//
//   - examples/ - Working code samples
//   - cmd/flowbench - CLI for scenario optimization
package flowbench
