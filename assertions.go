package flowbench

import (
	"math"
	"testing"
)

// AssertBottleneck verifies the pipeline's constraint at the given adoption
// is the expected stage, and that the system throughput equals the
// bottleneck's own throughput.
//
// Mathematical property:
//
//	throughput = min over stages, utilization(bottleneck) = 1.0
func AssertBottleneck(t *testing.T, p *DeliveryPipeline, adoption float64, want Stage) {
	t.Helper()

	result := p.Throughput(adoption)

	if result.BottleneckStage != want {
		t.Errorf("Wrong bottleneck at adoption %.2f: got %s, want %s\n"+
			"Stage throughputs: %v",
			adoption, result.BottleneckStage, want, result.StageThroughputs)
		return
	}

	bottleneckTP := result.StageThroughputs[result.BottleneckStage]
	if math.Abs(result.ThroughputPerDay-bottleneckTP) > 1e-9 {
		t.Errorf("System throughput %.6f does not equal bottleneck throughput %.6f",
			result.ThroughputPerDay, bottleneckTP)
	}

	if util := result.Utilization[result.BottleneckStage]; math.Abs(util-1.0) > 1e-9 {
		t.Errorf("Bottleneck utilization = %.6f, want 1.0", util)
	}

	t.Logf("✓ Bottleneck: %s at %.3f items/day (adoption %.0f%%)",
		want, result.ThroughputPerDay, adoption*100)
}

// AssertStableQueue verifies an M/M/1 queue with the given rates is stable
// and its metrics are finite.
//
// Mathematical property:
//
//	ρ = λ/μ < 1 ⟹ L = ρ²/(1−ρ) finite
func AssertStableQueue(t *testing.T, arrivalRate, serviceRate float64) QueueMetrics {
	t.Helper()

	m, err := NewQueueMetrics(arrivalRate, serviceRate, DefaultCostOfDelay)
	if err != nil {
		t.Fatalf("Queue metrics failed: %v", err)
	}

	if !m.Stable() {
		t.Fatalf("Queue λ=%.2f μ=%.2f should be stable but is not", arrivalRate, serviceRate)
	}
	if math.IsInf(m.AvgWaitTime, 1) || math.IsNaN(m.AvgWaitTime) {
		t.Errorf("Stable queue has non-finite wait time: %v", m.AvgWaitTime)
	}

	t.Logf("✓ Stable queue: ρ = %.3f, L = %.3f, W = %.3f days",
		m.Utilization, m.AvgQueueLength, m.AvgWaitTime)
	return m
}

// AssertUnstableQueue verifies that μ ≤ λ produces the documented overload
// sentinel: utilization pinned at 1.0 and +Inf queue figures, never NaN and
// never an error.
func AssertUnstableQueue(t *testing.T, arrivalRate, serviceRate float64) {
	t.Helper()

	m, err := NewQueueMetrics(arrivalRate, serviceRate, DefaultCostOfDelay)
	if err != nil {
		t.Fatalf("Unstable queue must not error: %v", err)
	}

	if m.Stable() {
		t.Fatalf("Queue λ=%.2f μ=%.2f should be unstable", arrivalRate, serviceRate)
	}
	if m.Utilization != 1.0 {
		t.Errorf("Unstable utilization = %v, want 1.0", m.Utilization)
	}
	for name, v := range map[string]float64{
		"queue length": m.AvgQueueLength,
		"wait time":    m.AvgWaitTime,
		"system time":  m.AvgSystemTime,
		"queue cost":   m.QueueCostPerDay,
	} {
		if !math.IsInf(v, 1) {
			t.Errorf("Unstable %s = %v, want +Inf", name, v)
		}
		if math.IsNaN(v) {
			t.Errorf("Unstable %s is NaN", name)
		}
	}

	t.Logf("✓ Overload sentinel: λ=%.2f μ=%.2f → ρ=1.0, L=+Inf", arrivalRate, serviceRate)
}

// AssertExploitationCap verifies exploitation never claims more than the
// policy cap, regardless of constraint type.
func AssertExploitationCap(t *testing.T, o *ConstraintOptimizer, adoption float64, team TeamComposition, maxImprovement float64) {
	t.Helper()

	analysis := o.IdentifyConstraint(adoption, team)
	exploitation := o.ExploitConstraint(analysis, adoption)

	if exploitation.ImprovementPercent > maxImprovement*100+1e-9 {
		t.Errorf("Exploitation %.2f%% exceeds cap %.0f%% for constraint %s",
			exploitation.ImprovementPercent, maxImprovement*100, analysis.ConstraintType)
	}
	if exploitation.Cost != 0 {
		t.Errorf("Exploitation cost = %v, want 0 (exploitation is free by definition)", exploitation.Cost)
	}

	t.Logf("✓ Exploitation capped: %s improved %.1f%% (cap %.0f%%)",
		analysis.ConstraintType, exploitation.ImprovementPercent, maxImprovement*100)
}

// AssertDeterministic verifies that repeated optimization runs over the
// same pipeline produce identical results, including tie-breaking.
func AssertDeterministic(t *testing.T, o *ConstraintOptimizer, team TeamComposition, costPerSeat, featureValue, salary float64, runs int) {
	t.Helper()

	first, err := o.OptimizeForConstraint(team, costPerSeat, featureValue, salary)
	if err != nil {
		t.Fatalf("Optimization failed: %v", err)
	}

	for i := 1; i < runs; i++ {
		next, err := o.OptimizeForConstraint(team, costPerSeat, featureValue, salary)
		if err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
		if next.OptimalAdoptionPercent != first.OptimalAdoptionPercent {
			t.Fatalf("Run %d optimal adoption %.0f%% != first %.0f%%",
				i, next.OptimalAdoptionPercent, first.OptimalAdoptionPercent)
		}
		if next.NetValuePerDay != first.NetValuePerDay {
			t.Fatalf("Run %d net value %.6f != first %.6f",
				i, next.NetValuePerDay, first.NetValuePerDay)
		}
		if next.Analysis.ConstraintStage != first.Analysis.ConstraintStage {
			t.Fatalf("Run %d constraint %s != first %s",
				i, next.Analysis.ConstraintStage, first.Analysis.ConstraintStage)
		}
	}

	t.Logf("✓ Deterministic: %d runs agree on %.0f%% adoption, constraint %s",
		runs, first.OptimalAdoptionPercent, first.Analysis.ConstraintStage)
}
