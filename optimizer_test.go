package flowbench

import (
	"math"
	"testing"
)

func standardOptimizer(t *testing.T) *ConstraintOptimizer {
	t.Helper()
	p, err := StandardPipeline(10, 0.5, DeployWeekly)
	if err != nil {
		t.Fatalf("StandardPipeline failed: %v", err)
	}
	return NewConstraintOptimizer(p)
}

var referenceTeam = TeamComposition{Senior: 3, Mid: 5, Junior: 2}

// TestIdentifyConstraint verifies step 1: the analysis names the pipeline's
// bottleneck, reports its utilization as 1.0, and prices the upstream
// buildup.
func TestIdentifyConstraint(t *testing.T) {
	o := standardOptimizer(t)

	analysis := o.IdentifyConstraint(0.5, referenceTeam)

	if analysis.ConstraintStage != StageTesting {
		t.Errorf("Constraint = %s, want testing for 50%% automation", analysis.ConstraintStage)
	}
	if analysis.ConstraintType != ConstraintTesting {
		t.Errorf("ConstraintType = %s, want testing", analysis.ConstraintType)
	}
	if math.Abs(analysis.ConstraintUtilization-1.0) > 1e-9 {
		t.Errorf("Constraint utilization = %v, want 1.0", analysis.ConstraintUtilization)
	}
	if analysis.QueueBuildup[analysis.ConstraintStage] != 0 {
		t.Errorf("Constraint has buildup %v against itself, want 0",
			analysis.QueueBuildup[analysis.ConstraintStage])
	}
	if analysis.CostOfConstraint <= 0 {
		t.Errorf("CostOfConstraint = %v, want > 0 (upstream stages are faster)", analysis.CostOfConstraint)
	}
	for stage, excess := range analysis.QueueBuildup {
		if excess < 0 {
			t.Errorf("Negative buildup %v at %s", excess, stage)
		}
	}

	t.Logf("✓ Constraint %s at %.2f items/day, buildup costs $%.0f/day",
		analysis.ConstraintStage, analysis.CurrentThroughput, analysis.CostOfConstraint)
}

// TestIdentifyConstraint_Pure verifies identification keeps no state: two
// calls on one optimizer return equal, independent analyses.
func TestIdentifyConstraint_Pure(t *testing.T) {
	o := standardOptimizer(t)

	a := o.IdentifyConstraint(0.5, referenceTeam)
	b := o.IdentifyConstraint(0.5, referenceTeam)

	if a.ConstraintStage != b.ConstraintStage || a.CurrentThroughput != b.CurrentThroughput {
		t.Fatalf("Repeated identification differs: %+v vs %+v", a, b)
	}

	// Mutating one result's maps must not leak into the next call.
	a.QueueBuildup[StageCoding] = -1
	c := o.IdentifyConstraint(0.5, referenceTeam)
	if c.QueueBuildup[StageCoding] == -1 {
		t.Error("Analysis maps are shared between calls")
	}

	t.Logf("✓ Identification is pure; caller owns each analysis")
}

// TestExploitConstraint_Cap verifies step 2 never claims more than the
// policy cap, for every playbook including the default.
func TestExploitConstraint_Cap(t *testing.T) {
	o := standardOptimizer(t)
	policy := DefaultOptimizerPolicy()

	for _, ct := range []ConstraintType{
		ConstraintCodeReview, ConstraintTesting, ConstraintDeployment,
		ConstraintCoding, ConstraintRequirements,
	} {
		analysis := ConstraintAnalysis{ConstraintType: ct, CurrentThroughput: 2.0}
		result := o.ExploitConstraint(analysis, 0.5)

		if result.ImprovementPercent > policy.ExploitationCap*100+1e-9 {
			t.Errorf("%s: improvement %.1f%% exceeds %.0f%% cap",
				ct, result.ImprovementPercent, policy.ExploitationCap*100)
		}
		if result.Cost != 0 {
			t.Errorf("%s: exploitation cost %v, want 0", ct, result.Cost)
		}
		if result.TimelineDays != policy.ExploitationTimelineDays {
			t.Errorf("%s: timeline %d, want %d", ct, result.TimelineDays, policy.ExploitationTimelineDays)
		}

		wantTP := 2.0 * (1 + result.ImprovementPercent/100)
		if math.Abs(result.ExploitedThroughput-wantTP) > 1e-9 {
			t.Errorf("%s: exploited throughput %v, want %v", ct, result.ExploitedThroughput, wantTP)
		}
	}

	t.Logf("✓ Exploitation free and capped at %.0f%% for every constraint type",
		policy.ExploitationCap*100)
}

// TestExploitConstraint_LeverSums checks the reference discounting: raw
// lever sums × 0.7 effectiveness.
func TestExploitConstraint_LeverSums(t *testing.T) {
	o := standardOptimizer(t)

	cases := map[ConstraintType]float64{
		ConstraintCodeReview: 0.20 * 0.7, // 5+8+4+3 %
		ConstraintTesting:    0.25 * 0.7, // 10+6+5+4 %
		ConstraintDeployment: 0.25 * 0.7, // 12+6+4+3 %
		ConstraintCoding:     0,          // no playbook, no levers
	}
	for ct, want := range cases {
		analysis := ConstraintAnalysis{ConstraintType: ct, CurrentThroughput: 1.0}
		got := o.ExploitConstraint(analysis, 0.5).ImprovementPercent / 100
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("%s: effective improvement %v, want %v", ct, got, want)
		}
	}
}

// TestSubordinateToConstraint verifies step 3 emits the playbook rules and
// nothing for constraint types without one.
func TestSubordinateToConstraint(t *testing.T) {
	o := standardOptimizer(t)

	rules := o.SubordinateToConstraint(ConstraintAnalysis{
		ConstraintType:  ConstraintCodeReview,
		ConstraintStage: StageCodeReview,
	})
	if len(rules) != 2 {
		t.Fatalf("Review constraint produced %d rules, want 2", len(rules))
	}
	if rules[0].Stage != StageCoding || rules[0].RuleType != "batch_size" {
		t.Errorf("First rule = %s/%s, want coding/batch_size", rules[0].Stage, rules[0].RuleType)
	}
	for _, r := range rules {
		if r.ConstraintStage != StageCodeReview {
			t.Errorf("Rule for %s targets %s, want code_review", r.Stage, r.ConstraintStage)
		}
		if r.ImpactFactor <= 0 || r.ImpactFactor > 1 {
			t.Errorf("Rule impact %v out of (0, 1]", r.ImpactFactor)
		}
	}

	if got := o.SubordinateToConstraint(ConstraintAnalysis{ConstraintType: ConstraintCoding}); got != nil {
		t.Errorf("Coding constraint produced %d rules, want none", len(got))
	}

	t.Logf("✓ Subordination rules come from the constraint playbook")
}

// TestElevateConstraint verifies step 4 ranks options by monthly ROI:
// for a review constraint, promoting (30 items for ~$2083/mo) beats hiring
// (40 items for $15000/mo).
func TestElevateConstraint(t *testing.T) {
	o := standardOptimizer(t)

	result := o.ElevateConstraint(ConstraintAnalysis{
		ConstraintType:  ConstraintCodeReview,
		ConstraintStage: StageCodeReview,
	}, referenceTeam)

	if len(result.Options) != 3 {
		t.Fatalf("Review elevation has %d options, want 3", len(result.Options))
	}
	if result.Recommended == nil {
		t.Fatal("No recommended option")
	}
	if result.Recommended.Strategy != "promote_mid_to_senior" {
		t.Errorf("Recommended = %s, want promote_mid_to_senior (best throughput per monthly $)",
			result.Recommended.Strategy)
	}

	// Unknown constraint types have no priced options.
	empty := o.ElevateConstraint(ConstraintAnalysis{ConstraintType: ConstraintMonitoring}, referenceTeam)
	if empty.Recommended != nil || len(empty.Options) != 0 {
		t.Errorf("Monitoring constraint yielded %d options, want none", len(empty.Options))
	}

	t.Logf("✓ Recommended elevation: %s ($%.0f for +%.0f items/month)",
		result.Recommended.Strategy, result.Recommended.Cost, result.Recommended.ThroughputIncrease)
}

// TestOptimizeForConstraint runs the full grid search for the reference
// scenario and sanity-checks the winner.
func TestOptimizeForConstraint(t *testing.T) {
	o := standardOptimizer(t)

	result, err := o.OptimizeForConstraint(referenceTeam, 30, 10000, 120000)
	if err != nil {
		t.Fatalf("Optimization failed: %v", err)
	}

	if result.OptimalAdoptionPercent < 10 || result.OptimalAdoptionPercent > 90 {
		t.Errorf("Optimal adoption %.0f%% outside the 10-90 grid", result.OptimalAdoptionPercent)
	}
	if math.Mod(result.OptimalAdoptionPercent, 10) != 0 {
		t.Errorf("Optimal adoption %.0f%% not on the 10%% grid", result.OptimalAdoptionPercent)
	}
	if result.FinalThroughput <= 0 {
		t.Errorf("FinalThroughput = %v, want > 0", result.FinalThroughput)
	}
	if result.BaselineThroughput <= 0 {
		t.Errorf("BaselineThroughput = %v, want > 0", result.BaselineThroughput)
	}

	wantIncremental := result.FinalThroughput - result.BaselineThroughput
	if math.Abs(result.IncrementalThroughput-wantIncremental) > 1e-9 {
		t.Errorf("IncrementalThroughput = %v, want %v", result.IncrementalThroughput, wantIncremental)
	}

	wantNet := (result.MonthlyIncrementalValue - result.MonthlyIncrementalCost) / 30
	if math.Abs(result.NetValuePerDay-wantNet) > 1e-6 {
		t.Errorf("NetValuePerDay = %v, want %v", result.NetValuePerDay, wantNet)
	}

	t.Logf("✓ Optimal adoption %.0f%%: %.2f → %.2f items/day, net $%.0f/day, ROI %.0f%%",
		result.OptimalAdoptionPercent, result.BaselineThroughput,
		result.FinalThroughput, result.NetValuePerDay, result.RealisticROI)
}

// TestOptimizeForConstraint_Deterministic verifies repeated full runs agree
// exactly, tie-breaking included.
func TestOptimizeForConstraint_Deterministic(t *testing.T) {
	o := standardOptimizer(t)
	AssertDeterministic(t, o, referenceTeam, 30, 10000, 120000, 10)
}

func TestOptimizeForConstraint_RejectsBadInputs(t *testing.T) {
	o := standardOptimizer(t)

	if _, err := o.OptimizeForConstraint(TeamComposition{}, 30, 10000, 120000); err == nil {
		t.Error("Empty team should be rejected")
	}
	if _, err := o.OptimizeForConstraint(referenceTeam, -1, 10000, 120000); err == nil {
		t.Error("Negative seat cost should be rejected")
	}
	if _, err := o.OptimizeForConstraint(referenceTeam, 30, 0, 120000); err == nil {
		t.Error("Zero feature value should be rejected")
	}
}

func TestOptimizerPolicy_CapBindsExploitation(t *testing.T) {
	p, err := StandardPipeline(10, 0.5, DeployWeekly)
	if err != nil {
		t.Fatal(err)
	}

	policy := DefaultOptimizerPolicy()
	policy.ExploitationCap = 0.05
	o := NewConstraintOptimizerWithPolicy(p, policy)

	AssertExploitationCap(t, o, 0.5, referenceTeam, 0.05)
}

func TestTeamComposition_Total(t *testing.T) {
	if got := referenceTeam.Total(); got != 10 {
		t.Errorf("Total = %d, want 10", got)
	}
	if got := (TeamComposition{}).Total(); got != 0 {
		t.Errorf("Empty total = %d, want 0", got)
	}
}
