package flowbench

import "fmt"

// ConstraintType tags which kind of stage is limiting the pipeline. Values
// mirror stage names; the tag selects the playbook used to exploit,
// subordinate to, and elevate the constraint.
type ConstraintType string

const (
	ConstraintRequirements ConstraintType = "requirements"
	ConstraintDesign       ConstraintType = "design"
	ConstraintCoding       ConstraintType = "coding"
	ConstraintTesting      ConstraintType = "testing"
	ConstraintCodeReview   ConstraintType = "code_review"
	ConstraintDeployment   ConstraintType = "deployment"
	ConstraintMonitoring   ConstraintType = "monitoring"
)

// TeamComposition counts developers by seniority.
type TeamComposition struct {
	Senior int `yaml:"senior"`
	Mid    int `yaml:"mid"`
	Junior int `yaml:"junior"`
}

// Total returns the team headcount.
func (t TeamComposition) Total() int { return t.Senior + t.Mid + t.Junior }

// ConstraintAnalysis is the immutable result of constraint identification.
// Each IdentifyConstraint call produces a fresh value; the caller owns any
// history it wants to keep.
type ConstraintAnalysis struct {
	ConstraintType        ConstraintType
	ConstraintStage       Stage
	CurrentThroughput     float64 // items per day
	ConstraintUtilization float64 // 0-1
	ImprovementPotential  float64 // 0-1

	StageThroughputs map[Stage]float64
	QueueBuildup     map[Stage]float64 // items/day piling up upstream
	CostOfConstraint float64           // $ per day

	ExploitationStrategies []string
	ExploitationImpact     float64
	ElevationStrategies    []string
	ElevationCost          float64
	ElevationImpact        float64
}

// SubordinationRule tells a non-constraint stage how to serve the
// constraint.
type SubordinationRule struct {
	Stage           Stage
	ConstraintStage Stage
	RuleType        string // batch_size | buffer | quality | priority
	RuleDescription string
	ImpactFactor    float64 // 0-1
}

// ImprovementLever is one named zero-cost process improvement.
type ImprovementLever struct {
	Name string
	Gain float64 // fractional throughput gain
}

// ExploitationResult reports what squeezing the existing constraint yields.
// Exploitation is by definition free: Cost is always 0 and the timeline is
// fixed at 30 days.
type ExploitationResult struct {
	OriginalThroughput  float64
	ExploitedThroughput float64
	ImprovementPercent  float64 // ≤ policy cap × 100
	ImprovementsApplied []ImprovementLever
	Cost                float64
	TimelineDays        int
}

// ElevationOption is one way to buy constraint capacity.
type ElevationOption struct {
	Strategy           string
	Cost               float64 // annual, $
	TimelineDays       int
	ThroughputIncrease float64 // items per month
	Description        string
}

// ElevationResult lists capacity options with the best-ROI recommendation.
type ElevationResult struct {
	Recommended    *ElevationOption
	Options        []ElevationOption
	ConstraintType ConstraintType
}

// OptimizationResult is the best grid point found by OptimizeForConstraint.
type OptimizationResult struct {
	OptimalAdoptionPercent float64 // 0-100, step 10
	Analysis               ConstraintAnalysis
	Exploitation           ExploitationResult
	SubordinationRules     []SubordinationRule

	FinalThroughput       float64
	BaselineThroughput    float64
	IncrementalThroughput float64

	MonthlySalaryCost       float64
	MonthlyAICost           float64
	MonthlyCost             float64
	MonthlyIncrementalValue float64
	MonthlyIncrementalCost  float64
	NetValuePerDay          float64
	RealisticROI            float64 // percent
}

// OptimizerPolicy collects the heuristic constants of the search. They are
// empirical, not derived; the defaults reproduce the reference behavior.
type OptimizerPolicy struct {
	// Exploitation: raw lever sum × effectiveness, capped.
	ExploitationEffectiveness float64
	ExploitationCap           float64
	ExploitationTimelineDays  int

	// Identification: each queued item/day costs this fraction of a
	// feature's value.
	ConstraintCostRate   float64
	FeatureValue         float64
	MaxPotential         float64
	PotentialUtilization float64

	// Elevation: options ranked by throughputIncrease / (cost / horizon).
	ROIHorizonMonths float64

	// Optimization grid, in adoption percent.
	GridStart, GridEnd, GridStep int

	// Amortized one-time rollout cost per team member per year.
	ImplementationCostPerSeat float64
}

// DefaultOptimizerPolicy returns the reference constants.
func DefaultOptimizerPolicy() OptimizerPolicy {
	return OptimizerPolicy{
		ExploitationEffectiveness: 0.7,
		ExploitationCap:           0.30,
		ExploitationTimelineDays:  30,
		ConstraintCostRate:        0.01,
		FeatureValue:              10000,
		MaxPotential:              0.5,
		PotentialUtilization:      0.6,
		ROIHorizonMonths:          12,
		GridStart:                 10,
		GridEnd:                   90,
		GridStep:                  10,
		ImplementationCostPerSeat: 500,
	}
}

// playbook bundles every constraint-type-specific strategy so that
// exploit/subordinate/elevate share one lookup table instead of repeating
// type switches.
type playbook struct {
	exploitLevers     []ImprovementLever
	exploitEstimate   float64
	elevationCost     float64
	elevationImpact   float64
	potentialBoost    float64
	exploitStrategies func(team TeamComposition, utilization float64) []string
	elevateStrategies func(team TeamComposition) []string
	subordinate       func(constraint Stage) []SubordinationRule
	elevationOptions  func(team TeamComposition) []ElevationOption
}

var defaultPlaybook = playbook{
	exploitEstimate: 0.10,
	elevationCost:   50000,
	elevationImpact: 0.25,
	potentialBoost:  1.0,
}

var playbooks = map[ConstraintType]playbook{
	ConstraintCodeReview: {
		exploitLevers: []ImprovementLever{
			{"review_tooling", 0.05},
			{"review_focus", 0.08},
			{"ai_review_assistance", 0.04},
			{"batched_reviews", 0.03},
		},
		exploitEstimate: 0.15,
		elevationCost:   150000,
		elevationImpact: 0.40,
		potentialBoost:  1.2,
		exploitStrategies: func(_ TeamComposition, utilization float64) []string {
			return []string{
				"Implement review checklists and templates",
				"Use AI-assisted code review tools",
				"Batch similar reviews together",
				"Focus senior reviews on architecture, juniors on syntax",
				fmt.Sprintf("Current utilization: %.1f%% - optimize review scheduling", utilization*100),
			}
		},
		elevateStrategies: func(team TeamComposition) []string {
			promotable := team.Mid
			if promotable > 2 {
				promotable = 2
			}
			return []string{
				fmt.Sprintf("Hire additional senior developers (currently %d)", team.Senior),
				fmt.Sprintf("Promote %d mid-level developers to senior", promotable),
				"Implement advanced review tooling",
				"Add code review specialists",
			}
		},
		subordinate: func(constraint Stage) []SubordinationRule {
			return []SubordinationRule{
				{
					Stage:           StageCoding,
					ConstraintStage: constraint,
					RuleType:        "batch_size",
					RuleDescription: "Create smaller, reviewable PRs to optimize review throughput",
					ImpactFactor:    0.15,
				},
				{
					Stage:           StageTesting,
					ConstraintStage: constraint,
					RuleType:        "buffer",
					RuleDescription: "Start testing early, don't wait for perfect reviews",
					ImpactFactor:    0.10,
				},
			}
		},
		elevationOptions: func(team TeamComposition) []ElevationOption {
			return []ElevationOption{
				{
					Strategy:           "hire_senior_developer",
					Cost:               180000,
					TimelineDays:       90,
					ThroughputIncrease: 40,
					Description:        "Hire additional senior developer",
				},
				{
					Strategy:           "promote_mid_to_senior",
					Cost:               25000,
					TimelineDays:       60,
					ThroughputIncrease: 30,
					Description:        fmt.Sprintf("Promote mid-level developer to senior (have %d available)", team.Mid),
				},
				{
					Strategy:           "review_tooling",
					Cost:               50000,
					TimelineDays:       30,
					ThroughputIncrease: float64(team.Senior) * 5,
					Description:        "Implement advanced code review tooling",
				},
			}
		},
	},
	ConstraintTesting: {
		exploitLevers: []ImprovementLever{
			{"test_parallelization", 0.10},
			{"test_selection", 0.06},
			{"flaky_test_elimination", 0.05},
			{"test_environment_optimization", 0.04},
		},
		exploitEstimate: 0.20,
		elevationCost:   75000,
		elevationImpact: 0.50,
		potentialBoost:  1.1,
		exploitStrategies: func(_ TeamComposition, _ float64) []string {
			return []string{
				"Increase test parallelization",
				"Implement smart test selection",
				"Eliminate flaky tests",
				"Optimize test environments",
				"Use risk-based testing prioritization",
			}
		},
		elevateStrategies: func(_ TeamComposition) []string {
			return []string{
				"Invest in test automation infrastructure",
				"Add dedicated test engineers",
				"Implement parallel testing infrastructure",
				"Add performance testing capacity",
			}
		},
		subordinate: func(constraint Stage) []SubordinationRule {
			return []SubordinationRule{
				{
					Stage:           StageCoding,
					ConstraintStage: constraint,
					RuleType:        "quality",
					RuleDescription: "Focus on testable, well-structured code",
					ImpactFactor:    0.12,
				},
				{
					Stage:           StageCodeReview,
					ConstraintStage: constraint,
					RuleType:        "priority",
					RuleDescription: "Prioritize review of testable, test-enhanced code",
					ImpactFactor:    0.08,
				},
			}
		},
		elevationOptions: func(_ TeamComposition) []ElevationOption {
			return []ElevationOption{
				{
					Strategy:           "increase_test_automation",
					Cost:               75000,
					TimelineDays:       45,
					ThroughputIncrease: 50,
					Description:        "Increase test automation coverage to 80%+",
				},
				{
					Strategy:           "parallel_test_infrastructure",
					Cost:               30000,
					TimelineDays:       20,
					ThroughputIncrease: 80,
					Description:        "Add parallel test execution infrastructure",
				},
			}
		},
	},
	ConstraintDeployment: {
		exploitLevers: []ImprovementLever{
			{"deployment_automation", 0.12},
			{"deployment_batching", 0.06},
			{"rollback_optimization", 0.04},
			{"monitoring_integration", 0.03},
		},
		exploitEstimate: 0.10,
		elevationCost:   50000,
		elevationImpact: 0.25,
		potentialBoost:  1.0,
	},
}

func playbookFor(ct ConstraintType) playbook {
	pb, ok := playbooks[ct]
	if !ok {
		return defaultPlaybook
	}
	return pb
}

// ConstraintOptimizer runs the Five Focusing Steps over one pipeline. All
// methods are pure with respect to the optimizer: they return fresh records
// and keep no history (the caller appends analyses to its own list if it
// wants one).
type ConstraintOptimizer struct {
	pipeline *DeliveryPipeline
	policy   OptimizerPolicy
}

// NewConstraintOptimizer wraps a pipeline with the default policy.
func NewConstraintOptimizer(p *DeliveryPipeline) *ConstraintOptimizer {
	return NewConstraintOptimizerWithPolicy(p, DefaultOptimizerPolicy())
}

// NewConstraintOptimizerWithPolicy wraps a pipeline with a custom policy.
func NewConstraintOptimizerWithPolicy(p *DeliveryPipeline, policy OptimizerPolicy) *ConstraintOptimizer {
	return &ConstraintOptimizer{pipeline: p, policy: policy}
}

// IdentifyConstraint is step 1: find the bottleneck, measure what it costs,
// and sketch how to exploit or elevate it. In software delivery the
// constraint is typically code review (senior capacity), testing
// (automation maturity) or deployment (process).
func (o *ConstraintOptimizer) IdentifyConstraint(adoption float64, team TeamComposition) ConstraintAnalysis {
	throughput := o.pipeline.Throughput(adoption)
	bottleneck := throughput.BottleneckStage
	constraintThroughput := throughput.ThroughputPerDay
	constraintType := ConstraintType(bottleneck)

	// Work piles up wherever upstream outruns the constraint. The
	// constraint itself has no upstream excess.
	buildup := make(map[Stage]float64, len(throughput.StageThroughputs))
	var totalBuildup float64
	for stage, tp := range throughput.StageThroughputs {
		if stage == bottleneck {
			buildup[stage] = 0.0
			continue
		}
		excess := tp - constraintThroughput
		if excess < 0 {
			excess = 0
		}
		buildup[stage] = excess
		totalBuildup += excess
	}

	costOfConstraint := totalBuildup * o.policy.FeatureValue * o.policy.ConstraintCostRate

	utilization := throughput.Utilization[bottleneck]
	pb := playbookFor(constraintType)

	potential := utilization * o.policy.PotentialUtilization
	if potential > o.policy.MaxPotential {
		potential = o.policy.MaxPotential
	}
	potential *= pb.potentialBoost

	var exploitStrategies, elevateStrategies []string
	if pb.exploitStrategies != nil {
		exploitStrategies = pb.exploitStrategies(team, utilization)
	}
	if pb.elevateStrategies != nil {
		elevateStrategies = pb.elevateStrategies(team)
	}

	return ConstraintAnalysis{
		ConstraintType:         constraintType,
		ConstraintStage:        bottleneck,
		CurrentThroughput:      constraintThroughput,
		ConstraintUtilization:  utilization,
		ImprovementPotential:   potential,
		StageThroughputs:       throughput.StageThroughputs,
		QueueBuildup:           buildup,
		CostOfConstraint:       costOfConstraint,
		ExploitationStrategies: exploitStrategies,
		ExploitationImpact:     pb.exploitEstimate,
		ElevationStrategies:    elevateStrategies,
		ElevationCost:          pb.elevationCost,
		ElevationImpact:        pb.elevationImpact,
	}
}

// ExploitConstraint is step 2: extract throughput from the constraint
// without spending money. The playbook's levers are summed, then discounted
// for diminishing returns and capped:
//
//	effective = min(cap, Σ levers × effectiveness)
func (o *ConstraintOptimizer) ExploitConstraint(analysis ConstraintAnalysis, adoption float64) ExploitationResult {
	pb := playbookFor(analysis.ConstraintType)

	var raw float64
	for _, lever := range pb.exploitLevers {
		raw += lever.Gain
	}

	effective := raw * o.policy.ExploitationEffectiveness
	if effective > o.policy.ExploitationCap {
		effective = o.policy.ExploitationCap
	}

	return ExploitationResult{
		OriginalThroughput:  analysis.CurrentThroughput,
		ExploitedThroughput: analysis.CurrentThroughput * (1 + effective),
		ImprovementPercent:  effective * 100,
		ImprovementsApplied: pb.exploitLevers,
		Cost:                0, // exploitation is free by definition
		TimelineDays:        o.policy.ExploitationTimelineDays,
	}
}

// SubordinateToConstraint is step 3: emit the rules non-constraint stages
// follow to serve the constraint's pace. Constraint types without a
// playbook yield no rules.
func (o *ConstraintOptimizer) SubordinateToConstraint(analysis ConstraintAnalysis) []SubordinationRule {
	pb := playbookFor(analysis.ConstraintType)
	if pb.subordinate == nil {
		return nil
	}
	return pb.subordinate(analysis.ConstraintStage)
}

// ElevateConstraint is step 4: price capacity-adding options and recommend
// the one with the best monthly ROI, throughputIncrease / (cost/horizon).
// Only after exploitation and subordination should capacity be bought.
func (o *ConstraintOptimizer) ElevateConstraint(analysis ConstraintAnalysis, team TeamComposition) ElevationResult {
	pb := playbookFor(analysis.ConstraintType)

	var options []ElevationOption
	if pb.elevationOptions != nil {
		options = pb.elevationOptions(team)
	}

	var best *ElevationOption
	bestROI := 0.0
	for i := range options {
		monthlyCost := options[i].Cost / o.policy.ROIHorizonMonths
		roi := SafeDivide(options[i].ThroughputIncrease, monthlyCost, 0, "elevation roi")
		if best == nil || roi > bestROI {
			best = &options[i]
			bestROI = roi
		}
	}

	return ElevationResult{
		Recommended:    best,
		Options:        options,
		ConstraintType: analysis.ConstraintType,
	}
}

// OptimizeForConstraint runs the complete Five Focusing Steps over the
// adoption grid (GridStart..GridEnd percent in GridStep increments, 10-90
// by default) and returns the point with the highest net value per day.
//
// Per grid point: identify → exploit → subordinate (rule benefits summed
// and applied multiplicatively to exploited throughput); incremental
// throughput is measured against a 0%-adoption baseline; incremental value
// (×featureValue×30/month) is netted against the adoption-scaled seat cost
// and the amortized implementation cost. Fully deterministic.
func (o *ConstraintOptimizer) OptimizeForConstraint(team TeamComposition, costPerSeat, featureValue, avgSalary float64) (OptimizationResult, error) {
	if team.Total() <= 0 {
		return OptimizationResult{}, &ValidationError{Field: "team_composition", Value: 0, Expected: "at least one team member"}
	}
	if err := ValidateNonNegative(costPerSeat, "cost_per_seat"); err != nil {
		return OptimizationResult{}, err
	}
	if err := ValidatePositive(featureValue, "feature_value"); err != nil {
		return OptimizationResult{}, err
	}

	teamSize := float64(team.Total())
	baseline := o.IdentifyConstraint(0.0, team)
	baselineThroughput := baseline.CurrentThroughput

	var best OptimizationResult
	found := false

	for pct := o.policy.GridStart; pct <= o.policy.GridEnd; pct += o.policy.GridStep {
		adoption := float64(pct) / 100

		analysis := o.IdentifyConstraint(adoption, team)
		exploitation := o.ExploitConstraint(analysis, adoption)
		rules := o.SubordinateToConstraint(analysis)

		var subordinationBenefit float64
		for _, rule := range rules {
			subordinationBenefit += rule.ImpactFactor
		}
		finalThroughput := exploitation.ExploitedThroughput * (1 + subordinationBenefit)
		incremental := finalThroughput - baselineThroughput

		monthlySalaryCost := avgSalary / 12 * teamSize
		monthlyAICost := costPerSeat * teamSize * adoption
		implementationMonthly := teamSize * o.policy.ImplementationCostPerSeat / 12

		monthlyIncrementalValue := incremental * featureValue * 30
		monthlyIncrementalCost := monthlyAICost + implementationMonthly
		netValuePerDay := (monthlyIncrementalValue - monthlyIncrementalCost) / 30

		if !found || netValuePerDay > best.NetValuePerDay {
			found = true
			best = OptimizationResult{
				OptimalAdoptionPercent:  adoption * 100,
				Analysis:                analysis,
				Exploitation:            exploitation,
				SubordinationRules:      rules,
				FinalThroughput:         finalThroughput,
				BaselineThroughput:      baselineThroughput,
				IncrementalThroughput:   incremental,
				MonthlySalaryCost:       monthlySalaryCost,
				MonthlyAICost:           monthlyAICost,
				MonthlyCost:             monthlySalaryCost + monthlyAICost,
				MonthlyIncrementalValue: monthlyIncrementalValue,
				MonthlyIncrementalCost:  monthlyIncrementalCost,
				NetValuePerDay:          netValuePerDay,
				RealisticROI: SafePercentage(monthlyIncrementalValue-monthlyIncrementalCost,
					monthlyIncrementalCost, 0, "realistic roi"),
			}
		}
	}

	return best, nil
}
