package flowbench

// Stage names a phase of the delivery pipeline.
type Stage string

const (
	StageRequirements Stage = "requirements"
	StageDesign       Stage = "design"
	StageCoding       Stage = "coding"
	StageTesting      Stage = "testing"
	StageCodeReview   Stage = "code_review"
	StageDeployment   Stage = "deployment"
	StageMonitoring   Stage = "monitoring"
)

// Stages lists every pipeline stage in flow order. Iteration over stage maps
// follows this order so results are deterministic.
var Stages = []Stage{
	StageRequirements,
	StageDesign,
	StageCoding,
	StageTesting,
	StageCodeReview,
	StageDeployment,
	StageMonitoring,
}

// StageMetrics describes a stage's baseline performance and how automation
// adoption shifts it. Immutable after validation.
//
// Multipliers are interpreted relative to 1.0: a throughput multiplier of
// 1.5 means the stage is 50% faster at full adoption, 0.8 means 20% slower
// (code review of machine-generated changes is the canonical <1 case).
type StageMetrics struct {
	Stage Stage

	BaseThroughput float64 // items per day
	BaseCycleTime  float64 // days per item
	BaseQuality    float64 // 0-1
	BaseCapacity   float64 // max items in parallel

	ThroughputMultiplier float64 // 0.1-10
	CycleTimeMultiplier  float64 // 0.1-10, <1 is faster
	QualityMultiplier    float64 // 0.1-10
}

// Validate checks every parameter against its documented domain.
func (m StageMetrics) Validate() error {
	prefix := string(m.Stage)
	if prefix == "" {
		prefix = "stage"
	}
	if err := ValidatePositive(m.BaseThroughput, prefix+".base_throughput"); err != nil {
		return err
	}
	if err := ValidatePositive(m.BaseCycleTime, prefix+".base_cycle_time"); err != nil {
		return err
	}
	if err := ValidateRatio(m.BaseQuality, prefix+".base_quality"); err != nil {
		return err
	}
	if err := ValidatePositive(m.BaseCapacity, prefix+".base_capacity"); err != nil {
		return err
	}
	if err := ValidateRange(m.ThroughputMultiplier, prefix+".throughput_multiplier", 0.1, 10); err != nil {
		return err
	}
	if err := ValidateRange(m.CycleTimeMultiplier, prefix+".cycle_time_multiplier", 0.1, 10); err != nil {
		return err
	}
	return ValidateRange(m.QualityMultiplier, prefix+".quality_multiplier", 0.1, 10)
}

// EffectiveThroughput interpolates between baseline and fully-adopted
// throughput:
//
//	base × (1 + (multiplier − 1) × adoption)
//
// At adoption 0 this is exactly BaseThroughput.
func (m StageMetrics) EffectiveThroughput(adoption float64) float64 {
	return m.BaseThroughput * (1 + (m.ThroughputMultiplier-1)*adoption)
}

// EffectiveCycleTime interpolates cycle time the same way; multipliers below
// 1.0 shorten it.
func (m StageMetrics) EffectiveCycleTime(adoption float64) float64 {
	return m.BaseCycleTime * (1 + (m.CycleTimeMultiplier-1)*adoption)
}

// EffectiveQuality interpolates quality, capped at 1.0. The cap is the only
// documented auto-correction in the model.
func (m StageMetrics) EffectiveQuality(adoption float64) float64 {
	q := m.BaseQuality * (1 + (m.QualityMultiplier-1)*adoption)
	if q > 1.0 {
		return 1.0
	}
	return q
}

// TestingStrategy configures how the testing stage splits work between
// manual and automated suites, and how machine-generated tests change the
// economics.
type TestingStrategy struct {
	AutomationCoverage float64 // 0-1, fraction of tests automated
	ManualTestTime     float64 // hours per suite, manual
	AutomatedTestTime  float64 // hours per suite, automated
	GenerationQuality  float64 // 0-1, quality of machine-generated tests
	ReviewOverhead     float64 // 0-2, extra time reviewing generated tests

	ManualDetectionRate    float64 // 0-1
	AutomatedDetectionRate float64 // 0-1
}

// Default detection rates: manual testing catches 70% of defects, automated
// suites 60%.
const (
	DefaultManualDetectionRate    = 0.7
	DefaultAutomatedDetectionRate = 0.6
)

// DefaultTestingStrategy returns a strategy at the given automation coverage
// with reference timing and detection rates.
func DefaultTestingStrategy(coverage float64) TestingStrategy {
	return TestingStrategy{
		AutomationCoverage:     coverage,
		ManualTestTime:         4.0, // 4 hours manual
		AutomatedTestTime:      0.5, // 30 minutes automated
		GenerationQuality:      0.6,
		ReviewOverhead:         0.3,
		ManualDetectionRate:    DefaultManualDetectionRate,
		AutomatedDetectionRate: DefaultAutomatedDetectionRate,
	}
}

// Validate checks every ratio against its domain.
func (s TestingStrategy) Validate() error {
	if err := ValidateRatio(s.AutomationCoverage, "automation_coverage"); err != nil {
		return err
	}
	if err := ValidatePositive(s.ManualTestTime, "manual_test_time"); err != nil {
		return err
	}
	if err := ValidatePositive(s.AutomatedTestTime, "automated_test_time"); err != nil {
		return err
	}
	if err := ValidateRatio(s.GenerationQuality, "generation_quality"); err != nil {
		return err
	}
	if err := ValidateRange(s.ReviewOverhead, "review_overhead", 0, 2); err != nil {
		return err
	}
	if err := ValidateRatio(s.ManualDetectionRate, "manual_detection_rate"); err != nil {
		return err
	}
	return ValidateRatio(s.AutomatedDetectionRate, "automated_detection_rate")
}

// EffectiveTestTime returns total test hours for the given code volume.
// Adoption inflates the volume (generated code is more code to test) and
// adds review overhead for generated tests:
//
//	volume' = volume × (1 + 0.5×adoption)
//	time    = manual + automated + adoption × overhead × volume'
func (s TestingStrategy) EffectiveTestTime(adoption, codeVolume float64) float64 {
	testVolume := codeVolume * (1 + adoption*0.5)

	manualPortion := (1 - s.AutomationCoverage) * testVolume
	automatedPortion := s.AutomationCoverage * testVolume

	manualTime := manualPortion * s.ManualTestTime
	automatedTime := automatedPortion * s.AutomatedTestTime
	reviewTime := adoption * s.ReviewOverhead * testVolume

	return manualTime + automatedTime + reviewTime
}

// DefectEscapeRate returns the fraction of defects that slip through
// testing. Detection is the coverage-weighted blend of manual and automated
// rates; adoption raises the escape rate 20% at full adoption (generated
// code carries subtler bugs), capped at 1.0.
func (s TestingStrategy) DefectEscapeRate(adoption float64) float64 {
	avgDetection := s.AutomationCoverage*s.AutomatedDetectionRate +
		(1-s.AutomationCoverage)*s.ManualDetectionRate

	subtleBugFactor := 1 + adoption*0.2

	escape := (1 - avgDetection) * subtleBugFactor
	if escape > 1.0 {
		return 1.0
	}
	return escape
}
