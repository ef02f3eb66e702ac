package flowbench

import (
	"math"
	"testing"
)

func referenceCodingMetrics() StageMetrics {
	return StageMetrics{
		Stage:                StageCoding,
		BaseThroughput:       3.0,
		BaseCycleTime:        2.0,
		BaseQuality:          0.75,
		BaseCapacity:         10,
		ThroughputMultiplier: 1.5,
		CycleTimeMultiplier:  0.6,
		QualityMultiplier:    0.9,
	}
}

// TestStageMetrics_ZeroAdoptionIsBaseline verifies the interpolation anchors:
// at adoption 0 every effective metric equals its baseline exactly.
func TestStageMetrics_ZeroAdoptionIsBaseline(t *testing.T) {
	m := referenceCodingMetrics()

	if got := m.EffectiveThroughput(0); got != m.BaseThroughput {
		t.Errorf("EffectiveThroughput(0) = %v, want baseline %v", got, m.BaseThroughput)
	}
	if got := m.EffectiveCycleTime(0); got != m.BaseCycleTime {
		t.Errorf("EffectiveCycleTime(0) = %v, want baseline %v", got, m.BaseCycleTime)
	}
	if got := m.EffectiveQuality(0); got != m.BaseQuality {
		t.Errorf("EffectiveQuality(0) = %v, want baseline %v", got, m.BaseQuality)
	}

	t.Logf("✓ Adoption 0 reproduces baselines exactly")
}

// TestStageMetrics_Interpolation checks the documented midpoint:
// 3.0 items/day with a 1.5× multiplier at 50% adoption is 3.75.
func TestStageMetrics_Interpolation(t *testing.T) {
	m := referenceCodingMetrics()

	got := m.EffectiveThroughput(0.5)
	if math.Abs(got-3.75) > 1e-12 {
		t.Errorf("EffectiveThroughput(0.5) = %v, want 3.75", got)
	}

	// Cycle-time multipliers below 1 shorten the cycle.
	cycle := m.EffectiveCycleTime(1.0)
	if math.Abs(cycle-1.2) > 1e-12 {
		t.Errorf("EffectiveCycleTime(1.0) = %v, want 1.2", cycle)
	}

	t.Logf("✓ base 3.0 × mult 1.5 at adoption 0.5 → %.2f items/day", got)
}

// TestStageMetrics_Monotonicity: throughput rises with adoption when the
// multiplier exceeds 1 and falls when it is below 1.
func TestStageMetrics_Monotonicity(t *testing.T) {
	up := referenceCodingMetrics() // multiplier 1.5
	down := referenceCodingMetrics()
	down.ThroughputMultiplier = 0.8

	prevUp, prevDown := up.EffectiveThroughput(0), down.EffectiveThroughput(0)
	for _, a := range []float64{0.25, 0.5, 0.75, 1.0} {
		if got := up.EffectiveThroughput(a); got <= prevUp {
			t.Errorf("Multiplier 1.5: throughput %v not increasing at adoption %v", got, a)
		} else {
			prevUp = got
		}
		if got := down.EffectiveThroughput(a); got >= prevDown {
			t.Errorf("Multiplier 0.8: throughput %v not decreasing at adoption %v", got, a)
		} else {
			prevDown = got
		}
	}
	t.Logf("✓ Throughput monotone in adoption, direction set by the multiplier")
}

func TestStageMetrics_QualityCap(t *testing.T) {
	m := referenceCodingMetrics()
	m.BaseQuality = 0.9
	m.QualityMultiplier = 2.0

	if got := m.EffectiveQuality(1.0); got != 1.0 {
		t.Errorf("Quality above 1.0 not capped: got %v", got)
	}
}

func TestStageMetrics_Validate(t *testing.T) {
	good := referenceCodingMetrics()
	if err := good.Validate(); err != nil {
		t.Fatalf("Reference metrics failed validation: %v", err)
	}

	bad := good
	bad.BaseThroughput = 0
	if err := bad.Validate(); err == nil {
		t.Error("Zero base throughput should fail validation")
	}

	bad = good
	bad.ThroughputMultiplier = 11
	if err := bad.Validate(); err == nil {
		t.Error("Multiplier 11 should fail validation (max 10)")
	}

	bad = good
	bad.BaseQuality = 1.5
	if err := bad.Validate(); err == nil {
		t.Error("Quality 1.5 should fail validation")
	}
}

func TestTestingStrategy_EffectiveTestTime(t *testing.T) {
	s := DefaultTestingStrategy(0.5)

	// At adoption 0: volume 1, half manual (4h) half automated (0.5h).
	base := s.EffectiveTestTime(0, 1.0)
	want := 0.5*4.0 + 0.5*0.5
	if math.Abs(base-want) > 1e-12 {
		t.Errorf("EffectiveTestTime(0, 1) = %v, want %v", base, want)
	}

	// Full adoption inflates volume 1.5× and adds review overhead.
	full := s.EffectiveTestTime(1.0, 1.0)
	if full <= base {
		t.Errorf("Full adoption test time %v should exceed baseline %v (more code to test)", full, base)
	}

	t.Logf("✓ Test time: %.2fh baseline → %.2fh at full adoption", base, full)
}

func TestTestingStrategy_DefectEscapeRate(t *testing.T) {
	s := DefaultTestingStrategy(0.5)

	// Weighted detection: 0.5×0.6 + 0.5×0.7 = 0.65 → 35% escape baseline.
	base := s.DefectEscapeRate(0)
	if math.Abs(base-0.35) > 1e-12 {
		t.Errorf("DefectEscapeRate(0) = %v, want 0.35", base)
	}

	full := s.DefectEscapeRate(1.0)
	if math.Abs(full-0.42) > 1e-12 {
		t.Errorf("DefectEscapeRate(1.0) = %v, want 0.42 (subtle bug factor 1.2)", full)
	}
	if full > 1.0 {
		t.Errorf("Escape rate %v exceeds 1.0", full)
	}
}

func TestTestingStrategy_EscapeRateCapped(t *testing.T) {
	s := DefaultTestingStrategy(0)
	s.ManualDetectionRate = 0.0

	if got := s.DefectEscapeRate(1.0); got != 1.0 {
		t.Errorf("Escape rate = %v, want capped at 1.0", got)
	}
}
