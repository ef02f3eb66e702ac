package flowbench

import "math"

// RatioSumTolerance bounds how far the Rogers segments may drift from
// summing to exactly 1.0.
const RatioSumTolerance = 0.01

// AdoptionParameters controls how a team takes up a new tool over time:
// who adopts when (Rogers segments), how fast they churn, and how quickly
// adopters climb the learning curve.
type AdoptionParameters struct {
	// Rogers segments, must sum to 1.0.
	InitialAdopters float64 // adopt immediately
	EarlyAdopters   float64 // first 3 months
	EarlyMajority   float64 // months 4-9
	LateMajority    float64 // months 10-18
	Laggards        float64 // never, or very late

	// Churn.
	DropoutRate      float64 // per month
	ReEngagementRate float64 // fraction of dropouts who return

	// Learning curve.
	InitialEfficiency float64 // 0-1, day one
	LearningRate      float64 // exponential approach speed
	PlateauEfficiency float64 // 0-1, ceiling; must exceed initial
}

// Validate checks segment ratios (including that they sum to 1), rates, and
// that the learning curve actually climbs.
func (p AdoptionParameters) Validate() error {
	segments := map[string]float64{
		"initial_adopters": p.InitialAdopters,
		"early_adopters":   p.EarlyAdopters,
		"early_majority":   p.EarlyMajority,
		"late_majority":    p.LateMajority,
		"laggards":         p.Laggards,
	}
	for name, v := range segments {
		if err := ValidateRatio(v, name); err != nil {
			return err
		}
	}
	if err := ValidateRatiosSumToOne(segments, RatioSumTolerance, "adoption segments"); err != nil {
		return err
	}

	if err := ValidatePositive(p.DropoutRate, "dropout_rate"); err != nil {
		return err
	}
	if err := ValidatePositive(p.ReEngagementRate, "re_engagement_rate"); err != nil {
		return err
	}
	if err := ValidatePositive(p.LearningRate, "learning_rate"); err != nil {
		return err
	}
	if err := ValidateRatio(p.InitialEfficiency, "initial_efficiency"); err != nil {
		return err
	}
	if err := ValidateRatio(p.PlateauEfficiency, "plateau_efficiency"); err != nil {
		return err
	}

	if p.InitialEfficiency >= p.PlateauEfficiency {
		return &ValidationError{
			Field:    "initial_efficiency",
			Value:    p.InitialEfficiency,
			Expected: "less than plateau_efficiency",
		}
	}
	return nil
}

// DefaultAdoptionParameters returns the organic-adoption reference values.
func DefaultAdoptionParameters() AdoptionParameters {
	return AdoptionParameters{
		InitialAdopters:   0.05,
		EarlyAdopters:     0.15,
		EarlyMajority:     0.35,
		LateMajority:      0.30,
		Laggards:          0.15,
		DropoutRate:       0.02,
		ReEngagementRate:  0.03,
		InitialEfficiency: 0.3,
		LearningRate:      0.3,
		PlateauEfficiency: 0.85,
	}
}

// AdoptionModel projects adoption and proficiency over time from fixed
// parameters. All methods are pure functions of the parameters.
type AdoptionModel struct {
	params AdoptionParameters
}

// NewAdoptionModel validates the parameters and wraps them.
func NewAdoptionModel(p AdoptionParameters) (*AdoptionModel, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &AdoptionModel{params: p}, nil
}

// SCurve is the classic logistic adoption curve with its midpoint fixed at
// month 9:
//
//	1 / (1 + e^(−steepness × (month − 9)))
func (m *AdoptionModel) SCurve(month int, steepness float64) float64 {
	const midpoint = 9
	return 1 / (1 + math.Exp(-steepness*float64(month-midpoint)))
}

// Reference Bass diffusion coefficients: innovation p and imitation q.
const (
	BassInnovation = 0.03
	BassImitation  = 0.38
)

// BassDiffusion returns cumulative adoption at the given month under the
// Bass model, F = 1 − e^(−(p+q)t), scaled by the reachable ceiling
// 1 − laggards. Month 0 is 0.
func (m *AdoptionModel) BassDiffusion(month int) float64 {
	if month == 0 {
		return 0
	}
	f := 1 - math.Exp(-(BassInnovation+BassImitation)*float64(month))
	return f * (1 - m.params.Laggards)
}

// AdoptionCurve simulates month-by-month active adoption. New adopters
// arrive per the Bass increments (month 0 seeds the initial adopters),
// a fraction of actives drops out each month, and accumulated dropouts
// re-engage at ReEngagementRate spread over elapsed months.
func (m *AdoptionModel) AdoptionCurve(months int) []float64 {
	adoption := make([]float64, months)
	dropouts := make([]float64, months)

	var active, droppedTotal float64
	for month := 0; month < months; month++ {
		var newAdopters float64
		if month == 0 {
			newAdopters = m.params.InitialAdopters
		} else {
			newAdopters = m.BassDiffusion(month) - m.BassDiffusion(month-1)
		}

		if month > 0 {
			monthDropouts := active * m.params.DropoutRate
			dropouts[month] = monthDropouts
			droppedTotal += monthDropouts

			reEngaged := (droppedTotal - monthDropouts) *
				SafeDivide(m.params.ReEngagementRate, float64(month), 0.0, "re-engagement")

			active = active + newAdopters - monthDropouts + reEngaged
		} else {
			active = newAdopters
		}
		adoption[month] = active
	}
	return adoption
}

// EfficiencyCurve returns average adopter proficiency per month under an
// exponential learning curve:
//
//	initial + (plateau − initial) × (1 − e^(−rate × month))
func (m *AdoptionModel) EfficiencyCurve(months int) []float64 {
	efficiency := make([]float64, months)
	for month := 0; month < months; month++ {
		efficiency[month] = m.params.InitialEfficiency +
			(m.params.PlateauEfficiency-m.params.InitialEfficiency)*
				(1-math.Exp(-m.params.LearningRate*float64(month)))
	}
	return efficiency
}

// EffectiveAdoption is adoption × efficiency per month — the input the
// pipeline model actually consumes. A 60%-adopted, 50%-proficient team
// behaves like a 30%-adopted fully-proficient one.
func (m *AdoptionModel) EffectiveAdoption(months int) []float64 {
	adoption := m.AdoptionCurve(months)
	efficiency := m.EfficiencyCurve(months)

	effective := make([]float64, months)
	for i := range effective {
		effective[i] = adoption[i] * efficiency[i]
	}
	return effective
}

// PeakAdoption returns the highest active-adoption rate over the horizon.
func (m *AdoptionModel) PeakAdoption(months int) float64 {
	var peak float64
	for _, a := range m.AdoptionCurve(months) {
		if a > peak {
			peak = a
		}
	}
	return peak
}
