package flowbench

import "math"

// NPV discounts cash flows to present value:
//
//	NPV = Σ flowᵢ / (1+r)^tᵢ
//
// periods gives the time of each flow in years; pass nil for regular
// intervals 0, 1, 2, …. Returns an error for an empty flow list, a rate at
// or below −100%, or a length mismatch.
func NPV(cashFlows []float64, discountRate float64, periods []float64) (float64, error) {
	if len(cashFlows) == 0 {
		return 0, &ValidationError{Field: "cash_flows", Value: 0, Expected: "at least one cash flow"}
	}
	if discountRate <= -1 {
		return 0, &ValidationError{Field: "discount_rate", Value: discountRate, Expected: "greater than -1"}
	}
	if periods != nil && len(periods) != len(cashFlows) {
		return 0, &ValidationError{
			Field:    "periods",
			Value:    float64(len(periods)),
			Expected: "same length as cash_flows",
		}
	}

	var npv float64
	for i, flow := range cashFlows {
		t := float64(i)
		if periods != nil {
			t = periods[i]
		}
		npv += flow / math.Pow(1+discountRate, t)
	}
	return npv, nil
}

// MonthlyNPV discounts monthly cash flows with an annual rate by placing
// flow i at i/12 years.
func MonthlyNPV(monthlyCashFlows []float64, annualDiscountRate float64) (float64, error) {
	periods := make([]float64, len(monthlyCashFlows))
	for i := range periods {
		periods[i] = float64(i) / 12
	}
	return NPV(monthlyCashFlows, annualDiscountRate, periods)
}

// IRR finds the discount rate at which NPV is zero, by bisection over
// [−0.99, 10]. The second return is false when no IRR exists: fewer than
// two flows, no sign change among the flows, or no root inside the bracket.
func IRR(cashFlows []float64) (float64, bool) {
	if len(cashFlows) < 2 {
		return 0, false
	}

	hasPositive, hasNegative := false, false
	for _, flow := range cashFlows {
		if flow > 0 {
			hasPositive = true
		} else if flow < 0 {
			hasNegative = true
		}
	}
	if !hasPositive || !hasNegative {
		return 0, false
	}

	npvAt := func(rate float64) float64 {
		v, _ := NPV(cashFlows, rate, nil)
		return v
	}

	lo, hi := -0.99, 10.0
	flo, fhi := npvAt(lo), npvAt(hi)
	if flo*fhi > 0 {
		return 0, false
	}

	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		fmid := npvAt(mid)
		if math.Abs(fmid) < 1e-9 || (hi-lo)/2 < 1e-9 {
			return mid, true
		}
		if flo*fmid < 0 {
			hi = mid
		} else {
			lo, flo = mid, fmid
		}
	}
	return (lo + hi) / 2, true
}

// PaybackPeriod returns the time (in period units, years with nil periods)
// until cumulative cash flow first turns positive, linearly interpolated
// within the crossing period. The second return is false if the investment
// never recovers.
func PaybackPeriod(cashFlows []float64, periods []float64) (float64, bool) {
	if len(cashFlows) == 0 {
		return 0, false
	}

	var cumulative float64
	prev := 0.0
	for i, flow := range cashFlows {
		prev = cumulative
		cumulative += flow
		if cumulative <= 0 {
			continue
		}
		if i == 0 {
			return 0, true
		}

		fraction := -prev / (cumulative - prev)
		if periods != nil {
			return periods[i-1] + fraction*(periods[i]-periods[i-1]), true
		}
		return float64(i-1) + fraction, true
	}
	return 0, false
}

// ROI returns (value − cost) / cost as a ratio, 1.5 meaning 150%. A zero
// cost with positive value yields +Inf; zero cost with zero value yields 0.
func ROI(totalValue, totalCost float64) float64 {
	if totalCost == 0 {
		if totalValue > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return (totalValue - totalCost) / totalCost
}

// BreakEvenPoint returns the unit volume where revenue covers fixed costs,
// fixedCosts / (price − variableCost). The second return is false when the
// contribution margin is non-positive and break-even is impossible.
func BreakEvenPoint(fixedCosts, variableCostPerUnit, pricePerUnit float64) (float64, bool) {
	margin := pricePerUnit - variableCostPerUnit
	if margin <= 0 {
		return 0, false
	}
	return fixedCosts / margin, true
}

// AnnualToMonthlyRate converts a compound annual rate to its monthly
// equivalent, (1+r)^(1/12) − 1.
func AnnualToMonthlyRate(annualRate float64) float64 {
	return math.Pow(1+annualRate, 1.0/12) - 1
}

// MonthlyToAnnualRate converts a compound monthly rate to its annual
// equivalent, (1+r)^12 − 1.
func MonthlyToAnnualRate(monthlyRate float64) float64 {
	return math.Pow(1+monthlyRate, 12) - 1
}
