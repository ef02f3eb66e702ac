package flowbench

import (
	"fmt"
	"log/slog"
	"math"
)

// ValidationError describes an input parameter outside its documented domain.
// Construction-time validation is fatal: the caller must fix the input, the
// model never auto-corrects out-of-range values.
type ValidationError struct {
	Field    string
	Value    float64
	Expected string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: got %v, expected %s", e.Field, e.Value, e.Expected)
}

// SafeDivide returns numerator/denominator, or def when the denominator is
// zero. Zero denominators are a modeling condition (empty pipeline, stalled
// stage), not a programming error, so they warn instead of failing.
func SafeDivide(numerator, denominator, def float64, context string) float64 {
	if denominator == 0 {
		slog.Warn("division by zero, using default",
			"context", context, "default", def)
		return def
	}
	return numerator / denominator
}

// SafePercentage returns value/total as a percentage (0-100), or def when
// total is zero.
func SafePercentage(value, total, def float64, context string) float64 {
	return SafeDivide(value*100, total, def, context)
}

// SafeMean returns the arithmetic mean of values, or def for an empty slice.
func SafeMean(values []float64, def float64, context string) float64 {
	if len(values) == 0 {
		slog.Warn("mean of empty slice, using default",
			"context", context, "default", def)
		return def
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// ValidatePositive fails when value ≤ 0.
func ValidatePositive(value float64, field string) error {
	if value <= 0 {
		return &ValidationError{Field: field, Value: value, Expected: "> 0"}
	}
	return nil
}

// ValidateNonNegative fails when value < 0.
func ValidateNonNegative(value float64, field string) error {
	if value < 0 {
		return &ValidationError{Field: field, Value: value, Expected: "≥ 0"}
	}
	return nil
}

// ValidateRatio fails when value is outside [0, 1].
func ValidateRatio(value float64, field string) error {
	return ValidateRange(value, field, 0, 1)
}

// ValidateRange fails when value is outside [min, max].
func ValidateRange(value float64, field string, min, max float64) error {
	if value < min || value > max || math.IsNaN(value) {
		return &ValidationError{
			Field:    field,
			Value:    value,
			Expected: fmt.Sprintf("between %g and %g", min, max),
		}
	}
	return nil
}

// ValidateRatiosSumToOne fails when the ratios do not sum to 1.0 within
// tolerance.
func ValidateRatiosSumToOne(ratios map[string]float64, tolerance float64, context string) error {
	var total float64
	for _, r := range ratios {
		total += r
	}
	if math.Abs(total-1.0) > tolerance {
		return &ValidationError{
			Field:    context,
			Value:    total,
			Expected: fmt.Sprintf("ratios summing to 1.0 ±%g", tolerance),
		}
	}
	return nil
}
