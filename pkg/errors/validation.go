package errors

import (
	"math"
)

// MaxDimension bounds any width, height or offset accepted from user input.
// Browsers clamp layout sizes well below this, so larger values indicate a
// unit mix-up rather than a real viewport.
const MaxDimension = 1 << 24

// ValidateDimension validates a non-negative size (width or height) in pixels.
//
// Validation rules:
//   - No NaN or infinite values
//   - No negative values
//   - Maximum of MaxDimension
func ValidateDimension(name string, v float64) error {
	if err := ValidateCoordinate(name, v); err != nil {
		return err
	}
	if v < 0 {
		return New(ErrCodeInvalidGeometry, "%s cannot be negative (got %g)", name, v)
	}
	return nil
}

// ValidateCoordinate validates a signed offset in pixels.
func ValidateCoordinate(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidGeometry, "%s must be a finite number", name)
	}
	if math.Abs(v) > MaxDimension {
		return New(ErrCodeInvalidGeometry, "%s out of range (max %d)", name, MaxDimension)
	}
	return nil
}

// ValidateScale validates a pinch-zoom scale factor.
// Scales must be finite and strictly positive.
func ValidateScale(scale float64) error {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		return New(ErrCodeInvalidGeometry, "scale must be a positive finite number (got %g)", scale)
	}
	return nil
}

// ValidateThresholds validates intersection thresholds.
// Every threshold must lie in [0, 1].
func ValidateThresholds(thresholds []float64) error {
	for i, t := range thresholds {
		if math.IsNaN(t) || t < 0 || t > 1 {
			return New(ErrCodeInvalidInput, "threshold %d must be within [0, 1] (got %g)", i, t)
		}
	}
	return nil
}
