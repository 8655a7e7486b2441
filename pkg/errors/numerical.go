package errors

import (
	"math"
)

// CheckFinite returns a ModelError if any value is NaN or Inf.
func CheckFinite(operation string, values ...float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewModelError(operation, "numerical instability",
				Newf("non-finite value %v at index %d", v, i))
		}
	}
	return nil
}
