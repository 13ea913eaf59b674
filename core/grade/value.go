package grade

import (
	"math"
	"strconv"

	"github.com/trezcool/juror/core"
)

const (
	MinValue = 1
	MaxValue = 10
)

// roundingEpsilon absorbs the binary representation error of decimal inputs (7.005 is stored as 7.00499...).
const roundingEpsilon = 1e-9

// Normalize rounds v half away from zero to 2 decimals.
func Normalize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.Round(v*100+math.Copysign(roundingEpsilon, v)) / 100
}

// ValidateValue accepts finite values in [MinValue, MaxValue] with at most 2 decimals.
func ValidateValue(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < MinValue || v > MaxValue {
		return core.ErrInvalidValue
	}
	scaled := v * 100
	if math.Abs(scaled-math.Round(scaled)) > 1e-6 {
		return core.ErrInvalidValue
	}
	return nil
}

// ParseValue reads a decimal grade as sent by a transport.
func ParseValue(raw string) (float64, error) {
	v, err := strconv.ParseFloat(core.CleanString(raw), 64)
	if err != nil {
		return 0, core.ErrInvalidValue
	}
	return v, nil
}
