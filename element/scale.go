package element

import (
	"fmt"
	"math"
)

// fixedOne is IOFixed's 16.16 unity value.
const fixedOne = 1 << 16

// SetCalibration installs calibration bounds for later ScaleCalibrated
// reads.
func (e *Element) SetCalibration(c Calibration) { e.Calibration = c }

// GetScaledValue returns e's current value mapped through scaleType,
// as a plain integer.
func GetScaledValue(e *Element, scaleType ScaleType) (int32, error) {
	raw := int32(e.GetValue())
	switch scaleType {
	case ScalePhysical:
		return scaleLinear(raw, e.LogicalMin, e.LogicalMax, e.PhysicalMin, e.PhysicalMax), nil
	case ScaleCalibrated:
		return scaleCalibrated(raw, e.Calibration), nil
	case ScaleExponent:
		return int32(scaleExponent(raw, e.UnitExponent)), nil
	default:
		return 0, fmt.Errorf("unknown scale type %d", scaleType)
	}
}

// GetScaledFixedValue is GetScaledValue's IOFixed (16.16 fixed-point)
// counterpart. Physical and exponent scaling keep the sub-integer
// precision that a plain int32 result would truncate; calibrated scaling
// is computed as an integer and then converted, so it has no fractional
// part.
func GetScaledFixedValue(e *Element, scaleType ScaleType) (int32, error) {
	raw := int32(e.GetValue())
	switch scaleType {
	case ScalePhysical:
		return scaleLinearFixed(raw, e.LogicalMin, e.LogicalMax, e.PhysicalMin, e.PhysicalMax), nil
	case ScaleCalibrated:
		scaled := scaleCalibrated(raw, e.Calibration)
		return int32(scaled) * fixedOne, nil
	case ScaleExponent:
		return toFixed(scaleExponent(raw, e.UnitExponent)), nil
	default:
		return 0, fmt.Errorf("unknown scale type %d", scaleType)
	}
}

// scaleLinear maps raw from [lMin,lMax] onto [pMin,pMax] with 64-bit
// signed intermediate arithmetic to avoid overflow on wide logical ranges.
func scaleLinear(raw, lMin, lMax, pMin, pMax int32) int32 {
	if lMax == lMin {
		return pMin
	}
	num := int64(raw-lMin) * int64(pMax-pMin)
	den := int64(lMax - lMin)
	return int32(num/den) + pMin
}

func scaleLinearFixed(raw, lMin, lMax, pMin, pMax int32) int32 {
	if lMax == lMin {
		return pMin * fixedOne
	}
	num := int64(raw-lMin) * int64(pMax-pMin) * fixedOne
	den := int64(lMax - lMin)
	return int32(num/den) + pMin*fixedOne
}

// scaleCalibrated applies saturation clamping, a dead zone collapsing to
// the midpoint of [Min,Max], then linear scaling of the remaining range
// onto [Min, mid] below the dead zone or [mid, Max] above it. The midpoint, not a
// literal zero, is the calibrated range's true center: it only coincides
// with zero when Min == -Max.
func scaleCalibrated(raw int32, c Calibration) int32 {
	switch {
	case raw <= c.SatMin:
		raw = c.SatMin
	case raw >= c.SatMax:
		raw = c.SatMax
	}

	mid := (c.Min + c.Max) / 2

	switch {
	case raw >= c.DzMin && raw <= c.DzMax:
		return mid
	case raw < c.DzMin:
		return scaleLinear(raw, c.SatMin, c.DzMin, c.Min, mid)
	default:
		return scaleLinear(raw, c.DzMax, c.SatMax, mid, c.Max)
	}
}

// scaleExponent applies the nibble-encoded HID unit exponent (values 8-15
// mean -8..-1) as a power-of-ten multiplier.
func scaleExponent(raw int32, unitExponent uint32) float64 {
	return float64(raw) * math.Pow(10, float64(decodeExponent(unitExponent)))
}

// decodeExponent turns the 4-bit HID unit exponent encoding into a signed
// power of ten.
func decodeExponent(nibble uint32) int32 {
	n := int32(nibble & 0xF)
	if n > 7 {
		n -= 16
	}
	return n
}

func toFixed(f float64) int32 { return int32(f * fixedOne) }
