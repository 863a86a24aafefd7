package wind

import "math"

// Shear computes the power-law shear exponent between two measurement
// heights (Wind Profile Power Law):
//
//	shear = ln(wsUpr/wsLwr) / ln(hgtUpr/hgtLwr)
//
// The result is NaN or Inf when either speed is non-positive or the two
// heights are equal; those propagate per IEEE-754 and are not intercepted.
func Shear(wsUpr, wsLwr, hgtUpr, hgtLwr float64) float64 {
	return math.Log(wsUpr/wsLwr) / math.Log(hgtUpr/hgtLwr)
}

// Veer computes the rate of change of wind direction with height, in
// radians per meter. The angular difference is normalized with
// atan2(sin Δ, cos Δ) so that directions straddling ±π do not register a
// false ~2π jump.
func Veer(dirUpr, dirLwr, hgtUpr, hgtLwr float64) float64 {
	d := dirUpr - dirLwr
	return math.Atan2(math.Sin(d), math.Cos(d)) / (hgtUpr - hgtLwr)
}
