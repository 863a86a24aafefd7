package wind

import "math"

// ExtrapolateWindspeed projects a wind speed measured at refHgt to hgt
// using the wind profile power law with the given shear exponent.
func ExtrapolateWindspeed(hgt, shear, refSpeed, refHgt float64) float64 {
	return refSpeed * math.Pow(hgt/refHgt, shear)
}

// ExtrapolateWindDirection projects a wind direction measured at refHgt to
// hgt using a linear veer rate (radians per meter).
func ExtrapolateWindDirection(hgt, veer, refDir, refHgt float64) float64 {
	return refDir + veer*(hgt-refHgt)
}
