package stats

import "math"

// winitzkiA is the constant of Winitzki's approximation of erf.
var winitzkiA = (8 * (math.Pi - 3)) / (3 * math.Pi * (4 - math.Pi))

// InverseErf approximates the inverse error function in closed form.
//
// The result is exact in sign and accurate to roughly 2e-3. InverseErf(±1)
// is ±Inf and any |x| > 1 yields NaN.
func InverseErf(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1
	}
	b := math.Log(1 - x*x)
	t := 2/(math.Pi*winitzkiA) + b/2
	return sign * math.Sqrt(math.Sqrt(t*t-b/winitzkiA)-t)
}

// InverseNormalCDF returns the value below which probability p of a normal
// distribution with the given mean and standard deviation falls.
func InverseNormalCDF(p, mean, sd float64) float64 {
	return math.Sqrt2*InverseErf(2*p-1)*sd + mean
}
