/*
Copyright © 2026 the spotfilling authors.
This file is part of spotfilling.

spotfilling is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

spotfilling is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with spotfilling.  If not, see <http://www.gnu.org/licenses/>.
*/

package spotfilling

import "math"

// SaturationFunc maps a normalized radial coordinate (the L-shell parameter)
// to the saturation density [m⁻³] that the relaxation-type filling law
// drives a flux tube toward.
type SaturationFunc func(l float64) float64

// Default coefficients for the power-law saturation curve, from a fit of
// saturated plasmasphere densities as a function of L. The fit gives
// densities in cm⁻³.
const (
	DefaultSaturationA = 3.9043
	DefaultSaturationB = -0.3145
)

// PowerLawSaturation returns the saturation function n(L) = 10^(a + b·L),
// where the coefficients describe the density in cm⁻³ and the returned
// function converts to m⁻³.
func PowerLawSaturation(a, b float64) SaturationFunc {
	return func(l float64) float64 {
		return 1e6 * math.Pow(10, a+b*l)
	}
}
