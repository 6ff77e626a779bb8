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

import (
	"math"

	"github.com/ctessum/sparse"
)

// Filler applies one filling step to the grid. r, theta and phi are the
// coordinate vectors (L-shell per row, colatitude per row [degrees],
// local-time per column [degrees]); n and den are mutated in place; vol, oc,
// bi and the coordinate vectors must not be mutated. dt is the step length
// [seconds]. Implementations must keep den == n/vol for every cell they
// touch.
type Filler interface {
	Fill(r, theta, phi []float64, n, den, vol, oc, bi *sparse.DenseArray, dt float64) error
}

// Default baseline filling parameters.
const (
	DefaultFMax      = 2e12        // peak source rate [particles m⁻² s⁻¹]
	DefaultTauClosed = 10 * 86400. // closed-tube relaxation time [s]
	DefaultTauOpen   = 1 * 86400.  // open-tube draining time [s]
)

// Filling is the baseline filling and loss process: closed flux tubes fill
// toward the saturation density with peak rate FMax and relax back down with
// time constant TauClosed when above it; open flux tubes drain exponentially
// with time constant TauOpen.
type Filling struct {
	// FMax is the peak ionospheric source rate [particles m⁻² s⁻¹].
	FMax float64
	// TauClosed is the relaxation time constant for closed flux tubes
	// above saturation [s].
	TauClosed float64
	// TauOpen is the draining time constant for open flux tubes [s].
	TauOpen float64

	sat SaturationFunc
}

// NewFilling creates a baseline filling process. Passing zero for fMax,
// tauClosed or tauOpen selects the default value for that parameter.
func NewFilling(fMax, tauClosed, tauOpen float64, sat SaturationFunc) (*Filling, error) {
	if fMax == 0 {
		fMax = DefaultFMax
	}
	if tauClosed == 0 {
		tauClosed = DefaultTauClosed
	}
	if tauOpen == 0 {
		tauOpen = DefaultTauOpen
	}
	if fMax < 0 || tauClosed < 0 || tauOpen < 0 {
		return nil, configErrorf("filling parameters must be positive: fMax=%g tauClosed=%g tauOpen=%g",
			fMax, tauClosed, tauOpen)
	}
	if sat == nil {
		return nil, configErrorf("no saturation function supplied to filling stage")
	}
	return &Filling{FMax: fMax, TauClosed: tauClosed, TauOpen: tauOpen, sat: sat}, nil
}

// Saturation returns the saturation function used by the filling process.
func (f *Filling) Saturation() SaturationFunc {
	return f.sat
}

// Fill implements Filler.
func (f *Filling) Fill(r, theta, phi []float64, n, den, vol, oc, bi *sparse.DenseArray, dt float64) error {
	nT := len(theta)
	nP := len(phi)
	for iT := 0; iT < nT; iT++ {
		sat := f.sat(r[iT])
		if sat <= 0 || math.IsNaN(sat) || math.IsInf(sat, 0) {
			return degeneracyErrorf("saturation density %g at L=%g", sat, r[iT])
		}
		for iP := 0; iP < nP; iP++ {
			idx := iP*nT + iT
			if oc.Elements[idx] != 0 { // closed flux tube
				if den.Elements[idx] <= sat {
					flux := (sat - den.Elements[idx]) / sat * f.FMax
					n.Elements[idx] += flux * dt / bi.Elements[idx]
				} else {
					n.Elements[idx] -= (den.Elements[idx] - sat) * vol.Elements[idx] * dt / f.TauClosed
				}
			} else { // open flux tube
				n.Elements[idx] -= n.Elements[idx] * dt / f.TauOpen
			}
			den.Elements[idx] = n.Elements[idx] / vol.Elements[idx]
		}
	}
	return nil
}
