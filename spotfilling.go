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
	"time"

	"github.com/ctessum/sparse"
)

// SpotWindow holds the activation interval and the geometric and intensity
// parameters of the spot perturbation. The window is active when
// Start ≤ now ≤ End, inclusive on both ends.
type SpotWindow struct {
	// Start and End bound the activation interval.
	Start, End time.Time

	// CenterColat is the colatitude of the spot center [degrees from
	// the pole].
	CenterColat float64
	// CenterLon is the local-time angle of the spot center [degrees
	// east from midnight].
	CenterLon float64
	// Radius is the spot radius at the Earth's surface [km].
	Radius float64
	// Factor multiplies both the peak source rate and the saturation
	// density inside the spot.
	Factor float64
}

// contains reports whether t lies within the window.
func (w SpotWindow) contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// SpotFilling decorates a baseline filling process with a spatially and
// temporally bounded injection that emulates the enhanced ionization of a
// substorm. It always applies the baseline step first, then overlays the
// spot onto every cell within the spot radius while the activation window
// is open.
type SpotFilling struct {
	base *Filling
	spot SpotWindow
	// now is the current simulated time, set exogenously once per
	// scheduler tick.
	now     time.Time
	hasSpot bool
}

// NewSpotFilling wraps the baseline filling process base.
func NewSpotFilling(base *Filling) (*SpotFilling, error) {
	if base == nil {
		return nil, configErrorf("spot filling requires a baseline filling stage")
	}
	return &SpotFilling{base: base}, nil
}

// SetSpot configures the spot. It may be called at most once, before the
// run begins.
func (s *SpotFilling) SetSpot(w SpotWindow) error {
	if s.hasSpot {
		return configErrorf("spot already configured")
	}
	if w.Radius <= 0 {
		return degeneracyErrorf("spot radius must be positive, got %g km", w.Radius)
	}
	if w.Factor <= 0 {
		return configErrorf("spot amplification factor must be positive, got %g", w.Factor)
	}
	if w.End.Before(w.Start) {
		return OrderingViolationf("spot window ends (%v) before it starts (%v)", w.End, w.Start)
	}
	if w.CenterColat <= 0 || w.CenterColat >= 180 {
		return configErrorf("spot center colatitude %g° outside (0, 180)", w.CenterColat)
	}
	s.spot = w
	s.hasSpot = true
	return nil
}

// SetTime sets the current simulated time, which determines whether the
// spot is active. The scheduler calls this once per refresh tick.
func (s *SpotFilling) SetTime(t time.Time) {
	s.now = t
}

// Saturation returns the saturation function of the wrapped baseline
// process.
func (s *SpotFilling) Saturation() SaturationFunc {
	return s.base.Saturation()
}

// Fill implements Filler. The baseline step runs for every cell regardless
// of spot state; the overlay runs only while the window is open.
func (s *SpotFilling) Fill(r, theta, phi []float64, n, den, vol, oc, bi *sparse.DenseArray, dt float64) error {
	if err := s.base.Fill(r, theta, phi, n, den, vol, oc, bi, dt); err != nil {
		return err
	}
	if !s.hasSpot || !s.spot.contains(s.now) {
		return nil
	}

	// The spot center maps to the same 1/sin²θ radial parameter as the
	// grid rows, so the saturation curve applies unchanged.
	sinCenter := math.Sin(s.spot.CenterColat * deg2rad)
	dSat := s.base.Saturation()(1 / (sinCenter * sinCenter))
	sSat := s.spot.Factor * dSat
	if sSat <= 0 || math.IsNaN(sSat) || math.IsInf(sSat, 0) {
		return degeneracyErrorf("spot saturation density %g at colatitude %g°", sSat, s.spot.CenterColat)
	}
	sFMax := s.spot.Factor * s.base.FMax

	nT := len(theta)
	nP := len(phi)
	for iT := 0; iT < nT; iT++ {
		// North-south distance from the spot center along the surface.
		dT := (theta[iT] - s.spot.CenterColat) * deg2rad * earthRadiusKm
		sinTheta := math.Sin(theta[iT] * deg2rad)
		for iP := 0; iP < nP; iP++ {
			// East-west angular difference, normalized into
			// (−180°, 180°] so that cells across the local-time
			// origin stay close to the center.
			dP := phi[iP] - s.spot.CenterLon
			if dP > 180 {
				dP -= 360
			}
			if dP < -180 {
				dP += 360
			}
			dP = dP * deg2rad * earthRadiusKm * sinTheta
			rr := math.Sqrt(dT*dT + dP*dP)
			if rr < s.spot.Radius {
				idx := iP*nT + iT
				flux := (sSat - den.Elements[idx]) / sSat * sFMax
				n.Elements[idx] += flux * dt / bi.Elements[idx]
				den.Elements[idx] = n.Elements[idx] / vol.Elements[idx]
			}
		}
	}
	return nil
}
