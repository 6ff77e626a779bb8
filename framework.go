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

// Package spotfilling simulates the time evolution of a plasmaspheric
// density field on a polar (colatitude × local-time) grid, driven by the
// geomagnetic activity index Kp and an optional localized, time-windowed
// "spot" perturbation that emulates enhanced ionization during a substorm.
package spotfilling

import (
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Version gives the version number.
const Version = "1.0.0"

// Physical constants.
const (
	// earthRadiusKm is the Earth radius used for spot distance
	// calculations [km].
	earthRadiusKm = 6400.

	// earthRadius is the Earth radius [m].
	earthRadius = 6.4e6

	// surfaceField is the equatorial magnetic field strength at the
	// Earth's surface [T].
	surfaceField = 3.11e-5

	deg2rad = math.Pi / 180.
)

// GridConfig holds the parameters that determine the shape of the
// model grid.
type GridConfig struct {
	// NTheta and NPhi are the numbers of colatitude rows and
	// local-time columns.
	NTheta, NPhi int

	// ThetaMin and ThetaMax are the colatitudes of the first and last
	// grid rows [degrees from the pole].
	ThetaMin, ThetaMax float64

	// OpenL is the L-shell beyond which flux tubes are considered open.
	// Open tubes drain instead of filling.
	OpenL float64

	// MaxTimestep is the longest internal time step the model will take
	// when asked to advance [seconds].
	MaxTimestep float64

	// InitialFill is the initial density as a fraction of the saturation
	// density (1 starts the plasmasphere saturated, 0 empty).
	InitialFill float64
}

// DefaultGridConfig returns the standard grid: colatitude rows from 18° to
// 62° (L from about 10.5 down to 1.3) and 5°-wide local-time columns.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		NTheta:      60,
		NPhi:        72,
		ThetaMin:    18,
		ThetaMax:    62,
		OpenL:       10,
		MaxTimestep: 300,
		InitialFill: 1,
	}
}

// Plasmasphere is the gridded plasmasphere model. Grid fields are indexed
// (longitude, colatitude); all fields are owned by the model and passed by
// reference to the filling stage for in-place mutation.
type Plasmasphere struct {
	// Theta is the colatitude of each grid row [degrees from the pole].
	Theta []float64
	// Phi is the local-time angle of each grid column [degrees east
	// from midnight].
	Phi []float64
	// L is the radial (L-shell) parameter of each grid row, 1/sin²θ.
	L []float64

	// N is the accumulated particle content of each flux tube
	// [particles/Wb].
	N *sparse.DenseArray
	// Den is the particle density, N/Vol [m⁻³].
	Den *sparse.DenseArray
	// Vol is the flux-tube volume per unit magnetic flux [m³/Wb].
	Vol *sparse.DenseArray
	// Oc is 1 for closed flux tubes and 0 for open ones.
	Oc *sparse.DenseArray
	// Bi is the magnetic field strength at the ionospheric foot point
	// of each flux tube [T].
	Bi *sparse.DenseArray

	filler Filler
	cfg    GridConfig

	// Kp is the current geomagnetic activity index.
	Kp float64
	// ConvectionStrength is the activity-dependent convection electric
	// field coefficient fed to the potential solver [kV/Re²].
	ConvectionStrength float64
}

// NewPlasmasphere creates a model with the given grid configuration and
// filling stage. sat sets the initial density condition.
func NewPlasmasphere(cfg GridConfig, f Filler, sat SaturationFunc) (*Plasmasphere, error) {
	if cfg.NTheta < 2 || cfg.NPhi < 2 {
		return nil, configErrorf("grid must have at least 2 rows and 2 columns, got %d×%d", cfg.NTheta, cfg.NPhi)
	}
	if cfg.ThetaMin <= 0 || cfg.ThetaMax >= 90 || cfg.ThetaMin >= cfg.ThetaMax {
		return nil, configErrorf("colatitude range [%g, %g] must lie within (0, 90)", cfg.ThetaMin, cfg.ThetaMax)
	}
	if cfg.MaxTimestep <= 0 {
		return nil, configErrorf("maximum time step must be positive, got %g", cfg.MaxTimestep)
	}
	if f == nil {
		return nil, configErrorf("no filling stage supplied")
	}
	if sat == nil {
		return nil, configErrorf("no saturation function supplied")
	}

	p := &Plasmasphere{
		Theta:  make([]float64, cfg.NTheta),
		Phi:    make([]float64, cfg.NPhi),
		L:      make([]float64, cfg.NTheta),
		N:      sparse.ZerosDense(cfg.NPhi, cfg.NTheta),
		Den:    sparse.ZerosDense(cfg.NPhi, cfg.NTheta),
		Vol:    sparse.ZerosDense(cfg.NPhi, cfg.NTheta),
		Oc:     sparse.ZerosDense(cfg.NPhi, cfg.NTheta),
		Bi:     sparse.ZerosDense(cfg.NPhi, cfg.NTheta),
		filler: f,
		cfg:    cfg,
	}

	dTheta := (cfg.ThetaMax - cfg.ThetaMin) / float64(cfg.NTheta-1)
	for iT := range p.Theta {
		p.Theta[iT] = cfg.ThetaMin + dTheta*float64(iT)
		sinTheta := math.Sin(p.Theta[iT] * deg2rad)
		p.L[iT] = 1 / (sinTheta * sinTheta)
	}
	for iP := range p.Phi {
		p.Phi[iP] = 360 / float64(cfg.NPhi) * float64(iP)
	}

	for iT, theta := range p.Theta {
		l := p.L[iT]
		vol := fluxTubeVolume(l)
		bi := footPointField(theta)
		var oc float64
		if l < cfg.OpenL {
			oc = 1
		}
		den := cfg.InitialFill * sat(l)
		if den < 0 || math.IsNaN(den) || math.IsInf(den, 0) {
			return nil, degeneracyErrorf("initial density %g at L=%g", den, l)
		}
		for iP := range p.Phi {
			idx := p.N.Index1d(iP, iT)
			p.Vol.Elements[idx] = vol
			p.Bi.Elements[idx] = bi
			p.Oc.Elements[idx] = oc
			p.Den.Elements[idx] = den
			p.N.Elements[idx] = den * vol
		}
	}
	return p, nil
}

// fluxTubeVolume is the volume of a dipole flux tube per unit magnetic flux
// at its ionospheric foot [m³/Wb]: 32/35 L⁴ Re/B₀ √(1−1/L).
func fluxTubeVolume(l float64) float64 {
	return 32. / 35. * math.Pow(l, 4) * earthRadius / surfaceField *
		math.Sqrt(1-1/l)
}

// footPointField is the dipole field strength at colatitude theta [degrees]
// on the Earth's surface [T].
func footPointField(theta float64) float64 {
	cosTheta := math.Cos(theta * deg2rad)
	return surfaceField * math.Sqrt(1+3*cosTheta*cosTheta)
}

// Advance advances the model state by the given number of seconds, splitting
// the interval into internal steps no longer than the configured maximum.
func (p *Plasmasphere) Advance(seconds float64) error {
	if seconds < 0 {
		return configErrorf("cannot advance by negative interval %g s", seconds)
	}
	for remaining := seconds; remaining > 0; {
		dt := math.Min(remaining, p.cfg.MaxTimestep)
		if err := p.filler.Fill(p.L, p.Theta, p.Phi, p.N, p.Den, p.Vol, p.Oc, p.Bi, dt); err != nil {
			return err
		}
		remaining -= dt
	}
	return nil
}

// SetKp updates the forcing index and the derived convection strength
// coefficient (Maynard and Chen activity dependence).
func (p *Plasmasphere) SetKp(kp float64) {
	p.Kp = kp
	d := 1 - 0.159*kp + 0.0093*kp*kp
	p.ConvectionStrength = 0.045 / (d * d * d)
}

// TotalContent returns the summed particle content of all flux tubes.
func (p *Plasmasphere) TotalContent() float64 {
	return floats.Sum(p.N.Elements)
}

// MeanDensity returns the mean density over the grid.
func (p *Plasmasphere) MeanDensity() float64 {
	return stat.Mean(p.Den.Elements, nil)
}
