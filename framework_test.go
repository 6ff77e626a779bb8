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
	"testing"

	"github.com/ctessum/sparse"
)

// countingFiller records the step lengths it is asked to take.
type countingFiller struct {
	steps []float64
}

func (f *countingFiller) Fill(r, theta, phi []float64, n, den, vol, oc, bi *sparse.DenseArray, dt float64) error {
	f.steps = append(f.steps, dt)
	return nil
}

func TestNewPlasmasphereGeometry(t *testing.T) {
	sat := PowerLawSaturation(DefaultSaturationA, DefaultSaturationB)
	f, err := NewFilling(0, 0, 0, sat)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultGridConfig()
	p, err := NewPlasmasphere(cfg, f, sat)
	if err != nil {
		t.Fatal(err)
	}

	if len(p.Theta) != cfg.NTheta || len(p.Phi) != cfg.NPhi {
		t.Fatalf("grid %d×%d, want %d×%d", len(p.Phi), len(p.Theta), cfg.NPhi, cfg.NTheta)
	}
	if p.Theta[0] != cfg.ThetaMin || different(p.Theta[cfg.NTheta-1], cfg.ThetaMax, testTolerance) {
		t.Errorf("colatitude range [%g, %g], want [%g, %g]",
			p.Theta[0], p.Theta[cfg.NTheta-1], cfg.ThetaMin, cfg.ThetaMax)
	}
	if p.Phi[0] != 0 || p.Phi[1] != 5 || p.Phi[cfg.NPhi-1] != 355 {
		t.Errorf("local-time columns start %g step %g end %g, want 0, 5, 355",
			p.Phi[0], p.Phi[1]-p.Phi[0], p.Phi[cfg.NPhi-1])
	}

	for iT, theta := range p.Theta {
		sinTheta := math.Sin(theta * deg2rad)
		if different(p.L[iT], 1/(sinTheta*sinTheta), testTolerance) {
			t.Fatalf("row %d: L = %g, want %g", iT, p.L[iT], 1/(sinTheta*sinTheta))
		}
	}

	// The poleward rows are open (L above OpenL), the equatorward rows
	// closed, with a single transition.
	transitions := 0
	for iT := 1; iT < cfg.NTheta; iT++ {
		if p.Oc.Get(0, iT) != p.Oc.Get(0, iT-1) {
			transitions++
		}
	}
	if transitions != 1 {
		t.Errorf("open/closed boundary crossed %d times, want 1", transitions)
	}
	if p.Oc.Get(0, 0) != 0 {
		t.Error("most poleward row should be open")
	}
	if p.Oc.Get(0, cfg.NTheta-1) != 1 {
		t.Error("most equatorward row should be closed")
	}

	// Initial condition: saturated density, content consistent with
	// volume.
	for iT, l := range p.L {
		for iP := range p.Phi {
			if different(p.Den.Get(iP, iT), sat(l), testTolerance) {
				t.Fatalf("cell (%d,%d): initial density %g, want %g", iP, iT, p.Den.Get(iP, iT), sat(l))
			}
			if different(p.N.Get(iP, iT), p.Den.Get(iP, iT)*p.Vol.Get(iP, iT), testTolerance) {
				t.Fatalf("cell (%d,%d): content inconsistent with density and volume", iP, iT)
			}
		}
	}
}

func TestNewPlasmasphereValidation(t *testing.T) {
	sat := PowerLawSaturation(DefaultSaturationA, DefaultSaturationB)
	f, err := NewFilling(0, 0, 0, sat)
	if err != nil {
		t.Fatal(err)
	}
	bad := []GridConfig{
		{NTheta: 1, NPhi: 72, ThetaMin: 18, ThetaMax: 62, MaxTimestep: 300},
		{NTheta: 60, NPhi: 1, ThetaMin: 18, ThetaMax: 62, MaxTimestep: 300},
		{NTheta: 60, NPhi: 72, ThetaMin: 0, ThetaMax: 62, MaxTimestep: 300},
		{NTheta: 60, NPhi: 72, ThetaMin: 18, ThetaMax: 95, MaxTimestep: 300},
		{NTheta: 60, NPhi: 72, ThetaMin: 62, ThetaMax: 18, MaxTimestep: 300},
		{NTheta: 60, NPhi: 72, ThetaMin: 18, ThetaMax: 62, MaxTimestep: 0},
	}
	for i, cfg := range bad {
		if _, err := NewPlasmasphere(cfg, f, sat); err == nil {
			t.Errorf("config %d should be rejected: %+v", i, cfg)
		}
	}
	cfg := DefaultGridConfig()
	if _, err := NewPlasmasphere(cfg, nil, sat); err == nil {
		t.Error("nil filler should be rejected")
	}
	if _, err := NewPlasmasphere(cfg, f, nil); err == nil {
		t.Error("nil saturation function should be rejected")
	}
}

// TestAdvanceSubstepping checks that long advances are split into steps no
// longer than the configured maximum.
func TestAdvanceSubstepping(t *testing.T) {
	sat := PowerLawSaturation(DefaultSaturationA, DefaultSaturationB)
	f := &countingFiller{}
	cfg := DefaultGridConfig()
	p, err := NewPlasmasphere(cfg, f, sat)
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Advance(900); err != nil {
		t.Fatal(err)
	}
	if len(f.steps) != 3 {
		t.Fatalf("900 s advance took %d steps, want 3", len(f.steps))
	}
	for i, dt := range f.steps {
		if dt != 300 {
			t.Errorf("step %d length %g, want 300", i, dt)
		}
	}

	f.steps = nil
	if err := p.Advance(750); err != nil {
		t.Fatal(err)
	}
	want := []float64{300, 300, 150}
	if len(f.steps) != len(want) {
		t.Fatalf("750 s advance took %d steps, want %d", len(f.steps), len(want))
	}
	var total float64
	for _, dt := range f.steps {
		if dt > cfg.MaxTimestep {
			t.Errorf("step length %g exceeds the maximum %g", dt, cfg.MaxTimestep)
		}
		total += dt
	}
	if different(total, 750, testTolerance) {
		t.Errorf("steps sum to %g, want 750", total)
	}

	f.steps = nil
	if err := p.Advance(0); err != nil {
		t.Fatal(err)
	}
	if len(f.steps) != 0 {
		t.Errorf("zero advance took %d steps, want none", len(f.steps))
	}

	if err := p.Advance(-1); err == nil {
		t.Error("negative advance should be rejected")
	}
}

func TestSetKp(t *testing.T) {
	sat := PowerLawSaturation(DefaultSaturationA, DefaultSaturationB)
	f, err := NewFilling(0, 0, 0, sat)
	if err != nil {
		t.Fatal(err)
	}
	p := testPlasmasphere(t, f)

	p.SetKp(0)
	if different(p.ConvectionStrength, 0.045, testTolerance) {
		t.Errorf("convection strength at Kp=0 is %g, want 0.045", p.ConvectionStrength)
	}
	prev := p.ConvectionStrength
	for _, kp := range []float64{1, 2, 3, 5, 7, 9} {
		p.SetKp(kp)
		if p.Kp != kp {
			t.Errorf("Kp = %g, want %g", p.Kp, kp)
		}
		if p.ConvectionStrength <= prev {
			t.Errorf("convection strength should grow with Kp; at Kp=%g got %g after %g",
				kp, p.ConvectionStrength, prev)
		}
		prev = p.ConvectionStrength
	}
}

func TestDiagnostics(t *testing.T) {
	sat := PowerLawSaturation(DefaultSaturationA, DefaultSaturationB)
	f, err := NewFilling(0, 0, 0, sat)
	if err != nil {
		t.Fatal(err)
	}
	p := testPlasmasphere(t, f)
	if p.TotalContent() <= 0 {
		t.Error("total content of a half-filled plasmasphere should be positive")
	}
	var sum float64
	for _, v := range p.Den.Elements {
		sum += v
	}
	if different(p.MeanDensity(), sum/float64(len(p.Den.Elements)), testTolerance) {
		t.Errorf("mean density = %g, want %g", p.MeanDensity(), sum/float64(len(p.Den.Elements)))
	}
}
