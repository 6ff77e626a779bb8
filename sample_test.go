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
	"strings"
	"testing"
)

func TestReadSampleLocations(t *testing.T) {
	input := `# comment line
4.0 0.0

6.5 180.0
  2.2   315
`
	locs, err := ReadSampleLocations(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	want := []SampleLocation{{4, 0}, {6.5, 180}, {2.2, 315}}
	if len(locs) != len(want) {
		t.Fatalf("got %d locations, want %d", len(locs), len(want))
	}
	for i, loc := range locs {
		if loc != want[i] {
			t.Errorf("location %d = %+v, want %+v", i, loc, want[i])
		}
	}
}

func TestReadSampleLocationsErrors(t *testing.T) {
	cases := []string{
		"4.0",        // too few fields
		"4.0 0.0 17", // too many fields
		"x 0.0",      // bad L
		"4.0 y",      // bad longitude
		"0.5 0.0",    // L below 1
		"",           // no locations
		"# only\n# comments",
	}
	for _, c := range cases {
		if _, err := ReadSampleLocations(strings.NewReader(c)); err == nil {
			t.Errorf("input %q should be rejected", c)
		}
	}
}

func TestSampleLocationColat(t *testing.T) {
	// L = 4 maps to 30° colatitude, L = 2 to 45°.
	if theta := (SampleLocation{L: 4}).colat(); different(theta, 30, testTolerance) {
		t.Errorf("colat(L=4) = %g, want 30", theta)
	}
	if theta := (SampleLocation{L: 2}).colat(); different(theta, 45, testTolerance) {
		t.Errorf("colat(L=2) = %g, want 45", theta)
	}
}

// TestSampleUniformField checks that interpolating a constant field returns
// the constant everywhere, including across the local-time origin.
func TestSampleUniformField(t *testing.T) {
	sat := PowerLawSaturation(DefaultSaturationA, DefaultSaturationB)
	f, err := NewFilling(0, 0, 0, sat)
	if err != nil {
		t.Fatal(err)
	}
	p := testPlasmasphere(t, f)
	field := p.N.Copy()
	for i := range field.Elements {
		field.Elements[i] = 7.25
	}
	for _, loc := range []SampleLocation{
		{4, 0}, {4, 90}, {4, 182.5}, {4, 357.5}, {2, 315}, {9, 10},
	} {
		if v := p.Sample(field, loc); different(v, 7.25, testTolerance) {
			t.Errorf("sample at %+v = %g, want 7.25", loc, v)
		}
	}
}

// TestSampleInterpolation checks bilinear interpolation against a field
// linear in colatitude.
func TestSampleInterpolation(t *testing.T) {
	sat := PowerLawSaturation(DefaultSaturationA, DefaultSaturationB)
	f, err := NewFilling(0, 0, 0, sat)
	if err != nil {
		t.Fatal(err)
	}
	p := testPlasmasphere(t, f)
	field := p.N.Copy()
	for iP := range p.Phi {
		for iT, theta := range p.Theta {
			field.Set(theta, iP, iT)
		}
	}
	// On a field equal to the colatitude itself, sampling returns the
	// location's colatitude wherever it is inside the grid.
	for _, l := range []float64{2, 3, 4.7, 6.1, 9} {
		loc := SampleLocation{L: l, MLT: 42}
		if v := p.Sample(field, loc); different(v, loc.colat(), testTolerance) {
			t.Errorf("sample at L=%g = %g, want %g", l, v, loc.colat())
		}
	}
}

// TestSampleClamping checks that locations poleward or equatorward of the
// grid clamp to the edge rows.
func TestSampleClamping(t *testing.T) {
	sat := PowerLawSaturation(DefaultSaturationA, DefaultSaturationB)
	f, err := NewFilling(0, 0, 0, sat)
	if err != nil {
		t.Fatal(err)
	}
	p := testPlasmasphere(t, f)
	field := p.N.Copy()
	for iP := range p.Phi {
		for iT, theta := range p.Theta {
			field.Set(theta, iP, iT)
		}
	}
	// L = 40 maps to about 9.1° colatitude, poleward of the first row;
	// L = 1.1 maps to about 72.5°, equatorward of the last.
	if v := p.Sample(field, SampleLocation{L: 40, MLT: 0}); different(v, p.Theta[0], testTolerance) {
		t.Errorf("poleward sample = %g, want first-row colatitude %g", v, p.Theta[0])
	}
	if v := p.Sample(field, SampleLocation{L: 1.1, MLT: 0}); different(v, p.Theta[len(p.Theta)-1], testTolerance) {
		t.Errorf("equatorward sample = %g, want last-row colatitude %g", v, p.Theta[len(p.Theta)-1])
	}
}
