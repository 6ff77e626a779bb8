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
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ctessum/sparse"
)

// SampleLocation is one query point for sample output, given as an L-shell
// and a magnetic local-time angle [degrees east from midnight].
type SampleLocation struct {
	L   float64
	MLT float64
}

// colat returns the colatitude of the location's ionospheric foot point
// [degrees], from L = 1/sin²θ.
func (s SampleLocation) colat() float64 {
	return math.Asin(1/math.Sqrt(s.L)) / deg2rad
}

// ReadSampleLocations parses a sample-locations file: whitespace-separated
// pairs of L-shell and local-time angle [degrees], one pair per line. Blank
// lines and lines starting with '#' are skipped.
func ReadSampleLocations(r io.Reader) ([]SampleLocation, error) {
	var locs []SampleLocation
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, configErrorf("sample locations line %d: want 2 fields, got %d", line, len(fields))
		}
		l, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, configErrorf("sample locations line %d: parsing L-shell: %v", line, err)
		}
		mlt, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, configErrorf("sample locations line %d: parsing local time: %v", line, err)
		}
		if l <= 1 {
			return nil, configErrorf("sample locations line %d: L-shell %g must be greater than 1", line, l)
		}
		locs = append(locs, SampleLocation{L: l, MLT: mlt})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("spotfilling: reading sample locations: %v", err)
	}
	if len(locs) == 0 {
		return nil, configErrorf("sample locations file contains no locations")
	}
	return locs, nil
}

// Sample returns the value of the given grid field at loc, bilinearly
// interpolated in colatitude and local time. The local-time coordinate
// wraps; the colatitude is clamped to the grid edges.
func (p *Plasmasphere) Sample(field *sparse.DenseArray, loc SampleLocation) float64 {
	theta := loc.colat()
	nT := len(p.Theta)
	nP := len(p.Phi)

	iT := 0
	fT := 0.
	switch {
	case theta <= p.Theta[0]:
	case theta >= p.Theta[nT-1]:
		iT = nT - 2
		fT = 1
	default:
		for iT < nT-2 && p.Theta[iT+1] < theta {
			iT++
		}
		fT = (theta - p.Theta[iT]) / (p.Theta[iT+1] - p.Theta[iT])
	}

	phi := math.Mod(loc.MLT, 360)
	if phi < 0 {
		phi += 360
	}
	dPhi := 360 / float64(nP)
	iP := int(phi / dPhi)
	if iP >= nP {
		iP = nP - 1
	}
	fP := (phi - p.Phi[iP]) / dPhi
	iPNext := (iP + 1) % nP // local time wraps around midnight

	v00 := field.Get(iP, iT)
	v01 := field.Get(iP, iT+1)
	v10 := field.Get(iPNext, iT)
	v11 := field.Get(iPNext, iT+1)
	return (1-fP)*((1-fT)*v00+fT*v01) + fP*((1-fT)*v10+fT*v11)
}
