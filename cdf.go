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
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ctessum/cdf"
)

// ExportCDF converts a compressed binary state file to a NetCDF file with
// one density record per saved instant. The whole state file is read before
// the NetCDF header is written, since the record count is part of the
// header.
func ExportCDF(r io.Reader, out *os.File) error {
	sr, err := NewStateReader(r)
	if err != nil {
		return err
	}
	defer sr.Close()

	var times []time.Time
	var densities [][]float64
	for {
		t, den, err := sr.ReadState()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		times = append(times, t)
		densities = append(densities, den.Elements)
	}
	if len(times) == 0 {
		return fmt.Errorf("spotfilling: state file contains no records to export")
	}

	nT := len(sr.Theta)
	nP := len(sr.Phi)
	h := cdf.NewHeader([]string{"time", "phi", "theta"}, []int{len(times), nP, nT})
	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "units", "seconds since 1970-01-01 00:00:00 UTC")
	h.AddVariable("theta", []string{"theta"}, []float32{0})
	h.AddAttribute("theta", "units", "degrees colatitude")
	h.AddVariable("phi", []string{"phi"}, []float32{0})
	h.AddAttribute("phi", "units", "degrees east from midnight")
	h.AddVariable("density", []string{"time", "phi", "theta"}, []float32{0})
	h.AddAttribute("density", "units", "m-3")
	h.AddAttribute("density", "description", "plasmaspheric particle density")
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("spotfilling: creating NetCDF header: %v", err)
	}

	f, err := cdf.Create(out, h)
	if err != nil {
		return fmt.Errorf("spotfilling: creating NetCDF file: %v", err)
	}

	tv := make([]float64, len(times))
	for i, t := range times {
		tv[i] = float64(t.Unix())
	}
	w := f.Writer("time", []int{0}, []int{len(tv)})
	if _, err := w.Write(tv); err != nil {
		return fmt.Errorf("spotfilling: writing NetCDF times: %v", err)
	}

	for name, coords := range map[string][]float64{"theta": sr.Theta, "phi": sr.Phi} {
		buf := make([]float32, len(coords))
		for i, v := range coords {
			buf[i] = float32(v)
		}
		w := f.Writer(name, []int{0}, []int{len(buf)})
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("spotfilling: writing NetCDF %s coordinates: %v", name, err)
		}
	}

	den := make([]float32, 0, len(times)*nP*nT)
	for _, rec := range densities {
		for _, v := range rec {
			den = append(den, float32(v))
		}
	}
	w = f.Writer("density", []int{0, 0, 0}, []int{len(times), nP, nT})
	if _, err := w.Write(den); err != nil {
		return fmt.Errorf("spotfilling: writing NetCDF densities: %v", err)
	}
	return nil
}
