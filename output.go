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
	"math"
	"sort"
	"time"

	"github.com/Knetic/govaluate"
)

// SampleWriter writes sampled model values at a fixed set of query
// locations. Each output variable is an arithmetic expression over the
// model fields at the sampled location: Den, N, Vol, Bi, L, MLT, Theta and
// Kp, with helper functions exp, log10 and sqrt.
type SampleWriter struct {
	w     io.Writer
	locs  []SampleLocation
	names []string
	exprs map[string]*govaluate.EvaluableExpression
}

// DefaultOutputVariables is the output variable set used when none is
// configured: the density at each sampled location.
var DefaultOutputVariables = map[string]string{"Den": "Den"}

var outputFunctions = map[string]govaluate.ExpressionFunction{
	"exp": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("spotfilling: got %d arguments for function 'exp', but needs 1", len(arg))
		}
		return math.Exp(arg[0].(float64)), nil
	},
	"log10": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("spotfilling: got %d arguments for function 'log10', but needs 1", len(arg))
		}
		return math.Log10(arg[0].(float64)), nil
	},
	"sqrt": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("spotfilling: got %d arguments for function 'sqrt', but needs 1", len(arg))
		}
		return math.Sqrt(arg[0].(float64)), nil
	},
}

// NewSampleWriter creates a writer producing one text line per event on w.
// outputVariables maps output names to expressions; if it is empty,
// DefaultOutputVariables is used. The locations are checked against the
// model grid.
func NewSampleWriter(w io.Writer, p *Plasmasphere, locs []SampleLocation,
	outputVariables map[string]string) (*SampleWriter, error) {
	if len(locs) == 0 {
		return nil, configErrorf("no sample locations supplied")
	}
	for i, loc := range locs {
		theta := loc.colat()
		if theta < p.Theta[0] || theta > p.Theta[len(p.Theta)-1] {
			return nil, configErrorf("sample location %d (L=%g) maps to colatitude %g° outside the grid [%g°, %g°]",
				i, loc.L, theta, p.Theta[0], p.Theta[len(p.Theta)-1])
		}
	}
	if len(outputVariables) == 0 {
		outputVariables = DefaultOutputVariables
	}

	s := &SampleWriter{
		w:     w,
		locs:  locs,
		exprs: make(map[string]*govaluate.EvaluableExpression),
	}
	for name, exprText := range outputVariables {
		expr, err := govaluate.NewEvaluableExpressionWithFunctions(exprText, outputFunctions)
		if err != nil {
			return nil, configErrorf("parsing output variable %q = %q: %v", name, exprText, err)
		}
		s.exprs[name] = expr
		s.names = append(s.names, name)
	}
	sort.Strings(s.names)
	return s, nil
}

// WriteSamples writes one line for simulated time t: the six timestamp
// fields followed by, for each location in order, the value of each output
// variable in sorted name order.
func (s *SampleWriter) WriteSamples(t time.Time, p *Plasmasphere) error {
	t = t.UTC()
	if _, err := fmt.Fprintf(s.w, "%04d %02d %02d %02d %02d %02d",
		t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second()); err != nil {
		return fmt.Errorf("spotfilling: writing samples: %v", err)
	}
	params := make(map[string]interface{}, 8)
	for _, loc := range s.locs {
		params["Den"] = p.Sample(p.Den, loc)
		params["N"] = p.Sample(p.N, loc)
		params["Vol"] = p.Sample(p.Vol, loc)
		params["Bi"] = p.Sample(p.Bi, loc)
		params["L"] = loc.L
		params["MLT"] = loc.MLT
		params["Theta"] = loc.colat()
		params["Kp"] = p.Kp
		for _, name := range s.names {
			v, err := s.exprs[name].Evaluate(params)
			if err != nil {
				return configErrorf("evaluating output variable %q: %v", name, err)
			}
			if _, err := fmt.Fprintf(s.w, " %g", v); err != nil {
				return fmt.Errorf("spotfilling: writing samples: %v", err)
			}
		}
	}
	if _, err := fmt.Fprintln(s.w); err != nil {
		return fmt.Errorf("spotfilling: writing samples: %v", err)
	}
	return nil
}
