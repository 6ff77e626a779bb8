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

import "fmt"

// ConfigurationError indicates invalid or missing run parameters, for
// example a saturation curve that evaluates to zero at the spot center or
// a custom saturation function requested without the custom filling stage.
// It is fatal: the run aborts before the scheduling loop starts.
type ConfigurationError struct {
	msg string
}

func (e *ConfigurationError) Error() string {
	return "spotfilling: configuration: " + e.msg
}

// ConfigurationErrorf creates a ConfigurationError.
func ConfigurationErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...)}
}

func configErrorf(format string, args ...interface{}) error {
	return ConfigurationErrorf(format, args...)
}

// OrderingViolation indicates input records that are not in non-decreasing
// time order, or a requested output start time before the run start time.
// It is detected when inputs are loaded; the scheduling loop assumes its
// inputs arrive validated.
type OrderingViolation struct {
	msg string
}

func (e *OrderingViolation) Error() string {
	return "spotfilling: ordering violation: " + e.msg
}

// OrderingViolationf creates an OrderingViolation error.
func OrderingViolationf(format string, args ...interface{}) error {
	return &OrderingViolation{msg: fmt.Sprintf(format, args...)}
}

// NumericDegeneracy indicates a parameter combination that would propagate
// NaN or Inf values into the grid, such as a non-positive saturation density
// at spot activation. It is fatal; a single corrupted cell would otherwise be
// silently spread by subsequent filling steps.
type NumericDegeneracy struct {
	msg string
}

func (e *NumericDegeneracy) Error() string {
	return "spotfilling: numeric degeneracy: " + e.msg
}

func degeneracyErrorf(format string, args ...interface{}) error {
	return &NumericDegeneracy{msg: fmt.Sprintf(format, args...)}
}
