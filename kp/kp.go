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

// Package kp reads geomagnetic Kp index files in WDC format. Each line of a
// WDC file holds one UT day: a two-digit year, month and day in the first
// six columns, and eight 3-hourly Kp values in columns 13-28, each coded as
// two digits in thirds notation (the units digit is 0, 3 or 7 for o, + and
// - fractions).
package kp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/amjjam/spotfilling"
)

// Record is one Kp value and the instant at which it takes effect.
type Record struct {
	Time time.Time
	Kp   float64
}

// Series is an ordered sequence of Kp records.
type Series struct {
	records []Record
}

// ReadFiles reads one or more WDC files and concatenates their records in
// the order the files are given. The combined record sequence must be in
// non-decreasing time order; otherwise an OrderingViolation is returned.
func ReadFiles(paths ...string) (*Series, error) {
	if len(paths) == 0 {
		return nil, spotfilling.ConfigurationErrorf("no Kp input files specified")
	}
	var records []Record
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("kp: opening %s: %v", path, err)
		}
		recs, err := Read(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("kp: reading %s: %w", path, err)
		}
		records = append(records, recs...)
	}
	return NewSeries(records)
}

// NewSeries validates the time ordering of records and wraps them in a
// Series.
func NewSeries(records []Record) (*Series, error) {
	if len(records) == 0 {
		return nil, spotfilling.ConfigurationErrorf("no Kp records supplied")
	}
	for i := 1; i < len(records); i++ {
		if records[i].Time.Before(records[i-1].Time) {
			return nil, spotfilling.OrderingViolationf(
				"Kp record at %v follows record at %v; records must be in non-decreasing time order",
				records[i].Time, records[i-1].Time)
		}
	}
	return &Series{records: records}, nil
}

// Read parses one WDC file. Blank lines are skipped.
func Read(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		if len(text) < 28 {
			return nil, fmt.Errorf("line %d: too short for a WDC record (%d columns)", line, len(text))
		}
		yy, err := strconv.Atoi(text[0:2])
		if err != nil {
			return nil, fmt.Errorf("line %d: parsing year: %v", line, err)
		}
		// Two-digit years are relative to the IGY epoch: values before
		// 57 belong to the 2000s.
		year := 1900 + yy
		if yy < 57 {
			year = 2000 + yy
		}
		month, err := strconv.Atoi(strings.TrimSpace(text[2:4]))
		if err != nil {
			return nil, fmt.Errorf("line %d: parsing month: %v", line, err)
		}
		day, err := strconv.Atoi(strings.TrimSpace(text[4:6]))
		if err != nil {
			return nil, fmt.Errorf("line %d: parsing day: %v", line, err)
		}
		midnight := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 8; i++ {
			code, err := strconv.Atoi(strings.TrimSpace(text[12+2*i : 14+2*i]))
			if err != nil {
				return nil, fmt.Errorf("line %d: parsing Kp value %d: %v", line, i, err)
			}
			kp, err := decode(code)
			if err != nil {
				return nil, fmt.Errorf("line %d: Kp value %d: %v", line, i, err)
			}
			records = append(records, Record{
				Time: midnight.Add(time.Duration(i) * 3 * time.Hour),
				Kp:   kp,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// decode converts a two-digit WDC Kp code in thirds notation to a float.
func decode(code int) (float64, error) {
	whole := code / 10
	var thirds float64
	switch code % 10 {
	case 0:
	case 3:
		thirds = 1. / 3.
	case 7:
		thirds = 2. / 3.
	default:
		return 0, fmt.Errorf("invalid thirds digit in Kp code %d", code)
	}
	if whole > 9 {
		return 0, fmt.Errorf("Kp code %d out of range", code)
	}
	return float64(whole) + thirds, nil
}

// Records returns the records in time order.
func (s *Series) Records() []Record {
	return s.records
}

// Len returns the number of records.
func (s *Series) Len() int {
	return len(s.records)
}

// First and Last return the times of the first and last records.
func (s *Series) First() time.Time { return s.records[0].Time }

// Last returns the time of the last record.
func (s *Series) Last() time.Time { return s.records[len(s.records)-1].Time }

// Find returns the index of the latest record whose time is at or before t,
// or 0 if t precedes all records.
func (s *Series) Find(t time.Time) int {
	i := 0
	for i < len(s.records)-1 && !s.records[i+1].Time.After(t) {
		i++
	}
	return i
}

// Forcings converts the records at or after index start to scheduler
// forcing records.
func (s *Series) Forcings(start int) []spotfilling.Forcing {
	out := make([]spotfilling.Forcing, 0, len(s.records)-start)
	for _, r := range s.records[start:] {
		out = append(out, spotfilling.Forcing{Time: r.Time, Value: r.Kp})
	}
	return out
}
