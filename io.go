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
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/ctessum/sparse"
	"github.com/klauspost/compress/gzip"
)

// The state file is a gzip stream containing one header followed by a
// sequence of fixed-size records. The header holds the grid dimensions and
// the coordinate vectors; each record holds six 4-byte integers (year,
// month, day, hour, minute, second) followed by the density grid snapshot
// as float32 values in (longitude, colatitude) order. All values are
// little-endian.

// StateWriter writes model state records through a streaming compressed
// sink.
type StateWriter struct {
	gz          *gzip.Writer
	wroteHeader bool
}

// NewStateWriter creates a state writer on top of w, compressing at the
// best-compression level.
func NewStateWriter(w io.Writer) *StateWriter {
	gz, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		// Only reachable with an invalid level constant.
		panic(err)
	}
	return &StateWriter{gz: gz}
}

// WriteHeader writes the grid dimensions and coordinate vectors. It must be
// called once, before the first record.
func (w *StateWriter) WriteHeader(p *Plasmasphere) error {
	if w.wroteHeader {
		return fmt.Errorf("spotfilling: state header already written")
	}
	if err := binary.Write(w.gz, binary.LittleEndian, []int32{int32(len(p.Theta)), int32(len(p.Phi))}); err != nil {
		return fmt.Errorf("spotfilling: writing state header: %v", err)
	}
	for _, coords := range [][]float64{p.Theta, p.Phi} {
		buf := make([]float32, len(coords))
		for i, v := range coords {
			buf[i] = float32(v)
		}
		if err := binary.Write(w.gz, binary.LittleEndian, buf); err != nil {
			return fmt.Errorf("spotfilling: writing state header: %v", err)
		}
	}
	w.wroteHeader = true
	return nil
}

// WriteState writes one state record for simulated time t.
func (w *StateWriter) WriteState(t time.Time, p *Plasmasphere) error {
	if !w.wroteHeader {
		if err := w.WriteHeader(p); err != nil {
			return err
		}
	}
	t = t.UTC()
	stamp := []int32{
		int32(t.Year()), int32(t.Month()), int32(t.Day()),
		int32(t.Hour()), int32(t.Minute()), int32(t.Second()),
	}
	if err := binary.Write(w.gz, binary.LittleEndian, stamp); err != nil {
		return fmt.Errorf("spotfilling: writing state record: %v", err)
	}
	buf := make([]float32, len(p.Den.Elements))
	for i, v := range p.Den.Elements {
		buf[i] = float32(v)
	}
	if err := binary.Write(w.gz, binary.LittleEndian, buf); err != nil {
		return fmt.Errorf("spotfilling: writing state record: %v", err)
	}
	return nil
}

// Close flushes and closes the compressed stream. It does not close the
// underlying writer.
func (w *StateWriter) Close() error {
	return w.gz.Close()
}

// StateReader reads state files produced by StateWriter.
type StateReader struct {
	gz         *gzip.Reader
	Theta, Phi []float64
}

// NewStateReader opens the state stream in r and reads its header.
func NewStateReader(r io.Reader) (*StateReader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("spotfilling: opening state stream: %v", err)
	}
	dims := make([]int32, 2)
	if err := binary.Read(gz, binary.LittleEndian, dims); err != nil {
		return nil, fmt.Errorf("spotfilling: reading state header: %v", err)
	}
	if dims[0] < 2 || dims[1] < 2 {
		return nil, fmt.Errorf("spotfilling: invalid state grid dimensions nTheta=%d nPhi=%d", dims[0], dims[1])
	}
	sr := &StateReader{gz: gz}
	for _, n := range dims {
		buf := make([]float32, n)
		if err := binary.Read(gz, binary.LittleEndian, buf); err != nil {
			return nil, fmt.Errorf("spotfilling: reading state header: %v", err)
		}
		coords := make([]float64, n)
		for i, v := range buf {
			coords[i] = float64(v)
		}
		if sr.Theta == nil {
			sr.Theta = coords
		} else {
			sr.Phi = coords
		}
	}
	return sr, nil
}

// ReadState reads the next state record. It returns io.EOF when there are
// no more records.
func (r *StateReader) ReadState() (time.Time, *sparse.DenseArray, error) {
	stamp := make([]int32, 6)
	if err := binary.Read(r.gz, binary.LittleEndian, stamp); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return time.Time{}, nil, io.EOF
		}
		return time.Time{}, nil, fmt.Errorf("spotfilling: reading state record: %v", err)
	}
	t := time.Date(int(stamp[0]), time.Month(stamp[1]), int(stamp[2]),
		int(stamp[3]), int(stamp[4]), int(stamp[5]), 0, time.UTC)
	buf := make([]float32, len(r.Phi)*len(r.Theta))
	if err := binary.Read(r.gz, binary.LittleEndian, buf); err != nil {
		return time.Time{}, nil, fmt.Errorf("spotfilling: reading state record at %v: %v", t, err)
	}
	den := sparse.ZerosDense(len(r.Phi), len(r.Theta))
	for i, v := range buf {
		den.Elements[i] = float64(v)
	}
	return t, den, nil
}

// Close closes the compressed stream. It does not close the underlying
// reader.
func (r *StateReader) Close() error {
	return r.gz.Close()
}
