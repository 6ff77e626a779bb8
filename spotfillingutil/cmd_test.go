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

package spotfillingutil

import (
	"bufio"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/amjjam/spotfilling"
)

func TestOptionDefaults(t *testing.T) {
	cases := []struct {
		name string
		want interface{}
	}{
		{"OutputFile", "output.dat.gz"},
		{"OutputPeriod", 900.0},
		{"Grid.NTheta", 60},
		{"Grid.NPhi", 72},
		{"Grid.ThetaMin", 18.0},
		{"Grid.ThetaMax", 62.0},
		{"Grid.OpenL", 10.0},
		{"Filling.FMax", 2.0e12},
		{"Filling.TauClosed", 10.0},
		{"Filling.TauOpen", 1.0},
		{"Filling.Spot", false},
		{"Saturation.A", 3.9043},
		{"Saturation.B", -0.3145},
		{"Spot.Colat", 30.0},
		{"Spot.Lon", 315.0},
		{"Spot.Radius", 1000.0},
		{"Spot.Factor", 10.0},
	}
	for _, c := range cases {
		got := Cfg.Get(c.name)
		switch want := c.want.(type) {
		case float64:
			if Cfg.GetFloat64(c.name) != want {
				t.Errorf("%s = %v, want %v", c.name, got, want)
			}
		case int:
			if Cfg.GetInt(c.name) != want {
				t.Errorf("%s = %v, want %v", c.name, got, want)
			}
		case bool:
			if Cfg.GetBool(c.name) != want {
				t.Errorf("%s = %v, want %v", c.name, got, want)
			}
		default:
			if !reflect.DeepEqual(got, c.want) {
				t.Errorf("%s = %v, want %v", c.name, got, c.want)
			}
		}
	}
}

func TestGetStringMapString(t *testing.T) {
	want := map[string]string{"Den": "Den"}
	if got := GetStringMapString("OutputVariables", Cfg); !reflect.DeepEqual(got, want) {
		t.Errorf("OutputVariables = %v, want %v", got, want)
	}
}

func TestParseTime(t *testing.T) {
	got, err := parseTime("Start", "2012-10-01 03:00:00")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2012, 10, 1, 3, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parsed %v, want %v", got, want)
	}
	if _, err := parseTime("Start", "20121001T030000"); err == nil {
		t.Error("malformed time should be rejected")
	} else if _, ok := err.(*spotfilling.ConfigurationError); !ok {
		t.Errorf("expected a ConfigurationError, got %T", err)
	}
}

// writeTestKpFile writes one day of WDC records with Kp fixed at 2o.
func writeTestKpFile(t *testing.T, dir string) string {
	path := filepath.Join(dir, "kp1210.wdc")
	line := "1210 12431122020202020202020202016 2 2 2 2 2 2 2 2  0.00"
	if err := os.WriteFile(path, []byte(line+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestRunSampleOutput runs a short simulation end to end through the Run
// wiring with sample output.
func TestRunSampleOutput(t *testing.T) {
	dir := t.TempDir()
	kpFile := writeTestKpFile(t, dir)
	locFile := filepath.Join(dir, "locations.txt")
	if err := os.WriteFile(locFile, []byte("4.0 0.0\n6.0 180.0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	outFile := filepath.Join(dir, "samples.txt")

	gc := spotfilling.DefaultGridConfig()
	err := Run("", outFile, nil, locFile, []string{kpFile},
		"", "2012-10-01 02:00:00", "", 0, 900,
		gc, 0, 10, 1,
		spotfilling.DefaultSaturationA, spotfilling.DefaultSaturationB,
		false, "", "", 30, 315, 1000, 10)
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(outFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		// Six timestamp fields plus one default variable per location.
		if len(fields) != 8 {
			t.Fatalf("line %d has %d fields, want 8", lines, len(fields))
		}
		lines++
	}
	// Output every 900 s from 00:00 to 02:00 inclusive.
	if lines != 9 {
		t.Errorf("got %d sample lines, want 9", lines)
	}
}

// TestRunStateOutput runs a short simulation writing binary states and
// reads them back.
func TestRunStateOutput(t *testing.T) {
	dir := t.TempDir()
	kpFile := writeTestKpFile(t, dir)
	outFile := filepath.Join(dir, "output.dat.gz")

	gc := spotfilling.DefaultGridConfig()
	err := Run("", outFile, nil, "", []string{kpFile},
		"", "2012-10-01 01:00:00", "", 0, 1800,
		gc, 0, 10, 1,
		spotfilling.DefaultSaturationA, spotfilling.DefaultSaturationB,
		true, "2012-10-01 00:00:00", "2012-10-01 00:30:00", 30, 315, 1000, 10)
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(outFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	r, err := spotfilling.NewStateReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if len(r.Theta) != gc.NTheta || len(r.Phi) != gc.NPhi {
		t.Fatalf("state grid %d×%d, want %d×%d", len(r.Phi), len(r.Theta), gc.NPhi, gc.NTheta)
	}
	records := 0
	for {
		if _, _, err := r.ReadState(); err != nil {
			break
		}
		records++
	}
	// Records every 1800 s from 00:00 to 01:00 inclusive.
	if records != 3 {
		t.Errorf("got %d state records, want 3", records)
	}
}

// TestRunCustomSaturationRequiresSpot checks the coupled-option validation.
func TestRunCustomSaturationRequiresSpot(t *testing.T) {
	dir := t.TempDir()
	kpFile := writeTestKpFile(t, dir)
	gc := spotfilling.DefaultGridConfig()
	err := Run("", filepath.Join(dir, "out.gz"), nil, "", []string{kpFile},
		"", "2012-10-01 01:00:00", "", 0, 900,
		gc, 0, 10, 1,
		4.2, spotfilling.DefaultSaturationB,
		false, "", "", 30, 315, 1000, 10)
	if err == nil {
		t.Fatal("custom saturation without the spot stage should be rejected")
	}
	if _, ok := err.(*spotfilling.ConfigurationError); !ok {
		t.Errorf("expected a ConfigurationError, got %T: %v", err, err)
	}
}

// TestRunOutputStartOrdering checks that an output start before the run
// start is rejected.
func TestRunOutputStartOrdering(t *testing.T) {
	dir := t.TempDir()
	kpFile := writeTestKpFile(t, dir)
	gc := spotfilling.DefaultGridConfig()
	err := Run("", filepath.Join(dir, "out.gz"), nil, "", []string{kpFile},
		"2012-10-01 03:00:00", "2012-10-01 06:00:00", "2012-10-01 00:00:00", 0, 900,
		gc, 0, 10, 1,
		spotfilling.DefaultSaturationA, spotfilling.DefaultSaturationB,
		false, "", "", 30, 315, 1000, 10)
	if err == nil {
		t.Fatal("output start before run start should be rejected")
	}
	if _, ok := err.(*spotfilling.OrderingViolation); !ok {
		t.Errorf("expected an OrderingViolation, got %T: %v", err, err)
	}
}
