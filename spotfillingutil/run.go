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
	"fmt"
	"os"
	"time"

	"github.com/amjjam/spotfilling"
	"github.com/amjjam/spotfilling/kp"
	"github.com/sirupsen/logrus"
)

// TimeLayout is the format of all time parameters.
const TimeLayout = "2006-01-02 15:04:05"

func parseTime(name, s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, spotfilling.ConfigurationErrorf(
			"%s must be in the format %q: %v", name, TimeLayout, err)
	}
	return t, nil
}

// Run runs a simulation. It reads the Kp forcing, resolves the run and
// output time bounds, assembles the filling stages and the plasmasphere
// model, and drives them with an event scheduler until the stop time.
func Run(logFile, outputFile string, outputVars map[string]string,
	sampleLocations string, kpFiles []string,
	startStr, stopStr, outputStartStr string,
	duration, outputPeriod float64,
	gc spotfilling.GridConfig,
	fMax, tauClosedDays, tauOpenDays, satA, satB float64,
	spot bool, spotStartStr, spotStopStr string,
	spotColat, spotLon, spotRadius, spotFactor float64) error {

	log := logrus.New()
	if logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			return fmt.Errorf("spotfilling: creating log file: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	series, err := kp.ReadFiles(kpFiles...)
	if err != nil {
		return err
	}

	start := series.First()
	if startStr != "" {
		if start, err = parseTime("Start", startStr); err != nil {
			return err
		}
	}
	stop := series.Last()
	if stopStr != "" {
		if stop, err = parseTime("Stop", stopStr); err != nil {
			return err
		}
	} else if duration > 0 {
		stop = start.Add(time.Duration(duration * float64(time.Second)))
	}
	outputStart := start
	if outputStartStr != "" {
		if outputStart, err = parseTime("OutputStart", outputStartStr); err != nil {
			return err
		}
	}
	if outputStart.Before(start) {
		return spotfilling.OrderingViolationf(
			"output start time %v is before run start time %v", outputStart, start)
	}

	// A custom saturation curve only takes effect through the spot filling
	// stage; without it the changed coefficients would be silently ignored.
	if (satA != spotfilling.DefaultSaturationA || satB != spotfilling.DefaultSaturationB) && !spot {
		return spotfilling.ConfigurationErrorf(
			"custom saturation coefficients require the spot filling stage (Filling.Spot)")
	}
	sat := spotfilling.PowerLawSaturation(satA, satB)

	base, err := spotfilling.NewFilling(fMax, tauClosedDays*86400, tauOpenDays*86400, sat)
	if err != nil {
		return err
	}
	var filler spotfilling.Filler = base
	var spotStage *spotfilling.SpotFilling
	if spot {
		if spotStage, err = spotfilling.NewSpotFilling(base); err != nil {
			return err
		}
		if spotStartStr != "" {
			spotStart, err := parseTime("Spot.Start", spotStartStr)
			if err != nil {
				return err
			}
			spotStop, err := parseTime("Spot.Stop", spotStopStr)
			if err != nil {
				return err
			}
			err = spotStage.SetSpot(spotfilling.SpotWindow{
				Start:       spotStart,
				End:         spotStop,
				CenterColat: spotColat,
				CenterLon:   spotLon,
				Radius:      spotRadius,
				Factor:      spotFactor,
			})
			if err != nil {
				return err
			}
		}
		filler = spotStage
	}

	model, err := spotfilling.NewPlasmasphere(gc, filler, sat)
	if err != nil {
		return err
	}

	// Forcing at or before the start time applies immediately; the rest
	// arrives through the forcing stream.
	records := series.Records()
	first := series.Find(start)
	model.SetKp(records[first].Kp)
	var forcings []spotfilling.Forcing
	for _, f := range series.Forcings(first) {
		if f.Time.After(start) {
			forcings = append(forcings, f)
		}
	}

	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("spotfilling: creating output file: %v", err)
	}
	defer out.Close()

	period := time.Duration(outputPeriod * float64(time.Second))
	var streams []*spotfilling.Stream
	var stateWriter *spotfilling.StateWriter
	if sampleLocations != "" {
		locFile, err := os.Open(sampleLocations)
		if err != nil {
			return fmt.Errorf("spotfilling: opening sample locations: %v", err)
		}
		locs, err := spotfilling.ReadSampleLocations(locFile)
		locFile.Close()
		if err != nil {
			return err
		}
		sampleWriter, err := spotfilling.NewSampleWriter(out, model, locs, outputVars)
		if err != nil {
			return err
		}
		st, err := spotfilling.SampleStream(model, sampleWriter, outputStart, period)
		if err != nil {
			return err
		}
		streams = append(streams, st)
	} else {
		stateWriter = spotfilling.NewStateWriter(out)
		st, err := spotfilling.StateStream(model, stateWriter, outputStart, period)
		if err != nil {
			return err
		}
		streams = append(streams, st)
	}
	if len(forcings) > 0 {
		st, err := spotfilling.ForcingStream(model, forcings, stop)
		if err != nil {
			return err
		}
		streams = append(streams, st)
	}
	if spotStage != nil {
		st, err := spotfilling.SpotStream(spotStage, start, spotfilling.SpotRefreshPeriod)
		if err != nil {
			return err
		}
		streams = append(streams, st)
	}

	sched, err := spotfilling.NewScheduler(model, start, stop, streams...)
	if err != nil {
		return err
	}
	sched.Log = make(chan *spotfilling.SchedulerStatus)
	done := make(chan struct{})
	go func() {
		for status := range sched.Log {
			log.WithFields(logrus.Fields{
				"time":   status.Time.Format(TimeLayout),
				"stream": status.Stream,
				"next":   status.Next.Format(TimeLayout),
			}).Info("event")
		}
		close(done)
	}()
	log.WithFields(logrus.Fields{
		"start": start.Format(TimeLayout),
		"stop":  stop.Format(TimeLayout),
	}).Info("starting run")

	runErr := sched.Run()
	close(sched.Log)
	<-done
	if runErr != nil {
		return runErr
	}

	if stateWriter != nil {
		if err := stateWriter.Close(); err != nil {
			return fmt.Errorf("spotfilling: closing output file: %v", err)
		}
	}
	log.Info("run finished")
	return nil
}

// Export converts a state file written by Run into a NetCDF file.
func Export(stateFile, netCDFFile string) error {
	in, err := os.Open(stateFile)
	if err != nil {
		return fmt.Errorf("spotfilling: opening state file: %v", err)
	}
	defer in.Close()
	out, err := os.Create(netCDFFile)
	if err != nil {
		return fmt.Errorf("spotfilling: creating NetCDF file: %v", err)
	}
	if err := spotfilling.ExportCDF(in, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
