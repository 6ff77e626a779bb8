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

// Package spotfillingutil wires the spotfilling model to its command-line
// interface and configuration surface.
package spotfillingutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/amjjam/spotfilling"
	"github.com/lnashier/viper"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to spotfilling.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile specifies the log file location. If empty, the log is
              written to standard error.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "KpFiles",
			usage: `
              KpFiles is the list of WDC-format Kp index files providing the
              geomagnetic forcing, in time order.`,
			shorthand:  "k",
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Start",
			usage: `
              Start is the simulation start time in the format
              "2006-01-02 15:04:05" (UTC). If empty, the simulation starts at
              the time of the first Kp record.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Stop",
			usage: `
              Stop is the simulation stop time in the format
              "2006-01-02 15:04:05" (UTC). If empty and Duration is zero, the
              simulation stops at the time of the last Kp record.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Duration",
			usage: `
              Duration is the length of the simulation in seconds. It is an
              alternative to Stop and is ignored when Stop is set.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the location of the output file. State output is
              gzip-compressed binary; sample output is plain text.`,
			shorthand:  "o",
			defaultVal: "output.dat.gz",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputStart",
			usage: `
              OutputStart is the time of the first output record in the format
              "2006-01-02 15:04:05" (UTC). If empty, output starts at the
              simulation start time. It must not precede the simulation start
              time.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputPeriod",
			usage: `
              OutputPeriod is the time between output records in seconds.`,
			defaultVal: 900.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "SampleLocations",
			usage: `
              SampleLocations is the location of a text file of (L-shell,
              magnetic local time longitude) pairs. When set, sampled values at
              those locations are written instead of full grid states.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies which sampled variables to write out
              and how to calculate them. Expressions may combine the variables
              Den, N, Vol, Bi, L, MLT, Theta, and Kp with the functions exp,
              log10, and sqrt.`,
			defaultVal: map[string]string{"Den": "Den"},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Grid.NTheta",
			usage: `
              Grid.NTheta is the number of colatitude grid rows.`,
			defaultVal: 60,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Grid.NPhi",
			usage: `
              Grid.NPhi is the number of longitude grid columns.`,
			defaultVal: 72,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Grid.ThetaMin",
			usage: `
              Grid.ThetaMin is the colatitude of the first grid row [degrees].`,
			defaultVal: 18.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Grid.ThetaMax",
			usage: `
              Grid.ThetaMax is the colatitude of the last grid row [degrees].`,
			defaultVal: 62.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Grid.OpenL",
			usage: `
              Grid.OpenL is the L-shell beyond which flux tubes are treated as
              open.`,
			defaultVal: 10.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Grid.MaxTimestep",
			usage: `
              Grid.MaxTimestep is the maximum internal model timestep
              [seconds]. Longer advances are split into substeps.`,
			defaultVal: 300.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Grid.InitialFill",
			usage: `
              Grid.InitialFill is the initial density as a fraction of the
              saturation density.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Filling.FMax",
			usage: `
              Filling.FMax is the maximum refilling flux [m-2 s-1].`,
			defaultVal: 2.0e12,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Filling.TauClosed",
			usage: `
              Filling.TauClosed is the loss timescale on oversaturated closed
              flux tubes [days].`,
			defaultVal: 10.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Filling.TauOpen",
			usage: `
              Filling.TauOpen is the loss timescale on open flux tubes [days].`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Filling.Spot",
			usage: `
              Filling.Spot specifies whether to use the spot filling stage,
              which adds localized refilling inside a configured spot in
              addition to the baseline filling.`,
			shorthand:  "f",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Saturation.A",
			usage: `
              Saturation.A is the intercept of the log10 saturation density
              power law [cm⁻³]. Changing it from its default requires
              Filling.Spot.`,
			defaultVal: spotfilling.DefaultSaturationA,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Saturation.B",
			usage: `
              Saturation.B is the slope of the log10 saturation density power
              law. Changing it from its default requires Filling.Spot.`,
			defaultVal: spotfilling.DefaultSaturationB,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Spot.Start",
			usage: `
              Spot.Start is the time the spot becomes active, in the format
              "2006-01-02 15:04:05" (UTC). If empty, the spot stage runs with
              no active spot.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Spot.Stop",
			usage: `
              Spot.Stop is the time the spot becomes inactive, in the format
              "2006-01-02 15:04:05" (UTC).`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Spot.Colat",
			usage: `
              Spot.Colat is the colatitude of the spot center [degrees].`,
			defaultVal: 30.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Spot.Lon",
			usage: `
              Spot.Lon is the longitude of the spot center [degrees].`,
			defaultVal: 315.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Spot.Radius",
			usage: `
              Spot.Radius is the spot radius [km].`,
			defaultVal: 1000.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Spot.Factor",
			usage: `
              Spot.Factor is the spot enhancement factor applied to both the
              saturation density and the maximum flux inside the spot.`,
			defaultVal: 10.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "StateFile",
			usage: `
              StateFile is the location of the gzip-compressed state file to
              export.`,
			defaultVal: "output.dat.gz",
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
		{
			name: "NetCDFFile",
			usage: `
              NetCDFFile is the location of the NetCDF file to create.`,
			defaultVal: "output.nc",
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("SPOTFILLING")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(exportCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("spotfilling: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "spotfilling",
	Short: "A plasmaspheric refilling model.",
	Long: `spotfilling simulates the refilling of the plasmasphere on a dipole
flux tube grid, optionally with a localized time-windowed refilling
enhancement (the "spot"). Use the subcommands specified below to access the
model functionality.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the format
'SPOTFILLING_var' where 'var' is the name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration
information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of spotfilling.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("spotfilling v%s\n", spotfilling.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the model.",
	Long: `run runs a spotfilling simulation driven by the Kp records in
KpFiles, writing either full grid states or sampled values to OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gc := spotfilling.GridConfig{
			NTheta:      Cfg.GetInt("Grid.NTheta"),
			NPhi:        Cfg.GetInt("Grid.NPhi"),
			ThetaMin:    Cfg.GetFloat64("Grid.ThetaMin"),
			ThetaMax:    Cfg.GetFloat64("Grid.ThetaMax"),
			OpenL:       Cfg.GetFloat64("Grid.OpenL"),
			MaxTimestep: Cfg.GetFloat64("Grid.MaxTimestep"),
			InitialFill: Cfg.GetFloat64("Grid.InitialFill"),
		}
		return Run(
			checkLogFile(Cfg.GetString("LogFile")),
			os.ExpandEnv(Cfg.GetString("OutputFile")),
			GetStringMapString("OutputVariables", Cfg),
			os.ExpandEnv(Cfg.GetString("SampleLocations")),
			expandStringSlice(Cfg.GetStringSlice("KpFiles")),
			Cfg.GetString("Start"),
			Cfg.GetString("Stop"),
			Cfg.GetString("OutputStart"),
			Cfg.GetFloat64("Duration"),
			Cfg.GetFloat64("OutputPeriod"),
			gc,
			Cfg.GetFloat64("Filling.FMax"),
			Cfg.GetFloat64("Filling.TauClosed"),
			Cfg.GetFloat64("Filling.TauOpen"),
			Cfg.GetFloat64("Saturation.A"),
			Cfg.GetFloat64("Saturation.B"),
			Cfg.GetBool("Filling.Spot"),
			Cfg.GetString("Spot.Start"),
			Cfg.GetString("Spot.Stop"),
			Cfg.GetFloat64("Spot.Colat"),
			Cfg.GetFloat64("Spot.Lon"),
			Cfg.GetFloat64("Spot.Radius"),
			Cfg.GetFloat64("Spot.Factor"),
		)
	},
	DisableAutoGenTag: true,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a state file to NetCDF.",
	Long: `export converts the gzip-compressed binary state file written by a
run into a NetCDF file with time, colatitude and longitude coordinate
variables and one density variable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Export(
			os.ExpandEnv(Cfg.GetString("StateFile")),
			os.ExpandEnv(Cfg.GetString("NetCDFFile")),
		)
	},
	DisableAutoGenTag: true,
}

func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// checkLogFile expands any environment variables in the log file path.
func checkLogFile(f string) string {
	return os.ExpandEnv(f)
}

// GetStringMapString returns a map[string]string from the given
// configuration, decoding it from JSON if it was set on the command line.
func GetStringMapString(varName string, cfg *viper.Viper) map[string]string {
	i := cfg.Get(varName)
	switch i.(type) {
	case map[string]string:
		return i.(map[string]string)
	case map[string]interface{}:
		return cast.ToStringMapString(i)
	case string:
		b := bytes.NewBuffer(([]byte)(i.(string)))
		d := json.NewDecoder(b)
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			panic(err)
		}
		return o
	default:
		panic(fmt.Errorf("invalid type for map[string]string configuration variable %s: %T", varName, i))
	}
}
