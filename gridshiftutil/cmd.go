/*
Copyright © 2026 the GridShift authors.
This file is part of GridShift.

GridShift is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

GridShift is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with GridShift.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package gridshiftutil holds the configuration and output plumbing for
// the gridshift command-line interface.
package gridshiftutil

import (
	"fmt"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/gridshift"
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
	Cfg = viper.New()

	// Options are the configuration options available to GridShift.
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
			name: "InputFile",
			usage: `
              InputFile is the path to a NetCDF file holding the grid
              stack to analyze.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path the result table is written to. The
              extension selects the format: .csv or .xlsx.`,
			shorthand:  "o",
			defaultVal: "gridshift.csv",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "NetCDF.Value",
			usage: `
              NetCDF.Value names the (time, y, x) variable holding the
              quantity to track.`,
			defaultVal: "value",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "NetCDF.Time",
			usage: `
              NetCDF.Time names the timestamp variable. If empty,
              timestamps 1..N are used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "NetCDF.Lon",
			usage: `
              NetCDF.Lon names the cell-center longitude (or equal-area x)
              variable. If empty, column indices are used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "NetCDF.Lat",
			usage: `
              NetCDF.Lat names the cell-center latitude (or equal-area y)
              variable. If empty, row indices are used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "NetCDF.Elev",
			usage: `
              NetCDF.Elev names an optional elevation variable with
              dimensions (y, x) or (time, y, x). Elevation metrics are
              computed only when it is set.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Metrics",
			usage: `
              Metrics lists the metrics to compute. If empty, all metrics
              are computed (elevation metrics only when elevation data is
              present).`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "QuantileLevels",
			usage: `
              QuantileLevels lists the quantile levels, each within [0,1]
              and strictly increasing, used by the summary and
              axis-quantile metrics.`,
			defaultVal: "0.05,0.1,0.5,0.9,0.95",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "AtTimes",
			usage: `
              AtTimes selects the timestamps at which velocity is
              evaluated. It must be a subset of the stack's timestamps;
              if empty, all timestamps are used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OnlyInSharedCells",
			usage: `
              OnlyInSharedCells restricts each pair's calculations to the
              cells that are non-missing in both of its time slices.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "GreatCircle",
			usage: `
              GreatCircle converts positional displacements with haversine
              distances in meters, for coordinate grids that hold
              unprojected geographic longitude/latitude in degrees. The
              default is planar Euclidean distance in coordinate units.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Workers",
			usage: `
              Workers is the number of time-step pairs processed
              concurrently. The result is identical for any value.`,
			shorthand:  "j",
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Quiet",
			usage: `
              Quiet suppresses advisory warnings.`,
			shorthand:  "q",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputExpressions",
			usage: `
              OutputExpressions maps additional output column names to
              expressions evaluated over the metric fields of each record,
              for example {"nsKmPerDecade":"nsCentroid * 10 / 1000"}.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel sets the logging verbosity: debug, info, warn, or
              error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
	}
	registerOptions()
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("gridshift: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "gridshift",
	Short: "Velocity of change of gridded distributions.",
	Long: `GridShift quantifies how the spatial distribution of a gridded quantity
(species abundance, habitat suitability, a climate variable) shifts over
time: weighted centroids, directional sub-centroids, cumulative-mass
quantile positions, similarity statistics, and their signed rates of
change between time slices.

Configuration can be changed by using a configuration file (and providing
the path to the file using the --config flag), by using command-line
arguments, or by setting environment variables in the format
'GRIDSHIFT_var' where 'var' is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of GridShift.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("GridShift v%s\n", gridshift.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute velocity metrics for a grid stack.",
	Long: `run reads the grid stack named by InputFile, evaluates the requested
metrics for every selected time-step pair, and writes one table row per
pair to OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(Cfg.GetString("LogLevel"))
		if err != nil {
			return err
		}
		stack, err := stackFromConfig(Cfg)
		if err != nil {
			return err
		}
		mcfg, err := modelConfig(Cfg, log)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		exprs, err := gridshift.NewExpressions(GetStringMapString("OutputExpressions", Cfg), nil)
		if err != nil {
			return err
		}

		model, err := gridshift.New(stack, mcfg)
		if err != nil {
			return err
		}
		log.WithField("pairs", len(stack.Grids)-1).Info("starting velocity calculation")
		records := model.Run()
		if err := exprs.Apply(records); err != nil {
			return err
		}
		for _, w := range model.Warnings() {
			log.Warn(w.String())
		}

		fields := append(model.FieldNames(), exprs.Names()...)
		if err := WriteRecords(outputFile, fields, records); err != nil {
			return err
		}
		log.WithField("file", outputFile).WithField("records", len(records)).Info("done")
		return nil
	},
	DisableAutoGenTag: true,
}

func init() {
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
}

func newLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("gridshift: invalid LogLevel: %v", err)
	}
	log := logrus.New()
	log.SetLevel(lvl)
	return log, nil
}
