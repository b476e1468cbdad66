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

package gridshiftutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/gridshift"
	"github.com/spf13/cast"
)

// registerOptions creates a flag for every configuration option and binds
// it to the viper configuration.
func registerOptions() {
	Cfg.SetEnvPrefix("GRIDSHIFT")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, v, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, v, option.usage)
				}
			case []string:
				set.StringSlice(option.name, v, option.usage)
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, v, option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, v, option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, v, option.usage)
				} else {
					set.IntP(option.name, option.shorthand, v, option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(v)
				set.String(option.name, b.String(), option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

// stackFromConfig reads the input grid stack named by the configuration.
func stackFromConfig(cfg *viper.Viper) (*gridshift.Stack, error) {
	inputFile := os.ExpandEnv(cfg.GetString("InputFile"))
	if inputFile == "" {
		return nil, fmt.Errorf(`gridshift: you need to specify an input file configuration variable (for example: InputFile="stack.nc")`)
	}
	return gridshift.ReadStackNCF(inputFile, gridshift.StackVars{
		Value: cfg.GetString("NetCDF.Value"),
		Time:  cfg.GetString("NetCDF.Time"),
		Lon:   cfg.GetString("NetCDF.Lon"),
		Lat:   cfg.GetString("NetCDF.Lat"),
		Elev:  cfg.GetString("NetCDF.Elev"),
	})
}

// modelConfig translates the viper configuration into an engine Config.
func modelConfig(cfg *viper.Viper, log *logrus.Logger) (gridshift.Config, error) {
	quantiles, err := getFloat64Slice("QuantileLevels", cfg)
	if err != nil {
		return gridshift.Config{}, err
	}
	atTimes, err := getFloat64Slice("AtTimes", cfg)
	if err != nil {
		return gridshift.Config{}, err
	}
	c := gridshift.Config{
		Metrics:    cfg.GetStringSlice("Metrics"),
		Quantiles:  quantiles,
		AtTimes:    atTimes,
		OnlyShared: cfg.GetBool("OnlyInSharedCells"),
		Workers:    cfg.GetInt("Workers"),
		Quiet:      cfg.GetBool("Quiet"),
		Log:        log,
	}
	if cfg.GetBool("GreatCircle") {
		c.Distance = gridshift.GreatCircleDistance
	}
	return c, nil
}

// checkOutputFile makes sure that the output file is specified, that its
// directory exists, and that its extension selects a known format, and
// expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`gridshift: you need to specify an output file configuration variable (for example: OutputFile="output.csv")`)
	}
	f = os.ExpandEnv(f)
	if ext := strings.ToLower(filepath.Ext(f)); ext != ".csv" && ext != ".xlsx" {
		return f, fmt.Errorf("gridshift: the OutputFile extension must be .csv or .xlsx, but is %q", ext)
	}
	if _, err := os.Stat(filepath.Dir(f)); err != nil {
		return f, fmt.Errorf("gridshift: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// GetStringMapString returns a map[string]string from a viper
// configuration, accounting for the fact that it might be a json object
// if it was set from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) map[string]string {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case map[string]string:
		return v
	case map[string]interface{}:
		return cast.ToStringMapString(v)
	case string:
		o := make(map[string]string)
		if strings.TrimSpace(v) == "" {
			return o
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&o); err != nil {
			panic(fmt.Errorf("gridshift: invalid json for variable %s: %v", varName, err))
		}
		return o
	default:
		panic(fmt.Errorf("gridshift: invalid type for variable %s: %#v", varName, i))
	}
}

// getFloat64Slice returns a []float64 from a viper configuration,
// accounting for the fact that the value may arrive as a flag-set
// []float64, a config-file []interface{}, or a comma-separated string.
func getFloat64Slice(varName string, cfg *viper.Viper) ([]float64, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return nil, nil
	case []float64:
		return v, nil
	case []interface{}:
		o := make([]float64, len(v))
		for j, e := range v {
			f, err := cast.ToFloat64E(e)
			if err != nil {
				return nil, fmt.Errorf("gridshift: invalid value in variable %s: %v", varName, err)
			}
			o[j] = f
		}
		return o, nil
	case string:
		v = strings.Trim(strings.TrimSpace(v), "[]")
		if v == "" {
			return nil, nil
		}
		parts := strings.Split(v, ",")
		o := make([]float64, len(parts))
		for j, p := range parts {
			f, err := cast.ToFloat64E(strings.TrimSpace(p))
			if err != nil {
				return nil, fmt.Errorf("gridshift: invalid value in variable %s: %v", varName, err)
			}
			o[j] = f
		}
		return o, nil
	default:
		return nil, fmt.Errorf("gridshift: invalid type for variable %s: %#v", varName, i)
	}
}
