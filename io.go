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

package gridshift

import (
	"fmt"
	"math"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// StackVars names the NetCDF variables holding a grid stack. Value is
// required and must have dimensions (time, y, x). The others are
// optional: Time (time), Lon and Lat (y, x), and Elev with dimensions
// either (y, x) or (time, y, x).
type StackVars struct {
	Value string
	Time  string
	Lon   string
	Lat   string
	Elev  string
}

// ReadStackNCF reads a Stack from the NetCDF file at filename. Values
// equal to the variable's _FillValue or missing_value attribute become
// NaN (missing).
func ReadStackNCF(filename string, vars StackVars) (*Stack, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("gridshift: opening NetCDF file: %v", err)
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("gridshift: reading NetCDF header from %s: %v", filename, err)
	}

	dims := ff.Header.Lengths(vars.Value)
	if len(dims) != 3 {
		return nil, fmt.Errorf("gridshift: NetCDF variable %s has %d dimensions; want 3 (time, y, x)", vars.Value, len(dims))
	}
	nt := dims[0]
	s := &Stack{Grids: make([]*sparse.DenseArray, nt)}
	for t := 0; t < nt; t++ {
		if s.Grids[t], err = readNCFSlice(ff, vars.Value, t); err != nil {
			return nil, err
		}
	}

	if vars.Time != "" {
		times, err := readNCFVector(ff, vars.Time)
		if err != nil {
			return nil, err
		}
		s.Times = times
	}
	if vars.Lon != "" {
		if s.Lon, err = readNCFGrid(ff, vars.Lon); err != nil {
			return nil, err
		}
	}
	if vars.Lat != "" {
		if s.Lat, err = readNCFGrid(ff, vars.Lat); err != nil {
			return nil, err
		}
	}
	if vars.Elev != "" {
		elevDims := ff.Header.Lengths(vars.Elev)
		switch len(elevDims) {
		case 2:
			if s.Elev, err = readNCFGrid(ff, vars.Elev); err != nil {
				return nil, err
			}
		case 3:
			s.ElevStack = make([]*sparse.DenseArray, elevDims[0])
			for t := 0; t < elevDims[0]; t++ {
				if s.ElevStack[t], err = readNCFSlice(ff, vars.Elev, t); err != nil {
					return nil, err
				}
			}
		default:
			return nil, fmt.Errorf("gridshift: NetCDF elevation variable %s has %d dimensions; want 2 or 3", vars.Elev, len(elevDims))
		}
	}
	return s, nil
}

// readNCFSlice reads variable v out of NetCDF file ff at the index 0
// value specified by t.
func readNCFSlice(ff *cdf.File, v string, t int) (*sparse.DenseArray, error) {
	dims := ff.Header.Lengths(v)
	if len(dims) == 0 {
		return nil, fmt.Errorf("gridshift: NetCDF variable %s not in file", v)
	}
	dims = dims[1:]
	nread := 1
	for _, dim := range dims {
		nread *= dim
	}
	start, end := make([]int, len(dims)+1), make([]int, len(dims)+1)
	start[0], end[0] = t, t+1
	r := ff.Reader(v, start, end)
	buf := r.Zero(nread)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("gridshift: reading NetCDF variable %s: %v", v, err)
	}
	return bufToDense(buf, dims, fillValue(ff, v)), nil
}

// readNCFGrid reads the whole of the 2-D variable v.
func readNCFGrid(ff *cdf.File, v string) (*sparse.DenseArray, error) {
	dims := ff.Header.Lengths(v)
	if len(dims) != 2 {
		return nil, fmt.Errorf("gridshift: NetCDF variable %s has %d dimensions; want 2", v, len(dims))
	}
	r := ff.Reader(v, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("gridshift: reading NetCDF variable %s: %v", v, err)
	}
	return bufToDense(buf, dims, fillValue(ff, v)), nil
}

// readNCFVector reads the whole of the 1-D variable v.
func readNCFVector(ff *cdf.File, v string) ([]float64, error) {
	dims := ff.Header.Lengths(v)
	if len(dims) != 1 {
		return nil, fmt.Errorf("gridshift: NetCDF variable %s has %d dimensions; want 1", v, len(dims))
	}
	r := ff.Reader(v, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("gridshift: reading NetCDF variable %s: %v", v, err)
	}
	a := bufToDense(buf, dims, math.NaN())
	return a.Elements, nil
}

// fillValue returns the missing marker declared by the variable's
// _FillValue or missing_value attribute, or NaN if neither is set.
func fillValue(ff *cdf.File, v string) float64 {
	for _, attr := range []string{"_FillValue", "missing_value"} {
		switch a := ff.Header.GetAttribute(v, attr).(type) {
		case []float32:
			if len(a) > 0 {
				return float64(a[0])
			}
		case []float64:
			if len(a) > 0 {
				return a[0]
			}
		case []int32:
			if len(a) > 0 {
				return float64(a[0])
			}
		}
	}
	return math.NaN()
}

// bufToDense converts a NetCDF read buffer into a DenseArray, turning
// values equal to fill into NaN.
func bufToDense(buf interface{}, dims []int, fill float64) *sparse.DenseArray {
	data := sparse.ZerosDense(dims...)
	switch b := buf.(type) {
	case []float32:
		for i, val := range b {
			data.Elements[i] = missingToNaN(float64(val), fill)
		}
	case []float64:
		for i, val := range b {
			data.Elements[i] = missingToNaN(val, fill)
		}
	case []int32:
		for i, val := range b {
			data.Elements[i] = missingToNaN(float64(val), fill)
		}
	case []int16:
		for i, val := range b {
			data.Elements[i] = missingToNaN(float64(val), fill)
		}
	}
	return data
}

func missingToNaN(v, fill float64) float64 {
	if v == fill {
		return math.NaN()
	}
	return v
}
