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
	"math"
	"testing"

	"github.com/ctessum/sparse"
)

// testGrid builds a grid from rows of values, where rows[0] is the
// southernmost row (latitude 0 under the default index coordinates).
func testGrid(rows [][]float64) *sparse.DenseArray {
	g := sparse.ZerosDense(len(rows), len(rows[0]))
	for j, row := range rows {
		for i, v := range row {
			g.Set(v, j, i)
		}
	}
	return g
}

func fullMask(g *sparse.DenseArray) *sparse.DenseArrayInt {
	m := sparse.ZerosDenseInt(g.Shape...)
	for i := range m.Elements {
		m.Elements[i] = 1
	}
	return m
}

func allNaNGrid(nr, nc int) *sparse.DenseArray {
	g := sparse.ZerosDense(nr, nc)
	for i := range g.Elements {
		g.Elements[i] = math.NaN()
	}
	return g
}

func absDifferent(a, b, tolerance float64) bool {
	return math.Abs(a-b) > tolerance
}

func TestNewSetupFaults(t *testing.T) {
	g := testGrid([][]float64{{1, 2}, {3, 4}})
	small := testGrid([][]float64{{1}})

	tests := []struct {
		name  string
		stack *Stack
		cfg   Config
	}{
		{"too few slices", &Stack{Grids: []*sparse.DenseArray{g}}, Config{}},
		{"shape mismatch", &Stack{Grids: []*sparse.DenseArray{g, small}}, Config{}},
		{"empty shape", &Stack{Grids: []*sparse.DenseArray{
			sparse.ZerosDense(0, 2), sparse.ZerosDense(0, 2)}}, Config{}},
		{"non-increasing times", &Stack{Grids: []*sparse.DenseArray{g, g}, Times: []float64{2, 2}}, Config{}},
		{"time count mismatch", &Stack{Grids: []*sparse.DenseArray{g, g}, Times: []float64{1}}, Config{}},
		{"coordinate shape mismatch", &Stack{Grids: []*sparse.DenseArray{g, g}, Lon: small, Lat: small}, Config{}},
		{"lon without lat", &Stack{Grids: []*sparse.DenseArray{g, g}, Lon: g}, Config{}},
		{"selection not a subset", &Stack{Grids: []*sparse.DenseArray{g, g}, Times: []float64{1, 2}},
			Config{AtTimes: []float64{1, 3}}},
		{"selection not increasing", &Stack{Grids: []*sparse.DenseArray{g, g}, Times: []float64{1, 2}},
			Config{AtTimes: []float64{2, 1}}},
		{"selection too short", &Stack{Grids: []*sparse.DenseArray{g, g}, Times: []float64{1, 2}},
			Config{AtTimes: []float64{1}}},
		{"quantile out of range", &Stack{Grids: []*sparse.DenseArray{g, g}},
			Config{Quantiles: []float64{-0.1, 0.5}}},
		{"quantiles not increasing", &Stack{Grids: []*sparse.DenseArray{g, g}},
			Config{Quantiles: []float64{0.5, 0.5}}},
		{"unknown metric", &Stack{Grids: []*sparse.DenseArray{g, g}},
			Config{Metrics: []string{"bogus"}}},
		{"elevation metric without elevation", &Stack{Grids: []*sparse.DenseArray{g, g}},
			Config{Metrics: []string{MetricElevCentroid}}},
	}
	for _, test := range tests {
		if _, err := New(test.stack, test.cfg); err == nil {
			t.Errorf("%s: expected setup error, got nil", test.name)
		}
	}
}

func TestNewDefaults(t *testing.T) {
	g := testGrid([][]float64{{1, 2}, {3, 4}})
	m, err := New(&Stack{Grids: []*sparse.DenseArray{g, g}}, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.pairs) != 1 {
		t.Errorf("pairs: got %d, want 1", len(m.pairs))
	}
	if m.stack.Times[0] != 1 || m.stack.Times[1] != 2 {
		t.Errorf("default times: got %v", m.stack.Times)
	}
	// Default index coordinates: row 0 is south, column 0 is west.
	if got := m.stack.Lat.Get(1, 0); got != 1 {
		t.Errorf("default latitude of row 1: got %g, want 1", got)
	}
	if got := m.stack.Lon.Get(0, 1); got != 1 {
		t.Errorf("default longitude of column 1: got %g, want 1", got)
	}
	for _, metric := range elevMetrics {
		if m.metrics[metric] {
			t.Errorf("metric %s should not default on without elevation data", metric)
		}
	}
	for _, metric := range baseMetrics {
		if !m.metrics[metric] {
			t.Errorf("metric %s should default on", metric)
		}
	}
}

func TestSelectPairsNonAdjacent(t *testing.T) {
	times := []float64{1, 2, 3, 4, 5}
	pairs, err := selectPairs(times, []float64{1, 3, 5})
	if err != nil {
		t.Fatal(err)
	}
	want := [][2]int{{0, 2}, {2, 4}}
	if len(pairs) != len(want) {
		t.Fatalf("got %d pairs, want %d", len(pairs), len(want))
	}
	for i, p := range pairs {
		if p != want[i] {
			t.Errorf("pair %d: got %v, want %v", i, p, want[i])
		}
	}
}

func TestCoordinateAdvisories(t *testing.T) {
	g := testGrid([][]float64{{1, 2}, {3, 4}})
	lat := testGrid([][]float64{{89.5, 89.5}, {89.9, 89.9}})
	lon := testGrid([][]float64{{-179, 179}, {-179, 179}})
	m, err := New(&Stack{Grids: []*sparse.DenseArray{g, g}, Lon: lon, Lat: lat}, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Warnings()) != 2 {
		t.Errorf("got %d warnings, want 2 (pole and antimeridian): %v", len(m.Warnings()), m.Warnings())
	}

	m, err = New(&Stack{Grids: []*sparse.DenseArray{g, g}, Lon: lon, Lat: lat}, Config{Quiet: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Warnings()) != 0 {
		t.Errorf("Quiet should suppress advisories, got %v", m.Warnings())
	}
}
