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
)

const quantileTolerance = 1e-12

func TestAxisQuantileUniformRow(t *testing.T) {
	// Five equal cells along the east-west axis. The 0 and 1 quantiles
	// sit on the half-cell-extrapolated edges; the median sits exactly
	// on the center cell.
	g := testGrid([][]float64{{1, 1, 1, 1, 1}})
	lon, _ := indexCoords(g.Shape)
	mask := fullMask(g)

	tests := []struct{ level, want float64 }{
		{0, -0.5},
		{0.5, 2},
		{1, 4.5},
	}
	for _, test := range tests {
		pos, n := AxisQuantile(g, mask, lon, test.level)
		if n != 5 {
			t.Errorf("level %g: got %d ranks, want 5", test.level, n)
		}
		if absDifferent(pos, test.want, quantileTolerance) {
			t.Errorf("level %g: got position %g, want %g", test.level, pos, test.want)
		}
	}
}

func TestAxisQuantileAggregatesOrthogonal(t *testing.T) {
	// Cells sharing a latitude merge into one rank regardless of how the
	// mass spreads along the orthogonal axis.
	a := testGrid([][]float64{
		{1, 1, 0},
		{0, 0, 2},
	})
	b := testGrid([][]float64{
		{2, 0, 0},
		{2, 0, 0},
	})
	_, lat := indexCoords(a.Shape)
	posA, nA := AxisQuantile(a, fullMask(a), lat, 0.5)
	posB, nB := AxisQuantile(b, fullMask(b), lat, 0.5)
	if nA != 2 || nB != 2 {
		t.Fatalf("ranks: got %d and %d, want 2", nA, nB)
	}
	if absDifferent(posA, posB, quantileTolerance) {
		t.Errorf("equal per-latitude mass must yield equal quantiles: %g vs %g", posA, posB)
	}
	if absDifferent(posA, 0.5, quantileTolerance) {
		t.Errorf("median of equal two-rank mass: got %g, want 0.5", posA)
	}
}

func TestAxisQuantileInterpolation(t *testing.T) {
	// Ranks at latitudes 0 and 1 with masses 3 and 1: the cumulative
	// fraction reaches 0.75 at the shared slab edge (latitude 0.5).
	g := testGrid([][]float64{{3}, {1}})
	_, lat := indexCoords(g.Shape)
	pos, _ := AxisQuantile(g, fullMask(g), lat, 0.75)
	if absDifferent(pos, 0.5, quantileTolerance) {
		t.Errorf("0.75 quantile: got %g, want 0.5", pos)
	}
	// Halfway through the first slab's mass lies halfway across its
	// physical extent.
	pos, _ = AxisQuantile(g, fullMask(g), lat, 0.375)
	if absDifferent(pos, 0, quantileTolerance) {
		t.Errorf("0.375 quantile: got %g, want 0", pos)
	}
}

func TestAxisQuantileElevation(t *testing.T) {
	// The same routine serves the elevation axis: coordinates are cell
	// elevations rather than positions.
	g := testGrid([][]float64{{1, 1, 1}})
	elev := testGrid([][]float64{{100, 200, 300}})
	pos, _ := AxisQuantile(g, fullMask(g), elev, 0.5)
	if absDifferent(pos, 200, quantileTolerance) {
		t.Errorf("median elevation: got %g, want 200", pos)
	}
	pos, _ = AxisQuantile(g, fullMask(g), elev, 0)
	if absDifferent(pos, 50, quantileTolerance) {
		t.Errorf("0th elevation quantile: got %g, want 50", pos)
	}
}

func TestAxisQuantileDegenerate(t *testing.T) {
	g := testGrid([][]float64{{0, 5, 0}})
	lon, _ := indexCoords(g.Shape)
	pos, n := AxisQuantile(g, fullMask(g), lon, 0.5)
	if n != 1 {
		t.Errorf("got %d ranks, want 1", n)
	}
	if pos != 1 {
		t.Errorf("single-rank quantile: got %g, want 1", pos)
	}
}

func TestAxisQuantileEmpty(t *testing.T) {
	g := testGrid([][]float64{{0, 0}})
	lon, _ := indexCoords(g.Shape)
	pos, n := AxisQuantile(g, fullMask(g), lon, 0.5)
	if n != 0 || !math.IsNaN(pos) {
		t.Errorf("empty quantile: got %g with %d ranks", pos, n)
	}
}
