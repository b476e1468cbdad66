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
	"sort"

	"github.com/ctessum/sparse"
)

// axisRanks aggregates the mass of masked cells with value > 0 by
// distinct coordinate, sorted ascending. Cells sharing a coordinate along
// the orthogonal axis collapse into a single rank, which also resolves
// rank-boundary ties between duplicate coordinates.
type axisRanks struct {
	coords []float64
	mass   []float64
	total  float64
}

// AxisQuantile returns the coordinate at which the cumulative mass of
// grid, summed along coord ascending (south→north, west→east, or
// low→high elevation), reaches the fraction level ∈ [0,1].
//
// Each distinct-coordinate rank is modeled as a uniform slab extending
// halfway toward its neighboring ranks; the outermost ranks extend half
// the adjacent rank spacing outward, so levels 0 and 1 land on the outer
// "cell edges" rather than on the first and last cell centers. The level
// is located by linear interpolation within the bracketing slab.
//
// nRanks reports the number of distinct coordinates carrying mass; a
// value below 2 means the quantile degenerated to a single position (or,
// at zero, to NaN).
func AxisQuantile(grid *sparse.DenseArray, mask *sparse.DenseArrayInt, coord *sparse.DenseArray, level float64) (position float64, nRanks int) {
	r := rankMass(grid, mask, coord)
	k := len(r.coords)
	if k == 0 || r.total == 0 {
		return math.NaN(), k
	}
	if k == 1 {
		return r.coords[0], 1
	}

	// Slab edges: midpoints between adjacent rank coordinates, extended
	// half the neighboring spacing beyond the outermost ranks.
	lower := r.coords[0] - (r.coords[1]-r.coords[0])/2
	cum := 0.0
	for i := 0; i < k; i++ {
		var upper float64
		if i == k-1 {
			upper = r.coords[i] + (r.coords[i]-r.coords[i-1])/2
		} else {
			upper = (r.coords[i] + r.coords[i+1]) / 2
		}
		frac := r.mass[i] / r.total
		if level <= cum+frac || i == k-1 {
			return lower + (level-cum)/frac*(upper-lower), k
		}
		cum += frac
		lower = upper
	}
	return math.NaN(), k // unreachable
}

func rankMass(grid *sparse.DenseArray, mask *sparse.DenseArrayInt, coord *sparse.DenseArray) axisRanks {
	byCoord := make(map[float64]float64)
	for i, v := range grid.Elements {
		if mask.Elements[i] != 1 || math.IsNaN(v) || v <= 0 {
			continue
		}
		c := coord.Elements[i]
		if math.IsNaN(c) {
			continue
		}
		byCoord[c] += v
	}
	r := axisRanks{
		coords: make([]float64, 0, len(byCoord)),
		mass:   make([]float64, 0, len(byCoord)),
	}
	for c := range byCoord {
		r.coords = append(r.coords, c)
	}
	sort.Float64s(r.coords)
	for _, c := range r.coords {
		m := byCoord[c]
		r.mass = append(r.mass, m)
		r.total += m
	}
	return r
}
