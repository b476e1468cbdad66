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
	"gonum.org/v1/gonum/floats"
)

// Summary holds scalar statistics of one masked grid.
type Summary struct {
	Mean, Sum  float64
	Quantiles  []float64 // one per requested level
	Prevalence float64   // fraction of valid cells with value > 0
}

// Summarize computes summary statistics of grid over masked, non-missing
// cells. Quantiles interpolate linearly between bracketing order
// statistics at rank level·(n−1). When no valid cells exist, every
// statistic is NaN.
func Summarize(grid *sparse.DenseArray, mask *sparse.DenseArrayInt, levels []float64) Summary {
	vals := maskedValues(grid, mask)
	s := Summary{
		Mean:       math.NaN(),
		Sum:        math.NaN(),
		Prevalence: math.NaN(),
		Quantiles:  make([]float64, len(levels)),
	}
	for i := range s.Quantiles {
		s.Quantiles[i] = math.NaN()
	}
	if len(vals) == 0 {
		return s
	}
	s.Sum = floats.Sum(vals)
	s.Mean = s.Sum / float64(len(vals))
	var pos int
	for _, v := range vals {
		if v > 0 {
			pos++
		}
	}
	s.Prevalence = float64(pos) / float64(len(vals))

	sort.Float64s(vals)
	for i, q := range levels {
		s.Quantiles[i] = quantileSorted(vals, q)
	}
	return s
}

// quantileSorted returns the level-q quantile of the ascending values:
// the value at zero-indexed rank q·(n−1), linearly interpolated between
// the two bracketing values.
func quantileSorted(vals []float64, q float64) float64 {
	n := len(vals)
	if n == 1 {
		return vals[0]
	}
	rank := q * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return vals[lo]
	}
	frac := rank - float64(lo)
	return vals[lo] + frac*(vals[hi]-vals[lo])
}

// maskedValues collects the non-missing values of masked cells.
func maskedValues(grid *sparse.DenseArray, mask *sparse.DenseArrayInt) []float64 {
	vals := make([]float64, 0, len(grid.Elements))
	for i, v := range grid.Elements {
		if mask.Elements[i] == 1 && !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	return vals
}
