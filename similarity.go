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
	"gonum.org/v1/gonum/stat"
)

// SimilarityStats holds pairwise similarity and difference statistics
// between the two endpoints of a time-step pair, computed over cells
// valid in both. Similarity inputs are expected to be comparably scaled
// (several formulas assume [0,1]); signed values are tolerated except by
// WarrensI, whose square roots make it NaN when any shared value is
// negative.
type SimilarityStats struct {
	SimpleMeanDiff float64 // Σ(x2−x1)/n
	MeanAbsDiff    float64 // Σ|x2−x1|/n
	RMSD           float64 // sqrt(Σ(x2−x1)²)/n
	GodsoeESP      float64 // 2·Σ(x1·x2)/Σ(x1+x2)
	SchoenersD     float64 // 1 − Σ|x1−x2|/n
	WarrensI       float64 // 1 − sqrt(Σ(√x1−√x2)²/n)
	Pearson        float64
	Spearman       float64
}

// Similarity compares the two aligned grids cell-by-cell over cells that
// are masked and non-missing in both. When no such cells exist, every
// statistic is NaN.
func Similarity(from, to *sparse.DenseArray, mask *sparse.DenseArrayInt) SimilarityStats {
	x1 := make([]float64, 0, len(from.Elements))
	x2 := make([]float64, 0, len(to.Elements))
	for i := range from.Elements {
		if mask.Elements[i] != 1 {
			continue
		}
		a, b := from.Elements[i], to.Elements[i]
		if math.IsNaN(a) || math.IsNaN(b) {
			continue
		}
		x1 = append(x1, a)
		x2 = append(x2, b)
	}
	nan := math.NaN()
	s := SimilarityStats{nan, nan, nan, nan, nan, nan, nan, nan}
	n := float64(len(x1))
	if n == 0 {
		return s
	}

	var sumDiff, sumAbs, sumSq, sumProd, sumBoth, sumRootSq float64
	negative := false
	for i := range x1 {
		d := x2[i] - x1[i]
		sumDiff += d
		sumAbs += math.Abs(d)
		sumSq += d * d
		sumProd += x1[i] * x2[i]
		sumBoth += x1[i] + x2[i]
		if x1[i] < 0 || x2[i] < 0 {
			negative = true
		} else {
			rd := math.Sqrt(x1[i]) - math.Sqrt(x2[i])
			sumRootSq += rd * rd
		}
	}
	s.SimpleMeanDiff = sumDiff / n
	s.MeanAbsDiff = sumAbs / n
	s.RMSD = math.Sqrt(sumSq) / n
	s.SchoenersD = 1 - sumAbs/n
	if sumBoth != 0 {
		s.GodsoeESP = 2 * sumProd / sumBoth
	}
	// A negative value is a domain fault for Warren's I only; the field
	// stays NaN and every other statistic is still reported.
	if !negative {
		s.WarrensI = 1 - math.Sqrt(sumRootSq/n)
	}
	s.Pearson = stat.Correlation(x1, x2, nil)
	s.Spearman = stat.Correlation(ranks(x1), ranks(x2), nil)
	return s
}

// ranks returns the 1-based ranks of vals, averaging ties.
func ranks(vals []float64) []float64 {
	idx := make([]int, len(vals))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return vals[idx[a]] < vals[idx[b]] })
	r := make([]float64, len(vals))
	for i := 0; i < len(idx); {
		j := i
		for j < len(idx) && vals[idx[j]] == vals[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2 // mean of 1-based ranks i+1..j
		for k := i; k < j; k++ {
			r[idx[k]] = avg
		}
		i = j
	}
	return r
}
