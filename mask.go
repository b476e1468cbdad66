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

	"github.com/ctessum/sparse"
)

// pairMask holds the valid-cell masks for one time-step pair along with
// coverage diagnostics. A cell is valid when it is non-missing (non-NaN);
// with onlyShared, a cell is valid only when non-missing in both
// endpoints, and From and To reference the same mask so that every metric
// for the pair is computed over an identical cell population.
type pairMask struct {
	From, To *sparse.DenseArrayInt // 1 = valid

	// FromProp, ToProp, and SharedProp are the proportions of all grid
	// cells that are non-missing in the "from" slice, in the "to" slice,
	// and in both, respectively.
	FromProp, ToProp, SharedProp float64
}

// newPairMask derives the masks for the pair (from, to). It is a pure
// function: an all-missing pair yields all-zero masks, and the statistics
// that depend on them become NaN rather than errors.
func newPairMask(from, to *sparse.DenseArray, onlyShared bool) *pairMask {
	shape := from.Shape
	n := len(from.Elements)
	mFrom := sparse.ZerosDenseInt(shape...)
	mTo := sparse.ZerosDenseInt(shape...)
	shared := sparse.ZerosDenseInt(shape...)
	var cFrom, cTo, cShared int
	for i := 0; i < n; i++ {
		okFrom := !math.IsNaN(from.Elements[i])
		okTo := !math.IsNaN(to.Elements[i])
		if okFrom {
			mFrom.Elements[i] = 1
			cFrom++
		}
		if okTo {
			mTo.Elements[i] = 1
			cTo++
		}
		if okFrom && okTo {
			shared.Elements[i] = 1
			cShared++
		}
	}
	pm := &pairMask{
		From:       mFrom,
		To:         mTo,
		FromProp:   float64(cFrom) / float64(n),
		ToProp:     float64(cTo) / float64(n),
		SharedProp: float64(cShared) / float64(n),
	}
	if onlyShared {
		pm.From = shared
		pm.To = shared
	}
	return pm
}

// sharedMask returns the mask of cells valid in both endpoints,
// independent of the onlyShared setting.
func (pm *pairMask) sharedMask() *sparse.DenseArrayInt {
	if pm.From == pm.To {
		return pm.From
	}
	s := sparse.ZerosDenseInt(pm.From.Shape...)
	for i := range s.Elements {
		s.Elements[i] = pm.From.Elements[i] * pm.To.Elements[i]
	}
	return s
}
