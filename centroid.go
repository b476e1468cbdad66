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

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// Direction selects one of the four partitions of a grid relative to a
// reference position.
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	}
	return "unknown"
}

// Centroid returns the mass-weighted mean position of grid: Σ(value·lon)/
// Σvalue and Σ(value·lat)/Σvalue over masked cells with value > 0. Cells
// with value ≤ 0 or missing carry no mass and are excluded. If the total
// mass is zero the returned point has NaN coordinates.
func Centroid(grid *sparse.DenseArray, mask *sparse.DenseArrayInt, lon, lat *sparse.DenseArray) geom.Point {
	var sumW, sumX, sumY float64
	for i, v := range grid.Elements {
		if mask.Elements[i] != 1 || math.IsNaN(v) || v <= 0 {
			continue
		}
		sumW += v
		sumX += v * lon.Elements[i]
		sumY += v * lat.Elements[i]
	}
	if sumW == 0 {
		return geom.Point{X: math.NaN(), Y: math.NaN()}
	}
	return geom.Point{X: sumX / sumW, Y: sumY / sumW}
}

// DirectionalCentroid restricts the mask to cells strictly beyond anchor
// in the given direction, then returns the centroid of that partition and
// its total mass. The anchor is intended to be the "from" grid's
// whole-landscape centroid, computed once per time-step pair and reused
// for both endpoints so that displacement is measured against a stable
// reference. An empty partition yields a NaN point and zero mass.
func DirectionalCentroid(grid *sparse.DenseArray, mask *sparse.DenseArrayInt, lon, lat *sparse.DenseArray, anchor geom.Point, dir Direction) (geom.Point, float64) {
	var sumW, sumX, sumY float64
	for i, v := range grid.Elements {
		if mask.Elements[i] != 1 || math.IsNaN(v) || v <= 0 {
			continue
		}
		switch dir {
		case North:
			if !(lat.Elements[i] > anchor.Y) {
				continue
			}
		case South:
			if !(lat.Elements[i] < anchor.Y) {
				continue
			}
		case East:
			if !(lon.Elements[i] > anchor.X) {
				continue
			}
		case West:
			if !(lon.Elements[i] < anchor.X) {
				continue
			}
		}
		sumW += v
		sumX += v * lon.Elements[i]
		sumY += v * lat.Elements[i]
	}
	if sumW == 0 {
		return geom.Point{X: math.NaN(), Y: math.NaN()}, 0
	}
	return geom.Point{X: sumX / sumW, Y: sumY / sumW}, sumW
}

// ElevCentroid returns the mass-weighted mean elevation of grid over
// masked cells with value > 0, or NaN if the total mass is zero or any
// contributing elevation is missing.
func ElevCentroid(grid *sparse.DenseArray, mask *sparse.DenseArrayInt, elev *sparse.DenseArray) float64 {
	var sumW, sumE float64
	for i, v := range grid.Elements {
		if mask.Elements[i] != 1 || math.IsNaN(v) || v <= 0 {
			continue
		}
		e := elev.Elements[i]
		if math.IsNaN(e) {
			return math.NaN()
		}
		sumW += v
		sumE += v * e
	}
	if sumW == 0 {
		return math.NaN()
	}
	return sumE / sumW
}
