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
)

const earthRadius = 6.371e6 // meters

// Rate converts a scalar displacement between two time slices into a
// signed rate: (to − from) / span.
func Rate(from, to, span float64) float64 {
	return (to - from) / span
}

// PositionRate converts a positional displacement into a signed rate.
// The magnitude is dist(from, to)/span; the sign is assigned by the
// calling metric's directional convention (north/east/up positive),
// since great-circle distances are inherently unsigned. Missing
// endpoints propagate as NaN.
func PositionRate(from, to geom.Point, span float64, dist DistanceFunc, sign float64) float64 {
	if math.IsNaN(from.X) || math.IsNaN(from.Y) || math.IsNaN(to.X) || math.IsNaN(to.Y) {
		return math.NaN()
	}
	return sign * dist(from, to) / span
}

// SignOf returns +1, −1, or 0 according to the sign of delta, or NaN for
// a NaN delta.
func SignOf(delta float64) float64 {
	switch {
	case math.IsNaN(delta):
		return math.NaN()
	case delta > 0:
		return 1
	case delta < 0:
		return -1
	}
	return 0
}

// PlanarDistance is the Euclidean distance between two positions in the
// linear units of the coordinate grids. It is the default DistanceFunc,
// appropriate for array inputs with arbitrary equal-area units.
func PlanarDistance(from, to geom.Point) float64 {
	return math.Hypot(to.X-from.X, to.Y-from.Y)
}

// GreatCircleDistance is the haversine distance in meters between two
// positions given as longitude/latitude in decimal degrees. Use it as the
// DistanceFunc when the coordinate grids hold unprojected geographic
// coordinates.
func GreatCircleDistance(from, to geom.Point) float64 {
	const degToRad = math.Pi / 180
	lat1 := from.Y * degToRad
	lat2 := to.Y * degToRad
	dLat := lat2 - lat1
	dLon := (to.X - from.X) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadius * math.Asin(math.Min(1, math.Sqrt(a)))
}
