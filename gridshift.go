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

// Package gridshift computes rates and directions of spatial change
// ("velocity") of a quantity distributed over a two-dimensional grid and
// tracked across an ordered sequence of time slices. For each evaluated
// pair of time slices it can compute weighted centroids, directional
// sub-centroids, cumulative-mass quantile positions along the
// north-south, east-west, and elevation axes, pairwise similarity
// statistics, and signed rates of change of all of the above.
//
// Grids are held as github.com/ctessum/sparse DenseArrays with NaN
// marking missing cells. Coordinates must already be in an equal-area
// system; no projection or reprojection is performed, and grids spanning
// the antimeridian or a pole are the caller's responsibility.
package gridshift

import (
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
)

// Version gives the version number of this version of GridShift.
const Version = "0.1.0"

// Metric identifiers accepted in Config.Metrics.
const (
	MetricSummary      = "summary"
	MetricCentroid     = "centroid"
	MetricNSCentroid   = "nsCentroid"
	MetricEWCentroid   = "ewCentroid"
	MetricNCentroid    = "nCentroid"
	MetricSCentroid    = "sCentroid"
	MetricECentroid    = "eCentroid"
	MetricWCentroid    = "wCentroid"
	MetricNSQuants     = "nsQuants"
	MetricEWQuants     = "ewQuants"
	MetricSimilarity   = "similarity"
	MetricElevCentroid = "elevCentroid"
	MetricElevQuants   = "elevQuants"
)

// baseMetrics are the metrics computed when Config.Metrics is empty and no
// elevation data is supplied.
var baseMetrics = []string{
	MetricSummary, MetricCentroid, MetricNSCentroid, MetricEWCentroid,
	MetricNCentroid, MetricSCentroid, MetricECentroid, MetricWCentroid,
	MetricNSQuants, MetricEWQuants, MetricSimilarity,
}

// elevMetrics are the metrics that require elevation data. They join the
// default metric set when elevation data is present.
var elevMetrics = []string{MetricElevCentroid, MetricElevQuants}

// DefaultQuantiles are the quantile levels evaluated when
// Config.Quantiles is empty.
var DefaultQuantiles = []float64{0.05, 0.10, 0.5, 0.9, 0.95}

// DistanceFunc returns the distance between two positions, in whatever
// linear units the caller's coordinate grids use. Great-circle distances
// are inherently unsigned; signs are assigned by the metric's directional
// convention.
type DistanceFunc func(from, to geom.Point) float64

// Stack is an ordered sequence of equal-shape time slices plus the
// coordinate grids shared by all of them. The engine treats all of its
// fields as read-only.
type Stack struct {
	// Grids holds one 2-D array [rows, columns] per time slice, with NaN
	// marking missing cells. All grids must share the same shape.
	Grids []*sparse.DenseArray

	// Times holds the timestamp of each grid, strictly increasing.
	// If nil, 1..N is used.
	Times []float64

	// Lon and Lat give the longitude and latitude (or equal-area x and y)
	// of each cell center. If nil, column and row indices are used,
	// yielding unitless distances. Row 0 is the southernmost row.
	Lon, Lat *sparse.DenseArray

	// Elev optionally gives the elevation of each cell, constant over
	// time. ElevStack optionally gives one elevation grid per time slice;
	// it takes precedence over Elev where both are set.
	Elev      *sparse.DenseArray
	ElevStack []*sparse.DenseArray
}

// Config specifies which metrics to compute and how.
type Config struct {
	// Metrics is the set of requested metric identifiers. If empty, all
	// metrics are computed (elevation metrics only when elevation data is
	// present).
	Metrics []string

	// Quantiles is the ordered set of quantile levels, each in [0,1],
	// used by the summary and axis-quantile metrics.
	// If empty, DefaultQuantiles is used.
	Quantiles []float64

	// AtTimes selects the timestamps at which velocity is evaluated; it
	// must be a subset of Stack.Times. Consecutive entries within the
	// selection form the (from, to) pairs. If empty, every timestamp is
	// used.
	AtTimes []float64

	// OnlyShared restricts every per-pair calculation to cells that are
	// non-missing in both endpoints of the pair, so that all metrics for
	// a pair are computed over an identical cell population.
	OnlyShared bool

	// Workers is the number of goroutines processing time-step pairs
	// concurrently. Values below 1 are treated as 1. The degree of
	// parallelism has no effect on results.
	Workers int

	// Distance converts between positions and distances. If nil,
	// PlanarDistance is used.
	Distance DistanceFunc

	// Quiet suppresses advisory warnings.
	Quiet bool

	// Log, if non-nil, receives per-pair progress messages.
	Log logrus.FieldLogger
}

// Model holds a validated velocity calculation, ready to Run.
type Model struct {
	stack    *Stack
	cfg      Config
	metrics  map[string]bool
	pairs    [][2]int // grid indices of each (from, to) pair
	warnings []Warning
}

// Warning is an advisory condition encountered during setup or while
// processing one time-step pair. Warnings never affect returned values.
type Warning struct {
	FromTime, ToTime float64 // zero for setup-level advisories
	Metric           string
	Message          string
}

func (w Warning) String() string {
	if w.Metric == "" {
		return w.Message
	}
	return fmt.Sprintf("%s (%g→%g): %s", w.Metric, w.FromTime, w.ToTime, w.Message)
}

// New validates stack and cfg and prepares a Model. Structural problems
// (mismatched grid shapes, non-increasing timestamps, a time selection
// that is not a subset of the stack's timestamps, elevation metrics
// without elevation data, out-of-range quantile levels) are reported here,
// before any pair is processed.
func New(stack *Stack, cfg Config) (*Model, error) {
	if stack == nil || len(stack.Grids) < 2 {
		return nil, fmt.Errorf("gridshift: at least 2 time slices are required, have %d", nGrids(stack))
	}
	shape := stack.Grids[0].Shape
	if len(shape) != 2 {
		return nil, fmt.Errorf("gridshift: grids must be 2-dimensional, have %d dimensions", len(shape))
	}
	if shape[0] < 1 || shape[1] < 1 {
		return nil, fmt.Errorf("gridshift: grids must have at least one cell, have shape %v", shape)
	}
	for i, g := range stack.Grids {
		if err := checkShape(g, shape, fmt.Sprintf("grid %d", i)); err != nil {
			return nil, err
		}
	}

	if stack.Times == nil {
		stack = shallowCopyStack(stack)
		stack.Times = make([]float64, len(stack.Grids))
		for i := range stack.Times {
			stack.Times[i] = float64(i + 1)
		}
	}
	if len(stack.Times) != len(stack.Grids) {
		return nil, fmt.Errorf("gridshift: have %d timestamps for %d grids", len(stack.Times), len(stack.Grids))
	}
	for i := 1; i < len(stack.Times); i++ {
		if stack.Times[i] <= stack.Times[i-1] {
			return nil, fmt.Errorf("gridshift: timestamps must be strictly increasing, but time %d (%g) ≤ time %d (%g)",
				i, stack.Times[i], i-1, stack.Times[i-1])
		}
	}

	if (stack.Lon == nil) != (stack.Lat == nil) {
		return nil, fmt.Errorf("gridshift: longitude and latitude grids must be supplied together")
	}
	if stack.Lon == nil {
		stack = shallowCopyStack(stack)
		stack.Lon, stack.Lat = indexCoords(shape)
	}
	if err := checkShape(stack.Lon, shape, "longitude grid"); err != nil {
		return nil, err
	}
	if err := checkShape(stack.Lat, shape, "latitude grid"); err != nil {
		return nil, err
	}
	if stack.Elev != nil {
		if err := checkShape(stack.Elev, shape, "elevation grid"); err != nil {
			return nil, err
		}
	}
	if stack.ElevStack != nil {
		if len(stack.ElevStack) != len(stack.Grids) {
			return nil, fmt.Errorf("gridshift: have %d elevation slices for %d grids", len(stack.ElevStack), len(stack.Grids))
		}
		for i, g := range stack.ElevStack {
			if err := checkShape(g, shape, fmt.Sprintf("elevation slice %d", i)); err != nil {
				return nil, err
			}
		}
	}

	if cfg.Quantiles == nil {
		cfg.Quantiles = DefaultQuantiles
	}
	for i, q := range cfg.Quantiles {
		if q < 0 || q > 1 || math.IsNaN(q) {
			return nil, fmt.Errorf("gridshift: quantile levels must be within [0,1], but level %d is %g", i, q)
		}
		if i > 0 && q <= cfg.Quantiles[i-1] {
			return nil, fmt.Errorf("gridshift: quantile levels must be strictly increasing, but level %d (%g) ≤ level %d (%g)",
				i, q, i-1, cfg.Quantiles[i-1])
		}
	}

	hasElev := stack.Elev != nil || stack.ElevStack != nil
	metrics := make(map[string]bool)
	if len(cfg.Metrics) == 0 {
		for _, m := range baseMetrics {
			metrics[m] = true
		}
		if hasElev {
			for _, m := range elevMetrics {
				metrics[m] = true
			}
		}
	} else {
		valid := make(map[string]bool)
		for _, m := range append(append([]string{}, baseMetrics...), elevMetrics...) {
			valid[m] = true
		}
		for _, m := range cfg.Metrics {
			if !valid[m] {
				return nil, fmt.Errorf("gridshift: unknown metric %q", m)
			}
			metrics[m] = true
		}
		if (metrics[MetricElevCentroid] || metrics[MetricElevQuants]) && !hasElev {
			return nil, fmt.Errorf("gridshift: elevation metrics are requested but no elevation data is supplied")
		}
	}

	pairs, err := selectPairs(stack.Times, cfg.AtTimes)
	if err != nil {
		return nil, err
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Distance == nil {
		cfg.Distance = PlanarDistance
	}

	m := &Model{stack: stack, cfg: cfg, metrics: metrics, pairs: pairs}
	if !cfg.Quiet {
		m.coordinateAdvisories()
	}
	return m, nil
}

// Warnings returns the advisory conditions collected so far, including
// those produced by Run. Warnings are in setup-then-pair order and are
// never produced when Config.Quiet is set.
func (m *Model) Warnings() []Warning {
	return m.warnings
}

// coordinateAdvisories warns when coordinates suggest proximity to a pole
// or to the antimeridian, where distance semantics degrade.
func (m *Model) coordinateAdvisories() {
	latMin, latMax := gridRange(m.stack.Lat)
	if latMax > 89 || latMin < -89 {
		m.warnings = append(m.warnings, Warning{Message: fmt.Sprintf(
			"latitudes reach %g to %g; results near a pole are unreliable", latMin, latMax)})
	}
	lonMin, lonMax := gridRange(m.stack.Lon)
	if lonMax-lonMin > 350 {
		m.warnings = append(m.warnings, Warning{Message: fmt.Sprintf(
			"longitudes span %g to %g; grids crossing the antimeridian are unsupported", lonMin, lonMax)})
	}
}

// selectPairs converts the evaluation-time selection into (from, to) grid
// index pairs. Each pair is two consecutive entries within the selection,
// not necessarily temporally adjacent in the stack.
func selectPairs(times, atTimes []float64) ([][2]int, error) {
	idx := make([]int, 0, len(times))
	if atTimes == nil {
		for i := range times {
			idx = append(idx, i)
		}
	} else {
		for i, t := range atTimes {
			if i > 0 && t <= atTimes[i-1] {
				return nil, fmt.Errorf("gridshift: selected times must be strictly increasing, but entry %d (%g) ≤ entry %d (%g)",
					i, t, i-1, atTimes[i-1])
			}
			j := sort.SearchFloat64s(times, t)
			if j >= len(times) || times[j] != t {
				return nil, fmt.Errorf("gridshift: selected time %g is not a timestamp of the series", t)
			}
			idx = append(idx, j)
		}
	}
	if len(idx) < 2 {
		return nil, fmt.Errorf("gridshift: at least 2 selected times are required, have %d", len(idx))
	}
	pairs := make([][2]int, len(idx)-1)
	for i := 1; i < len(idx); i++ {
		pairs[i-1] = [2]int{idx[i-1], idx[i]}
	}
	return pairs, nil
}

// elevAt returns the elevation grid in effect for time slice i, or nil.
func (s *Stack) elevAt(i int) *sparse.DenseArray {
	if s.ElevStack != nil {
		return s.ElevStack[i]
	}
	return s.Elev
}

func nGrids(s *Stack) int {
	if s == nil {
		return 0
	}
	return len(s.Grids)
}

func shallowCopyStack(s *Stack) *Stack {
	c := *s
	return &c
}

func checkShape(g *sparse.DenseArray, shape []int, name string) error {
	if g == nil {
		return fmt.Errorf("gridshift: %s is nil", name)
	}
	if len(g.Shape) != len(shape) || g.Shape[0] != shape[0] || g.Shape[1] != shape[1] {
		return fmt.Errorf("gridshift: %s has shape %v; want %v", name, g.Shape, shape)
	}
	return nil
}

// indexCoords builds default coordinate grids from cell indices: longitude
// equals the column index and latitude equals the row index, so row 0 is
// the southernmost row and distances are unitless.
func indexCoords(shape []int) (lon, lat *sparse.DenseArray) {
	lon = sparse.ZerosDense(shape...)
	lat = sparse.ZerosDense(shape...)
	for j := 0; j < shape[0]; j++ {
		for i := 0; i < shape[1]; i++ {
			lon.Set(float64(i), j, i)
			lat.Set(float64(j), j, i)
		}
	}
	return lon, lat
}

func gridRange(g *sparse.DenseArray) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range g.Elements {
		if math.IsNaN(v) {
			continue
		}
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	return min, max
}
