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
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// Run evaluates every selected time-step pair and returns one Record per
// pair, in selection order. Pairs are independent units of work: each
// consumes only its two grids plus the shared read-only coordinate grids,
// so Config.Workers goroutines process them concurrently with no effect
// on the results. Undefined intermediates (empty masks, zero total mass)
// propagate as NaN fields rather than aborting the pair.
func (m *Model) Run() []*Record {
	n := len(m.pairs)
	records := make([]*Record, n)
	warns := make([][]Warning, n)

	nprocs := m.cfg.Workers
	if nprocs > n {
		nprocs = n
	}
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for i := pp; i < n; i += nprocs {
				records[i], warns[i] = m.runPair(i)
				if m.cfg.Log != nil {
					m.cfg.Log.WithField("fromTime", records[i].FromTime).
						WithField("toTime", records[i].ToTime).
						Debug("time-step pair complete")
				}
			}
		}(pp)
	}
	wg.Wait()

	// Reassemble warnings in pair order regardless of completion order.
	for _, ws := range warns {
		m.warnings = append(m.warnings, ws...)
	}
	return records
}

var directionalMetrics = []struct {
	metric string
	dir    Direction
}{
	{MetricNCentroid, North},
	{MetricSCentroid, South},
	{MetricECentroid, East},
	{MetricWCentroid, West},
}

// runPair carries one (from, to) pair through the stages
// mask → stats → positions → rates → record.
func (m *Model) runPair(pi int) (*Record, []Warning) {
	fi, ti := m.pairs[pi][0], m.pairs[pi][1]
	s := m.stack
	from, to := s.Grids[fi], s.Grids[ti]
	rec := &Record{
		FromTime: s.Times[fi],
		ToTime:   s.Times[ti],
		TimeSpan: s.Times[ti] - s.Times[fi],
		Fields:   make(map[string]float64),
	}
	span := rec.TimeSpan
	var warns []Warning
	warn := func(metric, msg string) {
		if !m.cfg.Quiet {
			warns = append(warns, Warning{
				FromTime: rec.FromTime, ToTime: rec.ToTime,
				Metric: metric, Message: msg,
			})
		}
	}

	// Stage 1: the mask and coverage diagnostics are built once and
	// shared by every metric below.
	pm := newPairMask(from, to, m.cfg.OnlyShared)

	// Stage 2: scalar statistics.
	if m.metrics[MetricSummary] {
		sum := Summarize(to, pm.To, m.cfg.Quantiles)
		rec.Fields["propSharedCellsNotNA"] = pm.SharedProp
		rec.Fields["fromPropNotNA"] = pm.FromProp
		rec.Fields["toPropNotNA"] = pm.ToProp
		rec.Fields["mean"] = sum.Mean
		for i, q := range m.cfg.Quantiles {
			rec.Fields["quantile_"+levelSuffix(q)] = sum.Quantiles[i]
		}
		rec.Fields["prevalence"] = sum.Prevalence
	}

	// Stage 3: positions. The whole-landscape centroid of the "from"
	// grid doubles as the anchor for the directional partitions and as
	// the fixed reference coordinate for axis-quantile distance
	// conversion (phase 1 of the anchor protocol; phase 2 applies it to
	// both endpoints).
	needAnchor := m.metrics[MetricCentroid] || m.metrics[MetricNSCentroid] ||
		m.metrics[MetricEWCentroid] || m.metrics[MetricNSQuants] ||
		m.metrics[MetricEWQuants]
	for _, dm := range directionalMetrics {
		needAnchor = needAnchor || m.metrics[dm.metric]
	}
	var cFrom, cTo geom.Point
	if needAnchor {
		cFrom = Centroid(from, pm.From, s.Lon, s.Lat)
		cTo = Centroid(to, pm.To, s.Lon, s.Lat)
	}

	// Stages 4-5 happen per metric: positions become rates and are
	// stored on the record immediately.
	dist := m.cfg.Distance
	if m.metrics[MetricCentroid] {
		rec.Fields["centroidVelocity"] = PositionRate(cFrom, cTo, span, dist, 1)
		rec.Fields["centroidLon"] = cTo.X
		rec.Fields["centroidLat"] = cTo.Y
	}
	// The companion position fields report the anchor, i.e. the "from"
	// grid's whole-landscape centroid.
	if m.metrics[MetricNSCentroid] {
		rec.Fields["nsCentroid"] = PositionRate(
			cFrom,
			geom.Point{X: cFrom.X, Y: cTo.Y},
			span, dist, SignOf(cTo.Y-cFrom.Y))
		rec.Fields["nsCentroidLat"] = cFrom.Y
	}
	if m.metrics[MetricEWCentroid] {
		rec.Fields["ewCentroid"] = PositionRate(
			cFrom,
			geom.Point{X: cTo.X, Y: cFrom.Y},
			span, dist, SignOf(cTo.X-cFrom.X))
		rec.Fields["ewCentroidLon"] = cFrom.X
	}

	for _, dm := range directionalMetrics {
		if !m.metrics[dm.metric] {
			continue
		}
		name := dm.metric[:1]
		if math.IsNaN(cFrom.X) {
			rec.Fields[name+"CentroidVelocity"] = math.NaN()
			rec.Fields[name+"CentroidAbund"] = math.NaN()
			continue
		}
		pFrom, _ := DirectionalCentroid(from, pm.From, s.Lon, s.Lat, cFrom, dm.dir)
		pTo, wTo := DirectionalCentroid(to, pm.To, s.Lon, s.Lat, cFrom, dm.dir)
		rec.Fields[name+"CentroidVelocity"] = PositionRate(pFrom, pTo, span, dist, 1)
		rec.Fields[name+"CentroidAbund"] = wTo
	}

	if m.metrics[MetricNSQuants] {
		m.axisQuantFields(rec, warn, MetricNSQuants, from, to, pm, s.Lat,
			func(q float64) geom.Point { return geom.Point{X: cFrom.X, Y: q} },
			"nsQuantVelocity_", "nsQuantLat_", span)
	}
	if m.metrics[MetricEWQuants] {
		m.axisQuantFields(rec, warn, MetricEWQuants, from, to, pm, s.Lon,
			func(q float64) geom.Point { return geom.Point{X: q, Y: cFrom.Y} },
			"ewQuantVelocity_", "ewQuantLon_", span)
	}

	if m.metrics[MetricSimilarity] {
		sim := Similarity(from, to, pm.sharedMask())
		rec.Fields["simpleMeanDiff"] = sim.SimpleMeanDiff
		rec.Fields["meanAbsDiff"] = sim.MeanAbsDiff
		rec.Fields["rmsd"] = sim.RMSD
		rec.Fields["godsoeEsp"] = sim.GodsoeESP
		rec.Fields["schoenersD"] = sim.SchoenersD
		rec.Fields["warrensI"] = sim.WarrensI
		rec.Fields["cor"] = sim.Pearson
		rec.Fields["rankCor"] = sim.Spearman
	}

	if m.metrics[MetricElevCentroid] {
		eFrom := ElevCentroid(from, pm.From, s.elevAt(fi))
		eTo := ElevCentroid(to, pm.To, s.elevAt(ti))
		rec.Fields["elevCentroidVelocity"] = Rate(eFrom, eTo, span)
		rec.Fields["elevCentroidElev"] = eTo
	}
	if m.metrics[MetricElevQuants] {
		degenerate := false
		for _, level := range m.cfg.Quantiles {
			qFrom, nFrom := AxisQuantile(from, pm.From, s.elevAt(fi), level)
			qTo, nTo := AxisQuantile(to, pm.To, s.elevAt(ti), level)
			suffix := levelSuffix(level)
			rec.Fields["elevQuantVelocity_"+suffix] = Rate(qFrom, qTo, span)
			rec.Fields["elevQuantVelocityElev_"+suffix] = qTo
			degenerate = degenerate || nFrom == 1 || nTo == 1
		}
		if degenerate {
			warn(MetricElevQuants, "mass is concentrated at a single elevation; quantile positions are degenerate")
		}
	}

	return rec, warns
}

// axisQuantFields computes the quantile-position velocities along one
// axis for every requested level. toPoint places an axis coordinate into
// a 2-D position, holding the orthogonal coordinate fixed at the "from"
// centroid so that great-circle conversions are well defined; with planar
// distances the held coordinate cancels out.
func (m *Model) axisQuantFields(rec *Record, warn func(string, string), metric string,
	from, to *sparse.DenseArray, pm *pairMask, coord *sparse.DenseArray,
	toPoint func(float64) geom.Point, velPrefix, posPrefix string, span float64) {

	degenerate := false
	for _, level := range m.cfg.Quantiles {
		qFrom, nFrom := AxisQuantile(from, pm.From, coord, level)
		qTo, nTo := AxisQuantile(to, pm.To, coord, level)
		suffix := levelSuffix(level)
		rec.Fields[velPrefix+suffix] = PositionRate(
			toPoint(qFrom), toPoint(qTo), span, m.cfg.Distance, SignOf(qTo-qFrom))
		rec.Fields[posPrefix+suffix] = qTo
		degenerate = degenerate || nFrom == 1 || nTo == 1
	}
	if degenerate {
		warn(metric, "mass is concentrated at a single coordinate; quantile positions are degenerate")
	}
}
