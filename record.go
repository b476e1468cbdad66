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
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
)

// Record holds the results for one evaluated time-step pair. Undefined
// values are NaN, never zero. Records are newly allocated per pair and
// owned by the caller once returned.
type Record struct {
	FromTime, ToTime, TimeSpan float64
	Fields                     map[string]float64
}

// Field returns the named field, or NaN if it is absent.
func (r *Record) Field(name string) float64 {
	if v, ok := r.Fields[name]; ok {
		return v
	}
	return math.NaN()
}

// levelSuffix renders a quantile level as a field-name suffix, with the
// decimal point replaced so names stay valid identifiers: 0.05 → "0p05".
func levelSuffix(level float64) string {
	return strings.Replace(strconv.FormatFloat(level, 'g', -1, 64), ".", "p", 1)
}

// FieldNames returns the ordered names of the fields Run will populate in
// each Record, excluding the universal fromTime/toTime/timeSpan columns.
func (m *Model) FieldNames() []string {
	var names []string
	levels := m.cfg.Quantiles
	for _, metric := range append(append([]string{}, baseMetrics...), elevMetrics...) {
		if !m.metrics[metric] {
			continue
		}
		switch metric {
		case MetricSummary:
			names = append(names, "propSharedCellsNotNA", "fromPropNotNA", "toPropNotNA", "mean")
			for _, q := range levels {
				names = append(names, "quantile_"+levelSuffix(q))
			}
			names = append(names, "prevalence")
		case MetricCentroid:
			names = append(names, "centroidVelocity", "centroidLon", "centroidLat")
		case MetricNSCentroid:
			names = append(names, "nsCentroid", "nsCentroidLat")
		case MetricEWCentroid:
			names = append(names, "ewCentroid", "ewCentroidLon")
		case MetricNCentroid, MetricSCentroid, MetricECentroid, MetricWCentroid:
			d := metric[:1]
			names = append(names, d+"CentroidVelocity", d+"CentroidAbund")
		case MetricNSQuants:
			for _, q := range levels {
				s := levelSuffix(q)
				names = append(names, "nsQuantVelocity_"+s, "nsQuantLat_"+s)
			}
		case MetricEWQuants:
			for _, q := range levels {
				s := levelSuffix(q)
				names = append(names, "ewQuantVelocity_"+s, "ewQuantLon_"+s)
			}
		case MetricSimilarity:
			names = append(names, "simpleMeanDiff", "meanAbsDiff", "rmsd",
				"godsoeEsp", "schoenersD", "warrensI", "cor", "rankCor")
		case MetricElevCentroid:
			names = append(names, "elevCentroidVelocity", "elevCentroidElev")
		case MetricElevQuants:
			for _, q := range levels {
				s := levelSuffix(q)
				names = append(names, "elevQuantVelocity_"+s, "elevQuantVelocityElev_"+s)
			}
		}
	}
	return names
}

// Expressions evaluates user-defined derived output fields over the
// fields of each Record. Expression variables are record field names plus
// fromTime, toTime, and timeSpan.
type Expressions struct {
	exprs map[string]*govaluate.EvaluableExpression
	order []string
}

// NewExpressions parses the given name → expression mapping. A default
// function table is always available:
//
// 'exp(x)' applies the exponential function e^x.
//
// 'log(x)' applies the natural logarithm.
//
// 'abs(x)' applies the absolute value.
//
// 'sqrt(x)' applies the square root.
//
// Functions in extra override or extend the defaults.
func NewExpressions(vars map[string]string, extra map[string]govaluate.ExpressionFunction) (*Expressions, error) {
	funcs := map[string]govaluate.ExpressionFunction{
		"exp":  oneArg("exp", math.Exp),
		"log":  oneArg("log", math.Log),
		"abs":  oneArg("abs", math.Abs),
		"sqrt": oneArg("sqrt", math.Sqrt),
	}
	for name, f := range extra {
		funcs[name] = f
	}
	e := &Expressions{exprs: make(map[string]*govaluate.EvaluableExpression)}
	for name, expr := range vars {
		parsed, err := govaluate.NewEvaluableExpressionWithFunctions(expr, funcs)
		if err != nil {
			return nil, fmt.Errorf("gridshift: parsing output expression %q: %v", name, err)
		}
		e.exprs[name] = parsed
		e.order = append(e.order, name)
	}
	sort.Strings(e.order)
	return e, nil
}

// Names returns the derived field names in sorted order.
func (e *Expressions) Names() []string { return e.order }

// Apply evaluates every expression against each record and stores the
// results as additional record fields.
func (e *Expressions) Apply(recs []*Record) error {
	for _, rec := range recs {
		params := make(map[string]interface{}, len(rec.Fields)+3)
		for k, v := range rec.Fields {
			params[k] = v
		}
		params["fromTime"] = rec.FromTime
		params["toTime"] = rec.ToTime
		params["timeSpan"] = rec.TimeSpan
		for name, expr := range e.exprs {
			v, err := expr.Evaluate(params)
			if err != nil {
				return fmt.Errorf("gridshift: evaluating output expression %q: %v", name, err)
			}
			f, ok := v.(float64)
			if !ok {
				return fmt.Errorf("gridshift: output expression %q yielded %T; want float64", name, v)
			}
			rec.Fields[name] = f
		}
	}
	return nil
}

func oneArg(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("gridshift: got %d arguments for function %q, but need 1", len(args), name)
		}
		x, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("gridshift: function %q needs a numeric argument, got %T", name, args[0])
		}
		return f(x), nil
	}
}
