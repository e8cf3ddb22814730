/*
Copyright © 2023 the boxmethod authors.
This file is part of boxmethod.

boxmethod is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

boxmethod is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with boxmethod.  If not, see <http://www.gnu.org/licenses/>.
*/

package boxmethod

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Observation is the result of splitting the reference box with one
// transect.
type Observation struct {
	Date Date
	Name string

	// RawArea is the geodetic area of the retained polygon in m².
	RawArea float64

	// AreaChange is the change in retained area relative to the first
	// observation, in km². Loss is negative.
	AreaChange float64

	// Retained is the retained part of the box, in the box CRS.
	Retained Polygon
}

// TimeSeries holds observations sorted by date.
type TimeSeries struct {
	Observations []Observation
}

// Len returns the number of observations.
func (ts *TimeSeries) Len() int { return len(ts.Observations) }

// DecimalYears returns the decimal year of each observation.
func (ts *TimeSeries) DecimalYears() []float64 {
	o := make([]float64, len(ts.Observations))
	for i, obs := range ts.Observations {
		o[i] = obs.Date.DecimalYear
	}
	return o
}

// AreaChanges returns the area change of each observation in km².
func (ts *TimeSeries) AreaChanges() []float64 {
	o := make([]float64, len(ts.Observations))
	for i, obs := range ts.Observations {
		o[i] = obs.AreaChange
	}
	return o
}

// Duplicates returns the names of observations that share their date
// with another observation.
func (ts *TimeSeries) Duplicates() []string {
	var names []string
	for i, obs := range ts.Observations {
		dup := (i > 0 && ts.Observations[i-1].Date.Equal(obs.Date.Time)) ||
			(i+1 < len(ts.Observations) && ts.Observations[i+1].Date.Equal(obs.Date.Time))
		if dup {
			names = append(names, obs.Name)
		}
	}
	return names
}

// Trend fits a straight line to area change versus decimal year and
// returns its slope in km²/yr, its intercept, and the coefficient of
// determination.
func (ts *TimeSeries) Trend() (slope, intercept, r2 float64, err error) {
	x := ts.DecimalYears()
	if len(x) < 2 || x[0] == x[len(x)-1] {
		return 0, 0, 0, fmt.Errorf("boxmethod: a trend needs at least two distinct dates")
	}
	y := ts.AreaChanges()
	intercept, slope = stat.LinearRegression(x, y, nil, false)
	r2 = stat.RSquared(x, y, nil, intercept, slope)
	return slope, intercept, r2, nil
}

type buildConfig struct {
	workers int
	log     logrus.FieldLogger
	toGeo   proj.Transformer
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

// WithWorkers sets the number of transects processed concurrently.
// The default is runtime.GOMAXPROCS(0).
func WithWorkers(n int) BuildOption {
	return func(c *buildConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets the logger that receives per-transect progress.
func WithLogger(log logrus.FieldLogger) BuildOption {
	return func(c *buildConfig) { c.log = log }
}

// WithGeographic sets the transform from the box CRS to WGS84
// longitude/latitude. By default it is derived from the box CRS.
func WithGeographic(t proj.Transformer) BuildOption {
	return func(c *buildConfig) { c.toGeo = t }
}

// Build splits box with every transect, computes the geodetic area of
// each retained polygon and returns the resulting area-change series in
// date order. Transects are sorted by date before processing; those with
// equal dates keep their input order.
//
// The sign of the series is set once from its end points: if the first
// raw area is at least the last, AreaChange[i] = (raw[i] - raw[0]) / 1e6,
// otherwise AreaChange[i] = (raw[0] - raw[i]) / 1e6.
//
// Any error aborts the whole run and no series is returned.
func Build(ctx context.Context, box Polygon, transects []Transect, opts ...BuildOption) (*TimeSeries, error) {
	cfg := &buildConfig{workers: runtime.GOMAXPROCS(0)}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.log == nil {
		l := logrus.New()
		l.Out = io.Discard
		cfg.log = l
	}
	if len(transects) == 0 {
		return nil, ErrNoTransects
	}
	if err := box.Validate(); err != nil {
		return nil, err
	}

	type item struct {
		t Transect
		d Date
	}
	items := make([]item, len(transects))
	for i, t := range transects {
		d, err := ParseDate(t.Date)
		if err != nil {
			return nil, fmt.Errorf("boxmethod: transect %s: %w", t.Name, err)
		}
		items[i] = item{t: t, d: d}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].d.Before(items[j].d.Time) })

	toGeo := cfg.toGeo
	if toGeo == nil {
		var err error
		toGeo, err = box.CRS.ToGeographic()
		if err != nil {
			return nil, &ProjectionError{Reason: "box reference system", Err: err}
		}
	}

	obs := make([]Observation, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)
	for i, it := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			retained, _, err := Split(box, it.t)
			if err != nil {
				return err
			}
			geo, err := retained.Polygon.Transform(toGeo)
			if err != nil {
				return fmt.Errorf("boxmethod: transect %s: %w", it.t.Name,
					&ProjectionError{Reason: "converting to geographic coordinates", Err: err})
			}
			area, err := GeodeticArea(geo.(geom.Polygon))
			if err != nil {
				return fmt.Errorf("boxmethod: transect %s: %w", it.t.Name, err)
			}
			obs[i] = Observation{
				Date:     it.d,
				Name:     it.t.Name,
				RawArea:  area,
				Retained: retained,
			}
			cfg.log.WithFields(logrus.Fields{
				"transect":     it.t.Name,
				"decimal_year": it.d.DecimalYear,
				"area_m2":      area,
			}).Debug("split reference box")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	raw0, rawN := obs[0].RawArea, obs[len(obs)-1].RawArea
	for i := range obs {
		if raw0 >= rawN {
			obs[i].AreaChange = (obs[i].RawArea - raw0) / 1e6
		} else {
			obs[i].AreaChange = (raw0 - obs[i].RawArea) / 1e6
		}
	}
	ts := &TimeSeries{Observations: obs}
	for _, name := range ts.Duplicates() {
		cfg.log.WithField("transect", name).Warn("duplicate observation date")
	}
	return ts, nil
}
