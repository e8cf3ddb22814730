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
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// YearGroup holds the observations that fall inside one calendar year.
type YearGroup struct {
	Year         int
	Observations []Observation
}

// Mean returns the mean area change of the group in km², or NaN if the
// group is empty.
func (g YearGroup) Mean() float64 {
	if len(g.Observations) == 0 {
		return math.NaN()
	}
	x := make([]float64, len(g.Observations))
	for i, o := range g.Observations {
		x[i] = o.AreaChange
	}
	return stat.Mean(x, nil)
}

// GroupByYear partitions ts into one group per calendar year from the
// year of the first observation to the year of the last. A group for
// year y holds the observations with y < decimal year < y+1, so
// observations falling exactly on January 1 belong to no group. Years
// without observations give empty groups. Observations in a group keep
// their order in ts.
func GroupByYear(ts *TimeSeries) []YearGroup {
	if ts == nil || len(ts.Observations) == 0 {
		return nil
	}
	dy := ts.DecimalYears()
	first := int(math.Floor(floats.Min(dy)))
	last := int(math.Floor(floats.Max(dy)))
	groups := make([]YearGroup, 0, last-first+1)
	for y := first; y <= last; y++ {
		g := YearGroup{Year: y}
		for _, o := range ts.Observations {
			if float64(y) < o.Date.DecimalYear && o.Date.DecimalYear < float64(y+1) {
				g.Observations = append(g.Observations, o)
			}
		}
		groups = append(groups, g)
	}
	return groups
}
