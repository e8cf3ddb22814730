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
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/spatialmodel/boxmethod/crs"
)

// minLatExtent is the smallest latitude extent, in degrees, for which the
// standard parallels of the area projection are considered distinct.
const minLatExtent = 1e-12

// GeodeticArea returns the area in m² of p, whose coordinates are WGS84
// longitude/latitude degrees. p is projected to an Albers equal-area
// projection whose standard parallels are the southern and northern
// limits of p, and the planar area of the projected polygon is returned.
func GeodeticArea(p geom.Polygon) (float64, error) {
	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)
	npts := 0
	for _, r := range p {
		for _, pt := range r {
			if math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsInf(pt.X, 0) || math.IsInf(pt.Y, 0) {
				return math.NaN(), &ProjectionError{Reason: fmt.Sprintf("non-finite coordinate (%g, %g)", pt.X, pt.Y)}
			}
			minLon, maxLon = math.Min(minLon, pt.X), math.Max(maxLon, pt.X)
			minLat, maxLat = math.Min(minLat, pt.Y), math.Max(maxLat, pt.Y)
			npts++
		}
	}
	if npts == 0 {
		return math.NaN(), &ProjectionError{Reason: "empty polygon"}
	}
	if maxLat-minLat < minLatExtent {
		return math.NaN(), &ProjectionError{Reason: fmt.Sprintf("latitude extent [%g, %g] is too small to set standard parallels", minLat, maxLat)}
	}
	lat1, lat2 := minLat, maxLat
	if math.Abs(lat1+lat2) < 1e-6 {
		// Parallels symmetric about the equator do not define a cone.
		lat2 = -lat1 + 1e-6
	}
	def := fmt.Sprintf("+proj=aea +lat_1=%.12f +lat_2=%.12f +lat_0=0 +lon_0=%.12f +x_0=0 +y_0=0 +ellps=WGS84 +datum=WGS84 +units=m +no_defs",
		lat1, lat2, (minLon+maxLon)/2)
	dst, err := proj.Parse(def)
	if err != nil {
		return math.NaN(), &ProjectionError{Reason: "parsing " + def, Err: err}
	}
	src, err := crs.Geographic.SR()
	if err != nil {
		return math.NaN(), &ProjectionError{Reason: "parsing geographic reference", Err: err}
	}
	t, err := src.NewTransform(dst)
	if err != nil {
		return math.NaN(), &ProjectionError{Reason: "creating transform", Err: err}
	}
	g, err := p.Transform(t)
	if err != nil {
		return math.NaN(), &ProjectionError{Reason: "projecting polygon", Err: err}
	}
	a := g.(geom.Polygon).Area()
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return math.NaN(), &ProjectionError{Reason: fmt.Sprintf("projected area is %g", a)}
	}
	return a, nil
}
