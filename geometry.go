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
	"github.com/spatialmodel/boxmethod/crs"
)

// Polygon is a single-ring polygon tagged with its coordinate
// reference system.
type Polygon struct {
	geom.Polygon
	CRS crs.CRS
}

// NewPolygon creates a Polygon from one ring, closing the ring if its
// first and last vertices differ. The input is not modified.
func NewPolygon(ring []geom.Point, c crs.CRS) Polygon {
	r := make([]geom.Point, len(ring), len(ring)+1)
	copy(r, ring)
	if len(r) > 0 && !r[0].Equals(r[len(r)-1]) {
		r = append(r, r[0])
	}
	return Polygon{Polygon: geom.Polygon{r}, CRS: c}
}

// Validate checks that p has exactly one closed ring of at least three
// distinct vertices enclosing a non-zero area.
func (p Polygon) Validate() error {
	if len(p.Polygon) != 1 {
		return &GeometryError{Reason: fmt.Sprintf("reference box must have exactly one ring, has %d", len(p.Polygon))}
	}
	r := p.Polygon[0]
	if len(r) < 4 {
		return &GeometryError{Reason: fmt.Sprintf("reference box ring has %d vertices, need at least 4", len(r))}
	}
	if !r[0].Equals(r[len(r)-1]) {
		return &GeometryError{Reason: "reference box ring is not closed"}
	}
	for _, pt := range r {
		if math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsInf(pt.X, 0) || math.IsInf(pt.Y, 0) {
			return &GeometryError{Reason: "reference box has a non-finite vertex"}
		}
	}
	if p.Area() == 0 {
		return &GeometryError{Reason: "reference box has zero area"}
	}
	return nil
}

// Ring returns the vertices of the outer ring.
func (p Polygon) Ring() []geom.Point {
	if len(p.Polygon) == 0 {
		return nil
	}
	return p.Polygon[0]
}

// Transect is a dated calving-front line. It may be made of several
// parts, as polyline shapefiles often are.
type Transect struct {
	geom.MultiLineString
	CRS crs.CRS

	// Name identifies the source of the transect, e.g. its file.
	Name string

	// Date is the raw YYYYMMDD date string.
	Date string
}
