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
	"sort"

	"github.com/ctessum/geom"
)

// eps is the tolerance on segment parameters, which are in [0, 1].
const eps = 1e-9

// crossing is a point where a transect part meets the box boundary.
type crossing struct {
	t    float64 // position along the transect part: segment index + fraction
	ring float64 // position along the box ring: edge index + fraction
	pt   geom.Point
}

// Split cuts box along transect t. The transect must cross the interior
// of the box exactly once, so that the box falls apart into exactly two
// polygons; otherwise a *GeometryError is returned.
//
// retained is the part that contains the first vertex of the box ring
// that does not lie on the cut. The choice depends only on vertex order,
// so the same physical side of the box is retained for every transect
// split from the same box. Both parts keep the winding order of the box.
func Split(box Polygon, t Transect) (retained, other Polygon, err error) {
	if !box.CRS.Equal(t.CRS) {
		return Polygon{}, Polygon{}, &CRSMismatchError{Name: t.Name, Box: box.CRS, Transect: t.CRS}
	}
	if err := box.Validate(); err != nil {
		return Polygon{}, Polygon{}, err
	}
	ring := box.Ring()
	ring = ring[:len(ring)-1] // open
	n := len(ring)

	var chord []geom.Point
	var a, b crossing
	chords := 0
	for _, part := range t.MultiLineString {
		xs, err := crossings(ring, part)
		if err != nil {
			return Polygon{}, Polygon{}, &GeometryError{Transect: t.Name, Reason: err.Error()}
		}
		for i := 0; i+1 < len(xs); i++ {
			mid := pointAt(part, (xs[i].t+xs[i+1].t)/2)
			if mid.Within(box.Polygon) != geom.Inside {
				continue
			}
			chords++
			a, b = xs[i], xs[i+1]
			chord = append(chord[:0], a.pt)
			for k := int(math.Floor(a.t)) + 1; float64(k) < b.t; k++ {
				chord = append(chord, part[k])
			}
			chord = append(chord, b.pt)
		}
	}
	if chords != 1 {
		return Polygon{}, Polygon{}, &GeometryError{Transect: t.Name, Reason: "transect does not bisect reference box"}
	}
	if ringDist(a.ring, b.ring, n) < eps || ringDist(b.ring, a.ring, n) < eps {
		return Polygon{}, Polygon{}, &GeometryError{Transect: t.Name, Reason: "transect enters and leaves the reference box at the same point"}
	}

	// sideAB runs along the chord from a to b and then forward along the
	// ring from b back to a. sideBA runs back along the chord and then
	// forward along the ring from a to b.
	sideAB := append([]geom.Point{}, chord...)
	sideAB = append(sideAB, arc(ring, b.ring, a.ring)...)
	sideAB = append(sideAB, a.pt)

	sideBA := make([]geom.Point, 0, len(chord)+n+1)
	for i := len(chord) - 1; i >= 0; i-- {
		sideBA = append(sideBA, chord[i])
	}
	sideBA = append(sideBA, arc(ring, a.ring, b.ring)...)
	sideBA = append(sideBA, b.pt)

	pAB := Polygon{Polygon: geom.Polygon{sideAB}, CRS: box.CRS}
	pBA := Polygon{Polygon: geom.Polygon{sideBA}, CRS: box.CRS}
	if retainedSide(n, a.ring, b.ring) {
		return pAB, pBA, nil
	}
	return pBA, pAB, nil
}

// retainedSide reports whether the first ring vertex that is not an end
// of the chord lies on the arc from b forward to a.
func retainedSide(n int, a, b float64) bool {
	for k := 0; k < n; k++ {
		dk := ringDist(b, float64(k), n)
		if dk < eps || ringDist(a, float64(k), n) < eps {
			continue
		}
		return dk < ringDist(b, a, n)
	}
	return true
}

// arc returns the ring vertices strictly between ring positions from and
// to, walking forward.
func arc(ring []geom.Point, from, to float64) []geom.Point {
	n := len(ring)
	span := ringDist(from, to, n)
	var out []geom.Point
	for k := int(math.Floor(from)) + 1; ; k++ {
		d := ringDist(from, float64(k%n), n)
		if d >= span-eps {
			break
		}
		if d > eps {
			out = append(out, ring[k%n])
		}
	}
	return out
}

// ringDist is the forward distance from position p to position x along
// a ring of n edges.
func ringDist(p, x float64, n int) float64 {
	d := math.Mod(x-p, float64(n))
	if d < 0 {
		d += float64(n)
	}
	return d
}

// crossings returns the points where line meets the edges of the open
// ring, sorted along line, with coincident points merged.
func crossings(ring []geom.Point, line geom.LineString) ([]crossing, error) {
	n := len(ring)
	var xs []crossing
	for j := 0; j+1 < len(line); j++ {
		q0, q1 := line[j], line[j+1]
		for i := 0; i < n; i++ {
			p0, p1 := ring[i], ring[(i+1)%n]
			u, v, ok, collinear := segmentIntersection(q0, q1, p0, p1)
			if collinear {
				return nil, errCollinear
			}
			if !ok {
				continue
			}
			pos := float64(i) + v
			if pos >= float64(n) {
				pos -= float64(n)
			}
			xs = append(xs, crossing{
				t:    float64(j) + u,
				ring: pos,
				pt:   geom.Point{X: q0.X + u*(q1.X-q0.X), Y: q0.Y + u*(q1.Y-q0.Y)},
			})
		}
	}
	sort.SliceStable(xs, func(i, j int) bool { return xs[i].t < xs[j].t })
	out := xs[:0]
	for _, x := range xs {
		if len(out) > 0 && x.t-out[len(out)-1].t < eps {
			continue
		}
		out = append(out, x)
	}
	return out, nil
}

type geometryReason string

func (r geometryReason) Error() string { return string(r) }

const errCollinear = geometryReason("transect runs along an edge of the reference box")

// segmentIntersection intersects segment q0-q1 with segment p0-p1. u and
// v are the fractional positions of the intersection along each segment.
// collinear is true if the segments overlap along a stretch.
func segmentIntersection(q0, q1, p0, p1 geom.Point) (u, v float64, ok, collinear bool) {
	r := sub(q1, q0)
	s := sub(p1, p0)
	qp := sub(p0, q0)
	denom := cross(r, s)
	scale := math.Hypot(r.X, r.Y) * math.Hypot(s.X, s.Y)
	if scale == 0 {
		return 0, 0, false, false
	}
	if math.Abs(denom) <= eps*scale {
		// Parallel.
		if math.Abs(cross(qp, r)) > eps*scale {
			return 0, 0, false, false
		}
		rr := dot(r, r)
		t0 := dot(qp, r) / rr
		t1 := t0 + dot(s, r)/rr
		lo, hi := math.Min(t0, t1), math.Max(t0, t1)
		if math.Min(hi, 1)-math.Max(lo, 0) > eps {
			return 0, 0, false, true
		}
		return 0, 0, false, false
	}
	u = cross(qp, s) / denom
	v = cross(qp, r) / denom
	if u < -eps || u > 1+eps || v < -eps || v > 1+eps {
		return 0, 0, false, false
	}
	return clamp01(u), clamp01(v), true, false
}

// pointAt returns the point at position t along line.
func pointAt(line geom.LineString, t float64) geom.Point {
	j := int(math.Floor(t))
	if j >= len(line)-1 {
		j = len(line) - 2
	}
	u := t - float64(j)
	q0, q1 := line[j], line[j+1]
	return geom.Point{X: q0.X + u*(q1.X-q0.X), Y: q0.Y + u*(q1.Y-q0.Y)}
}

func sub(a, b geom.Point) geom.Point { return geom.Point{X: a.X - b.X, Y: a.Y - b.Y} }
func cross(a, b geom.Point) float64 { return a.X*b.Y - a.Y*b.X }
func dot(a, b geom.Point) float64 { return a.X*b.X + a.Y*b.Y }
func clamp01(x float64) float64 { return math.Max(0, math.Min(1, x)) }
