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

package crs

import (
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/geom/proj"
	"gonum.org/v1/gonum/floats/scalar"
)

// polarStereographic is the ellipsoidal polar aspect of the stereographic
// projection (Snyder 1987, pp. 160–162), used by the common Arctic and
// Antarctic glacier data sets. github.com/ctessum/geom/proj does not
// implement it.
type polarStereographic struct {
	a, e   float64 // semi-major axis and eccentricity
	lon0   float64 // central meridian, radians
	x0, y0 float64 // false easting and northing
	south  bool

	// rhoScale converts t to the polar radius rho.
	rhoScale float64
}

const halfPi = math.Pi / 2

func isPolarStereographic(sr *proj.SR) bool {
	switch strings.ToLower(sr.Name) {
	case "stere", "polar_stereographic", "stereographic_north_pole",
		"stereographic_south_pole", "polar stereographic (variant b)":
		return true
	}
	return false
}

func newPolarStereographic(sr *proj.SR) (*polarStereographic, error) {
	ps := &polarStereographic{
		a:    sr.A,
		e:    sr.E,
		lon0: zeroIfNaN(sr.Long0),
		x0:   zeroIfNaN(sr.X0),
		y0:   zeroIfNaN(sr.Y0),
	}

	// The latitude of true scale is spelled lat_ts in Proj4,
	// standard_parallel_1 in ESRI WKT, and latitude_of_origin in OGC WKT.
	latTS := sr.LatTS
	if math.IsNaN(latTS) {
		latTS = sr.Lat1
	}
	lat0 := sr.Lat0
	if math.IsNaN(latTS) && !math.IsNaN(lat0) && math.Abs(math.Abs(lat0)-halfPi) > 1e-10 {
		latTS = lat0
	}
	switch {
	case strings.Contains(strings.ToLower(sr.Name), "south"):
		ps.south = true
	case !math.IsNaN(lat0) && math.Abs(math.Abs(lat0)-halfPi) < 1e-10:
		ps.south = lat0 < 0
	case !math.IsNaN(latTS):
		ps.south = latTS < 0
	default:
		return nil, fmt.Errorf("crs: polar stereographic definition has no pole or latitude of true scale")
	}
	if math.IsNaN(ps.a) || ps.a <= 0 {
		return nil, fmt.Errorf("crs: polar stereographic definition has invalid semi-major axis %g", ps.a)
	}

	k0 := sr.K0
	if math.IsNaN(k0) {
		k0 = 1
	}
	e := ps.e
	if math.IsNaN(latTS) || math.Abs(math.Abs(latTS)-halfPi) < 1e-10 {
		// Scale is given at the pole.
		ps.rhoScale = 2 * ps.a * k0 / math.Sqrt(math.Pow(1+e, 1+e)*math.Pow(1-e, 1-e))
	} else {
		phiC := math.Abs(latTS)
		sinC := math.Sin(phiC)
		mc := math.Cos(phiC) / math.Sqrt(1-e*e*sinC*sinC)
		ps.rhoScale = ps.a * mc / tsfn(phiC, e)
	}
	if ps.south {
		ps.lon0 = -ps.lon0
	}
	return ps, nil
}

func (ps *polarStereographic) equal(ps2 *polarStereographic) bool {
	if ps.south != ps2.south {
		return false
	}
	p1 := []float64{ps.a, ps.e, ps.lon0, ps.x0, ps.y0, ps.rhoScale}
	p2 := []float64{ps2.a, ps2.e, ps2.lon0, ps2.x0, ps2.y0, ps2.rhoScale}
	for i := range p1 {
		if !scalar.EqualWithinAbsOrRel(p1[i], p2[i], 1e-9, 1e-9) {
			return false
		}
	}
	return true
}

// tsfn is Snyder's t (eq. 15-9) for the north polar aspect.
func tsfn(phi, e float64) float64 {
	sinPhi := math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-e*sinPhi)/(1+e*sinPhi), e/2)
}

// forward projects longitude/latitude degrees to x/y.
func (ps *polarStereographic) forward(lon, lat float64) (x, y float64, err error) {
	if math.IsNaN(lon) || math.IsNaN(lat) || math.Abs(lat) > 90 {
		return math.NaN(), math.NaN(), fmt.Errorf("crs: invalid longitude/latitude (%g, %g)", lon, lat)
	}
	lam := lon * math.Pi / 180
	phi := lat * math.Pi / 180
	if ps.south {
		// The south polar aspect is the north polar aspect with the signs
		// of x, y, phi and lambda reversed.
		lam, phi = -lam, -phi
	}
	rho := ps.rhoScale * tsfn(phi, ps.e)
	x = rho * math.Sin(lam-ps.lon0)
	y = -rho * math.Cos(lam-ps.lon0)
	if ps.south {
		x, y = -x, -y
	}
	return x + ps.x0, y + ps.y0, nil
}

// inverse converts x/y to longitude/latitude degrees.
func (ps *polarStereographic) inverse(x, y float64) (lon, lat float64, err error) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return math.NaN(), math.NaN(), fmt.Errorf("crs: invalid coordinate (%g, %g)", x, y)
	}
	x -= ps.x0
	y -= ps.y0
	if ps.south {
		x, y = -x, -y
	}
	rho := math.Hypot(x, y)
	var phi, lam float64
	if rho == 0 {
		phi, lam = halfPi, ps.lon0
	} else {
		t := rho / ps.rhoScale
		chi := halfPi - 2*math.Atan(t)
		phi = conformalToGeodetic(chi, ps.e)
		lam = ps.lon0 + math.Atan2(x, -y)
	}
	if ps.south {
		phi, lam = -phi, -lam
	}
	return normalizeLon(lam * 180 / math.Pi), phi * 180 / math.Pi, nil
}

// conformalToGeodetic converts conformal latitude chi to geodetic
// latitude using Snyder's series (eq. 3-5).
func conformalToGeodetic(chi, e float64) float64 {
	e2 := e * e
	e4 := e2 * e2
	e6 := e4 * e2
	e8 := e4 * e4
	return chi +
		(e2/2+5*e4/24+e6/12+13*e8/360)*math.Sin(2*chi) +
		(7*e4/48+29*e6/240+811*e8/11520)*math.Sin(4*chi) +
		(7*e6/120+81*e8/1120)*math.Sin(6*chi) +
		(4279*e8/161280)*math.Sin(8*chi)
}

func normalizeLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

func zeroIfNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
