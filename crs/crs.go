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

// Package crs tags geometries with coordinate reference systems and
// builds transforms between those systems and geographic (WGS84
// longitude/latitude) coordinates.
package crs

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ctessum/geom/proj"
	"gonum.org/v1/gonum/floats/scalar"
)

// CRS is a coordinate reference system. Geometries that are combined
// with each other must carry equal CRSs.
type CRS struct {
	// Code is an authority code such as "EPSG:3413". It is empty
	// when the CRS was read from a definition without a known code.
	Code string

	// Def is the Proj4 or WKT definition of the CRS.
	Def string
}

// Geographic is WGS84 longitude/latitude in decimal degrees.
var Geographic = CRS{Code: "EPSG:4326", Def: "+proj=longlat +ellps=WGS84 +datum=WGS84 +no_defs"}

// epsg holds the Proj4 definitions of the named codes supported by FromEPSG.
// UTM zones are generated on demand.
var epsg = map[int]string{
	4326: Geographic.Def,
	// NSIDC Sea Ice Polar Stereographic North
	3413: "+proj=stere +lat_0=90 +lat_ts=70 +lon_0=-45 +k=1 +x_0=0 +y_0=0 +ellps=WGS84 +datum=WGS84 +units=m +no_defs",
	// Antarctic Polar Stereographic
	3031: "+proj=stere +lat_0=-90 +lat_ts=-71 +lon_0=0 +k=1 +x_0=0 +y_0=0 +ellps=WGS84 +datum=WGS84 +units=m +no_defs",
	// Arctic Polar Stereographic
	3995: "+proj=stere +lat_0=90 +lat_ts=71 +lon_0=0 +k=1 +x_0=0 +y_0=0 +ellps=WGS84 +datum=WGS84 +units=m +no_defs",
	// NSIDC Sea Ice Polar Stereographic South
	3976: "+proj=stere +lat_0=-90 +lat_ts=-70 +lon_0=0 +k=1 +x_0=0 +y_0=0 +ellps=WGS84 +datum=WGS84 +units=m +no_defs",
}

// FromEPSG returns the CRS with the given EPSG code. Supported codes are
// 4326, the polar stereographic systems 3413, 3031, 3995 and 3976, and the
// WGS84 UTM zones 32601–32660 and 32701–32760.
func FromEPSG(code int) (CRS, error) {
	if def, ok := epsg[code]; ok {
		return CRS{Code: fmt.Sprintf("EPSG:%d", code), Def: def}, nil
	}
	switch {
	case code > 32600 && code <= 32660:
		return CRS{
			Code: fmt.Sprintf("EPSG:%d", code),
			Def:  fmt.Sprintf("+proj=utm +zone=%d +ellps=WGS84 +datum=WGS84 +units=m +no_defs", code-32600),
		}, nil
	case code > 32700 && code <= 32760:
		return CRS{
			Code: fmt.Sprintf("EPSG:%d", code),
			Def:  fmt.Sprintf("+proj=utm +zone=%d +south +ellps=WGS84 +datum=WGS84 +units=m +no_defs", code-32700),
		}, nil
	}
	return CRS{}, fmt.Errorf("crs: unsupported EPSG code %d", code)
}

// Parse interprets s as an EPSG code ("3413" or "EPSG:3413"), a Proj4
// string, or a WKT definition such as the contents of a shapefile .prj file.
func Parse(s string) (CRS, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CRS{}, fmt.Errorf("crs: empty definition")
	}
	code := strings.TrimPrefix(strings.ToUpper(s), "EPSG:")
	if n, err := strconv.Atoi(code); err == nil {
		return FromEPSG(n)
	}
	if _, err := proj.Parse(s); err != nil {
		return CRS{}, fmt.Errorf("crs: parsing definition: %w", err)
	}
	return CRS{Def: s}, nil
}

// IsZero reports whether c is the zero CRS, i.e. untagged.
func (c CRS) IsZero() bool { return c.Code == "" && c.Def == "" }

func (c CRS) String() string {
	if c.Code != "" {
		return c.Code
	}
	if len(c.Def) > 60 {
		return c.Def[:57] + "..."
	}
	return c.Def
}

// Equal reports whether c and c2 describe the same reference system.
// Authority codes are compared when both are present; otherwise the
// projection parameters of the parsed definitions are compared.
func (c CRS) Equal(c2 CRS) bool {
	if c.Def == c2.Def {
		return c.Code == c2.Code || c.Code == "" || c2.Code == ""
	}
	if c.Code != "" && c2.Code != "" {
		return c.Code == c2.Code
	}
	sr1, err := c.SR()
	if err != nil {
		return false
	}
	sr2, err := c2.SR()
	if err != nil {
		return false
	}
	if isPolarStereographic(sr1) && isPolarStereographic(sr2) {
		ps1, err1 := newPolarStereographic(sr1)
		ps2, err2 := newPolarStereographic(sr2)
		return err1 == nil && err2 == nil && ps1.equal(ps2)
	}
	if !strings.EqualFold(sr1.Name, sr2.Name) || sr1.UTMSouth != sr2.UTMSouth {
		return false
	}
	p1 := []float64{sr1.Lat0, sr1.Lat1, sr1.Lat2, sr1.LatTS, sr1.Long0, sr1.X0, sr1.Y0, sr1.K0, sr1.A, sr1.Es, sr1.Zone, sr1.ToMeter}
	p2 := []float64{sr2.Lat0, sr2.Lat1, sr2.Lat2, sr2.LatTS, sr2.Long0, sr2.X0, sr2.Y0, sr2.K0, sr2.A, sr2.Es, sr2.Zone, sr2.ToMeter}
	for i, v1 := range p1 {
		v2 := p2[i]
		if math.IsNaN(v1) != math.IsNaN(v2) {
			return false
		}
		if !math.IsNaN(v1) && !scalar.EqualWithinAbsOrRel(v1, v2, 1e-12, 1e-12) {
			return false
		}
	}
	return true
}

// SR returns the parsed spatial reference. Parameters that the definition
// leaves out take their Proj4 defaults: no false easting or northing, an
// origin at 0°N 0°E, and unit scale.
func (c CRS) SR() (*proj.SR, error) {
	sr, err := proj.Parse(c.Def)
	if err != nil {
		return nil, fmt.Errorf("crs: parsing %s: %w", c, err)
	}
	if !isPolarStereographic(sr) {
		// Polar stereographic reads the pole from a missing lat_0.
		for _, v := range []*float64{&sr.X0, &sr.Y0, &sr.Lat0, &sr.Long0} {
			*v = zeroIfNaN(*v)
		}
		if math.IsNaN(sr.K0) {
			sr.K0 = 1
		}
	}
	return sr, nil
}

// ToGeographic returns a transform from c to WGS84 longitude/latitude
// degrees. The returned function is safe for concurrent use.
func (c CRS) ToGeographic() (proj.Transformer, error) {
	sr, err := c.SR()
	if err != nil {
		return nil, err
	}
	if isPolarStereographic(sr) {
		ps, err := newPolarStereographic(sr)
		if err != nil {
			return nil, err
		}
		return finite(ps.inverse, c), nil
	}
	if sr.Name == "longlat" {
		return identity, nil
	}
	wgs84, err := Geographic.SR()
	if err != nil {
		return nil, err
	}
	t, err := sr.NewTransform(wgs84)
	if err != nil {
		return nil, fmt.Errorf("crs: creating transform from %s: %w", c, err)
	}
	return finite(t, c), nil
}

// FromGeographic returns a transform from WGS84 longitude/latitude
// degrees to c.
func (c CRS) FromGeographic() (proj.Transformer, error) {
	sr, err := c.SR()
	if err != nil {
		return nil, err
	}
	if isPolarStereographic(sr) {
		ps, err := newPolarStereographic(sr)
		if err != nil {
			return nil, err
		}
		return finite(ps.forward, c), nil
	}
	if sr.Name == "longlat" {
		return identity, nil
	}
	wgs84, err := Geographic.SR()
	if err != nil {
		return nil, err
	}
	t, err := wgs84.NewTransform(sr)
	if err != nil {
		return nil, fmt.Errorf("crs: creating transform to %s: %w", c, err)
	}
	return finite(t, c), nil
}

func identity(x, y float64) (float64, float64, error) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return x, y, fmt.Errorf("crs: invalid coordinate (%g, %g)", x, y)
	}
	return x, y, nil
}

// finite wraps t so that a transform that produces a non-finite coordinate
// returns an error instead.
func finite(t proj.Transformer, c CRS) proj.Transformer {
	return func(x, y float64) (float64, float64, error) {
		x2, y2, err := t(x, y)
		if err != nil {
			return x2, y2, err
		}
		if math.IsNaN(x2) || math.IsNaN(y2) || math.IsInf(x2, 0) || math.IsInf(y2, 0) {
			return x2, y2, fmt.Errorf("crs: transforming (%g, %g) with %s gave (%g, %g)", x, y, c, x2, y2)
		}
		return x2, y2, nil
	}
}
