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
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/spatialmodel/boxmethod/crs"
)

// ShapefileCRS returns the reference system of the shapefile at path,
// read from its .prj file. If there is no .prj file, fallback is
// returned, unless it is the zero CRS.
func ShapefileCRS(path string, fallback crs.CRS) (crs.CRS, error) {
	prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
	b, err := os.ReadFile(prj)
	if os.IsNotExist(err) {
		if fallback.IsZero() {
			return crs.CRS{}, fmt.Errorf("boxmethod: %s has no .prj file and no fallback reference system was given", path)
		}
		return fallback, nil
	} else if err != nil {
		return crs.CRS{}, fmt.Errorf("boxmethod: reading projection of %s: %w", path, err)
	}
	c, err := crs.Parse(string(b))
	if err != nil {
		return crs.CRS{}, fmt.Errorf("boxmethod: projection of %s: %w", path, err)
	}
	return c, nil
}

// readShapes returns the geometries of the first n records of the
// shapefile at path, or of all records if n < 0.
func readShapes(path string, n int) ([]geom.Geom, error) {
	f, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("boxmethod: opening shapefile %s: %w", path, err)
	}
	defer f.Close()
	var gs []geom.Geom
	for n < 0 || len(gs) < n {
		g, _, more := f.DecodeRowFields()
		if !more {
			break
		}
		gs = append(gs, g)
	}
	if err := f.Error(); err != nil {
		return nil, fmt.Errorf("boxmethod: reading shapefile %s: %w", path, err)
	}
	if len(gs) == 0 {
		return nil, fmt.Errorf("boxmethod: shapefile %s has no records", path)
	}
	return gs, nil
}

func toPolygon(g geom.Geom, c crs.CRS, path string) (Polygon, error) {
	pg, ok := g.(geom.Polygon)
	if !ok {
		return Polygon{}, fmt.Errorf("boxmethod: %s: geometry is %T, want a polygon", path, g)
	}
	p := Polygon{CRS: c}
	for _, r := range pg {
		p.Polygon = append(p.Polygon, NewPolygon(r, c).Ring())
	}
	return p, nil
}

// ReadBox reads the reference box from the first record of the polygon
// shapefile at path. Unclosed rings are closed. fallback is the reference
// system used if the shapefile has no .prj file.
func ReadBox(path string, fallback crs.CRS) (Polygon, error) {
	c, err := ShapefileCRS(path, fallback)
	if err != nil {
		return Polygon{}, err
	}
	gs, err := readShapes(path, 1)
	if err != nil {
		return Polygon{}, err
	}
	box, err := toPolygon(gs[0], c, path)
	if err != nil {
		return Polygon{}, err
	}
	if err := box.Validate(); err != nil {
		return Polygon{}, fmt.Errorf("%s: %w", path, err)
	}
	return box, nil
}

// ReadPolygons reads every record of the polygon shapefile at path.
func ReadPolygons(path string, fallback crs.CRS) ([]Polygon, error) {
	c, err := ShapefileCRS(path, fallback)
	if err != nil {
		return nil, err
	}
	gs, err := readShapes(path, -1)
	if err != nil {
		return nil, err
	}
	ps := make([]Polygon, 0, len(gs))
	for _, g := range gs {
		if g == nil {
			continue
		}
		p, err := toPolygon(g, c, path)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, nil
}

// ReadTransect reads the first record of the polyline shapefile at path.
func ReadTransect(path, name, date string, fallback crs.CRS) (Transect, error) {
	c, err := ShapefileCRS(path, fallback)
	if err != nil {
		return Transect{}, err
	}
	gs, err := readShapes(path, 1)
	if err != nil {
		return Transect{}, err
	}
	t := Transect{CRS: c, Name: name, Date: date}
	switch g := gs[0].(type) {
	case geom.MultiLineString:
		t.MultiLineString = g
	case geom.LineString:
		t.MultiLineString = geom.MultiLineString{g}
	default:
		return Transect{}, fmt.Errorf("boxmethod: %s: geometry is %T, want a polyline", path, gs[0])
	}
	return t, nil
}

// ReadTransects reads one transect per subdirectory of dir. Each
// subdirectory is named after the YYYYMMDD date of its transect, and the
// transect is the first record of the first shapefile in it, in lexical
// order. Transects are returned in directory order and named after their
// directory.
func ReadTransects(dir string, fallback crs.CRS) ([]Transect, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("boxmethod: listing transects: %w", err)
	}
	var ts []Transect
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		files, err := filepath.Glob(filepath.Join(dir, e.Name(), "*.shp"))
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("boxmethod: no shapefile in %s", filepath.Join(dir, e.Name()))
		}
		sort.Strings(files)
		t, err := ReadTransect(files[0], e.Name(), e.Name(), fallback)
		if err != nil {
			return nil, err
		}
		ts = append(ts, t)
	}
	if len(ts) == 0 {
		return nil, fmt.Errorf("boxmethod: no transect directories in %s: %w", dir, ErrNoTransects)
	}
	return ts, nil
}
