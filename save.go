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
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/parquet-go/parquet-go"
	"github.com/spatialmodel/boxmethod/crs"
	"github.com/tealeg/xlsx"
)

// TableHeader is the first line of the text table written by WriteTable.
const TableHeader = "# date (year) area (km^2)"

// WriteTable writes ts as a tab-delimited text table: a header line
// followed by one row of decimal year and area change (km²) per
// observation, each with three decimals.
func WriteTable(w io.Writer, ts *TimeSeries) error {
	b := bufio.NewWriter(w)
	fmt.Fprintln(b, TableHeader)
	for _, o := range ts.Observations {
		fmt.Fprintf(b, "%10.3f\t%10.3f\n", o.Date.DecimalYear, o.AreaChange)
	}
	return b.Flush()
}

// WriteRetainedShapefile writes the retained polygon of every observation
// to the polygon shapefile at path, with the observation date, decimal
// year, area change (km²) and raw area (m²) as attributes. The reference
// system c is written to a .prj file next to it.
func WriteRetainedShapefile(path string, ts *TimeSeries, c crs.CRS) error {
	fileBase := strings.TrimSuffix(path, filepath.Ext(path))
	fields := []goshp.Field{
		goshp.StringField("Date", 8),
		goshp.FloatField("DecYear", 14, 8),
		goshp.FloatField("AreaKm2", 14, 8),
		goshp.FloatField("RawAreaM2", 20, 3),
	}
	s, err := shp.NewEncoderFromFields(fileBase+".shp", goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("boxmethod: creating retained shapefile: %w", err)
	}
	for _, o := range ts.Observations {
		err = s.EncodeFields(o.Retained.Polygon, o.Date.String(), o.Date.DecimalYear, o.AreaChange, o.RawArea)
		if err != nil {
			s.Close()
			return fmt.Errorf("boxmethod: writing retained shapefile: %w", err)
		}
	}
	s.Close()

	if c.IsZero() {
		return nil
	}
	if err := os.WriteFile(fileBase+".prj", []byte(c.Def), 0644); err != nil {
		return fmt.Errorf("boxmethod: writing retained shapefile projection: %w", err)
	}
	return nil
}

// WriteExcel writes ts to the spreadsheet at path. Sheet "series" holds
// one row per observation and sheet "yearly" one row per calendar year,
// as grouped by GroupByYear.
func WriteExcel(path string, ts *TimeSeries) error {
	f := xlsx.NewFile()
	series, err := f.AddSheet("series")
	if err != nil {
		return fmt.Errorf("boxmethod: %w", err)
	}
	addRow(series, "name", "date", "decimal year", "area change (km^2)", "raw area (m^2)")
	for _, o := range ts.Observations {
		row := series.AddRow()
		row.AddCell().SetString(o.Name)
		row.AddCell().SetString(o.Date.String())
		row.AddCell().SetFloat(o.Date.DecimalYear)
		row.AddCell().SetFloat(o.AreaChange)
		row.AddCell().SetFloat(o.RawArea)
	}

	yearly, err := f.AddSheet("yearly")
	if err != nil {
		return fmt.Errorf("boxmethod: %w", err)
	}
	addRow(yearly, "year", "observations", "mean area change (km^2)")
	for _, g := range GroupByYear(ts) {
		row := yearly.AddRow()
		row.AddCell().SetInt(g.Year)
		row.AddCell().SetInt(len(g.Observations))
		if len(g.Observations) > 0 {
			row.AddCell().SetFloat(g.Mean())
		}
	}
	if err := f.Save(path); err != nil {
		return fmt.Errorf("boxmethod: saving %s: %w", path, err)
	}
	return nil
}

func addRow(s *xlsx.Sheet, vals ...string) {
	row := s.AddRow()
	for _, v := range vals {
		row.AddCell().SetString(v)
	}
}

// ParquetRecord is one observation as stored by WriteParquet.
type ParquetRecord struct {
	Name        string  `parquet:"name,snappy"`
	Date        string  `parquet:"date,snappy"`
	DecimalYear float64 `parquet:"decimal_year,snappy"`
	AreaChange  float64 `parquet:"area_change_km2,snappy"`
	RawArea     float64 `parquet:"raw_area_m2,snappy"`
	Year        int32   `parquet:"year,snappy"`
}

// WriteParquet writes one record per observation to the parquet file
// at path.
func WriteParquet(path string, ts *TimeSeries) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("boxmethod: %w", err)
	}
	defer f.Close()
	recs := make([]ParquetRecord, len(ts.Observations))
	for i, o := range ts.Observations {
		recs[i] = ParquetRecord{
			Name:        o.Name,
			Date:        o.Date.String(),
			DecimalYear: o.Date.DecimalYear,
			AreaChange:  o.AreaChange,
			RawArea:     o.RawArea,
			Year:        int32(o.Date.Year()),
		}
	}
	w := parquet.NewGenericWriter[ParquetRecord](f)
	if _, err := w.Write(recs); err != nil {
		return fmt.Errorf("boxmethod: writing %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("boxmethod: writing %s: %w", path, err)
	}
	return f.Close()
}
