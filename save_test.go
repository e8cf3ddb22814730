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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/kr/pretty"
	"github.com/parquet-go/parquet-go"
	"github.com/tealeg/xlsx"
)

func testSeries(t *testing.T) *TimeSeries {
	t.Helper()
	ts, err := Build(context.Background(), testBox(), []Transect{
		front("20180101", 4500),
		front("20180701", 4200),
		front("20190101", 4000),
		front("20200101", 3500),
	})
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestWriteTable(t *testing.T) {
	ts := &TimeSeries{Observations: []Observation{
		{Date: Date{DecimalYear: 2018}, AreaChange: 0},
		{Date: Date{DecimalYear: 2019.5}, AreaChange: -1.25},
		{Date: Date{DecimalYear: 2020.0004}, AreaChange: -12.3456},
	}}
	var b bytes.Buffer
	if err := WriteTable(&b, ts); err != nil {
		t.Fatal(err)
	}
	want := "# date (year) area (km^2)\n" +
		"  2018.000\t     0.000\n" +
		"  2019.500\t    -1.250\n" +
		"  2020.000\t   -12.346\n"
	if b.String() != want {
		t.Errorf("table = %q, want %q", b.String(), want)
	}
}

func TestWriteRetainedShapefile(t *testing.T) {
	ts := testSeries(t)
	path := filepath.Join(t.TempDir(), "retained_test.shp")
	if err := WriteRetainedShapefile(path, ts, planar); err != nil {
		t.Fatal(err)
	}
	prj, err := os.ReadFile(filepath.Join(filepath.Dir(path), "retained_test.prj"))
	if err != nil {
		t.Fatal(err)
	}
	if string(prj) != planar.Def {
		t.Errorf("prj = %s", prj)
	}

	d, err := shp.NewDecoder(path)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	i := 0
	for {
		g, fields, more := d.DecodeRowFields("Date", "DecYear", "AreaKm2")
		if !more {
			break
		}
		o := ts.Observations[i]
		if fields["Date"] != o.Date.String() {
			t.Errorf("%d: date = %s, want %s", i, fields["Date"], o.Date)
		}
		dy, err := strconv.ParseFloat(fields["DecYear"], 64)
		if err != nil {
			t.Fatal(err)
		}
		if different(dy, o.Date.DecimalYear, 1e-8) {
			t.Errorf("%d: decimal year = %g, want %g", i, dy, o.Date.DecimalYear)
		}
		if different(g.(geom.Polygon).Area(), o.Retained.Area(), 1e-12) {
			t.Errorf("%d: area = %g, want %g", i, g.(geom.Polygon).Area(), o.Retained.Area())
		}
		i++
	}
	if err := d.Error(); err != nil {
		t.Fatal(err)
	}
	if i != ts.Len() {
		t.Errorf("read %d records, want %d", i, ts.Len())
	}
}

func TestWriteExcel(t *testing.T) {
	ts := testSeries(t)
	path := filepath.Join(t.TempDir(), "series.xlsx")
	if err := WriteExcel(path, ts); err != nil {
		t.Fatal(err)
	}
	f, err := xlsx.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	series, ok := f.Sheet["series"]
	if !ok {
		t.Fatal("missing series sheet")
	}
	if len(series.Rows) != ts.Len()+1 {
		t.Errorf("series has %d rows, want %d", len(series.Rows), ts.Len()+1)
	}
	if v := series.Rows[2].Cells[1].Value; v != "20180701" {
		t.Errorf("second date = %q", v)
	}
	yearly, ok := f.Sheet["yearly"]
	if !ok {
		t.Fatal("missing yearly sheet")
	}
	// 2018, 2019, 2020 plus the header.
	if len(yearly.Rows) != 4 {
		t.Errorf("yearly has %d rows, want 4", len(yearly.Rows))
	}
	var years []string
	for _, r := range yearly.Rows[1:] {
		years = append(years, r.Cells[0].Value)
	}
	if want := []string{"2018", "2019", "2020"}; pretty.Diff(years, want) != nil {
		t.Errorf("years: %v", pretty.Diff(years, want))
	}
}

func TestWriteParquet(t *testing.T) {
	ts := testSeries(t)
	path := filepath.Join(t.TempDir(), "series.parquet")
	if err := WriteParquet(path, ts); err != nil {
		t.Fatal(err)
	}
	recs, err := parquet.ReadFile[ParquetRecord](path)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != ts.Len() {
		t.Fatalf("read %d records, want %d", len(recs), ts.Len())
	}
	for i, r := range recs {
		o := ts.Observations[i]
		want := ParquetRecord{
			Name:        o.Name,
			Date:        o.Date.String(),
			DecimalYear: o.Date.DecimalYear,
			AreaChange:  o.AreaChange,
			RawArea:     o.RawArea,
			Year:        int32(o.Date.Year()),
		}
		if r != want {
			t.Errorf("record %d: %v", i, pretty.Diff(r, want))
		}
	}
}
