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

package boxutil

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/spatialmodel/boxmethod"
	"github.com/spatialmodel/boxmethod/crs"
)

const testCRS = "+proj=aea +lat_1=60 +lat_2=70 +lat_0=65 +lon_0=-45 +ellps=WGS84 +datum=WGS84 +units=m +no_defs"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var b bytes.Buffer
	Root.SetOut(&b)
	Root.SetErr(&b)
	Root.SetArgs(args)
	err := Root.Execute()
	return b.String(), err
}

func writePrj(t *testing.T, path string) {
	t.Helper()
	prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
	if err := os.WriteFile(prj, []byte(testCRS), 0644); err != nil {
		t.Fatal(err)
	}
}

// writeGlacier writes a 2 km by 5 km reference box and one calving front
// per entry of fronts, keyed by date, in the directory layout read by run.
func writeGlacier(t *testing.T, dir, glacier string, fronts map[string]float64) {
	t.Helper()
	type boxHolder struct {
		geom.Polygon
	}
	type lineHolder struct {
		geom.MultiLineString
	}
	boxFile := filepath.Join(dir, "box", glacier+".shp")
	if err := os.MkdirAll(filepath.Dir(boxFile), 0755); err != nil {
		t.Fatal(err)
	}
	e, err := shp.NewEncoder(boxFile, boxHolder{})
	if err != nil {
		t.Fatal(err)
	}
	ring := []geom.Point{{X: 0, Y: 0}, {X: 2000, Y: 0}, {X: 2000, Y: 5000}, {X: 0, Y: 5000}, {X: 0, Y: 0}}
	if err := e.Encode(boxHolder{geom.Polygon{ring}}); err != nil {
		t.Fatal(err)
	}
	e.Close()
	writePrj(t, boxFile)

	for date, y := range fronts {
		f := filepath.Join(dir, "lines", glacier, date, "front.shp")
		if err := os.MkdirAll(filepath.Dir(f), 0755); err != nil {
			t.Fatal(err)
		}
		e, err := shp.NewEncoder(f, lineHolder{})
		if err != nil {
			t.Fatal(err)
		}
		line := geom.LineString{{X: -100, Y: y}, {X: 1000, Y: y + 1e-3}, {X: 2100, Y: y}}
		if err := e.Encode(lineHolder{geom.MultiLineString{line}}); err != nil {
			t.Fatal(err)
		}
		e.Close()
		writePrj(t, f)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if want := "boxmethod v" + boxmethod.Version + "\n"; out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestDecyear(t *testing.T) {
	out, err := execute(t, "decyear", "20190101", "20200301")
	if err != nil {
		t.Fatal(err)
	}
	want := "20190101\t2019.000000\n20200301\t2020.163934\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}

	_, err = execute(t, "decyear", "2020-03-01")
	var fe *boxmethod.FormatError
	if !errors.As(err, &fe) {
		t.Errorf("error = %v, want a FormatError", err)
	}
}

func TestArea(t *testing.T) {
	dir := t.TempDir()
	writeGlacier(t, dir, "Test", nil)
	out, err := execute(t, "area", filepath.Join(dir, "box", "Test.shp"))
	if err != nil {
		t.Fatal(err)
	}
	fields := strings.Fields(out)
	if len(fields) != 2 || fields[0] != "0" {
		t.Fatalf("unexpected output %q", out)
	}
	a, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(a-10)/10 > 1e-4 {
		t.Errorf("area = %g km², want 10 km²", a)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	writeGlacier(t, dir, "Test", map[string]float64{
		"20180101": 4500,
		"20190101": 4000,
		"20200101": 3500,
	})

	stdout, err := execute(t, "run",
		"--Glacier=Test",
		"--Dir="+dir,
		"--OutputDir="+out,
		"--Formats=txt,shp,png,xlsx,parquet",
		"--Workers=2",
	)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"20180101", "20190101", "20200101", "processing 3 calving front positions"} {
		if !strings.Contains(stdout, s) {
			t.Errorf("output does not contain %q:\n%s", s, stdout)
		}
	}

	for _, f := range []string{
		"terminus_change_Test.txt",
		"retained_Test.shp",
		"retained_Test.prj",
		"OVERVIEW_Test.png",
		"terminus_change_Test.xlsx",
		"terminus_change_Test.parquet",
		"boxmethod_Test.log",
	} {
		if _, err := os.Stat(filepath.Join(out, f)); err != nil {
			t.Errorf("missing output: %v", err)
		}
	}

	table, err := os.ReadFile(filepath.Join(out, "terminus_change_Test.txt"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(table)), "\n")
	if len(lines) != 4 || lines[0] != boxmethod.TableHeader {
		t.Fatalf("table:\n%s", table)
	}
	for i, want := range []float64{0, -1, -2} {
		f := strings.Fields(lines[i+1])
		v, err := strconv.ParseFloat(f[1], 64)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(v-want) > 0.002 {
			t.Errorf("row %d: area change = %g, want %g", i, v, want)
		}
	}

	rec, err := ReadRunRecord(filepath.Join(out, "run_Test.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if rec.Version != boxmethod.Version || rec.Observations != 3 || len(rec.Outputs) != 5 {
		t.Errorf("record = %+v", rec)
	}
	if rec.Config.Glacier != "Test" || rec.Config.Workers != 2 || rec.Config.ShapefileCRS.Code != "EPSG:3413" {
		t.Errorf("record config = %+v", rec.Config)
	}
	if rec.Trend == nil {
		t.Fatal("missing trend")
	}
	if math.Abs(rec.Trend.Slope+1) > 0.002 {
		t.Errorf("trend slope = %g km²/year, want -1", rec.Trend.Slope)
	}
}

func TestRunMissingLines(t *testing.T) {
	dir := t.TempDir()
	writeGlacier(t, dir, "Empty", nil)
	if err := os.MkdirAll(filepath.Join(dir, "lines", "Empty"), 0755); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "run", "--Glacier=Empty", "--Dir="+dir, "--OutputDir="+filepath.Join(dir, "out"))
	if !errors.Is(err, boxmethod.ErrNoTransects) {
		t.Errorf("error = %v, want %v", err, boxmethod.ErrNoTransects)
	}
}

func TestWriteOutputsAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	writeGlacier(t, dir, "Test", map[string]float64{
		"20180101": 4500,
		"20190101": 4000,
	})
	box, err := boxmethod.ReadBox(filepath.Join(dir, "box", "Test.shp"), crs.CRS{})
	if err != nil {
		t.Fatal(err)
	}
	transects, err := boxmethod.ReadTransects(filepath.Join(dir, "lines", "Test"), box.CRS)
	if err != nil {
		t.Fatal(err)
	}
	ts, err := boxmethod.Build(context.Background(), box, transects)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("failure", func(t *testing.T) {
		out := t.TempDir()
		cfg := &RunConfig{Glacier: "Test", OutputDir: out, Formats: []string{"txt", "shp", "pdf"}}
		if _, err := writeOutputs(cfg, box, ts); err == nil {
			t.Fatal("expected an error")
		}
		entries, err := os.ReadDir(out)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			t.Errorf("left behind %s", e.Name())
		}
	})

	t.Run("success", func(t *testing.T) {
		out := t.TempDir()
		cfg := &RunConfig{Glacier: "Test", OutputDir: out, Formats: []string{"txt", "shp"}}
		outputs, err := writeOutputs(cfg, box, ts)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{filepath.Join(out, "terminus_change_Test.txt"), filepath.Join(out, "retained_Test.shp")}
		if len(outputs) != len(want) || outputs[0] != want[0] || outputs[1] != want[1] {
			t.Errorf("outputs = %v, want %v", outputs, want)
		}
		for _, f := range []string{"terminus_change_Test.txt", "retained_Test.shp", "retained_Test.dbf", "retained_Test.prj"} {
			if _, err := os.Stat(filepath.Join(out, f)); err != nil {
				t.Errorf("missing output: %v", err)
			}
		}
		entries, err := os.ReadDir(out)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if e.IsDir() {
				t.Errorf("staging directory %s left behind", e.Name())
			}
		}
	})
}
