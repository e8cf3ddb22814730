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
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"gonum.org/v1/plot/vg"
)

// testDataDir creates the box and lines layout of glacier under a
// temporary directory and returns the directory.
func testDataDir(t *testing.T, glacier string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "box"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "lines", glacier), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "box", glacier+".shp"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func testViper(dir string) *viper.Viper {
	cfg := viper.New()
	cfg.Set("Glacier", "Helheim")
	cfg.Set("Dir", dir)
	cfg.Set("ShapefileCRS", 3413)
	cfg.Set("OutputDir", filepath.Join(dir, "out"))
	cfg.Set("Formats", []string{"txt", "png"})
	cfg.Set("Workers", "4")
	cfg.Set("LineWidth", 1.5)
	cfg.Set("PlotWidth", 6.0)
	cfg.Set("PlotHeight", "8")
	return cfg
}

func TestLoadRunConfig(t *testing.T) {
	dir := testDataDir(t, "Helheim")
	c, err := LoadRunConfig(testViper(dir))
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "box", "Helheim.shp"); c.BoxFile != want {
		t.Errorf("BoxFile = %s, want %s", c.BoxFile, want)
	}
	if want := filepath.Join(dir, "lines", "Helheim"); c.LinesDir != want {
		t.Errorf("LinesDir = %s, want %s", c.LinesDir, want)
	}
	if c.ShapefileCRS.Code != "EPSG:3413" {
		t.Errorf("ShapefileCRS = %s", c.ShapefileCRS)
	}
	if want := filepath.Join(dir, "out", "boxmethod_Helheim.log"); c.LogFile != want {
		t.Errorf("LogFile = %s, want %s", c.LogFile, want)
	}
	if want := []string{"txt", "png"}; !reflect.DeepEqual(c.Formats, want) {
		t.Errorf("Formats = %v, want %v", c.Formats, want)
	}
	if c.Workers != 4 {
		t.Errorf("Workers = %d", c.Workers)
	}
	if c.LineWidth != 1.5 || c.PlotWidth != 6 || c.PlotHeight != 8 {
		t.Errorf("plot options = %g, %g, %g", c.LineWidth, c.PlotWidth, c.PlotHeight)
	}
	o := c.RenderOptions()
	if o.Width != 6*vg.Inch || o.Height != 8*vg.Inch || o.LineWidth != vg.Points(1.5) {
		t.Errorf("render options = %+v", o)
	}
}

func TestLoadRunConfigExpandEnv(t *testing.T) {
	dir := testDataDir(t, "Helheim")
	t.Setenv("BOXMETHOD_TEST_DIR", dir)
	cfg := testViper("${BOXMETHOD_TEST_DIR}")
	cfg.Set("BoxFile", "${BOXMETHOD_TEST_DIR}/box/Helheim.shp")
	cfg.Set("LogFile", "${BOXMETHOD_TEST_DIR}/run.log")
	c, err := LoadRunConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if want := dir + "/box/Helheim.shp"; c.BoxFile != want {
		t.Errorf("BoxFile = %s, want %s", c.BoxFile, want)
	}
	if want := filepath.Join(dir, "lines", "Helheim"); c.LinesDir != want {
		t.Errorf("LinesDir = %s, want %s", c.LinesDir, want)
	}
	if want := dir + "/run.log"; c.LogFile != want {
		t.Errorf("LogFile = %s, want %s", c.LogFile, want)
	}
}

func TestLoadRunConfigErrors(t *testing.T) {
	dir := testDataDir(t, "Helheim")
	tests := []struct {
		name, key string
		val       interface{}
		msg       string
	}{
		{name: "no glacier", key: "Glacier", val: "", msg: "specify a glacier"},
		{name: "missing glacier", key: "Glacier", val: "Kangerlussuaq", msg: "BoxFile"},
		{name: "missing lines", key: "LinesDir", val: filepath.Join(dir, "nowhere"), msg: "LinesDir"},
		{name: "crs", key: "ShapefileCRS", val: "EPSG:1", msg: "ShapefileCRS"},
		{name: "format", key: "Formats", val: []string{"txt", "pdf"}, msg: "pdf"},
		{name: "no formats", key: "Formats", val: []string{}, msg: "no output formats"},
		{name: "workers", key: "Workers", val: "many", msg: "Workers"},
		{name: "width", key: "PlotWidth", val: -1.0, msg: "PlotWidth must be positive"},
		{name: "line width", key: "LineWidth", val: 0, msg: "LineWidth must be positive"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := testViper(dir)
			cfg.Set(test.key, test.val)
			_, err := LoadRunConfig(cfg)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), test.msg) {
				t.Errorf("error %q does not mention %q", err, test.msg)
			}
		})
	}
}

func TestCheckFormats(t *testing.T) {
	tests := []struct {
		in, want []string
	}{
		{in: []string{"txt"}, want: []string{"txt"}},
		{in: []string{"txt,shp", "PNG"}, want: []string{"txt", "shp", "png"}},
		{in: []string{"xlsx parquet"}, want: []string{"xlsx", "parquet"}},
		{in: []string{".txt", "txt"}, want: []string{"txt"}},
	}
	for _, test := range tests {
		got, err := checkFormats(test.in)
		if err != nil {
			t.Errorf("%v: %v", test.in, err)
			continue
		}
		if !reflect.DeepEqual(got, test.want) {
			t.Errorf("%v: got %v, want %v", test.in, got, test.want)
		}
	}
}

func TestCheckCRS(t *testing.T) {
	for _, v := range []interface{}{3413, "3413", "EPSG:3413"} {
		c, err := checkCRS(v)
		if err != nil {
			t.Errorf("%v: %v", v, err)
			continue
		}
		if c.Code != "EPSG:3413" {
			t.Errorf("%v: code = %s", v, c.Code)
		}
	}
	if _, err := checkCRS(""); err == nil {
		t.Error("an empty reference system should be rejected")
	}
}

func TestConfigExample(t *testing.T) {
	dir := testDataDir(t, "Jakobshavn")
	t.Setenv("BOXMETHOD_DATA", dir)
	cfg := viper.New()
	cfg.SetConfigFile("../cmd/boxmethod/configExample.toml")
	if err := cfg.ReadInConfig(); err != nil {
		t.Fatal(err)
	}
	c, err := LoadRunConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "box", "Jakobshavn.shp"); c.BoxFile != want {
		t.Errorf("BoxFile = %s, want %s", c.BoxFile, want)
	}
	if want := dir + "/output"; c.OutputDir != want {
		t.Errorf("OutputDir = %s, want %s", c.OutputDir, want)
	}
	if want := []string{"txt", "shp", "png", "xlsx"}; !reflect.DeepEqual(c.Formats, want) {
		t.Errorf("Formats = %v, want %v", c.Formats, want)
	}
	if c.ShapefileCRS.Code != "EPSG:3413" || c.Workers != 0 {
		t.Errorf("config = %+v", c)
	}
}
