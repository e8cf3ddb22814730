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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spatialmodel/boxmethod/crs"
	"github.com/spatialmodel/boxmethod/render"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gonum.org/v1/plot/vg"
)

// Formats lists the output formats that run can write.
var Formats = []string{"txt", "shp", "png", "xlsx", "parquet"}

// RunConfig holds the checked configuration of a run.
type RunConfig struct {
	Glacier  string
	BoxFile  string
	LinesDir string

	// ShapefileCRS is used for shapefiles without a .prj file.
	ShapefileCRS crs.CRS

	OutputDir string
	LogFile   string
	Formats   []string
	Workers   int

	LineWidth  float64 // points
	PlotWidth  float64 // inches
	PlotHeight float64 // inches
}

// LoadRunConfig reads the run configuration from cfg, fills in default
// paths, expands environment variables and checks the values.
func LoadRunConfig(cfg *viper.Viper) (*RunConfig, error) {
	c := &RunConfig{
		Glacier: cfg.GetString("Glacier"),
	}
	if c.Glacier == "" {
		return nil, fmt.Errorf("boxutil: you need to specify a glacier (for example: Glacier=\"Jakobshavn\")")
	}
	dir := os.ExpandEnv(cfg.GetString("Dir"))
	c.BoxFile = defaultPath(cfg.GetString("BoxFile"), filepath.Join(dir, "box", c.Glacier+".shp"))
	c.LinesDir = defaultPath(cfg.GetString("LinesDir"), filepath.Join(dir, "lines", c.Glacier))
	if _, err := os.Stat(c.BoxFile); err != nil {
		return nil, fmt.Errorf("boxutil: the BoxFile doesn't exist: %v", err)
	}
	if _, err := os.Stat(c.LinesDir); err != nil {
		return nil, fmt.Errorf("boxutil: the LinesDir doesn't exist: %v", err)
	}

	var err error
	if c.ShapefileCRS, err = checkCRS(cfg.Get("ShapefileCRS")); err != nil {
		return nil, err
	}

	c.OutputDir = os.ExpandEnv(cfg.GetString("OutputDir"))
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	c.LogFile = checkLogFile(cfg.GetString("LogFile"), c.OutputDir, c.Glacier)

	if c.Formats, err = checkFormats(cast.ToStringSlice(cfg.Get("Formats"))); err != nil {
		return nil, err
	}
	if c.Workers, err = cast.ToIntE(cfg.Get("Workers")); err != nil {
		return nil, fmt.Errorf("boxutil: invalid Workers: %v", err)
	}

	for _, v := range []struct {
		name string
		dst  *float64
	}{
		{"LineWidth", &c.LineWidth},
		{"PlotWidth", &c.PlotWidth},
		{"PlotHeight", &c.PlotHeight},
	} {
		f, err := cast.ToFloat64E(cfg.Get(v.name))
		if err != nil {
			return nil, fmt.Errorf("boxutil: invalid %s: %v", v.name, err)
		}
		if f <= 0 {
			return nil, fmt.Errorf("boxutil: %s must be positive but is %g", v.name, f)
		}
		*v.dst = f
	}
	return c, nil
}

// RenderOptions returns the overview figure options of c.
func (c *RunConfig) RenderOptions() render.Options {
	o := render.DefaultOptions()
	o.Width = vg.Length(c.PlotWidth) * vg.Inch
	o.Height = vg.Length(c.PlotHeight) * vg.Inch
	o.LineWidth = vg.Points(c.LineWidth)
	return o
}

// wants reports whether format f was requested.
func (c *RunConfig) wants(f string) bool {
	for _, ff := range c.Formats {
		if ff == f {
			return true
		}
	}
	return false
}

// defaultPath expands the environment variables in p, or returns def if p
// is blank.
func defaultPath(p, def string) string {
	if p == "" {
		return def
	}
	return os.ExpandEnv(p)
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified.
func checkLogFile(logFile, outputDir, glacier string) string {
	if logFile == "" {
		return filepath.Join(outputDir, "boxmethod_"+glacier+".log")
	}
	return os.ExpandEnv(logFile)
}

// checkFormats normalizes the requested output formats. Entries may
// themselves be comma- or space-separated lists, as they are when set
// through an environment variable.
func checkFormats(formats []string) ([]string, error) {
	var o []string
	seen := make(map[string]bool)
	for _, s := range formats {
		for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
			f = strings.ToLower(strings.TrimPrefix(f, "."))
			if !validFormat(f) {
				return nil, fmt.Errorf("boxutil: invalid output format '%s'; acceptable values are %s",
					f, strings.Join(Formats, ", "))
			}
			if !seen[f] {
				seen[f] = true
				o = append(o, f)
			}
		}
	}
	if len(o) == 0 {
		return nil, fmt.Errorf("boxutil: no output formats specified")
	}
	return o, nil
}

func validFormat(f string) bool {
	for _, ff := range Formats {
		if f == ff {
			return true
		}
	}
	return false
}
