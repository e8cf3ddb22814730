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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/geom"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/boxmethod"
	"github.com/spatialmodel/boxmethod/crs"
	"github.com/spatialmodel/boxmethod/render"
	"github.com/spf13/cobra"
)

// RunRecord is written next to the outputs of a run as
// run_<glacier>.toml.
type RunRecord struct {
	Version      string
	Created      time.Time
	Config       RunConfig
	Observations int
	Duplicates   []string `toml:",omitempty"`
	Outputs      []string

	// Trend is missing when there are fewer than two observations.
	Trend *TrendRecord `toml:",omitempty"`
}

// TrendRecord is the least-squares linear trend of area change (km²)
// against decimal year.
type TrendRecord struct {
	Slope, Intercept, R2 float64
}

// Run computes the terminus change series of the glacier configured in
// cfg and writes it to the requested output formats.
// cmd is the command that is running; its output receives the log and
// a summary table.
func Run(cmd *cobra.Command, cfg *RunConfig) error {
	if err := os.MkdirAll(cfg.OutputDir, os.ModePerm); err != nil {
		return fmt.Errorf("boxutil: creating output directory: %v", err)
	}
	logfile, err := os.Create(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("boxutil: problem creating log file: %v", err)
	}
	defer logfile.Close()

	log := logrus.New()
	log.SetOutput(io.MultiWriter(cmd.OutOrStdout(), logfile))
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableSorting:  true,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	log.Infof("reading reference box %s", cfg.BoxFile)
	box, err := boxmethod.ReadBox(cfg.BoxFile, cfg.ShapefileCRS)
	if err != nil {
		return err
	}
	log.Infof("reading calving front positions in %s", cfg.LinesDir)
	transects, err := boxmethod.ReadTransects(cfg.LinesDir, cfg.ShapefileCRS)
	if err != nil {
		return err
	}
	log.Infof("processing %d calving front positions", len(transects))
	ts, err := boxmethod.Build(ctx, box, transects,
		boxmethod.WithLogger(log), boxmethod.WithWorkers(cfg.Workers))
	if err != nil {
		return err
	}

	outputs, err := writeOutputs(cfg, box, ts)
	if err != nil {
		return err
	}
	for _, o := range outputs {
		log.Infof("wrote %s", o)
	}

	if err := printSummary(cmd.OutOrStdout(), ts); err != nil {
		return err
	}

	rec := &RunRecord{
		Version:      boxmethod.Version,
		Created:      time.Now().UTC().Truncate(time.Second),
		Config:       *cfg,
		Observations: ts.Len(),
		Duplicates:   ts.Duplicates(),
		Outputs:      outputs,
	}
	if slope, intercept, r2, err := ts.Trend(); err == nil {
		rec.Trend = &TrendRecord{Slope: slope, Intercept: intercept, R2: r2}
		log.Infof("trend: %.3f km²/year (r² = %.3f)", slope, r2)
	}
	recordFile := filepath.Join(cfg.OutputDir, "run_"+cfg.Glacier+".toml")
	if err := WriteRunRecord(recordFile, rec); err != nil {
		return err
	}
	log.Infof("wrote %s", recordFile)
	return nil
}

// writeOutputs writes ts in every format requested by cfg and returns the
// paths of the files written. The files are staged in a temporary
// directory and moved into the output directory only after every format
// has been written, so a failed run leaves no partial set of outputs.
func writeOutputs(cfg *RunConfig, box boxmethod.Polygon, ts *boxmethod.TimeSeries) ([]string, error) {
	staging, err := os.MkdirTemp(cfg.OutputDir, ".boxmethod-")
	if err != nil {
		return nil, fmt.Errorf("boxutil: creating staging directory: %v", err)
	}
	defer os.RemoveAll(staging)

	var outputs []string
	name := func(prefix, ext string) string {
		f := prefix + cfg.Glacier + ext
		outputs = append(outputs, filepath.Join(cfg.OutputDir, f))
		return filepath.Join(staging, f)
	}
	for _, f := range cfg.Formats {
		var err error
		switch f {
		case "txt":
			err = writeTableFile(name("terminus_change_", ".txt"), ts)
		case "shp":
			err = boxmethod.WriteRetainedShapefile(name("retained_", ".shp"), ts, box.CRS)
		case "png":
			err = render.OverviewFile(name("OVERVIEW_", ".png"), cfg.Glacier, box, ts, cfg.RenderOptions())
		case "xlsx":
			err = boxmethod.WriteExcel(name("terminus_change_", ".xlsx"), ts)
		case "parquet":
			err = boxmethod.WriteParquet(name("terminus_change_", ".parquet"), ts)
		default:
			err = fmt.Errorf("boxutil: invalid output format '%s'", f)
		}
		if err != nil {
			return nil, err
		}
	}

	// Shapefiles come with sidecar files, so move everything staged.
	entries, err := os.ReadDir(staging)
	if err != nil {
		return nil, fmt.Errorf("boxutil: listing staged outputs: %v", err)
	}
	for _, e := range entries {
		if err := os.Rename(filepath.Join(staging, e.Name()), filepath.Join(cfg.OutputDir, e.Name())); err != nil {
			return nil, fmt.Errorf("boxutil: moving output into place: %v", err)
		}
	}
	return outputs, nil
}

func writeTableFile(path string, ts *boxmethod.TimeSeries) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("boxutil: creating table: %v", err)
	}
	if err := boxmethod.WriteTable(f, ts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// printSummary prints one row per observation of ts using the
// tablewriter API.
func printSummary(w io.Writer, ts *boxmethod.TimeSeries) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Date", "Decimal year", "Area change (km²)"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, o := range ts.Observations {
		data = append(data, []string{
			o.Date.String(),
			strconv.FormatFloat(o.Date.DecimalYear, 'f', 3, 64),
			strconv.FormatFloat(o.AreaChange, 'f', 3, 64),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// WriteRunRecord encodes rec as TOML to path.
func WriteRunRecord(path string, rec *RunRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("boxutil: creating run record: %v", err)
	}
	if err := toml.NewEncoder(f).Encode(rec); err != nil {
		f.Close()
		return fmt.Errorf("boxutil: writing run record: %v", err)
	}
	return f.Close()
}

// ReadRunRecord decodes the run record at path.
func ReadRunRecord(path string) (*RunRecord, error) {
	rec := new(RunRecord)
	if _, err := toml.DecodeFile(path, rec); err != nil {
		return nil, fmt.Errorf("boxutil: reading run record: %v", err)
	}
	return rec, nil
}

// Area prints the geodetic area in km² of every polygon record in the
// shapefile at path.
func Area(cmd *cobra.Command, path string, fallback crs.CRS) error {
	polys, err := boxmethod.ReadPolygons(path, fallback)
	if err != nil {
		return err
	}
	if len(polys) == 0 {
		return fmt.Errorf("boxutil: no polygons in %s", path)
	}
	toGeo, err := polys[0].CRS.ToGeographic()
	if err != nil {
		return err
	}
	for i, p := range polys {
		g, err := p.Polygon.Transform(toGeo)
		if err != nil {
			return &boxmethod.ProjectionError{Reason: fmt.Sprintf("record %d", i), Err: err}
		}
		a, err := boxmethod.GeodeticArea(g.(geom.Polygon))
		if err != nil {
			return fmt.Errorf("boxutil: record %d: %w", i, err)
		}
		cmd.Printf("%d\t%.6f\n", i, a/1e6)
	}
	return nil
}
