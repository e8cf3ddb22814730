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

// Package render draws overview figures of terminus change series.
package render

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/boxmethod"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Options sets the size and style of an overview figure.
type Options struct {
	Width, Height vg.Length

	// LineWidth is the width of the terminus outlines.
	LineWidth vg.Length

	// DPI is the resolution of the output image.
	DPI int
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Width:     6 * vg.Inch,
		Height:    8 * vg.Inch,
		LineWidth: vg.Points(1),
		DPI:       150,
	}
}

const colorBarWidth = 0.9 * vg.Inch

var boxColor = color.NRGBA{A: 255}
var yearLineColor = color.NRGBA{R: 128, G: 128, B: 128, A: 255}

// Overview draws an overview of ts as a PNG image to w. The top panel
// shows the reference box and the outline of every retained polygon in
// box coordinates, colored by decimal year. The bottom panel shows area
// change against time, with the observations of each calendar year
// joined by a gray line.
func Overview(w io.Writer, glacier string, box boxmethod.Polygon, ts *boxmethod.TimeSeries, o Options) error {
	if ts.Len() == 0 {
		return fmt.Errorf("render: empty series")
	}
	def := DefaultOptions()
	if o.Width <= 0 {
		o.Width = def.Width
	}
	if o.Height <= 0 {
		o.Height = def.Height
	}
	if o.LineWidth <= 0 {
		o.LineWidth = def.LineWidth
	}
	if o.DPI <= 0 {
		o.DPI = def.DPI
	}

	cm := yearColors(ts)
	mapPlot, err := mapPanel(box, ts, cm, o)
	if err != nil {
		return err
	}
	mapPlot.Title.Text = fmt.Sprintf("%s | %d calving front positions", glacier, ts.Len())
	seriesPlot, err := seriesPanel(ts, cm)
	if err != nil {
		return err
	}
	legend := plot.New()
	legend.Add(&plotter.ColorBar{ColorMap: cm, Vertical: true})
	legend.HideX()
	legend.Y.Label.Text = "year"
	legend.Y.Padding = 0

	img := vgimg.NewWith(vgimg.UseWH(o.Width, o.Height), vgimg.UseDPI(o.DPI))
	c := draw.New(img)
	half := o.Height / 2
	mapPlot.Draw(draw.Crop(c, 0, -colorBarWidth, half, 0))
	legend.Draw(draw.Crop(c, o.Width-colorBarWidth+vg.Points(10), -vg.Points(10), half+vg.Points(30), -vg.Points(30)))
	seriesPlot.Draw(draw.Crop(c, 0, -colorBarWidth, 0, -half))

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("render: writing image: %w", err)
	}
	return nil
}

// OverviewFile draws an overview of ts to the PNG file at path.
func OverviewFile(path, glacier string, box boxmethod.Polygon, ts *boxmethod.TimeSeries, o Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := Overview(f, glacier, box, ts, o); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// yearColors returns a color map spanning the decimal years of ts.
func yearColors(ts *boxmethod.TimeSeries) palette.ColorMap {
	cm := moreland.ExtendedBlackBody()
	dy := ts.DecimalYears()
	lo, hi := dy[0], dy[len(dy)-1]
	if hi <= lo {
		hi = lo + 1
	}
	cm.SetMin(lo)
	cm.SetMax(hi)
	return cm
}

func ringXYs(r []geom.Point) plotter.XYs {
	xy := make(plotter.XYs, len(r))
	for i, p := range r {
		xy[i].X = p.X / 1000
		xy[i].Y = p.Y / 1000
	}
	return xy
}

func mapPanel(box boxmethod.Polygon, ts *boxmethod.TimeSeries, cm palette.ColorMap, o Options) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "x (km)"
	p.Y.Label.Text = "y (km)"

	for _, obs := range ts.Observations {
		c, err := cm.At(obs.Date.DecimalYear)
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		l, err := plotter.NewLine(ringXYs(obs.Retained.Ring()))
		if err != nil {
			return nil, fmt.Errorf("render: %s: %w", obs.Name, err)
		}
		l.Color = c
		l.Width = o.LineWidth
		p.Add(l)
	}
	outline, err := plotter.NewLine(ringXYs(box.Ring()))
	if err != nil {
		return nil, fmt.Errorf("render: box: %w", err)
	}
	outline.Color = boxColor
	outline.Width = 2 * o.LineWidth
	p.Add(outline)

	// Keep the map undistorted.
	b := box.Bounds()
	dx, dy := (b.Max.X-b.Min.X)/1000, (b.Max.Y-b.Min.Y)/1000
	side := math.Max(dx, dy) * 1.05
	cx, cy := (b.Min.X+b.Max.X)/2000, (b.Min.Y+b.Max.Y)/2000
	p.X.Min, p.X.Max = cx-side/2, cx+side/2
	p.Y.Min, p.Y.Max = cy-side/2, cy+side/2
	return p, nil
}

func seriesPanel(ts *boxmethod.TimeSeries, cm palette.ColorMap) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "year"
	p.Y.Label.Text = "area change (km²)"
	p.Add(plotter.NewGrid())

	for _, g := range boxmethod.GroupByYear(ts) {
		if len(g.Observations) < 2 {
			continue
		}
		xy := make(plotter.XYs, len(g.Observations))
		for i, obs := range g.Observations {
			xy[i].X = obs.Date.DecimalYear
			xy[i].Y = obs.AreaChange
		}
		l, err := plotter.NewLine(xy)
		if err != nil {
			return nil, fmt.Errorf("render: %d: %w", g.Year, err)
		}
		l.Color = yearLineColor
		p.Add(l)
	}

	xy := make(plotter.XYs, ts.Len())
	for i, obs := range ts.Observations {
		xy[i].X = obs.Date.DecimalYear
		xy[i].Y = obs.AreaChange
	}
	s, err := plotter.NewScatter(xy)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		gs := s.GlyphStyle
		gs.Shape = draw.CircleGlyph{}
		if c, err := cm.At(xy[i].X); err == nil {
			gs.Color = c
		}
		return gs
	}
	p.Add(s)
	return p, nil
}
