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

// Package boxutil contains the command-line interface of boxmethod.
package boxutil

import (
	"fmt"
	"os"

	"github.com/spatialmodel/boxmethod"
	"github.com/spatialmodel/boxmethod/crs"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to boxmethod.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Glacier",
			usage: `
              Glacier is the name of the glacier to process. It selects the
              reference box <Dir>/box/<Glacier>.shp and the transect
              directory <Dir>/lines/<Glacier>, and it is used in the names
              of the output files.`,
			shorthand:  "g",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Dir",
			usage: `
              Dir is the data directory holding the box and lines
              subdirectories. It can include environment variables.`,
			shorthand:  "d",
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "BoxFile",
			usage: `
              BoxFile is the path to the reference box shapefile. If BoxFile is
              left blank, <Dir>/box/<Glacier>.shp is used. It can include
              environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LinesDir",
			usage: `
              LinesDir is the directory holding one YYYYMMDD subdirectory per
              calving front position. If LinesDir is left blank,
              <Dir>/lines/<Glacier> is used. It can include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ShapefileCRS",
			usage: `
              ShapefileCRS is the coordinate reference system of shapefiles
              that have no .prj file. It can be an EPSG code, a Proj4 string
              or a WKT definition.`,
			defaultVal: "3413",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), areaCmd.Flags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory the output files are written to. It
              is created if it does not exist. It can include environment variables.`,
			shorthand:  "o",
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can include
              environment variables. If LogFile is left blank, the logfile will be
              saved in OutputDir as boxmethod_<Glacier>.log.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Formats",
			usage: `
              Formats lists the outputs to write. Acceptable values are
              'txt', 'shp', 'png', 'xlsx' and 'parquet'.`,
			defaultVal: []string{"txt", "shp", "png"},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Workers",
			usage: `
              Workers is the number of transects processed at the same time.
              If Workers < 1, one worker per CPU is used.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LineWidth",
			usage: `
              LineWidth is the width in points of the terminus outlines in
              the overview figure.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "PlotWidth",
			usage: `
              PlotWidth is the width in inches of the overview figure.`,
			defaultVal: 6.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "PlotHeight",
			usage: `
              PlotHeight is the height in inches of the overview figure.`,
			defaultVal: 8.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("BOXMETHOD")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(decyearCmd)
	Root.AddCommand(areaCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("boxutil: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "boxmethod",
	Short: "Glacier terminus change with the rectilinear box method.",
	Long: `boxmethod measures glacier terminus change with the rectilinear box method.
A reference box drawn over the glacier front is split by each digitized
calving front, and the change in the area of the retained, upstream part of
the box is reported as a time series. Use the subcommands specified below to
access the functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'BOXMETHOD_var' where 'var'
is the name of the variable to be set. Path variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of boxmethod.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("boxmethod v%s\n", boxmethod.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd computes the terminus change series of one glacier.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute the terminus change series of a glacier.",
	Long: `run reads the reference box and the calving front positions of a
glacier, computes the area change of the retained part of the box on each
date, and writes the series in the formats listed in Formats.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadRunConfig(Cfg)
		if err != nil {
			return err
		}
		return Run(cmd, cfg)
	},
	DisableAutoGenTag: true,
}

// decyearCmd prints the decimal years of dates.
var decyearCmd = &cobra.Command{
	Use:   "decyear YYYYMMDD...",
	Short: "Print the decimal year of dates.",
	Long: `decyear prints the decimal year of each YYYYMMDD date given as an
argument, one per line.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, a := range args {
			d, err := boxmethod.ParseDate(a)
			if err != nil {
				return err
			}
			cmd.Printf("%s\t%.6f\n", d, d.DecimalYear)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

// areaCmd prints the geodetic area of the polygons in a shapefile.
var areaCmd = &cobra.Command{
	Use:   "area shapefile",
	Short: "Print the geodetic area of polygons.",
	Long: `area prints the geodetic area in km² of each polygon record of a
shapefile. The coordinate reference system is read from the .prj file next
to the shapefile, or from ShapefileCRS if there is none.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fallback, err := checkCRS(Cfg.Get("ShapefileCRS"))
		if err != nil {
			return err
		}
		return Area(cmd, os.ExpandEnv(args[0]), fallback)
	},
	DisableAutoGenTag: true,
}

// checkCRS interprets v, which may be an EPSG code given as a number or
// any definition accepted by crs.Parse.
func checkCRS(v interface{}) (crs.CRS, error) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return crs.CRS{}, fmt.Errorf("boxutil: invalid ShapefileCRS %v: %v", v, err)
	}
	c, err := crs.Parse(s)
	if err != nil {
		return crs.CRS{}, fmt.Errorf("boxutil: invalid ShapefileCRS: %w", err)
	}
	return c, nil
}
