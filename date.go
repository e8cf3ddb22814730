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
	"regexp"
	"time"
)

var dateRE = regexp.MustCompile(`^[0-9]{8}$`)

// Date is an observation date together with its decimal year.
type Date struct {
	time.Time

	// DecimalYear is the year plus the elapsed fraction of it,
	// in [year, year+1).
	DecimalYear float64
}

// ParseDate parses an eight-digit YYYYMMDD string. It returns a
// *FormatError if s is not a real calendar date in that form.
func ParseDate(s string) (Date, error) {
	if !dateRE.MatchString(s) {
		return Date{}, &FormatError{Value: s}
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return Date{}, &FormatError{Value: s}
	}
	return Date{Time: t, DecimalYear: DecimalYear(t)}, nil
}

// DecimalYear returns the year of t plus the fraction of that year that
// has elapsed at t, measured in seconds so that leap years are accounted for.
func DecimalYear(t time.Time) float64 {
	t = t.UTC()
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	return float64(t.Year()) + t.Sub(start).Seconds()/end.Sub(start).Seconds()
}

// String returns the date in YYYYMMDD form.
func (d Date) String() string {
	return d.Format("20060102")
}
