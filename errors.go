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
	"errors"
	"fmt"

	"github.com/spatialmodel/boxmethod/crs"
)

// ErrNoTransects is returned by Build when it is given no transects.
var ErrNoTransects = errors.New("boxmethod: no transects")

// FormatError is returned when a date string is not a valid
// eight-digit YYYYMMDD calendar date.
type FormatError struct {
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("boxmethod: invalid date %q: want YYYYMMDD", e.Value)
}

// GeometryError is returned when a transect does not split the
// reference box into exactly two parts, or when the box itself is
// not a valid polygon.
type GeometryError struct {
	Transect string
	Reason   string
}

func (e *GeometryError) Error() string {
	if e.Transect == "" {
		return "boxmethod: " + e.Reason
	}
	return fmt.Sprintf("boxmethod: transect %s: %s", e.Transect, e.Reason)
}

// ProjectionError is returned when an equal-area projection cannot be
// constructed or applied for a polygon.
type ProjectionError struct {
	Reason string
	Err    error
}

func (e *ProjectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("boxmethod: projection: %s: %v", e.Reason, e.Err)
	}
	return "boxmethod: projection: " + e.Reason
}

func (e *ProjectionError) Unwrap() error { return e.Err }

// CRSMismatchError is returned when a transect and the reference box
// are tagged with different coordinate reference systems.
type CRSMismatchError struct {
	Name          string
	Box, Transect crs.CRS
}

func (e *CRSMismatchError) Error() string {
	return fmt.Sprintf("boxmethod: transect %s is in %s but the box is in %s", e.Name, e.Transect, e.Box)
}
