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

// Package boxmethod quantifies glacier terminus change with the rectilinear
// box method. A fixed reference polygon (the box) bounding the ablation zone
// is bisected by dated calving-front lines (transects). The geodetic area of
// the retained part of the box on each date forms a time series of area
// change.
package boxmethod

// Version gives the version number.
const Version = "1.0.0"
