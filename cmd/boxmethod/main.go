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

// Command boxmethod measures glacier terminus change with the
// rectilinear box method.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/boxmethod/boxutil"
)

func main() {
	if err := boxutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
