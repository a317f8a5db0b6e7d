/*
Copyright © 2024 the GGS authors.
This file is part of GGS.

GGS is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

GGS is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with GGS.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command ggs is a command-line interface for the Glider Guidance System.
package main

import (
	"os"

	"github.com/gliderguidance/ggs/ggsutil"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := ggsutil.Root.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
