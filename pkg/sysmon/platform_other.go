// Copyright (C) 2026 Prairie Dog Brewing
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

//go:build !linux
// +build !linux

package sysmon

import "errors"

// DiskUsage is only implemented for the linux boards the daemon
// deploys to; elsewhere the status page omits disk numbers.
func DiskUsage(path string) (total, free, used uint64, err error) {
	return 0, 0, 0, errors.New("disk usage not supported on this platform")
}
