//go:build !hdf5

/*
 * formats/container/nohdf5.go, part of gorbital.
 *
 * Copyright 2026 The gorbital authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */


package container

// HDF5 reports whether the package was built with HDF5 support.
const HDF5 = false

func readHDF5(path string) (*Document, error) {
	return nil, ErrNoHDF5
}

func writeHDF5(path string, D *Document) error {
	return ErrNoHDF5
}
