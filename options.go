/*
 * options.go, part of gorbital.
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

package orb

import (
	"io"
	"log/slog"
)

// ReadOptions are the settings shared by all the readers.
type ReadOptions struct {
	//Companion is a wavefunction, normally read from a container file, that
	//provides the basis set and symmetry information that files with only
	//orbitals (InpOrb, Luscus) lack.
	Companion *Wavefunction
	Config    Config
	Logger    *slog.Logger //if nil, nothing is logged
}

// DefaultReadOptions returns options with the default configuration and
// no companion.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{Config: DefaultConfig()}
}

// Log returns the logger in the options, or one that discards everything.
func (R ReadOptions) Log() *slog.Logger {
	if R.Logger != nil {
		return R.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Conf returns the configuration in the options, or the default one if it
// was not set.
func (R ReadOptions) Conf() Config {
	if R.Config == (Config{}) {
		return DefaultConfig()
	}
	return R.Config
}
