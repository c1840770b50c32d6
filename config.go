/*
 * config.go, part of gorbital.
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
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the numeric tolerances, limits and defaults consumed by the
// core. All of them can be set from a TOML file with LoadConfig; the keys are
// given in the struct tags.
type Config struct {
	CoefficientThreshold float64 `toml:"coefficient_threshold"` //coefficients with smaller absolute value are skipped
	OccupationThreshold  float64 `toml:"occupation_threshold"`  //orbitals with smaller absolute occupation don't contribute to densities
	MinAtomicNumber      int     `toml:"min_atomic_number"`
	MaxAtomicNumber      int     `toml:"max_atomic_number"`
	GridPoints           int     `toml:"grid_points"`    //maximum points along the longest box edge
	GridClearance        float64 `toml:"grid_clearance"` //bohr added on each side of the molecule
	PollRows             int     `toml:"poll_rows"`      //rows evaluated between cancellation checks
	Workers              int     `toml:"workers"`        //0 means runtime.GOMAXPROCS
	ScratchDir           string  `toml:"scratch_dir"`
	PersistCache         bool    `toml:"persist_cache"`
	ElectronTolerance    float64 `toml:"electron_tolerance"`
	MaxGridValues        int     `toml:"max_grid_values"` //largest number of values a grid file may declare, over all its grids
	MaxAtoms             int     `toml:"max_atoms"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		CoefficientThreshold: 2.220446049250313e-16, //machine epsilon
		OccupationThreshold:  2.220446049250313e-16,
		MinAtomicNumber:      0,
		MaxAtomicNumber:      MaxZ,
		GridPoints:           30,
		GridClearance:        4.0,
		PollRows:             16,
		Workers:              0,
		ScratchDir:           "",
		PersistCache:         false,
		ElectronTolerance:    1e-3,
		MaxGridValues:        1 << 28,
		MaxAtoms:             100000,
	}
}

// LoadConfig reads a TOML file on top of the default values, and validates
// the result.
func LoadConfig(filename string) (Config, error) {
	conf := DefaultConfig()
	cont, err := os.ReadFile(filename)
	if err != nil {
		return conf, err
	}
	if err = toml.Unmarshal(cont, &conf); err != nil {
		return conf, fmt.Errorf("config %s: %w", filename, err)
	}
	if err = conf.Validate(); err != nil {
		return conf, fmt.Errorf("config %s: %w", filename, err)
	}
	return conf, nil
}

// Validate checks that the values are usable.
func (C Config) Validate() error {
	switch {
	case C.CoefficientThreshold < 0 || C.OccupationThreshold < 0:
		return fmt.Errorf("thresholds can't be negative")
	case C.MinAtomicNumber < 0 || C.MaxAtomicNumber > MaxZ || C.MinAtomicNumber > C.MaxAtomicNumber:
		return fmt.Errorf("atomic number range [%d, %d] not within [0, %d]", C.MinAtomicNumber, C.MaxAtomicNumber, MaxZ)
	case C.GridPoints < 2:
		return fmt.Errorf("grid_points must be at least 2, got %d", C.GridPoints)
	case C.GridClearance < 0:
		return fmt.Errorf("grid_clearance can't be negative")
	case C.PollRows < 1:
		return fmt.Errorf("poll_rows must be positive")
	case C.Workers < 0:
		return fmt.Errorf("workers can't be negative")
	case C.MaxGridValues < 1 || C.MaxAtoms < 1:
		return fmt.Errorf("max_grid_values and max_atoms must be positive")
	case C.PersistCache && C.ScratchDir == "":
		return fmt.Errorf("persist_cache requires scratch_dir")
	}
	return nil
}

// CheckZ returns an error if Z is outside the configured range.
func (C Config) CheckZ(Z int) error {
	if Z < C.MinAtomicNumber || Z > C.MaxAtomicNumber {
		return fmt.Errorf("atomic number %d outside the supported range [%d, %d]", Z, C.MinAtomicNumber, C.MaxAtomicNumber)
	}
	return nil
}

// CheckAtoms returns an error if n is not a usable number of atoms.
func (C Config) CheckAtoms(n int) error {
	if n < 0 || n > C.MaxAtoms {
		return fmt.Errorf("%d atoms, the limit is %d", n, C.MaxAtoms)
	}
	return nil
}

// CheckGrid returns the number of values in nfields grids with the given
// point counts. It fails if a count is not positive or if the total is
// above MaxGridValues.
func (C Config) CheckGrid(nfields int, counts [3]int) (int, error) {
	if nfields < 1 {
		return 0, fmt.Errorf("invalid number of grids %d", nfields)
	}
	total := nfields
	for _, c := range counts {
		if c < 1 {
			return 0, fmt.Errorf("invalid grid size %v", counts)
		}
		if total > C.MaxGridValues/c {
			return 0, fmt.Errorf("%d grids of %v points exceed the limit of %d values", nfields, counts, C.MaxGridValues)
		}
		total *= c
	}
	if total > C.MaxGridValues {
		return 0, fmt.Errorf("%d grids of %v points exceed the limit of %d values", nfields, counts, C.MaxGridValues)
	}
	return total, nil
}
