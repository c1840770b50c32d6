//go:build hdf5

/*
 * formats/container/hdf5.go, part of gorbital.
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

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/hdf5"
)

// HDF5 reports whether the package was built with HDF5 support.
const HDF5 = true

// molcasAttrs are the root attributes read from HDF5 files, with the type
// they are read as. HDF5 offers no way to list attributes through the
// binding, so only these are known to a document.
var molcasAttrs = map[string]string{
	"MOLCAS_MODULE": "str",
	"ORBITAL_TYPE":  "str",
	"IRREP_LABELS":  "str",
	"TITLE":         "str",
	"NSYM":          "i64",
	"NBAS":          "i64",
	"NPRIM":         "i64",
	"NATOMS_UNIQUE": "i64",
	"NATOMS_ALL":    "i64",
	"CHARGE":        "i64",
	"SPINMULT":      "i64",
	"NACTEL":        "i64",
	"NSTATES":       "i64",
	"NROOTS":        "i64",
	"L_MAX":         "i64",
	"POTNUC":        "f64",
}

// strWidth is the width used to read fixed-length string attributes.
const strWidth = 256

func fixedString(width uint) (*hdf5.Datatype, error) {
	t, err := hdf5.T_C_S1.Copy()
	if err != nil {
		return nil, err
	}
	if err := t.SetSize(width); err != nil {
		t.Close()
		return nil, err
	}
	return t, nil
}

// splitStrings cuts buf into strings of width bytes, dropping the NUL
// padding.
func splitStrings(buf []byte, width int) []string {
	ret := make([]string, len(buf)/width)
	for i := range ret {
		ret[i] = string(bytes.TrimRight(buf[i*width:(i+1)*width], "\x00"))
	}
	return ret
}

func readAttr(g *hdf5.Group, name, typ string) (*Dataset, error) {
	a, err := g.OpenAttribute(name)
	if err != nil {
		return nil, nil //absent
	}
	defer a.Close()
	space := a.Space()
	defer space.Close()
	n := space.SimpleExtentNPoints()
	switch typ {
	case "f64":
		d := make([]float64, n)
		if err := a.Read(&d, hdf5.T_NATIVE_DOUBLE); err != nil {
			return nil, err
		}
		return F64(d), nil
	case "i64":
		d := make([]int64, n)
		if err := a.Read(&d, hdf5.T_NATIVE_INT64); err != nil {
			return nil, err
		}
		return I64(d), nil
	}
	t, err := fixedString(strWidth)
	if err != nil {
		return nil, err
	}
	defer t.Close()
	buf := make([]byte, n*strWidth)
	if err := a.Read(&buf, t); err != nil {
		return nil, err
	}
	return Str(splitStrings(buf, strWidth)), nil
}

func readDataset(g *hdf5.Group, name string) (*Dataset, error) {
	ds, err := g.OpenDataset(name)
	if err != nil {
		return nil, err
	}
	defer ds.Close()
	space := ds.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, err
	}
	shape := make([]int, len(dims))
	n := 1
	for i, d := range dims {
		shape[i] = int(d)
		n *= int(d)
	}
	if len(shape) == 0 {
		shape = []int{1}
	}
	t, err := ds.Datatype()
	if err != nil {
		return nil, err
	}
	defer t.Close()
	size := int(t.Size())
	switch {
	case t.Class() == hdf5.T_FLOAT && size == 8:
		d := make([]float64, n)
		if n > 0 {
			err = ds.Read(&d)
		}
		return F64(d, shape...), err
	case t.Class() == hdf5.T_FLOAT && size == 4:
		d := make([]float32, n)
		if n > 0 {
			err = ds.Read(&d)
		}
		f := make([]float64, n)
		for i, v := range d {
			f[i] = float64(v)
		}
		return F64(f, shape...), err
	case t.Class() == hdf5.T_INTEGER && size == 8:
		d := make([]int64, n)
		if n > 0 {
			err = ds.Read(&d)
		}
		return I64(d, shape...), err
	case t.Class() == hdf5.T_INTEGER && size == 4:
		d := make([]int32, n)
		if n > 0 {
			err = ds.Read(&d)
		}
		l := make([]int64, n)
		for i, v := range d {
			l[i] = int64(v)
		}
		return I64(l, shape...), err
	case t.Class() == hdf5.T_STRING && !t.IsVariableStr():
		buf := make([]byte, n*size)
		if n > 0 {
			err = ds.Read(&buf)
		}
		return Str(splitStrings(buf, size), shape...), err
	}
	return nil, fmt.Errorf("dataset %s has an unsupported type (class %v, %d bytes)", name, t.Class(), size)
}

func readGroup(g *hdf5.Group, dst *Group) error {
	n, err := g.NumObjects()
	if err != nil {
		return err
	}
	for i := uint(0); i < n; i++ {
		name, err := g.ObjectNameByIndex(i)
		if err != nil {
			return err
		}
		kind, err := g.ObjectTypeByIndex(i)
		if err != nil {
			return err
		}
		switch kind {
		case hdf5.H5G_DATASET:
			d, err := readDataset(g, name)
			if err != nil {
				return fmt.Errorf("dataset %s: %w", name, err)
			}
			dst.Set(name, d)
		case hdf5.H5G_GROUP:
			sub, err := g.OpenGroup(name)
			if err != nil {
				return err
			}
			child := &Group{}
			err = readGroup(sub, child)
			sub.Close()
			if err != nil {
				return err
			}
			if dst.Groups == nil {
				dst.Groups = make(map[string]*Group)
			}
			dst.Groups[name] = child
		}
	}
	return nil
}

func readHDF5(path string) (*Document, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	root, err := f.OpenGroup("/")
	if err != nil {
		return nil, err
	}
	defer root.Close()
	D := NewDocument()
	for name, typ := range molcasAttrs {
		a, err := readAttr(root, name, typ)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		if a != nil {
			D.SetAttr(name, a)
		}
	}
	if err := readGroup(root, &D.Group); err != nil {
		return nil, err
	}
	return D, nil
}

// memory returns the file type of d and a pointer to its data in the
// layout HDF5 expects.
func memory(d *Dataset) (*hdf5.Datatype, any, error) {
	switch d.Type {
	case "f64":
		f := []float64(d.F64)
		t, err := hdf5.T_NATIVE_DOUBLE.Copy()
		return t, &f, err
	case "i64":
		l := d.I64
		t, err := hdf5.T_NATIVE_INT64.Copy()
		return t, &l, err
	}
	width := 1
	for _, s := range d.Str {
		width = max(width, len(s))
	}
	t, err := fixedString(uint(width))
	if err != nil {
		return nil, nil, err
	}
	buf := make([]byte, width*len(d.Str))
	for i, s := range d.Str {
		copy(buf[i*width:], s)
	}
	return t, &buf, nil
}

func dims(shape []int) []uint {
	ret := make([]uint, len(shape))
	for i, s := range shape {
		ret[i] = uint(s)
	}
	return ret
}

func writeAttr(g *hdf5.Group, name string, d *Dataset) error {
	t, data, err := memory(d)
	if err != nil {
		return err
	}
	defer t.Close()
	space, err := hdf5.CreateSimpleDataspace(dims(d.Shape), nil)
	if err != nil {
		return err
	}
	defer space.Close()
	a, err := g.CreateAttribute(name, t, space)
	if err != nil {
		return err
	}
	defer a.Close()
	if d.Len() == 0 {
		return nil
	}
	return a.Write(data, t)
}

func writeDataset(g *hdf5.Group, name string, d *Dataset) error {
	t, data, err := memory(d)
	if err != nil {
		return err
	}
	defer t.Close()
	space, err := hdf5.CreateSimpleDataspace(dims(d.Shape), nil)
	if err != nil {
		return err
	}
	defer space.Close()
	ds, err := g.CreateDataset(name, t, space)
	if err != nil {
		return err
	}
	defer ds.Close()
	if d.Len() == 0 {
		return nil
	}
	return ds.Write(data)
}

func sortedKeys[T any](m map[string]T) []string {
	ret := make([]string, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

func writeGroup(g *hdf5.Group, src *Group) error {
	for _, k := range sortedKeys(src.Attrs) {
		if err := writeAttr(g, k, src.Attrs[k]); err != nil {
			return fmt.Errorf("attribute %s: %w", k, err)
		}
	}
	for _, k := range sortedKeys(src.Datasets) {
		if err := writeDataset(g, k, src.Datasets[k]); err != nil {
			return fmt.Errorf("dataset %s: %w", k, err)
		}
	}
	for _, k := range sortedKeys(src.Groups) {
		sub, err := g.CreateGroup(k)
		if err != nil {
			return err
		}
		err = writeGroup(sub, src.Groups[k])
		sub.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// writeHDF5 writes D to path through a temporary file in the same
// directory.
func writeHDF5(path string, D *Document) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".container-*.h5")
	if err != nil {
		return err
	}
	name := tmp.Name()
	tmp.Close()
	defer os.Remove(name)
	f, err := hdf5.CreateFile(name, hdf5.F_ACC_TRUNC)
	if err != nil {
		return err
	}
	root, err := f.OpenGroup("/")
	if err != nil {
		f.Close()
		return err
	}
	err = writeGroup(root, &D.Group)
	root.Close()
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return os.Rename(name, path)
}
