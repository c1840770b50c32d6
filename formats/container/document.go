/*
 * formats/container/document.go, part of gorbital.
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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Magic is the value of the format field of a container document.
const Magic = "gorbital-container"

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var hdf5Magic = []byte("\x89HDF\r\n\x1a\n")

// ErrNoHDF5 is returned for HDF5 files when the package was built without
// HDF5 support.
var ErrNoHDF5 = errors.New("HDF5 support not built in, rebuild with -tags hdf5")

// Floats is a slice of float64 that encodes NaN and infinities as null,
// which JSON can't represent. null is decoded as NaN.
type Floats []float64

func (F Floats) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('[')
	for i, v := range F {
		if i > 0 {
			b.WriteByte(',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			b.WriteString("null")
			continue
		}
		r, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		b.Write(r)
	}
	b.WriteByte(']')
	return b.Bytes(), nil
}

func (F *Floats) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*F = make(Floats, len(raw))
	for i, v := range raw {
		if v == nil {
			(*F)[i] = math.NaN()
			continue
		}
		(*F)[i] = *v
	}
	return nil
}

// Dataset is a typed array with a shape, stored row-major.
type Dataset struct {
	Type  string   `json:"type"` //f64, i64 or str
	Shape []int    `json:"shape"`
	F64   Floats   `json:"f64,omitempty"`
	I64   []int64  `json:"i64,omitempty"`
	Str   []string `json:"str,omitempty"`
}

// F64 returns a float dataset with the given data and shape. If no shape
// is given, the dataset is one-dimensional.
func F64(data []float64, shape ...int) *Dataset {
	if len(shape) == 0 {
		shape = []int{len(data)}
	}
	return &Dataset{Type: "f64", Shape: shape, F64: data}
}

// I64 returns an integer dataset.
func I64(data []int64, shape ...int) *Dataset {
	if len(shape) == 0 {
		shape = []int{len(data)}
	}
	return &Dataset{Type: "i64", Shape: shape, I64: data}
}

// Ints returns an integer dataset from a slice of int.
func Ints(data []int, shape ...int) *Dataset {
	d := make([]int64, len(data))
	for i, v := range data {
		d[i] = int64(v)
	}
	return I64(d, shape...)
}

// Str returns a string dataset.
func Str(data []string, shape ...int) *Dataset {
	if len(shape) == 0 {
		shape = []int{len(data)}
	}
	return &Dataset{Type: "str", Shape: shape, Str: data}
}

// Len returns the number of elements according to the shape.
func (D *Dataset) Len() int {
	n := 1
	for _, s := range D.Shape {
		n *= s
	}
	return n
}

// Check verifies that the data agrees with the type and the shape.
func (D *Dataset) Check() error {
	var l int
	switch D.Type {
	case "f64":
		l = len(D.F64)
	case "i64":
		l = len(D.I64)
	case "str":
		l = len(D.Str)
	default:
		return fmt.Errorf("unknown dataset type %q", D.Type)
	}
	if l != D.Len() {
		return fmt.Errorf("%s dataset with %d elements and shape %v", D.Type, l, D.Shape)
	}
	return nil
}

// Floats returns the data as float64, converting integers.
func (D *Dataset) Floats() ([]float64, error) {
	switch D.Type {
	case "f64":
		return D.F64, nil
	case "i64":
		ret := make([]float64, len(D.I64))
		for i, v := range D.I64 {
			ret[i] = float64(v)
		}
		return ret, nil
	}
	return nil, fmt.Errorf("%s dataset used as numbers", D.Type)
}

// Ints returns the data as int. Floats must have integral values.
func (D *Dataset) Ints() ([]int, error) {
	switch D.Type {
	case "i64":
		ret := make([]int, len(D.I64))
		for i, v := range D.I64 {
			ret[i] = int(v)
		}
		return ret, nil
	case "f64":
		ret := make([]int, len(D.F64))
		for i, v := range D.F64 {
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("non-integer value %g", v)
			}
			ret[i] = int(v)
		}
		return ret, nil
	}
	return nil, fmt.Errorf("%s dataset used as integers", D.Type)
}

// Group is a node in the document, with attributes, datasets and
// subgroups.
type Group struct {
	Attrs    map[string]*Dataset `json:"attrs,omitempty"`
	Datasets map[string]*Dataset `json:"datasets,omitempty"`
	Groups   map[string]*Group   `json:"groups,omitempty"`
}

// Document is the root group of a container file.
type Document struct {
	Format  string `json:"format"`
	Version int    `json:"version"`
	Group
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{Format: Magic, Version: 1, Group: Group{Attrs: map[string]*Dataset{}, Datasets: map[string]*Dataset{}}}
}

// Attr returns the attribute name, or nil.
func (G *Group) Attr(name string) *Dataset {
	return G.Attrs[name]
}

// Dataset returns the dataset name, or nil.
func (G *Group) Dataset(name string) *Dataset {
	return G.Datasets[name]
}

// Has returns true if there is a dataset name.
func (G *Group) Has(name string) bool {
	return G.Datasets[name] != nil
}

// SetAttr sets an attribute.
func (G *Group) SetAttr(name string, d *Dataset) {
	if G.Attrs == nil {
		G.Attrs = make(map[string]*Dataset)
	}
	G.Attrs[name] = d
}

// Set sets a dataset.
func (G *Group) Set(name string, d *Dataset) {
	if G.Datasets == nil {
		G.Datasets = make(map[string]*Dataset)
	}
	G.Datasets[name] = d
}

// Delete removes a dataset, if present.
func (G *Group) Delete(name string) {
	delete(G.Datasets, name)
}

// Names returns the dataset names, sorted.
func (G *Group) Names() []string {
	ret := make([]string, 0, len(G.Datasets))
	for k := range G.Datasets {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

func (G *Group) check(path string) error {
	for k, d := range G.Attrs {
		if err := d.Check(); err != nil {
			return fmt.Errorf("attribute %s%s: %w", path, k, err)
		}
	}
	for k, d := range G.Datasets {
		if err := d.Check(); err != nil {
			return fmt.Errorf("dataset %s%s: %w", path, k, err)
		}
	}
	for k, g := range G.Groups {
		if err := g.check(path + k + "/"); err != nil {
			return err
		}
	}
	return nil
}

// IsCompressed returns true if data starts with the zstd magic number.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}

// IsHDF5 returns true if data starts with the HDF5 signature.
func IsHDF5(data []byte) bool {
	return bytes.HasPrefix(data, hdf5Magic)
}

// IsHDF5Path returns true for file names that WriteFile stores as HDF5.
func IsHDF5Path(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".h5", ".hdf5":
		return true
	}
	return false
}

// DecodeDocument parses a document, compressed or not.
func DecodeDocument(data []byte) (*Document, error) {
	if IsCompressed(data) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return nil, err
		}
	}
	D := new(Document)
	if err := json.Unmarshal(data, D); err != nil {
		return nil, err
	}
	if D.Format != Magic {
		return nil, fmt.Errorf("not a container document (format %q)", D.Format)
	}
	if err := D.check("/"); err != nil {
		return nil, err
	}
	return D, nil
}

// ReadDocument reads a document from a file, which can be JSON, compressed
// JSON or HDF5 in the layout Molcas uses.
func ReadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	head := make([]byte, len(hdf5Magic))
	n, err := io.ReadFull(f, head)
	f.Close()
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	if IsHDF5(head[:n]) {
		D, err := readHDF5(path)
		if err != nil {
			return nil, err
		}
		if err := D.check("/"); err != nil {
			return nil, err
		}
		return D, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeDocument(data)
}

// Encode serializes the document, compressing it if compress is true.
func (D *Document) Encode(compress bool) ([]byte, error) {
	data, err := json.Marshal(D)
	if err != nil {
		return nil, err
	}
	if !compress {
		return data, nil
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// WriteFile writes the document to path through a temporary file in the
// same directory, so path is replaced atomically. Paths ending in .h5 or
// .hdf5 are written as HDF5, and compress is ignored.
func (D *Document) WriteFile(path string, compress bool) error {
	if IsHDF5Path(path) {
		return writeHDF5(path, D)
	}
	data, err := D.Encode(compress)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".container-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
