/*
 * errors.go, part of gorbital.
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
	"errors"
	"fmt"
)

// Error is the interface for errors that all packages in this library implement. The Decorate method allows to add and retrieve info from the
// error, without changing its type or wrapping it around something else.
// The decoration slice contains the functions in the calling stack, innermost first,
// optionally in the form "FunctionName: Extra info".
type Error interface {
	Error() string
	Decorate(string) []string
}

// ParseError is returned when the content of a file is malformed or not
// supported by the reader that tried it. It is recoverable: the caller can
// try the next candidate format.
type ParseError struct {
	Format string //the reader that failed
	File   string
	Line   int //1-based; 0 if unknown
	Msg    string
	Err    error //underlying cause, can be nil
	deco   []string
}

// NewParseError builds a ParseError. err may be nil.
func NewParseError(format, file string, line int, err error, msg string, args ...any) *ParseError {
	return &ParseError{Format: format, File: file, Line: line, Msg: fmt.Sprintf(msg, args...), Err: err}
}

func (E *ParseError) Error() string {
	loc := E.File
	if E.Line > 0 {
		loc = fmt.Sprintf("%s:%d", E.File, E.Line)
	}
	ret := fmt.Sprintf("%s file %s: %s", E.Format, loc, E.Msg)
	if E.Err != nil {
		ret += ": " + E.Err.Error()
	}
	return ret
}

func (E *ParseError) Unwrap() error { return E.Err }

// Decorate adds new information to the error
func (E *ParseError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// IncompleteDataError means that a file was valid, but lacks data that is
// needed for the requested operation. The missing data is never fabricated.
type IncompleteDataError struct {
	Format  string
	File    string
	Missing string //what is missing
	Need    string //what would provide it, if known
	deco    []string
}

func (E *IncompleteDataError) Error() string {
	ret := fmt.Sprintf("%s file %s lacks %s", E.Format, E.File, E.Missing)
	if E.Need != "" {
		ret += fmt.Sprintf(" (%s required)", E.Need)
	}
	return ret
}

// Decorate adds new information to the error
func (E *IncompleteDataError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// NumericAnomaly records an unreadable (e.g. starred) numeric field.
// It is not returned as a failure: the affected value is marked invalid
// and the anomaly is kept as a warning.
type NumericAnomaly struct {
	Field string
	Text  string
	File  string
	Line  int
	deco  []string
}

func (E *NumericAnomaly) Error() string {
	return fmt.Sprintf("unreadable %s %q in %s:%d", E.Field, E.Text, E.File, E.Line)
}

// Decorate adds new information to the error
func (E *NumericAnomaly) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// CancelledOperation is the outcome of a grid computation that was
// cancelled before it finished. It is not a failure.
type CancelledOperation struct {
	Op    string
	Done  int //planes finished before cancellation
	Total int
	Cause error
	deco  []string
}

func (E *CancelledOperation) Error() string {
	return fmt.Sprintf("%s cancelled after %d of %d planes", E.Op, E.Done, E.Total)
}

func (E *CancelledOperation) Unwrap() error { return E.Cause }

// Decorate adds new information to the error
func (E *CancelledOperation) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// IsCancelled returns true if err is, or wraps, a CancelledOperation.
func IsCancelled(err error) bool {
	var c *CancelledOperation
	return errors.As(err, &c)
}

// IsIncomplete returns true if err is, or wraps, an IncompleteDataError.
func IsIncomplete(err error) bool {
	var c *IncompleteDataError
	return errors.As(err, &c)
}

// IsParse returns true if err is, or wraps, a ParseError.
func IsParse(err error) bool {
	var c *ParseError
	return errors.As(err, &c)
}

// ErrDecorate decorates err with the caller's name if err implements Error,
// and returns it unchanged otherwise.
func ErrDecorate(err error, caller string) error {
	if err2, ok := err.(Error); ok {
		err2.Decorate(caller)
	}
	return err
}
