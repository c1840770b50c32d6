/*
 * formats/scan/scan.go, part of gorbital.
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

//Package scan has the line and token readers shared by the text formats.
package scan

import (
	"bufio"
	"io"
	"strings"
)

// Lines reads a file line by line, counting lines. It can also give access
// to the underlying reader for files with binary sections.
type Lines struct {
	r       *bufio.Reader
	N       int //number of the last line read, 1-based
	peeked  *string
	pending []string
	err     error
}

// New returns a Lines reading from r.
func New(r io.Reader) *Lines {
	if b, ok := r.(*bufio.Reader); ok {
		return &Lines{r: b}
	}
	return &Lines{r: bufio.NewReader(r)}
}

// Next returns the next line without the line terminator. At the end of the
// input it returns io.EOF, but a last line without terminator is returned
// first.
func (L *Lines) Next() (string, error) {
	if L.peeked != nil {
		s := *L.peeked
		L.peeked = nil
		L.N++
		return s, nil
	}
	if L.err != nil {
		return "", L.err
	}
	s, err := L.r.ReadString('\n')
	if err != nil {
		L.err = err
		if s == "" {
			return "", err
		}
	}
	L.N++
	return strings.TrimRight(s, "\r\n"), nil
}

// Peek returns the next line without consuming it.
func (L *Lines) Peek() (string, error) {
	if L.peeked != nil {
		return *L.peeked, nil
	}
	s, err := L.Next()
	if err != nil {
		return "", err
	}
	L.N--
	L.peeked = &s
	return s, nil
}

// Skip discards n lines.
func (L *Lines) Skip(n int) error {
	for i := 0; i < n; i++ {
		if _, err := L.Next(); err != nil {
			return err
		}
	}
	return nil
}

// Fields returns the whitespace-separated fields of the next line.
func (L *Lines) Fields() ([]string, error) {
	s, err := L.Next()
	if err != nil {
		return nil, err
	}
	return strings.Fields(s), nil
}

// Reader returns the underlying reader. It must not be used while a line
// is peeked.
func (L *Lines) Reader() *bufio.Reader {
	return L.r
}

// Tokens returns the next n whitespace-separated tokens, which can be spread
// over any number of lines. Tokens left on the last line read are kept for
// the next call.
func (L *Lines) Tokens(n int, buf []string) ([]string, error) {
	buf = buf[:0]
	for len(buf) < n {
		if len(L.pending) == 0 {
			f, err := L.Fields()
			if err != nil {
				if err == io.EOF {
					err = io.ErrUnexpectedEOF
				}
				return buf, err
			}
			L.pending = f
			continue
		}
		take := n - len(buf)
		if take > len(L.pending) {
			take = len(L.pending)
		}
		buf = append(buf, L.pending[:take]...)
		L.pending = L.pending[take:]
	}
	return buf, nil
}

// DropTokens discards the tokens left over from the last call to Tokens.
func (L *Lines) DropTokens() {
	L.pending = nil
}

// Key returns the value after "key=" in a line, with any amount of spaces
// around the equal sign, and whether the key was found. Keys are case
// insensitive.
func Key(line, key string) (string, bool) {
	t := strings.TrimSpace(line)
	if len(t) < len(key) || !strings.EqualFold(t[:len(key)], key) {
		return "", false
	}
	rest := strings.TrimSpace(t[len(key):])
	if !strings.HasPrefix(rest, "=") {
		return "", false
	}
	return strings.TrimSpace(rest[1:]), true
}

// Section returns the name of a bracketed section header like "[GTO]",
// in upper case, and the rest of the line, or false if the line is not a
// section header.
func Section(line string) (name, rest string, ok bool) {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "[") {
		return "", "", false
	}
	end := strings.Index(t, "]")
	if end < 0 {
		return "", "", false
	}
	return strings.ToUpper(strings.TrimSpace(t[1:end])), strings.TrimSpace(t[end+1:]), true
}
