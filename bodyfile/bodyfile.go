/*
 * Copyright (c) 2020 Siemens AG
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of
 * this software and associated documentation files (the "Software"), to deal in
 * the Software without restriction, including without limitation the rights to
 * use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
 * the Software, and to permit persons to whom the Software is furnished to do so,
 * subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
 * FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
 * COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
 * IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
 * CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 *
 * Author(s): Jonas Plum
 */

// Package bodyfile reads the pipe separated bodyfile format written by
// The Sleuth Kit and related tools:
//
//	MD5|name|inode|mode_as_string|UID|GID|size|atime|mtime|ctime|crtime
//
// Lines with ten fields (bodyfile 2.x, no crtime) are accepted as well.
package bodyfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	fieldsV3 = 11
	fieldsV2 = 10

	// Absent is the value of a timestamp column that is not set.
	Absent int64 = -1
)

// Line is one parsed bodyfile record. Timestamps are raw epoch seconds.
type Line struct {
	MD5    string
	Name   string
	Inode  string
	Mode   string
	UID    int64
	GID    int64
	Size   int64
	Atime  int64
	Mtime  int64
	Ctime  int64
	Crtime int64
}

// ParseError describes a line that could not be read.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("bodyfile line %d: %s", e.Line, e.Reason)
	}
	return "bodyfile: " + e.Reason
}

// Parse reads a single line. Names that contain '|' are kept intact.
func Parse(text string) (*Line, error) {
	text = strings.TrimRight(text, "\r\n")
	fields := strings.Split(text, "|")
	if len(fields) < fieldsV2 {
		return nil, &ParseError{Text: text, Reason: fmt.Sprintf("expected %d fields, got %d", fieldsV3, len(fields))}
	}

	// the name absorbs surplus pipes, the numeric columns are read from the end
	numeric := fieldsV2 - 2
	if len(fields) >= fieldsV3 && allInts(fields[len(fields)-7:]) {
		numeric = fieldsV3 - 2
	}
	tail := fields[len(fields)-numeric:]
	name := strings.Join(fields[1:len(fields)-numeric], "|")
	crtime := ""
	if numeric == fieldsV3-2 {
		crtime = tail[8]
	}

	line := &Line{MD5: fields[0], Name: name, Inode: tail[0], Mode: tail[1]}
	values := []struct {
		dst  *int64
		raw  string
		name string
	}{
		{&line.UID, tail[2], "uid"},
		{&line.GID, tail[3], "gid"},
		{&line.Size, tail[4], "size"},
		{&line.Atime, tail[5], "atime"},
		{&line.Mtime, tail[6], "mtime"},
		{&line.Ctime, tail[7], "ctime"},
		{&line.Crtime, crtime, "crtime"},
	}
	for _, v := range values {
		if v.raw == "" {
			*v.dst = Absent
			continue
		}
		i, err := strconv.ParseInt(v.raw, 10, 64)
		if err != nil {
			return nil, &ParseError{Text: text, Reason: fmt.Sprintf("invalid %s %q", v.name, v.raw)}
		}
		*v.dst = i
	}
	return line, nil
}

func allInts(fields []string) bool {
	for _, f := range fields {
		if f == "" {
			continue
		}
		if _, err := strconv.ParseInt(f, 10, 64); err != nil {
			return false
		}
	}
	return true
}

// Reader reads lines from a bodyfile stream.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a Reader for r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Reader{scanner: scanner}
}

// Read returns the next record. A *ParseError leaves the reader usable,
// io.EOF marks the end of the stream. Empty lines are skipped.
func (r *Reader) Read() (*Line, error) {
	for r.scanner.Scan() {
		r.line++
		text := r.scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		line, err := Parse(text)
		if err != nil {
			if perr, ok := err.(*ParseError); ok {
				perr.Line = r.line
			}
			return nil, err
		}
		return line, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// LineNumber returns the number of the line read last.
func (r *Reader) LineNumber() int { return r.line }
