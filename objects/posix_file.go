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

package objects

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/forensicanalysis/es4forensics/bodyfile"
	"github.com/forensicanalysis/es4forensics/ecs"
)

// PosixFile is the metadata of one file system entry.
type PosixFile struct {
	Name   string         `json:"name"`
	Inode  string         `json:"inode"`
	Mode   string         `json:"mode,omitempty"`
	UID    int64          `json:"uid"`
	GID    int64          `json:"gid"`
	Size   int64          `json:"size"`
	Atime  *ecs.Timestamp `json:"atime,omitempty"`
	Mtime  *ecs.Timestamp `json:"mtime,omitempty"`
	Ctime  *ecs.Timestamp `json:"ctime,omitempty"`
	Crtime *ecs.Timestamp `json:"crtime,omitempty"`
}

// NewPosixFile converts a bodyfile line. Raw timestamps are read as wall
// clock seconds in loc.
func NewPosixFile(line *bodyfile.Line, loc *time.Location) (*PosixFile, error) {
	f := &PosixFile{
		Name:  line.Name,
		Inode: line.Inode,
		Mode:  line.Mode,
		UID:   line.UID,
		GID:   line.GID,
		Size:  line.Size,
	}

	var err error
	for _, t := range []struct {
		dst **ecs.Timestamp
		raw int64
	}{
		{&f.Atime, line.Atime},
		{&f.Mtime, line.Mtime},
		{&f.Ctime, line.Ctime},
		{&f.Crtime, line.Crtime},
	} {
		if *t.dst, err = ecs.FromEpoch(t.raw, loc); err != nil {
			return nil, errors.Wrapf(err, "file %s (inode %s)", line.Name, line.Inode)
		}
	}
	return f, f.validate()
}

func (f *PosixFile) Kind() string { return "PosixFile" }

func (f *PosixFile) validate() error {
	if f.Name == "" {
		return errors.New("PosixFile: name is empty")
	}
	if f.Size < 0 {
		return fmt.Errorf("PosixFile %s: negative size %d", f.Name, f.Size)
	}
	return nil
}

func (f *PosixFile) candidates() [4]*ecs.Timestamp {
	return [4]*ecs.Timestamp{f.Mtime, f.Atime, f.Ctime, f.Crtime}
}

// Entries returns one entry per distinct timestamp, tagged "bodyfile".
func (f *PosixFile) Entries() ([]Entry, error) {
	candidates := f.candidates()
	var entries []Entry
	for _, ts := range distinct(candidates[:]...) {
		entries = append(entries, Entry{
			Timestamp:  ts,
			Namespaces: []ecs.Namespace{f.file(ecs.ComputeMACB(candidates, ts))},
			Tags:       []string{"bodyfile"},
			Message:    f.Name,
		})
	}
	return entries, nil
}

func (f *PosixFile) file(macb ecs.MACB) *ecs.File {
	p := f.Name
	if i := strings.Index(p, " -> "); i >= 0 && strings.HasPrefix(f.Mode, "l") {
		p = p[:i]
	}
	fileType, mode := parseMode(f.Mode)
	file := &ecs.File{
		Path:      f.Name,
		Name:      path.Base(p),
		Directory: path.Dir(p),
		Type:      fileType,
		Mode:      mode,
		Inode:     f.Inode,
		UID:       int64p(f.UID),
		GID:       int64p(f.GID),
		Size:      int64p(f.Size),
		Mtime:     f.Mtime,
		Accessed:  f.Atime,
		Ctime:     f.Ctime,
		Created:   f.Crtime,
	}
	file.SetMACB(macb)
	return file
}

// parseMode reads a mode string like "d/drwxr-xr-x" into the ECS file type and
// an octal permission string.
func parseMode(s string) (fileType, mode string) {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	if len(s) != 10 {
		return "", ""
	}
	switch s[0] {
	case 'd':
		fileType = "dir"
	case 'l':
		fileType = "symlink"
	case 'r', '-':
		fileType = "file"
	}

	var perm uint32
	for i, c := range s[1:] {
		bit := uint32(1) << uint(8-i)
		switch {
		case c == '-':
		case c == 'S' || c == 'T':
			perm |= special(i)
		case c == 's' || c == 't':
			perm |= special(i) | bit
		case c == rune("rwxrwxrwx"[i]):
			perm |= bit
		default:
			return fileType, ""
		}
	}
	return fileType, fmt.Sprintf("%04o", perm)
}

func special(i int) uint32 {
	switch i {
	case 2:
		return 0o4000
	case 5:
		return 0o2000
	case 8:
		return 0o1000
	}
	return 0
}
