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
	"strings"

	"github.com/pkg/errors"

	"github.com/forensicanalysis/es4forensics/ecs"
)

// NTFS attributes that carry the four timestamps of a file.
const (
	StandardInformation = "$STANDARD_INFORMATION"
	FileName            = "$FILE_NAME"
)

// NtfsFile is one timestamp attribute of an MFT entry.
type NtfsFile struct {
	Name           string         `json:"name"`
	EntryNumber    uint64         `json:"entry_number"`
	SequenceNumber uint16         `json:"sequence_number"`
	Attribute      string         `json:"attribute"`
	Size           int64          `json:"size"`
	Flags          []string       `json:"flags,omitempty"`
	Mtime          *ecs.Timestamp `json:"mtime,omitempty"`
	Atime          *ecs.Timestamp `json:"atime,omitempty"`
	Ctime          *ecs.Timestamp `json:"ctime,omitempty"`
	Crtime         *ecs.Timestamp `json:"crtime,omitempty"`
}

func (f *NtfsFile) Kind() string { return "NtfsFile" }

func (f *NtfsFile) validate() error {
	if f.Name == "" {
		return errors.New("NtfsFile: name is empty")
	}
	switch f.Attribute {
	case StandardInformation, FileName:
	default:
		return fmt.Errorf("NtfsFile %s: unknown attribute %q", f.Name, f.Attribute)
	}
	if f.Size < 0 {
		return fmt.Errorf("NtfsFile %s: negative size %d", f.Name, f.Size)
	}
	return nil
}

// Entries returns one entry per distinct timestamp, tagged "mft" and with
// the attribute name.
func (f *NtfsFile) Entries() ([]Entry, error) {
	candidates := [4]*ecs.Timestamp{f.Mtime, f.Atime, f.Ctime, f.Crtime}
	attribute := strings.ToLower(strings.Trim(f.Attribute, "$"))
	message := fmt.Sprintf("%s (%s)", f.Name, f.Attribute)

	var entries []Entry
	for _, ts := range distinct(candidates[:]...) {
		file := &ecs.File{
			Path:       f.Name,
			Inode:      fmt.Sprintf("%d-%d", f.EntryNumber, f.SequenceNumber),
			Size:       int64p(f.Size),
			Attributes: f.Flags,
			Mtime:      f.Mtime,
			Accessed:   f.Atime,
			Ctime:      f.Ctime,
			Created:    f.Crtime,
		}
		file.SetMACB(ecs.ComputeMACB(candidates, ts))
		entries = append(entries, Entry{
			Timestamp:  ts,
			Namespaces: []ecs.Namespace{file},
			Tags:       []string{"mft", attribute},
			Message:    message,
		})
	}
	return entries, nil
}
