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
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/es4forensics/ecs"
)

// ItemVersion is the envelope version written by Encoder.
const ItemVersion = 1

var (
	// ErrUnknownVariant is returned for objects of an unknown kind.
	ErrUnknownVariant = errors.New("unknown evidence object")
	// ErrUnsupportedVersion is returned for envelopes of another version.
	ErrUnsupportedVersion = errors.New("unsupported evidence item version")
)

var variants = map[string]func() EvidenceObject{
	"PosixFile":    func() EvidenceObject { return &PosixFile{} },
	"NtfsFile":     func() EvidenceObject { return &NtfsFile{} },
	"RegistryKey":  func() EvidenceObject { return &RegistryKey{} },
	"WindowsEvent": func() EvidenceObject { return &WindowsEvent{} },
	"SimpleEvent":  func() EvidenceObject { return &SimpleEvent{} },
	"ADObject":     func() EvidenceObject { return &ADObject{} },
}

// EvidenceItem wraps an evidence object with the host it was collected on.
// Its JSON form is {"version": 1, "host": "...", "object": {"PosixFile": {...}}}.
type EvidenceItem struct {
	Version int
	Host    string
	Object  EvidenceObject
}

// NewItem wraps obj in an envelope of the current version.
func NewItem(obj EvidenceObject, host string) *EvidenceItem {
	return &EvidenceItem{Version: ItemVersion, Host: host, Object: obj}
}

// Documents builds the documents of the object. The item host is added as
// host.name unless the object sets one itself.
func (i *EvidenceItem) Documents() ([]ecs.Document, error) {
	docs, err := Documents(i.Object)
	if err != nil {
		return nil, err
	}
	if i.Host == "" {
		return docs, nil
	}

	for _, doc := range docs {
		host := map[string]interface{}{"name": i.Host}
		if existing, ok := doc["host"].(map[string]interface{}); ok {
			if err := mergo.Merge(&existing, host); err != nil {
				return nil, errors.Wrap(err, "could not add host")
			}
			continue
		}
		doc["host"] = host
	}
	return docs, nil
}

func (i *EvidenceItem) MarshalJSON() ([]byte, error) {
	if i.Object == nil {
		return nil, errors.New("evidence item has no object")
	}
	envelope := struct {
		Version int                       `json:"version"`
		Host    string                    `json:"host,omitempty"`
		Object  map[string]EvidenceObject `json:"object"`
	}{i.Version, i.Host, map[string]EvidenceObject{i.Object.Kind(): i.Object}}
	return json.Marshal(envelope)
}

func (i *EvidenceItem) UnmarshalJSON(b []byte) error {
	if !gjson.ValidBytes(b) {
		return errors.New("evidence item is not valid JSON")
	}
	envelope := gjson.ParseBytes(b)

	version := envelope.Get("version")
	if version.Int() != ItemVersion {
		return errors.Wrapf(ErrUnsupportedVersion, "version %s", version.Raw)
	}

	object := envelope.Get("object")
	if !object.IsObject() {
		return errors.New("evidence item has no object")
	}
	var kinds []string
	var raw string
	object.ForEach(func(key, value gjson.Result) bool {
		kinds = append(kinds, key.String())
		raw = value.Raw
		return true
	})
	if len(kinds) != 1 {
		return errors.Errorf("evidence item must hold exactly one object, got %v", kinds)
	}

	newObject, ok := variants[kinds[0]]
	if !ok {
		return errors.Wrap(ErrUnknownVariant, kinds[0])
	}
	obj := newObject()
	if err := json.Unmarshal([]byte(raw), obj); err != nil {
		return errors.Wrap(err, kinds[0])
	}
	if err := obj.validate(); err != nil {
		return err
	}

	i.Version = int(version.Int())
	i.Host = envelope.Get("host").String()
	i.Object = obj
	return nil
}

// DecodeError marks a line of an item stream that could not be read.
type DecodeError struct {
	Line int
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// Decoder reads items from a JSON lines stream.
type Decoder struct {
	scanner *bufio.Scanner
	line    int
}

// NewDecoder creates a Decoder for r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Decoder{scanner: scanner}
}

// Decode returns the next item, io.EOF at the end of the stream. After a
// *DecodeError the next call continues with the following line.
func (d *Decoder) Decode() (*EvidenceItem, error) {
	for d.scanner.Scan() {
		d.line++
		line := bytes.TrimSpace(d.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		item := &EvidenceItem{}
		if err := item.UnmarshalJSON(line); err != nil {
			return nil, &DecodeError{Line: d.line, Err: err}
		}
		return item, nil
	}
	if err := d.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Encoder writes items as JSON lines.
type Encoder struct {
	w io.Writer
}

// NewEncoder creates an Encoder for w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes item followed by a newline.
func (e *Encoder) Encode(item *EvidenceItem) error {
	b, err := item.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(b, '\n'))
	return err
}
