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

package es4forensics

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/forensicanalysis/es4forensics/ecs"
)

// Identifier is the content derived id of a document: the lower case hex
// SHA-256 of its canonical serialization.
type Identifier string

// ContentDocument is a document together with its identifier and the
// serialized body that was hashed.
type ContentDocument struct {
	ID       Identifier
	Document ecs.Document
	Body     []byte
}

// NewContentDocument serializes and hashes doc.
func NewContentDocument(doc ecs.Document) (ContentDocument, error) {
	body, err := Canonical(doc)
	if err != nil {
		return ContentDocument{}, err
	}
	sum := sha256.Sum256(body)
	return ContentDocument{ID: Identifier(hex.EncodeToString(sum[:])), Document: doc, Body: body}, nil
}

// Digest returns the identifier of doc.
func Digest(doc ecs.Document) (Identifier, error) {
	cd, err := NewContentDocument(doc)
	return cd.ID, err
}

// Canonical serializes doc with sorted object keys, sorted tags and without
// HTML escaping. Parsing the result and serializing it again yields the same
// bytes.
func Canonical(doc ecs.Document) ([]byte, error) {
	if tags := doc.Tags(); len(tags) > 0 && !sort.StringsAreSorted(tags) {
		sorted := make([]string, len(tags))
		copy(sorted, tags)
		sort.Strings(sorted)

		shallow := make(ecs.Document, len(doc))
		for k, v := range doc {
			shallow[k] = v
		}
		shallow["tags"] = sorted
		doc = shallow
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Wrap(err, "could not serialize document")
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
