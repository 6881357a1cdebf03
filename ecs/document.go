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

package ecs

import (
	"encoding/json"

	"github.com/forensicanalysis/es4forensics/goflatten"
)

// Document is a built ECS document. Nested namespaces are
// map[string]interface{} values. Documents must not be changed after they
// were handed to an index.
type Document map[string]interface{}

// Timestamp returns @timestamp in epoch milliseconds.
func (d Document) Timestamp() int64 {
	switch ts := d["@timestamp"].(type) {
	case int64:
		return ts
	case float64:
		return int64(ts)
	case json.Number:
		i, _ := ts.Int64()
		return i
	}
	return 0
}

// Message returns the message or "".
func (d Document) Message() string {
	m, _ := d["message"].(string)
	return m
}

// Tags returns the tags.
func (d Document) Tags() []string {
	switch tags := d["tags"].(type) {
	case []string:
		return tags
	case []interface{}:
		var out []string
		for _, tag := range tags {
			if s, ok := tag.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Namespace returns the fields stored under key or nil.
func (d Document) Namespace(key string) map[string]interface{} {
	m, _ := d[key].(map[string]interface{})
	return m
}

// Flatten returns the document with dotted field names, e.g. "file.path".
func (d Document) Flatten() (map[string]interface{}, error) {
	return goflatten.Flatten(d)
}

// ParseDocument reads a serialized document.
func ParseDocument(b []byte) (Document, error) {
	doc := Document{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
