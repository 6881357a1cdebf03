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
	"sort"

	"github.com/pkg/errors"

	"github.com/forensicanalysis/es4forensics/ecs"
	"github.com/forensicanalysis/es4forensics/goflatten"
)

// SimpleEvent is a single timestamped event without further structure.
// Fields holds additional ECS fields by their dotted name, e.g.
// "source.ip"; they must not use the event namespace.
type SimpleEvent struct {
	Timestamp ecs.Timestamp          `json:"timestamp"`
	Message   string                 `json:"message"`
	EventKind string                 `json:"kind,omitempty"`
	Category  []string               `json:"category,omitempty"`
	Action    string                 `json:"action,omitempty"`
	Dataset   string                 `json:"dataset,omitempty"`
	Tags      []string               `json:"tags,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func (e *SimpleEvent) Kind() string { return "SimpleEvent" }

func (e *SimpleEvent) validate() error {
	if e.Timestamp.UnixMilli() == 0 {
		return errors.New("SimpleEvent: timestamp is missing")
	}
	namespaces, err := e.namespaces()
	if err != nil {
		return errors.Wrap(err, "SimpleEvent")
	}
	builder := ecs.NewBuilder(e.Timestamp)
	for _, ns := range namespaces {
		if err := builder.WithNamespace(ns); err != nil {
			return errors.Wrap(err, "SimpleEvent")
		}
	}
	return nil
}

// namespaces returns the event namespace and one namespace per top level key
// of Fields, sorted by key.
func (e *SimpleEvent) namespaces() ([]ecs.Namespace, error) {
	kind := e.EventKind
	if kind == "" {
		kind = "event"
	}
	namespaces := []ecs.Namespace{ecs.Event{
		Kind:     kind,
		Category: e.Category,
		Action:   e.Action,
		Dataset:  e.Dataset,
	}}
	if len(e.Fields) == 0 {
		return namespaces, nil
	}

	nested, err := goflatten.Unflatten(e.Fields)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(nested))
	for key := range nested {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		values, ok := nested[key].(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("field %q is not below a namespace", key)
		}
		namespaces = append(namespaces, ecs.Custom{Name: key, Values: values})
	}
	return namespaces, nil
}

// Entries returns a single entry, tags are taken from the event.
func (e *SimpleEvent) Entries() ([]Entry, error) {
	namespaces, err := e.namespaces()
	if err != nil {
		return nil, err
	}
	return []Entry{{
		Timestamp:  e.Timestamp,
		Namespaces: namespaces,
		Tags:       e.Tags,
		Message:    e.Message,
	}}, nil
}
