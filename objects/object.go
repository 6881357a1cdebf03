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

// Package objects contains the evidence records that can be converted to ECS
// documents. Each record produces one document per distinct timestamp it
// carries.
package objects

import (
	"reflect"
	"sort"

	"github.com/pkg/errors"
	"github.com/stoewer/go-strcase"

	"github.com/forensicanalysis/es4forensics/ecs"
)

// Entry describes one document of an evidence object.
type Entry struct {
	Timestamp  ecs.Timestamp
	Namespaces []ecs.Namespace
	Tags       []string
	Message    string
}

// EvidenceObject is implemented by PosixFile, NtfsFile, RegistryKey,
// WindowsEvent, SimpleEvent and ADObject. Entries is a pure function of the
// record and may be called any number of times.
type EvidenceObject interface {
	Kind() string
	Entries() ([]Entry, error)
	validate() error
}

// InvalidObjectError is returned for an object whose fields cannot be
// converted.
type InvalidObjectError struct {
	Kind string
	Err  error
}

func (e *InvalidObjectError) Error() string { return "invalid " + e.Kind + ": " + e.Err.Error() }

func (e *InvalidObjectError) Unwrap() error { return e.Err }

// Documents builds the documents of obj. The order is unspecified. Objects
// that fail validation return an *InvalidObjectError.
func Documents(obj EvidenceObject) ([]ecs.Document, error) {
	if err := obj.validate(); err != nil {
		return nil, &InvalidObjectError{Kind: obj.Kind(), Err: err}
	}
	entries, err := obj.Entries()
	if err != nil {
		return nil, &InvalidObjectError{Kind: obj.Kind(), Err: err}
	}
	docs := make([]ecs.Document, 0, len(entries))
	for _, entry := range entries {
		b := ecs.NewBuilder(entry.Timestamp).WithTags(entry.Tags...)
		if entry.Message != "" {
			b.WithMessage(entry.Message)
		}
		for _, ns := range entry.Namespaces {
			if err := b.WithNamespace(ns); err != nil {
				return nil, errors.Wrap(err, obj.Kind())
			}
		}
		doc, err := b.Build()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// distinct returns the present timestamps once per millisecond value,
// in ascending order.
func distinct(candidates ...*ecs.Timestamp) []ecs.Timestamp {
	seen := map[int64]ecs.Timestamp{}
	for _, candidate := range candidates {
		if candidate == nil {
			continue
		}
		if _, ok := seen[candidate.UnixMilli()]; !ok {
			seen[candidate.UnixMilli()] = *candidate
		}
	}

	out := make([]ecs.Timestamp, 0, len(seen))
	for _, ts := range seen {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func int64p(i int64) *int64 { return &i }

// lower converts the keys of free-form record data to snake case and drops
// empty values.
func lower(f interface{}) interface{} {
	switch f := f.(type) {
	case []interface{}:
		for i := range f {
			if !isEmptyValue(reflect.ValueOf(f[i])) {
				f[i] = lower(f[i])
			}
		}
		return f
	case map[string]interface{}:
		lf := make(map[string]interface{}, len(f))
		for k, v := range f {
			if !isEmptyValue(reflect.ValueOf(v)) {
				lf[strcase.SnakeCase(k)] = lower(v)
			}
		}
		return lf
	default:
		return f
	}
}

func lowerMap(m map[string]interface{}) map[string]interface{} {
	if len(m) == 0 {
		return nil
	}
	return lower(m).(map[string]interface{})
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	}
	return false
}
