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
	"fmt"
	"reflect"
	"sort"

	"github.com/fatih/structs"
	"github.com/pkg/errors"
)

// Version is the ECS version written to ecs.version.
const Version = "8.4"

var (
	// ErrDuplicateNamespace is returned when a namespace key is added twice.
	ErrDuplicateNamespace = errors.New("duplicate namespace")
	// ErrReservedNamespace is returned for keys of the fixed document fields.
	ErrReservedNamespace = errors.New("reserved namespace")
	// ErrBuilderConsumed is returned when Build is called a second time.
	ErrBuilderConsumed = errors.New("builder already built")
)

// DuplicateNamespaceError names the namespace key that was added twice. It
// matches ErrDuplicateNamespace.
type DuplicateNamespaceError struct {
	Key string
}

func (e *DuplicateNamespaceError) Error() string {
	return fmt.Sprintf("namespace %q: %s", e.Key, ErrDuplicateNamespace)
}

func (e *DuplicateNamespaceError) Is(target error) bool { return target == ErrDuplicateNamespace }

var reserved = map[string]bool{
	"@timestamp": true,
	"ecs":        true,
	"message":    true,
	"tags":       true,
}

// Builder assembles one Document. It is not reusable after Build.
type Builder struct {
	timestamp  Timestamp
	message    *string
	tags       map[string]bool
	namespaces map[string]map[string]interface{}
	built      bool
}

// NewBuilder starts a document for ts.
func NewBuilder(ts Timestamp) *Builder {
	return &Builder{
		timestamp:  ts,
		tags:       map[string]bool{},
		namespaces: map[string]map[string]interface{}{},
	}
}

// WithTag adds a tag. Tags form a set.
func (b *Builder) WithTag(tag string) *Builder {
	b.tags[tag] = true
	return b
}

// WithTags adds several tags.
func (b *Builder) WithTags(tags ...string) *Builder {
	for _, tag := range tags {
		b.WithTag(tag)
	}
	return b
}

// WithMessage sets the message, replacing an earlier one.
func (b *Builder) WithMessage(message string) *Builder {
	b.message = &message
	return b
}

// WithNamespace adds the fields of ns under ns.Key(). A key that was already
// added is rejected and leaves the builder unchanged.
func (b *Builder) WithNamespace(ns Namespace) error {
	key := ns.Key()
	if reserved[key] || key == "" {
		return errors.Wrapf(ErrReservedNamespace, "namespace %q", key)
	}
	if _, ok := b.namespaces[key]; ok {
		return &DuplicateNamespaceError{Key: key}
	}
	b.namespaces[key] = fields(ns)
	return nil
}

// Has reports whether a namespace is already present.
func (b *Builder) Has(key string) bool {
	_, ok := b.namespaces[key]
	return ok
}

// Build returns the finished document.
func (b *Builder) Build() (Document, error) {
	if b.built {
		return nil, ErrBuilderConsumed
	}
	b.built = true

	doc := Document{
		"@timestamp": b.timestamp.UnixMilli(),
		"ecs":        map[string]interface{}{"version": Version},
	}
	if b.message != nil {
		doc["message"] = *b.message
	}
	if len(b.tags) > 0 {
		tags := make([]string, 0, len(b.tags))
		for tag := range b.tags {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		doc["tags"] = tags
	}
	for key, values := range b.namespaces {
		doc[key] = values
	}
	return doc, nil
}

func fields(ns Namespace) map[string]interface{} {
	if f, ok := ns.(interface{ Fields() map[string]interface{} }); ok {
		m, _ := normalize(f.Fields()).(map[string]interface{})
		if m == nil {
			m = map[string]interface{}{}
		}
		return m
	}

	s := structs.New(ns)
	s.TagName = "ecs"
	return normalize(s.Map()).(map[string]interface{})
}

// normalize reduces values to maps, slices, strings, numbers and bools.
// Timestamps become epoch milliseconds.
func normalize(v interface{}) interface{} {
	switch v := v.(type) {
	case nil:
		return nil
	case Timestamp:
		return v.UnixMilli()
	case *Timestamp:
		if v == nil {
			return nil
		}
		return v.UnixMilli()
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			out[k] = normalize(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = normalize(e)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}
	if rv.Kind() == reflect.Struct {
		s := structs.New(v)
		s.TagName = "ecs"
		return normalize(s.Map())
	}
	return v
}
