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

// Package goflatten converts between nested documents and their dotted field
// name form, e.g. {"file": {"path": "/a"}} and {"file.path": "/a"}.
//
// Arrays of plain values are leaves, as ECS keeps them under a single field
// name ("tags", "file.macb_long"). Arrays that contain objects are indexed
// ("registry.values.0.name").
package goflatten

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/imdario/mergo"
)

// Delimiter separates the levels of a field name.
const Delimiter = "."

// Flatten returns a map one level deep, nil values are dropped.
func Flatten(nested map[string]interface{}) (map[string]interface{}, error) {
	flat := map[string]interface{}{}
	if err := flatten(flat, "", nested); err != nil {
		return nil, err
	}
	return flat, nil
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + Delimiter + key
}

func flatten(flat map[string]interface{}, prefix string, value interface{}) error {
	if value == nil {
		return nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("%s: map keys must be strings, got %s", prefix, rv.Type().Key())
		}
		for _, k := range rv.MapKeys() {
			if strings.Contains(k.String(), Delimiter) {
				return fmt.Errorf("%s: key %q contains %q", prefix, k.String(), Delimiter)
			}
			if err := flatten(flat, join(prefix, k.String()), rv.MapIndex(k).Interface()); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 || !containsObjects(rv) {
			flat[prefix] = value
			return nil
		}
		for i := 0; i < rv.Len(); i++ {
			if err := flatten(flat, join(prefix, strconv.Itoa(i)), rv.Index(i).Interface()); err != nil {
				return err
			}
		}
	default:
		flat[prefix] = value
	}
	return nil
}

func containsObjects(rv reflect.Value) bool {
	for i := 0; i < rv.Len(); i++ {
		e := rv.Index(i)
		for e.Kind() == reflect.Interface || e.Kind() == reflect.Ptr {
			if e.IsNil() {
				break
			}
			e = e.Elem()
		}
		if e.Kind() == reflect.Map || e.Kind() == reflect.Struct {
			return true
		}
	}
	return false
}

// Unflatten nests dotted field names. Levels whose keys are exactly 0..n-1
// become arrays again.
func Unflatten(flat map[string]interface{}) (map[string]interface{}, error) {
	nested := map[string]interface{}{}
	for k, v := range flat {
		if k == "" {
			return nil, fmt.Errorf("empty field name")
		}
		branch := nest(strings.Split(k, Delimiter), v)
		if err := mergo.Merge(&nested, branch); err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
	}
	for k, e := range nested {
		nested[k] = restoreLists(e)
	}
	return nested, nil
}

func nest(keys []string, v interface{}) map[string]interface{} {
	n := map[string]interface{}{keys[len(keys)-1]: v}
	for i := len(keys) - 2; i >= 0; i-- {
		n = map[string]interface{}{keys[i]: n}
	}
	return n
}

func restoreLists(v interface{}) interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		return v
	}
	for k, e := range m {
		m[k] = restoreLists(e)
	}

	list := make([]interface{}, len(m))
	for k, e := range m {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 || i >= len(m) || list[i] != nil {
			return m
		}
		list[i] = e
	}
	if len(list) == 0 {
		return m
	}
	return list
}
