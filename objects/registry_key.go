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
	"strings"

	"github.com/pkg/errors"

	"github.com/forensicanalysis/es4forensics/ecs"
)

var hives = map[string]string{
	"HKEY_CLASSES_ROOT":   "HKCR",
	"HKEY_CURRENT_USER":   "HKCU",
	"HKEY_LOCAL_MACHINE":  "HKLM",
	"HKEY_USERS":          "HKU",
	"HKEY_CURRENT_CONFIG": "HKCC",
}

// RegistryValue is a value of a registry key.
type RegistryValue struct {
	Name     string `json:"name"`
	DataType string `json:"data_type,omitempty"`
	Data     string `json:"data,omitempty"`
}

// RegistryKey is a registry key with its last write time.
type RegistryKey struct {
	Key           string          `json:"key"`
	LastWriteTime ecs.Timestamp   `json:"last_write_time"`
	Values        []RegistryValue `json:"values,omitempty"`
}

func (k *RegistryKey) Kind() string { return "RegistryKey" }

func (k *RegistryKey) validate() error {
	if k.Key == "" {
		return errors.New("RegistryKey: key is empty")
	}
	if k.LastWriteTime.UnixMilli() == 0 {
		return errors.Errorf("RegistryKey %s: last write time is missing", k.Key)
	}
	return nil
}

// split returns the abbreviated hive and the key below it.
func (k *RegistryKey) split() (hive, subkey string) {
	parts := strings.SplitN(k.Key, `\`, 2)
	hive = strings.ToUpper(parts[0])
	if short, ok := hives[hive]; ok {
		hive = short
	}
	if len(parts) == 2 {
		subkey = parts[1]
	}
	return hive, subkey
}

// Entries returns a single entry for the last write time.
func (k *RegistryKey) Entries() ([]Entry, error) {
	hive, subkey := k.split()
	registry := ecs.Registry{Hive: hive, Subkey: subkey, Path: k.Key}
	for _, v := range k.Values {
		registry.Values = append(registry.Values, ecs.RegistryValue{Name: v.Name, Type: v.DataType, Data: v.Data})
	}

	return []Entry{{
		Timestamp:  k.LastWriteTime,
		Namespaces: []ecs.Namespace{registry},
		Tags:       []string{"registry"},
		Message:    k.Key,
	}}, nil
}
