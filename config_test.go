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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "https://localhost:9200", cfg.Address())
	assert.Equal(t, "elastic", cfg.Username)
	assert.Equal(t, 1000, cfg.BulkSize)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()
	valid.Index = "case"

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"no index", func(c *Config) { c.Index = "" }, true},
		{"bulk size", func(c *Config) { c.BulkSize = 0 }, true},
		{"protocol", func(c *Config) { c.Protocol = "ftp" }, true},
		{"port", func(c *Config) { c.Port = 70000 }, true},
		{"sqlite ignores protocol", func(c *Config) { c.Protocol = ""; c.SQLite = "case.db" }, false},
		{"timezone", func(c *Config) { c.Timezone = "Europe/Berlin" }, false},
		{"unknown timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.modify(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMappings(t *testing.T) {
	mappings, err := LoadMappings(strings.NewReader("settings:\n  number_of_shards: 1\nmappings:\n  dynamic: false\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"dynamic": false}, mappings["mappings"])
	assert.Equal(t, map[string]interface{}{"number_of_shards": 1}, mappings["settings"])

	_, err = LoadMappings(strings.NewReader("settings: {}\n"))
	assert.Error(t, err)

	_, err = LoadMappings(strings.NewReader("mappings: [unclosed\n"))
	assert.Error(t, err)
}
