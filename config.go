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
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of an ingestion run.
type Config struct {
	Index    string `mapstructure:"index"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Protocol string `mapstructure:"proto"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Insecure bool   `mapstructure:"insecure"`

	BulkSize int  `mapstructure:"bulk-size"`
	Strict   bool `mapstructure:"strict"`
	// Timezone of the raw timestamps in bodyfiles, an IANA name.
	Timezone string `mapstructure:"timezone"`
	// SQLite writes to a local database file instead of a remote store.
	SQLite string `mapstructure:"sqlite"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Host:     "localhost",
		Port:     9200,
		Protocol: "https",
		Username: "elastic",
		BulkSize: 1000,
		Timezone: "UTC",
	}
}

// Address returns the base URL of the store.
func (c Config) Address() string {
	return fmt.Sprintf("%s://%s:%d", c.Protocol, c.Host, c.Port)
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	return loc, errors.Wrapf(err, "unknown timezone %q", c.Timezone)
}

// Validate checks the configuration for values no run can work with.
func (c Config) Validate() error {
	if c.Index == "" {
		return errors.New("index name is required")
	}
	if c.BulkSize < 1 {
		return errors.Wrapf(ErrInvalidCapacity, "bulk size %d", c.BulkSize)
	}
	if c.SQLite == "" {
		switch c.Protocol {
		case "http", "https":
		default:
			return errors.Errorf("unsupported protocol %q", c.Protocol)
		}
		if c.Port < 1 || c.Port > 65535 {
			return errors.Errorf("invalid port %d", c.Port)
		}
	}
	_, err := c.Location()
	return err
}

// DefaultMappings is the index body used for new indices.
func DefaultMappings() map[string]interface{} {
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"dynamic": true,
			"properties": map[string]interface{}{
				"@timestamp": map[string]interface{}{"type": "date", "format": "epoch_millis"},
				"message":    map[string]interface{}{"type": "text"},
				"tags":       map[string]interface{}{"type": "keyword"},
				"ecs": map[string]interface{}{"properties": map[string]interface{}{
					"version": map[string]interface{}{"type": "keyword"},
				}},
				"file": map[string]interface{}{"properties": map[string]interface{}{
					"path":       map[string]interface{}{"type": "keyword"},
					"name":       map[string]interface{}{"type": "keyword"},
					"directory":  map[string]interface{}{"type": "keyword"},
					"inode":      map[string]interface{}{"type": "keyword"},
					"mode":       map[string]interface{}{"type": "keyword"},
					"size":       map[string]interface{}{"type": "long"},
					"mtime":      map[string]interface{}{"type": "date", "format": "epoch_millis"},
					"accessed":   map[string]interface{}{"type": "date", "format": "epoch_millis"},
					"ctime":      map[string]interface{}{"type": "date", "format": "epoch_millis"},
					"created":    map[string]interface{}{"type": "date", "format": "epoch_millis"},
					"macb_short": map[string]interface{}{"type": "keyword"},
					"macb_long":  map[string]interface{}{"type": "keyword"},
				}},
				"event": map[string]interface{}{"properties": map[string]interface{}{
					"kind":        map[string]interface{}{"type": "keyword"},
					"code":        map[string]interface{}{"type": "keyword"},
					"provider":    map[string]interface{}{"type": "keyword"},
					"custom_data": map[string]interface{}{"type": "object"},
				}},
			},
		},
	}
}

// LoadMappings reads an index body from YAML.
func LoadMappings(r io.Reader) (map[string]interface{}, error) {
	mappings := map[string]interface{}{}
	if err := yaml.NewDecoder(r).Decode(&mappings); err != nil {
		return nil, errors.Wrap(err, "could not parse mappings")
	}
	if _, ok := mappings["mappings"]; !ok {
		return nil, errors.New("mappings file has no mappings key")
	}
	return mappings, nil
}
