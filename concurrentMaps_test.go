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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_failureMap_add(t *testing.T) {
	type args struct {
		errorType string
		ids       []string
	}
	tests := []struct {
		name string
		args args
		want map[string]int
	}{
		{"add new", args{"mapper_parsing_exception", []string{"a"}}, map[string]int{"mapper_parsing_exception": 1}},
		{"add twice", args{"mapper_parsing_exception", []string{"a", "a", "b"}}, map[string]int{"mapper_parsing_exception": 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm := newFailureMap()
			for _, id := range tt.args.ids {
				fm.add(tt.args.errorType, id)
			}
			assert.Equal(t, tt.want, fm.counts())
		})
	}
}

func Test_failureMap_addAll(t *testing.T) {
	fm := newFailureMap()
	fm.addAll([]ItemFailure{
		{ID: "a", Status: 400, Type: "mapper_parsing_exception"},
		{ID: "b", Status: 429, Type: "es_rejected_execution_exception"},
		{ID: "c", Status: 500},
	})
	fm.addAll([]ItemFailure{{ID: "a", Status: 400, Type: "mapper_parsing_exception"}})
	fm.add("", "c")
	assert.Equal(t, map[string]int{
		"mapper_parsing_exception":        1,
		"es_rejected_execution_exception": 1,
		"unknown":                         1,
	}, fm.counts())
}

func Test_counterMap_concurrent(t *testing.T) {
	cm := newCounterMap()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cm.add("flushes", 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1000, cm.get("flushes"))
}
