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
)

// failureMap collects rejected document ids by error type. It is written by
// the flush worker and read by callers of Index.Stats.
type failureMap struct {
	sync.RWMutex
	failures map[string]map[string]bool
}

func newFailureMap() *failureMap {
	return &failureMap{
		failures: map[string]map[string]bool{},
	}
}

func (fm *failureMap) add(errorType, id string) {
	if errorType == "" {
		errorType = "unknown"
	}
	fm.Lock()
	if _, ok := fm.failures[errorType]; !ok {
		fm.failures[errorType] = map[string]bool{}
	}
	fm.failures[errorType][id] = true
	fm.Unlock()
}

func (fm *failureMap) addAll(failures []ItemFailure) {
	for _, failure := range failures {
		fm.add(failure.Type, failure.ID)
	}
}

// counts returns the number of distinct documents per error type.
func (fm *failureMap) counts() map[string]int {
	fm.RLock()
	defer fm.RUnlock()
	counts := make(map[string]int, len(fm.failures))
	for errorType, ids := range fm.failures {
		counts[errorType] = len(ids)
	}
	return counts
}

// counterMap holds the running totals of an Index.
type counterMap struct {
	sync.RWMutex
	counters map[string]int
}

func newCounterMap() *counterMap {
	return &counterMap{counters: map[string]int{}}
}

func (cm *counterMap) add(name string, n int) {
	cm.Lock()
	cm.counters[name] += n
	cm.Unlock()
}

func (cm *counterMap) get(name string) int {
	cm.RLock()
	defer cm.RUnlock()
	return cm.counters[name]
}
