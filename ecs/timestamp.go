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

// Package ecs assembles documents in the layout of the Elastic Common Schema.
// A document is created for one Timestamp and holds any number of typed field
// namespaces, each under its own top level key.
package ecs

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// Timestamp is an instant with millisecond precision. The zone the raw value
// was read in is kept as provenance only: two timestamps are equal iff their
// millisecond values are equal.
type Timestamp struct {
	millis int64
	zone   string
}

// InvalidTimestampError is returned for raw values that cannot be placed on
// the timeline.
type InvalidTimestampError struct {
	Raw    int64
	Zone   string
	Reason string
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp %d (%s): %s", e.Raw, e.Zone, e.Reason)
}

// FromEpoch reads raw as seconds of wall clock time in loc and normalizes it
// to UTC. The sentinels -1 and 0 mark a missing value and yield nil. Wall
// clock times that occur twice resolve to the earlier instant, wall clock
// times skipped by a transition are an error.
func FromEpoch(raw int64, loc *time.Location) (*Timestamp, error) {
	if raw == -1 || raw == 0 {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	if raw > math.MaxInt64/1000-secondsPerDay || raw < math.MinInt64/1000+secondsPerDay {
		return nil, &InvalidTimestampError{Raw: raw, Zone: loc.String(), Reason: "out of range"}
	}

	sec, ok := resolveWallClock(raw, loc)
	if !ok {
		return nil, &InvalidTimestampError{Raw: raw, Zone: loc.String(), Reason: "local time does not exist"}
	}
	return &Timestamp{millis: sec * 1000, zone: loc.String()}, nil
}

// resolveWallClock returns the earliest instant whose wall clock in loc reads
// wall. Offsets are probed a day before and after, transitions never occur
// twice in that window.
func resolveWallClock(wall int64, loc *time.Location) (int64, bool) {
	var earliest int64
	found := false
	for _, probe := range []int64{wall - secondsPerDay, wall, wall + secondsPerDay} {
		_, offset := time.Unix(probe, 0).In(loc).Zone()
		candidate := wall - int64(offset)
		if _, actual := time.Unix(candidate, 0).In(loc).Zone(); actual != offset {
			continue
		}
		if !found || candidate < earliest {
			earliest, found = candidate, true
		}
	}
	return earliest, found
}

// FromTime converts t into a Timestamp, truncating to milliseconds.
func FromTime(t time.Time) Timestamp {
	return Timestamp{millis: t.UnixMilli(), zone: t.Location().String()}
}

// FromMillis creates a UTC Timestamp from epoch milliseconds.
func FromMillis(millis int64) Timestamp {
	return Timestamp{millis: millis, zone: time.UTC.String()}
}

// UnixMilli returns the epoch milliseconds.
func (t Timestamp) UnixMilli() int64 { return t.millis }

// Zone returns the name of the zone the timestamp was read in.
func (t Timestamp) Zone() string { return t.zone }

// Time returns the instant in UTC.
func (t Timestamp) Time() time.Time { return time.UnixMilli(t.millis).UTC() }

// Equal reports whether both timestamps denote the same millisecond.
func (t Timestamp) Equal(o Timestamp) bool { return t.millis == o.millis }

// Before reports whether t is earlier than o.
func (t Timestamp) Before(o Timestamp) bool { return t.millis < o.millis }

func (t Timestamp) String() string {
	return t.Time().Format("2006-01-02T15:04:05.000Z")
}

// MarshalJSON renders the epoch milliseconds as an integer.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, t.millis, 10), nil
}

// UnmarshalJSON reads epoch milliseconds. The zone is set to UTC.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	millis, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(string(b), 64)
		if ferr != nil {
			return fmt.Errorf("timestamp %s is not a number of milliseconds", b)
		}
		millis = int64(f)
	}
	*t = FromMillis(millis)
	return nil
}
