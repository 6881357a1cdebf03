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
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// EventLevel is the level of a Windows event.
type EventLevel uint8

const (
	LevelLogAlways EventLevel = iota
	LevelCritical
	LevelError
	LevelWarning
	LevelInformation
	LevelVerbose
)

// ErrInvalidEventLevel is returned for levels outside 0-5.
var ErrInvalidEventLevel = errors.New("invalid event level")

var levelNames = [...]string{"LogAlways", "Critical", "Error", "Warning", "Information", "Verbose"}

// ParseEventLevel converts the numeric level of an event record.
func ParseEventLevel(v uint64) (EventLevel, error) {
	if v >= uint64(len(levelNames)) {
		return 0, errors.Wrapf(ErrInvalidEventLevel, "level %d", v)
	}
	return EventLevel(v), nil
}

// String returns the lower case level name, e.g. "warning".
func (l EventLevel) String() string {
	if int(l) >= len(levelNames) {
		return "unknown"
	}
	return strings.ToLower(levelNames[l])
}

// Log renders the level as log.syslog.severity.
func (l EventLevel) Log() Log {
	return Log{
		Level:  l.String(),
		Syslog: &LogSyslog{Severity: LogSeverity{Code: int64(l), Name: l.String()}},
	}
}

// UnmarshalJSON reads a numeric level and rejects unknown values.
func (l *EventLevel) UnmarshalJSON(b []byte) error {
	v, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return errors.Wrapf(ErrInvalidEventLevel, "level %s", b)
	}
	*l, err = ParseEventLevel(v)
	return err
}
