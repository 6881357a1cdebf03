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
	"strings"
)

// Candidate positions of the four filesystem timestamp roles.
const (
	Modified = iota
	Accessed
	Changed
	Born
)

var macbRoles = [4]struct {
	short byte
	long  string
}{
	{'m', "modified"},
	{'a', "accessed"},
	{'c', "changed"},
	{'b', "born"},
}

// MACB records which of the four filesystem timestamp roles a timestamp fills
// for one record.
type MACB struct {
	Modified bool
	Accessed bool
	Changed  bool
	Born     bool
}

// ComputeMACB sets flag i iff candidates[i] is present and equal to ref.
func ComputeMACB(candidates [4]*Timestamp, ref Timestamp) MACB {
	var flags [4]bool
	for i, candidate := range candidates {
		flags[i] = candidate != nil && candidate.Equal(ref)
	}
	return macbFromFlags(flags)
}

// ParseMACB reads the short form, e.g. "m.c.".
func ParseMACB(s string) (MACB, error) {
	var flags [4]bool
	if len(s) != len(macbRoles) {
		return MACB{}, fmt.Errorf("macb %q must have %d characters", s, len(macbRoles))
	}
	for i, role := range macbRoles {
		switch s[i] {
		case role.short:
			flags[i] = true
		case '.':
		default:
			return MACB{}, fmt.Errorf("macb %q: unexpected %q at position %d", s, s[i], i)
		}
	}
	return macbFromFlags(flags), nil
}

func macbFromFlags(flags [4]bool) MACB {
	return MACB{
		Modified: flags[Modified],
		Accessed: flags[Accessed],
		Changed:  flags[Changed],
		Born:     flags[Born],
	}
}

func (m MACB) flags() [4]bool {
	return [4]bool{m.Modified, m.Accessed, m.Changed, m.Born}
}

// Any reports whether at least one role is set.
func (m MACB) Any() bool {
	return m.Modified || m.Accessed || m.Changed || m.Born
}

// Short renders the flags in fixed m/a/c/b order, '.' marks an unset role.
func (m MACB) Short() string {
	var sb strings.Builder
	for i, set := range m.flags() {
		if set {
			sb.WriteByte(macbRoles[i].short)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

// Long lists the names of the set roles in m/a/c/b order.
func (m MACB) Long() []string {
	var roles []string
	for i, set := range m.flags() {
		if set {
			roles = append(roles, macbRoles[i].long)
		}
	}
	return roles
}

func (m MACB) String() string { return m.Short() }
