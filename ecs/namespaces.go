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

// Namespace is a group of fields stored under one top level document key.
// Struct namespaces are converted with their `ecs` struct tags, namespaces
// that also implement Fields provide their map directly.
type Namespace interface {
	Key() string
}

// File holds the file.* fields.
type File struct {
	Path       string     `ecs:"path,omitempty"`
	Name       string     `ecs:"name,omitempty"`
	Directory  string     `ecs:"directory,omitempty"`
	Type       string     `ecs:"type,omitempty"`
	Mode       string     `ecs:"mode,omitempty"`
	Inode      string     `ecs:"inode,omitempty"`
	UID        *int64     `ecs:"uid,omitempty"`
	GID        *int64     `ecs:"gid,omitempty"`
	Size       *int64     `ecs:"size,omitempty"`
	Attributes []string   `ecs:"attributes,omitempty"`
	Mtime      *Timestamp `ecs:"mtime,omitempty,omitnested"`
	Accessed   *Timestamp `ecs:"accessed,omitempty,omitnested"`
	Ctime      *Timestamp `ecs:"ctime,omitempty,omitnested"`
	Created    *Timestamp `ecs:"created,omitempty,omitnested"`
	MACBShort  string     `ecs:"macb_short,omitempty"`
	MACBLong   []string   `ecs:"macb_long,omitempty"`
}

func (File) Key() string { return "file" }

// SetMACB stores both renderings of m.
func (f *File) SetMACB(m MACB) {
	f.MACBShort = m.Short()
	f.MACBLong = m.Long()
}

// Event holds the event.* fields.
type Event struct {
	Kind       string                 `ecs:"kind,omitempty"`
	Category   []string               `ecs:"category,omitempty"`
	Type       []string               `ecs:"type,omitempty"`
	Action     string                 `ecs:"action,omitempty"`
	Code       string                 `ecs:"code,omitempty"`
	Sequence   *int64                 `ecs:"sequence,omitempty"`
	Module     string                 `ecs:"module,omitempty"`
	Dataset    string                 `ecs:"dataset,omitempty"`
	Provider   string                 `ecs:"provider,omitempty"`
	Severity   *int64                 `ecs:"severity,omitempty"`
	Activity   string                 `ecs:"activity,omitempty"`
	Outcome    string                 `ecs:"outcome,omitempty"`
	CustomData map[string]interface{} `ecs:"custom_data,omitempty,omitnested"`
}

func (Event) Key() string { return "event" }

// Host holds the host.* fields.
type Host struct {
	Name     string `ecs:"name,omitempty"`
	Hostname string `ecs:"hostname,omitempty"`
	Domain   string `ecs:"domain,omitempty"`
	ID       string `ecs:"id,omitempty"`
}

func (Host) Key() string { return "host" }

// Log holds the log.* fields.
type Log struct {
	Level  string     `ecs:"level,omitempty"`
	Syslog *LogSyslog `ecs:"syslog,omitempty"`
}

func (Log) Key() string { return "log" }

// LogSyslog is log.syslog.
type LogSyslog struct {
	Severity LogSeverity `ecs:"severity"`
}

// LogSeverity is log.syslog.severity.
type LogSeverity struct {
	Code int64  `ecs:"code"`
	Name string `ecs:"name,omitempty"`
}

// Registry holds the registry.* fields.
type Registry struct {
	Hive   string          `ecs:"hive,omitempty"`
	Subkey string          `ecs:"key,omitempty"`
	Path   string          `ecs:"path,omitempty"`
	Values []RegistryValue `ecs:"values,omitempty"`
}

func (Registry) Key() string { return "registry" }

// RegistryValue is one value below a registry key.
type RegistryValue struct {
	Name string `ecs:"name"`
	Type string `ecs:"type,omitempty"`
	Data string `ecs:"data,omitempty"`
}

// User holds the user.* fields.
type User struct {
	Name     string `ecs:"name,omitempty"`
	ID       string `ecs:"id,omitempty"`
	Domain   string `ecs:"domain,omitempty"`
	FullName string `ecs:"full_name,omitempty"`
	Email    string `ecs:"email,omitempty"`
}

func (User) Key() string { return "user" }

// Group holds the group.* fields.
type Group struct {
	Name   string `ecs:"name,omitempty"`
	ID     string `ecs:"id,omitempty"`
	Domain string `ecs:"domain,omitempty"`
}

func (Group) Key() string { return "group" }

// ActiveDirectory is the custom ad.* namespace for directory objects.
type ActiveDirectory struct {
	DistinguishedName string                 `ecs:"distinguished_name,omitempty"`
	ObjectGUID        string                 `ecs:"object_guid,omitempty"`
	ObjectSID         string                 `ecs:"object_sid,omitempty"`
	ObjectClass       []string               `ecs:"object_class,omitempty"`
	SAMAccountName    string                 `ecs:"sam_account_name,omitempty"`
	WhenCreated       *Timestamp             `ecs:"when_created,omitempty,omitnested"`
	WhenChanged       *Timestamp             `ecs:"when_changed,omitempty,omitnested"`
	LastLogon         *Timestamp             `ecs:"last_logon,omitempty,omitnested"`
	PwdLastSet        *Timestamp             `ecs:"pwd_last_set,omitempty,omitnested"`
	TimestampRoles    []string               `ecs:"timestamp_roles,omitempty"`
	Attributes        map[string]interface{} `ecs:"attributes,omitempty,omitnested"`
}

func (ActiveDirectory) Key() string { return "ad" }

// Custom is a namespace outside the typed field sets.
type Custom struct {
	Name   string
	Values map[string]interface{}
}

func (c Custom) Key() string { return c.Name }

// Fields returns the values as they are.
func (c Custom) Fields() map[string]interface{} { return c.Values }
