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

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/forensicanalysis/es4forensics/ecs"
)

// ADObject is an Active Directory object with its replication timestamps.
type ADObject struct {
	DistinguishedName string                 `json:"distinguished_name"`
	ObjectGUID        string                 `json:"object_guid,omitempty"`
	ObjectSID         string                 `json:"object_sid,omitempty"`
	ObjectClass       []string               `json:"object_class,omitempty"`
	SAMAccountName    string                 `json:"sam_account_name,omitempty"`
	WhenCreated       *ecs.Timestamp         `json:"when_created,omitempty"`
	WhenChanged       *ecs.Timestamp         `json:"when_changed,omitempty"`
	LastLogon         *ecs.Timestamp         `json:"last_logon,omitempty"`
	PwdLastSet        *ecs.Timestamp         `json:"pwd_last_set,omitempty"`
	Attributes        map[string]interface{} `json:"attributes,omitempty"`
}

var adRoles = [4]string{"created", "changed", "last_logon", "password_last_set"}

func (o *ADObject) Kind() string { return "ADObject" }

func (o *ADObject) validate() error {
	if o.DistinguishedName == "" {
		return errors.New("ADObject: distinguished name is empty")
	}
	if o.ObjectGUID != "" {
		guid, err := uuid.Parse(o.ObjectGUID)
		if err != nil {
			return errors.Wrapf(err, "ADObject %s: invalid objectGUID", o.DistinguishedName)
		}
		o.ObjectGUID = guid.String()
	}
	return nil
}

func (o *ADObject) hasClass(class string) bool {
	for _, c := range o.ObjectClass {
		if strings.EqualFold(c, class) {
			return true
		}
	}
	return false
}

// domain returns the DNS name built from the DC components of the
// distinguished name.
func (o *ADObject) domain() string {
	var dcs []string
	for _, rdn := range strings.Split(o.DistinguishedName, ",") {
		kv := strings.SplitN(strings.TrimSpace(rdn), "=", 2)
		if len(kv) == 2 && strings.EqualFold(kv[0], "DC") {
			dcs = append(dcs, kv[1])
		}
	}
	return strings.Join(dcs, ".")
}

// Entries returns one entry per distinct timestamp. The roles the timestamp
// fills are listed in ad.timestamp_roles.
func (o *ADObject) Entries() ([]Entry, error) {
	candidates := [4]*ecs.Timestamp{o.WhenCreated, o.WhenChanged, o.LastLogon, o.PwdLastSet}

	var entries []Entry
	for _, ts := range distinct(candidates[:]...) {
		var roles []string
		for i, candidate := range candidates {
			if candidate != nil && candidate.Equal(ts) {
				roles = append(roles, adRoles[i])
			}
		}

		namespaces := []ecs.Namespace{ecs.ActiveDirectory{
			DistinguishedName: o.DistinguishedName,
			ObjectGUID:        o.ObjectGUID,
			ObjectSID:         o.ObjectSID,
			ObjectClass:       o.ObjectClass,
			SAMAccountName:    o.SAMAccountName,
			WhenCreated:       o.WhenCreated,
			WhenChanged:       o.WhenChanged,
			LastLogon:         o.LastLogon,
			PwdLastSet:        o.PwdLastSet,
			TimestampRoles:    roles,
			Attributes:        lowerMap(o.Attributes),
		}}
		switch {
		case o.hasClass("computer"):
			namespaces = append(namespaces, ecs.Host{
				Name:   strings.TrimSuffix(o.SAMAccountName, "$"),
				Domain: o.domain(),
			})
		case o.hasClass("user"):
			namespaces = append(namespaces, ecs.User{Name: o.SAMAccountName, ID: o.ObjectSID, Domain: o.domain()})
		case o.hasClass("group"):
			namespaces = append(namespaces, ecs.Group{Name: o.SAMAccountName, ID: o.ObjectSID, Domain: o.domain()})
		}

		entries = append(entries, Entry{
			Timestamp:  ts,
			Namespaces: namespaces,
			Tags:       []string{"ad"},
			Message:    o.DistinguishedName,
		})
	}
	return entries, nil
}
