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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/es4forensics/ecs"
)

const evtxRecord = `{
  "Event": {
    "System": {
      "Provider": {"#attributes": {"Name": "Microsoft-Windows-Security-Auditing"}},
      "EventID": 4624,
      "Level": 0,
      "TimeCreated": {"#attributes": {"SystemTime": "2019-12-23T09:15:11.123456Z"}},
      "EventRecordID": 1042,
      "Correlation": {"#attributes": {"ActivityID": "{F1F2C3E4-0000-0000-0000-000000000000}"}},
      "Channel": "Security",
      "Computer": "WS01.corp.example.com"
    },
    "EventData": {
      "TargetUserName": "Administrator",
      "LogonType": 3,
      "IpAddress": ""
    }
  }
}`

func TestParseEvtxRecord(t *testing.T) {
	event, err := ParseEvtxRecord([]byte(evtxRecord))
	require.NoError(t, err)

	docs, err := Documents(event)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	b, err := json.Marshal(docs[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"@timestamp": 1577092511123,
		"ecs": {"version": "8.4"},
		"tags": ["evtx"],
		"event": {
			"kind": "event",
			"code": "4624",
			"sequence": 1042,
			"module": "Security",
			"provider": "Microsoft-Windows-Security-Auditing",
			"severity": 0,
			"activity": "{F1F2C3E4-0000-0000-0000-000000000000}",
			"custom_data": {"target_user_name": "Administrator", "logon_type": 3}
		},
		"host": {"name": "WS01.corp.example.com"},
		"log": {
			"level": "logalways",
			"syslog": {"severity": {"code": 0, "name": "logalways"}}
		}
	}`, string(b))
}

func TestParseEvtxRecordErrors(t *testing.T) {
	tests := []struct {
		name   string
		record string
	}{
		{"invalid json", `{"Event": `},
		{"no system", `{"Event": {}}`},
		{"bad time", `{"Event": {"System": {"TimeCreated": {"#attributes": {"SystemTime": "yesterday"}}, "EventID": 1}}}`},
		{"bad level", `{"Event": {"System": {"TimeCreated": {"#attributes": {"SystemTime": "2019-12-23T09:15:11Z"}}, "EventID": 1, "Level": 9}}}`},
		{"no event id", `{"Event": {"System": {"TimeCreated": {"#attributes": {"SystemTime": "2019-12-23T09:15:11Z"}}}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvtxRecord([]byte(tt.record))
			assert.Error(t, err)
		})
	}
}

func TestParseEvtxRecordQualifiedEventID(t *testing.T) {
	record := `{"Event": {"System": {"TimeCreated": {"#attributes": {"SystemTime": "2019-12-23T09:15:11Z"}},
		"EventID": {"#attributes": {"Qualifiers": 16384}, "#text": 7036}, "Level": 4}}}`
	event, err := ParseEvtxRecord([]byte(record))
	require.NoError(t, err)
	assert.Equal(t, uint64(7036), event.EventID)
	assert.Equal(t, ecs.LevelInformation, event.Level)
}

func TestEventLevel(t *testing.T) {
	tests := []struct {
		level   uint64
		want    string
		wantErr bool
	}{
		{0, "logalways", false},
		{1, "critical", false},
		{2, "error", false},
		{3, "warning", false},
		{4, "information", false},
		{5, "verbose", false},
		{6, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := ecs.ParseEventLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseEventLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestWindowsEventHost(t *testing.T) {
	tests := []struct {
		name     string
		computer string
		want     map[string]interface{}
	}{
		{"computer", "dc01", map[string]interface{}{"name": "dc01"}},
		{"no computer", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := Documents(&WindowsEvent{Timestamp: ecs.FromMillis(1000), EventID: 4624, Computer: tt.computer})
			require.NoError(t, err)
			require.Len(t, docs, 1)
			assert.Equal(t, tt.want, docs[0].Namespace("host"))
		})
	}
}
