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
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/es4forensics/ecs"
)

// WindowsEvent is one record of a Windows event log.
type WindowsEvent struct {
	EventRecordID uint64                 `json:"event_record_id"`
	Timestamp     ecs.Timestamp          `json:"timestamp"`
	EventID       uint64                 `json:"event_id"`
	Level         ecs.EventLevel         `json:"level"`
	Computer      string                 `json:"computer"`
	ProviderName  string                 `json:"provider_name"`
	ChannelName   string                 `json:"channel_name"`
	ActivityID    string                 `json:"activity_id,omitempty"`
	CustomData    map[string]interface{} `json:"custom_data,omitempty"`
}

// gjson paths into the JSON rendering of an evtx record.
const (
	evtxSystem     = "Event.System"
	evtxAttributes = `\#attributes`
)

// ParseEvtxRecord reads one event in the JSON layout of evtx dump tools,
// {"Event": {"System": {...}, "EventData": {...}}}.
func ParseEvtxRecord(record []byte) (*WindowsEvent, error) {
	if !gjson.ValidBytes(record) {
		return nil, errors.New("evtx record is not valid JSON")
	}
	system := gjson.GetBytes(record, evtxSystem)
	if !system.Exists() {
		return nil, errors.New("evtx record has no Event.System")
	}

	systemTime := system.Get("TimeCreated." + evtxAttributes + ".SystemTime").String()
	created, err := time.Parse(time.RFC3339Nano, systemTime)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid SystemTime %q", systemTime)
	}

	eventID := system.Get("EventID")
	if eventID.IsObject() {
		eventID = eventID.Get(`\#text`)
	}
	if eventID.Type != gjson.Number {
		return nil, errors.Errorf("invalid EventID %s", eventID.Raw)
	}

	level, err := ecs.ParseEventLevel(system.Get("Level").Uint())
	if err != nil {
		return nil, err
	}

	event := &WindowsEvent{
		EventRecordID: system.Get("EventRecordID").Uint(),
		Timestamp:     ecs.FromTime(created),
		EventID:       eventID.Uint(),
		Level:         level,
		Computer:      system.Get("Computer").String(),
		ProviderName:  system.Get("Provider." + evtxAttributes + ".Name").String(),
		ChannelName:   system.Get("Channel").String(),
		ActivityID:    system.Get("Correlation." + evtxAttributes + ".ActivityID").String(),
	}

	for _, path := range []string{"Event.EventData", "Event.UserData"} {
		data := gjson.GetBytes(record, path)
		if m, ok := data.Value().(map[string]interface{}); ok && len(m) > 0 {
			event.CustomData = m
			break
		}
	}
	return event, event.validate()
}

func (e *WindowsEvent) Kind() string { return "WindowsEvent" }

func (e *WindowsEvent) validate() error {
	if e.Timestamp.UnixMilli() == 0 {
		return errors.Errorf("WindowsEvent %d: timestamp is missing", e.EventRecordID)
	}
	if _, err := ecs.ParseEventLevel(uint64(e.Level)); err != nil {
		return err
	}
	return nil
}

// Entries returns a single entry for the time the event was written.
func (e *WindowsEvent) Entries() ([]Entry, error) {
	event := ecs.Event{
		Kind:       "event",
		Code:       strconv.FormatUint(e.EventID, 10),
		Sequence:   int64p(int64(e.EventRecordID)),
		Module:     e.ChannelName,
		Provider:   e.ProviderName,
		Severity:   int64p(int64(e.Level)),
		Activity:   e.ActivityID,
		CustomData: lowerMap(e.CustomData),
	}

	namespaces := []ecs.Namespace{event, e.Level.Log()}
	if e.Computer != "" {
		namespaces = append(namespaces, ecs.Host{Name: e.Computer})
	}
	return []Entry{{
		Timestamp:  e.Timestamp,
		Namespaces: namespaces,
		Tags:       []string{"evtx"},
	}}, nil
}
