package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotObject is returned when a document payload is not a JSON object.
var ErrNotObject = errors.New("document is not a JSON object")

// Document is the unit of persistence: every mutation rewrites it whole.
type Document struct {
	Roles      []Role                     `json:"roles"`
	TaskDefs   []TaskDef                  `json:"taskDefs"`
	DailyTasks map[string][]DailyInstance `json:"dailyTasks"`
	Rewards    []Reward                   `json:"rewards"`

	// Dropped counts entries skipped by DecodeDocument.
	Dropped int `json:"-"`
}

// NewDocument returns an empty document with all containers allocated.
func NewDocument() *Document {
	return &Document{
		Roles:      []Role{},
		TaskDefs:   []TaskDef{},
		DailyTasks: map[string][]DailyInstance{},
		Rewards:    []Reward{},
	}
}

// DecodeDocument parses a serialized document. Only the top-level shape is
// checked: a field of the wrong container type is replaced by its empty
// form, unknown keys are ignored and missing keys default to empty.
// Entries are decoded one at a time; numeric strings are accepted where
// numbers are expected, and an entry that still fails is dropped on its
// own and counted in Dropped.
func DecodeDocument(data []byte) (*Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	if fields == nil {
		return nil, ErrNotObject
	}

	doc := NewDocument()
	if raw, ok := fields["roles"]; ok {
		if roles, n, ok := decodeEntries[Role](raw); ok {
			doc.Roles = roles
			doc.Dropped += n
		}
	}
	if raw, ok := fields["taskDefs"]; ok {
		if defs, n, ok := decodeEntries[TaskDef](raw); ok {
			doc.TaskDefs = defs
			doc.Dropped += n
		}
	}
	if raw, ok := fields["dailyTasks"]; ok {
		var buckets map[string]json.RawMessage
		if json.Unmarshal(raw, &buckets) == nil {
			for date, bucket := range buckets {
				list, n, ok := decodeEntries[DailyInstance](bucket)
				if !ok {
					list = []DailyInstance{}
				}
				doc.DailyTasks[date] = list
				doc.Dropped += n
			}
		}
	}
	if raw, ok := fields["rewards"]; ok {
		if rewards, n, ok := decodeEntries[Reward](raw); ok {
			doc.Rewards = rewards
			doc.Dropped += n
		}
	}
	doc.normalize()
	return doc, nil
}

// Encode serializes the document. Map keys are emitted in sorted order, so
// equal documents always encode to identical bytes.
func (d *Document) Encode() ([]byte, error) {
	d.normalize()
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	c := &Document{
		Roles:      append([]Role{}, d.Roles...),
		TaskDefs:   make([]TaskDef, len(d.TaskDefs)),
		DailyTasks: make(map[string][]DailyInstance, len(d.DailyTasks)),
		Rewards:    append([]Reward{}, d.Rewards...),
	}
	for i, td := range d.TaskDefs {
		c.TaskDefs[i] = td.Clone()
	}
	for date, list := range d.DailyTasks {
		c.DailyTasks[date] = CloneInstances(list)
	}
	return c
}

// Clone returns a copy that shares no memory with t.
func (t TaskDef) Clone() TaskDef {
	c := t
	if t.RepeatDays != nil {
		c.RepeatDays = append(Weekdays{}, t.RepeatDays...)
	}
	if t.RepeatUntil != nil {
		until := *t.RepeatUntil
		c.RepeatUntil = &until
	}
	return c
}

// CloneInstances deep-copies a date bucket.
func CloneInstances(list []DailyInstance) []DailyInstance {
	out := make([]DailyInstance, len(list))
	for i, it := range list {
		out[i] = it
		if it.CompletedAt != nil {
			at := *it.CompletedAt
			out[i].CompletedAt = &at
		}
	}
	return out
}

func (d *Document) normalize() {
	if d.Roles == nil {
		d.Roles = []Role{}
	}
	if d.TaskDefs == nil {
		d.TaskDefs = []TaskDef{}
	}
	if d.DailyTasks == nil {
		d.DailyTasks = map[string][]DailyInstance{}
	}
	for date, list := range d.DailyTasks {
		if list == nil {
			d.DailyTasks[date] = []DailyInstance{}
		}
	}
	if d.Rewards == nil {
		d.Rewards = []Reward{}
	}
}
