package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

type RepeatType string

const (
	RepeatDaily  RepeatType = "daily"
	RepeatWeekly RepeatType = "weekly"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// TaskDef is a recurring obligation assigned to a role. It is a rule, not
// an occurrence; occurrences are DailyInstance values.
type TaskDef struct {
	ID          string     `json:"id"`
	RoleID      string     `json:"roleId"`
	Title       string     `json:"title"`
	Points      int        `json:"points"`
	Note        string     `json:"note"`
	RepeatType  RepeatType `json:"repeatType"`
	RepeatDays  Weekdays   `json:"repeatDays"`
	RepeatUntil *string    `json:"repeatUntil"`
	Priority    Priority   `json:"priority"`
}

// Until returns the inclusive end date, or "" when the task repeats forever.
func (t TaskDef) Until() string {
	if t.RepeatUntil == nil {
		return ""
	}
	return *t.RepeatUntil
}

// Weekdays holds weekday numbers, 0 = Sunday through 6 = Saturday.
//
// Older data files stored some entries as strings ("1"), so decoding
// accepts numerals and numeric strings alike and drops anything else.
type Weekdays []int

func (w *Weekdays) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// Not an array: treated as no days at all.
		*w = Weekdays{}
		return nil
	}

	days := make(Weekdays, 0, len(raw))
	for _, item := range raw {
		if day, ok := decodeWeekday(item); ok {
			days = append(days, day)
		}
	}
	*w = days
	return nil
}

func (w Weekdays) MarshalJSON() ([]byte, error) {
	if w == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int(w))
}

// Contains reports whether day is one of the scheduled weekdays.
func (w Weekdays) Contains(day int) bool {
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

func decodeWeekday(item json.RawMessage) (int, bool) {
	item = bytes.TrimSpace(item)

	var n float64
	if err := json.Unmarshal(item, &n); err == nil {
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	}

	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}
