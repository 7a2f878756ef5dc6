package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// lenientInt decodes a JSON number or a numeric string. Older data files
// stored some counters as strings ("3").
type lenientInt int64

func (n *lenientInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		text = strings.TrimSpace(s)
	}
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		*n = lenientInt(v)
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("not a number: %s", data)
	}
	*n = lenientInt(f)
	return nil
}

// lenientBool decodes true/false as booleans or strings.
type lenientBool bool

func (b *lenientBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		text = strings.TrimSpace(s)
	}
	v, err := strconv.ParseBool(text)
	if err != nil {
		return fmt.Errorf("not a boolean: %s", data)
	}
	*b = lenientBool(v)
	return nil
}

func (r *Role) UnmarshalJSON(data []byte) error {
	type plain Role
	aux := struct {
		*plain
		Points lenientInt `json:"points"`
	}{plain: (*plain)(r), Points: lenientInt(r.Points)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Points = int(aux.Points)
	return nil
}

func (t *TaskDef) UnmarshalJSON(data []byte) error {
	type plain TaskDef
	aux := struct {
		*plain
		Points lenientInt `json:"points"`
	}{plain: (*plain)(t), Points: lenientInt(t.Points)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.Points = int(aux.Points)
	return nil
}

func (d *DailyInstance) UnmarshalJSON(data []byte) error {
	type plain DailyInstance
	aux := struct {
		*plain
		Points      lenientInt  `json:"points"`
		Completed   lenientBool `json:"completed"`
		CompletedAt *lenientInt `json:"completedAt"`
	}{plain: (*plain)(d), Points: lenientInt(d.Points), Completed: lenientBool(d.Completed)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d.Points = int(aux.Points)
	d.Completed = bool(aux.Completed)
	d.CompletedAt = nil
	if aux.CompletedAt != nil {
		at := int64(*aux.CompletedAt)
		d.CompletedAt = &at
	}
	return nil
}

func (rw *Reward) UnmarshalJSON(data []byte) error {
	type plain Reward
	aux := struct {
		*plain
		Cost          lenientInt `json:"cost"`
		RedeemedCount lenientInt `json:"redeemedCount"`
	}{plain: (*plain)(rw), Cost: lenientInt(rw.Cost), RedeemedCount: lenientInt(rw.RedeemedCount)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	rw.Cost = int(aux.Cost)
	rw.RedeemedCount = int(aux.RedeemedCount)
	return nil
}

// decodeEntries decodes a JSON array one element at a time, so a single
// malformed element costs only itself. ok is false when raw is not an
// array.
func decodeEntries[T any](raw json.RawMessage) (out []T, dropped int, ok bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, 0, false
	}
	out = make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			dropped++
			continue
		}
		out = append(out, v)
	}
	return out, dropped, true
}
