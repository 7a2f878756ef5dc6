package recurrence

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dukerupert/tally/internal/model"
)

func until(s string) *string { return &s }

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
		weekday time.Weekday
	}{
		{"2025-01-01", false, time.Wednesday},
		{"2025-01-06", false, time.Monday},
		{"2022-01-01", false, time.Saturday},
		{"2024-02-29", false, time.Thursday},
		{"2023-02-29", true, 0},
		{"2025-13-01", true, 0},
		{"2025-1-01", true, 0},
		{"2025/01/01", true, 0},
		{"", true, 0},
		{"abcd-ef-gh", true, 0},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDate(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDate(%q) error: %v", tt.input, err)
			continue
		}
		if got.Weekday() != tt.weekday {
			t.Errorf("ParseDate(%q).Weekday() = %v, want %v", tt.input, got.Weekday(), tt.weekday)
		}
		if FormatDate(got) != tt.input {
			t.Errorf("FormatDate round trip = %q, want %q", FormatDate(got), tt.input)
		}
	}
}

func TestWeekdayIgnoresLocalTimezone(t *testing.T) {
	orig := time.Local
	t.Cleanup(func() { time.Local = orig })

	for _, zone := range []string{"Pacific/Kiritimati", "Pacific/Pago_Pago", "UTC"} {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			t.Skipf("zone %s unavailable: %v", zone, err)
		}
		time.Local = loc
		wd, err := Weekday("2025-01-06")
		if err != nil {
			t.Fatalf("Weekday: %v", err)
		}
		if wd != 1 {
			t.Errorf("%s: weekday = %d, want 1", zone, wd)
		}
	}
}

func TestDailyEligibleEveryDay(t *testing.T) {
	def := model.TaskDef{ID: "t1", RepeatType: model.RepeatDaily, RepeatDays: model.Weekdays{}}

	for _, date := range []string{"2025-01-01", "2025-01-06", "1999-12-31", "2040-06-15"} {
		if !IsEligible(def, date) {
			t.Errorf("daily task not eligible on %s", date)
		}
	}
}

func TestRepeatUntilInclusive(t *testing.T) {
	def := model.TaskDef{ID: "t2", RepeatType: model.RepeatDaily, RepeatUntil: until("2023-01-01")}

	if !IsEligible(def, "2022-01-01") {
		t.Error("expected eligible before repeatUntil")
	}
	if !IsEligible(def, "2023-01-01") {
		t.Error("expected eligible on repeatUntil")
	}
	if IsEligible(def, "2023-01-02") {
		t.Error("expected not eligible after repeatUntil")
	}
	if IsEligible(def, "2025-01-01") {
		t.Error("expected not eligible on 2025-01-01")
	}
}

func TestWeeklyByDay(t *testing.T) {
	def := model.TaskDef{ID: "t3", RepeatType: model.RepeatWeekly, RepeatDays: model.Weekdays{1}}

	if !IsEligible(def, "2025-01-06") {
		t.Error("expected eligible on Monday 2025-01-06")
	}
	if IsEligible(def, "2025-01-01") {
		t.Error("expected not eligible on Wednesday 2025-01-01")
	}
}

func TestWeeklyStringDaysDecodeLikeNumbers(t *testing.T) {
	var numeric, text model.TaskDef
	if err := json.Unmarshal([]byte(`{"id":"t3","repeatType":"weekly","repeatDays":[1]}`), &numeric); err != nil {
		t.Fatalf("unmarshal numeric: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"id":"t4","repeatType":"weekly","repeatDays":["1"]}`), &text); err != nil {
		t.Fatalf("unmarshal text: %v", err)
	}

	for _, date := range []string{"2025-01-01", "2025-01-06", "2025-01-13", "2025-01-14"} {
		if IsEligible(numeric, date) != IsEligible(text, date) {
			t.Errorf("%s: numeric=%v text=%v", date, IsEligible(numeric, date), IsEligible(text, date))
		}
	}
	if !IsEligible(text, "2025-01-06") {
		t.Error("expected string day \"1\" to match Monday")
	}
}

func TestWeeklyWithoutDaysNeverScheduled(t *testing.T) {
	def := model.TaskDef{ID: "t5", RepeatType: model.RepeatWeekly}
	for _, date := range []string{"2025-01-05", "2025-01-06", "2025-01-07"} {
		if IsEligible(def, date) {
			t.Errorf("weekly task without days eligible on %s", date)
		}
	}
}

func TestUnknownRepeatTypeIsDaily(t *testing.T) {
	for _, rt := range []model.RepeatType{"", "monthly", "WEEKLY?"} {
		def := model.TaskDef{ID: "t6", RepeatType: rt, RepeatDays: model.Weekdays{3}}
		if !IsEligible(def, "2025-01-06") {
			t.Errorf("repeatType %q: expected daily behaviour", rt)
		}
	}
}

func TestMalformedDateNeverEligible(t *testing.T) {
	def := model.TaskDef{ID: "t1", RepeatType: model.RepeatDaily}
	if IsEligible(def, "2025-1-6") {
		t.Error("expected malformed date to be ineligible")
	}
}

func TestDatesInRange(t *testing.T) {
	def := model.TaskDef{
		ID:          "t7",
		RepeatType:  model.RepeatWeekly,
		RepeatDays:  model.Weekdays{1, 3},
		RepeatUntil: until("2025-01-15"),
	}

	dates, err := DatesInRange(def, "2025-01-01", "2025-01-31")
	if err != nil {
		t.Fatalf("DatesInRange: %v", err)
	}
	want := []string{"2025-01-01", "2025-01-06", "2025-01-08", "2025-01-13", "2025-01-15"}
	if len(dates) != len(want) {
		t.Fatalf("dates = %v, want %v", dates, want)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Errorf("dates[%d] = %s, want %s", i, dates[i], want[i])
		}
	}

	if _, err := DatesInRange(def, "bad", "2025-01-31"); err == nil {
		t.Error("expected error for malformed start")
	}
}

func TestMonthGrid(t *testing.T) {
	cells := MonthGrid(2025, time.January)
	if len(cells) != 42 {
		t.Fatalf("len = %d, want 42", len(cells))
	}
	// January 1st 2025 is a Wednesday, so the grid opens on Sunday Dec 29.
	if got := FormatDate(cells[0]); got != "2024-12-29" {
		t.Errorf("first cell = %s, want 2024-12-29", got)
	}
	if got := FormatDate(cells[3]); got != "2025-01-01" {
		t.Errorf("cells[3] = %s, want 2025-01-01", got)
	}
	if got := FormatDate(cells[41]); got != "2025-02-08" {
		t.Errorf("last cell = %s, want 2025-02-08", got)
	}
	for i, c := range cells {
		if int(c.Weekday()) != i%7 {
			t.Errorf("cells[%d] weekday = %v, want %d", i, c.Weekday(), i%7)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := NormalizeRepeatType("weekly"); got != model.RepeatWeekly {
		t.Errorf("NormalizeRepeatType(weekly) = %q", got)
	}
	if got := NormalizeRepeatType("fortnightly"); got != model.RepeatDaily {
		t.Errorf("NormalizeRepeatType(fortnightly) = %q, want daily", got)
	}
	if got := NormalizePriority("urgent"); got != model.PriorityMedium {
		t.Errorf("NormalizePriority(urgent) = %q, want medium", got)
	}
	if got := NormalizePriority("high"); got != model.PriorityHigh {
		t.Errorf("NormalizePriority(high) = %q, want high", got)
	}

	days := NormalizeDays([]int{5, 1, 1, 9, -1, 0})
	want := []int{0, 1, 5}
	if len(days) != len(want) {
		t.Fatalf("NormalizeDays = %v, want %v", days, want)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("days[%d] = %d, want %d", i, days[i], want[i])
		}
	}
}
