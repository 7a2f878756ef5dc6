package recurrence

import "github.com/dukerupert/tally/internal/model"

// IsEligible reports whether def produces an instance on date. It has no
// side effects: an unknown repeat type counts as daily, a weekly task with
// no days is never scheduled, and a malformed date is never eligible.
func IsEligible(def model.TaskDef, date string) bool {
	weekday, err := Weekday(date)
	if err != nil {
		return false
	}
	return eligible(def, date, weekday)
}

func eligible(def model.TaskDef, date string, weekday int) bool {
	if until := def.Until(); until != "" && date > until {
		return false
	}
	if def.RepeatType == model.RepeatWeekly {
		return def.RepeatDays.Contains(weekday)
	}
	return true
}

// DatesInRange lists every eligible date in [from, to], both inclusive.
func DatesInRange(def model.TaskDef, from, to string) ([]string, error) {
	start, err := ParseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(to)
	if err != nil {
		return nil, err
	}

	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := FormatDate(d)
		if eligible(def, date, int(d.Weekday())) {
			dates = append(dates, date)
		}
	}
	return dates, nil
}
