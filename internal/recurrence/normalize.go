package recurrence

import (
	"sort"
	"strings"

	"github.com/dukerupert/tally/internal/model"
)

// NormalizeRepeatType maps anything other than "weekly" to daily.
func NormalizeRepeatType(s string) model.RepeatType {
	if model.RepeatType(strings.ToLower(strings.TrimSpace(s))) == model.RepeatWeekly {
		return model.RepeatWeekly
	}
	return model.RepeatDaily
}

// ValidRepeatType reports whether s names a known repeat type exactly.
func ValidRepeatType(s string) bool {
	return s == string(model.RepeatDaily) || s == string(model.RepeatWeekly)
}

// NormalizePriority maps unknown priorities to medium.
func NormalizePriority(s string) model.Priority {
	switch p := model.Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case model.PriorityHigh, model.PriorityMedium, model.PriorityLow:
		return p
	}
	return model.PriorityMedium
}

// ValidPriority reports whether s names a known priority exactly.
func ValidPriority(s string) bool {
	switch model.Priority(s) {
	case model.PriorityHigh, model.PriorityMedium, model.PriorityLow:
		return true
	}
	return false
}

// NormalizeDays returns the distinct weekdays in 0-6, ascending.
func NormalizeDays(days []int) model.Weekdays {
	seen := make(map[int]bool, len(days))
	out := model.Weekdays{}
	for _, d := range days {
		if d < 0 || d > 6 || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}
