package ledger

import (
	"time"

	"github.com/dukerupert/tally/internal/model"
	"github.com/dukerupert/tally/internal/recurrence"
)

// DailyStats counts the completed instances on date and the points they
// earned. It reads stored instances only and never reconciles.
func (l *Ledger) DailyStats(date string) model.DailyStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dailyStats(date)
}

func (l *Ledger) dailyStats(date string) model.DailyStats {
	var stats model.DailyStats
	for _, it := range l.doc.DailyTasks[date] {
		if it.Completed {
			stats.Completed++
			stats.Points += it.Points
		}
	}
	return stats
}

// RoleDayPoints returns the points roleID earned on date.
func (l *Ledger) RoleDayPoints(date, roleID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	sum := 0
	for _, it := range l.doc.DailyTasks[date] {
		if it.RoleID == roleID && it.Completed {
			sum += it.Points
		}
	}
	return sum
}

// TaskHistory counts every completed instance of taskDefID across all
// dates.
func (l *Ledger) TaskHistory(taskDefID string) model.TaskHistory {
	l.mu.Lock()
	defer l.mu.Unlock()
	var h model.TaskHistory
	for _, list := range l.doc.DailyTasks {
		for _, it := range list {
			if it.TaskDefID == taskDefID && it.Completed {
				h.Count++
				h.SumPoints += it.Points
			}
		}
	}
	return h
}

// Month returns the six-week calendar view for year/month with the daily
// stats of every cell.
func (l *Ledger) Month(year int, month time.Month) ([]model.CalendarDay, error) {
	if month < time.January || month > time.December || year < 1 || year > 9999 {
		return nil, ErrInvalidInput
	}
	today := l.Today()

	l.mu.Lock()
	defer l.mu.Unlock()

	cells := recurrence.MonthGrid(year, month)
	days := make([]model.CalendarDay, 0, len(cells))
	for _, c := range cells {
		date := recurrence.FormatDate(c)
		days = append(days, model.CalendarDay{
			Date:    date,
			Day:     c.Day(),
			InMonth: c.Month() == month,
			IsToday: date == today,
			Stats:   l.dailyStats(date),
		})
	}
	return days, nil
}
