package model

type DailyStats struct {
	Completed int `json:"completed"`
	Points    int `json:"points"`
}

type TaskHistory struct {
	Count     int `json:"count"`
	SumPoints int `json:"sumPoints"`
}

// CalendarDay is one cell of a month view.
type CalendarDay struct {
	Date    string     `json:"date"`
	Day     int        `json:"day"`
	InMonth bool       `json:"inMonth"`
	IsToday bool       `json:"isToday"`
	Stats   DailyStats `json:"stats"`
}
