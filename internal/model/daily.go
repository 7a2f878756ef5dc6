package model

import "time"

// DailyInstance is a materialized occurrence of a TaskDef on one date.
// Title, Points and Note are copied from the definition so completed
// history keeps the values that were actually earned.
type DailyInstance struct {
	TaskDefID   string `json:"taskDefId"`
	RoleID      string `json:"roleId"`
	Title       string `json:"title"`
	Points      int    `json:"points"`
	Note        string `json:"note"`
	Completed   bool   `json:"completed"`
	CompletedAt *int64 `json:"completedAt"` // unix milliseconds
}

// CompletedTime returns the completion time, or the zero time when the
// instance is still open.
func (d DailyInstance) CompletedTime() time.Time {
	if d.CompletedAt == nil {
		return time.Time{}
	}
	return time.UnixMilli(*d.CompletedAt)
}
