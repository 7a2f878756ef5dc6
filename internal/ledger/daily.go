package ledger

import (
	"github.com/dukerupert/tally/internal/model"
	"github.com/dukerupert/tally/internal/recurrence"
)

// EnsureDaily reconciles the instances stored for date against the current
// task definitions and returns the result. Repeated calls with no registry
// change in between return identical lists.
func (l *Ledger) EnsureDaily(date string) ([]model.DailyInstance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	list, err := l.ensureDaily(date)
	if err != nil {
		return nil, err
	}
	l.save()
	return model.CloneInstances(list), nil
}

// ensureDaily runs the prune and backfill passes without persisting.
//
// Prune: an instance whose definition is gone is kept (the reason is
// unknown here), a completed instance is kept, and an open instance is kept
// only while its definition is still eligible on date. Duplicates of one
// definition collapse to a single instance, preferring a completed one.
//
// Backfill: every eligible definition without a surviving instance gets a
// fresh open instance snapshotting its title, points and note.
func (l *Ledger) ensureDaily(date string) ([]model.DailyInstance, error) {
	if !recurrence.ValidDate(date) {
		return nil, ErrInvalidDate
	}

	defs := make(map[string]*model.TaskDef, len(l.doc.TaskDefs))
	for i := range l.doc.TaskDefs {
		defs[l.doc.TaskDefs[i].ID] = &l.doc.TaskDefs[i]
	}

	existing := l.doc.DailyTasks[date]
	kept := make([]model.DailyInstance, 0, len(existing)+len(l.doc.TaskDefs))
	seen := make(map[string]int, len(existing))
	for _, it := range existing {
		def, ok := defs[it.TaskDefID]
		if ok && !it.Completed && !recurrence.IsEligible(*def, date) {
			continue
		}
		if idx, dup := seen[it.TaskDefID]; dup {
			if it.Completed && !kept[idx].Completed {
				kept[idx] = it
			}
			continue
		}
		seen[it.TaskDefID] = len(kept)
		kept = append(kept, it)
	}

	for _, def := range l.doc.TaskDefs {
		if _, ok := seen[def.ID]; ok {
			continue
		}
		if !recurrence.IsEligible(def, date) {
			continue
		}
		seen[def.ID] = len(kept)
		kept = append(kept, model.DailyInstance{
			TaskDefID: def.ID,
			RoleID:    def.RoleID,
			Title:     def.Title,
			Points:    def.Points,
			Note:      def.Note,
		})
	}

	l.doc.DailyTasks[date] = kept
	return kept, nil
}

// Daily returns the stored instances for date without reconciling.
func (l *Ledger) Daily(date string) []model.DailyInstance {
	l.mu.Lock()
	defer l.mu.Unlock()
	return model.CloneInstances(l.doc.DailyTasks[date])
}

// DeleteDailyItem removes the instance of taskDefID on date. The
// definition is untouched, so an eligible definition comes back on the
// next reconciliation.
func (l *Ledger) DeleteDailyItem(date, taskDefID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := l.doc.DailyTasks[date]
	idx := -1
	for i, it := range list {
		if it.TaskDefID == taskDefID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}

	list = append(list[:idx], list[idx+1:]...)
	if len(list) == 0 {
		delete(l.doc.DailyTasks, date)
	} else {
		l.doc.DailyTasks[date] = list
	}
	l.save()
	return nil
}
