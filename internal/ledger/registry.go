package ledger

import (
	"encoding/json"
	"strings"

	"github.com/dukerupert/tally/internal/model"
	"github.com/dukerupert/tally/internal/recurrence"
)

// TaskDefInput carries the fields for a new task definition.
type TaskDefInput struct {
	RoleID      string         `json:"roleId"`
	Title       string         `json:"title"`
	Points      int            `json:"points"`
	Note        string         `json:"note"`
	RepeatType  string         `json:"repeatType"`
	RepeatDays  model.Weekdays `json:"repeatDays"`
	RepeatUntil string         `json:"repeatUntil"`
	Priority    string         `json:"priority"`
}

// TaskDefPatch is a partial update. Nil fields are left alone, and so are
// fields carrying a value that would be rejected on creation.
type TaskDefPatch struct {
	RoleID      *string         `json:"roleId,omitempty"`
	Title       *string         `json:"title,omitempty"`
	Points      *int            `json:"points,omitempty"`
	Note        *string         `json:"note,omitempty"`
	RepeatType  *string         `json:"repeatType,omitempty"`
	RepeatDays  *model.Weekdays `json:"repeatDays,omitempty"`
	RepeatUntil OptionalDate    `json:"repeatUntil"`
	Priority    *string         `json:"priority,omitempty"`
}

// OptionalDate distinguishes an absent repeatUntil (Set is false) from an
// explicit null or "" that clears it.
type OptionalDate struct {
	Set   bool
	Value string
}

func (o *OptionalDate) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = ""
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o OptionalDate) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Value == "" {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// RewardInput carries the fields for a new reward.
type RewardInput struct {
	RoleID string `json:"roleId"`
	Title  string `json:"title"`
	Cost   int    `json:"cost"`
	Note   string `json:"note"`
}

// --- Roles ---

func (l *Ledger) AddRole(name string) (model.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Role{}, ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	role := model.Role{ID: l.newID(), Name: name, Points: 0}
	l.doc.Roles = append(l.doc.Roles, role)
	l.save()
	return role, nil
}

// DeleteRole removes the role together with its task definitions, its
// rewards and every daily instance it owns. Instances are matched by role
// and by the removed definitions, so orphans carrying the role go too.
func (l *Ledger) DeleteRole(roleID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.findRole(roleID) == nil {
		return ErrNotFound
	}

	roles := l.doc.Roles[:0]
	for _, r := range l.doc.Roles {
		if r.ID != roleID {
			roles = append(roles, r)
		}
	}
	l.doc.Roles = roles

	removedDefs := make(map[string]bool)
	defs := l.doc.TaskDefs[:0]
	for _, td := range l.doc.TaskDefs {
		if td.RoleID == roleID {
			removedDefs[td.ID] = true
			continue
		}
		defs = append(defs, td)
	}
	l.doc.TaskDefs = defs

	rewards := l.doc.Rewards[:0]
	for _, rw := range l.doc.Rewards {
		if rw.RoleID != roleID {
			rewards = append(rewards, rw)
		}
	}
	l.doc.Rewards = rewards

	l.filterDaily(func(it model.DailyInstance) bool {
		return it.RoleID != roleID && !removedDefs[it.TaskDefID]
	})
	l.save()

	l.logger.Info("role deleted", "role_id", roleID, "task_defs", len(removedDefs))
	return nil
}

// --- Task definitions ---

func (l *Ledger) AddTaskDef(in TaskDefInput) (model.TaskDef, error) {
	title := strings.TrimSpace(in.Title)
	if in.RoleID == "" || title == "" || in.Points <= 0 {
		return model.TaskDef{}, ErrInvalidInput
	}
	until, ok := normalizeUntil(in.RepeatUntil)
	if !ok {
		return model.TaskDef{}, ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	def := model.TaskDef{
		ID:          l.newID(),
		RoleID:      in.RoleID,
		Title:       title,
		Points:      in.Points,
		Note:        in.Note,
		RepeatType:  recurrence.NormalizeRepeatType(in.RepeatType),
		RepeatDays:  recurrence.NormalizeDays(in.RepeatDays),
		RepeatUntil: until,
		Priority:    recurrence.NormalizePriority(in.Priority),
	}
	l.doc.TaskDefs = append(l.doc.TaskDefs, def)
	l.save()
	return def.Clone(), nil
}

// UpdateTaskDef applies patch field by field, then copies the new title,
// points and note into every open instance of the definition. Completed
// instances keep the values they were earned with.
func (l *Ledger) UpdateTaskDef(id string, patch TaskDefPatch) (model.TaskDef, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	td := l.findTaskDef(id)
	if td == nil {
		return model.TaskDef{}, ErrNotFound
	}

	if patch.RoleID != nil && *patch.RoleID != "" {
		td.RoleID = *patch.RoleID
	}
	if patch.Title != nil {
		if title := strings.TrimSpace(*patch.Title); title != "" {
			td.Title = title
		}
	}
	if patch.Points != nil && *patch.Points > 0 {
		td.Points = *patch.Points
	}
	if patch.Note != nil {
		td.Note = *patch.Note
	}
	if patch.RepeatType != nil && recurrence.ValidRepeatType(*patch.RepeatType) {
		td.RepeatType = model.RepeatType(*patch.RepeatType)
	}
	if patch.RepeatDays != nil {
		td.RepeatDays = recurrence.NormalizeDays(*patch.RepeatDays)
	}
	if patch.RepeatUntil.Set {
		if until, ok := normalizeUntil(patch.RepeatUntil.Value); ok {
			td.RepeatUntil = until
		}
	}
	if patch.Priority != nil && recurrence.ValidPriority(*patch.Priority) {
		td.Priority = model.Priority(*patch.Priority)
	}

	for date, list := range l.doc.DailyTasks {
		for i := range list {
			it := &list[i]
			if it.TaskDefID != id || it.Completed {
				continue
			}
			it.Title = td.Title
			it.Points = td.Points
			it.Note = td.Note
		}
		l.doc.DailyTasks[date] = list
	}
	l.save()
	return td.Clone(), nil
}

// DeleteTaskDef removes the definition and every instance of it on every
// date, completed or not. Points already earned from it are not reversed.
func (l *Ledger) DeleteTaskDef(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.findTaskDef(id) == nil {
		return ErrNotFound
	}

	defs := l.doc.TaskDefs[:0]
	for _, td := range l.doc.TaskDefs {
		if td.ID != id {
			defs = append(defs, td)
		}
	}
	l.doc.TaskDefs = defs

	l.filterDaily(func(it model.DailyInstance) bool {
		return it.TaskDefID != id
	})
	l.save()
	return nil
}

// normalizeUntil maps "" to no end date and rejects non-canonical dates.
func normalizeUntil(s string) (*string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	if !recurrence.ValidDate(s) {
		return nil, false
	}
	return &s, true
}

// --- Rewards ---

func (l *Ledger) AddReward(in RewardInput) (model.Reward, error) {
	title := strings.TrimSpace(in.Title)
	if in.RoleID == "" || title == "" || in.Cost <= 0 {
		return model.Reward{}, ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rw := model.Reward{
		ID:            l.newID(),
		RoleID:        in.RoleID,
		Title:         title,
		Cost:          in.Cost,
		Note:          in.Note,
		RedeemedCount: 0,
	}
	l.doc.Rewards = append(l.doc.Rewards, rw)
	l.save()
	return rw, nil
}

func (l *Ledger) DeleteReward(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.findReward(id) == nil {
		return ErrNotFound
	}
	rewards := l.doc.Rewards[:0]
	for _, rw := range l.doc.Rewards {
		if rw.ID != id {
			rewards = append(rewards, rw)
		}
	}
	l.doc.Rewards = rewards
	l.save()
	return nil
}

// --- Reads ---

func (l *Ledger) Roles() []model.Role {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Role{}, l.doc.Roles...)
}

func (l *Ledger) Role(id string) (model.Role, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r := l.findRole(id); r != nil {
		return *r, true
	}
	return model.Role{}, false
}

// TotalPoints sums the balances of every role.
func (l *Ledger) TotalPoints() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, r := range l.doc.Roles {
		total += r.Points
	}
	return total
}

func (l *Ledger) TaskDefs() []model.TaskDef {
	return l.TaskDefsByRole("")
}

// TaskDefsByRole lists the definitions owned by roleID, or all of them
// when roleID is empty.
func (l *Ledger) TaskDefsByRole(roleID string) []model.TaskDef {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []model.TaskDef{}
	for _, td := range l.doc.TaskDefs {
		if roleID == "" || td.RoleID == roleID {
			out = append(out, td.Clone())
		}
	}
	return out
}

func (l *Ledger) TaskDef(id string) (model.TaskDef, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if td := l.findTaskDef(id); td != nil {
		return td.Clone(), true
	}
	return model.TaskDef{}, false
}

func (l *Ledger) Rewards() []model.Reward {
	return l.RewardsByRole("")
}

// RewardsByRole lists the rewards owned by roleID, or all of them when
// roleID is empty.
func (l *Ledger) RewardsByRole(roleID string) []model.Reward {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []model.Reward{}
	for _, rw := range l.doc.Rewards {
		if roleID == "" || rw.RoleID == roleID {
			out = append(out, rw)
		}
	}
	return out
}
