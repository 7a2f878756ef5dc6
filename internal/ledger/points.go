package ledger

import "github.com/dukerupert/tally/internal/model"

// Redemption is the outcome of a successful reward redemption.
type Redemption struct {
	Reward model.Reward `json:"reward"`
	Role   model.Role   `json:"role"`
}

// CompleteTask marks the instance of taskDefID on date as completed and
// credits its snapshotted points to the owning role. The date is
// reconciled first so an eligible instance always exists. Completing an
// already completed instance returns it unchanged.
func (l *Ledger) CompleteTask(taskDefID, date string) (model.DailyInstance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	list, err := l.ensureDaily(date)
	if err != nil {
		return model.DailyInstance{}, err
	}

	var it *model.DailyInstance
	for i := range list {
		if list[i].TaskDefID == taskDefID {
			it = &list[i]
			break
		}
	}
	if it == nil {
		l.save()
		return model.DailyInstance{}, ErrNotFound
	}
	if it.Completed {
		l.save()
		return model.CloneInstances([]model.DailyInstance{*it})[0], nil
	}

	at := l.now().UnixMilli()
	it.Completed = true
	it.CompletedAt = &at
	if role := l.findRole(it.RoleID); role != nil {
		role.Points += it.Points
	}
	l.save()

	l.logger.Info("task completed", "task_def_id", taskDefID, "date", date, "role_id", it.RoleID, "points", it.Points)
	return model.CloneInstances([]model.DailyInstance{*it})[0], nil
}

// RedeemReward spends the reward's cost from its role's balance. Either
// both the balance and the redeemed count change, or nothing does.
func (l *Ledger) RedeemReward(rewardID string) (Redemption, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rw := l.findReward(rewardID)
	if rw == nil {
		return Redemption{}, ErrNotFound
	}
	role := l.findRole(rw.RoleID)
	if role == nil {
		return Redemption{}, ErrNotFound
	}
	if role.Points < rw.Cost {
		return Redemption{}, ErrInsufficientPoints
	}

	role.Points -= rw.Cost
	rw.RedeemedCount++
	l.save()

	l.logger.Info("reward redeemed", "reward_id", rewardID, "role_id", role.ID, "cost", rw.Cost, "balance", role.Points)
	return Redemption{Reward: *rw, Role: *role}, nil
}
