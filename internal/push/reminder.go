package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukerupert/tally/internal/model"
)

// Tasks is the part of the ledger reminders read.
type Tasks interface {
	Today() string
	EnsureDaily(date string) ([]model.DailyInstance, error)
	Role(id string) (model.Role, bool)
}

// Subscriptions is the part of the push store reminders use.
type Subscriptions interface {
	List() ([]model.PushSubscription, error)
	DeleteByEndpoint(endpoint string) (bool, error)
}

// Reminder tells every subscriber how many of today's tasks are still open.
type Reminder struct {
	service *Service
	tasks   Tasks
	subs    Subscriptions
	logger  *slog.Logger
}

func NewReminder(svc *Service, tasks Tasks, subs Subscriptions, logger *slog.Logger) *Reminder {
	return &Reminder{service: svc, tasks: tasks, subs: subs, logger: logger}
}

// Run is the scheduled job.
func (r *Reminder) Run(ctx context.Context) {
	sent, err := r.Send(ctx)
	if err != nil {
		r.logger.Error("task reminder", "error", err)
		return
	}
	r.logger.Info("task reminder", "sent", sent)
}

// Send reconciles today and notifies every subscription with open tasks.
// Subscriptions the push service reports as gone are deleted.
func (r *Reminder) Send(ctx context.Context) (int, error) {
	date := r.tasks.Today()
	list, err := r.tasks.EnsureDaily(date)
	if err != nil {
		return 0, fmt.Errorf("reconcile %s: %w", date, err)
	}

	open := map[string][]string{}
	var all []string
	for _, it := range list {
		if it.Completed {
			continue
		}
		open[it.RoleID] = append(open[it.RoleID], it.Title)
		all = append(all, it.Title)
	}
	if len(all) == 0 {
		return 0, nil
	}

	subs, err := r.subs.List()
	if err != nil {
		return 0, fmt.Errorf("list subscriptions: %w", err)
	}

	sent := 0
	for _, sub := range subs {
		payload, ok := r.payload(sub.RoleID, open, all)
		if !ok {
			continue
		}
		payload.Tag = "tally-" + date

		err := r.service.Send(ctx, sub, payload)
		switch {
		case errors.Is(err, ErrExpired):
			if _, err := r.subs.DeleteByEndpoint(sub.Endpoint); err != nil {
				r.logger.Error("delete expired subscription", "id", sub.ID, "error", err)
			}
		case err != nil:
			r.logger.Warn("send reminder", "id", sub.ID, "error", err)
		default:
			sent++
		}
	}
	return sent, nil
}

func (r *Reminder) payload(roleID string, open map[string][]string, all []string) (Payload, bool) {
	if roleID == "" {
		return Payload{
			Title: fmt.Sprintf("%d tasks left today", len(all)),
			Body:  summarize(all),
			URL:   "/",
		}, true
	}

	titles := open[roleID]
	if len(titles) == 0 {
		return Payload{}, false
	}
	role, ok := r.tasks.Role(roleID)
	if !ok {
		return Payload{}, false
	}
	return Payload{
		Title: fmt.Sprintf("%s: %d tasks left today", role.Name, len(titles)),
		Body:  summarize(titles),
		URL:   "/?role=" + roleID,
	}, true
}

func summarize(titles []string) string {
	const shown = 3
	if len(titles) <= shown {
		return strings.Join(titles, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(titles[:shown], ", "), len(titles)-shown)
}
