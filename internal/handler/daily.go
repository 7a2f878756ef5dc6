package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/tally/internal/ledger"
	"github.com/dukerupert/tally/internal/websocket"
)

type DailyHandler struct {
	base
}

func NewDailyHandler(l *ledger.Ledger, hub Broadcaster, logger *slog.Logger) *DailyHandler {
	return &DailyHandler{base{ledger: l, hub: hub, logger: logger}}
}

// date resolves the {date} path value; "today" means the ledger's today.
func (h *DailyHandler) date(r *http.Request) string {
	d := r.PathValue("date")
	if d == "today" {
		return h.ledger.Today()
	}
	return d
}

// Get reconciles the date and returns its task list.
func (h *DailyHandler) Get(w http.ResponseWriter, r *http.Request) {
	date := h.date(r)
	list, err := h.ledger.EnsureDaily(date)
	if err != nil {
		h.ledgerError(w, err, "failed to load daily tasks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":  date,
		"tasks": list,
		"stats": h.ledger.DailyStats(date),
	})
}

func (h *DailyHandler) Stats(w http.ResponseWriter, r *http.Request) {
	date := h.date(r)
	if !validDate(date) {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}

	resp := map[string]any{"date": date, "stats": h.ledger.DailyStats(date)}
	if roleID := r.URL.Query().Get("roleId"); roleID != "" {
		resp["rolePoints"] = h.ledger.RoleDayPoints(date, roleID)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *DailyHandler) Complete(w http.ResponseWriter, r *http.Request) {
	date := h.date(r)
	taskDefID := r.PathValue("taskDefId")

	it, err := h.ledger.CompleteTask(taskDefID, date)
	if err != nil {
		h.ledgerError(w, err, "failed to complete task")
		return
	}

	resp := map[string]any{"task": it}
	if role, ok := h.ledger.Role(it.RoleID); ok {
		resp["role"] = role
	}

	h.broadcast(websocket.NewMessage("daily_task", "completed", taskDefID, map[string]any{
		"date":   date,
		"roleId": it.RoleID,
		"points": it.Points,
	}))
	writeJSON(w, http.StatusOK, resp)
}

func (h *DailyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	date := h.date(r)
	taskDefID := r.PathValue("taskDefId")

	if err := h.ledger.DeleteDailyItem(date, taskDefID); err != nil {
		h.ledgerError(w, err, "failed to delete daily task")
		return
	}

	h.broadcast(websocket.NewMessage("daily_task", "deleted", taskDefID, map[string]any{"date": date}))
	w.WriteHeader(http.StatusNoContent)
}
