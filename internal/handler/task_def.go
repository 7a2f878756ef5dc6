package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/tally/internal/ledger"
	"github.com/dukerupert/tally/internal/recurrence"
	"github.com/dukerupert/tally/internal/websocket"
)

type TaskDefHandler struct {
	base
}

func NewTaskDefHandler(l *ledger.Ledger, hub Broadcaster, logger *slog.Logger) *TaskDefHandler {
	return &TaskDefHandler{base{ledger: l, hub: hub, logger: logger}}
}

// List returns every task definition, or only those of ?roleId= when given.
func (h *TaskDefHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.TaskDefsByRole(r.URL.Query().Get("roleId")))
}

func (h *TaskDefHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ledger.TaskDefInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, ok := h.ledger.Role(req.RoleID); !ok {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	td, err := h.ledger.AddTaskDef(req)
	if err != nil {
		h.ledgerError(w, err, "failed to create task")
		return
	}

	h.broadcast(websocket.NewMessage("task_def", "created", td.ID, map[string]any{"roleId": td.RoleID}))
	writeJSON(w, http.StatusCreated, td)
}

func (h *TaskDefHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req ledger.TaskDefPatch
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RoleID != nil && *req.RoleID != "" {
		if _, ok := h.ledger.Role(*req.RoleID); !ok {
			writeError(w, http.StatusBadRequest, "unknown role")
			return
		}
	}

	td, err := h.ledger.UpdateTaskDef(id, req)
	if err != nil {
		h.ledgerError(w, err, "failed to update task")
		return
	}

	h.broadcast(websocket.NewMessage("task_def", "updated", id, nil))
	writeJSON(w, http.StatusOK, td)
}

func (h *TaskDefHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.ledger.DeleteTaskDef(id); err != nil {
		h.ledgerError(w, err, "failed to delete task")
		return
	}

	h.broadcast(websocket.NewMessage("task_def", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

const maxScheduleDays = 366

// Schedule lists the dates in [from, to] on which the definition is due.
// from defaults to today and to defaults to six days after from.
func (h *TaskDefHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	td, ok := h.ledger.TaskDef(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	q := r.URL.Query()
	from := q.Get("from")
	if from == "" || from == "today" {
		from = h.ledger.Today()
	}
	start, err := recurrence.ParseDate(from)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	to := q.Get("to")
	if to == "" {
		to = recurrence.FormatDate(start.AddDate(0, 0, 6))
	}
	end, err := recurrence.ParseDate(to)
	if err != nil || end.Before(start) || end.Sub(start) > maxScheduleDays*24*time.Hour {
		writeError(w, http.StatusBadRequest, "invalid to date")
		return
	}

	dates, err := recurrence.DatesInRange(td, from, to)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid range")
		return
	}
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"from": from, "to": to, "dates": dates})
}

func (h *TaskDefHandler) History(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.ledger.TaskDef(id); !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, h.ledger.TaskHistory(id))
}
