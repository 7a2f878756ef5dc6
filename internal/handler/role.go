package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/tally/internal/ledger"
	"github.com/dukerupert/tally/internal/websocket"
)

type RoleHandler struct {
	base
}

func NewRoleHandler(l *ledger.Ledger, hub Broadcaster, logger *slog.Logger) *RoleHandler {
	return &RoleHandler{base{ledger: l, hub: hub, logger: logger}}
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"roles":       h.ledger.Roles(),
		"totalPoints": h.ledger.TotalPoints(),
	})
}

func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	role, err := h.ledger.AddRole(req.Name)
	if err != nil {
		h.ledgerError(w, err, "failed to create role")
		return
	}

	h.broadcast(websocket.NewMessage("role", "created", role.ID, nil))
	writeJSON(w, http.StatusCreated, role)
}

func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.ledger.DeleteRole(id); err != nil {
		h.ledgerError(w, err, "failed to delete role")
		return
	}

	h.broadcast(websocket.NewMessage("role", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
