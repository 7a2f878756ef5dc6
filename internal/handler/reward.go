package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/tally/internal/ledger"
	"github.com/dukerupert/tally/internal/websocket"
)

type RewardHandler struct {
	base
}

func NewRewardHandler(l *ledger.Ledger, hub Broadcaster, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{base{ledger: l, hub: hub, logger: logger}}
}

// List returns every reward, or only those of ?roleId= when given.
func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.RewardsByRole(r.URL.Query().Get("roleId")))
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ledger.RewardInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, ok := h.ledger.Role(req.RoleID); !ok {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	reward, err := h.ledger.AddReward(req)
	if err != nil {
		h.ledgerError(w, err, "failed to create reward")
		return
	}

	h.broadcast(websocket.NewMessage("reward", "created", reward.ID, nil))
	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.ledger.DeleteReward(id); err != nil {
		h.ledgerError(w, err, "failed to delete reward")
		return
	}

	h.broadcast(websocket.NewMessage("reward", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	res, err := h.ledger.RedeemReward(id)
	if err != nil {
		h.ledgerError(w, err, "failed to redeem reward")
		return
	}

	h.logger.Info("reward redeemed", "reward_id", id, "role_id", res.Role.ID, "balance", res.Role.Points)
	h.broadcast(websocket.NewMessage("reward", "redeemed", id, map[string]any{
		"roleId":  res.Role.ID,
		"balance": res.Role.Points,
	}))
	writeJSON(w, http.StatusOK, res)
}
