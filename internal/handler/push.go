package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/tally/internal/ledger"
	"github.com/dukerupert/tally/internal/push"
	"github.com/dukerupert/tally/internal/store"
)

type PushHandler struct {
	ledger  *ledger.Ledger
	store   *store.PushStore
	service *push.Service
	logger  *slog.Logger
}

func NewPushHandler(l *ledger.Ledger, ps *store.PushStore, svc *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{ledger: l, store: ps, service: svc, logger: logger}
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
	RoleID     string `json:"roleId"`
	DeviceName string `json:"deviceName"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// VAPIDKey handles GET /api/push/vapid-key
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": h.service.VAPIDPublicKey()})
}

// Subscribe handles POST /api/push/subscriptions. The body mirrors the
// browser's PushSubscription.toJSON() plus an optional roleId.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Endpoint = strings.TrimSpace(req.Endpoint)
	if !strings.HasPrefix(req.Endpoint, "https://") || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint, keys.p256dh and keys.auth are required")
		return
	}
	if req.RoleID != "" {
		if _, ok := h.ledger.Role(req.RoleID); !ok {
			writeError(w, http.StatusBadRequest, "unknown role")
			return
		}
	}

	sub, err := h.store.Upsert(req.Endpoint, req.Keys.P256dh, req.Keys.Auth, req.RoleID, req.DeviceName)
	if err != nil {
		h.logger.Error("save push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// Unsubscribe handles DELETE /api/push/subscriptions
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ok, err := h.store.DeleteByEndpoint(req.Endpoint)
	if err != nil {
		h.logger.Error("delete push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
