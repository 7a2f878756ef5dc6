// Package handler exposes the ledger over a JSON HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/tally/internal/ledger"
	"github.com/dukerupert/tally/internal/websocket"
)

const maxBodyBytes = 1 << 20

// Broadcaster fans change notifications out to connected clients.
// *websocket.Hub satisfies it.
type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

type base struct {
	ledger *ledger.Ledger
	hub    Broadcaster
	logger *slog.Logger
}

func (b base) broadcast(msg websocket.Message) {
	if b.hub != nil {
		b.hub.Broadcast(msg)
	}
}

// ledgerError maps ledger sentinels onto HTTP statuses. Anything else is
// logged and reported as a 500 with the generic message.
func (b base) ledgerError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, ledger.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
	case errors.Is(err, ledger.ErrInvalidDocument):
		writeError(w, http.StatusBadRequest, "document must be a JSON object")
	case errors.Is(err, ledger.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ledger.ErrInsufficientPoints):
		writeError(w, http.StatusConflict, "insufficient points")
	case errors.Is(err, ledger.ErrStaleDocument):
		writeError(w, http.StatusPreconditionFailed, "document changed since export")
	default:
		b.logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
