package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/tally/internal/backup"
	"github.com/dukerupert/tally/internal/websocket"
)

type BackupHandler struct {
	manager *backup.Manager
	hub     Broadcaster
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, hub Broadcaster, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, hub: hub, logger: logger}
}

type passphraseRequest struct {
	Passphrase string `json:"passphrase"`
}

// decodeOptional accepts an empty body as the zero request.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	return decodeJSON(w, r, v)
}

func (h *BackupHandler) backupError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, backup.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "backups are not configured")
	case errors.Is(err, backup.ErrInProgress):
		writeError(w, http.StatusConflict, "backup already running")
	case errors.Is(err, backup.ErrNoPassphrase):
		writeError(w, http.StatusBadRequest, "passphrase required")
	case errors.Is(err, backup.ErrDecrypt), errors.Is(err, backup.ErrCiphertextTooShort):
		writeError(w, http.StatusBadRequest, "wrong passphrase or corrupted backup")
	case errors.Is(err, backup.ErrNotFound):
		writeError(w, http.StatusNotFound, "backup not found")
	default:
		h.logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 200 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	backups, err := h.manager.List(limit)
	if err != nil {
		h.backupError(w, err, "failed to list backups")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  h.manager.Status(),
		"backups": backups,
	})
}

func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req passphraseRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	b, err := h.manager.RunNow(r.Context(), req.Passphrase)
	if err != nil {
		h.backupError(w, err, "backup failed")
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req passphraseRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	if err := h.manager.Restore(r.Context(), id, req.Passphrase); err != nil {
		h.backupError(w, err, "restore failed")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("document", "replaced", "", map[string]any{"backupId": id}))
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}
