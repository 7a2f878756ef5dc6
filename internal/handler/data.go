package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/tally/internal/ledger"
	"github.com/dukerupert/tally/internal/websocket"
)

const maxImportBytes = 10 << 20

// Revisioner reports how many times the persisted document has been saved.
// *store.DocumentStore satisfies it.
type Revisioner interface {
	Revision() (int64, error)
}

type DataHandler struct {
	base
	revisions Revisioner
	now       func() time.Time
}

func NewDataHandler(l *ledger.Ledger, revisions Revisioner, hub Broadcaster, logger *slog.Logger) *DataHandler {
	return &DataHandler{
		base:      base{ledger: l, hub: hub, logger: logger},
		revisions: revisions,
		now:       time.Now,
	}
}

func (h *DataHandler) etag() (string, error) {
	rev, err := h.revisions.Revision()
	if err != nil {
		return "", err
	}
	return `"` + strconv.FormatInt(rev, 10) + `"`, nil
}

// Export downloads the whole document. The ETag is the stored revision so
// clients can detect concurrent writers.
func (h *DataHandler) Export(w http.ResponseWriter, r *http.Request) {
	tag, err := h.etag()
	if err != nil {
		h.logger.Error("document revision", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export")
		return
	}
	if match := r.Header.Get("If-None-Match"); match != "" && match == tag {
		w.Header().Set("ETag", tag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	data, err := h.ledger.EncodeDocument()
	if err != nil {
		h.ledgerError(w, err, "failed to export")
		return
	}

	w.Header().Set("ETag", tag)
	w.Header().Set("Content-Type", "application/json")
	if r.URL.Query().Get("download") != "" {
		name := fmt.Sprintf("tally-%s.json", h.now().Format("20060102-150405"))
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Import replaces the whole document with the request body. An If-Match
// header that no longer matches the stored revision is rejected with 412;
// the comparison runs under the ledger lock, atomically with the replace.
func (h *DataHandler) Import(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "document too large")
		return
	}

	var check func() error
	if match := strings.TrimSpace(r.Header.Get("If-Match")); match != "" && match != "*" {
		check = func() error {
			tag, err := h.etag()
			if err != nil {
				return fmt.Errorf("document revision: %w", err)
			}
			if match != tag {
				return ledger.ErrStaleDocument
			}
			return nil
		}
	}

	if err := h.ledger.ReplaceDocumentIf(raw, check); err != nil {
		h.ledgerError(w, err, "failed to import")
		return
	}

	if tag, err := h.etag(); err == nil {
		w.Header().Set("ETag", tag)
	}
	h.broadcast(websocket.NewMessage("document", "replaced", "", nil))

	doc := h.ledger.ExportDocument()
	writeJSON(w, http.StatusOK, map[string]int{
		"roles":    len(doc.Roles),
		"taskDefs": len(doc.TaskDefs),
		"dates":    len(doc.DailyTasks),
		"rewards":  len(doc.Rewards),
	})
}
