package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/tally/internal/ledger"
	"github.com/dukerupert/tally/internal/recurrence"
)

type CalendarHandler struct {
	base
}

func NewCalendarHandler(l *ledger.Ledger, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{base{ledger: l, logger: logger}}
}

// Month returns the six-week grid for /api/calendar/{year}/{month}.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month")
		return
	}

	days, err := h.ledger.Month(year, time.Month(month))
	if err != nil {
		h.ledgerError(w, err, "failed to build calendar")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":  year,
		"month": month,
		"days":  days,
	})
}

func validDate(s string) bool {
	return recurrence.ValidDate(s)
}
