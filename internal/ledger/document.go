package ledger

import (
	"errors"

	"github.com/dukerupert/tally/internal/model"
)

// ReplaceDocument swaps the whole document for the one encoded in raw and
// persists it. Only the top-level shape is validated; a field of the wrong
// container type is replaced by its empty form and a malformed entry is
// skipped. If raw is not a JSON object nothing changes.
func (l *Ledger) ReplaceDocument(raw []byte) error {
	return l.ReplaceDocumentIf(raw, nil)
}

// ReplaceDocumentIf is ReplaceDocument guarded by check, which runs while
// the ledger lock is held so no other mutation can land between the check
// and the swap. A non-nil error from check aborts the replace and is
// returned as is.
func (l *Ledger) ReplaceDocumentIf(raw []byte, check func() error) error {
	doc, err := model.DecodeDocument(raw)
	if err != nil {
		if errors.Is(err, model.ErrNotObject) {
			return ErrInvalidDocument
		}
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if check != nil {
		if err := check(); err != nil {
			return err
		}
	}

	l.doc = doc
	l.save()
	if doc.Dropped > 0 {
		l.logger.Warn("skipped malformed document entries", "count", doc.Dropped)
	}

	l.logger.Info("document replaced",
		"roles", len(doc.Roles),
		"task_defs", len(doc.TaskDefs),
		"dates", len(doc.DailyTasks),
		"rewards", len(doc.Rewards),
	)
	return nil
}

// ExportDocument returns a deep copy of the current document.
func (l *Ledger) ExportDocument() *model.Document {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doc.Clone()
}

// EncodeDocument serializes the current document the same way it is
// persisted.
func (l *Ledger) EncodeDocument() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doc.Encode()
}
