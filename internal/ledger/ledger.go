// Package ledger owns the in-memory task/points document for one session:
// daily reconciliation, completion and redemption, and the registry of
// roles, task definitions and rewards.
package ledger

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/tally/internal/model"
	"github.com/dukerupert/tally/internal/recurrence"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrInvalidDate        = recurrence.ErrInvalidDate
	ErrInvalidDocument    = errors.New("invalid document")
	ErrStaleDocument      = errors.New("document changed")
)

// Persister stores the serialized document. Load returns nil, nil when
// nothing has been saved yet.
type Persister interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

type Option func(*Ledger)

// WithClock overrides the time source used for completion timestamps and
// "today".
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides how new role, task and reward ids are minted.
func WithIDGenerator(next func() string) Option {
	return func(l *Ledger) { l.newID = next }
}

// WithLocation sets the timezone that decides which calendar date is today.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) { l.loc = loc }
}

// Ledger is the session context every operation runs against. All methods
// are safe for concurrent use; each mutation is applied and persisted
// under one lock, so writers are serialized through a single owner.
type Ledger struct {
	mu        sync.Mutex
	doc       *model.Document
	persister Persister
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
	loc       *time.Location
}

// New loads the document from p. A failed or unreadable load is logged and
// the session starts from an empty document.
func New(p Persister, logger *slog.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Ledger{
		doc:       model.NewDocument(),
		persister: p,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.load()
	return l
}

// Today returns the current calendar date in the ledger's timezone.
func (l *Ledger) Today() string {
	return recurrence.Today(l.now(), l.loc)
}

func (l *Ledger) load() {
	if l.persister == nil {
		return
	}
	data, err := l.persister.Load()
	if err != nil {
		l.logger.Error("load document", "error", err)
		return
	}
	if len(data) == 0 {
		return
	}
	doc, err := model.DecodeDocument(data)
	if err != nil {
		l.logger.Error("decode document", "error", err)
		return
	}
	if doc.Dropped > 0 {
		l.logger.Warn("skipped malformed document entries", "count", doc.Dropped)
	}
	l.doc = doc
}

// save writes the whole document. Failures are logged, never returned: the
// in-memory document stays authoritative for the rest of the session.
func (l *Ledger) save() {
	if l.persister == nil {
		return
	}
	data, err := l.doc.Encode()
	if err != nil {
		l.logger.Error("encode document", "error", err)
		return
	}
	if err := l.persister.Save(data); err != nil {
		l.logger.Error("save document", "error", err, "bytes", len(data))
	}
}

func (l *Ledger) findRole(id string) *model.Role {
	for i := range l.doc.Roles {
		if l.doc.Roles[i].ID == id {
			return &l.doc.Roles[i]
		}
	}
	return nil
}

func (l *Ledger) findTaskDef(id string) *model.TaskDef {
	for i := range l.doc.TaskDefs {
		if l.doc.TaskDefs[i].ID == id {
			return &l.doc.TaskDefs[i]
		}
	}
	return nil
}

func (l *Ledger) findReward(id string) *model.Reward {
	for i := range l.doc.Rewards {
		if l.doc.Rewards[i].ID == id {
			return &l.doc.Rewards[i]
		}
	}
	return nil
}

// filterDaily keeps the instances for which keep returns true across every
// date and drops buckets left empty.
func (l *Ledger) filterDaily(keep func(model.DailyInstance) bool) {
	for date, list := range l.doc.DailyTasks {
		kept := list[:0]
		for _, it := range list {
			if keep(it) {
				kept = append(kept, it)
			}
		}
		if len(kept) == 0 {
			delete(l.doc.DailyTasks, date)
			continue
		}
		l.doc.DailyTasks[date] = kept
	}
}
