package ledger

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/tally/internal/model"
)

// memPersister is an in-memory Persister that records every save.
type memPersister struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	loadErr error
	saveErr error
}

func (m *memPersister) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.data, nil
}

func (m *memPersister) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = append([]byte(nil), data...)
	m.saves++
	return nil
}

func (m *memPersister) snapshot() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

var fixedNow = time.Date(2025, 1, 6, 9, 30, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id_%d", n)
	}
}

func newTestLedger(t *testing.T, p *memPersister) *Ledger {
	t.Helper()
	if p == nil {
		p = &memPersister{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(p, logger,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(sequentialIDs()),
		WithLocation(time.UTC),
	)
}

func mustRole(t *testing.T, l *Ledger, name string) model.Role {
	t.Helper()
	r, err := l.AddRole(name)
	require.NoError(t, err)
	return r
}

func mustTask(t *testing.T, l *Ledger, in TaskDefInput) model.TaskDef {
	t.Helper()
	td, err := l.AddTaskDef(in)
	require.NoError(t, err)
	return td
}

func TestNewLoadsPersistedDocument(t *testing.T) {
	p := &memPersister{data: []byte(`{
		"roles":[{"id":"r1","name":"Mia","points":7}],
		"taskDefs":[{"id":"t1","roleId":"r1","title":"Read","points":2,"repeatType":"weekly","repeatDays":["1",3]}],
		"dailyTasks":{},
		"rewards":[],
		"theme":"dark"
	}`)}
	l := newTestLedger(t, p)

	roles := l.Roles()
	require.Len(t, roles, 1)
	assert.Equal(t, 7, roles[0].Points)

	td, ok := l.TaskDef("t1")
	require.True(t, ok)
	assert.Equal(t, model.Weekdays{1, 3}, td.RepeatDays)
}

func TestNewSurvivesLoadFailure(t *testing.T) {
	l := newTestLedger(t, &memPersister{loadErr: errors.New("disk gone")})
	assert.Empty(t, l.Roles())

	l = newTestLedger(t, &memPersister{data: []byte("not json")})
	assert.Empty(t, l.Roles())
}

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	p := &memPersister{saveErr: errors.New("quota exceeded")}
	l := newTestLedger(t, p)

	role := mustRole(t, l, "Mia")
	got, ok := l.Role(role.ID)
	require.True(t, ok)
	assert.Equal(t, "Mia", got.Name)
	assert.Zero(t, p.saves)
}

func TestEveryMutationPersists(t *testing.T) {
	p := &memPersister{}
	l := newTestLedger(t, p)

	role := mustRole(t, l, "Mia")
	mustTask(t, l, TaskDefInput{RoleID: role.ID, Title: "Read", Points: 3})
	_, err := l.EnsureDaily("2025-01-06")
	require.NoError(t, err)
	assert.Equal(t, 3, p.saves)

	reloaded := newTestLedger(t, &memPersister{data: p.snapshot()})
	assert.Len(t, reloaded.Daily("2025-01-06"), 1)
	assert.Len(t, reloaded.TaskDefs(), 1)
}

func TestEncodedDocumentHasExactTopLevelKeys(t *testing.T) {
	p := &memPersister{}
	l := newTestLedger(t, p)
	mustRole(t, l, "Mia")

	data := p.snapshot()
	for _, key := range []string{`"roles":`, `"taskDefs":`, `"dailyTasks":`, `"rewards":`} {
		assert.True(t, bytes.Contains(data, []byte(key)), "missing %s in %s", key, data)
	}
	assert.False(t, bytes.Contains(data, []byte("null,")), "empty containers must not encode as null: %s", data)
}
