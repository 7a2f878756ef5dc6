package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/tally/internal/model"
)

func titles(list []model.DailyInstance) []string {
	out := make([]string, len(list))
	for i, it := range list {
		out[i] = it.Title
	}
	return out
}

func TestEnsureDailyScenarios(t *testing.T) {
	l := newTestLedger(t, nil)
	role := mustRole(t, l, "Mia")

	mustTask(t, l, TaskDefInput{RoleID: role.ID, Title: "Daily Task", Points: 1, RepeatType: "daily"})
	mustTask(t, l, TaskDefInput{RoleID: role.ID, Title: "Expired Task", Points: 1, RepeatType: "daily", RepeatUntil: "2023-01-01"})
	mustTask(t, l, TaskDefInput{RoleID: role.ID, Title: "Weekly Task (Mon)", Points: 1, RepeatType: "weekly", RepeatDays: model.Weekdays{1}})

	tests := []struct {
		date string
		want []string
	}{
		{"2025-01-01", []string{"Daily Task"}},
		{"2022-01-01", []string{"Daily Task", "Expired Task"}},
		{"2025-01-06", []string{"Daily Task", "Weekly Task (Mon)"}},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			list, err := l.EnsureDaily(tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(list))
			for _, it := range list {
				assert.False(t, it.Completed)
				assert.Nil(t, it.CompletedAt)
				assert.Equal(t, role.ID, it.RoleID)
			}
		})
	}
}

func TestEnsureDailyIdempotent(t *testing.T) {
	p := &memPersister{}
	l := newTestLedger(t, p)
	role := mustRole(t, l, "Mia")
	mustTask(t, l, TaskDefInput{RoleID: role.ID, Title: "Dishes", Points: 2})
	mustTask(t, l, TaskDefInput{RoleID: role.ID, Title: "Piano", Points: 5, RepeatType: "weekly", RepeatDays: model.Weekdays{1, 3}})

	first, err := l.EnsureDaily("2025-01-06")
	require.NoError(t, err)
	firstBytes := p.snapshot()

	second, err := l.EnsureDaily("2025-01-06")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstBytes, p.snapshot())
}

func TestEnsureDailyAtMostOnePerDefinition(t *testing.T) {
	l := newTestLedger(t, nil)
	role := mustRole(t, l, "Mia")
	td := mustTask(t, l, TaskDefInput{RoleID: role.ID, Title: "Dishes", Points: 2})

	for i := 0; i < 3; i++ {
		_, err := l.EnsureDaily("2025-01-06")
		require.NoError(t, err)
	}
	list := l.Daily("2025-01-06")
	require.Len(t, list, 1)
	assert.Equal(t, td.ID, list[0].TaskDefID)
}

func TestEnsureDailyCollapsesImportedDuplicates(t *testing.T) {
	l := newTestLedger(t, nil)
	require.NoError(t, l.ReplaceDocument([]byte(`{
		"roles":[{"id":"r1","name":"Mia","points":0}],
		"taskDefs":[{"id":"t1","roleId":"r1","title":"Dishes","points":2,"repeatType":"daily"}],
		"dailyTasks":{"2025-01-06":[
			{"taskDefId":"t1","roleId":"r1","title":"Dishes","points":2,"completed":false,"completedAt":null},
			{"taskDefId":"t1","roleId":"r1","title":"Dishes","points":2,"completed":true,"completedAt":1736150000000}
		]},
		"rewards":[]
	}`)))

	list, err := l.EnsureDaily("2025-01-06")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Completed, "completed duplicate must win")
}

func TestEnsureDailyPrunesStaleOpenInstances(t *testing.T) {
	l := newTestLedger(t, nil)
	role := mustRole(t, l, "Mia")
	td := mustTask(t, l, TaskDefInput{RoleID: role.ID, Title: "Piano", Points: 5, RepeatType: "weekly", RepeatDays: model.Weekdays{1}})

	list, err := l.EnsureDaily("2025-01-06")
	require.NoError(t, err)
	require.Len(t, list, 1)

	// Move the task to Tuesdays: the open Monday instance must go.
	days := model.Weekdays{2}
	_, err = l.UpdateTaskDef(td.ID, TaskDefPatch{RepeatDays: &days})
	require.NoError(t, err)

	list, err = l.EnsureDaily("2025-01-06")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEnsureDailyKeepsCompletedWhenRuleChanges(t *testing.T) {
	l := newTestLedger(t, nil)
	role := mustRole(t, l, "Mia")
	td := mustTask(t, l, TaskDefInput{RoleID: role.ID, Title: "Piano", Points: 5, RepeatType: "weekly", RepeatDays: model.Weekdays{1}})

	_, err := l.CompleteTask(td.ID, "2025-01-06")
	require.NoError(t, err)

	days := model.Weekdays{2}
	_, err = l.UpdateTaskDef(td.ID, TaskDefPatch{RepeatDays: &days})
	require.NoError(t, err)

	list, err := l.EnsureDaily("2025-01-06")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Completed)
}

func TestEnsureDailyRetainsOrphans(t *testing.T) {
	l := newTestLedger(t, nil)
	require.NoError(t, l.ReplaceDocument([]byte(`{
		"roles":[{"id":"r1","name":"Mia","points":0}],
		"taskDefs":[],
		"dailyTasks":{"2025-01-06":[
			{"taskDefId":"gone","roleId":"r1","title":"Old chore","points":3,"completed":false,"completedAt":null}
		]},
		"rewards":[]
	}`)))

	list, err := l.EnsureDaily("2025-01-06")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "gone", list[0].TaskDefID)
}

func TestEnsureDailyEmptyRegistry(t *testing.T) {
	l := newTestLedger(t, nil)
	list, err := l.EnsureDaily("2025-01-06")
	require.NoError(t, err)
	assert.Empty(t, list)

	doc := l.ExportDocument()
	bucket, ok := doc.DailyTasks["2025-01-06"]
	assert.True(t, ok, "reconciled date keeps an (empty) bucket")
	assert.Empty(t, bucket)
}

func TestEnsureDailyRejectsMalformedDate(t *testing.T) {
	p := &memPersister{}
	l := newTestLedger(t, p)
	for _, date := range []string{"2025-1-6", "06/01/2025", "2025-02-30", ""} {
		_, err := l.EnsureDaily(date)
		assert.ErrorIs(t, err, ErrInvalidDate, date)
	}
	assert.Zero(t, p.saves)
	assert.Empty(t, l.ExportDocument().DailyTasks)
}

func TestEnsureDailyBackfillsNewDefinition(t *testing.T) {
	l := newTestLedger(t, nil)
	role := mustRole(t, l, "Mia")
	mustTask(t, l, TaskDefInput{RoleID: role.ID, Title: "Dishes", Points: 2})

	_, err := l.EnsureDaily("2025-01-06")
	require.NoError(t, err)

	mustTask(t, l, TaskDefInput{RoleID: role.ID, Title: "Laundry", Points: 4})
	list, err := l.EnsureDaily("2025-01-06")
	require.NoError(t, err)
	assert.Equal(t, []string{"Dishes", "Laundry"}, titles(list))
}

func TestDeleteDailyItem(t *testing.T) {
	l := newTestLedger(t, nil)
	role := mustRole(t, l, "Mia")
	td := mustTask(t, l, TaskDefInput{RoleID: role.ID, Title: "Dishes", Points: 2})

	_, err := l.EnsureDaily("2025-01-06")
	require.NoError(t, err)

	require.NoError(t, l.DeleteDailyItem("2025-01-06", td.ID))
	_, ok := l.ExportDocument().DailyTasks["2025-01-06"]
	assert.False(t, ok, "empty bucket is removed")

	_, ok = l.TaskDef(td.ID)
	assert.True(t, ok, "definition survives")

	assert.ErrorIs(t, l.DeleteDailyItem("2025-01-06", td.ID), ErrNotFound)

	// The definition is still eligible, so the instance returns.
	list, err := l.EnsureDaily("2025-01-06")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEnsureDailyReturnsCopy(t *testing.T) {
	l := newTestLedger(t, nil)
	role := mustRole(t, l, "Mia")
	mustTask(t, l, TaskDefInput{RoleID: role.ID, Title: "Dishes", Points: 2})

	list, err := l.EnsureDaily("2025-01-06")
	require.NoError(t, err)
	list[0].Completed = true

	assert.False(t, l.Daily("2025-01-06")[0].Completed)
}
