package views

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/deadline/internal/models"
	"github.com/tgienger/deadline/internal/priority"
	"github.com/tgienger/deadline/internal/store"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)

type mapStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *mapStorage) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapStorage) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(&mapStorage{data: map[string]string{}}, nil, store.WithClock(func() time.Time { return now }))
	require.NoError(t, s.Initialize(context.Background()))
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func newTestView(t *testing.T, s *store.Store) *TaskListView {
	t.Helper()
	v := NewTaskListView(s, priority.FilterAll, func() time.Time { return now })
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	reload(v)
	return v
}

func reload(v *TaskListView) {
	v.Update(v.loadTasks())
}

func press(v *TaskListView, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		v.Update(msg)
	}
}

func mustCreate(t *testing.T, s *store.Store, in models.TaskInput) models.Task {
	t.Helper()
	task, err := s.Create(in)
	require.NoError(t, err)
	return task
}

func ptr(t time.Time) *time.Time { return &t }

func titles(tasks []models.Task) []string {
	var out []string
	for _, task := range tasks {
		out = append(out, task.Title)
	}
	return out
}

func TestTaskList_SortedByUrgency(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, models.TaskInput{Title: "someday"})
	mustCreate(t, s, models.TaskInput{Title: "late", DueDate: ptr(now.Add(-time.Hour))})
	mustCreate(t, s, models.TaskInput{Title: "soon", DueDate: ptr(now.Add(24 * time.Hour))})

	v := newTestView(t, s)
	assert.Equal(t, []string{"late", "soon", "someday"}, titles(v.tasks))

	out := v.View()
	assert.Contains(t, out, "late")
	assert.Contains(t, out, "Overdue")
	assert.Contains(t, out, "1 overdue")
}

func TestTaskList_EmptyState(t *testing.T) {
	v := newTestView(t, newTestStore(t))
	assert.Contains(t, v.View(), "No tasks")
}

func TestTaskList_CycleFilter(t *testing.T) {
	s := newTestStore(t)
	mustCreate(t, s, models.TaskInput{Title: "open"})
	done := mustCreate(t, s, models.TaskInput{Title: "closed"})
	_, err := s.ToggleCompleted(done.ID)
	require.NoError(t, err)

	v := newTestView(t, s)
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	require.NotNil(t, cmd)
	assert.Equal(t, priority.FilterActive, v.Filter())

	var changed []FilterChanged
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		switch msg := c().(type) {
		case FilterChanged:
			changed = append(changed, msg)
		case tasksLoadedMsg:
			v.Update(msg)
		}
	}
	assert.Equal(t, []FilterChanged{{Filter: priority.FilterActive}}, changed)
	assert.Equal(t, []string{"open"}, titles(v.tasks))

	// Cycling backwards wraps around.
	press(v, "F", "F")
	assert.Equal(t, priority.Filters[len(priority.Filters)-1], v.Filter())
}

func TestTaskList_ToggleCompleted(t *testing.T) {
	s := newTestStore(t)
	task := mustCreate(t, s, models.TaskInput{Title: "water plants"})
	v := newTestView(t, s)

	press(v, "x")
	got, ok := s.GetByID(task.ID)
	require.True(t, ok)
	assert.True(t, got.Completed)

	press(v, " ")
	got, _ = s.GetByID(task.ID)
	assert.False(t, got.Completed)
}

func TestTaskList_DeleteAsksFirst(t *testing.T) {
	s := newTestStore(t)
	task := mustCreate(t, s, models.TaskInput{Title: "old"})
	v := newTestView(t, s)

	press(v, "d")
	assert.True(t, v.confirmingDelete)
	assert.Contains(t, v.View(), "Delete Task?")

	press(v, "n")
	_, ok := s.GetByID(task.ID)
	assert.True(t, ok)

	press(v, "d", "y")
	_, ok = s.GetByID(task.ID)
	assert.False(t, ok)
}

func TestTaskList_DetailView(t *testing.T) {
	s := newTestStore(t)
	task := mustCreate(t, s, models.TaskInput{
		Title:       "Pay rent",
		Description: "transfer to landlord",
		DueDate:     ptr(now.Add(48 * time.Hour)),
		Reminder:    true,
	})
	v := newTestView(t, s)

	press(v, "enter")
	require.True(t, v.viewingTask)
	out := v.View()
	assert.Contains(t, out, "Pay rent")
	assert.Contains(t, out, "transfer to landlord")
	assert.Contains(t, out, "In 2 days")

	press(v, "x")
	got, _ := s.GetByID(task.ID)
	assert.True(t, got.Completed)
	assert.True(t, v.viewingTask, "toggling keeps the detail view open")

	press(v, "esc")
	assert.False(t, v.viewingTask)
}

func TestForm_CreateTask(t *testing.T) {
	s := newTestStore(t)
	v := newTestView(t, s)

	press(v, "n")
	require.True(t, v.editing)
	v.form.title.SetValue("Pay rent")
	v.form.due.SetValue("2026-03-11 18:00")
	v.form.priority = models.UrgencyHigh
	press(v, "ctrl+s")

	assert.False(t, v.editing)
	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Pay rent", list[0].Title)
	require.NotNil(t, list[0].DueDate)
	assert.True(t, list[0].DueDate.Equal(time.Date(2026, 3, 11, 18, 0, 0, 0, time.Local)))
	assert.True(t, list[0].Reminder, "new tasks remind by default")
	assert.Equal(t, models.UrgencyHigh, list[0].CustomPriority)
}

func TestForm_BlankTitleStaysOpen(t *testing.T) {
	s := newTestStore(t)
	v := newTestView(t, s)

	press(v, "n")
	v.form.title.SetValue("   ")
	press(v, "ctrl+s")

	assert.True(t, v.editing)
	assert.Equal(t, "A title is required", v.form.err)
	assert.Contains(t, v.View(), "A title is required")
	assert.Empty(t, s.List())
}

func TestForm_BadDueDateStaysOpen(t *testing.T) {
	s := newTestStore(t)
	v := newTestView(t, s)

	press(v, "n")
	v.form.title.SetValue("x")
	v.form.due.SetValue("whenever")
	press(v, "ctrl+s")

	assert.True(t, v.editing)
	assert.NotEmpty(t, v.form.err)
	assert.Equal(t, fieldDue, v.form.focus)
	assert.Empty(t, s.List())
}

func TestForm_EditKeepsCompletion(t *testing.T) {
	s := newTestStore(t)
	task := mustCreate(t, s, models.TaskInput{Title: "draft", DueDate: ptr(now.Add(time.Hour))})
	_, err := s.ToggleCompleted(task.ID)
	require.NoError(t, err)
	v := newTestView(t, s)

	press(v, "e")
	require.True(t, v.editing)
	assert.Equal(t, "draft", v.form.title.Value())
	v.form.title.SetValue("final")
	v.form.due.SetValue("")
	press(v, "ctrl+s")

	got, _ := s.GetByID(task.ID)
	assert.Equal(t, "final", got.Title)
	assert.Nil(t, got.DueDate)
	assert.True(t, got.Completed)
	assert.NotNil(t, got.UpdatedAt)
}

func TestForm_ToggleFields(t *testing.T) {
	v := newTestView(t, newTestStore(t))
	press(v, "n")

	// title -> desc -> due -> reminder
	press(v, "tab", "tab", "tab")
	require.Equal(t, fieldReminder, v.form.focus)
	press(v, " ")
	assert.False(t, v.form.reminder)

	press(v, "tab")
	require.Equal(t, fieldPriority, v.form.focus)
	press(v, "enter")
	assert.Equal(t, models.UrgencyLow, v.form.priority)
	v.Update(tea.KeyMsg{Type: tea.KeyLeft})
	v.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, models.UrgencyHigh, v.form.priority)

	press(v, "esc")
	assert.False(t, v.editing)
}
