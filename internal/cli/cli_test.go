package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/deadline/internal/config"
	"github.com/tgienger/deadline/internal/db"
	"github.com/tgienger/deadline/internal/models"
	"github.com/tgienger/deadline/internal/store"
)

func isolate(t *testing.T) string {
	t.Helper()
	data := t.TempDir()
	t.Setenv("XDG_DATA_HOME", data)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return data
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestCommands_TaskLifecycle(t *testing.T) {
	isolate(t)

	out := mustRun(t, "add", "Pay", "rent", "--due", "tomorrow", "--desc", "landlord")
	assert.Contains(t, out, "Added")
	assert.Contains(t, out, "Pay rent")
	mustRun(t, "add", "Call mom", "--priority", "high", "--no-reminder")

	out = mustRun(t, "list")
	assert.Contains(t, out, "Pay rent")
	assert.Contains(t, out, "Call mom")
	assert.Contains(t, out, "High")
	assert.Contains(t, out, "Tomorrow")

	out = mustRun(t, "show", "pay")
	assert.Contains(t, out, "landlord")
	assert.Contains(t, out, "reminder:  true")

	assert.Contains(t, mustRun(t, "done", "rent"), "Completed Pay rent")

	out = mustRun(t, "list", "--filter", "done")
	assert.Contains(t, out, "Pay rent")
	assert.NotContains(t, out, "Call mom")

	out = mustRun(t, "list", "--json")
	var tasks []models.Task
	require.NoError(t, json.Unmarshal([]byte(out), &tasks))
	require.Len(t, tasks, 2)
	assert.Equal(t, "Call mom", tasks[0].Title, "open tasks sort before done ones")
	assert.Equal(t, models.UrgencyHigh, tasks[0].CustomPriority)
	assert.False(t, tasks[0].Reminder)
	assert.True(t, tasks[1].Completed)

	assert.Contains(t, mustRun(t, "done", "rent"), "Reopened Pay rent")
	assert.Contains(t, mustRun(t, "rm", "mom"), "Deleted Call mom")
	assert.Contains(t, mustRun(t, "rm", "rent"), "Deleted Pay rent")
	assert.Contains(t, mustRun(t, "list"), "No tasks.")
}

func TestAdd_Rejections(t *testing.T) {
	isolate(t)

	_, err := run(t, "add", "   ")
	assert.ErrorIs(t, err, store.ErrValidation)

	_, err = run(t, "add", "x", "--priority", "overdue")
	assert.ErrorContains(t, err, "priority must be")

	_, err = run(t, "add", "x", "--due", "someday")
	assert.ErrorContains(t, err, "invalid due date")

	_, err = run(t, "add")
	assert.Error(t, err)

	assert.Contains(t, mustRun(t, "list"), "No tasks.")
}

func TestList_UnknownFilter(t *testing.T) {
	isolate(t)
	_, err := run(t, "list", "--filter", "someday")
	assert.ErrorContains(t, err, "unknown filter")
}

func TestDone_NoMatch(t *testing.T) {
	isolate(t)
	_, err := run(t, "done", "nothing")
	assert.ErrorIs(t, err, errNoMatch)
}

func TestConfigCommand(t *testing.T) {
	data := isolate(t)

	out := mustRun(t, "config")
	assert.Contains(t, out, "data_dir: "+data)
	assert.Contains(t, out, "default_filter: all")

	assert.Contains(t, mustRun(t, "config", "path"), "config.yaml")
}

func TestVersionCommand(t *testing.T) {
	assert.Equal(t, "deadline test\n", mustRun(t, "version"))
	assert.Equal(t, "deadline test\n", mustRun(t, "--version"))
}

func TestCommands_RunWhenTasksCannotBeLoaded(t *testing.T) {
	isolate(t)
	cfg, err := config.Load("")
	require.NoError(t, err)
	broken, err := db.New(cfg.DBPath())
	require.NoError(t, err)
	_, err = broken.Exec(`DROP TABLE settings; CREATE TABLE settings (key TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	require.NoError(t, broken.Close())

	out := mustRun(t, "list")
	assert.Contains(t, out, "Warning: could not load saved tasks")
	assert.Contains(t, out, "No tasks.")

	out = mustRun(t, "add", "Pay rent")
	assert.Contains(t, out, "Added")
	assert.Contains(t, out, "changes will not be saved")
}
