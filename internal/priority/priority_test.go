package priority

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/deadline/internal/models"
)

var refNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

func at(d time.Duration) *time.Time {
	t := refNow.Add(d)
	return &t
}

func TestClassify_CustomPriorityWins(t *testing.T) {
	for _, custom := range []models.Urgency{models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh} {
		for _, due := range []*time.Time{nil, at(-3 * day), at(0), at(day), at(30 * day)} {
			task := models.Task{Title: "x", CustomPriority: custom, DueDate: due}
			assert.Equal(t, custom, Classify(task, refNow))
			assert.Equal(t, custom, Classify(task, refNow.Add(400*day)))
		}
	}
}

func TestClassify_NoDueDateIsLow(t *testing.T) {
	assert.Equal(t, models.UrgencyLow, Classify(models.Task{Title: "x"}, refNow))
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		name string
		due  time.Duration
		want models.Urgency
	}{
		{"past", -2 * time.Hour, models.UrgencyOverdue},
		{"exactly now", 0, models.UrgencyOverdue},
		{"one millisecond ahead", time.Millisecond, models.UrgencyHigh},
		{"one day", day, models.UrgencyHigh},
		{"two days", 2 * day, models.UrgencyHigh},
		{"two days and a second", 2*day + time.Second, models.UrgencyMedium},
		{"three days", 3 * day, models.UrgencyMedium},
		{"five days", 5 * day, models.UrgencyMedium},
		{"five days and a second", 5*day + time.Second, models.UrgencyLow},
		{"six days", 6 * day, models.UrgencyLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := models.Task{Title: "x", DueDate: at(tt.due)}
			assert.Equal(t, tt.want, Classify(task, refNow))
		})
	}
}

func TestDaysUntil(t *testing.T) {
	assert.Equal(t, 0, DaysUntil(refNow, refNow))
	assert.Equal(t, 1, DaysUntil(refNow.Add(time.Hour), refNow))
	assert.Equal(t, 2, DaysUntil(refNow.Add(2*day), refNow))
	assert.Equal(t, 3, DaysUntil(refNow.Add(2*day+time.Second), refNow))
	assert.Equal(t, -1, DaysUntil(refNow.Add(-day-time.Hour), refNow))
}

func TestColorFor(t *testing.T) {
	assert.Equal(t, ColorDanger, ColorFor(models.UrgencyOverdue))
	assert.Equal(t, ColorWarning, ColorFor(models.UrgencyHigh))
	assert.Equal(t, ColorCaution, ColorFor(models.UrgencyMedium))
	assert.Equal(t, ColorNeutral, ColorFor(models.UrgencyLow))
}

func sampleTasks() []models.Task {
	return []models.Task{
		{ID: "overdue", DueDate: at(-day)},
		{ID: "high-soon", DueDate: at(time.Hour)},
		{ID: "high-later", DueDate: at(2 * day)},
		{ID: "custom-high", CustomPriority: models.UrgencyHigh},
		{ID: "medium", DueDate: at(4 * day)},
		{ID: "low-dated", DueDate: at(20 * day)},
		{ID: "low-undated"},
		{ID: "low-undated-2"},
		{ID: "done-old", Completed: true, CompletedAt: at(-5 * day)},
		{ID: "done-new", Completed: true, CompletedAt: at(-time.Hour)},
		{ID: "done-unknown", Completed: true},
		{ID: "done-overdue", Completed: true, DueDate: at(-3 * day), CompletedAt: at(-2 * day)},
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func TestCompare_CompletedAlwaysLast(t *testing.T) {
	tasks := sampleTasks()
	for _, a := range tasks {
		for _, b := range tasks {
			if !a.Completed && b.Completed {
				assert.Equal(t, -1, sign(Compare(a, b, refNow)), "%s vs %s", a.ID, b.ID)
				assert.Equal(t, 1, sign(Compare(b, a, refNow)), "%s vs %s", b.ID, a.ID)
			}
		}
	}
}

func TestCompare_StrictWeakOrdering(t *testing.T) {
	tasks := sampleTasks()

	for _, a := range tasks {
		assert.Equal(t, 0, Compare(a, a, refNow), "irreflexive: %s", a.ID)
		for _, b := range tasks {
			assert.Equal(t, -sign(Compare(a, b, refNow)), sign(Compare(b, a, refNow)), "antisymmetric: %s %s", a.ID, b.ID)
			for _, c := range tasks {
				ab, bc, ac := sign(Compare(a, b, refNow)), sign(Compare(b, c, refNow)), sign(Compare(a, c, refNow))
				if ab < 0 && bc < 0 {
					assert.Equal(t, -1, ac, "transitive: %s < %s < %s", a.ID, b.ID, c.ID)
				}
				if ab == 0 && bc == 0 {
					assert.Equal(t, 0, ac, "equivalence is transitive: %s %s %s", a.ID, b.ID, c.ID)
				}
			}
		}
	}
}

func TestSort_DisplayOrder(t *testing.T) {
	tasks := sampleTasks()
	// Reverse the input so the sort has real work to do, except that the
	// two undated low tasks must keep their relative order.
	input := []models.Task{
		tasks[11], tasks[10], tasks[9], tasks[8], tasks[6], tasks[7],
		tasks[5], tasks[4], tasks[3], tasks[2], tasks[1], tasks[0],
	}

	Sort(input, refNow)

	var ids []string
	for _, task := range input {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{
		"overdue",
		"high-soon",
		"high-later",
		"custom-high",
		"medium",
		"low-dated",
		"low-undated",
		"low-undated-2",
		"done-new",
		"done-overdue",
		"done-old",
		"done-unknown",
	}, ids)
}

func TestSort_StableForIdenticalUrgency(t *testing.T) {
	var tasks []models.Task
	for _, id := range []string{"c", "a", "d", "b"} {
		tasks = append(tasks, models.Task{ID: id, Title: id})
	}

	Sort(tasks, refNow)

	var ids []string
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"c", "a", "d", "b"}, ids)
}

func TestParseFilter(t *testing.T) {
	for _, f := range Filters {
		got, err := ParseFilter(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	got, err := ParseFilter(" Done ")
	require.NoError(t, err)
	assert.Equal(t, FilterCompleted, got)

	got, err = ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, got)

	_, err = ParseFilter("urgent")
	assert.Error(t, err)
}

func TestFilter_Match(t *testing.T) {
	highOpen := models.Task{DueDate: at(day)}
	highDone := models.Task{DueDate: at(day), Completed: true}
	customMedium := models.Task{CustomPriority: models.UrgencyMedium, DueDate: at(day)}

	assert.True(t, FilterAll.Match(highDone, refNow))
	assert.True(t, FilterActive.Match(highOpen, refNow))
	assert.False(t, FilterActive.Match(highDone, refNow))
	assert.True(t, FilterCompleted.Match(highDone, refNow))
	assert.True(t, FilterHigh.Match(highOpen, refNow))
	assert.False(t, FilterHigh.Match(highDone, refNow), "urgency filters skip completed tasks")
	assert.True(t, FilterMedium.Match(customMedium, refNow), "urgency filters classify the task itself")
	assert.False(t, FilterHigh.Match(customMedium, refNow))
}

func TestApply_FiltersAndSorts(t *testing.T) {
	tasks := sampleTasks()
	got := Apply(tasks, FilterHigh, refNow)

	var ids []string
	for _, task := range got {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"high-soon", "high-later", "custom-high"}, ids)
	assert.Equal(t, "overdue", tasks[0].ID, "input left untouched")
}

func TestDueLabel(t *testing.T) {
	tests := []struct {
		due  time.Time
		want string
	}{
		{refNow.Add(-time.Minute), "Overdue"},
		{refNow.Add(time.Hour), "Today"},
		{time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), "Tomorrow"},
		{time.Date(2026, 3, 13, 8, 0, 0, 0, time.UTC), "In 3 days"},
		{time.Date(2026, 3, 20, 18, 30, 0, 0, time.UTC), "Fri, Mar 20 18:30"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DueLabel(tt.due, refNow), tt.due.String())
	}
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Overdue", Label(models.UrgencyOverdue))
	assert.Equal(t, "Done", FilterCompleted.Label())
	assert.Equal(t, "Medium", FilterMedium.Label())
}
