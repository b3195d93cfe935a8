package priority

import (
	"fmt"
	"strings"
	"time"

	"github.com/tgienger/deadline/internal/models"
)

// Filter selects which tasks a list shows
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
	FilterOverdue   Filter = Filter(models.UrgencyOverdue)
	FilterHigh      Filter = Filter(models.UrgencyHigh)
	FilterMedium    Filter = Filter(models.UrgencyMedium)
	FilterLow       Filter = Filter(models.UrgencyLow)
)

// Filters lists every filter in display order
var Filters = []Filter{
	FilterAll,
	FilterActive,
	FilterOverdue,
	FilterHigh,
	FilterMedium,
	FilterLow,
	FilterCompleted,
}

// ParseFilter parses a filter name; "done" is accepted for completed and an
// empty string means all.
func ParseFilter(s string) (Filter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return FilterAll, nil
	case "done":
		return FilterCompleted, nil
	}
	for _, f := range Filters {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// Match reports whether task passes the filter at time now. Urgency filters
// only match incomplete tasks.
func (f Filter) Match(task models.Task, now time.Time) bool {
	switch f {
	case FilterAll, "":
		return true
	case FilterActive:
		return !task.Completed
	case FilterCompleted:
		return task.Completed
	}
	if task.Completed {
		return false
	}
	return Classify(task, now) == models.Urgency(f)
}

// Label returns the segment text for the filter
func (f Filter) Label() string {
	switch f {
	case FilterAll, "":
		return "All"
	case FilterActive:
		return "Active"
	case FilterCompleted:
		return "Done"
	}
	return Label(models.Urgency(f))
}

// Apply returns the tasks matching f, ordered for display. The input slice
// is not modified.
func Apply(tasks []models.Task, f Filter, now time.Time) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t, now) {
			out = append(out, t)
		}
	}
	Sort(out, now)
	return out
}
