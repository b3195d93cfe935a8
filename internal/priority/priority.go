// Package priority classifies tasks by urgency and defines the order in
// which they are displayed. Every function takes the reference time as an
// argument; nothing here reads the wall clock.
package priority

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/tgienger/deadline/internal/models"
)

const msPerDay = 24 * 60 * 60 * 1000

// Color is the semantic display color of an urgency level. The UI theme
// decides what each one looks like.
type Color int

const (
	ColorNeutral Color = iota
	ColorCaution
	ColorWarning
	ColorDanger
)

// DaysUntil returns the number of days from now until due, rounded up.
// A due date in the past or exactly now yields zero or less.
func DaysUntil(due, now time.Time) int {
	ms := due.Sub(now).Milliseconds()
	return int(math.Ceil(float64(ms) / msPerDay))
}

// Classify returns the urgency of task relative to now. A custom priority
// always wins; otherwise the due date decides, and a task without one is low.
func Classify(task models.Task, now time.Time) models.Urgency {
	if task.CustomPriority != "" {
		return task.CustomPriority
	}
	if task.DueDate == nil {
		return models.UrgencyLow
	}

	days := DaysUntil(*task.DueDate, now)
	switch {
	case days <= 0:
		return models.UrgencyOverdue
	case days <= 2:
		return models.UrgencyHigh
	case days <= 5:
		return models.UrgencyMedium
	default:
		return models.UrgencyLow
	}
}

// Rank orders urgency levels, most urgent first.
func Rank(u models.Urgency) int {
	switch u {
	case models.UrgencyOverdue:
		return 0
	case models.UrgencyHigh:
		return 1
	case models.UrgencyMedium:
		return 2
	default:
		return 3
	}
}

// ColorFor maps an urgency level to its display color
func ColorFor(u models.Urgency) Color {
	switch u {
	case models.UrgencyOverdue:
		return ColorDanger
	case models.UrgencyHigh:
		return ColorWarning
	case models.UrgencyMedium:
		return ColorCaution
	default:
		return ColorNeutral
	}
}

// Label returns the badge text for an urgency level
func Label(u models.Urgency) string {
	switch u {
	case models.UrgencyOverdue:
		return "Overdue"
	case models.UrgencyHigh:
		return "High"
	case models.UrgencyMedium:
		return "Medium"
	case models.UrgencyLow:
		return "Low"
	default:
		return "Normal"
	}
}

// Compare orders tasks for display. Incomplete tasks come first, by rank
// and then by due date, with dated tasks ahead of undated ones. Completed
// tasks follow, most recently completed first. Tasks that compare equal
// keep their input order under a stable sort.
func Compare(a, b models.Task, now time.Time) int {
	if a.Completed != b.Completed {
		if a.Completed {
			return 1
		}
		return -1
	}

	if a.Completed {
		// Descending, with a missing completion time treated as the epoch.
		return cmp.Compare(completedMillis(b), completedMillis(a))
	}

	if c := cmp.Compare(Rank(Classify(a, now)), Rank(Classify(b, now))); c != 0 {
		return c
	}

	switch {
	case a.DueDate != nil && b.DueDate != nil:
		return a.DueDate.Compare(*b.DueDate)
	case a.DueDate != nil:
		return -1
	case b.DueDate != nil:
		return 1
	}
	return 0
}

// Sort orders tasks in place for display, keeping equal tasks in input order.
func Sort(tasks []models.Task, now time.Time) {
	slices.SortStableFunc(tasks, func(a, b models.Task) int {
		return Compare(a, b, now)
	})
}

func completedMillis(t models.Task) int64 {
	if t.CompletedAt == nil {
		return 0
	}
	return t.CompletedAt.UnixMilli()
}

// DueLabel describes a due date relative to now in calendar days of now's
// location: "Overdue", "Today", "Tomorrow", "In N days" for the coming
// week, and the date itself beyond that.
func DueLabel(due, now time.Time) string {
	if due.Before(now) {
		return "Overdue"
	}

	loc := now.Location()
	d := due.In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	dueDay := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	days := int(math.Round(dueDay.Sub(start).Hours() / 24))

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days < 7:
		return fmt.Sprintf("In %d days", days)
	}
	return d.Format("Mon, Jan 2 15:04")
}
