package models

import "time"

// Urgency is how pressing a task is, either derived from its due date or
// set by hand.
type Urgency string

const (
	UrgencyOverdue Urgency = "overdue"
	UrgencyHigh    Urgency = "high"
	UrgencyMedium  Urgency = "medium"
	UrgencyLow     Urgency = "low"
)

// Assignable reports whether u may be used as a task's custom priority.
// Overdue is always derived, never chosen.
func (u Urgency) Assignable() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// Task represents a single to-do item
type Task struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	DueDate        *time.Time `json:"dueDate"`
	Reminder       bool       `json:"reminder"`
	CustomPriority Urgency    `json:"customPriority,omitempty"`
	Completed      bool       `json:"completed"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// Clone returns a copy of t that shares no pointers with it.
func (t Task) Clone() Task {
	t.DueDate = cloneTime(t.DueDate)
	t.CompletedAt = cloneTime(t.CompletedAt)
	t.UpdatedAt = cloneTime(t.UpdatedAt)
	return t
}

// TaskInput holds the user-supplied fields of a new task
type TaskInput struct {
	Title          string
	Description    string
	DueDate        *time.Time
	Reminder       bool
	CustomPriority Urgency
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
