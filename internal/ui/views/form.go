package views

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/deadline/internal/due"
	"github.com/tgienger/deadline/internal/models"
	"github.com/tgienger/deadline/internal/priority"
	"github.com/tgienger/deadline/internal/store"
	"github.com/tgienger/deadline/internal/ui/styles"
)

type formField int

const (
	fieldTitle formField = iota
	fieldDesc
	fieldDue
	fieldReminder
	fieldPriority
	fieldSave
	fieldCount
)

// priorityChoices is the cycle order of the priority selector; "" is automatic
var priorityChoices = []models.Urgency{"", models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh}

type taskForm struct {
	editingID string // "" for a new task
	focus     formField

	title    textinput.Model
	desc     textarea.Model
	due      textinput.Model
	reminder bool
	priority models.Urgency

	err string
}

func newTaskForm(s *styles.Styles) taskForm {
	title := textinput.New()
	title.Placeholder = "Task title"
	title.CharLimit = 200

	desc := textarea.New()
	desc.Placeholder = "Description"
	desc.CharLimit = 1000
	desc.SetWidth(50)
	desc.SetHeight(3)
	desc.ShowLineNumbers = false

	dueInput := textinput.New()
	dueInput.Placeholder = "YYYY-MM-DD HH:MM, tomorrow, in 2 days"
	dueInput.CharLimit = 48

	return taskForm{title: title, desc: desc, due: dueInput}
}

func (f *taskForm) setWidth(w int) {
	f.desc.SetWidth(w)
}

func (f *taskForm) updateFocus() {
	f.title.Blur()
	f.desc.Blur()
	f.due.Blur()

	switch f.focus {
	case fieldTitle:
		f.title.Focus()
	case fieldDesc:
		f.desc.Focus()
	case fieldDue:
		f.due.Focus()
	}
}

func (f *taskForm) cyclePriority(dir int) {
	idx := 0
	for i, p := range priorityChoices {
		if p == f.priority {
			idx = i
			break
		}
	}
	n := len(priorityChoices)
	f.priority = priorityChoices[(idx+dir+n)%n]
}

// input collects the form into a TaskInput, parsing the due field against now
func (f *taskForm) input(now time.Time) (models.TaskInput, error) {
	dueDate, err := due.Parse(f.due.Value(), now)
	if err != nil {
		return models.TaskInput{}, err
	}
	return models.TaskInput{
		Title:          f.title.Value(),
		Description:    strings.TrimSpace(f.desc.Value()),
		DueDate:        dueDate,
		Reminder:       f.reminder,
		CustomPriority: f.priority,
	}, nil
}

func (v *TaskListView) startNewTask() {
	v.editing = true
	v.form.editingID = ""
	v.form.focus = fieldTitle
	v.form.err = ""
	v.form.title.Reset()
	v.form.desc.Reset()
	v.form.due.Reset()
	v.form.reminder = true
	v.form.priority = ""
	v.form.updateFocus()
}

func (v *TaskListView) startEditTask(task models.Task) {
	v.editing = true
	v.form.editingID = task.ID
	v.form.focus = fieldTitle
	v.form.err = ""
	v.form.title.SetValue(task.Title)
	v.form.desc.SetValue(task.Description)
	v.form.due.SetValue(due.Format(task.DueDate))
	v.form.reminder = task.Reminder
	v.form.priority = task.CustomPriority
	v.form.updateFocus()
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &v.form

	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.saveTask()

	case key.Matches(msg, v.keys.Tab):
		f.focus = (f.focus + 1) % fieldCount
		f.updateFocus()
		return v, nil

	case msg.String() == "shift+tab":
		f.focus = (f.focus + fieldCount - 1) % fieldCount
		f.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		switch f.focus {
		case fieldTitle, fieldDue:
			f.focus++
			f.updateFocus()
			return v, nil
		case fieldReminder:
			f.reminder = !f.reminder
			return v, nil
		case fieldPriority:
			f.cyclePriority(1)
			return v, nil
		case fieldSave:
			return v, v.saveTask()
		}
		// Enter in the description adds a newline

	case msg.String() == " ":
		switch f.focus {
		case fieldReminder:
			f.reminder = !f.reminder
			return v, nil
		case fieldPriority:
			f.cyclePriority(1)
			return v, nil
		}

	case msg.String() == "left", msg.String() == "right":
		if f.focus == fieldPriority {
			dir := 1
			if msg.String() == "left" {
				dir = -1
			}
			f.cyclePriority(dir)
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch f.focus {
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
	case fieldDesc:
		f.desc, cmd = f.desc.Update(msg)
	case fieldDue:
		f.due, cmd = f.due.Update(msg)
	}
	return v, cmd
}

// saveTask creates or updates the task. On failure the form stays open
// with the error shown inline.
func (v *TaskListView) saveTask() tea.Cmd {
	f := &v.form
	in, err := f.input(v.now())
	if err != nil {
		f.err = err.Error()
		f.focus = fieldDue
		f.updateFocus()
		return nil
	}

	if f.editingID == "" {
		_, err = v.store.Create(in)
	} else {
		task, ok := v.store.GetByID(f.editingID)
		if !ok {
			err = store.ErrNotFound
		} else {
			task.Title = in.Title
			task.Description = in.Description
			task.DueDate = in.DueDate
			task.Reminder = in.Reminder
			task.CustomPriority = in.CustomPriority
			_, err = v.store.Update(task)
		}
	}

	if err != nil {
		var verr *store.ValidationError
		if errors.As(err, &verr) && verr.Field == "title" {
			f.err = "A title is required"
			f.focus = fieldTitle
			f.updateFocus()
		} else {
			f.err = err.Error()
		}
		return nil
	}

	v.editing = false
	return v.loadTasks
}

func (v *TaskListView) renderEditForm() string {
	s := v.styles
	f := &v.form
	contentWidth := styles.ContentWidth(v.width)

	formTitle := "New Task"
	if f.editingID != "" {
		formTitle = "Edit Task"
	}

	inputStyle := func(field formField) lipgloss.Style {
		if f.focus == field {
			return s.InputFocused
		}
		return s.Input
	}
	btnStyle := s.Button
	if f.focus == fieldSave {
		btnStyle = s.ButtonFocused
	}

	// Dynamic input width based on content width
	inputWidth := clamp(contentWidth-6, 20, 50)

	reminder := "[ ] Remind me when it is due"
	if f.reminder {
		reminder = "[x] Remind me when it is due"
	}

	prio := "Auto (from due date)"
	if f.priority != "" {
		prio = s.Badge.Background(styles.UrgencyColor(f.priority)).Render(priority.Label(f.priority))
	}

	rows := []string{
		s.Title.Render(formTitle),
		"",
		"Title:",
		inputStyle(fieldTitle).Width(inputWidth).Render(f.title.View()),
		"",
		"Description:",
		inputStyle(fieldDesc).Render(f.desc.View()),
		"",
		"Due:",
		inputStyle(fieldDue).Width(inputWidth).Render(f.due.View()),
		"",
		inputStyle(fieldReminder).Width(inputWidth).Render(reminder),
		"",
		"Priority:",
		inputStyle(fieldPriority).Width(inputWidth).Render("◀ " + prio + " ▶"),
		"",
		btnStyle.Render(" Save "),
	}
	if f.err != "" {
		rows = append(rows, "", s.Error.Render(f.err))
	}
	rows = append(rows, "",
		s.TitleMuted.Render("Tab: next • Space: toggle • ←→: priority • Ctrl+S: save • Esc: cancel"),
	)

	form := lipgloss.JoinVertical(lipgloss.Left, rows...)

	// Center within content width, then center that in terminal
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}
