package views

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/deadline/internal/priority"
	"github.com/tgienger/deadline/internal/ui/styles"
)

const timeLayout = "Jan 2, 2006 3:04 PM"

func (v *TaskListView) updateViewingTask(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	task, ok := v.store.GetByID(v.viewingID)
	if !ok {
		v.viewingTask = false
		return v, v.loadTasks
	}

	switch {
	case key.Matches(msg, v.keys.Back):
		v.viewingTask = false
		return v, nil
	case key.Matches(msg, v.keys.Edit):
		v.viewingTask = false
		v.startEditTask(task)
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Toggle):
		return v, v.toggleTask(task.ID)
	case key.Matches(msg, v.keys.Delete):
		v.confirmDelete(task)
		return v, nil
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	}
	return v, nil
}

func (v *TaskListView) renderTaskView() string {
	task, ok := v.store.GetByID(v.viewingID)
	if !ok {
		return ""
	}

	s := v.styles
	now := v.now()
	maxContentWidth := styles.ContentWidth(v.width)
	textWidth := clamp(maxContentWidth-10, 20, 70)
	labelStyle := s.TitleMuted

	title := s.Title.MarginBottom(1).Render(task.Title)
	if task.Completed {
		title = s.TaskDone.Bold(true).MarginBottom(1).Render(task.Title)
	}

	dueText := s.TitleMuted.Render("No due date")
	if task.DueDate != nil {
		dueText = fmt.Sprintf("%s (%s)",
			task.DueDate.Local().Format(timeLayout),
			priority.DueLabel(*task.DueDate, now))
	}

	reminderText := "Off"
	if task.Reminder {
		reminderText = "On"
		if task.DueDate == nil {
			reminderText = "On (needs a due date)"
		} else if !task.DueDate.After(now) {
			reminderText = "On (due date passed)"
		}
	}

	priorityText := "Auto"
	if task.CustomPriority != "" {
		priorityText = "Custom: " + priority.Label(task.CustomPriority)
	}

	descText := task.Description
	if descText == "" {
		descText = s.TitleMuted.Render("No description")
	}

	history := []string{"Created " + task.CreatedAt.Local().Format(timeLayout)}
	if task.UpdatedAt != nil {
		history = append(history, "Updated "+task.UpdatedAt.Local().Format(timeLayout))
	}
	if task.CompletedAt != nil {
		history = append(history, "Completed "+task.CompletedAt.Local().Format(timeLayout))
	}

	toggleLabel := "done"
	if task.Completed {
		toggleLabel = "reopen"
	}
	helpText := s.Help.Render(
		fmt.Sprintf("%s %s • %s edit • %s delete • %s back",
			s.HelpKey.Render("x"),
			toggleLabel,
			s.HelpKey.Render("e"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("esc"),
		),
	)

	rows := []string{
		title,
		v.badge(task, now),
		"",
		labelStyle.Render("Due"),
		dueText,
		"",
		labelStyle.Render("Reminder"),
		reminderText,
		"",
		labelStyle.Render("Priority"),
		priorityText,
		"",
		labelStyle.Render("Description"),
		lipgloss.NewStyle().Width(textWidth).Render(descText),
		"",
		labelStyle.Render("History"),
		lipgloss.JoinVertical(lipgloss.Left, history...),
	}
	if v.status != "" {
		rows = append(rows, "", s.Error.Render(v.status))
	}
	rows = append(rows, "", helpText)

	// Return with padding, not centered vertically, but horizontally centered if wide
	padded := lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return styles.CenterView(padded, v.width, v.height)
}
