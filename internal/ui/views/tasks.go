package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/deadline/internal/models"
	"github.com/tgienger/deadline/internal/priority"
	"github.com/tgienger/deadline/internal/ui/keys"
	"github.com/tgienger/deadline/internal/ui/styles"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// TaskStore is the part of the task store the views use
type TaskStore interface {
	Create(in models.TaskInput) (models.Task, error)
	Update(task models.Task) (models.Task, error)
	Delete(id string) error
	ToggleCompleted(id string) (models.Task, error)
	GetByID(id string) (models.Task, bool)
	ListSorted(now time.Time, filter priority.Filter) []models.Task
}

// TaskListView shows the sorted, filtered task list
type TaskListView struct {
	store  TaskStore
	now    func() time.Time
	tasks  []models.Task
	filter priority.Filter
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	cursor  int
	scrollY int

	// Task creation/editing
	editing bool
	form    taskForm

	// Task view mode (read-only detail view)
	viewingTask bool
	viewingID   string

	// Delete confirmation
	confirmingDelete bool
	deleteTargetID   string
	deleteTargetName string

	// Last failed action, cleared on the next key
	status string

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewTaskListView creates a task list showing tasks that match filter
func NewTaskListView(store TaskStore, filter priority.Filter, now func() time.Time) *TaskListView {
	s := styles.NewStyles()
	return &TaskListView{
		store:  store,
		now:    now,
		filter: filter,
		styles: s,
		keys:   keys.DefaultKeyMap(),
		form:   newTaskForm(s),
	}
}

// FilterChanged is emitted when the user picks another filter
type FilterChanged struct {
	Filter priority.Filter
}

type tasksLoadedMsg struct {
	tasks []models.Task
}

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	return v.loadTasks
}

// Reload re-reads the task list, e.g. after a store change or a clock tick
func (v *TaskListView) Reload() tea.Cmd {
	return v.loadTasks
}

// Filter returns the active filter
func (v *TaskListView) Filter() priority.Filter {
	return v.filter
}

func (v *TaskListView) loadTasks() tea.Msg {
	return tasksLoadedMsg{tasks: v.store.ListSorted(v.now(), v.filter)}
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.form.setWidth(clamp(styles.ContentWidth(v.width)-10, 20, 50))
		return v, nil

	case tasksLoadedMsg:
		v.tasks = msg.tasks
		if v.cursor >= len(v.tasks) {
			v.cursor = max(0, len(v.tasks)-1)
		}
		v.ensureVisible()
		// The viewed task may have been deleted from the command line.
		if v.viewingTask {
			if _, ok := v.store.GetByID(v.viewingID); !ok {
				v.viewingTask = false
			}
		}
		return v, nil

	case tea.KeyMsg:
		v.status = ""

		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.editing {
			return v.updateEditing(msg)
		}

		if v.viewingTask {
			return v.updateViewingTask(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if task, ok := v.selected(); ok {
			v.viewingTask = true
			v.viewingID = task.ID
		}
		return v, nil

	case key.Matches(msg, v.keys.Toggle):
		if task, ok := v.selected(); ok {
			return v, v.toggleTask(task.ID)
		}
		return v, nil

	case key.Matches(msg, v.keys.Edit):
		if task, ok := v.selected(); ok {
			v.startEditTask(task)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.startNewTask()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Delete):
		if task, ok := v.selected(); ok {
			v.confirmDelete(task)
		}
		return v, nil

	case key.Matches(msg, v.keys.NextFilter):
		return v, v.cycleFilter(1)

	case key.Matches(msg, v.keys.PrevFilter):
		return v, v.cycleFilter(-1)

	case key.Matches(msg, v.keys.Help):
		// Show help popup (useful at narrow widths)
		v.showHelpPopup = true
		return v, nil
	}

	return v, nil
}

func (v *TaskListView) selected() (models.Task, bool) {
	if len(v.tasks) == 0 || v.cursor >= len(v.tasks) {
		return models.Task{}, false
	}
	return v.tasks[v.cursor], true
}

func (v *TaskListView) cycleFilter(dir int) tea.Cmd {
	idx := 0
	for i, f := range priority.Filters {
		if f == v.filter {
			idx = i
			break
		}
	}
	n := len(priority.Filters)
	v.filter = priority.Filters[(idx+dir+n)%n]
	v.cursor = 0
	v.scrollY = 0

	filter := v.filter
	return tea.Batch(v.loadTasks, func() tea.Msg { return FilterChanged{Filter: filter} })
}

func (v *TaskListView) toggleTask(id string) tea.Cmd {
	if _, err := v.store.ToggleCompleted(id); err != nil {
		v.status = err.Error()
		return nil
	}
	return v.loadTasks
}

func (v *TaskListView) confirmDelete(task models.Task) {
	v.confirmingDelete = true
	v.deleteTargetID = task.ID
	v.deleteTargetName = task.Title
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		if err := v.store.Delete(v.deleteTargetID); err != nil {
			v.status = err.Error()
			return v, nil
		}
		if v.viewingID == v.deleteTargetID {
			v.viewingTask = false
		}
		return v, v.loadTasks
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

// itemHeight is two lines per task plus a margin line
const itemHeight = 3

func (v *TaskListView) visibleItems() int {
	availableHeight := max(v.height-10, itemHeight)
	return max(availableHeight/itemHeight, 1)
}

func (v *TaskListView) ensureVisible() {
	visibleItems := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.editing {
		return v.renderEditForm()
	}

	if v.viewingTask {
		return v.renderTaskView()
	}

	var b strings.Builder

	// Header with title and filter segments
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")

	// Task list
	b.WriteString(v.renderTaskList())

	if v.status != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Error.Render(v.status))
	}

	// Help
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	now := v.now()
	overdue := 0
	for _, task := range v.tasks {
		if !task.Completed && priority.Classify(task, now) == models.UrgencyOverdue {
			overdue++
		}
	}
	title := s.Title.Render("Deadline")
	count := s.TitleMuted.Render(fmt.Sprintf("  %d shown", len(v.tasks)))
	if overdue > 0 {
		count += s.Error.Render(fmt.Sprintf("  %d overdue", overdue))
	}

	// Filter segments - at narrow widths only the active one is shown
	var segments []string
	for _, f := range priority.Filters {
		if f == v.filter {
			segments = append(segments, s.SegmentSelected.Render(f.Label()))
		} else if contentWidth >= 60 {
			segments = append(segments, s.Segment.Render(f.Label()))
		}
	}
	bar := s.FilterBar.Render(lipgloss.JoinHorizontal(lipgloss.Center, segments...))

	return lipgloss.JoinVertical(lipgloss.Left, title+count, bar)
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if len(v.tasks) == 0 {
		if v.filter == priority.FilterAll {
			return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
		}
		return s.TitleMuted.Render(fmt.Sprintf("No %s tasks.", strings.ToLower(v.filter.Label())))
	}

	var items []string
	endIdx := min(v.scrollY+v.visibleItems(), len(v.tasks))

	now := v.now()
	for i := v.scrollY; i < endIdx; i++ {
		items = append(items, v.renderTaskItem(v.tasks[i], i == v.cursor, now))
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

// badge renders the urgency label of a task on its urgency color
func (v *TaskListView) badge(task models.Task, now time.Time) string {
	if task.Completed {
		return v.styles.Badge.Background(styles.Current.Done).Render("Done")
	}
	u := priority.Classify(task, now)
	return v.styles.Badge.Background(styles.UrgencyColor(u)).Render(priority.Label(u))
}

func (v *TaskListView) renderTaskItem(task models.Task, selected bool, now time.Time) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	width := max(contentWidth-4, 20)

	checkbox := "[ ] "
	title := s.TaskTitle.Render(task.Title)
	if task.Completed {
		checkbox = "[x] "
		title = s.TaskDone.Render(task.Title)
	}

	// Detail line: urgency badge, due label and reminder flag
	detail := v.badge(task, now)
	if task.DueDate != nil {
		detail += " " + s.TitleMuted.Render(priority.DueLabel(*task.DueDate, now))
	} else {
		detail += " " + s.TitleMuted.Render("No due date")
	}
	if task.Reminder && task.DueDate != nil {
		detail += s.TitleMuted.Render(" • reminder")
	}

	lineStyle := s.ListItem.Width(width)
	if selected {
		lineStyle = s.ListSelected.Width(width)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lineStyle.Render(checkbox+title),
		lineStyle.Render("    "+detail),
	) + "\n"
}

func (v *TaskListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}

	return v.styles.Help.Render(
		fmt.Sprintf("%s view • %s done • %s new • %s edit • %s del • %s/%s filter • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("x"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("e"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("f"),
			v.styles.HelpKey.Render("F"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      view task",
		s.HelpKey.Render("x") + "      toggle done",
		s.HelpKey.Render("n") + "      new task",
		s.HelpKey.Render("e") + "      edit task",
		s.HelpKey.Render("d") + "      delete task",
		s.HelpKey.Render("f") + "      next filter",
		s.HelpKey.Render("F") + "      previous filter",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q will be removed for good.", v.deleteTargetName)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
