package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/tgienger/deadline/internal/notify"
	"github.com/tgienger/deadline/internal/priority"
	"github.com/tgienger/deadline/internal/store"
	"github.com/tgienger/deadline/internal/ui/styles"
	"github.com/tgienger/deadline/internal/ui/views"
)

// FilterSetting is the settings key remembering the last filter
const FilterSetting = "ui.filter"

const (
	refreshInterval = time.Minute
	bannerDuration  = 10 * time.Second
)

// TaskStore is the task store as seen by the app
type TaskStore interface {
	views.TaskStore
	Subscribe() (<-chan store.Event, func())
}

// Settings persists small UI preferences
type Settings interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// Options configures an App
type Options struct {
	// DefaultFilter applies when no filter was saved
	DefaultFilter priority.Filter
	// Reminders delivers fired reminders; nil disables the banner
	Reminders <-chan notify.Reminder
	Logger    *zap.SugaredLogger
	Now       func() time.Time
	// Warning is shown above the list for the whole session
	Warning string
}

type App struct {
	store       TaskStore
	settings    Settings
	reminders   <-chan notify.Reminder
	events      <-chan store.Event
	unsubscribe func()
	log         *zap.SugaredLogger

	taskList *views.TaskListView
	styles   *styles.Styles

	banner   string
	bannerID int
	warning  string

	width  int
	height int
}

type storeEventMsg struct {
	event store.Event
	ok    bool
}

type reminderMsg struct {
	reminder notify.Reminder
	ok       bool
}

type tickMsg time.Time

type clearBannerMsg struct {
	id int
}

// Creates a new application. The saved filter wins over opts.DefaultFilter.
func NewApp(taskStore TaskStore, settings Settings, opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	filter := opts.DefaultFilter
	if filter == "" {
		filter = priority.FilterAll
	}
	if saved, err := settings.GetSetting(FilterSetting); err != nil {
		opts.Logger.Warnw("read saved filter", "error", err)
	} else if f, err := priority.ParseFilter(saved); err == nil && saved != "" {
		filter = f
	}

	events, unsubscribe := taskStore.Subscribe()
	return &App{
		store:       taskStore,
		settings:    settings,
		reminders:   opts.Reminders,
		events:      events,
		unsubscribe: unsubscribe,
		log:         opts.Logger,
		warning:     opts.Warning,
		taskList:    views.NewTaskListView(taskStore, filter, opts.Now),
		styles:      styles.NewStyles(),
	}
}

// Close ends the app's store subscription
func (a *App) Close() {
	a.unsubscribe()
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.taskList.Init(), a.waitForEvent(), tick()}
	if a.reminders != nil {
		cmds = append(cmds, a.waitForReminder())
	}
	return tea.Batch(cmds...)
}

func (a *App) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		e, ok := <-a.events
		return storeEventMsg{event: e, ok: ok}
	}
}

func (a *App) waitForReminder() tea.Cmd {
	return func() tea.Msg {
		r, ok := <-a.reminders
		return reminderMsg{reminder: r, ok: ok}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case storeEventMsg:
		if !msg.ok {
			return a, nil
		}
		return a, tea.Batch(a.taskList.Reload(), a.waitForEvent())

	case reminderMsg:
		if !msg.ok {
			return a, nil
		}
		a.bannerID++
		a.banner = fmt.Sprintf("⏰ %s: %s", msg.reminder.Title, msg.reminder.Body)
		id := a.bannerID
		return a, tea.Batch(
			a.waitForReminder(),
			a.taskList.Reload(),
			tea.Tick(bannerDuration, func(time.Time) tea.Msg { return clearBannerMsg{id: id} }),
		)

	case clearBannerMsg:
		if msg.id == a.bannerID {
			a.banner = ""
		}
		return a, nil

	case tickMsg:
		// Urgency is time dependent, so the list is re-sorted periodically.
		return a, tea.Batch(a.taskList.Reload(), tick())

	case views.FilterChanged:
		if err := a.settings.SetSetting(FilterSetting, string(msg.Filter)); err != nil {
			a.log.Warnw("save filter", "filter", msg.Filter, "error", err)
		}
		return a, nil
	}

	_, cmd := a.taskList.Update(msg)
	return a, cmd
}

func (a *App) View() string {
	var rows []string
	if a.warning != "" {
		warning := a.styles.Error.Width(styles.ContentWidth(a.width)).Render("⚠ " + a.warning)
		rows = append(rows, styles.CenterView(warning, a.width, 1))
	}
	if a.banner != "" {
		banner := a.styles.Banner.Width(styles.ContentWidth(a.width)).Render(a.banner)
		rows = append(rows, styles.CenterView(banner, a.width, 1))
	}
	if len(rows) == 0 {
		return a.taskList.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, append(rows, a.taskList.View())...)
}
